package ibc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/store"
	"github.com/CosmWasm/wasmsim/types"
	"github.com/CosmWasm/wasmsim/x/bank"
)

const ModuleName = "ibc"

const StoreKey = types.StoreKey(ModuleName)

// TransferPortID is the port of the built-in ics-20 transfer application.
const TransferPortID = "transfer"

// TransferEscrowName is the module account escrowing transferred coins until
// the packet is acknowledged or timed out.
const TransferEscrowName = "transfer_escrow"

// Channel states. Only open channels move packets.
const (
	StateInit    = "STATE_INIT"
	StateTryOpen = "STATE_TRYOPEN"
	StateOpen    = "STATE_OPEN"
	StateClosed  = "STATE_CLOSED"
)

var (
	channelPrefix    = []byte("channels/")
	sendSeqPrefix    = []byte("seq/send/")
	recvSeqPrefix    = []byte("seq/recv/")
	commitmentPrefix = []byte("commitments/")
	receiptPrefix    = []byte("receipts/")
	ackPrefix        = []byte("acks/")
	outboxPrefix     = []byte("outbox/")

	keyChannelSequence = []byte("seq/channels")
)

// Channel is the stored state of one channel end.
type Channel struct {
	ChannelID             string               `json:"channel_id"`
	PortID                string               `json:"port_id"`
	CounterpartyChannelID string               `json:"counterparty_channel_id,omitempty"`
	CounterpartyPortID    string               `json:"counterparty_port_id"`
	Order                 wasmvmtypes.IBCOrder `json:"order"`
	Version               string               `json:"version"`
	ConnectionID          string               `json:"connection_id"`
	State                 string               `json:"state"`
}

// ToWasmVM renders the contract-visible channel description.
func (c Channel) ToWasmVM() wasmvmtypes.IBCChannel {
	return wasmvmtypes.IBCChannel{
		Endpoint:             wasmvmtypes.IBCEndpoint{PortID: c.PortID, ChannelID: c.ChannelID},
		CounterpartyEndpoint: wasmvmtypes.IBCEndpoint{PortID: c.CounterpartyPortID, ChannelID: c.CounterpartyChannelID},
		Order:                c.Order,
		Version:              c.Version,
		ConnectionID:         c.ConnectionID,
	}
}

// ContractCallbacks is the wasm keeper surface the channel and packet
// lifecycle needs.
type ContractCallbacks interface {
	OnOpenChannel(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCChannelOpenMsg) (string, error)
	OnConnectChannel(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCChannelConnectMsg) error
	OnCloseChannel(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCChannelCloseMsg) error
	OnRecvPacket(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCPacketReceiveMsg) ([]byte, error)
	OnAckPacket(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCPacketAckMsg) error
	OnTimeoutPacket(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCPacketTimeoutMsg) error
	LoadAsyncAckPacket(ctx types.Context, channelID string, sequence uint64) (wasmvmtypes.IBCPacket, error)
	DeleteAsyncAckPacket(ctx types.Context, channelID string, sequence uint64)
}

// PortResolver maps a bound port to the contract address behind it, or errors
// for ports without a contract.
type PortResolver func(portID string) (types.AccAddress, error)

// Keeper implements the channel and packet lifecycle of one chain end. Packets
// are moved between two keepers by the test coordinator, there is no light
// client or proof verification underneath.
type Keeper struct {
	storeKey     types.StoreKey
	bank         *bank.Keeper
	wasm         ContractCallbacks
	portResolver PortResolver
}

func NewKeeper(bankKeeper *bank.Keeper, wasm ContractCallbacks, portResolver PortResolver) *Keeper {
	return &Keeper{storeKey: StoreKey, bank: bankKeeper, wasm: wasm, portResolver: portResolver}
}

// TransferEscrowAddress holds coins in flight.
func (k Keeper) TransferEscrowAddress() types.AccAddress {
	return types.ModuleAddress(TransferEscrowName)
}

func channelKey(channelID string) []byte { return append(channelPrefix, channelID...) }

func packetKey(prefix []byte, channelID string, sequence uint64) []byte {
	key := append(append([]byte{}, prefix...), channelID...)
	key = append(key, '/')
	return binary.BigEndian.AppendUint64(key, sequence)
}

// GetChannel loads one channel end.
func (k Keeper) GetChannel(ctx types.Context, channelID string) (Channel, bool) {
	bz := ctx.KVStore(k.storeKey).Get(channelKey(channelID))
	if bz == nil {
		return Channel{}, false
	}
	var c Channel
	if err := json.Unmarshal(bz, &c); err != nil {
		panic(err)
	}
	return c, true
}

func (k Keeper) setChannel(ctx types.Context, c Channel) {
	bz, err := json.Marshal(c)
	if err != nil {
		panic(err)
	}
	ctx.KVStore(k.storeKey).Set(channelKey(c.ChannelID), bz)
}

// IterateChannels calls cb for every stored channel end until cb returns true.
func (k Keeper) IterateChannels(ctx types.Context, cb func(Channel) bool) {
	it := ctx.KVStore(k.storeKey).Iterator(channelPrefix, store.PrefixEnd(channelPrefix))
	defer it.Close()
	for ; it.Valid(); it.Next() {
		var c Channel
		if err := json.Unmarshal(it.Value(), &c); err != nil {
			panic(err)
		}
		if cb(c) {
			return
		}
	}
}

func (k Keeper) openChannel(ctx types.Context, channelID string) (Channel, error) {
	channel, ok := k.GetChannel(ctx, channelID)
	if !ok {
		return Channel{}, types.ErrNoSuchChannel.Wrap(channelID)
	}
	if channel.State == StateClosed {
		return Channel{}, types.ErrChannelClosed.Wrap(channelID)
	}
	if channel.State != StateOpen {
		return Channel{}, types.ErrInvalid.Wrapf("channel %s not open: %s", channelID, channel.State)
	}
	return channel, nil
}

func (k Keeper) nextChannelID(ctx types.Context) string {
	return fmt.Sprintf("channel-%d", k.autoIncrementID(ctx, keyChannelSequence)-1)
}

func (k Keeper) autoIncrementID(ctx types.Context, sequenceKey []byte) uint64 {
	kv := ctx.KVStore(k.storeKey)
	id := uint64(1)
	if bz := kv.Get(sequenceKey); bz != nil {
		id = binary.BigEndian.Uint64(bz) + 1
	}
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, id)
	kv.Set(sequenceKey, bz)
	return id
}

func (k Keeper) nextSequence(ctx types.Context, prefix []byte, channelID string) uint64 {
	return k.autoIncrementID(ctx, append(append([]byte{}, prefix...), channelID...))
}

func (k Keeper) peekSequence(ctx types.Context, prefix []byte, channelID string) uint64 {
	bz := ctx.KVStore(k.storeKey).Get(append(append([]byte{}, prefix...), channelID...))
	if bz == nil {
		return 1
	}
	return binary.BigEndian.Uint64(bz) + 1
}

// contractForPort resolves the contract behind a port, nil for the built-in
// transfer application.
func (k Keeper) contractForPort(portID string) (types.AccAddress, error) {
	if portID == TransferPortID {
		return nil, nil
	}
	return k.portResolver(portID)
}

// ChanOpenInit starts the channel handshake on this chain end. The bound
// contract can negotiate the version.
func (k *Keeper) ChanOpenInit(ctx types.Context, portID, counterpartyPortID string, order wasmvmtypes.IBCOrder, version, connectionID string) (Channel, error) {
	channel := Channel{
		ChannelID:          k.nextChannelID(ctx),
		PortID:             portID,
		CounterpartyPortID: counterpartyPortID,
		Order:              order,
		Version:            version,
		ConnectionID:       connectionID,
		State:              StateInit,
	}
	contractAddr, err := k.contractForPort(portID)
	if err != nil {
		return Channel{}, err
	}
	if contractAddr != nil {
		msg := wasmvmtypes.IBCChannelOpenMsg{OpenInit: &wasmvmtypes.IBCOpenInit{Channel: channel.ToWasmVM()}}
		negotiated, err := k.wasm.OnOpenChannel(ctx, contractAddr, msg)
		if err != nil {
			return Channel{}, err
		}
		if negotiated != "" {
			channel.Version = negotiated
		}
	}
	k.setChannel(ctx, channel)
	return channel, nil
}

// ChanOpenTry runs the handshake try step on the counterparty chain end.
func (k *Keeper) ChanOpenTry(ctx types.Context, portID, counterpartyPortID, counterpartyChannelID string, order wasmvmtypes.IBCOrder, counterpartyVersion, connectionID string) (Channel, error) {
	channel := Channel{
		ChannelID:             k.nextChannelID(ctx),
		PortID:                portID,
		CounterpartyChannelID: counterpartyChannelID,
		CounterpartyPortID:    counterpartyPortID,
		Order:                 order,
		Version:               counterpartyVersion,
		ConnectionID:          connectionID,
		State:                 StateTryOpen,
	}
	contractAddr, err := k.contractForPort(portID)
	if err != nil {
		return Channel{}, err
	}
	if contractAddr != nil {
		msg := wasmvmtypes.IBCChannelOpenMsg{OpenTry: &wasmvmtypes.IBCOpenTry{
			Channel:             channel.ToWasmVM(),
			CounterpartyVersion: counterpartyVersion,
		}}
		negotiated, err := k.wasm.OnOpenChannel(ctx, contractAddr, msg)
		if err != nil {
			return Channel{}, err
		}
		if negotiated != "" {
			channel.Version = negotiated
		}
	}
	k.setChannel(ctx, channel)
	return channel, nil
}

// ChanOpenAck completes the handshake on the initiating chain end.
func (k *Keeper) ChanOpenAck(ctx types.Context, channelID, counterpartyChannelID, counterpartyVersion string) error {
	channel, ok := k.GetChannel(ctx, channelID)
	if !ok {
		return types.ErrNoSuchChannel.Wrap(channelID)
	}
	if channel.State != StateInit {
		return types.ErrInvalid.Wrapf("channel %s not in init state: %s", channelID, channel.State)
	}
	channel.CounterpartyChannelID = counterpartyChannelID
	channel.State = StateOpen
	k.setChannel(ctx, channel)

	contractAddr, err := k.contractForPort(channel.PortID)
	if err != nil {
		return err
	}
	if contractAddr != nil {
		msg := wasmvmtypes.IBCChannelConnectMsg{OpenAck: &wasmvmtypes.IBCOpenAck{
			Channel:             channel.ToWasmVM(),
			CounterpartyVersion: counterpartyVersion,
		}}
		return k.wasm.OnConnectChannel(ctx, contractAddr, msg)
	}
	return nil
}

// ChanOpenConfirm completes the handshake on the try chain end.
func (k *Keeper) ChanOpenConfirm(ctx types.Context, channelID string) error {
	channel, ok := k.GetChannel(ctx, channelID)
	if !ok {
		return types.ErrNoSuchChannel.Wrap(channelID)
	}
	if channel.State != StateTryOpen {
		return types.ErrInvalid.Wrapf("channel %s not in tryopen state: %s", channelID, channel.State)
	}
	channel.State = StateOpen
	k.setChannel(ctx, channel)

	contractAddr, err := k.contractForPort(channel.PortID)
	if err != nil {
		return err
	}
	if contractAddr != nil {
		msg := wasmvmtypes.IBCChannelConnectMsg{OpenConfirm: &wasmvmtypes.IBCOpenConfirm{Channel: channel.ToWasmVM()}}
		return k.wasm.OnConnectChannel(ctx, contractAddr, msg)
	}
	return nil
}

// SendPacket commits an outgoing packet on an open channel and queues it for
// relaying. Returns the assigned sequence.
func (k *Keeper) SendPacket(ctx types.Context, sourceChannelID string, data []byte, timeout wasmvmtypes.IBCTimeout) (uint64, error) {
	channel, err := k.openChannel(ctx, sourceChannelID)
	if err != nil {
		return 0, err
	}
	sequence := k.nextSequence(ctx, sendSeqPrefix, sourceChannelID)
	packet := wasmvmtypes.IBCPacket{
		Data:     data,
		Src:      wasmvmtypes.IBCEndpoint{PortID: channel.PortID, ChannelID: channel.ChannelID},
		Dest:     wasmvmtypes.IBCEndpoint{PortID: channel.CounterpartyPortID, ChannelID: channel.CounterpartyChannelID},
		Sequence: sequence,
		Timeout:  timeout,
	}
	bz, err := json.Marshal(packet)
	if err != nil {
		return 0, errorsmod.Wrap(err, "marshal packet")
	}
	kv := ctx.KVStore(k.storeKey)
	kv.Set(packetKey(commitmentPrefix, sourceChannelID, sequence), bz)
	kv.Set(packetKey(outboxPrefix, sourceChannelID, sequence), bz)

	ctx.EventManager().EmitEvent(types.NewEvent(types.EventTypeSendPacket,
		types.NewAttribute(types.AttributeKeyChannelID, sourceChannelID),
		types.NewAttribute(types.AttributeKeySequence, fmt.Sprintf("%d", sequence)),
	))
	return sequence, nil
}

// HasCommitment reports whether the outgoing packet is still outstanding,
// i.e. neither acknowledged nor timed out.
func (k Keeper) HasCommitment(ctx types.Context, channelID string, sequence uint64) bool {
	return ctx.KVStore(k.storeKey).Has(packetKey(commitmentPrefix, channelID, sequence))
}

// SentPacket returns an outstanding outgoing packet by sequence.
func (k Keeper) SentPacket(ctx types.Context, channelID string, sequence uint64) (wasmvmtypes.IBCPacket, bool) {
	bz := ctx.KVStore(k.storeKey).Get(packetKey(commitmentPrefix, channelID, sequence))
	if bz == nil {
		return wasmvmtypes.IBCPacket{}, false
	}
	var packet wasmvmtypes.IBCPacket
	if err := json.Unmarshal(bz, &packet); err != nil {
		panic(err)
	}
	return packet, true
}

// PendingSendPackets returns the not yet relayed packets of the channel in
// send order.
func (k Keeper) PendingSendPackets(ctx types.Context, channelID string) []wasmvmtypes.IBCPacket {
	var res []wasmvmtypes.IBCPacket
	prefix := append(append([]byte{}, outboxPrefix...), channelID+"/"...)
	it := ctx.KVStore(k.storeKey).Iterator(prefix, store.PrefixEnd(prefix))
	defer it.Close()
	for ; it.Valid(); it.Next() {
		var packet wasmvmtypes.IBCPacket
		if err := json.Unmarshal(it.Value(), &packet); err != nil {
			panic(err)
		}
		res = append(res, packet)
	}
	return res
}

// MarkPacketRelayed removes a packet from the outbox once the coordinator has
// delivered it (or timed it out). The commitment stays until ack or timeout.
func (k Keeper) MarkPacketRelayed(ctx types.Context, channelID string, sequence uint64) {
	ctx.KVStore(k.storeKey).Delete(packetKey(outboxPrefix, channelID, sequence))
}

// RecvPacket delivers an incoming packet to this chain end and returns the
// acknowledgement, nil when the receiver acknowledges asynchronously.
//
// A failing receive handler does not fail the delivery: its state changes are
// rolled back and the error is returned to the sender inside an error ack.
func (k *Keeper) RecvPacket(ctx types.Context, packet wasmvmtypes.IBCPacket, relayer types.AccAddress) ([]byte, error) {
	channel, err := k.openChannel(ctx, packet.Dest.ChannelID)
	if err != nil {
		return nil, err
	}
	if channel.PortID != packet.Dest.PortID {
		return nil, types.ErrInvalid.Wrapf("packet port %s does not match channel port %s", packet.Dest.PortID, channel.PortID)
	}
	kv := ctx.KVStore(k.storeKey)
	receiptKey := packetKey(receiptPrefix, packet.Dest.ChannelID, packet.Sequence)
	if kv.Has(receiptKey) {
		return nil, types.ErrDuplicate.Wrapf("packet %s/%d already received", packet.Dest.ChannelID, packet.Sequence)
	}
	if channel.Order == wasmvmtypes.Ordered {
		if next := k.peekSequence(ctx, recvSeqPrefix, packet.Dest.ChannelID); packet.Sequence != next {
			return nil, types.ErrInvalid.Wrapf("expected sequence %d on ordered channel, got %d", next, packet.Sequence)
		}
		k.nextSequence(ctx, recvSeqPrefix, packet.Dest.ChannelID)
	}
	kv.Set(receiptKey, []byte{1})

	ctx.EventManager().EmitEvent(types.NewEvent(types.EventTypeRecvPacket,
		types.NewAttribute(types.AttributeKeyChannelID, packet.Dest.ChannelID),
		types.NewAttribute(types.AttributeKeySequence, fmt.Sprintf("%d", packet.Sequence)),
	))

	// run the application handler in a sandbox. On error the handler's writes
	// are dropped but the receipt above stays: the packet is processed and the
	// sender learns the error from the ack.
	subCtx, commit := ctx.CacheContext()
	em := types.NewEventManager()
	subCtx = subCtx.WithEventManager(em)

	ack, handlerErr := k.deliverPacket(subCtx, channel, packet, relayer)
	if handlerErr != nil {
		ack = types.NewErrorAck(handlerErr).GetBytes()
	} else {
		commit()
		ctx.EventManager().EmitEvents(em.Events())
	}

	if ack == nil {
		// async acknowledgement, the receiver parks the packet
		return nil, nil
	}
	if err := k.WriteAcknowledgement(ctx, packet.Dest.ChannelID, packet.Sequence, ack); err != nil {
		return nil, err
	}
	return ack, nil
}

func (k *Keeper) deliverPacket(ctx types.Context, channel Channel, packet wasmvmtypes.IBCPacket, relayer types.AccAddress) ([]byte, error) {
	if channel.PortID == TransferPortID {
		return k.receiveTransfer(ctx, packet)
	}
	contractAddr, err := k.contractForPort(channel.PortID)
	if err != nil {
		return nil, err
	}
	msg := wasmvmtypes.IBCPacketReceiveMsg{Packet: packet, Relayer: relayer.String()}
	return k.wasm.OnRecvPacket(ctx, contractAddr, msg)
}

// WriteAcknowledgement records the ack for a received packet. Each packet can
// be acknowledged once.
func (k *Keeper) WriteAcknowledgement(ctx types.Context, channelID string, sequence uint64, ack []byte) error {
	kv := ctx.KVStore(k.storeKey)
	key := packetKey(ackPrefix, channelID, sequence)
	if kv.Has(key) {
		return types.ErrDuplicate.Wrapf("acknowledgement for %s/%d exists", channelID, sequence)
	}
	kv.Set(key, ack)
	ctx.EventManager().EmitEvent(types.NewEvent(types.EventTypeWriteAck,
		types.NewAttribute(types.AttributeKeyChannelID, channelID),
		types.NewAttribute(types.AttributeKeySequence, fmt.Sprintf("%d", sequence)),
	))
	return nil
}

// WriteAsyncAck releases the acknowledgement for a packet that was received
// with an async ack decision.
func (k *Keeper) WriteAsyncAck(ctx types.Context, channelID string, sequence uint64, ack []byte) error {
	if _, err := k.wasm.LoadAsyncAckPacket(ctx, channelID, sequence); err != nil {
		return err
	}
	if err := k.WriteAcknowledgement(ctx, channelID, sequence, ack); err != nil {
		return err
	}
	k.wasm.DeleteAsyncAckPacket(ctx, channelID, sequence)
	return nil
}

// HasReceipt reports whether the incoming packet was delivered on this chain
// end. The relayer proves non-receipt with it before timing a packet out.
func (k Keeper) HasReceipt(ctx types.Context, channelID string, sequence uint64) bool {
	return ctx.KVStore(k.storeKey).Has(packetKey(receiptPrefix, channelID, sequence))
}

// GetAcknowledgement returns the recorded ack for a received packet.
func (k Keeper) GetAcknowledgement(ctx types.Context, channelID string, sequence uint64) ([]byte, bool) {
	bz := ctx.KVStore(k.storeKey).Get(packetKey(ackPrefix, channelID, sequence))
	return bz, bz != nil
}

// AcknowledgePacket completes the lifecycle of an outgoing packet on the
// sending chain end. Exactly one of AcknowledgePacket and TimeoutPacket can
// succeed per packet.
func (k *Keeper) AcknowledgePacket(ctx types.Context, packet wasmvmtypes.IBCPacket, ack []byte, relayer types.AccAddress) error {
	kv := ctx.KVStore(k.storeKey)
	commitKey := packetKey(commitmentPrefix, packet.Src.ChannelID, packet.Sequence)
	if !kv.Has(commitKey) {
		return types.ErrNoSuchPacket.Wrapf("packet %s/%d already acknowledged or timed out", packet.Src.ChannelID, packet.Sequence)
	}
	kv.Delete(commitKey)

	ctx.EventManager().EmitEvent(types.NewEvent(types.EventTypeAckPacket,
		types.NewAttribute(types.AttributeKeyChannelID, packet.Src.ChannelID),
		types.NewAttribute(types.AttributeKeySequence, fmt.Sprintf("%d", packet.Sequence)),
	))

	if packet.Src.PortID == TransferPortID {
		var parsed types.Acknowledgement
		if err := json.Unmarshal(ack, &parsed); err != nil || !parsed.Success() {
			// failed transfer, give the escrowed coins back
			return k.refundTransfer(ctx, packet)
		}
		return nil
	}
	contractAddr, err := k.contractForPort(packet.Src.PortID)
	if err != nil {
		return err
	}
	msg := wasmvmtypes.IBCPacketAckMsg{
		Acknowledgement: wasmvmtypes.IBCAcknowledgement{Data: ack},
		OriginalPacket:  packet,
		Relayer:         relayer.String(),
	}
	return k.wasm.OnAckPacket(ctx, contractAddr, msg)
}

// TimeoutPacket completes the lifecycle of an outgoing packet that was never
// received. The caller passes the destination chain's height and time; the
// timeout only goes through once the packet's deadline elapsed there. Ordered
// channels close on timeout.
func (k *Keeper) TimeoutPacket(ctx types.Context, packet wasmvmtypes.IBCPacket, destHeight int64, destTime time.Time, relayer types.AccAddress) error {
	kv := ctx.KVStore(k.storeKey)
	commitKey := packetKey(commitmentPrefix, packet.Src.ChannelID, packet.Sequence)
	if !kv.Has(commitKey) {
		return types.ErrNoSuchPacket.Wrapf("packet %s/%d already acknowledged or timed out", packet.Src.ChannelID, packet.Sequence)
	}
	if !deadlineElapsed(packet.Timeout, destHeight, destTime) {
		return types.ErrInvalid.Wrapf("packet %s/%d not expired at destination height %d time %s", packet.Src.ChannelID, packet.Sequence, destHeight, destTime)
	}
	kv.Delete(commitKey)

	ctx.EventManager().EmitEvent(types.NewEvent(types.EventTypeTimeout,
		types.NewAttribute(types.AttributeKeyChannelID, packet.Src.ChannelID),
		types.NewAttribute(types.AttributeKeySequence, fmt.Sprintf("%d", packet.Sequence)),
	))

	var handlerErr error
	if packet.Src.PortID == TransferPortID {
		handlerErr = k.refundTransfer(ctx, packet)
	} else {
		contractAddr, err := k.contractForPort(packet.Src.PortID)
		if err != nil {
			return err
		}
		msg := wasmvmtypes.IBCPacketTimeoutMsg{Packet: packet, Relayer: relayer.String()}
		handlerErr = k.wasm.OnTimeoutPacket(ctx, contractAddr, msg)
	}
	if handlerErr != nil {
		return handlerErr
	}

	if channel, ok := k.GetChannel(ctx, packet.Src.ChannelID); ok && channel.Order == wasmvmtypes.Ordered {
		return k.CloseChannel(ctx, packet.Src.ChannelID)
	}
	return nil
}

// deadlineElapsed reports whether the packet deadline passed at the
// destination. Timestamps are unix nanoseconds; either limit expiring is
// enough. A packet without any deadline never expires.
func deadlineElapsed(timeout wasmvmtypes.IBCTimeout, destHeight int64, destTime time.Time) bool {
	if timeout.Timestamp != 0 && uint64(destTime.UnixNano()) >= timeout.Timestamp {
		return true
	}
	if timeout.Block != nil && uint64(destHeight) >= timeout.Block.Height {
		return true
	}
	return false
}

// CloseChannel closes this channel end and notifies a bound contract.
func (k *Keeper) CloseChannel(ctx types.Context, channelID string) error {
	channel, ok := k.GetChannel(ctx, channelID)
	if !ok {
		return types.ErrNoSuchChannel.Wrap(channelID)
	}
	if channel.State == StateClosed {
		return types.ErrChannelClosed.Wrap(channelID)
	}
	channel.State = StateClosed
	k.setChannel(ctx, channel)

	ctx.EventManager().EmitEvent(types.NewEvent(types.EventTypeChannelClose,
		types.NewAttribute(types.AttributeKeyChannelID, channelID),
	))

	contractAddr, err := k.contractForPort(channel.PortID)
	if err != nil {
		return err
	}
	if contractAddr != nil {
		msg := wasmvmtypes.IBCChannelCloseMsg{CloseInit: &wasmvmtypes.IBCCloseInit{Channel: channel.ToWasmVM()}}
		return k.wasm.OnCloseChannel(ctx, contractAddr, msg)
	}
	return nil
}

// CloseChannelConfirm closes this end after the counterparty closed first.
func (k *Keeper) CloseChannelConfirm(ctx types.Context, channelID string) error {
	channel, ok := k.GetChannel(ctx, channelID)
	if !ok {
		return types.ErrNoSuchChannel.Wrap(channelID)
	}
	if channel.State == StateClosed {
		return nil
	}
	channel.State = StateClosed
	k.setChannel(ctx, channel)

	ctx.EventManager().EmitEvent(types.NewEvent(types.EventTypeChannelClose,
		types.NewAttribute(types.AttributeKeyChannelID, channelID),
	))

	contractAddr, err := k.contractForPort(channel.PortID)
	if err != nil {
		return err
	}
	if contractAddr != nil {
		msg := wasmvmtypes.IBCChannelCloseMsg{CloseConfirm: &wasmvmtypes.IBCCloseConfirm{Channel: channel.ToWasmVM()}}
		return k.wasm.OnCloseChannel(ctx, contractAddr, msg)
	}
	return nil
}

// FungibleTokenPacketData is the ics-20 wire format.
type FungibleTokenPacketData struct {
	Denom    string `json:"denom"`
	Amount   string `json:"amount"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Memo     string `json:"memo,omitempty"`
}

// Transfer escrows the coin and sends an ics-20 packet on the given transfer
// channel.
func (k *Keeper) Transfer(ctx types.Context, sender types.AccAddress, channelID, toAddress string, amount types.Coin, timeout wasmvmtypes.IBCTimeout, memo string) (uint64, error) {
	channel, err := k.openChannel(ctx, channelID)
	if err != nil {
		return 0, err
	}
	if channel.PortID != TransferPortID {
		return 0, types.ErrInvalid.Wrapf("channel %s is not a transfer channel", channelID)
	}
	if amount.Amount.IsNil() || !amount.Amount.IsPositive() {
		return 0, types.ErrInvalid.Wrap("non-positive transfer amount")
	}
	if err := k.bank.SendCoins(ctx, sender, k.TransferEscrowAddress(), types.NewCoins(amount)); err != nil {
		return 0, err
	}
	data := FungibleTokenPacketData{
		Denom:    amount.Denom,
		Amount:   amount.Amount.String(),
		Sender:   sender.String(),
		Receiver: toAddress,
		Memo:     memo,
	}
	bz, err := json.Marshal(data)
	if err != nil {
		return 0, errorsmod.Wrap(err, "marshal packet data")
	}
	return k.SendPacket(ctx, channelID, bz, timeout)
}

// receiveTransfer credits the receiver on this chain end. The simulated
// chains share a denom namespace, no voucher prefixing takes place.
func (k *Keeper) receiveTransfer(ctx types.Context, packet wasmvmtypes.IBCPacket) ([]byte, error) {
	var data FungibleTokenPacketData
	if err := json.Unmarshal(packet.Data, &data); err != nil {
		return nil, types.ErrInvalid.Wrapf("packet data: %s", err)
	}
	receiver, err := types.AccAddressFromBech32(data.Receiver)
	if err != nil {
		return nil, errorsmod.Wrap(err, "receiver")
	}
	amount, ok := sdkmath.NewIntFromString(data.Amount)
	if !ok || !amount.IsPositive() {
		return nil, types.ErrInvalid.Wrapf("amount: %s", data.Amount)
	}
	if err := k.bank.MintCoins(ctx, receiver, types.NewCoins(types.NewCoin(data.Denom, amount))); err != nil {
		return nil, err
	}
	return types.NewSuccessAck([]byte{1}).GetBytes(), nil
}

// refundTransfer gives escrowed coins back after a failed or timed out
// transfer.
func (k *Keeper) refundTransfer(ctx types.Context, packet wasmvmtypes.IBCPacket) error {
	var data FungibleTokenPacketData
	if err := json.Unmarshal(packet.Data, &data); err != nil {
		return types.ErrInvalid.Wrapf("packet data: %s", err)
	}
	sender, err := types.AccAddressFromBech32(data.Sender)
	if err != nil {
		return errorsmod.Wrap(err, "sender")
	}
	amount, ok := sdkmath.NewIntFromString(data.Amount)
	if !ok {
		return types.ErrInvalid.Wrapf("amount: %s", data.Amount)
	}
	return k.bank.SendCoins(ctx, k.TransferEscrowAddress(), sender, types.NewCoins(types.NewCoin(data.Denom, amount)))
}
