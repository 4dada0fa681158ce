package ibc

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/store"
	"github.com/CosmWasm/wasmsim/types"
	"github.com/CosmWasm/wasmsim/x/bank"
)

type mockCallbacks struct {
	OnOpenChannelFn    func(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCChannelOpenMsg) (string, error)
	OnConnectChannelFn func(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCChannelConnectMsg) error
	OnCloseChannelFn   func(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCChannelCloseMsg) error
	OnRecvPacketFn     func(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCPacketReceiveMsg) ([]byte, error)
	OnAckPacketFn      func(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCPacketAckMsg) error
	OnTimeoutPacketFn  func(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCPacketTimeoutMsg) error
	parked             map[uint64]wasmvmtypes.IBCPacket
}

func (m *mockCallbacks) OnOpenChannel(ctx types.Context, addr types.AccAddress, msg wasmvmtypes.IBCChannelOpenMsg) (string, error) {
	if m.OnOpenChannelFn == nil {
		return "", nil
	}
	return m.OnOpenChannelFn(ctx, addr, msg)
}

func (m *mockCallbacks) OnConnectChannel(ctx types.Context, addr types.AccAddress, msg wasmvmtypes.IBCChannelConnectMsg) error {
	if m.OnConnectChannelFn == nil {
		return nil
	}
	return m.OnConnectChannelFn(ctx, addr, msg)
}

func (m *mockCallbacks) OnCloseChannel(ctx types.Context, addr types.AccAddress, msg wasmvmtypes.IBCChannelCloseMsg) error {
	if m.OnCloseChannelFn == nil {
		return nil
	}
	return m.OnCloseChannelFn(ctx, addr, msg)
}

func (m *mockCallbacks) OnRecvPacket(ctx types.Context, addr types.AccAddress, msg wasmvmtypes.IBCPacketReceiveMsg) ([]byte, error) {
	if m.OnRecvPacketFn == nil {
		return types.NewSuccessAck([]byte{1}).GetBytes(), nil
	}
	return m.OnRecvPacketFn(ctx, addr, msg)
}

func (m *mockCallbacks) OnAckPacket(ctx types.Context, addr types.AccAddress, msg wasmvmtypes.IBCPacketAckMsg) error {
	if m.OnAckPacketFn == nil {
		return nil
	}
	return m.OnAckPacketFn(ctx, addr, msg)
}

func (m *mockCallbacks) OnTimeoutPacket(ctx types.Context, addr types.AccAddress, msg wasmvmtypes.IBCPacketTimeoutMsg) error {
	if m.OnTimeoutPacketFn == nil {
		return nil
	}
	return m.OnTimeoutPacketFn(ctx, addr, msg)
}

func (m *mockCallbacks) LoadAsyncAckPacket(_ types.Context, channelID string, sequence uint64) (wasmvmtypes.IBCPacket, error) {
	p, ok := m.parked[sequence]
	if !ok {
		return wasmvmtypes.IBCPacket{}, types.ErrNoSuchPacket.Wrapf("%s/%d", channelID, sequence)
	}
	return p, nil
}

func (m *mockCallbacks) DeleteAsyncAckPacket(_ types.Context, _ string, sequence uint64) {
	delete(m.parked, sequence)
}

var contractAddr = types.ModuleAddress("myContract")

func testPortResolver(portID string) (types.AccAddress, error) {
	return contractAddr, nil
}

func setupKeeper(t *testing.T) (types.Context, *Keeper, *bank.Keeper, *mockCallbacks) {
	t.Helper()
	ctx := types.NewContext("testing", 1, time.Unix(1_600_000_000, 0), log.NewTestLogger(t), store.NewMemStore())
	bankKeeper := bank.NewKeeper()
	callbacks := &mockCallbacks{parked: make(map[uint64]wasmvmtypes.IBCPacket)}
	k := NewKeeper(bankKeeper, callbacks, testPortResolver)
	return ctx, k, bankKeeper, callbacks
}

// openTestChannel stores a channel end that is already open.
func openTestChannel(ctx types.Context, k *Keeper, portID string, order wasmvmtypes.IBCOrder) Channel {
	c := Channel{
		ChannelID:             k.nextChannelID(ctx),
		PortID:                portID,
		CounterpartyChannelID: "channel-9",
		CounterpartyPortID:    portID,
		Order:                 order,
		Version:               "v1",
		ConnectionID:          "connection-0",
		State:                 StateOpen,
	}
	k.setChannel(ctx, c)
	return c
}

func incomingPacket(c Channel, sequence uint64, data []byte) wasmvmtypes.IBCPacket {
	return wasmvmtypes.IBCPacket{
		Data:     data,
		Src:      wasmvmtypes.IBCEndpoint{PortID: c.CounterpartyPortID, ChannelID: c.CounterpartyChannelID},
		Dest:     wasmvmtypes.IBCEndpoint{PortID: c.PortID, ChannelID: c.ChannelID},
		Sequence: sequence,
		Timeout:  wasmvmtypes.IBCTimeout{Timestamp: 9999999999},
	}
}

func TestChannelHandshake(t *testing.T) {
	ctx, k, _, _ := setupKeeper(t)

	init, err := k.ChanOpenInit(ctx, TransferPortID, TransferPortID, wasmvmtypes.Unordered, "ics20-1", "connection-0")
	require.NoError(t, err)
	assert.Equal(t, "channel-0", init.ChannelID)
	assert.Equal(t, StateInit, init.State)
	assert.Equal(t, "ics20-1", init.Version)

	try, err := k.ChanOpenTry(ctx, TransferPortID, TransferPortID, init.ChannelID, wasmvmtypes.Unordered, "ics20-1", "connection-0")
	require.NoError(t, err)
	assert.Equal(t, "channel-1", try.ChannelID)
	assert.Equal(t, StateTryOpen, try.State)

	require.NoError(t, k.ChanOpenAck(ctx, init.ChannelID, try.ChannelID, try.Version))
	got, ok := k.GetChannel(ctx, init.ChannelID)
	require.True(t, ok)
	assert.Equal(t, StateOpen, got.State)
	assert.Equal(t, try.ChannelID, got.CounterpartyChannelID)

	require.NoError(t, k.ChanOpenConfirm(ctx, try.ChannelID))
	got, _ = k.GetChannel(ctx, try.ChannelID)
	assert.Equal(t, StateOpen, got.State)

	// handshake steps reject wrong states
	require.Error(t, k.ChanOpenAck(ctx, init.ChannelID, try.ChannelID, try.Version))
	require.Error(t, k.ChanOpenConfirm(ctx, try.ChannelID))
}

func TestContractVersionNegotiation(t *testing.T) {
	ctx, k, _, callbacks := setupKeeper(t)
	callbacks.OnOpenChannelFn = func(_ types.Context, _ types.AccAddress, msg wasmvmtypes.IBCChannelOpenMsg) (string, error) {
		return "contract-v2", nil
	}

	channel, err := k.ChanOpenInit(ctx, "wasm.port", TransferPortID, wasmvmtypes.Unordered, "proposed-v1", "connection-0")
	require.NoError(t, err)
	assert.Equal(t, "contract-v2", channel.Version)
}

func TestContractRejectsChannel(t *testing.T) {
	ctx, k, _, callbacks := setupKeeper(t)
	callbacks.OnOpenChannelFn = func(_ types.Context, _ types.AccAddress, _ wasmvmtypes.IBCChannelOpenMsg) (string, error) {
		return "", errors.New("ordered channels only")
	}

	_, err := k.ChanOpenInit(ctx, "wasm.port", TransferPortID, wasmvmtypes.Unordered, "v1", "connection-0")
	require.Error(t, err)
	_, ok := k.GetChannel(ctx, "channel-0")
	assert.False(t, ok)
}

func TestSendPacket(t *testing.T) {
	ctx, k, _, _ := setupKeeper(t)
	c := openTestChannel(ctx, k, "wasm.port", wasmvmtypes.Unordered)

	seq1, err := k.SendPacket(ctx, c.ChannelID, []byte("one"), wasmvmtypes.IBCTimeout{Timestamp: 1})
	require.NoError(t, err)
	seq2, err := k.SendPacket(ctx, c.ChannelID, []byte("two"), wasmvmtypes.IBCTimeout{Timestamp: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq1)
	assert.Equal(t, uint64(2), seq2)
	assert.True(t, k.HasCommitment(ctx, c.ChannelID, seq1))

	pending := k.PendingSendPackets(ctx, c.ChannelID)
	require.Len(t, pending, 2)
	assert.Equal(t, []byte("one"), pending[0].Data)
	assert.Equal(t, c.CounterpartyChannelID, pending[0].Dest.ChannelID)

	k.MarkPacketRelayed(ctx, c.ChannelID, seq1)
	assert.Len(t, k.PendingSendPackets(ctx, c.ChannelID), 1)
	// relaying does not settle the packet
	assert.True(t, k.HasCommitment(ctx, c.ChannelID, seq1))
}

func TestSendPacketRequiresOpenChannel(t *testing.T) {
	ctx, k, _, _ := setupKeeper(t)

	_, err := k.SendPacket(ctx, "channel-404", nil, wasmvmtypes.IBCTimeout{})
	require.ErrorIs(t, err, types.ErrNoSuchChannel)

	c := openTestChannel(ctx, k, "wasm.port", wasmvmtypes.Unordered)
	require.NoError(t, k.CloseChannel(ctx, c.ChannelID))
	_, err = k.SendPacket(ctx, c.ChannelID, nil, wasmvmtypes.IBCTimeout{})
	require.ErrorIs(t, err, types.ErrChannelClosed)
}

func TestRecvPacket(t *testing.T) {
	ctx, k, _, _ := setupKeeper(t)
	c := openTestChannel(ctx, k, "wasm.port", wasmvmtypes.Unordered)
	relayer := types.ModuleAddress("relayer")

	packet := incomingPacket(c, 1, []byte("hi"))
	ack, err := k.RecvPacket(ctx, packet, relayer)
	require.NoError(t, err)
	assert.Equal(t, types.NewSuccessAck([]byte{1}).GetBytes(), ack)

	stored, ok := k.GetAcknowledgement(ctx, c.ChannelID, 1)
	require.True(t, ok)
	assert.Equal(t, ack, stored)

	// replay protection
	_, err = k.RecvPacket(ctx, packet, relayer)
	require.ErrorIs(t, err, types.ErrDuplicate)
}

func TestRecvPacketHandlerErrorBecomesErrorAck(t *testing.T) {
	ctx, k, _, callbacks := setupKeeper(t)
	c := openTestChannel(ctx, k, "wasm.port", wasmvmtypes.Unordered)
	dirtyKey := types.StoreKey("dirty")

	callbacks.OnRecvPacketFn = func(subCtx types.Context, _ types.AccAddress, _ wasmvmtypes.IBCPacketReceiveMsg) ([]byte, error) {
		subCtx.KVStore(dirtyKey).Set([]byte("k"), []byte("v"))
		return nil, errors.New("boom")
	}

	packet := incomingPacket(c, 1, []byte("hi"))
	ack, err := k.RecvPacket(ctx, packet, types.ModuleAddress("relayer"))
	require.NoError(t, err)

	// the handler error travels in the ack, verbatim
	assert.Equal(t, types.NewErrorAck(errors.New("boom")).GetBytes(), ack)
	// handler state is rolled back
	assert.False(t, ctx.KVStore(dirtyKey).Has([]byte("k")))
	// the receipt stays, the packet cannot be replayed
	_, err = k.RecvPacket(ctx, packet, types.ModuleAddress("relayer"))
	require.ErrorIs(t, err, types.ErrDuplicate)
}

func TestRecvPacketOrderedChannelSequence(t *testing.T) {
	ctx, k, _, _ := setupKeeper(t)
	c := openTestChannel(ctx, k, "wasm.port", wasmvmtypes.Ordered)
	relayer := types.ModuleAddress("relayer")

	// out of order delivery rejected
	_, err := k.RecvPacket(ctx, incomingPacket(c, 2, nil), relayer)
	require.ErrorIs(t, err, types.ErrInvalid)

	_, err = k.RecvPacket(ctx, incomingPacket(c, 1, nil), relayer)
	require.NoError(t, err)
	_, err = k.RecvPacket(ctx, incomingPacket(c, 2, nil), relayer)
	require.NoError(t, err)
}

func TestRecvPacketAsyncAck(t *testing.T) {
	ctx, k, _, callbacks := setupKeeper(t)
	c := openTestChannel(ctx, k, "wasm.port", wasmvmtypes.Unordered)

	packet := incomingPacket(c, 1, []byte("later"))
	callbacks.OnRecvPacketFn = func(_ types.Context, _ types.AccAddress, msg wasmvmtypes.IBCPacketReceiveMsg) ([]byte, error) {
		callbacks.parked[msg.Packet.Sequence] = msg.Packet
		return nil, nil
	}

	ack, err := k.RecvPacket(ctx, packet, types.ModuleAddress("relayer"))
	require.NoError(t, err)
	assert.Nil(t, ack)
	_, ok := k.GetAcknowledgement(ctx, c.ChannelID, 1)
	assert.False(t, ok)

	// the parked packet releases exactly once
	require.NoError(t, k.WriteAsyncAck(ctx, c.ChannelID, 1, []byte("late-ack")))
	stored, ok := k.GetAcknowledgement(ctx, c.ChannelID, 1)
	require.True(t, ok)
	assert.Equal(t, []byte("late-ack"), stored)

	require.ErrorIs(t, k.WriteAsyncAck(ctx, c.ChannelID, 1, []byte("again")), types.ErrNoSuchPacket)
}

func TestWriteAsyncAckWithoutParkedPacket(t *testing.T) {
	ctx, k, _, _ := setupKeeper(t)
	c := openTestChannel(ctx, k, "wasm.port", wasmvmtypes.Unordered)
	require.ErrorIs(t, k.WriteAsyncAck(ctx, c.ChannelID, 7, []byte("ack")), types.ErrNoSuchPacket)
}

func TestAckAndTimeoutAreExclusive(t *testing.T) {
	relayer := types.ModuleAddress("relayer")
	successAck := types.NewSuccessAck([]byte{1}).GetBytes()

	specs := map[string]struct {
		first  func(ctx types.Context, k *Keeper, packet wasmvmtypes.IBCPacket) error
		second func(ctx types.Context, k *Keeper, packet wasmvmtypes.IBCPacket) error
	}{
		"ack then timeout": {
			first: func(ctx types.Context, k *Keeper, packet wasmvmtypes.IBCPacket) error {
				return k.AcknowledgePacket(ctx, packet, successAck, relayer)
			},
			second: func(ctx types.Context, k *Keeper, packet wasmvmtypes.IBCPacket) error {
				return k.TimeoutPacket(ctx, packet, ctx.BlockHeight(), ctx.BlockTime(), relayer)
			},
		},
		"timeout then ack": {
			first: func(ctx types.Context, k *Keeper, packet wasmvmtypes.IBCPacket) error {
				return k.TimeoutPacket(ctx, packet, ctx.BlockHeight(), ctx.BlockTime(), relayer)
			},
			second: func(ctx types.Context, k *Keeper, packet wasmvmtypes.IBCPacket) error {
				return k.AcknowledgePacket(ctx, packet, successAck, relayer)
			},
		},
		"ack twice": {
			first: func(ctx types.Context, k *Keeper, packet wasmvmtypes.IBCPacket) error {
				return k.AcknowledgePacket(ctx, packet, successAck, relayer)
			},
			second: func(ctx types.Context, k *Keeper, packet wasmvmtypes.IBCPacket) error {
				return k.AcknowledgePacket(ctx, packet, successAck, relayer)
			},
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			ctx, k, _, _ := setupKeeper(t)
			c := openTestChannel(ctx, k, "wasm.port", wasmvmtypes.Unordered)
			seq, err := k.SendPacket(ctx, c.ChannelID, []byte("data"), wasmvmtypes.IBCTimeout{Timestamp: 1})
			require.NoError(t, err)
			packet, ok := k.SentPacket(ctx, c.ChannelID, seq)
			require.True(t, ok)

			require.NoError(t, spec.first(ctx, k, packet))
			assert.False(t, k.HasCommitment(ctx, c.ChannelID, seq))
			require.ErrorIs(t, spec.second(ctx, k, packet), types.ErrNoSuchPacket)
		})
	}
}

func TestTimeoutClosesOrderedChannel(t *testing.T) {
	ctx, k, _, _ := setupKeeper(t)
	c := openTestChannel(ctx, k, "wasm.port", wasmvmtypes.Ordered)
	seq, err := k.SendPacket(ctx, c.ChannelID, []byte("data"), wasmvmtypes.IBCTimeout{Timestamp: 1})
	require.NoError(t, err)
	packet, ok := k.SentPacket(ctx, c.ChannelID, seq)
	require.True(t, ok)

	require.NoError(t, k.TimeoutPacket(ctx, packet, ctx.BlockHeight(), ctx.BlockTime(), types.ModuleAddress("relayer")))
	got, ok := k.GetChannel(ctx, c.ChannelID)
	require.True(t, ok)
	assert.Equal(t, StateClosed, got.State)
}

func TestTimeoutRequiresElapsedDeadline(t *testing.T) {
	relayer := types.ModuleAddress("relayer")

	t.Run("timestamp deadline", func(t *testing.T) {
		ctx, k, _, _ := setupKeeper(t)
		c := openTestChannel(ctx, k, "wasm.port", wasmvmtypes.Unordered)
		deadline := uint64(ctx.BlockTime().Add(time.Hour).UnixNano())
		seq, err := k.SendPacket(ctx, c.ChannelID, []byte("data"), wasmvmtypes.IBCTimeout{Timestamp: deadline})
		require.NoError(t, err)
		packet, ok := k.SentPacket(ctx, c.ChannelID, seq)
		require.True(t, ok)

		// the destination clock has not reached the deadline yet
		err = k.TimeoutPacket(ctx, packet, ctx.BlockHeight(), ctx.BlockTime(), relayer)
		require.ErrorIs(t, err, types.ErrInvalid)
		assert.True(t, k.HasCommitment(ctx, c.ChannelID, seq))

		require.NoError(t, k.TimeoutPacket(ctx, packet, ctx.BlockHeight(), ctx.BlockTime().Add(2*time.Hour), relayer))
		assert.False(t, k.HasCommitment(ctx, c.ChannelID, seq))
	})

	t.Run("block height deadline", func(t *testing.T) {
		ctx, k, _, _ := setupKeeper(t)
		c := openTestChannel(ctx, k, "wasm.port", wasmvmtypes.Unordered)
		deadline := uint64(ctx.BlockHeight() + 10)
		seq, err := k.SendPacket(ctx, c.ChannelID, []byte("data"), wasmvmtypes.IBCTimeout{Block: &wasmvmtypes.IBCTimeoutBlock{Revision: 1, Height: deadline}})
		require.NoError(t, err)
		packet, ok := k.SentPacket(ctx, c.ChannelID, seq)
		require.True(t, ok)

		err = k.TimeoutPacket(ctx, packet, ctx.BlockHeight(), ctx.BlockTime(), relayer)
		require.ErrorIs(t, err, types.ErrInvalid)
		assert.True(t, k.HasCommitment(ctx, c.ChannelID, seq))

		require.NoError(t, k.TimeoutPacket(ctx, packet, int64(deadline), ctx.BlockTime(), relayer))
		assert.False(t, k.HasCommitment(ctx, c.ChannelID, seq))
	})
}

func TestDispatchMsgUnknownVariant(t *testing.T) {
	ctx, k, _, _ := setupKeeper(t)

	_, _, err := k.DispatchMsg(ctx, contractAddr, "wasm.port", &wasmvmtypes.IBCMsg{})
	require.ErrorIs(t, err, types.ErrUnknownMsg)
}

func TestTransferEscrowAndRefund(t *testing.T) {
	sender := types.ModuleAddress("sender")
	coin := types.NewInt64Coin("denom", 100)

	setupTransfer := func(t *testing.T) (types.Context, *Keeper, *bank.Keeper, Channel, uint64) {
		ctx, k, bankKeeper, _ := setupKeeper(t)
		c := openTestChannel(ctx, k, TransferPortID, wasmvmtypes.Unordered)
		require.NoError(t, bankKeeper.MintCoins(ctx, sender, types.NewCoins(coin)))
		seq, err := k.Transfer(ctx, sender, c.ChannelID, types.ModuleAddress("receiver").String(), coin, wasmvmtypes.IBCTimeout{Timestamp: 1}, "")
		require.NoError(t, err)

		// coins moved into escrow
		assert.True(t, bankKeeper.GetAllBalances(ctx, sender).IsZero())
		assert.Equal(t, coin, bankKeeper.GetBalance(ctx, k.TransferEscrowAddress(), "denom"))
		return ctx, k, bankKeeper, c, seq
	}

	packetFor := func(t *testing.T, ctx types.Context, k *Keeper, c Channel) wasmvmtypes.IBCPacket {
		t.Helper()
		pending := k.PendingSendPackets(ctx, c.ChannelID)
		require.Len(t, pending, 1)
		return pending[0]
	}

	t.Run("success ack keeps escrow", func(t *testing.T) {
		ctx, k, bankKeeper, c, seq := setupTransfer(t)
		packet := packetFor(t, ctx, k, c)
		require.NoError(t, k.AcknowledgePacket(ctx, packet, types.NewSuccessAck([]byte{1}).GetBytes(), sender))
		assert.Equal(t, coin, bankKeeper.GetBalance(ctx, k.TransferEscrowAddress(), "denom"))
		assert.False(t, k.HasCommitment(ctx, c.ChannelID, seq))
	})

	t.Run("error ack refunds", func(t *testing.T) {
		ctx, k, bankKeeper, c, seq := setupTransfer(t)
		packet := packetFor(t, ctx, k, c)
		errAck := types.NewErrorAck(errors.New("no receiver")).GetBytes()
		require.NoError(t, k.AcknowledgePacket(ctx, packet, errAck, sender))
		assert.Equal(t, coin, bankKeeper.GetBalance(ctx, sender, "denom"))
		assert.True(t, bankKeeper.GetAllBalances(ctx, k.TransferEscrowAddress()).IsZero())
		assert.False(t, k.HasCommitment(ctx, c.ChannelID, seq))
	})

	t.Run("timeout refunds", func(t *testing.T) {
		ctx, k, bankKeeper, c, seq := setupTransfer(t)
		packet := packetFor(t, ctx, k, c)
		require.NoError(t, k.TimeoutPacket(ctx, packet, ctx.BlockHeight(), ctx.BlockTime(), sender))
		assert.Equal(t, coin, bankKeeper.GetBalance(ctx, sender, "denom"))
		assert.False(t, k.HasCommitment(ctx, c.ChannelID, seq))
	})
}

func TestReceiveTransferMintsToReceiver(t *testing.T) {
	ctx, k, bankKeeper, _ := setupKeeper(t)
	c := openTestChannel(ctx, k, TransferPortID, wasmvmtypes.Unordered)
	receiver := types.ModuleAddress("receiver")

	data := []byte(`{"denom":"denom","amount":"75","sender":"` + types.ModuleAddress("sender").String() + `","receiver":"` + receiver.String() + `"}`)
	ack, err := k.RecvPacket(ctx, incomingPacket(c, 1, data), types.ModuleAddress("relayer"))
	require.NoError(t, err)
	assert.Equal(t, types.NewSuccessAck([]byte{1}).GetBytes(), ack)
	assert.Equal(t, types.NewInt64Coin("denom", 75), bankKeeper.GetBalance(ctx, receiver, "denom"))
}

func TestReceiveTransferBadDataYieldsErrorAck(t *testing.T) {
	ctx, k, _, _ := setupKeeper(t)
	c := openTestChannel(ctx, k, TransferPortID, wasmvmtypes.Unordered)

	ack, err := k.RecvPacket(ctx, incomingPacket(c, 1, []byte(`{"amount":"-5"}`)), types.ModuleAddress("relayer"))
	require.NoError(t, err)
	var parsed types.Acknowledgement
	require.NoError(t, json.Unmarshal(ack, &parsed))
	assert.False(t, parsed.Success())
}
