package ibc

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/types"
)

// DispatchMsg handles the ibc variant of a contract message. The contract can
// only operate on channels bound to its own port.
func (k *Keeper) DispatchMsg(ctx types.Context, sender types.AccAddress, contractIBCPortID string, msg *wasmvmtypes.IBCMsg) ([]types.Event, [][]byte, error) {
	switch {
	case msg.Transfer != nil:
		amount, ok := sdkmath.NewIntFromString(msg.Transfer.Amount.Amount)
		if !ok {
			return nil, nil, types.ErrInvalid.Wrapf("amount: %s", msg.Transfer.Amount.Amount)
		}
		coin := types.NewCoin(msg.Transfer.Amount.Denom, amount)
		_, err := k.Transfer(ctx, sender, msg.Transfer.ChannelID, msg.Transfer.ToAddress, coin, msg.Transfer.Timeout, msg.Transfer.Memo)
		return nil, nil, err
	case msg.SendPacket != nil:
		if err := k.assertChannelOwnership(ctx, contractIBCPortID, msg.SendPacket.ChannelID); err != nil {
			return nil, nil, err
		}
		_, err := k.SendPacket(ctx, msg.SendPacket.ChannelID, msg.SendPacket.Data, msg.SendPacket.Timeout)
		return nil, nil, err
	case msg.WriteAcknowledgement != nil:
		if err := k.assertChannelOwnership(ctx, contractIBCPortID, msg.WriteAcknowledgement.ChannelID); err != nil {
			return nil, nil, err
		}
		err := k.WriteAsyncAck(ctx, msg.WriteAcknowledgement.ChannelID, msg.WriteAcknowledgement.PacketSequence, msg.WriteAcknowledgement.Ack.Data)
		return nil, nil, err
	case msg.CloseChannel != nil:
		if err := k.assertChannelOwnership(ctx, contractIBCPortID, msg.CloseChannel.ChannelID); err != nil {
			return nil, nil, err
		}
		return nil, nil, k.CloseChannel(ctx, msg.CloseChannel.ChannelID)
	default:
		return nil, nil, types.ErrUnknownMsg.Wrap("ibc")
	}
}

func (k *Keeper) assertChannelOwnership(ctx types.Context, contractIBCPortID, channelID string) error {
	if contractIBCPortID == "" {
		return types.ErrUnauthorized.Wrap("contract has no bound port")
	}
	channel, ok := k.GetChannel(ctx, channelID)
	if !ok {
		return types.ErrNoSuchChannel.Wrap(channelID)
	}
	if channel.PortID != contractIBCPortID {
		return errorsmod.Wrapf(types.ErrUnauthorized, "channel %s not owned by port %s", channelID, contractIBCPortID)
	}
	return nil
}

// Query handles the ibc variant of a contract query request.
func (k *Keeper) Query(ctx types.Context, caller types.AccAddress, contractIBCPortID string, req *wasmvmtypes.IBCQuery) ([]byte, error) {
	switch {
	case req.PortID != nil:
		return json.Marshal(wasmvmtypes.PortIDResponse{PortID: contractIBCPortID})
	case req.ListChannels != nil:
		portID := req.ListChannels.PortID
		if portID == "" {
			portID = contractIBCPortID
		}
		var channels []wasmvmtypes.IBCChannel
		k.IterateChannels(ctx, func(c Channel) bool {
			if c.State == StateOpen && (portID == "" || c.PortID == portID) {
				channels = append(channels, c.ToWasmVM())
			}
			return false
		})
		return json.Marshal(wasmvmtypes.ListChannelsResponse{Channels: channels})
	case req.Channel != nil:
		rsp := wasmvmtypes.ChannelResponse{}
		if channel, ok := k.GetChannel(ctx, req.Channel.ChannelID); ok && channel.State == StateOpen {
			wvm := channel.ToWasmVM()
			rsp.Channel = &wvm
		}
		return json.Marshal(rsp)
	default:
		return nil, types.ErrModuleNotImplemented.Wrap("ibc query")
	}
}
