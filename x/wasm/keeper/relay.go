package keeper

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/types"
	wasmtypes "github.com/CosmWasm/wasmsim/x/wasm/types"
)

// ibcContractInstance resolves the contract and asserts it speaks IBC.
func (k *Keeper) ibcContractInstance(ctx types.Context, contractAddr types.AccAddress) (wasmtypes.ContractInfo, wasmtypes.IBCContract, error) {
	info, contract, err := k.contractInstance(ctx, contractAddr)
	if err != nil {
		return wasmtypes.ContractInfo{}, nil, err
	}
	ibcContract, ok := contract.(wasmtypes.IBCContract)
	if !ok {
		return wasmtypes.ContractInfo{}, nil, errorsmod.Wrap(types.ErrHostViolation, "contract does not support ibc")
	}
	return info, ibcContract, nil
}

// OnOpenChannel calls the contract to participate in the IBC channel
// handshake step. The contract can return a version that differs from the
// proposal, or an empty string to accept it.
func (k *Keeper) OnOpenChannel(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCChannelOpenMsg) (string, error) {
	ctx.GasMeter().ConsumeGas(DefaultContractCost, "Loading contract")

	_, contract, err := k.ibcContractInstance(ctx, contractAddr)
	if err != nil {
		return "", err
	}

	env := ctx.Env(contractAddr)
	res, execErr := contract.IBCChannelOpen(k.deps(ctx, contractAddr), env, msg)
	if execErr != nil {
		return "", errorsmod.Wrap(types.ErrExecuteFailed, execErr.Error())
	}
	if res != nil {
		return res.Version, nil
	}
	return "", nil
}

// OnConnectChannel calls the contract for the final channel handshake step.
func (k *Keeper) OnConnectChannel(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCChannelConnectMsg) error {
	ctx.GasMeter().ConsumeGas(DefaultContractCost, "Loading contract")

	info, contract, err := k.ibcContractInstance(ctx, contractAddr)
	if err != nil {
		return err
	}

	env := ctx.Env(contractAddr)
	res, execErr := contract.IBCChannelConnect(k.deps(ctx, contractAddr), env, msg)
	if execErr != nil {
		return errorsmod.Wrap(types.ErrExecuteFailed, execErr.Error())
	}
	return k.handleIBCBasicContractResponse(ctx, contractAddr, info.IBCPortID, res)
}

// OnCloseChannel notifies the contract that its channel is closing.
func (k *Keeper) OnCloseChannel(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCChannelCloseMsg) error {
	ctx.GasMeter().ConsumeGas(DefaultContractCost, "Loading contract")

	info, contract, err := k.ibcContractInstance(ctx, contractAddr)
	if err != nil {
		return err
	}

	env := ctx.Env(contractAddr)
	res, execErr := contract.IBCChannelClose(k.deps(ctx, contractAddr), env, msg)
	if execErr != nil {
		return errorsmod.Wrap(types.ErrExecuteFailed, execErr.Error())
	}
	return k.handleIBCBasicContractResponse(ctx, contractAddr, info.IBCPortID, res)
}

// OnRecvPacket delivers an incoming packet to the contract. The returned ack
// is nil when the contract decided to acknowledge asynchronously; the packet
// is then parked until the contract releases the ack.
func (k *Keeper) OnRecvPacket(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCPacketReceiveMsg) ([]byte, error) {
	ctx.GasMeter().ConsumeGas(DefaultContractCost, "Loading contract")

	info, contract, err := k.ibcContractInstance(ctx, contractAddr)
	if err != nil {
		return nil, err
	}

	env := ctx.Env(contractAddr)
	res, execErr := contract.IBCPacketReceive(k.deps(ctx, contractAddr), env, msg)
	if execErr != nil {
		return nil, errorsmod.Wrap(types.ErrExecuteFailed, execErr.Error())
	}
	if res == nil {
		return nil, errorsmod.Wrap(types.ErrHostViolation, "nil receive response")
	}

	if res.Acknowledgement == nil {
		// async ack: state changes are kept and the packet is parked
		k.StoreAsyncAckPacket(ctx, msg.Packet)
	}

	if len(res.Attributes) != 0 {
		wasmEvents, err := types.NewWasmModuleEvent(res.Attributes, contractAddr)
		if err != nil {
			return nil, err
		}
		ctx.EventManager().EmitEvents(wasmEvents)
	}
	if len(res.Events) > 0 {
		customEvents, err := types.NewCustomEvents(res.Events, contractAddr)
		if err != nil {
			return nil, err
		}
		ctx.EventManager().EmitEvents(customEvents)
	}
	if _, err := k.dispatcher().DispatchSubmessages(ctx, contractAddr, info.IBCPortID, res.Messages); err != nil {
		return nil, err
	}
	return res.Acknowledgement, nil
}

// OnAckPacket tells the contract that its outgoing packet was acknowledged.
func (k *Keeper) OnAckPacket(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCPacketAckMsg) error {
	ctx.GasMeter().ConsumeGas(DefaultContractCost, "Loading contract")

	info, contract, err := k.ibcContractInstance(ctx, contractAddr)
	if err != nil {
		return err
	}

	env := ctx.Env(contractAddr)
	res, execErr := contract.IBCPacketAck(k.deps(ctx, contractAddr), env, msg)
	if execErr != nil {
		return errorsmod.Wrap(types.ErrExecuteFailed, execErr.Error())
	}
	return k.handleIBCBasicContractResponse(ctx, contractAddr, info.IBCPortID, res)
}

// OnTimeoutPacket tells the contract that its outgoing packet timed out.
func (k *Keeper) OnTimeoutPacket(ctx types.Context, contractAddr types.AccAddress, msg wasmvmtypes.IBCPacketTimeoutMsg) error {
	ctx.GasMeter().ConsumeGas(DefaultContractCost, "Loading contract")

	info, contract, err := k.ibcContractInstance(ctx, contractAddr)
	if err != nil {
		return err
	}

	env := ctx.Env(contractAddr)
	res, execErr := contract.IBCPacketTimeout(k.deps(ctx, contractAddr), env, msg)
	if execErr != nil {
		return errorsmod.Wrap(types.ErrExecuteFailed, execErr.Error())
	}
	return k.handleIBCBasicContractResponse(ctx, contractAddr, info.IBCPortID, res)
}

func (k *Keeper) handleIBCBasicContractResponse(ctx types.Context, addr types.AccAddress, id string, res *wasmvmtypes.IBCBasicResponse) error {
	if res == nil {
		return errorsmod.Wrap(types.ErrHostViolation, "nil ibc response")
	}
	if len(res.Attributes) != 0 {
		wasmEvents, err := types.NewWasmModuleEvent(res.Attributes, addr)
		if err != nil {
			return err
		}
		ctx.EventManager().EmitEvents(wasmEvents)
	}
	if len(res.Events) > 0 {
		customEvents, err := types.NewCustomEvents(res.Events, addr)
		if err != nil {
			return err
		}
		ctx.EventManager().EmitEvents(customEvents)
	}
	_, err := k.dispatcher().DispatchSubmessages(ctx, addr, id, res.Messages)
	return err
}

// StoreAsyncAckPacket records a packet that awaits an asynchronous
// acknowledgement from the receiving contract.
func (k *Keeper) StoreAsyncAckPacket(ctx types.Context, packet wasmvmtypes.IBCPacket) {
	key := wasmtypes.GetAsyncAckPacketKey(packet.Dest.ChannelID, packet.Sequence)
	bz, err := json.Marshal(packet)
	if err != nil {
		panic(err)
	}
	ctx.KVStore(k.storeKey).Set(key, bz)
}

// LoadAsyncAckPacket returns a parked packet by destination channel and
// sequence.
func (k *Keeper) LoadAsyncAckPacket(ctx types.Context, channelID string, sequence uint64) (wasmvmtypes.IBCPacket, error) {
	bz := ctx.KVStore(k.storeKey).Get(wasmtypes.GetAsyncAckPacketKey(channelID, sequence))
	if bz == nil {
		return wasmvmtypes.IBCPacket{}, types.ErrNoSuchPacket.Wrapf("%s/%d", channelID, sequence)
	}
	var packet wasmvmtypes.IBCPacket
	mustUnmarshalJSON(bz, &packet)
	return packet, nil
}

// DeleteAsyncAckPacket removes a parked packet after its ack was written.
func (k *Keeper) DeleteAsyncAckPacket(ctx types.Context, channelID string, sequence uint64) {
	ctx.KVStore(k.storeKey).Delete(wasmtypes.GetAsyncAckPacketKey(channelID, sequence))
}
