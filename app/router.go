package app

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/types"
	"github.com/CosmWasm/wasmsim/x/bank"
	"github.com/CosmWasm/wasmsim/x/distribution"
	"github.com/CosmWasm/wasmsim/x/gov"
	"github.com/CosmWasm/wasmsim/x/ibc"
	"github.com/CosmWasm/wasmsim/x/staking"
	wasmkeeper "github.com/CosmWasm/wasmsim/x/wasm/keeper"
)

// CustomHandler processes app specific message variants addressed to the host.
type CustomHandler func(ctx types.Context, sender types.AccAddress, msg json.RawMessage) ([]types.Event, [][]byte, error)

// StargateHandler processes protobuf-encoded chain messages. There is no
// faithful default; without a handler every Any message is rejected.
type StargateHandler func(ctx types.Context, sender types.AccAddress, msg *wasmvmtypes.AnyMsg) ([]types.Event, [][]byte, error)

// MessageRouter dispatches contract emitted messages to the module keepers.
// Optional module slots are nil when the module was not enabled; their
// messages are rejected with ErrModuleNotImplemented so the failure mode is
// distinguishable from an unroutable message.
type MessageRouter struct {
	bank         *bank.Keeper
	custom       CustomHandler
	stargate     StargateHandler
	staking      *staking.Keeper
	distribution *distribution.Keeper
	gov          *gov.Keeper
	ibc          *ibc.Keeper
	wasm         *wasmkeeper.Keeper
}

var _ wasmkeeper.Messenger = &MessageRouter{}

func NewMessageRouter(
	bankKeeper *bank.Keeper,
	custom CustomHandler,
	stargate StargateHandler,
	stakingKeeper *staking.Keeper,
	distributionKeeper *distribution.Keeper,
	govKeeper *gov.Keeper,
	ibcKeeper *ibc.Keeper,
	wasmKeeper *wasmkeeper.Keeper,
) *MessageRouter {
	return &MessageRouter{
		bank:         bankKeeper,
		custom:       custom,
		stargate:     stargate,
		staking:      stakingKeeper,
		distribution: distributionKeeper,
		gov:          govKeeper,
		ibc:          ibcKeeper,
		wasm:         wasmKeeper,
	}
}

// DispatchMsg routes the message to the owning module keeper.
func (r *MessageRouter) DispatchMsg(ctx types.Context, contractAddr types.AccAddress, contractIBCPortID string, msg wasmvmtypes.CosmosMsg) ([]types.Event, [][]byte, error) {
	switch {
	case msg.Bank != nil:
		return r.bank.DispatchMsg(ctx, contractAddr, msg.Bank)
	case msg.Custom != nil:
		if r.custom == nil {
			return nil, nil, types.ErrModuleNotImplemented.Wrap("custom")
		}
		return r.custom(ctx, contractAddr, msg.Custom)
	case msg.Distribution != nil:
		if r.distribution == nil {
			return nil, nil, types.ErrModuleNotImplemented.Wrap("distribution")
		}
		return r.distribution.DispatchMsg(ctx, contractAddr, msg.Distribution)
	case msg.Gov != nil:
		if r.gov == nil {
			return nil, nil, types.ErrModuleNotImplemented.Wrap("gov")
		}
		return r.gov.DispatchMsg(ctx, contractAddr, msg.Gov)
	case msg.IBC != nil:
		if r.ibc == nil {
			return nil, nil, types.ErrModuleNotImplemented.Wrap("ibc")
		}
		return r.ibc.DispatchMsg(ctx, contractAddr, contractIBCPortID, msg.IBC)
	case msg.Staking != nil:
		if r.staking == nil {
			return nil, nil, types.ErrModuleNotImplemented.Wrap("staking")
		}
		return r.staking.DispatchMsg(ctx, contractAddr, msg.Staking)
	case msg.Wasm != nil:
		return r.dispatchWasmMsg(ctx, contractAddr, msg.Wasm)
	case msg.Any != nil:
		if r.stargate == nil {
			return nil, nil, types.ErrModuleNotImplemented.Wrap("stargate")
		}
		return r.stargate(ctx, contractAddr, msg.Any)
	default:
		return nil, nil, types.ErrUnknownMsg.Wrap("cosmos message")
	}
}

func (r *MessageRouter) dispatchWasmMsg(ctx types.Context, sender types.AccAddress, msg *wasmvmtypes.WasmMsg) ([]types.Event, [][]byte, error) {
	switch {
	case msg.Execute != nil:
		contractAddr, err := types.AccAddressFromBech32(msg.Execute.ContractAddr)
		if err != nil {
			return nil, nil, errorsmod.Wrap(err, "contract addr")
		}
		funds, err := types.ParseWasmCoins(msg.Execute.Funds)
		if err != nil {
			return nil, nil, err
		}
		data, err := r.wasm.Execute(ctx, contractAddr, sender, msg.Execute.Msg, funds)
		if err != nil {
			return nil, nil, err
		}
		return nil, [][]byte{data}, nil
	case msg.Instantiate != nil:
		admin, err := optionalAddr(msg.Instantiate.Admin)
		if err != nil {
			return nil, nil, errorsmod.Wrap(err, "admin")
		}
		funds, err := types.ParseWasmCoins(msg.Instantiate.Funds)
		if err != nil {
			return nil, nil, err
		}
		_, data, err := r.wasm.Instantiate(ctx, msg.Instantiate.CodeID, sender, admin, msg.Instantiate.Msg, msg.Instantiate.Label, funds, r.wasm.ClassicAddressGenerator())
		if err != nil {
			return nil, nil, err
		}
		return nil, [][]byte{data}, nil
	case msg.Instantiate2 != nil:
		admin, err := optionalAddr(msg.Instantiate2.Admin)
		if err != nil {
			return nil, nil, errorsmod.Wrap(err, "admin")
		}
		funds, err := types.ParseWasmCoins(msg.Instantiate2.Funds)
		if err != nil {
			return nil, nil, err
		}
		gen := wasmkeeper.PredictableAddressGenerator(sender, msg.Instantiate2.Salt)
		_, data, err := r.wasm.Instantiate(ctx, msg.Instantiate2.CodeID, sender, admin, msg.Instantiate2.Msg, msg.Instantiate2.Label, funds, gen)
		if err != nil {
			return nil, nil, err
		}
		return nil, [][]byte{data}, nil
	case msg.Migrate != nil:
		contractAddr, err := types.AccAddressFromBech32(msg.Migrate.ContractAddr)
		if err != nil {
			return nil, nil, errorsmod.Wrap(err, "contract addr")
		}
		data, err := r.wasm.Migrate(ctx, contractAddr, sender, msg.Migrate.NewCodeID, msg.Migrate.Msg)
		if err != nil {
			return nil, nil, err
		}
		return nil, [][]byte{data}, nil
	case msg.UpdateAdmin != nil:
		contractAddr, err := types.AccAddressFromBech32(msg.UpdateAdmin.ContractAddr)
		if err != nil {
			return nil, nil, errorsmod.Wrap(err, "contract addr")
		}
		newAdmin, err := types.AccAddressFromBech32(msg.UpdateAdmin.Admin)
		if err != nil {
			return nil, nil, errorsmod.Wrap(err, "admin")
		}
		return nil, nil, r.wasm.UpdateContractAdmin(ctx, contractAddr, sender, newAdmin)
	case msg.ClearAdmin != nil:
		contractAddr, err := types.AccAddressFromBech32(msg.ClearAdmin.ContractAddr)
		if err != nil {
			return nil, nil, errorsmod.Wrap(err, "contract addr")
		}
		return nil, nil, r.wasm.ClearContractAdmin(ctx, contractAddr, sender)
	default:
		return nil, nil, types.ErrUnknownMsg.Wrap("wasm message")
	}
}

func optionalAddr(s string) (types.AccAddress, error) {
	if s == "" {
		return nil, nil
	}
	return types.AccAddressFromBech32(s)
}
