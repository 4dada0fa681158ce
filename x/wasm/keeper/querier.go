package keeper

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/types"
)

// QueryHandler is passed to contracts as their querier. It routes query
// requests through the configured plugins against the caller's context.
type QueryHandler struct {
	Ctx     types.Context
	Plugins WasmVMQueryHandler
	Caller  types.AccAddress
}

var _ wasmvmtypes.Querier = QueryHandler{}

func NewQueryHandler(ctx types.Context, plugins WasmVMQueryHandler, caller types.AccAddress) QueryHandler {
	return QueryHandler{Ctx: ctx, Plugins: plugins, Caller: caller}
}

// Query executes the requested query
func (q QueryHandler) Query(request wasmvmtypes.QueryRequest, gasLimit uint64) ([]byte, error) {
	// set a limit for the subCtx
	sdkGas := gasLimit / types.DefaultGasMultiplier
	subCtx := q.Ctx.WithGasMeter(types.NewGasMeter(sdkGas))

	// make sure we charge the higher level context even on panic
	defer func() {
		q.Ctx.GasMeter().ConsumeGas(subCtx.GasMeter().GasConsumed(), "contract sub-query")
	}()
	return q.Plugins.HandleQuery(subCtx, q.Caller, request)
}

// GasConsumed reports the gas spent in the querier's own meter.
func (q QueryHandler) GasConsumed() uint64 {
	return q.Ctx.GasMeter().GasConsumed() * types.DefaultGasMultiplier
}

// WasmVMQueryHandler is an extension point for custom query handling.
type WasmVMQueryHandler interface {
	// HandleQuery executes the requested query
	HandleQuery(ctx types.Context, caller types.AccAddress, request wasmvmtypes.QueryRequest) ([]byte, error)
}

// BankViewKeeper is the bank query surface needed here.
type BankViewKeeper interface {
	Query(ctx types.Context, req *wasmvmtypes.BankQuery) ([]byte, error)
}

// StakingViewKeeper is the staking query surface needed here.
type StakingViewKeeper interface {
	Query(ctx types.Context, req *wasmvmtypes.StakingQuery) ([]byte, error)
}

// DistributionViewKeeper is the distribution query surface needed here.
type DistributionViewKeeper interface {
	Query(ctx types.Context, req *wasmvmtypes.DistributionQuery) ([]byte, error)
}

// CustomQuerier handles app specific query variants addressed to the host.
type CustomQuerier func(ctx types.Context, request json.RawMessage) ([]byte, error)

// QueryPlugins is the set of query handlers by request module. Nil slots
// reject their queries with ErrModuleNotImplemented.
type QueryPlugins struct {
	Bank         func(ctx types.Context, request *wasmvmtypes.BankQuery) ([]byte, error)
	Custom       CustomQuerier
	Staking      func(ctx types.Context, request *wasmvmtypes.StakingQuery) ([]byte, error)
	Distribution func(ctx types.Context, request *wasmvmtypes.DistributionQuery) ([]byte, error)
	Wasm         func(ctx types.Context, caller types.AccAddress, request *wasmvmtypes.WasmQuery) ([]byte, error)
	IBC          func(ctx types.Context, caller types.AccAddress, contractIBCPortID string, request *wasmvmtypes.IBCQuery) ([]byte, error)
}

var _ WasmVMQueryHandler = QueryPlugins{}

// DefaultQueryPlugins wires the always-on modules. Optional modules are merged
// in by the app builder when enabled.
func DefaultQueryPlugins(bank BankViewKeeper, wasm *Keeper) QueryPlugins {
	return QueryPlugins{
		Bank: bank.Query,
		Wasm: WasmQuerier(wasm),
	}
}

// Merge returns a copy with all non-nil fields of o taking precedence.
func (e QueryPlugins) Merge(o *QueryPlugins) QueryPlugins {
	// only update if this is non-nil and then only set values
	if o == nil {
		return e
	}
	if o.Bank != nil {
		e.Bank = o.Bank
	}
	if o.Custom != nil {
		e.Custom = o.Custom
	}
	if o.Staking != nil {
		e.Staking = o.Staking
	}
	if o.Distribution != nil {
		e.Distribution = o.Distribution
	}
	if o.Wasm != nil {
		e.Wasm = o.Wasm
	}
	if o.IBC != nil {
		e.IBC = o.IBC
	}
	return e
}

// HandleQuery executes the requested query
func (e QueryPlugins) HandleQuery(ctx types.Context, caller types.AccAddress, request wasmvmtypes.QueryRequest) ([]byte, error) {
	switch {
	case request.Bank != nil:
		if e.Bank == nil {
			return nil, types.ErrModuleNotImplemented.Wrap("bank")
		}
		return e.Bank(ctx, request.Bank)
	case request.Custom != nil:
		if e.Custom == nil {
			return nil, types.ErrModuleNotImplemented.Wrap("custom")
		}
		return e.Custom(ctx, request.Custom)
	case request.Staking != nil:
		if e.Staking == nil {
			return nil, types.ErrModuleNotImplemented.Wrap("staking")
		}
		return e.Staking(ctx, request.Staking)
	case request.Distribution != nil:
		if e.Distribution == nil {
			return nil, types.ErrModuleNotImplemented.Wrap("distribution")
		}
		return e.Distribution(ctx, request.Distribution)
	case request.Wasm != nil:
		if e.Wasm == nil {
			return nil, types.ErrModuleNotImplemented.Wrap("wasm")
		}
		return e.Wasm(ctx, caller, request.Wasm)
	case request.Stargate != nil:
		return nil, types.ErrModuleNotImplemented.Wrap("stargate")
	case request.Grpc != nil:
		return nil, types.ErrModuleNotImplemented.Wrap("grpc")
	case request.IBC != nil:
		if e.IBC == nil {
			return nil, types.ErrModuleNotImplemented.Wrap("ibc")
		}
		var portID string
		if contractInfo := mustLoadContractInfo(ctx, caller); contractInfo != nil {
			portID = contractInfo.IBCPortID
		}
		return e.IBC(ctx, caller, portID, request.IBC)
	}
	return nil, types.ErrUnknownMsg.Wrap("query")
}

// WasmQuerier serves smart, raw and contract info queries from the keeper.
func WasmQuerier(k *Keeper) func(ctx types.Context, caller types.AccAddress, request *wasmvmtypes.WasmQuery) ([]byte, error) {
	return func(ctx types.Context, caller types.AccAddress, request *wasmvmtypes.WasmQuery) ([]byte, error) {
		switch {
		case request.Smart != nil:
			addr, err := types.AccAddressFromBech32(request.Smart.ContractAddr)
			if err != nil {
				return nil, errorsmod.Wrap(err, "contract addr")
			}
			return k.QuerySmart(ctx, addr, request.Smart.Msg)
		case request.Raw != nil:
			addr, err := types.AccAddressFromBech32(request.Raw.ContractAddr)
			if err != nil {
				return nil, errorsmod.Wrap(err, "contract addr")
			}
			return k.QueryRaw(ctx, addr, request.Raw.Key), nil
		case request.ContractInfo != nil:
			addr, err := types.AccAddressFromBech32(request.ContractInfo.ContractAddr)
			if err != nil {
				return nil, errorsmod.Wrap(err, "contract addr")
			}
			info := k.GetContractInfo(ctx, addr)
			if info == nil {
				return nil, types.ErrNoSuchContract.Wrap(request.ContractInfo.ContractAddr)
			}
			rsp := wasmvmtypes.ContractInfoResponse{
				CodeID:  info.CodeID,
				Creator: info.Creator,
				Admin:   info.Admin,
				Pinned:  false,
				IBCPort: info.IBCPortID,
			}
			return json.Marshal(rsp)
		case request.CodeInfo != nil:
			info := k.GetCodeInfo(ctx, request.CodeInfo.CodeID)
			if info == nil {
				return nil, types.ErrNoSuchCode.Wrapf("%d", request.CodeInfo.CodeID)
			}
			rsp := wasmvmtypes.CodeInfoResponse{
				CodeID:   request.CodeInfo.CodeID,
				Creator:  info.Creator,
				Checksum: info.Checksum,
			}
			return json.Marshal(rsp)
		}
		return nil, types.ErrUnknownMsg.Wrap("wasm query")
	}
}
