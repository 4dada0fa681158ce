package app

import (
	"time"

	"cosmossdk.io/log"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/CosmWasm/wasmsim/store"
	"github.com/CosmWasm/wasmsim/types"
	"github.com/CosmWasm/wasmsim/x/bank"
	"github.com/CosmWasm/wasmsim/x/distribution"
	"github.com/CosmWasm/wasmsim/x/gov"
	"github.com/CosmWasm/wasmsim/x/ibc"
	"github.com/CosmWasm/wasmsim/x/staking"
	wasmkeeper "github.com/CosmWasm/wasmsim/x/wasm/keeper"
	wasmtypes "github.com/CosmWasm/wasmsim/x/wasm/types"
)

// App is a self-contained chain simulation. All module state lives in one
// key-value store; every top-level call runs on a branch of it that is
// committed on success and discarded on error, so a failed call leaves no
// trace.
type App struct {
	chainID     string
	blockHeight int64
	blockTime   time.Time
	txCounter   uint32
	logger      log.Logger

	db    dbm.DB
	state store.DBStore

	Bank         *bank.Keeper
	Staking      *staking.Keeper
	Distribution *distribution.Keeper
	Gov          *gov.Keeper
	IBC          *ibc.Keeper
	Wasm         *wasmkeeper.Keeper
}

func (a *App) ChainID() string      { return a.chainID }
func (a *App) BlockHeight() int64   { return a.blockHeight }
func (a *App) BlockTime() time.Time { return a.blockTime }
func (a *App) Logger() log.Logger   { return a.logger }

// Context returns a fresh context over the committed state. Writes through it
// are applied immediately; use RunTx for anything that must be atomic.
func (a *App) Context() types.Context {
	ctx := types.NewContext(a.chainID, a.blockHeight, a.blockTime, a.logger, a.state)
	return ctx.WithTXCounter(a.txCounter)
}

// RunTx executes fn against a branch of the app state. On success the branch
// is written back and the events collected during execution are returned; on
// error every write is discarded and the state is byte-identical to before.
func (a *App) RunTx(fn func(ctx types.Context) error) ([]types.Event, error) {
	ctx := a.Context()
	branchCtx, write := ctx.CacheContext()
	if err := fn(branchCtx); err != nil {
		return nil, err
	}
	write()
	a.txCounter++
	return ctx.EventManager().Events(), nil
}

// AdvanceBlock moves the chain forward by the given number of blocks, bumping
// the block time by dt per block. The transaction counter restarts at zero.
func (a *App) AdvanceBlock(blocks int64, dt time.Duration) {
	a.blockHeight += blocks
	a.blockTime = a.blockTime.Add(time.Duration(blocks) * dt)
	a.txCounter = 0
}

// SetBlock pins block height and time, e.g. to reproduce a recorded scenario.
func (a *App) SetBlock(height int64, blockTime time.Time) {
	a.blockHeight = height
	a.blockTime = blockTime
	a.txCounter = 0
}

// StoreCode registers a native contract implementation under a new code id.
func (a *App) StoreCode(creator types.AccAddress, contract wasmtypes.Contract) (uint64, error) {
	var codeID uint64
	_, err := a.RunTx(func(ctx types.Context) error {
		var err error
		codeID, _, err = a.Wasm.StoreCode(ctx, creator, contract)
		return err
	})
	return codeID, err
}

// InstantiateContract creates a contract instance and runs its init message.
func (a *App) InstantiateContract(codeID uint64, sender, admin types.AccAddress, initMsg []byte, label string, funds types.Coins) (types.AccAddress, []types.Event, error) {
	var addr types.AccAddress
	events, err := a.RunTx(func(ctx types.Context) error {
		var err error
		addr, _, err = a.Wasm.Instantiate(ctx, codeID, sender, admin, initMsg, label, funds, a.Wasm.ClassicAddressGenerator())
		return err
	})
	return addr, events, err
}

// ExecuteContract runs the contract's execute entry point, including all
// sub-messages and replies it produces.
func (a *App) ExecuteContract(sender, contract types.AccAddress, msg []byte, funds types.Coins) ([]byte, []types.Event, error) {
	var data []byte
	events, err := a.RunTx(func(ctx types.Context) error {
		var err error
		data, err = a.Wasm.Execute(ctx, contract, sender, msg, funds)
		return err
	})
	return data, events, err
}

// MigrateContract switches the contract to new code. Admin only.
func (a *App) MigrateContract(sender, contract types.AccAddress, newCodeID uint64, msg []byte) ([]byte, []types.Event, error) {
	var data []byte
	events, err := a.RunTx(func(ctx types.Context) error {
		var err error
		data, err = a.Wasm.Migrate(ctx, contract, sender, newCodeID, msg)
		return err
	})
	return data, events, err
}

// SudoContract calls the contract's privileged entry point. Only the harness
// can reach it; no message routed through contracts ends up here.
func (a *App) SudoContract(contract types.AccAddress, msg []byte) ([]byte, []types.Event, error) {
	var data []byte
	events, err := a.RunTx(func(ctx types.Context) error {
		var err error
		data, err = a.Wasm.Sudo(ctx, contract, msg)
		return err
	})
	return data, events, err
}

// UpdateContractAdmin sets a new migration admin on the contract.
func (a *App) UpdateContractAdmin(sender, contract, newAdmin types.AccAddress) error {
	_, err := a.RunTx(func(ctx types.Context) error {
		return a.Wasm.UpdateContractAdmin(ctx, contract, sender, newAdmin)
	})
	return err
}

// WasmQuerySmart runs a smart query against committed state.
func (a *App) WasmQuerySmart(contract types.AccAddress, req []byte) ([]byte, error) {
	return a.Wasm.QuerySmart(a.Context(), contract, req)
}

// WasmQueryRaw reads a single raw key from the contract's store.
func (a *App) WasmQueryRaw(contract types.AccAddress, key []byte) []byte {
	return a.Wasm.QueryRaw(a.Context(), contract, key)
}

// FundAccount mints new coins to the given account. Test setup helper, this
// is not reachable from contract code.
func (a *App) FundAccount(addr types.AccAddress, coins types.Coins) error {
	_, err := a.RunTx(func(ctx types.Context) error {
		return a.Bank.MintCoins(ctx, addr, coins)
	})
	return err
}

// SendCoins moves coins between two accounts.
func (a *App) SendCoins(from, to types.AccAddress, coins types.Coins) error {
	_, err := a.RunTx(func(ctx types.Context) error {
		return a.Bank.SendCoins(ctx, from, to, coins)
	})
	return err
}

// Balance returns the committed balance of one denom.
func (a *App) Balance(addr types.AccAddress, denom string) types.Coin {
	return a.Bank.GetBalance(a.Context(), addr, denom)
}

// AllBalances returns all committed balances of the account.
func (a *App) AllBalances(addr types.AccAddress) types.Coins {
	return a.Bank.GetAllBalances(a.Context(), addr)
}

// ContractInfo returns the instance metadata, nil when the address is not a
// contract.
func (a *App) ContractInfo(contract types.AccAddress) *wasmtypes.ContractInfo {
	return a.Wasm.GetContractInfo(a.Context(), contract)
}
