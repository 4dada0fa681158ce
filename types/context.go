package types

import (
	"time"

	"cosmossdk.io/log"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/store"
)

// StoreKey namespaces one module's slice of the shared root store.
type StoreKey string

// Context carries everything one execution step needs: block info, logger,
// event sink, gas meter and the currently active store branch. It is passed
// by value; With* return modified copies. Block data never changes mid-call,
// only the driving harness advances it between top-level calls.
type Context struct {
	chainID     string
	blockHeight int64
	blockTime   time.Time
	logger      log.Logger
	em          *EventManager
	gasMeter    GasMeter
	store       store.KVStore
	callDepth   uint32
	txCounter   uint32
}

func NewContext(chainID string, height int64, blockTime time.Time, logger log.Logger, kv store.KVStore) Context {
	return Context{
		chainID:     chainID,
		blockHeight: height,
		blockTime:   blockTime,
		logger:      logger,
		em:          NewEventManager(),
		gasMeter:    NewInfiniteGasMeter(),
		store:       kv,
	}
}

func (c Context) ChainID() string             { return c.chainID }
func (c Context) BlockHeight() int64          { return c.blockHeight }
func (c Context) BlockTime() time.Time        { return c.blockTime }
func (c Context) Logger() log.Logger          { return c.logger }
func (c Context) EventManager() *EventManager { return c.em }
func (c Context) GasMeter() GasMeter          { return c.gasMeter }
func (c Context) CallDepth() uint32           { return c.callDepth }
func (c Context) TXCounter() uint32           { return c.txCounter }

// KVStore returns the module-prefixed view over the active branch.
func (c Context) KVStore(key StoreKey) store.KVStore {
	return store.NewPrefix(c.store, append([]byte(key), '/'))
}

// MultiStore returns the unprefixed active store. Only the app's commit logic
// should need it.
func (c Context) MultiStore() store.KVStore { return c.store }

// WithMultiStore swaps the active store, e.g. for a read-only query view.
func (c Context) WithMultiStore(kv store.KVStore) Context {
	c.store = kv
	return c
}

func (c Context) WithEventManager(em *EventManager) Context {
	c.em = em
	return c
}

func (c Context) WithGasMeter(gm GasMeter) Context {
	c.gasMeter = gm
	return c
}

func (c Context) WithLogger(logger log.Logger) Context {
	c.logger = logger
	return c
}

func (c Context) WithBlock(height int64, blockTime time.Time) Context {
	c.blockHeight = height
	c.blockTime = blockTime
	return c
}

func (c Context) WithCallDepth(depth uint32) Context {
	c.callDepth = depth
	return c
}

func (c Context) WithTXCounter(counter uint32) Context {
	c.txCounter = counter
	return c
}

// CacheContext returns a context whose store is a branch of the current one
// plus the function that merges the branch back into the parent. Dropping the
// write function discards all writes; events still flow to the shared event
// manager unless the caller swaps it out.
func (c Context) CacheContext() (Context, func()) {
	branch := store.NewBranch(c.store)
	cc := c
	cc.store = branch
	return cc, branch.Write
}

// Env builds the contract-visible environment for the given contract address.
func (c Context) Env(contractAddr AccAddress) wasmvmtypes.Env {
	return wasmvmtypes.Env{
		Block: wasmvmtypes.BlockInfo{
			Height:  uint64(c.blockHeight),
			Time:    wasmvmtypes.Uint64(c.blockTime.UnixNano()),
			ChainID: c.chainID,
		},
		Transaction: &wasmvmtypes.TransactionInfo{Index: c.txCounter},
		Contract: wasmvmtypes.ContractInfo{
			Address: contractAddr.String(),
		},
	}
}

// NewInfo builds the message info for a contract call.
func NewInfo(sender AccAddress, funds Coins) wasmvmtypes.MessageInfo {
	return wasmvmtypes.MessageInfo{
		Sender: sender.String(),
		Funds:  NewWasmCoins(funds),
	}
}
