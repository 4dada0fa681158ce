package app

import (
	"time"

	"cosmossdk.io/log"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/CosmWasm/wasmsim/store"
	"github.com/CosmWasm/wasmsim/x/bank"
	"github.com/CosmWasm/wasmsim/x/distribution"
	"github.com/CosmWasm/wasmsim/x/gov"
	"github.com/CosmWasm/wasmsim/x/ibc"
	"github.com/CosmWasm/wasmsim/x/staking"
	wasmkeeper "github.com/CosmWasm/wasmsim/x/wasm/keeper"
)

// Builder assembles an App. Bank, wasm and ibc are always wired; staking,
// distribution and gov are opt-in so a message to a disabled module fails
// with ErrModuleNotImplemented instead of silently succeeding.
type Builder struct {
	chainID     string
	bondDenom   string
	blockHeight int64
	blockTime   time.Time
	logger      log.Logger
	db          dbm.DB

	withStaking      bool
	withDistribution bool
	withGov          bool
	withIBC          bool

	customHandler   CustomHandler
	stargateHandler StargateHandler
	customQuerier   wasmkeeper.CustomQuerier
	queryPlugins    *wasmkeeper.QueryPlugins
	maxCallDepth    uint32
}

// NewBuilder returns a builder with test-friendly defaults: in-memory
// database, no-op logger, block 1.
func NewBuilder() *Builder {
	return &Builder{
		chainID:     "testing",
		bondDenom:   staking.DefaultBondDenom,
		blockHeight: 1,
		blockTime:   time.Unix(1_600_000_000, 0).UTC(),
		logger:      log.NewNopLogger(),
	}
}

func (b *Builder) WithChainID(chainID string) *Builder {
	b.chainID = chainID
	return b
}

func (b *Builder) WithBondDenom(denom string) *Builder {
	b.bondDenom = denom
	return b
}

func (b *Builder) WithBlock(height int64, blockTime time.Time) *Builder {
	b.blockHeight = height
	b.blockTime = blockTime
	return b
}

func (b *Builder) WithLogger(logger log.Logger) *Builder {
	b.logger = logger
	return b
}

// WithDB replaces the default in-memory database, e.g. to persist a scenario
// across runs.
func (b *Builder) WithDB(db dbm.DB) *Builder {
	b.db = db
	return b
}

// WithStaking enables the staking module and its queries.
func (b *Builder) WithStaking() *Builder {
	b.withStaking = true
	return b
}

// WithDistribution enables the distribution module and its queries.
func (b *Builder) WithDistribution() *Builder {
	b.withDistribution = true
	return b
}

// WithGov enables vote recording for governance messages.
func (b *Builder) WithGov() *Builder {
	b.withGov = true
	return b
}

// WithIBC enables the channel and packet lifecycle plus the ics-20 transfer
// application.
func (b *Builder) WithIBC() *Builder {
	b.withIBC = true
	return b
}

// WithCustomHandler accepts custom message variants addressed to the host.
func (b *Builder) WithCustomHandler(h CustomHandler) *Builder {
	b.customHandler = h
	return b
}

// WithStargateHandler accepts protobuf Any messages addressed to the chain.
func (b *Builder) WithStargateHandler(h StargateHandler) *Builder {
	b.stargateHandler = h
	return b
}

// WithCustomQuerier accepts custom query variants addressed to the host.
func (b *Builder) WithCustomQuerier(q wasmkeeper.CustomQuerier) *Builder {
	b.customQuerier = q
	return b
}

// WithQueryPlugins overrides individual query plugin slots after all default
// wiring is done.
func (b *Builder) WithQueryPlugins(p *wasmkeeper.QueryPlugins) *Builder {
	b.queryPlugins = p
	return b
}

// WithMaxCallDepth caps contract call recursion.
func (b *Builder) WithMaxCallDepth(depth uint32) *Builder {
	b.maxCallDepth = depth
	return b
}

// Build wires the keepers together and returns a ready App.
func (b *Builder) Build() *App {
	db := b.db
	if db == nil {
		db = dbm.NewMemDB()
	}

	bankKeeper := bank.NewKeeper()

	var wasmOpts []wasmkeeper.Option
	if b.maxCallDepth > 0 {
		wasmOpts = append(wasmOpts, wasmkeeper.WithMaxCallDepth(b.maxCallDepth))
	}
	wasmKeeper := wasmkeeper.NewKeeper(bankKeeper, wasmOpts...)

	var ibcKeeper *ibc.Keeper
	if b.withIBC {
		ibcKeeper = ibc.NewKeeper(bankKeeper, wasmKeeper, wasmkeeper.ContractFromPortID)
	}

	var stakingKeeper *staking.Keeper
	if b.withStaking {
		stakingKeeper = staking.NewKeeper(bankKeeper, b.bondDenom)
	}
	var distributionKeeper *distribution.Keeper
	if b.withDistribution {
		distributionKeeper = distribution.NewKeeper(bankKeeper)
	}
	var govKeeper *gov.Keeper
	if b.withGov {
		govKeeper = gov.NewKeeper()
	}

	router := NewMessageRouter(bankKeeper, b.customHandler, b.stargateHandler, stakingKeeper, distributionKeeper, govKeeper, ibcKeeper, wasmKeeper)
	wasmKeeper.SetMessageHandler(wasmkeeper.NewDefaultMessageHandler(router, wasmKeeper.MaxCallDepth()))

	overrides := wasmkeeper.QueryPlugins{
		Custom: b.customQuerier,
	}
	if ibcKeeper != nil {
		overrides.IBC = ibcKeeper.Query
	}
	if stakingKeeper != nil {
		overrides.Staking = stakingKeeper.Query
	}
	if distributionKeeper != nil {
		overrides.Distribution = distributionKeeper.Query
	}
	plugins := wasmkeeper.DefaultQueryPlugins(bankKeeper, wasmKeeper).
		Merge(&overrides).
		Merge(b.queryPlugins)
	wasmKeeper.SetWasmQueryHandler(plugins)

	return &App{
		chainID:      b.chainID,
		blockHeight:  b.blockHeight,
		blockTime:    b.blockTime,
		logger:       b.logger,
		db:           db,
		state:        store.NewDBStore(db),
		Bank:         bankKeeper,
		Staking:      stakingKeeper,
		Distribution: distributionKeeper,
		Gov:          govKeeper,
		IBC:          ibcKeeper,
		Wasm:         wasmKeeper,
	}
}
