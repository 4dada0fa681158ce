package ibctesting

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CosmWasm/wasmsim/app"
	"github.com/CosmWasm/wasmsim/types"
	wasmkeeper "github.com/CosmWasm/wasmsim/x/wasm/keeper"
	wasmtypes "github.com/CosmWasm/wasmsim/x/wasm/types"
)

// TestChain wraps one simulated chain with a funded default sender.
type TestChain struct {
	t *testing.T

	App           *app.App
	ChainID       string
	SenderAccount types.AccAddress
}

func NewTestChain(t *testing.T, a *app.App, chainID string) *TestChain {
	t.Helper()
	sender := types.ModuleAddress("sender-" + chainID)
	require.NoError(t, a.FundAccount(sender, types.NewCoins(types.NewInt64Coin("stake", 1_000_000))))
	return &TestChain{t: t, App: a, ChainID: chainID, SenderAccount: sender}
}

// StoreCode registers a contract implementation and returns its code id.
func (c *TestChain) StoreCode(contract wasmtypes.Contract) uint64 {
	c.t.Helper()
	codeID, err := c.App.StoreCode(c.SenderAccount, contract)
	require.NoError(c.t, err)
	return codeID
}

// InstantiateContract creates an instance owned by the chain's sender.
func (c *TestChain) InstantiateContract(codeID uint64, initMsg []byte) types.AccAddress {
	c.t.Helper()
	addr, _, err := c.App.InstantiateContract(codeID, c.SenderAccount, nil, initMsg, "ibctesting", nil)
	require.NoError(c.t, err)
	return addr
}

// SeedNewContractInstance stores a fresh contract and instantiates it in one
// step.
func (c *TestChain) SeedNewContractInstance(contract wasmtypes.Contract, initMsg []byte) types.AccAddress {
	c.t.Helper()
	return c.InstantiateContract(c.StoreCode(contract), initMsg)
}

// ContractPortID returns the IBC port bound to the contract instance.
func (c *TestChain) ContractPortID(addr types.AccAddress) string {
	return wasmkeeper.PortIDForContract(addr)
}

// Balance is a convenience lookup against committed state.
func (c *TestChain) Balance(addr types.AccAddress, denom string) types.Coin {
	return c.App.Balance(addr, denom)
}
