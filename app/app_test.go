package app_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/app"
	"github.com/CosmWasm/wasmsim/contracts/hackatom"
	"github.com/CosmWasm/wasmsim/contracts/reflect"
	"github.com/CosmWasm/wasmsim/types"
)

var (
	alice = types.ModuleAddress("alice")
	bob   = types.ModuleAddress("bob")
	carol = types.ModuleAddress("carol")
)

func TestBuilderDefaults(t *testing.T) {
	chain := app.NewBuilder().Build()
	assert.Equal(t, "testing", chain.ChainID())
	assert.Equal(t, int64(1), chain.BlockHeight())
	assert.Equal(t, time.Unix(1_600_000_000, 0).UTC(), chain.BlockTime())
	assert.NotNil(t, chain.Bank)
	assert.NotNil(t, chain.Wasm)
	// opt-in modules are absent until enabled
	assert.Nil(t, chain.Staking)
	assert.Nil(t, chain.Distribution)
	assert.Nil(t, chain.Gov)
	assert.Nil(t, chain.IBC)

	full := app.NewBuilder().WithStaking().WithDistribution().WithGov().WithIBC().Build()
	assert.NotNil(t, full.Staking)
	assert.NotNil(t, full.Distribution)
	assert.NotNil(t, full.Gov)
	assert.NotNil(t, full.IBC)
}

func TestAdvanceBlock(t *testing.T) {
	chain := app.NewBuilder().Build()
	start := chain.BlockTime()

	chain.AdvanceBlock(3, 5*time.Second)
	assert.Equal(t, int64(4), chain.BlockHeight())
	assert.Equal(t, start.Add(15*time.Second), chain.BlockTime())

	pinned := time.Unix(1_700_000_000, 0).UTC()
	chain.SetBlock(42, pinned)
	assert.Equal(t, int64(42), chain.BlockHeight())
	assert.Equal(t, pinned, chain.BlockTime())
}

func TestHackatomEscrow(t *testing.T) {
	chain := app.NewBuilder().Build()
	deposit := types.NewCoins(types.NewInt64Coin("stake", 250))
	require.NoError(t, chain.FundAccount(alice, deposit))

	codeID, err := chain.StoreCode(alice, hackatom.Contract{})
	require.NoError(t, err)

	initMsg, err := json.Marshal(hackatom.InstantiateMsg{Verifier: bob.String(), Beneficiary: carol.String()})
	require.NoError(t, err)
	contractAddr, _, err := chain.InstantiateContract(codeID, alice, nil, initMsg, "escrow", deposit)
	require.NoError(t, err)
	assert.Equal(t, deposit, chain.AllBalances(contractAddr))

	// only the verifier can release
	_, _, err = chain.ExecuteContract(carol, contractAddr, []byte(`{"release":{}}`), nil)
	require.Error(t, err)
	assert.Equal(t, deposit, chain.AllBalances(contractAddr))
	assert.True(t, chain.AllBalances(carol).IsZero())

	data, events, err := chain.ExecuteContract(bob, contractAddr, []byte(`{"release":{}}`), nil)
	require.NoError(t, err)
	assert.Equal(t, hackatom.ReleasedData, data)
	assert.Equal(t, deposit, chain.AllBalances(carol))
	assert.True(t, chain.AllBalances(contractAddr).IsZero())
	assert.NotEmpty(t, events)
}

// A failing execution must leave no trace: the first bank send below succeeds
// inside the transaction, the second exceeds the contract's balance, and the
// whole call rolls back.
func TestExecuteRollsBackOnFailure(t *testing.T) {
	chain := app.NewBuilder().Build()
	require.NoError(t, chain.FundAccount(alice, types.NewCoins(types.NewInt64Coin("stake", 100))))

	contractAddr := seedReflect(t, chain, alice)
	require.NoError(t, chain.SendCoins(alice, contractAddr, types.NewCoins(types.NewInt64Coin("stake", 100))))

	send := func(to types.AccAddress, amount uint64) wasmvmtypes.CosmosMsg {
		return wasmvmtypes.CosmosMsg{Bank: &wasmvmtypes.BankMsg{Send: &wasmvmtypes.SendMsg{
			ToAddress: to.String(),
			Amount:    []wasmvmtypes.Coin{wasmvmtypes.NewCoin(amount, "stake")},
		}}}
	}
	msg, err := json.Marshal(reflect.ExecuteMsg{ReflectMsg: &reflect.ReflectPayload{
		Msgs: []wasmvmtypes.CosmosMsg{send(bob, 60), send(carol, 60)},
	}})
	require.NoError(t, err)

	_, _, err = chain.ExecuteContract(alice, contractAddr, msg, nil)
	require.Error(t, err)

	assert.Equal(t, types.NewInt64Coin("stake", 100), chain.Balance(contractAddr, "stake"))
	assert.True(t, chain.AllBalances(bob).IsZero())
	assert.True(t, chain.AllBalances(carol).IsZero())

	// the same first send succeeds when the second fits the balance
	msg, err = json.Marshal(reflect.ExecuteMsg{ReflectMsg: &reflect.ReflectPayload{
		Msgs: []wasmvmtypes.CosmosMsg{send(bob, 60), send(carol, 40)},
	}})
	require.NoError(t, err)
	_, _, err = chain.ExecuteContract(alice, contractAddr, msg, nil)
	require.NoError(t, err)
	assert.Equal(t, types.NewInt64Coin("stake", 60), chain.Balance(bob, "stake"))
	assert.Equal(t, types.NewInt64Coin("stake", 40), chain.Balance(carol, "stake"))
}

func TestCustomHandlerAndQuerier(t *testing.T) {
	var captured json.RawMessage
	handler := func(ctx types.Context, sender types.AccAddress, msg json.RawMessage) ([]types.Event, [][]byte, error) {
		captured = msg
		return nil, nil, nil
	}
	querier := func(ctx types.Context, request json.RawMessage) ([]byte, error) {
		return []byte(`{"pong":true}`), nil
	}
	chain := app.NewBuilder().WithCustomHandler(handler).WithCustomQuerier(querier).Build()
	contractAddr := seedReflect(t, chain, alice)

	msg, err := json.Marshal(reflect.ExecuteMsg{ReflectMsg: &reflect.ReflectPayload{
		Msgs: []wasmvmtypes.CosmosMsg{{Custom: json.RawMessage(`{"ping":{}}`)}},
	}})
	require.NoError(t, err)
	_, _, err = chain.ExecuteContract(alice, contractAddr, msg, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ping":{}}`, string(captured))

	query, err := json.Marshal(reflect.QueryMsg{Chain: &reflect.ChainQuery{
		Request: wasmvmtypes.QueryRequest{Custom: json.RawMessage(`{"ping":{}}`)},
	}})
	require.NoError(t, err)
	bz, err := chain.WasmQuerySmart(contractAddr, query)
	require.NoError(t, err)
	var rsp reflect.ChainResponse
	require.NoError(t, json.Unmarshal(bz, &rsp))
	assert.JSONEq(t, `{"pong":true}`, string(rsp.Data))
}

func TestDisabledModulesAreRejected(t *testing.T) {
	chain := app.NewBuilder().Build()
	contractAddr := seedReflect(t, chain, alice)

	specs := map[string]wasmvmtypes.CosmosMsg{
		"staking": {Staking: &wasmvmtypes.StakingMsg{Delegate: &wasmvmtypes.DelegateMsg{
			Validator: "myvalidator",
			Amount:    wasmvmtypes.NewCoin(10, "stake"),
		}}},
		"gov": {Gov: &wasmvmtypes.GovMsg{Vote: &wasmvmtypes.VoteMsg{
			ProposalId: 1,
			Option:     wasmvmtypes.Yes,
		}}},
		"custom": {Custom: json.RawMessage(`{"ping":{}}`)},
		"ibc": {IBC: &wasmvmtypes.IBCMsg{SendPacket: &wasmvmtypes.SendPacketMsg{
			ChannelID: "channel-0",
			Data:      []byte(`{}`),
			Timeout:   wasmvmtypes.IBCTimeout{Timestamp: 1},
		}}},
		"stargate": {Any: &wasmvmtypes.AnyMsg{
			TypeURL: "/cosmos.gov.v1.MsgVote",
			Value:   []byte{1, 2, 3},
		}},
	}
	for name, cosmosMsg := range specs {
		t.Run(name, func(t *testing.T) {
			msg, err := json.Marshal(reflect.ExecuteMsg{ReflectMsg: &reflect.ReflectPayload{
				Msgs: []wasmvmtypes.CosmosMsg{cosmosMsg},
			}})
			require.NoError(t, err)
			_, _, gotErr := chain.ExecuteContract(alice, contractAddr, msg, nil)
			require.Error(t, gotErr)
			assert.ErrorIs(t, gotErr, types.ErrModuleNotImplemented)
		})
	}
}

func TestGovVoteThroughContract(t *testing.T) {
	chain := app.NewBuilder().WithGov().Build()
	contractAddr := seedReflect(t, chain, alice)

	msg, err := json.Marshal(reflect.ExecuteMsg{ReflectMsg: &reflect.ReflectPayload{
		Msgs: []wasmvmtypes.CosmosMsg{{Gov: &wasmvmtypes.GovMsg{Vote: &wasmvmtypes.VoteMsg{
			ProposalId: 7,
			Option:     wasmvmtypes.Yes,
		}}}},
	}})
	require.NoError(t, err)
	_, _, err = chain.ExecuteContract(alice, contractAddr, msg, nil)
	require.NoError(t, err)

	votes := chain.Gov.GetVotes(chain.Context(), 7)
	require.Len(t, votes, 1)
	assert.Equal(t, contractAddr.String(), votes[0].Voter)
}

func TestMigrateThroughApp(t *testing.T) {
	chain := app.NewBuilder().Build()
	codeID, err := chain.StoreCode(alice, hackatom.Contract{})
	require.NoError(t, err)
	newCodeID, err := chain.StoreCode(alice, hackatom.Contract{})
	require.NoError(t, err)

	initMsg, err := json.Marshal(hackatom.InstantiateMsg{Verifier: bob.String(), Beneficiary: carol.String()})
	require.NoError(t, err)
	contractAddr, _, err := chain.InstantiateContract(codeID, alice, alice, initMsg, "escrow", nil)
	require.NoError(t, err)

	migrateMsg, err := json.Marshal(hackatom.MigrateMsg{Verifier: carol.String()})
	require.NoError(t, err)

	// a non-admin cannot migrate
	_, _, err = chain.MigrateContract(bob, contractAddr, newCodeID, migrateMsg)
	require.Error(t, err)

	_, _, err = chain.MigrateContract(alice, contractAddr, newCodeID, migrateMsg)
	require.NoError(t, err)
	info := chain.ContractInfo(contractAddr)
	require.NotNil(t, info)
	assert.Equal(t, newCodeID, info.CodeID)

	bz, err := chain.WasmQuerySmart(contractAddr, []byte(`{"verifier":{}}`))
	require.NoError(t, err)
	var rsp hackatom.VerifierResponse
	require.NoError(t, json.Unmarshal(bz, &rsp))
	assert.Equal(t, carol.String(), rsp.Verifier)
}

func seedReflect(t *testing.T, chain *app.App, owner types.AccAddress) types.AccAddress {
	t.Helper()
	codeID, err := chain.StoreCode(owner, reflect.Contract{})
	require.NoError(t, err)
	addr, _, err := chain.InstantiateContract(codeID, owner, nil, []byte(`{}`), "reflect", nil)
	require.NoError(t, err)
	return addr
}
