package bank

import (
	"encoding/json"
	"testing"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/store"
	"github.com/CosmWasm/wasmsim/types"
)

var (
	alice = types.AccAddress("alice-address-000000")
	bob   = types.AccAddress("bob-address-00000000")
)

func testCtx(t *testing.T) types.Context {
	t.Helper()
	return types.NewContext("testing", 1, time.Unix(1_600_000_000, 0), log.NewTestLogger(t), store.NewMemStore())
}

func TestSendCoins(t *testing.T) {
	specs := map[string]struct {
		initial types.Coins
		amount  types.Coins
		expErr  *errorsmod.Error
		expFrom sdkmath.Int
		expTo   sdkmath.Int
	}{
		"partial balance moved": {
			initial: types.NewCoins(types.NewInt64Coin("denom", 100)),
			amount:  types.NewCoins(types.NewInt64Coin("denom", 30)),
			expFrom: sdkmath.NewInt(70),
			expTo:   sdkmath.NewInt(30),
		},
		"full balance moved": {
			initial: types.NewCoins(types.NewInt64Coin("denom", 100)),
			amount:  types.NewCoins(types.NewInt64Coin("denom", 100)),
			expFrom: sdkmath.ZeroInt(),
			expTo:   sdkmath.NewInt(100),
		},
		"insufficient funds": {
			initial: types.NewCoins(types.NewInt64Coin("denom", 10)),
			amount:  types.NewCoins(types.NewInt64Coin("denom", 11)),
			expErr:  types.ErrInsufficientFunds,
			expFrom: sdkmath.NewInt(10),
			expTo:   sdkmath.ZeroInt(),
		},
		"unknown denom": {
			initial: types.NewCoins(types.NewInt64Coin("denom", 10)),
			amount:  types.NewCoins(types.NewInt64Coin("other", 1)),
			expErr:  types.ErrInsufficientFunds,
			expFrom: sdkmath.NewInt(10),
			expTo:   sdkmath.ZeroInt(),
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			ctx := testCtx(t)
			k := NewKeeper()
			require.NoError(t, k.MintCoins(ctx, alice, spec.initial))

			gotErr := k.SendCoins(ctx, alice, bob, spec.amount)

			if spec.expErr != nil {
				require.ErrorIs(t, gotErr, spec.expErr)
			} else {
				require.NoError(t, gotErr)
			}
			assert.Equal(t, spec.expFrom.String(), k.GetBalance(ctx, alice, "denom").Amount.String())
			assert.Equal(t, spec.expTo.String(), k.GetBalance(ctx, bob, "denom").Amount.String())
		})
	}
}

func TestSendCoinsEmitsTransferEvent(t *testing.T) {
	ctx := testCtx(t)
	k := NewKeeper()
	require.NoError(t, k.MintCoins(ctx, alice, types.NewCoins(types.NewInt64Coin("denom", 100))))

	require.NoError(t, k.SendCoins(ctx, alice, bob, types.NewCoins(types.NewInt64Coin("denom", 50))))

	events := ctx.EventManager().Events()
	require.Len(t, events, 1)
	assert.Equal(t, types.EventTypeTransfer, events[0].Type)
	exp := []types.EventAttribute{
		{Key: types.AttributeKeyRecipient, Value: bob.String()},
		{Key: types.AttributeKeySender, Value: alice.String()},
		{Key: types.AttributeKeyAmount, Value: "50denom"},
	}
	assert.Equal(t, exp, []types.EventAttribute(events[0].Attributes))
}

func TestBurnCoinsReducesSupply(t *testing.T) {
	ctx := testCtx(t)
	k := NewKeeper()
	require.NoError(t, k.MintCoins(ctx, alice, types.NewCoins(types.NewInt64Coin("denom", 100))))
	require.Equal(t, "100", k.GetSupply(ctx, "denom").Amount.String())

	require.NoError(t, k.BurnCoins(ctx, alice, types.NewCoins(types.NewInt64Coin("denom", 40))))

	assert.Equal(t, "60", k.GetBalance(ctx, alice, "denom").Amount.String())
	assert.Equal(t, "60", k.GetSupply(ctx, "denom").Amount.String())
}

func TestGetAllBalances(t *testing.T) {
	ctx := testCtx(t)
	k := NewKeeper()
	funds := types.NewCoins(types.NewInt64Coin("batom", 2), types.NewInt64Coin("astake", 1))
	require.NoError(t, k.MintCoins(ctx, alice, funds))

	got := k.GetAllBalances(ctx, alice)
	assert.Equal(t, funds, got)
	assert.Empty(t, k.GetAllBalances(ctx, bob))
}

func TestDispatchBankMsg(t *testing.T) {
	specs := map[string]struct {
		msg    wasmvmtypes.BankMsg
		expErr *errorsmod.Error
	}{
		"send": {
			msg: wasmvmtypes.BankMsg{Send: &wasmvmtypes.SendMsg{
				ToAddress: bob.String(),
				Amount:    []wasmvmtypes.Coin{{Denom: "denom", Amount: "25"}},
			}},
		},
		"send with bad address": {
			msg: wasmvmtypes.BankMsg{Send: &wasmvmtypes.SendMsg{
				ToAddress: "not-an-address",
				Amount:    []wasmvmtypes.Coin{{Denom: "denom", Amount: "25"}},
			}},
			expErr: types.ErrInvalid,
		},
		"send with zero amount": {
			msg: wasmvmtypes.BankMsg{Send: &wasmvmtypes.SendMsg{
				ToAddress: bob.String(),
				Amount:    []wasmvmtypes.Coin{},
			}},
			expErr: types.ErrEmpty,
		},
		"burn": {
			msg: wasmvmtypes.BankMsg{Burn: &wasmvmtypes.BurnMsg{
				Amount: []wasmvmtypes.Coin{{Denom: "denom", Amount: "25"}},
			}},
		},
		"unknown variant": {
			msg:    wasmvmtypes.BankMsg{},
			expErr: types.ErrUnknownMsg,
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			ctx := testCtx(t)
			k := NewKeeper()
			require.NoError(t, k.MintCoins(ctx, alice, types.NewCoins(types.NewInt64Coin("denom", 100))))

			_, _, gotErr := k.DispatchMsg(ctx, alice, &spec.msg)

			if spec.expErr != nil {
				require.ErrorIs(t, gotErr, spec.expErr)
				return
			}
			require.NoError(t, gotErr)
			assert.Equal(t, "75", k.GetBalance(ctx, alice, "denom").Amount.String())
		})
	}
}

func TestBankQuery(t *testing.T) {
	ctx := testCtx(t)
	k := NewKeeper()
	require.NoError(t, k.MintCoins(ctx, alice, types.NewCoins(types.NewInt64Coin("denom", 100))))

	bz, err := k.Query(ctx, &wasmvmtypes.BankQuery{
		Balance: &wasmvmtypes.BalanceQuery{Address: alice.String(), Denom: "denom"},
	})
	require.NoError(t, err)
	var balanceRsp wasmvmtypes.BalanceResponse
	require.NoError(t, json.Unmarshal(bz, &balanceRsp))
	assert.Equal(t, wasmvmtypes.Coin{Denom: "denom", Amount: "100"}, balanceRsp.Amount)

	bz, err = k.Query(ctx, &wasmvmtypes.BankQuery{
		Supply: &wasmvmtypes.SupplyQuery{Denom: "denom"},
	})
	require.NoError(t, err)
	var supplyRsp wasmvmtypes.SupplyResponse
	require.NoError(t, json.Unmarshal(bz, &supplyRsp))
	assert.Equal(t, "100", supplyRsp.Amount.Amount)
}
