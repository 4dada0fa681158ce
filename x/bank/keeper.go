package bank

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/store"
	"github.com/CosmWasm/wasmsim/types"
)

const ModuleName = "bank"

// StoreKey is the bank module's namespace in the shared store.
const StoreKey = types.StoreKey(ModuleName)

var (
	balancePrefix = []byte("b/")
	supplyPrefix  = []byte("s/")
)

// Keeper owns account balances and total supply. It is always configured;
// every other module moves funds through it.
type Keeper struct {
	storeKey types.StoreKey
}

func NewKeeper() *Keeper {
	return &Keeper{storeKey: StoreKey}
}

func balanceKey(addr types.AccAddress, denom string) []byte {
	return append(append(balancePrefix, addr.String()...), append([]byte("/"), denom...)...)
}

func accountPrefix(addr types.AccAddress) []byte {
	return append(append(balancePrefix, addr.String()...), '/')
}

func supplyKey(denom string) []byte {
	return append(supplyPrefix, denom...)
}

func (k Keeper) GetBalance(ctx types.Context, addr types.AccAddress, denom string) types.Coin {
	return types.NewCoin(denom, k.getAmount(ctx.KVStore(k.storeKey), balanceKey(addr, denom)))
}

func (k Keeper) GetAllBalances(ctx types.Context, addr types.AccAddress) types.Coins {
	var res types.Coins
	kv := ctx.KVStore(k.storeKey)
	prefix := accountPrefix(addr)
	it := kv.Iterator(prefix, store.PrefixEnd(prefix))
	defer it.Close()
	for ; it.Valid(); it.Next() {
		denom := string(it.Key()[len(prefix):])
		res = res.Add(types.NewCoin(denom, mustAmount(it.Value())))
	}
	return res
}

func (k Keeper) GetSupply(ctx types.Context, denom string) types.Coin {
	return types.NewCoin(denom, k.getAmount(ctx.KVStore(k.storeKey), supplyKey(denom)))
}

// SendCoins moves coins between accounts and emits a transfer event.
// The whole transfer fails when any denom is not covered.
func (k Keeper) SendCoins(ctx types.Context, from, to types.AccAddress, amount types.Coins) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	kv := ctx.KVStore(k.storeKey)
	for _, coin := range amount {
		if err := k.subAmount(kv, balanceKey(from, coin.Denom), coin); err != nil {
			return err
		}
		k.addAmount(kv, balanceKey(to, coin.Denom), coin.Amount)
	}
	ctx.EventManager().EmitEvent(types.NewEvent(types.EventTypeTransfer,
		types.NewAttribute(types.AttributeKeyRecipient, to.String()),
		types.NewAttribute(types.AttributeKeySender, from.String()),
		types.NewAttribute(types.AttributeKeyAmount, amount.String()),
	))
	return nil
}

// MintCoins creates coins out of thin air. Reserved for genesis wiring and
// module accounts (faucet, reward pool).
func (k Keeper) MintCoins(ctx types.Context, to types.AccAddress, amount types.Coins) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	kv := ctx.KVStore(k.storeKey)
	for _, coin := range amount {
		k.addAmount(kv, balanceKey(to, coin.Denom), coin.Amount)
		k.addAmount(kv, supplyKey(coin.Denom), coin.Amount)
	}
	return nil
}

// BurnCoins destroys coins from the given account and reduces supply.
func (k Keeper) BurnCoins(ctx types.Context, from types.AccAddress, amount types.Coins) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	kv := ctx.KVStore(k.storeKey)
	for _, coin := range amount {
		if err := k.subAmount(kv, balanceKey(from, coin.Denom), coin); err != nil {
			return err
		}
		if err := k.subAmount(kv, supplyKey(coin.Denom), coin); err != nil {
			return err
		}
	}
	ctx.EventManager().EmitEvent(types.NewEvent(types.EventTypeBurn,
		types.NewAttribute(types.AttributeKeySender, from.String()),
		types.NewAttribute(types.AttributeKeyAmount, amount.String()),
	))
	return nil
}

func (k Keeper) getAmount(kv store.KVStore, key []byte) sdkmath.Int {
	bz := kv.Get(key)
	if bz == nil {
		return sdkmath.ZeroInt()
	}
	return mustAmount(bz)
}

func (k Keeper) addAmount(kv store.KVStore, key []byte, delta sdkmath.Int) {
	amount := k.getAmount(kv, key).Add(delta)
	kv.Set(key, []byte(amount.String()))
}

func (k Keeper) subAmount(kv store.KVStore, key []byte, coin types.Coin) error {
	amount := k.getAmount(kv, key)
	if amount.LT(coin.Amount) {
		return errorsmod.Wrapf(types.ErrInsufficientFunds, "%s%s is smaller than %s", amount, coin.Denom, coin)
	}
	amount = amount.Sub(coin.Amount)
	if amount.IsZero() {
		kv.Delete(key)
		return nil
	}
	kv.Set(key, []byte(amount.String()))
	return nil
}

func mustAmount(bz []byte) sdkmath.Int {
	amount, ok := sdkmath.NewIntFromString(string(bz))
	if !ok {
		panic("malformed stored amount: " + string(bz))
	}
	return amount
}

// DispatchMsg handles the bank variant of a contract message.
func (k Keeper) DispatchMsg(ctx types.Context, sender types.AccAddress, msg *wasmvmtypes.BankMsg) ([]types.Event, [][]byte, error) {
	switch {
	case msg.Send != nil:
		toAddr, err := types.AccAddressFromBech32(msg.Send.ToAddress)
		if err != nil {
			return nil, nil, errorsmod.Wrap(err, "to address")
		}
		amount, err := types.ParseWasmCoins(msg.Send.Amount)
		if err != nil {
			return nil, nil, errorsmod.Wrap(err, "amount")
		}
		if amount.IsZero() {
			return nil, nil, types.ErrEmpty.Wrap("amount")
		}
		return nil, nil, k.SendCoins(ctx, sender, toAddr, amount)
	case msg.Burn != nil:
		amount, err := types.ParseWasmCoins(msg.Burn.Amount)
		if err != nil {
			return nil, nil, errorsmod.Wrap(err, "amount")
		}
		if amount.IsZero() {
			return nil, nil, types.ErrEmpty.Wrap("amount")
		}
		return nil, nil, k.BurnCoins(ctx, sender, amount)
	default:
		return nil, nil, types.ErrUnknownMsg.Wrap("bank")
	}
}

// Query handles the bank variant of a contract query request.
func (k Keeper) Query(ctx types.Context, req *wasmvmtypes.BankQuery) ([]byte, error) {
	switch {
	case req.Balance != nil:
		addr, err := types.AccAddressFromBech32(req.Balance.Address)
		if err != nil {
			return nil, errorsmod.Wrap(err, "address")
		}
		coin := k.GetBalance(ctx, addr, req.Balance.Denom)
		return json.Marshal(wasmvmtypes.BalanceResponse{
			Amount: wasmvmtypes.Coin{Denom: coin.Denom, Amount: coin.Amount.String()},
		})
	case req.AllBalances != nil:
		addr, err := types.AccAddressFromBech32(req.AllBalances.Address)
		if err != nil {
			return nil, errorsmod.Wrap(err, "address")
		}
		return json.Marshal(wasmvmtypes.AllBalancesResponse{
			Amount: types.NewWasmCoins(k.GetAllBalances(ctx, addr)),
		})
	case req.Supply != nil:
		coin := k.GetSupply(ctx, req.Supply.Denom)
		return json.Marshal(wasmvmtypes.SupplyResponse{
			Amount: wasmvmtypes.Coin{Denom: coin.Denom, Amount: coin.Amount.String()},
		})
	default:
		return nil, types.ErrModuleNotImplemented.Wrap("bank query")
	}
}
