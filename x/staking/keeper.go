package staking

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/store"
	"github.com/CosmWasm/wasmsim/types"
	"github.com/CosmWasm/wasmsim/x/bank"
)

const (
	ModuleName = "staking"

	// DefaultBondDenom is used unless the app builder overrides it.
	DefaultBondDenom = "stake"
)

const StoreKey = types.StoreKey(ModuleName)

// BondedPoolName is the module account holding all bonded tokens.
const BondedPoolName = "bonded_tokens_pool"

var (
	validatorPrefix  = []byte("v/")
	delegationPrefix = []byte("d/")
)

// Keeper implements a reduced staking module: a static validator set and
// immediate (un)bonding. There is no unbonding queue, tokens move between the
// delegator and the bonded pool right away.
type Keeper struct {
	storeKey  types.StoreKey
	bank      *bank.Keeper
	bondDenom string
}

func NewKeeper(bankKeeper *bank.Keeper, bondDenom string) *Keeper {
	if bondDenom == "" {
		bondDenom = DefaultBondDenom
	}
	return &Keeper{storeKey: StoreKey, bank: bankKeeper, bondDenom: bondDenom}
}

func (k Keeper) BondDenom() string { return k.bondDenom }

// BondedPoolAddress is where delegated tokens are escrowed.
func (k Keeper) BondedPoolAddress() types.AccAddress {
	return types.ModuleAddress(BondedPoolName)
}

func validatorKey(operator string) []byte {
	return append(validatorPrefix, operator...)
}

func delegatorPrefixKey(delegator types.AccAddress) []byte {
	return append(append(delegationPrefix, delegator.String()...), '/')
}

func delegationKey(delegator types.AccAddress, validator string) []byte {
	return append(delegatorPrefixKey(delegator), validator...)
}

// AddValidator registers a validator. Test setups call this before any
// delegation can succeed.
func (k Keeper) AddValidator(ctx types.Context, validator wasmvmtypes.Validator) error {
	if validator.Address == "" {
		return types.ErrEmpty.Wrap("validator address")
	}
	kv := ctx.KVStore(k.storeKey)
	key := validatorKey(validator.Address)
	if kv.Has(key) {
		return types.ErrDuplicate.Wrapf("validator %s", validator.Address)
	}
	bz, err := json.Marshal(validator)
	if err != nil {
		return errorsmod.Wrap(err, "marshal validator")
	}
	kv.Set(key, bz)
	return nil
}

func (k Keeper) GetValidator(ctx types.Context, operator string) (wasmvmtypes.Validator, bool) {
	bz := ctx.KVStore(k.storeKey).Get(validatorKey(operator))
	if bz == nil {
		return wasmvmtypes.Validator{}, false
	}
	var val wasmvmtypes.Validator
	if err := json.Unmarshal(bz, &val); err != nil {
		panic(err)
	}
	return val, true
}

func (k Keeper) GetAllValidators(ctx types.Context) []wasmvmtypes.Validator {
	var res []wasmvmtypes.Validator
	kv := ctx.KVStore(k.storeKey)
	it := kv.Iterator(validatorPrefix, store.PrefixEnd(validatorPrefix))
	defer it.Close()
	for ; it.Valid(); it.Next() {
		var val wasmvmtypes.Validator
		if err := json.Unmarshal(it.Value(), &val); err != nil {
			panic(err)
		}
		res = append(res, val)
	}
	return res
}

// GetDelegation returns the bonded amount for the pair, zero when unknown.
func (k Keeper) GetDelegation(ctx types.Context, delegator types.AccAddress, validator string) sdkmath.Int {
	bz := ctx.KVStore(k.storeKey).Get(delegationKey(delegator, validator))
	if bz == nil {
		return sdkmath.ZeroInt()
	}
	amount, ok := sdkmath.NewIntFromString(string(bz))
	if !ok {
		panic("malformed stored delegation: " + string(bz))
	}
	return amount
}

// GetAllDelegations returns all delegations of the given delegator as
// validator/amount pairs.
func (k Keeper) GetAllDelegations(ctx types.Context, delegator types.AccAddress) []wasmvmtypes.Delegation {
	var res []wasmvmtypes.Delegation
	kv := ctx.KVStore(k.storeKey)
	prefix := delegatorPrefixKey(delegator)
	it := kv.Iterator(prefix, store.PrefixEnd(prefix))
	defer it.Close()
	for ; it.Valid(); it.Next() {
		amount, ok := sdkmath.NewIntFromString(string(it.Value()))
		if !ok {
			panic("malformed stored delegation: " + string(it.Value()))
		}
		res = append(res, wasmvmtypes.Delegation{
			Delegator: delegator.String(),
			Validator: string(it.Key()[len(prefix):]),
			Amount:    wasmvmtypes.Coin{Denom: k.bondDenom, Amount: amount.String()},
		})
	}
	return res
}

func (k Keeper) setDelegation(ctx types.Context, delegator types.AccAddress, validator string, amount sdkmath.Int) {
	kv := ctx.KVStore(k.storeKey)
	key := delegationKey(delegator, validator)
	if amount.IsZero() {
		kv.Delete(key)
		return
	}
	kv.Set(key, []byte(amount.String()))
}

// Delegate escrows bond tokens from the delegator into the bonded pool.
func (k Keeper) Delegate(ctx types.Context, delegator types.AccAddress, validator string, amount types.Coin) error {
	if err := k.validBondCoin(amount); err != nil {
		return err
	}
	if _, found := k.GetValidator(ctx, validator); !found {
		return types.ErrInvalid.Wrapf("unknown validator: %s", validator)
	}
	if err := k.bank.SendCoins(ctx, delegator, k.BondedPoolAddress(), types.NewCoins(amount)); err != nil {
		return err
	}
	k.setDelegation(ctx, delegator, validator, k.GetDelegation(ctx, delegator, validator).Add(amount.Amount))
	return nil
}

// Undelegate releases bond tokens from the bonded pool back to the delegator.
// No unbonding period applies.
func (k Keeper) Undelegate(ctx types.Context, delegator types.AccAddress, validator string, amount types.Coin) error {
	if err := k.validBondCoin(amount); err != nil {
		return err
	}
	bonded := k.GetDelegation(ctx, delegator, validator)
	if bonded.LT(amount.Amount) {
		return types.ErrInsufficientFunds.Wrapf("delegation %s%s is smaller than %s", bonded, k.bondDenom, amount)
	}
	if err := k.bank.SendCoins(ctx, k.BondedPoolAddress(), delegator, types.NewCoins(amount)); err != nil {
		return err
	}
	k.setDelegation(ctx, delegator, validator, bonded.Sub(amount.Amount))
	return nil
}

// Redelegate moves a bonded amount between validators without touching
// balances.
func (k Keeper) Redelegate(ctx types.Context, delegator types.AccAddress, srcValidator, dstValidator string, amount types.Coin) error {
	if err := k.validBondCoin(amount); err != nil {
		return err
	}
	if _, found := k.GetValidator(ctx, dstValidator); !found {
		return types.ErrInvalid.Wrapf("unknown validator: %s", dstValidator)
	}
	bonded := k.GetDelegation(ctx, delegator, srcValidator)
	if bonded.LT(amount.Amount) {
		return types.ErrInsufficientFunds.Wrapf("delegation %s%s is smaller than %s", bonded, k.bondDenom, amount)
	}
	k.setDelegation(ctx, delegator, srcValidator, bonded.Sub(amount.Amount))
	k.setDelegation(ctx, delegator, dstValidator, k.GetDelegation(ctx, delegator, dstValidator).Add(amount.Amount))
	return nil
}

func (k Keeper) validBondCoin(amount types.Coin) error {
	if amount.Denom != k.bondDenom {
		return types.ErrInvalid.Wrapf("expected bond denom %s, got %s", k.bondDenom, amount.Denom)
	}
	if amount.Amount.IsNil() || !amount.Amount.IsPositive() {
		return types.ErrInvalid.Wrap("non-positive bond amount")
	}
	return nil
}

// DispatchMsg handles the staking variant of a contract message.
func (k Keeper) DispatchMsg(ctx types.Context, sender types.AccAddress, msg *wasmvmtypes.StakingMsg) ([]types.Event, [][]byte, error) {
	switch {
	case msg.Delegate != nil:
		amount, err := parseBondCoin(msg.Delegate.Amount)
		if err != nil {
			return nil, nil, err
		}
		return nil, nil, k.Delegate(ctx, sender, msg.Delegate.Validator, amount)
	case msg.Undelegate != nil:
		amount, err := parseBondCoin(msg.Undelegate.Amount)
		if err != nil {
			return nil, nil, err
		}
		return nil, nil, k.Undelegate(ctx, sender, msg.Undelegate.Validator, amount)
	case msg.Redelegate != nil:
		amount, err := parseBondCoin(msg.Redelegate.Amount)
		if err != nil {
			return nil, nil, err
		}
		return nil, nil, k.Redelegate(ctx, sender, msg.Redelegate.SrcValidator, msg.Redelegate.DstValidator, amount)
	default:
		return nil, nil, types.ErrUnknownMsg.Wrap("staking")
	}
}

func parseBondCoin(coin wasmvmtypes.Coin) (types.Coin, error) {
	amount, ok := sdkmath.NewIntFromString(coin.Amount)
	if !ok {
		return types.Coin{}, types.ErrInvalid.Wrapf("amount: %s", coin.Amount)
	}
	return types.NewCoin(coin.Denom, amount), nil
}

// Query handles the staking variant of a contract query request.
func (k Keeper) Query(ctx types.Context, req *wasmvmtypes.StakingQuery) ([]byte, error) {
	switch {
	case req.BondedDenom != nil:
		return json.Marshal(wasmvmtypes.BondedDenomResponse{Denom: k.bondDenom})
	case req.AllValidators != nil:
		return json.Marshal(wasmvmtypes.AllValidatorsResponse{Validators: k.GetAllValidators(ctx)})
	case req.Validator != nil:
		rsp := wasmvmtypes.ValidatorResponse{}
		if val, found := k.GetValidator(ctx, req.Validator.Address); found {
			rsp.Validator = &val
		}
		return json.Marshal(rsp)
	case req.AllDelegations != nil:
		delegator, err := types.AccAddressFromBech32(req.AllDelegations.Delegator)
		if err != nil {
			return nil, errorsmod.Wrap(err, "delegator")
		}
		return json.Marshal(wasmvmtypes.AllDelegationsResponse{Delegations: k.GetAllDelegations(ctx, delegator)})
	case req.Delegation != nil:
		delegator, err := types.AccAddressFromBech32(req.Delegation.Delegator)
		if err != nil {
			return nil, errorsmod.Wrap(err, "delegator")
		}
		rsp := wasmvmtypes.DelegationResponse{}
		if bonded := k.GetDelegation(ctx, delegator, req.Delegation.Validator); !bonded.IsZero() {
			amount := wasmvmtypes.Coin{Denom: k.bondDenom, Amount: bonded.String()}
			rsp.Delegation = &wasmvmtypes.FullDelegation{
				Delegator:     req.Delegation.Delegator,
				Validator:     req.Delegation.Validator,
				Amount:        amount,
				CanRedelegate: amount,
			}
		}
		return json.Marshal(rsp)
	default:
		return nil, types.ErrModuleNotImplemented.Wrap("staking query")
	}
}
