package distribution

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/types"
	"github.com/CosmWasm/wasmsim/x/bank"
)

const ModuleName = "distribution"

const StoreKey = types.StoreKey(ModuleName)

// RewardsPoolName is the module account all pending rewards are paid from.
const RewardsPoolName = "distribution"

var (
	withdrawAddrPrefix = []byte("w/")
	rewardPrefix       = []byte("r/")
)

// Keeper implements a reduced distribution module. Rewards do not accrue from
// inflation; tests and harness code credit them explicitly via AllocateRewards
// and contracts withdraw them like on chain.
type Keeper struct {
	storeKey types.StoreKey
	bank     *bank.Keeper
}

func NewKeeper(bankKeeper *bank.Keeper) *Keeper {
	return &Keeper{storeKey: StoreKey, bank: bankKeeper}
}

// RewardsPoolAddress holds undistributed reward funds.
func (k Keeper) RewardsPoolAddress() types.AccAddress {
	return types.ModuleAddress(RewardsPoolName)
}

func withdrawAddrKey(delegator types.AccAddress) []byte {
	return append(withdrawAddrPrefix, delegator.String()...)
}

func rewardKey(delegator types.AccAddress, validator string) []byte {
	return append(append(append(rewardPrefix, delegator.String()...), '/'), validator...)
}

// SetWithdrawAddress redirects future reward withdrawals of the delegator.
func (k Keeper) SetWithdrawAddress(ctx types.Context, delegator, withdraw types.AccAddress) error {
	if withdraw.Empty() {
		return types.ErrEmpty.Wrap("withdraw address")
	}
	ctx.KVStore(k.storeKey).Set(withdrawAddrKey(delegator), withdraw)
	return nil
}

// GetWithdrawAddress returns the configured withdraw address, falling back to
// the delegator itself.
func (k Keeper) GetWithdrawAddress(ctx types.Context, delegator types.AccAddress) types.AccAddress {
	if bz := ctx.KVStore(k.storeKey).Get(withdrawAddrKey(delegator)); bz != nil {
		return types.AccAddress(bz)
	}
	return delegator
}

// AllocateRewards mints coins into the rewards pool and credits them as
// pending rewards for the delegator/validator pair.
func (k Keeper) AllocateRewards(ctx types.Context, delegator types.AccAddress, validator string, amount types.Coins) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if err := k.bank.MintCoins(ctx, k.RewardsPoolAddress(), amount); err != nil {
		return err
	}
	pending := k.GetPendingRewards(ctx, delegator, validator)
	for _, coin := range amount {
		pending = pending.Add(coin)
	}
	return k.setPendingRewards(ctx, delegator, validator, pending)
}

// GetPendingRewards returns the not yet withdrawn rewards for the pair.
func (k Keeper) GetPendingRewards(ctx types.Context, delegator types.AccAddress, validator string) types.Coins {
	bz := ctx.KVStore(k.storeKey).Get(rewardKey(delegator, validator))
	if bz == nil {
		return nil
	}
	var wasmCoins []wasmvmtypes.Coin
	if err := json.Unmarshal(bz, &wasmCoins); err != nil {
		panic(err)
	}
	coins, err := types.ParseWasmCoins(wasmCoins)
	if err != nil {
		panic(err)
	}
	return coins
}

func (k Keeper) setPendingRewards(ctx types.Context, delegator types.AccAddress, validator string, amount types.Coins) error {
	kv := ctx.KVStore(k.storeKey)
	key := rewardKey(delegator, validator)
	if amount.IsZero() {
		kv.Delete(key)
		return nil
	}
	bz, err := json.Marshal(types.NewWasmCoins(amount))
	if err != nil {
		return errorsmod.Wrap(err, "marshal rewards")
	}
	kv.Set(key, bz)
	return nil
}

// WithdrawDelegatorReward pays all pending rewards for the pair to the
// delegator's withdraw address and clears the record.
func (k Keeper) WithdrawDelegatorReward(ctx types.Context, delegator types.AccAddress, validator string) (types.Coins, error) {
	pending := k.GetPendingRewards(ctx, delegator, validator)
	if pending.IsZero() {
		return nil, nil
	}
	recipient := k.GetWithdrawAddress(ctx, delegator)
	if err := k.bank.SendCoins(ctx, k.RewardsPoolAddress(), recipient, pending); err != nil {
		return nil, err
	}
	if err := k.setPendingRewards(ctx, delegator, validator, nil); err != nil {
		return nil, err
	}
	return pending, nil
}

// FundCommunityPool moves sender funds into the rewards pool without
// crediting anyone.
func (k Keeper) FundCommunityPool(ctx types.Context, sender types.AccAddress, amount types.Coins) error {
	if amount.IsZero() {
		return types.ErrEmpty.Wrap("amount")
	}
	return k.bank.SendCoins(ctx, sender, k.RewardsPoolAddress(), amount)
}

// DispatchMsg handles the distribution variant of a contract message.
func (k Keeper) DispatchMsg(ctx types.Context, sender types.AccAddress, msg *wasmvmtypes.DistributionMsg) ([]types.Event, [][]byte, error) {
	switch {
	case msg.SetWithdrawAddress != nil:
		addr, err := types.AccAddressFromBech32(msg.SetWithdrawAddress.Address)
		if err != nil {
			return nil, nil, errorsmod.Wrap(err, "withdraw address")
		}
		return nil, nil, k.SetWithdrawAddress(ctx, sender, addr)
	case msg.WithdrawDelegatorReward != nil:
		_, err := k.WithdrawDelegatorReward(ctx, sender, msg.WithdrawDelegatorReward.Validator)
		return nil, nil, err
	case msg.FundCommunityPool != nil:
		amount, err := types.ParseWasmCoins(msg.FundCommunityPool.Amount)
		if err != nil {
			return nil, nil, errorsmod.Wrap(err, "amount")
		}
		return nil, nil, k.FundCommunityPool(ctx, sender, amount)
	default:
		return nil, nil, types.ErrUnknownMsg.Wrap("distribution")
	}
}

// Query handles the distribution variant of a contract query request.
func (k Keeper) Query(ctx types.Context, req *wasmvmtypes.DistributionQuery) ([]byte, error) {
	switch {
	case req.DelegatorWithdrawAddress != nil:
		delegator, err := types.AccAddressFromBech32(req.DelegatorWithdrawAddress.DelegatorAddress)
		if err != nil {
			return nil, errorsmod.Wrap(err, "delegator")
		}
		return json.Marshal(wasmvmtypes.DelegatorWithdrawAddressResponse{
			WithdrawAddress: k.GetWithdrawAddress(ctx, delegator).String(),
		})
	default:
		return nil, types.ErrModuleNotImplemented.Wrap("distribution query")
	}
}
