package gov

import (
	"encoding/binary"
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/store"
	"github.com/CosmWasm/wasmsim/types"
)

const ModuleName = "gov"

const StoreKey = types.StoreKey(ModuleName)

var votePrefix = []byte("vote/")

// WeightedOption is one recorded vote option. Option carries the wire name
// ("yes", "no", "abstain", "no_with_veto"); Weight is a decimal string and
// "1" for plain votes.
type WeightedOption struct {
	Option string `json:"option"`
	Weight string `json:"weight"`
}

// Vote is the recorded ballot of one voter on one proposal.
type Vote struct {
	ProposalID uint64           `json:"proposal_id"`
	Voter      string           `json:"voter"`
	Options    []WeightedOption `json:"options"`
}

// Keeper implements a reduced gov module: it records ballots so tests can
// assert how a contract voted. There is no proposal lifecycle or tallying.
type Keeper struct {
	storeKey types.StoreKey
}

func NewKeeper() *Keeper {
	return &Keeper{storeKey: StoreKey}
}

func voteKey(proposalID uint64, voter types.AccAddress) []byte {
	key := make([]byte, 0, len(votePrefix)+8+1+len(voter.String()))
	key = append(key, votePrefix...)
	key = binary.BigEndian.AppendUint64(key, proposalID)
	key = append(key, '/')
	return append(key, voter.String()...)
}

func proposalPrefix(proposalID uint64) []byte {
	key := make([]byte, 0, len(votePrefix)+8+1)
	key = append(key, votePrefix...)
	key = binary.BigEndian.AppendUint64(key, proposalID)
	return append(key, '/')
}

// SetVote records a ballot, replacing any earlier ballot of the same voter.
func (k Keeper) SetVote(ctx types.Context, vote Vote) error {
	if len(vote.Options) == 0 {
		return types.ErrEmpty.Wrap("vote options")
	}
	voter, err := types.AccAddressFromBech32(vote.Voter)
	if err != nil {
		return errorsmod.Wrap(err, "voter")
	}
	bz, err := json.Marshal(vote)
	if err != nil {
		return errorsmod.Wrap(err, "marshal vote")
	}
	ctx.KVStore(k.storeKey).Set(voteKey(vote.ProposalID, voter), bz)
	return nil
}

// GetVote returns the recorded ballot of the voter on the proposal.
func (k Keeper) GetVote(ctx types.Context, proposalID uint64, voter types.AccAddress) (Vote, bool) {
	bz := ctx.KVStore(k.storeKey).Get(voteKey(proposalID, voter))
	if bz == nil {
		return Vote{}, false
	}
	var vote Vote
	if err := json.Unmarshal(bz, &vote); err != nil {
		panic(err)
	}
	return vote, true
}

// GetVotes returns all recorded ballots on the proposal.
func (k Keeper) GetVotes(ctx types.Context, proposalID uint64) []Vote {
	var res []Vote
	prefix := proposalPrefix(proposalID)
	it := ctx.KVStore(k.storeKey).Iterator(prefix, store.PrefixEnd(prefix))
	defer it.Close()
	for ; it.Valid(); it.Next() {
		var vote Vote
		if err := json.Unmarshal(it.Value(), &vote); err != nil {
			panic(err)
		}
		res = append(res, vote)
	}
	return res
}

// DispatchMsg handles the gov variant of a contract message.
func (k Keeper) DispatchMsg(ctx types.Context, sender types.AccAddress, msg *wasmvmtypes.GovMsg) ([]types.Event, [][]byte, error) {
	switch {
	case msg.Vote != nil:
		option, err := optionString(msg.Vote.Option)
		if err != nil {
			return nil, nil, errorsmod.Wrap(err, "vote option")
		}
		return nil, nil, k.SetVote(ctx, Vote{
			ProposalID: msg.Vote.ProposalId,
			Voter:      sender.String(),
			Options:    []WeightedOption{{Option: option, Weight: "1"}},
		})
	case msg.VoteWeighted != nil:
		if len(msg.VoteWeighted.Options) == 0 {
			return nil, nil, types.ErrEmpty.Wrap("vote options")
		}
		options := make([]WeightedOption, len(msg.VoteWeighted.Options))
		totalWeight := sdkmath.LegacyZeroDec()
		for i, o := range msg.VoteWeighted.Options {
			option, err := optionString(o.Option)
			if err != nil {
				return nil, nil, errorsmod.Wrap(err, "vote option")
			}
			weight, err := sdkmath.LegacyNewDecFromStr(o.Weight)
			if err != nil {
				return nil, nil, types.ErrInvalid.Wrapf("weight %q: %s", o.Weight, err)
			}
			if !weight.IsPositive() {
				return nil, nil, types.ErrInvalid.Wrapf("non-positive weight: %s", o.Weight)
			}
			totalWeight = totalWeight.Add(weight)
			options[i] = WeightedOption{Option: option, Weight: o.Weight}
		}
		if !totalWeight.Equal(sdkmath.LegacyOneDec()) {
			return nil, nil, types.ErrInvalid.Wrapf("weights sum to %s, must be 1", totalWeight)
		}
		return nil, nil, k.SetVote(ctx, Vote{
			ProposalID: msg.VoteWeighted.ProposalId,
			Voter:      sender.String(),
			Options:    options,
		})
	default:
		return nil, nil, types.ErrUnknownMsg.Wrap("gov")
	}
}

// optionString renders a vote option through its wire encoding. The concrete
// enum type is not exported by the contract type library.
func optionString(option any) (string, error) {
	bz, err := json.Marshal(option)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		return "", err
	}
	return s, nil
}
