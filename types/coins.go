package types

import (
	"fmt"
	"sort"
	"strings"

	sdkmath "cosmossdk.io/math"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"
)

// Coin is a denomination with a non-negative amount.
type Coin struct {
	Denom  string      `json:"denom"`
	Amount sdkmath.Int `json:"amount"`
}

func NewCoin(denom string, amount sdkmath.Int) Coin {
	return Coin{Denom: denom, Amount: amount}
}

func NewInt64Coin(denom string, amount int64) Coin {
	return NewCoin(denom, sdkmath.NewInt(amount))
}

func (c Coin) IsZero() bool { return c.Amount.IsZero() }

func (c Coin) String() string { return fmt.Sprintf("%s%s", c.Amount.String(), c.Denom) }

// Coins is a set of coins, kept sorted by denom with no zero amounts.
type Coins []Coin

func NewCoins(coins ...Coin) Coins {
	var res Coins
	for _, c := range coins {
		res = res.Add(c)
	}
	return res
}

func (cs Coins) IsZero() bool { return len(cs) == 0 }

func (cs Coins) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// AmountOf returns the amount of the given denom, zero when absent.
func (cs Coins) AmountOf(denom string) sdkmath.Int {
	for _, c := range cs {
		if c.Denom == denom {
			return c.Amount
		}
	}
	return sdkmath.ZeroInt()
}

// Add returns a new set with the coin added, preserving order invariants.
func (cs Coins) Add(coin Coin) Coins {
	if coin.Amount.IsNil() || coin.Amount.IsZero() {
		return cs
	}
	res := make(Coins, 0, len(cs)+1)
	inserted := false
	for _, c := range cs {
		switch {
		case c.Denom == coin.Denom:
			res = append(res, NewCoin(c.Denom, c.Amount.Add(coin.Amount)))
			inserted = true
		default:
			res = append(res, c)
		}
	}
	if !inserted {
		res = append(res, coin)
		sort.Slice(res, func(i, j int) bool { return res[i].Denom < res[j].Denom })
	}
	return res
}

// Validate checks for sorted unique denoms and positive amounts.
func (cs Coins) Validate() error {
	seen := ""
	for _, c := range cs {
		if c.Denom == "" {
			return ErrEmpty.Wrap("denom")
		}
		if c.Denom <= seen {
			return ErrInvalid.Wrapf("coins not sorted or duplicate denom: %s", c.Denom)
		}
		if c.Amount.IsNil() || !c.Amount.IsPositive() {
			return ErrInvalid.Wrapf("non-positive coin amount: %s", c.Denom)
		}
		seen = c.Denom
	}
	return nil
}

// ParseWasmCoins converts contract-visible coins into engine coins.
func ParseWasmCoins(coins []wasmvmtypes.Coin) (Coins, error) {
	var res Coins
	for _, c := range coins {
		amount, ok := sdkmath.NewIntFromString(c.Amount)
		if !ok {
			return nil, ErrInvalid.Wrapf("amount: %s", c.Amount)
		}
		if amount.IsNegative() {
			return nil, ErrInvalid.Wrapf("negative amount: %s%s", c.Amount, c.Denom)
		}
		res = res.Add(NewCoin(c.Denom, amount))
	}
	return res, nil
}

// NewWasmCoins converts engine coins into the contract-visible representation.
func NewWasmCoins(coins Coins) []wasmvmtypes.Coin {
	res := make([]wasmvmtypes.Coin, len(coins))
	for i, c := range coins {
		res[i] = wasmvmtypes.Coin{Denom: c.Denom, Amount: c.Amount.String()}
	}
	return res
}
