package types

import (
	"fmt"
	"math"
)

// Gas is a measure of computational cost. The simulation charges coarse flat
// costs only; the meter exists so sub-message gas limits behave like on chain.
type Gas = uint64

// DefaultGasMultiplier converts between contract-visible gas and engine gas.
// The simulation meters both in the same unit.
const DefaultGasMultiplier uint64 = 1

// ErrorOutOfGas is the panic value raised when a gas meter overflows its
// limit. The dispatcher recovers it and converts it into ErrOutOfGas.
type ErrorOutOfGas struct {
	Descriptor string
}

// GasMeter tracks gas consumption against an optional limit.
type GasMeter interface {
	GasConsumed() Gas
	Limit() Gas
	GasRemaining() Gas
	ConsumeGas(amount Gas, descriptor string)
	IsOutOfGas() bool
}

type basicGasMeter struct {
	limit    Gas
	consumed Gas
}

// NewGasMeter returns a meter that panics with ErrorOutOfGas beyond limit.
func NewGasMeter(limit Gas) GasMeter {
	return &basicGasMeter{limit: limit}
}

func (g *basicGasMeter) GasConsumed() Gas { return g.consumed }
func (g *basicGasMeter) Limit() Gas       { return g.limit }
func (g *basicGasMeter) IsOutOfGas() bool { return g.consumed >= g.limit }

func (g *basicGasMeter) GasRemaining() Gas {
	if g.consumed >= g.limit {
		return 0
	}
	return g.limit - g.consumed
}

func (g *basicGasMeter) ConsumeGas(amount Gas, descriptor string) {
	consumed, overflow := addGasOverflow(g.consumed, amount)
	if overflow {
		g.consumed = math.MaxUint64
		panic(ErrorOutOfGas{Descriptor: descriptor})
	}
	g.consumed = consumed
	if g.consumed > g.limit {
		panic(ErrorOutOfGas{Descriptor: descriptor})
	}
}

type infiniteGasMeter struct {
	consumed Gas
}

// NewInfiniteGasMeter returns a meter without a limit, used for top-level
// calls and queries.
func NewInfiniteGasMeter() GasMeter {
	return &infiniteGasMeter{}
}

func (g *infiniteGasMeter) GasConsumed() Gas  { return g.consumed }
func (g *infiniteGasMeter) Limit() Gas        { return math.MaxUint64 }
func (g *infiniteGasMeter) GasRemaining() Gas { return math.MaxUint64 }
func (g *infiniteGasMeter) IsOutOfGas() bool  { return false }

func (g *infiniteGasMeter) ConsumeGas(amount Gas, descriptor string) {
	consumed, overflow := addGasOverflow(g.consumed, amount)
	if overflow {
		panic(fmt.Sprintf("gas overflow: %s", descriptor))
	}
	g.consumed = consumed
}

func addGasOverflow(a, b Gas) (Gas, bool) {
	if b >= math.MaxUint64-a {
		return 0, true
	}
	return a + b, false
}
