package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGasMeterConsume(t *testing.T) {
	m := NewGasMeter(100)
	assert.Equal(t, Gas(100), m.Limit())
	assert.Equal(t, Gas(0), m.GasConsumed())
	assert.Equal(t, Gas(100), m.GasRemaining())
	assert.False(t, m.IsOutOfGas())

	m.ConsumeGas(40, "first")
	m.ConsumeGas(60, "second")
	assert.Equal(t, Gas(100), m.GasConsumed())
	assert.Equal(t, Gas(0), m.GasRemaining())
	assert.True(t, m.IsOutOfGas())
}

func TestGasMeterPanicsBeyondLimit(t *testing.T) {
	m := NewGasMeter(10)
	m.ConsumeGas(10, "all of it")

	require.PanicsWithValue(t, ErrorOutOfGas{Descriptor: "one too many"}, func() {
		m.ConsumeGas(1, "one too many")
	})
}

func TestGasMeterOverflow(t *testing.T) {
	m := NewGasMeter(math.MaxUint64)
	m.ConsumeGas(math.MaxUint64-1, "almost everything")

	require.PanicsWithValue(t, ErrorOutOfGas{Descriptor: "overflow"}, func() {
		m.ConsumeGas(math.MaxUint64, "overflow")
	})
	// the meter stays pegged after the overflow
	assert.Equal(t, Gas(math.MaxUint64), m.GasConsumed())
}

func TestInfiniteGasMeter(t *testing.T) {
	m := NewInfiniteGasMeter()
	m.ConsumeGas(1_000_000, "free")

	assert.Equal(t, Gas(1_000_000), m.GasConsumed())
	assert.Equal(t, Gas(math.MaxUint64), m.GasRemaining())
	assert.False(t, m.IsOutOfGas())
}
