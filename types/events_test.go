package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWasmModuleEvent(t *testing.T) {
	contractAddr := ModuleAddress("contract")

	t.Run("no attributes no event", func(t *testing.T) {
		got, err := NewWasmModuleEvent(nil, contractAddr)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("address attribute first", func(t *testing.T) {
		got, err := NewWasmModuleEvent([]EventAttribute{NewAttribute("action", "release")}, contractAddr)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, WasmModuleEventType, got[0].Type)
		require.Len(t, got[0].Attributes, 2)
		assert.Equal(t, AttributeKeyContractAddr, got[0].Attributes[0].Key)
		assert.Equal(t, contractAddr.String(), got[0].Attributes[0].Value)
		assert.Equal(t, "action", got[0].Attributes[1].Key)
	})

	t.Run("reserved prefix rejected", func(t *testing.T) {
		_, err := NewWasmModuleEvent([]EventAttribute{NewAttribute("_sneaky", "x")}, contractAddr)
		require.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		_, err := NewWasmModuleEvent([]EventAttribute{NewAttribute("  ", "x")}, contractAddr)
		require.ErrorIs(t, err, ErrInvalid)
	})
}

func TestNewCustomEvents(t *testing.T) {
	contractAddr := ModuleAddress("contract")

	t.Run("type gets wasm prefix", func(t *testing.T) {
		got, err := NewCustomEvents([]Event{NewEvent("my-event", NewAttribute("k", "v"))}, contractAddr)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "wasm-my-event", got[0].Type)
		require.Len(t, got[0].Attributes, 2)
		assert.Equal(t, AttributeKeyContractAddr, got[0].Attributes[0].Key)
	})

	t.Run("short type rejected", func(t *testing.T) {
		_, err := NewCustomEvents([]Event{NewEvent("a")}, contractAddr)
		require.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("reserved attribute rejected", func(t *testing.T) {
		_, err := NewCustomEvents([]Event{NewEvent("my-event", NewAttribute("_hidden", "v"))}, contractAddr)
		require.ErrorIs(t, err, ErrInvalid)
	})
}

func TestEventManagerCollects(t *testing.T) {
	em := NewEventManager()
	em.EmitEvent(NewEvent("first"))
	em.EmitEvents([]Event{NewEvent("second"), NewEvent("third")})

	events := em.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "first", events[0].Type)
	assert.Equal(t, "third", events[2].Type)
}
