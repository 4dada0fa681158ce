package types

import (
	"strings"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"
)

const (
	// WasmModuleEventType is emitted with any contract call that returns
	// non-empty attributes.
	WasmModuleEventType = "wasm"
	// CustomContractEventPrefix: contracts can emit custom events. To not mix
	// them with system events they get the `wasm-` prefix.
	CustomContractEventPrefix = "wasm-"

	EventTypeInstantiate = "instantiate"
	EventTypeExecute     = "execute"
	EventTypeMigrate     = "migrate"
	EventTypeSudo        = "sudo"
	EventTypeReply       = "reply"
	EventTypeUpdateAdmin = "update_admin"
	EventTypeClearAdmin  = "clear_admin"
	EventTypeStoreCode   = "store_code"

	EventTypeTransfer = "transfer"
	EventTypeBurn     = "burn"

	EventTypeSendPacket   = "send_packet"
	EventTypeRecvPacket   = "recv_packet"
	EventTypeWriteAck     = "write_acknowledgement"
	EventTypeAckPacket    = "acknowledge_packet"
	EventTypeTimeout      = "timeout_packet"
	EventTypeChannelClose = "channel_close"
)

// event attributes
const (
	AttributeReservedPrefix = "_"

	AttributeKeyContractAddr = "_contract_address"
	AttributeKeyCodeID       = "code_id"
	AttributeKeySender       = "sender"
	AttributeKeyRecipient    = "recipient"
	AttributeKeyAmount       = "amount"
	AttributeKeyChannelID    = "channel_id"
	AttributeKeySequence     = "packet_sequence"
)

// Event re-exports the contract-visible event type; the engine uses it
// everywhere to avoid conversions at the VM boundary.
type Event = wasmvmtypes.Event

// EventAttribute re-exports the contract-visible attribute type.
type EventAttribute = wasmvmtypes.EventAttribute

func NewEvent(ty string, attrs ...EventAttribute) Event {
	return Event{Type: ty, Attributes: attrs}
}

func NewAttribute(key, value string) EventAttribute {
	return EventAttribute{Key: key, Value: value}
}

// EventManager collects events emitted during one execution branch.
type EventManager struct {
	events []Event
}

func NewEventManager() *EventManager {
	return &EventManager{}
}

func (em *EventManager) Events() []Event { return em.events }

func (em *EventManager) EmitEvent(event Event) {
	em.events = append(em.events, event)
}

func (em *EventManager) EmitEvents(events []Event) {
	em.events = append(em.events, events...)
}

// ContractSDKEvent builds the module event for a contract call with the
// address attribute first, like the chain does.
func ContractSDKEvent(ty string, contractAddr AccAddress, attrs ...EventAttribute) Event {
	all := append([]EventAttribute{NewAttribute(AttributeKeyContractAddr, contractAddr.String())}, attrs...)
	return NewEvent(ty, all...)
}

// NewWasmModuleEvent converts the attributes returned by a contract into the
// standard "wasm" event. Attributes with the reserved prefix are rejected.
func NewWasmModuleEvent(customAttributes []EventAttribute, contractAddr AccAddress) ([]Event, error) {
	if len(customAttributes) == 0 {
		return nil, nil
	}
	if err := validateAttributes(customAttributes); err != nil {
		return nil, err
	}
	attrs := append([]EventAttribute{
		NewAttribute(AttributeKeyContractAddr, contractAddr.String()),
	}, customAttributes...)
	return []Event{NewEvent(WasmModuleEventType, attrs...)}, nil
}

// NewCustomEvents converts contract events into prefixed engine events so
// they cannot collide with system event types.
func NewCustomEvents(evts []Event, contractAddr AccAddress) ([]Event, error) {
	events := make([]Event, 0, len(evts))
	for _, e := range evts {
		typ := strings.TrimSpace(e.Type)
		if len(typ) <= 1 {
			return nil, ErrInvalid.Wrapf("event type too short: %q", e.Type)
		}
		if err := validateAttributes(e.Attributes); err != nil {
			return nil, err
		}
		attrs := append([]EventAttribute{
			NewAttribute(AttributeKeyContractAddr, contractAddr.String()),
		}, e.Attributes...)
		events = append(events, NewEvent(CustomContractEventPrefix+typ, attrs...))
	}
	return events, nil
}

func validateAttributes(attrs []EventAttribute) error {
	for _, attr := range attrs {
		key := strings.TrimSpace(attr.Key)
		if key == "" {
			return ErrInvalid.Wrap("empty attribute key")
		}
		if strings.HasPrefix(key, AttributeReservedPrefix) {
			return ErrInvalid.Wrapf("attribute key %q uses reserved prefix", attr.Key)
		}
	}
	return nil
}
