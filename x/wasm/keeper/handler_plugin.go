package keeper

import (
	errorsmod "cosmossdk.io/errors"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/types"
)

// MessageHandlerChain tries a responsibility chain of handlers in order until
// one does not reject the message.
type MessageHandlerChain struct {
	handlers []Messenger
}

func NewMessageHandlerChain(first Messenger, others ...Messenger) *MessageHandlerChain {
	r := &MessageHandlerChain{handlers: append([]Messenger{first}, others...)}
	for i := range r.handlers {
		if r.handlers[i] == nil {
			panic("handler must not be nil")
		}
	}
	return r
}

// DispatchMsg dispatch message and calls chained handlers one after another in
// order to find the right one to process given message. If a handler cannot
// process given message (returns ErrUnknownMsg), its result is ignored and the
// next handler is executed.
func (m MessageHandlerChain) DispatchMsg(ctx types.Context, contractAddr types.AccAddress, contractIBCPortID string, msg wasmvmtypes.CosmosMsg) ([]types.Event, [][]byte, error) {
	for _, h := range m.handlers {
		events, data, err := h.DispatchMsg(ctx, contractAddr, contractIBCPortID, msg)
		switch {
		case err == nil:
			return events, data, nil
		case errorsmod.IsOf(err, types.ErrUnknownMsg):
			continue
		default:
			return events, data, err
		}
	}
	return nil, nil, errorsmod.Wrap(types.ErrUnknownMsg, "no handler found")
}

// MessageHandlerFunc is a helper to construct a simple function based message handler.
type MessageHandlerFunc func(ctx types.Context, contractAddr types.AccAddress, contractIBCPortID string, msg wasmvmtypes.CosmosMsg) ([]types.Event, [][]byte, error)

// DispatchMsg delegates dispatching of provided message into the MessageHandlerFunc.
func (m MessageHandlerFunc) DispatchMsg(ctx types.Context, contractAddr types.AccAddress, contractIBCPortID string, msg wasmvmtypes.CosmosMsg) ([]types.Event, [][]byte, error) {
	return m(ctx, contractAddr, contractIBCPortID, msg)
}

// NewDefaultMessageHandler wraps the router in the standard handler chain
// with the recursion guard on top.
func NewDefaultMessageHandler(router Messenger, maxCallDepth uint32) Messenger {
	return callDepthMessageHandler{
		Messenger:    NewMessageHandlerChain(router),
		MaxCallDepth: maxCallDepth,
	}
}

type callDepthMessageHandler struct {
	Messenger
	MaxCallDepth uint32
}

func (h callDepthMessageHandler) DispatchMsg(ctx types.Context, contractAddr types.AccAddress, contractIBCPortID string, msg wasmvmtypes.CosmosMsg) ([]types.Event, [][]byte, error) {
	ctx, err := checkAndIncreaseCallDepth(ctx, h.MaxCallDepth)
	if err != nil {
		return nil, nil, err
	}
	return h.Messenger.DispatchMsg(ctx, contractAddr, contractIBCPortID, msg)
}

func checkAndIncreaseCallDepth(ctx types.Context, maxCallDepth uint32) (types.Context, error) {
	if ctx.CallDepth() >= maxCallDepth {
		return ctx, types.ErrExceedMaxCallDepth
	}
	return ctx.WithCallDepth(ctx.CallDepth() + 1), nil
}
