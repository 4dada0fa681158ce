package keeper

// Option configures the keeper at construction time.
type Option interface {
	apply(*Keeper)
}

type optsFn func(*Keeper)

func (f optsFn) apply(keeper *Keeper) {
	f(keeper)
}

// WithMessageHandler is an optional constructor parameter to replace the
// default message handler chain.
func WithMessageHandler(handler Messenger) Option {
	return optsFn(func(k *Keeper) {
		k.messenger = handler
	})
}

// WithQueryHandler is an optional constructor parameter to replace the default
// query plugins.
func WithQueryHandler(handler WasmVMQueryHandler) Option {
	return optsFn(func(k *Keeper) {
		k.wasmVMQueryHandler = handler
	})
}

// WithMaxCallDepth is an optional constructor parameter to set the recursion
// limit for contract calls.
func WithMaxCallDepth(depth uint32) Option {
	return optsFn(func(k *Keeper) {
		k.maxCallDepth = depth
	})
}

// SetMessageHandler wires the message handler after construction. The app
// builder needs this because the default handler chain refers back to the
// keeper.
func (k *Keeper) SetMessageHandler(handler Messenger) {
	k.setMessenger(handler)
}

// SetWasmQueryHandler wires the query plugins after construction, for the
// same reason as SetMessageHandler.
func (k *Keeper) SetWasmQueryHandler(handler WasmVMQueryHandler) {
	k.setQueryHandler(handler)
}
