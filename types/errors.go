package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace for all engine errors.
const DefaultCodespace = "wasmsim"

// Note: the codes are part of the public behavior, do not renumber.
var (
	// ErrModuleNotImplemented is returned when a message or query is addressed
	// to a module slot that has no keeper configured. This is the documented
	// default for optional modules, not a bug.
	ErrModuleNotImplemented = errorsmod.Register(DefaultCodespace, 2, "module not implemented")

	// ErrInstantiateFailed error for contract instantiate failure
	ErrInstantiateFailed = errorsmod.Register(DefaultCodespace, 3, "instantiate contract failed")

	// ErrExecuteFailed error for contract execution failure
	ErrExecuteFailed = errorsmod.Register(DefaultCodespace, 4, "execute contract failed")

	// ErrQueryFailed error for contract query failure
	ErrQueryFailed = errorsmod.Register(DefaultCodespace, 5, "query contract failed")

	// ErrMigrationFailed error for contract migration failure
	ErrMigrationFailed = errorsmod.Register(DefaultCodespace, 6, "migrate contract failed")

	// ErrNoSuchContract error when the contract address is unknown
	ErrNoSuchContract = errorsmod.Register(DefaultCodespace, 7, "no such contract")

	// ErrNoSuchCode error when the code id is unknown
	ErrNoSuchCode = errorsmod.Register(DefaultCodespace, 8, "no such code")

	// ErrHostViolation error when a contract misuses the execution context,
	// e.g. writes state from a query or demands a reply it cannot handle
	ErrHostViolation = errorsmod.Register(DefaultCodespace, 9, "host contract violation")

	// ErrInsufficientFunds error when an account balance cannot cover a transfer
	ErrInsufficientFunds = errorsmod.Register(DefaultCodespace, 10, "insufficient funds")

	// ErrDuplicate error for duplicate identifiers
	ErrDuplicate = errorsmod.Register(DefaultCodespace, 11, "duplicate")

	// ErrEmpty error for empty content
	ErrEmpty = errorsmod.Register(DefaultCodespace, 12, "empty")

	// ErrInvalid error for malformed content
	ErrInvalid = errorsmod.Register(DefaultCodespace, 13, "invalid")

	// ErrUnknownMsg error when no handler recognizes the message variant
	ErrUnknownMsg = errorsmod.Register(DefaultCodespace, 14, "unknown message")

	// ErrUnauthorized error when the actor may not perform the operation
	ErrUnauthorized = errorsmod.Register(DefaultCodespace, 15, "unauthorized")

	// ErrOutOfGas error when a gas limit was exhausted
	ErrOutOfGas = errorsmod.Register(DefaultCodespace, 16, "out of gas")

	// ErrExceedMaxCallDepth error when the sub-message call stack limit is hit
	ErrExceedMaxCallDepth = errorsmod.Register(DefaultCodespace, 17, "max message call depth exceeded")

	// ErrNoSuchChannel error when the ibc channel is unknown
	ErrNoSuchChannel = errorsmod.Register(DefaultCodespace, 18, "no such channel")

	// ErrNoSuchPacket error when no packet record matches the given
	// channel/sequence pair
	ErrNoSuchPacket = errorsmod.Register(DefaultCodespace, 19, "no such packet")

	// ErrChannelClosed error for operations on a closed ibc channel
	ErrChannelClosed = errorsmod.Register(DefaultCodespace, 20, "channel closed")
)
