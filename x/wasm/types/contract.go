package types

import (
	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/store"
)

// Deps is the environment handed to a contract for one entry point call. The
// storage view is already namespaced to the contract and branched according
// to the calling context; queries get a read-only view.
type Deps struct {
	Storage store.KVStore
	API     wasmvmtypes.GoAPI
	Querier wasmvmtypes.Querier
}

// Contract is implemented by native Go contracts registered with the engine.
// It mirrors the mandatory wasm entry points; optional capabilities are
// separate interfaces so simple contracts stay small.
type Contract interface {
	Instantiate(deps Deps, env wasmvmtypes.Env, info wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error)
	Execute(deps Deps, env wasmvmtypes.Env, info wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error)
	Query(deps Deps, env wasmvmtypes.Env, msg []byte) ([]byte, error)
}

// HasReply is implemented by contracts that can process sub-message replies.
// Requesting a reply without implementing this is a host violation.
type HasReply interface {
	Reply(deps Deps, env wasmvmtypes.Env, reply wasmvmtypes.Reply) (*wasmvmtypes.Response, error)
}

// HasMigrate is implemented by contracts that support migration to their code.
type HasMigrate interface {
	Migrate(deps Deps, env wasmvmtypes.Env, msg []byte) (*wasmvmtypes.Response, error)
}

// HasSudo is implemented by contracts that accept privileged calls from the
// harness.
type HasSudo interface {
	Sudo(deps Deps, env wasmvmtypes.Env, msg []byte) (*wasmvmtypes.Response, error)
}

// IBCContract is implemented by contracts that speak IBC. Instantiating one
// claims a port.
type IBCContract interface {
	Contract
	IBCChannelOpen(deps Deps, env wasmvmtypes.Env, msg wasmvmtypes.IBCChannelOpenMsg) (*wasmvmtypes.IBC3ChannelOpenResponse, error)
	IBCChannelConnect(deps Deps, env wasmvmtypes.Env, msg wasmvmtypes.IBCChannelConnectMsg) (*wasmvmtypes.IBCBasicResponse, error)
	IBCChannelClose(deps Deps, env wasmvmtypes.Env, msg wasmvmtypes.IBCChannelCloseMsg) (*wasmvmtypes.IBCBasicResponse, error)
	// IBCPacketReceive returns the ack to write, or a nil Acknowledgement for
	// async acknowledgement.
	IBCPacketReceive(deps Deps, env wasmvmtypes.Env, msg wasmvmtypes.IBCPacketReceiveMsg) (*wasmvmtypes.IBCReceiveResponse, error)
	IBCPacketAck(deps Deps, env wasmvmtypes.Env, msg wasmvmtypes.IBCPacketAckMsg) (*wasmvmtypes.IBCBasicResponse, error)
	IBCPacketTimeout(deps Deps, env wasmvmtypes.Env, msg wasmvmtypes.IBCPacketTimeoutMsg) (*wasmvmtypes.IBCBasicResponse, error)
}
