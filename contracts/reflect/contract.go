// Package reflect contains a native contract that re-emits whatever messages
// its owner hands it. It is the workhorse for exercising message routing,
// sub-message dispatch and the reply protocol.
package reflect

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	wasmtypes "github.com/CosmWasm/wasmsim/x/wasm/types"
)

var (
	ownerKey    = []byte("owner")
	replyPrefix = []byte("reply/")
)

type ExecuteMsg struct {
	ReflectMsg    *ReflectPayload    `json:"reflect_msg,omitempty"`
	ReflectSubMsg *ReflectSubPayload `json:"reflect_sub_msg,omitempty"`
	ChangeOwner   *ChangeOwner       `json:"change_owner,omitempty"`
}

type ReflectPayload struct {
	Msgs []wasmvmtypes.CosmosMsg `json:"msgs"`
}

type ReflectSubPayload struct {
	Msgs []wasmvmtypes.SubMsg `json:"msgs"`
}

type ChangeOwner struct {
	Owner string `json:"owner"`
}

type QueryMsg struct {
	Owner        *struct{}     `json:"owner,omitempty"`
	Chain        *ChainQuery   `json:"chain,omitempty"`
	SubMsgResult *SubMsgResult `json:"sub_msg_result,omitempty"`
}

type ChainQuery struct {
	Request wasmvmtypes.QueryRequest `json:"request"`
}

type SubMsgResult struct {
	ID uint64 `json:"id"`
}

type OwnerResponse struct {
	Owner string `json:"owner"`
}

// ChainResponse wraps the raw bytes the host returned for a chain query.
type ChainResponse struct {
	Data []byte `json:"data"`
}

type Contract struct{}

var (
	_ wasmtypes.Contract = Contract{}
	_ wasmtypes.HasReply = Contract{}
)

func (c Contract) Instantiate(deps wasmtypes.Deps, env wasmvmtypes.Env, info wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error) {
	deps.Storage.Set(ownerKey, []byte(info.Sender))
	return &wasmvmtypes.Response{}, nil
}

func (c Contract) Execute(deps wasmtypes.Deps, env wasmvmtypes.Env, info wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error) {
	var em ExecuteMsg
	if err := json.Unmarshal(msg, &em); err != nil {
		return nil, err
	}
	if owner := deps.Storage.Get(ownerKey); string(owner) != info.Sender {
		return nil, errors.New("unauthorized")
	}

	switch {
	case em.ReflectMsg != nil:
		msgs := make([]wasmvmtypes.SubMsg, len(em.ReflectMsg.Msgs))
		for i, m := range em.ReflectMsg.Msgs {
			msgs[i] = wasmvmtypes.SubMsg{ReplyOn: wasmvmtypes.ReplyNever, Msg: m}
		}
		return &wasmvmtypes.Response{Messages: msgs}, nil
	case em.ReflectSubMsg != nil:
		return &wasmvmtypes.Response{Messages: em.ReflectSubMsg.Msgs}, nil
	case em.ChangeOwner != nil:
		if _, _, err := deps.API.CanonicalizeAddress(em.ChangeOwner.Owner); err != nil {
			return nil, err
		}
		deps.Storage.Set(ownerKey, []byte(em.ChangeOwner.Owner))
		return &wasmvmtypes.Response{}, nil
	default:
		return nil, errors.New("unknown execute variant")
	}
}

func (c Contract) Query(deps wasmtypes.Deps, env wasmvmtypes.Env, msg []byte) ([]byte, error) {
	var qm QueryMsg
	if err := json.Unmarshal(msg, &qm); err != nil {
		return nil, err
	}
	switch {
	case qm.Owner != nil:
		return json.Marshal(OwnerResponse{Owner: string(deps.Storage.Get(ownerKey))})
	case qm.Chain != nil:
		data, err := deps.Querier.Query(qm.Chain.Request, math.MaxUint64)
		if err != nil {
			return nil, err
		}
		return json.Marshal(ChainResponse{Data: data})
	case qm.SubMsgResult != nil:
		bz := deps.Storage.Get(replyKey(qm.SubMsgResult.ID))
		if bz == nil {
			return nil, errors.New("reply not found")
		}
		return bz, nil
	default:
		return nil, errors.New("unknown query variant")
	}
}

// Reply stores the full reply payload so tests can assert on what the engine
// delivered for a given sub-message id.
func (c Contract) Reply(deps wasmtypes.Deps, env wasmvmtypes.Env, reply wasmvmtypes.Reply) (*wasmvmtypes.Response, error) {
	bz, err := json.Marshal(reply)
	if err != nil {
		return nil, err
	}
	deps.Storage.Set(replyKey(reply.ID), bz)
	return &wasmvmtypes.Response{}, nil
}

func replyKey(id uint64) []byte {
	key := make([]byte, len(replyPrefix)+8)
	copy(key, replyPrefix)
	binary.BigEndian.PutUint64(key[len(replyPrefix):], id)
	return key
}
