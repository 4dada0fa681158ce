// Package ibcecho contains a native contract speaking a tiny echo protocol
// over IBC. Incoming packets choose their own fate: echoed back in a success
// ack, rejected with a handler error, or parked for an asynchronous ack.
package ibcecho

import (
	"encoding/json"
	"errors"
	"fmt"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/types"
	wasmtypes "github.com/CosmWasm/wasmsim/x/wasm/types"
)

// Version is the channel version this contract negotiates.
const Version = "ibc-echo-v1"

var (
	lastRecvKey = []byte("last_recv")
	lastAckKey  = []byte("last_ack")
	timeoutsKey = []byte("timeouts")
	channelsKey = []byte("channels")
)

// PacketMsg is the wire format of an echo packet.
type PacketMsg struct {
	// Op is one of "echo", "fail", "async".
	Op      string `json:"op"`
	Payload string `json:"payload,omitempty"`
}

type ExecuteMsg struct {
	Send    *SendMsg    `json:"send,omitempty"`
	Release *ReleaseMsg `json:"release,omitempty"`
}

// SendMsg sends an echo packet over the given channel.
type SendMsg struct {
	ChannelID string                 `json:"channel_id"`
	Packet    PacketMsg              `json:"packet"`
	Timeout   wasmvmtypes.IBCTimeout `json:"timeout"`
}

// ReleaseMsg writes the acknowledgement for a previously parked async packet.
type ReleaseMsg struct {
	ChannelID string `json:"channel_id"`
	Sequence  uint64 `json:"sequence"`
	Payload   string `json:"payload"`
}

type QueryMsg struct {
	LastRecv *struct{} `json:"last_recv,omitempty"`
	LastAck  *struct{} `json:"last_ack,omitempty"`
	Timeouts *struct{} `json:"timeouts,omitempty"`
}

type Contract struct{}

var _ wasmtypes.IBCContract = Contract{}

func (c Contract) Instantiate(deps wasmtypes.Deps, env wasmvmtypes.Env, info wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error) {
	deps.Storage.Set(timeoutsKey, []byte("0"))
	return &wasmvmtypes.Response{}, nil
}

func (c Contract) Execute(deps wasmtypes.Deps, env wasmvmtypes.Env, info wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error) {
	var em ExecuteMsg
	if err := json.Unmarshal(msg, &em); err != nil {
		return nil, err
	}
	switch {
	case em.Send != nil:
		data, err := json.Marshal(em.Send.Packet)
		if err != nil {
			return nil, err
		}
		return &wasmvmtypes.Response{
			Messages: []wasmvmtypes.SubMsg{{
				ReplyOn: wasmvmtypes.ReplyNever,
				Msg: wasmvmtypes.CosmosMsg{IBC: &wasmvmtypes.IBCMsg{SendPacket: &wasmvmtypes.SendPacketMsg{
					ChannelID: em.Send.ChannelID,
					Data:      data,
					Timeout:   em.Send.Timeout,
				}}},
			}},
		}, nil
	case em.Release != nil:
		ack := types.NewSuccessAck([]byte(em.Release.Payload))
		return &wasmvmtypes.Response{
			Messages: []wasmvmtypes.SubMsg{{
				ReplyOn: wasmvmtypes.ReplyNever,
				Msg: wasmvmtypes.CosmosMsg{IBC: &wasmvmtypes.IBCMsg{WriteAcknowledgement: &wasmvmtypes.WriteAcknowledgementMsg{
					ChannelID:      em.Release.ChannelID,
					PacketSequence: em.Release.Sequence,
					Ack:            wasmvmtypes.IBCAcknowledgement{Data: ack.GetBytes()},
				}}},
			}},
		}, nil
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
	case qm.LastRecv != nil:
		return json.Marshal(map[string]string{"last_recv": string(deps.Storage.Get(lastRecvKey))})
	case qm.LastAck != nil:
		return json.Marshal(map[string]string{"last_ack": string(deps.Storage.Get(lastAckKey))})
	case qm.Timeouts != nil:
		return json.Marshal(map[string]string{"timeouts": string(deps.Storage.Get(timeoutsKey))})
	default:
		return nil, errors.New("unknown query variant")
	}
}

// IBCChannelOpen validates the proposed channel and proposes the protocol
// version on open-try when the counterparty asked for something else.
func (c Contract) IBCChannelOpen(deps wasmtypes.Deps, env wasmvmtypes.Env, msg wasmvmtypes.IBCChannelOpenMsg) (*wasmvmtypes.IBC3ChannelOpenResponse, error) {
	var version string
	switch {
	case msg.OpenInit != nil:
		version = msg.OpenInit.Channel.Version
	case msg.OpenTry != nil:
		version = msg.OpenTry.Channel.Version
	default:
		return nil, errors.New("empty channel open message")
	}
	if version != Version {
		return &wasmvmtypes.IBC3ChannelOpenResponse{Version: Version}, nil
	}
	return nil, nil
}

func (c Contract) IBCChannelConnect(deps wasmtypes.Deps, env wasmvmtypes.Env, msg wasmvmtypes.IBCChannelConnectMsg) (*wasmvmtypes.IBCBasicResponse, error) {
	var channelID string
	switch {
	case msg.OpenAck != nil:
		channelID = msg.OpenAck.Channel.Endpoint.ChannelID
	case msg.OpenConfirm != nil:
		channelID = msg.OpenConfirm.Channel.Endpoint.ChannelID
	default:
		return nil, errors.New("empty channel connect message")
	}
	deps.Storage.Set(channelsKey, []byte(channelID))
	return &wasmvmtypes.IBCBasicResponse{}, nil
}

func (c Contract) IBCChannelClose(deps wasmtypes.Deps, env wasmvmtypes.Env, msg wasmvmtypes.IBCChannelCloseMsg) (*wasmvmtypes.IBCBasicResponse, error) {
	return &wasmvmtypes.IBCBasicResponse{}, nil
}

// IBCPacketReceive acks according to the packet's op. State written before a
// "fail" must be rolled back by the host; the write below makes that
// observable in tests.
func (c Contract) IBCPacketReceive(deps wasmtypes.Deps, env wasmvmtypes.Env, msg wasmvmtypes.IBCPacketReceiveMsg) (*wasmvmtypes.IBCReceiveResponse, error) {
	var pm PacketMsg
	if err := json.Unmarshal(msg.Packet.Data, &pm); err != nil {
		return nil, err
	}
	deps.Storage.Set(lastRecvKey, []byte(pm.Payload))

	switch pm.Op {
	case "echo":
		ack := types.NewSuccessAck([]byte(pm.Payload))
		return &wasmvmtypes.IBCReceiveResponse{Acknowledgement: ack.GetBytes()}, nil
	case "fail":
		return nil, fmt.Errorf("rejected payload %q", pm.Payload)
	case "async":
		return &wasmvmtypes.IBCReceiveResponse{Acknowledgement: nil}, nil
	default:
		return nil, fmt.Errorf("unknown op %q", pm.Op)
	}
}

func (c Contract) IBCPacketAck(deps wasmtypes.Deps, env wasmvmtypes.Env, msg wasmvmtypes.IBCPacketAckMsg) (*wasmvmtypes.IBCBasicResponse, error) {
	deps.Storage.Set(lastAckKey, msg.Acknowledgement.Data)
	return &wasmvmtypes.IBCBasicResponse{}, nil
}

func (c Contract) IBCPacketTimeout(deps wasmtypes.Deps, env wasmvmtypes.Env, msg wasmvmtypes.IBCPacketTimeoutMsg) (*wasmvmtypes.IBCBasicResponse, error) {
	n := 0
	if bz := deps.Storage.Get(timeoutsKey); bz != nil {
		fmt.Sscanf(string(bz), "%d", &n)
	}
	deps.Storage.Set(timeoutsKey, []byte(fmt.Sprintf("%d", n+1)))
	return &wasmvmtypes.IBCBasicResponse{}, nil
}
