// Package hackatom contains a native escrow contract: funds deposited at
// instantiation are released to the beneficiary when the configured verifier
// says so.
package hackatom

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	wasmtypes "github.com/CosmWasm/wasmsim/x/wasm/types"
)

var configKey = []byte("config")

// ReleasedData is returned from a successful release, mirroring the classic
// escrow's magic bytes.
var ReleasedData = []byte{0xf0, 0x0b, 0xaa}

type InstantiateMsg struct {
	Verifier    string `json:"verifier"`
	Beneficiary string `json:"beneficiary"`
}

type ExecuteMsg struct {
	Release *struct{} `json:"release,omitempty"`
}

type MigrateMsg struct {
	Verifier string `json:"verifier"`
}

type QueryMsg struct {
	Verifier *struct{} `json:"verifier,omitempty"`
}

type VerifierResponse struct {
	Verifier string `json:"verifier"`
}

type state struct {
	Verifier    string `json:"verifier"`
	Beneficiary string `json:"beneficiary"`
	Funder      string `json:"funder"`
}

type Contract struct{}

var (
	_ wasmtypes.Contract   = Contract{}
	_ wasmtypes.HasMigrate = Contract{}
)

func (c Contract) Instantiate(deps wasmtypes.Deps, env wasmvmtypes.Env, info wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error) {
	var im InstantiateMsg
	if err := json.Unmarshal(msg, &im); err != nil {
		return nil, err
	}
	if _, _, err := deps.API.CanonicalizeAddress(im.Verifier); err != nil {
		return nil, fmt.Errorf("verifier: %w", err)
	}
	if _, _, err := deps.API.CanonicalizeAddress(im.Beneficiary); err != nil {
		return nil, fmt.Errorf("beneficiary: %w", err)
	}
	saveState(deps, state{Verifier: im.Verifier, Beneficiary: im.Beneficiary, Funder: info.Sender})
	return &wasmvmtypes.Response{
		Attributes: []wasmvmtypes.EventAttribute{{Key: "Let the", Value: "hacking begin"}},
	}, nil
}

func (c Contract) Execute(deps wasmtypes.Deps, env wasmvmtypes.Env, info wasmvmtypes.MessageInfo, msg []byte) (*wasmvmtypes.Response, error) {
	var em ExecuteMsg
	if err := json.Unmarshal(msg, &em); err != nil {
		return nil, err
	}
	if em.Release == nil {
		return nil, errors.New("unknown execute variant")
	}

	st := loadState(deps)
	if info.Sender != st.Verifier {
		return nil, errors.New("unauthorized")
	}

	balance, err := queryAllBalances(deps, env.Contract.Address)
	if err != nil {
		return nil, err
	}
	return &wasmvmtypes.Response{
		Messages: []wasmvmtypes.SubMsg{{
			ReplyOn: wasmvmtypes.ReplyNever,
			Msg: wasmvmtypes.CosmosMsg{Bank: &wasmvmtypes.BankMsg{Send: &wasmvmtypes.SendMsg{
				ToAddress: st.Beneficiary,
				Amount:    balance,
			}}},
		}},
		Attributes: []wasmvmtypes.EventAttribute{
			{Key: "action", Value: "release"},
			{Key: "destination", Value: st.Beneficiary},
		},
		Data: ReleasedData,
	}, nil
}

func (c Contract) Query(deps wasmtypes.Deps, env wasmvmtypes.Env, msg []byte) ([]byte, error) {
	var qm QueryMsg
	if err := json.Unmarshal(msg, &qm); err != nil {
		return nil, err
	}
	if qm.Verifier == nil {
		return nil, errors.New("unknown query variant")
	}
	return json.Marshal(VerifierResponse{Verifier: loadState(deps).Verifier})
}

// Migrate replaces the verifier, e.g. after the original key was lost.
func (c Contract) Migrate(deps wasmtypes.Deps, env wasmvmtypes.Env, msg []byte) (*wasmvmtypes.Response, error) {
	var mm MigrateMsg
	if err := json.Unmarshal(msg, &mm); err != nil {
		return nil, err
	}
	if _, _, err := deps.API.CanonicalizeAddress(mm.Verifier); err != nil {
		return nil, fmt.Errorf("verifier: %w", err)
	}
	st := loadState(deps)
	st.Verifier = mm.Verifier
	saveState(deps, st)
	return &wasmvmtypes.Response{}, nil
}

func loadState(deps wasmtypes.Deps) state {
	var st state
	if err := json.Unmarshal(deps.Storage.Get(configKey), &st); err != nil {
		panic(err)
	}
	return st
}

func saveState(deps wasmtypes.Deps, st state) {
	bz, err := json.Marshal(st)
	if err != nil {
		panic(err)
	}
	deps.Storage.Set(configKey, bz)
}

func queryAllBalances(deps wasmtypes.Deps, addr string) ([]wasmvmtypes.Coin, error) {
	req := wasmvmtypes.QueryRequest{Bank: &wasmvmtypes.BankQuery{
		AllBalances: &wasmvmtypes.AllBalancesQuery{Address: addr},
	}}
	bz, err := deps.Querier.Query(req, math.MaxUint64)
	if err != nil {
		return nil, err
	}
	var rsp wasmvmtypes.AllBalancesResponse
	if err := json.Unmarshal(bz, &rsp); err != nil {
		return nil, err
	}
	return rsp.Amount, nil
}
