package types

import "encoding/json"

// Acknowledgement is the conventional two-variant ics-004 envelope. The
// engine never mandates it, but the default handlers and test contracts use
// it so both sides agree on success/failure.
type Acknowledgement struct {
	Result []byte `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NewSuccessAck wraps response bytes in the success variant.
func NewSuccessAck(result []byte) Acknowledgement {
	return Acknowledgement{Result: result}
}

// NewErrorAck wraps a handler error in the error variant. The error text is
// passed verbatim; the simulation does not redact.
func NewErrorAck(err error) Acknowledgement {
	return Acknowledgement{Error: err.Error()}
}

func (a Acknowledgement) Success() bool { return a.Error == "" }

func (a Acknowledgement) GetBytes() []byte {
	bz, err := json.Marshal(a)
	if err != nil {
		panic(err)
	}
	return bz
}
