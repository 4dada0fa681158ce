package types

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"

	simtypes "github.com/CosmWasm/wasmsim/types"
)

// MaxLabelSize mirrors the on-chain limit for instance labels.
const MaxLabelSize = 128

// CodeInfo is the metadata stored per uploaded contract code.
type CodeInfo struct {
	// Checksum identifies the contract implementation, derived from its name.
	Checksum []byte `json:"checksum"`
	// Creator is the address that registered the code.
	Creator string `json:"creator"`
}

func NewCodeInfo(checksum []byte, creator simtypes.AccAddress) CodeInfo {
	return CodeInfo{Checksum: checksum, Creator: creator.String()}
}

func (c CodeInfo) ValidateBasic() error {
	if len(c.Checksum) == 0 {
		return errorsmod.Wrap(simtypes.ErrEmpty, "checksum")
	}
	if _, err := simtypes.AccAddressFromBech32(c.Creator); err != nil {
		return errorsmod.Wrap(err, "creator")
	}
	return nil
}

// ContractInfo is the metadata stored per contract instance.
type ContractInfo struct {
	CodeID  uint64 `json:"code_id"`
	Creator string `json:"creator"`
	// Admin may migrate the contract; empty means immutable.
	Admin string `json:"admin,omitempty"`
	Label string `json:"label"`
	// Created holds the block position of instantiation.
	Created *AbsoluteTxPosition `json:"created,omitempty"`
	// IBCPortID is set when the contract is IBC enabled.
	IBCPortID string `json:"ibc_port_id,omitempty"`
}

func NewContractInfo(codeID uint64, creator, admin simtypes.AccAddress, label string, created *AbsoluteTxPosition) ContractInfo {
	var adminStr string
	if !admin.Empty() {
		adminStr = admin.String()
	}
	return ContractInfo{
		CodeID:  codeID,
		Creator: creator.String(),
		Admin:   adminStr,
		Label:   label,
		Created: created,
	}
}

func (c *ContractInfo) ValidateBasic() error {
	if c.CodeID == 0 {
		return errorsmod.Wrap(simtypes.ErrEmpty, "code id")
	}
	if _, err := simtypes.AccAddressFromBech32(c.Creator); err != nil {
		return errorsmod.Wrap(err, "creator")
	}
	if c.Admin != "" {
		if _, err := simtypes.AccAddressFromBech32(c.Admin); err != nil {
			return errorsmod.Wrap(err, "admin")
		}
	}
	return validateLabel(c.Label)
}

// AdminAddr returns the admin address or nil for immutable contracts.
func (c *ContractInfo) AdminAddr() simtypes.AccAddress {
	if c.Admin == "" {
		return nil
	}
	return simtypes.MustAccAddressFromBech32(c.Admin)
}

func validateLabel(label string) error {
	if label == "" {
		return errorsmod.Wrap(simtypes.ErrEmpty, "label")
	}
	if len(label) > MaxLabelSize {
		return simtypes.ErrInvalid.Wrap("label exceeds maximum size")
	}
	return nil
}

// AbsoluteTxPosition is a unique position in the blockchain history used to
// order contract instances.
type AbsoluteTxPosition struct {
	BlockHeight uint64 `json:"block_height"`
	TxIndex     uint64 `json:"tx_index"`
}

// NewAbsoluteTxPosition reads the block position from the context.
func NewAbsoluteTxPosition(ctx simtypes.Context) *AbsoluteTxPosition {
	height := ctx.BlockHeight()
	if height < 0 {
		height = 0
	}
	return &AbsoluteTxPosition{
		BlockHeight: uint64(height),
		TxIndex:     uint64(ctx.TXCounter()),
	}
}

func mustMarshalJSON(v any) []byte {
	bz, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return bz
}

// MarshalContractInfo serializes metadata for storage.
func MarshalContractInfo(info ContractInfo) []byte { return mustMarshalJSON(&info) }

// MarshalCodeInfo serializes metadata for storage.
func MarshalCodeInfo(info CodeInfo) []byte { return mustMarshalJSON(&info) }
