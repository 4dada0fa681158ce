package types

import (
	"encoding/binary"

	simtypes "github.com/CosmWasm/wasmsim/types"
)

const (
	// ModuleName is the canonical module name.
	ModuleName = "wasm"

	// StoreKey is the engine-wide store namespace of this module.
	StoreKey = simtypes.StoreKey(ModuleName)
)

// nolint
var (
	CodeKeyPrefix           = []byte{0x01}
	ContractKeyPrefix       = []byte{0x02}
	ContractStorePrefix     = []byte{0x03}
	SequenceKeyPrefix       = []byte{0x04}
	ContractByCodeIDPrefix  = []byte{0x05}
	AsyncAckPacketKeyPrefix = []byte{0x06}

	KeySequenceCodeID     = append(SequenceKeyPrefix, []byte("lastCodeId")...)
	KeySequenceInstanceID = append(SequenceKeyPrefix, []byte("lastContractId")...)
)

// GetCodeKey constructs the key for the code metadata of the given id.
func GetCodeKey(codeID uint64) []byte {
	contractIDBz := make([]byte, 8)
	binary.BigEndian.PutUint64(contractIDBz, codeID)
	return append(CodeKeyPrefix, contractIDBz...)
}

// GetContractAddressKey returns the key for the contract metadata.
func GetContractAddressKey(addr simtypes.AccAddress) []byte {
	return append(ContractKeyPrefix, addr...)
}

// GetContractStorePrefix returns the namespace of a contract's own storage.
func GetContractStorePrefix(addr simtypes.AccAddress) []byte {
	return append(ContractStorePrefix, addr...)
}

// GetAsyncAckPacketKey returns the key for a packet that awaits an async ack,
// addressed by destination channel and sequence.
func GetAsyncAckPacketKey(channelID string, sequence uint64) []byte {
	seqBz := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBz, sequence)
	return append(append(AsyncAckPacketKeyPrefix, []byte(channelID+"/")...), seqBz...)
}
