package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	// Bech32Prefix is the human readable part of all account addresses.
	Bech32Prefix = "wasm"

	// ContractAddrLen is the length of derived contract addresses.
	ContractAddrLen = 32
)

// AccAddress is a raw account address. Rendered as bech32 for anything
// contract-visible.
type AccAddress []byte

func (a AccAddress) Empty() bool { return len(a) == 0 }

func (a AccAddress) Equals(other AccAddress) bool { return bytes.Equal(a, other) }

func (a AccAddress) String() string {
	if a.Empty() {
		return ""
	}
	converted, err := bech32.ConvertBits(a, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(Bech32Prefix, converted)
	if err != nil {
		panic(err)
	}
	return encoded
}

// AccAddressFromBech32 parses a bech32 encoded address and verifies the prefix.
func AccAddressFromBech32(s string) (AccAddress, error) {
	if len(s) == 0 {
		return nil, ErrEmpty.Wrap("address")
	}
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return nil, ErrInvalid.Wrapf("decode bech32: %s", err)
	}
	if hrp != Bech32Prefix {
		return nil, ErrInvalid.Wrapf("invalid bech32 prefix: %q", hrp)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, ErrInvalid.Wrapf("convert bits: %s", err)
	}
	return AccAddress(raw), nil
}

// MustAccAddressFromBech32 is for tests and genesis wiring.
func MustAccAddressFromBech32(s string) AccAddress {
	a, err := AccAddressFromBech32(s)
	if err != nil {
		panic(err)
	}
	return a
}

// moduleHash derives an address the way the SDK address.Module does:
// sha256(sha256("module") || name || key).
func moduleHash(name string, key []byte) []byte {
	mKey := append([]byte(name), key...)
	return hash("module", mKey)
}

func hash(typ string, key []byte) []byte {
	th := sha256.Sum256([]byte(typ))

	hasher := sha256.New()
	hasher.Write(th[:])
	hasher.Write(key)
	return hasher.Sum(nil)
}

// ModuleAddress derives a stable address for a module account, e.g. the bonded
// tokens pool.
func ModuleAddress(name string) AccAddress {
	return AccAddress(hash("module", []byte(name))[:ContractAddrLen])
}

// BuildContractAddressClassic builds a contract address from the code id and
// instance sequence number.
func BuildContractAddressClassic(codeID, instanceID uint64) AccAddress {
	contractID := make([]byte, 16)
	binary.BigEndian.PutUint64(contractID[:8], codeID)
	binary.BigEndian.PutUint64(contractID[8:], instanceID)
	return AccAddress(moduleHash("wasm", contractID)[:ContractAddrLen])
}

// BuildContractAddressPredictable generates a predictable contract address.
// Internally a key is built containing
// (len(checksum) | checksum | len(creator) | creator | len(salt) | salt).
// All parameters must be non-empty.
func BuildContractAddressPredictable(checksum []byte, creator AccAddress, salt []byte) AccAddress {
	checksum = mustLengthPrefix(checksum)
	creatorBz := mustLengthPrefix(creator)
	salt = mustLengthPrefix(salt)
	key := make([]byte, 0, len(checksum)+len(creatorBz)+len(salt))
	key = append(key, checksum...)
	key = append(key, creatorBz...)
	key = append(key, salt...)
	return AccAddress(moduleHash("wasm", key)[:ContractAddrLen])
}

func mustLengthPrefix(bz []byte) []byte {
	if len(bz) == 0 {
		panic("length prefix: empty bytes")
	}
	if len(bz) > 255 {
		panic(fmt.Sprintf("length prefix: bytes too long: %d", len(bz)))
	}
	return append([]byte{byte(len(bz))}, bz...)
}
