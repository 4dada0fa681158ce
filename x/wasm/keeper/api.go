package keeper

import (
	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/types"
)

const (
	// DefaultGasCostHumanAddress is how much gas we charge to convert to a human address format
	DefaultGasCostHumanAddress = 5
	// DefaultGasCostCanonicalAddress is how much gas we charge to convert to a canonical address format
	DefaultGasCostCanonicalAddress = 4
	// DefaultGasCostValidateAddress is how much gas we charge to validate an address
	DefaultGasCostValidateAddress = DefaultGasCostCanonicalAddress + DefaultGasCostHumanAddress
)

func humanizeAddress(canon []byte) (string, uint64, error) {
	if len(canon) == 0 {
		return "", DefaultGasCostHumanAddress, types.ErrEmpty.Wrap("address")
	}
	return types.AccAddress(canon).String(), DefaultGasCostHumanAddress, nil
}

func canonicalizeAddress(human string) ([]byte, uint64, error) {
	addr, err := types.AccAddressFromBech32(human)
	return addr, DefaultGasCostCanonicalAddress, err
}

func validateAddress(human string) (uint64, error) {
	_, err := types.AccAddressFromBech32(human)
	return DefaultGasCostValidateAddress, err
}

// cosmosAPI is the address codec handed to contracts.
func cosmosAPI() wasmvmtypes.GoAPI {
	return wasmvmtypes.GoAPI{
		HumanizeAddress:     humanizeAddress,
		CanonicalizeAddress: canonicalizeAddress,
		ValidateAddress:     validateAddress,
	}
}
