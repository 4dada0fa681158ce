package keeper

import (
	"github.com/CosmWasm/wasmsim/types"
	wasmtypes "github.com/CosmWasm/wasmsim/x/wasm/types"
)

// AddressGenerator abstract address generator to be used for a single contract address
type AddressGenerator func(ctx types.Context, codeID uint64, checksum []byte) types.AccAddress

// ClassicAddressGenerator generates a contract address using the code id and
// the instance sequence number.
func (k *Keeper) ClassicAddressGenerator() AddressGenerator {
	return func(ctx types.Context, codeID uint64, _ []byte) types.AccAddress {
		instanceID := k.autoIncrementID(ctx, wasmtypes.KeySequenceInstanceID)
		return types.BuildContractAddressClassic(codeID, instanceID)
	}
}

// PredictableAddressGenerator generates a predictable contract address from
// the creator and salt.
func PredictableAddressGenerator(creator types.AccAddress, salt []byte) AddressGenerator {
	return func(ctx types.Context, _ uint64, checksum []byte) types.AccAddress {
		return types.BuildContractAddressPredictable(checksum, creator, salt)
	}
}
