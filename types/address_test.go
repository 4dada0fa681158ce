package types

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBech32Roundtrip(t *testing.T) {
	addr := ModuleAddress("bonded_tokens_pool")

	encoded := addr.String()
	assert.Contains(t, encoded, Bech32Prefix+"1")

	parsed, err := AccAddressFromBech32(encoded)
	require.NoError(t, err)
	assert.True(t, addr.Equals(parsed))
}

func TestAccAddressFromBech32Errors(t *testing.T) {
	specs := map[string]struct {
		src    string
		expErr error
	}{
		"empty": {
			src:    "",
			expErr: ErrEmpty,
		},
		"not bech32": {
			src:    "not-an-address",
			expErr: ErrInvalid,
		},
		"wrong prefix": {
			src:    foreignBech32(t, "cosmos", ModuleAddress("anything")),
			expErr: ErrInvalid,
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			_, gotErr := AccAddressFromBech32(spec.src)
			require.ErrorIs(t, gotErr, spec.expErr)
		})
	}
}

func foreignBech32(t *testing.T, hrp string, raw []byte) string {
	t.Helper()
	converted, err := bech32.ConvertBits(raw, 8, 5, true)
	require.NoError(t, err)
	encoded, err := bech32.Encode(hrp, converted)
	require.NoError(t, err)
	return encoded
}

func TestModuleAddressDeterministic(t *testing.T) {
	assert.Equal(t, ModuleAddress("gov"), ModuleAddress("gov"))
	assert.NotEqual(t, ModuleAddress("gov"), ModuleAddress("bank"))
	assert.Len(t, []byte(ModuleAddress("gov")), ContractAddrLen)
}

func TestBuildContractAddressClassic(t *testing.T) {
	first := BuildContractAddressClassic(1, 1)

	assert.Len(t, []byte(first), ContractAddrLen)
	assert.Equal(t, first, BuildContractAddressClassic(1, 1))
	assert.NotEqual(t, first, BuildContractAddressClassic(1, 2))
	assert.NotEqual(t, first, BuildContractAddressClassic(2, 1))
}

func TestBuildContractAddressPredictable(t *testing.T) {
	checksum := []byte("checksum-of-the-contract-code!!!")
	creator := ModuleAddress("creator")

	first := BuildContractAddressPredictable(checksum, creator, []byte("salt-1"))

	assert.Len(t, []byte(first), ContractAddrLen)
	assert.Equal(t, first, BuildContractAddressPredictable(checksum, creator, []byte("salt-1")))
	assert.NotEqual(t, first, BuildContractAddressPredictable(checksum, creator, []byte("salt-2")))
	assert.NotEqual(t, first, BuildContractAddressPredictable(checksum, ModuleAddress("other"), []byte("salt-1")))

	require.Panics(t, func() {
		BuildContractAddressPredictable(checksum, creator, nil)
	})
}
