package contract_test

import (
	"testing"

	"github.com/Mohsinsiddi/ponzilab/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorsMatchABIPackage(t *testing.T) {
	b, err := contract.NewBinding()
	require.NoError(t, err)
	parsed := b.ABI()

	sels := contract.Selectors(contract.PonziABI)
	require.NotEmpty(t, sels)

	for _, s := range sels {
		switch s.Kind {
		case "function":
			m, err := parsed.MethodById(hexutil.MustDecode(s.Hex))
			require.NoError(t, err, s.Signature)
			assert.Equal(t, s.Signature, m.Sig)
		case "event":
			ev, err := parsed.EventByID(common.HexToHash(s.Hex))
			require.NoError(t, err, s.Signature)
			assert.Equal(t, s.Signature, ev.Sig)
		case "error":
			assert.Len(t, s.Hex, 10)
		}
	}
}

func TestKnownSelectors(t *testing.T) {
	got := map[string]string{}
	for _, s := range contract.Selectors(contract.PonziABI) {
		got[s.Signature] = s.Hex
	}
	assert.Equal(t, "0x8da5cb5b", got["owner()"])
	assert.Equal(t, "0x8be0079c531659141344cd1fd0a4f28419497f9722a3daafe3b4186f6b6457e0", got["OwnershipTransferred(address,address)"])
}

func TestSelectorsOrdering(t *testing.T) {
	sels := contract.Selectors(contract.PonziABI)
	assert.Equal(t, "function", sels[0].Kind)
	assert.Equal(t, "error", sels[len(sels)-1].Kind)
}
