package wallet_test

import (
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/ponzilab/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func dynamicTx(chainID *big.Int) *types.Transaction {
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     3,
		GasTipCap: big.NewInt(1e9),
		GasFeeCap: big.NewInt(1e9),
		Gas:       21_000,
		To:        &to,
		Value:     big.NewInt(1),
	})
}

func TestSignerSignRecoversSender(t *testing.T) {
	mgr := wallet.NewManager()
	_, err := mgr.AddWithKey("deployer", testKey)
	require.NoError(t, err)

	s, err := mgr.Signer("deployer")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddr), s.Address())
	assert.Equal(t, "deployer", s.Name())

	chainID := big.NewInt(31337)
	signed, err := s.Sign(dynamicTx(chainID), chainID)
	require.NoError(t, err)

	from, err := types.Sender(types.NewLondonSigner(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), from)
}

func TestSignerSignTxRawDecodes(t *testing.T) {
	key, err := crypto.HexToECDSA(testKey)
	require.NoError(t, err)
	s := wallet.NewKeySigner("raw", key)

	chainID := big.NewInt(1)
	raw, err := s.SignTx(dynamicTx(chainID), chainID)
	require.NoError(t, err)

	var decoded types.Transaction
	require.NoError(t, decoded.UnmarshalBinary(raw))
	assert.Equal(t, uint64(3), decoded.Nonce())
	from, err := types.Sender(types.NewLondonSigner(chainID), &decoded)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddr), from)
}

func TestSignerWatchOnlyRejected(t *testing.T) {
	a := &wallet.Account{Name: "watcher", Address: testAddr, Type: wallet.TypeWatchOnly}
	_, err := wallet.NewSigner(a, wallet.NewMemoryKeystore())
	assert.ErrorIs(t, err, wallet.ErrWatchOnly)
}

func TestSignerMissingKey(t *testing.T) {
	a := &wallet.Account{Name: "ghost", Address: testAddr, Type: wallet.TypeSigning, KeyRef: "ponzilab.ghost"}
	s, err := wallet.NewSigner(a, wallet.NewMemoryKeystore())
	require.NoError(t, err)

	_, err = s.Sign(dynamicTx(big.NewInt(1)), big.NewInt(1))
	assert.ErrorIs(t, err, wallet.ErrKeyNotFound)
}
