package wallet_test

import (
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/ponzilab/internal/wallet"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddWatchOnlyAccount(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	err := mgr.Add("victim", &wallet.Account{Address: "0x1234567890abcdef1234567890abcdef12345678"})
	require.NoError(t, err)

	a, err := mgr.Get("victim")
	require.NoError(t, err)
	assert.Equal(t, "victim", a.Name)
	assert.Equal(t, wallet.TypeWatchOnly, a.Type)
	assert.False(t, a.CanSign())
	assert.NotEmpty(t, a.CreatedAt)
}

func TestAddRejectsBadAddress(t *testing.T) {
	mgr := wallet.NewManager()
	assert.Error(t, mgr.Add("bad", &wallet.Account{Address: "0x123"}))
}

func TestAddDuplicateAccountErrors(t *testing.T) {
	mgr := wallet.NewManager()
	_, err := mgr.Generate("dup")
	require.NoError(t, err)

	_, err = mgr.Generate("dup")
	assert.ErrorIs(t, err, wallet.ErrAccountExists)
}

func TestAddWithKeyDerivesAddress(t *testing.T) {
	mgr := wallet.NewManager()

	a, err := mgr.AddWithKey("signer", "0x"+testKey)
	require.NoError(t, err)
	assert.Equal(t, wallet.TypeSigning, a.Type)
	assert.Equal(t, testAddr, a.Address)
	assert.Equal(t, "ponzilab.signer", a.KeyRef)
}

func TestAddWithKeyInvalid(t *testing.T) {
	_, err := wallet.NewManager().AddWithKey("bad", "not-a-valid-key")
	assert.ErrorIs(t, err, wallet.ErrInvalidKey)
}

func TestGenerateProducesDistinctAccounts(t *testing.T) {
	mgr := wallet.NewManager()
	a, err := mgr.Generate("a")
	require.NoError(t, err)
	b, err := mgr.Generate("b")
	require.NoError(t, err)
	assert.NotEqual(t, a.Address, b.Address)
}

func TestDevAccountsAreDeterministic(t *testing.T) {
	first, err := wallet.NewManager().DevAccounts(5)
	require.NoError(t, err)
	second, err := wallet.NewManager().DevAccounts(5)
	require.NoError(t, err)

	require.Len(t, first, 5)
	assert.Equal(t, testAddr, first[0].Address)
	seen := map[string]bool{}
	for i := range first {
		assert.Equal(t, first[i].Address, second[i].Address)
		assert.Equal(t, wallet.DevName(i), first[i].Name)
		assert.Equal(t, i, first[i].DevIndex)
		assert.False(t, seen[first[i].Address], "dev addresses must be unique")
		seen[first[i].Address] = true
	}
}

func TestDevAccountsIsIdempotent(t *testing.T) {
	mgr := wallet.NewManager()
	_, err := mgr.DevAccounts(3)
	require.NoError(t, err)
	more, err := mgr.DevAccounts(4)
	require.NoError(t, err)
	assert.Len(t, more, 4)
	assert.Len(t, mgr.List(), 4)
}

func TestDevKeyMatchesAccount(t *testing.T) {
	key, err := wallet.DevKey(2)
	require.NoError(t, err)
	accts, err := wallet.NewManager().DevAccounts(3)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Hex(), accts[2].Address)

	_, err = wallet.DevKey(-1)
	assert.Error(t, err)
}

func TestListOrdersDevAccountsFirst(t *testing.T) {
	mgr := wallet.NewManager()
	_, err := mgr.Generate("zed")
	require.NoError(t, err)
	_, err = mgr.Generate("amy")
	require.NoError(t, err)
	_, err = mgr.DevAccounts(11)
	require.NoError(t, err)

	list := mgr.List()
	require.Len(t, list, 13)
	assert.Equal(t, "dev0", list[0].Name)
	assert.Equal(t, "dev10", list[10].Name)
	assert.Equal(t, "amy", list[11].Name)
	assert.Equal(t, "zed", list[12].Name)
}

func TestResolveByNameOrAddress(t *testing.T) {
	mgr := wallet.NewManager()
	a, err := mgr.AddWithKey("deployer", testKey)
	require.NoError(t, err)

	byName, err := mgr.Resolve("deployer")
	require.NoError(t, err)
	assert.Equal(t, a, byName)

	byAddr, err := mgr.Resolve("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	require.NoError(t, err)
	assert.Equal(t, a, byAddr)

	_, err = mgr.Resolve("nobody")
	assert.ErrorIs(t, err, wallet.ErrAccountNotFound)
}

func TestRemoveDeletesKey(t *testing.T) {
	ks := wallet.NewMemoryKeystore()
	mgr := wallet.NewManager(wallet.WithKeyStore(ks))
	a, err := mgr.Generate("temp")
	require.NoError(t, err)

	require.NoError(t, mgr.Remove("temp"))
	_, err = mgr.Get("temp")
	assert.ErrorIs(t, err, wallet.ErrAccountNotFound)
	_, err = ks.Retrieve(a.KeyRef)
	assert.ErrorIs(t, err, wallet.ErrKeyNotFound)

	assert.ErrorIs(t, mgr.Remove("temp"), wallet.ErrAccountNotFound)
}

func TestDefaultSelection(t *testing.T) {
	mgr := wallet.NewManager()
	assert.Nil(t, mgr.Default())

	_, err := mgr.Generate("solo")
	require.NoError(t, err)
	assert.Equal(t, "solo", mgr.Default().Name, "single account is the default")

	_, err = mgr.DevAccounts(2)
	require.NoError(t, err)
	assert.Equal(t, "dev0", mgr.Default().Name, "dev0 wins over an unmarked account")

	require.NoError(t, mgr.SetDefault("dev1"))
	assert.Equal(t, "dev1", mgr.Default().Name)

	assert.ErrorIs(t, mgr.SetDefault("nobody"), wallet.ErrAccountNotFound)
}

func TestManagerPersistsThroughJSONStore(t *testing.T) {
	dir := t.TempDir()
	ks, err := wallet.OpenFileKeystore(filepath.Join(dir, "keys"), "pw")
	require.NoError(t, err)
	path := filepath.Join(dir, "accounts.json")

	mgr := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(path)), wallet.WithKeyStore(ks))
	_, err = mgr.DevAccounts(2)
	require.NoError(t, err)
	require.NoError(t, mgr.SetDefault("dev1"))

	reloaded := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(path)), wallet.WithKeyStore(ks))
	assert.Len(t, reloaded.List(), 2)
	assert.Equal(t, "dev1", reloaded.Default().Name)

	s, err := reloaded.Signer("dev0")
	require.NoError(t, err)
	assert.Equal(t, testAddr, s.Address().Hex())
}
