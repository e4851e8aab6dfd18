package wallet

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONStoreSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	store := NewJSONStore(path)

	accounts := []*Account{
		{Name: "alice", Address: "0x1111111111111111111111111111111111111111", Type: TypeWatchOnly},
		{Name: "dev1", Address: "0x2222222222222222222222222222222222222222", Type: TypeDev, KeyRef: "ponzilab.dev1", DevIndex: 1},
	}
	require.NoError(t, store.Save(accounts))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "alice", loaded[0].Name)
	assert.Equal(t, TypeDev, loaded[1].Type)
	assert.Equal(t, "ponzilab.dev1", loaded[1].KeyRef)
	assert.Equal(t, 1, loaded[1].DevIndex)
}

func TestJSONStoreLoadNoFile(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "missing.json"))

	accounts, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, accounts)
}

func TestJSONStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewJSONStore(path).Load()
	assert.Error(t, err)
}

func TestJSONStoreSaveRestrictivePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	path := filepath.Join(t.TempDir(), "accounts.json")
	require.NoError(t, NewJSONStore(path).Save([]*Account{{Name: "a"}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestNormaliseHexKey(t *testing.T) {
	tests := map[string]string{
		"0xabc123":   "abc123",
		"0Xabc123":   "abc123",
		"abc123":     "abc123",
		"  0xabc  ":  "abc",
		"0x":         "",
		"":           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normaliseHexKey(in), "input %q", in)
	}
}
