package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/ponzilab/internal/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, int64(31337), cfg.ChainID)
	assert.Equal(t, "1", cfg.UnitPrice)
	assert.Equal(t, "10", cfg.OwnerRolePrice)
	assert.Equal(t, uint64(3_000_000), cfg.GasLimit)
	assert.Equal(t, 20, cfg.DevAccounts)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, dir, cfg.Dir())
	assert.Equal(t, filepath.Join(dir, "chain.db"), cfg.ChainDBPath())

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", p.UnitPrice.String())
	assert.Equal(t, "10000000000000000000", p.OwnerRolePrice.String())

	gp, err := cfg.GasPrice()
	require.NoError(t, err)
	assert.Equal(t, "1000000000", gp.String())
}

func TestLoadUsesEnvDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvConfigDir, dir)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir())
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	require.NoError(t, cfg.Set("unit_price", "0.5"))
	require.NoError(t, cfg.Set("default_account", "dev3"))
	require.NoError(t, cfg.Set("log_level", "DEBUG"))
	require.NoError(t, cfg.Save())

	reloaded, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "0.5", reloaded.UnitPrice)
	assert.Equal(t, "dev3", reloaded.DefaultAccount)
	lvl, err := reloaded.Level()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, lvl)

	info, err := os.Stat(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSetRejectsInvalidValues(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	tests := []struct{ key, value string }{
		{"unit_price", "abc"},
		{"owner_role_price", "-1"},
		{"gas_price_gwei", "x"},
		{"gas_limit", "-5"},
		{"chain_id", "one"},
		{"dev_accounts", "-1"},
		{"log_level", "loud"},
	}
	for _, tc := range tests {
		assert.Error(t, cfg.Set(tc.key, tc.value), "%s=%s", tc.key, tc.value)
	}
	assert.Equal(t, "1", cfg.UnitPrice, "failed Set leaves config untouched")
	assert.ErrorIs(t, cfg.Set("colour", "blue"), config.ErrUnknownKey)
}

func TestGetEveryKey(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	for _, k := range config.Keys() {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
	_, err = cfg.Get("nope")
	assert.ErrorIs(t, err, config.ErrUnknownKey)
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{"), 0o600))
	_, err := config.Load(dir)
	assert.Error(t, err)
}

func TestContractsRegistry(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	_, err = cfg.ResolveContract("")
	assert.ErrorIs(t, err, config.ErrContractNotFound)

	a := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	b := common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	require.NoError(t, cfg.AddContract(config.ContractEntry{Name: "first", Address: a.Hex(), Block: 1}))
	require.NoError(t, cfg.AddContract(config.ContractEntry{Name: "second", Address: b.Hex(), Block: 5}))
	assert.ErrorIs(t, cfg.AddContract(config.ContractEntry{Name: "first"}), config.ErrContractExists)

	got, err := cfg.ResolveContract("")
	require.NoError(t, err)
	assert.Equal(t, b, got, "latest deployment by default")

	got, err = cfg.ResolveContract("first")
	require.NoError(t, err)
	assert.Equal(t, a, got)

	require.NoError(t, cfg.Set("default_contract", "first"))
	got, err = cfg.ResolveContract("")
	require.NoError(t, err)
	assert.Equal(t, a, got)

	got, err = cfg.ResolveContract(b.Hex())
	require.NoError(t, err)
	assert.Equal(t, b, got)

	_, err = cfg.ResolveContract("missing")
	assert.ErrorIs(t, err, config.ErrContractNotFound)
}

func TestKeyringPassPrecedence(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "ponzilab", cfg.KeyringPass())

	cfg.KeyringPassword = "from-config"
	assert.Equal(t, "from-config", cfg.KeyringPass())

	t.Setenv(config.EnvKeyringPassword, "from-env")
	assert.Equal(t, "from-env", cfg.KeyringPass())
}
