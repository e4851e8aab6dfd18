package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Mohsinsiddi/ponzilab/internal/chain"
	"github.com/Mohsinsiddi/ponzilab/internal/ponzi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

const (
	defaultUnitPrice      = "1"
	defaultOwnerRolePrice = "10"
	defaultGasPriceGwei   = "1"
	defaultGasLimit       = 3_000_000
	defaultDevAccounts    = 20
	defaultDevBalance     = "10000"
	defaultLogLevel       = "info"
	defaultKeyringPass    = "ponzilab"

	configFile    = "config.json"
	accountsFile  = "accounts.json"
	contractsFile = "contracts.json"
	keyringDir    = "keys"
	chainDB       = "chain.db"
)

var (
	// ErrUnknownKey is returned by Set and Get for unknown settings.
	ErrUnknownKey = errors.New("config: unknown key")

	// ErrContractNotFound is returned when no deployed contract matches.
	ErrContractNotFound = errors.New("config: contract not found")

	// ErrContractExists is returned when a contract name is taken.
	ErrContractExists = errors.New("config: contract name already used")
)

// Load reads config from dir (or creates defaults). dir defaults to
// $PONZILAB_CONFIG_DIR, then ~/.ponzilab.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = os.Getenv(EnvConfigDir)
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".ponzilab")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.configDir = dir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	return saveJSON(filepath.Join(c.configDir, configFile), c)
}

// Validate checks that every amount parses.
func (c *Config) Validate() error {
	if _, err := c.Params(); err != nil {
		return err
	}
	if _, err := c.GasPrice(); err != nil {
		return err
	}
	if _, err := c.DevBalanceWei(); err != nil {
		return err
	}
	if c.DevAccounts < 0 {
		return fmt.Errorf("config: dev_accounts must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses log_level.
func (c *Config) Level() (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("config: log_level: %w", err)
	}
	return lvl, nil
}

// Dir returns the config directory.
func (c *Config) Dir() string { return c.configDir }

// AccountsPath is where account metadata is kept.
func (c *Config) AccountsPath() string { return filepath.Join(c.configDir, accountsFile) }

// KeyringDir is where encrypted keys are kept.
func (c *Config) KeyringDir() string { return filepath.Join(c.configDir, keyringDir) }

// ChainDBPath is the bbolt database holding chain state.
func (c *Config) ChainDBPath() string { return filepath.Join(c.configDir, chainDB) }

// KeyringPass returns the keyring password: $PONZILAB_KEYRING_PASSWORD,
// then the config value, then a fixed lab default.
func (c *Config) KeyringPass() string {
	if p := os.Getenv(EnvKeyringPassword); p != "" {
		return p
	}
	if c.KeyringPassword != "" {
		return c.KeyringPassword
	}
	return defaultKeyringPass
}

// Params converts the configured prices into contract parameters.
func (c *Config) Params() (ponzi.Params, error) {
	unit, err := chain.ParseETH(c.UnitPrice)
	if err != nil {
		return ponzi.Params{}, fmt.Errorf("config: unit_price: %w", err)
	}
	owner, err := chain.ParseETH(c.OwnerRolePrice)
	if err != nil {
		return ponzi.Params{}, fmt.Errorf("config: owner_role_price: %w", err)
	}
	if unit.Sign() < 0 || owner.Sign() < 0 {
		return ponzi.Params{}, fmt.Errorf("config: prices must not be negative")
	}
	return ponzi.Params{UnitPrice: unit, OwnerRolePrice: owner}, nil
}

// GasPrice returns the gas price in wei.
func (c *Config) GasPrice() (*big.Int, error) {
	p, err := chain.ParseGwei(c.GasPriceGwei)
	if err != nil {
		return nil, fmt.Errorf("config: gas_price_gwei: %w", err)
	}
	return p, nil
}

// DevBalanceWei returns the per-account dev funding in wei.
func (c *Config) DevBalanceWei() (*big.Int, error) {
	b, err := chain.ParseETH(c.DevBalance)
	if err != nil {
		return nil, fmt.Errorf("config: dev_balance: %w", err)
	}
	return b, nil
}

// Keys lists the settable keys in display order.
func Keys() []string {
	return []string{
		"chain_id", "unit_price", "owner_role_price", "gas_price_gwei", "gas_limit",
		"default_account", "default_contract", "dev_accounts", "dev_balance", "log_level",
	}
}

// Get returns a setting as a string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "chain_id":
		return strconv.FormatInt(c.ChainID, 10), nil
	case "unit_price":
		return c.UnitPrice, nil
	case "owner_role_price":
		return c.OwnerRolePrice, nil
	case "gas_price_gwei":
		return c.GasPriceGwei, nil
	case "gas_limit":
		return strconv.FormatUint(c.GasLimit, 10), nil
	case "default_account":
		return c.DefaultAccount, nil
	case "default_contract":
		return c.DefaultContract, nil
	case "dev_accounts":
		return strconv.Itoa(c.DevAccounts), nil
	case "dev_balance":
		return c.DevBalance, nil
	case "log_level":
		return c.LogLevel, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Set updates a setting from its string form and validates the result.
// The config is left unchanged on error.
func (c *Config) Set(key, value string) error {
	next := *c
	var err error
	switch key {
	case "chain_id":
		next.ChainID, err = strconv.ParseInt(value, 10, 64)
	case "unit_price":
		next.UnitPrice = value
	case "owner_role_price":
		next.OwnerRolePrice = value
	case "gas_price_gwei":
		next.GasPriceGwei = value
	case "gas_limit":
		next.GasLimit, err = strconv.ParseUint(value, 10, 64)
	case "default_account":
		next.DefaultAccount = value
	case "default_contract":
		next.DefaultContract = value
	case "dev_accounts":
		next.DevAccounts, err = strconv.Atoi(value)
	case "dev_balance":
		next.DevBalance = value
	case "log_level":
		next.LogLevel = strings.ToLower(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// LoadContracts reads contracts.json.
func (c *Config) LoadContracts() (*ContractsFile, error) {
	return loadJSON[ContractsFile](filepath.Join(c.configDir, contractsFile))
}

// SaveContracts writes contracts.json.
func (c *Config) SaveContracts(cf *ContractsFile) error {
	sort.SliceStable(cf.Contracts, func(i, j int) bool { return cf.Contracts[i].Block < cf.Contracts[j].Block })
	return saveJSON(filepath.Join(c.configDir, contractsFile), cf)
}

// AddContract remembers a deployment.
func (c *Config) AddContract(e ContractEntry) error {
	cf, err := c.LoadContracts()
	if err != nil {
		return err
	}
	for _, existing := range cf.Contracts {
		if existing.Name == e.Name {
			return fmt.Errorf("%w: %s", ErrContractExists, e.Name)
		}
	}
	if e.DeployedAt == "" {
		e.DeployedAt = time.Now().UTC().Format(time.RFC3339)
	}
	cf.Contracts = append(cf.Contracts, e)
	return c.SaveContracts(cf)
}

// ResolveContract finds a contract by name or address. An empty ref means
// the default contract, then the most recent deployment.
func (c *Config) ResolveContract(ref string) (common.Address, error) {
	if ref == "" {
		ref = c.DefaultContract
	}
	cf, err := c.LoadContracts()
	if err != nil {
		return common.Address{}, err
	}
	if ref == "" {
		if n := len(cf.Contracts); n > 0 {
			return common.HexToAddress(cf.Contracts[n-1].Address), nil
		}
		return common.Address{}, fmt.Errorf("%w: nothing deployed yet", ErrContractNotFound)
	}
	for _, e := range cf.Contracts {
		if e.Name == ref {
			return common.HexToAddress(e.Address), nil
		}
	}
	if common.IsHexAddress(ref) {
		return common.HexToAddress(ref), nil
	}
	return common.Address{}, fmt.Errorf("%w: %s", ErrContractNotFound, ref)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		ChainID:        chain.DefaultChainID,
		UnitPrice:      defaultUnitPrice,
		OwnerRolePrice: defaultOwnerRolePrice,
		GasPriceGwei:   defaultGasPriceGwei,
		GasLimit:       defaultGasLimit,
		DevAccounts:    defaultDevAccounts,
		DevBalance:     defaultDevBalance,
		LogLevel:       defaultLogLevel,
		configDir:      dir,
	}
}

func loadJSON[T any](path string) (*T, error) {
	var zero T
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &zero, nil
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return &v, nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
