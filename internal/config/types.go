package config

// Config holds all ponzilab configuration.
type Config struct {
	ChainID         int64  `json:"chain_id"`
	UnitPrice       string `json:"unit_price"`       // ETH per named affiliate
	OwnerRolePrice  string `json:"owner_role_price"` // ETH
	GasPriceGwei    string `json:"gas_price_gwei"`
	GasLimit        uint64 `json:"gas_limit"` // 0 estimates every transaction
	DefaultAccount  string `json:"default_account"`
	DefaultContract string `json:"default_contract"`
	DevAccounts     int    `json:"dev_accounts"`
	DevBalance      string `json:"dev_balance"` // ETH funded to each dev account on init
	LogLevel        string `json:"log_level"`   // logrus level name
	KeyringPassword string `json:"keyring_password,omitempty"`

	// internal: config dir path used for Save()
	configDir string
}

// ContractEntry is a deployed contract remembered by name.
type ContractEntry struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Deployer   string `json:"deployer"`
	Block      uint64 `json:"block"`
	DeployedAt string `json:"deployed_at"`
}

// ContractsFile is the structure of contracts.json.
type ContractsFile struct {
	Contracts []ContractEntry `json:"contracts"`
}
