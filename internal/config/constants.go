package config

import "time"

// Environment overrides.
const (
	EnvConfigDir       = "PONZILAB_CONFIG_DIR"
	EnvKeyringPassword = "PONZILAB_KEYRING_PASSWORD"
)

// Timeouts applied to a single CLI command.
const (
	TxTimeout       = 30 * time.Second // one transaction
	ScenarioTimeout = 5 * time.Minute  // a full exploit run
)
