package cmd

import (
	"fmt"
	"os"

	"github.com/Mohsinsiddi/ponzilab/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/ponzilab/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir       string
	cfg          *config.Config
	log          = logrus.New()
	verbose      bool
	fromFlag     string
	contractFlag string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "ponzilab",
	Short: "PonziContract exploit lab",
	Long: `ponzilab runs the PonziContract affiliate ledger on a local simulated chain.

  Deploy the contract, join it, buy the owner role and drain it, and replay
  the known exploits end to end. Chain state persists in the config
  directory between invocations.

Global flags --from and --contract pick the acting account and the target
contract for a single invocation. Persist them with:
  ponzilab accounts use <name>
  ponzilab config set default_contract <name>`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config (skip for commands that don't need it).
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		lvl, err := cfg.Level()
		if err != nil {
			return err
		}
		if verbose {
			lvl = logrus.DebugLevel
		}
		log.SetLevel(lvl)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	// PONZILAB_CONFIG_DIR env var overrides --config flag.
	if envDir := os.Getenv(config.EnvConfigDir); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.ponzilab)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&fromFlag, "from", "", "account to act as (name or address)")
	rootCmd.PersistentFlags().StringVar(&contractFlag, "contract", "", "target contract (name or address)")

	// Register all sub-commands.
	rootCmd.AddCommand(
		initCmd,
		deployCmd,
		joinCmd,
		affiliateCmd,
		ownerCmd,
		withdrawCmd,
		deadlineCmd,
		timeCmd,
		statusCmd,
		accountsCmd,
		receiptsCmd,
		exploitCmd,
		abiCmd,
		configCmd,
	)
}
