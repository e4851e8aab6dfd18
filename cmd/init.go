package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/ponzilab/internal/config"
	"github.com/Mohsinsiddi/ponzilab/internal/ui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	initReset bool
	yesFlag   bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the lab chain and fund the dev accounts",
	Long: `Create the config directory, the deterministic dev accounts and a fresh
simulated chain in which each dev account holds dev_balance ETH.

Running init again only adds missing dev accounts. --reset wipes the chain
and the deployed contracts list; accounts and keys are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Banner())

		l, err := openLab()
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck

		if initReset {
			if !yesFlag && !ui.ConfirmDanger(cmd.InOrStdin(), out, "Wipe the chain and every deployed contract?") {
				fmt.Fprintln(out, ui.Meta("Cancelled."))
				return nil
			}
			if err := l.reset(); err != nil {
				return err
			}
			if err := cfg.SaveContracts(&config.ContractsFile{}); err != nil {
				return err
			}
			cfg.DefaultContract = ""
			fmt.Fprintln(out, ui.Warn("Chain wiped."))
		}

		accts, err := l.accounts.DevAccounts(cfg.DevAccounts)
		if err != nil {
			return err
		}
		if l.fresh {
			balance, err := cfg.DevBalanceWei()
			if err != nil {
				return err
			}
			for _, a := range accts {
				l.backend.Fund(a.CommonAddress(), balance)
			}
			log.WithFields(logrus.Fields{"accounts": len(accts), "each": balance.String()}).Debug("dev accounts funded")
		}
		if err := l.save(); err != nil {
			return fmt.Errorf("saving chain: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Fprintln(out, accountsTable(l).Render())
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Lab ready in %s (chain id %d, block %d).", cfg.Dir(), cfg.ChainID, l.backend.BlockNumber())))
		fmt.Fprintln(out, ui.Hint("Deploy the contract with: ponzilab deploy"))
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initReset, "reset", false, "wipe the chain and deployed contracts")
	initCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "skip the confirmation prompt")
}
