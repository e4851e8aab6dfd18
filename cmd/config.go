package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/Mohsinsiddi/ponzilab/internal/config"
	"github.com/Mohsinsiddi/ponzilab/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"show"},
	Short:   "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Fprintln(out, string(data))
		fmt.Fprintln(out, ui.Meta("Config directory: "+cfg.Dir()))
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:       "get <key>",
	Short:     "Print one setting",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.Keys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting. Prices are in ETH, gas_price_gwei in gwei.

Keys: chain_id, unit_price, owner_role_price, gas_price_gwei, gas_limit,
      default_account, default_contract, dev_accounts, dev_balance, log_level

New prices apply to contracts deployed afterwards. Changing chain_id
requires ponzilab init --reset.`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.Keys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("%s set to %q", args[0], args[1])))
		return nil
	},
}

var configContractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "List remembered deployments",
	RunE: func(cmd *cobra.Command, args []string) error {
		cf, err := cfg.LoadContracts()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(cf.Contracts) == 0 {
			fmt.Fprintln(out, ui.Info("No contracts deployed yet."))
			fmt.Fprintln(out, ui.Hint("Deploy one with: ponzilab deploy"))
			return nil
		}
		t := ui.NewTable([]ui.Column{
			{Title: "NAME", Width: 14},
			{Title: "ADDRESS", Width: 42},
			{Title: "BLOCK", Width: 6},
			{Title: "DEFAULT", Width: 7},
		})
		for _, e := range cf.Contracts {
			def := ""
			if e.Name == cfg.DefaultContract {
				def = "✓"
			}
			t.AddRow(e.Name, e.Address, fmt.Sprint(e.Block), def)
		}
		fmt.Fprintln(out, t.Render())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd, configContractsCmd)
}
