package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/ponzilab/internal/chain"
	"github.com/Mohsinsiddi/ponzilab/internal/ui"
	"github.com/Mohsinsiddi/ponzilab/internal/wallet"
	"github.com/spf13/cobra"
)

var accountsKeyFlag string

var accountsCmd = &cobra.Command{
	Use:     "accounts",
	Aliases: []string{"account", "acct"},
	Short:   "Manage lab accounts",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts with their balances",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLab()
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck

		out := cmd.OutOrStdout()
		if len(l.accounts.List()) == 0 {
			fmt.Fprintln(out, ui.Info("No accounts yet."))
			fmt.Fprintln(out, ui.Hint("Create the dev accounts with: ponzilab init"))
			return nil
		}
		fmt.Fprintln(out, accountsTable(l).Render())
		return nil
	},
}

var accountsNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create an account with a random key, or import one with --key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLab()
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck

		var a *wallet.Account
		if accountsKeyFlag != "" {
			a, err = l.accounts.AddWithKey(args[0], accountsKeyFlag)
		} else {
			a, err = l.accounts.Generate(args[0])
		}
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Account %q created: %s", a.Name, ui.Addr(a.Address))))
		fmt.Fprintln(out, ui.Hint(fmt.Sprintf("Give it ETH with: ponzilab accounts fund %s 100", a.Name)))
		return nil
	},
}

var accountsWatchCmd = &cobra.Command{
	Use:   "watch <name> <address>",
	Short: "Track an address without a key (e.g. a seeded affiliate)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLab()
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck

		if err := l.accounts.Add(args[0], &wallet.Account{Address: args[1], Type: wallet.TypeWatchOnly}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Watch-only account %q added: %s", args[0], ui.Addr(args[1]))))
		return nil
	},
}

var accountsUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the default account (pick interactively without a name)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLab()
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck

		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			current, _ := l.account()
			var items []ui.PickerItem
			for _, a := range l.accounts.List() {
				items = append(items, ui.PickerItem{
					Label:    a.Name,
					SubLabel: ui.TruncateAddr(a.Address) + "  " + ui.FormatETH(l.backend.BalanceAt(a.CommonAddress())),
					Value:    a.Name,
					Current:  current != nil && current.Name == a.Name,
				})
			}
			if name, err = ui.PickItem("Default account", items); err != nil {
				if errors.Is(err, ui.ErrNothingToPick) {
					return fmt.Errorf("no accounts yet; run `ponzilab init` first")
				}
				return err
			}
			if name == "" {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
				return nil
			}
		}

		if err := l.accounts.SetDefault(name); err != nil {
			return err
		}
		cfg.DefaultAccount = name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default account set to %q.", name)))
		return nil
	},
}

var accountsFundCmd = &cobra.Command{
	Use:   "fund <name|address> <eth>",
	Short: "Mint ETH to an account outside any transaction",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLab()
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck

		addr, err := l.parseAddress(args[0])
		if err != nil {
			return err
		}
		amount, err := chain.ParseETH(args[1])
		if err != nil {
			return err
		}
		if amount.Sign() <= 0 {
			return fmt.Errorf("amount must be positive")
		}
		l.backend.Fund(addr, amount)
		if err := l.save(); err != nil {
			return fmt.Errorf("saving chain: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Funded %s with %s; balance %s.",
			ui.Addr(addr.Hex()), ui.FormatETH(amount), ui.FormatETH(l.backend.BalanceAt(addr)))))
		return nil
	},
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an account and its key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !yesFlag && !ui.ConfirmDanger(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Remove account %q?", name)) {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
			return nil
		}
		l, err := openLab()
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck
		if err := l.accounts.Remove(name); err != nil {
			return err
		}
		if cfg.DefaultAccount == name {
			cfg.DefaultAccount = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Account %q removed.", name)))
		return nil
	},
}

// accountsTable lists every account with its on-chain balance and nonce.
func accountsTable(l *lab) *ui.Table {
	t := ui.NewTable([]ui.Column{
		{Title: "NAME", Width: 12},
		{Title: "ADDRESS", Width: 42},
		{Title: "TYPE", Width: 10},
		{Title: "BALANCE (ETH)", Width: 24},
		{Title: "NONCE", Width: 6},
		{Title: "DEFAULT", Width: 7},
	})
	current, _ := l.account()
	for _, a := range l.accounts.List() {
		def := ""
		if current != nil && current.Name == a.Name {
			def = "✓"
		}
		addr := a.CommonAddress()
		t.AddRow(
			a.Name,
			a.Address,
			a.Type,
			chain.WeiToETH(l.backend.BalanceAt(addr)),
			strconv.FormatUint(l.backend.NonceAt(addr), 10),
			def,
		)
	}
	return t
}

func init() {
	accountsNewCmd.Flags().StringVar(&accountsKeyFlag, "key", "", "import this hex private key instead of generating one")
	accountsRemoveCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "skip the confirmation prompt")

	accountsCmd.AddCommand(
		accountsListCmd,
		accountsNewCmd,
		accountsWatchCmd,
		accountsUseCmd,
		accountsFundCmd,
		accountsRemoveCmd,
	)
}
