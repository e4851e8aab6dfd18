package cmd

import (
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/ponzilab/internal/ui"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the chain and the target contract",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLab()
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck

		out := cmd.OutOrStdout()
		chainPairs := [][2]string{
			{"chain id", strconv.FormatInt(cfg.ChainID, 10)},
			{"block", strconv.FormatUint(l.backend.BlockNumber(), 10)},
			{"chain time", strconv.FormatUint(l.backend.Now(), 10)},
			{"gas price", ui.FormatETH(l.backend.SuggestGasPrice())},
			{"contracts", strconv.Itoa(len(l.backend.Contracts()))},
		}
		if a, err := l.account(); err == nil {
			chainPairs = append(chainPairs, [2]string{"acting as", a.Name + "  " + a.Address})
		}
		fmt.Fprintln(out, ui.KeyValueBlock("Chain", chainPairs))

		if len(l.backend.Contracts()) == 0 {
			fmt.Fprintln(out, ui.Hint("Deploy the contract with: ponzilab deploy"))
			return nil
		}
		sess, err := l.session(false)
		if err != nil {
			return err
		}
		c, err := l.backend.Contract(sess.Address())
		if err != nil {
			return err
		}
		p := c.Params()
		fmt.Fprintln(out, ui.KeyValueBlock("PonziContract", [][2]string{
			{"address", sess.Address().Hex()},
			{"owner", c.Owner().Hex()},
			{"deadline", describeDeadline(c.Deadline(), l.backend.Now())},
			{"affiliates", strconv.FormatUint(c.AffiliatesCount(), 10)},
			{"ledger balance", ui.FormatETH(c.Balance())},
			{"total balance", ui.FormatETH(l.backend.BalanceAt(sess.Address()))},
			{"unit price", ui.FormatETH(p.UnitPrice)},
			{"owner role price", ui.FormatETH(p.OwnerRolePrice)},
		}))
		return nil
	},
}
