package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/ponzilab/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var receiptsLimit int

var receiptsCmd = &cobra.Command{
	Use:     "receipts [tx-hash]",
	Aliases: []string{"txs"},
	Short:   "List mined transactions, or show one in detail",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLab()
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			r, err := l.backend.TransactionReceipt(common.HexToHash(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.ReceiptDetail(r))
			return nil
		}

		rs, err := l.store.Receipts(receiptsLimit)
		if err != nil {
			return err
		}
		if len(rs) == 0 {
			fmt.Fprintln(out, ui.Info("No transactions mined yet."))
			return nil
		}
		fmt.Fprintln(out, ui.ReceiptsTable(rs).Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("showing %d of %d", len(rs), len(l.backend.Receipts()))))
		return nil
	},
}

func init() {
	receiptsCmd.Flags().IntVarP(&receiptsLimit, "limit", "n", 20, "how many recent transactions to show (0 = all)")
}
