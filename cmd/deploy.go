package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/ponzilab/internal/client"
	"github.com/Mohsinsiddi/ponzilab/internal/config"
	"github.com/Mohsinsiddi/ponzilab/internal/ui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var deployName string

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy a new PonziContract",
	Long: `Deploy a PonziContract owned by the acting account, priced with the
configured unit_price and owner_role_price.

The deployment is remembered under --name (default ponzi-<block>) and the
first one becomes the default contract.

Examples:
  ponzilab deploy
  ponzilab deploy --name round2 --from dev3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLab()
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck

		signer, err := l.signer()
		if err != nil {
			return err
		}
		p, err := cfg.Params()
		if err != nil {
			return err
		}

		ctx, cancel := txContext(cmd)
		defer cancel()

		sess, receipt, err := client.Deploy(ctx, l.backend, signer, p, cfg.GasLimit)
		if receipt != nil {
			if err := l.save(); err != nil {
				return fmt.Errorf("saving chain: %w", err)
			}
			printReceipt(cmd, receipt)
		}
		if err != nil {
			return err
		}

		name := deployName
		if name == "" {
			name = fmt.Sprintf("ponzi-%d", receipt.BlockNumber)
		}
		if err := cfg.AddContract(config.ContractEntry{
			Name:     name,
			Address:  sess.Address().Hex(),
			Deployer: signer.Address().Hex(),
			Block:    receipt.BlockNumber,
		}); err != nil {
			return err
		}
		if cfg.DefaultContract == "" {
			cfg.DefaultContract = name
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		log.WithFields(logrus.Fields{"name": name, "address": sess.Address().Hex()}).Debug("contract recorded")

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.KeyValueBlock("PonziContract deployed", [][2]string{
			{"name", name},
			{"address", sess.Address().Hex()},
			{"owner", signer.Address().Hex()},
			{"unit price", ui.FormatETH(p.UnitPrice)},
			{"owner role price", ui.FormatETH(p.OwnerRolePrice)},
		}))
		fmt.Fprintln(out, ui.Hint("Open registration with: ponzilab deadline set +1h"))
		return nil
	},
}

func init() {
	deployCmd.Flags().StringVar(&deployName, "name", "", "name to remember the contract by")
}
