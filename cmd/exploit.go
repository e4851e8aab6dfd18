package cmd

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/Mohsinsiddi/ponzilab/internal/config"
	"github.com/Mohsinsiddi/ponzilab/internal/scenario"
	"github.com/Mohsinsiddi/ponzilab/internal/ui"
	"github.com/Mohsinsiddi/ponzilab/internal/wallet"
	"github.com/spf13/cobra"
)

var (
	exploitSigners  int
	exploitReceipts bool
)

var exploitCmd = &cobra.Command{
	Use:   "exploit [scenario|all]",
	Short: "Replay the known exploits on a throwaway chain",
	Long: `Deploy a fresh PonziContract on an in-memory chain, open registration,
seed two affiliates and run the exploit scenarios against it. The persisted
lab chain is not touched.

Scenarios:
  self-dealing-join   join naming yourself for every entry; pay only gas
  owner-buyout        join, buy the owner role, withdraw the price back
  registry-flood      100 concurrent addNewAffilliate calls for one address`,
	Args: cobra.MaximumNArgs(1),
	ValidArgs: func() []string {
		names := []string{"all"}
		for _, e := range scenario.All() {
			names = append(names, e.Name)
		}
		return names
	}(),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "all"
		if len(args) == 1 {
			target = args[0]
		}
		var run []scenario.Entry
		if target == "all" {
			run = scenario.All()
		} else {
			fn, ok := scenario.Lookup(target)
			if !ok {
				return fmt.Errorf("unknown scenario %q (want one of: %s)", target, strings.Join(cmd.ValidArgs, ", "))
			}
			run = []scenario.Entry{{Name: target, Run: fn}}
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.ScenarioTimeout)
		defer cancel()

		env, err := exploitEnv(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		exploited := 0
		for _, e := range run {
			sp := ui.NewSpinner(cmd.ErrOrStderr(), "running "+e.Name)
			sp.Start()
			r, err := e.Run(ctx, env)
			sp.Stop()
			if err != nil {
				return fmt.Errorf("%s: %w", e.Name, err)
			}
			printReport(cmd, r)
			if r.Succeeded {
				exploited++
			}
		}
		if exploitReceipts {
			fmt.Fprintln(out, ui.ReceiptsTable(env.Backend.Receipts()).Render())
		}
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d of %d scenarios exploited the contract", exploited, len(run))))
		return nil
	},
}

// exploitEnv builds a scratch chain funded for the dev accounts and sets
// up a contract to attack.
func exploitEnv(ctx context.Context) (*scenario.Env, error) {
	if exploitSigners < 2 {
		return nil, scenario.ErrNotEnoughSigners
	}
	b, err := newBackend()
	if err != nil {
		return nil, err
	}
	balance, err := cfg.DevBalanceWei()
	if err != nil {
		return nil, err
	}
	p, err := cfg.Params()
	if err != nil {
		return nil, err
	}

	signers := make([]*wallet.Signer, exploitSigners)
	for i := range signers {
		key, err := wallet.DevKey(i)
		if err != nil {
			return nil, err
		}
		signers[i] = wallet.NewKeySigner(wallet.DevName(i), key)
		b.Fund(signers[i].Address(), new(big.Int).Set(balance))
	}
	return scenario.Setup(ctx, b, signers, p,
		scenario.WithGasLimit(cfg.GasLimit),
		scenario.WithLogger(log),
	)
}

func printReport(cmd *cobra.Command, r *scenario.Report) {
	pairs := make([][2]string, 0, len(r.Facts)+1)
	pairs = append(pairs, [2]string{"verdict", ui.Verdict(r.Succeeded)})
	for _, f := range r.Facts {
		pairs = append(pairs, [2]string{f.Label, f.Value})
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock(r.Name, pairs))
}

func init() {
	exploitCmd.Flags().IntVar(&exploitSigners, "signers", 5, "number of dev accounts on the scratch chain")
	exploitCmd.Flags().BoolVar(&exploitReceipts, "receipts", false, "list every transaction mined on the scratch chain")
}
