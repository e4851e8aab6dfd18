package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/ponzilab/internal/contract"
	"github.com/Mohsinsiddi/ponzilab/internal/ui"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/sha3"
)

var abiCmd = &cobra.Command{
	Use:   "abi",
	Short: "Print the PonziContract ABI as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), string(contract.PonziABIJSON()))
		return nil
	},
}

var abiSelectorsCmd = &cobra.Command{
	Use:   "selectors",
	Short: "List function selectors, event topics and error selectors",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := ui.NewTable([]ui.Column{
			{Title: "KIND", Width: 8},
			{Title: "SIGNATURE", Width: 34},
			{Title: "SELECTOR", Width: 66},
		})
		for _, s := range contract.Selectors(contract.PonziABI) {
			t.AddRow(s.Kind, s.Signature, s.Hex)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

var abiSelectorCmd = &cobra.Command{
	Use:   "selector <signature>",
	Short: "Compute the 4-byte selector of any function signature",
	Long: `Compute a 4-byte function selector from a signature. Parameter names
are dropped.

Examples:
  ponzilab abi selector "joinPonzi(address[])"                 # → 0x…
  ponzilab abi selector "ownerWithdraw(address to, uint256 amount)"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sig := normalizeSignature(args[0])

		h := sha3.NewLegacyKeccak256()
		h.Write([]byte(sig))
		hash := h.Sum(nil)

		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Function Selector", [][2]string{
			{"Signature", sig},
			{"Selector", ui.Val("0x" + hex.EncodeToString(hash[:4]))},
			{"Full Hash", "0x" + hex.EncodeToString(hash)},
		}))
		return nil
	},
}

var abiDecodeCmd = &cobra.Command{
	Use:   "decode <calldata|revert-data>",
	Short: "Decode PonziContract calldata or revert data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := hexutil.Decode(args[0])
		if err != nil {
			return fmt.Errorf("invalid hex: %w", err)
		}
		if len(data) < 4 {
			return fmt.Errorf("need at least a 4-byte selector")
		}
		b := contract.MustBinding()
		parsed := b.ABI()

		out := cmd.OutOrStdout()
		if method, err := parsed.MethodById(data[:4]); err == nil {
			vals, err := method.Inputs.Unpack(data[4:])
			if err != nil {
				return fmt.Errorf("%s: %w", method.RawName, err)
			}
			pairs := [][2]string{{"method", ui.Method(method.Sig)}}
			for i, in := range method.Inputs {
				pairs = append(pairs, [2]string{in.Name, fmt.Sprint(vals[i])})
			}
			fmt.Fprintln(out, ui.KeyValueBlock("Calldata", pairs))
			return nil
		}
		fmt.Fprintln(out, ui.KeyValueBlock("Revert", [][2]string{{"error", b.DecodeRevert(data).Error()}}))
		return nil
	},
}

// normalizeSignature removes parameter names, keeping only types.
// "ownerWithdraw(address to, uint256 amount)" → "ownerWithdraw(address,uint256)"
func normalizeSignature(sig string) string {
	parenIdx := strings.Index(sig, "(")
	if parenIdx < 0 {
		return sig
	}

	name := strings.TrimSpace(sig[:parenIdx])
	paramStr := strings.TrimSuffix(sig[parenIdx+1:], ")")

	if strings.TrimSpace(paramStr) == "" {
		return name + "()"
	}

	var types []string
	for _, p := range strings.Split(paramStr, ",") {
		// Take only the first word (the type), skip the name.
		if parts := strings.Fields(p); len(parts) > 0 {
			types = append(types, parts[0])
		}
	}
	return name + "(" + strings.Join(types, ",") + ")"
}

func init() {
	abiCmd.AddCommand(abiSelectorsCmd, abiSelectorCmd, abiDecodeCmd)
}
