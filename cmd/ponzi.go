package cmd

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/Mohsinsiddi/ponzilab/internal/chain"
	"github.com/Mohsinsiddi/ponzilab/internal/client"
	"github.com/Mohsinsiddi/ponzilab/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	valueFlag    string
	newOwnerFlag string
)

var joinCmd = &cobra.Command{
	Use:   "join [affiliate...]",
	Short: "Join the scheme, paying each listed affiliate one unit",
	Long: `Call joinPonzi with the given affiliate list. The list must have as many
entries as the registry and the payment must equal entries × unit price.
Entries are not checked against the registry, so any address (the caller's
own included) is accepted.

--value defaults to the exact price for the list.

Examples:
  ponzilab join 0xAb… 0xCd…
  ponzilab join dev1 dev1 --from dev1
  ponzilab join --value 0.5 dev2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeTx(cmd, func(ctx context.Context, l *lab, sess *client.Session) (*chain.TxReceipt, error) {
			list := make([]common.Address, 0, len(args))
			for _, a := range args {
				addr, err := l.parseAddress(a)
				if err != nil {
					return nil, err
				}
				list = append(list, addr)
			}
			value, err := valueOr(func() (*big.Int, error) {
				c, err := l.backend.Contract(sess.Address())
				if err != nil {
					return nil, err
				}
				return new(big.Int).Mul(big.NewInt(int64(len(list))), c.Params().UnitPrice), nil
			})
			if err != nil {
				return nil, err
			}
			return sess.JoinPonzi(ctx, list, value)
		})
	},
}

var affiliateCmd = &cobra.Command{
	Use:   "affiliate",
	Short: "Inspect or extend the affiliate registry",
}

var affiliateAddCmd = &cobra.Command{
	Use:   "add <address|name>",
	Short: "Register an address as an affiliate (anyone may call this)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeTx(cmd, func(ctx context.Context, l *lab, sess *client.Session) (*chain.TxReceipt, error) {
			addr, err := l.parseAddress(args[0])
			if err != nil {
				return nil, err
			}
			return sess.AddNewAffilliate(ctx, addr)
		})
	},
}

var affiliateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registry in registration order",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLab()
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck
		sess, err := l.session(false)
		if err != nil {
			return err
		}
		ctx, cancel := txContext(cmd)
		defer cancel()

		affiliates, err := sess.Affiliates(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(affiliates) == 0 {
			fmt.Fprintln(out, ui.Info("The registry is empty."))
			return nil
		}

		names := make(map[common.Address]string)
		for _, a := range l.accounts.List() {
			names[a.CommonAddress()] = a.Name
		}
		t := ui.NewTable([]ui.Column{
			{Title: "#", Width: 4},
			{Title: "ADDRESS", Width: 42},
			{Title: "ACCOUNT", Width: 12},
			{Title: "BALANCE (ETH)", Width: 24},
		})
		for i, a := range affiliates {
			t.AddRow(strconv.Itoa(i), a.Hex(), names[a], chain.WeiToETH(l.backend.BalanceAt(a)))
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d entries", len(affiliates))))
		return nil
	},
}

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Show or buy the owner role",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLab()
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck
		sess, err := l.session(false)
		if err != nil {
			return err
		}
		ctx, cancel := txContext(cmd)
		defer cancel()

		owner, err := sess.Owner(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), owner.Hex())
		return nil
	},
}

var ownerBuyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Buy the owner role from whoever holds it",
	Long: `Call buyOwnerRole. Anyone paying at least the owner role price gets the
role; the payment joins the contract balance the new owner can withdraw.
--new-owner defaults to the caller.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeTx(cmd, func(ctx context.Context, l *lab, sess *client.Session) (*chain.TxReceipt, error) {
			newOwner := sess.Transactor().From()
			if newOwnerFlag != "" {
				addr, err := l.parseAddress(newOwnerFlag)
				if err != nil {
					return nil, err
				}
				newOwner = addr
			}
			value, err := valueOr(func() (*big.Int, error) {
				c, err := l.backend.Contract(sess.Address())
				if err != nil {
					return nil, err
				}
				return c.Params().OwnerRolePrice, nil
			})
			if err != nil {
				return nil, err
			}
			return sess.BuyOwnerRole(ctx, newOwner, value)
		})
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <destination> [eth]",
	Short: "Owner-only: send contract funds anywhere",
	Long: `Call ownerWithdraw. Without an amount the whole contract balance is
withdrawn.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeTx(cmd, func(ctx context.Context, l *lab, sess *client.Session) (*chain.TxReceipt, error) {
			dest, err := l.parseAddress(args[0])
			if err != nil {
				return nil, err
			}
			var amount *big.Int
			if len(args) == 2 {
				if amount, err = chain.ParseETH(args[1]); err != nil {
					return nil, err
				}
			} else {
				c, err := l.backend.Contract(sess.Address())
				if err != nil {
					return nil, err
				}
				amount = c.Balance()
			}
			return sess.OwnerWithdraw(ctx, dest, amount)
		})
	},
}

var deadlineCmd = &cobra.Command{
	Use:   "deadline",
	Short: "Show or set the registration deadline",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLab()
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck
		sess, err := l.session(false)
		if err != nil {
			return err
		}
		ctx, cancel := txContext(cmd)
		defer cancel()

		deadline, err := sess.RegistrationDeadline(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), describeDeadline(deadline, l.backend.Now()))
		return nil
	},
}

var deadlineSetCmd = &cobra.Command{
	Use:   "set <unix|+duration|RFC3339>",
	Short: "Owner-only: set the last block time at which joins are accepted",
	Long: `Call setDeadline. The argument is a unix timestamp, a duration relative to
the chain clock (+1h, +90s) or an RFC3339 time.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeTx(cmd, func(ctx context.Context, l *lab, sess *client.Session) (*chain.TxReceipt, error) {
			ts, err := parseTimestamp(args[0], l.backend.Now())
			if err != nil {
				return nil, err
			}
			return sess.SetDeadline(ctx, ts)
		})
	},
}

// valueOr parses --value, or computes the default when it is unset.
func valueOr(def func() (*big.Int, error)) (*big.Int, error) {
	if valueFlag == "" {
		return def()
	}
	return chain.ParseETH(valueFlag)
}

// parseTimestamp reads a unix timestamp, a "+duration" offset from now or
// an RFC3339 time.
func parseTimestamp(s string, now uint64) (uint64, error) {
	if strings.HasPrefix(s, "+") {
		d, err := time.ParseDuration(s[1:])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		if d < 0 {
			return 0, fmt.Errorf("duration %q must not be negative", s)
		}
		return now + uint64(d/time.Second), nil
	}
	if ts, err := strconv.ParseUint(s, 10, 64); err == nil {
		return ts, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: want unix seconds, +duration or RFC3339", s)
	}
	if t.Unix() < 0 {
		return 0, fmt.Errorf("time %q is before 1970", s)
	}
	return uint64(t.Unix()), nil
}

// describeDeadline renders a deadline relative to the chain clock.
func describeDeadline(deadline, now uint64) string {
	at := time.Unix(int64(deadline), 0).UTC().Format(time.RFC3339)
	switch {
	case deadline == 0:
		return "not set (joins fail)"
	case deadline >= now:
		return fmt.Sprintf("%d (%s, open for %s)", deadline, at, time.Duration(deadline-now)*time.Second)
	default:
		return fmt.Sprintf("%d (%s, passed %s ago)", deadline, at, time.Duration(now-deadline)*time.Second)
	}
}

func init() {
	joinCmd.Flags().StringVar(&valueFlag, "value", "", "ETH to send (default: entries × unit price)")
	ownerBuyCmd.Flags().StringVar(&valueFlag, "value", "", "ETH to send (default: owner role price)")
	ownerBuyCmd.Flags().StringVar(&newOwnerFlag, "new-owner", "", "address or account to make owner (default: caller)")

	affiliateCmd.AddCommand(affiliateAddCmd, affiliateListCmd)
	ownerCmd.AddCommand(ownerBuyCmd)
	deadlineCmd.AddCommand(deadlineSetCmd)
}
