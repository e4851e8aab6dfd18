package cmd

import (
	"fmt"
	"time"

	"github.com/Mohsinsiddi/ponzilab/internal/ui"
	"github.com/spf13/cobra"
)

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Show or move the chain clock",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLab()
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck
		now := l.backend.Now()
		fmt.Fprintf(cmd.OutOrStdout(), "%d (%s)\n", now, time.Unix(int64(now), 0).UTC().Format(time.RFC3339))
		return nil
	},
}

var timeIncreaseCmd = &cobra.Command{
	Use:   "increase <duration>",
	Short: "Move the chain clock forward (e.g. 1h, 30m, 1000s)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", args[0], err)
		}
		if d <= 0 {
			return fmt.Errorf("duration must be positive")
		}

		l, err := openLab()
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck

		before := l.backend.Now()
		l.backend.IncreaseTime(d)
		if err := l.save(); err != nil {
			return fmt.Errorf("saving chain: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Chain time %d → %d.", before, l.backend.Now())))
		return nil
	},
}

func init() {
	timeCmd.AddCommand(timeIncreaseCmd)
}
