package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearthguard-systems/hearthguard/internal/audit"
	"github.com/hearthguard-systems/hearthguard/pkg/output"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View recent security events",
	Long:  "Show the most recent entries of the security audit log, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		events, err := newConsole().ViewLog(limit)
		if err != nil {
			return fmt.Errorf("failed to read security log: %w", err)
		}

		format, _ := cmd.Flags().GetString("output")
		return output.Render(format, events, func() {
			if len(events) == 0 {
				output.Info("No security events recorded.")
				return
			}
			for _, ev := range events {
				output.Info("%s", ev.FormatLine())
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().IntP("limit", "n", audit.DefaultTailWindow, "number of events to show")
}
