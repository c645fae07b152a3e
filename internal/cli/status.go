package cli

import (
	"github.com/spf13/cobra"

	"github.com/hearthguard-systems/hearthguard/pkg/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check security status",
	Long:  "Report whether the admin credential record loads and what the security log holds",
	RunE: func(cmd *cobra.Command, args []string) error {
		report := newConsole().Status()

		format, _ := cmd.Flags().GetString("output")
		return output.Render(format, report, func() {
			if report.CredentialValid {
				output.Success("Password file: VALID")
			} else if report.CredentialPresent {
				output.Error("Password file: INVALID (%s)", report.Detail)
			} else {
				output.Error("Password file: MISSING (server will not start)")
			}

			if report.AuditLogPresent {
				output.Success("Security log: EXISTS (%d events)", report.AuditEventCount)
				if report.LastEvent != "" {
					output.Info("Last event: %s", report.LastEvent)
				}
			} else {
				output.Info("Security log: not created yet")
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
