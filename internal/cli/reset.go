package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearthguard-systems/hearthguard/internal/audit"
	"github.com/hearthguard-systems/hearthguard/internal/console"
	"github.com/hearthguard-systems/hearthguard/internal/credential"
	"github.com/hearthguard-systems/hearthguard/pkg/output"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the admin password",
	Long: `Replace the administrator credential record with a new password.

Prompts for the new password twice without echoing it. With --generate a
random password is created instead and shown exactly once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newConsole()

		generate, _ := cmd.Flags().GetBool("generate")
		var err error
		if generate {
			var password string
			password, err = c.ResetGenerated()
			if err == nil || errors.Is(err, audit.ErrLogWrite) {
				output.Banner(60)
				output.Warn("ADMIN PASSWORD RESET")
				output.Info("New admin password: %s", password)
				output.Info("Save this password securely; it will not be shown again.")
				output.Banner(60)
			}
		} else {
			err = c.ResetInteractive()
		}

		switch {
		case err == nil:
			output.Success("Password reset successfully")
			return nil
		case errors.Is(err, audit.ErrLogWrite):
			output.Success("Password reset successfully")
			output.Warn("The reset could not be recorded in the security log: %v", err)
			return nil
		case errors.Is(err, credential.ErrWeakPassword):
			return fmt.Errorf("password too short: minimum %d characters", credential.MinPasswordLength)
		case errors.Is(err, console.ErrPasswordMismatch):
			return errors.New("passwords do not match")
		default:
			return fmt.Errorf("failed to reset password: %w", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().Bool("generate", false, "generate a random password instead of prompting")
}
