package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hearthguard-systems/hearthguard/internal/audit"
	"github.com/hearthguard-systems/hearthguard/internal/config"
	"github.com/hearthguard-systems/hearthguard/internal/console"
	"github.com/hearthguard-systems/hearthguard/internal/credential"
	"github.com/hearthguard-systems/hearthguard/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hguard",
	Short: "HearthGuard security console",
	Long: `hguard is the operator security console for the HearthGuard alarm system.

Check the credential store, reset the administrator password, and review
the security audit log. Run without a subcommand for the interactive menu.`,
	Version: "0.1.0",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newConsole().Run()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("output", "text", "output format: text, json, yaml")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

// newConsole wires the store and audit log from the loaded config. The CLI
// logs quietly; audit events still reach the persisted security log.
func newConsole() *console.Console {
	logger := logging.New(slog.LevelWarn, "text")
	auditLog := audit.New(cfg.Security.AuditLogFile, audit.NewSigner(cfg.Security.SigningKey), logger)
	store := credential.NewStore(cfg.Security.CredentialFile, auditLog)
	return console.New(store, auditLog)
}
