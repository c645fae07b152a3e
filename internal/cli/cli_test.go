package cli

import (
	"testing"

	"github.com/hearthguard-systems/hearthguard/internal/config"
)

// Test command initialization and registration
func TestCommandsRegistered(t *testing.T) {
	cfg = config.Default()

	if rootCmd == nil {
		t.Fatal("rootCmd should not be nil")
	}

	commands := rootCmd.Commands()
	expectedCommands := map[string]bool{
		"status": false,
		"reset":  false,
		"log":    false,
	}

	for _, cmd := range commands {
		if _, ok := expectedCommands[cmd.Use]; ok {
			expectedCommands[cmd.Use] = true
		}
	}

	for cmdName, found := range expectedCommands {
		if !found {
			t.Errorf("expected command '%s' to be registered with root command", cmdName)
		}
	}
}

func TestResetCommandHasGenerateFlag(t *testing.T) {
	if resetCmd.Flags().Lookup("generate") == nil {
		t.Error("reset command should have a --generate flag")
	}
}

func TestLogCommandHasLimitFlag(t *testing.T) {
	flag := logCmd.Flags().Lookup("limit")
	if flag == nil {
		t.Fatal("log command should have a --limit flag")
	}
	if flag.DefValue != "20" {
		t.Errorf("expected default limit 20, got %s", flag.DefValue)
	}
}

func TestRootCommandRunsWithoutSubcommand(t *testing.T) {
	if rootCmd.RunE == nil {
		t.Error("root command should run the interactive menu when no subcommand is given")
	}
}
