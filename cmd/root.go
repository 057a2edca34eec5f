package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/edittrail/edittrail/internal/config"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "edittrail",
	Short: "Track source edits per assignment and collect citations for edit bursts",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config handling for the setup command itself.
		if cmd.Name() == "setup" {
			return nil
		}

		// First-run: global config missing → run setup wizard automatically.
		// Only when stdin is an interactive terminal.
		globalPath, err := config.GlobalPath()
		if err == nil {
			if _, statErr := os.Stat(globalPath); statErr != nil {
				if term.IsTerminal(os.Stdin.Fd()) {
					fmt.Println()
					fmt.Println("  Welcome to edittrail! Looks like this is your first time.")
					if err := runSetup(true); err != nil {
						return err
					}
				}
				// Non-interactive (tests, pipes): continue with defaults.
			}
		}

		// Load and merge config files.
		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)

		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}
