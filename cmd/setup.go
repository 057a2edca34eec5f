package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edittrail/edittrail/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure edittrail (re-run anytime to edit settings)",
	// Bypass the normal PersistentPreRunE so setup works before config exists.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(false)
	},
}

// runSetup runs the interactive setup wizard and writes the global config.
// If firstRun is true, a welcome message is shown.
func runSetup(firstRun bool) error {
	if firstRun {
		fmt.Println()
		fmt.Println("  Welcome to edittrail! Let's get you set up.")
	}

	// Existing config values become the prompt defaults (edit mode).
	current := config.Defaults()
	if existing, err := config.LoadGlobal(); err == nil && existing != nil {
		current = config.Merge(existing, nil)
	}

	r := bufio.NewReader(os.Stdin)

	ask := func(prompt, defaultVal string) (string, error) {
		fmt.Printf("%s [%s]: ", prompt, defaultVal)
		line, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askInt := func(prompt string, defaultVal int) (int, error) {
		for {
			ans, err := ask(prompt, strconv.Itoa(defaultVal))
			if err != nil {
				return 0, err
			}
			n, err := strconv.Atoi(ans)
			if err != nil || n <= 0 {
				fmt.Println("  Please enter a positive number.")
				continue
			}
			return n, nil
		}
	}

	fmt.Println()
	fmt.Println("  ┌─────────────────────────────────┐")
	fmt.Println("  │      edittrail — setup          │")
	fmt.Println("  └─────────────────────────────────┘")
	fmt.Println()

	var err error

	current.BackendURL, err = ask("  Course backend URL", current.BackendURL)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}
	current.FlushIntervalSeconds, err = askInt("  Flush interval (seconds)", current.FlushIntervalSeconds)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}
	current.BurstThreshold, err = askInt("  Burst threshold (changed lines per window)", current.BurstThreshold)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}
	current.BridgeAddr, err = ask("  Editor bridge address", current.BridgeAddr)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}
	current.LogLevel, err = ask("  Log level (debug/info/warn/error)", current.LogLevel)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	path, err := config.GlobalPath()
	if err != nil {
		return err
	}
	if err := config.Save(path, current); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Println()
	fmt.Println("  ✓ Config saved.")
	fmt.Println("  Setup complete. Run 'edittrail watch' to start tracking.")
	fmt.Println()
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
