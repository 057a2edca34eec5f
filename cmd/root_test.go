package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

// isolate points every persistence path at temp dirs so commands never touch
// real state.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
}

func TestUnknownCommandErrors(t *testing.T) {
	isolate(t)

	_, err := executeCommand(rootCmd, "no-such-command")
	if err == nil {
		t.Fatal("expected an error for an unknown command, got nil")
	}
}

func TestDefaultsApplyWithoutConfigFiles(t *testing.T) {
	isolate(t)

	// Any command run loads config in PersistentPreRunE; bindings is the
	// cheapest one with no side effects.
	if _, err := executeCommand(rootCmd, "bindings"); err != nil {
		t.Fatalf("bindings: %v", err)
	}

	got := GetConfig()
	if got.FlushIntervalSeconds != 20 || got.BurstThreshold != 20 {
		t.Errorf("defaults not applied: %+v", got)
	}
}
