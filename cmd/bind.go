package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/edittrail/edittrail/internal/assignment"
)

var bindCmd = &cobra.Command{
	Use:   "bind <assignment> <file>",
	Short: "Bind a workspace file to an assignment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, file := args[0], args[1]

		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}

		bindings, err := assignment.OpenBindings()
		if err != nil {
			return err
		}
		if err := bindings.Set(name, abs); err != nil {
			return err
		}

		cmd.Printf("Bound %s → %s\n", name, abs)
		return nil
	},
}

var bindingsCmd = &cobra.Command{
	Use:   "bindings",
	Short: "List assignment bindings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bindings, err := assignment.OpenBindings()
		if err != nil {
			return err
		}

		names := bindings.Names()
		if len(names) == 0 {
			cmd.Println("no bindings")
			return nil
		}
		for _, name := range names {
			cmd.Printf("%-20s %s\n", name, bindings.Get(name))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bindCmd)
	rootCmd.AddCommand(bindingsCmd)
}
