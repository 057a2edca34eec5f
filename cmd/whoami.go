package cmd

import (
	"github.com/spf13/cobra"

	"github.com/edittrail/edittrail/internal/identity"
	"github.com/edittrail/edittrail/internal/repolink"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity and repository link records would carry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		workDir, err := resolveWorkDir(nil)
		if err != nil {
			return err
		}
		logger := newLogger()

		who := identity.New(workDir, logger).Resolve()
		link := repolink.New(logger).ResolveDir(workDir)

		cmd.Printf("Identity:   %s\n", who)
		cmd.Printf("Repository: %s\n", link)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
