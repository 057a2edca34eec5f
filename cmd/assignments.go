package cmd

import (
	"github.com/spf13/cobra"

	"github.com/edittrail/edittrail/internal/backend"
	"github.com/edittrail/edittrail/internal/identity"
)

var assignmentsIdentity string

var assignmentsCmd = &cobra.Command{
	Use:   "assignments",
	Short: "List the assignments the backend knows for your identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		who := assignmentsIdentity
		if who == "" {
			workDir, err := resolveWorkDir(nil)
			if err != nil {
				return err
			}
			who = identity.New(workDir, newLogger()).Resolve()
		}

		gateway := backend.NewClient(cfg.BackendURL, nil)
		items, err := gateway.ListAssignments(cmd.Context(), who)
		if err != nil {
			return err
		}

		if len(items) == 0 {
			cmd.Printf("no assignments for %s\n", who)
			return nil
		}
		for _, a := range items {
			if a.Desc != "" {
				cmd.Printf("%-12s %-20s %s\n", a.ID, a.Name, a.Desc)
			} else {
				cmd.Printf("%-12s %s\n", a.ID, a.Name)
			}
		}
		return nil
	},
}

func init() {
	assignmentsCmd.Flags().StringVar(&assignmentsIdentity, "identity", "", "query as this identity instead of resolving it")
	rootCmd.AddCommand(assignmentsCmd)
}
