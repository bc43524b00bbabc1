package cmd

import (
	"fmt"

	"github.com/iksnae/scratch-cli/internal"
	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current login status",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		stored, err := client.Store().Restore()
		if err != nil {
			return err
		}
		if stored == nil {
			internal.PrintInfo("Not logged in.")
			return nil
		}

		client.SetSession(stored)
		if !client.Validate(cmd.Context()) {
			if err := client.Logout(); err != nil {
				internal.LogWarn("Failed to purge stale session: %v", err)
			}
			internal.PrintWarning(fmt.Sprintf("Session for %s has expired. Run 'scratch-cli login' again.", stored.Username))
			return nil
		}

		internal.PrintSuccess(fmt.Sprintf("Logged in as %s", stored.Username))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
