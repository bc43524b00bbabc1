package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <project-id>",
	Short: "Show details for one project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid project id %q", args[0])
		}

		client, _, err := newClient()
		if err != nil {
			return err
		}
		if _, err := requireSession(cmd, client); err != nil {
			return err
		}

		summary, err := client.ProjectInfo(cmd.Context(), projectID)
		if err != nil {
			return err
		}

		fmt.Println()
		displayProjectDetail(summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
