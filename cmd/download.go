package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/iksnae/scratch-cli/internal"
	"github.com/spf13/cobra"
)

var (
	downloadOutput string
	downloadAll    bool
	downloadSB3    bool
	downloadJSON   bool
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download [project-id]",
	Short: "Download a project as a .sb3 archive",
	Long: `Download a project as a complete .sb3 archive (definition plus assets).

With --json only the raw project.json document is saved. With --all every
project of the logged-in account is downloaded; individual failures are
reported and skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !downloadAll && len(args) == 0 {
			return fmt.Errorf("project id required (or use --all)")
		}

		client, cfg, err := newClient()
		if err != nil {
			return err
		}
		if _, err := requireSession(cmd, client); err != nil {
			return err
		}

		outDir := downloadOutput
		if outDir == "" {
			outDir = cfg.OutputDir
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", outDir, err)
		}

		builder := internal.NewArchiveBuilder(client)

		if downloadAll {
			fetched, err := builder.FetchAll(cmd.Context(), outDir, downloadJSON)
			if err != nil {
				return err
			}
			internal.PrintSuccess(fmt.Sprintf("Downloaded %d project(s) to %s", fetched, outDir))
			return nil
		}

		projectID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid project id %q", args[0])
		}

		var path string
		if downloadJSON {
			path, err = builder.FetchDefinition(cmd.Context(), projectID, outDir)
		} else {
			path, err = builder.FetchArchive(cmd.Context(), projectID, outDir)
		}
		if err != nil {
			return err
		}

		internal.PrintSuccess("Project downloaded: " + path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "Output directory (default from config)")
	downloadCmd.Flags().BoolVarP(&downloadAll, "all", "a", false, "Download all projects")
	downloadCmd.Flags().BoolVar(&downloadSB3, "sb3", false, "Download as .sb3 with assets (the default)")
	downloadCmd.Flags().BoolVar(&downloadJSON, "json", false, "Download only the project.json document")
	downloadCmd.MarkFlagsMutuallyExclusive("sb3", "json")
}
