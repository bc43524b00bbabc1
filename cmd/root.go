package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/iksnae/scratch-cli/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scratch-cli",
	Short: "Access and download your Scratch projects",
	Long: `A CLI tool to access your projects on the Scratch platform.

Log in once with your Scratch account, then list, inspect, and download
your projects, published or not, as complete .sb3 archives or as bare
project.json documents.

Quick Start:
  scratch-cli login                  # Log in and save a session
  scratch-cli list                   # List your projects
  scratch-cli download 123456789     # Download a project as .sb3
  scratch-cli download --all         # Download everything
  scratch-cli logout                 # Log out

Your session is stored in ~/.scratch-cli/session.json, readable only by
you. Your password is never stored.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Custom config file location")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// newClient builds the configured client and its session store.
func newClient() (*internal.Client, *internal.Config, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	sessionPath, err := internal.DefaultSessionPath()
	if err != nil {
		return nil, nil, err
	}

	client, err := internal.NewClient(cfg, internal.NewSessionStore(sessionPath))
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// requireSession restores and validates the persisted session, mapping
// the unauthenticated case to an actionable message.
func requireSession(cmd *cobra.Command, client *internal.Client) (*internal.Session, error) {
	session, err := client.EnsureAuthenticated(cmd.Context())
	if errors.Is(err, internal.ErrNotLoggedIn) {
		return nil, fmt.Errorf("not logged in. Run 'scratch-cli login' first")
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}
