package cmd

import (
	"github.com/iksnae/scratch-cli/internal"
	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the session relay server for browser-based login",
	Long: `Run a small HTTP server that accepts an already-established session
from a browser flow and saves it like a regular login would.

The relay only ever receives the session cookie and API token; the
password stays in the browser. Endpoints:

  POST /api/scratch-auth                   {"username", "token", "sessionId"}
  GET  /api/scratch-auth/status            current login status
  POST /api/scratch-auth/logout/<username> drop the stored session`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionPath, err := internal.DefaultSessionPath()
		if err != nil {
			return err
		}
		relay := internal.NewRelay(internal.NewSessionStore(sessionPath))
		return relay.ListenAndServe(serveAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8765", "Listen address")
}
