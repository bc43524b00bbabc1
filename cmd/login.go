package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/iksnae/scratch-cli/internal"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginUsername string
	loginPassword string
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to Scratch and save a session",
	Long: `Log in with your Scratch account and persist the resulting session.

Missing credentials are prompted for interactively; the password prompt
never echoes. Passing the password with -p is supported but discouraged,
since it lands in your shell history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		username := loginUsername
		if username == "" {
			username, err = promptLine("Username: ")
			if err != nil {
				return err
			}
		}
		if username == "" {
			return fmt.Errorf("username is required")
		}

		password := loginPassword
		if password == "" {
			password, err = promptPassword("Password: ")
			if err != nil {
				return err
			}
		}
		if password == "" {
			return fmt.Errorf("password is required")
		}

		session, err := client.Login(cmd.Context(), username, password)
		if err != nil {
			return err
		}

		internal.PrintSuccess(fmt.Sprintf("Logged in as %s. Session saved.", session.Username))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Scratch username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Scratch password (prefer the interactive prompt)")
}

// promptLine reads one line from stdin.
func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when stdin is a terminal,
// falling back to a plain line read for piped input.
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(prompt)
	}

	fmt.Print(prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}
