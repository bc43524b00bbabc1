package internal

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// ProgressFunc receives asset fetch progress: done counts attempted
// fetches (successful or not), total the resolved asset set size. The
// archive builder calls it every tenth asset and once at completion,
// regardless of how many workers run underneath.
type ProgressFunc func(done, total int)

// LogProgress is the default ProgressFunc: one info line per report.
func LogProgress(done, total int) {
	LogInfo("  %d/%d assets fetched", done, total)
}

// isTerminal checks if the file is a terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	if isTerminal(os.Stdout) {
		fmt.Printf("%s %s\n", successStyle.Render("✓"), message)
	} else {
		fmt.Println(message)
	}
}

// PrintError prints an error message
func PrintError(message string) {
	if isTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("✗"), message)
	} else {
		fmt.Fprintf(os.Stderr, "%s\n", message)
	}
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	if isTerminal(os.Stdout) {
		fmt.Printf("%s %s\n", progressStyle.Render("ℹ"), message)
	} else {
		fmt.Println(message)
	}
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	if isTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", warningStyle.Render("⚠"), message)
	} else {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", message)
	}
}
