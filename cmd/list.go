package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/scratch-cli/internal"
	"github.com/spf13/cobra"
)

var listLimit int

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135"))
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your projects",
	Long: `List the projects of the logged-in account, unpublished ones included.

Combine with --verbose for a detail block per project.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		session, err := requireSession(cmd, client)
		if err != nil {
			return err
		}

		projects, err := client.ListProjects(cmd.Context(), listLimit)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}

		displayProjects(session.Username, projects, verbose)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 40, "Maximum number of projects")
}

func displayProjects(username string, projects []internal.ProjectSummary, detailed bool) {
	if len(projects) == 0 {
		fmt.Println(headerStyle.Render("No projects found"))
		return
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Projects of %s (%d found)", username, len(projects))))
	fmt.Println()

	// Use tabwriter for aligned columns
	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', 0)

	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Views")+"\t"+titleStyle.Render("Public")+"\t"+titleStyle.Render("Modified")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 90))

	for _, p := range projects {
		title := truncate(p.Title, 50)

		public := "no"
		if p.Public {
			public = "yes"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(strconv.FormatInt(p.ID, 10)),
			title,
			countStyle.Render(strconv.FormatInt(p.Stats.Views, 10)),
			public,
			dateStyle.Render(p.ModifiedAt),
		)
	}
	_ = w.Flush()

	if detailed {
		for _, p := range projects {
			fmt.Println()
			displayProjectDetail(p)
		}
	}
}

// truncate shortens s to at most max runes, ellipsis included. Slicing
// runes rather than bytes keeps multibyte titles intact.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// displayProjectDetail prints the full detail block for one project,
// shared by 'list --verbose' and 'info'.
func displayProjectDetail(p internal.ProjectSummary) {
	fmt.Println(titleStyle.Render(p.Title) + " " + idStyle.Render(fmt.Sprintf("(ID: %d)", p.ID)))

	if p.Description != "" {
		fmt.Printf("  %s %s\n", labelStyle.Render("Description:"), truncate(p.Description, 100))
	}

	fmt.Printf("  %s %d views, %d loves, %d favorites, %d remixes\n",
		labelStyle.Render("Stats:"), p.Stats.Views, p.Stats.Loves, p.Stats.Favorites, p.Stats.Remixes)
	fmt.Printf("  %s %s\n", labelStyle.Render("Created:"), dateStyle.Render(p.CreatedAt))
	fmt.Printf("  %s %s\n", labelStyle.Render("Modified:"), dateStyle.Render(p.ModifiedAt))

	public := "no"
	if p.Public {
		public = "yes"
	}
	fmt.Printf("  %s %s\n", labelStyle.Render("Public:"), public)
}
