package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var outdatedCmd = &cobra.Command{
	Use:   "outdated",
	Short: "Check installed plugins for newer releases",
	Long: `Compare the manifest.json of each installed plugin with the one published
on its default branch.

Examples:
  obsidian-plugins outdated
  obsidian-plugins outdated --json`,
	Args: cobra.NoArgs,
	RunE: runOutdated,
}

var outdatedJSON bool

func init() {
	outdatedCmd.Flags().BoolVar(&outdatedJSON, "json", false, "Output results as JSON")
	rootCmd.AddCommand(outdatedCmd)
}

type outdatedEntry struct {
	ID        string `json:"id"`
	Installed string `json:"installed"`
	Available string `json:"available"`
}

func runOutdated(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	updates, err := a.manager().Outdated(cmd.Context())
	if err != nil {
		return explain(err, "")
	}

	out := cmd.OutOrStdout()
	st := stylesFor(out)
	if outdatedJSON {
		entries := make([]outdatedEntry, 0, len(updates))
		for _, u := range updates {
			entries = append(entries, outdatedEntry{ID: u.ID, Installed: u.Installed, Available: u.Available})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(updates) == 0 {
		_, _ = fmt.Fprintln(out, st.Success.Render("All plugins are up to date."))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tINSTALLED\tAVAILABLE")
	for _, u := range updates {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Installed, u.Available)
	}
	_ = w.Flush()
	return nil
}
