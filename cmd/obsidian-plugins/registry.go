package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/obsidian-plugins/internal/domain/plugin"
	"github.com/felixgeelhaar/obsidian-plugins/internal/domain/vault"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the community plugin listing",
	Long: `Search plugin ids, names, authors and descriptions.

Without a query every listed plugin is shown.

Examples:
  obsidian-plugins search calendar
  obsidian-plugins search "shell commands" --limit 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

var infoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Show plugin details",
	Long: `Show the listing entry of a plugin and its current published manifest.

Examples:
  obsidian-plugins info dataview`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Download the community plugin listing again",
	Long: `Discard the cached listing and fetch it from upstream.

Examples:
  obsidian-plugins refresh`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

var (
	searchLimit int
	searchJSON  bool
)

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum results to show (0 for all)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output as JSON")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(refreshCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	results, err := a.registry.Search(cmd.Context(), query)
	if err != nil {
		return explain(err, "")
	}

	out := cmd.OutOrStdout()
	total := len(results)
	if searchLimit > 0 && len(results) > searchLimit {
		results = results[:searchLimit]
	}

	if searchJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		_, _ = fmt.Fprintln(out, "No plugins found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tAUTHOR\tDESCRIPTION")
	for _, e := range results {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Author, truncate(e.Description, 50))
	}
	_ = w.Flush()

	if total > len(results) {
		_, _ = fmt.Fprintf(out, "\nShowing %d of %d results. Use --limit to see more.\n", len(results), total)
	}
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	id := args[0]
	entry, ok, err := a.registry.Find(cmd.Context(), id)
	if err != nil {
		return explain(err, id)
	}
	if !ok {
		return explain(fmt.Errorf("%w: %s", vault.ErrPluginUnknown, id), id)
	}

	out := cmd.OutOrStdout()
	st := stylesFor(out)
	_, _ = fmt.Fprintln(out, st.Title.Render(entry.Name))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "ID:\t%s\n", entry.ID)
	_, _ = fmt.Fprintf(w, "Author:\t%s\n", entry.Author)
	_, _ = fmt.Fprintf(w, "Repository:\t%s\n", entry.RepoURL())
	_, _ = fmt.Fprintf(w, "Description:\t%s\n", entry.Description)

	raw, err := a.transport.GetText(cmd.Context(), entry.ManifestURL())
	if err == nil {
		var m *plugin.Manifest
		if m, err = plugin.ParseManifest([]byte(raw)); err == nil {
			_, _ = fmt.Fprintf(w, "Version:\t%s\n", m.Version)
			if m.MinAppVersion != "" {
				_, _ = fmt.Fprintf(w, "Min app version:\t%s\n", m.MinAppVersion)
			}
			_, _ = fmt.Fprintf(w, "Desktop only:\t%t\n", m.IsDesktopOnly)
			if m.FundingURL != "" {
				_, _ = fmt.Fprintf(w, "Funding:\t%s\n", m.FundingURL)
			}
		}
	}
	_ = w.Flush()

	if err != nil {
		_, _ = fmt.Fprintln(out, st.Warning.Render("Manifest unavailable: "+err.Error()))
	}
	return nil
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	entries, err := a.registry.Refresh(cmd.Context())
	if err != nil {
		return explain(err, "")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s %d plugins into %s\n",
		stylesFor(out).Success.Render("Cached"), len(entries), a.registry.CachePath())
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
