package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installed plugins",
	Long: `Print the ids in .obsidian/community-plugins.json in install order.

Examples:
  obsidian-plugins list
  obsidian-plugins list --vault ~/notes --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var installCmd = &cobra.Command{
	Use:   "install <id>...",
	Short: "Install plugins",
	Long: `Download the current release of each plugin into .obsidian/plugins/<id>/
and enable it in community-plugins.json.

Plugins are installed in order; the first failure stops the run. A failed
install leaves community-plugins.json unchanged.

Examples:
  obsidian-plugins install dataview
  obsidian-plugins install obsidian-shellcommands calendar --layout archive`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:     "uninstall <id>",
	Aliases: []string{"remove", "rm"},
	Short:   "Uninstall a plugin",
	Long: `Remove a plugin from community-plugins.json and delete its directory.

The file is deleted when the last plugin is removed.

Examples:
  obsidian-plugins uninstall dataview`,
	Args: cobra.ExactArgs(1),
	RunE: runUninstall,
}

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as a JSON array")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ids, err := a.manager().ListInstalled()
	if err != nil {
		return explain(err, "")
	}

	out := cmd.OutOrStdout()
	st := stylesFor(out)
	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ids)
	}

	if len(ids) == 0 {
		_, _ = fmt.Fprintln(out, st.Muted.Render("No plugins installed."))
		return nil
	}
	for _, id := range ids {
		_, _ = fmt.Fprintln(out, id)
	}
	return nil
}

func runInstall(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	m := a.manager()
	out := cmd.OutOrStdout()
	st := stylesFor(out)

	for _, id := range args {
		_, _ = fmt.Fprintf(out, "Installing %s...\n", id)

		inst, err := m.Install(cmd.Context(), id)
		if err != nil {
			return explain(err, id)
		}

		_, _ = fmt.Fprintf(out, "%s %s@%s to %s\n",
			st.Success.Render("Installed"), inst.Manifest.ID, inst.Manifest.Version, inst.Dir)
		if len(inst.Skipped) > 0 {
			_, _ = fmt.Fprintln(out, st.Muted.Render("  not published: "+strings.Join(inst.Skipped, ", ")))
		}
		if inst.Manifest.IsDesktopOnly {
			_, _ = fmt.Fprintln(out, st.Warning.Render("  desktop only"))
		}
	}
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	id := args[0]
	if err := a.manager().Uninstall(cmd.Context(), id); err != nil {
		return explain(err, id)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s %s\n", stylesFor(out).Success.Render("Uninstalled"), id)
	return nil
}
