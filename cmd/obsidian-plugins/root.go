package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/obsidian-plugins/internal/adapters/filesystem"
	"github.com/felixgeelhaar/obsidian-plugins/internal/adapters/httptransport"
	"github.com/felixgeelhaar/obsidian-plugins/internal/adapters/logging"
	"github.com/felixgeelhaar/obsidian-plugins/internal/config"
	"github.com/felixgeelhaar/obsidian-plugins/internal/domain/plugin"
	"github.com/felixgeelhaar/obsidian-plugins/internal/domain/registry"
	"github.com/felixgeelhaar/obsidian-plugins/internal/domain/vault"
	"github.com/felixgeelhaar/obsidian-plugins/internal/ports"
)

var (
	// Global flags
	vaultPath  string
	cfgFile    string
	verbose    bool
	logFormat  string
	layoutFlag string
)

var rootCmd = &cobra.Command{
	Use:   "obsidian-plugins",
	Short: "Install community plugins into an Obsidian vault",
	Long: `obsidian-plugins resolves plugin ids against the Obsidian community listing,
downloads their releases into <vault>/.obsidian/plugins/<id>/ and keeps
.obsidian/community-plugins.json in step with what is on disk.

The listing is cached for an hour in ~/.md2ms/obsidian/.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&vaultPath, "vault", ".", "path to the vault")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/obsidian-plugins/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&layoutFlag, "layout", "", "artifact layout (archive, assets)")

	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// newTransport builds the HTTP transport. Tests replace it.
var newTransport = func(cfg config.Config) ports.Transport {
	return httptransport.New(cfg.TransportConfig())
}

// app is the wiring shared by the subcommands.
type app struct {
	config    config.Config
	logger    ports.Logger
	fs        ports.FileSystem
	transport ports.Transport
	registry  *registry.Registry
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if layoutFlag != "" {
		layout, err := plugin.ParseLayout(layoutFlag)
		if err != nil {
			return nil, config.NewUserError(config.ErrCodeValidationFailed, err.Error()).
				WithContext("--layout").
				WithSuggestion("use --layout archive or --layout assets")
		}
		cfg.Layout = layout
	}
	if verbose {
		cfg.LogLevel = ports.LevelDebug
	}

	format, err := logging.ParseFormat(logFormat)
	if err != nil {
		return nil, config.NewUserError(config.ErrCodeValidationFailed, err.Error()).WithContext("--log-format")
	}
	logger := logging.NewConsoleLogger(
		logging.WithOutput(cmd.ErrOrStderr()),
		logging.WithLevel(cfg.LogLevel),
		logging.WithFormat(format),
	)

	fs := filesystem.NewRealFileSystem()
	transport := newTransport(cfg)
	return &app{
		config:    cfg,
		logger:    logger,
		fs:        fs,
		transport: transport,
		registry:  registry.New(cfg.RegistryConfig(), transport, fs, registry.WithLogger(logger)),
	}, nil
}

// manager opens the vault named by --vault.
func (a *app) manager() *vault.Manager {
	return vault.NewManager(vault.New(vaultPath), a.registry, a.transport, a.fs,
		vault.WithLogger(a.logger),
		vault.WithLayout(a.config.Layout),
	)
}

// explain turns domain errors into UserErrors with a suggestion.
func explain(err error, pluginID string) error {
	var userErr *config.UserError
	switch {
	case err == nil, errors.As(err, &userErr):
		return err
	case errors.Is(err, vault.ErrNotVault):
		return config.NewUserError(config.ErrCodeNotVault, "not an Obsidian vault").
			WithContext(vaultPath).
			WithUnderlying(err).
			WithSuggestion("pass --vault with a directory that contains .obsidian")
	case errors.Is(err, vault.ErrPluginUnknown):
		return config.NewUserError(config.ErrCodePluginUnknown, "plugin not found: "+pluginID).
			WithUnderlying(err).
			WithSuggestion(fmt.Sprintf("run `obsidian-plugins search %s` to find the plugin id", pluginID))
	case errors.Is(err, vault.ErrNotInstalled):
		return config.NewUserError(config.ErrCodeNotInstalled, "plugin is not installed: "+pluginID).
			WithUnderlying(err).
			WithSuggestion("run `obsidian-plugins list` to see installed plugins")
	case errors.Is(err, registry.ErrParse) && !errors.Is(err, registry.ErrOther):
		return config.NewUserError(config.ErrCodeRegistry, "cached plugin listing is corrupt").
			WithUnderlying(err).
			WithSuggestion("run `obsidian-plugins refresh` to download it again")
	case errors.Is(err, registry.ErrOther), errors.Is(err, registry.ErrDirectoryCreation):
		return config.NewUserError(config.ErrCodeRegistry, "cannot load the community plugin listing").
			WithUnderlying(err).
			WithSuggestion("check your network connection and cache_dir")
	default:
		return err
	}
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "%s %s\n", stylesFor(w).Error.Render("Error:"), formatError(err))
}

func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	_ = rootCmd.RegisterFlagCompletionFunc("vault", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveFilterDirs
	})

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text\tHuman-readable lines", "json\tOne JSON object per line"}, cobra.ShellCompDirectiveNoFileComp
	})

	_ = rootCmd.RegisterFlagCompletionFunc("layout", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"archive\tTagged source tarball",
			"assets\tmain.js, manifest.json and styles.css release assets",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}
