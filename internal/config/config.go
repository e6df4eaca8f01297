// Package config loads the obsidian-plugins user configuration from YAML or TOML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/obsidian-plugins/internal/adapters/httptransport"
	"github.com/felixgeelhaar/obsidian-plugins/internal/domain/plugin"
	"github.com/felixgeelhaar/obsidian-plugins/internal/domain/registry"
	"github.com/felixgeelhaar/obsidian-plugins/internal/ports"
)

// Format is a config file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Config is the resolved configuration.
type Config struct {
	RegistryURL string
	CacheDir    string
	CacheTTL    time.Duration
	Layout      plugin.Layout
	HTTPTimeout time.Duration
	UserAgent   string
	LogLevel    ports.Level
}

// fileConfig mirrors the on-disk keys. Durations are strings such as "1h".
type fileConfig struct {
	RegistryURL string `yaml:"registry_url" toml:"registry_url"`
	CacheDir    string `yaml:"cache_dir" toml:"cache_dir"`
	CacheTTL    string `yaml:"cache_ttl" toml:"cache_ttl"`
	Layout      string `yaml:"layout" toml:"layout"`
	HTTPTimeout string `yaml:"http_timeout" toml:"http_timeout"`
	UserAgent   string `yaml:"user_agent" toml:"user_agent"`
	LogLevel    string `yaml:"log_level" toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	transport := httptransport.DefaultConfig()
	return Config{
		RegistryURL: registry.DefaultListingURL,
		CacheDir:    registry.DefaultConfig().CacheDir,
		CacheTTL:    registry.DefaultTTL,
		Layout:      plugin.LayoutNamedAssets,
		HTTPTimeout: transport.Timeout,
		UserAgent:   transport.UserAgent,
		LogLevel:    ports.LevelInfo,
	}
}

// DefaultPath returns ~/.config/obsidian-plugins/config.yaml.
func DefaultPath() string {
	return ports.ExpandPath(filepath.Join("~", ".config", "obsidian-plugins", "config.yaml"))
}

// FormatFor picks the encoding from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", "":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", NewUserError(ErrCodeConfigParse, "unsupported config file extension").
			WithContext(path).
			WithSuggestion("use a .yaml, .yml or .toml file")
	}
}

// Load reads the config file at path over the defaults. An empty path
// means DefaultPath, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	path = ports.ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil
		}
		return Config{}, NewUserError(ErrCodeConfigNotFound, "cannot read config file").
			WithContext(path).
			WithUnderlying(err).
			WithSuggestion("check the --config path")
	}

	format, err := FormatFor(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(data, format)
	if err != nil {
		if userErr, ok := err.(*UserError); ok && userErr.Context == "" {
			return Config{}, userErr.WithContext(path)
		}
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte, format Format) (Config, error) {
	var raw fileConfig
	if err := decode(data, format, &raw); err != nil {
		return Config{}, NewUserError(ErrCodeConfigParse, "invalid config file").
			WithUnderlying(err).
			WithSuggestion("valid keys: registry_url, cache_dir, cache_ttl, layout, http_timeout, user_agent, log_level")
	}
	return raw.apply(Default())
}

func decode(data []byte, format Format, out *fileConfig) error {
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(out)
	case FormatYAML, "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func (raw fileConfig) apply(cfg Config) (Config, error) {
	var errs []error
	invalid := func(key, msg, suggestion string) {
		errs = append(errs, NewUserError(ErrCodeValidationFailed, key+": "+msg).WithSuggestion(suggestion))
	}

	if raw.RegistryURL != "" {
		cfg.RegistryURL = raw.RegistryURL
	}
	if raw.CacheDir != "" {
		cfg.CacheDir = ports.ExpandPath(raw.CacheDir)
	}
	if raw.UserAgent != "" {
		cfg.UserAgent = raw.UserAgent
	}
	if raw.CacheTTL != "" {
		d, err := parseDuration(raw.CacheTTL)
		if err != nil {
			invalid("cache_ttl", err.Error(), `use a duration such as "1h" or "30m"`)
		} else {
			cfg.CacheTTL = d
		}
	}
	if raw.HTTPTimeout != "" {
		d, err := parseDuration(raw.HTTPTimeout)
		if err != nil {
			invalid("http_timeout", err.Error(), `use a duration such as "30s"`)
		} else {
			cfg.HTTPTimeout = d
		}
	}
	if raw.Layout != "" {
		layout, err := plugin.ParseLayout(raw.Layout)
		if err != nil {
			invalid("layout", err.Error(), "use archive or assets")
		} else {
			cfg.Layout = layout
		}
	}
	if raw.LogLevel != "" {
		level, err := ports.ParseLevel(raw.LogLevel)
		if err != nil {
			invalid("log_level", err.Error(), "use debug, info, warn or error")
		} else {
			cfg.LogLevel = level
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parseDuration accepts Go durations and bare integers as seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.CacheTTL < 0 {
		errs = append(errs, NewUserError(ErrCodeValidationFailed, "cache_ttl: must not be negative"))
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, NewUserError(ErrCodeValidationFailed, "http_timeout: must not be negative"))
	}
	if _, err := plugin.ParseLayout(string(c.Layout)); err != nil {
		errs = append(errs, NewUserError(ErrCodeValidationFailed, "layout: "+err.Error()).
			WithSuggestion("use archive or assets"))
	}
	if c.CacheDir == "" {
		errs = append(errs, NewUserError(ErrCodeValidationFailed, "cache_dir: must not be empty"))
	}
	return errors.Join(errs...)
}

// RegistryConfig returns the registry settings.
func (c Config) RegistryConfig() registry.Config {
	return registry.Config{CacheDir: c.CacheDir, TTL: c.CacheTTL, ListingURL: c.RegistryURL}
}

// TransportConfig returns the HTTP transport settings.
func (c Config) TransportConfig() httptransport.Config {
	transport := httptransport.DefaultConfig()
	transport.Timeout = c.HTTPTimeout
	transport.UserAgent = c.UserAgent
	return transport
}
