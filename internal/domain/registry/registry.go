package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/felixgeelhaar/obsidian-plugins/internal/ports"
)

// DefaultListingURL is the upstream community plugin listing.
const DefaultListingURL = "https://raw.githubusercontent.com/obsidianmd/obsidian-releases/refs/heads/master/community-plugins.json"

// CacheFileName is the name of the cached listing inside the cache directory.
const CacheFileName = "community-plugins.json"

// DefaultTTL is how long a cached listing stays valid.
const DefaultTTL = time.Hour

// Config configures the registry cache.
type Config struct {
	// CacheDir holds the cached listing.
	CacheDir string
	// TTL is the maximum age of the cached listing, measured from its creation time.
	TTL time.Duration
	// ListingURL is fetched when the cache is missing or stale.
	ListingURL string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheDir:   ports.ExpandPath("~/.md2ms/obsidian"),
		TTL:        DefaultTTL,
		ListingURL: DefaultListingURL,
	}
}

// Registry owns the cached community listing. It is safe for use by
// multiple goroutines of one process; it does not coordinate with other
// processes sharing the cache directory.
type Registry struct {
	config    Config
	transport ports.Transport
	fs        ports.FileSystem
	clock     ports.Clock
	logger    ports.Logger

	mu       sync.Mutex
	entries  []Entry
	loadedAt time.Time
	loaded   bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the clock used to age the cache.
func WithClock(clock ports.Clock) Option {
	return func(r *Registry) { r.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger ports.Logger) Option {
	return func(r *Registry) { r.logger = ports.LoggerOrDiscard(logger) }
}

// New creates a Registry that keeps its cache on fs. No I/O happens until
// the first lookup.
func New(config Config, transport ports.Transport, fs ports.FileSystem, opts ...Option) *Registry {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.ListingURL == "" {
		config.ListingURL = DefaultListingURL
	}
	r := &Registry{
		config:    config,
		transport: transport,
		fs:        fs,
		clock:     ports.SystemClock{},
		logger:    ports.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CachePath returns the path of the cached listing.
func (r *Registry) CachePath() string {
	return filepath.Join(r.config.CacheDir, CacheFileName)
}

// Resolve returns the listing, reading the cache when it is younger than the
// TTL and fetching it otherwise. A stale cache file is deleted before the
// fetch. A cache file that cannot be decoded is an ErrParse error.
func (r *Registry) Resolve(ctx context.Context) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolve(ctx)
}

// Refresh discards any cached listing and fetches it again.
func (r *Registry) Refresh(ctx context.Context) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureDir(); err != nil {
		return nil, err
	}
	if err := r.fs.Remove(r.CachePath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: failed to remove cache: %w", ErrOther, err)
	}
	return r.fetch(ctx)
}

// Entries returns the in-memory snapshot while it is younger than the TTL,
// resolving it first when needed.
func (r *Registry) Entries(ctx context.Context) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded && r.clock.Now().Sub(r.loadedAt) <= r.config.TTL {
		return r.entries, nil
	}
	return r.resolve(ctx)
}

// Find looks up a plugin by id.
func (r *Registry) Find(ctx context.Context, id string) (Entry, bool, error) {
	entries, err := r.Entries(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

// Search returns the entries matching query, in listing order.
func (r *Registry) Search(ctx context.Context, query string) ([]Entry, error) {
	entries, err := r.Entries(ctx)
	if err != nil {
		return nil, err
	}
	var results []Entry
	for _, e := range entries {
		if e.Matches(query) {
			results = append(results, e)
		}
	}
	return results, nil
}

func (r *Registry) resolve(ctx context.Context) ([]Entry, error) {
	if err := r.ensureDir(); err != nil {
		return nil, err
	}

	path := r.CachePath()
	if r.fs.Exists(path) && !r.fs.IsDir(path) {
		info, err := r.fs.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to stat cache: %w", ErrOther, err)
		}

		age := r.clock.Now().Sub(info.CreatedAt)
		if age > r.config.TTL {
			r.logger.Debug(ctx, "registry cache stale", ports.F("path", path), ports.F("age", age.Round(time.Second)))
			if err := r.fs.Remove(path); err != nil {
				return nil, fmt.Errorf("%w: failed to remove stale cache: %w", ErrOther, err)
			}
		} else {
			data, err := r.fs.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("%w: failed to read cache: %w", ErrOther, err)
			}
			entries, err := ParseEntries(data)
			if err != nil {
				return nil, fmt.Errorf("cache %s: %w", path, err)
			}
			r.logger.Debug(ctx, "registry cache hit", ports.F("path", path), ports.F("entries", len(entries)))
			r.remember(entries)
			return entries, nil
		}
	} else {
		r.logger.Debug(ctx, "registry cache miss", ports.F("path", path))
	}

	return r.fetch(ctx)
}

// fetch downloads the listing and persists it once it decodes, so a bad
// upstream response never poisons the cache.
func (r *Registry) fetch(ctx context.Context) ([]Entry, error) {
	data, err := r.transport.GetBytes(ctx, r.config.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrOther, ErrHTTP, err)
	}

	entries, err := ParseEntries(data)
	if err != nil {
		return nil, fmt.Errorf("%w: listing from %s: %w", ErrOther, r.config.ListingURL, err)
	}

	if err := r.fs.WriteFile(r.CachePath(), data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: failed to write cache: %w", ErrOther, err)
	}

	if len(entries) == 0 {
		r.logger.Warn(ctx, "registry listing is empty", ports.F("url", r.config.ListingURL))
	} else {
		r.logger.Info(ctx, "registry refreshed", ports.F("entries", len(entries)))
	}
	r.remember(entries)
	return entries, nil
}

func (r *Registry) ensureDir() error {
	if err := r.fs.MkdirAll(r.config.CacheDir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDirectoryCreation, r.config.CacheDir, err)
	}
	return nil
}

func (r *Registry) remember(entries []Entry) {
	r.entries = entries
	r.loadedAt = r.clock.Now()
	r.loaded = true
}
