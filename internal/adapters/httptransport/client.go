// Package httptransport implements ports.Transport over net/http.
package httptransport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felixgeelhaar/obsidian-plugins/internal/adapters/filesystem"
	"github.com/felixgeelhaar/obsidian-plugins/internal/ports"
)

// Transport errors.
var (
	ErrNetwork      = errors.New("network error")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrServer       = errors.New("server error")
	ErrStatus       = errors.New("unexpected status")
	ErrTooLarge     = errors.New("response too large")
)

// Config configures the HTTP client.
type Config struct {
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
	// UserAgent is sent with every request.
	UserAgent string
	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		UserAgent:    "obsidian-plugins/1.0",
		MaxBodyBytes: 64 << 20,
	}
}

// Client performs GET requests against raw.githubusercontent.com and github.com.
type Client struct {
	config     Config
	httpClient *http.Client
	fs         ports.FileSystem
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithFileSystem sets the file system Download writes through.
func WithFileSystem(fs ports.FileSystem) Option {
	return func(c *Client) { c.fs = fs }
}

// New creates a new Client.
func New(config Config, opts ...Option) *Client {
	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		fs:         filesystem.NewRealFileSystem(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetText fetches url and returns the body as a string.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	data, err := c.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetBytes fetches url and returns the raw body.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	return c.fetch(ctx, url)
}

// Download fetches url fully before writing it to path.
func (c *Client) Download(ctx context.Context, url, path string) error {
	data, err := c.fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := c.fs.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: request creation failed for %s: %w", ErrNetwork, url, err)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrNetwork, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		// Continue
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, url)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, url)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: status %d from %s", ErrServer, resp.StatusCode, url)
	default:
		return nil, fmt.Errorf("%w: status %d from %s", ErrStatus, resp.StatusCode, url)
	}

	body := io.Reader(resp.Body)
	if c.config.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, c.config.MaxBodyBytes+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response from %s: %w", ErrNetwork, url, err)
	}
	if c.config.MaxBodyBytes > 0 && int64(len(data)) > c.config.MaxBodyBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, url, c.config.MaxBodyBytes)
	}

	return data, nil
}

// Ensure Client implements ports.Transport.
var _ ports.Transport = (*Client)(nil)
