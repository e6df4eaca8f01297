package ports

import (
	"context"
	"time"
)

// Transport performs blocking HTTP GETs against the registry and plugin repositories.
type Transport interface {
	// GetText fetches url and returns the body as a string.
	GetText(ctx context.Context, url string) (string, error)

	// GetBytes fetches url and returns the raw body.
	GetBytes(ctx context.Context, url string) ([]byte, error)

	// Download fetches url and writes the body to path.
	// Nothing is written when the fetch fails.
	Download(ctx context.Context, url, path string) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
