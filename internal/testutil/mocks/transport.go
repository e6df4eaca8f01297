// Package mocks provides test doubles for the ports interfaces.
package mocks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/felixgeelhaar/obsidian-plugins/internal/ports"
)

// ErrUnexpectedURL is returned for URLs with no registered response.
var ErrUnexpectedURL = errors.New("mock transport: unexpected url")

// Transport is a thread-safe test double for ports.Transport.
// Every request is recorded, including failed ones.
type Transport struct {
	mu        sync.RWMutex
	responses map[string][]byte
	errors    map[string]error
	calls     []string
}

// NewTransport creates a new Transport mock.
func NewTransport() *Transport {
	return &Transport{
		responses: make(map[string][]byte),
		errors:    make(map[string]error),
	}
}

// AddResponse registers the body returned for url.
func (m *Transport) AddResponse(url string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[url] = body
	delete(m.errors, url)
}

// AddText registers a text body returned for url.
func (m *Transport) AddText(url, body string) {
	m.AddResponse(url, []byte(body))
}

// AddError registers an error returned for url.
func (m *Transport) AddError(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[url] = err
	delete(m.responses, url)
}

// GetText returns the registered body as a string.
func (m *Transport) GetText(ctx context.Context, url string) (string, error) {
	data, err := m.GetBytes(ctx, url)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetBytes returns the registered body.
func (m *Transport) GetBytes(_ context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, url)
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.errors[url]; ok {
		return nil, err
	}
	if body, ok := m.responses[url]; ok {
		return append([]byte(nil), body...), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnexpectedURL, url)
}

// Download writes the registered body to path on the real file system.
func (m *Transport) Download(ctx context.Context, url, path string) error {
	data, err := m.GetBytes(ctx, url)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Calls returns every requested URL in order.
func (m *Transport) Calls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times url was requested.
func (m *Transport) CallCount(url string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.calls {
		if c == url {
			n++
		}
	}
	return n
}

// Reset clears recorded calls, keeping registered responses.
func (m *Transport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Clock is a settable ports.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a Clock fixed at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var (
	_ ports.Transport = (*Transport)(nil)
	_ ports.Clock     = (*Clock)(nil)
)
