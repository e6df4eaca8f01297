package httptransport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	assert.Equal(t, 30*time.Second, config.Timeout)
	assert.Contains(t, config.UserAgent, "obsidian-plugins")
	assert.Positive(t, config.MaxBodyBytes)
}

func TestClient_GetText(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/obsidianmd/obsidian-releases/refs/heads/master/community-plugins.json", r.URL.Path)
		assert.Equal(t, "test/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := New(Config{Timeout: 5 * time.Second, UserAgent: "test/1.0"})

	body, err := client.GetText(context.Background(), server.URL+"/obsidianmd/obsidian-releases/refs/heads/master/community-plugins.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", body)
}

func TestClient_GetBytes(t *testing.T) {
	t.Parallel()

	payload := []byte{0x1f, 0x8b, 0x08, 0x00}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	data, err := New(DefaultConfig()).GetBytes(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestClient_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"server error", http.StatusBadGateway, ErrServer},
		{"other", http.StatusTeapot, ErrStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := New(DefaultConfig()).GetBytes(context.Background(), server.URL)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(DefaultConfig()).GetText(context.Background(), url)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClient_TooLarge(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 32))
	}))
	defer server.Close()

	client := New(Config{MaxBodyBytes: 16})
	_, err := client.GetBytes(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestClient_Download(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("console.log('hi')"))
	}))
	defer server.Close()

	dir := t.TempDir()
	client := New(DefaultConfig())

	target := filepath.Join(dir, "main.js")
	require.NoError(t, client.Download(context.Background(), server.URL+"/main.js", target))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "console.log('hi')", string(data))

	missing := filepath.Join(dir, "styles.css")
	err = client.Download(context.Background(), server.URL+"/missing", missing)
	require.ErrorIs(t, err, ErrNotFound)
	assert.NoFileExists(t, missing)
}

func TestClient_WithHTTPClient(t *testing.T) {
	t.Parallel()

	hc := &http.Client{Timeout: time.Second}
	client := New(DefaultConfig(), WithHTTPClient(hc))
	assert.Same(t, hc, client.httpClient)
}
