// Package registry resolves community plugin ids against the published
// obsidian-releases listing, backed by an on-disk cache with a TTL.
package registry

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	githubBaseURL = "https://github.com"
	rawBaseURL    = "https://raw.githubusercontent.com"
)

// Entry is one plugin in the community listing.
type Entry struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Repo is the GitHub "owner/name" slug.
	Repo string `json:"repo"`
}

// RepoURL returns the GitHub repository URL.
func (e Entry) RepoURL() string {
	return githubBaseURL + "/" + e.Repo
}

// ManifestURL returns the raw URL of manifest.json on the default branch.
func (e Entry) ManifestURL() string {
	return rawBaseURL + "/" + e.Repo + "/refs/heads/main/manifest.json"
}

// Matches reports whether query appears in the id, name, author or description.
// Comparison is case-insensitive; an empty query matches everything.
func (e Entry) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, field := range []string{e.ID, e.Name, e.Author, e.Description} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// ParseEntries decodes a JSON array of entries.
func ParseEntries(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// MarshalEntries encodes entries as a JSON array.
func MarshalEntries(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(entries)
}
