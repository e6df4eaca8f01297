// Package plugin models a community plugin's release manifest and the
// artifacts that make up an installable release.
package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// Manifest errors.
var (
	ErrInvalidManifest = errors.New("invalid manifest")
)

// Manifest is the manifest.json a plugin publishes in its repository.
// Decoding accepts both the canonical snake_case keys and the camelCase
// keys used by published manifests; encoding always emits canonical keys.
type Manifest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Version       string `json:"version"`
	MinAppVersion string `json:"min_app_version"`
	Description   string `json:"description"`
	Author        string `json:"author"`
	AuthorURL     string `json:"author_url"`
	FundingURL    string `json:"funding_url"`
	IsDesktopOnly bool   `json:"is_desktop_only"`
}

// rawManifest mirrors every accepted key. Canonical keys win over aliases.
type rawManifest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Author      string `json:"author"`

	MinAppVersion      *string         `json:"min_app_version"`
	MinAppVersionAlias *string         `json:"minAppVersion"`
	AuthorURL          *string         `json:"author_url"`
	AuthorURLAlias     *string         `json:"authorUrl"`
	FundingURL         json.RawMessage `json:"funding_url"`
	FundingURLAlias    json.RawMessage `json:"fundingUrl"`
	IsDesktopOnly      *bool           `json:"is_desktop_only"`
	IsDesktopOnlyAlias *bool           `json:"isDesktopOnly"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	funding, err := decodeFunding(pickRaw(raw.FundingURL, raw.FundingURLAlias))
	if err != nil {
		return err
	}

	*m = Manifest{
		ID:            raw.ID,
		Name:          raw.Name,
		Version:       raw.Version,
		MinAppVersion: pick(raw.MinAppVersion, raw.MinAppVersionAlias),
		Description:   raw.Description,
		Author:        raw.Author,
		AuthorURL:     pick(raw.AuthorURL, raw.AuthorURLAlias),
		FundingURL:    funding,
		IsDesktopOnly: pick(raw.IsDesktopOnly, raw.IsDesktopOnlyAlias),
	}
	return nil
}

func pick[T any](canonical, alias *T) T {
	var zero T
	switch {
	case canonical != nil:
		return *canonical
	case alias != nil:
		return *alias
	default:
		return zero
	}
}

// pickRaw treats an explicit null like an absent key.
func pickRaw(canonical, alias json.RawMessage) json.RawMessage {
	if len(canonical) > 0 && string(canonical) != "null" {
		return canonical
	}
	return alias
}

// decodeFunding accepts either a URL string or the {"label": "url"} object
// form; for an object the URL of the alphabetically first label is used.
func decodeFunding(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var url string
	if err := json.Unmarshal(raw, &url); err == nil {
		return url, nil
	}

	var links map[string]string
	if err := json.Unmarshal(raw, &links); err != nil {
		return "", fmt.Errorf("fundingUrl must be a string or an object of strings: %w", err)
	}
	labels := make([]string, 0, len(links))
	for label := range links {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	if len(labels) == 0 {
		return "", nil
	}
	return links[labels[0]], nil
}

// ParseManifest decodes and validates a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the fields install depends on. The version ends up in
// URLs and so must not contain path separators.
func (m *Manifest) Validate() error {
	var problems []string
	if m.ID == "" {
		problems = append(problems, "id is required")
	}
	if m.Version == "" {
		problems = append(problems, "version is required")
	} else if strings.ContainsAny(m.Version, "/\\ ") || strings.Contains(m.Version, "..") {
		problems = append(problems, fmt.Sprintf("version %q is not a valid release tag", m.Version))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidManifest, strings.Join(problems, "; "))
	}
	return nil
}

// NewerThan reports whether m's version is newer than other.
// Versions that are not semver compare as newer when they differ.
func (m *Manifest) NewerThan(other string) bool {
	a, b := normalizeVersion(m.Version), normalizeVersion(other)
	if semver.IsValid(a) && semver.IsValid(b) {
		return semver.Compare(a, b) > 0
	}
	return m.Version != other
}

// normalizeVersion adds the "v" prefix semver expects.
func normalizeVersion(v string) string {
	if v == "" {
		return "v0.0.0"
	}
	if v[0] != 'v' {
		return "v" + v
	}
	return v
}
