// package auth manages the Spotify OAuth credential lifecycle: a persisted
// credential record and a manager that exchanges, refreshes, and evaluates
// tokens against it.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/sptx/internal/shared"
)

// expiryMargin is subtracted from the upstream expiry so the stored record
// reports expiry slightly before the token actually dies.
const expiryMargin = 60 * time.Second

// DefaultScopes is the permission set requested on first authorization,
// fixed at record creation.
var DefaultScopes = []string{
	"user-read-currently-playing",
	"user-read-playback-state",
	"app-remote-control",
	"streaming",
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-private",
	"playlist-modify-public",
	"user-read-playback-position",
	"user-top-read",
	"user-read-recently-played",
	"user-library-modify",
	"user-library-read",
	"user-modify-playback-state",
}

// Credentials is the single persisted OAuth credential record. One record
// exists per user profile, at a fixed on-disk location.
type Credentials struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURI  string   `json:"redirect_uri"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresAt    string   `json:"expires_at"`
	Scopes       []string `json:"scopes"`
}

// IsConfigured reports whether the client identity needed for any token
// request is present.
func (c *Credentials) IsConfigured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// HasTokens reports whether both an access and refresh token are stored.
func (c *Credentials) HasTokens() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// IsExpired evaluates the stored expiry against now. A missing or
// unparsable expires_at is always treated as expired.
func (c *Credentials) IsExpired(now time.Time) bool {
	if c.ExpiresAt == "" {
		return true
	}
	expiry, err := time.Parse(time.RFC3339, c.ExpiresAt)
	if err != nil {
		return true
	}
	return !now.Before(expiry)
}

// UpdateTokens overwrites the access token and expiry. The refresh token is
// replaced only when a new one is supplied; a prior value is never discarded.
func (c *Credentials) UpdateTokens(accessToken, refreshToken string, expiresIn int, now time.Time) {
	c.AccessToken = accessToken
	if refreshToken != "" {
		c.RefreshToken = refreshToken
	}
	c.ExpiresAt = now.Add(time.Duration(expiresIn)*time.Second - expiryMargin).Format(time.RFC3339)
}

// ClearTokens nulls the tokens and expiry, leaving the client identity intact.
func (c *Credentials) ClearTokens() {
	c.AccessToken = ""
	c.RefreshToken = ""
	c.ExpiresAt = ""
}

// Store persists a [Credentials] record to a JSON file. The file is created
// on first load and thereafter only rewritten, never deleted.
type Store struct {
	path     string
	defaults Credentials
}

// NewStore creates a Store at path. The defaults seed the client identity
// when no credential file exists yet; empty fields fall back to the
// SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET, and SPOTIFY_REDIRECT_URI
// environment variables.
func NewStore(path string, defaults Credentials) *Store {
	return &Store{path: path, defaults: defaults}
}

// DefaultPath returns the fixed per-user credential file location,
// ~/.sptx/spotify-credentials.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".sptx", "spotify-credentials.json"), nil
}

// Path returns the on-disk location of the credential file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the credential record, creating and persisting a default record
// seeded from the store defaults and environment when no file exists.
func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read credential file: %w", err)
		}
		creds := s.newDefault()
		if err := s.Save(creds); err != nil {
			return nil, err
		}
		return creds, nil
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("%w: failed to parse credential file: %v", shared.ErrInvalidConfig, err)
	}

	if len(creds.Scopes) == 0 {
		creds.Scopes = append([]string{}, DefaultScopes...)
	}

	return &creds, nil
}

// Save writes the credential record with owner-only permissions.
func (s *Store) Save(creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}

	return nil
}

func (s *Store) newDefault() *Credentials {
	creds := s.defaults
	if creds.ClientID == "" {
		creds.ClientID = os.Getenv("SPOTIFY_CLIENT_ID")
	}
	if creds.ClientSecret == "" {
		creds.ClientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	}
	if creds.RedirectURI == "" {
		creds.RedirectURI = os.Getenv("SPOTIFY_REDIRECT_URI")
	}
	if creds.RedirectURI == "" {
		creds.RedirectURI = "http://127.0.0.1:8888/callback"
	}
	creds.Scopes = append([]string{}, DefaultScopes...)
	return &creds
}
