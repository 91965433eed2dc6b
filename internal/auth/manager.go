package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sptx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// TokenError is returned when the token endpoint rejects an exchange or
// refresh request. The raw response body is preserved for diagnostics.
type TokenError struct {
	Op     string // "exchange" or "refresh"
	Status int
	Body   string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token %s failed: status %d: %s", e.Op, e.Status, e.Body)
}

// TokenResponse is the token endpoint's JSON payload for both grant types.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// Manager owns the credential record in memory, decides when a refresh is
// needed, performs the exchange/refresh network calls, and writes results
// back through the [Store].
//
// All token operations hold an internal mutex, so concurrent callers share a
// single in-flight refresh instead of issuing duplicate grants.
type Manager struct {
	store  *Store
	creds  *Credentials
	client *http.Client
	logger *log.Logger
	now    func() time.Time

	mu sync.Mutex

	authURL  string
	tokenURL string
}

// NewManager creates a Manager backed by the given store, loading (or
// creating) the credential record immediately.
func NewManager(store *Store, client *http.Client, logger *log.Logger) (*Manager, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	creds, err := store.Load()
	if err != nil {
		return nil, err
	}

	return &Manager{
		store:    store,
		creds:    creds,
		client:   client,
		logger:   logger,
		now:      time.Now,
		authURL:  spotifyAuthURL,
		tokenURL: spotifyTokenURL,
	}, nil
}

// AuthURL returns the authorization URL for the user to visit, carrying the
// given state token.
func (m *Manager) AuthURL(state string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	config := &oauth2.Config{
		ClientID:    m.creds.ClientID,
		RedirectURL: m.creds.RedirectURI,
		Scopes:      m.creds.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  m.authURL,
			TokenURL: m.tokenURL,
		},
	}

	return config.AuthCodeURL(state)
}

// RedirectURI returns the normalized redirect URI from the credential record.
func (m *Manager) RedirectURI() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds.RedirectURI
}

// StorePath returns where the credential record is persisted.
func (m *Manager) StorePath() string {
	return m.store.Path()
}

// IsConfigured reports whether client credentials are present.
func (m *Manager) IsConfigured() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds.IsConfigured()
}

// Credentials returns a copy of the current credential record.
func (m *Manager) Credentials() Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.creds
}

// GetValidToken returns the current access token, transparently refreshing
// an expired one. It returns "" without any network access when no tokens
// are stored, and "" when the refresh fails; refresh failures are logged,
// not propagated.
func (m *Manager) GetValidToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.creds.HasTokens() {
		return "", nil
	}

	if m.creds.IsExpired(m.now()) {
		token, err := m.refreshLocked(ctx)
		if err != nil {
			m.logger.Error("token refresh failed", "err", err)
			return "", nil
		}
		return token, nil
	}

	return m.creds.AccessToken, nil
}

// IsAuthenticated reports whether a valid access token is available,
// refreshing if necessary.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	token, err := m.GetValidToken(ctx)
	return err == nil && token != ""
}

// ExchangeCode performs the authorization-code grant. The input may be a raw
// code or a full redirect URL carrying a code query parameter; a URL without
// one fails with [shared.ErrInvalidAuthInput] before any network call.
func (m *Manager) ExchangeCode(ctx context.Context, codeOrURL string) (*TokenResponse, error) {
	code, err := extractCode(codeOrURL)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {m.creds.RedirectURI},
	}

	info, err := m.tokenRequest(ctx, "exchange", form)
	if err != nil {
		return nil, err
	}

	if err := m.persistTokens(info); err != nil {
		return nil, err
	}

	m.logger.Info("exchanged authorization code for tokens")
	return info, nil
}

// RefreshAccessToken requests a new access token using the stored refresh
// token. On any failure the prior stored tokens are left untouched.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(ctx)
}

// ClearTokens nulls the stored tokens, retaining the client identity.
func (m *Manager) ClearTokens() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creds.ClearTokens()
	if err := m.store.Save(m.creds); err != nil {
		return err
	}

	m.logger.Info("cleared stored tokens")
	return nil
}

// refreshLocked performs the refresh-token grant. Callers must hold m.mu.
func (m *Manager) refreshLocked(ctx context.Context) (string, error) {
	if m.creds.RefreshToken == "" {
		return "", shared.ErrNoRefreshToken
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {m.creds.RefreshToken},
	}

	info, err := m.tokenRequest(ctx, "refresh", form)
	if err != nil {
		return "", err
	}

	if err := m.persistTokens(info); err != nil {
		return "", err
	}

	m.logger.Info("refreshed access token")
	return info.AccessToken, nil
}

// tokenRequest posts a form to the token endpoint with HTTP Basic
// authentication built from the client identity. No retries: callers decide
// whether to repeat the whole operation.
func (m *Manager) tokenRequest(ctx context.Context, op string, form url.Values) (*TokenResponse, error) {
	if !m.creds.IsConfigured() {
		return nil, shared.ErrMissingCredentials
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.SetBasicAuth(m.creds.ClientID, m.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TokenError{Op: op, Status: resp.StatusCode, Body: string(body)}
	}

	var info TokenResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &info, nil
}

// persistTokens applies a token response to the in-memory record and writes
// it through the store. Callers must hold m.mu.
func (m *Manager) persistTokens(info *TokenResponse) error {
	expiresIn := info.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}

	m.creds.UpdateTokens(info.AccessToken, info.RefreshToken, expiresIn, m.now())
	return m.store.Save(m.creds)
}

// extractCode pulls the authorization code out of a raw code string or a
// full redirect URL.
func extractCode(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", shared.ErrInvalidAuthInput
	}

	if !strings.HasPrefix(input, "http") {
		return input, nil
	}

	parsed, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidAuthInput, err)
	}

	code := parsed.Query().Get("code")
	if code == "" {
		return "", shared.ErrInvalidAuthInput
	}

	return code, nil
}
