package falcon

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
)

// TokenSource supplies a bearer token for Falcon API calls. Implementations
// are expected to cache and refresh internally; callers just ask.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns the same token forever. Useful for tests.
type StaticTokenSource string

// Token returns the static token.
func (s StaticTokenSource) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// OAuthTokenSource obtains tokens via the client-credentials flow and
// refreshes them shortly before expiry.
type OAuthTokenSource struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// expirySlack is how long before the reported expiry a token is refreshed.
const expirySlack = 60 * time.Second

// NewOAuthTokenSource creates a token source for the given API credentials.
// tokenURL is the full oauth2/token endpoint.
func NewOAuthTokenSource(clientID, clientSecret, tokenURL string) *OAuthTokenSource {
	return &OAuthTokenSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Token returns a cached token, fetching a fresh one if the cached token is
// missing or within expirySlack of expiring.
func (s *OAuthTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expiry.Add(-expirySlack)) {
		return s.token, nil
	}

	form := url.Values{}
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access_token")
	}

	s.token = payload.AccessToken
	s.expiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return s.token, nil
}
