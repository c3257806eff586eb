package iris

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds IRIS connection settings.
type Config struct {
	BaseURL string // e.g. "https://iris.example.org"
	APIKey  string

	// SkipTLSVerify disables certificate validation for self-signed IRIS
	// deployments.
	SkipTLSVerify bool
}

// Validate validates the IRIS configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base URL must start with http:// or https://")
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	return nil
}

// DispatchError means IRIS rejected a single alert. The pipeline logs it
// and continues with the remaining incidents.
type DispatchError struct {
	StatusCode int
	Body       string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("iris rejected alert: status %d: %s", e.StatusCode, e.Body)
}

// Client sends alerts to an IRIS instance.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *RateLimiter
}

// NewClient creates an IRIS client with default rate limiting.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid iris config: %w", err)
	}

	transport := http.DefaultTransport
	if config.SkipTLSVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter: NewRateLimiter(DefaultRateLimitConfig()),
	}, nil
}

// AddAlert posts one alert to IRIS. It waits for the rate limiter rather
// than dropping: the pipeline dispatches sequentially and would rather run
// long than lose an alert.
func (c *Client) AddAlert(ctx context.Context, alert *Alert) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/alerts/add"), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &DispatchError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// Verify checks connectivity and credentials against the IRIS ping endpoint.
func (c *Client) Verify(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/ping"), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping iris: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("iris ping returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimSuffix(c.config.BaseURL, "/") + path
}
