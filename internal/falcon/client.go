// Package falcon is a client for the CrowdStrike Falcon incident API.
// It covers the four calls the ingest pipeline needs: query incident ids,
// fetch incident entities, query behavior ids, fetch behavior entities.
package falcon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds Falcon API connection settings.
type Config struct {
	ClientID     string
	ClientSecret string
	Region       string // e.g. "us-1", "us-2", "eu-1"

	// BaseURL overrides the region-derived API base. Used in tests.
	BaseURL string
}

// Validate validates the Falcon configuration.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("client ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client secret is required")
	}
	if c.Region == "" && c.BaseURL == "" {
		return fmt.Errorf("cloud region is required")
	}
	return nil
}

// apiBase returns the API base URL for the configured region.
func (c *Config) apiBase() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return fmt.Sprintf("https://api.%s.crowdstrike.com", c.Region)
}

// Client talks to the Falcon incident API. The token source is injected so
// there is no ambient credential state; tests swap in a static source.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a Falcon client with its own OAuth token source.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid falcon config: %w", err)
	}
	base := cfg.apiBase()
	return NewClientWithTokenSource(base, NewOAuthTokenSource(cfg.ClientID, cfg.ClientSecret, base+"/oauth2/token")), nil
}

// NewClientWithTokenSource creates a client against baseURL using the given
// token source.
func NewClientWithTokenSource(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// apiResponse is the vendor's standard response envelope.
type apiResponse struct {
	Resources []json.RawMessage `json:"resources"`
	Errors    []APIError        `json:"errors"`
}

// QueryIncidentIDs returns the ids of incidents matching an FQL filter,
// e.g. `state:"closed"`, in the given sort order, e.g. "start|desc".
func (c *Client) QueryIncidentIDs(ctx context.Context, filter, sort string) ([]string, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	if sort != "" {
		q.Set("sort", sort)
	}

	resp, status, err := c.get(ctx, "/incidents/queries/incidents/v1", q)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &QueryError{Op: "incidents", StatusCode: status, Errors: resp.Errors}
	}
	return decodeStrings(resp.Resources)
}

// QueryBehaviorIDs returns the ids of behaviors matching an FQL filter.
// Use BehaviorFilter to scope the query to a set of incidents.
func (c *Client) QueryBehaviorIDs(ctx context.Context, filter string) ([]string, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}

	resp, status, err := c.get(ctx, "/incidents/queries/behaviors/v1", q)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &QueryError{Op: "behaviors", StatusCode: status, Errors: resp.Errors}
	}
	return decodeStrings(resp.Resources)
}

// GetIncidents fetches full incident records for the given ids. An empty id
// list returns an empty slice without touching the network.
func (c *Client) GetIncidents(ctx context.Context, ids []string) ([]*Incident, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	resp, status, err := c.post(ctx, "/incidents/entities/incidents/GET/v1", ids)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &ResolveError{Op: "incidents", StatusCode: status, Errors: resp.Errors}
	}

	incidents := make([]*Incident, 0, len(resp.Resources))
	for _, raw := range resp.Resources {
		var inc Incident
		if err := json.Unmarshal(raw, &inc); err != nil {
			return nil, fmt.Errorf("decode incident record: %w", err)
		}
		inc.Raw = raw
		incidents = append(incidents, &inc)
	}
	return incidents, nil
}

// GetBehaviors fetches full behavior records for the given ids. An empty id
// list returns an empty slice without touching the network.
func (c *Client) GetBehaviors(ctx context.Context, ids []string) ([]*Behavior, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	resp, status, err := c.post(ctx, "/incidents/entities/behaviors/GET/v1", ids)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &ResolveError{Op: "behaviors", StatusCode: status, Errors: resp.Errors}
	}

	behaviors := make([]*Behavior, 0, len(resp.Resources))
	for _, raw := range resp.Resources {
		var b Behavior
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decode behavior record: %w", err)
		}
		behaviors = append(behaviors, &b)
	}
	return behaviors, nil
}

// StateFilter builds the FQL filter for an incident state, e.g. `state:"closed"`.
func StateFilter(state string) string {
	return fmt.Sprintf("state:%q", state)
}

// BehaviorFilter builds an FQL filter matching behaviors attached to any of
// the given incidents (comma is OR in FQL).
func BehaviorFilter(incidentIDs []string) string {
	parts := make([]string, 0, len(incidentIDs))
	for _, id := range incidentIDs {
		parts = append(parts, fmt.Sprintf("incident_ids:%q", id))
	}
	return strings.Join(parts, ",")
}

func (c *Client) get(ctx context.Context, path string, q url.Values) (*apiResponse, int, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	return c.do(req)
}

// post sends the vendor's bulk-entity body `{"ids": [...]}` to a GET/v1 route.
func (c *Client) post(ctx context.Context, path string, ids []string) (*apiResponse, int, error) {
	body, err := json.Marshal(map[string][]string{"ids": ids})
	if err != nil {
		return nil, 0, fmt.Errorf("marshal ids: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*apiResponse, int, error) {
	token, err := c.tokens.Token(req.Context())
	if err != nil {
		return nil, 0, fmt.Errorf("acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	return &decoded, resp.StatusCode, nil
}

func decodeStrings(resources []json.RawMessage) ([]string, error) {
	out := make([]string, 0, len(resources))
	for _, raw := range resources {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode resource id: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}
