package falcon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestStateFilter(t *testing.T) {
	if got := StateFilter("closed"); got != `state:"closed"` {
		t.Errorf("StateFilter() = %q, want %q", got, `state:"closed"`)
	}
}

func TestBehaviorFilter(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want string
	}{
		{
			name: "single id",
			ids:  []string{"inc:a:1"},
			want: `incident_ids:"inc:a:1"`,
		},
		{
			name: "multiple ids become FQL OR",
			ids:  []string{"inc:a:1", "inc:b:2"},
			want: `incident_ids:"inc:a:1",incident_ids:"inc:b:2"`,
		},
		{
			name: "empty",
			ids:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BehaviorFilter(tt.ids); got != tt.want {
				t.Errorf("BehaviorFilter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueryIncidentIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/incidents/queries/incidents/v1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("filter"); got != `state:"closed"` {
			t.Errorf("filter = %q, want %q", got, `state:"closed"`)
		}
		if got := r.URL.Query().Get("sort"); got != "start|desc" {
			t.Errorf("sort = %q, want %q", got, "start|desc")
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"resources": []string{"inc:a:1", "inc:b:2"},
		})
	}))
	defer server.Close()

	client := NewClientWithTokenSource(server.URL, StaticTokenSource("test-token"))
	ids, err := client.QueryIncidentIDs(context.Background(), `state:"closed"`, "start|desc")
	if err != nil {
		t.Fatalf("QueryIncidentIDs failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "inc:a:1" || ids[1] != "inc:b:2" {
		t.Errorf("ids = %v", ids)
	}
}

func TestQueryIncidentIDsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"code": 403, "message": "access denied"}},
		})
	}))
	defer server.Close()

	client := NewClientWithTokenSource(server.URL, StaticTokenSource("t"))
	_, err := client.QueryIncidentIDs(context.Background(), `state:"closed"`, "")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("expected *QueryError, got %T: %v", err, err)
	}
	if qe.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", qe.StatusCode)
	}
	if len(qe.Errors) != 1 || !strings.Contains(qe.Errors[0].Message, "access denied") {
		t.Errorf("Errors = %v", qe.Errors)
	}
}

func TestGetIncidents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/incidents/entities/incidents/GET/v1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(body.IDs) != 1 || body.IDs[0] != "inc:a:1" {
			t.Errorf("ids = %v", body.IDs)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"resources": []map[string]any{
				{
					"incident_id": "inc:a:1",
					"state":       "closed",
					"fine_score":  56,
					"tactics":     []string{"Execution"},
					"users":       []string{"alice"},
					"hosts": []map[string]any{
						{"device_id": "dev1", "hostname": "web-01", "external_ip": "203.0.113.7"},
					},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClientWithTokenSource(server.URL, StaticTokenSource("t"))
	incidents, err := client.GetIncidents(context.Background(), []string{"inc:a:1"})
	if err != nil {
		t.Fatalf("GetIncidents failed: %v", err)
	}
	if len(incidents) != 1 {
		t.Fatalf("got %d incidents, want 1", len(incidents))
	}

	inc := incidents[0]
	if inc.IncidentID != "inc:a:1" || inc.State != "closed" || inc.FineScore != 56 {
		t.Errorf("incident = %+v", inc)
	}
	if len(inc.Hosts) != 1 || inc.Hosts[0].Hostname != "web-01" {
		t.Errorf("hosts = %+v", inc.Hosts)
	}
	if len(inc.Raw) == 0 || !json.Valid(inc.Raw) {
		t.Error("Raw should hold the original record JSON")
	}
}

func TestEmptyIDListSkipsNetwork(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"resources": []any{}})
	}))
	defer server.Close()

	client := NewClientWithTokenSource(server.URL, StaticTokenSource("t"))

	incidents, err := client.GetIncidents(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetIncidents(nil) failed: %v", err)
	}
	if len(incidents) != 0 {
		t.Errorf("got %d incidents, want 0", len(incidents))
	}

	behaviors, err := client.GetBehaviors(context.Background(), []string{})
	if err != nil {
		t.Fatalf("GetBehaviors(empty) failed: %v", err)
	}
	if len(behaviors) != 0 {
		t.Errorf("got %d behaviors, want 0", len(behaviors))
	}

	if calls.Load() != 0 {
		t.Errorf("expected no network calls, got %d", calls.Load())
	}
}

func TestGetBehaviorsResolveError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"code": 500, "message": "backend unavailable"}},
		})
	}))
	defer server.Close()

	client := NewClientWithTokenSource(server.URL, StaticTokenSource("t"))
	_, err := client.GetBehaviors(context.Background(), []string{"beh1"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var re *ResolveError
	if !errors.As(err, &re) {
		t.Fatalf("expected *ResolveError, got %T: %v", err, err)
	}
	if re.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", re.StatusCode)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "empty config",
			config:  Config{},
			wantErr: true,
		},
		{
			name:    "missing secret",
			config:  Config{ClientID: "id", Region: "us-1"},
			wantErr: true,
		},
		{
			name:    "valid",
			config:  Config{ClientID: "id", ClientSecret: "secret", Region: "us-2"},
			wantErr: false,
		},
		{
			name:    "base URL override without region",
			config:  Config{ClientID: "id", ClientSecret: "secret", BaseURL: "http://127.0.0.1:9"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
