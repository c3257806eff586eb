package iris

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestAddAlert(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody map[string]any

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"success"}`))
	})

	alert := &Alert{
		Title:      "crowdstrike: Execution - web-01",
		SourceRef:  "inc:aaa:111",
		SeverityID: 5,
		StatusID:   StatusNew,
	}
	if err := client.AddAlert(context.Background(), alert); err != nil {
		t.Fatalf("AddAlert: %v", err)
	}

	if gotPath != "/alerts/add" {
		t.Errorf("path = %q, want /alerts/add", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotBody["alert_title"] != "crowdstrike: Execution - web-01" {
		t.Errorf("alert_title = %v", gotBody["alert_title"])
	}
	if gotBody["alert_status_id"] != float64(StatusNew) {
		t.Errorf("alert_status_id = %v", gotBody["alert_status_id"])
	}
}

func TestAddAlertRejected(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"missing customer"}`))
	})

	err := client.AddAlert(context.Background(), &Alert{Title: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	var de *DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("error = %T, want *DispatchError", err)
	}
	if de.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d", de.StatusCode)
	}
	if !strings.Contains(de.Body, "missing customer") {
		t.Errorf("Body = %q", de.Body)
	}
}

func TestAddAlertTruncatesErrorBody(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(strings.Repeat("x", 4096)))
	})

	err := client.AddAlert(context.Background(), &Alert{Title: "x"})
	var de *DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("error = %T, want *DispatchError", err)
	}
	if len(de.Body) != 1024 {
		t.Errorf("Body length = %d, want truncated to 1024", len(de.Body))
	}
}

func TestVerify(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ping" {
			t.Errorf("path = %q, want /api/ping", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := client.Verify(context.Background()); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyUnauthorized(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := client.Verify(context.Background())
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("Verify error = %v, want status 401 mentioned", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{BaseURL: "https://iris.example.org", APIKey: "k"}, false},
		{"http ok", Config{BaseURL: "http://localhost:8000", APIKey: "k"}, false},
		{"missing url", Config{APIKey: "k"}, true},
		{"bad scheme", Config{BaseURL: "iris.example.org", APIKey: "k"}, true},
		{"missing key", Config{BaseURL: "https://iris.example.org"}, true},
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

func TestEndpointTrailingSlash(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://iris.example.org/", APIKey: "k"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := client.endpoint("/alerts/add"); got != "https://iris.example.org/alerts/add" {
		t.Errorf("endpoint = %q", got)
	}
}
