package baas

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected Kind
	}{
		{"unauthorized", 401, KindAuth},
		{"forbidden", 403, KindAuth},
		{"bad request", 400, KindValidation},
		{"conflict", 409, KindValidation},
		{"server error", 500, KindServer},
		{"bad gateway", 502, KindServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.status); got != tt.expected {
				t.Errorf("Expected kind %s for status %d, got %s", tt.expected, tt.status, got)
			}
		})
	}
}

func TestTableSelectSendsFiltersAndAuth(t *testing.T) {
	var gotPath, gotAuth, gotAPIKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		gotAuth = r.Header.Get("Authorization")
		gotAPIKey = r.Header.Get("apikey")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": "r1", "bpm": 72},
		})
	}))
	defer server.Close()

	client := New(server.URL, "anon-key")
	table := client.Table("heart_rate_readings", "user-token")

	filters := url.Values{"user_id": {"eq.user-1"}}
	rows, err := table.Select(context.Background(), filters)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if len(rows) != 1 || rows[0]["id"] != "r1" {
		t.Errorf("Expected one row with id r1, got %+v", rows)
	}
	if gotPath != "/rest/v1/heart_rate_readings?user_id=eq.user-1" {
		t.Errorf("Unexpected request path: %s", gotPath)
	}
	if gotAuth != "Bearer user-token" {
		t.Errorf("Expected session bearer token, got %q", gotAuth)
	}
	if gotAPIKey != "anon-key" {
		t.Errorf("Expected anon apikey header, got %q", gotAPIKey)
	}
}

func TestErrorResponseSurfacesKindAndMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "JWT expired"})
	}))
	defer server.Close()

	client := New(server.URL, "anon-key")
	_, err := client.GetUser(context.Background(), "stale-token")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var baasErr *Error
	if !errors.As(err, &baasErr) {
		t.Fatalf("Expected *baas.Error, got %T", err)
	}
	if baasErr.Kind != KindAuth {
		t.Errorf("Expected auth kind, got %s", baasErr.Kind)
	}
	if baasErr.Status != 401 {
		t.Errorf("Expected status 401, got %d", baasErr.Status)
	}
	if baasErr.Message != "JWT expired" {
		t.Errorf("Expected backend message, got %q", baasErr.Message)
	}
}

func TestNetworkFailureIsNetworkKind(t *testing.T) {
	// Nothing listens on this address.
	client := New("http://127.0.0.1:1", "anon-key")

	_, err := client.GetUser(context.Background(), "token")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var baasErr *Error
	if !errors.As(err, &baasErr) {
		t.Fatalf("Expected *baas.Error, got %T", err)
	}
	if baasErr.Kind != KindNetwork {
		t.Errorf("Expected network kind, got %s", baasErr.Kind)
	}
}

func TestStorageUploadAndDownload(t *testing.T) {
	objects := map[string][]byte{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "POST":
			body, _ := io.ReadAll(r.Body)
			objects[r.URL.Path] = body
			w.WriteHeader(http.StatusOK)
		case "GET":
			data, ok := objects[r.URL.Path]
			if !ok {
				http.NotFound(w, r)
				return
			}
			w.Write(data)
		}
	}))
	defer server.Close()

	client := New(server.URL, "anon-key")
	payload := []byte("meal photo bytes")

	err := client.Upload(context.Background(), "token", "meal-photos", "user-1/lunch.jpg", payload, "image/jpeg")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	got, err := client.Download(context.Background(), "token", "meal-photos", "user-1/lunch.jpg")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Expected %q, got %q", payload, got)
	}
}
