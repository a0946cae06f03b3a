package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	var gotUserAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte("page body"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, "")

	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != "page body" {
		t.Errorf("body = %q, want %q", body, "page body")
	}
	if gotUserAgent != "kbwatch/1.0" {
		t.Errorf("User-Agent = %q, want default", gotUserAgent)
	}
}

func TestHTTPFetcher_CustomUserAgent(t *testing.T) {
	var gotUserAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, "kbwatch-ci/2.0")

	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if gotUserAgent != "kbwatch-ci/2.0" {
		t.Errorf("User-Agent = %q, want %q", gotUserAgent, "kbwatch-ci/2.0")
	}
}

func TestHTTPFetcher_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, "")

	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("Fetch() error = nil, want status error")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %T, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", statusErr.StatusCode)
	}
}

func TestHTTPFetcher_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Fetch(ctx, srv.URL); err == nil {
		t.Fatal("Fetch() error = nil, want context error")
	}
}

func TestCKANPackageURL(t *testing.T) {
	tests := []struct {
		name      string
		datasetID string
		want      string
	}{
		{
			name:      "plain id",
			datasetID: "visa-grant-statistics",
			want:      "https://data.gov.au/api/3/action/package_show?id=visa-grant-statistics",
		},
		{
			name:      "id needing escaping",
			datasetID: "visa stats 2024",
			want:      "https://data.gov.au/api/3/action/package_show?id=visa+stats+2024",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CKANPackageURL("https://data.gov.au/api/3/action/package_show", tt.datasetID)
			if got != tt.want {
				t.Errorf("CKANPackageURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
