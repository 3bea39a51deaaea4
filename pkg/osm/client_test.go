package osm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/mapmcp/mapmcp/pkg/config"
	"github.com/mapmcp/mapmcp/pkg/testutil"
)

// testConfig points every service at the given base URL with rate
// limiting disabled so tests run at full speed.
func testConfig(baseURL string, timeoutSeconds float64) config.Config {
	cfg := config.Default()
	cfg.TimeoutSeconds = timeoutSeconds
	for _, p := range []*config.Provider{&cfg.Nominatim, &cfg.Overpass, &cfg.OSRM} {
		p.BaseURL = baseURL
		p.RateRPS = 0
	}
	return cfg
}

func TestGetJSONSuccess(t *testing.T) {
	var gotUA, gotAccept string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Brandenburg Gate","value":42}`))
	}))
	defer ts.Close()

	client := NewClient(testConfig(ts.URL, 5), testutil.Logger(t))

	var out struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}
	if err := client.GetJSON(context.Background(), ServiceNominatim, ts.URL+"/search", &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out.Name != "Brandenburg Gate" || out.Value != 42 {
		t.Errorf("GetJSON() decoded %+v", out)
	}
	if gotUA != config.DefaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, config.DefaultUserAgent)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q, want application/json", gotAccept)
	}
}

func TestGetJSONErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantKind   ErrorKind
		wantStatus int
	}{
		{
			name: "upstream 429",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantKind:   KindUpstreamStatus,
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name: "upstream 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantKind:   KindUpstreamStatus,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "bad payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"truncated":`))
			},
			wantKind: KindBadPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			client := NewClient(testConfig(ts.URL, 5), testutil.Logger(t))

			var out map[string]any
			err := client.GetJSON(context.Background(), ServiceOverpass, ts.URL, &out)
			if err == nil {
				t.Fatal("GetJSON() expected error, got nil")
			}

			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("GetJSON() error = %v, want *HTTPError", err)
			}
			if httpErr.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", httpErr.Kind, tt.wantKind)
			}
			if httpErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", httpErr.StatusCode, tt.wantStatus)
			}
			if httpErr.Service != ServiceOverpass {
				t.Errorf("Service = %q, want %q", httpErr.Service, ServiceOverpass)
			}
		})
	}
}

func TestGetJSONTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := NewClient(testConfig(ts.URL, 0.05), testutil.Logger(t))

	var out map[string]any
	err := client.GetJSON(context.Background(), ServiceOSRM, ts.URL, &out)

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("GetJSON() error = %v, want *HTTPError", err)
	}
	if httpErr.Kind != KindTimeout {
		t.Errorf("Kind = %q, want %q", httpErr.Kind, KindTimeout)
	}
}

func TestGetJSONNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := ts.URL
	ts.Close() // nothing listens here anymore

	client := NewClient(testConfig(base, 1), testutil.Logger(t))

	var out map[string]any
	err := client.GetJSON(context.Background(), ServiceNominatim, base, &out)

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("GetJSON() error = %v, want *HTTPError", err)
	}
	if httpErr.Kind != KindNetwork {
		t.Errorf("Kind = %q, want %q", httpErr.Kind, KindNetwork)
	}
}

func TestPostFormJSON(t *testing.T) {
	var gotContentType, gotBody, gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		gotBody = r.PostForm.Get("data")
		w.Write([]byte(`{"elements":[]}`))
	}))
	defer ts.Close()

	cfg := testConfig(ts.URL, 5)
	cfg.Overpass.APIKey = "secret-token"
	client := NewClient(cfg, testutil.Logger(t))

	form := url.Values{}
	form.Set("data", `[out:json];node(1);out;`)

	var out struct {
		Elements []any `json:"elements"`
	}
	if err := client.PostFormJSON(context.Background(), ServiceOverpass, ts.URL, form, &out); err != nil {
		t.Fatalf("PostFormJSON() error = %v", err)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q, want application/x-www-form-urlencoded", gotContentType)
	}
	if gotBody != `[out:json];node(1);out;` {
		t.Errorf("form data = %q", gotBody)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want Bearer secret-token", gotAuth)
	}
}

func TestBaseURL(t *testing.T) {
	cfg := config.Default()
	cfg.Nominatim.BaseURL = "https://nominatim.example.com/"
	client := NewClient(cfg, testutil.Logger(t))

	if got := client.BaseURL(ServiceNominatim); got != "https://nominatim.example.com" {
		t.Errorf("BaseURL(nominatim) = %q, want trailing slash stripped", got)
	}
	if got := client.BaseURL("bogus"); got != "" {
		t.Errorf("BaseURL(bogus) = %q, want empty", got)
	}
}

func TestUnknownService(t *testing.T) {
	client := NewClient(config.Default(), testutil.Logger(t))

	var out map[string]any
	err := client.GetJSON(context.Background(), "bogus", "http://127.0.0.1:1/x", &out)

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("GetJSON() error = %v, want *HTTPError", err)
	}
	if httpErr.Kind != KindNetwork {
		t.Errorf("Kind = %q, want %q", httpErr.Kind, KindNetwork)
	}
}
