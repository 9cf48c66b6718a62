package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agentstation/factmap/pkg/errors"
)

func testClient(opts ...Option) *Client {
	base := []Option{
		WithRequestsPerMinute(0),
		WithRetries(2, time.Millisecond, 5*time.Millisecond),
	}
	return New(append(base, opts...)...)
}

func get(url string) RequestFunc {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestClient_Do(t *testing.T) {
	var gotUA, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"entities":{"Q42":{"id":"Q42"}}}`))
	}))
	defer srv.Close()

	c := testClient(WithUserAgent("factmap-test/1.0"), WithAuthenticator(&BearerAuth{Token: "tok"}))
	var out struct {
		Entities map[string]struct {
			ID string `json:"id"`
		} `json:"entities"`
	}
	if err := c.Do(context.Background(), get(srv.URL), &out); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if out.Entities["Q42"].ID != "Q42" {
		t.Errorf("unexpected body %+v", out)
	}
	if gotUA != "factmap-test/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestClient_RetriesThrottling(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if err := testClient().Do(context.Background(), get(srv.URL), nil); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("expected 3 calls, got %d", n)
	}
}

func TestClient_RetriesMaxlag(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		_, _ = w.Write([]byte(`{"error":{"code":"maxlag","info":"Waiting for replicas"}}`))
	}))
	defer srv.Close()

	err := testClient().Do(context.Background(), get(srv.URL), nil)
	if !errors.IsRateLimited(err) {
		t.Fatalf("expected rate limited error, got %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("expected 3 calls (1 + 2 retries), got %d", n)
	}
}

func TestClient_NoRetryOnClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"bad request", http.StatusBadRequest, `bad`},
		{"edit conflict", http.StatusOK, `{"error":{"code":"editconflict","info":"Edit conflict."}}`},
		{"bad token", http.StatusOK, `{"error":{"code":"badtoken","info":"Invalid CSRF token."}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := testClient().Do(context.Background(), get(srv.URL), nil)
			var apiErr *errors.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if n := calls.Load(); n != 1 {
				t.Errorf("expected 1 call, got %d", n)
			}
		})
	}
}

func TestClient_RetryPolicy(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCalls int32
	}{
		{"server error is not resent", http.StatusBadGateway, `bad gateway`, 1},
		{"throttling is resent", http.StatusTooManyRequests, ``, 3},
		{"maxlag is resent", http.StatusOK, `{"error":{"code":"maxlag","info":"Waiting for replicas"}}`, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := testClient(WithRetryPolicy(errors.IsRefused))
			if err := c.Do(context.Background(), get(srv.URL), nil); err == nil {
				t.Fatal("expected error")
			}
			if n := calls.Load(); n != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, n)
			}
		})
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if err := testClient().Do(context.Background(), get(srv.URL), nil); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 calls, got %d", n)
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testClient(WithRetries(5, time.Second, time.Second))
	if err := c.Do(ctx, get(srv.URL), nil); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestDecodeResponse_ParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out map[string]any
	err := testClient().Do(context.Background(), get(srv.URL), &out)
	var parseErr *errors.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"5", 5 * time.Second},
		{"-1", 0},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
