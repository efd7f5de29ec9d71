package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func withNoRetryDelay(t *testing.T) {
	t.Helper()
	orig := retryDelay
	retryDelay = 0
	t.Cleanup(func() { retryDelay = orig })
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := NewClient("exiled-installer/test", "")
	c.BaseURL = server.URL
	c.HTTP = server.Client()
	return c
}

func TestListReleasesSinglePage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/ExMod-Team/EXILED/releases" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("per_page"); got != "100" {
			t.Errorf("per_page = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "exiled-installer/test" {
			t.Errorf("user agent = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("unexpected authorization %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"tag_name":"v9.0.0","prerelease":false,"created_at":"2025-01-02T03:04:05Z",
			"assets":[{"id":7,"name":"exiled.tar.gz","size":12,"browser_download_url":"https://x/exiled.tar.gz"}]}]`))
	})

	releases, err := c.ListReleases(context.Background(), "ExMod-Team", "EXILED")
	if err != nil {
		t.Fatalf("ListReleases error: %v", err)
	}
	if len(releases) != 1 {
		t.Fatalf("expected 1 release, got %d", len(releases))
	}
	r := releases[0]
	if r.TagName != "v9.0.0" || r.ID != 1 {
		t.Fatalf("unexpected release %+v", r)
	}
	if !r.CreatedAt.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("unexpected created_at %v", r.CreatedAt)
	}
	if len(r.Assets) != 1 || r.Assets[0].Size != 12 || r.Assets[0].BrowserDownloadURL != "https://x/exiled.tar.gz" {
		t.Fatalf("unexpected assets %+v", r.Assets)
	}
}

func TestListReleasesFollowsPagination(t *testing.T) {
	var serverURL string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		switch page {
		case "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/o/r/releases?per_page=100&page=2>; rel="next", <%s/repos/o/r/releases?per_page=100&page=2>; rel="last"`, serverURL, serverURL))
			_, _ = w.Write([]byte(`[{"id":1,"tag_name":"9.1.0"}]`))
		case "2":
			_, _ = w.Write([]byte(`[{"id":2,"tag_name":"9.0.0"}]`))
		default:
			t.Errorf("unexpected page %q", page)
		}
	})
	serverURL = c.BaseURL

	releases, err := c.ListReleases(context.Background(), "o", "r")
	if err != nil {
		t.Fatalf("ListReleases error: %v", err)
	}
	if len(releases) != 2 || releases[0].ID != 1 || releases[1].ID != 2 {
		t.Fatalf("unexpected releases %+v", releases)
	}
}

func TestListReleasesSendsToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		_, _ = w.Write([]byte(`[]`))
	})
	c.Token = "secret"
	if _, err := c.ListReleases(context.Background(), "o", "r"); err != nil {
		t.Fatalf("ListReleases error: %v", err)
	}
}

func TestListReleasesRequiresFeed(t *testing.T) {
	c := NewClient("ua", "")
	if _, err := c.ListReleases(context.Background(), "", "r"); err == nil {
		t.Fatal("expected error for empty owner")
	}
}

func TestListReleasesStatusErrors(t *testing.T) {
	withNoRetryDelay(t)
	cases := []struct {
		name   string
		status int
		header map[string]string
		check  func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, nil, func(err error) bool { return errors.Is(err, ErrUnauthorized) }},
		{"not found", http.StatusNotFound, nil, func(err error) bool { return errors.Is(err, ErrRepositoryNotFound) }},
		{"too many", http.StatusTooManyRequests, nil, IsRateLimitError},
		{"forbidden exhausted", http.StatusForbidden, map[string]string{"X-RateLimit-Remaining": "0", "X-RateLimit-Reset": "1735689600"}, IsRateLimitError},
		{"forbidden other", http.StatusForbidden, map[string]string{"X-RateLimit-Remaining": "10"}, func(err error) bool {
			return err != nil && !IsRateLimitError(err) && strings.Contains(err.Error(), "403")
		}},
		{"bad request", http.StatusBadRequest, nil, func(err error) bool { return err != nil && strings.Contains(err.Error(), "400") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				for k, v := range tc.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tc.status)
			})
			_, err := c.ListReleases(context.Background(), "o", "r")
			if !tc.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestListReleasesRetriesServerError(t *testing.T) {
	withNoRetryDelay(t)
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"id":3,"tag_name":"9.0.0"}]`))
	})
	releases, err := c.ListReleases(context.Background(), "o", "r")
	if err != nil {
		t.Fatalf("ListReleases error: %v", err)
	}
	if len(releases) != 1 || calls.Load() != 2 {
		t.Fatalf("expected retry success, got %d releases after %d calls", len(releases), calls.Load())
	}
}

func TestListReleasesServerErrorAfterRetry(t *testing.T) {
	withNoRetryDelay(t)
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if _, err := c.ListReleases(context.Background(), "o", "r"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestListReleasesDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})
	if _, err := c.ListReleases(context.Background(), "o", "r"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestListReleasesTransportError(t *testing.T) {
	c := NewClient("ua", "")
	c.HTTP = &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("boom")
	})}
	if _, err := c.ListReleases(context.Background(), "o", "r"); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestListReleasesCanceledContextNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[]`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.ListReleases(ctx, "o", "r"); err == nil {
		t.Fatal("expected cancellation error")
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no server calls, got %d", calls.Load())
	}
}

func TestNextLink(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"", ""},
		{`<https://api/x?page=2>; rel="next", <https://api/x?page=5>; rel="last"`, "https://api/x?page=2"},
		{`<https://api/x?page=1>; rel="prev"`, ""},
		{`garbage`, ""},
	}
	for _, tc := range cases {
		if got := nextLink(tc.header); got != tc.want {
			t.Fatalf("nextLink(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestRateLimitErrorMessage(t *testing.T) {
	remaining := 0
	err := &RateLimitError{Status: "403 Forbidden", Remaining: &remaining, Reset: time.Unix(1735689600, 0)}
	msg := err.Error()
	if !strings.Contains(msg, "remaining=0") || !strings.Contains(msg, "2025-01-01T00:00:00Z") {
		t.Fatalf("unexpected message %q", msg)
	}
	if !IsRateLimitError(fmt.Errorf("wrapped: %w", err)) {
		t.Fatal("expected wrapped rate limit error to be detected")
	}
}

func TestListReleasesKeepsTokenOnAPIHost(t *testing.T) {
	var foreignAuth atomic.Value
	foreignAuth.Store("unset")
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		foreignAuth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"id":2,"tag_name":"v8.9.0"}]`))
	}))
	t.Cleanup(foreign.Close)

	var apiAuth atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		apiAuth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Link", fmt.Sprintf(`<%s/releases?page=2>; rel="next"`, foreign.URL))
		_, _ = w.Write([]byte(`[{"id":1,"tag_name":"v9.0.0"}]`))
	})
	c.Token = "s3cret"

	releases, err := c.ListReleases(context.Background(), "ExMod-Team", "EXILED")
	if err != nil {
		t.Fatalf("ListReleases error: %v", err)
	}
	if len(releases) != 2 {
		t.Fatalf("expected 2 releases, got %d", len(releases))
	}
	if got := apiAuth.Load(); got != "Bearer s3cret" {
		t.Fatalf("api host authorization = %v", got)
	}
	if got := foreignAuth.Load(); got != "" {
		t.Fatalf("foreign host received authorization %v", got)
	}
}

func TestSameOrigin(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"https://api.github.com", "https://api.github.com/repos/x/y/releases?page=2", true},
		{"https://API.github.com", "https://api.github.com/x", true},
		{"https://api.github.com", "http://api.github.com/x", false},
		{"https://api.github.com", "https://evil.example/x", false},
		{"http://127.0.0.1:1", "http://127.0.0.1:2/x", false},
		{"https://api.github.com", "://bad", false},
	}
	for _, tc := range cases {
		if got := sameOrigin(tc.a, tc.b); got != tc.want {
			t.Fatalf("sameOrigin(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
