// Package github lists repository releases through the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/exmod-team/exiled-installer/internal/messages"
)

// DefaultBaseURL is the public GitHub REST API endpoint.
const DefaultBaseURL = "https://api.github.com"

const (
	apiVersion       = "2022-11-28"
	releasesPageSize = 100
	listRetryCount   = 1
	// maxReleasePages bounds pagination in case a server keeps returning next links.
	maxReleasePages = 50
)

var retryDelay = 250 * time.Millisecond

var (
	// ErrUnauthorized reports a rejected token.
	ErrUnauthorized = errors.New(messages.GitHubUnauthorized)
	// ErrRepositoryNotFound reports a missing or private repository.
	ErrRepositoryNotFound = errors.New(messages.GitHubRepositoryNotFound)
)

// Asset is a downloadable file attached to a release.
type Asset struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	URL                string `json:"url"`
	BrowserDownloadURL string `json:"browser_download_url"`
	ContentType        string `json:"content_type"`
}

// Release is the subset of the GitHub release payload the installer reads.
type Release struct {
	ID          int64     `json:"id"`
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Prerelease  bool      `json:"prerelease"`
	Draft       bool      `json:"draft"`
	CreatedAt   time.Time `json:"created_at"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []Asset   `json:"assets"`
}

// Client talks to the releases API.
type Client struct {
	BaseURL   string
	Token     string
	UserAgent string
	HTTP      *http.Client
}

// NewClient returns a client for the public API with a 30s request timeout.
func NewClient(userAgent string, token string) *Client {
	return &Client{
		BaseURL:   DefaultBaseURL,
		Token:     strings.TrimSpace(token),
		UserAgent: userAgent,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}
}

// ListReleases returns every release of owner/repo, following pagination links.
func (c *Client) ListReleases(ctx context.Context, owner string, repo string) ([]Release, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(owner) == "" || strings.TrimSpace(repo) == "" {
		return nil, fmt.Errorf(messages.GitHubFeedRequired)
	}
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	next := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d&page=1",
		base, url.PathEscape(owner), url.PathEscape(repo), releasesPageSize)

	var all []Release
	for page := 0; next != "" && page < maxReleasePages; page++ {
		// The token only goes to the configured API host.
		releases, link, err := c.fetchPage(ctx, next, sameOrigin(base, next))
		if err != nil {
			return nil, err
		}
		all = append(all, releases...)
		next = nextLink(link)
	}
	return all, nil
}

// fetchPage fetches one page of releases and returns its Link header.
func (c *Client) fetchPage(ctx context.Context, pageURL string, authorize bool) ([]Release, string, error) {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	for attempt := 0; attempt <= listRetryCount; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, "", fmt.Errorf(messages.GitHubCreateRequestErrFmt, err)
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", apiVersion)
		if c.UserAgent != "" {
			req.Header.Set("User-Agent", c.UserAgent)
		}
		if authorize && c.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Token)
		}

		resp, err := client.Do(req)
		if err != nil {
			if shouldRetry(err, 0, attempt) {
				time.Sleep(retryDelay)
				continue
			}
			return nil, "", fmt.Errorf(messages.GitHubFetchReleasesErrFmt, err)
		}

		if resp.StatusCode != http.StatusOK {
			if rl := rateLimitErrorFromResponse(resp); rl != nil {
				_ = resp.Body.Close()
				return nil, "", rl
			}
			status := resp.StatusCode
			statusText := resp.Status
			_ = resp.Body.Close()
			switch status {
			case http.StatusUnauthorized:
				return nil, "", ErrUnauthorized
			case http.StatusNotFound:
				return nil, "", ErrRepositoryNotFound
			}
			if shouldRetry(nil, status, attempt) {
				time.Sleep(retryDelay)
				continue
			}
			return nil, "", fmt.Errorf(messages.GitHubFetchReleasesStatusFmt, statusText)
		}

		var payload []Release
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			_ = resp.Body.Close()
			return nil, "", fmt.Errorf(messages.GitHubDecodeReleasesErrFmt, err)
		}
		_ = resp.Body.Close()
		return payload, resp.Header.Get("Link"), nil
	}
	return nil, "", fmt.Errorf(messages.GitHubFetchReleasesErrFmt, errors.New("retry budget exhausted"))
}

// sameOrigin reports whether a and b share scheme and host.
func sameOrigin(a string, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Scheme, ub.Scheme) && strings.EqualFold(ua.Host, ub.Host)
}

// nextLink extracts the rel="next" target from an RFC 8288 Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, param := range segments[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return strings.Trim(target, "<>")
			}
		}
	}
	return ""
}

func shouldRetry(err error, statusCode int, attempt int) bool {
	if attempt >= listRetryCount {
		return false
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		var netErr net.Error
		return errors.As(err, &netErr)
	}
	return statusCode >= 500 && statusCode <= 599
}
