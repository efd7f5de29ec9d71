package github

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitError indicates GitHub's API rate limit was hit while listing releases.
type RateLimitError struct {
	StatusCode int
	Status     string
	Remaining  *int
	// Reset is when the quota refills; zero when the server did not say.
	Reset time.Time
}

func (e *RateLimitError) Error() string {
	remainingText := "unknown"
	if e.Remaining != nil {
		remainingText = strconv.Itoa(*e.Remaining)
	}
	msg := fmt.Sprintf("github api rate limit exceeded (%s, remaining=%s)", e.Status, remainingText)
	if !e.Reset.IsZero() {
		msg += fmt.Sprintf("; resets at %s", e.Reset.UTC().Format(time.RFC3339))
	}
	return msg + "; pass --github-token to raise the limit"
}

// IsRateLimitError reports whether err represents a GitHub API rate-limit condition.
func IsRateLimitError(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

func rateLimitErrorFromResponse(resp *http.Response) *RateLimitError {
	if resp == nil {
		return nil
	}
	reset := parseReset(resp.Header.Get("X-RateLimit-Reset"))
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{StatusCode: resp.StatusCode, Status: resp.Status, Reset: reset}
	}
	// Unauthenticated exhaustion comes back as 403; the header confirms it.
	if resp.StatusCode == http.StatusForbidden {
		remainingStr := strings.TrimSpace(resp.Header.Get("X-RateLimit-Remaining"))
		if remainingStr == "" {
			return nil
		}
		remaining, err := strconv.Atoi(remainingStr)
		if err != nil {
			return nil //nolint:nilerr // Malformed header means we cannot confirm rate limiting.
		}
		if remaining == 0 {
			return &RateLimitError{StatusCode: resp.StatusCode, Status: resp.Status, Remaining: &remaining, Reset: reset}
		}
	}
	return nil
}

func parseReset(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}
