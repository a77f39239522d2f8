package transport

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout    = 10 * time.Second
	maxMessageLength  = 512
	defaultUserAgent  = "manacube-go"
	acceptContentType = "application/json"
)

// HTTP implements Transport over net/http.
type HTTP struct {
	BaseURL   *url.URL
	Client    *http.Client
	APIKey    string
	UserAgent string

	// Limiter paces outgoing requests when set. A nil limiter never delays.
	Limiter *rate.Limiter
}

// NewHTTP returns an HTTP transport rooted at baseURL.
func NewHTTP(baseURL string) (*HTTP, error) {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base url: %q must be absolute", baseURL)
	}

	return &HTTP{BaseURL: parsed}, nil
}

// Host returns the API host used to key persisted rate-limit state.
func (t *HTTP) Host() string {
	if t == nil || t.BaseURL == nil {
		return ""
	}
	return t.BaseURL.Host
}

// Get fetches path relative to the base URL.
func (t *HTTP) Get(ctx context.Context, path string) (*Response, error) {
	if t == nil || t.BaseURL == nil {
		return nil, fmt.Errorf("http transport is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if t.Limiter != nil {
		if err := t.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: wait for request slot: %w", path, err)
		}
	}

	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil || ref.IsAbs() {
		return nil, fmt.Errorf("%s: invalid request path", path)
	}
	target := t.BaseURL.ResolveReference(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", acceptContentType)
	req.Header.Set("User-Agent", t.userAgent())
	if key := strings.TrimSpace(t.APIKey); key != "" {
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(key)))
	}

	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", path, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", path, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &Error{
			Path:       path,
			StatusCode: resp.StatusCode,
			Header:     resp.Header.Clone(),
			Message:    errorMessage(resp.StatusCode, body),
			Body:       body,
		}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: body}, nil
}

func (t *HTTP) userAgent() string {
	if ua := strings.TrimSpace(t.UserAgent); ua != "" {
		return ua
	}
	return defaultUserAgent
}

func errorMessage(status int, body []byte) string {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return http.StatusText(status)
	}
	if len(msg) > maxMessageLength {
		msg = msg[:maxMessageLength]
	}
	return msg
}
