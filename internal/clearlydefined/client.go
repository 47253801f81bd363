package clearlydefined

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"cdcheck/internal/data"
)

const (
	DefaultBaseURL = "https://api.clearlydefined.io"
	WebBaseURL     = "https://clearlydefined.io"
)

// Client queries the ClearlyDefined definitions API.
type Client struct {
	HTTP    *http.Client
	baseURL string
	observe func(*http.Response)
}

type options struct {
	baseURL string
	log     *zap.SugaredLogger
	observe func(*http.Response)
	timeout time.Duration
}

type Option func(*options)

// WithBaseURL overrides the API root, mostly for tests and mirrors.
func WithBaseURL(raw string) Option {
	return func(o *options) { o.baseURL = raw }
}

// WithVerbose logs one debug line per request and response.
func WithVerbose(log *zap.SugaredLogger) Option {
	return func(o *options) { o.log = log }
}

// WithResponseObserver registers fn to see every response before its body is
// read. The fetcher uses it to track rate limits.
func WithResponseObserver(fn func(*http.Response)) Option {
	return func(o *options) { o.observe = fn }
}

// WithTimeout bounds each individual request.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// loggingRoundTripper emits one line per request and response, including latency.
type loggingRoundTripper struct {
	base http.RoundTripper
	log  *zap.SugaredLogger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.log.Debugw("clearlydefined request", "method", req.Method, "url", req.URL.String())
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.log.Debugw("clearlydefined request failed", "url", req.URL.String(), "after", dur, "error", err)
	} else {
		t.log.Debugw("clearlydefined response", "url", req.URL.String(), "status", resp.StatusCode, "after", dur)
	}
	return resp, err
}

// NewClient builds a client. An empty token means anonymous access.
func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("clearlydefined client: ctx is nil")
	}

	o := &options{baseURL: DefaultBaseURL}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}

	base, err := url.Parse(o.baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("clearlydefined client: invalid base URL %q", o.baseURL)
	}

	transport := http.DefaultTransport
	if o.log != nil {
		transport = &loggingRoundTripper{base: transport, log: o.log}
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}

	return &Client{
		HTTP:    &http.Client{Transport: transport, Timeout: o.timeout},
		baseURL: strings.TrimRight(base.String(), "/"),
		observe: o.observe,
	}, nil
}

// ErrorResponse is returned for any non-2xx status other than 404.
type ErrorResponse struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *ErrorResponse) Error() string {
	msg := fmt.Sprintf("clearlydefined: %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Temporary reports whether retrying the request may succeed.
func (e *ErrorResponse) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type definition struct {
	Licensed struct {
		Declared string `json:"declared"`
		Score    struct {
			Total json.RawMessage `json:"total"`
		} `json:"score"`
	} `json:"licensed"`
	Scores struct {
		Effective json.RawMessage `json:"effective"`
	} `json:"scores"`
}

// scoreValue reads a non-negative integer score. Anything else reads as 0.
func scoreValue(raw json.RawMessage) uint64 {
	v, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// DefinitionPath returns the API URL for coordinates.
func (c *Client) DefinitionPath(coords data.Coordinates) string {
	return c.baseURL + "/definitions/" + coords.Path()
}

// Definition fetches the definition for coords. A 404 yields (nil, nil).
func (c *Client) Definition(ctx context.Context, coords data.Coordinates) (*data.ClearlyDefined, error) {
	u := c.DefinitionPath(coords)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u, err)
	}
	defer resp.Body.Close()

	if c.observe != nil {
		c.observe(resp)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ErrorResponse{StatusCode: resp.StatusCode, URL: u, Body: strings.TrimSpace(string(body))}
	}

	var def definition
	if err := json.NewDecoder(resp.Body).Decode(&def); err != nil {
		return nil, fmt.Errorf("decode %s: %w", u, err)
	}

	return data.NewClearlyDefined(
		def.Licensed.Declared,
		scoreValue(def.Scores.Effective),
		scoreValue(def.Licensed.Score.Total),
	), nil
}

// DefinitionURL is the human-facing page for coords.
func DefinitionURL(coords data.Coordinates) string {
	return WebBaseURL + "/definitions/" + coords.Path()
}
