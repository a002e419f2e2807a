package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://api.github.com"
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "issuestore"
	apiVersion       = "2022-11-28"
	maxResponseBytes = 8 << 20
)

// Config holds the settings for a GitHub REST client. Token is the bearer
// credential of the automated service identity.
type Config struct {
	BaseURL   string
	Token     string
	UserAgent string

	// RequestsPerSecond paces outgoing requests. Zero disables pacing.
	RequestsPerSecond float64

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the GitHub REST API. It never retries: a failed call is
// returned to the caller as is.
type Client struct {
	client    *http.Client
	transport http.RoundTripper
	cache     *cache.Cache
	limiter   *rate.Limiter
	baseURL   string
	token     string
	userAgent string
	logger    *slog.Logger
}

func New(config Config) (*Client, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("github: token is required")
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("github: API client requires HTTPS (got %q)", baseURL)
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := http.Client{Timeout: defaultTimeout}
	transport := http.DefaultTransport
	if config.HTTPClient != nil {
		httpClient = *config.HTTPClient
		if httpClient.Transport != nil {
			transport = httpClient.Transport
		}
	}

	c := &Client{
		client:    &httpClient,
		transport: transport,
		cache:     cache.New(10*time.Minute, 15*time.Minute),
		baseURL:   baseURL,
		token:     config.Token,
		userAgent: userAgent,
		logger:    logger,
	}
	if config.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}
	httpClient.Transport = c
	return c, nil
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return c.transport.RoundTrip(req)
}

type etagEntry struct {
	etag string
	body []byte
}

// request describes a single API call. Token overrides the service token,
// which is how a user's own credential is checked.
type request struct {
	method string
	url    string
	body   any
	token  string
}

type response struct {
	body   []byte
	header http.Header
}

func (c *Client) do(ctx context.Context, r request) (*response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var bodyReader io.Reader
	if r.body != nil {
		encoded, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("github: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("github: creating request: %w", err)
	}

	token := c.token
	if r.token != "" {
		token = r.token
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// conditional requests are only safe for the shared service identity
	useETag := r.method == http.MethodGet && r.token == ""
	cacheKey := "etag:" + r.url
	var cached *etagEntry
	if useETag {
		if v, found := c.cache.Get(cacheKey); found {
			entry := v.(etagEntry)
			cached = &entry
			req.Header.Set("If-None-Match", entry.etag)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: %s %s: %w", r.method, r.url, err)
	}
	defer resp.Body.Close()

	// the entry sent as If-None-Match is reused even if it expired meanwhile
	if resp.StatusCode == http.StatusNotModified && cached != nil {
		c.logger.DebugContext(ctx, "etag hit",
			slog.String("url", r.url),
			slog.String("module", "client"),
		)
		c.cache.Set(cacheKey, *cached, cache.DefaultExpiration)
		return &response{body: cached.body, header: resp.Header}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("github: reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	if useETag {
		if etag := resp.Header.Get("ETag"); etag != "" {
			c.cache.Set(cacheKey, etagEntry{etag: etag, body: body}, cache.DefaultExpiration)
		}
	} else if r.method != http.MethodGet {
		c.cache.Delete("etag:" + r.url)
	}

	return &response{body: body, header: resp.Header}, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	resp, err := c.do(ctx, request{method: http.MethodGet, url: c.baseURL + path})
	if err != nil {
		return err
	}
	return decode(resp.body, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	resp, err := c.do(ctx, request{method: http.MethodPost, url: c.baseURL + path, body: body})
	if err != nil {
		return err
	}
	return decode(resp.body, result)
}

func (c *Client) patch(ctx context.Context, path string, body any, result any) error {
	resp, err := c.do(ctx, request{method: http.MethodPatch, url: c.baseURL + path, body: body})
	if err != nil {
		return err
	}
	return decode(resp.body, result)
}

func (c *Client) put(ctx context.Context, path string, body any) error {
	_, err := c.do(ctx, request{method: http.MethodPut, url: c.baseURL + path, body: body})
	return err
}

func (c *Client) delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, request{method: http.MethodDelete, url: c.baseURL + path})
	return err
}

// list follows rel="next" links until every page has been read.
func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var all []T
	next := c.baseURL + path
	for next != "" {
		resp, err := c.do(ctx, request{method: http.MethodGet, url: next})
		if err != nil {
			return all, err
		}
		var items []T
		if err := decode(resp.body, &items); err != nil {
			return all, err
		}
		all = append(all, items...)
		next = parseLinkNext(resp.header.Get("Link"))
	}
	return all, nil
}

func decode(body []byte, result any) error {
	if result == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("github: decoding response: %w", err)
	}
	return nil
}

// parseLinkNext extracts the rel="next" URL from an RFC 5988 Link header.
func parseLinkNext(header string) string {
	if header == "" {
		return ""
	}
	for _, part := range strings.Split(header, ",") {
		segments := strings.SplitN(strings.TrimSpace(part), ";", 2)
		if len(segments) != 2 {
			continue
		}
		if !strings.Contains(segments[1], `rel="next"`) {
			continue
		}
		u := strings.TrimSpace(segments[0])
		if strings.HasPrefix(u, "<") && strings.HasSuffix(u, ">") {
			return u[1 : len(u)-1]
		}
	}
	return ""
}
