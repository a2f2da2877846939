package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dataquery-sdk/dataquery/config"
	"github.com/dataquery-sdk/dataquery/download"
	"github.com/dataquery-sdk/dataquery/utils"
)

// Client talks to the DataQuery REST API: group/file catalogs, availability
// checks, file downloads, and time-series retrieval.
type Client struct {
	cfg          *config.Config
	httpClient   utils.HTTPDoer
	log          zerolog.Logger
	downloader   *download.Downloader
	extraHeaders map[string]string

	// sem bounds cross-file download concurrency; individual downloads
	// impose no limit of their own.
	sem chan struct{}
}

type Option func(*Client)

// WithHTTPDoer overrides the underlying HTTP client, mainly for tests.
func WithHTTPDoer(doer utils.HTTPDoer) Option {
	return func(c *Client) { c.httpClient = doer }
}

// WithHeaders attaches headers to every request the client makes, on top
// of the authentication headers the HTTP client already injects.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) { c.extraHeaders = headers }
}

func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		cfg: cfg,
		log: utils.GetLogger("client"),
		sem: make(chan struct{}, cfg.MaxConcurrentDownloads),
	}
	c.httpClient = utils.NewHTTPClient(utils.HTTPClientConfig{
		Timeout:      cfg.Timeout,
		UserAgent:    cfg.UserAgent,
		BearerToken:  cfg.BearerToken,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Audience:     cfg.Audience,
	})
	for _, opt := range opts {
		opt(c)
	}
	c.downloader = download.NewDownloader(c, cfg.DownloadDir)
	return c, nil
}

// Downloader exposes the file downloader for callers that manage their own
// request parameters.
func (c *Client) Downloader() *download.Downloader {
	return c.downloader
}

// buildURL joins the API base with an endpoint, enforcing the DataQuery
// URL length limit.
func (c *Client) buildURL(endpoint string) (string, error) {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	u := base + "/" + strings.TrimLeft(endpoint, "/")
	if len(u) > utils.MaxURLLength {
		return "", &ValidationError{Message: fmt.Sprintf("URL length (%d) exceeds maximum allowed (%d characters)", len(u), utils.MaxURLLength)}
	}
	return u, nil
}

// buildFilesURL uses the dedicated files host when configured.
func (c *Client) buildFilesURL(endpoint string) string {
	base := c.cfg.FilesBaseURL
	if base == "" {
		base = c.cfg.BaseURL
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

func (c *Client) do(ctx context.Context, method, rawURL string, query url.Values, headers map[string]string) (*http.Response, error) {
	target := rawURL
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	// The limit applies to the complete URL, query string included.
	if len(target) > utils.MaxURLLength {
		return nil, &ValidationError{Message: fmt.Sprintf("complete request URL length (%d) exceeds maximum allowed (%d characters)", len(target), utils.MaxURLLength)}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.extraHeaders {
		req.Header.Set(k, v)
	}
	// Per-call headers win over client-wide ones.
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if id := resp.Header.Get("x-dataquery-interaction-id"); id != "" {
		c.log.Debug().Str("interactionId", id).Str("url", rawURL).Int("status", resp.StatusCode).Msg("DataQuery interaction")
	}
	if err := c.checkResponse(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// checkResponse validates the response status once at the HTTP boundary,
// mapping failures to the typed error taxonomy. On error the body is
// consumed for logging and closed.
func (c *Client) checkResponse(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	snippet := readBodySnippet(resp.Body)
	resp.Body.Close()
	interactionID := resp.Header.Get("x-dataquery-interaction-id")
	c.log.Error().
		Int("status", resp.StatusCode).
		Str("url", resp.Request.URL.String()).
		Str("interactionId", interactionID).
		Str("body", snippet).
		Msg("HTTP error response")

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &AuthenticationError{Message: "authentication failed", InteractionID: interactionID}
	case resp.StatusCode == http.StatusForbidden:
		return &AuthenticationError{Message: "access denied - insufficient permissions", InteractionID: interactionID}
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{Resource: "resource", ID: resp.Request.URL.Path}
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &RateLimitError{Message: fmt.Sprintf("rate limit exceeded: %d", resp.StatusCode), RetryAfter: retryAfter}
	case resp.StatusCode >= 500:
		return &NetworkError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("server error: %d", resp.StatusCode)}
	default:
		return &ValidationError{Message: fmt.Sprintf("client error: %d", resp.StatusCode)}
	}
}

func readBodySnippet(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 1000))
	if err != nil {
		return ""
	}
	return string(data)
}

// Request implements download.Requester.
func (c *Client) Request(ctx context.Context, method, rawURL string, params, headers map[string]string) (*http.Response, error) {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	return c.do(ctx, method, rawURL, query, headers)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, rawURL, query, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response from %s: %w", rawURL, err)
	}
	return nil
}

// HealthCheck reports whether the DataQuery service heartbeat responds.
func (c *Client) HealthCheck(ctx context.Context) bool {
	u, err := c.buildURL("services/heartbeat")
	if err != nil {
		return false
	}
	resp, err := c.do(ctx, http.MethodGet, u, nil, nil)
	if err != nil {
		c.log.Error().Err(err).Msg("Health check failed")
		return false
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
