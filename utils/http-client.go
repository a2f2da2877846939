package utils

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type HTTPClientConfig struct {
	Timeout     time.Duration
	KATimeout   time.Duration
	UserAgent   string
	Headers     map[string]string
	BearerToken string

	// OAuth client-credentials flow; when TokenURL is set the client
	// acquires and refreshes tokens transparently.
	ClientID     string
	ClientSecret string
	TokenURL     string
	Audience     string
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClient wraps *http.Client with SDK headers and authentication.
type HTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.KATimeout == 0 {
		cfg.KATimeout = 60 * time.Second
	}
	transport := &http.Transport{
		IdleConnTimeout:     cfg.KATimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		DisableCompression:  true,
	}
	base := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}
	if cfg.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		if cfg.Audience != "" {
			cc.EndpointParams = map[string][]string{"aud": {cfg.Audience}}
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		authed := cc.Client(ctx)
		authed.Timeout = cfg.Timeout
		base = authed
	}
	return &HTTPClient{client: base, config: cfg}
}

func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	} else {
		req.Header.Set("User-Agent", ToolUserAgent)
	}
	if c.config.BearerToken != "" && c.config.TokenURL == "" {
		req.Header.Set("Authorization", "Bearer "+c.config.BearerToken)
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	return c.client.Do(req)
}
