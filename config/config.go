package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds DataQuery client settings sourced from the environment.
type Config struct {
	BaseURL      string
	FilesBaseURL string

	// OAuth client-credentials settings; mutually exclusive with BearerToken.
	ClientID     string
	ClientSecret string
	TokenURL     string
	Audience     string
	BearerToken  string

	Timeout   time.Duration
	UserAgent string

	DownloadDir       string
	CreateDirectories bool
	OverwriteExisting bool

	// MaxConcurrentDownloads bounds cross-file download concurrency.
	MaxConcurrentDownloads int

	Debug bool
}

const (
	defaultTimeout     = 60 * time.Second
	defaultDownloadDir = "./downloads"
	defaultConcurrency = 5
)

// Load reads configuration from DATAQUERY_* environment variables. A non-empty
// envFile is loaded first without overriding variables already present.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("error loading env file %s: %w", envFile, err)
		}
	} else {
		// Best effort: a .env in the working directory is optional.
		_ = godotenv.Load()
	}

	cfg := &Config{
		BaseURL:                os.Getenv("DATAQUERY_BASE_URL"),
		FilesBaseURL:           os.Getenv("DATAQUERY_FILES_BASE_URL"),
		ClientID:               os.Getenv("DATAQUERY_CLIENT_ID"),
		ClientSecret:           os.Getenv("DATAQUERY_CLIENT_SECRET"),
		TokenURL:               os.Getenv("DATAQUERY_OAUTH_TOKEN_URL"),
		Audience:               os.Getenv("DATAQUERY_OAUTH_AUD"),
		BearerToken:            os.Getenv("DATAQUERY_BEARER_TOKEN"),
		Timeout:                defaultTimeout,
		UserAgent:              os.Getenv("DATAQUERY_USER_AGENT"),
		DownloadDir:            defaultDownloadDir,
		CreateDirectories:      true,
		MaxConcurrentDownloads: defaultConcurrency,
	}

	if v := os.Getenv("DATAQUERY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DATAQUERY_TIMEOUT %q: %w", v, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("DATAQUERY_DOWNLOAD_DIR"); v != "" {
		cfg.DownloadDir = v
	}
	if v := os.Getenv("DATAQUERY_CREATE_DIRS"); v != "" {
		cfg.CreateDirectories = parseBool(v, true)
	}
	if v := os.Getenv("DATAQUERY_OVERWRITE"); v != "" {
		cfg.OverwriteExisting = parseBool(v, false)
	}
	if v := os.Getenv("DATAQUERY_MAX_CONCURRENT_DOWNLOADS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid DATAQUERY_MAX_CONCURRENT_DOWNLOADS %q", v)
		}
		cfg.MaxConcurrentDownloads = n
	}
	if v := os.Getenv("DATAQUERY_DEBUG"); v != "" {
		cfg.Debug = parseBool(v, false)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("DATAQUERY_BASE_URL is required")
	}
	if c.TokenURL != "" && (c.ClientID == "" || c.ClientSecret == "") {
		return errors.New("OAuth requires DATAQUERY_CLIENT_ID and DATAQUERY_CLIENT_SECRET when DATAQUERY_OAUTH_TOKEN_URL is set")
	}
	return nil
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
