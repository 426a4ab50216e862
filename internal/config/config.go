// Package config loads the studio configuration once at startup.
//
// Values come from the process environment, optionally seeded from a .env
// file in the working directory. Command-line flags may override the two
// endpoint values through Override before the controllers are built; there
// is no runtime reconfiguration after that.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEditEndpoint is used when EDIT_API_URL is unset.
const DefaultEditEndpoint = "http://localhost:8000/api/edit"

// Config holds all configuration for the studio.
type Config struct {
	// EditEndpoint receives the multipart edit request.
	EditEndpoint string
	// ResultBaseURL is joined with relative image references returned by the
	// edit service. Defaults to the origin of EditEndpoint.
	ResultBaseURL string

	RequestTimeout      time.Duration
	MaxUploadBytes      int64
	PreviewMaxDimension int
	PreviewAddr         string

	baseExplicit bool
}

// Load reads the configuration from the environment. A missing .env file is
// not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := &Config{
		EditEndpoint:        getEnv("EDIT_API_URL", DefaultEditEndpoint),
		ResultBaseURL:       strings.TrimSpace(os.Getenv("EDIT_RESULT_BASE_URL")),
		RequestTimeout:      time.Second * time.Duration(getEnvInt("EDIT_REQUEST_TIMEOUT_SECONDS", 120)),
		MaxUploadBytes:      int64(getEnvInt("EDIT_MAX_UPLOAD_MB", 10)) << 20,
		PreviewMaxDimension: getEnvInt("PREVIEW_MAX_DIMENSION", 512),
		PreviewAddr:         getEnv("PREVIEW_ADDR", "127.0.0.1:0"),
	}
	cfg.baseExplicit = cfg.ResultBaseURL != ""

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Override replaces the endpoint and/or result base with non-empty values.
// When only the endpoint changes and the base was never set explicitly, the
// base is re-derived from the new endpoint.
func (c *Config) Override(endpoint, baseURL string) error {
	if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
		c.EditEndpoint = endpoint
		if !c.baseExplicit {
			c.ResultBaseURL = ""
		}
	}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		c.ResultBaseURL = baseURL
		c.baseExplicit = true
	}
	return c.Validate()
}

// Validate checks required fields and fills the derived result base.
func (c *Config) Validate() error {
	if _, err := parseAbsoluteHTTP(c.EditEndpoint); err != nil {
		return fmt.Errorf("EDIT_API_URL: %w", err)
	}

	if c.ResultBaseURL == "" {
		origin, err := OriginOf(c.EditEndpoint)
		if err != nil {
			return fmt.Errorf("EDIT_API_URL: %w", err)
		}
		c.ResultBaseURL = origin
	}
	if _, err := parseAbsoluteHTTP(c.ResultBaseURL); err != nil {
		return fmt.Errorf("EDIT_RESULT_BASE_URL: %w", err)
	}
	c.ResultBaseURL = strings.TrimRight(c.ResultBaseURL, "/")

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("EDIT_REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("EDIT_MAX_UPLOAD_MB must be positive")
	}
	if c.PreviewMaxDimension <= 0 {
		return fmt.Errorf("PREVIEW_MAX_DIMENSION must be positive")
	}
	return nil
}

// OriginOf returns scheme://host[:port] of an absolute URL.
func OriginOf(raw string) (string, error) {
	u, err := parseAbsoluteHTTP(raw)
	if err != nil {
		return "", err
	}
	return u.Scheme + "://" + u.Host, nil
}

func parseAbsoluteHTTP(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("URL %q has no host", raw)
	}
	return u, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}
