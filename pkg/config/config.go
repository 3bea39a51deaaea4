// Package config provides the runtime configuration for the map tool server:
// provider base URLs, credentials, the outbound request timeout, and the
// politeness rate limits applied to each public API.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mapmcp/mapmcp/pkg/version"
)

// Default provider endpoints. These are the public instances; deployments
// with their own Nominatim/Overpass/OSRM can override them in the config file.
const (
	DefaultNominatimBaseURL = "https://nominatim.openstreetmap.org"
	DefaultOverpassBaseURL  = "https://overpass-api.de/api/interpreter"
	DefaultOSRMBaseURL      = "https://router.project-osrm.org"

	// DefaultTimeoutSeconds bounds every outbound request.
	DefaultTimeoutSeconds = 10.0
)

// DefaultUserAgent identifies this server to upstream providers.
// Nominatim's usage policy requires a meaningful User-Agent.
var DefaultUserAgent = version.UserAgent()

// Provider holds the per-provider settings.
type Provider struct {
	// BaseURL overrides the provider endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey is an optional credential sent as a bearer token.
	// The public instances need none; commercial OSRM-compatible
	// services typically do.
	APIKey string `yaml:"api_key"`

	// RateRPS and RateBurst configure the politeness limiter for this
	// provider. RateRPS <= 0 disables throttling.
	RateRPS   float64 `yaml:"rate_rps"`
	RateBurst int     `yaml:"rate_burst"`
}

// Config is the full server configuration.
type Config struct {
	UserAgent      string   `yaml:"user_agent"`
	TimeoutSeconds float64  `yaml:"timeout_seconds"`
	Nominatim      Provider `yaml:"nominatim"`
	Overpass       Provider `yaml:"overpass"`
	OSRM           Provider `yaml:"osrm"`
}

// Default returns the configuration for the public endpoints.
// The rate limits follow the published usage policies:
// Nominatim allows 1 request per second, the public Overpass instance
// asks for at most a couple of concurrent queries, and the OSRM demo
// server is kept well below any abusive rate.
func Default() Config {
	return Config{
		UserAgent:      DefaultUserAgent,
		TimeoutSeconds: DefaultTimeoutSeconds,
		Nominatim: Provider{
			BaseURL:   DefaultNominatimBaseURL,
			RateRPS:   1,
			RateBurst: 1,
		},
		Overpass: Provider{
			BaseURL:   DefaultOverpassBaseURL,
			RateRPS:   1.0 / 30.0,
			RateBurst: 2,
		},
		OSRM: Provider{
			BaseURL:   DefaultOSRMBaseURL,
			RateRPS:   2,
			RateBurst: 5,
		},
	}
}

// Load reads a YAML config file and merges it over the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c Config) Validate() error {
	if c.UserAgent == "" {
		return fmt.Errorf("user_agent must not be empty")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %f", c.TimeoutSeconds)
	}
	for _, p := range []struct {
		name string
		prov Provider
	}{
		{"nominatim", c.Nominatim},
		{"overpass", c.Overpass},
		{"osrm", c.OSRM},
	} {
		u, err := url.Parse(p.prov.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s.base_url is not a valid URL: %q", p.name, p.prov.BaseURL)
		}
		// A throttled limiter with zero burst rejects every wait.
		if p.prov.RateRPS > 0 && p.prov.RateBurst < 1 {
			return fmt.Errorf("%s.rate_burst must be at least 1 when rate_rps is set, got %d", p.name, p.prov.RateBurst)
		}
	}
	return nil
}

// Timeout returns the outbound request timeout as a time.Duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}
