// Package osm provides HTTP access to the OpenStreetMap service family
// used by the map tools: Nominatim for geocoding, Overpass for POI
// queries, and OSRM for routing.
package osm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mapmcp/mapmcp/pkg/config"
)

// Service names used for rate limiting, error reporting, and base URL
// lookup. Each public OSM service has its own usage policy, so requests
// are throttled per service rather than globally.
const (
	ServiceNominatim = "nominatim"
	ServiceOverpass  = "overpass"
	ServiceOSRM      = "osrm"
)

// ErrorKind classifies request failures so callers can report them
// without inspecting transport internals.
type ErrorKind string

const (
	// KindTimeout covers deadline expiry, both from the request context
	// and from the client's own timeout.
	KindTimeout ErrorKind = "timeout"

	// KindNetwork covers transport failures before a response arrives:
	// DNS errors, refused connections, resets.
	KindNetwork ErrorKind = "network"

	// KindUpstreamStatus means the service answered with a non-2xx code.
	KindUpstreamStatus ErrorKind = "upstream_status"

	// KindBadPayload means the response body could not be decoded as the
	// expected JSON shape.
	KindBadPayload ErrorKind = "bad_payload"
)

// HTTPError describes a failed request to one of the OSM services.
type HTTPError struct {
	Service    string
	Kind       ErrorKind
	StatusCode int // set only for KindUpstreamStatus
	Message    string
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Service, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// serviceConfig is the per-service slice of the loaded configuration.
type serviceConfig struct {
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

// Client issues requests to the OSM services on behalf of the tool
// handlers. It owns the shared HTTP client, the per-service politeness
// limiters, and the identification headers the public instances require.
// Each request is attempted exactly once; there are no retries and no
// response caching.
type Client struct {
	httpClient *http.Client
	userAgent  string
	services   map[string]serviceConfig
	logger     *slog.Logger
}

// NewClient builds a Client from the loaded configuration. Services with
// a non-positive rate_rps are not throttled.
func NewClient(cfg config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: cfg.UserAgent,
		services: map[string]serviceConfig{
			ServiceNominatim: newServiceConfig(cfg.Nominatim),
			ServiceOverpass:  newServiceConfig(cfg.Overpass),
			ServiceOSRM:      newServiceConfig(cfg.OSRM),
		},
		logger: logger.With("component", "osm.client"),
	}
}

func newServiceConfig(p config.Provider) serviceConfig {
	sc := serviceConfig{
		baseURL: strings.TrimRight(p.BaseURL, "/"),
		apiKey:  p.APIKey,
	}
	if p.RateRPS > 0 {
		sc.limiter = rate.NewLimiter(rate.Limit(p.RateRPS), p.RateBurst)
	}
	return sc
}

// BaseURL returns the configured base URL for a service, without a
// trailing slash. Unknown services yield an empty string.
func (c *Client) BaseURL(service string) string {
	return c.services[service].baseURL
}

// GetJSON performs a GET against one of the services and decodes the
// JSON response into out.
func (c *Client) GetJSON(ctx context.Context, service, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &HTTPError{Service: service, Kind: KindNetwork, Message: "building request", Err: err}
	}
	return c.do(req, service, out)
}

// PostFormJSON performs a form-encoded POST against one of the services
// and decodes the JSON response into out. Overpass expects its query in
// this shape.
func (c *Client) PostFormJSON(ctx context.Context, service, rawURL string, form url.Values, out any) error {
	body := strings.NewReader(form.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, body)
	if err != nil {
		return &HTTPError{Service: service, Kind: KindNetwork, Message: "building request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, service, out)
}

func (c *Client) do(req *http.Request, service string, out any) error {
	sc, ok := c.services[service]
	if !ok {
		return &HTTPError{Service: service, Kind: KindNetwork, Message: "unknown service"}
	}

	if sc.limiter != nil {
		if err := sc.limiter.Wait(req.Context()); err != nil {
			return c.classify(service, "waiting for rate limiter", err)
		}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if sc.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+sc.apiKey)
	}

	c.logger.Debug("request", "service", service, "method", req.Method, "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classify(service, "performing request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		c.logger.Debug("upstream status", "service", service, "status", resp.StatusCode)
		return &HTTPError{
			Service:    service,
			Kind:       KindUpstreamStatus,
			StatusCode: resp.StatusCode,
			Message:    statusMessage(service, resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &HTTPError{Service: service, Kind: KindBadPayload, Message: "decoding response", Err: err}
	}
	return nil
}

// classify turns a transport-level failure into an HTTPError. Deadline
// expiry counts as a timeout; everything else, including caller
// cancellation, counts as a network failure.
func (c *Client) classify(service, msg string, err error) *HTTPError {
	kind := KindNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	} else {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			kind = KindTimeout
		}
	}
	c.logger.Debug("request failed", "service", service, "kind", string(kind), "error", err)
	return &HTTPError{Service: service, Kind: kind, Message: msg, Err: err}
}

// statusMessage gives a short, user-facing description of a non-2xx
// response, with a recovery hint where one exists for that service.
func statusMessage(service string, status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Sprintf("%s rate limit exceeded, wait before retrying", service)
	case http.StatusGatewayTimeout:
		return fmt.Sprintf("%s timed out processing the request, try a smaller query", service)
	case http.StatusBadRequest:
		return fmt.Sprintf("%s rejected the request as malformed", service)
	default:
		return fmt.Sprintf("%s returned status %d", service, status)
	}
}
