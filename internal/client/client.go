package client

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wolfeidau/boxoffice/internal/logger"
)

// ErrInvalidServerURL is returned when the configured server URL cannot be used.
var ErrInvalidServerURL = errors.New("invalid server URL")

// Config holds common client configuration
type Config struct {
	ServerURL string
	Timeout   time.Duration
	Debug     bool
	Cache     bool
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:8080",
		Timeout:   30 * time.Second,
		Debug:     false,
	}
}

// Endpoint is the backend origin, resolved once and shared by every client
// that talks to the backend.
type Endpoint struct {
	base *url.URL
}

// ParseEndpoint validates raw and returns the resolved endpoint.
func ParseEndpoint(raw string) (*Endpoint, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidServerURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidServerURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidServerURL)
	}

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""

	return &Endpoint{base: u}, nil
}

// URL joins path onto the endpoint.
func (e *Endpoint) URL(path string) string {
	return e.base.JoinPath(path).String()
}

func (e *Endpoint) String() string {
	return e.base.String()
}

// NewTransport assembles the transport chain used for every backend call,
// innermost first: net/http, request logging, OpenTelemetry.
func NewTransport(log zerolog.Logger) http.RoundTripper {
	base := http.DefaultTransport.(*http.Transport).Clone()
	return otelhttp.NewTransport(logger.NewTransport(log, base))
}
