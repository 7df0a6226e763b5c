package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/wolfeidau/boxoffice/internal/client"
	"github.com/wolfeidau/boxoffice/internal/gateway"
	"github.com/wolfeidau/boxoffice/internal/session"
)

const maxResponseBytes = 4 << 20

// Sentinel errors
var (
	// ErrSignInRejected is returned when the backend answers a sign in without
	// success or without a token.
	ErrSignInRejected = errors.New("sign in rejected")

	// ErrNotSignedIn is returned by calls that need the signed in user's identity.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrInvalidShowTimes is returned when a show does not end after it starts.
	ErrInvalidShowTimes = errors.New("show must end after it starts")
)

// StatusError is returned for any non-2xx backend response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Client is the typed backend client. Every call goes through the
// authenticated gateway.
type Client struct {
	endpoint *client.Endpoint
	store    *session.Store
	http     *http.Client

	signInRetries uint
}

// Option configures a Client.
type Option func(*Client)

// WithSignInRetries sets how many times sign in is attempted when the backend
// cannot be reached.
func WithSignInRetries(n uint) Option {
	return func(c *Client) {
		c.signInRetries = n
	}
}

// New wires the transport chain for cfg: the gateway sits on top of the
// optional session cache, request logging and OpenTelemetry. The refresh
// client shares the same endpoint and base transport but bypasses the gateway.
func New(cfg client.Config, store *session.Store, log zerolog.Logger, opts ...Option) (*Client, error) {
	endpoint, err := client.ParseEndpoint(cfg.ServerURL)
	if err != nil {
		return nil, err
	}

	base := client.NewTransport(log)

	refresher := gateway.NewRefreshClient(endpoint, &http.Client{
		Transport: base,
		Timeout:   cfg.Timeout,
	})

	inner := base
	if cfg.Cache {
		inner = client.NewCachingTransport(store, base)
	}

	c := &Client{
		endpoint: endpoint,
		store:    store,
		http: &http.Client{
			Transport: gateway.NewTransport(store, refresher, gateway.WithBase(inner)),
			Timeout:   cfg.Timeout,
		},
		signInRetries: 3,
	}
	for _, opt := range opts {
		opt(c)
	}

	log.Debug().
		Str("endpoint", endpoint.String()).
		Bool("cache", cfg.Cache).
		Msg("api client initialized")

	return c, nil
}

// Store returns the session store the client authenticates with.
func (c *Client) Store() *session.Store {
	return c.store
}

// Endpoint returns the backend endpoint.
func (c *Client) Endpoint() *client.Endpoint {
	return c.endpoint
}

// Do sends a raw request through the gateway.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, unwrapTransportError(err)
	}
	return resp, nil
}

// NewRequest builds a request for path on the backend endpoint.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, method, c.endpoint.URL(path), body)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: gateway.ErrorMessage(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}

	return nil
}

func getJSON[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func sendJSON[T any](ctx context.Context, c *Client, method, path string, in any) (T, error) {
	var out T
	err := c.do(ctx, method, path, in, &out)
	return out, err
}

// unwrapTransportError surfaces the gateway's AuthError from the *url.Error
// wrapper added by http.Client.
func unwrapTransportError(err error) error {
	var authErr *gateway.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return err
}
