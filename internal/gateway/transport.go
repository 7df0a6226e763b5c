package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/boxoffice/internal/session"
	"github.com/wolfeidau/boxoffice/internal/telemetry"
)

const authHeader = "Authorization"

var _ http.RoundTripper = (*Transport)(nil)

// Transport authenticates requests with the stored session and refreshes
// expired access tokens.
type Transport struct {
	store     *session.Store
	refresher Refresher
	base      http.RoundTripper
	now       func() time.Time
	metrics   *telemetry.Metrics

	flight flight
}

// Option configures a Transport.
type Option func(*Transport)

// WithBase sets the transport used to send requests. Defaults to http.DefaultTransport.
func WithBase(base http.RoundTripper) Option {
	return func(t *Transport) {
		t.base = base
	}
}

// WithClock overrides time.Now for refresh token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(t *Transport) {
		t.now = now
	}
}

// NewTransport creates the gateway transport. store and refresher are shared
// by every request sent through it.
func NewTransport(store *session.Store, refresher Refresher, opts ...Option) *Transport {
	t := &Transport{
		store:     store,
		refresher: refresher,
		base:      http.DefaultTransport,
		now:       time.Now,
		metrics:   telemetry.GetMetrics(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type replayKey struct{}

// replay marks a request that was already retried after a refresh, pinned to
// the session it must be sent with.
type replay struct {
	session *session.Session
}

func replayOf(req *http.Request) *replay {
	r, _ := req.Context().Value(replayKey{}).(*replay)
	return r
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if isRefreshRequest(req) {
		return t.roundTripRefresh(req)
	}

	req, err := replayable(req)
	if err != nil {
		return nil, err
	}

	sent := t.authorize(req)

	resp, err := t.base.RoundTrip(sent)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	return t.handleUnauthorized(req, sent, resp)
}

// roundTripRefresh sends a refresh call unauthenticated and never retries it.
// A 401 from the refresh endpoint means the session is gone.
func (t *Transport) roundTripRefresh(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		t.expire(readErrorMessage(resp))
	}

	return resp, nil
}

// authorize returns a copy of req carrying the session credentials. Replays
// use the session they were pinned to, everything else the stored session.
func (t *Transport) authorize(req *http.Request) *http.Request {
	sess := t.store.Get()
	if r := replayOf(req); r != nil {
		sess = r.session
	}

	out := req.Clone(req.Context())
	if sess == nil || sess.AccessToken == "" {
		return out
	}

	out.Header.Set(authHeader, sess.AuthorizationHeader())
	return out
}

// handleUnauthorized handles a 401 for req, which was sent as sent.
func (t *Transport) handleUnauthorized(req, sent *http.Request, resp *http.Response) (*http.Response, error) {
	ctx := req.Context()
	message := readErrorMessage(resp)

	fail := func(err error) (*http.Response, error) {
		closeBody(resp)
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: message, Err: err}
	}

	// a replay that fails again is final whatever state the session is in
	if replayOf(req) != nil {
		t.expire(message)
		return fail(ErrRetryExhausted)
	}

	sess := t.store.Get()
	if sess == nil {
		return fail(ErrUnauthenticated)
	}

	if !sess.HasRefreshToken() {
		t.expire(message)
		return fail(ErrRefreshTokenMissing)
	}

	if sess.RefreshExpired(t.now()) {
		t.expire(RefreshExpiredReason)
		return fail(ErrRefreshTokenExpired)
	}

	joined := t.flight.join(t.store, sent.Header.Get(authHeader))

	var (
		next *session.Session
		err  error
	)
	switch {
	case joined.leader:
		next, err = t.refresh(ctx, joined.session)
	case joined.wait != nil:
		t.metrics.RefreshWaitersTotal.Add(ctx, 1)
		log.Debug().Str("path", req.URL.Path).Msg("waiting for in-flight token refresh")

		select {
		case res := <-joined.wait:
			next, err = res.session, res.err
		case <-ctx.Done():
			closeBody(resp)
			return nil, ctx.Err()
		}
	case joined.session != nil:
		// a refresh completed while this request was in flight
		next = joined.session
	default:
		// the session was dropped concurrently
		return fail(ErrUnauthenticated)
	}

	if err != nil {
		return fail(err)
	}

	closeBody(resp)

	retry, err := t.replayRequest(req, next)
	if err != nil {
		return nil, err
	}

	t.metrics.ReplaysTotal.Add(ctx, 1)

	return t.RoundTrip(retry)
}

// refresh runs the refresh call as the flight leader, stores or expires the
// session, then releases the parked requests.
func (t *Transport) refresh(ctx context.Context, current *session.Session) (*session.Session, error) {
	started := time.Now()

	// one caller giving up must not fail every request parked behind it
	updated, err := t.refresher.Refresh(context.WithoutCancel(ctx), current)
	if err == nil {
		if setErr := t.store.Set(updated); setErr != nil {
			err = fmt.Errorf("%w: %w", ErrRefreshCallFailed, setErr)
		}
	}

	t.metrics.RefreshTotal.Add(ctx, 1)
	t.metrics.RefreshDuration.Record(ctx, float64(time.Since(started).Milliseconds()),
		metric.WithAttributes(attribute.Bool("success", err == nil)))

	if err != nil {
		t.metrics.RefreshErrorsTotal.Add(ctx, 1)
		log.Warn().
			Err(err).
			Str("fingerprint", current.Fingerprint()).
			Msg("token refresh failed")

		t.expire(reasonOf(err))
		t.flight.finish(nil, err)
		return nil, err
	}

	log.Debug().
		Str("fingerprint", updated.Fingerprint()).
		Msg("token refreshed")

	t.flight.finish(updated, nil)
	return updated, nil
}

func (t *Transport) expire(reason string) {
	if err := t.store.Expire(reason); err != nil {
		log.Error().Err(err).Msg("failed to clear expired session")
		return
	}
	t.metrics.SessionExpiredTotal.Add(context.Background(), 1)
}

func (t *Transport) replayRequest(req *http.Request, sess *session.Session) (*http.Request, error) {
	ctx := context.WithValue(req.Context(), replayKey{}, &replay{session: sess})
	retry := req.Clone(ctx)

	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		retry.Body = body
	}

	return retry, nil
}

func isRefreshRequest(req *http.Request) bool {
	return strings.HasSuffix(strings.TrimRight(req.URL.Path, "/"), RefreshPath)
}

// replayable buffers a request body that cannot be rewound.
func replayable(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return req, nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to buffer request body: %w", err)
	}

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(data))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	out.ContentLength = int64(len(data))

	return out, nil
}

// readErrorMessage reads the error text from resp and restores the body for
// the caller.
func readErrorMessage(resp *http.Response) string {
	if resp.Body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	return ErrorMessage(data)
}

func closeBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
}
