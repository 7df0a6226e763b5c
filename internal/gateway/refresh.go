package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/boxoffice/internal/client"
	"github.com/wolfeidau/boxoffice/internal/session"
)

// RefreshPath is the backend endpoint exchanging a refresh token for a new pair.
const RefreshPath = "/api/users/refresh"

const maxResponseBytes = 1 << 20

// Refresher exchanges the refresh token of current for a new session.
type Refresher interface {
	Refresh(ctx context.Context, current *session.Session) (*session.Session, error)
}

var _ Refresher = (*RefreshClient)(nil)

// RefreshClient calls the refresh endpoint on a dedicated http.Client.
type RefreshClient struct {
	endpoint *client.Endpoint
	http     *http.Client
	now      func() time.Time
}

// NewRefreshClient creates a refresh client for endpoint. httpClient must not
// route through Transport.
func NewRefreshClient(endpoint *client.Endpoint, httpClient *http.Client) *RefreshClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RefreshClient{
		endpoint: endpoint,
		http:     httpClient,
		now:      time.Now,
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Token                 string `json:"token"`
	RefreshToken          string `json:"refreshToken"`
	TokenType             string `json:"tokenType"`
	ExpiresIn             *int64 `json:"expiresIn"`
	ExpiresAt             *int64 `json:"expiresAt"`
	RefreshTokenExpiresIn *int64 `json:"refreshTokenExpiresIn"`
	RefreshTokenExpiresAt *int64 `json:"refreshTokenExpiresAt"`
	Role                  string `json:"role"`
	Email                 string `json:"email"`
}

// Refresh fails fast without a network call when the refresh token is missing
// or expired.
func (c *RefreshClient) Refresh(ctx context.Context, current *session.Session) (*session.Session, error) {
	if current == nil || !current.HasRefreshToken() {
		return nil, &RefreshError{Err: ErrRefreshTokenMissing}
	}

	if current.RefreshExpired(c.now()) {
		return nil, &RefreshError{Err: ErrRefreshTokenExpired}
	}

	body, err := json.Marshal(refreshRequest{RefreshToken: current.RefreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.URL(RefreshPath), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Debug().
		Str("fingerprint", current.Fingerprint()).
		Str("endpoint", c.endpoint.String()).
		Msg("refreshing access token")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RefreshError{
			Message: err.Error(),
			Err:     fmt.Errorf("%w: %w", ErrRefreshCallFailed, err),
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &RefreshError{
			StatusCode: resp.StatusCode,
			Message:    err.Error(),
			Err:        fmt.Errorf("%w: %w", ErrRefreshCallFailed, err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RefreshError{
			StatusCode: resp.StatusCode,
			Message:    ErrorMessage(data),
			Err:        fmt.Errorf("%w: status %d", ErrRefreshCallFailed, resp.StatusCode),
		}
	}

	var payload refreshResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &RefreshError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %v", ErrInvalidRefreshResponse, err),
		}
	}

	if payload.Token == "" || payload.RefreshToken == "" {
		return nil, &RefreshError{StatusCode: resp.StatusCode, Err: ErrInvalidRefreshResponse}
	}

	return c.merge(current, payload), nil
}

// merge builds the rotated session. Identity fields missing from the refresh
// response carry over from current.
func (c *RefreshClient) merge(current *session.Session, payload refreshResponse) *session.Session {
	now := c.now()

	updated := current.Clone()
	updated.AccessToken = payload.Token
	updated.TokenType = payload.TokenType
	if updated.TokenType == "" {
		updated.TokenType = session.DefaultTokenType
	}
	updated.AccessExpiresIn = payload.ExpiresIn
	updated.AccessExpiresAt = session.ResolveExpiry(now, payload.ExpiresAt, payload.ExpiresIn)
	updated.RefreshToken = payload.RefreshToken
	updated.RefreshExpiresIn = payload.RefreshTokenExpiresIn
	updated.RefreshExpiresAt = session.ResolveExpiry(now, payload.RefreshTokenExpiresAt, payload.RefreshTokenExpiresIn)

	if payload.Role != "" {
		updated.Role = payload.Role
	}
	if payload.Email != "" {
		updated.Email = payload.Email
	}

	return updated
}

// ErrorMessage extracts the backend's {"error": "..."} or {"message": "..."}
// text from a response body. It returns "" for anything else.
func ErrorMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
