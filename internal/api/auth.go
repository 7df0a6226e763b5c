package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/boxoffice/internal/gateway"
	"github.com/wolfeidau/boxoffice/internal/session"
)

const (
	SignInPath  = "/api/users/signin"
	SignOutPath = "/api/users/signout"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn authenticates with email and password and stores the new session.
// Transport failures (backend not up yet) are retried with exponential
// backoff; any HTTP answer is final.
func (c *Client) SignIn(ctx context.Context, email, password string) (*session.Session, error) {
	operation := func() (SignInResponse, error) {
		resp, err := sendJSON[SignInResponse](ctx, c, http.MethodPost, SignInPath, signInRequest{
			Email:    email,
			Password: password,
		})
		if err != nil && isHTTPError(err) {
			return resp, backoff.Permanent(err)
		}
		return resp, err
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.signInRetries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Dur("retry_in", next).Msg("sign in failed, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("sign in failed: %w", err)
	}

	if !resp.Success || resp.Token == "" {
		return nil, ErrSignInRejected
	}

	sess := newSession(time.Now(), resp)
	if err := c.store.Set(sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	log.Info().
		Str("email", sess.Email).
		Str("role", sess.Role).
		Msg("signed in")

	return sess, nil
}

// SignOut notifies the backend and clears the local session. The local
// session is cleared even when the backend call fails.
func (c *Client) SignOut(ctx context.Context) error {
	sess := c.store.Get()
	if sess != nil {
		err := c.do(ctx, http.MethodPost, SignOutPath, map[string]string{"email": sess.Email}, nil)
		if err != nil {
			log.Warn().Err(err).Msg("backend sign out failed")
		}
	}

	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	return nil
}

// Register creates a customer account.
func (c *Client) Register(ctx context.Context, customer Customer) (*Customer, error) {
	return sendJSON[*Customer](ctx, c, http.MethodPost, "/api/customers", customer)
}

// GetCustomer returns a customer profile.
func (c *Client) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	return getJSON[*Customer](ctx, c, fmt.Sprintf("/api/customers/%d", id))
}

func newSession(now time.Time, resp SignInResponse) *session.Session {
	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = session.DefaultTokenType
	}

	return &session.Session{
		AccessToken:      resp.Token,
		TokenType:        tokenType,
		AccessExpiresIn:  resp.ExpiresIn,
		AccessExpiresAt:  session.ResolveExpiry(now, resp.ExpiresAt, resp.ExpiresIn),
		RefreshToken:     resp.RefreshToken,
		RefreshExpiresIn: resp.RefreshTokenExpiresIn,
		RefreshExpiresAt: session.ResolveExpiry(now, resp.RefreshTokenExpiresAt, resp.RefreshTokenExpiresIn),
		Identity: session.Identity{
			UserID: resp.UserID,
			Email:  resp.Email,
			Role:   resp.Role,
			Name:   resp.Name,
		},
	}
}

// isHTTPError reports whether err came from a backend answer rather than a
// transport failure.
func isHTTPError(err error) bool {
	var statusErr *StatusError
	var authErr *gateway.AuthError
	return errors.As(err, &statusErr) || errors.As(err, &authErr)
}
