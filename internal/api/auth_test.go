package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/boxoffice/internal/backendtest"
	"github.com/wolfeidau/boxoffice/internal/client"
	"github.com/wolfeidau/boxoffice/internal/gateway"
	"github.com/wolfeidau/boxoffice/internal/session"
)

func TestClient_SignIn(t *testing.T) {
	c, srv := newTestClient(t)

	var changed []*session.Session
	c.Store().OnChanged(func(s *session.Session) {
		changed = append(changed, s)
	})

	before := time.Now()
	sess, err := c.SignIn(t.Context(), backendtest.AdminEmail, backendtest.AdminPassword)
	require.NoError(t, err)

	assert.Equal(t, srv.AccessToken(), sess.AccessToken)
	assert.Equal(t, srv.RefreshToken(), sess.RefreshToken)
	assert.Equal(t, "Bearer", sess.TokenType)
	assert.Equal(t, int64(backendtest.AdminUserID), sess.UserID)
	assert.Equal(t, backendtest.AdminEmail, sess.Email)
	assert.Equal(t, "ADMIN", sess.Role)

	require.NotNil(t, sess.AccessExpiresAt)
	assert.GreaterOrEqual(t, *sess.AccessExpiresAt, before.Add(backendtest.AccessTTL).UnixMilli())
	require.NotNil(t, sess.RefreshExpiresAt)
	assert.Greater(t, *sess.RefreshExpiresAt, *sess.AccessExpiresAt)

	require.Len(t, changed, 1)
	assert.Equal(t, sess.AccessToken, c.Store().Get().AccessToken)
}

func TestClient_SignInRejected(t *testing.T) {
	c, srv := newTestClient(t)

	_, err := c.SignIn(t.Context(), backendtest.AdminEmail, "wrong")
	require.Error(t, err)

	var authErr *gateway.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid email or password", authErr.Message)

	assert.Nil(t, c.Store().Get())
	assert.Len(t, srv.RequestsTo(http.MethodPost, SignInPath), 1, "HTTP failures are not retried")
}

func TestClient_SignInWithoutSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	store := session.NewStore(session.NewMemoryBackend())
	c, err := New(client.Config{ServerURL: srv.URL, Timeout: 5 * time.Second}, store, zerolog.Nop())
	require.NoError(t, err)

	_, err = c.SignIn(t.Context(), "someone@mymovie.com", "secret")
	assert.ErrorIs(t, err, ErrSignInRejected)
	assert.Nil(t, store.Get())
}

func TestClient_SignInUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	store := session.NewStore(session.NewMemoryBackend())
	c, err := New(client.Config{ServerURL: srv.URL, Timeout: time.Second}, store, zerolog.Nop(), WithSignInRetries(1))
	require.NoError(t, err)

	_, err = c.SignIn(t.Context(), backendtest.AdminEmail, backendtest.AdminPassword)
	require.Error(t, err)
	assert.False(t, isHTTPError(err))
	assert.Nil(t, store.Get())
}

func TestClient_SignOut(t *testing.T) {
	c, srv := newTestClient(t)
	sess := signIn(t, c)

	var changed []*session.Session
	c.Store().OnChanged(func(s *session.Session) {
		changed = append(changed, s)
	})

	require.NoError(t, c.SignOut(t.Context()))

	assert.Nil(t, c.Store().Get())
	require.Len(t, changed, 1)
	assert.Nil(t, changed[0])

	reqs := srv.RequestsTo(http.MethodPost, SignOutPath)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer "+sess.AccessToken, reqs[0].Authorization)
}

func TestClient_SignOutWithoutSession(t *testing.T) {
	c, srv := newTestClient(t)

	require.NoError(t, c.SignOut(t.Context()))
	assert.Empty(t, srv.RequestsTo(http.MethodPost, SignOutPath))
}

func TestNewSession(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	expiresIn := int64(3_600_000)

	sess := newSession(now, SignInResponse{
		Success:      true,
		Token:        "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    &expiresIn,
		Role:         "CUSTOMER",
		Email:        "c@mymovie.com",
		UserID:       9,
	})

	assert.Equal(t, session.DefaultTokenType, sess.TokenType)
	require.NotNil(t, sess.AccessExpiresAt)
	assert.Equal(t, now.Add(time.Hour).UnixMilli(), *sess.AccessExpiresAt)
	assert.Nil(t, sess.RefreshExpiresAt)
	assert.Equal(t, int64(9), sess.UserID)
}

func TestClient_RegisterAndGetCustomer(t *testing.T) {
	c, srv := newTestClient(t)

	customer, err := c.Register(t.Context(), Customer{
		CustomerName: "Priya",
		Email:        "priya@mymovie.com",
		Password:     "s3cret",
		MobileNumber: "9820000000",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, customer.CustomerID)
	assert.Empty(t, customer.Password)

	reqs := srv.RequestsTo(http.MethodPost, "/api/customers")
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].Authorization)

	// reading a profile needs a session
	_, err = c.GetCustomer(t.Context(), int64(customer.CustomerID))
	assert.ErrorIs(t, err, gateway.ErrUnauthenticated)

	signIn(t, c)
	got, err := c.GetCustomer(t.Context(), int64(customer.CustomerID))
	require.NoError(t, err)
	assert.Equal(t, "priya@mymovie.com", got.Email)
	assert.Equal(t, "9820000000", got.MobileNumber)

	_, err = c.GetCustomer(t.Context(), 99)
	requireStatus(t, err, http.StatusNotFound)
}
