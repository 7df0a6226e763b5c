// Package backendtest runs an in-process movie booking backend for tests.
//
// It implements sign in, token refresh with rotation, and in-memory CRUD for
// the catalog, bookings and customers behind bearer auth. Access tokens are HS256 JWTs; a token is accepted only
// while it is the most recently issued one, so revoking tokens or refreshing
// makes every older token answer 401.
package backendtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AdminEmail    = "admin@mymovie.com"
	AdminPassword = "admin123"
	AdminUserID   = 1

	// AccessTTL and RefreshTTL are reported to clients in milliseconds.
	AccessTTL  = time.Hour
	RefreshTTL = 2 * time.Hour
)

var signingKey = []byte("backendtest-signing-key")

// Request is a request observed by the server.
type Request struct {
	Method        string
	Path          string
	Authorization string
}

// Server is a fake backend. The zero value is not usable; call New.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	accessToken   string
	refreshToken  string
	refreshCalls  int
	refreshBodies []string
	requests      []Request
	resources     map[string]*resource

	refreshHook     func()
	refreshStatus   int
	refreshError    string
	refreshOverride map[string]any
}

// New starts a server and closes it when the test ends.
func New(t testing.TB) *Server {
	s := &Server{resources: seedResources()}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/signin", s.handleSignIn)
	mux.HandleFunc("POST /api/users/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/users/signout", s.protected(s.handleSignOut))
	mux.HandleFunc("POST /api/echo", s.protected(s.handleEcho))

	for _, kind := range []string{Movies, Theatres, Screens, Shows, Bookings} {
		s.routeResource(mux, kind, s.protected)
	}
	// registration is open to anyone
	s.routeResource(mux, Customers, func(next http.HandlerFunc) http.HandlerFunc { return next })

	mux.HandleFunc("GET /api/movies/theatre/{id}", s.protected(s.handleMoviesByTheatre))
	mux.HandleFunc("GET /api/theatres/city/{city}", s.protected(s.handleList(Theatres, matchCity)))
	mux.HandleFunc("GET /api/screens/theatre/{id}", s.protected(s.handleList(Screens, matchPathID("theatreId"))))
	mux.HandleFunc("GET /api/shows/theatre/{id}", s.protected(s.handleList(Shows, matchPathID("theatreId"))))
	mux.HandleFunc("GET /api/bookings/customer/{id}", s.protected(s.handleList(Bookings, matchPathID("customerId"))))
	mux.HandleFunc("POST /api/payments/create-intent", s.protected(s.handlePaymentIntent))

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)

	return s
}

// IssueTokens mints a new access/refresh pair, invalidating the previous one.
func (s *Server) IssueTokens() (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked()
}

// RevokeAccessToken makes the current access token answer 401 while keeping
// the refresh token valid.
func (s *Server) RevokeAccessToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
}

// AccessToken returns the currently valid access token.
func (s *Server) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// RefreshToken returns the currently valid refresh token.
func (s *Server) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken
}

// RefreshCalls returns how many refresh requests reached the server.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// RefreshBodies returns the raw bodies of refresh requests.
func (s *Server) RefreshBodies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.refreshBodies...)
}

// Requests returns every request observed, in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the requests observed for method and path.
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// OnRefresh runs hook inside the refresh handler before it answers.
func (s *Server) OnRefresh(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshHook = hook
}

// FailRefresh makes refresh answer status with {"error": message}.
func (s *Server) FailRefresh(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshStatus = status
	s.refreshError = message
}

// OverrideRefresh makes a successful refresh answer body instead of a new pair.
func (s *Server) OverrideRefresh(body map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshOverride = body
}

// SignInPayload is what a successful sign in answers.
func (s *Server) SignInPayload(access, refresh string) map[string]any {
	now := time.Now()
	return map[string]any{
		"success":               true,
		"token":                 access,
		"refreshToken":          refresh,
		"tokenType":             "Bearer",
		"email":                 AdminEmail,
		"role":                  "ADMIN",
		"userId":                AdminUserID,
		"expiresIn":             AccessTTL.Milliseconds(),
		"expiresAt":             now.Add(AccessTTL).UnixMilli(),
		"refreshTokenExpiresIn": RefreshTTL.Milliseconds(),
		"refreshTokenExpiresAt": now.Add(RefreshTTL).UnixMilli(),
	}
}

func (s *Server) issueLocked() (string, string) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  AdminEmail,
		"role": "ADMIN",
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  now.Add(AccessTTL).Unix(),
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(fmt.Sprintf("backendtest: sign token: %v", err))
	}

	s.accessToken = access
	s.refreshToken = "refresh-" + uuid.NewString()

	return s.accessToken, s.refreshToken
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Missing token"})
			return
		}

		raw, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || !s.validAccessToken(raw) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
			return
		}

		next(w, r)
	}
}

func (s *Server) validAccessToken(raw string) bool {
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return raw == s.accessToken
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Email == "" || creds.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Email and password are required"})
		return
	}

	if creds.Email != AdminEmail || creds.Password != AdminPassword {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid email or password"})
		return
	}

	access, refresh := s.IssueTokens()
	writeJSON(w, http.StatusOK, s.SignInPayload(access, refresh))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil || json.Unmarshal(raw, &body) != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid refresh request"})
		return
	}

	s.mu.Lock()
	s.refreshCalls++
	s.refreshBodies = append(s.refreshBodies, string(raw))
	hook := s.refreshHook
	status, message := s.refreshStatus, s.refreshError
	override := s.refreshOverride
	s.mu.Unlock()

	if hook != nil {
		hook()
	}

	if status != 0 {
		writeJSON(w, status, map[string]any{"error": message})
		return
	}

	if override != nil {
		writeJSON(w, http.StatusOK, override)
		return
	}

	s.mu.Lock()
	if body.RefreshToken == "" || body.RefreshToken != s.refreshToken {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid refresh token"})
		return
	}
	access, refresh := s.issueLocked()
	s.mu.Unlock()

	now := time.Now()
	writeJSON(w, http.StatusOK, map[string]any{
		"token":                 access,
		"refreshToken":          refresh,
		"tokenType":             "Bearer",
		"expiresIn":             AccessTTL.Milliseconds(),
		"expiresAt":             now.Add(AccessTTL).UnixMilli(),
		"refreshTokenExpiresIn": RefreshTTL.Milliseconds(),
		"refreshTokenExpiresAt": now.Add(RefreshTTL).UnixMilli(),
		"role":                  "ADMIN",
		"email":                 AdminEmail,
	})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.accessToken = ""
	s.refreshToken = ""
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"email": AdminEmail})
}

// handleEcho returns the request body so tests can check replayed bodies.
func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	var body any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
