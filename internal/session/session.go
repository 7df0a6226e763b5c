package session

import (
	"crypto/sha256"
	"time"

	"github.com/mr-tron/base58"
	"golang.org/x/oauth2"
)

// DefaultTokenType is used when the backend omits tokenType.
const DefaultTokenType = "Bearer"

// Identity is the signed in user as reported by the backend.
type Identity struct {
	UserID int64  `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Session is the persisted record of the current user's tokens and identity.
// Expiry fields hold absolute epoch milliseconds.
type Session struct {
	AccessToken      string `json:"token"`
	TokenType        string `json:"tokenType,omitempty"`
	AccessExpiresIn  *int64 `json:"expiresIn,omitempty"`
	AccessExpiresAt  *int64 `json:"expiresAt,omitempty"`
	RefreshToken     string `json:"refreshToken,omitempty"`
	RefreshExpiresIn *int64 `json:"refreshTokenExpiresIn,omitempty"`
	RefreshExpiresAt *int64 `json:"refreshTokenExpiresAt,omitempty"`

	Identity
}

// Type returns the normalised token type, defaulting to Bearer.
func (s *Session) Type() string {
	return s.OAuth2Token().Type()
}

// AuthorizationHeader returns the value for the Authorization header.
func (s *Session) AuthorizationHeader() string {
	return s.Type() + " " + s.AccessToken
}

// AccessExpired reports whether the access token expiry is known and has passed.
func (s *Session) AccessExpired(now time.Time) bool {
	return expired(s.AccessExpiresAt, now)
}

// RefreshExpired reports whether the refresh token expiry is known and has passed.
func (s *Session) RefreshExpired(now time.Time) bool {
	return expired(s.RefreshExpiresAt, now)
}

// HasRefreshToken returns true if the session can be refreshed.
func (s *Session) HasRefreshToken() bool {
	return s.RefreshToken != ""
}

// OAuth2Token converts the session to an oauth2 token.
func (s *Session) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    s.TokenType,
		RefreshToken: s.RefreshToken,
	}
	if s.AccessExpiresAt != nil {
		tok.Expiry = time.UnixMilli(*s.AccessExpiresAt)
	}
	return tok
}

// Fingerprint identifies the session in logs without exposing a token.
// Base58-encoded SHA256 of the refresh token, or of the access token when
// there is no refresh token.
func (s *Session) Fingerprint() string {
	src := s.RefreshToken
	if src == "" {
		src = s.AccessToken
	}
	if src == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(src))
	return base58.Encode(hash[:8])
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.AccessExpiresIn = copyInt64(s.AccessExpiresIn)
	c.AccessExpiresAt = copyInt64(s.AccessExpiresAt)
	c.RefreshExpiresIn = copyInt64(s.RefreshExpiresIn)
	c.RefreshExpiresAt = copyInt64(s.RefreshExpiresAt)
	return &c
}

// ResolveExpiry turns the optional absolute/duration pair from the backend into
// an absolute epoch millisecond timestamp. An absolute value wins, then
// now+duration, otherwise nil.
func ResolveExpiry(now time.Time, at, in *int64) *int64 {
	if at != nil {
		return copyInt64(at)
	}
	if in != nil {
		v := now.UnixMilli() + *in
		return &v
	}
	return nil
}

func expired(at *int64, now time.Time) bool {
	return at != nil && now.UnixMilli() > *at
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
