// Package auth is the session provider: Google OAuth sign-in exchanged
// for a signed JWT session cookie carrying {userId, email}.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "smartmark_session"

// ErrNoSession is returned when the request carries no valid session.
var ErrNoSession = errors.New("no valid session")

// Session identifies the authenticated caller.
type Session struct {
	UserID string
	Email  string
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Manager signs and validates session cookies.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
	}
}

// Issue signs a session token and sets it as an HTTP-only cookie.
func (m *Manager) Issue(w http.ResponseWriter, s Session) error {
	expires := time.Now().Add(m.ttl)
	claims := &sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email: s.Email,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear invalidates the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest extracts and validates the session from the cookie.
// Returns ErrNoSession for missing, malformed, or expired tokens.
func (m *Manager) FromRequest(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return Session{}, ErrNoSession
	}
	return m.Validate(cookie.Value)
}

// Validate parses and verifies a raw session token.
func (m *Manager) Validate(token string) (Session, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return Session{}, ErrNoSession
	}
	return Session{UserID: claims.Subject, Email: claims.Email}, nil
}
