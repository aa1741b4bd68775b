package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func issueCookie(t *testing.T, m *Manager, s Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := m.Issue(rec, s); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Issue set %d cookies, want 1", len(cookies))
	}
	return cookies[0]
}

func TestIssueAndFromRequestRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour, false)
	cookie := issueCookie(t, m, Session{UserID: "user-1", Email: "u@example.org"})

	if cookie.Name != SessionCookie || !cookie.HttpOnly {
		t.Errorf("unexpected cookie attributes: %+v", cookie)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	got, err := m.FromRequest(req)
	if err != nil {
		t.Fatalf("FromRequest failed: %v", err)
	}
	if got.UserID != "user-1" || got.Email != "u@example.org" {
		t.Errorf("session = %+v, want original identity", got)
	}
}

func TestFromRequestMissingCookie(t *testing.T) {
	m := NewManager("test-secret", time.Hour, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if _, err := m.FromRequest(req); !errors.Is(err, ErrNoSession) {
		t.Errorf("FromRequest error = %v, want ErrNoSession", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", -time.Minute, false)
	cookie := issueCookie(t, m, Session{UserID: "user-1"})

	if _, err := m.Validate(cookie.Value); !errors.Is(err, ErrNoSession) {
		t.Errorf("Validate error = %v, want ErrNoSession for expired token", err)
	}
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	issuer := NewManager("secret-a", time.Hour, false)
	verifier := NewManager("secret-b", time.Hour, false)
	cookie := issueCookie(t, issuer, Session{UserID: "user-1"})

	if _, err := verifier.Validate(cookie.Value); !errors.Is(err, ErrNoSession) {
		t.Errorf("Validate error = %v, want ErrNoSession for wrong key", err)
	}
}

func TestClearExpiresCookie(t *testing.T) {
	m := NewManager("test-secret", time.Hour, false)
	rec := httptest.NewRecorder()

	m.Clear(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Clear set %d cookies, want 1", len(cookies))
	}
	if cookies[0].Value != "" || cookies[0].Expires.After(time.Now()) {
		t.Errorf("Clear should set an empty expired cookie, got %+v", cookies[0])
	}
}
