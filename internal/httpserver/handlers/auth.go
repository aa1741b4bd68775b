package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/smartmark/smartmark/internal/httpserver/deps"
	"github.com/smartmark/smartmark/internal/logger"
)

const stateCookie = "smartmark_oauth_state"

// Login starts the OAuth code flow: a random state value goes into a
// short-lived cookie and the caller is sent to the provider.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := randomState()
		if err != nil {
			d.Logger.Error("failed to generate oauth state", logger.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     stateCookie,
			Value:    state,
			Expires:  time.Now().Add(10 * time.Minute),
			Path:     "/auth",
			HttpOnly: true,
			Secure:   d.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})

		http.Redirect(w, r, d.Google.AuthCodeURL(state), http.StatusFound)
	}
}

// Callback completes the OAuth flow. A failed or denied exchange sends
// the caller back to the login page instead of erroring out.
func Callback(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			d.Logger.Debug("oauth callback without code, sending back to login")
			http.Redirect(w, r, "/auth/login", http.StatusFound)
			return
		}

		state := r.URL.Query().Get("state")
		cookie, err := r.Cookie(stateCookie)
		if err != nil || state == "" || cookie.Value != state {
			d.Logger.Warn("oauth state mismatch",
				logger.String("remote_ip", r.RemoteAddr))
			http.Redirect(w, r, "/auth/login?error=auth", http.StatusFound)
			return
		}
		clearStateCookie(w, d.SecureCookies)

		sess, err := d.Google.Exchange(r.Context(), code)
		if err != nil {
			d.Logger.Error("oauth exchange failed", logger.Error(err))
			http.Redirect(w, r, "/auth/login?error=auth", http.StatusFound)
			return
		}

		if err := d.Sessions.Issue(w, sess); err != nil {
			d.Logger.Error("failed to issue session", logger.Error(err))
			http.Redirect(w, r, "/auth/login?error=auth", http.StatusFound)
			return
		}

		d.Logger.Info("user signed in",
			logger.String("user_id", sess.UserID))
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// SignOut clears the session cookie and returns to the login page.
func SignOut(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Sessions.Clear(w)
		http.Redirect(w, r, "/auth/login", http.StatusFound)
	}
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func clearStateCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		Path:     "/auth",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
