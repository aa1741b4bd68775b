package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/smartmark/smartmark/internal/utils"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleProvider wraps the Google OAuth code flow and userinfo lookup.
type GoogleProvider struct {
	cfg *oauth2.Config
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// AuthCodeURL builds the provider sign-in URL for the given CSRF state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

// Exchange trades the authorization code for a session identity. The
// stable Google account id becomes the user id owning the bookmarks.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (Session, error) {
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return Session{}, fmt.Errorf("code exchange failed: %w", err)
	}

	client := p.cfg.Client(ctx, token)
	resp, err := client.Get(userInfoURL)
	if err != nil {
		return Session{}, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return Session{}, fmt.Errorf("user info request returned %s", resp.Status)
	}

	var user googleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return Session{}, fmt.Errorf("failed to decode user info: %w", err)
	}
	if user.ID == "" {
		return Session{}, fmt.Errorf("user info response missing account id")
	}

	return Session{UserID: user.ID, Email: user.Email}, nil
}
