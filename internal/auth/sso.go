package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// IdentityProvider is an OAuth2 login provider that yields a verified email.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the user's verified email.
	// A rejected code or an unusable profile is reported as ErrBadRequest.
	Exchange(ctx context.Context, code string) (string, error)
}

type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_uri"`
	// SuccessRedirect is where the callback sends the browser after login.
	SuccessRedirect string `mapstructure:"success_redirect"`
}

func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// GoogleProvider implements IdentityProvider against Google's OpenID endpoints.
type GoogleProvider struct {
	conf        *oauth2.Config
	userinfoURL string
}

func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	return &GoogleProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userinfoURL: googleUserinfoURL,
	}
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

type googleUserinfo struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: code exchange: %v", ErrBadRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: userinfo status %d", ErrBadRequest, resp.StatusCode)
	}

	var info googleUserinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("%w: decode userinfo: %v", ErrBadRequest, err)
	}
	if info.Email == "" || !info.EmailVerified {
		return "", ErrBadRequest
	}
	return info.Email, nil
}
