// Package identity talks to the external sign-in provider.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"notely/notely/config"
	"notely/notely/types"
	httputils "notely/notely/utils/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

var ErrEmailNotVerified = errors.New("provider email is not verified")

type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(cfg config.Config) *GoogleProvider {
	return NewGoogleProviderWithEndpoint(cfg, google.Endpoint, googleUserInfoURL)
}

// NewGoogleProviderWithEndpoint lets tests point the provider at a fake server.
func NewGoogleProviderWithEndpoint(cfg config.Config, endpoint oauth2.Endpoint, userInfoURL string) *GoogleProvider {
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: userInfoURL,
	}
}

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the user's profile.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (types.Profile, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return types.Profile{}, fmt.Errorf("token exchange: %w", err)
	}

	var payload struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := httputils.GetJSON(ctx, g.oauth.Client(ctx, token), g.userInfoURL, &payload); err != nil {
		return types.Profile{}, fmt.Errorf("userinfo: %w", err)
	}
	if payload.EmailVerified != nil && !*payload.EmailVerified {
		return types.Profile{}, ErrEmailNotVerified
	}
	email := strings.TrimSpace(payload.Email)
	if email == "" {
		return types.Profile{}, errors.New("userinfo: missing email")
	}
	return types.Profile{Email: email, Name: payload.Name, Picture: payload.Picture}, nil
}
