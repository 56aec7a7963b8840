// Package oauth exchanges Google authorization codes for identity claims.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/swaphubteam/SwapIt/internal/common"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// DefaultUserInfoURL is Google's OAuth2 userinfo endpoint.
	DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	// PopupRedirect is the redirect URI used by the browser popup code flow.
	PopupRedirect = "postmessage"

	maxUserInfoBytes = 1 << 20
)

// Claims is the identity asserted by Google.
type Claims struct {
	Subject       string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Options configures a Bridge. Endpoint and UserInfoURL default to Google's.
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
}

type Bridge struct {
	cfg         *oauth2.Config
	userInfoURL string
	timeout     time.Duration
}

// NewBridge returns nil when no client id is configured.
func NewBridge(o Options) *Bridge {
	if o.ClientID == "" {
		return nil
	}
	if o.Endpoint.TokenURL == "" {
		o.Endpoint = google.Endpoint
	}
	if o.UserInfoURL == "" {
		o.UserInfoURL = DefaultUserInfoURL
	}
	if o.RedirectURL == "" {
		o.RedirectURL = PopupRedirect
	}
	return &Bridge{
		cfg: &oauth2.Config{
			ClientID:     o.ClientID,
			ClientSecret: o.ClientSecret,
			Endpoint:     o.Endpoint,
			RedirectURL:  o.RedirectURL,
			Scopes:       []string{"email", "profile"},
		},
		userInfoURL: o.UserInfoURL,
		timeout:     o.Timeout,
	}
}

// ClientID is the public client id, or common.ErrOAuthUnconfigured.
func (b *Bridge) ClientID() (string, error) {
	if b == nil {
		return "", common.ErrOAuthUnconfigured
	}
	return b.cfg.ClientID, nil
}

// Exchange trades code for Claims. The returned error wraps
// common.ErrOAuthFailed for every provider-side failure.
func (b *Bridge) Exchange(ctx context.Context, code string) (*Claims, error) {
	if b == nil {
		return nil, common.ErrOAuthUnconfigured
	}
	if code == "" {
		return nil, fmt.Errorf("%w: empty code", common.ErrOAuthFailed)
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	token, err := b.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", common.ErrOAuthFailed, err)
	}

	claims, err := b.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo: %v", common.ErrOAuthFailed, err)
	}

	switch {
	case claims.Subject == "" || claims.Email == "":
		return nil, fmt.Errorf("%w: incomplete identity", common.ErrOAuthFailed)
	case !claims.VerifiedEmail:
		return nil, fmt.Errorf("%w: email not verified", common.ErrOAuthFailed)
	}
	return claims, nil
}

func (b *Bridge) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*Claims, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var c Claims
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoBytes)).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &c, nil
}

// IsFailure reports whether err came from the provider side of Exchange.
func IsFailure(err error) bool {
	return errors.Is(err, common.ErrOAuthFailed)
}
