// Package identity signs the user in with the identity provider using the
// OAuth 2.0 device authorization grant.
package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/punch/internal/api"
	"github.com/Tiliavir/punch/internal/model"
)

// Result is a completed sign-in.
type Result struct {
	AccessToken string
	IDToken     string
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64
	User      *model.User
}

// Provider wraps one identity-provider tenant.
type Provider struct {
	cfg    *oauth2.Config
	base   string
	params []oauth2.AuthCodeOption
	http   *http.Client
	out    io.Writer
	log    logrus.FieldLogger
}

type Option func(*Provider)

// WithHTTPClient routes provider calls through h.
func WithHTTPClient(h *http.Client) Option {
	return func(p *Provider) { p.http = h }
}

// WithOutput sets where sign-in instructions are printed.
func WithOutput(w io.Writer) Option {
	return func(p *Provider) { p.out = w }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Provider) { p.log = l }
}

// NewProvider builds a provider from the settings served by the API. The
// domain may be a bare host or a full URL.
func NewProvider(ac model.AuthConfig, opts ...Option) (*Provider, error) {
	if err := api.ValidateAuthConfig(ac); err != nil {
		return nil, err
	}
	base := strings.TrimRight(ac.Domain, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("%w: domain %q: %v", api.ErrConfiguration, ac.Domain, err)
	}

	p := &Provider{
		cfg: &oauth2.Config{
			ClientID:    ac.ClientID,
			Scopes:      strings.Fields(ac.Scope),
			RedirectURL: ac.RedirectURI,
			Endpoint: oauth2.Endpoint{
				DeviceAuthURL: base + "/oauth/device/code",
				TokenURL:      base + "/oauth/token",
				AuthStyle:     oauth2.AuthStyleInParams,
			},
		},
		base:   base,
		params: []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("audience", ac.Audience)},
		http:   http.DefaultClient,
		out:    os.Stdout,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Login runs the device flow: it prints the verification URL and user code,
// waits for the user to approve, and returns the tokens with the profile.
func (p *Provider) Login(ctx context.Context) (Result, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.http)

	da, err := p.cfg.DeviceAuth(ctx, p.params...)
	if err != nil {
		return Result{}, fmt.Errorf("%w: device authorization: %v", api.ErrAuthentication, err)
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "To sign in, use a web browser to open the page:")
	if da.VerificationURIComplete != "" {
		fmt.Fprintf(p.out, "  %s\n", da.VerificationURIComplete)
	} else {
		fmt.Fprintf(p.out, "  %s\n", da.VerificationURI)
	}
	fmt.Fprintf(p.out, "Enter the code: %s\n", da.UserCode)
	fmt.Fprintln(p.out)

	tok, err := p.cfg.DeviceAccessToken(ctx, da, p.params...)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", api.ErrAuthentication, err)
	}

	idToken, _ := tok.Extra("id_token").(string)
	if tok.AccessToken == "" || idToken == "" {
		return Result{}, fmt.Errorf("%w: provider returned no access or id token", api.ErrAuthentication)
	}

	res := Result{
		AccessToken: tok.AccessToken,
		IDToken:     idToken,
		ExpiresIn:   tok.ExpiresIn,
		User:        p.Profile(ctx, tok.AccessToken, idToken),
	}
	if res.ExpiresIn <= 0 && !tok.Expiry.IsZero() {
		res.ExpiresIn = int64(time.Until(tok.Expiry).Seconds())
	}
	return res, nil
}

// LogoutURL is the provider page that ends the browser session and then
// returns to returnTo.
func (p *Provider) LogoutURL(returnTo string) string {
	q := url.Values{"client_id": {p.cfg.ClientID}}
	if returnTo != "" {
		q.Set("returnTo", returnTo)
	}
	return p.base + "/v2/logout?" + q.Encode()
}
