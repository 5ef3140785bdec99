package identity_test

import (
	"bytes"
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/punch/internal/api"
	"github.com/Tiliavir/punch/internal/apitest"
	"github.com/Tiliavir/punch/internal/identity"
	"github.com/Tiliavir/punch/internal/logging"
	"github.com/Tiliavir/punch/internal/model"
)

func newProvider(t *testing.T, srv *apitest.Server) (*identity.Provider, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	p, err := identity.NewProvider(srv.AuthConfig(),
		identity.WithOutput(&out),
		identity.WithLogger(logging.Discard()),
	)
	require.NoError(t, err)
	return p, &out
}

func TestLogin(t *testing.T) {
	srv := apitest.New(t)
	p, out := newProvider(t, srv)

	res, err := p.Login(context.Background())
	require.NoError(t, err)

	assert.Equal(t, apitest.Token, res.AccessToken)
	assert.NotEmpty(t, res.IDToken)
	assert.InDelta(t, 3600, res.ExpiresIn, 5)
	require.NotNil(t, res.User)
	assert.Equal(t, srv.User().Email, res.User.Email)
	assert.Contains(t, out.String(), apitest.UserCode)
	assert.Contains(t, out.String(), "/activate")
}

func TestLoginFallsBackToIDTokenProfile(t *testing.T) {
	srv := apitest.New(t)
	srv.FailUserInfo()
	p, _ := newProvider(t, srv)

	res, err := p.Login(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Equal(t, srv.User().Subject, res.User.Subject)
	assert.Equal(t, "Ada Lovelace", res.User.DisplayName())
}

func TestLoginRespectsContext(t *testing.T) {
	srv := apitest.New(t)
	srv.SetPending(100)
	p, _ := newProvider(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()
	_, err := p.Login(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewProvider(t *testing.T) {
	cfg := model.AuthConfig{
		Domain:   "punch.eu.auth0.com",
		ClientID: "cli",
		Audience: "https://api.punch.test",
		Scope:    "openid profile email",
	}
	p, err := identity.NewProvider(cfg)
	require.NoError(t, err)

	u, err := url.Parse(p.LogoutURL("https://punch.test/bye"))
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "punch.eu.auth0.com", u.Host)
	assert.Equal(t, "/v2/logout", u.Path)
	assert.Equal(t, "cli", u.Query().Get("client_id"))
	assert.Equal(t, "https://punch.test/bye", u.Query().Get("returnTo"))

	cfg.Domain = "YOUR_AUTH0_DOMAIN"
	_, err = identity.NewProvider(cfg)
	require.ErrorIs(t, err, api.ErrConfiguration)
}

func TestProfileFromIDToken(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "auth0|7",
		"email": "grace@example.org",
		"name":  "Grace Hopper",
		"org":   "navy",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte("any key, signature is not checked"))
	require.NoError(t, err)

	u, err := identity.ProfileFromIDToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "auth0|7", u.Subject)
	assert.Equal(t, "grace@example.org", u.Email)
	assert.Equal(t, "navy", u.Extra["org"])
	assert.NotContains(t, u.Extra, "exp")

	_, err = identity.ProfileFromIDToken("")
	assert.Error(t, err)
	_, err = identity.ProfileFromIDToken("not.a.jwt")
	assert.Error(t, err)
}

func TestProfileUnknownFallback(t *testing.T) {
	srv := apitest.New(t)
	srv.FailUserInfo()
	p, _ := newProvider(t, srv)

	u := p.Profile(context.Background(), apitest.Token, "garbage")
	assert.Equal(t, identity.UnknownEmail, u.Email)
}
