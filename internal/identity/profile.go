package identity

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Tiliavir/punch/internal/model"
)

// UnknownEmail is reported when no profile source yields anything.
const UnknownEmail = "unknown"

// Profile resolves the user's profile: the userinfo endpoint first, then the
// id token's claims, then a placeholder. It never fails.
func (p *Provider) Profile(ctx context.Context, accessToken, idToken string) *model.User {
	u, err := p.UserInfo(ctx, accessToken)
	if err == nil {
		return u
	}
	p.log.WithError(err).Debug("userinfo lookup failed, falling back to id token")

	u, err = ProfileFromIDToken(idToken)
	if err == nil {
		return u
	}
	p.log.WithError(err).Warn("could not read profile from id token")
	return &model.User{Email: UnknownEmail}
}

// UserInfo fetches the profile from the provider's /userinfo endpoint.
func (p *Provider) UserInfo(ctx context.Context, accessToken string) (*model.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+"/userinfo", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading userinfo body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo error %d: %s", resp.StatusCode, string(body))
	}

	var claims map[string]any
	if err := sonic.Unmarshal(body, &claims); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}
	return userFromClaims(claims), nil
}

// ProfileFromIDToken reads the profile claims from an id token without
// verifying its signature; the result is only used for display.
func ProfileFromIDToken(idToken string) (*model.User, error) {
	if idToken == "" {
		return nil, fmt.Errorf("empty id token")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("parsing id token: %w", err)
	}
	return userFromClaims(claims), nil
}

var knownClaims = map[string]bool{
	"sub": true, "email": true, "name": true, "nickname": true, "picture": true,
	"iss": true, "aud": true, "exp": true, "iat": true, "nbf": true, "azp": true,
	"sid": true, "nonce": true, "auth_time": true, "at_hash": true,
}

func userFromClaims(claims map[string]any) *model.User {
	str := func(k string) string {
		s, _ := claims[k].(string)
		return s
	}
	u := &model.User{
		Subject:  str("sub"),
		Email:    str("email"),
		Name:     str("name"),
		Nickname: str("nickname"),
		Picture:  str("picture"),
	}
	for k, v := range claims {
		if knownClaims[k] {
			continue
		}
		if u.Extra == nil {
			u.Extra = make(map[string]any)
		}
		u.Extra[k] = v
	}
	return u
}
