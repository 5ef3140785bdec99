package model

// User is the cached identity-provider profile. Only the common OIDC claims
// are typed; anything else the provider returns lands in Extra.
type User struct {
	Subject  string         `json:"sub,omitempty" yaml:"sub,omitempty"`
	Email    string         `json:"email,omitempty" yaml:"email,omitempty"`
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	Nickname string         `json:"nickname,omitempty" yaml:"nickname,omitempty"`
	Picture  string         `json:"picture,omitempty" yaml:"picture,omitempty"`
	Extra    map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// DisplayName picks the most readable identifier available.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	for _, s := range []string{u.Name, u.Nickname, u.Email, u.Subject} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Session is the persisted authentication state.
type Session struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	// ExpiresAt is epoch milliseconds.
	ExpiresAt int64 `json:"expires_at"`
	User      *User `json:"user,omitempty"`
}
