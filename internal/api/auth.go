package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Tiliavir/punch/internal/model"
)

type authConfigResponse struct {
	Auth0 *model.AuthConfig `json:"auth0"`
}

// FetchAuthConfig loads the identity-provider settings from GET /auth.
//
// The whole fetch, retries included, is bounded by the auth timeout; running
// out of time yields ErrTimeout. Concurrent callers share one request.
func (c *Client) FetchAuthConfig(ctx context.Context) (model.AuthConfig, error) {
	v, err, _ := c.inflight.Do("auth-config", func() (any, error) {
		return c.fetchAuthConfig(ctx)
	})
	if err != nil {
		return model.AuthConfig{}, err
	}
	return v.(model.AuthConfig), nil
}

func (c *Client) fetchAuthConfig(parent context.Context) (model.AuthConfig, error) {
	ctx, cancel := context.WithTimeout(parent, c.authTimeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= c.authAttempts; attempt++ {
		cfg, err := c.getAuthConfig(ctx)
		if err == nil {
			return cfg, nil
		}
		if errors.Is(err, ErrConfiguration) {
			return model.AuthConfig{}, err
		}
		lastErr = err
		c.log.WithError(err).WithField("attempt", attempt).Debug("auth configuration fetch failed")
		if ctx.Err() != nil || attempt == c.authAttempts {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(c.retryDelay * time.Duration(attempt)):
		}
	}

	if parent.Err() != nil {
		return model.AuthConfig{}, parent.Err()
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return model.AuthConfig{}, fmt.Errorf("%w: sign-in configuration not received within %s", ErrTimeout, c.authTimeout)
	}
	return model.AuthConfig{}, fmt.Errorf("loading sign-in configuration after %d attempts: %w", c.authAttempts, lastErr)
}

func (c *Client) getAuthConfig(ctx context.Context) (model.AuthConfig, error) {
	r, err := c.do(ctx, call{method: http.MethodGet, path: "/auth", anonymous: true})
	if err != nil {
		return model.AuthConfig{}, err
	}
	var resp authConfigResponse
	if err := decode(r, &resp); err != nil {
		return model.AuthConfig{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if resp.Auth0 == nil {
		return model.AuthConfig{}, fmt.Errorf("%w: response has no auth0 section", ErrConfiguration)
	}
	if err := ValidateAuthConfig(*resp.Auth0); err != nil {
		return model.AuthConfig{}, err
	}
	return *resp.Auth0, nil
}

// ValidateAuthConfig rejects settings with empty or placeholder values.
func ValidateAuthConfig(cfg model.AuthConfig) error {
	fields := []struct{ name, value string }{
		{"domain", cfg.Domain},
		{"clientId", cfg.ClientID},
		{"audience", cfg.Audience},
		{"scope", cfg.Scope},
	}
	var bad []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" || IsPlaceholder(f.value) {
			bad = append(bad, f.name)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: missing or placeholder %s", ErrConfiguration, strings.Join(bad, ", "))
	}
	return nil
}

// IsPlaceholder reports whether v looks like an unfilled template value.
func IsPlaceholder(v string) bool {
	lower := strings.ToLower(strings.TrimSpace(v))
	switch {
	case strings.Contains(lower, "your_"), strings.Contains(lower, "your-"):
		return true
	case strings.Contains(lower, "changeme"), strings.Contains(lower, "placeholder"):
		return true
	case strings.Contains(lower, "<") && strings.Contains(lower, ">"):
		return true
	case lower == "example", strings.HasPrefix(lower, "example."):
		return true
	}
	return false
}
