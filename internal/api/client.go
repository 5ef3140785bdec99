// Package api is the client for the remote timesheet API.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	ulid "github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// TokenSource supplies the bearer token and is told when the server rejects it.
type TokenSource interface {
	GetToken() (string, bool)
	Clear() error
}

const (
	defaultAuthTimeout  = 10 * time.Second
	defaultAuthAttempts = 3
	defaultRetryDelay   = time.Second
	slowRequest         = 5 * time.Second
)

// Client talks to the timesheet API on behalf of the signed-in user.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     logrus.FieldLogger

	authTimeout  time.Duration
	authAttempts int
	retryDelay   time.Duration
	inflight     singleflight.Group

	limits *limiter
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// WithAuthTimeout bounds the whole auth-configuration fetch, retries included.
func WithAuthTimeout(d time.Duration) Option {
	return func(c *Client) { c.authTimeout = d }
}

// WithRetryDelay sets the base backoff between auth-configuration attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithRateLimit caps calls per endpoint per minute. Zero disables the cap.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) { c.limits = newLimiter(perMinute) }
}

// New returns a client for the API at baseURL.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         http.DefaultClient,
		tokens:       tokens,
		log:          logrus.StandardLogger(),
		authTimeout:  defaultAuthTimeout,
		authAttempts: defaultAuthAttempts,
		retryDelay:   defaultRetryDelay,
		limits:       newLimiter(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call describes one API request.
type call struct {
	method string
	path   string
	query  url.Values
	body   any
	// anonymous calls skip the bearer token and the 401/403 handling.
	anonymous bool
}

// reply is a 2xx response with its body already read.
type reply struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) do(ctx context.Context, in call) (*reply, error) {
	endpoint := in.method + " " + in.path
	if err := c.limits.wait(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRateLimited, endpoint, err)
	}

	var token string
	if !in.anonymous {
		tok, ok := c.tokens.GetToken()
		if !ok {
			return nil, fmt.Errorf("%w: not signed in", ErrSessionExpired)
		}
		token = tok
	}

	var body io.Reader
	if in.body != nil {
		data, err := sonic.Marshal(in.body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + in.path
	if len(in.query) > 0 {
		target += "?" + in.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, in.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	requestID := ulid.Make().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.log.WithFields(logrus.Fields{
		"method":     in.method,
		"path":       in.path,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		log.WithError(err).WithField("duration", elapsed).Debug("request failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s: %w", ErrTimeout, endpoint, err)
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrNetwork, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %v", ErrNetwork, endpoint, err)
	}

	log = log.WithFields(logrus.Fields{"status": resp.StatusCode, "duration": elapsed})
	if elapsed > slowRequest {
		log.Warn("slow request")
	} else {
		log.Debug("request done")
	}

	if !in.anonymous && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		if err := c.tokens.Clear(); err != nil {
			log.WithError(err).Warn("could not clear rejected session")
		}
		return nil, fmt.Errorf("%w: server answered %d to %s", ErrSessionExpired, resp.StatusCode, endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, data)
	}
	return &reply{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

// decode unmarshals a JSON reply body, reporting failures as ErrDataShape.
func decode(r *reply, v any) error {
	if err := sonic.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDataShape, err)
	}
	return nil
}

// limiter holds one token bucket per endpoint.
type limiter struct {
	mu        sync.Mutex
	perMinute int
	buckets   map[string]*rate.Limiter
}

func newLimiter(perMinute int) *limiter {
	return &limiter{perMinute: perMinute, buckets: make(map[string]*rate.Limiter)}
}

func (l *limiter) wait(ctx context.Context, endpoint string) error {
	if l.perMinute <= 0 {
		return nil
	}
	l.mu.Lock()
	b, ok := l.buckets[endpoint]
	if !ok {
		b = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
		l.buckets[endpoint] = b
	}
	l.mu.Unlock()
	return b.Wait(ctx)
}
