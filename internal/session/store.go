// Package session holds the signed-in user's tokens and profile and decides
// whether the caller is currently authenticated.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"

	"github.com/Tiliavir/punch/internal/model"
)

// FileName is the session document inside the data directory.
const FileName = "session.json"

var ErrInvalidSession = errors.New("invalid session")

// Persister stores the serialized session. Write must replace the previous
// contents atomically; Read returns nil when nothing is stored.
type Persister interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Remove() error
}

// Store is the single source of truth for the current session. Every read
// goes back to the persister so a logout from another process is noticed.
type Store struct {
	mu  sync.Mutex
	p   Persister
	now func() time.Time
	log logrus.FieldLogger
}

type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = l }
}

// New returns a Store backed by p.
func New(p Persister, opts ...Option) *Store {
	s := &Store{
		p:   p,
		now: time.Now,
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSession replaces the stored session. expiresAt is computed from now; all
// fields are written in a single atomic write.
func (s *Store) SetSession(accessToken, idToken string, expiresInSeconds int64, user *model.User) error {
	if accessToken == "" {
		return fmt.Errorf("%w: empty access token", ErrInvalidSession)
	}
	if expiresInSeconds <= 0 {
		return fmt.Errorf("%w: non-positive lifetime %d", ErrInvalidSession, expiresInSeconds)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := model.Session{
		AccessToken: accessToken,
		IDToken:     idToken,
		ExpiresAt:   s.now().UnixMilli() + expiresInSeconds*1000,
		User:        user,
	}
	data, err := sonic.ConfigStd.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.p.Write(data); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	s.log.WithField("expires_at", time.UnixMilli(sess.ExpiresAt).Format(time.RFC3339)).Debug("session stored")
	return nil
}

// IsAuthenticated reports whether a token is present and unexpired. An
// expired or unreadable session is cleared as a side effect.
func (s *Store) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

// GetToken returns the access token iff the session is authenticated.
func (s *Store) GetToken() (string, bool) {
	sess, ok := s.Current()
	if !ok {
		return "", false
	}
	return sess.AccessToken, true
}

// GetUser returns the cached profile iff the session is authenticated.
func (s *Store) GetUser() (*model.User, bool) {
	sess, ok := s.Current()
	if !ok || sess.User == nil {
		return nil, false
	}
	return sess.User, true
}

// Current returns the full session iff it is authenticated.
func (s *Store) Current() (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Clear removes the session. Clearing an empty store is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

func (s *Store) loadLocked() (model.Session, bool) {
	data, err := s.p.Read()
	if err != nil {
		s.log.WithError(err).Warn("cannot read session; treating as signed out")
		return model.Session{}, false
	}
	if len(data) == 0 {
		return model.Session{}, false
	}

	var sess model.Session
	if err := sonic.Unmarshal(data, &sess); err != nil {
		s.log.WithError(err).Warn("corrupt session discarded")
		s.clearQuietly()
		return model.Session{}, false
	}
	if sess.AccessToken == "" || sess.ExpiresAt <= 0 {
		s.log.Warn("incomplete session discarded")
		s.clearQuietly()
		return model.Session{}, false
	}
	if s.now().UnixMilli() >= sess.ExpiresAt {
		s.log.Debug("session expired")
		s.clearQuietly()
		return model.Session{}, false
	}
	return sess, true
}

func (s *Store) clearLocked() error {
	if err := s.p.Remove(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

func (s *Store) clearQuietly() {
	if err := s.clearLocked(); err != nil {
		s.log.WithError(err).Warn("could not clear session")
	}
}
