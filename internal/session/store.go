package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Sentinel errors
var (
	// ErrNoSession is returned when a session is required but none is stored.
	ErrNoSession = errors.New("no session")

	// ErrInvalidSession is returned when storing a session without an access token.
	ErrInvalidSession = errors.New("invalid session: access token is required")
)

// DefaultExpiredReason is broadcast when the session is expired without a more
// specific message.
const DefaultExpiredReason = "Your session has expired. Please sign in again."

// ChangedFunc observes every write or removal of the session. s is nil after a clear.
type ChangedFunc func(s *Session)

// ExpiredFunc observes sessions being dropped because they can no longer be used.
type ExpiredFunc func(reason string)

var _ oauth2.TokenSource = (*Store)(nil)

// Store is the single process-wide session slot.
type Store struct {
	backend Backend

	mu sync.RWMutex

	// writeMu is held by Set, Clear and Expire until observers have run, so
	// notifications arrive in write order.
	writeMu sync.Mutex

	obsMu      sync.Mutex
	nextID     int
	changedObs []changedObserver
	expiredObs []expiredObserver
}

type changedObserver struct {
	id int
	fn ChangedFunc
}

type expiredObserver struct {
	id int
	fn ExpiredFunc
}

// NewStore creates a session store on top of backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Get returns a copy of the current session, or nil when logged out.
// A record that cannot be parsed is treated as no session.
func (s *Store) Get() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.load()
}

// Set replaces the stored session and notifies observers. Concurrent writes
// are notified in the order they were stored. Observers must not write to the
// store.
func (s *Store) Set(sess *Session) error {
	if sess == nil || sess.AccessToken == "" {
		return ErrInvalidSession
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	s.mu.Lock()
	err = s.backend.Save(data)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	log.Debug().
		Str("fingerprint", sess.Fingerprint()).
		Str("email", sess.Email).
		Msg("session stored")

	s.notifyChanged(sess.Clone())

	return nil
}

// Clear removes the session and notifies observers.
func (s *Store) Clear() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	err := s.backend.Delete()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	log.Debug().Msg("session cleared")

	s.notifyChanged(nil)

	return nil
}

// Expire drops the session because it can no longer be used. Observers are
// only notified when a session record existed, so repeated expiry from
// concurrent failures is reported once. An empty reason uses
// DefaultExpiredReason.
func (s *Store) Expire(reason string) error {
	if reason == "" {
		reason = DefaultExpiredReason
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	_, err := s.backend.Load()
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	err = s.backend.Delete()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	log.Info().Str("reason", reason).Msg("session expired")

	s.notifyChanged(nil)
	s.notifyExpired(reason)

	return nil
}

// Token implements oauth2.TokenSource.
func (s *Store) Token() (*oauth2.Token, error) {
	sess := s.Get()
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess.OAuth2Token(), nil
}

// OnChanged registers fn for session writes and removals.
func (s *Store) OnChanged(fn ChangedFunc) (unsubscribe func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	s.nextID++
	id := s.nextID
	s.changedObs = append(s.changedObs, changedObserver{id: id, fn: fn})

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		for i, o := range s.changedObs {
			if o.id == id {
				s.changedObs = append(s.changedObs[:i:i], s.changedObs[i+1:]...)
				return
			}
		}
	}
}

// OnExpired registers fn for session expiry.
func (s *Store) OnExpired(fn ExpiredFunc) (unsubscribe func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	s.nextID++
	id := s.nextID
	s.expiredObs = append(s.expiredObs, expiredObserver{id: id, fn: fn})

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		for i, o := range s.expiredObs {
			if o.id == id {
				s.expiredObs = append(s.expiredObs[:i:i], s.expiredObs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) load() *Session {
	data, err := s.backend.Load()
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).Msg("unable to read stored session")
		}
		return nil
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		log.Warn().Err(err).Msg("unable to parse stored session")
		return nil
	}

	if sess.AccessToken == "" {
		return nil
	}

	return &sess
}

// observers are called outside the store lock so they may read the store.
// Callers hold writeMu.
func (s *Store) notifyChanged(sess *Session) {
	s.obsMu.Lock()
	observers := append([]changedObserver(nil), s.changedObs...)
	s.obsMu.Unlock()

	for _, o := range observers {
		o.fn(sess.Clone())
	}
}

func (s *Store) notifyExpired(reason string) {
	s.obsMu.Lock()
	observers := append([]expiredObserver(nil), s.expiredObs...)
	s.obsMu.Unlock()

	for _, o := range observers {
		o.fn(reason)
	}
}
