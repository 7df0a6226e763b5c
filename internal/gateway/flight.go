package gateway

import (
	"sync"

	"github.com/wolfeidau/boxoffice/internal/session"
)

type flightResult struct {
	session *session.Session
	err     error
}

// flight tracks the single in-flight refresh and the requests parked behind it.
// It is either idle or refreshing; only the leader that moved it to
// refreshing calls finish.
type flight struct {
	mu         sync.Mutex
	refreshing bool
	waiters    []chan flightResult
}

type joinResult struct {
	// session to replay with, or the session to refresh when leader is set.
	session *session.Session
	// wait is set when the caller was parked behind a running refresh.
	wait   <-chan flightResult
	leader bool
}

// join decides how a request rejected while carrying usedAuth continues:
// parked behind a running refresh, replayed at once because a refresh already
// replaced the token it used, or as the leader of a new refresh.
//
// The store is read under the flight lock. The leader stores the new session
// before calling finish, so a request joining after a refresh completed
// always sees the rotated token and never starts a second refresh for it.
func (f *flight) join(store *session.Store, usedAuth string) joinResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.refreshing {
		ch := make(chan flightResult, 1)
		f.waiters = append(f.waiters, ch)
		return joinResult{wait: ch}
	}

	current := store.Get()
	if current == nil {
		return joinResult{}
	}

	if current.AuthorizationHeader() != usedAuth {
		return joinResult{session: current}
	}

	f.refreshing = true
	return joinResult{session: current, leader: true}
}

// finish returns the flight to idle and resolves parked requests in the order
// they arrived.
func (f *flight) finish(sess *session.Session, err error) {
	f.mu.Lock()
	waiters := f.waiters
	f.waiters = nil
	f.refreshing = false
	f.mu.Unlock()

	for _, ch := range waiters {
		ch <- flightResult{session: sess.Clone(), err: err}
	}
}

func (f *flight) inFlight() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshing
}
