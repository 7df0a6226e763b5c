package client

import (
	"net/http"
	"sync"

	"github.com/gregjones/httpcache"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/boxoffice/internal/session"
)

var _ httpcache.Cache = (*SessionCache)(nil)

// SessionCache is an in-memory HTTP cache whose contents belong to a single
// session. Any session change discards everything cached so far, so one
// user's responses are never served to the next.
type SessionCache struct {
	mu    sync.RWMutex
	cache *httpcache.MemoryCache
}

// NewSessionCache creates a cache that resets whenever store changes.
func NewSessionCache(store *session.Store) *SessionCache {
	c := &SessionCache{cache: httpcache.NewMemoryCache()}
	store.OnChanged(func(*session.Session) {
		c.Reset()
	})
	return c
}

func (c *SessionCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache.Get(key)
}

func (c *SessionCache) Set(key string, resp []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.cache.Set(key, resp)
}

func (c *SessionCache) Delete(key string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.cache.Delete(key)
}

// Reset drops all cached responses.
func (c *SessionCache) Reset() {
	c.mu.Lock()
	c.cache = httpcache.NewMemoryCache()
	c.mu.Unlock()

	log.Debug().Msg("response cache reset")
}

// NewCachingTransport wraps base with a session scoped response cache.
// This is used for GET heavy listings (movies, theatres, shows) where the
// backend sends Cache-Control headers.
func NewCachingTransport(store *session.Store, base http.RoundTripper) http.RoundTripper {
	transport := httpcache.NewTransport(NewSessionCache(store))
	transport.Transport = base
	return transport
}
