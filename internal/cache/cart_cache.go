package cache

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/prabhat76/lincee-cart/internal/domain"
	"github.com/prabhat76/lincee-cart/internal/port"
)

// DefaultTTL is the inactivity window after which a cached cart expires.
const DefaultTTL = 7 * 24 * time.Hour

var _ port.CartCache = (*Cache)(nil)

// Cache keeps the last reconciled cart per user so a new engine can be
// warmed without waiting for the first reload. It is a cache, not a store of
// record: entries expire and the engine never trusts it over the server.
type Cache struct {
	inner *ttlcache.Cache[string, domain.CartState]
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	// The TTL is refreshed by writes only: an idle cart expires no matter
	// how often it is read.
	inner := ttlcache.New[string, domain.CartState](
		ttlcache.WithTTL[string, domain.CartState](ttl),
		ttlcache.WithDisableTouchOnHit[string, domain.CartState](),
	)
	go inner.Start()

	return &Cache{inner: inner}
}

func (c *Cache) Get(userID string) (domain.CartState, bool) {
	item := c.inner.Get(userID)
	if item == nil {
		return domain.CartState{}, false
	}
	return item.Value().Clone(), true
}

func (c *Cache) Put(userID string, state domain.CartState) {
	c.inner.Set(userID, state.Clone(), ttlcache.DefaultTTL)
}

func (c *Cache) Delete(userID string) {
	c.inner.Delete(userID)
}

// Stop terminates the background expiration loop.
func (c *Cache) Stop() {
	c.inner.Stop()
}
