package usecase

import (
	"context"
	"sync"
	"time"
)

// defaultServices is the generic services list used when the catalog
// loader has nothing fresher.
var defaultServices = []string{
	"Wash & Fold",
	"Dry Cleaning",
	"Steam Ironing",
}

// ServiceCatalog caches the service names used as the items-summary
// fallback. It is an explicit cache object passed by reference to its
// callers; there is no module-level singleton.
type ServiceCatalog struct {
	mu        sync.Mutex
	data      []string
	fetchedAt time.Time
	ttl       time.Duration
	loader    func(ctx context.Context) ([]string, error)
	now       func() time.Time
}

func NewServiceCatalog(ttl time.Duration, loader func(ctx context.Context) ([]string, error)) *ServiceCatalog {
	return &ServiceCatalog{
		ttl:    ttl,
		loader: loader,
		now:    time.Now,
	}
}

// Services returns the cached list, refreshing it once the TTL lapses.
// A failing loader falls back to the last good data, then to the
// built-in defaults, so checkout never blocks on the catalog.
func (c *ServiceCatalog) Services(ctx context.Context) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.data != nil && now.Sub(c.fetchedAt) < c.ttl {
		return c.data
	}

	if c.loader != nil {
		if data, err := c.loader(ctx); err == nil && len(data) > 0 {
			c.data = data
			c.fetchedAt = now
			return c.data
		}
	}

	if c.data != nil {
		return c.data
	}
	return defaultServices
}
