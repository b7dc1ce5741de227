package planning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachePlanning memoizes aggregation results for read-heavy dashboards.
// Entries expire after a TTL; any BesoinCharge write invalidates the
// whole cache by bumping a generation counter. A singleflight.Group
// coalesces concurrent aggregations of the same parameters.
type CachePlanning struct {
	ttl time.Duration

	mu         sync.RWMutex
	generation uint64
	entries    map[string]*entreeCache
	group      singleflight.Group
}

type entreeCache struct {
	resultat *PlanningCharge
	expire   time.Time
}

// NewCachePlanning builds an empty cache. A non-positive TTL defaults
// to one minute.
func NewCachePlanning(ttl time.Duration) *CachePlanning {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachePlanning{ttl: ttl, entries: make(map[string]*entreeCache)}
}

func (c *CachePlanning) cle(params ParamsPlanning) string {
	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()
	return fmt.Sprintf("g%d|%s|%s|%s|%s", gen, params.Debut, params.Fin, params.Recherche, params.Unite)
}

// Get returns the memoized result or computes it through fn. Identical
// in-flight requests share one computation.
func (c *CachePlanning) Get(ctx context.Context, params ParamsPlanning, fn func(context.Context, ParamsPlanning) (*PlanningCharge, error)) (*PlanningCharge, error) {
	cle := c.cle(params)

	c.mu.RLock()
	e, ok := c.entries[cle]
	c.mu.RUnlock()
	if ok && time.Now().Before(e.expire) {
		return e.resultat, nil
	}

	v, err, _ := c.group.Do(cle, func() (any, error) {
		res, err := fn(ctx, params)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[cle] = &entreeCache{resultat: res, expire: time.Now().Add(c.ttl)}
		c.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*PlanningCharge), nil
}

// Invalider drops every memoized result. Safe on a nil cache, so use
// cases need not guard for the no-cache configuration.
func (c *CachePlanning) Invalider() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.generation++
	c.entries = make(map[string]*entreeCache)
	c.mu.Unlock()
}
