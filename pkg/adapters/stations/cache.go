package stations

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/gashu/pkg/ports"
	"golang.org/x/sync/singleflight"
)

// Cached memoises a resolver. Concurrent lookups of the same coordinate
// share one query. Failures are not cached.
type Cached struct {
	next  ports.NearestStationResolver
	ids   sync.Map // map[string]string
	group singleflight.Group
}

// NewCached wraps next.
func NewCached(next ports.NearestStationResolver) *Cached {
	return &Cached{next: next}
}

// NearestStation consults the memo before delegating.
func (c *Cached) NearestStation(ctx context.Context, lat, lon float64) (string, error) {
	key := fmt.Sprintf("%.6f,%.6f", lat, lon)
	if id, ok := c.ids.Load(key); ok {
		return id.(string), nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if id, ok := c.ids.Load(key); ok {
			return id.(string), nil
		}
		id, err := c.next.NearestStation(ctx, lat, lon)
		if err != nil {
			return "", err
		}
		c.ids.Store(key, id)
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
