package pack

import (
	"strings"
	"sync"

	"binroute/internal/model"
)

// Signature returns the immutable memo key for a packing attempt: the vehicle
// type code plus the ordered item-id sequence. Keying by ids (never by live
// route state) keeps cached entries valid under concurrent use.
func Signature(v model.VehicleType, groups [][]model.Item) string {
	var b strings.Builder
	b.WriteString(v.Code)
	b.WriteByte('|')
	for _, g := range groups {
		for _, it := range g {
			b.WriteString(it.ID)
			b.WriteByte(',')
		}
	}
	return b.String()
}

// resultCache memoizes pack results. Concurrent readers share the lock;
// inserts are exclusive. Cached placements are shared and must be treated as
// read-only by callers.
type resultCache struct {
	mu sync.RWMutex
	m  map[string]model.PackResult
}

func newResultCache() *resultCache {
	return &resultCache{m: make(map[string]model.PackResult)}
}

func (c *resultCache) get(key string) (model.PackResult, bool) {
	c.mu.RLock()
	res, ok := c.m[key]
	c.mu.RUnlock()
	return res, ok
}

func (c *resultCache) put(key string, res model.PackResult) {
	c.mu.Lock()
	c.m[key] = res
	c.mu.Unlock()
}
