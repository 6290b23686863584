package booking

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// weekPattern is a doctor's template folded into lookup form: for each
// weekday, the set of slot IDs the doctor offers.
type weekPattern map[time.Weekday]map[int]bool

// templateCache caches weekly templates per doctor. Templates are read on
// every resolve and every booking attempt but change only through
// administrative writes, which invalidate the entry before returning.
type templateCache struct {
	mu       sync.RWMutex
	patterns map[uuid.UUID]weekPattern
}

func newTemplateCache() *templateCache {
	return &templateCache{patterns: make(map[uuid.UUID]weekPattern)}
}

func (c *templateCache) get(doctorID uuid.UUID) (weekPattern, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.patterns[doctorID]
	return p, ok
}

func (c *templateCache) put(doctorID uuid.UUID, p weekPattern) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patterns[doctorID] = p
}

func (c *templateCache) invalidate(doctorID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.patterns, doctorID)
}

// foldTemplate keeps only the entries marked available; everything else is
// indistinguishable from an absent entry.
func foldTemplate(entries []TemplateEntry) weekPattern {
	p := make(weekPattern)
	for _, e := range entries {
		if !e.IsAvailable {
			continue
		}
		if p[e.DayOfWeek] == nil {
			p[e.DayOfWeek] = make(map[int]bool)
		}
		p[e.DayOfWeek][e.SlotID] = true
	}
	return p
}
