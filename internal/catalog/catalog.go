// Package catalog holds the fixed universe of bookable time-of-day slots.
// Slots are reference data: identified by stable integer IDs, ordered by
// start time, and never matched by formatted display strings.
package catalog

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrSlotNotFound = errors.New("slot not found in catalog")
	ErrOverlap      = errors.New("slot intervals overlap")
	ErrInvalidSlot  = errors.New("invalid slot interval")
)

// Slot is one bookable time-of-day interval. StartMinutes and EndMinutes are
// minutes since midnight, so a 9:00-10:00 slot is {540, 600}.
type Slot struct {
	ID           int
	StartMinutes int
	EndMinutes   int
}

// Label renders the slot interval as "09:00-10:00" for responses and logs.
// Matching always happens on ID, never on this string.
func (s Slot) Label() string {
	return fmt.Sprintf("%s-%s", FormatMinutes(s.StartMinutes), FormatMinutes(s.EndMinutes))
}

// FormatMinutes renders minutes since midnight as "HH:MM".
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Catalog is an immutable, ordered set of slots.
type Catalog struct {
	slots []Slot
	byID  map[int]Slot
}

// New validates the given slots and returns a catalog ordered by start time.
// Intervals must be well formed and non-overlapping.
func New(slots []Slot) (*Catalog, error) {
	ordered := make([]Slot, len(slots))
	copy(ordered, slots)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].StartMinutes < ordered[j].StartMinutes
	})

	byID := make(map[int]Slot, len(ordered))
	for i, s := range ordered {
		if s.StartMinutes < 0 || s.EndMinutes > 24*60 || s.StartMinutes >= s.EndMinutes {
			return nil, fmt.Errorf("%w: slot %d (%d-%d)", ErrInvalidSlot, s.ID, s.StartMinutes, s.EndMinutes)
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate slot id %d", ErrInvalidSlot, s.ID)
		}
		if i > 0 && s.StartMinutes < ordered[i-1].EndMinutes {
			return nil, fmt.Errorf("%w: slot %d overlaps slot %d", ErrOverlap, s.ID, ordered[i-1].ID)
		}
		byID[s.ID] = s
	}

	return &Catalog{slots: ordered, byID: byID}, nil
}

// Default returns the institution's standard catalog: hourly slots from
// 09:00 to 17:00, IDs 1 through 8.
func Default() *Catalog {
	slots := make([]Slot, 0, 8)
	for hour := 9; hour < 17; hour++ {
		slots = append(slots, Slot{
			ID:           hour - 8,
			StartMinutes: hour * 60,
			EndMinutes:   (hour + 1) * 60,
		})
	}
	c, err := New(slots)
	if err != nil {
		// The default catalog is static and known valid.
		panic(err)
	}
	return c
}

// Get returns the slot with the given ID.
func (c *Catalog) Get(id int) (Slot, error) {
	s, ok := c.byID[id]
	if !ok {
		return Slot{}, fmt.Errorf("%w: id %d", ErrSlotNotFound, id)
	}
	return s, nil
}

// Contains reports whether the catalog has a slot with the given ID.
func (c *Catalog) Contains(id int) bool {
	_, ok := c.byID[id]
	return ok
}

// All returns the slots ordered by start time. The returned slice is a copy.
func (c *Catalog) All() []Slot {
	out := make([]Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

// Len returns the number of slots in the catalog.
func (c *Catalog) Len() int {
	return len(c.slots)
}
