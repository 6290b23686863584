package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medcare/booking-engine/internal/metrics"
)

// Resolve computes the effective free/busy state of every templated slot for
// each date in [from, to]. It is a pure read: template says available AND no
// pending/confirmed booking holds the key. Dates come back in calendar
// order, slots ordered by start time.
func (s *Service) Resolve(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]DaySlots, error) {
	from = DateOnly(from)
	to = DateOnly(to)
	today := DateOnly(s.now())

	if to.Before(from) {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidRange)
	}
	if from.Before(today) {
		return nil, fmt.Errorf("%w: starts in the past", ErrInvalidRange)
	}
	if to.After(today.AddDate(0, 0, s.cfg.HorizonDays)) {
		return nil, fmt.Errorf("%w: exceeds %d-day horizon", ErrInvalidRange, s.cfg.HorizonDays)
	}

	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	metrics.IncAvailabilityResolve()

	// A globally disabled doctor resolves to empty days without touching
	// the ledger.
	if !doctor.IsAvailable {
		return emptyDays(from, to), nil
	}

	pattern, err := s.templateFor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if len(pattern) == 0 {
		return emptyDays(from, to), nil
	}

	active, err := s.repo.ListActiveBookings(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}

	occupied := make(map[string]bool, len(active))
	for _, b := range active {
		occupied[occupancyKey(b.Date, b.SlotID)] = true
	}

	var result []DaySlots
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		day := DaySlots{Date: date}
		offered := pattern[date.Weekday()]

		for _, slot := range s.catalog.All() {
			if !offered[slot.ID] {
				continue
			}
			day.Slots = append(day.Slots, SlotState{
				SlotID:       slot.ID,
				StartMinutes: slot.StartMinutes,
				EndMinutes:   slot.EndMinutes,
				Available:    !occupied[occupancyKey(date, slot.ID)],
			})
		}

		result = append(result, day)
	}

	return result, nil
}

func emptyDays(from, to time.Time) []DaySlots {
	var result []DaySlots
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		result = append(result, DaySlots{Date: date})
	}
	return result
}

func occupancyKey(date time.Time, slotID int) string {
	return fmt.Sprintf("%s:%d", date.Format(time.DateOnly), slotID)
}
