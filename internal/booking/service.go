package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medcare/booking-engine/internal/catalog"
	"github.com/medcare/booking-engine/internal/config"
	"github.com/medcare/booking-engine/internal/metrics"
)

type Service struct {
	repo    Repository
	locker  Locker
	catalog *catalog.Catalog
	cfg     config.Config
	log     zerolog.Logger
	tmpl    *templateCache

	now func() time.Time
}

func NewService(repo Repository, locker Locker, cat *catalog.Catalog, cfg config.Config, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		locker:  locker,
		catalog: cat,
		cfg:     cfg,
		log:     log.With().Str("component", "booking").Logger(),
		tmpl:    newTemplateCache(),
		now:     time.Now,
	}
}

// Catalog exposes the slot catalog for read-only listing.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Book tries to reserve (doctor, date, slot) for a patient. Attempts for the
// same key are serialized by a per-key lock; the partial unique index on
// active bookings is the final arbiter, so at most one concurrent caller
// wins and the rest get ErrSlotTaken.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Booking, error) {
	date := DateOnly(req.Date)
	today := DateOnly(s.now())

	if date.Before(today) {
		metrics.IncBookingAttempt(metrics.OutcomeRejected)
		return nil, ErrPastDate
	}
	if date.After(today.AddDate(0, 0, s.cfg.HorizonDays)) {
		metrics.IncBookingAttempt(metrics.OutcomeRejected)
		return nil, fmt.Errorf("%w: date beyond %d-day horizon", ErrInvalidRange, s.cfg.HorizonDays)
	}

	if _, err := s.repo.GetPatientByID(ctx, req.PatientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			metrics.IncBookingAttempt(metrics.OutcomeRejected)
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	doctor, err := s.repo.GetDoctorByID(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			metrics.IncBookingAttempt(metrics.OutcomeRejected)
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if !doctor.IsAvailable {
		metrics.IncBookingAttempt(metrics.OutcomeRejected)
		return nil, ErrDoctorUnavailable
	}

	if !s.catalog.Contains(req.SlotID) {
		metrics.IncBookingAttempt(metrics.OutcomeRejected)
		return nil, fmt.Errorf("%w: slot %d not in catalog", ErrInvalidSlot, req.SlotID)
	}

	pattern, err := s.templateFor(ctx, req.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if !pattern[date.Weekday()][req.SlotID] {
		metrics.IncBookingAttempt(metrics.OutcomeRejected)
		return nil, ErrInvalidSlot
	}

	var created *Booking
	key := lockKey(req.DoctorID, date, req.SlotID)

	err = s.locker.WithLock(ctx, key, func(lockCtx context.Context) error {
		// Re-check occupancy inside the critical section; the caller's view
		// may be stale.
		active, err := s.repo.ListActiveBookings(lockCtx, req.DoctorID, date, date)
		if err != nil {
			return fmt.Errorf("check active bookings: %w", err)
		}
		for _, b := range active {
			if b.SlotID == req.SlotID {
				return ErrSlotTaken
			}
		}

		appt, err := s.repo.CreateBooking(lockCtx, &Booking{
			DoctorID:        req.DoctorID,
			PatientID:       req.PatientID,
			Date:            date,
			SlotID:          req.SlotID,
			AppointmentType: req.AppointmentType,
			PatientMeta:     req.PatientMeta,
		})
		if err != nil {
			return err
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventBookingCreated, map[string]any{
			"doctor_id":  req.DoctorID.String(),
			"patient_id": req.PatientID.String(),
			"date":       date.Format(time.DateOnly),
			"slot_id":    req.SlotID,
		})

		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrLockNotAcquired):
			metrics.IncBookingAttempt(metrics.OutcomeBusy)
			return nil, ErrBusy
		case errors.Is(err, ErrSlotTaken):
			metrics.IncBookingAttempt(metrics.OutcomeSlotTaken)
			return nil, ErrSlotTaken
		default:
			metrics.IncBookingAttempt(metrics.OutcomeError)
			return nil, err
		}
	}

	metrics.IncBookingAttempt(metrics.OutcomeCreated)
	s.log.Info().
		Str("booking_id", created.ID.String()).
		Str("doctor_id", req.DoctorID.String()).
		Str("date", date.Format(time.DateOnly)).
		Int("slot_id", req.SlotID).
		Msg("booking created")

	return created, nil
}

// Confirm moves a pending booking to confirmed.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.transition(ctx, id, StatusPending, StatusConfirmed, EventBookingConfirmed)
}

// Complete moves a confirmed booking to completed.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.transition(ctx, id, StatusConfirmed, StatusCompleted, EventBookingCompleted)
}

// Cancel moves a pending or confirmed booking to cancelled, freeing its
// (doctor, date, slot) key immediately. Cancelling an already-cancelled
// booking is a no-op returning the terminal state.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Booking, error) {
	appt, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if appt.Status == StatusCancelled {
		return appt, nil
	}
	if !appt.Status.Active() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, StatusCancelled)
	}

	updated, err := s.repo.UpdateBookingStatus(ctx, id, appt.Status, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			// Status moved under us between the read and the CAS.
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, StatusCancelled)
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	metrics.IncStatusTransition(string(StatusCancelled))
	s.logEvent(ctx, updated.ID, EventBookingCancelled, map[string]any{
		"from": string(appt.Status),
	})

	return updated, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, from, to Status, event string) (*Booking, error) {
	appt, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if appt.Status != from {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, to)
	}

	updated, err := s.repo.UpdateBookingStatus(ctx, id, from, to)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, to)
		}
		return nil, fmt.Errorf("update booking status: %w", err)
	}

	metrics.IncStatusTransition(string(to))
	s.logEvent(ctx, updated.ID, event, map[string]any{})

	return updated, nil
}

// GetBooking retrieves a booking by ID.
func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetBookingByID(ctx, id)
}

// ListByPatient returns a patient's bookings, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Booking, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListBookingsByPatient(ctx, patientID, limit, offset)
}

// ListByDoctor returns a doctor's bookings, optionally filtered by status.
func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status *Status, limit, offset int) ([]Booking, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListBookingsByDoctor(ctx, doctorID, status, limit, offset)
}

// HasCompletedBooking reports whether the patient has at least one completed
// booking with the doctor. The review subsystem uses this for eligibility.
func (s *Service) HasCompletedBooking(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error) {
	return s.repo.HasCompletedBooking(ctx, patientID, doctorID)
}

// Stats derives aggregate counters from the live ledger. Counters are never
// stored or incrementally patched, so they cannot drift.
func (s *Service) Stats(ctx context.Context, doctorID *uuid.UUID) (StatusCounts, error) {
	return s.repo.CountByStatus(ctx, doctorID)
}

// SetTemplate replaces a doctor's weekly availability pattern. The cached
// pattern is invalidated before the call returns.
func (s *Service) SetTemplate(ctx context.Context, doctorID uuid.UUID, entries []TemplateEntry) error {
	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		return err
	}

	for _, e := range entries {
		if e.DayOfWeek < time.Sunday || e.DayOfWeek > time.Saturday {
			return fmt.Errorf("%w: day of week %d out of range", ErrInvalidSlot, e.DayOfWeek)
		}
		if !s.catalog.Contains(e.SlotID) {
			return fmt.Errorf("%w: slot %d not in catalog", ErrInvalidSlot, e.SlotID)
		}
	}

	if err := s.repo.ReplaceTemplate(ctx, doctorID, entries); err != nil {
		return fmt.Errorf("replace template: %w", err)
	}

	s.tmpl.invalidate(doctorID)

	s.logEvent(ctx, uuid.Nil, EventTemplateUpdated, map[string]any{
		"doctor_id": doctorID.String(),
		"entries":   len(entries),
	})

	return nil
}

// SetDoctorAvailability flips the doctor's global booking switch.
func (s *Service) SetDoctorAvailability(ctx context.Context, doctorID uuid.UUID, available bool) (*Doctor, error) {
	doctor, err := s.repo.SetDoctorAvailability(ctx, doctorID, available)
	if err != nil {
		return nil, err
	}

	s.tmpl.invalidate(doctorID)

	s.log.Info().
		Str("doctor_id", doctorID.String()).
		Bool("available", available).
		Msg("doctor availability updated")

	return doctor, nil
}

func (s *Service) templateFor(ctx context.Context, doctorID uuid.UUID) (weekPattern, error) {
	if p, ok := s.tmpl.get(doctorID); ok {
		return p, nil
	}

	entries, err := s.repo.GetTemplate(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	p := foldTemplate(entries)
	s.tmpl.put(doctorID, p)
	return p, nil
}

func lockKey(doctorID uuid.UUID, date time.Time, slotID int) string {
	return fmt.Sprintf("%s:%s:%d", doctorID, date.Format(time.DateOnly), slotID)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Service) logEvent(ctx context.Context, bookingID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = nil
	}

	ev := EventLog{
		EventType: eventType,
		Payload:   data,
		CreatedAt: s.now(),
	}
	if bookingID != uuid.Nil {
		id := bookingID
		ev.BookingID = &id
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("event", eventType).Str("booking_id", bookingID.String()).Msg("insert event log")
	}
}
