package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medcare/booking-engine/internal/catalog"
)

// Repository contains all ledger, template, and reference-data access needed
// by the service.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	SetDoctorAvailability(ctx context.Context, id uuid.UUID, available bool) (*Doctor, error)

	// Slot catalog (reference data).
	LoadSlots(ctx context.Context) ([]catalog.Slot, error)

	// Weekly availability template.
	GetTemplate(ctx context.Context, doctorID uuid.UUID) ([]TemplateEntry, error)
	ReplaceTemplate(ctx context.Context, doctorID uuid.UUID, entries []TemplateEntry) error

	// Ledger reads.
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListActiveBookings(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Booking, error)
	ListBookingsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Booking, error)
	ListBookingsByDoctor(ctx context.Context, doctorID uuid.UUID, status *Status, limit, offset int) ([]Booking, error)
	HasCompletedBooking(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error)

	// CreateBooking inserts a pending booking. A violation of the active-key
	// uniqueness constraint is reported as ErrSlotTaken.
	CreateBooking(ctx context.Context, b *Booking) (*Booking, error)

	// UpdateBookingStatus performs a compare-and-swap on status; it returns
	// ErrBookingNotFound when no row matches (id, from).
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Booking, error)

	// CountByStatus derives aggregate counters from the live ledger.
	// doctorID narrows the count when non-nil.
	CountByStatus(ctx context.Context, doctorID *uuid.UUID) (StatusCounts, error)

	// Event logging (at-least-once emission for the external notifier).
	InsertEvent(ctx context.Context, ev EventLog) error
}

// Locker guards the critical section of a booking attempt per
// (doctor, date, slot) key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
