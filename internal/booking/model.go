package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Active reports whether the status occupies its (doctor, date, slot) key.
// Only pending and confirmed bookings block a slot.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Doctor struct {
	ID          uuid.UUID
	Name        string
	Specialty   *string
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TemplateEntry is one cell of a doctor's recurring weekly pattern:
// whether the doctor offers catalog slot SlotID on the given weekday.
type TemplateEntry struct {
	DoctorID    uuid.UUID
	DayOfWeek   time.Weekday
	SlotID      int
	IsAvailable bool
}

// Booking is one reservation of a catalog slot on a calendar date.
// Bookings are never deleted; lifecycle is tracked through Status.
type Booking struct {
	ID              uuid.UUID
	DoctorID        uuid.UUID
	PatientID       uuid.UUID
	Date            time.Time // calendar date, normalized to UTC midnight
	SlotID          int
	Status          Status
	AppointmentType string
	PatientMeta     []byte // opaque patient-entered fields, not interpreted here
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BookRequest carries everything needed to reserve a slot. Identity is
// explicit; the engine trusts the caller-supplied IDs.
type BookRequest struct {
	DoctorID        uuid.UUID
	PatientID       uuid.UUID
	Date            time.Time
	SlotID          int
	AppointmentType string
	PatientMeta     []byte
}

// SlotState is one catalog slot with its computed availability for a date.
type SlotState struct {
	SlotID       int
	StartMinutes int
	EndMinutes   int
	Available    bool
}

// DaySlots is the resolved availability of one doctor on one date, slots
// ordered by start time.
type DaySlots struct {
	Date  time.Time
	Slots []SlotState
}

// StatusCounts are aggregate booking counters. They are always derived from
// the live ledger in a single query, never incrementally patched.
type StatusCounts struct {
	Total     int
	Pending   int
	Confirmed int
	Completed int
	Cancelled int
}

type EventLog struct {
	ID        int64
	EventType string
	BookingID *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}

const (
	EventBookingCreated   = "BOOKING_CREATED"
	EventBookingConfirmed = "BOOKING_CONFIRMED"
	EventBookingCompleted = "BOOKING_COMPLETED"
	EventBookingCancelled = "BOOKING_CANCELLED"
	EventTemplateUpdated  = "TEMPLATE_UPDATED"
)

// DateOnly truncates t to a UTC calendar date. All dates entering the engine
// pass through here so ledger keys compare by day, never by instant.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
