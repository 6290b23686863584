package booking

import "errors"

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrBookingNotFound = errors.New("booking not found")

	// ErrInvalidRange covers malformed or out-of-horizon date ranges passed
	// to Resolve.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrInvalidSlot means the slot is not in the catalog or not in the
	// doctor's template for that weekday.
	ErrInvalidSlot = errors.New("slot not offered by doctor on that day")

	ErrPastDate          = errors.New("date is in the past")
	ErrDoctorUnavailable = errors.New("doctor is not accepting bookings")

	// ErrSlotTaken is a lost race: another active booking holds the
	// (doctor, date, slot) key. Not retryable for the same slot; callers
	// should re-resolve availability and pick another.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrBusy means the per-key serialization point could not be acquired
	// in time. Retryable with backoff.
	ErrBusy = errors.New("slot is currently being booked, please retry")

	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrLockNotAcquired is returned by Locker implementations; the service
	// surfaces it to callers as ErrBusy.
	ErrLockNotAcquired = errors.New("booking lock not acquired")
)
