package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking_engine",
			Name:      "booking_attempts_total",
			Help:      "Count of booking attempts by outcome.",
		},
		[]string{"outcome"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking_engine",
			Name:      "status_transitions_total",
			Help:      "Count of booking status transitions by target status.",
		},
		[]string{"to"},
	)

	availabilityResolves = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "booking_engine",
			Name:      "availability_resolves_total",
			Help:      "Count of availability resolutions served.",
		},
	)
)

// Booking attempt outcomes.
const (
	OutcomeCreated   = "created"
	OutcomeSlotTaken = "slot_taken"
	OutcomeBusy      = "busy"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingAttempts, statusTransitions, availabilityResolves)
	})
}

func IncBookingAttempt(outcome string) {
	bookingAttempts.WithLabelValues(outcome).Inc()
}

func IncStatusTransition(to string) {
	statusTransitions.WithLabelValues(to).Inc()
}

func IncAvailabilityResolve() {
	availabilityResolves.Inc()
}
