package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medcare/booking-engine/internal/booking"
	"github.com/medcare/booking-engine/internal/catalog"
)

// BookingService is the surface of the engine the HTTP layer needs.
type BookingService interface {
	Resolve(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]booking.DaySlots, error)
	Book(ctx context.Context, req booking.BookRequest) (*booking.Booking, error)
	Confirm(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	Complete(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]booking.Booking, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, status *booking.Status, limit, offset int) ([]booking.Booking, error)
	HasCompletedBooking(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error)
	Stats(ctx context.Context, doctorID *uuid.UUID) (booking.StatusCounts, error)
	SetTemplate(ctx context.Context, doctorID uuid.UUID, entries []booking.TemplateEntry) error
	SetDoctorAvailability(ctx context.Context, doctorID uuid.UUID, available bool) (*booking.Doctor, error)
	Catalog() *catalog.Catalog
}

func createBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		date, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		if req.AppointmentType == "" {
			writeError(w, http.StatusBadRequest, "missing_appointment_type", "appointment_type is required")
			return
		}

		appt, err := svc.Book(r.Context(), booking.BookRequest{
			DoctorID:        doctorID,
			PatientID:       patientID,
			Date:            date,
			SlotID:          req.SlotID,
			AppointmentType: req.AppointmentType,
			PatientMeta:     req.Patient,
		})
		if err != nil {
			handleBookError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBookingResponse(appt))
	}
}

func getBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		appt, err := svc.GetBooking(r.Context(), id)
		if err != nil {
			handleLifecycleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(appt))
	}
}

func transitionHandler(fn func(context.Context, uuid.UUID) (*booking.Booking, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		appt, err := fn(r.Context(), id)
		if err != nil {
			handleLifecycleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(appt))
	}
}

func resolveAvailabilityHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		from, err := time.Parse(time.DateOnly, r.URL.Query().Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be YYYY-MM-DD")
			return
		}

		to := from
		if raw := r.URL.Query().Get("to"); raw != "" {
			to, err = time.Parse(time.DateOnly, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_to", "to must be YYYY-MM-DD")
				return
			}
		}

		days, err := svc.Resolve(r.Context(), doctorID, from, to)
		if err != nil {
			handleResolveError(w, err)
			return
		}

		resp := make([]DaySlotsResponse, 0, len(days))
		for _, day := range days {
			d := DaySlotsResponse{
				Date:  day.Date.Format(time.DateOnly),
				Slots: make([]SlotStateResponse, 0, len(day.Slots)),
			}
			for _, s := range day.Slots {
				d.Slots = append(d.Slots, SlotStateResponse{
					SlotID:    s.SlotID,
					Start:     catalog.FormatMinutes(s.StartMinutes),
					End:       catalog.FormatMinutes(s.EndMinutes),
					Available: s.Available,
				})
			}
			resp = append(resp, d)
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func setTemplateHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		var req SetTemplateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		entries := make([]booking.TemplateEntry, 0, len(req.Entries))
		for _, e := range req.Entries {
			entries = append(entries, booking.TemplateEntry{
				DoctorID:    doctorID,
				DayOfWeek:   time.Weekday(e.DayOfWeek),
				SlotID:      e.SlotID,
				IsAvailable: e.IsAvailable,
			})
		}

		if err := svc.SetTemplate(r.Context(), doctorID, entries); err != nil {
			switch {
			case errors.Is(err, booking.ErrDoctorNotFound):
				writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
			case errors.Is(err, booking.ErrInvalidSlot):
				writeError(w, http.StatusBadRequest, "invalid_template_entry", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func setDoctorAvailabilityHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		var req SetAvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctor, err := svc.SetDoctorAvailability(r.Context(), doctorID, req.IsAvailable)
		if err != nil {
			if errors.Is(err, booking.ErrDoctorNotFound) {
				writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, DoctorResponse{
			ID:          doctor.ID,
			Name:        doctor.Name,
			Specialty:   doctor.Specialty,
			IsAvailable: doctor.IsAvailable,
		})
	}
}

func listDoctorBookingsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		var status *booking.Status
		if raw := r.URL.Query().Get("status"); raw != "" {
			s := booking.Status(raw)
			switch s {
			case booking.StatusPending, booking.StatusConfirmed, booking.StatusCompleted, booking.StatusCancelled:
				status = &s
			default:
				writeError(w, http.StatusBadRequest, "invalid_status", "unknown status filter")
				return
			}
		}

		limit, offset := parsePage(r)

		bookings, err := svc.ListByDoctor(r.Context(), doctorID, status, limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponses(bookings))
	}
}

func listPatientBookingsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		limit, offset := parsePage(r)

		bookings, err := svc.ListByPatient(r.Context(), patientID, limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponses(bookings))
	}
}

func hasCompletedBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, ok := parseIDParam(w, r, "pid")
		if !ok {
			return
		}
		doctorID, ok := parseIDParam(w, r, "did")
		if !ok {
			return
		}

		has, err := svc.HasCompletedBooking(r.Context(), patientID, doctorID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, CompletedBookingResponse{HasCompletedBooking: has})
	}
}

func statsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doctorID *uuid.UUID
		if raw := r.URL.Query().Get("doctor_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			doctorID = &id
		}

		counts, err := svc.Stats(r.Context(), doctorID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, StatsResponse{
			Total:     counts.Total,
			Pending:   counts.Pending,
			Confirmed: counts.Confirmed,
			Completed: counts.Completed,
			Cancelled: counts.Cancelled,
		})
	}
}

func listSlotsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots := svc.Catalog().All()
		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, SlotResponse{
				ID:    s.ID,
				Start: catalog.FormatMinutes(s.StartMinutes),
				End:   catalog.FormatMinutes(s.EndMinutes),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Error mapping

func handleBookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, booking.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, booking.ErrPastDate):
		writeError(w, http.StatusBadRequest, "past_date", err.Error())
	case errors.Is(err, booking.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
	case errors.Is(err, booking.ErrInvalidSlot):
		writeError(w, http.StatusBadRequest, "invalid_slot", err.Error())
	case errors.Is(err, booking.ErrDoctorUnavailable):
		writeError(w, http.StatusConflict, "doctor_unavailable", err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", "slot already booked, re-fetch availability and pick another")
	case errors.Is(err, booking.ErrBusy):
		writeError(w, http.StatusConflict, "slot_busy", "slot is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, booking.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// Helpers

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parsePage(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID,
		DoctorID:        b.DoctorID,
		PatientID:       b.PatientID,
		Date:            b.Date.Format(time.DateOnly),
		SlotID:          b.SlotID,
		Status:          string(b.Status),
		AppointmentType: b.AppointmentType,
		CreatedAt:       b.CreatedAt,
	}
}

func toBookingResponses(bookings []booking.Booking) []BookingResponse {
	resp := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, toBookingResponse(&bookings[i]))
	}
	return resp
}
