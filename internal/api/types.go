package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	DoctorID        string          `json:"doctor_id"`
	PatientID       string          `json:"patient_id"`
	Date            string          `json:"date"` // YYYY-MM-DD
	SlotID          int             `json:"slot_id"`
	AppointmentType string          `json:"appointment_type"`
	Patient         json.RawMessage `json:"patient,omitempty"` // opaque patient-entered fields
}

type BookingResponse struct {
	ID              uuid.UUID `json:"id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	Date            string    `json:"date"`
	SlotID          int       `json:"slot_id"`
	Status          string    `json:"status"`
	AppointmentType string    `json:"appointment_type"`
	CreatedAt       time.Time `json:"created_at"`
}

type SlotStateResponse struct {
	SlotID    int    `json:"slot_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

type DaySlotsResponse struct {
	Date  string              `json:"date"`
	Slots []SlotStateResponse `json:"slots"`
}

type SlotResponse struct {
	ID    int    `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type TemplateEntryRequest struct {
	DayOfWeek   int  `json:"day_of_week"` // 0 = Sunday
	SlotID      int  `json:"slot_id"`
	IsAvailable bool `json:"is_available"`
}

type SetTemplateRequest struct {
	Entries []TemplateEntryRequest `json:"entries"`
}

type SetAvailabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}

type DoctorResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Specialty   *string   `json:"specialty,omitempty"`
	IsAvailable bool      `json:"is_available"`
}

type StatsResponse struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

type CompletedBookingResponse struct {
	HasCompletedBooking bool `json:"has_completed_booking"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
