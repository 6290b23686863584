package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medcare/booking-engine/internal/catalog"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var specialty *string

	err := row.Scan(
		&d.ID,
		&d.Name,
		&specialty,
		&d.IsAvailable,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.Specialty = specialty
	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var email *string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&email,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.Email = email
	return &p, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var meta []byte

	err := row.Scan(
		&b.ID,
		&b.DoctorID,
		&b.PatientID,
		&b.Date,
		&b.SlotID,
		&b.Status,
		&b.AppointmentType,
		&meta,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	b.PatientMeta = meta
	b.Date = DateOnly(b.Date)
	return &b, nil
}

const bookingColumns = `id, doctor_id, patient_id, date, slot_id, status, appointment_type, patient_meta, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, is_available, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) SetDoctorAvailability(ctx context.Context, id uuid.UUID, available bool) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctors
		SET is_available = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, specialty, is_available, created_at, updated_at
	`, id, available)
	return scanDoctor(row)
}

func (r *PgRepository) LoadSlots(ctx context.Context) ([]catalog.Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, start_minutes, end_minutes
		FROM slots
		ORDER BY start_minutes
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.Slot
	for rows.Next() {
		var s catalog.Slot
		if err := rows.Scan(&s.ID, &s.StartMinutes, &s.EndMinutes); err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	return result, rows.Err()
}

func (r *PgRepository) GetTemplate(ctx context.Context, doctorID uuid.UUID) ([]TemplateEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doctor_id, day_of_week, slot_id, is_available
		FROM availability_templates
		WHERE doctor_id = $1
		ORDER BY day_of_week, slot_id
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TemplateEntry
	for rows.Next() {
		var e TemplateEntry
		var dow int
		if err := rows.Scan(&e.DoctorID, &dow, &e.SlotID, &e.IsAvailable); err != nil {
			return nil, err
		}
		e.DayOfWeek = time.Weekday(dow)
		result = append(result, e)
	}

	return result, rows.Err()
}

// ReplaceTemplate swaps a doctor's weekly template in one transaction so
// readers never observe a half-written pattern.
func (r *PgRepository) ReplaceTemplate(ctx context.Context, doctorID uuid.UUID, entries []TemplateEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM availability_templates
		WHERE doctor_id = $1
	`, doctorID); err != nil {
		return fmt.Errorf("clear template: %w", err)
	}

	for _, e := range entries {
		if _, err := tx.Exec(ctx, `
			INSERT INTO availability_templates (doctor_id, day_of_week, slot_id, is_available, updated_at)
			VALUES ($1, $2, $3, $4, now())
		`, doctorID, int(e.DayOfWeek), e.SlotID, e.IsAvailable); err != nil {
			return fmt.Errorf("insert template entry: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) ListActiveBookings(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE doctor_id = $1
		  AND date >= $2
		  AND date <= $3
		  AND status IN ('pending', 'confirmed')
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PgRepository) ListBookingsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PgRepository) ListBookingsByDoctor(ctx context.Context, doctorID uuid.UUID, status *Status, limit, offset int) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE doctor_id = $1
	`
	args := []any{doctorID}

	if status != nil {
		query += ` AND status = $2 ORDER BY date, slot_id LIMIT $3 OFFSET $4`
		args = append(args, *status, limit, offset)
	} else {
		query += ` ORDER BY date, slot_id LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PgRepository) HasCompletedBooking(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM bookings
			WHERE patient_id = $1
			  AND doctor_id = $2
			  AND status = 'completed'
		)
	`, patientID, doctorID).Scan(&exists)
	return exists, err
}

func (r *PgRepository) CreateBooking(ctx context.Context, b *Booking) (*Booking, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (id, doctor_id, patient_id, date, slot_id, status, appointment_type, patient_meta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6, $7, now(), now())
		RETURNING `+bookingColumns+`
	`, id, b.DoctorID, b.PatientID, b.Date, b.SlotID, b.AppointmentType, b.PatientMeta)

	created, err := scanBooking(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// Lost the race on the partial unique index over active bookings.
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+bookingColumns+`
	`, id, to, from)

	return scanBooking(row)
}

func (r *PgRepository) CountByStatus(ctx context.Context, doctorID *uuid.UUID) (StatusCounts, error) {
	query := `
		SELECT status, count(*)
		FROM bookings
	`
	var args []any
	if doctorID != nil {
		query += ` WHERE doctor_id = $1`
		args = append(args, *doctorID)
	}
	query += ` GROUP BY status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return StatusCounts{}, err
	}
	defer rows.Close()

	var counts StatusCounts
	for rows.Next() {
		var status Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return StatusCounts{}, err
		}
		counts.Total += n
		switch status {
		case StatusPending:
			counts.Pending = n
		case StatusConfirmed:
			counts.Confirmed = n
		case StatusCompleted:
			counts.Completed = n
		case StatusCancelled:
			counts.Cancelled = n
		}
	}

	return counts, rows.Err()
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, booking_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.BookingID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
