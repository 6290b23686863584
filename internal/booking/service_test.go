package booking

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medcare/booking-engine/internal/catalog"
	"github.com/medcare/booking-engine/internal/config"
)

// memRepo is a functional in-memory Repository. Unlike a call-recording
// mock it enforces the active-key uniqueness constraint and CAS semantics,
// which the concurrency tests depend on.
type memRepo struct {
	mu        sync.Mutex
	doctors   map[uuid.UUID]*Doctor
	patients  map[uuid.UUID]*Patient
	templates map[uuid.UUID][]TemplateEntry
	bookings  map[uuid.UUID]*Booking
	events    []EventLog

	activeCalls   int
	templateCalls int
}

func newMemRepo() *memRepo {
	return &memRepo{
		doctors:   make(map[uuid.UUID]*Doctor),
		patients:  make(map[uuid.UUID]*Patient),
		templates: make(map[uuid.UUID][]TemplateEntry),
		bookings:  make(map[uuid.UUID]*Booking),
	}
}

func (r *memRepo) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memRepo) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) SetDoctorAvailability(_ context.Context, id uuid.UUID, available bool) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	d.IsAvailable = available
	cp := *d
	return &cp, nil
}

func (r *memRepo) LoadSlots(_ context.Context) ([]catalog.Slot, error) {
	return catalog.Default().All(), nil
}

func (r *memRepo) GetTemplate(_ context.Context, doctorID uuid.UUID) ([]TemplateEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templateCalls++
	return append([]TemplateEntry(nil), r.templates[doctorID]...), nil
}

func (r *memRepo) ReplaceTemplate(_ context.Context, doctorID uuid.UUID, entries []TemplateEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[doctorID] = append([]TemplateEntry(nil), entries...)
	return nil
}

func (r *memRepo) GetBookingByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) ListActiveBookings(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeCalls++
	var result []Booking
	for _, b := range r.bookings {
		if b.DoctorID == doctorID && b.Status.Active() && !b.Date.Before(from) && !b.Date.After(to) {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (r *memRepo) ListBookingsByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []Booking
	for _, b := range r.bookings {
		if b.PatientID == patientID {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, limit, offset), nil
}

func (r *memRepo) ListBookingsByDoctor(_ context.Context, doctorID uuid.UUID, status *Status, limit, offset int) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []Booking
	for _, b := range r.bookings {
		if b.DoctorID != doctorID {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].SlotID < result[j].SlotID
	})
	return page(result, limit, offset), nil
}

func page(bookings []Booking, limit, offset int) []Booking {
	if offset >= len(bookings) {
		return nil
	}
	bookings = bookings[offset:]
	if limit < len(bookings) {
		bookings = bookings[:limit]
	}
	return bookings
}

func (r *memRepo) HasCompletedBooking(_ context.Context, patientID, doctorID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.PatientID == patientID && b.DoctorID == doctorID && b.Status == StatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) CreateBooking(_ context.Context, b *Booking) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Partial uniqueness over active bookings, as the Postgres index does.
	for _, existing := range r.bookings {
		if existing.DoctorID == b.DoctorID && existing.Date.Equal(b.Date) && existing.SlotID == b.SlotID && existing.Status.Active() {
			return nil, ErrSlotTaken
		}
	}

	now := time.Now()
	created := *b
	created.ID = uuid.New()
	created.Status = StatusPending
	created.CreatedAt = now
	created.UpdatedAt = now
	r.bookings[created.ID] = &created

	cp := created
	return &cp, nil
}

func (r *memRepo) UpdateBookingStatus(_ context.Context, id uuid.UUID, from, to Status) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != from {
		return nil, ErrBookingNotFound
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (r *memRepo) CountByStatus(_ context.Context, doctorID *uuid.UUID) (StatusCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var counts StatusCounts
	for _, b := range r.bookings {
		if doctorID != nil && b.DoctorID != *doctorID {
			continue
		}
		counts.Total++
		switch b.Status {
		case StatusPending:
			counts.Pending++
		case StatusConfirmed:
			counts.Confirmed++
		case StatusCompleted:
			counts.Completed++
		case StatusCancelled:
			counts.Cancelled++
		}
	}
	return counts, nil
}

func (r *memRepo) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *memRepo) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		types = append(types, ev.EventType)
	}
	return types
}

// memLocker serializes callers per key, like the Redis lock does for a
// single contended booking key.
type memLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMemLocker() *memLocker {
	return &memLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *memLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

// refusingLocker models a lock that cannot be acquired in time.
type refusingLocker struct{}

func (refusingLocker) WithLock(context.Context, string, func(ctx context.Context) error) error {
	return ErrLockNotAcquired
}

// Fixtures

// testNow is a Monday; nextMonday is the following one, well inside the
// default horizon.
var (
	testNow    = time.Date(2026, 2, 2, 9, 30, 0, 0, time.UTC)
	nextMonday = time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc     *Service
	repo    *memRepo
	doctor  uuid.UUID
	patient uuid.UUID
	other   uuid.UUID
}

func newFixture(t *testing.T, locker Locker) *fixture {
	t.Helper()

	repo := newMemRepo()
	doctorID := uuid.New()
	patientID := uuid.New()
	otherID := uuid.New()

	repo.doctors[doctorID] = &Doctor{ID: doctorID, Name: "Dr. A", IsAvailable: true}
	repo.patients[patientID] = &Patient{ID: patientID, Name: "P1"}
	repo.patients[otherID] = &Patient{ID: otherID, Name: "P2"}

	// Monday template: slots 1 (09:00) and 2 (10:00) offered, slot 3
	// explicitly switched off.
	repo.templates[doctorID] = []TemplateEntry{
		{DoctorID: doctorID, DayOfWeek: time.Monday, SlotID: 1, IsAvailable: true},
		{DoctorID: doctorID, DayOfWeek: time.Monday, SlotID: 2, IsAvailable: true},
		{DoctorID: doctorID, DayOfWeek: time.Monday, SlotID: 3, IsAvailable: false},
	}

	cfg := config.Config{HorizonDays: 60, LockTTL: time.Second}
	svc := NewService(repo, locker, catalog.Default(), cfg, zerolog.Nop())
	svc.now = func() time.Time { return testNow }

	return &fixture{svc: svc, repo: repo, doctor: doctorID, patient: patientID, other: otherID}
}

func (f *fixture) book(t *testing.T, patientID uuid.UUID, slotID int) *Booking {
	t.Helper()
	appt, err := f.svc.Book(context.Background(), BookRequest{
		DoctorID:        f.doctor,
		PatientID:       patientID,
		Date:            nextMonday,
		SlotID:          slotID,
		AppointmentType: "video",
	})
	require.NoError(t, err)
	return appt
}

// Resolver

func TestResolveTemplatedSlots(t *testing.T) {
	f := newFixture(t, newMemLocker())

	days, err := f.svc.Resolve(context.Background(), f.doctor, nextMonday, nextMonday.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, days, 2)

	monday := days[0]
	assert.Equal(t, nextMonday, monday.Date)
	require.Len(t, monday.Slots, 2, "only slots offered in the template appear")
	assert.Equal(t, 1, monday.Slots[0].SlotID)
	assert.Equal(t, 2, monday.Slots[1].SlotID)
	assert.True(t, monday.Slots[0].StartMinutes < monday.Slots[1].StartMinutes)
	for _, s := range monday.Slots {
		assert.True(t, s.Available)
	}

	// Tuesday has no template entries: empty list, not an error.
	assert.Empty(t, days[1].Slots)
}

func TestResolveRangeValidation(t *testing.T) {
	f := newFixture(t, newMemLocker())
	ctx := context.Background()

	_, err := f.svc.Resolve(ctx, f.doctor, testNow.AddDate(0, 0, -1), testNow)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = f.svc.Resolve(ctx, f.doctor, testNow, testNow.AddDate(0, 0, 61))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = f.svc.Resolve(ctx, f.doctor, nextMonday, nextMonday.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = f.svc.Resolve(ctx, uuid.New(), nextMonday, nextMonday)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestResolveDisabledDoctorShortCircuits(t *testing.T) {
	f := newFixture(t, newMemLocker())
	ctx := context.Background()

	_, err := f.svc.SetDoctorAvailability(ctx, f.doctor, false)
	require.NoError(t, err)

	days, err := f.svc.Resolve(ctx, f.doctor, nextMonday, nextMonday.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, days, 3)
	for _, d := range days {
		assert.Empty(t, d.Slots)
	}
	assert.Zero(t, f.repo.activeCalls, "ledger must not be queried for a disabled doctor")
}

func TestBookThenResolveRoundTrip(t *testing.T) {
	f := newFixture(t, newMemLocker())
	ctx := context.Background()

	appt := f.book(t, f.patient, 1)

	days, err := f.svc.Resolve(ctx, f.doctor, nextMonday, nextMonday)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.False(t, days[0].Slots[0].Available, "booked slot reports unavailable immediately")
	assert.True(t, days[0].Slots[1].Available)

	_, err = f.svc.Cancel(ctx, appt.ID)
	require.NoError(t, err)

	days, err = f.svc.Resolve(ctx, f.doctor, nextMonday, nextMonday)
	require.NoError(t, err)
	assert.True(t, days[0].Slots[0].Available, "cancelled slot frees up on the next read")
}

// Booking transaction

func TestBookValidation(t *testing.T) {
	f := newFixture(t, newMemLocker())
	ctx := context.Background()

	base := BookRequest{
		DoctorID:        f.doctor,
		PatientID:       f.patient,
		Date:            nextMonday,
		SlotID:          1,
		AppointmentType: "video",
	}

	past := base
	past.Date = testNow.AddDate(0, 0, -1)
	_, err := f.svc.Book(ctx, past)
	assert.ErrorIs(t, err, ErrPastDate)

	far := base
	far.Date = testNow.AddDate(0, 0, 90)
	_, err = f.svc.Book(ctx, far)
	assert.ErrorIs(t, err, ErrInvalidRange)

	noPatient := base
	noPatient.PatientID = uuid.New()
	_, err = f.svc.Book(ctx, noPatient)
	assert.ErrorIs(t, err, ErrPatientNotFound)

	noDoctor := base
	noDoctor.DoctorID = uuid.New()
	_, err = f.svc.Book(ctx, noDoctor)
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	offCatalog := base
	offCatalog.SlotID = 99
	_, err = f.svc.Book(ctx, offCatalog)
	assert.ErrorIs(t, err, ErrInvalidSlot)

	// Slot 3 exists in the catalog but is switched off in the template.
	offTemplate := base
	offTemplate.SlotID = 3
	_, err = f.svc.Book(ctx, offTemplate)
	assert.ErrorIs(t, err, ErrInvalidSlot)

	// Tuesday is not templated at all.
	wrongDay := base
	wrongDay.Date = nextMonday.AddDate(0, 0, 1)
	_, err = f.svc.Book(ctx, wrongDay)
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestBookDoctorUnavailable(t *testing.T) {
	f := newFixture(t, newMemLocker())
	ctx := context.Background()

	_, err := f.svc.SetDoctorAvailability(ctx, f.doctor, false)
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, BookRequest{
		DoctorID:        f.doctor,
		PatientID:       f.patient,
		Date:            nextMonday,
		SlotID:          1,
		AppointmentType: "video",
	})
	assert.ErrorIs(t, err, ErrDoctorUnavailable)
}

func TestBookBusyWhenLockUnavailable(t *testing.T) {
	f := newFixture(t, refusingLocker{})

	_, err := f.svc.Book(context.Background(), BookRequest{
		DoctorID:        f.doctor,
		PatientID:       f.patient,
		Date:            nextMonday,
		SlotID:          1,
		AppointmentType: "video",
	})
	assert.ErrorIs(t, err, ErrBusy)
	assert.NotErrorIs(t, err, ErrSlotTaken)
}

func TestBookAtMostOneWinner(t *testing.T) {
	f := newFixture(t, newMemLocker())

	const attempts = 16

	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Book(context.Background(), BookRequest{
				DoctorID:        f.doctor,
				PatientID:       f.patient,
				Date:            nextMonday,
				SlotID:          1,
				AppointmentType: "video",
			})
			errs[i] = err
		}(i)
	}
	wg.Wait()

	var wins, taken int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, ErrSlotTaken):
			taken++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, taken)
}

func TestBookEmitsCreatedEvent(t *testing.T) {
	f := newFixture(t, newMemLocker())

	appt := f.book(t, f.patient, 1)

	require.NotEmpty(t, f.repo.events)
	ev := f.repo.events[len(f.repo.events)-1]
	assert.Equal(t, EventBookingCreated, ev.EventType)
	require.NotNil(t, ev.BookingID)
	assert.Equal(t, appt.ID, *ev.BookingID)
}

// Status lifecycle

func TestLifecycleHappyPath(t *testing.T) {
	f := newFixture(t, newMemLocker())
	ctx := context.Background()

	appt := f.book(t, f.patient, 1)
	assert.Equal(t, StatusPending, appt.Status)

	confirmed, err := f.svc.Confirm(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	completed, err := f.svc.Complete(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)

	assert.Equal(t, []string{EventBookingCreated, EventBookingConfirmed, EventBookingCompleted}, f.repo.eventTypes())
}

func TestLifecycleInvalidTransitions(t *testing.T) {
	f := newFixture(t, newMemLocker())
	ctx := context.Background()

	appt := f.book(t, f.patient, 1)

	// Cannot complete before confirming.
	_, err := f.svc.Complete(ctx, appt.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.Confirm(ctx, appt.ID)
	require.NoError(t, err)

	// Cannot confirm twice.
	_, err = f.svc.Confirm(ctx, appt.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.Complete(ctx, appt.ID)
	require.NoError(t, err)

	// Completed is terminal.
	_, err = f.svc.Cancel(ctx, appt.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.svc.Confirm(ctx, appt.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.Confirm(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture(t, newMemLocker())
	ctx := context.Background()

	appt := f.book(t, f.patient, 1)

	first, err := f.svc.Cancel(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, first.Status)

	second, err := f.svc.Cancel(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, second.Status)

	// The repeat cancel must not log another event or move counters.
	counts, err := f.svc.Stats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCounts{Total: 1, Cancelled: 1}, counts)

	var cancelEvents int
	for _, typ := range f.repo.eventTypes() {
		if typ == EventBookingCancelled {
			cancelEvents++
		}
	}
	assert.Equal(t, 1, cancelEvents)
}

func TestCancelFromConfirmed(t *testing.T) {
	f := newFixture(t, newMemLocker())
	ctx := context.Background()

	appt := f.book(t, f.patient, 1)
	_, err := f.svc.Confirm(ctx, appt.ID)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
}

// End-to-end scenario from the booking flow: P1 books Monday 09:00, P2
// loses the race, admin confirms then cancels, P2 retries and wins.
func TestBookingScenario(t *testing.T) {
	f := newFixture(t, newMemLocker())
	ctx := context.Background()

	p1Appt := f.book(t, f.patient, 1)
	assert.Equal(t, StatusPending, p1Appt.Status)

	_, err := f.svc.Book(ctx, BookRequest{
		DoctorID:        f.doctor,
		PatientID:       f.other,
		Date:            nextMonday,
		SlotID:          1,
		AppointmentType: "hospital",
	})
	assert.ErrorIs(t, err, ErrSlotTaken)

	_, err = f.svc.Confirm(ctx, p1Appt.ID)
	require.NoError(t, err)

	counts, err := f.svc.Stats(ctx, &f.doctor)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Confirmed)
	assert.Equal(t, 0, counts.Pending)

	_, err = f.svc.Cancel(ctx, p1Appt.ID)
	require.NoError(t, err)

	retry := f.book(t, f.other, 1)
	assert.Equal(t, StatusPending, retry.Status)

	counts, err = f.svc.Stats(ctx, &f.doctor)
	require.NoError(t, err)
	assert.Equal(t, StatusCounts{Total: 2, Pending: 1, Cancelled: 1}, counts)
}

// Queries and admin

func TestHasCompletedBooking(t *testing.T) {
	f := newFixture(t, newMemLocker())
	ctx := context.Background()

	appt := f.book(t, f.patient, 1)

	has, err := f.svc.HasCompletedBooking(ctx, f.patient, f.doctor)
	require.NoError(t, err)
	assert.False(t, has, "pending booking does not grant review eligibility")

	_, err = f.svc.Confirm(ctx, appt.ID)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, appt.ID)
	require.NoError(t, err)

	has, err = f.svc.HasCompletedBooking(ctx, f.patient, f.doctor)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = f.svc.HasCompletedBooking(ctx, f.other, f.doctor)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSetTemplateValidatesAndInvalidatesCache(t *testing.T) {
	f := newFixture(t, newMemLocker())
	ctx := context.Background()

	err := f.svc.SetTemplate(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	err = f.svc.SetTemplate(ctx, f.doctor, []TemplateEntry{
		{DoctorID: f.doctor, DayOfWeek: time.Monday, SlotID: 99, IsAvailable: true},
	})
	assert.ErrorIs(t, err, ErrInvalidSlot)

	err = f.svc.SetTemplate(ctx, f.doctor, []TemplateEntry{
		{DoctorID: f.doctor, DayOfWeek: 7, SlotID: 1, IsAvailable: true},
	})
	assert.ErrorIs(t, err, ErrInvalidSlot)

	// Warm the cache, then shrink the template to slot 2 only.
	_, err = f.svc.Resolve(ctx, f.doctor, nextMonday, nextMonday)
	require.NoError(t, err)
	callsAfterWarm := f.repo.templateCalls

	_, err = f.svc.Resolve(ctx, f.doctor, nextMonday, nextMonday)
	require.NoError(t, err)
	assert.Equal(t, callsAfterWarm, f.repo.templateCalls, "second resolve served from cache")

	err = f.svc.SetTemplate(ctx, f.doctor, []TemplateEntry{
		{DoctorID: f.doctor, DayOfWeek: time.Monday, SlotID: 2, IsAvailable: true},
	})
	require.NoError(t, err)

	days, err := f.svc.Resolve(ctx, f.doctor, nextMonday, nextMonday)
	require.NoError(t, err)
	require.Len(t, days[0].Slots, 1, "resolve reflects the new template immediately")
	assert.Equal(t, 2, days[0].Slots[0].SlotID)
}

func TestListBookings(t *testing.T) {
	f := newFixture(t, newMemLocker())
	ctx := context.Background()

	first := f.book(t, f.patient, 1)
	f.book(t, f.other, 2)

	mine, err := f.svc.ListByPatient(ctx, f.patient, 0, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	all, err := f.svc.ListByDoctor(ctx, f.doctor, nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending := StatusPending
	_, err = f.svc.Confirm(ctx, first.ID)
	require.NoError(t, err)

	stillPending, err := f.svc.ListByDoctor(ctx, f.doctor, &pending, 0, 0)
	require.NoError(t, err)
	require.Len(t, stillPending, 1)
	assert.NotEqual(t, first.ID, stillPending[0].ID)
}
