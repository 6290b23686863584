// simulate drives concurrent booking traffic against a running api-server,
// deliberately aiming many workers at the same (doctor, date, slot) keys to
// exercise the at-most-one-winner guarantee under contention.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/medcare/booking-engine/internal/db"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	DoctorLimit  int
	PatientLimit int
	PostgresDSN  string
}

type DataPool struct {
	Doctors  []uuid.UUID
	Patients []uuid.UUID

	mu       sync.RWMutex
	bookings []uuid.UUID
}

func (dp *DataPool) AddBooking(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.bookings = append(dp.bookings, id)
}

func (dp *DataPool) RandomBooking() (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.bookings) == 0 {
		return uuid.Nil, false
	}
	return dp.bookings[rand.Intn(len(dp.bookings))], true
}

type OperationMetrics struct {
	Total    int64
	Success  int64
	Conflict int64
	Error    int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.latencies))
	copy(latencies, om.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	idx := len(latencies) * 95 / 100
	if idx >= len(latencies) {
		idx = len(latencies) - 1
	}
	p95 = latencies[idx]
	return avg, p50, p95
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadSimConfig()
	log.Printf("simulate: base_url=%s workers=%d duration=%s", cfg.APIBaseURL, cfg.Workers, cfg.Duration)

	pool, err := loadDataPool(cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	log.Printf("loaded %d doctors, %d patients", len(pool.Doctors), len(pool.Patients))

	bookMetrics := &OperationMetrics{}
	lifecycleMetrics := &OperationMetrics{}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			worker(ctx, cfg, client, pool, rng, bookMetrics, lifecycleMetrics)
		}(time.Now().UnixNano() + int64(w))
	}
	wg.Wait()

	printSummary("book", bookMetrics)
	printSummary("lifecycle", lifecycleMetrics)
}

func worker(ctx context.Context, cfg SimConfig, client *http.Client, pool *DataPool, rng *rand.Rand, bookM, lifeM *OperationMetrics) {
	for ctx.Err() == nil {
		// Mostly book; occasionally confirm or cancel an earlier booking so
		// slots free up and counters move through the whole lifecycle.
		roll := rng.Float64()
		switch {
		case roll < 0.7:
			doBook(ctx, cfg, client, pool, rng, bookM)
		case roll < 0.85:
			doTransition(ctx, cfg, client, pool, rng, "confirm", lifeM)
		default:
			doTransition(ctx, cfg, client, pool, rng, "cancel", lifeM)
		}
	}
}

func doBook(ctx context.Context, cfg SimConfig, client *http.Client, pool *DataPool, rng *rand.Rand, m *OperationMetrics) {
	// A narrow key space (few doctors, 3 days, 8 slots) makes collisions
	// frequent on purpose.
	doctor := pool.Doctors[rng.Intn(len(pool.Doctors))]
	patient := pool.Patients[rng.Intn(len(pool.Patients))]
	date := time.Now().UTC().AddDate(0, 0, 1+rng.Intn(3)).Format(time.DateOnly)
	slot := 1 + rng.Intn(8)

	body, _ := json.Marshal(map[string]any{
		"doctor_id":        doctor.String(),
		"patient_id":       patient.String(),
		"date":             date,
		"slot_id":          slot,
		"appointment_type": "video",
	})

	start := time.Now()
	resp, err := post(ctx, client, cfg.APIBaseURL+"/bookings", body)
	latency := time.Since(start)
	if err != nil {
		m.Record(latency, false, false)
		return
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		var created struct {
			ID uuid.UUID `json:"id"`
		}
		if json.Unmarshal(resp.Body, &created) == nil {
			pool.AddBooking(created.ID)
		}
		m.Record(latency, true, false)
	case http.StatusConflict:
		m.Record(latency, false, true)
	default:
		m.Record(latency, false, false)
	}
}

func doTransition(ctx context.Context, cfg SimConfig, client *http.Client, pool *DataPool, rng *rand.Rand, action string, m *OperationMetrics) {
	id, ok := pool.RandomBooking()
	if !ok {
		return
	}

	start := time.Now()
	resp, err := post(ctx, client, fmt.Sprintf("%s/bookings/%s/%s", cfg.APIBaseURL, id, action), nil)
	latency := time.Since(start)
	if err != nil {
		m.Record(latency, false, false)
		return
	}

	switch resp.StatusCode {
	case http.StatusOK:
		m.Record(latency, true, false)
	case http.StatusConflict:
		// Invalid transitions are expected when workers race on lifecycle.
		m.Record(latency, false, true)
	default:
		m.Record(latency, false, false)
	}
}

type simResponse struct {
	StatusCode int
	Body       []byte
}

func post(ctx context.Context, client *http.Client, url string, body []byte) (*simResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &simResponse{StatusCode: resp.StatusCode, Body: data}, nil
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_URL", "http://127.0.0.1:8080"),
		Duration:     30 * time.Second,
		Workers:      20,
		DoctorLimit:  5,
		PatientLimit: 200,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
	}

	if v := os.Getenv("SIM_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Duration = d
		}
	}
	if v := os.Getenv("SIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	return cfg
}

func loadDataPool(cfg SimConfig) (*DataPool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	defer pgPool.Close()

	pool := &DataPool{}

	rows, err := pgPool.Query(ctx, `SELECT id FROM doctors WHERE is_available LIMIT $1`, cfg.DoctorLimit)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		pool.Doctors = append(pool.Doctors, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = pgPool.Query(ctx, `SELECT id FROM patients LIMIT $1`, cfg.PatientLimit)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		pool.Patients = append(pool.Patients, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(pool.Doctors) == 0 || len(pool.Patients) == 0 {
		return nil, fmt.Errorf("no doctors or patients seeded, run cmd/seed first")
	}

	return pool, nil
}

func printSummary(name string, m *OperationMetrics) {
	avg, p50, p95 := m.Stats()
	log.Printf("%s: total=%d success=%d conflict=%d error=%d avg=%s p50=%s p95=%s",
		name,
		atomic.LoadInt64(&m.Total),
		atomic.LoadInt64(&m.Success),
		atomic.LoadInt64(&m.Conflict),
		atomic.LoadInt64(&m.Error),
		avg, p50, p95,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
