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
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// simulate drives the notification service end to end: it plays the
// downstream consumer by hosting the webhook receiver, submits a mix of
// valid and invalid appointments, and reports what came back.

type SimConfig struct {
	APIBaseURL   string
	ReceiverAddr string
	Duration     time.Duration
	NotifyWait   time.Duration
	Workers      int
	InvalidRatio float64
}

type OperationMetrics struct {
	Total     int64
	Accepted  int64
	Rejected  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, status int, err error) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case err == nil && status == http.StatusOK:
		atomic.AddInt64(&om.Accepted, 1)
	case err == nil && status == http.StatusBadRequest:
		atomic.AddInt64(&om.Rejected, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type submission struct {
	UserID      string `json:"user_id"`
	Appointment struct {
		Date    string `json:"date"`
		Time    string `json:"time"`
		VetName string `json:"vet_name"`
	} `json:"appointment"`
}

type Simulator struct {
	config   SimConfig
	client   *http.Client
	metrics  OperationMetrics
	dueSent  int64 // accepted submissions inside the look-ahead window
	received int64 // notifications arriving at the receiver
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: api=%s receiver=%s duration=%s workers=%d invalid=%.2f",
		cfg.APIBaseURL, cfg.ReceiverAddr, cfg.Duration, cfg.Workers, cfg.InvalidRatio)

	sim := &Simulator{
		config: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	receiver := sim.startReceiver()

	sim.Run()

	log.Printf("waiting %s for notifications", cfg.NotifyWait)
	time.Sleep(cfg.NotifyWait)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = receiver.Shutdown(shutdownCtx)

	sim.PrintReport()
}

// startReceiver hosts the downstream consumer endpoint the service posts
// notifications to.
func (s *Simulator) startReceiver() *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/receive-notification", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		atomic.AddInt64(&s.received, 1)
		log.Printf("notification received: %s", strings.TrimSpace(string(body)))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"success","message":"Notification received"}`)
	})

	srv := &http.Server{Addr: s.config.ReceiverAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("receiver error: %v", err)
		}
	}()
	return srv
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("submitting for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}
	wg.Wait()
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.doSubmit(ctx, rng)

		// spread submissions out a little
		time.Sleep(time.Duration(50+rng.Intn(200)) * time.Millisecond)
	}
}

func (s *Simulator) doSubmit(ctx context.Context, rng *rand.Rand) {
	sub, due := s.buildSubmission(rng)

	body, _ := json.Marshal(sub)

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	status := 0
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		status = resp.StatusCode
	}

	if err == nil && status == http.StatusOK && due {
		atomic.AddInt64(&s.dueSent, 1)
	}

	s.metrics.Record(latency, status, err)
}

// buildSubmission generates one request. Most are valid; a slice of them are
// deliberately malformed to exercise the validator. due reports whether a
// valid submission lands inside the 24h look-ahead window.
func (s *Simulator) buildSubmission(rng *rand.Rand) (submission, bool) {
	var sub submission
	sub.UserID = "user_" + strings.ToLower(gofakeit.LetterN(8))
	sub.Appointment.VetName = fmt.Sprintf("Dr. %s %s", gofakeit.FirstName(), gofakeit.LastName())

	// half the valid submissions inside the window, half weeks out
	due := rng.Float64() < 0.5
	var at time.Time
	if due {
		at = time.Now().UTC().Add(time.Duration(1+rng.Intn(20)) * time.Hour)
	} else {
		at = time.Now().UTC().Add(time.Duration(25+rng.Intn(24*40)) * time.Hour)
	}
	sub.Appointment.Date = at.Format("2006-01-02")
	sub.Appointment.Time = at.Format("15:04")

	if rng.Float64() < s.config.InvalidRatio {
		due = false
		switch rng.Intn(4) {
		case 0:
			sub.UserID = "user " + uuid.NewString()[:8] // space breaks \w+
		case 1:
			sub.Appointment.VetName = "Dr. 5mith #1"
		case 2:
			sub.Appointment.Date = "2024-13-40"
		case 3:
			past := time.Now().UTC().Add(-48 * time.Hour)
			sub.Appointment.Date = past.Format("2006-01-02")
			sub.Appointment.Time = past.Format("15:04")
		}
	}

	return sub, due
}

func (s *Simulator) PrintReport() {
	total := atomic.LoadInt64(&s.metrics.Total)
	accepted := atomic.LoadInt64(&s.metrics.Accepted)
	rejected := atomic.LoadInt64(&s.metrics.Rejected)
	errors := atomic.LoadInt64(&s.metrics.Error)
	due := atomic.LoadInt64(&s.dueSent)
	received := atomic.LoadInt64(&s.received)

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	if total == 0 {
		fmt.Println("No submissions made.")
		return
	}

	fmt.Printf("Submissions:\n")
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Accepted: %d (%.1f%%)\n", accepted, float64(accepted)/float64(total)*100)
	fmt.Printf("  Rejected: %d (%.1f%%)\n", rejected, float64(rejected)/float64(total)*100)
	if errors > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errors, float64(errors)/float64(total)*100)
	}

	avg, min, max, p50, p95 := s.metrics.Stats()
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()

	fmt.Printf("Notifications:\n")
	fmt.Printf("  Due submissions: %d\n", due)
	fmt.Printf("  Received: %d\n", received)
	if received < due {
		fmt.Printf("  Missing: %d (poller may still be catching up)\n", due-received)
	}
}

// Helper functions

func loadConfig() SimConfig {
	return SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:3001"),
		ReceiverAddr: getEnv("SIM_RECEIVER_ADDR", ":3000"),
		Duration:     getDuration("SIM_DURATION", 15*time.Second),
		NotifyWait:   getDuration("SIM_NOTIFY_WAIT", 10*time.Second),
		Workers:      getInt("SIM_WORKERS", 4),
		InvalidRatio: getFloat("SIM_INVALID_RATIO", 0.25),
	}
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.InvalidRatio < 0 || cfg.InvalidRatio > 1 {
		return fmt.Errorf("SIM_INVALID_RATIO must be between 0 and 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
