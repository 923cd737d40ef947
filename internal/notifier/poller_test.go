package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vetlink/appointment-notifier/internal/appointment"
)

type fakeDispatcher struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool // user IDs whose dispatch should fail
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{
		calls: make(map[string]int),
		fail:  make(map[string]bool),
	}
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, a *appointment.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[a.UserID]++
	if f.fail[a.UserID] {
		return ErrDeliveryFailed
	}
	return nil
}

func (f *fakeDispatcher) callCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[userID]
}

func (f *fakeDispatcher) setFail(userID string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[userID] = fail
}

func seedAppointment(t *testing.T, store *appointment.Store, userID string, at time.Time) *appointment.Appointment {
	t.Helper()
	a, err := appointment.New(userID, &appointment.Submission{
		Date:    at.Format("2006-01-02"),
		Time:    at.Format("15:04"),
		VetName: "Dr. Jane Doe",
	}, at.Add(-72*time.Hour))
	if err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	store.Insert(a)
	return a
}

func newTestPoller(store *appointment.Store, disp Dispatcher) *Poller {
	return NewPoller(store, disp, 5*time.Second, 24*time.Hour, zerolog.Nop())
}

func TestRunOnceDispatchesOnlyDue(t *testing.T) {
	store := appointment.NewStore()
	disp := newFakeDispatcher()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	soon := seedAppointment(t, store, "soon", now.Add(2*time.Hour))
	far := seedAppointment(t, store, "far", now.Add(40*24*time.Hour))
	passed := seedAppointment(t, store, "passed", now.Add(-time.Hour))

	p := newTestPoller(store, disp)
	p.RunOnce(context.Background(), now)

	if disp.callCount("soon") != 1 || !store.Notified(soon) {
		t.Fatalf("soon: calls=%d notified=%v", disp.callCount("soon"), store.Notified(soon))
	}
	if disp.callCount("far") != 0 || store.Notified(far) {
		t.Fatalf("far: calls=%d notified=%v", disp.callCount("far"), store.Notified(far))
	}
	// an appointment that slipped past its time still gets its notification
	if disp.callCount("passed") != 1 || !store.Notified(passed) {
		t.Fatalf("passed: calls=%d notified=%v", disp.callCount("passed"), store.Notified(passed))
	}
}

func TestRunOnceIsIdempotentAfterSuccess(t *testing.T) {
	store := appointment.NewStore()
	disp := newFakeDispatcher()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	seedAppointment(t, store, "user123", now.Add(2*time.Hour))

	p := newTestPoller(store, disp)
	for i := 0; i < 5; i++ {
		p.RunOnce(context.Background(), now.Add(time.Duration(i)*5*time.Second))
	}

	if got := disp.callCount("user123"); got != 1 {
		t.Fatalf("want exactly one dispatch, got %d", got)
	}
}

func TestRunOnceRetriesFailedDispatchNextTick(t *testing.T) {
	store := appointment.NewStore()
	disp := newFakeDispatcher()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	a := seedAppointment(t, store, "user123", now.Add(2*time.Hour))
	disp.setFail("user123", true)

	p := newTestPoller(store, disp)
	p.RunOnce(context.Background(), now)

	if store.Notified(a) {
		t.Fatal("failed dispatch must leave the record pending")
	}
	if got := disp.callCount("user123"); got != 1 {
		t.Fatalf("want one attempt on tick, got %d", got)
	}

	// downstream recovers
	disp.setFail("user123", false)
	p.RunOnce(context.Background(), now.Add(5*time.Second))

	if !store.Notified(a) {
		t.Fatal("record still pending after successful retry")
	}
	if got := disp.callCount("user123"); got != 2 {
		t.Fatalf("want a second attempt, got %d", got)
	}
}

func TestRunOnceFailureDoesNotBlockOthers(t *testing.T) {
	store := appointment.NewStore()
	disp := newFakeDispatcher()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	bad := seedAppointment(t, store, "bad", now.Add(time.Hour))
	good := seedAppointment(t, store, "good", now.Add(2*time.Hour))
	disp.setFail("bad", true)

	p := newTestPoller(store, disp)
	p.RunOnce(context.Background(), now)

	if store.Notified(bad) {
		t.Fatal("failed record must stay pending")
	}
	if !store.Notified(good) {
		t.Fatal("one failure must not block the rest of the tick")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := appointment.NewStore()
	disp := newFakeDispatcher()
	p := NewPoller(store, disp, 10*time.Millisecond, 24*time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on context cancel")
	}
}

func TestPollerDeliversToWebhook(t *testing.T) {
	var mu sync.Mutex
	var received []Payload

	recv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode notification: %v", err)
		}
		mu.Lock()
		received = append(received, p)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer recv.Close()

	store := appointment.NewStore()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seedAppointment(t, store, "abc123", now.Add(10*time.Hour))

	disp := NewWebhookDispatcher(recv.URL, 5*time.Second, zerolog.Nop())
	p := NewPoller(store, disp, 5*time.Second, 24*time.Hour, zerolog.Nop())

	p.RunOnce(context.Background(), now)
	p.RunOnce(context.Background(), now.Add(5*time.Second))

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("want exactly one notification, got %d", len(received))
	}
	got := received[0]
	if got.UserID != "abc123" || got.Message != "Notification sent successfully" {
		t.Fatalf("unexpected notification: %+v", got)
	}
	if got.AppointmentDetails.VetName != "Dr. Jane Doe" {
		t.Fatalf("unexpected details: %+v", got.AppointmentDetails)
	}
}
