package appointment

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func storedAppointment(userID string, at time.Time) *Appointment {
	return &Appointment{
		UserID:      userID,
		Date:        at.Format("2006-01-02"),
		Time:        at.Format("15:04"),
		VetName:     "Dr. Jane Doe",
		ScheduledAt: at,
	}
}

func TestStoreScanPreservesInsertionOrder(t *testing.T) {
	s := NewStore()
	at := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		s.Insert(storedAppointment(fmt.Sprintf("user%d", i), at))
	}

	appts := s.Scan()
	if len(appts) != 5 {
		t.Fatalf("want 5 records, got %d", len(appts))
	}
	for i, a := range appts {
		if want := fmt.Sprintf("user%d", i); a.UserID != want {
			t.Fatalf("position %d: want %s, got %s", i, want, a.UserID)
		}
	}
}

func TestStoreMarkNotifiedVisibleAcrossSnapshots(t *testing.T) {
	s := NewStore()
	at := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	a := storedAppointment("user123", at)
	s.Insert(a)

	before := s.Scan()
	s.MarkNotified(a)
	after := s.Scan()

	if !s.Notified(a) {
		t.Fatal("record not marked")
	}
	// snapshots share the record, not copies of it
	if !before[0].Notified || !after[0].Notified {
		t.Fatal("mark not visible through snapshots")
	}
}

func TestStoreScanSnapshotIsolation(t *testing.T) {
	s := NewStore()
	at := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	s.Insert(storedAppointment("user0", at))

	snap := s.Scan()
	s.Insert(storedAppointment("user1", at))

	if len(snap) != 1 {
		t.Fatalf("snapshot grew after insert: %d", len(snap))
	}
	if s.Len() != 2 {
		t.Fatalf("want 2 records, got %d", s.Len())
	}
}

func TestStoreConcurrentInsert(t *testing.T) {
	s := NewStore()
	at := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Insert(storedAppointment(fmt.Sprintf("user%d", i), at))
		}(i)
	}
	wg.Wait()

	if s.Len() != n {
		t.Fatalf("want %d records, got %d", n, s.Len())
	}
}
