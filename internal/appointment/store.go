package appointment

import "sync"

// Store holds every accepted appointment for the lifetime of the process.
// It is append-only: records are never removed, and the only mutation after
// insert is flipping Notified. The poller is the sole caller of MarkNotified;
// the submission path is the sole producer of new records.
type Store struct {
	mu    sync.RWMutex
	appts []*Appointment
}

func NewStore() *Store {
	return &Store{}
}

// Insert appends a record. Insertion order is preserved for Scan.
func (s *Store) Insert(a *Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appts = append(s.appts, a)
}

// Scan returns a snapshot of the current records in insertion order. The
// slice belongs to the caller; the pointed-to records are shared, so a
// MarkNotified through one snapshot is visible through every other.
func (s *Store) Scan() []*Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Appointment, len(s.appts))
	copy(out, s.appts)
	return out
}

// MarkNotified flips the record's flag. It takes the record itself rather
// than an index or key so a concurrent Insert cannot redirect the update.
// The flag is monotone: there is no way to clear it.
func (s *Store) MarkNotified(a *Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.Notified = true
}

// Notified reads the record's flag under the store lock.
func (s *Store) Notified(a *Appointment) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return a.Notified
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.appts)
}
