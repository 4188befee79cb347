package otp

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. State does not survive a
// restart, which invalidates all outstanding OTPs; callers tolerate
// this. A background sweep purges records past their expiry so
// never-verified numbers do not accumulate.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]*Record),
		stop:    make(chan struct{}),
	}

	if sweepInterval > 0 {
		go s.sweep(sweepInterval)
	}

	return s
}

func (s *MemoryStore) Get(_ context.Context, phoneNo string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[phoneNo]
	if !ok {
		return nil, nil
	}

	// Copy so callers cannot mutate the stored record in place.
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) Set(_ context.Context, phoneNo string, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.records[phoneNo] = &cp
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, phoneNo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, phoneNo)
	return nil
}

// Len reports the number of live records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close stops the background sweep.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.purgeExpired(time.Now())
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) purgeExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for phoneNo, rec := range s.records {
		if now.After(rec.ExpiresAt) {
			delete(s.records, phoneNo)
		}
	}
}
