package reservation

import (
	"context"
	"sync"
	"time"

	"promo-backend/internal/features/spin/models"
)

type codeLock struct {
	ch   chan struct{}
	refs int
}

// MemoryStore keeps reservations in process. It is correct only with a single
// API instance.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]models.Reservation
	locks map[string]*codeLock
	now   func() time.Time
}

// NewMemoryStore uses time.Now when now is nil.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		items: make(map[string]models.Reservation),
		locks: make(map[string]*codeLock),
		now:   now,
	}
}

func (s *MemoryStore) Put(_ context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[r.Code] = *r
	return nil
}

func (s *MemoryStore) Get(_ context.Context, code string) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.items[code]
	if !ok {
		return nil, ErrNotFound
	}
	if r.Expired(s.now()) {
		delete(s.items, code)
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MemoryStore) Delete(_ context.Context, code, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.items[code]
	if !ok || r.Token != token {
		return false, nil
	}
	delete(s.items, code)
	return true, nil
}

func (s *MemoryStore) Lock(ctx context.Context, code string) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[code]
	if !ok {
		l = &codeLock{ch: make(chan struct{}, 1)}
		s.locks[code] = l
	}
	l.refs++
	s.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		s.release(code, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			s.release(code, l)
		})
	}, nil
}

func (s *MemoryStore) release(code string, l *codeLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, code)
	}
}

// Sweep drops every reservation expired at now and reports how many went.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for code, r := range s.items {
		if r.Expired(now) {
			delete(s.items, code)
			removed++
		}
	}
	return removed
}

// Len is the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
