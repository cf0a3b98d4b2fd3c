package db

import (
	"sync"

	"gorm.io/gorm"
)

// Store owns the process-wide database handle. Every read and write goes
// through View or Update, which serialize on one mutex so at most one
// operation is in flight at a time. The original execution model dispatched
// user actions one by one; on a multi-threaded runtime the mutex preserves
// that guarantee.
type Store struct {
	mu sync.Mutex
	db *gorm.DB
}

func NewStore(conn *gorm.DB) *Store { return &Store{db: conn} }

// View runs fn with the shared handle for read-only work.
func (s *Store) View(fn func(tx *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.db)
}

// Update runs fn with the shared handle. Multi-step sequences (read, check,
// write) belong in a single Update closure so no partial state is observable.
func (s *Store) Update(fn func(tx *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.db)
}
