// Package session holds the current authenticated identity in process
// memory, mirrored into a single durable slot so it survives restarts.
// Absence of the slot means logged out.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/arinony/madarun/internal/db"
	"github.com/arinony/madarun/internal/models"
	"gorm.io/gorm"
)

// SlotKey names the durable slot in kv_entries.
const SlotKey = "current_session"

// User is the transient projection of a user row carried by a session.
type User struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// State of the session manager. A fresh manager starts in StateRestoring
// until Restore has read the durable slot once.
type State int

const (
	StateRestoring State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// ErrStoreUnavailable wraps any slot I/O failure.
var ErrStoreUnavailable = errors.New("store unavailable")

// Manager owns the in-memory identity and its durable mirror. All methods
// are safe for concurrent use; subscribers observe every state change.
type Manager struct {
	mu    sync.Mutex
	store *db.Store
	state State
	user  *User
	subs  map[int]func(State, *User)
	next  int
}

func NewManager(store *db.Store) *Manager {
	return &Manager{store: store, state: StateRestoring, subs: make(map[int]func(State, *User))}
}

// Restore reads the durable slot once. A well-formed record authenticates;
// an absent or malformed one leaves the caller anonymous (malformed records
// are also cleared). A store failure still resolves to anonymous so the
// route guard has a definite state, but the error is reported.
func (m *Manager) Restore() (State, *User, error) {
	var raw string
	found := false
	err := m.store.View(func(tx *gorm.DB) error {
		var entry models.KVEntry
		if err := tx.First(&entry, "key = ?", SlotKey).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		found = true
		raw = entry.Value
		return nil
	})
	if err != nil {
		m.set(StateAnonymous, nil)
		return StateAnonymous, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !found {
		m.set(StateAnonymous, nil)
		return StateAnonymous, nil, nil
	}
	var u User
	if jsonErr := json.Unmarshal([]byte(raw), &u); jsonErr != nil || u.ID == 0 {
		_ = m.clearSlot()
		m.set(StateAnonymous, nil)
		return StateAnonymous, nil, nil
	}
	m.set(StateAuthenticated, &u)
	return StateAuthenticated, &u, nil
}

// Login writes the durable slot, then the in-memory identity.
func (m *Manager) Login(u User) error {
	if err := m.writeSlot(u); err != nil {
		return err
	}
	m.set(StateAuthenticated, &u)
	return nil
}

// Logout clears the durable slot before the in-memory identity. A crash in
// between leaves memory authenticated and storage empty, which the next
// restore resolves to anonymous; the reverse order could leave storage
// granting access that memory already revoked.
func (m *Manager) Logout() error {
	if err := m.clearSlot(); err != nil {
		return err
	}
	m.set(StateAnonymous, nil)
	return nil
}

// Refresh rewrites the slot and the in-memory identity in one step, for
// profile updates that must never leave the projection stale.
func (m *Manager) Refresh(u User) error {
	return m.Login(u)
}

// Current returns the identity when authenticated.
func (m *Manager) Current() (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated || m.user == nil {
		return User{}, false
	}
	return *m.user, true
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn to observe every state change. The returned
// function unsubscribes.
func (m *Manager) Subscribe(fn func(State, *User)) func() {
	m.mu.Lock()
	id := m.next
	m.next++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) set(state State, u *User) {
	m.mu.Lock()
	m.state = state
	m.user = u
	subs := make([]func(State, *User), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()
	for _, fn := range subs {
		fn(state, u)
	}
}

func (m *Manager) writeSlot(u User) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return m.store.Update(func(tx *gorm.DB) error {
		entry := models.KVEntry{Key: SlotKey, Value: string(payload)}
		if err := tx.Save(&entry).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil
	})
}

func (m *Manager) clearSlot() error {
	return m.store.Update(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.KVEntry{}, "key = ?", SlotKey).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil
	})
}
