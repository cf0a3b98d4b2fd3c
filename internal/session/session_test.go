package session

import (
	"fmt"
	"strings"
	"testing"

	"github.com/arinony/madarun/internal/db"
	"github.com/arinony/madarun/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.KVEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db.NewStore(conn)
}

func TestManagerStartsRestoring(t *testing.T) {
	m := NewManager(newTestStore(t))
	if m.State() != StateRestoring {
		t.Fatalf("expected restoring, got %v", m.State())
	}
	if _, ok := m.Current(); ok {
		t.Fatalf("restoring manager must not expose an identity")
	}
}

func TestRestoreEmptySlotIsAnonymous(t *testing.T) {
	m := NewManager(newTestStore(t))
	state, u, err := m.Restore()
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if state != StateAnonymous || u != nil {
		t.Fatalf("expected anonymous, got %v %+v", state, u)
	}
}

func TestLoginThenRestore(t *testing.T) {
	store := newTestStore(t)
	m := NewManager(store)
	if err := m.Login(User{ID: 1, Email: "ana@x.com", Name: "Ana"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	restarted := NewManager(store)
	state, u, err := restarted.Restore()
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if state != StateAuthenticated {
		t.Fatalf("expected authenticated, got %v", state)
	}
	if u.ID != 1 || u.Email != "ana@x.com" || u.Name != "Ana" {
		t.Fatalf("projection did not round-trip: %+v", u)
	}
}

func TestLogoutClearsSlotFirst(t *testing.T) {
	store := newTestStore(t)
	m := NewManager(store)
	if err := m.Login(User{ID: 1, Email: "ana@x.com"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := m.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if m.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %v", m.State())
	}
	// The durable slot is gone, not just the in-memory identity.
	err := store.View(func(tx *gorm.DB) error {
		var entry models.KVEntry
		return tx.First(&entry, "key = ?", SlotKey).Error
	})
	if err == nil {
		t.Fatalf("expected slot removed")
	}
}

func TestRestoreMalformedSlotClearsIt(t *testing.T) {
	store := newTestStore(t)
	err := store.Update(func(tx *gorm.DB) error {
		return tx.Save(&models.KVEntry{Key: SlotKey, Value: "{not json"}).Error
	})
	if err != nil {
		t.Fatalf("seed slot: %v", err)
	}

	m := NewManager(store)
	state, _, err := m.Restore()
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if state != StateAnonymous {
		t.Fatalf("malformed slot must resolve to anonymous, got %v", state)
	}
	probeErr := store.View(func(tx *gorm.DB) error {
		var entry models.KVEntry
		return tx.First(&entry, "key = ?", SlotKey).Error
	})
	if probeErr == nil {
		t.Fatalf("malformed slot should have been cleared")
	}
}

func TestSubscribeObservesChanges(t *testing.T) {
	m := NewManager(newTestStore(t))

	var states []State
	unsubscribe := m.Subscribe(func(s State, _ *User) { states = append(states, s) })

	if err := m.Login(User{ID: 1, Email: "a@x.com"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := m.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	unsubscribe()
	if err := m.Login(User{ID: 1, Email: "a@x.com"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	if len(states) != 2 || states[0] != StateAuthenticated || states[1] != StateAnonymous {
		t.Fatalf("expected [authenticated anonymous], got %v", states)
	}
}
