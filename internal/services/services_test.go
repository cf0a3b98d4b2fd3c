package services

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
	if err := conn.AutoMigrate(&models.User{}, &models.Product{}, &models.Notification{}, &models.KVEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db.NewStore(conn)
}

func countByTitle(t *testing.T, notifs *NotificationService, title string) int {
	t.Helper()
	entries, err := notifs.GetAll()
	if err != nil {
		t.Fatalf("get notifications: %v", err)
	}
	n := 0
	for _, e := range entries {
		if e.Title == title {
			n++
		}
	}
	return n
}
