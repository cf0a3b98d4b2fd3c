package services

import (
	"github.com/arinony/madarun/internal/db"
	"github.com/arinony/madarun/internal/models"
	"github.com/arinony/madarun/internal/validation"
	"gorm.io/gorm"
)

// Notifier is the emission side of the activity log. Services that record
// events depend on this rather than on the concrete emitter.
type Notifier interface {
	Add(title, message, kind string) error
}

var allowedKinds = []string{models.KindInfo, models.KindWarning, models.KindSuccess}

// NotificationService is the append-only activity log. It performs no
// authorization itself: the full-clear is gated by its caller.
type NotificationService struct {
	store *db.Store
}

func NewNotificationService(store *db.Store) *NotificationService {
	return &NotificationService{store: store}
}

// Add appends one immutable row. An empty kind defaults to info.
func (s *NotificationService) Add(title, message, kind string) error {
	if kind == "" {
		kind = models.KindInfo
	}
	v := make(validation.Violations)
	validation.OneOf("kind", kind, allowedKinds, v)
	if !v.Empty() {
		return &ValidationError{Fields: v}
	}
	n := models.Notification{Title: title, Message: message, Kind: kind}
	return s.store.Update(func(tx *gorm.DB) error {
		return storeErr(tx.Create(&n).Error)
	})
}

// GetAll returns the log newest first. The id tiebreak keeps the order
// stable when several rows share a timestamp.
func (s *NotificationService) GetAll() ([]models.Notification, error) {
	var out []models.Notification
	err := s.store.View(func(tx *gorm.DB) error {
		return storeErr(tx.Order("created_at DESC, id DESC").Find(&out).Error)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ClearAll deletes every row. Call only after SecurityGate.Verify succeeded;
// the single call site in cli enforces that.
func (s *NotificationService) ClearAll() error {
	return s.store.Update(func(tx *gorm.DB) error {
		return storeErr(tx.Where("1 = 1").Delete(&models.Notification{}).Error)
	})
}
