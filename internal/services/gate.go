package services

import (
	"errors"
	"log"
	"strings"

	"github.com/arinony/madarun/internal/db"
	"github.com/arinony/madarun/internal/models"
	"github.com/arinony/madarun/internal/session"
	"github.com/arinony/madarun/internal/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MinPasswordLen is the minimum accepted credential length.
const MinPasswordLen = 8

// dummyHash keeps Verify timing flat when the user row does not exist: the
// bcrypt comparison runs either way.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("madarun-dummy"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}()

// SecurityGate verifies a supplied credential against the store before a
// destructive or sensitive mutation is permitted. It never distinguishes a
// missing user from a wrong password.
type SecurityGate struct {
	store    *db.Store
	sessions *session.Manager
	notifier Notifier // optional
}

func NewSecurityGate(store *db.Store, sessions *session.Manager, notifier Notifier) *SecurityGate {
	return &SecurityGate{store: store, sessions: sessions, notifier: notifier}
}

// Verify returns nil iff the user exists and candidate matches the stored
// hash. Any other outcome is ErrAuthenticationFailed.
func (g *SecurityGate) Verify(userID uint, candidate string) error {
	var user models.User
	err := g.store.View(func(tx *gorm.DB) error {
		return tx.First(&user, userID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(candidate))
			return ErrAuthenticationFailed
		}
		return storeErr(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(candidate)) != nil {
		return ErrAuthenticationFailed
	}
	return nil
}

// UpdateCredential hashes and persists a new password. The session slot is
// left untouched: it carries no secret material.
func (g *SecurityGate) UpdateCredential(userID uint, newPassword string) error {
	v := make(validation.Violations)
	validation.MinLen("password", newPassword, MinPasswordLen, v)
	if !v.Empty() {
		return &ValidationError{Fields: v}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	err = g.store.Update(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return storeErr(err)
		}
		return storeErr(tx.Model(&user).Update("password", string(hash)).Error)
	})
	if err != nil {
		return err
	}
	g.emit("Sécurité", "Mot de passe changé", models.KindWarning)
	return nil
}

// UpdateProfileName persists the new name and refreshes the session
// projection in the same call, so no reader ever sees the store updated
// without the paired session refresh.
func (g *SecurityGate) UpdateProfileName(userID uint, newName string) error {
	newName = strings.TrimSpace(newName)
	v := make(validation.Violations)
	validation.Required("name", newName, v)
	if !v.Empty() {
		return &ValidationError{Fields: v}
	}
	var user models.User
	err := g.store.Update(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			return storeErr(err)
		}
		if err := tx.Model(&user).Update("name", newName).Error; err != nil {
			return storeErr(err)
		}
		user.Name = newName
		return nil
	})
	if err != nil {
		return err
	}
	if cur, ok := g.sessions.Current(); ok && cur.ID == userID {
		if err := g.sessions.Refresh(session.User{ID: user.ID, Email: user.Email, Name: user.Name}); err != nil {
			return err
		}
	}
	g.emit("Profil", "Nom modifié avec succès", models.KindInfo)
	return nil
}

func (g *SecurityGate) emit(title, message, kind string) {
	if g.notifier == nil {
		return
	}
	if err := g.notifier.Add(title, message, kind); err != nil {
		log.Printf("notification %q non enregistrée: %v", title, err)
	}
}
