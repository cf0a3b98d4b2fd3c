package services

import (
	"errors"
	"strings"

	"github.com/arinony/madarun/internal/db"
	"github.com/arinony/madarun/internal/models"
	"github.com/arinony/madarun/internal/session"
	"github.com/arinony/madarun/internal/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService is the account surface consumed by the front-end: registration
// and login against the store, session lifecycle through the session
// manager, and the gated credential/profile mutations through the security
// gate.
type AuthService struct {
	store    *db.Store
	sessions *session.Manager
	gate     *SecurityGate
}

func NewAuthService(store *db.Store, sessions *session.Manager, gate *SecurityGate) *AuthService {
	return &AuthService{store: store, sessions: sessions, gate: gate}
}

// normalizeEmail makes the stored value canonical so the UNIQUE index also
// gives case-insensitive matching.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the account and returns its id. Every field is required;
// a duplicate email surfaces as ErrConstraintViolation.
func (s *AuthService) Register(name, email, password string) (uint, error) {
	v := make(validation.Violations)
	validation.Required("name", name, v)
	validation.Required("email", email, v)
	validation.Required("password", password, v)
	if !v.Empty() {
		return 0, &ValidationError{Fields: v}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	user := models.User{
		Name:     strings.TrimSpace(name),
		Email:    normalizeEmail(email),
		Password: string(hash),
	}
	err = s.store.Update(func(tx *gorm.DB) error {
		return storeErr(tx.Create(&user).Error)
	})
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// Login verifies the credentials and, on success, projects the user into the
// session manager (memory plus durable slot). Wrong email and wrong password
// yield the same ErrAuthenticationFailed.
func (s *AuthService) Login(email, password string) (*models.User, error) {
	var user models.User
	err := s.store.View(func(tx *gorm.DB) error {
		return tx.First(&user, "email = ?", normalizeEmail(email)).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrAuthenticationFailed
		}
		return nil, storeErr(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrAuthenticationFailed
	}
	if err := s.sessions.Login(session.User{ID: user.ID, Email: user.Email, Name: user.Name}); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout clears the session, durable slot first.
func (s *AuthService) Logout() error { return s.sessions.Logout() }

// RestoreSession reads the durable slot once; meant to run at startup.
func (s *AuthService) RestoreSession() (session.State, *session.User, error) {
	return s.sessions.Restore()
}

// CheckCurrentPassword is the precondition for destructive actions.
func (s *AuthService) CheckCurrentPassword(userID uint, candidate string) error {
	return s.gate.Verify(userID, candidate)
}

func (s *AuthService) UpdateUserProfile(userID uint, newName string) error {
	return s.gate.UpdateProfileName(userID, newName)
}

func (s *AuthService) UpdateUserPassword(userID uint, newPassword string) error {
	return s.gate.UpdateCredential(userID, newPassword)
}
