// Package service implements account bootstrap and login.
//
// Registration is open only while the system has no users: the first
// registered account becomes the administrator, and from then on only the
// administrator can create accounts.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"

	"github.com/ramosjr18/categorizar-docs/internal/models"
)

var (
	// ErrRegistrationClosed is returned once the first admin exists.
	ErrRegistrationClosed = errors.New("public registration is closed; only the administrator can create accounts")
	// ErrUserExists is returned when the email is already registered.
	ErrUserExists = errors.New("a user with this email already exists")
	// ErrInvalidCredentials is returned for a failed login. It is
	// deliberately identical for unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotAdmin is returned when a non-admin tries to create users.
	ErrNotAdmin = errors.New("only the administrator can create users")
)

// UserStore is the persistence collaborator for accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// Service implements account business logic.
type Service struct {
	store     UserStore
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewService creates a Service signing tokens with jwtSecret that expire
// after tokenTTL seconds.
func NewService(s UserStore, jwtSecret string, tokenTTL int) *Service {
	return &Service{
		store:     s,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  time.Duration(tokenTTL) * time.Second,
	}
}

// RegistrationOpen reports whether public registration is still open,
// which is the case only before the first account exists.
func (s *Service) RegistrationOpen(ctx context.Context) (bool, error) {
	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// RegisterFirstAdmin creates the initial administrator account. Once any
// account exists the call fails with ErrRegistrationClosed.
func (s *Service) RegisterFirstAdmin(ctx context.Context, email, password string) (*models.User, error) {
	open, err := s.RegistrationOpen(ctx)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, ErrRegistrationClosed
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{Email: email, Password: string(hashed), IsAdmin: true}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser lets the administrator add a regular account.
func (s *Service) CreateUser(ctx context.Context, adminID uint, email, password string) (*models.User, error) {
	admin, err := s.store.GetUserByID(ctx, adminID)
	if err != nil || !admin.IsAdmin {
		return nil, ErrNotAdmin
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{Email: email, Password: string(hashed)}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and returns a signed JWT.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.generateJWT(user.ID)
}

// GetUser fetches an account by id.
func (s *Service) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

func (s *Service) generateJWT(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(s.tokenTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}
