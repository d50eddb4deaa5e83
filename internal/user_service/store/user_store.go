// Package store is the persistence layer for user accounts.
package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/ramosjr18/categorizar-docs/internal/models"
)

// Store wraps the GORM handle for user records.
type Store struct {
	DB *gorm.DB
}

// NewStore creates a Store on top of an existing database connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// CreateUser inserts a new user account.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.DB.WithContext(ctx).Create(user).Error
}

// GetUserByEmail looks a user up by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID looks a user up by id.
func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CountUsers returns the number of registered accounts.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}
