// Package store is the persistence collaborator for document version
// records.
package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/ramosjr18/categorizar-docs/internal/models"
)

// Store wraps the GORM handle for document records.
type Store struct {
	DB *gorm.DB
}

// NewStore creates a Store on top of an existing database connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Create inserts a new version record.
func (s *Store) Create(ctx context.Context, doc *models.Document) error {
	return s.DB.WithContext(ctx).Create(doc).Error
}

// Update persists the mutable fields of an existing version record.
func (s *Store) Update(ctx context.Context, doc *models.Document) error {
	return s.DB.WithContext(ctx).Save(doc).Error
}

// VersionsByGroup returns every live version of a group, most recent
// version first.
func (s *Store) VersionsByGroup(ctx context.Context, group string) ([]models.Document, error) {
	var docs []models.Document
	err := s.DB.WithContext(ctx).
		Where("group_key = ?", group).
		Order("version_number DESC").
		Find(&docs).Error
	return docs, err
}

// MaxVersion returns the highest version number ever allocated in a
// group, or 0 for a group with no history. Version numbers are never
// reused, so the allocator must see the soft-deleted rows that
// VersionsByGroup hides.
func (s *Store) MaxVersion(ctx context.Context, group string) (int, error) {
	var max int
	err := s.DB.WithContext(ctx).Unscoped().Model(&models.Document{}).
		Where("group_key = ?", group).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&max).Error
	return max, err
}

// GetByID fetches a single version record.
func (s *Store) GetByID(ctx context.Context, id uint) (*models.Document, error) {
	var doc models.Document
	if err := s.DB.WithContext(ctx).First(&doc, id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns every version record in the archive.
func (s *Store) List(ctx context.Context) ([]models.Document, error) {
	var docs []models.Document
	err := s.DB.WithContext(ctx).Order("group_key, version_number").Find(&docs).Error
	return docs, err
}

// Delete removes a version record by id.
func (s *Store) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Delete(&models.Document{}, id).Error
}
