// Package service implements the document archive core: the ingestion
// pipeline, the version disposition state machine, chart support and the
// orphaned-blob reaper.
package service

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"

	"github.com/ramosjr18/categorizar-docs/internal/config"
	"github.com/ramosjr18/categorizar-docs/internal/models"
	"github.com/ramosjr18/categorizar-docs/pkg/logger"
)

// DocumentStore is the persistence collaborator for version records.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	Update(ctx context.Context, doc *models.Document) error
	VersionsByGroup(ctx context.Context, group string) ([]models.Document, error)
	MaxVersion(ctx context.Context, group string) (int, error)
	GetByID(ctx context.Context, id uint) (*models.Document, error)
	List(ctx context.Context) ([]models.Document, error)
	Delete(ctx context.Context, id uint) error
}

// BlobStore is the byte-storage collaborator, addressed by storage path.
type BlobStore interface {
	Write(ctx context.Context, key string, data []byte, contentType string) error
	Read(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}

// Service owns the archive's business logic.
type Service struct {
	cfg   *config.AppConfig
	store DocumentStore
	blobs BlobStore
	cache *redis.Client // optional sheet-listing cache; may be nil
	log   *logger.Logger

	// Per-group locks serialize disposition-read through commit so two
	// concurrent uploads of the same group can never both observe the
	// same latest version. Cross-group uploads proceed in parallel.
	groupMu sync.Mutex
	groups  map[string]*sync.Mutex
}

// NewService wires the archive core to its collaborators.
func NewService(cfg *config.AppConfig, store DocumentStore, blobs BlobStore, cache *redis.Client, log *logger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		store:  store,
		blobs:  blobs,
		cache:  cache,
		log:    log,
		groups: make(map[string]*sync.Mutex),
	}
}

// groupLock returns the mutex guarding a document group.
func (s *Service) groupLock(group string) *sync.Mutex {
	s.groupMu.Lock()
	defer s.groupMu.Unlock()
	mu, ok := s.groups[group]
	if !ok {
		mu = &sync.Mutex{}
		s.groups[group] = mu
	}
	return mu
}
