package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ramosjr18/categorizar-docs/internal/fingerprint"
	"github.com/ramosjr18/categorizar-docs/internal/models"
)

// Strategy is the caller-supplied resolution for an ambiguous re-upload.
type Strategy string

const (
	// StrategyNone means the caller supplied no strategy.
	StrategyNone Strategy = ""
	// StrategyReplace overwrites the latest version in place.
	StrategyReplace Strategy = "replace"
	// StrategyNewVersion commits the upload as the next version.
	StrategyNewVersion Strategy = "new_version"
)

// ValidStrategy reports whether s is a recognized strategy value.
func ValidStrategy(s Strategy) bool {
	return s == StrategyNone || s == StrategyReplace || s == StrategyNewVersion
}

// Status is the per-file outcome of an ingestion attempt.
type Status string

const (
	StatusCreated          Status = "created"
	StatusReplaced         Status = "replaced"
	StatusRejected         Status = "rejected"
	StatusRequiresDecision Status = "requires_decision"
	StatusError            Status = "error"
)

// FileResult is the outcome reported for one file of an upload batch.
type FileResult struct {
	Name           string   `json:"name"`
	Status         Status   `json:"status"`
	Version        int      `json:"version,omitempty"`
	Category       string   `json:"category,omitempty"`
	Message        string   `json:"message,omitempty"`
	Options        []string `json:"options,omitempty"`
	AgainstVersion int      `json:"against_version,omitempty"`
	ChangePercent  float64  `json:"change_percent,omitempty"`
}

// upload carries one validated, extracted file through the disposition
// state machine.
type upload struct {
	group    string
	name     string
	ext      string
	mime     string
	text     string
	category string
	hash     string
	data     []byte
	owner    uint
}

// storagePath builds the canonical nested blob key for a version.
func storagePath(group string, version int, name string) string {
	return fmt.Sprintf("%s/v%d/%s", group, version, name)
}

// legacyStoragePath builds the flat blob key older archives used. It is
// consulted only as a read fallback and never written.
func legacyStoragePath(version int, name string) string {
	if version <= 1 {
		return name
	}
	return fmt.Sprintf("v%d_%s", version, name)
}

// resolveDisposition runs the version state machine for one upload while
// holding the group lock. The physical blob write always happens before
// the record commit; a failed commit leaves the blob behind as an orphan
// for the cleanup sweep rather than attempting a rollback.
func (s *Service) resolveDisposition(ctx context.Context, up upload, strategy Strategy) FileResult {
	mu := s.groupLock(up.group)
	mu.Lock()
	defer mu.Unlock()

	versions, err := s.store.VersionsByGroup(ctx, up.group)
	if err != nil {
		return s.storageFailure(up, "reading group versions", err)
	}

	// Version numbers come from the group's all-time high-water mark,
	// counting deleted rows, so a deleted version's number and storage
	// path are never reallocated.
	highWater, err := s.store.MaxVersion(ctx, up.group)
	if err != nil {
		return s.storageFailure(up, "reading group version counter", err)
	}

	// No live versions: numbering continues after any deleted history.
	if len(versions) == 0 {
		return s.commitNew(ctx, up, highWater+1)
	}

	// Exact duplicate of any live version: reject, no write.
	for _, v := range versions {
		if v.ContentHash == up.hash {
			return FileResult{
				Name:    up.name,
				Status:  StatusRejected,
				Version: v.VersionNumber,
				Message: fmt.Sprintf("duplicate of v%d", v.VersionNumber),
			}
		}
	}

	// Near-duplicate of the latest version: reject, no write.
	latest := versions[0]
	similarity := fingerprint.Similarity(up.text, latest.ExtractedText)
	if similarity >= fingerprint.SimilarityEqual {
		return FileResult{
			Name:    up.name,
			Status:  StatusRejected,
			Version: latest.VersionNumber,
			Message: fmt.Sprintf("already registered as v%d, similarity=%.1f%%", latest.VersionNumber, similarity*100),
		}
	}

	switch strategy {
	case StrategyNone:
		// Ambiguous change: the caller must decide, nothing is written.
		return FileResult{
			Name:           up.name,
			Status:         StatusRequiresDecision,
			AgainstVersion: latest.VersionNumber,
			ChangePercent:  (1 - similarity) * 100,
			Options:        []string{string(StrategyReplace), string(StrategyNewVersion)},
			Message:        fmt.Sprintf("content differs from v%d; choose replace or new_version", latest.VersionNumber),
		}

	case StrategyReplace:
		return s.commitReplace(ctx, &latest, up)

	case StrategyNewVersion:
		return s.commitNew(ctx, up, highWater+1)

	default:
		return FileResult{
			Name:    up.name,
			Status:  StatusError,
			Message: fmt.Sprintf("unknown strategy '%s'", strategy),
		}
	}
}

// commitNew writes the blob for a fresh version and inserts its record.
func (s *Service) commitNew(ctx context.Context, up upload, version int) FileResult {
	path := storagePath(up.group, version, up.name)

	if err := s.blobs.Write(ctx, path, up.data, up.mime); err != nil {
		return s.storageFailure(up, "writing blob", err)
	}

	doc := &models.Document{
		OriginalName:  up.name,
		FileExtension: up.ext,
		ExtractedText: up.text,
		Category:      up.category,
		UploadDate:    time.Now().Format("2006-01-02"),
		VersionNumber: version,
		GroupKey:      up.group,
		ContentHash:   up.hash,
		OwnerID:       up.owner,
		StoragePath:   path,
	}
	if err := s.store.Create(ctx, doc); err != nil {
		// The blob write already happened; leave it for the cleanup
		// sweep instead of compounding the failure with a delete.
		s.log.WithPayload(map[string]interface{}{
			"group": up.group, "storage_path": path,
		}).WithError(err).Error("version commit failed after blob write, orphan left for cleanup")
		return s.storageFailure(up, "committing version record", err)
	}

	return FileResult{
		Name:     up.name,
		Status:   StatusCreated,
		Version:  version,
		Category: up.category,
		Message:  fmt.Sprintf("stored as version %d", version),
	}
}

// commitReplace overwrites the latest version's blob at its existing path
// and updates the record's mutable fields. Identity and version number
// stay untouched.
func (s *Service) commitReplace(ctx context.Context, latest *models.Document, up upload) FileResult {
	if err := s.blobs.Write(ctx, latest.StoragePath, up.data, up.mime); err != nil {
		return s.storageFailure(up, "overwriting blob", err)
	}

	latest.ExtractedText = up.text
	latest.Category = up.category
	latest.ContentHash = up.hash
	latest.FileExtension = up.ext
	latest.UploadDate = time.Now().Format("2006-01-02")

	if err := s.store.Update(ctx, latest); err != nil {
		s.log.WithPayload(map[string]interface{}{
			"group": up.group, "storage_path": latest.StoragePath,
		}).WithError(err).Error("replace commit failed after blob overwrite")
		return s.storageFailure(up, "committing replaced record", err)
	}

	return FileResult{
		Name:     up.name,
		Status:   StatusReplaced,
		Version:  latest.VersionNumber,
		Category: up.category,
		Message:  fmt.Sprintf("version %d replaced in place", latest.VersionNumber),
	}
}

func (s *Service) storageFailure(up upload, op string, err error) FileResult {
	s.log.WithField("group", up.group).WithError(err).Error("storage failure: " + op)
	return FileResult{
		Name:    up.name,
		Status:  StatusError,
		Message: fmt.Sprintf("storage failure while %s: %v", op, err),
	}
}
