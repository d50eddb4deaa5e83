package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/ramosjr18/categorizar-docs/internal/classifier"
	"github.com/ramosjr18/categorizar-docs/internal/extractor"
	"github.com/ramosjr18/categorizar-docs/internal/fingerprint"
	"github.com/ramosjr18/categorizar-docs/internal/models"
)

// UploadFile is one (filename, content) pair received from the intake
// boundary.
type UploadFile struct {
	Name string
	Data []byte
}

// BatchResult is the response for a whole upload batch. NeedsDecision is
// true when at least one file came back requires_decision; the per-file
// results still report every other file's outcome individually.
type BatchResult struct {
	NeedsDecision bool         `json:"needs_decision"`
	Files         []FileResult `json:"files"`
}

// expectedMIMEs maps an extension to the content types its bytes may sniff
// as. Uploads whose detected type disagrees with the declared extension
// are rejected before extraction.
var expectedMIMEs = map[string][]string{
	"pdf":  {"application/pdf"},
	"docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	"csv":  {"text/csv", "text/plain", "application/vnd.ms-excel"},
}

// IngestBatch runs the full ingestion pipeline for a batch of uploads:
// validate, extract, classify, fingerprint, then resolve each file's
// disposition against its version group. Per-file failures are reported
// in place and never abort sibling files.
func (s *Service) IngestBatch(ctx context.Context, ownerID uint, files []UploadFile, strategy Strategy) BatchResult {
	uploads := make([]*upload, len(files))
	results := make([]FileResult, len(files))

	// Extraction and classification are pure and run concurrently
	// across the batch. Dispositions are applied afterwards, per file,
	// under the group lock.
	g, gctx := errgroup.WithContext(ctx)
	for i := range files {
		g.Go(func() error {
			up, res := s.prepareUpload(gctx, ownerID, files[i])
			uploads[i] = up
			results[i] = res
			return nil
		})
	}
	_ = g.Wait() // per-file errors are captured in results, never returned

	batch := BatchResult{Files: results}
	for i := range files {
		if uploads[i] == nil {
			continue // validation or extraction already failed
		}
		batch.Files[i] = s.resolveDisposition(ctx, *uploads[i], strategy)
		if batch.Files[i].Status == StatusRequiresDecision {
			batch.NeedsDecision = true
		}
	}
	return batch
}

// prepareUpload validates a single file and runs the pure pipeline stages.
// On failure it returns a nil upload and the error result to report.
func (s *Service) prepareUpload(ctx context.Context, ownerID uint, file UploadFile) (*upload, FileResult) {
	name, err := SanitizeFilename(file.Name)
	if err != nil {
		return nil, FileResult{Name: file.Name, Status: StatusError, Message: err.Error()}
	}

	if max := s.cfg.Archive.MaxUploadBytes; max > 0 && int64(len(file.Data)) > max {
		return nil, FileResult{
			Name:    name,
			Status:  StatusError,
			Message: fmt.Sprintf("file exceeds the %d byte upload limit", max),
		}
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	if !extractor.TypeAllowed(ext) {
		return nil, FileResult{
			Name:    name,
			Status:  StatusError,
			Message: (&extractor.UnsupportedTypeError{Type: ext}).Error(),
		}
	}

	detected := mimetype.Detect(file.Data)
	if !mimeMatches(detected, expectedMIMEs[ext]) {
		return nil, FileResult{
			Name:    name,
			Status:  StatusError,
			Message: fmt.Sprintf("content does not look like a %s file (detected %s)", ext, detected.String()),
		}
	}

	text, signals, err := extractor.Extract(file.Data, ext)
	if err != nil {
		if errors.Is(err, extractor.ErrExtractionEmpty) {
			return nil, FileResult{Name: name, Status: StatusError, Message: "document contains no extractable text"}
		}
		return nil, FileResult{Name: name, Status: StatusError, Message: err.Error()}
	}

	return &upload{
		group:    name,
		name:     name,
		ext:      ext,
		mime:     detected.String(),
		text:     text,
		category: classifier.Classify(name, text, signals),
		hash:     fingerprint.Digest(file.Data),
		data:     file.Data,
		owner:    ownerID,
	}, FileResult{}
}

func mimeMatches(detected *mimetype.MIME, accepted []string) bool {
	for _, m := range accepted {
		if detected.Is(m) {
			return true
		}
	}
	return false
}

// SanitizeFilename normalizes an upload's declared name into the group
// key: path components are stripped so no name can escape the archive
// root, case is preserved.
func SanitizeFilename(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(path.Clean(name))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", fmt.Errorf("invalid filename")
	}
	return name, nil
}

// ListDocuments returns every committed version record.
func (s *Service) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return s.store.List(ctx)
}

// GetDocument fetches one version record by id.
func (s *Service) GetDocument(ctx context.Context, id uint) (*models.Document, error) {
	return s.store.GetByID(ctx, id)
}

// DeleteDocument removes a version record and, best effort, its blob.
// A failed blob delete is left for the cleanup sweep.
func (s *Service) DeleteDocument(ctx context.Context, id uint) error {
	doc, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, doc.StoragePath); err != nil {
		s.log.WithField("storage_path", doc.StoragePath).WithError(err).
			Warn("blob delete failed, orphan left for cleanup")
	}
	return nil
}

// ReadDocumentFile returns the stored bytes for a version. It tries the
// canonical nested path first and falls back to the legacy flat layout
// for archives written before the path migration.
func (s *Service) ReadDocumentFile(ctx context.Context, doc *models.Document) ([]byte, error) {
	data, err := s.blobs.Read(ctx, doc.StoragePath)
	if err == nil {
		return data, nil
	}

	legacy := legacyStoragePath(doc.VersionNumber, doc.OriginalName)
	if legacy != doc.StoragePath {
		if data, legacyErr := s.blobs.Read(ctx, legacy); legacyErr == nil {
			return data, nil
		}
	}
	return nil, err
}
