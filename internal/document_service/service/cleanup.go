package service

import (
	"context"
	"time"
)

// RunCleanup sweeps the archive for orphaned blobs on a fixed interval
// until the context is cancelled. A sweep runs immediately on startup so
// crash leftovers are not kept for a full interval.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	if removed, err := s.SweepOrphans(ctx); err != nil {
		s.log.WithError(err).Error("startup cleanup sweep failed")
	} else if removed > 0 {
		s.log.WithField("removed", removed).Info("startup cleanup sweep removed orphaned blobs")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.SweepOrphans(ctx)
			if err != nil {
				s.log.WithError(err).Error("cleanup sweep failed")
				continue
			}
			s.log.WithField("removed", removed).Info("cleanup sweep finished")
		}
	}
}

// SweepOrphans deletes every blob whose key is not referenced by any
// committed version record. Committed records reference their blob
// exactly once; anything else in the bucket is a leftover from a failed
// commit or an old delete and is safe to reap. Legacy flat keys of live
// versions are treated as referenced so pre-migration archives survive
// the sweep.
func (s *Service) SweepOrphans(ctx context.Context) (int, error) {
	keys, err := s.blobs.List(ctx)
	if err != nil {
		return 0, err
	}
	docs, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}

	referenced := make(map[string]bool, len(docs)*2)
	for _, doc := range docs {
		referenced[doc.StoragePath] = true
		referenced[legacyStoragePath(doc.VersionNumber, doc.OriginalName)] = true
	}

	removed := 0
	for _, key := range keys {
		if referenced[key] {
			continue
		}
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.log.WithField("key", key).WithError(err).Warn("orphan delete failed")
			continue
		}
		removed++
	}
	return removed, nil
}
