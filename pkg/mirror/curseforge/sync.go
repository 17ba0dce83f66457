// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

// Package curseforge implements the CurseForge half of the mirror pipeline:
// per-mod sync, the refresh checker, miss-queue drain and search discovery.
package curseforge

import (
	"context"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/mcmod-info-mirror/mcim-sync/internal/httpx"
	"github.com/mcmod-info-mirror/mcim-sync/internal/store"
	"github.com/mcmod-info-mirror/mcim-sync/pkg/mirror"
	cfreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/curseforge"
)

const (
	// filePageSize is the page size for the paged file traversal.
	filePageSize = 50
	// singleShotPageSize asks for the whole file list in one response.
	singleShotPageSize = 10000
	// singleShotAttempts bounds the shrink-and-retry loop for inconsistent
	// single-shot responses.
	singleShotAttempts = 3
)

// Syncer refreshes one mod at a time: metadata, complete file list,
// fingerprints, prune, then the mod record itself.
type Syncer struct {
	Registry cfreg.Registry
	Store    store.ObjectStore
	// PagedFiles switches the file listing from the single-shot strategy to
	// the paged traversal.
	PagedFiles bool
	BatchSize  int
}

// SyncMod fetches the mod and reconciles its stored file set with upstream.
// The mod record is persisted only after every file write and prune has
// succeeded, so an abort mid-sync never publishes a mod whose files are
// missing.
func (s *Syncer) SyncMod(ctx context.Context, modID int) (detail *mirror.ProjectDetail, err error) {
	// Ids below the floor belong to the retired legacy catalog and are never
	// mirrored, whichever path handed them in.
	if modID < cfreg.MinModID {
		log.WithField("modId", modID).Debug("skipping mod below the public id floor")
		return nil, nil
	}
	mod, err := s.Registry.Mod(ctx, modID)
	if err != nil {
		if httpx.IsNotFound(err) {
			log.WithField("modId", modID).Error("mod not found upstream")
			return nil, mirror.ErrNotFound
		}
		return nil, err
	}
	if mod.GameID != cfreg.GameIDMinecraft {
		log.WithFields(log.Fields{"modId": modID, "gameId": mod.GameID}).Debug("skipping mod of foreign game")
		return nil, nil
	}

	w := store.NewBatchWriter(s.Store, s.BatchSize)
	defer w.Close(ctx)

	var fileIDs []int
	var total int
	if s.PagedFiles {
		fileIDs, total, err = s.syncFilesPaged(ctx, w, mod)
	} else {
		fileIDs, total, err = s.syncFilesAtOnce(ctx, w, mod)
	}
	if err != nil {
		return nil, err
	}
	// Every file write must land before the prune runs and the mod is
	// published.
	if err := w.Flush(ctx); err != nil {
		return nil, err
	}
	if err := s.prune(ctx, mod.ID, fileIDs); err != nil {
		return nil, err
	}
	if err := s.Store.UpsertMany(ctx, []store.Entity{mod}); err != nil {
		return nil, err
	}
	return &mirror.ProjectDetail{
		ID:           strconv.Itoa(mod.ID),
		Name:         mod.Name,
		VersionCount: total,
	}, nil
}

// syncFilesAtOnce requests the whole file list in one page. If the response
// is self-inconsistent (resultCount, totalCount and the array length
// disagree), the page size is decremented and the request retried; after
// singleShotAttempts failures no state is mutated.
func (s *Syncer) syncFilesAtOnce(ctx context.Context, w *store.BatchWriter, mod *cfreg.Mod) ([]int, int, error) {
	pageSize := singleShotPageSize
	var list *cfreg.FileList
	consistent := false
	for i := 0; i < singleShotAttempts; i++ {
		var err error
		list, err = s.Registry.ModFiles(ctx, mod.ID, 0, pageSize)
		if err != nil {
			return nil, 0, err
		}
		p := list.Pagination
		if p.ResultCount != p.TotalCount || len(list.Data) != p.ResultCount {
			log.WithFields(log.Fields{
				"modId":       mod.ID,
				"resultCount": p.ResultCount,
				"totalCount":  p.TotalCount,
				"received":    len(list.Data),
				"attempt":     i + 1,
			}).Warn("inconsistent file listing, shrinking page size and retrying")
			pageSize--
			continue
		}
		consistent = true
		break
	}
	if !consistent {
		log.WithField("modId", mod.ID).Error("file listing never settled, leaving mod untouched")
		return nil, 0, mirror.ErrInconsistentUpstream
	}

	fileIDs := make([]int, 0, len(list.Data))
	for i := range list.Data {
		file := &list.Data[i]
		fileIDs = append(fileIDs, file.ID)
		if err := s.addFile(ctx, w, file, mod.LatestFiles); err != nil {
			return nil, 0, err
		}
	}
	return fileIDs, list.Pagination.TotalCount, nil
}

// syncFilesPaged walks the file list page by page with a fixed page size.
func (s *Syncer) syncFilesPaged(ctx context.Context, w *store.BatchWriter, mod *cfreg.Mod) ([]int, int, error) {
	var fileIDs []int
	index, total := 0, 0
	for {
		list, err := s.Registry.ModFiles(ctx, mod.ID, index, filePageSize)
		if err != nil {
			return nil, 0, err
		}
		for i := range list.Data {
			file := &list.Data[i]
			fileIDs = append(fileIDs, file.ID)
			if err := s.addFile(ctx, w, file, mod.LatestFiles); err != nil {
				return nil, 0, err
			}
		}
		p := list.Pagination
		total = p.TotalCount
		log.WithFields(log.Fields{"modId": mod.ID, "index": p.Index, "total": p.TotalCount}).Debug("synced file page")
		if p.Index+p.ResultCount >= p.TotalCount {
			break
		}
		index = p.Index + p.PageSize
	}
	return fileIDs, total, nil
}

func (s *Syncer) addFile(ctx context.Context, w *store.BatchWriter, file *cfreg.File, latest []cfreg.File) error {
	if err := w.Add(ctx, file); err != nil {
		return err
	}
	return w.Add(ctx, &cfreg.Fingerprint{
		ID:          file.FileFingerprint,
		File:        *file,
		LatestFiles: latest,
	})
}

// prune deletes stored files of the mod that upstream no longer lists, and
// fingerprints pointing at such files.
func (s *Syncer) prune(ctx context.Context, modID int, keep []int) error {
	removedFiles, err := s.Store.DeleteMany(ctx, cfreg.FilesCollection,
		store.And(store.Eq("modId", modID), store.NotIn("_id", keep)))
	if err != nil {
		return err
	}
	removedFingerprints, err := s.Store.DeleteMany(ctx, cfreg.FingerprintsCollection,
		store.And(store.Eq("file.modId", modID), store.NotIn("file._id", keep)))
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"modId":               modID,
		"files":               len(keep),
		"removedFiles":        removedFiles,
		"removedFingerprints": removedFingerprints,
	}).Info("finished mod file sync")
	return nil
}

// SyncCategories replaces the stored category enumeration for a game.
func (s *Syncer) SyncCategories(ctx context.Context, gameID int) (int, error) {
	categories, err := s.Registry.Categories(ctx, gameID, 0, false)
	if err != nil {
		if httpx.IsNotFound(err) {
			return 0, mirror.ErrNotFound
		}
		return 0, err
	}
	if _, err := s.Store.DeleteMany(ctx, cfreg.CategoriesCollection, store.Eq("gameId", gameID)); err != nil {
		return 0, err
	}
	w := store.NewBatchWriter(s.Store, s.BatchSize)
	defer w.Close(ctx)
	for i := range categories {
		if err := w.Add(ctx, &categories[i]); err != nil {
			return 0, err
		}
	}
	if err := w.Flush(ctx); err != nil {
		return 0, err
	}
	return len(categories), nil
}
