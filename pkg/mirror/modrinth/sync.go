// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

// Package modrinth implements the Modrinth half of the mirror pipeline:
// per-project sync, the refresh checker, miss-queue drain, search discovery
// and the tag enumerations.
package modrinth

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/mcmod-info-mirror/mcim-sync/internal/httpx"
	"github.com/mcmod-info-mirror/mcim-sync/internal/store"
	"github.com/mcmod-info-mirror/mcim-sync/pkg/mirror"
	mrreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/modrinth"
)

// Syncer refreshes one project at a time: metadata, complete version list,
// per-version files, prune, then the project record itself.
type Syncer struct {
	Registry  mrreg.Registry
	Store     store.ObjectStore
	BatchSize int
}

// SyncProject fetches the project and reconciles its stored versions and
// files with upstream. The project record is persisted only after every
// version and file write and prune has succeeded.
//
// An upstream claim of zero versions for a project that previously had some
// is treated as suspect: nothing is pruned and the sync fails with
// ErrEmptyVersionsSuspect, so a transient upstream outage cannot wipe a
// mirrored version history.
func (s *Syncer) SyncProject(ctx context.Context, projectID string) (*mirror.ProjectDetail, error) {
	project, err := s.Registry.Project(ctx, projectID)
	if err != nil {
		if httpx.IsNotFound(err) {
			log.WithField("projectId", projectID).Error("project not found upstream")
			return nil, mirror.ErrNotFound
		}
		return nil, err
	}
	versions, err := s.Registry.ProjectVersions(ctx, projectID)
	if err != nil {
		if httpx.IsNotFound(err) {
			return nil, mirror.ErrNotFound
		}
		return nil, err
	}
	if len(versions) == 0 {
		stored, err := s.Store.Count(ctx, mrreg.VersionsCollection, store.Eq("project_id", projectID))
		if err != nil {
			return nil, err
		}
		if stored > 0 {
			log.WithFields(log.Fields{"projectId": projectID, "stored": stored}).Warn("upstream reports no versions for a project that had some, refusing to prune")
			return nil, mirror.ErrEmptyVersionsSuspect
		}
	}

	w := store.NewBatchWriter(s.Store, s.BatchSize)
	defer w.Close(ctx)

	versionIDs := make([]string, 0, len(versions))
	var fileKeys []mrreg.Hashes
	for i := range versions {
		v := &versions[i]
		versionIDs = append(versionIDs, v.ID)
		if err := w.Add(ctx, v); err != nil {
			return nil, err
		}
		for _, fi := range v.Files {
			fileKeys = append(fileKeys, fi.Hashes)
			if err := w.Add(ctx, &mrreg.File{
				Hashes:    fi.Hashes,
				URL:       fi.URL,
				Filename:  fi.Filename,
				Primary:   fi.Primary,
				Size:      fi.Size,
				FileType:  fi.FileType,
				VersionID: v.ID,
				ProjectID: projectID,
			}); err != nil {
				return nil, err
			}
		}
	}
	if err := w.Flush(ctx); err != nil {
		return nil, err
	}

	removedVersions, err := s.Store.DeleteMany(ctx, mrreg.VersionsCollection,
		store.And(store.Eq("project_id", projectID), store.NotIn("_id", versionIDs)))
	if err != nil {
		return nil, err
	}
	removedFiles, err := s.Store.DeleteMany(ctx, mrreg.FilesCollection,
		store.And(store.Eq("project_id", projectID), store.NotIn("_id", fileKeys)))
	if err != nil {
		return nil, err
	}
	if err := s.Store.UpsertMany(ctx, []store.Entity{project}); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"projectId":       projectID,
		"versions":        len(versionIDs),
		"files":           len(fileKeys),
		"removedVersions": removedVersions,
		"removedFiles":    removedFiles,
	}).Info("finished project sync")
	return &mirror.ProjectDetail{
		ID:           project.ID,
		Name:         project.Title,
		VersionCount: len(versionIDs),
	}, nil
}

// TagCounts reports how many entries each tag refresh wrote.
type TagCounts struct {
	Categories   int
	Loaders      int
	GameVersions int
}

// SyncTags replaces the stored tag enumerations wholesale. Each enumeration
// is fetched before its stored copy is dropped, so an upstream failure leaves
// the previous enumeration in place.
func (s *Syncer) SyncTags(ctx context.Context) (*TagCounts, error) {
	categories, err := s.Registry.Categories(ctx)
	if err != nil {
		return nil, err
	}
	loaders, err := s.Registry.Loaders(ctx)
	if err != nil {
		return nil, err
	}
	gameVersions, err := s.Registry.GameVersions(ctx)
	if err != nil {
		return nil, err
	}

	w := store.NewBatchWriter(s.Store, s.BatchSize)
	defer w.Close(ctx)
	if _, err := s.Store.DeleteMany(ctx, mrreg.CategoriesCollection, store.All()); err != nil {
		return nil, err
	}
	for i := range categories {
		if err := w.Add(ctx, &categories[i]); err != nil {
			return nil, err
		}
	}
	if _, err := s.Store.DeleteMany(ctx, mrreg.LoadersCollection, store.All()); err != nil {
		return nil, err
	}
	for i := range loaders {
		if err := w.Add(ctx, &loaders[i]); err != nil {
			return nil, err
		}
	}
	if _, err := s.Store.DeleteMany(ctx, mrreg.GameVersionsCollection, store.All()); err != nil {
		return nil, err
	}
	for i := range gameVersions {
		if err := w.Add(ctx, &gameVersions[i]); err != nil {
			return nil, err
		}
	}
	if err := w.Flush(ctx); err != nil {
		return nil, err
	}
	return &TagCounts{
		Categories:   len(categories),
		Loaders:      len(loaders),
		GameVersions: len(gameVersions),
	}, nil
}

// Remover cascades deletion of a project that upstream no longer serves.
type Remover struct {
	Store store.ObjectStore
}

// RemoveProject deletes the project record with its versions and files and
// reports the number of documents removed.
func (r *Remover) RemoveProject(ctx context.Context, projectID string) (int64, error) {
	versions, err := r.Store.DeleteMany(ctx, mrreg.VersionsCollection, store.Eq("project_id", projectID))
	if err != nil {
		return 0, err
	}
	files, err := r.Store.DeleteMany(ctx, mrreg.FilesCollection, store.Eq("project_id", projectID))
	if err != nil {
		return versions, err
	}
	projects, err := r.Store.DeleteMany(ctx, mrreg.ProjectsCollection, store.Eq("_id", projectID))
	if err != nil {
		return versions + files, err
	}
	log.WithFields(log.Fields{
		"projectId": projectID,
		"versions":  versions,
		"files":     files,
	}).Info("removed dead project")
	return versions + files + projects, nil
}
