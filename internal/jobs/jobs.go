// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

// Package jobs wires the sync pipelines to the scheduler: each job resolves
// the ids to refresh, fans the syncs out over the worker pool, and reports a
// summary to the notifier.
package jobs

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mcmod-info-mirror/mcim-sync/internal/config"
	"github.com/mcmod-info-mirror/mcim-sync/internal/store"
	"github.com/mcmod-info-mirror/mcim-sync/pkg/mirror"
	cf "github.com/mcmod-info-mirror/mcim-sync/pkg/mirror/curseforge"
	mr "github.com/mcmod-info-mirror/mcim-sync/pkg/mirror/modrinth"
	cfreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/curseforge"
	mrreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/modrinth"
)

// Engine owns the shared pipeline components and exposes one method per job.
type Engine struct {
	Config     *config.Config
	Store      store.ObjectStore
	Queues     store.SetStore
	Curseforge cfreg.Registry
	Modrinth   mrreg.Registry
	Notifier   mirror.Notifier
}

func (e *Engine) notify(ctx context.Context, s mirror.Summary) {
	if err := e.Notifier.Notify(ctx, s); err != nil {
		log.WithError(err).Warn("delivering summary failed")
	}
}

func (e *Engine) curseforgeSyncer() *cf.Syncer {
	return &cf.Syncer{Registry: e.Curseforge, Store: e.Store}
}

func (e *Engine) modrinthSyncer() *mr.Syncer {
	return &mr.Syncer{Registry: e.Modrinth, Store: e.Store}
}

func (e *Engine) curseforgeDelay() time.Duration {
	return time.Duration(e.Config.CurseforgeDelay * float64(time.Second))
}

func (e *Engine) modrinthDelay() time.Duration {
	return time.Duration(e.Config.ModrinthDelay * float64(time.Second))
}

// syncMods fans SyncMod out over the resolved ids and reports the outcome.
func (e *Engine) syncMods(ctx context.Context, ids []int, kind mirror.SummaryKind) mirror.Outcome[int] {
	syncer := e.curseforgeSyncer()
	outcome := mirror.ForEach(ctx, ids, e.Config.MaxWorkers, func(ctx context.Context, id int) (*mirror.ProjectDetail, error) {
		return syncer.SyncMod(ctx, id)
	})
	e.notify(ctx, mirror.Summary{
		Kind:        kind,
		Platform:    mirror.Curseforge,
		Projects:    outcome.Succeeded,
		Total:       len(ids),
		FailedCount: len(outcome.Failed),
	})
	return outcome
}

// syncProjects fans SyncProject out over the resolved ids and reports the
// outcome.
func (e *Engine) syncProjects(ctx context.Context, ids []string, kind mirror.SummaryKind) mirror.Outcome[string] {
	syncer := e.modrinthSyncer()
	outcome := mirror.ForEach(ctx, ids, e.Config.MaxWorkers, func(ctx context.Context, id string) (*mirror.ProjectDetail, error) {
		return syncer.SyncProject(ctx, id)
	})
	e.notify(ctx, mirror.Summary{
		Kind:        kind,
		Platform:    mirror.Modrinth,
		Projects:    outcome.Succeeded,
		Total:       len(ids),
		FailedCount: len(outcome.Failed),
	})
	return outcome
}

// CurseforgeRefresh re-syncs every stored mod whose upstream dateModified
// moved since the last sync.
func (e *Engine) CurseforgeRefresh(ctx context.Context) error {
	checker := &cf.Checker{
		Registry:  e.Curseforge,
		Store:     e.Store,
		ChunkSize: e.Config.CurseforgeChunkSize,
		Delay:     e.curseforgeDelay(),
	}
	ids, err := checker.OutdatedModIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		log.Info("no outdated mods")
		return nil
	}
	e.syncMods(ctx, ids, mirror.SummaryRefresh)
	return nil
}

// CurseforgeRefreshFull re-syncs every stored mod unconditionally.
func (e *Engine) CurseforgeRefreshFull(ctx context.Context) error {
	checker := &cf.Checker{Registry: e.Curseforge, Store: e.Store}
	ids, err := checker.AllModIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	e.syncMods(ctx, ids, mirror.SummaryRefresh)
	return nil
}

// ModrinthRefresh re-syncs changed projects and removes projects upstream no
// longer serves.
func (e *Engine) ModrinthRefresh(ctx context.Context) error {
	checker := &mr.Checker{
		Registry:  e.Modrinth,
		Store:     e.Store,
		ChunkSize: e.Config.ModrinthChunkSize,
		Delay:     e.modrinthDelay(),
	}
	outdated, dead, err := checker.Sweep(ctx)
	if err != nil {
		return err
	}
	remover := &mr.Remover{Store: e.Store}
	for _, id := range dead {
		if _, err := remover.RemoveProject(ctx, id); err != nil {
			log.WithError(err).WithField("projectId", id).Error("removing dead project failed")
		}
	}
	if len(outdated) == 0 {
		log.Info("no outdated projects")
		return nil
	}
	e.syncProjects(ctx, outdated, mirror.SummaryRefresh)
	return nil
}

// ModrinthRefreshFull re-syncs every stored project unconditionally.
func (e *Engine) ModrinthRefreshFull(ctx context.Context) error {
	checker := &mr.Checker{Registry: e.Modrinth, Store: e.Store}
	ids, err := checker.AllProjectIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	e.syncProjects(ctx, ids, mirror.SummaryRefresh)
	return nil
}

// SyncCurseforgeByQueue drains the CurseForge miss queues. Queues are
// truncated only after their members have been resolved and synced, so a
// failing run leaves them for the next tick.
func (e *Engine) SyncCurseforgeByQueue(ctx context.Context) error {
	drainer := &cf.Drainer{
		Registry:  e.Curseforge,
		Queues:    e.Queues,
		Store:     e.Store,
		ChunkSize: e.Config.CurseforgeChunkSize,
	}
	ids, err := drainer.PendingModIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		log.Debug("miss queues empty")
		return nil
	}
	e.syncMods(ctx, ids, mirror.SummaryQueue)
	return drainer.Clear(ctx)
}

// SyncModrinthByQueue drains the Modrinth miss queues.
func (e *Engine) SyncModrinthByQueue(ctx context.Context) error {
	drainer := &mr.Drainer{
		Registry:  e.Modrinth,
		Queues:    e.Queues,
		Store:     e.Store,
		ChunkSize: e.Config.ModrinthChunkSize,
	}
	ids, err := drainer.PendingProjectIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		log.Debug("miss queues empty")
		return nil
	}
	e.syncProjects(ctx, ids, mirror.SummaryQueue)
	return drainer.Clear(ctx)
}

// SyncCurseforgeBySearch discovers newly published mods.
func (e *Engine) SyncCurseforgeBySearch(ctx context.Context) error {
	discovery := &cf.Discovery{
		Registry: e.Curseforge,
		Store:    e.Store,
		Delay:    e.curseforgeDelay(),
	}
	ids, err := discovery.NewModIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	e.syncMods(ctx, ids, mirror.SummarySearch)
	return nil
}

// SyncModrinthBySearch discovers newly published projects.
func (e *Engine) SyncModrinthBySearch(ctx context.Context) error {
	discovery := &mr.Discovery{
		Registry: e.Modrinth,
		Store:    e.Store,
		Delay:    e.modrinthDelay(),
	}
	ids, err := discovery.NewProjectIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	e.syncProjects(ctx, ids, mirror.SummarySearch)
	return nil
}

// CurseforgeCategories refreshes the category enumeration.
func (e *Engine) CurseforgeCategories(ctx context.Context) error {
	n, err := e.curseforgeSyncer().SyncCategories(ctx, cfreg.GameIDMinecraft)
	if err != nil {
		return err
	}
	e.notify(ctx, mirror.Summary{
		Kind:            mirror.SummaryCategories,
		Platform:        mirror.Curseforge,
		CategoriesCount: n,
	})
	return nil
}

// ModrinthTags refreshes the tag enumerations.
func (e *Engine) ModrinthTags(ctx context.Context) error {
	counts, err := e.modrinthSyncer().SyncTags(ctx)
	if err != nil {
		return err
	}
	e.notify(ctx, mirror.Summary{
		Kind:              mirror.SummaryTags,
		Platform:          mirror.Modrinth,
		CategoriesCount:   counts.Categories,
		LoadersCount:      counts.Loaders,
		GameVersionsCount: counts.GameVersions,
	})
	return nil
}

// statisticsCollections are the collections counted by GlobalStatistics.
var statisticsCollections = []string{
	cfreg.ModsCollection,
	cfreg.FilesCollection,
	cfreg.FingerprintsCollection,
	mrreg.ProjectsCollection,
	mrreg.VersionsCollection,
	mrreg.FilesCollection,
}

// GlobalStatistics reports per-collection document counts.
func (e *Engine) GlobalStatistics(ctx context.Context) error {
	counts := make(map[string]int64, len(statisticsCollections))
	for _, coll := range statisticsCollections {
		n, err := e.Store.Count(ctx, coll, store.All())
		if err != nil {
			return err
		}
		counts[coll] = n
	}
	e.notify(ctx, mirror.Summary{
		Kind:   mirror.SummaryStatistics,
		Counts: counts,
	})
	return nil
}
