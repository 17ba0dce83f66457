// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package curseforge

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mcmod-info-mirror/mcim-sync/internal/store"
	"github.com/mcmod-info-mirror/mcim-sync/pkg/mirror"
	cfreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/curseforge"
)

// checkPageSize bounds each page of the stored-mod sweep.
const checkPageSize = 1000

// modRef is the projection the checker reads from the mod collection.
type modRef struct {
	ID           int        `bson:"_id"`
	DateModified *time.Time `bson:"dateModified"`
}

// Checker sweeps the stored mod catalog against upstream and reports which
// mods changed since they were last synced.
type Checker struct {
	Registry cfreg.Registry
	Store    store.ObjectStore
	// ChunkSize bounds each bulk metadata request.
	ChunkSize int
	// Delay is the pause between bulk requests during a sweep.
	Delay time.Duration
	// BatchSize bounds the buffered metadata writes.
	BatchSize int
}

func (c *Checker) chunkSize() int {
	if c.ChunkSize <= 0 {
		return 1000
	}
	return c.ChunkSize
}

// OutdatedModIDs pages through every stored mod, bulk-fetches the current
// metadata, and returns the ids whose dateModified moved. Comparison is at
// second precision. Every tracked mod the bulk endpoint returns has its
// record upserted along the way, so descriptive fields like download counts
// stay fresh even while dateModified holds still. Mods missing from the bulk
// response are left alone; the catalog never deletes on a refresh sweep.
func (c *Checker) OutdatedModIDs(ctx context.Context) ([]int, error) {
	w := store.NewBatchWriter(c.Store, c.BatchSize)
	defer w.Close(ctx)

	var outdated []int
	var skip int64
	for {
		var refs []modRef
		if err := c.Store.FindPage(ctx, cfreg.ModsCollection, store.All(), skip, checkPageSize, &refs); err != nil {
			return nil, err
		}
		if len(refs) == 0 {
			break
		}
		for start := 0; start < len(refs); start += c.chunkSize() {
			end := min(start+c.chunkSize(), len(refs))
			changed, err := c.checkChunk(ctx, w, refs[start:end])
			if err != nil {
				return nil, err
			}
			outdated = append(outdated, changed...)
			if c.Delay > 0 {
				select {
				case <-time.After(c.Delay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}
		skip += int64(len(refs))
	}
	if err := w.Flush(ctx); err != nil {
		return nil, err
	}
	log.WithField("outdated", len(outdated)).Info("finished mod refresh sweep")
	return outdated, nil
}

func (c *Checker) checkChunk(ctx context.Context, w *store.BatchWriter, refs []modRef) ([]int, error) {
	stored := make(map[int]*time.Time, len(refs))
	ids := make([]int, 0, len(refs))
	for _, r := range refs {
		stored[r.ID] = r.DateModified
		ids = append(ids, r.ID)
	}
	mods, err := c.Registry.Mods(ctx, ids)
	if err != nil {
		return nil, err
	}
	var changed []int
	for i := range mods {
		mod := &mods[i]
		prev, ok := stored[mod.ID]
		if !ok {
			continue
		}
		if err := w.Add(ctx, mod); err != nil {
			return nil, err
		}
		if prev == nil || mod.DateModified == nil || !mirror.SameSecond(*prev, *mod.DateModified) {
			changed = append(changed, mod.ID)
		}
	}
	return changed, nil
}

// AllModIDs returns every stored mod id, for the full refresh sweep.
func (c *Checker) AllModIDs(ctx context.Context) ([]int, error) {
	var ids []int
	var skip int64
	for {
		var refs []modRef
		if err := c.Store.FindPage(ctx, cfreg.ModsCollection, store.All(), skip, checkPageSize, &refs); err != nil {
			return nil, err
		}
		if len(refs) == 0 {
			return ids, nil
		}
		for _, r := range refs {
			ids = append(ids, r.ID)
		}
		skip += int64(len(refs))
	}
}
