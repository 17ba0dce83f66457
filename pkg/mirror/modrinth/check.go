// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package modrinth

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mcmod-info-mirror/mcim-sync/internal/store"
	"github.com/mcmod-info-mirror/mcim-sync/pkg/mirror"
	mrreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/modrinth"
)

// checkPageSize bounds each page of the stored-project sweep.
const checkPageSize = 1000

// projectRef is the projection the checker reads from the project collection.
type projectRef struct {
	ID           string     `bson:"_id"`
	Updated      *time.Time `bson:"updated"`
	Versions     []string   `bson:"versions"`
	GameVersions []string   `bson:"game_versions"`
}

// Checker sweeps the stored project catalog against upstream. It reports
// projects whose upstream state moved since the last sync, and projects the
// bulk endpoint no longer returns at all.
type Checker struct {
	Registry mrreg.Registry
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
		return 100
	}
	return c.ChunkSize
}

// Sweep pages through every stored project and bulk-fetches the current
// metadata. A project counts as outdated when its updated timestamp moved at
// second precision, its version id sequence changed, or its supported game
// version set changed. Every tracked project the bulk endpoint returns has
// its record upserted along the way, keeping descriptive fields like
// download and follower counts fresh. Projects absent from the bulk response
// are returned as dead; only the caller decides to delete them.
func (c *Checker) Sweep(ctx context.Context) (outdated, dead []string, err error) {
	w := store.NewBatchWriter(c.Store, c.BatchSize)
	defer w.Close(ctx)

	var skip int64
	for {
		var refs []projectRef
		if err := c.Store.FindPage(ctx, mrreg.ProjectsCollection, store.All(), skip, checkPageSize, &refs); err != nil {
			return nil, nil, err
		}
		if len(refs) == 0 {
			break
		}
		for start := 0; start < len(refs); start += c.chunkSize() {
			end := min(start+c.chunkSize(), len(refs))
			changed, missing, err := c.checkChunk(ctx, w, refs[start:end])
			if err != nil {
				return nil, nil, err
			}
			outdated = append(outdated, changed...)
			dead = append(dead, missing...)
			if c.Delay > 0 {
				select {
				case <-time.After(c.Delay):
				case <-ctx.Done():
					return nil, nil, ctx.Err()
				}
			}
		}
		skip += int64(len(refs))
	}
	if err := w.Flush(ctx); err != nil {
		return nil, nil, err
	}
	log.WithFields(log.Fields{"outdated": len(outdated), "dead": len(dead)}).Info("finished project refresh sweep")
	return outdated, dead, nil
}

func (c *Checker) checkChunk(ctx context.Context, w *store.BatchWriter, refs []projectRef) (changed, missing []string, err error) {
	stored := make(map[string]projectRef, len(refs))
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		stored[r.ID] = r
		ids = append(ids, r.ID)
	}
	projects, err := c.Registry.Projects(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	returned := make(map[string]bool, len(projects))
	for i := range projects {
		p := &projects[i]
		returned[p.ID] = true
		ref, ok := stored[p.ID]
		if !ok {
			continue
		}
		if err := w.Add(ctx, p); err != nil {
			return nil, nil, err
		}
		if projectChanged(ref, p) {
			changed = append(changed, p.ID)
		}
	}
	for _, id := range ids {
		if !returned[id] {
			missing = append(missing, id)
		}
	}
	return changed, missing, nil
}

func projectChanged(ref projectRef, p *mrreg.Project) bool {
	switch {
	case (ref.Updated == nil) != (p.Updated == nil):
		return true
	case ref.Updated != nil && !mirror.SameSecond(*ref.Updated, *p.Updated):
		return true
	case !sameSequence(ref.Versions, p.Versions):
		return true
	case !sameSet(ref.GameVersions, p.GameVersions):
		return true
	}
	return false
}

// sameSequence compares version id lists in order; upstream appends new
// releases, so order is meaningful.
func sameSequence(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sameSet compares game version lists ignoring order.
func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		seen[s]--
		if seen[s] < 0 {
			return false
		}
	}
	return true
}

// AllProjectIDs returns every stored project id, for the full refresh sweep.
func (c *Checker) AllProjectIDs(ctx context.Context) ([]string, error) {
	var ids []string
	var skip int64
	for {
		var refs []projectRef
		if err := c.Store.FindPage(ctx, mrreg.ProjectsCollection, store.All(), skip, checkPageSize, &refs); err != nil {
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
