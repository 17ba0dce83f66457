// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package modrinth

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/mcmod-info-mirror/mcim-sync/internal/store"
	mrreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/modrinth"
)

// Drainer resolves the miss queues written by the read service down to the
// set of project ids that need a sync.
type Drainer struct {
	Registry mrreg.Registry
	Queues   store.SetStore
	Store    store.ObjectStore
	// ChunkSize bounds each bulk resolution request.
	ChunkSize int
}

func (d *Drainer) chunkSize() int {
	if d.ChunkSize <= 0 {
		return 100
	}
	return d.ChunkSize
}

// PendingProjectIDs reads every Modrinth miss queue and resolves version ids
// and file hashes to their owning projects. Ids the mirror already stores
// are dropped. The queues are left in place; call Clear once the drain has
// been synced.
func (d *Drainer) PendingProjectIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	projectIDs, err := d.queueMembers(ctx, store.QueueModrinthProjectIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range projectIDs {
		add(id)
	}

	versionIDs, err := d.queueMembers(ctx, store.QueueModrinthVersionIDs)
	if err != nil {
		return nil, err
	}
	for start := 0; start < len(versionIDs); start += d.chunkSize() {
		versions, err := d.Registry.Versions(ctx, versionIDs[start:min(start+d.chunkSize(), len(versionIDs))])
		if err != nil {
			return nil, err
		}
		for i := range versions {
			add(versions[i].ProjectID)
		}
	}

	for queue, algorithm := range map[string]string{
		store.QueueModrinthHashesSHA1:   mrreg.AlgorithmSHA1,
		store.QueueModrinthHashesSHA512: mrreg.AlgorithmSHA512,
	} {
		hashes, err := d.queueMembers(ctx, queue)
		if err != nil {
			return nil, err
		}
		for start := 0; start < len(hashes); start += d.chunkSize() {
			matched, err := d.Registry.VersionFiles(ctx, hashes[start:min(start+d.chunkSize(), len(hashes))], algorithm)
			if err != nil {
				return nil, err
			}
			for _, v := range matched {
				add(v.ProjectID)
			}
		}
	}

	unknown, err := d.unknownOnly(ctx, ids)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"projectIds": len(projectIDs),
		"versionIds": len(versionIDs),
		"resolved":   len(ids),
		"new":        len(unknown),
	}).Info("resolved miss queues")
	return unknown, nil
}

// unknownOnly drops ids that already have a stored project record. Queue
// members are misses reported by the read service; anything mirrored since
// the miss was recorded needs no sync.
func (d *Drainer) unknownOnly(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return ids, nil
	}
	var refs []struct {
		ID string `bson:"_id"`
	}
	if err := d.Store.FindPage(ctx, mrreg.ProjectsCollection, store.In("_id", ids), 0, int64(len(ids)), &refs); err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(refs))
	for _, r := range refs {
		known[r.ID] = true
	}
	unknown := ids[:0]
	for _, id := range ids {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	return unknown, nil
}

// Clear truncates all Modrinth miss queues.
func (d *Drainer) Clear(ctx context.Context) error {
	for _, name := range []string{
		store.QueueModrinthProjectIDs,
		store.QueueModrinthVersionIDs,
		store.QueueModrinthHashesSHA1,
		store.QueueModrinthHashesSHA512,
	} {
		if err := d.Queues.Delete(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (d *Drainer) queueMembers(ctx context.Context, name string) ([]string, error) {
	ok, err := d.Queues.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return d.Queues.Members(ctx, name)
}
