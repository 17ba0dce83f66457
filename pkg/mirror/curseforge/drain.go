// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package curseforge

import (
	"context"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/mcmod-info-mirror/mcim-sync/internal/store"
	cfreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/curseforge"
)

// Drainer resolves the miss queues written by the read service down to the
// set of mod ids that need a sync.
type Drainer struct {
	Registry cfreg.Registry
	Queues   store.SetStore
	Store    store.ObjectStore
	// ChunkSize bounds each bulk resolution request.
	ChunkSize int
}

func (d *Drainer) chunkSize() int {
	if d.ChunkSize <= 0 {
		return 1000
	}
	return d.ChunkSize
}

// PendingModIDs reads every CurseForge miss queue and resolves file ids and
// fingerprints to their owning mods. Ids below the public floor and ids the
// mirror already stores are dropped. The queues are left in place; call
// Clear once the drain has been synced.
func (d *Drainer) PendingModIDs(ctx context.Context) ([]int, error) {
	seen := make(map[int]bool)
	var ids []int
	add := func(id int) {
		if id < cfreg.MinModID || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	modIDs, err := d.queueInts(ctx, store.QueueCurseforgeModIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range modIDs {
		add(id)
	}

	fileIDs, err := d.queueInts(ctx, store.QueueCurseforgeFileIDs)
	if err != nil {
		return nil, err
	}
	for start := 0; start < len(fileIDs); start += d.chunkSize() {
		files, err := d.Registry.Files(ctx, fileIDs[start:min(start+d.chunkSize(), len(fileIDs))])
		if err != nil {
			return nil, err
		}
		for i := range files {
			add(files[i].ModID)
		}
	}

	prints, err := d.queueInts64(ctx, store.QueueCurseforgeFingerprints)
	if err != nil {
		return nil, err
	}
	for start := 0; start < len(prints); start += d.chunkSize() {
		res, err := d.Registry.Fingerprints(ctx, prints[start:min(start+d.chunkSize(), len(prints))])
		if err != nil {
			return nil, err
		}
		for i := range res.ExactMatches {
			add(res.ExactMatches[i].File.ModID)
		}
	}

	unknown, err := d.unknownOnly(ctx, ids)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"modIds":       len(modIDs),
		"fileIds":      len(fileIDs),
		"fingerprints": len(prints),
		"resolved":     len(ids),
		"new":          len(unknown),
	}).Info("resolved miss queues")
	return unknown, nil
}

// unknownOnly drops ids that already have a stored mod record. Queue members
// are misses reported by the read service; anything mirrored since the miss
// was recorded needs no sync.
func (d *Drainer) unknownOnly(ctx context.Context, ids []int) ([]int, error) {
	if len(ids) == 0 {
		return ids, nil
	}
	var refs []struct {
		ID int `bson:"_id"`
	}
	if err := d.Store.FindPage(ctx, cfreg.ModsCollection, store.In("_id", ids), 0, int64(len(ids)), &refs); err != nil {
		return nil, err
	}
	known := make(map[int]bool, len(refs))
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

// Clear truncates all CurseForge miss queues.
func (d *Drainer) Clear(ctx context.Context) error {
	for _, name := range []string{
		store.QueueCurseforgeModIDs,
		store.QueueCurseforgeFileIDs,
		store.QueueCurseforgeFingerprints,
	} {
		if err := d.Queues.Delete(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// queueInts reads a queue of decimal identifiers, skipping the queue entirely
// when it does not exist and dropping unparseable members.
func (d *Drainer) queueInts(ctx context.Context, name string) ([]int, error) {
	raw, err := d.queueMembers(ctx, name)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(raw))
	for _, m := range raw {
		id, err := strconv.Atoi(m)
		if err != nil {
			log.WithFields(log.Fields{"queue": name, "member": m}).Warn("dropping malformed queue member")
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (d *Drainer) queueInts64(ctx context.Context, name string) ([]int64, error) {
	raw, err := d.queueMembers(ctx, name)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(raw))
	for _, m := range raw {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			log.WithFields(log.Fields{"queue": name, "member": m}).Warn("dropping malformed queue member")
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
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
