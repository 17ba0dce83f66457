// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package curseforge

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mcmod-info-mirror/mcim-sync/internal/store"
	cfreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/curseforge"
)

// DiscoveryClasses are the class ids walked by search discovery.
var DiscoveryClasses = []int{
	cfreg.ClassCustomization,
	cfreg.ClassAddons,
	cfreg.ClassResourcePacks,
	cfreg.ClassMods,
	cfreg.ClassModpacks,
	cfreg.ClassWorlds,
	cfreg.ClassShaders,
	cfreg.ClassDataPacks,
}

const (
	discoveryPageSize = 50
	// searchWindow is the deepest offset the search API will serve; requests
	// beyond index+pageSize > searchWindow are rejected upstream.
	searchWindow = 10000
)

// Discovery finds mods published since the last discovery run by walking
// each class newest-first and stopping at the first already-stored id.
type Discovery struct {
	Registry cfreg.Registry
	Store    store.ObjectStore
	// Delay is the pause between search pages.
	Delay time.Duration
}

// NewModIDs walks every discovery class and gathers unknown mod ids.
func (d *Discovery) NewModIDs(ctx context.Context) ([]int, error) {
	seen := make(map[int]bool)
	var ids []int
	for _, classID := range DiscoveryClasses {
		classIDs, err := d.newInClass(ctx, classID)
		if err != nil {
			return nil, err
		}
		for _, id := range classIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	log.WithField("discovered", len(ids)).Info("finished search discovery")
	return ids, nil
}

func (d *Discovery) newInClass(ctx context.Context, classID int) ([]int, error) {
	var ids []int
	for index := 0; index+discoveryPageSize <= searchWindow; index += discoveryPageSize {
		res, err := d.Registry.Search(ctx, cfreg.SearchParams{
			GameID:    cfreg.GameIDMinecraft,
			ClassID:   classID,
			SortField: cfreg.SortReleasedDate,
			SortOrder: cfreg.SortDesc,
			Index:     index,
			PageSize:  discoveryPageSize,
		})
		if err != nil {
			return nil, err
		}
		if len(res.Data) == 0 {
			break
		}
		pageIDs := make([]int, 0, len(res.Data))
		for i := range res.Data {
			pageIDs = append(pageIDs, res.Data[i].ID)
		}
		known, err := d.knownIDs(ctx, pageIDs)
		if err != nil {
			return nil, err
		}
		hitKnown := false
		for _, id := range pageIDs {
			if known[id] {
				hitKnown = true
				break
			}
			if id >= cfreg.MinModID {
				ids = append(ids, id)
			}
		}
		if hitKnown {
			break
		}
		log.WithFields(log.Fields{"classId": classID, "index": index, "new": len(ids)}).Debug("walked search page")
		if d.Delay > 0 {
			select {
			case <-time.After(d.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return ids, nil
}

func (d *Discovery) knownIDs(ctx context.Context, ids []int) (map[int]bool, error) {
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
	return known, nil
}
