// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package modrinth

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mcmod-info-mirror/mcim-sync/internal/store"
	mrreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/modrinth"
)

const discoveryPageSize = 100

// Discovery finds projects published since the last discovery run by walking
// the search index newest-first and stopping at the first already-stored id.
type Discovery struct {
	Registry mrreg.Registry
	Store    store.ObjectStore
	// Delay is the pause between search pages.
	Delay time.Duration
}

// NewProjectIDs walks the newest-first search index and gathers unknown
// project ids.
func (d *Discovery) NewProjectIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for offset := 0; ; offset += discoveryPageSize {
		res, err := d.Registry.Search(ctx, mrreg.SearchParams{
			Offset: offset,
			Limit:  discoveryPageSize,
			Index:  mrreg.IndexNewest,
		})
		if err != nil {
			return nil, err
		}
		if len(res.Hits) == 0 {
			break
		}
		pageIDs := make([]string, 0, len(res.Hits))
		for i := range res.Hits {
			pageIDs = append(pageIDs, res.Hits[i].ProjectID)
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
			ids = append(ids, id)
		}
		if hitKnown || offset+discoveryPageSize >= res.TotalHits {
			break
		}
		log.WithFields(log.Fields{"offset": offset, "new": len(ids)}).Debug("walked search page")
		if d.Delay > 0 {
			select {
			case <-time.After(d.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	log.WithField("discovered", len(ids)).Info("finished search discovery")
	return ids, nil
}

func (d *Discovery) knownIDs(ctx context.Context, ids []string) (map[string]bool, error) {
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
	return known, nil
}
