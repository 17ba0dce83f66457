// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package curseforge

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mcmod-info-mirror/mcim-sync/internal/store"
	"github.com/mcmod-info-mirror/mcim-sync/internal/store/storetest"
	cfreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/curseforge"
)

// pagedRefs serves stored mod refs one FindPage at a time.
func pagedRefs(refs []modRef) func(string, store.Filter, int64, int64, any) error {
	return func(_ string, _ store.Filter, skip, limit int64, out any) error {
		dst := out.(*[]modRef)
		if skip >= int64(len(refs)) {
			return nil
		}
		end := min(skip+limit, int64(len(refs)))
		*dst = append(*dst, refs[skip:end]...)
		return nil
	}
}

func TestOutdatedModIDs(t *testing.T) {
	t0 := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	jitter := t0.Add(300 * time.Millisecond)
	moved := t0.Add(time.Hour)
	st := &storetest.Store{
		FindPageFunc: pagedRefs([]modRef{
			{ID: 30001, DateModified: &t0},
			{ID: 30002, DateModified: &t0},
			{ID: 30003, DateModified: nil},
		}),
	}
	reg := &fakeRegistry{
		mods: func(ids []int) ([]cfreg.Mod, error) {
			return []cfreg.Mod{
				{ID: 30001, DateModified: &jitter},
				{ID: 30002, DateModified: &moved},
				{ID: 30003, DateModified: &t0},
			}, nil
		},
	}
	checker := &Checker{Registry: reg, Store: st}
	outdated, err := checker.OutdatedModIDs(context.Background())
	if err != nil {
		t.Fatalf("OutdatedModIDs() returned error: %v", err)
	}
	// 30001 only moved by sub-second jitter; 30003 had no stored timestamp.
	if diff := cmp.Diff([]int{30002, 30003}, outdated); diff != "" {
		t.Errorf("outdated mismatch (-want +got):\n%s", diff)
	}
}

func TestOutdatedModIDsRefreshesAliveMetadata(t *testing.T) {
	t0 := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	moved := t0.Add(time.Hour)
	st := &storetest.Store{
		FindPageFunc: pagedRefs([]modRef{
			{ID: 30001, DateModified: &t0},
			{ID: 30002, DateModified: &t0},
		}),
	}
	reg := &fakeRegistry{
		mods: func(ids []int) ([]cfreg.Mod, error) {
			return []cfreg.Mod{
				{ID: 30001, DateModified: &t0, DownloadCount: 777},
				{ID: 30002, DateModified: &moved},
			}, nil
		},
	}
	checker := &Checker{Registry: reg, Store: st}
	outdated, err := checker.OutdatedModIDs(context.Background())
	if err != nil {
		t.Fatalf("OutdatedModIDs() returned error: %v", err)
	}
	if diff := cmp.Diff([]int{30002}, outdated); diff != "" {
		t.Errorf("outdated mismatch (-want +got):\n%s", diff)
	}
	// The unchanged mod still gets its descriptive fields written back.
	upserted := st.UpsertedInto(cfreg.ModsCollection)
	if len(upserted) != 2 {
		t.Fatalf("sweep upserted %d mods, want 2", len(upserted))
	}
	steady := upserted[0].(*cfreg.Mod)
	if steady.ID != 30001 || steady.DownloadCount != 777 {
		t.Errorf("refreshed mod = %+v, want id 30001 with downloadCount 777", steady)
	}
}

func TestOutdatedModIDsIgnoresMissing(t *testing.T) {
	t0 := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	st := &storetest.Store{
		FindPageFunc: pagedRefs([]modRef{{ID: 30001, DateModified: &t0}}),
	}
	reg := &fakeRegistry{
		mods: func(ids []int) ([]cfreg.Mod, error) {
			// Upstream omits the mod entirely; refresh must not flag it.
			return nil, nil
		},
	}
	checker := &Checker{Registry: reg, Store: st}
	outdated, err := checker.OutdatedModIDs(context.Background())
	if err != nil {
		t.Fatalf("OutdatedModIDs() returned error: %v", err)
	}
	if len(outdated) != 0 {
		t.Errorf("outdated = %v, want empty", outdated)
	}
}

func TestOutdatedModIDsChunks(t *testing.T) {
	t0 := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	refs := make([]modRef, 5)
	for i := range refs {
		refs[i] = modRef{ID: 30001 + i, DateModified: &t0}
	}
	st := &storetest.Store{FindPageFunc: pagedRefs(refs)}
	var chunkSizes []int
	reg := &fakeRegistry{
		mods: func(ids []int) ([]cfreg.Mod, error) {
			chunkSizes = append(chunkSizes, len(ids))
			return nil, nil
		},
	}
	checker := &Checker{Registry: reg, Store: st, ChunkSize: 2}
	if _, err := checker.OutdatedModIDs(context.Background()); err != nil {
		t.Fatalf("OutdatedModIDs() returned error: %v", err)
	}
	if diff := cmp.Diff([]int{2, 2, 1}, chunkSizes); diff != "" {
		t.Errorf("chunk sizes mismatch (-want +got):\n%s", diff)
	}
}

func TestAllModIDs(t *testing.T) {
	st := &storetest.Store{
		FindPageFunc: pagedRefs([]modRef{{ID: 30001}, {ID: 30002}}),
	}
	checker := &Checker{Registry: &fakeRegistry{}, Store: st}
	ids, err := checker.AllModIDs(context.Background())
	if err != nil {
		t.Fatalf("AllModIDs() returned error: %v", err)
	}
	if diff := cmp.Diff([]int{30001, 30002}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}
