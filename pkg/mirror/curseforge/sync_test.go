// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package curseforge

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/mcmod-info-mirror/mcim-sync/internal/httpx"
	"github.com/mcmod-info-mirror/mcim-sync/internal/store/storetest"
	"github.com/mcmod-info-mirror/mcim-sync/pkg/mirror"
	cfreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/curseforge"
)

func consistentList(files []cfreg.File) *cfreg.FileList {
	return &cfreg.FileList{
		Data: files,
		Pagination: cfreg.Pagination{
			ResultCount: len(files),
			TotalCount:  len(files),
		},
	}
}

func TestSyncModPersistsModLast(t *testing.T) {
	files := []cfreg.File{
		{ID: 101, ModID: 30001, FileFingerprint: 9001},
		{ID: 102, ModID: 30001, FileFingerprint: 9002},
	}
	reg := &fakeRegistry{
		mod: func(id int) (*cfreg.Mod, error) {
			return &cfreg.Mod{ID: 30001, GameID: cfreg.GameIDMinecraft, Name: "Example"}, nil
		},
		modFiles: func(id, index, pageSize int) (*cfreg.FileList, error) {
			return consistentList(files), nil
		},
	}
	st := &storetest.Store{}
	syncer := &Syncer{Registry: reg, Store: st}

	detail, err := syncer.SyncMod(context.Background(), 30001)
	if err != nil {
		t.Fatalf("SyncMod() returned error: %v", err)
	}
	if detail.ID != "30001" || detail.Name != "Example" || detail.VersionCount != 2 {
		t.Errorf("SyncMod() detail = %+v", detail)
	}

	if got := len(st.UpsertedInto(cfreg.FilesCollection)); got != 2 {
		t.Errorf("stored %d files, want 2", got)
	}
	if got := len(st.UpsertedInto(cfreg.FingerprintsCollection)); got != 2 {
		t.Errorf("stored %d fingerprints, want 2", got)
	}
	if len(st.Ops) == 0 || st.Ops[len(st.Ops)-1] != "upsert:"+cfreg.ModsCollection {
		t.Fatalf("mod record must be the final write, ops = %v", st.Ops)
	}
	// Both prunes run before the mod is published.
	seenModUpsert := false
	for _, op := range st.Ops {
		if op == "upsert:"+cfreg.ModsCollection {
			seenModUpsert = true
		}
		if seenModUpsert && (op == "delete:"+cfreg.FilesCollection || op == "delete:"+cfreg.FingerprintsCollection) {
			t.Errorf("prune after mod publish, ops = %v", st.Ops)
		}
	}
}

func TestSyncModSkipsBelowFloor(t *testing.T) {
	// No scripted registry methods: any upstream call panics the test.
	st := &storetest.Store{}
	syncer := &Syncer{Registry: &fakeRegistry{}, Store: st}
	detail, err := syncer.SyncMod(context.Background(), 29999)
	if err != nil {
		t.Fatalf("SyncMod() returned error: %v", err)
	}
	if detail != nil {
		t.Errorf("SyncMod() detail = %+v, want nil", detail)
	}
	if len(st.Ops) != 0 {
		t.Errorf("legacy id must write nothing, ops = %v", st.Ops)
	}
}

func TestSyncModShrinksPageSize(t *testing.T) {
	var pageSizes []int
	inconsistent := &cfreg.FileList{
		Data:       []cfreg.File{{ID: 1}},
		Pagination: cfreg.Pagination{ResultCount: 2, TotalCount: 3},
	}
	reg := &fakeRegistry{
		mod: func(id int) (*cfreg.Mod, error) {
			return &cfreg.Mod{ID: 30001, GameID: cfreg.GameIDMinecraft}, nil
		},
		modFiles: func(id, index, pageSize int) (*cfreg.FileList, error) {
			pageSizes = append(pageSizes, pageSize)
			if len(pageSizes) < 3 {
				return inconsistent, nil
			}
			return consistentList([]cfreg.File{{ID: 1, ModID: 30001}}), nil
		},
	}
	st := &storetest.Store{}
	syncer := &Syncer{Registry: reg, Store: st}

	if _, err := syncer.SyncMod(context.Background(), 30001); err != nil {
		t.Fatalf("SyncMod() returned error: %v", err)
	}
	want := []int{10000, 9999, 9998}
	if len(pageSizes) != 3 || pageSizes[0] != want[0] || pageSizes[1] != want[1] || pageSizes[2] != want[2] {
		t.Errorf("pageSizes = %v, want %v", pageSizes, want)
	}
}

func TestSyncModInconsistentLeavesStateUntouched(t *testing.T) {
	reg := &fakeRegistry{
		mod: func(id int) (*cfreg.Mod, error) {
			return &cfreg.Mod{ID: 30001, GameID: cfreg.GameIDMinecraft}, nil
		},
		modFiles: func(id, index, pageSize int) (*cfreg.FileList, error) {
			return &cfreg.FileList{
				Data:       nil,
				Pagination: cfreg.Pagination{ResultCount: 5, TotalCount: 7},
			}, nil
		},
	}
	st := &storetest.Store{}
	syncer := &Syncer{Registry: reg, Store: st}

	_, err := syncer.SyncMod(context.Background(), 30001)
	if !errors.Is(err, mirror.ErrInconsistentUpstream) {
		t.Fatalf("SyncMod() error = %v, want ErrInconsistentUpstream", err)
	}
	if len(st.Upserts) != 0 || len(st.Deletions) != 0 {
		t.Errorf("store mutated despite inconsistent listing: %v", st.Ops)
	}
}

func TestSyncModNotFound(t *testing.T) {
	reg := &fakeRegistry{
		mod: func(id int) (*cfreg.Mod, error) {
			return nil, &httpx.ResponseError{Status: 404, URL: "https://api.curseforge.com/v1/mods/30001"}
		},
	}
	syncer := &Syncer{Registry: reg, Store: &storetest.Store{}}
	_, err := syncer.SyncMod(context.Background(), 30001)
	if !errors.Is(err, mirror.ErrNotFound) {
		t.Errorf("SyncMod() error = %v, want ErrNotFound", err)
	}
}

func TestSyncModSkipsForeignGame(t *testing.T) {
	reg := &fakeRegistry{
		mod: func(id int) (*cfreg.Mod, error) {
			return &cfreg.Mod{ID: 30001, GameID: 1}, nil
		},
	}
	st := &storetest.Store{}
	syncer := &Syncer{Registry: reg, Store: st}
	detail, err := syncer.SyncMod(context.Background(), 30001)
	if err != nil || detail != nil {
		t.Errorf("SyncMod() = %+v, %v, want nil, nil", detail, err)
	}
	if len(st.Upserts) != 0 {
		t.Errorf("store mutated for foreign-game mod")
	}
}

func TestSyncModPagedTraversal(t *testing.T) {
	pages := []*cfreg.FileList{
		{
			Data:       []cfreg.File{{ID: 1, ModID: 30001}, {ID: 2, ModID: 30001}},
			Pagination: cfreg.Pagination{Index: 0, PageSize: 2, ResultCount: 2, TotalCount: 3},
		},
		{
			Data:       []cfreg.File{{ID: 3, ModID: 30001}},
			Pagination: cfreg.Pagination{Index: 2, PageSize: 2, ResultCount: 1, TotalCount: 3},
		},
	}
	var indexes []int
	reg := &fakeRegistry{
		mod: func(id int) (*cfreg.Mod, error) {
			return &cfreg.Mod{ID: 30001, GameID: cfreg.GameIDMinecraft}, nil
		},
		modFiles: func(id, index, pageSize int) (*cfreg.FileList, error) {
			indexes = append(indexes, index)
			page := pages[0]
			pages = pages[1:]
			return page, nil
		},
	}
	st := &storetest.Store{}
	syncer := &Syncer{Registry: reg, Store: st, PagedFiles: true}

	detail, err := syncer.SyncMod(context.Background(), 30001)
	if err != nil {
		t.Fatalf("SyncMod() returned error: %v", err)
	}
	if detail.VersionCount != 3 {
		t.Errorf("VersionCount = %d, want 3", detail.VersionCount)
	}
	if got := len(st.UpsertedInto(cfreg.FilesCollection)); got != 3 {
		t.Errorf("stored %d files, want 3", got)
	}
	if len(indexes) != 2 || indexes[0] != 0 || indexes[1] != 2 {
		t.Errorf("indexes = %v, want [0 2]", indexes)
	}
}

func TestSyncCategoriesReplaces(t *testing.T) {
	reg := &fakeRegistry{
		categories: func(gameID, classID int, classOnly bool) ([]cfreg.Category, error) {
			return []cfreg.Category{{ID: 6, GameID: gameID}, {ID: 12, GameID: gameID}}, nil
		},
	}
	st := &storetest.Store{}
	syncer := &Syncer{Registry: reg, Store: st}
	n, err := syncer.SyncCategories(context.Background(), cfreg.GameIDMinecraft)
	if err != nil {
		t.Fatalf("SyncCategories() returned error: %v", err)
	}
	if n != 2 {
		t.Errorf("SyncCategories() = %d, want 2", n)
	}
	if len(st.Deletions) != 1 || st.Deletions[0].Collection != cfreg.CategoriesCollection {
		t.Errorf("Deletions = %+v", st.Deletions)
	}
	if st.Ops[0] != "delete:"+cfreg.CategoriesCollection {
		t.Errorf("old categories must be dropped before insert, ops = %v", st.Ops)
	}
	if got := len(st.UpsertedInto(cfreg.CategoriesCollection)); got != 2 {
		t.Errorf("stored %d categories, want 2", got)
	}
}
