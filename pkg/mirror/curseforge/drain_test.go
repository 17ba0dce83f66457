// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package curseforge

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mcmod-info-mirror/mcim-sync/internal/store"
	"github.com/mcmod-info-mirror/mcim-sync/internal/store/storetest"
	cfreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/curseforge"
)

func TestPendingModIDsEmptyQueuesSkipUpstream(t *testing.T) {
	// No scripted registry methods: any upstream call panics the test.
	drainer := &Drainer{
		Registry: &fakeRegistry{},
		Queues:   &storetest.Queues{Sets: map[string][]string{}},
	}
	ids, err := drainer.PendingModIDs(context.Background())
	if err != nil {
		t.Fatalf("PendingModIDs() returned error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("PendingModIDs() = %v, want empty", ids)
	}
}

func TestPendingModIDsResolvesQueues(t *testing.T) {
	queues := &storetest.Queues{Sets: map[string][]string{
		store.QueueCurseforgeModIDs:       {"30001", "29999", "garbage"},
		store.QueueCurseforgeFileIDs:      {"77"},
		store.QueueCurseforgeFingerprints: {"123"},
	}}
	reg := &fakeRegistry{
		files: func(ids []int) ([]cfreg.File, error) {
			if diff := cmp.Diff([]int{77}, ids); diff != "" {
				t.Errorf("file ids mismatch (-want +got):\n%s", diff)
			}
			return []cfreg.File{{ID: 77, ModID: 30002}}, nil
		},
		fingerprints: func(fps []int64) (*cfreg.FingerprintsResult, error) {
			if diff := cmp.Diff([]int64{123}, fps); diff != "" {
				t.Errorf("fingerprints mismatch (-want +got):\n%s", diff)
			}
			return &cfreg.FingerprintsResult{
				ExactMatches: []cfreg.FingerprintMatch{{ID: 123, File: cfreg.File{ID: 9, ModID: 30003}}},
			}, nil
		},
	}
	drainer := &Drainer{Registry: reg, Queues: queues, Store: &storetest.Store{}}
	ids, err := drainer.PendingModIDs(context.Background())
	if err != nil {
		t.Fatalf("PendingModIDs() returned error: %v", err)
	}
	// 29999 is below the public floor, "garbage" does not parse.
	if diff := cmp.Diff([]int{30001, 30002, 30003}, ids); diff != "" {
		t.Errorf("resolved ids mismatch (-want +got):\n%s", diff)
	}
}

func TestPendingModIDsSkipsStored(t *testing.T) {
	queues := &storetest.Queues{Sets: map[string][]string{
		store.QueueCurseforgeModIDs: {"30001", "30002"},
	}}
	// 30001 is already mirrored; only the genuine miss survives the drain.
	st := &storetest.Store{FindPageFunc: knownMods(30001)}
	drainer := &Drainer{Registry: &fakeRegistry{}, Queues: queues, Store: st}
	ids, err := drainer.PendingModIDs(context.Background())
	if err != nil {
		t.Fatalf("PendingModIDs() returned error: %v", err)
	}
	if diff := cmp.Diff([]int{30002}, ids); diff != "" {
		t.Errorf("resolved ids mismatch (-want +got):\n%s", diff)
	}
}

func TestPendingModIDsDeduplicates(t *testing.T) {
	queues := &storetest.Queues{Sets: map[string][]string{
		store.QueueCurseforgeModIDs:  {"30001"},
		store.QueueCurseforgeFileIDs: {"77"},
	}}
	reg := &fakeRegistry{
		files: func(ids []int) ([]cfreg.File, error) {
			return []cfreg.File{{ID: 77, ModID: 30001}}, nil
		},
	}
	drainer := &Drainer{Registry: reg, Queues: queues, Store: &storetest.Store{}}
	ids, err := drainer.PendingModIDs(context.Background())
	if err != nil {
		t.Fatalf("PendingModIDs() returned error: %v", err)
	}
	if diff := cmp.Diff([]int{30001}, ids); diff != "" {
		t.Errorf("resolved ids mismatch (-want +got):\n%s", diff)
	}
}

func TestClearTruncatesAllQueues(t *testing.T) {
	queues := &storetest.Queues{Sets: map[string][]string{
		store.QueueCurseforgeModIDs: {"30001"},
	}}
	drainer := &Drainer{Registry: &fakeRegistry{}, Queues: queues}
	if err := drainer.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() returned error: %v", err)
	}
	want := []string{
		store.QueueCurseforgeModIDs,
		store.QueueCurseforgeFileIDs,
		store.QueueCurseforgeFingerprints,
	}
	if diff := cmp.Diff(want, queues.Cleared); diff != "" {
		t.Errorf("cleared queues mismatch (-want +got):\n%s", diff)
	}
}
