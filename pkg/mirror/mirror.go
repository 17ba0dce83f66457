// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

// Package mirror holds the types shared by the per-platform sync pipelines.
package mirror

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Platform identifies an upstream catalog.
type Platform string

const (
	Curseforge Platform = "Curseforge"
	Modrinth   Platform = "Modrinth"
)

// ProjectDetail summarizes one successfully synced project.
type ProjectDetail struct {
	ID           string
	Name         string
	VersionCount int
}

// Sentinel failures of the sync pipeline. Upstream transport failures are
// typed in the httpx package; these cover the domain-level taxonomy.
var (
	// ErrNotFound: upstream returned 404 for the project or its versions.
	// Non-fatal; the deletion sweep is the sole authority to delete.
	ErrNotFound = errors.New("project not found upstream")
	// ErrInconsistentUpstream: the single-shot file listing never settled on
	// a self-consistent page. State is left unmodified.
	ErrInconsistentUpstream = errors.New("inconsistent upstream file listing")
	// ErrEmptyVersionsSuspect: upstream reported zero versions for a project
	// that previously had some. State is left unpruned.
	ErrEmptyVersionsSuspect = errors.New("suspect empty version list upstream")
)

// SameSecond compares two timestamps at second precision, tolerating
// sub-second jitter upstream.
func SameSecond(a, b time.Time) bool {
	return a.Unix() == b.Unix()
}

// Outcome aggregates the per-task results of one fan-out run.
type Outcome[ID comparable] struct {
	Succeeded []ProjectDetail
	Failed    []ID
}

// ForEach runs fn over ids on a bounded worker pool and gathers results. A
// failing task never aborts its siblings; it is recorded in Failed.
func ForEach[ID comparable](ctx context.Context, ids []ID, workers int, fn func(context.Context, ID) (*ProjectDetail, error)) Outcome[ID] {
	if workers <= 0 {
		workers = 8
	}
	var (
		mu      sync.Mutex
		outcome Outcome[ID]
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			detail, err := fn(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil || detail == nil {
				outcome.Failed = append(outcome.Failed, id)
			} else {
				outcome.Succeeded = append(outcome.Succeeded, *detail)
			}
			return nil
		})
	}
	g.Wait()
	return outcome
}

// SummaryKind distinguishes notifier message flavors.
type SummaryKind string

const (
	SummaryRefresh    SummaryKind = "refresh"
	SummaryQueue      SummaryKind = "queue"
	SummarySearch     SummaryKind = "search"
	SummaryCategories SummaryKind = "categories"
	SummaryTags       SummaryKind = "tags"
	SummaryStatistics SummaryKind = "statistics"
)

// Summary is a structured job outcome handed to the Notifier.
type Summary struct {
	Kind     SummaryKind
	Platform Platform

	Projects    []ProjectDetail
	Total       int
	FailedCount int

	// Categories/tags refreshes.
	CategoriesCount   int
	LoadersCount      int
	GameVersionsCount int

	// Statistics: collection name to document count.
	Counts map[string]int64
}

// Notifier forwards job summaries to an external sink.
type Notifier interface {
	Notify(ctx context.Context, s Summary) error
}

// NopNotifier discards summaries; used when no sink is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Summary) error { return nil }
