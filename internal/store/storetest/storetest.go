// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

// Package storetest provides scripted in-memory doubles for the store
// interfaces.
package storetest

import (
	"context"

	"github.com/mcmod-info-mirror/mcim-sync/internal/store"
)

// Deletion records one DeleteMany call.
type Deletion struct {
	Collection string
	Filter     store.Filter
}

// Store is a recording ObjectStore double. Reads are scripted through the
// function fields; unset fields return zero values.
type Store struct {
	// Upserts records every UpsertMany batch in call order.
	Upserts [][]store.Entity
	// Deletions records every DeleteMany call in call order.
	Deletions []Deletion
	// Ops records every write in order, one "upsert:<collection>" entry per
	// entity and one "delete:<collection>" entry per DeleteMany call.
	Ops []string

	UpsertErr error
	// DeleteCounts maps collection name to the count DeleteMany reports.
	DeleteCounts map[string]int64
	DeleteErr    error

	FindPageFunc func(collection string, filter store.Filter, skip, limit int64, out any) error
	CountFunc    func(collection string, filter store.Filter) (int64, error)
}

var _ store.ObjectStore = (*Store)(nil)

func (s *Store) UpsertMany(_ context.Context, entities []store.Entity) error {
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	s.Upserts = append(s.Upserts, entities)
	for _, e := range entities {
		s.Ops = append(s.Ops, "upsert:"+e.Collection())
	}
	return nil
}

func (s *Store) FindPage(_ context.Context, collection string, filter store.Filter, skip, limit int64, out any) error {
	if s.FindPageFunc == nil {
		return nil
	}
	return s.FindPageFunc(collection, filter, skip, limit, out)
}

func (s *Store) Count(_ context.Context, collection string, filter store.Filter) (int64, error) {
	if s.CountFunc == nil {
		return 0, nil
	}
	return s.CountFunc(collection, filter)
}

func (s *Store) DeleteMany(_ context.Context, collection string, filter store.Filter) (int64, error) {
	if s.DeleteErr != nil {
		return 0, s.DeleteErr
	}
	s.Deletions = append(s.Deletions, Deletion{Collection: collection, Filter: filter})
	s.Ops = append(s.Ops, "delete:"+collection)
	return s.DeleteCounts[collection], nil
}

// UpsertedInto flattens the recorded upserts targeting one collection.
func (s *Store) UpsertedInto(collection string) []store.Entity {
	var out []store.Entity
	for _, batch := range s.Upserts {
		for _, e := range batch {
			if e.Collection() == collection {
				out = append(out, e)
			}
		}
	}
	return out
}

// Queues is an in-memory SetStore double.
type Queues struct {
	Sets map[string][]string
	// Cleared records Delete calls in order.
	Cleared []string
}

var _ store.SetStore = (*Queues)(nil)

func (q *Queues) Exists(_ context.Context, name string) (bool, error) {
	return len(q.Sets[name]) > 0, nil
}

func (q *Queues) Members(_ context.Context, name string) ([]string, error) {
	return q.Sets[name], nil
}

func (q *Queues) Delete(_ context.Context, name string) error {
	delete(q.Sets, name)
	q.Cleared = append(q.Cleared, name)
	return nil
}
