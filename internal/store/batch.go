// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// DefaultBatchSize is the flush threshold for BatchWriter.
const DefaultBatchSize = 100

// BatchWriter accumulates entities and flushes them to the object store in
// fixed-size batches. It is a scoped resource: callers must Close it on every
// exit path, which flushes whatever was gathered. Writes are idempotent by
// primary key, so a flush after a mid-scope failure is safe.
//
// A BatchWriter is not safe for concurrent use; each worker opens its own.
type BatchWriter struct {
	store     ObjectStore
	batchSize int
	pending   []Entity
	submitted int
}

// NewBatchWriter opens a writer over the given store. A batchSize of 0 uses
// DefaultBatchSize.
func NewBatchWriter(store ObjectStore, batchSize int) *BatchWriter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchWriter{store: store, batchSize: batchSize}
}

// Add buffers an entity, flushing if the buffer is full.
func (w *BatchWriter) Add(ctx context.Context, e Entity) error {
	w.pending = append(w.pending, e)
	if len(w.pending) >= w.batchSize {
		return w.Flush(ctx)
	}
	return nil
}

// Flush writes the buffered entities. The buffer is cleared even on failure
// so a Close after a failed Flush does not retry the same batch forever.
func (w *BatchWriter) Flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}
	batch := w.pending
	w.pending = nil
	if err := w.store.UpsertMany(ctx, batch); err != nil {
		return err
	}
	w.submitted += len(batch)
	log.WithFields(log.Fields{"batch": len(batch), "total": w.submitted}).Debug("flushed entity batch")
	return nil
}

// Close flushes any remaining entities. Call it on every exit path.
func (w *BatchWriter) Close(ctx context.Context) error {
	return w.Flush(ctx)
}

// Submitted reports how many entities have been written so far.
func (w *BatchWriter) Submitted() int { return w.submitted }
