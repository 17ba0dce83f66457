// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package store

import "time"

// Entity is a storable document: it knows its collection and primary key.
type Entity interface {
	EntityID() any
	Collection() string
	StampSynced(t time.Time)
}

// Synced carries the sync_at timestamp every stored record has. Embed it in
// storable models.
type Synced struct {
	SyncAt time.Time `json:"sync_at" bson:"sync_at"`
}

// StampSynced records when the entity was written by this engine.
func (s *Synced) StampSynced(t time.Time) { s.SyncAt = t }
