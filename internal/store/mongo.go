// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

// Package store provides the persistence layer: a MongoDB-backed object store
// for catalog entities and a Redis-backed set store for miss queues.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mcmod-info-mirror/mcim-sync/internal/config"
)

// Filter selects documents within a collection. The zero value matches all.
type Filter = bson.D

// Eq matches documents whose field equals v. Dotted paths reach into
// embedded documents.
func Eq(field string, v any) Filter {
	return Filter{{Key: field, Value: v}}
}

// In matches documents whose field is any of vs.
func In[T any](field string, vs []T) Filter {
	return Filter{{Key: field, Value: bson.D{{Key: "$in", Value: vs}}}}
}

// NotIn matches documents whose field is none of vs.
func NotIn[T any](field string, vs []T) Filter {
	return Filter{{Key: field, Value: bson.D{{Key: "$nin", Value: vs}}}}
}

// And combines filters conjunctively.
func And(filters ...Filter) Filter {
	var out Filter
	for _, f := range filters {
		out = append(out, f...)
	}
	return out
}

// All matches every document.
func All() Filter { return Filter{} }

// ObjectStore is the document store surface the sync engine writes through.
type ObjectStore interface {
	UpsertMany(ctx context.Context, entities []Entity) error
	FindPage(ctx context.Context, collection string, filter Filter, skip, limit int64, out any) error
	Count(ctx context.Context, collection string, filter Filter) (int64, error)
	DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error)
}

// Mongo is the MongoDB-backed ObjectStore.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ ObjectStore = (*Mongo)(nil)

// DialMongo connects to the configured MongoDB instance.
func DialMongo(ctx context.Context, cfg config.MongoDB) (*Mongo, error) {
	var uri string
	if cfg.Auth {
		uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.User, cfg.Password, cfg.Host, cfg.Port)
	} else {
		uri = fmt.Sprintf("mongodb://%s:%d", cfg.Host, cfg.Port)
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	return &Mongo{client: client, db: client.Database(cfg.Database)}, nil
}

// Ping verifies the store is reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	return errors.Wrap(m.client.Ping(ctx, readpref.Primary()), "pinging mongodb")
}

// Close releases the underlying connections.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// UpsertMany writes entities grouped per collection as unordered bulk
// replace-or-insert operations keyed by primary id. Each entity's sync_at is
// stamped with the write time.
func (m *Mongo) UpsertMany(ctx context.Context, entities []Entity) error {
	if len(entities) == 0 {
		return nil
	}
	now := time.Now().UTC()
	batches := make(map[string][]mongo.WriteModel)
	for _, e := range entities {
		e.StampSynced(now)
		model := mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: e.EntityID()}}).
			SetReplacement(e).
			SetUpsert(true)
		batches[e.Collection()] = append(batches[e.Collection()], model)
	}
	for coll, models := range batches {
		opts := options.BulkWrite().SetOrdered(false)
		if _, err := m.db.Collection(coll).BulkWrite(ctx, models, opts); err != nil {
			return errors.Wrapf(err, "bulk upsert into %s", coll)
		}
	}
	return nil
}

// FindPage decodes a page of matching documents into out, a pointer to a
// slice. Results are ordered by primary id so pagination is stable.
func (m *Mongo) FindPage(ctx context.Context, collection string, filter Filter, skip, limit int64, out any) error {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := m.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return errors.Wrapf(err, "finding in %s", collection)
	}
	defer cur.Close(ctx)
	return errors.Wrapf(cur.All(ctx, out), "decoding page of %s", collection)
}

// Count returns the number of matching documents.
func (m *Mongo) Count(ctx context.Context, collection string, filter Filter) (int64, error) {
	n, err := m.db.Collection(collection).CountDocuments(ctx, filter)
	return n, errors.Wrapf(err, "counting %s", collection)
}

// DeleteMany removes matching documents and reports how many were deleted.
func (m *Mongo) DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error) {
	res, err := m.db.Collection(collection).DeleteMany(ctx, filter)
	if err != nil {
		return 0, errors.Wrapf(err, "deleting from %s", collection)
	}
	return res.DeletedCount, nil
}
