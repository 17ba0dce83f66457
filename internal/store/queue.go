// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/mcmod-info-mirror/mcim-sync/internal/config"
)

// Miss-queue names written by the read service and drained by this engine.
const (
	QueueCurseforgeModIDs       = "curseforge_modids"
	QueueCurseforgeFileIDs      = "curseforge_fileids"
	QueueCurseforgeFingerprints = "curseforge_fingerprints"
	QueueModrinthProjectIDs     = "modrinth_project_ids"
	QueueModrinthVersionIDs     = "modrinth_version_ids"
	QueueModrinthHashesSHA1     = "modrinth_hashes_sha1"
	QueueModrinthHashesSHA512   = "modrinth_hashes_sha512"
)

// SetStore is the miss-queue surface: external sets of identifiers that are
// read in full and then truncated.
type SetStore interface {
	Exists(ctx context.Context, name string) (bool, error)
	Members(ctx context.Context, name string) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// RedisQueues is the Redis-backed SetStore.
type RedisQueues struct {
	client *redis.Client
}

var _ SetStore = (*RedisQueues)(nil)

// DialRedis connects to the configured Redis instance.
func DialRedis(cfg config.Redis) *RedisQueues {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.Database,
	})
	return &RedisQueues{client: client}
}

// Ping verifies the queue store is reachable.
func (q *RedisQueues) Ping(ctx context.Context) error {
	return errors.Wrap(q.client.Ping(ctx).Err(), "pinging redis")
}

// Close releases the underlying connections.
func (q *RedisQueues) Close() error {
	return q.client.Close()
}

// Exists reports whether the named queue holds any members.
func (q *RedisQueues) Exists(ctx context.Context, name string) (bool, error) {
	n, err := q.client.Exists(ctx, name).Result()
	if err != nil {
		return false, errors.Wrapf(err, "checking queue %s", name)
	}
	return n > 0, nil
}

// Members returns every identifier in the named queue.
func (q *RedisQueues) Members(ctx context.Context, name string) ([]string, error) {
	members, err := q.client.SMembers(ctx, name).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "reading queue %s", name)
	}
	return members, nil
}

// Delete truncates the named queue. Members added between Members and Delete
// may be lost; the next refresh tick reclaims them.
func (q *RedisQueues) Delete(ctx context.Context, name string) error {
	return errors.Wrapf(q.client.Del(ctx, name).Err(), "clearing queue %s", name)
}
