// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

// Package ratex provides a per-host token bucket limiter for upstream calls.
package ratex

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// ErrAcquireTimeout indicates a caller-supplied timeout elapsed before enough
// tokens accumulated.
var ErrAcquireTimeout = errors.New("rate limit acquire timed out")

// HostConfig describes one host's bucket: Capacity is both the maximum token
// count and the burst size; RefillRate is in tokens per second.
type HostConfig struct {
	Capacity      int
	RefillRate    float64
	InitialTokens *int
}

// Status is a point-in-time view of one host's bucket.
type Status struct {
	Configured bool
	Capacity   int
	RefillRate float64
	Tokens     float64
}

// Limiter applies per-host token buckets. Requests to hosts without a
// configured bucket pass through immediately.
type Limiter struct {
	mu      sync.Mutex
	configs map[string]HostConfig
	buckets map[string]*rate.Limiter
}

// NewLimiter builds a Limiter from per-host configs keyed by hostname.
func NewLimiter(configs map[string]HostConfig) *Limiter {
	l := &Limiter{
		configs: make(map[string]HostConfig, len(configs)),
		buckets: make(map[string]*rate.Limiter, len(configs)),
	}
	for host, cfg := range configs {
		l.configs[strings.ToLower(host)] = cfg
	}
	return l
}

func (l *Limiter) bucket(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[host]; ok {
		return b
	}
	cfg, ok := l.configs[host]
	if !ok {
		return nil
	}
	b := rate.NewLimiter(rate.Limit(cfg.RefillRate), cfg.Capacity)
	if cfg.InitialTokens != nil && *cfg.InitialTokens < cfg.Capacity {
		// Drain the bucket down to the configured initial level.
		b.ReserveN(time.Now(), cfg.Capacity-*cfg.InitialTokens)
	}
	l.buckets[host] = b
	return b
}

// Acquire debits tokens for the given URL's host, blocking until they are
// available or ctx is done. Waiters are woken in FIFO order.
func (l *Limiter) Acquire(ctx context.Context, rawURL string, tokens int) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(err, "parsing rate limit url")
	}
	b := l.bucket(strings.ToLower(u.Hostname()))
	if b == nil {
		return nil
	}
	if err := b.WaitN(ctx, tokens); err != nil {
		if ctx.Err() != nil {
			return ErrAcquireTimeout
		}
		return err
	}
	return nil
}

// Status reports the bucket state for a host.
func (l *Limiter) Status(host string) Status {
	host = strings.ToLower(host)
	l.mu.Lock()
	cfg, ok := l.configs[host]
	l.mu.Unlock()
	if !ok {
		return Status{}
	}
	b := l.bucket(host)
	return Status{
		Configured: true,
		Capacity:   cfg.Capacity,
		RefillRate: cfg.RefillRate,
		Tokens:     b.TokensAt(time.Now()),
	}
}
