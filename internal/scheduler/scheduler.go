// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

// Package scheduler runs the periodic sync jobs. Each job is coalesced: a
// tick that fires while the previous run is still going is skipped, so slow
// sweeps never pile up.
package scheduler

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Scheduler wraps a cron runner with interval and cron-expression triggers.
type Scheduler struct {
	cron *cron.Cron
}

// New builds an idle scheduler; Start begins dispatch.
func New() *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(logger),
			cron.Recover(logger),
		)),
	}
}

// AddInterval schedules fn every d, first firing one interval from Start.
func (s *Scheduler) AddInterval(name string, d time.Duration, fn func()) error {
	return s.add(name, fmt.Sprintf("@every %ds", int(d.Seconds())), fn)
}

// AddCron schedules fn on a standard 5-field cron expression.
func (s *Scheduler) AddCron(name string, spec string, fn func()) error {
	return s.add(name, spec, fn)
}

func (s *Scheduler) add(name, spec string, fn func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		log.WithField("job", name).Info("job started")
		fn()
		log.WithFields(log.Fields{"job": name, "elapsed": time.Since(start)}).Info("job finished")
	})
	return errors.Wrapf(err, "scheduling %s", name)
}

// Start begins dispatching jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts dispatch and waits up to grace for running jobs to finish.
func (s *Scheduler) Stop(grace time.Duration) {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(grace):
		log.Warn("jobs still running at shutdown deadline, abandoning")
	}
}

// cronLogger adapts the process logger to the cron runner's interface.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	log.WithField("detail", kv).Debug(msg)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	log.WithError(err).WithField("detail", kv).Error(msg)
}
