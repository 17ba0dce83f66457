// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package jobs

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/mcmod-info-mirror/mcim-sync/internal/config"
	"github.com/mcmod-info-mirror/mcim-sync/internal/scheduler"
)

// Register schedules every enabled job. Each job fires on its configured
// interval, or on its cron expression when useCron is set and one exists.
// Jobs run under ctx so shutdown cancels in-flight sweeps.
func (e *Engine) Register(ctx context.Context, s *scheduler.Scheduler) error {
	table := []struct {
		name string
		run  func(context.Context) error
	}{
		{config.JobCurseforgeRefresh, e.CurseforgeRefresh},
		{config.JobCurseforgeRefreshFull, e.CurseforgeRefreshFull},
		{config.JobModrinthRefresh, e.ModrinthRefresh},
		{config.JobModrinthRefreshFull, e.ModrinthRefreshFull},
		{config.JobSyncCurseforgeByQueue, e.SyncCurseforgeByQueue},
		{config.JobSyncCurseforgeBySearch, e.SyncCurseforgeBySearch},
		{config.JobSyncModrinthByQueue, e.SyncModrinthByQueue},
		{config.JobSyncModrinthBySearch, e.SyncModrinthBySearch},
		{config.JobCurseforgeCategories, e.CurseforgeCategories},
		{config.JobModrinthTags, e.ModrinthTags},
		{config.JobGlobalStatistics, e.GlobalStatistics},
	}
	for _, entry := range table {
		if !e.Config.JobEnabled(entry.name) {
			log.WithField("job", entry.name).Info("job disabled")
			continue
		}
		run := entry.run
		name := entry.name
		fn := func() {
			if err := run(ctx); err != nil {
				log.WithError(err).WithField("job", name).Error("job failed")
			}
		}
		var err error
		if spec, ok := e.Config.CronTrigger[name]; ok && e.Config.UseCron {
			err = s.AddCron(name, spec, fn)
		} else {
			err = s.AddInterval(name, e.Config.JobInterval(name), fn)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
