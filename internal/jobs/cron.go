/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/config"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/domain"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type service interface {
	RunReport(ctx context.Context, trigger string) (domain.RunRecord, error)
}

// Locker keeps replicas from running the scheduled report at the same time.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

type Cron struct {
	cfg  config.Config
	log  zerolog.Logger
	svc  service
	lock Locker
	c    *cron.Cron
}

// NewCron schedules the report on cfg.ReportCron. lock may be nil when only
// one instance runs.
func NewCron(cfg config.Config, log zerolog.Logger, svc service, lock Locker) (*Cron, error) {
	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
	cr := &Cron{cfg: cfg, log: log, svc: svc, lock: lock, c: c}
	if _, err := c.AddFunc(cfg.ReportCron, cr.scheduled); err != nil {
		return nil, fmt.Errorf("bad REPORT_CRON %q: %w", cfg.ReportCron, err)
	}
	return cr, nil
}

func (cr *Cron) Start() {
	cr.log.Info().Str("spec", cr.cfg.ReportCron).Str("tz", cr.cfg.TZ).Msg("cron: started")
	cr.c.Start()
}

// Stop waits for a running job to finish.
func (cr *Cron) Stop() { <-cr.c.Stop().Done() }

func (cr *Cron) scheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if cr.lock != nil {
		ok, err := cr.lock.TryLock(ctx)
		if err != nil {
			cr.log.Error().Err(err).Msg("cron: lock error")
			return
		}
		if !ok {
			cr.log.Info().Msg("cron: already running elsewhere")
			return
		}
		defer func() { _ = cr.lock.Unlock(context.Background()) }()
	}
	cr.log.Info().Msg("cron: scheduled report")
	if _, err := cr.svc.RunReport(ctx, "cron"); err != nil && !errors.Is(err, context.Canceled) {
		cr.log.Error().Err(err).Msg("cron: report failed")
	}
}
