/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jobs

import (
	"context"
	"testing"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/config"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/domain"
	"github.com/rs/zerolog"
)

type countingService struct{ runs []string }

func (s *countingService) RunReport(_ context.Context, trigger string) (domain.RunRecord, error) {
	s.runs = append(s.runs, trigger)
	return domain.RunRecord{}, nil
}

type stubLock struct {
	free     bool
	unlocked int
}

func (l *stubLock) TryLock(context.Context) (bool, error) { return l.free, nil }
func (l *stubLock) Unlock(context.Context) error {
	l.unlocked++
	return nil
}

func TestNewCron_RejectsBadSchedule(t *testing.T) {
	cfg := config.Config{TZ: "UTC", ReportCron: "every tuesday"}
	if _, err := NewCron(cfg, zerolog.Nop(), &countingService{}, nil); err == nil {
		t.Fatalf("expected error for bad cron schedule")
	}
}

func TestScheduled_RespectsLock(t *testing.T) {
	cfg := config.Config{TZ: "UTC", ReportCron: "0 9 * * MON-FRI"}
	svc := &countingService{}
	lock := &stubLock{}
	cr, err := NewCron(cfg, zerolog.Nop(), svc, lock)
	if err != nil {
		t.Fatalf("new cron: %v", err)
	}
	cr.scheduled()
	if len(svc.runs) != 0 {
		t.Fatalf("held lock must skip the run")
	}
	lock.free = true
	cr.scheduled()
	if len(svc.runs) != 1 || svc.runs[0] != "cron" || lock.unlocked != 1 {
		t.Fatalf("unexpected runs=%v unlocked=%d", svc.runs, lock.unlocked)
	}
}
