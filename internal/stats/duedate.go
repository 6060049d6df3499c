/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package stats

import (
	"time"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/domain"
)

// DueDates is the result of AnalyzeDueDates.
type DueDates struct {
	Overdue Bucket
	DueSoon Bucket
}

// AnalyzeDueDates buckets open issues by the assignee's due date.
// An issue lands in at most one bucket.
func AnalyzeDueDates(issues []domain.Issue, roster domain.Roster, now time.Time, th Thresholds) DueDates {
	d := DueDates{Overdue: newBucket(roster), DueSoon: newBucket(roster)}
	horizon := now.Add(th.DueSoon)
	for _, is := range issues {
		if is.DueDate == nil || !roster.Contains(is.Assignee) {
			continue
		}
		switch due := *is.DueDate; {
		case !due.After(now):
			d.Overdue.add(is.Assignee, is)
		case !due.After(horizon):
			d.DueSoon.add(is.Assignee, is)
		}
	}
	return d
}
