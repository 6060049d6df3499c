/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package stats

import (
	"time"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/domain"
)

var (
	closedStatuses  = map[string]bool{"Closed": true, "Completed": true}
	doneResolutions = map[string]bool{"Done": true, "Fixed": true, "P&D Done": true}
)

// Activity is the result of Aggregate.
type Activity struct {
	Created       Bucket
	SelfAssigned  Bucket
	CrossAssigned Bucket
	CrossActioned Bucket
}

// Aggregate classifies issues from the activity query.
//
// Self/cross assignment is only evaluated for issues created inside the
// window. Cross-actioned is evaluated for every issue whose creator and
// assignee are different tracked members, and counts at most once per issue.
func Aggregate(issues []domain.Issue, roster domain.Roster, now time.Time, th Thresholds) Activity {
	a := Activity{
		Created:       newBucket(roster),
		SelfAssigned:  newBucket(roster),
		CrossAssigned: newBucket(roster),
		CrossActioned: newBucket(roster),
	}
	since := now.Add(-th.Window)

	for _, is := range issues {
		if !is.CreatedAt.Before(since) {
			if roster.Contains(is.Creator) {
				a.Created.add(is.Creator, is)
			}
			if roster.Contains(is.Assignee) {
				if is.Creator == is.Assignee {
					a.SelfAssigned.add(is.Assignee, is)
				} else {
					a.CrossAssigned.add(is.Assignee, is)
				}
			}
		}

		if is.Creator == is.Assignee || !roster.Contains(is.Creator) || !roster.Contains(is.Assignee) {
			continue
		}
		if closedInWindow(is, since) || !is.UpdatedAt.Before(since) {
			a.CrossActioned.add(is.Assignee, is)
		}
	}
	return a
}

func closedInWindow(is domain.Issue, since time.Time) bool {
	if is.ResolvedAt == nil || is.ResolvedAt.Before(since) {
		return false
	}
	return closedStatuses[is.Status] && doneResolutions[is.Resolution]
}
