/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package stats

import (
	"math"
	"strings"
	"time"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/domain"
)

// StaleTicket is an overdue issue assigned to a tracked member.
type StaleTicket struct {
	domain.Issue
	DaysPastDue int
	URL         string
}

// SelectStale keeps overdue issues assigned to roster members, in source order.
func SelectStale(issues []domain.Issue, roster domain.Roster, now time.Time, baseURL string) []StaleTicket {
	out := []StaleTicket{}
	for _, is := range issues {
		if !roster.Contains(is.Assignee) {
			continue
		}
		out = append(out, StaleTicket{Issue: is, DaysPastDue: DaysPastDue(is, now), URL: BrowseURL(baseURL, is.Key)})
	}
	return out
}

// DaysPastDue is the number of whole days since the due date, 0 without one.
func DaysPastDue(is domain.Issue, now time.Time) int {
	if is.DueDate == nil {
		return 0
	}
	return int(math.Floor(float64(now.Sub(*is.DueDate)) / float64(day)))
}

// SkipReason explains why SelectStale drops an issue, or "" if it keeps it.
func SkipReason(is domain.Issue, roster domain.Roster) string {
	switch {
	case is.Assignee == "" || is.Assignee == domain.Unassigned:
		return "unassigned"
	case !roster.Contains(is.Assignee):
		return "assignee not in team"
	}
	return ""
}

func BrowseURL(baseURL, key string) string {
	return strings.TrimRight(baseURL, "/") + "/browse/" + key
}
