/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package stats

import "github.com/kpushkin-ias/jira-stats-for-slack/internal/domain"

// HighlightMember flags a member with overdue work who neither created
// tickets nor actioned cross-assigned ones.
func HighlightMember(created, crossActioned, overdue int) bool {
	return crossActioned == 0 && overdue > 0 && created == 0
}

func HighlightStale(t StaleTicket, th Thresholds) bool {
	return t.DaysPastDue > th.StaleHighlightDays
}

// MemberRow is one line of the team activity table.
type MemberRow struct {
	Name          string
	Created       int
	SelfAssigned  int
	CrossAssigned int
	CrossActioned int
	Overdue       int
	DueSoon       int
	Highlight     bool
}

// Total is created plus cross-actioned tickets.
func (r MemberRow) Total() int { return r.Created + r.CrossActioned }

// MemberRows builds one row per roster member in roster (sorted) order.
func MemberRows(a Activity, d DueDates, roster domain.Roster) []MemberRow {
	names := roster.Names()
	rows := make([]MemberRow, 0, len(names))
	for _, n := range names {
		r := MemberRow{
			Name:          n,
			Created:       a.Created.Counts[n],
			SelfAssigned:  a.SelfAssigned.Counts[n],
			CrossAssigned: a.CrossAssigned.Counts[n],
			CrossActioned: a.CrossActioned.Counts[n],
			Overdue:       d.Overdue.Counts[n],
			DueSoon:       d.DueSoon.Counts[n],
		}
		r.Highlight = HighlightMember(r.Created, r.CrossActioned, r.Overdue)
		rows = append(rows, r)
	}
	return rows
}
