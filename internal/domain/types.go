/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package domain

import (
	"sort"
	"strings"
	"time"
)

// Placeholders used when Jira leaves a people or priority field empty.
const (
	UnknownCreator = "Unknown"
	Unassigned     = "Unassigned"
	NoPriority     = "None"
)

// Issue is a read-only snapshot of a Jira issue as returned by search.
type Issue struct {
	Key        string
	Summary    string
	Creator    string
	Assignee   string
	Status     string
	Priority   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedAt *time.Time
	Resolution string
	DueDate    *time.Time
}

// Roster is the fixed set of tracked team members.
type Roster struct {
	names []string
	set   map[string]struct{}
}

func NewRoster(names []string) Roster {
	r := Roster{set: map[string]struct{}{}}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := r.set[n]; dup {
			continue
		}
		r.set[n] = struct{}{}
		r.names = append(r.names, n)
	}
	sort.Strings(r.names)
	return r
}

func (r Roster) Contains(name string) bool {
	_, ok := r.set[name]
	return ok
}

// Names returns the members sorted by name. The slice is a copy.
func (r Roster) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r Roster) Len() int { return len(r.names) }

// RunRecord describes one report run for the history endpoint.
type RunRecord struct {
	ID                 string     `json:"id"`
	StartedAt          time.Time  `json:"started_at"`
	FinishedAt         *time.Time `json:"finished_at,omitempty"`
	Trigger            string     `json:"trigger"`
	ActivityIssues     int        `json:"activity_issues"`
	DueDateIssues      int        `json:"due_date_issues"`
	OverdueIssues      int        `json:"overdue_issues"`
	HighlightedMembers int        `json:"highlighted_members"`
	StaleTickets       int        `json:"stale_tickets"`
	Success            bool       `json:"success"`
	Error              string     `json:"error,omitempty"`
}
