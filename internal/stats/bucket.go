/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package stats classifies Jira issues into per-member activity and due-date
// buckets. Every function here is pure: results depend only on the issues,
// the roster, the reference time and the thresholds passed in.
package stats

import (
	"time"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/domain"
)

const day = 24 * time.Hour

// Thresholds holds the fixed windows and the stale highlight cutoff.
type Thresholds struct {
	Window             time.Duration
	DueSoon            time.Duration
	StaleHighlightDays int
}

func DefaultThresholds() Thresholds {
	return Thresholds{Window: 7 * day, DueSoon: 7 * day, StaleHighlightDays: 30}
}

// Bucket is one category: a count and the matching issues per member.
// Every roster member has a key in both maps.
type Bucket struct {
	Counts  map[string]int
	Details map[string][]domain.Issue
}

func newBucket(r domain.Roster) Bucket {
	b := Bucket{Counts: map[string]int{}, Details: map[string][]domain.Issue{}}
	for _, n := range r.Names() {
		b.Counts[n] = 0
		b.Details[n] = []domain.Issue{}
	}
	return b
}

func (b Bucket) add(person string, is domain.Issue) {
	b.Counts[person]++
	b.Details[person] = append(b.Details[person], is)
}

// Total sums the counts of all members.
func (b Bucket) Total() int {
	n := 0
	for _, c := range b.Counts {
		n += c
	}
	return n
}
