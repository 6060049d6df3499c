/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
	"time"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/domain"
)

type searchResponse struct {
	Issues *[]issueJSON `json:"issues"`
}

type named struct {
	Name string `json:"name"`
}

type userJSON struct {
	DisplayName string `json:"displayName"`
}

type issueJSON struct {
	Key    string `json:"key"`
	Fields struct {
		Summary        string    `json:"summary"`
		Creator        *userJSON `json:"creator"`
		Assignee       *userJSON `json:"assignee"`
		Status         *named    `json:"status"`
		Priority       *named    `json:"priority"`
		Resolution     *named    `json:"resolution"`
		Created        string    `json:"created"`
		Updated        string    `json:"updated"`
		ResolutionDate string    `json:"resolutiondate"`
		DueDate        string    `json:"duedate"`
	} `json:"fields"`
}

func (r issueJSON) toDomain() domain.Issue {
	f := r.Fields
	is := domain.Issue{
		Key:        r.Key,
		Summary:    f.Summary,
		Creator:    domain.UnknownCreator,
		Assignee:   domain.Unassigned,
		Priority:   domain.NoPriority,
		CreatedAt:  derefTime(parseTimeUTC(f.Created)),
		UpdatedAt:  derefTime(parseTimeUTC(f.Updated)),
		ResolvedAt: parseTimeUTC(f.ResolutionDate),
		DueDate:    parseTimeUTC(f.DueDate),
	}
	if f.Creator != nil && f.Creator.DisplayName != "" {
		is.Creator = f.Creator.DisplayName
	}
	if f.Assignee != nil && f.Assignee.DisplayName != "" {
		is.Assignee = f.Assignee.DisplayName
	}
	if f.Status != nil {
		is.Status = f.Status.Name
	}
	if f.Priority != nil && f.Priority.Name != "" {
		is.Priority = f.Priority.Name
	}
	if f.Resolution != nil {
		is.Resolution = f.Resolution.Name
	}
	return is
}

// parseTimeUTC accepts Jira timestamps and bare due dates (midnight UTC).
func parseTimeUTC(s string) *time.Time {
	if s == "" {
		return nil
	}
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000-0700", "2006-01-02T15:04:05-0700", time.DateOnly}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			tt := t.UTC()
			return &tt
		}
	}
	return nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
