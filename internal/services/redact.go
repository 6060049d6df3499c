/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/stats"
)

var (
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+`)
	phoneRe    = regexp.MustCompile(`\b\+?\d[\d\-\s]{7,}\b`)
	urlRe      = regexp.MustCompile(`https?://[^\s]+`)
	tokenRe    = regexp.MustCompile(`(?i)\b(?:token|secret|password|apikey|api_key|bearer)[:=\s]+[A-Za-z0-9\-\._~+/]{8,}\b`)
	jiraUserRe = regexp.MustCompile(`\bJIRAUSER\d+\b`)
)

func scrub(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = emailRe.ReplaceAllString(s, "<email>")
	s = phoneRe.ReplaceAllString(s, "<phone>")
	s = urlRe.ReplaceAllString(s, "<url>")
	s = tokenRe.ReplaceAllString(s, "<secret>")
	s = jiraUserRe.ReplaceAllString(s, "<user>")
	return s
}

// aliases maps people to stable placeholders (user01, user02, ...) so names
// never leave the process; reveal maps them back in the model's reply.
type aliases struct {
	byName  map[string]string
	byAlias map[string]string
}

func newAliases(names []string) aliases {
	a := aliases{byName: map[string]string{}, byAlias: map[string]string{}}
	for _, n := range names {
		a.of(n)
	}
	return a
}

func (a aliases) of(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if v, ok := a.byName[name]; ok {
		return v
	}
	v := fmt.Sprintf("user%02d", len(a.byName)+1)
	a.byName[name] = v
	a.byAlias[v] = name
	return v
}

// hide replaces every known name inside free text.
func (a aliases) hide(s string) string {
	names := make([]string, 0, len(a.byName))
	for n := range a.byName {
		names = append(names, n)
	}
	// longest first so "Joe Boyer Jr" wins over "Joe Boyer"
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	for _, n := range names {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(n) + `\b`)
		s = re.ReplaceAllString(s, a.byName[n])
	}
	return s
}

var aliasRe = regexp.MustCompile(`\buser\d{2,}\b`)

func (a aliases) reveal(s string) string {
	return aliasRe.ReplaceAllStringFunc(s, func(m string) string {
		if n, ok := a.byAlias[m]; ok {
			return n
		}
		return m
	})
}

type narrativeMember struct {
	ID            string `json:"id"`
	Created       int    `json:"created"`
	SelfAssigned  int    `json:"self_assigned"`
	CrossAssigned int    `json:"cross_assigned"`
	CrossActioned int    `json:"cross_actioned"`
	Overdue       int    `json:"overdue"`
	DueSoon       int    `json:"due_soon"`
	Flagged       bool   `json:"flagged"`
}

type narrativeTicket struct {
	Key         string `json:"key"`
	Summary     string `json:"summary"`
	Assignee    string `json:"assignee"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DaysPastDue int    `json:"days_past_due"`
}

// narrativePayload builds the redacted model input for a run.
func narrativePayload(rows []stats.MemberRow, stale []stats.StaleTicket, al aliases) map[string]any {
	members := make([]narrativeMember, 0, len(rows))
	for _, r := range rows {
		members = append(members, narrativeMember{
			ID: al.of(r.Name), Created: r.Created, SelfAssigned: r.SelfAssigned, CrossAssigned: r.CrossAssigned,
			CrossActioned: r.CrossActioned, Overdue: r.Overdue, DueSoon: r.DueSoon, Flagged: r.Highlight,
		})
	}
	tickets := make([]narrativeTicket, 0, len(stale))
	for _, t := range stale {
		tickets = append(tickets, narrativeTicket{
			Key: t.Key, Summary: al.hide(scrub(t.Summary)), Assignee: al.of(t.Assignee),
			Status: t.Status, Priority: t.Priority, DaysPastDue: t.DaysPastDue,
		})
	}
	return map[string]any{"window_days": 7, "members": members, "stale_tickets": tickets}
}
