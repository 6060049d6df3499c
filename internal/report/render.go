/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/config"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/domain"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/stats"
)

const dateLayout = "2006-01-02"

var (
	activityHeader = []any{"Team Member", "Tickets Created", "Self-Assigned", "Cross-Assigned", "Cross-Actioned", "Cross-Overdue", "Cross-Due Soon", "Total Activity"}
	staleHeader    = []any{"Ticket Key", "Summary", "Creator", "Assignee", "Status", "Priority", "Created", "Due Date", "Last Updated", "Days Past Due"}
)

// Layout carries the sheet names, colours and thresholds of a report.
type Layout struct {
	Sheets     config.Sheets
	Colors     config.Colors
	Thresholds stats.Thresholds
}

// WriteActivity rebuilds the team activity sheet and saves the workbook.
func (w *Workbook) WriteActivity(rows []stats.MemberRow, a stats.Activity, d stats.DueDates, l Layout) error {
	s, err := w.resetSheet(l.Sheets.Activity)
	if err != nil {
		return err
	}
	intro := [][]any{
		{"📊 JIRA Team Activity Dashboard - Last 7 Days"},
		{""},
		{"📝 Field Descriptions:"},
		{"• Tickets Created: All tickets created by team member (last week)"},
		{"• Self-Assigned: Tickets assigned to user, created by themselves"},
		{"• Cross-Assigned: Tickets assigned to user, created by others"},
		{"• Cross-Actioned: Cross-assigned tickets closed/updated by this user"},
		{"• Cross-Overdue: All overdue tickets assigned to this user"},
		{"• Cross-Due Soon: All tickets assigned to this user due within 7 days"},
		{"• Total Activity: Created + Cross-Actioned"},
		{""},
		{"🎨 Highlighting Rules (Yellow Background):"},
		{"• Cross-Actioned = 0 AND Cross-Overdue > 0 AND Tickets Created = 0"},
		{"• (No action on cross-assigned tickets, has overdue work, not creating new tickets)"},
		{""},
	}
	for _, r := range intro {
		if _, err := s.appendRow(r...); err != nil {
			return err
		}
	}
	header, err := s.appendRow(activityHeader...)
	if err != nil {
		return err
	}
	bold, err := w.style(true, false, "", "")
	if err != nil {
		return err
	}
	if err := s.styleRange(header, 1, 1, len(activityHeader), bold); err != nil {
		return err
	}

	for _, r := range rows {
		n, err := s.appendRow(r.Name, r.Created, r.SelfAssigned, r.CrossAssigned, r.CrossActioned, r.Overdue, r.DueSoon, r.Total())
		if err != nil {
			return err
		}
		notes := []struct {
			col      int
			issues   []domain.Issue
			category string
		}{
			{2, a.Created.Details[r.Name], "Tickets Created"},
			{3, a.SelfAssigned.Details[r.Name], "Self-Assigned"},
			{4, a.CrossAssigned.Details[r.Name], "Cross-Assigned"},
			{5, a.CrossActioned.Details[r.Name], "Cross-Actioned"},
			{6, d.Overdue.Details[r.Name], "Cross-Overdue"},
			{7, d.DueSoon.Details[r.Name], "Cross-Due Soon"},
		}
		for _, nt := range notes {
			if err := s.note(n, nt.col, NoteText(nt.category, nt.issues)); err != nil {
				return err
			}
		}

		bg, fg := l.Colors.NormalBackground, l.Colors.NormalFont
		if r.Highlight {
			bg, fg = l.Colors.HighlightBackground, l.Colors.HighlightFont
		}
		name, err := w.style(false, false, bg, fg)
		if err != nil {
			return err
		}
		nums, err := w.style(false, true, bg, fg)
		if err != nil {
			return err
		}
		if err := s.styleRange(n, 1, 1, 1, name); err != nil {
			return err
		}
		if err := s.styleRange(n, 2, 1, len(activityHeader)-1, nums); err != nil {
			return err
		}
	}
	return w.Save()
}

// WriteStale rebuilds the stale ticket sheet and saves the workbook.
func (w *Workbook) WriteStale(tickets []stats.StaleTicket, l Layout) error {
	s, err := w.resetSheet(l.Sheets.Stale)
	if err != nil {
		return err
	}
	intro := [][]any{
		{"🚨 Team Members - Tickets Past Due Date"},
		{fmt.Sprintf("🎨 Tickets highlighted in yellow are overdue more than %d days", l.Thresholds.StaleHighlightDays)},
		{""},
	}
	for _, r := range intro {
		if _, err := s.appendRow(r...); err != nil {
			return err
		}
	}
	header, err := s.appendRow(staleHeader...)
	if err != nil {
		return err
	}
	bold, err := w.style(true, false, "", "")
	if err != nil {
		return err
	}
	if err := s.styleRange(header, 1, 1, len(staleHeader), bold); err != nil {
		return err
	}
	hl, err := w.style(false, false, l.Colors.StaleBackground, l.Colors.HighlightFont)
	if err != nil {
		return err
	}
	hlNum, err := w.style(false, true, l.Colors.StaleBackground, l.Colors.HighlightFont)
	if err != nil {
		return err
	}
	num, err := w.style(false, true, "", "")
	if err != nil {
		return err
	}
	hlLink, err := w.linkStyle(l.Colors.StaleBackground)
	if err != nil {
		return err
	}
	plainLink, err := w.linkStyle("")
	if err != nil {
		return err
	}

	for _, t := range tickets {
		n, err := s.appendRow(t.Key, t.Summary, t.Creator, t.Assignee, t.Status, t.Priority,
			formatDate(&t.CreatedAt), dueText(t.DueDate), formatDate(&t.UpdatedAt), t.DaysPastDue)
		if err != nil {
			return err
		}
		if err := s.link(n, 1, t.URL); err != nil {
			return err
		}
		link := plainLink
		if stats.HighlightStale(t, l.Thresholds) {
			link = hlLink
			if err := s.styleRange(n, 2, 1, len(staleHeader)-2, hl); err != nil {
				return err
			}
			if err := s.styleRange(n, len(staleHeader), 1, 1, hlNum); err != nil {
				return err
			}
		} else if err := s.styleRange(n, len(staleHeader), 1, 1, num); err != nil {
			return err
		}
		if err := s.styleRange(n, 1, 1, 1, link); err != nil {
			return err
		}
	}
	if err := s.autoResize(len(staleHeader)); err != nil {
		return err
	}
	return w.Save()
}

// WriteNarrative puts free text, one paragraph per row, on its own sheet.
// Empty text leaves only the title so an earlier narrative never outlives
// its run; the sheet is not created for empty text.
func (w *Workbook) WriteNarrative(text string, l Layout) error {
	text = strings.TrimSpace(text)
	if text == "" && !w.hasSheet(l.Sheets.Narrative) {
		return nil
	}
	s, err := w.resetSheet(l.Sheets.Narrative)
	if err != nil {
		return err
	}
	if _, err := s.appendRow("🧭 Weekly Narrative"); err != nil {
		return err
	}
	if text == "" {
		return w.Save()
	}
	for _, p := range strings.Split(text, "\n") {
		if _, err := s.appendRow(p); err != nil {
			return err
		}
	}
	return w.Save()
}

// NoteText formats the cell note listing the issues behind a count.
func NoteText(category string, issues []domain.Issue) string {
	if len(issues) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):\n\n", category, len(issues))
	for i, is := range issues {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "🎫 %s - %s [%s] (%s→%s) %s", is.Key, is.Summary, is.Status, is.Creator, is.Assignee, is.Priority)
		if is.DueDate != nil {
			fmt.Fprintf(&b, " [Due: %s]", formatDate(is.DueDate))
		}
	}
	return b.String()
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func dueText(due *time.Time) string {
	if due == nil {
		return "No Due Date"
	}
	return formatDate(due)
}
