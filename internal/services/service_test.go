/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/config"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/domain"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/stats"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

var now = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

type fakeJira struct {
	byJQL map[string][]domain.Issue
	fail  map[string]error
	calls []string
}

func (f *fakeJira) Search(_ context.Context, jql string) ([]domain.Issue, error) {
	f.calls = append(f.calls, jql)
	if err := f.fail[jql]; err != nil {
		return nil, err
	}
	return f.byJQL[jql], nil
}

type fakeTG struct{ sent map[int64][]string }

func (f *fakeTG) Enabled() bool { return true }
func (f *fakeTG) SendMessagePlain(_ context.Context, chatID int64, text string) error {
	if f.sent == nil {
		f.sent = map[int64][]string{}
	}
	f.sent[chatID] = append(f.sent[chatID], text)
	return nil
}

type fakeLLM struct{ payload string }

func (f *fakeLLM) Enabled() bool { return true }
func (f *fakeLLM) Narrate(_ context.Context, payload any) (string, error) {
	b, _ := json.Marshal(payload)
	f.payload = string(b)
	return "user02 has overdue work.", nil
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		JiraBaseURL:     "https://acme.atlassian.net",
		ReportOutput:    filepath.Join(t.TempDir(), "stats.xlsx"),
		TelegramChatIDs: []int64{7},
		Roster: config.Roster{
			Projects:           []string{"SYS"},
			TeamMembers:        []string{"Yuri", "Xena"},
			StaleHighlightDays: 30,
			Sheets:             config.Sheets{Activity: "OpsTickets", Stale: "StaleTickets", Narrative: "Narrative"},
			Colors:             config.Colors{HighlightBackground: "#FFFF00", HighlightFont: "#000000", NormalBackground: "#FFFFFF", NormalFont: "#000000", StaleBackground: "#FFFF00"},
		},
	}
}

func fixtureJira(cfg config.Config) *fakeJira {
	q := stats.Queries(cfg.Roster.Projects)
	due := now.Add(-40 * 24 * time.Hour)
	return &fakeJira{
		byJQL: map[string][]domain.Issue{
			q.Activity: {
				{Key: "SYS-1", Summary: "Rotate certs", Creator: "Xena", Assignee: "Xena", Status: "Open", Priority: "High", CreatedAt: now.Add(-time.Hour), UpdatedAt: now},
			},
			q.OpenWithDue: {
				{Key: "SYS-2", Summary: "Patch kernel", Creator: "Xena", Assignee: "Yuri", Status: "Open", Priority: "None", CreatedAt: now.Add(-60 * 24 * time.Hour), UpdatedAt: now, DueDate: &due},
			},
			q.Overdue: {
				{Key: "SYS-2", Summary: "Patch kernel", Creator: "Xena", Assignee: "Yuri", Status: "Open", Priority: "None", CreatedAt: now.Add(-60 * 24 * time.Hour), UpdatedAt: now, DueDate: &due},
				{Key: "SYS-3", Summary: "Orphan", Creator: "Xena", Assignee: domain.Unassigned, Status: "Open", CreatedAt: now, UpdatedAt: now, DueDate: &due},
			},
		},
		fail: map[string]error{},
	}
}

func TestRunReport_WritesWorkbookAndRecordsRun(t *testing.T) {
	cfg := testConfig(t)
	jira := fixtureJira(cfg)
	tg := &fakeTG{}
	llm := &fakeLLM{}
	svc := New(cfg, zerolog.Nop(), nil, jira, llm, tg).WithClock(func() time.Time { return now })

	rec, err := svc.RunReport(context.Background(), "test")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !rec.Success || rec.ID == "" || rec.FinishedAt == nil {
		t.Fatalf("unexpected record %#v", rec)
	}
	if rec.ActivityIssues != 1 || rec.DueDateIssues != 1 || rec.OverdueIssues != 2 || rec.StaleTickets != 1 || rec.HighlightedMembers != 1 {
		t.Fatalf("unexpected counts %#v", rec)
	}
	if len(jira.calls) != 3 {
		t.Fatalf("expected 3 queries, got %d", len(jira.calls))
	}

	f, err := excelize.OpenFile(cfg.ReportOutput)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("OpsTickets")
	if err != nil {
		t.Fatalf("activity rows: %v", err)
	}
	if len(rows) != 18 || rows[16][0] != "Xena" || rows[17][0] != "Yuri" {
		t.Fatalf("unexpected activity sheet %#v", rows)
	}
	stale, err := f.GetRows("StaleTickets")
	if err != nil {
		t.Fatalf("stale rows: %v", err)
	}
	if len(stale) != 5 || stale[4][0] != "SYS-2" || stale[4][9] != "40" {
		t.Fatalf("unexpected stale sheet %#v", stale)
	}
	narr, err := f.GetRows("Narrative")
	if err != nil || len(narr) < 2 || narr[1][0] != "Yuri has overdue work." {
		t.Fatalf("unexpected narrative %#v (%v)", narr, err)
	}
	if strings.Contains(llm.payload, "Yuri") || strings.Contains(llm.payload, "Xena") {
		t.Fatalf("names sent to the model: %s", llm.payload)
	}

	msgs := tg.sent[7]
	if len(msgs) != 1 || !strings.Contains(msgs[0], "Needs attention: Yuri") || !strings.Contains(msgs[0], "Stale tickets: 1 (1 over 30 days)") {
		t.Fatalf("unexpected notification %#v", tg.sent)
	}

	last, err := svc.LastRun(context.Background())
	if err != nil || last == nil || last.ID != rec.ID || !last.Success {
		t.Fatalf("last run not recorded: %#v %v", last, err)
	}
}

func TestRunReport_FailedQueryKeepsEarlierSections(t *testing.T) {
	cfg := testConfig(t)
	jira := fixtureJira(cfg)
	boom := errors.New("401 unauthorized")
	jira.fail[stats.Queries(cfg.Roster.Projects).Overdue] = boom
	tg := &fakeTG{}
	svc := New(cfg, zerolog.Nop(), nil, jira, nil, tg).WithClock(func() time.Time { return now })

	rec, err := svc.RunReport(context.Background(), "test")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped query error, got %v", err)
	}
	if rec.Success || rec.Error == "" {
		t.Fatalf("failure not recorded: %#v", rec)
	}
	if len(tg.sent) != 0 {
		t.Fatalf("failed runs must not notify: %#v", tg.sent)
	}

	f, err := excelize.OpenFile(cfg.ReportOutput)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	if idx, _ := f.GetSheetIndex("OpsTickets"); idx < 0 {
		t.Fatalf("activity sheet should have been saved")
	}
	if idx, _ := f.GetSheetIndex("StaleTickets"); idx >= 0 {
		t.Fatalf("stale sheet must not be written after a failed query")
	}
	last, _ := svc.LastRun(context.Background())
	if last == nil || last.Success {
		t.Fatalf("last run should be the failure: %#v", last)
	}
}

func TestRunReport_FirstQueryFailureWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	jira := fixtureJira(cfg)
	jira.fail[stats.Queries(cfg.Roster.Projects).Activity] = errors.New("no issues")
	svc := New(cfg, zerolog.Nop(), nil, jira, nil, nil).WithClock(func() time.Time { return now })

	if _, err := svc.RunReport(context.Background(), "test"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := excelize.OpenFile(cfg.ReportOutput); err == nil {
		t.Fatalf("workbook must not exist after first query failed")
	}
}

func TestRunReport_RejectsConcurrentRun(t *testing.T) {
	cfg := testConfig(t)
	svc := New(cfg, zerolog.Nop(), nil, fixtureJira(cfg), nil, nil)
	svc.running.Store(true)
	if _, err := svc.RunReport(context.Background(), "test"); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	if !svc.Running() {
		t.Fatalf("rejected run must not clear the flag")
	}
}

func TestRunOnDemand_RepliesToRequestingChat(t *testing.T) {
	cfg := testConfig(t)
	tg := &fakeTG{}
	svc := New(cfg, zerolog.Nop(), nil, fixtureJira(cfg), nil, tg).WithClock(func() time.Time { return now })
	if err := svc.RunOnDemand(context.Background(), 99); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(tg.sent[99]) != 1 || len(tg.sent[7]) != 0 {
		t.Fatalf("reply should go to the requesting chat only: %#v", tg.sent)
	}
}

func TestTestJiraFetch(t *testing.T) {
	cfg := testConfig(t)
	jira := &fakeJira{byJQL: map[string][]domain.Issue{
		stats.ConnectionCheck(cfg.Roster.Projects): {{Key: "SYS-1"}, {Key: "SYS-2"}},
	}}
	svc := New(cfg, zerolog.Nop(), nil, jira, nil, nil)
	n, err := svc.TestJiraFetch(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("unexpected check result %d %v", n, err)
	}
}

type failingLLM struct{}

func (failingLLM) Enabled() bool { return true }
func (failingLLM) Narrate(context.Context, any) (string, error) {
	return "", errors.New("model unavailable")
}

func TestRunReport_NarrativeDoesNotOutliveItsRun(t *testing.T) {
	cfg := testConfig(t)
	clock := func() time.Time { return now }
	first := New(cfg, zerolog.Nop(), nil, fixtureJira(cfg), &fakeLLM{}, nil).WithClock(clock)
	if _, err := first.RunReport(context.Background(), "test"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	second := New(cfg, zerolog.Nop(), nil, fixtureJira(cfg), failingLLM{}, nil).WithClock(clock)
	if _, err := second.RunReport(context.Background(), "test"); err != nil {
		t.Fatalf("second run: %v", err)
	}

	f, err := excelize.OpenFile(cfg.ReportOutput)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	if list := f.GetSheetList(); len(list) != 3 || list[0] != "OpsTickets" || list[1] != "StaleTickets" {
		t.Fatalf("unexpected sheet order %v", list)
	}
	narr, _ := f.GetRows("Narrative")
	if len(narr) != 1 {
		t.Fatalf("previous narrative survived the second run: %#v", narr)
	}
}

func TestRunReport_ZeroStaleThresholdHighlightsAll(t *testing.T) {
	cfg := testConfig(t)
	cfg.Roster.StaleHighlightDays = 0
	tg := &fakeTG{}
	svc := New(cfg, zerolog.Nop(), nil, fixtureJira(cfg), nil, tg).WithClock(func() time.Time { return now })
	if _, err := svc.RunReport(context.Background(), "test"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if msgs := tg.sent[7]; len(msgs) != 1 || !strings.Contains(msgs[0], "Stale tickets: 1 (1 over 0 days)") {
		t.Fatalf("threshold 0 not honoured: %#v", tg.sent)
	}
}
