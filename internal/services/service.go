/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/config"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/domain"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/report"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/stats"
	"github.com/rs/zerolog"
)

var ErrRunInProgress = errors.New("services: report run already in progress")

type JiraClient interface {
	Search(ctx context.Context, jql string) ([]domain.Issue, error)
}

type LLM interface {
	Enabled() bool
	Narrate(ctx context.Context, payload any) (string, error)
}

type Notifier interface {
	Enabled() bool
	SendMessagePlain(ctx context.Context, chatID int64, text string) error
}

type RunStore interface {
	StartRun(ctx context.Context, rec domain.RunRecord) error
	FinishRun(ctx context.Context, rec domain.RunRecord) error
	LastRun(ctx context.Context) (*domain.RunRecord, error)
}

type Service struct {
	cfg     config.Config
	log     zerolog.Logger
	runs    RunStore
	jira    JiraClient
	llm     LLM
	tg      Notifier
	roster  domain.Roster
	layout  report.Layout
	queries stats.QuerySet
	now     func() time.Time
	running atomic.Bool
}

// New wires the report pipeline. llm and tg may be nil; runs defaults to an
// in-memory store.
func New(cfg config.Config, log zerolog.Logger, runs RunStore, jira JiraClient, llm LLM, tg Notifier) *Service {
	if runs == nil {
		runs = NewMemoryRunStore()
	}
	th := stats.DefaultThresholds()
	// LoadRoster fills the default; 0 highlights every stale ticket
	th.StaleHighlightDays = cfg.Roster.StaleHighlightDays
	return &Service{
		cfg:     cfg,
		log:     log,
		runs:    runs,
		jira:    jira,
		llm:     llm,
		tg:      tg,
		roster:  domain.NewRoster(cfg.Roster.TeamMembers),
		layout:  report.Layout{Sheets: cfg.Roster.Sheets, Colors: cfg.Roster.Colors, Thresholds: th},
		queries: stats.Queries(cfg.Roster.Projects),
		now:     time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Running reports whether a run is in progress in this process.
func (s *Service) Running() bool { return s.running.Load() }

// RunReport fetches, aggregates and renders one report and notifies the
// configured chats.
func (s *Service) RunReport(ctx context.Context, trigger string) (domain.RunRecord, error) {
	return s.run(ctx, trigger, s.cfg.TelegramChatIDs)
}

// RunOnDemand runs a report for a Telegram chat and replies there.
func (s *Service) RunOnDemand(ctx context.Context, chatID int64) error {
	_, err := s.run(ctx, "telegram", []int64{chatID})
	if err != nil && s.tg != nil && s.tg.Enabled() {
		msg := "Report failed: " + err.Error()
		if errors.Is(err, ErrRunInProgress) {
			msg = "A report is already running, try again in a minute."
		}
		if serr := s.tg.SendMessagePlain(ctx, chatID, msg); serr != nil {
			s.log.Warn().Err(serr).Int64("chat_id", chatID).Msg("telegram reply failed")
		}
	}
	return err
}

func (s *Service) SendHelp(ctx context.Context, chatID int64) error {
	if s.tg == nil || !s.tg.Enabled() {
		return nil
	}
	text := "Commands:\n/report - rebuild the Jira stats workbook and post a summary\n/help - this message"
	return s.tg.SendMessagePlain(ctx, chatID, text)
}

func (s *Service) LastRun(ctx context.Context) (*domain.RunRecord, error) {
	return s.runs.LastRun(ctx)
}

// TestJiraFetch runs the one-day connection check query and returns how many
// issues came back.
func (s *Service) TestJiraFetch(ctx context.Context) (int, error) {
	jql := stats.ConnectionCheck(s.cfg.Roster.Projects)
	s.log.Info().Str("jql", jql).Msg("jira connection check")
	issues, err := s.jira.Search(ctx, jql)
	if err != nil {
		s.log.Error().Err(err).Msg("jira connection check failed")
		return 0, err
	}
	s.log.Info().Int("issues", len(issues)).Msg("jira connection check ok")
	return len(issues), nil
}

func (s *Service) run(ctx context.Context, trigger string, chats []int64) (domain.RunRecord, error) {
	if !s.running.CompareAndSwap(false, true) {
		return domain.RunRecord{}, ErrRunInProgress
	}
	defer s.running.Store(false)

	lock := report.NewFileLock(s.cfg.ReportOutput)
	ok, err := lock.TryLock(ctx)
	if err != nil {
		return domain.RunRecord{}, fmt.Errorf("lock workbook: %w", err)
	}
	if !ok {
		return domain.RunRecord{}, fmt.Errorf("%w: %w", ErrRunInProgress, report.ErrLocked)
	}
	defer func() { _ = lock.Unlock(context.Background()) }()

	rec := domain.RunRecord{ID: uuid.NewString(), StartedAt: s.now().UTC(), Trigger: trigger}
	log := s.log.With().Str("run_id", rec.ID).Str("trigger", trigger).Logger()
	log.Info().Str("output", s.cfg.ReportOutput).Msg("report run started")
	if err := s.runs.StartRun(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("record run start failed")
	}

	res, err := s.generate(ctx, log, &rec)

	fin := s.now().UTC()
	rec.FinishedAt = &fin
	rec.Success = err == nil
	if err != nil {
		rec.Error = err.Error()
		log.Error().Err(err).Msg("report run failed")
	} else {
		log.Info().Int("highlighted", rec.HighlightedMembers).Int("stale", rec.StaleTickets).
			Dur("took", fin.Sub(rec.StartedAt)).Msg("report run finished")
	}
	if ferr := s.runs.FinishRun(context.Background(), rec); ferr != nil {
		log.Warn().Err(ferr).Msg("record run finish failed")
	}
	if err == nil {
		s.notify(ctx, log, chats, summaryText(rec, res, s.cfg.ReportOutput, s.layout.Thresholds))
	}
	return rec, err
}

type result struct {
	rows      []stats.MemberRow
	stale     []stats.StaleTicket
	narrative string
}

// generate runs the sections in order. Each section fetches before it
// writes, so a failed query leaves that sheet untouched; earlier sections
// stay saved.
func (s *Service) generate(ctx context.Context, log zerolog.Logger, rec *domain.RunRecord) (result, error) {
	var res result
	now := s.now()
	th := s.layout.Thresholds

	activityIssues, err := s.fetch(ctx, log, "activity", s.queries.Activity)
	if err != nil {
		return res, err
	}
	rec.ActivityIssues = len(activityIssues)
	dueIssues, err := s.fetch(ctx, log, "open_with_due", s.queries.OpenWithDue)
	if err != nil {
		return res, err
	}
	rec.DueDateIssues = len(dueIssues)

	act := stats.Aggregate(activityIssues, s.roster, now, th)
	due := stats.AnalyzeDueDates(dueIssues, s.roster, now, th)
	res.rows = stats.MemberRows(act, due, s.roster)
	for _, r := range res.rows {
		if r.Highlight {
			rec.HighlightedMembers++
			log.Debug().Str("member", r.Name).Int("overdue", r.Overdue).Msg("member highlighted")
		}
	}

	wb, err := report.Open(s.cfg.ReportOutput, log)
	if err != nil {
		return res, err
	}
	defer func() { _ = wb.Close() }()
	if err := wb.WriteActivity(res.rows, act, due, s.layout); err != nil {
		return res, fmt.Errorf("write %s: %w", s.layout.Sheets.Activity, err)
	}

	overdueIssues, err := s.fetch(ctx, log, "overdue", s.queries.Overdue)
	if err != nil {
		return res, err
	}
	rec.OverdueIssues = len(overdueIssues)
	for _, is := range overdueIssues {
		if reason := stats.SkipReason(is, s.roster); reason != "" {
			log.Debug().Str("key", is.Key).Str("assignee", is.Assignee).Str("reason", reason).Msg("stale ticket skipped")
		}
	}
	res.stale = stats.SelectStale(overdueIssues, s.roster, now, s.jiraBaseURL())
	rec.StaleTickets = len(res.stale)
	if err := wb.WriteStale(res.stale, s.layout); err != nil {
		return res, fmt.Errorf("write %s: %w", s.layout.Sheets.Stale, err)
	}

	res.narrative = s.narrate(ctx, log, res)
	if err := wb.WriteNarrative(res.narrative, s.layout); err != nil {
		log.Warn().Err(err).Msg("write narrative failed")
	}
	return res, nil
}

func (s *Service) fetch(ctx context.Context, log zerolog.Logger, name, jql string) ([]domain.Issue, error) {
	start := time.Now()
	issues, err := s.jira.Search(ctx, jql)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	log.Info().Str("query", name).Int("issues", len(issues)).Dur("took", time.Since(start)).Msg("jira query done")
	return issues, nil
}

func (s *Service) jiraBaseURL() string {
	if s.cfg.JiraBaseURL != "" {
		return s.cfg.JiraBaseURL
	}
	return "https://" + s.cfg.JiraDomain
}

// narrate returns "" when the model is disabled or fails.
func (s *Service) narrate(ctx context.Context, log zerolog.Logger, res result) string {
	if s.llm == nil || !s.llm.Enabled() {
		return ""
	}
	al := newAliases(s.roster.Names())
	out, err := s.llm.Narrate(ctx, narrativePayload(res.rows, res.stale, al))
	if err != nil {
		log.Warn().Err(err).Msg("narrative skipped")
		return ""
	}
	return al.reveal(out)
}

func (s *Service) notify(ctx context.Context, log zerolog.Logger, chats []int64, text string) {
	if s.tg == nil || !s.tg.Enabled() {
		return
	}
	for _, id := range chats {
		if err := s.tg.SendMessagePlain(ctx, id, text); err != nil {
			log.Warn().Err(err).Int64("chat_id", id).Msg("telegram notify failed")
		}
	}
}

func summaryText(rec domain.RunRecord, res result, output string, th stats.Thresholds) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Jira stats updated (%s)\n", output)
	var flagged []string
	for _, r := range res.rows {
		if r.Highlight {
			flagged = append(flagged, r.Name)
		}
	}
	if len(flagged) > 0 {
		fmt.Fprintf(&b, "Needs attention: %s\n", strings.Join(flagged, ", "))
	} else {
		b.WriteString("Needs attention: nobody\n")
	}
	old := 0
	for _, t := range res.stale {
		if stats.HighlightStale(t, th) {
			old++
		}
	}
	fmt.Fprintf(&b, "Stale tickets: %d (%d over %d days)\n", rec.StaleTickets, old, th.StaleHighlightDays)
	if res.narrative != "" {
		b.WriteString("\n")
		b.WriteString(res.narrative)
	}
	return strings.TrimRight(b.String(), "\n")
}
