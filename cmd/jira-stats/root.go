/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
	"context"
	"fmt"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/adapters/jira"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/adapters/openai"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/adapters/telegram"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/config"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/logger"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/repo"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/services"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	secretsFile string
	rosterFile  string
	outputFile  string
)

var rootCmd = &cobra.Command{
	Use:   "jira-stats",
	Short: "Weekly Jira activity and stale ticket report for an ops team",
	Long: `jira-stats queries Jira for the team's last seven days of activity and
its open tickets with due dates, and writes two sheets into an xlsx workbook:
per-member activity counts and the list of tickets past their due date.

Credentials come from the environment or a KEY=VALUE secrets file
(JIRA_DOMAIN, EMAIL, API_TOKEN). Team members and projects come from the
roster YAML file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&secretsFile, "secrets", "", "KEY=VALUE secrets file (default secrets.local.txt)")
	rootCmd.PersistentFlags().StringVar(&rosterFile, "roster", "", "roster YAML file (default roster.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFile, "output", "", "workbook path (default jira-stats.xlsx)")
}

func loadConfig() (config.Config, error) {
	return config.Load(config.Config{SecretsFile: secretsFile, RosterFile: rosterFile, ReportOutput: outputFile})
}

type app struct {
	cfg  config.Config
	log  zerolog.Logger
	db   *repo.DB
	repo *repo.Repository
	tg   *telegram.Client
	svc  *services.Service
}

// newApp loads configuration and wires adapters into the report service.
// Run history goes to Postgres when DB_DSN is set.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}

	var runs services.RunStore
	if cfg.DBDSN != "" {
		db, err := repo.Open(ctx, cfg.DBDSN, log)
		if err != nil {
			return nil, err
		}
		r := repo.NewRepository(db, log)
		if err := r.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.db, a.repo, runs = db, r, r
	}

	a.tg = telegram.NewClient(cfg, log)
	a.svc = services.New(cfg, log, runs, jira.NewClient(cfg, log), openai.NewClient(cfg, log), a.tg)
	log.Info().Str("jira", cfg.JiraBaseURL).Strs("projects", cfg.Roster.Projects).
		Int("team", len(cfg.Roster.TeamMembers)).Bool("db", a.db != nil).Msg("configured")
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
