/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpapi "github.com/kpushkin-ias/jira-stats-for-slack/internal/http"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/jobs"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/repo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the report on a schedule and serve the admin API",
	Long: `Start the cron scheduler (REPORT_CRON, default weekdays at 09:00 in APP_TZ)
and the admin HTTP server on HTTP_ADDR:

  GET  /healthz
  GET  /admin/last-run
  POST /admin/run
  POST /admin/jira-test
  POST /telegram/webhook[/:secret]`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		log := a.log

		var lock jobs.Locker
		if a.repo != nil {
			lock = a.repo.AdvisoryLock(repo.ReportLockKey)
		}
		cron, err := jobs.NewCron(a.cfg, log, a.svc, lock)
		if err != nil {
			return err
		}
		cron.Start()
		defer cron.Stop()

		// register the webhook only when Telegram can reach us over HTTPS
		if a.tg.Enabled() && a.cfg.TelegramWebhookSecret != "" && strings.HasPrefix(strings.ToLower(a.cfg.PublicBaseURL), "https://") {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				url := strings.TrimRight(a.cfg.PublicBaseURL, "/") + "/telegram/webhook"
				if err := a.tg.SetWebhook(ctx, url, a.cfg.TelegramWebhookSecret); err != nil {
					log.Error().Err(err).Str("url", url).Msg("telegram setWebhook failed")
				}
			}()
		}

		srv := &http.Server{Addr: a.cfg.HTTPAddr, Handler: httpapi.NewRouter(a.cfg, log, a.svc), ReadHeaderTimeout: 10 * time.Second}
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		log.Info().Str("addr", a.cfg.HTTPAddr).Msg("http listening")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sigCh:
			log.Info().Msg("shutting down...")
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		return srv.Shutdown(shutdownCtx)
	},
}
