/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/config"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/domain"
	"github.com/rs/zerolog"
)

type service interface {
	Running() bool
	RunReport(ctx context.Context, trigger string) (domain.RunRecord, error)
	RunOnDemand(ctx context.Context, chatID int64) error
	SendHelp(ctx context.Context, chatID int64) error
	TestJiraFetch(ctx context.Context) (int, error)
	LastRun(ctx context.Context) (*domain.RunRecord, error)
}

type Handlers struct {
	cfg config.Config
	log zerolog.Logger
	svc service
	// detach runs background work; tests make it synchronous.
	detach func(func())
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc service) *Handlers {
	return &Handlers{cfg: cfg, log: log, svc: svc, detach: func(f func()) { go f() }}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) LastRun(c *gin.Context) {
	lr, err := h.svc.LastRun(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if lr == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no runs yet"})
		return
	}
	c.JSON(http.StatusOK, lr)
}

func (h *Handlers) RunNow(c *gin.Context) {
	if h.svc.Running() {
		c.JSON(http.StatusConflict, gin.H{"error": "run in progress"})
		return
	}
	// detached from the request so the client hanging up does not cancel it
	h.detach(func() {
		if _, err := h.svc.RunReport(context.Background(), "admin"); err != nil {
			h.log.Warn().Err(err).Msg("admin run did not complete")
		}
	})
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (h *Handlers) JiraTest(c *gin.Context) {
	h.detach(func() {
		if _, err := h.svc.TestJiraFetch(context.Background()); err != nil {
			h.log.Warn().Err(err).Msg("admin jira test failed")
		}
	})
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (h *Handlers) TelegramWebhook(c *gin.Context) {
	headerSecret := c.GetHeader("X-Telegram-Bot-Api-Secret-Token")
	pathSecret := c.Param("secret")
	if h.cfg.TelegramWebhookSecret == "" || (headerSecret != h.cfg.TelegramWebhookSecret && pathSecret != h.cfg.TelegramWebhookSecret) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	h.log.Info().Str("ip", c.ClientIP()).Str("ua", c.GetHeader("User-Agent")).Msg("telegram webhook received")

	var upd struct {
		Message *struct {
			Chat struct {
				ID int64 `json:"id"`
			} `json:"chat"`
			Text string `json:"text"`
		} `json:"message"`
	}
	if err := c.ShouldBindJSON(&upd); err == nil && upd.Message != nil {
		chatID := upd.Message.Chat.ID
		if h.allowed(chatID) {
			switch command(upd.Message.Text) {
			case "/report":
				h.detach(func() { _ = h.svc.RunOnDemand(context.Background(), chatID) })
			case "/start", "/help":
				h.detach(func() { _ = h.svc.SendHelp(context.Background(), chatID) })
			}
		} else {
			h.log.Warn().Int64("chat_id", chatID).Msg("telegram webhook from unknown chat")
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// allowed accepts any chat when none are configured.
func (h *Handlers) allowed(chatID int64) bool {
	if len(h.cfg.TelegramChatIDs) == 0 {
		return true
	}
	for _, id := range h.cfg.TelegramChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// command returns the leading bot command without a "@botname" suffix.
func command(text string) string {
	f := strings.Fields(text)
	if len(f) == 0 {
		return ""
	}
	cmd, _, _ := strings.Cut(f[0], "@")
	return cmd
}
