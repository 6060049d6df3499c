/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/config"
	"github.com/rs/zerolog"
)

const defaultAPIBase = "https://api.telegram.org"

type Client struct {
	token   string
	apiBase string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	return &Client{token: cfg.TelegramToken, apiBase: defaultAPIBase, http: &http.Client{Timeout: 10 * time.Second}, log: log}
}

// WithAPIBase points the client at another Bot API host.
func (c *Client) WithAPIBase(base string) *Client {
	c.apiBase = strings.TrimRight(base, "/")
	return c
}

func (c *Client) Enabled() bool { return c.token != "" }

// SendMessagePlain sends without parse_mode; ticket summaries break Markdown.
func (c *Client) SendMessagePlain(ctx context.Context, chatID int64, text string) error {
	if c.token == "" || chatID == 0 {
		return fmt.Errorf("telegram: missing token or chat id")
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.token)
	body := map[string]any{"chat_id": chatID, "text": text, "disable_web_page_preview": true}
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram sendMessage status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}
	return nil
}

// SetWebhook registers url with Telegram; updates then carry secret in the
// X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	if c.token == "" {
		return fmt.Errorf("telegram: missing token")
	}
	endpoint := fmt.Sprintf("%s/bot%s/setWebhook", c.apiBase, c.token)
	body := map[string]any{"url": url, "allowed_updates": []string{"message"}}
	if secret != "" {
		body["secret_token"] = secret
	}
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram setWebhook status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}
	c.log.Info().Str("url", url).Msg("telegram webhook registered")
	return nil
}
