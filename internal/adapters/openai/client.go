/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/config"
	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rs/zerolog"
)

const systemPrompt = "You are a senior engineering manager. Given weekly per-person Jira activity for an operations team " +
	"(tickets created, self/cross assigned, cross-actioned, overdue, due soon) and the stale ticket list, write a short " +
	"plain-text summary: who needs attention, notable patterns, and one or two suggested actions. Refer to people exactly " +
	"by the identifiers given. No Markdown."

type Client struct {
	key   string
	model string
	cli   openai.Client
	log   zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger, opts ...option.RequestOption) *Client {
	model := cfg.OpenAIModel
	if strings.TrimSpace(model) == "" {
		model = "gpt-4.1-mini"
	}
	base := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIKey),
		option.WithRequestTimeout(cfg.OpenAITimeout),
		option.WithMaxRetries(0),
	}
	cli := openai.NewClient(append(base, opts...)...)
	return &Client{key: cfg.OpenAIKey, model: model, cli: cli, log: log}
}

func (c *Client) Enabled() bool { return strings.TrimSpace(c.key) != "" }

// Narrate asks the model for a short summary of the (already redacted) payload.
func (c *Client) Narrate(ctx context.Context, payload any) (string, error) {
	if !c.Enabled() {
		return "", errors.New("openai: missing key")
	}
	c.log.Info().Str("model", c.model).Msg("openai narrate call")
	userContent := ""
	if b, err := json.Marshal(payload); err == nil {
		userContent = string(b)
	}
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userContent),
		},
	}
	resp, err := c.cli.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
