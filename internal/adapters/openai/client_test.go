/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/config"
	"github.com/openai/openai-go/v2/option"
	"github.com/rs/zerolog"
)

const completion = `{"id":"chatcmpl-1","object":"chat.completion","created":1718000000,"model":"gpt-4.1-mini",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  user01 needs attention.  "}}]}`

func TestNarrate(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion))
	}))
	defer srv.Close()

	cfg := config.Config{OpenAIKey: "sk-test", OpenAIModel: "gpt-4.1-mini", OpenAITimeout: 5 * time.Second}
	c := NewClient(cfg, zerolog.Nop(), option.WithBaseURL(srv.URL+"/"))
	out, err := c.Narrate(context.Background(), map[string]any{"members": []string{"user01"}})
	if err != nil {
		t.Fatalf("narrate: %v", err)
	}
	if out != "user01 needs attention." {
		t.Fatalf("unexpected narrative %q", out)
	}
	if !strings.Contains(body, "user01") || !strings.Contains(body, "gpt-4.1-mini") {
		t.Fatalf("payload not forwarded: %s", body)
	}
}

func TestNarrate_Disabled(t *testing.T) {
	c := NewClient(config.Config{}, zerolog.Nop())
	if c.Enabled() {
		t.Fatalf("client without key must be disabled")
	}
	if _, err := c.Narrate(context.Background(), nil); err == nil {
		t.Fatalf("expected error without key")
	}
}
