/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/config"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/domain"
	"github.com/rs/zerolog"
)

var (
	ErrEmptyJQL = errors.New("jira: empty jql")
	// ErrNoIssues means the response carried no issues array, which Jira
	// does for auth failures and malformed queries alike.
	ErrNoIssues = errors.New("jira: response has no issues array")
)

type Client struct {
	baseURL    string
	email      string
	token      string
	maxResults int
	http       *http.Client
	log        zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    cfg.JiraBaseURL,
		email:      cfg.JiraEmail,
		token:      cfg.JiraAPIToken,
		maxResults: cfg.JiraMaxResults,
		http:       &http.Client{Timeout: cfg.HTTPTimeout},
		log:        log,
	}
}

// BaseURL is the browse root used for ticket links.
func (c *Client) BaseURL() string { return strings.TrimRight(c.baseURL, "/") }

func (c *Client) apiURL(path string, q url.Values) string {
	base := strings.TrimRight(c.baseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := base + path
	if len(q) > 0 {
		u = u + "?" + q.Encode()
	}
	return u
}

// Search runs one JQL query and returns the issues in response order.
// There is no pagination and no retry: one request per query.
func (c *Client) Search(ctx context.Context, jql string) ([]domain.Issue, error) {
	if strings.TrimSpace(jql) == "" {
		return nil, ErrEmptyJQL
	}
	if c.baseURL == "" {
		return nil, errors.New("jira: empty baseURL")
	}
	q := url.Values{}
	q.Set("jql", jql)
	q.Set("fields", "*all")
	if c.maxResults > 0 {
		q.Set("maxResults", strconv.Itoa(c.maxResults))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL("/rest/api/2/search/jql", q), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")

	c.log.Info().Str("jql", jql).Msg("jira search")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jira search: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("jira search: read body: %w", err)
	}

	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil || out.Issues == nil {
		c.log.Error().Int("status", resp.StatusCode).Str("body", truncate(string(body), 2000)).Msg("jira api did not return an issues array")
		return nil, fmt.Errorf("%w (status=%d)", ErrNoIssues, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("jira api status=%d body=%s", resp.StatusCode, truncate(strings.TrimSpace(string(body)), 500))
	}

	issues := make([]domain.Issue, 0, len(*out.Issues))
	for _, raw := range *out.Issues {
		issues = append(issues, raw.toDomain())
	}
	c.log.Debug().Int("count", len(issues)).Msg("jira search done")
	return issues, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
