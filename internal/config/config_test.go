/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const rosterYAML = `projects: [SYS, CRE]
team_members:
  - Ada Lovelace
  - Grace Hopper
stale_highlight_days: 45
colors:
  highlight_background: "#FFCC00"
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadRoster_Defaults(t *testing.T) {
	p := writeFile(t, t.TempDir(), "roster.yaml", rosterYAML)
	r, err := LoadRoster(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(r.TeamMembers) != 2 || r.StaleHighlightDays != 45 {
		t.Fatalf("unexpected roster %#v", r)
	}
	if r.Sheets.Activity != "OpsTickets" || r.Sheets.Stale != "StaleTickets" {
		t.Fatalf("unexpected sheet defaults %#v", r.Sheets)
	}
	if r.Colors.StaleBackground != "#FFCC00" || r.Colors.NormalBackground != "#FFFFFF" {
		t.Fatalf("unexpected colours %#v", r.Colors)
	}
}

func TestLoad_SecretsFileAndValidate(t *testing.T) {
	dir := t.TempDir()
	roster := writeFile(t, dir, "roster.yaml", rosterYAML)
	secrets := writeFile(t, dir, "secrets.local.txt", "# jira\nJIRA_DOMAIN=acme.atlassian.net\nEMAIL=bot@acme.io\nAPI_TOKEN=abc=def\n")
	for _, k := range []string{"JIRA_DOMAIN", "EMAIL", "API_TOKEN", "JIRA_BASE_URL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(Config{SecretsFile: secrets, RosterFile: roster})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JiraBaseURL != "https://acme.atlassian.net" {
		t.Fatalf("unexpected base url %q", cfg.JiraBaseURL)
	}
	if cfg.JiraAPIToken != "abc=def" {
		t.Fatalf("token with '=' not preserved: %q", cfg.JiraAPIToken)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidate_MissingCredentials(t *testing.T) {
	cfg := Config{Roster: Roster{TeamMembers: []string{"Ada"}}}
	err := cfg.Validate()
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	cfg = Config{JiraBaseURL: "https://x", JiraEmail: "e", JiraAPIToken: "t"}
	if err := cfg.Validate(); !errors.Is(err, ErrEmptyRoster) {
		t.Fatalf("expected ErrEmptyRoster, got %v", err)
	}
}

func TestLoadRoster_ZeroStaleThresholdKept(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "zero.yaml", "team_members: [Ada]\nstale_highlight_days: 0\n")
	r, err := LoadRoster(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.StaleHighlightDays != 0 {
		t.Fatalf("explicit 0 must be kept, got %d", r.StaleHighlightDays)
	}
	p = writeFile(t, dir, "absent.yaml", "team_members: [Ada]\n")
	if r, err = LoadRoster(p); err != nil || r.StaleHighlightDays != 30 {
		t.Fatalf("absent key should default to 30, got %d (%v)", r.StaleHighlightDays, err)
	}
	p = writeFile(t, dir, "negative.yaml", "team_members: [Ada]\nstale_highlight_days: -1\n")
	if _, err := LoadRoster(p); err == nil {
		t.Fatalf("negative threshold must be rejected")
	}
}
