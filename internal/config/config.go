/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingCredentials = errors.New("config: missing jira credentials")
	ErrEmptyRoster        = errors.New("config: roster has no team members")
)

type Config struct {
	AppEnv   string
	TZ       string
	HTTPAddr string

	DBDSN string

	JiraDomain     string
	JiraBaseURL    string
	JiraEmail      string
	JiraAPIToken   string
	JiraMaxResults int
	HTTPTimeout    time.Duration

	SecretsFile  string
	RosterFile   string
	ReportOutput string
	ReportCron   string

	LogFile  string
	LogLevel string

	OpenAIKey     string
	OpenAIModel   string
	OpenAITimeout time.Duration

	TelegramToken         string
	TelegramWebhookSecret string
	TelegramChatIDs       []int64
	PublicBaseURL         string

	Roster Roster
}

// Roster is the YAML team file: who is tracked and how the report looks.
type Roster struct {
	Projects           []string `yaml:"projects"`
	TeamMembers        []string `yaml:"team_members"`
	StaleHighlightDays int      `yaml:"stale_highlight_days"`
	Sheets             Sheets   `yaml:"sheets"`
	Colors             Colors   `yaml:"colors"`
}

type Sheets struct {
	Activity  string `yaml:"activity"`
	Stale     string `yaml:"stale"`
	Narrative string `yaml:"narrative"`
}

type Colors struct {
	HighlightBackground string `yaml:"highlight_background"`
	HighlightFont       string `yaml:"highlight_font"`
	NormalBackground    string `yaml:"normal_background"`
	NormalFont          string `yaml:"normal_font"`
	StaleBackground     string `yaml:"stale_background"`
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoi(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func dur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func parseInt64s(csv string) []int64 {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err == nil {
			out = append(out, n)
		}
	}
	return out
}

// Load reads the secrets file (if present) into the environment, then the
// environment, then the roster file. Overrides with non-empty values win over
// both.
func Load(overrides Config) (Config, error) {
	secrets := firstNonEmpty(overrides.SecretsFile, os.Getenv("SECRETS_FILE"), "secrets.local.txt")
	if _, err := os.Stat(secrets); err == nil {
		// existing environment variables take precedence over the file
		if err := godotenv.Load(secrets); err != nil {
			return Config{}, fmt.Errorf("read secrets %s: %w", secrets, err)
		}
	}

	cfg := Config{
		AppEnv:   getenv("APP_ENV", "prod"),
		TZ:       getenv("APP_TZ", "UTC"),
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		DBDSN: getenv("DB_DSN", ""),

		JiraDomain:     strings.TrimSpace(getenv("JIRA_DOMAIN", "")),
		JiraBaseURL:    getenv("JIRA_BASE_URL", ""),
		JiraEmail:      getenv("EMAIL", ""),
		JiraAPIToken:   getenv("API_TOKEN", ""),
		JiraMaxResults: atoi("JIRA_MAX_RESULTS", 1000),
		HTTPTimeout:    dur("HTTP_TIMEOUT", 30*time.Second),

		SecretsFile:  secrets,
		RosterFile:   firstNonEmpty(overrides.RosterFile, getenv("ROSTER_FILE", "roster.yaml")),
		ReportOutput: firstNonEmpty(overrides.ReportOutput, getenv("REPORT_OUTPUT", "jira-stats.xlsx")),
		ReportCron:   getenv("REPORT_CRON", "0 9 * * MON-FRI"),

		LogFile:  getenv("LOG_FILE", ""),
		LogLevel: getenv("LOG_LEVEL", "info"),

		OpenAIKey:     getenv("OPENAI_API_KEY", ""),
		OpenAIModel:   getenv("OPENAI_MODEL", "gpt-4.1-mini"),
		OpenAITimeout: dur("OPENAI_TIMEOUT", 30*time.Second),

		TelegramToken:         getenv("TELEGRAM_BOT_TOKEN", ""),
		TelegramWebhookSecret: getenv("TELEGRAM_WEBHOOK_SECRET", ""),
		TelegramChatIDs:       parseInt64s(getenv("TELEGRAM_CHAT_IDS", "")),
		PublicBaseURL:         getenv("PUBLIC_BASE_URL", ""),
	}
	if cfg.JiraBaseURL == "" && cfg.JiraDomain != "" {
		cfg.JiraBaseURL = "https://" + cfg.JiraDomain
	}

	if loc, err := time.LoadLocation(cfg.TZ); err == nil {
		time.Local = loc
	} else {
		log.Printf("warning: cannot load TZ %s: %v", cfg.TZ, err)
	}

	r, err := LoadRoster(cfg.RosterFile)
	if err != nil {
		return Config{}, err
	}
	cfg.Roster = r
	return cfg, nil
}

// LoadRoster parses the YAML team file and fills in defaults.
func LoadRoster(path string) (Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Roster{}, fmt.Errorf("read roster: %w", err)
	}
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Roster{}, fmt.Errorf("parse roster: %w", err)
	}
	// 0 is a valid threshold, so only an absent key takes the default
	var present struct {
		StaleHighlightDays *int `yaml:"stale_highlight_days"`
	}
	if err := yaml.Unmarshal(data, &present); err != nil {
		return Roster{}, fmt.Errorf("parse roster: %w", err)
	}
	if present.StaleHighlightDays == nil {
		r.StaleHighlightDays = 30
	} else if r.StaleHighlightDays < 0 {
		return Roster{}, fmt.Errorf("parse roster: stale_highlight_days must be >= 0, got %d", r.StaleHighlightDays)
	}
	r.setDefaults()
	return r, nil
}

func (r *Roster) setDefaults() {
	if len(r.Projects) == 0 {
		r.Projects = []string{"SYS", "CRE", "KUBE"}
	}
	if r.Sheets.Activity == "" {
		r.Sheets.Activity = "OpsTickets"
	}
	if r.Sheets.Stale == "" {
		r.Sheets.Stale = "StaleTickets"
	}
	if r.Sheets.Narrative == "" {
		r.Sheets.Narrative = "Narrative"
	}
	c := &r.Colors
	c.HighlightBackground = firstNonEmpty(c.HighlightBackground, "#FFFF00")
	c.HighlightFont = firstNonEmpty(c.HighlightFont, "#000000")
	c.NormalBackground = firstNonEmpty(c.NormalBackground, "#FFFFFF")
	c.NormalFont = firstNonEmpty(c.NormalFont, "#000000")
	c.StaleBackground = firstNonEmpty(c.StaleBackground, c.HighlightBackground)
}

// Validate checks what a report run needs before touching the network.
func (c Config) Validate() error {
	var missing []string
	if c.JiraBaseURL == "" {
		missing = append(missing, "JIRA_DOMAIN")
	}
	if c.JiraEmail == "" {
		missing = append(missing, "EMAIL")
	}
	if c.JiraAPIToken == "" {
		missing = append(missing, "API_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	if len(c.Roster.TeamMembers) == 0 {
		return fmt.Errorf("%w (%s)", ErrEmptyRoster, c.RosterFile)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
