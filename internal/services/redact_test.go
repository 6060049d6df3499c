/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/domain"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/stats"
)

func TestScrub_MasksCommonPatterns(t *testing.T) {
	in := "Reach alice@example.com or +1 555 123 4567, see https://example.com/x. token=abcdEFGH1234 JIRAUSER12345"
	out := scrub(in)
	for _, leak := range []string{"alice@example.com", "555 123 4567", "https://example.com", "abcdEFGH1234", "JIRAUSER12345"} {
		if strings.Contains(out, leak) {
			t.Fatalf("%q survived scrubbing: %s", leak, out)
		}
	}
}

func TestAliases_StableAndReversible(t *testing.T) {
	al := newAliases([]string{"Alice Smith", "Bob"})
	if al.of("Alice Smith") != "user01" || al.of("Bob") != "user02" {
		t.Fatalf("unexpected aliases %#v", al.byName)
	}
	if al.of("Carol") != "user03" || al.of("Carol") != "user03" {
		t.Fatalf("new names must get one stable alias")
	}
	hidden := al.hide("alice smith pinged Bob about it")
	if strings.Contains(strings.ToLower(hidden), "alice") || strings.Contains(hidden, "Bob") {
		t.Fatalf("names not hidden: %s", hidden)
	}
	if got := al.reveal("user01 and user02 but not user99"); got != "Alice Smith and Bob but not user99" {
		t.Fatalf("unexpected reveal %q", got)
	}
}

func TestNarrativePayload_CarriesNoNames(t *testing.T) {
	roster := domain.NewRoster([]string{"Alice Smith", "Bob"})
	al := newAliases(roster.Names())
	rows := []stats.MemberRow{{Name: "Alice Smith", Overdue: 2, Highlight: true}, {Name: "Bob", Created: 1}}
	stale := []stats.StaleTicket{{Issue: domain.Issue{Key: "SYS-9", Summary: "Bob to mail alice@example.com", Assignee: "Bob"}, DaysPastDue: 40}}
	b, err := json.Marshal(narrativePayload(rows, stale, al))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if strings.Contains(s, "Alice") || strings.Contains(s, "Bob") || strings.Contains(s, "example.com") {
		t.Fatalf("payload leaks personal data: %s", s)
	}
	if !strings.Contains(s, "SYS-9") || !strings.Contains(s, `"days_past_due":40`) {
		t.Fatalf("payload lost ticket data: %s", s)
	}
}
