/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
	"context"
	"time"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/stats"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and test the Jira connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		cmd.Printf("domain:   %s\n", a.cfg.JiraDomain)
		cmd.Printf("email:    %s\n", a.cfg.JiraEmail)
		cmd.Printf("roster:   %s (%d members)\n", a.cfg.RosterFile, len(a.cfg.Roster.TeamMembers))
		cmd.Printf("query:    %s\n", stats.ConnectionCheck(a.cfg.Roster.Projects))
		n, err := a.svc.TestJiraFetch(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("ok: %d issues created in the last day\n", n)
		return nil
	},
}
