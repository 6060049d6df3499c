/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the report once and exit",
	Long: `Run the three Jira queries, rebuild the activity and stale ticket sheets and
save the workbook. Exits non-zero when any query or write fails; sheets
written before the failure are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		rec, err := a.svc.RunReport(ctx, "cli")
		if err != nil {
			return err
		}
		cmd.Printf("report written to %s (run %s): %d highlighted members, %d stale tickets\n",
			a.cfg.ReportOutput, rec.ID, rec.HighlightedMembers, rec.StaleTickets)
		return nil
	},
}
