/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package stats

import "strings"

// OpenExcluded lists statuses treated as finished by the due-date queries.
var OpenExcluded = []string{"Closed", "Completed", "Done", "Resolved"}

// QuerySet holds the three JQL searches a report run executes.
type QuerySet struct {
	Activity    string
	OpenWithDue string
	Overdue     string
}

func Queries(projects []string) QuerySet {
	scope := "project IN (" + strings.Join(projects, ", ") + ")"
	open := scope + " AND status NOT IN (" + strings.Join(OpenExcluded, ", ") + ") AND duedate IS NOT EMPTY"
	return QuerySet{
		Activity:    scope + " AND (created >= -1w OR updated >= -1w OR resolved >= -1w)",
		OpenWithDue: open,
		Overdue:     open + " AND duedate <= now()",
	}
}

// ConnectionCheck is a cheap query used to verify credentials.
func ConnectionCheck(projects []string) string {
	return "project IN (" + strings.Join(projects, ", ") + ") AND created >= -1d"
}
