/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kpushkin-ias/jira-stats-for-slack/internal/domain"
	"github.com/rs/zerolog"
)

// ReportLockKey is the advisory lock key shared by every replica.
const ReportLockKey int64 = 424242

type DB struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

func Open(ctx context.Context, dsn string, log zerolog.Logger) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	ctx2, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(ctx2); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return &DB{Pool: pool, log: log}, nil
}

func (d *DB) Close() { d.Pool.Close() }

// Repository stores run history. Aggregates are never written.
type Repository struct {
	db  *DB
	log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

const schema = `
CREATE TABLE IF NOT EXISTS job_runs (
    id                  TEXT PRIMARY KEY,
    trigger             TEXT NOT NULL,
    started_at          TIMESTAMPTZ NOT NULL,
    finished_at         TIMESTAMPTZ,
    activity_issues     INT NOT NULL DEFAULT 0,
    due_date_issues     INT NOT NULL DEFAULT 0,
    overdue_issues      INT NOT NULL DEFAULT 0,
    highlighted_members INT NOT NULL DEFAULT 0,
    stale_tickets       INT NOT NULL DEFAULT 0,
    success             BOOLEAN NOT NULL DEFAULT false,
    error               TEXT NOT NULL DEFAULT ''
)`

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, schema)
	return err
}

func (r *Repository) StartRun(ctx context.Context, rec domain.RunRecord) error {
	const q = `INSERT INTO job_runs(id, trigger, started_at, success) VALUES($1, $2, $3, false)`
	_, err := r.db.Pool.Exec(ctx, q, rec.ID, rec.Trigger, rec.StartedAt)
	return err
}

func (r *Repository) FinishRun(ctx context.Context, rec domain.RunRecord) error {
	const q = `UPDATE job_runs SET finished_at=$2, activity_issues=$3, due_date_issues=$4, overdue_issues=$5,
        highlighted_members=$6, stale_tickets=$7, success=$8, error=$9 WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, rec.ID, rec.FinishedAt, rec.ActivityIssues, rec.DueDateIssues, rec.OverdueIssues,
		rec.HighlightedMembers, rec.StaleTickets, rec.Success, rec.Error)
	return err
}

// LastRun returns the most recent run, or nil when none was recorded.
func (r *Repository) LastRun(ctx context.Context) (*domain.RunRecord, error) {
	const q = `SELECT id, trigger, started_at, finished_at, activity_issues, due_date_issues, overdue_issues,
        highlighted_members, stale_tickets, success, error FROM job_runs ORDER BY started_at DESC LIMIT 1`
	lr := &domain.RunRecord{}
	err := r.db.Pool.QueryRow(ctx, q).Scan(&lr.ID, &lr.Trigger, &lr.StartedAt, &lr.FinishedAt, &lr.ActivityIssues,
		&lr.DueDateIssues, &lr.OverdueIssues, &lr.HighlightedMembers, &lr.StaleTickets, &lr.Success, &lr.Error)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lr, nil
}

// AdvisoryLock holds a session-level advisory lock on one pooled connection.
// Lock and unlock must run on the same session, so the connection is kept
// until Unlock.
type AdvisoryLock struct {
	pool *pgxpool.Pool
	key  int64
	mu   sync.Mutex
	conn *pgxpool.Conn
}

func (r *Repository) AdvisoryLock(key int64) *AdvisoryLock {
	return &AdvisoryLock{pool: r.db.Pool, key: key}
}

func (l *AdvisoryLock) TryLock(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		return false, nil
	}
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", l.key).Scan(&ok); err != nil {
		conn.Release()
		return false, err
	}
	if !ok {
		conn.Release()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

func (l *AdvisoryLock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	defer func() { l.conn.Release(); l.conn = nil }()
	var ok bool
	err := l.conn.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", l.key).Scan(&ok)
	if !ok && err == nil {
		return errors.New("advisory unlock returned false")
	}
	return err
}
