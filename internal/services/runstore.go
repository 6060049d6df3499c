/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"context"
	"sync"

	"github.com/kpushkin-ias/jira-stats-for-slack/internal/domain"
)

// MemoryRunStore keeps the most recent run when no database is configured.
type MemoryRunStore struct {
	mu   sync.Mutex
	last *domain.RunRecord
}

func NewMemoryRunStore() *MemoryRunStore { return &MemoryRunStore{} }

func (m *MemoryRunStore) StartRun(_ context.Context, rec domain.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = &rec
	return nil
}

func (m *MemoryRunStore) FinishRun(_ context.Context, rec domain.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = &rec
	return nil
}

func (m *MemoryRunStore) LastRun(_ context.Context) (*domain.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return nil, nil
	}
	cp := *m.last
	return &cp, nil
}
