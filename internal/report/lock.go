/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("report: workbook is locked by another run")

// FileLock guards a workbook with an flock on "<path>.lock".
type FileLock struct {
	fl *flock.Flock
}

func NewFileLock(workbookPath string) *FileLock {
	return &FileLock{fl: flock.New(workbookPath + ".lock")}
}

// TryLock does not block; it reports false when another process holds it.
func (l *FileLock) TryLock(ctx context.Context) (bool, error) {
	if dir := filepath.Dir(l.fl.Path()); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("creating lock directory: %w", err)
		}
	}
	ok, err := l.fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquiring lock: %w", err)
	}
	return ok, nil
}

func (l *FileLock) Unlock(ctx context.Context) error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}
