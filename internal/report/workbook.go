/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package report writes the team activity and stale ticket tables into an
// xlsx workbook. Each sheet is cleared and rebuilt on every run and the file
// is saved after each section.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	noteAuthor = "jira-stats"
	linkColor  = "#0563C1"
)

type Workbook struct {
	path        string
	f           *excelize.File
	log         zerolog.Logger
	styles      map[string]int
	placeholder string
}

// Open loads the workbook at path, or starts a new one if it does not exist.
func Open(path string, log zerolog.Logger) (*Workbook, error) {
	w := &Workbook{path: path, log: log, styles: map[string]int{}}
	f, err := excelize.OpenFile(path)
	switch {
	case err == nil:
		w.f = f
	case os.IsNotExist(err):
		w.f = excelize.NewFile()
		w.placeholder = w.f.GetSheetName(0)
	default:
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return w, nil
}

func (w *Workbook) Path() string { return w.path }

func (w *Workbook) Save() error {
	if dir := filepath.Dir(w.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := w.f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func (w *Workbook) Close() error { return w.f.Close() }

// sheet is a write cursor over one worksheet, mirroring append-row semantics.
type sheet struct {
	wb   *Workbook
	name string
	last int
}

// resetSheet empties the named sheet in place, creating it if missing. The
// sheet keeps its position and its comments part, so repeated runs do not
// leave orphaned parts behind.
func (w *Workbook) resetSheet(name string) (*sheet, error) {
	idx, err := w.f.GetSheetIndex(name)
	if err != nil {
		return nil, err
	}
	if idx == -1 {
		w.log.Info().Str("sheet", name).Msg("sheet not found - creating it")
		if idx, err = w.f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	} else if err := w.clear(name); err != nil {
		return nil, fmt.Errorf("clear sheet %s: %w", name, err)
	}
	if w.placeholder != "" && w.placeholder != name {
		if err := w.f.DeleteSheet(w.placeholder); err != nil {
			return nil, err
		}
		w.placeholder = ""
		if idx, err = w.f.GetSheetIndex(name); err != nil {
			return nil, err
		}
	}
	w.f.SetActiveSheet(idx)
	return &sheet{wb: w, name: name}, nil
}

// clear drops every comment, hyperlink and row of a sheet.
func (w *Workbook) clear(name string) error {
	comments, err := w.f.GetComments(name)
	if err != nil {
		return err
	}
	for _, c := range comments {
		if err := w.f.DeleteComment(name, c.Cell); err != nil {
			return err
		}
	}
	rows, err := w.f.GetRows(name)
	if err != nil {
		return err
	}
	for r, cols := range rows {
		for c := range cols {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if ok, _, err := w.f.GetCellHyperLink(name, cell); err == nil && ok {
				if err := w.f.SetCellHyperLink(name, cell, "", "None"); err != nil {
					return err
				}
			}
		}
	}
	for r := len(rows); r >= 1; r-- {
		if err := w.f.RemoveRow(name, r); err != nil {
			return err
		}
	}
	return nil
}

// hasSheet reports whether the workbook already contains name.
func (w *Workbook) hasSheet(name string) bool {
	idx, err := w.f.GetSheetIndex(name)
	return err == nil && idx != -1
}

func (s *sheet) appendRow(vals ...any) (int, error) {
	s.last++
	cell, err := excelize.CoordinatesToCellName(1, s.last)
	if err != nil {
		return 0, err
	}
	if err := s.wb.f.SetSheetRow(s.name, cell, &vals); err != nil {
		return 0, fmt.Errorf("%s row %d: %w", s.name, s.last, err)
	}
	return s.last, nil
}

// styleRange applies a style to a rectangular 1-based range.
func (s *sheet) styleRange(row, col, rows, cols, style int) error {
	from, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(col+cols-1, row+rows-1)
	if err != nil {
		return err
	}
	return s.wb.f.SetCellStyle(s.name, from, to, style)
}

func (s *sheet) note(row, col int, text string) error {
	if text == "" {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return s.wb.f.AddComment(s.name, excelize.Comment{Author: noteAuthor, Cell: cell, Text: text})
}

func (s *sheet) link(row, col int, url string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return s.wb.f.SetCellHyperLink(s.name, cell, url, "External")
}

// autoResize sets each column width from its widest value in display cells.
func (s *sheet) autoResize(cols int) error {
	rows, err := s.wb.f.GetRows(s.name)
	if err != nil {
		return err
	}
	widths := make([]int, cols)
	for _, r := range rows {
		for i := 0; i < cols && i < len(r); i++ {
			if n := runewidth.StringWidth(r[i]); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for i, n := range widths {
		width := float64(n) + 2
		if width < 8 {
			width = 8
		}
		if width > 80 {
			width = 80
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := s.wb.f.SetColWidth(s.name, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

// style returns a cached style id for the given look.
func (w *Workbook) style(bold, right bool, bg, font string) (int, error) {
	key := fmt.Sprintf("%t|%t|%s|%s", bold, right, bg, font)
	if id, ok := w.styles[key]; ok {
		return id, nil
	}
	st := &excelize.Style{Font: &excelize.Font{Bold: bold}}
	if font != "" {
		st.Font.Color = strings.TrimPrefix(font, "#")
	}
	if bg != "" {
		st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(bg, "#")}}
	}
	if right {
		st.Alignment = &excelize.Alignment{Horizontal: "right"}
	}
	id, err := w.f.NewStyle(st)
	if err != nil {
		return 0, fmt.Errorf("new style: %w", err)
	}
	w.styles[key] = id
	return id, nil
}

// linkStyle is the blue underlined hyperlink look over an optional fill.
func (w *Workbook) linkStyle(bg string) (int, error) {
	key := "link|" + bg
	if id, ok := w.styles[key]; ok {
		return id, nil
	}
	st := &excelize.Style{Font: &excelize.Font{Color: strings.TrimPrefix(linkColor, "#"), Underline: "single"}}
	if bg != "" {
		st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(bg, "#")}}
	}
	id, err := w.f.NewStyle(st)
	if err != nil {
		return 0, fmt.Errorf("new style: %w", err)
	}
	w.styles[key] = id
	return id, nil
}
