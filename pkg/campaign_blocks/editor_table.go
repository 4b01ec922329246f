package campaign_blocks

import (
	"fmt"
	"strconv"
	"strings"
)

func (e *Editor) table(blockID string) (*TableContent, error) {
	si, bi := e.blockIndex(blockID)
	if si < 0 {
		return nil, ErrBlockNotFound
	}
	block := &e.sections[si].Children[bi]
	if block.IsOpaque() {
		return nil, ErrOpaqueBlock
	}
	table := block.Table()
	if table == nil {
		return nil, fmt.Errorf("%w: block %s is not a table", ErrInvalidPatch, blockID)
	}
	return table, nil
}

func checkCell(table *TableContent, row, col int) error {
	if row < 0 || row >= len(table.Rows) || col < 0 || col >= table.ColumnCount() {
		return fmt.Errorf("%w: cell %s is out of range", ErrInvalidPatch, CellKey(row, col))
	}
	return nil
}

// UpdateCell sets the text of a table cell. Short rows are padded up to the column.
func (e *Editor) UpdateCell(blockID string, row, col int, value string) error {
	table, err := e.table(blockID)
	if err != nil {
		return err
	}
	if err := checkCell(table, row, col); err != nil {
		return err
	}
	for len(table.Rows[row]) <= col {
		table.Rows[row] = append(table.Rows[row], "")
	}
	table.Rows[row][col] = value
	e.dirty = true
	return nil
}

// UpdateCellStyle merges a style patch into the override of one cell.
// An override that ends up empty is removed.
func (e *Editor) UpdateCellStyle(blockID string, row, col int, style Patch) error {
	table, err := e.table(blockID)
	if err != nil {
		return err
	}
	if err := checkCell(table, row, col); err != nil {
		return err
	}
	current, _ := table.CellStyle(row, col)
	merged, err := mergeStyle(current, style)
	if err != nil {
		return err
	}
	key := CellKey(row, col)
	if merged.IsZero() {
		delete(table.CellStyles, key)
	} else {
		if table.CellStyles == nil {
			table.CellStyles = map[string]Style{}
		}
		table.CellStyles[key] = merged
	}
	e.dirty = true
	return nil
}

// AddTableRow appends an empty row as wide as the table.
func (e *Editor) AddTableRow(blockID string) error {
	table, err := e.table(blockID)
	if err != nil {
		return err
	}
	cols := table.ColumnCount()
	if cols == 0 {
		cols = 1
	}
	table.Rows = append(table.Rows, make([]string, cols))
	e.dirty = true
	return nil
}

// AddTableColumn appends an empty cell to every row.
func (e *Editor) AddTableColumn(blockID string) error {
	table, err := e.table(blockID)
	if err != nil {
		return err
	}
	if len(table.Rows) == 0 {
		table.Rows = [][]string{{""}}
	} else {
		cols := table.ColumnCount()
		for i, row := range table.Rows {
			for len(row) < cols+1 {
				row = append(row, "")
			}
			table.Rows[i] = row
		}
	}
	e.dirty = true
	return nil
}

// DeleteTableRow removes a row and shifts the cell overrides below it. The last row cannot be removed.
func (e *Editor) DeleteTableRow(blockID string, row int) error {
	table, err := e.table(blockID)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(table.Rows) {
		return fmt.Errorf("%w: row %d is out of range", ErrInvalidPatch, row)
	}
	if len(table.Rows) == 1 {
		return fmt.Errorf("%w: a table needs at least one row", ErrInvalidPatch)
	}
	table.Rows = append(table.Rows[:row:row], table.Rows[row+1:]...)
	table.CellStyles = shiftCellStyles(table.CellStyles, func(r, c int) (int, int, bool) {
		switch {
		case r == row:
			return 0, 0, false
		case r > row:
			return r - 1, c, true
		}
		return r, c, true
	})
	e.dirty = true
	e.clampCellSelection()
	return nil
}

// DeleteTableColumn removes a column and shifts the cell overrides right of it. The last column cannot be removed.
func (e *Editor) DeleteTableColumn(blockID string, col int) error {
	table, err := e.table(blockID)
	if err != nil {
		return err
	}
	cols := table.ColumnCount()
	if col < 0 || col >= cols {
		return fmt.Errorf("%w: column %d is out of range", ErrInvalidPatch, col)
	}
	if cols == 1 {
		return fmt.Errorf("%w: a table needs at least one column", ErrInvalidPatch)
	}
	for i, r := range table.Rows {
		if col < len(r) {
			table.Rows[i] = append(r[:col:col], r[col+1:]...)
		}
	}
	table.CellStyles = shiftCellStyles(table.CellStyles, func(r, c int) (int, int, bool) {
		switch {
		case c == col:
			return 0, 0, false
		case c > col:
			return r, c - 1, true
		}
		return r, c, true
	})
	e.dirty = true
	e.clampCellSelection()
	return nil
}

// shiftCellStyles re-keys overrides through move. Keys that do not parse are kept as they are.
func shiftCellStyles(styles map[string]Style, move func(row, col int) (int, int, bool)) map[string]Style {
	if len(styles) == 0 {
		return styles
	}
	out := make(map[string]Style, len(styles))
	for key, style := range styles {
		row, col, ok := parseCellKey(key)
		if !ok {
			out[key] = style
			continue
		}
		if r, c, keep := move(row, col); keep {
			out[CellKey(r, c)] = style
		}
	}
	return out
}

func parseCellKey(key string) (int, int, bool) {
	rs, cs, found := strings.Cut(key, "-")
	if !found {
		return 0, 0, false
	}
	row, err := strconv.Atoi(rs)
	if err != nil {
		return 0, 0, false
	}
	col, err := strconv.Atoi(cs)
	if err != nil {
		return 0, 0, false
	}
	return row, col, true
}
