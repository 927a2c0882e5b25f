// Package store provides the tabular sheet store: every named sheet is a header
// row (ordered column names) followed by data rows in append order. Rows are
// addressed by callers through column names; the backends address them by
// position, which makes reverse iteration during bulk deletes load-bearing.
package store

import "errors"

var (
	// ErrSheetMissing indicates the named sheet does not exist in the backend.
	ErrSheetMissing = errors.New("store: sheet does not exist")
	// ErrEmptyHeader indicates a sheet was created without any columns.
	ErrEmptyHeader = errors.New("store: sheet header requires at least one column")
)

// Row represents one data row keyed by header column names.
type Row map[string]string

// Predicate selects rows during locate, update and delete operations.
type Predicate func(Row) bool

// Store is the sheet adapter contract. Every operation is a full linear scan;
// there are no secondary indexes and no cross-call atomicity.
type Store interface {
	// EnsureSheet creates the sheet with the given header when absent. An
	// existing sheet is left untouched, header included.
	EnsureSheet(sheet string, header []string) error

	// ReadAll returns every data row mapped by header column names, in
	// storage order. A sheet with a header and no data rows yields an empty
	// slice. A missing sheet yields ErrSheetMissing.
	ReadAll(sheet string) ([]Row, error)

	// Append writes one row: for each header column the matching value from
	// item, or an empty cell. Keys in item without a header column are
	// ignored.
	Append(sheet string, item Row) error

	// UpdateCell locates the first row satisfying match (storage order) and
	// writes value into the named column. It reports false, without error,
	// when no row matches or the column is absent from the header.
	UpdateCell(sheet string, match Predicate, column, value string) (bool, error)

	// UpdateRow locates the first row satisfying match (storage order) and
	// writes every cell whose key has a header column; keys without a column
	// are ignored. The row is located once, so cells may overwrite the very
	// values the predicate matched on. It reports false, without error, when
	// no row matches.
	UpdateRow(sheet string, match Predicate, cells Row) (bool, error)

	// DeleteRow removes the first row satisfying match and reports whether a
	// row was removed.
	DeleteRow(sheet string, match Predicate) (bool, error)

	// DeleteRows removes every row satisfying match and returns the number
	// removed. Zero matches is not an error.
	DeleteRows(sheet string, match Predicate) (int, error)
}

// zipRow maps positional cells to a Row keyed by the header.
func zipRow(header []string, cells []string) Row {
	row := make(Row, len(header))
	for index, column := range header {
		value := ""
		if index < len(cells) {
			value = cells[index]
		}
		row[column] = value
	}
	return row
}

// projectRow maps a Row onto the header's column order, one cell per column.
func projectRow(header []string, item Row) []string {
	cells := make([]string, len(header))
	for index, column := range header {
		cells[index] = item[column]
	}
	return cells
}
