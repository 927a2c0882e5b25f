package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// SheetRow is the gorm model backing the sqlite sheet store. Each record holds
// one positional row of one sheet; the header occupies position 0 and data
// rows count upward from 1 in append order.
type SheetRow struct {
	Sheet     string `gorm:"column:sheet;primaryKey;size:190;not null"`
	Position  int64  `gorm:"column:position;primaryKey;not null"`
	CellsJSON string `gorm:"column:cells_json;type:text;not null"`
}

// TableName provides the explicit table binding for GORM.
func (SheetRow) TableName() string {
	return "sheet_rows"
}

// SQLiteStore persists sheets through a gorm sqlite handle. Reads and
// predicate locates remain full scans in position order; the database is a
// durability layer, not an index.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore wraps the provided database handle. The handle must already
// have the SheetRow schema migrated.
func NewSQLiteStore(db *gorm.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("store: database handle is required")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSheet(sheet string, header []string) error {
	if len(header) == 0 {
		return ErrEmptyHeader
	}
	var existing SheetRow
	err := s.db.Where("sheet = ? AND position = 0", sheet).Take(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	encoded, err := encodeCells(header)
	if err != nil {
		return err
	}
	return s.db.Create(&SheetRow{Sheet: sheet, Position: 0, CellsJSON: encoded}).Error
}

func (s *SQLiteStore) ReadAll(sheet string) ([]Row, error) {
	header, records, err := s.load(sheet)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(records))
	for _, record := range records {
		cells, err := decodeCells(record.CellsJSON)
		if err != nil {
			return nil, err
		}
		rows = append(rows, zipRow(header, cells))
	}
	return rows, nil
}

func (s *SQLiteStore) Append(sheet string, item Row) error {
	header, err := s.header(sheet)
	if err != nil {
		return err
	}
	var last SheetRow
	position := int64(1)
	err = s.db.Where("sheet = ?", sheet).Order("position DESC").Take(&last).Error
	if err == nil {
		position = last.Position + 1
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	encoded, err := encodeCells(projectRow(header, item))
	if err != nil {
		return err
	}
	return s.db.Create(&SheetRow{Sheet: sheet, Position: position, CellsJSON: encoded}).Error
}

func (s *SQLiteStore) UpdateCell(sheet string, match Predicate, column, value string) (bool, error) {
	header, records, err := s.load(sheet)
	if err != nil {
		return false, err
	}
	columnIndex := indexOf(header, column)
	if columnIndex < 0 {
		return false, nil
	}
	for _, record := range records {
		cells, err := decodeCells(record.CellsJSON)
		if err != nil {
			return false, err
		}
		if !match(zipRow(header, cells)) {
			continue
		}
		for len(cells) <= columnIndex {
			cells = append(cells, "")
		}
		cells[columnIndex] = value
		encoded, err := encodeCells(cells)
		if err != nil {
			return false, err
		}
		err = s.db.Model(&SheetRow{}).
			Where("sheet = ? AND position = ?", sheet, record.Position).
			Update("cells_json", encoded).Error
		if err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (s *SQLiteStore) UpdateRow(sheet string, match Predicate, cells Row) (bool, error) {
	header, records, err := s.load(sheet)
	if err != nil {
		return false, err
	}
	for _, record := range records {
		rowCells, err := decodeCells(record.CellsJSON)
		if err != nil {
			return false, err
		}
		if !match(zipRow(header, rowCells)) {
			continue
		}
		for len(rowCells) < len(header) {
			rowCells = append(rowCells, "")
		}
		for column, value := range cells {
			if columnIndex := indexOf(header, column); columnIndex >= 0 {
				rowCells[columnIndex] = value
			}
		}
		encoded, err := encodeCells(rowCells)
		if err != nil {
			return false, err
		}
		err = s.db.Model(&SheetRow{}).
			Where("sheet = ? AND position = ?", sheet, record.Position).
			Update("cells_json", encoded).Error
		if err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (s *SQLiteStore) DeleteRow(sheet string, match Predicate) (bool, error) {
	positions, err := s.matchPositions(sheet, match, true)
	if err != nil {
		return false, err
	}
	if len(positions) == 0 {
		return false, nil
	}
	err = s.db.Where("sheet = ? AND position = ?", sheet, positions[0]).Delete(&SheetRow{}).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) DeleteRows(sheet string, match Predicate) (int, error) {
	positions, err := s.matchPositions(sheet, match, false)
	if err != nil {
		return 0, err
	}
	// Delete in reverse position order, mirroring the positional-grid
	// contract even though sqlite rows are keyed rather than shifted.
	deleted := 0
	for index := len(positions) - 1; index >= 0; index-- {
		err := s.db.Where("sheet = ? AND position = ?", sheet, positions[index]).Delete(&SheetRow{}).Error
		if err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (s *SQLiteStore) header(sheet string) ([]string, error) {
	var record SheetRow
	err := s.db.Where("sheet = ? AND position = 0", sheet).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSheetMissing
	}
	if err != nil {
		return nil, err
	}
	return decodeCells(record.CellsJSON)
}

func (s *SQLiteStore) load(sheet string) ([]string, []SheetRow, error) {
	header, err := s.header(sheet)
	if err != nil {
		return nil, nil, err
	}
	var records []SheetRow
	err = s.db.Where("sheet = ? AND position > 0", sheet).Order("position ASC").Find(&records).Error
	if err != nil {
		return nil, nil, err
	}
	return header, records, nil
}

func (s *SQLiteStore) matchPositions(sheet string, match Predicate, firstOnly bool) ([]int64, error) {
	header, records, err := s.load(sheet)
	if err != nil {
		return nil, err
	}
	var positions []int64
	for _, record := range records {
		cells, err := decodeCells(record.CellsJSON)
		if err != nil {
			return nil, err
		}
		if match(zipRow(header, cells)) {
			positions = append(positions, record.Position)
			if firstOnly {
				break
			}
		}
	}
	return positions, nil
}

func encodeCells(cells []string) (string, error) {
	encoded, err := json.Marshal(cells)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func decodeCells(encoded string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(encoded), &cells); err != nil {
		return nil, fmt.Errorf("store: malformed sheet row: %w", err)
	}
	return cells, nil
}
