package store

import "sync"

// MemoryStore keeps every sheet as an in-process grid: header at row 0, data
// rows after it. It backs tests and single-process deployments. A single
// RWMutex serializes all sheet access; read-modify-write sequences spanning
// separate calls remain unguarded, as with any backend.
type MemoryStore struct {
	mu     sync.RWMutex
	sheets map[string]*memorySheet
}

type memorySheet struct {
	header []string
	rows   [][]string
}

// NewMemoryStore constructs an empty in-memory sheet store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sheets: make(map[string]*memorySheet)}
}

func (s *MemoryStore) EnsureSheet(sheet string, header []string) error {
	if len(header) == 0 {
		return ErrEmptyHeader
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sheets[sheet]; exists {
		return nil
	}
	s.sheets[sheet] = &memorySheet{header: append([]string(nil), header...)}
	return nil
}

func (s *MemoryStore) ReadAll(sheet string) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	grid, exists := s.sheets[sheet]
	if !exists {
		return nil, ErrSheetMissing
	}
	rows := make([]Row, 0, len(grid.rows))
	for _, cells := range grid.rows {
		rows = append(rows, zipRow(grid.header, cells))
	}
	return rows, nil
}

func (s *MemoryStore) Append(sheet string, item Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	grid, exists := s.sheets[sheet]
	if !exists {
		return ErrSheetMissing
	}
	grid.rows = append(grid.rows, projectRow(grid.header, item))
	return nil
}

func (s *MemoryStore) UpdateCell(sheet string, match Predicate, column, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	grid, exists := s.sheets[sheet]
	if !exists {
		return false, ErrSheetMissing
	}
	columnIndex := indexOf(grid.header, column)
	if columnIndex < 0 {
		return false, nil
	}
	for _, cells := range grid.rows {
		if match(zipRow(grid.header, cells)) {
			cells[columnIndex] = value
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) UpdateRow(sheet string, match Predicate, cells Row) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	grid, exists := s.sheets[sheet]
	if !exists {
		return false, ErrSheetMissing
	}
	for _, row := range grid.rows {
		if !match(zipRow(grid.header, row)) {
			continue
		}
		for column, value := range cells {
			if columnIndex := indexOf(grid.header, column); columnIndex >= 0 {
				row[columnIndex] = value
			}
		}
		return true, nil
	}
	return false, nil
}

func (s *MemoryStore) DeleteRow(sheet string, match Predicate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	grid, exists := s.sheets[sheet]
	if !exists {
		return false, ErrSheetMissing
	}
	for index, cells := range grid.rows {
		if match(zipRow(grid.header, cells)) {
			grid.rows = append(grid.rows[:index], grid.rows[index+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) DeleteRows(sheet string, match Predicate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	grid, exists := s.sheets[sheet]
	if !exists {
		return 0, ErrSheetMissing
	}
	deleted := 0
	// Iterate backwards so removing a row never shifts a position that has
	// not been visited yet.
	for index := len(grid.rows) - 1; index >= 0; index-- {
		if match(zipRow(grid.header, grid.rows[index])) {
			grid.rows = append(grid.rows[:index], grid.rows[index+1:]...)
			deleted++
		}
	}
	return deleted, nil
}

func indexOf(header []string, column string) int {
	for index, name := range header {
		if name == column {
			return index
		}
	}
	return -1
}
