package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gastos/internal/sheets"
)

// Table is an in-memory sheets.Table. It backs tests and the default
// local backend.
type Table struct {
	mu   sync.Mutex
	rows [][]string
}

var _ sheets.Table = (*Table)(nil)

func NewTable(rows ...[]string) *Table {
	t := &Table{}
	for _, r := range rows {
		t.rows = append(t.rows, append([]string(nil), r...))
	}
	return t
}

func (t *Table) GetRows(_ context.Context) ([][]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (t *Table) AppendRow(_ context.Context, values []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append(t.rows, append([]string(nil), values...))
	return nil
}

func (t *Table) UpdateRow(_ context.Context, index int, values []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case index < 1 || index > len(t.rows)+1:
		return fmt.Errorf("update row %d: out of range (1..%d)", index, len(t.rows)+1)
	case index == len(t.rows)+1:
		t.rows = append(t.rows, append([]string(nil), values...))
	default:
		t.rows[index-1] = append([]string(nil), values...)
	}
	return nil
}

func (t *Table) InsertRowBefore(_ context.Context, index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 1 || index > len(t.rows)+1 {
		return fmt.Errorf("insert before row %d: out of range (1..%d)", index, len(t.rows)+1)
	}
	t.rows = append(t.rows, nil)
	copy(t.rows[index:], t.rows[index-1:])
	t.rows[index-1] = []string{}
	return nil
}

func (t *Table) ClearRow(_ context.Context, index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 1 || index > len(t.rows) {
		return fmt.Errorf("clear row %d: out of range (1..%d)", index, len(t.rows))
	}
	t.rows[index-1] = []string{}
	return nil
}

// Len reports the current row count. Test helper.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// Row returns a copy of the row at the 1-based index. Test helper.
func (t *Table) Row(index int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 1 || index > len(t.rows) {
		return nil
	}
	return append([]string(nil), t.rows[index-1]...)
}

// Store hands out named in-memory tables, creating them on demand.
type Store struct {
	mu     sync.Mutex
	tables map[string]*Table
}

var _ sheets.Tables = (*Store)(nil)

func NewStore() *Store {
	return &Store{tables: map[string]*Table{}}
}

func (s *Store) Table(name string) sheets.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = strings.TrimSpace(name)
	if t, ok := s.tables[name]; ok {
		return t
	}
	t := NewTable()
	s.tables[name] = t
	return t
}
