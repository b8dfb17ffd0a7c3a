// Package cycle keeps the per-user financial-cycle configuration and the
// period arithmetic built on it: the anchored monthly window, the
// trailing-30-day fallback and the fixed 21:00 daily window.
package cycle

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"gastos/internal/core"
	"gastos/internal/sheets"
)

// Header of the config table: one row per user.
var Header = []string{"UserId", "DiaInicio"}

// Store persists the cycle anchor day per user in a two-column table.
type Store struct {
	mu  sync.Mutex
	tab sheets.Table
}

func NewStore(tab sheets.Table) *Store {
	return &Store{tab: tab}
}

// EnsureHeader writes the header row when the table is empty. Idempotent.
func (s *Store) EnsureHeader(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.tab.GetRows(ctx)
	if err != nil {
		return fmt.Errorf("%w: read config: %v", core.ErrPersistence, err)
	}
	if len(rows) > 0 {
		return nil
	}
	if err := s.tab.AppendRow(ctx, Header); err != nil {
		return fmt.Errorf("%w: write header: %v", core.ErrPersistence, err)
	}
	return nil
}

// SetAnchorDay creates or updates the user's cycle anchor day (1..31).
func (s *Store) SetAnchorDay(ctx context.Context, userID int64, day int) error {
	if day < 1 || day > 31 {
		return fmt.Errorf("%w: %d, use um número entre 1 e 31", core.ErrInvalidCycleDay, day)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.tab.GetRows(ctx)
	if err != nil {
		return fmt.Errorf("%w: read config: %v", core.ErrPersistence, err)
	}
	values := []string{strconv.FormatInt(userID, 10), strconv.Itoa(day)}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if id, err := strconv.ParseInt(cell(row, 0), 10, 64); err == nil && id == userID {
			if err := s.tab.UpdateRow(ctx, i+1, values); err != nil {
				return fmt.Errorf("%w: update config: %v", core.ErrPersistence, err)
			}
			return nil
		}
	}
	if err := s.tab.AppendRow(ctx, values); err != nil {
		return fmt.Errorf("%w: save config: %v", core.ErrPersistence, err)
	}
	return nil
}

// AnchorDay returns the user's configured day. ok=false means no cycle is
// configured, which is distinct from any day value.
func (s *Store) AnchorDay(ctx context.Context, userID int64) (day int, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.tab.GetRows(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("%w: read config: %v", core.ErrPersistence, err)
	}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		id, err := strconv.ParseInt(cell(row, 0), 10, 64)
		if err != nil || id != userID {
			continue
		}
		day, err := strconv.Atoi(cell(row, 1))
		if err != nil || day < 1 || day > 31 {
			return 0, false, nil
		}
		return day, true, nil
	}
	return 0, false, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
