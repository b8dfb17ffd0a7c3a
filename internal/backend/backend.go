// Package backend selects and opens the table store the engine runs on.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"gastos/internal/config"
	"gastos/internal/sheets"
	gsheet "gastos/internal/sheets/google"
	"gastos/internal/sheets/memory"
	"gastos/internal/storage"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Type represents the kind of table store backing the ledger.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	SheetsBackend Type = "sheets"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Open creates the table store named by cfg.DataBackend. The returned
// cleanup is nil-safe to skip when the backend holds no resources.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (sheets.Tables, CleanupFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backendType := Type(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch backendType {
	case SQLiteBackend:
		repo, err := storage.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize sqlite repository: %w", err)
		}
		logger.Info("initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return repo, repo.Close, nil

	case SheetsBackend:
		cli, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize Google Sheets client: %w", err)
		}
		for _, name := range []string{cfg.ExpensesSheet, cfg.CategoriesSheet, cfg.MethodsSheet, cfg.SettingsSheet} {
			if err := cli.EnsureSheet(ctx, name); err != nil {
				return nil, nil, fmt.Errorf("ensure sheet %s: %w", name, err)
			}
		}
		logger.Info("initialized Google Sheets backend", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		return cli, nil, nil

	case MemoryBackend:
		logger.Info("initialized memory backend")
		return memory.NewStore(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", backendType)
	}
}
