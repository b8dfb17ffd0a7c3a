// Package storage is the local-first backend: the same positional row
// tables the spreadsheet store exposes, kept in sqlite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gastos/internal/sheets"

	_ "modernc.org/sqlite"
)

const columns = 5

type Repository struct {
	db *sql.DB
}

var _ sheets.Tables = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Table(name string) sheets.Table {
	return &table{db: r.db, sheet: strings.TrimSpace(name)}
}

// table implements sheets.Table over the positional rows schema. pos is
// the 1-based row index within one sheet.
type table struct {
	db    *sql.DB
	sheet string
}

func (t *table) GetRows(ctx context.Context) ([][]string, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT c0, c1, c2, c3, c4 FROM rows WHERE sheet = ? ORDER BY pos`, t.sheet)
	if err != nil {
		return nil, fmt.Errorf("select rows: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		cells := make([]string, columns)
		if err := rows.Scan(&cells[0], &cells[1], &cells[2], &cells[3], &cells[4]); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		// Trim the trailing empty cells so rows look like spreadsheet
		// reads: a cleared row comes back with zero cells.
		n := columns
		for n > 0 && cells[n-1] == "" {
			n--
		}
		out = append(out, cells[:n])
	}
	return out, rows.Err()
}

func (t *table) AppendRow(ctx context.Context, values []string) error {
	c := pad(values)
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO rows (sheet, pos, c0, c1, c2, c3, c4)
		 VALUES (?, (SELECT COALESCE(MAX(pos), 0) + 1 FROM rows WHERE sheet = ?), ?, ?, ?, ?, ?)`,
		t.sheet, t.sheet, c[0], c[1], c[2], c[3], c[4])
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

func (t *table) UpdateRow(ctx context.Context, index int, values []string) error {
	if index < 1 {
		return fmt.Errorf("update row %d: out of range", index)
	}
	c := pad(values)
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO rows (sheet, pos, c0, c1, c2, c3, c4) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (sheet, pos) DO UPDATE SET c0=excluded.c0, c1=excluded.c1,
		 c2=excluded.c2, c3=excluded.c3, c4=excluded.c4`,
		t.sheet, index, c[0], c[1], c[2], c[3], c[4])
	if err != nil {
		return fmt.Errorf("update row %d: %w", index, err)
	}
	return nil
}

func (t *table) InsertRowBefore(ctx context.Context, index int) error {
	if index < 1 {
		return fmt.Errorf("insert before row %d: out of range", index)
	}
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	// Two-phase shift through negative positions to dodge the unique
	// (sheet, pos) constraint while renumbering.
	if _, err := tx.ExecContext(ctx,
		`UPDATE rows SET pos = -(pos + 1) WHERE sheet = ? AND pos >= ?`, t.sheet, index); err != nil {
		return fmt.Errorf("shift rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE rows SET pos = -pos WHERE sheet = ? AND pos < 0`, t.sheet); err != nil {
		return fmt.Errorf("shift rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rows (sheet, pos) VALUES (?, ?)`, t.sheet, index); err != nil {
		return fmt.Errorf("insert blank row: %w", err)
	}
	return tx.Commit()
}

func (t *table) ClearRow(ctx context.Context, index int) error {
	res, err := t.db.ExecContext(ctx,
		`UPDATE rows SET c0='', c1='', c2='', c3='', c4='' WHERE sheet = ? AND pos = ?`,
		t.sheet, index)
	if err != nil {
		return fmt.Errorf("clear row %d: %w", index, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("clear row %d: out of range", index)
	}
	return nil
}

func pad(values []string) []string {
	c := make([]string, columns)
	copy(c, values)
	return c
}
