// Package vocab manages the small ordered vocabularies (categories and
// payment methods) stored as single-column tables. Entries are normalized,
// append-only and 1-based; display numbering follows insertion order.
package vocab

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"gastos/internal/core"
	"gastos/internal/sheets"
)

// MaxEntryLen caps vocabulary entries, matching the message-side limits.
const MaxEntryLen = 20

// Raw input may carry accents; they are stripped by normalization before
// storage, so the stored alphabet is ASCII letters plus spaces.
var validEntry = regexp.MustCompile(`^[a-záéíóúâêôãõç ]+$`)

// Registry is a write-through cache over one vocabulary table. Reads serve
// the in-memory ordered list after the first load; every mutation goes to
// the store first.
type Registry struct {
	mu       sync.Mutex
	tab      sheets.Table
	header   string
	defaults []string

	loaded    bool
	hasHeader bool
	entries   []string
}

func NewRegistry(tab sheets.Table, header string, defaults []string) *Registry {
	return &Registry{tab: tab, header: header, defaults: defaults}
}

// EnsureHeader writes the header row when the table is empty. Idempotent.
func (r *Registry) EnsureHeader(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(ctx); err != nil {
		return err
	}
	return r.writeHeader(ctx)
}

// ListAll returns the current entries in insertion order.
func (r *Registry) ListAll(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(ctx); err != nil {
		return nil, err
	}
	return append([]string(nil), r.entries...), nil
}

// Add normalizes name and appends it to the vocabulary. It rejects empty
// or non-letter input, entries over MaxEntryLen runes and duplicates.
func (r *Registry) Add(ctx context.Context, name string) (string, error) {
	normalized := core.Normalize(name)
	if normalized == "" {
		return "", fmt.Errorf("%w: empty entry", core.ErrInvalidCharacters)
	}
	if len([]rune(normalized)) > MaxEntryLen {
		return "", fmt.Errorf("%w: %q exceeds %d characters", core.ErrTooLong, normalized, MaxEntryLen)
	}
	if !validEntry.MatchString(strings.ToLower(strings.TrimSpace(name))) {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidCharacters, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(ctx); err != nil {
		return "", err
	}
	for _, e := range r.entries {
		if e == normalized {
			return "", fmt.Errorf("%w: %q", core.ErrAlreadyExists, normalized)
		}
	}
	if err := r.writeHeader(ctx); err != nil {
		return "", err
	}
	if err := r.tab.AppendRow(ctx, []string{normalized}); err != nil {
		return "", fmt.Errorf("%w: append %q: %v", core.ErrPersistence, normalized, err)
	}
	r.entries = append(r.entries, normalized)
	slog.InfoContext(ctx, "vocabulary entry added", "table", r.header, "entry", normalized)
	return normalized, nil
}

// RemoveByPosition deletes the entry at the 1-based position shown by
// ListAll. The table is re-read first so a stale index fails with
// ErrPositionOutOfRange instead of silently removing the wrong entry.
func (r *Registry) RemoveByPosition(ctx context.Context, pos int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	if err := r.load(ctx); err != nil {
		return "", err
	}
	if pos < 1 || pos > len(r.entries) {
		return "", fmt.Errorf("%w: position %d, valid range 1..%d",
			core.ErrPositionOutOfRange, pos, len(r.entries))
	}
	removed := r.entries[pos-1]
	next := make([]string, 0, len(r.entries)-1)
	next = append(next, r.entries[:pos-1]...)
	next = append(next, r.entries[pos:]...)
	if err := r.rewrite(ctx, next); err != nil {
		r.loaded = false
		return "", err
	}
	r.entries = next
	slog.InfoContext(ctx, "vocabulary entry removed", "table", r.header, "entry", removed, "position", pos)
	return removed, nil
}

// SeedDefaultsIfEmpty inserts the starter list when the vocabulary is
// empty. Calling it on a non-empty registry is a no-op.
func (r *Registry) SeedDefaultsIfEmpty(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(ctx); err != nil {
		return err
	}
	if len(r.entries) > 0 {
		return nil
	}
	if err := r.writeHeader(ctx); err != nil {
		return err
	}
	for _, d := range r.defaults {
		if err := r.tab.AppendRow(ctx, []string{d}); err != nil {
			r.loaded = false
			return fmt.Errorf("%w: seed %q: %v", core.ErrPersistence, d, err)
		}
		r.entries = append(r.entries, d)
	}
	slog.InfoContext(ctx, "vocabulary seeded with defaults", "table", r.header, "count", len(r.defaults))
	return nil
}

// load fills the cache from the table. Read-only: a brand-new table gets
// its header lazily from the first mutation (or EnsureHeader), never from
// a list. Caller holds the mutex.
func (r *Registry) load(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	rows, err := r.tab.GetRows(ctx)
	if err != nil {
		return fmt.Errorf("%w: read vocabulary: %v", core.ErrPersistence, err)
	}
	r.hasHeader = len(rows) > 0
	if len(rows) == 0 {
		rows = [][]string{nil}
	}
	entries := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		v := core.Normalize(row[0])
		if v == "" {
			continue
		}
		entries = append(entries, v)
	}
	r.entries = entries
	r.loaded = true
	return nil
}

// writeHeader appends the header row when the table is still brand new.
// Caller holds the mutex and has loaded the cache.
func (r *Registry) writeHeader(ctx context.Context) error {
	if r.hasHeader {
		return nil
	}
	if err := r.tab.AppendRow(ctx, []string{r.header}); err != nil {
		return fmt.Errorf("%w: write header: %v", core.ErrPersistence, err)
	}
	r.hasHeader = true
	return nil
}

// rewrite replaces the whole data region with next, clearing the leftover
// tail. The store has no row deletion, so removal is a compacting
// clear-and-rewrite of rows 2..N, same as the previous system did.
func (r *Registry) rewrite(ctx context.Context, next []string) error {
	rows, err := r.tab.GetRows(ctx)
	if err != nil {
		return fmt.Errorf("%w: read vocabulary: %v", core.ErrPersistence, err)
	}
	for i, v := range next {
		if err := r.tab.UpdateRow(ctx, i+2, []string{v}); err != nil {
			return fmt.Errorf("%w: rewrite row %d: %v", core.ErrPersistence, i+2, err)
		}
	}
	for i := len(next) + 2; i <= len(rows); i++ {
		if err := r.tab.ClearRow(ctx, i); err != nil {
			return fmt.Errorf("%w: clear row %d: %v", core.ErrPersistence, i, err)
		}
	}
	return nil
}
