// Package ledger maintains the expense table: ordered expense rows plus a
// single trailing aggregate row labeled "Total" whose formula sums the
// amount column. Appends go through a protocol that keeps that invariant
// while tolerating leftovers from earlier partial failures.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gastos/internal/core"
	"gastos/internal/sheets"
)

const (
	// AggregateLabel marks the trailing running-sum row.
	AggregateLabel = "Total"

	// amountColumn is the spreadsheet column holding amounts (1-based D).
	amountColumn = "D"

	// firstDataRow is the first row below the header.
	firstDataRow = 2
)

// Header is the first row of the expense table.
var Header = []string{"Data/Hora", "Forma Pagamento", "Categoria", "Valor", "Observação"}

type Ledger struct {
	tab sheets.Table
	now func() time.Time
}

func New(tab sheets.Table) *Ledger {
	return &Ledger{tab: tab, now: time.Now}
}

// EnsureHeader writes the header row when the table is empty. Idempotent.
func (l *Ledger) EnsureHeader(ctx context.Context) error {
	rows, err := l.tab.GetRows(ctx)
	if err != nil {
		return fmt.Errorf("%w: read ledger: %v", core.ErrPersistence, err)
	}
	if len(rows) > 0 {
		return nil
	}
	if err := l.tab.AppendRow(ctx, Header); err != nil {
		return fmt.Errorf("%w: write header: %v", core.ErrPersistence, err)
	}
	return nil
}

// Append writes the expense into the table while preserving the aggregate
// row invariant. The expense write is the durable fact: once it succeeds,
// aggregate bookkeeping failures are logged and swallowed, to be repaired
// by a later append.
func (l *Ledger) Append(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	rows, err := l.tab.GetRows(ctx)
	if err != nil {
		return fmt.Errorf("%w: read ledger: %v", core.ErrPersistence, err)
	}
	if len(rows) == 0 {
		if err := l.tab.AppendRow(ctx, Header); err != nil {
			return fmt.Errorf("%w: write header: %v", core.ErrPersistence, err)
		}
		rows = [][]string{Header}
	}

	total := lastAggregateIndex(rows)
	if total == -1 {
		// No aggregate row yet: the expense becomes the last row, then a
		// fresh aggregate row goes right after it.
		if err := l.tab.AppendRow(ctx, toRow(e)); err != nil {
			return fmt.Errorf("%w: append expense: %v", core.ErrPersistence, err)
		}
		last := len(rows) + 1
		if err := l.tab.AppendRow(ctx, aggregateRow(last)); err != nil {
			slog.WarnContext(ctx, "aggregate row creation failed, will self-heal on next append",
				"row", last+1, "error", err)
		}
		return nil
	}

	// Shift the aggregate row down by one and write the expense into the
	// vacated slot.
	if err := l.tab.InsertRowBefore(ctx, total); err != nil {
		return fmt.Errorf("%w: insert row before aggregate: %v", core.ErrPersistence, err)
	}
	if err := l.tab.UpdateRow(ctx, total, toRow(e)); err != nil {
		return fmt.Errorf("%w: write expense: %v", core.ErrPersistence, err)
	}
	l.refreshAggregate(ctx, rows, total)
	return nil
}

// refreshAggregate rewrites the aggregate formula so it spans exactly the
// data rows, and blanks any stale aggregate rows left behind by earlier
// partial failures. Best-effort: errors are logged, never returned.
//
// rows is the snapshot taken before the insert; total is the pre-insert
// 1-based position of the (last) aggregate row, which now sits at total+1.
func (l *Ledger) refreshAggregate(ctx context.Context, rows [][]string, total int) {
	// Stale duplicates sit above the inserted row, so their indices are
	// unchanged by the shift.
	for i := 1; i < total; i++ {
		if isAggregate(rows[i-1]) {
			if err := l.tab.ClearRow(ctx, i); err != nil {
				slog.WarnContext(ctx, "stale aggregate row cleanup failed", "row", i, "error", err)
			} else {
				slog.InfoContext(ctx, "cleared stale aggregate row", "row", i)
			}
		}
	}
	// New last data row is the slot the expense went into.
	if err := l.tab.UpdateRow(ctx, total+1, aggregateRow(total)); err != nil {
		slog.WarnContext(ctx, "aggregate row refresh failed, will self-heal on next append",
			"row", total+1, "error", err)
	}
}

// ListAll reads every expense row, skipping the header, blank rows and
// aggregate rows. Rows with unreadable amounts are skipped with a warning;
// unreadable timestamps fall back to "now" (see parseTimestamp).
func (l *Ledger) ListAll(ctx context.Context) ([]core.Expense, error) {
	rows, err := l.tab.GetRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read ledger: %v", core.ErrPersistence, err)
	}
	var out []core.Expense
	for i, row := range rows {
		if i == 0 || isBlank(row) || isAggregate(row) {
			continue
		}
		e, ok := l.fromRow(ctx, i+1, row)
		if !ok {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func lastAggregateIndex(rows [][]string) int {
	// Scan from the end: prior partial failures may have left duplicate
	// aggregate rows and only the last one is authoritative.
	for i := len(rows) - 1; i >= 0; i-- {
		if isAggregate(rows[i]) {
			return i + 1
		}
	}
	return -1
}

func isAggregate(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), AggregateLabel)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// aggregateRow builds the trailing row: label in the first column and a
// sum formula over the amount column from the first data row through
// lastDataRow. The range never includes the aggregate row itself.
func aggregateRow(lastDataRow int) []string {
	return []string{
		AggregateLabel, "", "",
		fmt.Sprintf("=SUM(%s%d:%s%d)", amountColumn, firstDataRow, amountColumn, lastDataRow),
		"",
	}
}
