package ledger

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gastos/internal/core"
)

// Stored timestamp layouts. New rows are written in RFC 3339; the
// localized layouts cover rows written by the previous system, which
// formatted dates in pt-BR.
var timestampLayouts = []string{
	time.RFC3339,
	"02/01/2006, 15:04:05",
	"02/01/2006 15:04:05",
}

// toRow encodes an expense as a table row matching Header.
func toRow(e core.Expense) []string {
	return []string{
		e.Timestamp.Format(time.RFC3339),
		e.Method,
		e.Category,
		e.Amount.String(),
		e.Note,
	}
}

// fromRow reconstructs an expense from a stored row. Rows with an
// unreadable amount are dropped (ok=false); an unreadable timestamp falls
// back to "now" with a warning, so data corruption stays observable
// instead of silently vanishing.
func (l *Ledger) fromRow(ctx context.Context, index int, row []string) (core.Expense, bool) {
	amount, err := core.ParseMoney(cell(row, 3))
	if err != nil {
		slog.WarnContext(ctx, "skipping ledger row with unreadable amount",
			"row", index, "amount", cell(row, 3))
		return core.Expense{}, false
	}
	return core.Expense{
		Timestamp: l.parseTimestamp(ctx, index, cell(row, 0)),
		Method:    strings.TrimSpace(cell(row, 1)),
		Category:  strings.TrimSpace(cell(row, 2)),
		Amount:    amount,
		Note:      strings.TrimSpace(cell(row, 4)),
	}, true
}

func (l *Ledger) parseTimestamp(ctx context.Context, index int, raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return ts
		}
	}
	slog.WarnContext(ctx, "unparsable ledger timestamp, substituting current time",
		"row", index, "raw", raw)
	return l.now()
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
