package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gastos/internal/core"
	"gastos/internal/sheets/memory"
)

func expense(cents int64, category string) core.Expense {
	return core.Expense{
		Timestamp: time.Date(2025, 3, 10, 12, 30, 0, 0, time.Local),
		Method:    "pix",
		Category:  category,
		Amount:    core.Money{Cents: cents},
		Note:      "nota",
	}
}

func TestAppendMaintainsSingleAggregateRow(t *testing.T) {
	ctx := context.Background()
	tab := memory.NewTable()
	l := New(tab)

	if err := l.EnsureHeader(ctx); err != nil {
		t.Fatalf("ensure header: %v", err)
	}

	for i, cents := range []int64{1000, 2000, 3500} {
		if err := l.Append(ctx, expense(cents, "comida")); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	rows, _ := tab.GetRows(ctx)
	if len(rows) != 5 { // header + 3 expenses + total
		t.Fatalf("expected 5 rows, got %d: %v", len(rows), rows)
	}
	var totals int
	for _, r := range rows {
		if isAggregate(r) {
			totals++
		}
	}
	if totals != 1 {
		t.Fatalf("expected exactly one aggregate row, got %d", totals)
	}
	last := rows[len(rows)-1]
	if !isAggregate(last) {
		t.Fatalf("aggregate row must be last, got %v", last)
	}
	if last[3] != "=SUM(D2:D4)" {
		t.Fatalf("unexpected formula %q", last[3])
	}

	// A fourth append re-derives the invariant with the range extended.
	if err := l.Append(ctx, expense(500, "lazer")); err != nil {
		t.Fatalf("append 4th: %v", err)
	}
	rows, _ = tab.GetRows(ctx)
	last = rows[len(rows)-1]
	if len(rows) != 6 || !isAggregate(last) || last[3] != "=SUM(D2:D5)" {
		t.Fatalf("invariant broken after 4th append: %v", rows)
	}

	list, err := l.ListAll(ctx)
	if err != nil || len(list) != 4 {
		t.Fatalf("list: %v err=%v", list, err)
	}
	var sum int64
	for _, e := range list {
		sum += e.Amount.Cents
	}
	if sum != 7000 {
		t.Fatalf("expected sum 7000, got %d", sum)
	}
}

func TestAppendHealsDuplicateAggregateRows(t *testing.T) {
	ctx := context.Background()
	// A previous partial failure left two Total rows.
	tab := memory.NewTable(
		Header,
		toRow(expense(1000, "comida")),
		aggregateRow(2),
		toRow(expense(2000, "lazer")),
		aggregateRow(4),
	)
	l := New(tab)

	if err := l.Append(ctx, expense(500, "saude")); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows, _ := tab.GetRows(ctx)
	var totals int
	for _, r := range rows {
		if isAggregate(r) {
			totals++
		}
	}
	if totals != 1 {
		t.Fatalf("expected stale aggregate rows cleared, got %d in %v", totals, rows)
	}
	last := rows[len(rows)-1]
	if !isAggregate(last) || last[3] != "=SUM(D2:D5)" {
		t.Fatalf("unexpected trailing aggregate: %v", last)
	}

	// The blanked stale row is invisible to readers.
	list, err := l.ListAll(ctx)
	if err != nil || len(list) != 3 {
		t.Fatalf("expected 3 expenses after heal, got %v err=%v", list, err)
	}
}

func TestListAllRoundTripAndTimestampFallback(t *testing.T) {
	ctx := context.Background()
	tab := memory.NewTable()
	l := New(tab)
	l.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local) }

	in := core.Expense{
		Timestamp: time.Date(2025, 5, 20, 18, 45, 3, 0, time.Local),
		Method:    "cartao",
		Category:  "transporte",
		Amount:    core.Money{Cents: 5050},
	}
	if err := l.Append(ctx, in); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Legacy pt-BR formatted row and one with garbage in the date column.
	tab.UpdateRow(ctx, 3, []string{"20/05/2025, 08:00:00", "pix", "comida", "12,30", "café"})
	tab.AppendRow(ctx, aggregateRow(3))
	tab.UpdateRow(ctx, 5, []string{"not-a-date", "dinheiro", "lazer", "7.00", ""})

	list, err := l.ListAll(ctx)
	if err != nil || len(list) != 3 {
		t.Fatalf("list: %v err=%v", list, err)
	}
	got := list[0]
	if !got.Timestamp.Equal(in.Timestamp) || got.Method != "cartao" ||
		got.Category != "transporte" || got.Amount.Cents != 5050 || got.Note != "" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	if list[1].Amount.Cents != 1230 || list[1].Timestamp.Hour() != 8 {
		t.Fatalf("legacy layout not parsed: %+v", list[1])
	}
	if !list[2].Timestamp.Equal(l.now()) {
		t.Fatalf("expected now-fallback timestamp, got %v", list[2].Timestamp)
	}
}

type failingTable struct{ err error }

func (f failingTable) GetRows(context.Context) ([][]string, error)    { return nil, f.err }
func (f failingTable) AppendRow(context.Context, []string) error      { return f.err }
func (f failingTable) UpdateRow(context.Context, int, []string) error { return f.err }
func (f failingTable) InsertRowBefore(context.Context, int) error     { return f.err }
func (f failingTable) ClearRow(context.Context, int) error            { return f.err }

func TestAppendWrapsStoreErrors(t *testing.T) {
	l := New(failingTable{err: errors.New("boom")})
	err := l.Append(context.Background(), expense(100, "comida"))
	if !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected cause in message, got %v", err)
	}
}
