package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gastos/internal/core"
	"gastos/internal/cycle"
)

// maxSummaryEntries caps the per-entry listing in the daily summary.
const maxSummaryEntries = 10

// DailySummary renders the end-of-day report for the window ending at
// 21:00 today. It never fails: when the store is unreachable the caller
// gets a neutral body and the error goes to the log.
func (e *Engine) DailySummary(ctx context.Context, now time.Time) string {
	entries, err := e.ledger.ListAll(ctx)
	if err != nil {
		slog.WarnContext(ctx, "daily summary skipped, ledger unreadable", "error", err)
		return "📭 Não foi possível gerar o resumo de hoje."
	}

	w := cycle.DailyWindow(now)
	var today []core.Expense
	var total int64
	for _, exp := range entries {
		if w.Contains(exp.Timestamp) {
			today = append(today, exp)
			total += exp.Amount.Cents
		}
	}

	var b strings.Builder
	if len(today) == 0 {
		b.WriteString("📭 Nenhum gasto registrado hoje. 🎉")
	} else {
		b.WriteString("🌙 *Resumo do dia*\n\n")
		fmt.Fprintf(&b, "💰 Total: R$ %s (%d lançamentos)\n", core.Money{Cents: total}, len(today))
		if len(today) <= maxSummaryEntries {
			b.WriteString("\n")
			for _, exp := range today {
				b.WriteString(formatEntry(exp) + "\n")
			}
		}
	}

	if period := e.periodSummary(ctx, now, entries); period != "" {
		b.WriteString("\n\n" + period)
	}
	return strings.TrimRight(b.String(), "\n")
}

// periodSummary appends the cycle-window total: the anchored window when a
// cycle day is configured, the trailing 30 days otherwise. Best-effort.
func (e *Engine) periodSummary(ctx context.Context, now time.Time, entries []core.Expense) string {
	day, anchored, err := e.cycles.AnchorDay(ctx, e.userID)
	if err != nil {
		slog.WarnContext(ctx, "period summary skipped, config unreadable", "error", err)
		return ""
	}

	w := cycle.CurrentWindow(day, anchored, now)
	var total int64
	for _, exp := range entries {
		if w.Contains(exp.Timestamp) {
			total += exp.Amount.Cents
		}
	}

	if anchored {
		return fmt.Sprintf("📅 Gastos no ciclo atual: R$ %s\n⏳ Faltam %d dias para o próximo ciclo.",
			core.Money{Cents: total}, cycle.DaysUntilCycleStart(day, now))
	}
	return fmt.Sprintf("📅 Gastos nos últimos 30 dias: R$ %s\n💡 Defina o dia do seu ciclo com /configurar.",
		core.Money{Cents: total})
}
