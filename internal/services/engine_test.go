package services

import (
	"context"
	"strings"
	"testing"

	"gastos/internal/sheets/memory"
)

func newTestEngine(t *testing.T) (*Engine, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	e := New(Options{
		Tables:          store,
		ExpensesSheet:   "Gasto",
		CategoriesSheet: "Categorias",
		MethodsSheet:    "FormasPagamento",
		SettingsSheet:   "Config",
		UserID:          7,
	})
	if err := e.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return e, store
}

func TestHandleTextDirectExpense(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t)

	reply := e.HandleText(ctx, "cartao, 35, comida, almoço no centro")
	if !strings.Contains(reply, "Gasto registrado") {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if !strings.Contains(reply, "R$ 35.00") || !strings.Contains(reply, "almoço no centro") {
		t.Fatalf("confirmation missing details: %q", reply)
	}

	rows, err := store.Table("Gasto").GetRows(ctx)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	// Header, expense, aggregate row.
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[2][0] != "Total" {
		t.Fatalf("expected trailing aggregate row, got %v", rows[2])
	}
}

func TestHandleTextRejectsUnknownVocabulary(t *testing.T) {
	e, _ := newTestEngine(t)

	reply := e.HandleText(context.Background(), "boleto, 35, comida")
	if !strings.Contains(reply, "Opção não reconhecida") {
		t.Fatalf("unexpected reply: %q", reply)
	}

	reply = e.HandleText(context.Background(), "cartao, 35, festas")
	if !strings.Contains(reply, "Opção não reconhecida") {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestHandleTextRejectsBadAmount(t *testing.T) {
	e, _ := newTestEngine(t)
	for _, amount := range []string{"abc", "-5", "12.345"} {
		reply := e.HandleText(context.Background(), "cartao, "+amount+", comida")
		if !strings.Contains(reply, "Valor inválido") {
			t.Fatalf("amount %q: unexpected reply %q", amount, reply)
		}
	}
}

func TestHandleTextConversational(t *testing.T) {
	e, _ := newTestEngine(t)
	reply := e.HandleText(context.Background(), "oi, tudo bem")
	// Two segments only: not expense-like.
	if !strings.Contains(reply, "Não entendi") {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestGuidedFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t)

	prompt := e.StartGuidedEntry(ctx)
	if !strings.Contains(prompt, "forma de pagamento") {
		t.Fatalf("unexpected start prompt: %q", prompt)
	}
	if reply := e.HandleText(ctx, "pix"); !strings.Contains(reply, "valor") {
		t.Fatalf("after method: %q", reply)
	}
	if reply := e.HandleText(ctx, "35"); !strings.Contains(reply, "categoria") {
		t.Fatalf("after amount: %q", reply)
	}
	if reply := e.HandleText(ctx, "comida"); !strings.Contains(reply, "observação") {
		t.Fatalf("after category: %q", reply)
	}
	reply := e.HandleText(ctx, "pular")
	if !strings.Contains(reply, "Gasto registrado") {
		t.Fatalf("after note: %q", reply)
	}

	rows, _ := store.Table("Gasto").GetRows(ctx)
	if len(rows) != 3 {
		t.Fatalf("expected header + expense + aggregate, got %d rows", len(rows))
	}

	// Session is gone: free text routes to the usage hint again.
	if reply := e.HandleText(ctx, "oi"); !strings.Contains(reply, "Não entendi") {
		t.Fatalf("session not destroyed: %q", reply)
	}
}

func TestGuidedFlowNoteMentioningSentinelWords(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	for _, note := range []string{"vou pular o rodizio hoje", "cancelei a academia"} {
		e.StartGuidedEntry(ctx)
		e.HandleText(ctx, "pix")
		e.HandleText(ctx, "35")
		e.HandleText(ctx, "comida")
		reply := e.HandleText(ctx, note)
		if !strings.Contains(reply, "Gasto registrado") || !strings.Contains(reply, note) {
			t.Fatalf("note %q: unexpected reply %q", note, reply)
		}
	}
}

func TestGuidedFlowCancel(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	e.StartGuidedEntry(ctx)
	if reply := e.HandleText(ctx, "cancelar"); !strings.Contains(reply, "cancelada") {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if reply := e.HandleText(ctx, "oi"); !strings.Contains(reply, "Não entendi") {
		t.Fatalf("session not destroyed: %q", reply)
	}
}

func TestGuidedFlowErrorDestroysSession(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	e.StartGuidedEntry(ctx)
	if reply := e.HandleText(ctx, "boleto"); !strings.Contains(reply, "Opção não reconhecida") {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if reply := e.HandleText(ctx, "pix"); !strings.Contains(reply, "Não entendi") {
		t.Fatalf("session should be gone after error: %q", reply)
	}
}

func TestCancelWithoutSession(t *testing.T) {
	e, _ := newTestEngine(t)
	if reply := e.Cancel(); !strings.Contains(reply, "Nenhuma operação") {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestVocabularyCommands(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	if reply := e.AddCategory(ctx, "Farmácia"); !strings.Contains(reply, "farmacia") {
		t.Fatalf("add: %q", reply)
	}
	if reply := e.ListCategories(ctx); !strings.Contains(reply, "9. farmacia") {
		t.Fatalf("list: %q", reply)
	}
	if reply := e.AddCategory(ctx, "farmacia"); !strings.Contains(reply, "já existe") {
		t.Fatalf("duplicate: %q", reply)
	}
	if reply := e.AddCategory(ctx, "caf3!"); !strings.Contains(reply, "apenas letras") {
		t.Fatalf("invalid chars: %q", reply)
	}
	if reply := e.RemoveCategory(ctx, 99); !strings.Contains(reply, "fora da lista") {
		t.Fatalf("out of range: %q", reply)
	}
	if reply := e.RemoveCategory(ctx, 9); !strings.Contains(reply, "removida") {
		t.Fatalf("remove: %q", reply)
	}

	// New entries are usable immediately in parsing.
	e.AddPaymentMethod(ctx, "boleto")
	if reply := e.HandleText(ctx, "boleto, 12, comida"); !strings.Contains(reply, "Gasto registrado") {
		t.Fatalf("new method not usable: %q", reply)
	}
	if reply := e.ListPaymentMethods(ctx); !strings.Contains(reply, "4. boleto") {
		t.Fatalf("list methods: %q", reply)
	}
}

func TestSetCycleDay(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	if reply := e.SetCycleDay(ctx, 0); !strings.Contains(reply, "Dia inválido") {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if reply := e.SetCycleDay(ctx, 15); !strings.Contains(reply, "15") {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	if reply := e.Report(ctx); !strings.Contains(reply, "Nenhum gasto") {
		t.Fatalf("empty report: %q", reply)
	}

	e.HandleText(ctx, "cartao, 35, comida")
	e.HandleText(ctx, "pix, 50.50, transporte, uber")

	reply := e.Report(ctx)
	if !strings.Contains(reply, "R$ 85.50") || !strings.Contains(reply, "2 lançamentos") {
		t.Fatalf("report totals wrong: %q", reply)
	}
	if !strings.Contains(reply, "uber") {
		t.Fatalf("report missing entry detail: %q", reply)
	}
}
