// Package services orchestrates the engine: it routes free text between
// the guided-entry session and the direct parser, runs the vocabulary and
// cycle commands and formats every user-visible reply. Callers (the cmd
// layer, a chat transport) only pass text in and send the returned body.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/cycle"
	"gastos/internal/ledger"
	"gastos/internal/parser"
	"gastos/internal/session"
	"gastos/internal/sheets"
	"gastos/internal/vocab"
)

// Options wires the engine to one backing store and one user.
type Options struct {
	Tables sheets.Tables

	ExpensesSheet   string
	CategoriesSheet string
	MethodsSheet    string
	SettingsSheet   string

	UserID int64

	// Events is optional; nil disables publishing.
	Events *amqp.Client
}

type Engine struct {
	userID     int64
	ledger     *ledger.Ledger
	categories *vocab.Registry
	methods    *vocab.Registry
	cycles     *cycle.Store
	parser     *parser.Parser
	flow       *session.Flow
	sessions   *session.Store
	events     *amqp.Client
}

func New(opts Options) *Engine {
	categories := vocab.NewRegistry(opts.Tables.Table(opts.CategoriesSheet), "Categoria", core.DefaultCategories)
	methods := vocab.NewRegistry(opts.Tables.Table(opts.MethodsSheet), "FormaPagamento", core.DefaultPaymentMethods)
	return &Engine{
		userID:     opts.UserID,
		ledger:     ledger.New(opts.Tables.Table(opts.ExpensesSheet)),
		categories: categories,
		methods:    methods,
		cycles:     cycle.NewStore(opts.Tables.Table(opts.SettingsSheet)),
		parser:     parser.New(methods, categories),
		flow:       session.NewFlow(methods, categories),
		sessions:   session.NewStore(),
		events:     opts.Events,
	}
}

// Bootstrap prepares the store for first use: headers on the ledger and
// config tables, starter vocabularies when empty. Idempotent.
func (e *Engine) Bootstrap(ctx context.Context) error {
	if err := e.ledger.EnsureHeader(ctx); err != nil {
		return fmt.Errorf("ledger header: %w", err)
	}
	if err := e.cycles.EnsureHeader(ctx); err != nil {
		return fmt.Errorf("config header: %w", err)
	}
	if err := e.categories.EnsureHeader(ctx); err != nil {
		return fmt.Errorf("categories header: %w", err)
	}
	if err := e.methods.EnsureHeader(ctx); err != nil {
		return fmt.Errorf("payment methods header: %w", err)
	}
	if err := e.categories.SeedDefaultsIfEmpty(ctx); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	if err := e.methods.SeedDefaultsIfEmpty(ctx); err != nil {
		return fmt.Errorf("seed payment methods: %w", err)
	}
	return nil
}

// HandleText is the free-text entry point. An open session consumes the
// message first; otherwise expense-looking text goes through the parser
// and anything else gets the usage hint.
func (e *Engine) HandleText(ctx context.Context, text string) string {
	if sess, ok := e.sessions.Get(e.userID); ok {
		return e.advanceSession(ctx, sess, text)
	}
	if e.parser.IsExpenseLike(text) {
		exp, err := e.parser.Parse(ctx, text)
		if err != nil {
			return errReply(err)
		}
		return e.record(ctx, exp)
	}
	return "🤔 Não entendi. Envie `forma, valor, categoria` ou use /menu para o modo guiado.\nVeja /ajuda para os detalhes."
}

// StartGuidedEntry opens a session, replacing any previous one, and
// returns the first prompt.
func (e *Engine) StartGuidedEntry(ctx context.Context) string {
	e.sessions.Set(e.userID, &session.Session{State: session.AwaitingMethod})
	return e.flow.StartPrompt(ctx)
}

// Cancel destroys the open session, if any.
func (e *Engine) Cancel() string {
	if _, ok := e.sessions.Get(e.userID); !ok {
		return "🤷 Nenhuma operação em andamento."
	}
	e.sessions.Delete(e.userID)
	return "❌ Operação cancelada."
}

func (e *Engine) advanceSession(ctx context.Context, sess *session.Session, text string) string {
	res, err := e.flow.Advance(ctx, sess, text)
	if err != nil {
		// No retry-in-place: any step error ends the session.
		e.sessions.Delete(e.userID)
		return errReply(err)
	}
	switch {
	case res.Canceled:
		e.sessions.Delete(e.userID)
		return "❌ Operação cancelada."
	case res.Expense != nil:
		e.sessions.Delete(e.userID)
		return e.record(ctx, *res.Expense)
	default:
		return res.Prompt
	}
}

// record appends the expense and formats the confirmation. The append is
// the durable fact; event publishing is best-effort.
func (e *Engine) record(ctx context.Context, exp core.Expense) string {
	if err := e.ledger.Append(ctx, exp); err != nil {
		slog.ErrorContext(ctx, "expense append failed", "user_id", e.userID, "error", err)
		return errReply(err)
	}
	e.publish(ctx, amqp.NewExpenseRecorded(e.userID, exp))

	var b strings.Builder
	b.WriteString("✅ *Gasto registrado!*\n\n")
	fmt.Fprintf(&b, "💳 Forma: %s\n", exp.Method)
	fmt.Fprintf(&b, "💰 Valor: R$ %s\n", exp.Amount)
	fmt.Fprintf(&b, "📂 Categoria: %s", exp.Category)
	if exp.Note != "" {
		fmt.Fprintf(&b, "\n📝 Obs: %s", exp.Note)
	}
	return b.String()
}

func (e *Engine) publish(ctx context.Context, ev amqp.Event) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "event publish failed", "kind", ev.Kind, "error", err)
	}
}

func (e *Engine) AddCategory(ctx context.Context, name string) string {
	added, err := e.categories.Add(ctx, name)
	if err != nil {
		return errReply(err)
	}
	return fmt.Sprintf("✅ Categoria *%s* adicionada!", added)
}

func (e *Engine) RemoveCategory(ctx context.Context, pos int) string {
	removed, err := e.categories.RemoveByPosition(ctx, pos)
	if err != nil {
		return errReply(err)
	}
	return fmt.Sprintf("✅ Categoria *%s* removida!", removed)
}

func (e *Engine) ListCategories(ctx context.Context) string {
	return e.list(ctx, e.categories, "📂 *Categorias:*", "Nenhuma categoria cadastrada.")
}

func (e *Engine) AddPaymentMethod(ctx context.Context, name string) string {
	added, err := e.methods.Add(ctx, name)
	if err != nil {
		return errReply(err)
	}
	return fmt.Sprintf("✅ Forma de pagamento *%s* adicionada!", added)
}

func (e *Engine) RemovePaymentMethod(ctx context.Context, pos int) string {
	removed, err := e.methods.RemoveByPosition(ctx, pos)
	if err != nil {
		return errReply(err)
	}
	return fmt.Sprintf("✅ Forma de pagamento *%s* removida!", removed)
}

func (e *Engine) ListPaymentMethods(ctx context.Context) string {
	return e.list(ctx, e.methods, "💳 *Formas de pagamento:*", "Nenhuma forma de pagamento cadastrada.")
}

func (e *Engine) list(ctx context.Context, reg *vocab.Registry, title, empty string) string {
	entries, err := reg.ListAll(ctx)
	if err != nil {
		return errReply(err)
	}
	if len(entries) == 0 {
		return "🤷 " + empty
	}
	var b strings.Builder
	b.WriteString(title + "\n\n")
	for i, entry := range entries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, entry)
	}
	return strings.TrimRight(b.String(), "\n")
}

// SetCycleDay stores the day of month the financial cycle starts on.
func (e *Engine) SetCycleDay(ctx context.Context, day int) string {
	if err := e.cycles.SetAnchorDay(ctx, e.userID, day); err != nil {
		return errReply(err)
	}
	return fmt.Sprintf("✅ Dia de início do ciclo definido para *%d*.", day)
}

// Report renders the overall total and the last entries.
func (e *Engine) Report(ctx context.Context) string {
	const maxListed = 10

	entries, err := e.ledger.ListAll(ctx)
	if err != nil {
		return errReply(err)
	}
	if len(entries) == 0 {
		return "📊 Nenhum gasto registrado ainda."
	}

	var total int64
	for _, exp := range entries {
		total += exp.Amount.Cents
	}

	var b strings.Builder
	b.WriteString("📊 *Relatório de gastos*\n\n")
	fmt.Fprintf(&b, "Total geral: R$ %s (%d lançamentos)\n", core.Money{Cents: total}, len(entries))

	b.WriteString("\n*Últimos lançamentos:*\n")
	start := len(entries) - maxListed
	if start < 0 {
		start = 0
	}
	for _, exp := range entries[start:] {
		b.WriteString(formatEntry(exp) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Help documents the message format.
func (e *Engine) Help() string {
	return parser.HelpMessage()
}

func formatEntry(exp core.Expense) string {
	line := fmt.Sprintf("• %s  %s, %s: R$ %s",
		exp.Timestamp.Format("02/01 15:04"), exp.Method, exp.Category, exp.Amount)
	if exp.Note != "" {
		line += " (" + exp.Note + ")"
	}
	return line
}

// errReply maps domain errors onto the fixed pt-BR replies. Unknown errors
// get the generic retry text; details stay in the logs.
func errReply(err error) string {
	switch {
	case errors.Is(err, core.ErrMalformedMessage):
		return "❌ Formato inválido. Use: `forma, valor, categoria, observação`\nVeja /ajuda."
	case errors.Is(err, core.ErrUnknownVocabularyEntry):
		return "❌ Opção não reconhecida. Use /categorias e /formas para ver as opções válidas."
	case errors.Is(err, core.ErrInvalidAmount):
		return "❌ Valor inválido. Use números positivos como 35 ou 50.50."
	case errors.Is(err, core.ErrTooLong):
		return fmt.Sprintf("❌ Nome muito longo. O máximo são %d caracteres.", vocab.MaxEntryLen)
	case errors.Is(err, core.ErrInvalidCharacters):
		return "❌ Use apenas letras e espaços."
	case errors.Is(err, core.ErrAlreadyExists):
		return "❌ Essa opção já existe."
	case errors.Is(err, core.ErrPositionOutOfRange):
		return "❌ Número fora da lista. Use o número mostrado na listagem."
	case errors.Is(err, core.ErrInvalidCycleDay):
		return "❌ Dia inválido. Use um número entre 1 e 31."
	case errors.Is(err, core.ErrPersistence):
		return "⚠️ Não consegui acessar a planilha agora. Tente novamente em instantes."
	default:
		return "⚠️ Algo deu errado. Tente novamente."
	}
}
