package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gastos/internal/core"
	"gastos/internal/parser"
)

// Sentinels recognized at any step ("cancel") or at the note step
// ("skip"). Both the pt-BR words and the English ones are accepted,
// matched by exact normalized equality only: a note that merely mentions
// one of the words is still a note.
var (
	cancelWords = []string{"cancelar", "cancel"}
	skipWords   = []string{"pular", "skip"}
)

// StepResult is the outcome of feeding one message to an open session.
// Exactly one of Prompt, Expense or Canceled is meaningful.
type StepResult struct {
	Prompt   string        // next prompt when the flow continues
	Expense  *core.Expense // assembled expense when the flow completed
	Canceled bool
}

// Flow advances sessions through the guided entry steps. Vocabulary is
// read live at each step, so an entry added mid-flow is usable
// immediately.
type Flow struct {
	methods    parser.Vocabulary
	categories parser.Vocabulary
	now        func() time.Time
}

func NewFlow(methods, categories parser.Vocabulary) *Flow {
	return &Flow{methods: methods, categories: categories, now: time.Now}
}

// StartPrompt is the opening message of the flow, listing the current
// payment methods.
func (f *Flow) StartPrompt(ctx context.Context) string {
	entries, err := f.methods.ListAll(ctx)
	if err != nil || len(entries) == 0 {
		entries = core.DefaultPaymentMethods
	}
	return "💳 *Escolha a forma de pagamento:*\n\n" + numbered(entries)
}

// Advance feeds input to the session and returns the next prompt, the
// finished expense or a cancellation. Any error means the session must be
// destroyed by the caller; there is no retry-in-place.
func (f *Flow) Advance(ctx context.Context, s *Session, input string) (StepResult, error) {
	if matchesAny(input, cancelWords) {
		return StepResult{Canceled: true}, nil
	}

	switch s.State {
	case AwaitingMethod:
		method, err := f.extract(ctx, f.methods, input, "forma de pagamento", "/formas")
		if err != nil {
			return StepResult{}, err
		}
		s.Method = method
		s.State = AwaitingAmount
		return StepResult{Prompt: "💰 *Digite o valor:*\n\nExemplo: 35 ou 50.50"}, nil

	case AwaitingAmount:
		amount, err := core.ParseMoney(input)
		if err != nil {
			return StepResult{}, fmt.Errorf("%w: %q", err, strings.TrimSpace(input))
		}
		s.Amount = amount
		s.State = AwaitingCategory
		entries, err := f.categories.ListAll(ctx)
		if err != nil || len(entries) == 0 {
			entries = core.DefaultCategories
		}
		return StepResult{Prompt: "📝 *Escolha a categoria:*\n\n" + numbered(entries)}, nil

	case AwaitingCategory:
		category, err := f.extract(ctx, f.categories, input, "categoria", "/categorias")
		if err != nil {
			return StepResult{}, err
		}
		s.Category = category
		s.State = AwaitingNote
		return StepResult{Prompt: "📋 *Digite uma observação (opcional):*\n\nOu digite \"pular\" para finalizar."}, nil

	case AwaitingNote:
		note := strings.TrimSpace(input)
		if matchesAny(input, skipWords) {
			note = ""
		}
		e := core.Expense{
			Timestamp: f.now(),
			Method:    s.Method,
			Category:  s.Category,
			Amount:    s.Amount,
			Note:      note,
		}
		return StepResult{Expense: &e}, nil
	}
	return StepResult{}, fmt.Errorf("unexpected session state %v", s.State)
}

// extract matches input against the live vocabulary, accepting the loose
// substring form the keyboard answers produce.
func (f *Flow) extract(ctx context.Context, v parser.Vocabulary, input, field, listCmd string) (string, error) {
	entries, err := v.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: list %s: %v", core.ErrPersistence, field, err)
	}
	if match, ok := parser.MatchLoose(entries, input); ok {
		return match, nil
	}
	return "", fmt.Errorf("%w: %s %q não reconhecida entre as %d opções, veja %s",
		core.ErrUnknownVocabularyEntry, field, strings.TrimSpace(input), len(entries), listCmd)
}

func matchesAny(input string, words []string) bool {
	n := core.Normalize(input)
	for _, w := range words {
		if n == w {
			return true
		}
	}
	return false
}

func numbered(entries []string) string {
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, e)
	}
	return strings.TrimRight(b.String(), "\n")
}
