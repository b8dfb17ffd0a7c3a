// Package parser turns one-line chat messages into validated expenses,
// consulting the live vocabularies for payment methods and categories.
package parser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gastos/internal/core"
)

// Delimiter separates the fields of a direct expense message:
// "forma, valor, categoria[, observação...]".
const Delimiter = ","

// Vocabulary is the read-only snapshot the parser consults on every
// message. Implemented by vocab.Registry.
type Vocabulary interface {
	ListAll(ctx context.Context) ([]string, error)
}

type Parser struct {
	methods    Vocabulary
	categories Vocabulary
	now        func() time.Time
}

func New(methods, categories Vocabulary) *Parser {
	return &Parser{methods: methods, categories: categories, now: time.Now}
}

// IsExpenseLike is the cheap pre-check callers use to decide between
// parsing and treating input as conversation: at least three
// delimiter-separated segments.
func (p *Parser) IsExpenseLike(text string) bool {
	return len(strings.Split(text, Delimiter)) >= 3
}

// Parse validates "forma, valor, categoria[, observação...]" against the
// current vocabularies and returns the expense, timestamped now. Remaining
// segments are re-joined with the delimiter to form the note.
func (p *Parser) Parse(ctx context.Context, text string) (core.Expense, error) {
	parts := strings.Split(text, Delimiter)
	if len(parts) < 3 {
		return core.Expense{}, fmt.Errorf(
			"%w: use o formato forma%s valor%s categoria%s observação opcional",
			core.ErrMalformedMessage, Delimiter, Delimiter, Delimiter)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	method, err := p.lookup(ctx, p.methods, parts[0], "forma de pagamento", "/formas")
	if err != nil {
		return core.Expense{}, err
	}
	amount, err := core.ParseMoney(parts[1])
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: %q", err, parts[1])
	}
	category, err := p.lookup(ctx, p.categories, parts[2], "categoria", "/categorias")
	if err != nil {
		return core.Expense{}, err
	}
	note := strings.TrimSpace(strings.Join(parts[3:], Delimiter+" "))

	return core.Expense{
		Timestamp: p.now(),
		Method:    method,
		Category:  category,
		Amount:    amount,
		Note:      note,
	}, nil
}

// lookup resolves input against the vocabulary by exact normalized match.
// A miss names the field, the rejected input, how many entries are valid
// and the command that lists them.
func (p *Parser) lookup(ctx context.Context, v Vocabulary, input, field, listCmd string) (string, error) {
	entries, err := v.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: list %s: %v", core.ErrPersistence, field, err)
	}
	if match, ok := Match(entries, input); ok {
		return match, nil
	}
	return "", fmt.Errorf("%w: %s %q não reconhecida entre as %d opções, veja %s",
		core.ErrUnknownVocabularyEntry, field, input, len(entries), listCmd)
}

// Match finds the entry equal to input after normalization.
func Match(entries []string, input string) (string, bool) {
	n := core.Normalize(input)
	if n == "" {
		return "", false
	}
	for _, e := range entries {
		if core.Normalize(e) == n {
			return core.Normalize(e), true
		}
	}
	return "", false
}

// MatchLoose also accepts input that contains an entry, for guided-entry
// answers like "💳 Cartão". Exact matches win over substring hits.
func MatchLoose(entries []string, input string) (string, bool) {
	if m, ok := Match(entries, input); ok {
		return m, true
	}
	n := core.Normalize(input)
	if n == "" {
		return "", false
	}
	for _, e := range entries {
		ne := core.Normalize(e)
		if ne != "" && strings.Contains(n, ne) {
			return ne, true
		}
	}
	return "", false
}

// HelpMessage documents the direct-message format for the transport to
// send on /ajuda.
func HelpMessage() string {
	return strings.TrimSpace(`
📝 *Como registrar um gasto:*

*Formato:*
` + "`forma, valor, categoria, observação`" + `

*Exemplos:*
` + "`cartao, 35, comida, almoço no centro`" + `
` + "`pix, 50.50, transporte, uber`" + `
` + "`dinheiro, 20, lazer`" + `

Use /formas e /categorias para ver as opções válidas
e /menu para o modo interativo.`)
}
