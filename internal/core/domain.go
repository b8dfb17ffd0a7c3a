package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Expense is a single ledger entry. Immutable once appended; the
	// ledger never edits or deletes individual entries.
	Expense struct {
		Timestamp time.Time
		Method    string // payment method, normalized
		Category  string // category, normalized
		Amount    Money
		Note      string // optional free text
	}
)

var (
	ErrMalformedMessage       = errors.New("malformed message")
	ErrUnknownVocabularyEntry = errors.New("unknown vocabulary entry")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrTooLong                = errors.New("entry too long")
	ErrInvalidCharacters      = errors.New("entry has invalid characters")
	ErrAlreadyExists          = errors.New("entry already exists")
	ErrPositionOutOfRange     = errors.New("position out of range")
	ErrInvalidCycleDay        = errors.New("invalid cycle day")
	ErrPersistence            = errors.New("persistence failure")
)

// Fixed starter vocabularies. They seed empty registries on first use and
// double as the legacy fallback when the registry cannot be read.
var (
	DefaultPaymentMethods = []string{"cartao", "pix", "dinheiro"}
	DefaultCategories     = []string{
		"comida", "transporte", "lazer", "saude",
		"educacao", "moradia", "vestuario", "outros",
	}
)

func (e Expense) Validate() error {
	if e.Timestamp.IsZero() {
		return errors.New("timestamp cannot be zero")
	}
	if strings.TrimSpace(e.Method) == "" {
		return errors.New("empty payment method")
	}
	if strings.TrimSpace(e.Category) == "" {
		return errors.New("empty category")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return nil
}
