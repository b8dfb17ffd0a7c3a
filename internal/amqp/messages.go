package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"gastos/internal/core"
)

const (
	KindExpenseRecorded = "expense.recorded"
	KindDailySummary    = "summary.daily"
)

// Event is the message published after a successful ledger append or a
// daily summary run. Consumers are external (notification transports);
// the engine never depends on them.
type Event struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`

	// Expense fields, set for expense.recorded.
	Method   string `json:"method,omitempty"`
	Category string `json:"category,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Note     string `json:"note,omitempty"`

	// Body is the formatted reply, set for summary.daily.
	Body string `json:"body,omitempty"`
}

func NewExpenseRecorded(userID int64, e core.Expense) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      KindExpenseRecorded,
		UserID:    userID,
		Timestamp: time.Now(),
		Method:    e.Method,
		Category:  e.Category,
		Amount:    e.Amount.String(),
		Note:      e.Note,
	}
}

func NewDailySummary(userID int64, body string) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      KindDailySummary,
		UserID:    userID,
		Timestamp: time.Now(),
		Body:      body,
	}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}
