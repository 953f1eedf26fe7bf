package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"zoexpense/internal/core"
)

// ExpenseRecordedMessage announces a stored record. It carries enough for
// consumers to decide which report windows are affected without a lookup.
type ExpenseRecordedMessage struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	AmountMinor int64     `json:"amount_minor"`
	Category    string    `json:"category"`
	Timestamp   time.Time `json:"timestamp"`
}

var errIncompleteMessage = errors.New("message missing id or date")

func NewExpenseRecordedMessage(e core.Expense) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{
		ID:          e.ID,
		Date:        e.Date,
		AmountMinor: int64(e.Amount),
		Category:    e.Category.String(),
		Timestamp:   time.Now(),
	}
}

func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseRecordedMessageFromJSON decodes a message and rejects ones without
// an id or a valid date.
func ExpenseRecordedMessageFromJSON(data []byte) (*ExpenseRecordedMessage, error) {
	var msg ExpenseRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" || !core.ValidDate(msg.Date) {
		return nil, errIncompleteMessage
	}
	return &msg, nil
}
