package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event names.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
	EventCategoryReplaced   = "category.replaced"
)

// TransactionEvent tells downstream consumers which row changed; they read
// the row itself from the ledger.
type TransactionEvent struct {
	Event         string    `json:"event"`
	TransactionID string    `json:"transaction_id,omitempty"`
	OwnerID       string    `json:"owner_id"`
	Count         int       `json:"count,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(event, owner, id string) *TransactionEvent {
	return &TransactionEvent{
		Event:         event,
		TransactionID: id,
		OwnerID:       owner,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
