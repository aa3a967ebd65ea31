package amqp

import (
	"encoding/json"
	"time"
)

// Event actions carried by TransactionEventMessage.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEventMessage is a lightweight notification that a transaction
// (or its group) was mutated. Consumers that need the full record fetch it
// from storage by id; deleted records are gone, so the message itself is the
// audit trail.
type TransactionEventMessage struct {
	Action        string    `json:"action"`
	TransactionID int64     `json:"transaction_id"`
	GroupID       string    `json:"group_id,omitempty"`
	UserID        int64     `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEventMessage creates an event message stamped with now.
func NewTransactionEventMessage(action string, txID int64, groupID string, userID int64) *TransactionEventMessage {
	return &TransactionEventMessage{
		Action:        action,
		TransactionID: txID,
		GroupID:       groupID,
		UserID:        userID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON creates a message from JSON bytes.
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
