package amqp

import (
	"strings"
	"testing"
	"time"
)

func TestTransactionEventMessage_RoundTrip(t *testing.T) {
	msg := NewTransactionEventMessage(ActionUpdated, 42, "group-1", 7)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	decoded, err := TransactionEventMessageFromJSON(data)
	if err != nil {
		t.Fatalf("TransactionEventMessageFromJSON() error = %v", err)
	}

	if decoded.Action != ActionUpdated {
		t.Errorf("action = %q, want %q", decoded.Action, ActionUpdated)
	}
	if decoded.TransactionID != 42 || decoded.GroupID != "group-1" || decoded.UserID != 7 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Timestamp.IsZero() || time.Since(decoded.Timestamp) > time.Minute {
		t.Errorf("timestamp = %v, want recent", decoded.Timestamp)
	}
}

func TestTransactionEventMessage_GroupIDOmittedWhenEmpty(t *testing.T) {
	msg := NewTransactionEventMessage(ActionDeleted, 1, "", 2)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if strings.Contains(string(data), `"group_id"`) {
		t.Errorf("ToJSON() = %s, want group_id omitted", data)
	}
}
