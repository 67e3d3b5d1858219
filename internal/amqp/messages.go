package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/events"
)

// ChangeMessage is the wire form of an events.Change. It stays small: the
// worker loads the transaction itself.
type ChangeMessage struct {
	Resource      string    `json:"resource"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Version       int64     `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewChangeMessage(c events.Change) *ChangeMessage {
	ts := c.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &ChangeMessage{
		Resource:      string(c.Resource),
		UserID:        c.UserID,
		TransactionID: c.TransactionID,
		Version:       c.Version,
		Timestamp:     ts,
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *ChangeMessage) Change() events.Change {
	return events.Change{
		Resource:      events.Resource(m.Resource),
		UserID:        m.UserID,
		TransactionID: m.TransactionID,
		Version:       m.Version,
		At:            m.Timestamp,
	}
}

// ChangeMessageFromJSON decodes and validates a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Change().Validate(); err != nil {
		return nil, fmt.Errorf("decode change message: %w", err)
	}
	return &msg, nil
}
