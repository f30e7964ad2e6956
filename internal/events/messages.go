// Package events carries record change notifications between the API and
// the export worker.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fieldlog/internal/core"
)

// Action names the mutation that produced a change message.
type Action string

const (
	ActionUpsert Action = "upsert"
	ActionRemove Action = "remove"
	ActionClear  Action = "clear"
)

// RecordChangedMessage tells consumers that a company's record list changed.
// It carries no record payload; consumers re-read the store.
type RecordChangedMessage struct {
	ID        uuid.UUID      `json:"id"`
	Company   core.CompanyID `json:"company"`
	Action    Action         `json:"action"`
	RecordID  string         `json:"recordId,omitempty"`
	Timestamp time.Time      `json:"timestamp"`

	// ReceivedAt is set by the consumer, on its own clock, when the message
	// is taken off the broker. It is never sent over the wire.
	ReceivedAt time.Time `json:"-"`
}

func NewRecordChangedMessage(company core.CompanyID, action Action, recordID string) *RecordChangedMessage {
	return &RecordChangedMessage{
		ID:        uuid.New(),
		Company:   company,
		Action:    action,
		RecordID:  recordID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *RecordChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangedMessageFromJSON decodes a message and checks the company.
func RecordChangedMessageFromJSON(data []byte) (*RecordChangedMessage, error) {
	var msg RecordChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	company, err := core.ParseCompany(string(msg.Company))
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", msg.ID, err)
	}
	msg.Company = company
	return &msg, nil
}
