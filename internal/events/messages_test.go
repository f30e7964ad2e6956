package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldlog/internal/core"
)

func TestNewRecordChangedMessage(t *testing.T) {
	msg := NewRecordChangedMessage(core.EMS, ActionUpsert, "r1")

	assert.NotEqual(t, uuid.Nil, msg.ID)
	assert.Equal(t, core.EMS, msg.Company)
	assert.Equal(t, ActionUpsert, msg.Action)
	assert.Equal(t, "r1", msg.RecordID)
	assert.WithinDuration(t, time.Now(), msg.Timestamp, time.Second)
}

func TestRecordChangedMessageJSON(t *testing.T) {
	msg := &RecordChangedMessage{
		ID:        uuid.MustParse("6f1c2f4e-8a6b-4f55-9a3c-0e0f6b2d9a11"),
		Company:   core.ESS,
		Action:    ActionClear,
		Timestamp: time.Date(2025, 8, 27, 12, 0, 0, 0, time.UTC),

		ReceivedAt: time.Date(2025, 8, 27, 12, 0, 5, 0, time.UTC),
	}

	raw, err := msg.ToJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "recordId")
	assert.NotContains(t, string(raw), "2025-08-27T12:00:05")

	parsed, err := RecordChangedMessageFromJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, parsed.ID)
	assert.Equal(t, msg.Company, parsed.Company)
	assert.Equal(t, msg.Action, parsed.Action)
	assert.True(t, parsed.Timestamp.Equal(msg.Timestamp))
	assert.True(t, parsed.ReceivedAt.IsZero())
}

func TestRecordChangedMessageRejectsBadInput(t *testing.T) {
	_, err := RecordChangedMessageFromJSON([]byte(`{"id": 12}`))
	assert.Error(t, err)

	_, err = RecordChangedMessageFromJSON([]byte(`{"id":"6f1c2f4e-8a6b-4f55-9a3c-0e0f6b2d9a11","company":"XYZ","action":"upsert"}`))
	assert.ErrorIs(t, err, core.ErrUnknownCompany)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.PublishRecordChanged(context.Background(), NewRecordChangedMessage(core.EMS, ActionRemove, "x")))
	assert.NoError(t, p.Close())
}
