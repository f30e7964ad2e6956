package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldlog/internal/core"
	"fieldlog/internal/events"
)

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { w.closed = true; return nil }

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		r.cancel()
		return kafka.Message{}, context.Canceled
	}
	m := r.queue[0]
	r.queue = r.queue[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestPublisherKeysByCompany(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisherWithWriter(w, "fieldlog.records")
	msg := events.NewRecordChangedMessage(core.ESS, events.ActionRemove, "r9")

	require.NoError(t, p.PublishRecordChanged(context.Background(), msg))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "ESS", string(w.msgs[0].Key))
	assert.Equal(t, "action", w.msgs[0].Headers[0].Key)
	assert.Equal(t, "remove", string(w.msgs[0].Headers[0].Value))

	decoded, err := events.RecordChangedMessageFromJSON(w.msgs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, decoded.ID)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestConsumerCommitsOnlyHandledMessages(t *testing.T) {
	good, _ := events.NewRecordChangedMessage(core.EMS, events.ActionUpsert, "a").ToJSON()
	failing, _ := events.NewRecordChangedMessage(core.ESS, events.ActionUpsert, "b").ToJSON()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &fakeReader{
		cancel: cancel,
		queue: []kafka.Message{
			{Offset: 1, Value: good},
			{Offset: 2, Value: []byte("garbage")},
			{Offset: 3, Value: failing},
		},
	}
	var handled []core.CompanyID

	err := NewConsumerWithReader(r).Consume(ctx, func(_ context.Context, m *events.RecordChangedMessage) error {
		handled = append(handled, m.Company)
		assert.False(t, m.ReceivedAt.IsZero(), "consumer stamps receipt time")
		if m.Company == core.ESS {
			return errors.New("boom")
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []core.CompanyID{core.EMS, core.ESS}, handled)
	assert.Equal(t, []int64{1, 2}, r.committed)
}
