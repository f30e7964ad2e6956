package events

import (
	"context"
)

type (
	Publisher interface {
		PublishRecordChanged(ctx context.Context, msg *RecordChangedMessage) error
		Close() error
	}

	// Handler processes one message. A returned error asks the transport to
	// redeliver it.
	Handler func(ctx context.Context, msg *RecordChangedMessage) error

	Consumer interface {
		Consume(ctx context.Context, handler Handler) error
		Close() error
	}
)

// Noop discards every message. It is used when no broker is configured.
type Noop struct{}

func (Noop) PublishRecordChanged(context.Context, *RecordChangedMessage) error { return nil }
func (Noop) Close() error                                                      { return nil }
