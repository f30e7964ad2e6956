package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fieldlog/internal/core"
	"fieldlog/internal/events"
)

// CompanyExporter writes one company's current export.
type CompanyExporter interface {
	ExportCompany(ctx context.Context, company core.CompanyID) error
	ExportAll(ctx context.Context) error
}

// ExportWorker turns record change messages into fresh exports.
type ExportWorker struct {
	exporter CompanyExporter
	now      func() time.Time

	mu          sync.Mutex
	lastStarted map[core.CompanyID]time.Time
}

func NewExportWorker(exporter CompanyExporter) *ExportWorker {
	return &ExportWorker{
		exporter:    exporter,
		now:         time.Now,
		lastStarted: make(map[core.CompanyID]time.Time),
	}
}

// HandleRecordChanged exports the message's company. A message received
// before an export of its company started is skipped: it was published after
// its write committed, so that export already read the change. Only the
// worker's clock is compared; the publisher's Timestamp is not trusted.
func (w *ExportWorker) HandleRecordChanged(ctx context.Context, msg *events.RecordChangedMessage) error {
	received := msg.ReceivedAt
	if received.IsZero() {
		received = w.now()
	}

	w.mu.Lock()
	last, seen := w.lastStarted[msg.Company]
	if seen && received.Before(last) {
		w.mu.Unlock()
		slog.DebugContext(ctx, "Skipping change already covered by a newer export",
			"message_id", msg.ID,
			"company", msg.Company)
		return nil
	}
	started := w.now()
	w.lastStarted[msg.Company] = started
	w.mu.Unlock()

	slog.InfoContext(ctx, "Processing record changed message",
		"message_id", msg.ID,
		"company", msg.Company,
		"action", msg.Action)

	if err := w.exporter.ExportCompany(ctx, msg.Company); err != nil {
		// Forget the attempt so the redelivered message is not skipped.
		w.mu.Lock()
		if w.lastStarted[msg.Company].Equal(started) {
			if seen {
				w.lastStarted[msg.Company] = last
			} else {
				delete(w.lastStarted, msg.Company)
			}
		}
		w.mu.Unlock()
		return fmt.Errorf("export %s: %w", msg.Company, err)
	}
	return nil
}

// ExportAll refreshes every company. It backs up lost messages at startup.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	started := w.now()
	err := w.exporter.ExportAll(ctx)
	if err == nil {
		w.mu.Lock()
		for _, c := range core.Companies() {
			if started.After(w.lastStarted[c.ID]) {
				w.lastStarted[c.ID] = started
			}
		}
		w.mu.Unlock()
	}
	return err
}

// Run performs a startup pass, then consumes until ctx ends.
func (w *ExportWorker) Run(ctx context.Context, consumer events.Consumer) error {
	if err := w.ExportAll(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup export pass failed", "error", err)
	}
	return consumer.Consume(ctx, w.HandleRecordChanged)
}
