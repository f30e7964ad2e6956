package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"fieldlog/internal/core"
	"fieldlog/internal/events"
	"fieldlog/internal/metrics"
	"fieldlog/internal/records"
	"fieldlog/internal/report"
)

// MutationListener is told about every committed mutation, after the store
// write and before the change message is published.
type MutationListener func(company core.CompanyID)

// RecordService orchestrates record operations across the store and the
// change publisher.
type RecordService struct {
	store     records.Store
	publisher events.Publisher
	listeners []MutationListener
	closers   []io.Closer
}

func NewRecordService(store records.Store, publisher events.Publisher) *RecordService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &RecordService{store: store, publisher: publisher}
}

// OnMutation registers a listener. It must be called before serving.
func (s *RecordService) OnMutation(fn MutationListener) {
	s.listeners = append(s.listeners, fn)
}

// AddCloser registers a resource released by Close, in order.
func (s *RecordService) AddCloser(c io.Closer) {
	s.closers = append(s.closers, c)
}

// List returns the company's records in stored order.
func (s *RecordService) List(ctx context.Context, company core.CompanyID) ([]core.ActivityRecord, error) {
	list, err := s.store.List(ctx, company)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return list, nil
}

// Save normalizes and validates rec, then upserts it. Validation failures
// are returned as core.ValidationErrors.
func (s *RecordService) Save(ctx context.Context, company core.CompanyID, rec core.ActivityRecord) (core.ActivityRecord, error) {
	rec = rec.Normalize()
	if err := rec.Validate(); err != nil {
		return rec, err
	}
	if err := s.store.Upsert(ctx, company, rec); err != nil {
		return rec, fmt.Errorf("save record: %w", err)
	}
	s.committed(ctx, company, events.ActionUpsert, rec.ID)
	return rec, nil
}

// Remove deletes one record. Unknown ids are a no-op.
func (s *RecordService) Remove(ctx context.Context, company core.CompanyID, id string) error {
	if err := s.store.Remove(ctx, company, id); err != nil {
		return fmt.Errorf("remove record: %w", err)
	}
	s.committed(ctx, company, events.ActionRemove, id)
	return nil
}

// Clear deletes every record of the company.
func (s *RecordService) Clear(ctx context.Context, company core.CompanyID) error {
	if err := s.store.ClearAll(ctx, company); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	s.committed(ctx, company, events.ActionClear, "")
	return nil
}

// Dashboard computes the dashboard over the current snapshot.
func (s *RecordService) Dashboard(ctx context.Context, company core.CompanyID, mode core.PeriodMode, today core.Date) (report.Dashboard, error) {
	list, err := s.List(ctx, company)
	if err != nil {
		return report.Dashboard{}, err
	}
	return report.BuildDashboard(list, mode, today), nil
}

// Summary returns the current month totals.
func (s *RecordService) Summary(ctx context.Context, company core.CompanyID, today core.Date) (report.RecordsSummary, error) {
	list, err := s.List(ctx, company)
	if err != nil {
		return report.RecordsSummary{}, err
	}
	return report.BuildRecordsSummary(list, today), nil
}

// ExportCSV renders the company's records, in stored order, as CSV text.
func (s *RecordService) ExportCSV(ctx context.Context, company core.CompanyID) (string, error) {
	list, err := s.List(ctx, company)
	if err != nil {
		return "", err
	}
	return report.BuildCSV(list), nil
}

func (s *RecordService) committed(ctx context.Context, company core.CompanyID, action events.Action, recordID string) {
	metrics.RecordMutation(string(company), string(action))
	for _, fn := range s.listeners {
		fn(company)
	}

	// The store write already succeeded; a lost notification only delays the export.
	msg := events.NewRecordChangedMessage(company, action, recordID)
	if err := s.publisher.PublishRecordChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record changed message",
			"company", company,
			"action", action,
			"record_id", recordID,
			"error", err)
	}
}

// Close closes the publisher and every registered closer.
func (s *RecordService) Close() error {
	var errs []error

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close record service: %w", errors.Join(errs...))
	}
	return nil
}
