package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fieldlog/internal/core"
	"fieldlog/internal/metrics"
	"fieldlog/internal/records"
	"fieldlog/internal/report"
)

// Exporter renders a company's current records and hands them to a sink.
type Exporter struct {
	lister records.Lister
	sink   Sink
	now    func() time.Time
}

func NewExporter(lister records.Lister, sink Sink) *Exporter {
	return &Exporter{lister: lister, sink: sink, now: time.Now}
}

// ExportCompany writes the company's records, in stored order.
func (e *Exporter) ExportCompany(ctx context.Context, company core.CompanyID) error {
	list, err := e.lister.List(ctx, company)
	if err != nil {
		return fmt.Errorf("list %s: %w", company, err)
	}
	text := report.BuildCSV(list)
	filename := report.ExportFilename(company)

	err = e.sink.Write(ctx, company, filename, text)
	if _, multi := e.sink.(MultiSink); !multi {
		metrics.RecordExport(e.sink.Name(), err)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", company, err)
	}

	metrics.RecordExportCompleted(string(company), e.now())
	slog.InfoContext(ctx, "Export written",
		"company", company,
		"filename", filename,
		"records", len(list),
		"sink", e.sink.Name())
	return nil
}

// ExportAll exports every company, continuing past failures.
func (e *Exporter) ExportAll(ctx context.Context) error {
	var errs []error
	for _, c := range core.Companies() {
		if err := e.ExportCompany(ctx, c.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
