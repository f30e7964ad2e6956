// Package export materializes CSV exports into files, buckets and spreadsheets.
package export

import (
	"context"
	"errors"
	"fmt"

	"fieldlog/internal/core"
	"fieldlog/internal/metrics"
)

// Sink receives a finished CSV text for one company. Byte-oriented sinks
// prepend the BOM; cell-oriented sinks store the parsed rows.
type Sink interface {
	Name() string
	Write(ctx context.Context, company core.CompanyID, filename, text string) error
}

// MultiSink writes to every sink and joins the failures. One failing sink
// does not stop the others.
type MultiSink []Sink

func (m MultiSink) Name() string { return "multi" }

func (m MultiSink) Write(ctx context.Context, company core.CompanyID, filename, text string) error {
	var errs []error
	for _, s := range m {
		err := s.Write(ctx, company, filename, text)
		metrics.RecordExport(s.Name(), err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
