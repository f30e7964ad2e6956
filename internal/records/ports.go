// Package records defines the record store port shared by every backend.
package records

import (
	"context"

	"fieldlog/internal/core"
)

// Ports for record storage adapters.
type (
	// Lister returns a company's records in stored order.
	Lister interface {
		List(ctx context.Context, company core.CompanyID) ([]core.ActivityRecord, error)
	}

	// Writer mutates a company's records. Upsert replaces the record with the
	// same id in place or appends it. Remove of an unknown id is a no-op.
	Writer interface {
		Upsert(ctx context.Context, company core.CompanyID, rec core.ActivityRecord) error
		Remove(ctx context.Context, company core.CompanyID, id string) error
		ClearAll(ctx context.Context, company core.CompanyID) error
	}

	Store interface {
		Lister
		Writer
	}
)
