// Package postgres stores activity records in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"fieldlog/internal/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Repository implements records.Store on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wraps an existing pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Open connects to url, runs migrations and returns a ready repository.
func Open(ctx context.Context, url string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := RunMigrations(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return NewRepository(pool), nil
}

// RunMigrations applies the embedded schema through a database/sql view of the pool.
func RunMigrations(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// List returns the company's records ordered by first insertion.
func (r *Repository) List(ctx context.Context, company core.CompanyID) ([]core.ActivityRecord, error) {
	const query = `SELECT id, date, type, qty, notes FROM activity_records
        WHERE company=$1 ORDER BY seq`

	rows, err := r.pool.Query(ctx, query, string(company))
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := []core.ActivityRecord{}
	for rows.Next() {
		var (
			rec     core.ActivityRecord
			recType string
		)
		if err := rows.Scan(&rec.ID, &rec.Date, &recType, &rec.Quantity, &rec.Notes); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Type = core.ActivityType(recType)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// Upsert inserts the record or overwrites the row with the same id.
func (r *Repository) Upsert(ctx context.Context, company core.CompanyID, rec core.ActivityRecord) error {
	const query = `INSERT INTO activity_records (company, id, date, type, qty, notes)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (company, id) DO UPDATE SET
            date=EXCLUDED.date, type=EXCLUDED.type, qty=EXCLUDED.qty,
            notes=EXCLUDED.notes, updated_at=now()`

	if _, err := r.pool.Exec(ctx, query,
		string(company), rec.ID, rec.Date, string(rec.Type), rec.Quantity, rec.Notes,
	); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

func (r *Repository) Remove(ctx context.Context, company core.CompanyID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activity_records WHERE company=$1 AND id=$2`, string(company), id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		slog.DebugContext(ctx, "Delete of unknown record ignored", "company", company, "id", id)
	}
	return nil
}

func (r *Repository) ClearAll(ctx context.Context, company core.CompanyID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activity_records WHERE company=$1`, string(company))
	if err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	slog.InfoContext(ctx, "Company records cleared", "company", company, "deleted", tag.RowsAffected())
	return nil
}
