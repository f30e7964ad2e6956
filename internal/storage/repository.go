package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fieldlog/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores activity records in a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection keeps upserts ordered.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const (
	listRecordsSQL = `SELECT id, date, type, qty, notes FROM activity_records
		WHERE company = ? ORDER BY rowid`

	upsertRecordSQL = `INSERT INTO activity_records (company, id, date, type, qty, notes)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (company, id) DO UPDATE SET
			date = excluded.date,
			type = excluded.type,
			qty = excluded.qty,
			notes = excluded.notes,
			updated_at = CURRENT_TIMESTAMP`

	deleteRecordSQL  = `DELETE FROM activity_records WHERE company = ? AND id = ?`
	deleteCompanySQL = `DELETE FROM activity_records WHERE company = ?`
)

// List implements records.Lister. Rows come back in insertion order; an
// upsert on an existing id keeps its original position.
func (r *SQLiteRepository) List(ctx context.Context, company core.CompanyID) ([]core.ActivityRecord, error) {
	rows, err := r.db.QueryContext(ctx, listRecordsSQL, string(company))
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

// Upsert implements records.Writer.
func (r *SQLiteRepository) Upsert(ctx context.Context, company core.CompanyID, rec core.ActivityRecord) error {
	_, err := r.db.ExecContext(ctx, upsertRecordSQL,
		string(company), rec.ID, rec.Date, string(rec.Type), rec.Quantity, rec.Notes)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}

	slog.DebugContext(ctx, "Record saved to SQLite",
		"company", company,
		"id", rec.ID,
		"date", rec.Date,
		"type", rec.Type,
		"qty", rec.Quantity)
	return nil
}

// Remove implements records.Writer. Deleting an unknown id is not an error.
func (r *SQLiteRepository) Remove(ctx context.Context, company core.CompanyID, id string) error {
	res, err := r.db.ExecContext(ctx, deleteRecordSQL, string(company), id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		slog.DebugContext(ctx, "Delete of unknown record ignored", "company", company, "id", id)
	}
	return nil
}

// ClearAll implements records.Writer.
func (r *SQLiteRepository) ClearAll(ctx context.Context, company core.CompanyID) error {
	res, err := r.db.ExecContext(ctx, deleteCompanySQL, string(company))
	if err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	n, _ := res.RowsAffected()
	slog.InfoContext(ctx, "Company records cleared", "company", company, "deleted", n)
	return nil
}
