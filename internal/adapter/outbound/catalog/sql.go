package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/pharmaledger/pharmaledger/internal/domain/verification"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const schema = `CREATE TABLE IF NOT EXISTS batches (
	batch_id          TEXT PRIMARY KEY,
	product_name      TEXT NOT NULL,
	manufacturer_name TEXT NOT NULL
)`

const upsert = `INSERT INTO batches (batch_id, product_name, manufacturer_name)
VALUES (?, ?, ?)
ON CONFLICT (batch_id) DO UPDATE SET
	product_name = excluded.product_name,
	manufacturer_name = excluded.manufacturer_name`

// SQLCatalog implements verification.BatchVerifier over a SQL table.
type SQLCatalog struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// OpenSQL connects to the catalog database and ensures the schema exists.
// For postgres, URL-style DSNs (postgres://...) are converted with
// pq.ParseURL.
func OpenSQL(ctx context.Context, driver, dsn string, logger *slog.Logger) (*SQLCatalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch driver {
	case DriverSQLite:
	case DriverPostgres:
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			parsed, err := pq.ParseURL(dsn)
			if err != nil {
				return nil, fmt.Errorf("parse postgres url: %w", err)
			}
			dsn = parsed
		}
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite allows one writer; serialize through a single connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect catalog db: %w", err)
	}

	c := &SQLCatalog{db: db, logger: logger}
	if err := c.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *SQLCatalog) migrate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create batches table: %w", err)
	}
	return nil
}

// Lookup implements verification.BatchVerifier.
func (c *SQLCatalog) Lookup(ctx context.Context, batchID string) (verification.Lookup, error) {
	var b Batch
	query := c.db.Rebind(`SELECT batch_id, product_name, manufacturer_name FROM batches WHERE batch_id = ?`)
	err := c.db.GetContext(ctx, &b, query, verification.Normalize(batchID))
	if errors.Is(err, sql.ErrNoRows) {
		return verification.Lookup{Found: false}, nil
	}
	if err != nil {
		return verification.Lookup{}, fmt.Errorf("query batch: %w", err)
	}
	return verification.Lookup{
		Found:            true,
		ProductName:      b.ProductName,
		ManufacturerName: b.Manufacturer,
	}, nil
}

// Import upserts batches in a single transaction and returns how many rows
// were written.
func (c *SQLCatalog) Import(ctx context.Context, batches []Batch) (int, error) {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := tx.Rebind(upsert)
	for i := range batches {
		b := batches[i]
		if err := b.Validate(); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, query, b.ID, b.ProductName, b.Manufacturer); err != nil {
			return 0, fmt.Errorf("upsert batch %s: %w", b.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	c.logger.Info("catalog import completed", "batches", len(batches))
	return len(batches), nil
}

// List returns every registered batch ordered by id.
func (c *SQLCatalog) List(ctx context.Context) ([]Batch, error) {
	var out []Batch
	if err := c.db.SelectContext(ctx, &out, `SELECT batch_id, product_name, manufacturer_name FROM batches ORDER BY batch_id`); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (c *SQLCatalog) Close() error {
	return c.db.Close()
}

// Compile-time interface verification.
var _ verification.BatchVerifier = (*SQLCatalog)(nil)
