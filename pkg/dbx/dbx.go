// Package dbx opens the Postgres pool and holds the few helpers the sqlx
// repositories share: driver selection, transactions and error mapping.
package dbx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/Abraxas-365/contractorconnect/pkg/config"
	"github.com/Abraxas-365/contractorconnect/pkg/logx"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"

	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Open connects with the configured driver and applies the pool limits.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	driver := cfg.Driver
	switch driver {
	case "", DriverPQ:
		driver = DriverPQ
	case DriverPGX:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, cfg.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logx.WithFields(logx.Fields{
		"driver": driver,
		"host":   cfg.Host,
		"db":     cfg.Name,
	}).Debug("database pool opened")

	return db, nil
}

// WithTx runs fn in a transaction, committing when it returns nil.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logx.WithError(rbErr).Warn("transaction rollback failed")
		}
		return err
	}

	return tx.Commit()
}

// IsUniqueViolation reports a 23505 error from either driver.
func IsUniqueViolation(err error) bool {
	return sqlState(err) == codeUniqueViolation
}

// IsForeignKeyViolation reports a 23503 error from either driver.
func IsForeignKeyViolation(err error) bool {
	return sqlState(err) == codeForeignKeyViolation
}

// ConstraintName returns the violated constraint, if the driver reported one.
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func sqlState(err error) string {
	if err == nil {
		return ""
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Migrate applies every *.sql file in fsys that is not yet recorded in
// schema_migrations, in lexical order, each inside its own transaction.
// It returns the number of files applied.
func Migrate(ctx context.Context, db *sqlx.DB, fsys fs.FS) (int, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	var done []string
	if err := db.SelectContext(ctx, &done, `SELECT version FROM schema_migrations`); err != nil {
		return 0, fmt.Errorf("read schema_migrations: %w", err)
	}
	files, err := PendingMigrations(fsys, done)
	if err != nil {
		return 0, err
	}

	for _, name := range files {
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return 0, err
		}
		err = WithTx(ctx, db, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, string(body)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			return 0, fmt.Errorf("migration %s: %w", name, err)
		}
		logx.WithField("version", name).Info("migration applied")
	}
	return len(files), nil
}

// PendingMigrations lists the *.sql files in fsys, sorted, minus the ones in applied.
func PendingMigrations(fsys fs.FS, applied []string) ([]string, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(applied))
	for _, v := range applied {
		seen[v] = true
	}
	var pending []string
	for _, n := range names {
		if !seen[n] {
			pending = append(pending, n)
		}
	}
	sort.Strings(pending)
	return pending, nil
}
