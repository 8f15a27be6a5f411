// Package sqlstore persists the ledger in a relational database. Postgres via
// pgx is the production backend; the same schema and statements also run on
// SQLite for single-node deployments and tests.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/goodnatureofminers/blockinsight7000-ledger/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"

	// maxParams keeps multi-row statements under the bind limits of both backends.
	maxParams = 30000
)

// Store is safe for concurrent use.
type Store struct {
	db      *sqlx.DB
	metrics Metrics
}

// Open connects to the database behind dsn using driver.
func Open(ctx context.Context, driver, dsn string, metrics Metrics) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("database dsn is required")
	}
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	return New(db, metrics), nil
}

// New wraps an existing connection pool.
func New(db *sqlx.DB, metrics Metrics) *Store {
	return &Store{db: db, metrics: metrics}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying pool for health checks.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Migrate applies every pending schema migration to the database behind dsn.
func Migrate(driver, dsn string) error {
	src, err := iofs.New(migrations.Postgres, "postgres")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	target, err := migrateURL(driver, dsn)
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, target)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func migrateURL(driver, dsn string) (string, error) {
	switch driver {
	case DriverPostgres:
		for _, scheme := range []string{"postgres://", "postgresql://"} {
			if strings.HasPrefix(dsn, scheme) {
				return "pgx5://" + strings.TrimPrefix(dsn, scheme), nil
			}
		}
		return "", fmt.Errorf("postgres dsn must be a URL, got %q", dsn)
	case DriverSQLite:
		return "sqlite://" + strings.TrimPrefix(dsn, "file:"), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// knownTables guards identifiers interpolated into statements.
func knownTable(table string) bool {
	switch table {
	case "block", `"transaction"`, "transaction", "input", "input_special", "output", "wallet":
		return true
	}
	return strings.HasPrefix(table, "address_") && !strings.ContainsAny(table, " ;'\"")
}

func quoteTable(table string) string {
	if table == "transaction" {
		return `"transaction"`
	}
	return table
}

// MaxID returns the largest value stored in column, or false for an empty table.
func (s *Store) MaxID(ctx context.Context, table, column string) (id int64, ok bool, err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe("max_id", err, start)
	}()

	if !knownTable(table) || strings.Trim(column, "abcdefghijklmnopqrstuvwxyz_") != "" {
		return 0, false, fmt.Errorf("unknown column %s.%s", table, column)
	}
	id, ok, err = s.maxColumn(ctx, fmt.Sprintf("SELECT MAX(%s) FROM %s", column, quoteTable(table)))
	if err != nil {
		return 0, false, fmt.Errorf("query max %s.%s: %w", table, column, err)
	}
	return id, ok, nil
}

// CountRows returns the number of rows in table.
func (s *Store) CountRows(ctx context.Context, table string) (n int64, err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe("count_rows", err, start)
	}()

	if !knownTable(table) {
		return 0, fmt.Errorf("unknown table %s", table)
	}
	if err = s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+quoteTable(table)); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func notFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
