// Package sqlstoretest provides a migrated throwaway store for tests.
package sqlstoretest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/repository/sqlstore"
)

// New returns a SQLite-backed store in a directory removed after the test.
func New(t testing.TB) *sqlstore.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ledger.db")
	if err := sqlstore.Migrate(sqlstore.DriverSQLite, path); err != nil {
		t.Fatalf("migrate test store: %v", err)
	}
	s, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, path, metrics.NewRepository("sqlite"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
