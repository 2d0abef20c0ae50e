// Package dbtest opens migrated in-memory SQLite storage for tests.
package dbtest

import (
	"context"
	"testing"

	"fleet/db"
	"fleet/db/migrations"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// NewStorage returns a fresh, migrated, in-memory Storage closed at test end.
func NewStorage(t testing.TB) *db.Storage {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, migrations.Run(ctx, conn.DB, db.DriverSQLite, zap.NewNop()))
	return db.NewStorage(conn)
}
