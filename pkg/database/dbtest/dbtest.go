// Package dbtest opens migrated in-memory sqlite databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"testing"

	"entgo.io/ent/dialect"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/recoverydesk/pkg/database"
)

// Open returns a migrated client backed by a private in-memory sqlite database.
// The database is closed when the test ends.
func Open(t testing.TB) *database.Client {
	t.Helper()

	db, err := sql.Open("sqlite3", "file:"+t.Name()+"?mode=memory&cache=shared&_fk=1&_loc=UTC")
	require.NoError(t, err)
	// a single connection keeps the shared in-memory database alive and serialises writers
	db.SetMaxOpenConns(1)

	client := database.NewFromDB(dialect.SQLite, db)
	require.NoError(t, database.Migrate(context.Background(), client.Driver))

	t.Cleanup(func() { client.Close() })
	return client
}
