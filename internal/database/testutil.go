package database

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// clubTables lists every table the migrations create, children first.
var clubTables = []string{
	"announcement_recipients",
	"announcements",
	"payments",
	"expenses",
	"expense_categories",
	"members",
	"positions",
}

func testDatabaseURL(t *testing.T) string {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}
	return url
}

// TestDB opens a dedicated pool for tests that need to commit, such as
// migration tests. Prefer TestTx for repository tests.
func TestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := Connect(context.Background(), testDatabaseURL(t))
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

// ResetClubTables empties every club table in one statement.
func ResetClubTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	stmt := "TRUNCATE TABLE " + strings.Join(clubTables, ", ") + " CASCADE"
	if _, err := pool.Exec(context.Background(), stmt); err != nil {
		t.Fatalf("failed to reset club tables: %v", err)
	}
}
