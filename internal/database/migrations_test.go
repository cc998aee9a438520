package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	pool := TestDB(t)
	ctx := context.Background()

	err := RunMigrations(ctx, pool)
	require.NoError(t, err)

	for _, table := range []string{
		"positions", "members", "payments", "expense_categories",
		"expenses", "announcements", "announcement_recipients",
	} {
		var exists bool
		err = pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_name = $1
			)
		`, table).Scan(&exists)
		require.NoError(t, err)
		require.True(t, exists, "table %s should exist", table)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	pool := TestDB(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(ctx, pool))
	require.NoError(t, RunMigrations(ctx, pool))

	var count int
	err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM members").Scan(&count)
	require.NoError(t, err)
}

func TestRunMigrations_ExpenseTypeConstraint(t *testing.T) {
	pool := TestDB(t)
	ctx := context.Background()
	require.NoError(t, RunMigrations(ctx, pool))

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `INSERT INTO expenses (amount, date, type) VALUES (10, CURRENT_DATE, 'gift')`)
	require.Error(t, err)
}

func TestSeedCategories(t *testing.T) {
	pool := TestDB(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(ctx, pool))
	ResetClubTables(t, pool)

	require.NoError(t, SeedCategories(ctx, pool))
	require.NoError(t, SeedCategories(ctx, pool))

	var count int
	err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM expense_categories").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, len(DefaultCategories), count, "should not duplicate categories")

	var color string
	err = pool.QueryRow(ctx, "SELECT color FROM expense_categories WHERE name = 'Aluguel'").Scan(&color)
	require.NoError(t, err)
	require.Equal(t, "#6366f1", color)
}
