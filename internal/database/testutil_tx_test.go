package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTestTx_RollsBackOnCleanup(t *testing.T) {
	pool := TestPool(t)
	require.Same(t, pool, TestPool(t))

	ctx := context.Background()
	id := uuid.New()

	t.Run("insert inside tx", func(t *testing.T) {
		tx := TestTx(t)
		_, err := tx.Exec(ctx, `INSERT INTO members (id, name, status, join_date) VALUES ($1, $2, 'frequentante', CURRENT_DATE)`,
			id, "Sócio Temporário")
		require.NoError(t, err)

		var n int
		require.NoError(t, tx.QueryRow(ctx, `SELECT COUNT(*) FROM members WHERE id = $1`, id).Scan(&n))
		require.Equal(t, 1, n)
	})

	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM members WHERE id = $1`, id).Scan(&n))
	require.Zero(t, n)
}

func TestTestPool_SeedsCategories(t *testing.T) {
	pool := TestPool(t)

	var n int
	err := pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM expense_categories`).Scan(&n)
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, len(DefaultCategories))
}
