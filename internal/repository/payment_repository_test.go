package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/club-ledger/internal/database"
)

func TestPaymentRepository_GetByPeriod(t *testing.T) {
	ctx := context.Background()
	tx := database.TestTx(t)
	members := NewMemberRepository(tx)
	repo := NewPaymentRepository(tx)

	m := createMember(ctx, t, members, "Gabriel")
	createPayment(ctx, t, repo, m, "2024-03", 2024, true)
	createPayment(ctx, t, repo, m, "2024-04", 2024, false)

	march, err := repo.GetByPeriod(ctx, "2024-03", 2024)
	require.NoError(t, err)
	require.Len(t, march, 1)
	require.True(t, march[0].IsPaid)

	all, err := repo.GetAllWithRetry(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "2024-04", all[0].Month)
}

func TestPaymentRepository_GetMonthlyRecord(t *testing.T) {
	ctx := context.Background()
	tx := database.TestTx(t)
	members := NewMemberRepository(tx)
	repo := NewPaymentRepository(tx)

	paidTwice := createMember(ctx, t, members, "Helena")
	mixed := createMember(ctx, t, members, "Igor")
	unpaid := createMember(ctx, t, members, "Julia")
	createMember(ctx, t, members, "Karina")

	createPayment(ctx, t, repo, paidTwice, "2024-03", 2024, true)
	createPayment(ctx, t, repo, paidTwice, "2024-03", 2024, true)
	createPayment(ctx, t, repo, mixed, "2024-03", 2024, false)
	createPayment(ctx, t, repo, mixed, "2024-03", 2024, true)
	createPayment(ctx, t, repo, unpaid, "2024-03", 2024, false)
	createPayment(ctx, t, repo, unpaid, "2024-02", 2024, true)

	rec, err := repo.GetMonthlyRecord(ctx, "2024-03", 2024)
	require.NoError(t, err)
	require.Equal(t, 4, rec.TotalMembers)
	require.Equal(t, 2, rec.PaidMembers)
	require.Equal(t, 2, rec.UnpaidMembers)
	require.Equal(t, "250", rec.TotalAmount.String())
	require.Equal(t, "150", rec.CollectedAmount.String())

	t.Run("empty month synthesizes zero amounts", func(t *testing.T) {
		rec, err := repo.GetMonthlyRecord(ctx, "2023-01", 2023)
		require.NoError(t, err)
		require.Equal(t, 4, rec.TotalMembers)
		require.Zero(t, rec.PaidMembers)
		require.True(t, rec.TotalAmount.IsZero())
		require.True(t, rec.CollectedAmount.IsZero())
	})
}

func TestPaymentRepository_GetUnpaidMembers(t *testing.T) {
	ctx := context.Background()
	tx := database.TestTx(t)
	members := NewMemberRepository(tx)
	repo := NewPaymentRepository(tx)

	paid := createMember(ctx, t, members, "Lucas")
	pending := createMember(ctx, t, members, "Marina")
	createPayment(ctx, t, repo, paid, "2024-03", 2024, true)
	createPayment(ctx, t, repo, pending, "2024-03", 2024, false)

	unpaid, err := repo.GetUnpaidMembers(ctx, "2024-03", 2024)
	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	require.Equal(t, pending.ID, unpaid[0].ID)
}

func TestPaymentRepository_MarkPaid(t *testing.T) {
	ctx := context.Background()
	tx := database.TestTx(t)
	members := NewMemberRepository(tx)
	repo := NewPaymentRepository(tx)

	m := createMember(ctx, t, members, "Nelson")
	p := createPayment(ctx, t, repo, m, "2024-03", 2024, false)

	paidAt := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkPaid(ctx, p.ID, paidAt, "pix"))

	rows, err := repo.GetByMember(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, rows[0].IsPaid)
	require.Equal(t, "pix", rows[0].PaymentMethod)
	require.NotNil(t, rows[0].Date)

	require.NoError(t, repo.Delete(ctx, p.ID))
	require.Error(t, repo.MarkPaid(ctx, p.ID, paidAt, ""))
}
