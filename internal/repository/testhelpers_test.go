package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/club-ledger/internal/models"
)

func createMember(ctx context.Context, t *testing.T, repo *MemberRepository, name string) *models.Member {
	t.Helper()

	m := &models.Member{
		Name:     name,
		Status:   models.MemberStatusFrequentante,
		JoinDate: time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, m))
	return m
}

func createPayment(ctx context.Context, t *testing.T, repo *PaymentRepository, member *models.Member, month string, year int, paid bool) *models.Payment {
	t.Helper()

	p := &models.Payment{
		MemberID: member.ID,
		Amount:   decimal.NewFromInt(50),
		Month:    month,
		Year:     year,
		IsPaid:   paid,
	}
	require.NoError(t, repo.Create(ctx, p))
	return p
}
