package report

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/club-ledger/internal/models"
	"gitlab.com/yelinaung/club-ledger/internal/period"
	"pgregory.net/rapid"
)

var march2024 = period.Period{Year: 2024, Month: 3}

func TestMemberStatusDistribution(t *testing.T) {
	t.Parallel()

	t.Run("empty roster yields Sem dados", func(t *testing.T) {
		t.Parallel()
		got := MemberStatusDistribution(nil)
		require.Equal(t, []Bucket{{Name: LabelNoData, Value: decimal.Zero, Color: ColorGray}}, got)
	})

	t.Run("counts known statuses and skips unknown", func(t *testing.T) {
		t.Parallel()
		members := []models.Member{
			{ID: uuid.New(), Status: models.MemberStatusFrequentante},
			{ID: uuid.New(), Status: models.MemberStatusFrequentante},
			{ID: uuid.New(), Status: models.MemberStatusAfastado},
			{ID: uuid.New(), Status: "advertido"},
		}
		got := MemberStatusDistribution(members)
		require.Len(t, got, 2)
		require.Equal(t, LabelFrequentante, got[0].Name)
		require.Equal(t, ColorGreen, got[0].Color)
		require.Equal(t, int64(2), got[0].Value.IntPart())
		require.Equal(t, LabelAfastado, got[1].Name)
		require.Equal(t, ColorAmber, got[1].Color)
		require.Equal(t, int64(1), got[1].Value.IntPart())
	})

	t.Run("only unknown statuses yields Sem dados", func(t *testing.T) {
		t.Parallel()
		got := MemberStatusDistribution([]models.Member{{ID: uuid.New(), Status: "advertido"}})
		require.Equal(t, EmptyMemberStatus(), got)
	})
}

func TestPaymentStatusDistribution_Scenario(t *testing.T) {
	t.Parallel()

	members := newMembers(10)
	roster := make([]uuid.UUID, len(members))
	var payments []models.Payment
	for i, m := range members {
		roster[i] = m.ID
		if i < 7 {
			payments = append(payments, paidRow(m.ID, "2024-03", 2024, true))
		}
	}

	got := PaymentStatusDistribution(payments, march2024, roster)
	require.Equal(t, map[string]int64{LabelPaid: 7, LabelUnpaid: 3}, bucketValues(got))
	require.Equal(t, LabelPaid, got[0].Name)
	require.Equal(t, LabelUnpaid, got[1].Name)
}

func TestCountPayments_DuplicateRows(t *testing.T) {
	t.Parallel()

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	payments := []models.Payment{
		paidRow(a, "2024-03", 2024, true),
		paidRow(a, "2024-03", 2024, true),
		paidRow(b, "2024-03", 2024, false),
		paidRow(b, "2024-03", 2024, true),
		paidRow(c, "2024-03", 2024, false),
		paidRow(c, "2024-03", 2024, false),
		paidRow(c, "2024-02", 2024, true),
	}

	require.Equal(t, PaymentCounts{Paid: 2, Unpaid: 1}, CountPayments(payments, march2024, nil))
}

func TestCountPayments_DistinctMembersProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		memberCount := rapid.IntRange(1, 12).Draw(t, "members")
		ids := make([]uuid.UUID, memberCount)
		for i := range ids {
			ids[i] = uuid.New()
		}

		rowCount := rapid.IntRange(0, 40).Draw(t, "rows")
		payments := make([]models.Payment, rowCount)
		paidSet := map[uuid.UUID]bool{}
		seen := map[uuid.UUID]bool{}
		for i := range payments {
			id := ids[rapid.IntRange(0, memberCount-1).Draw(t, "member")]
			paid := rapid.Bool().Draw(t, "paid")
			inMarch := rapid.Bool().Draw(t, "inMarch")
			month := "2024-04"
			if inMarch {
				month = "2024-03"
				seen[id] = true
				if paid {
					paidSet[id] = true
				}
			}
			payments[i] = paidRow(id, month, 2024, paid)
		}

		withRoster := rapid.Bool().Draw(t, "withRoster")
		var roster []uuid.UUID
		universe := len(seen)
		if withRoster {
			roster = ids
			universe = memberCount
		}

		counts := CountPayments(payments, march2024, roster)
		if counts.Paid != len(paidSet) {
			t.Fatalf("paid = %d, want %d", counts.Paid, len(paidSet))
		}
		if counts.Paid+counts.Unpaid != universe {
			t.Fatalf("paid+unpaid = %d, want %d", counts.Paid+counts.Unpaid, universe)
		}

		rec := BuildMonthlyRecord(payments, march2024, roster)
		if rec.PaidMembers != counts.Paid || rec.UnpaidMembers != counts.Unpaid {
			t.Fatalf("monthly record %+v disagrees with counts %+v", rec, counts)
		}
	})
}

func TestExpensesByCategory(t *testing.T) {
	t.Parallel()

	rent := models.ExpenseCategory{ID: uuid.New(), Name: "Aluguel", Color: "#111111"}
	events := models.ExpenseCategory{ID: uuid.New(), Name: "Eventos"}
	unknownID := uuid.New()

	expenses := []models.Expense{
		{Amount: decimal.NewFromInt(100), Date: date(2024, 3, 1), CategoryID: &rent.ID, Type: models.ExpenseTypeDespesa},
		{Amount: decimal.NewFromInt(50), Date: date(2024, 3, 31), CategoryID: &rent.ID, Type: models.ExpenseTypeDespesa},
		{Amount: decimal.NewFromInt(70), Date: date(2024, 3, 15), CategoryID: &events.ID, Type: models.ExpenseTypeDespesa},
		{Amount: decimal.NewFromInt(20), Date: date(2024, 3, 15), Type: models.ExpenseTypeDespesa},
		{Amount: decimal.NewFromInt(5), Date: date(2024, 3, 16), CategoryID: &unknownID, Type: models.ExpenseTypeDespesa},
		{Amount: decimal.NewFromInt(999), Date: date(2024, 3, 5), CategoryID: &rent.ID, Type: models.ExpenseTypeReceita},
		{Amount: decimal.NewFromInt(999), Date: date(2024, 4, 1), CategoryID: &rent.ID, Type: models.ExpenseTypeDespesa},
	}

	got := ExpensesByCategory(expenses, []models.ExpenseCategory{rent, events}, march2024)
	require.Len(t, got, 4)

	require.Equal(t, "Aluguel", got[0].Name)
	require.True(t, got[0].Value.Equal(decimal.NewFromInt(150)))
	require.Equal(t, "#111111", got[0].Color)

	require.Equal(t, "Eventos", got[1].Name)
	require.Equal(t, FallbackColor(events.ID.String()), got[1].Color)

	require.Equal(t, LabelNoCategory, got[2].Name)
	require.True(t, got[2].Value.Equal(decimal.NewFromInt(20)))
	require.Equal(t, ColorGray, got[2].Color)

	require.Equal(t, LabelNoCategory, got[3].Name)
	require.True(t, got[3].Value.Equal(decimal.NewFromInt(5)))

	t.Run("nothing in period yields empty slice", func(t *testing.T) {
		t.Parallel()
		got := ExpensesByCategory(expenses, nil, period.Period{Year: 2020, Month: 1})
		require.NotNil(t, got)
		require.Empty(t, got)
	})
}

func TestFallbackColor_Deterministic(t *testing.T) {
	t.Parallel()

	id := uuid.NewString()
	require.Equal(t, FallbackColor(id), FallbackColor(id))
	require.Contains(t, fallbackPalette, FallbackColor(id))
}

func TestSummarize_Scenario(t *testing.T) {
	t.Parallel()

	c1, c2 := uuid.New(), uuid.New()
	expenses := []models.Expense{
		{Type: models.ExpenseTypeReceita, CategoryID: &c1, Amount: decimal.NewFromInt(500), Date: date(2024, 3, 5)},
		{Type: models.ExpenseTypeDespesa, CategoryID: &c2, Amount: decimal.NewFromInt(200), Date: date(2024, 3, 10)},
	}

	got := Summarize(nil, expenses, nil, march2024)
	require.True(t, got.TotalIncome.Equal(decimal.NewFromInt(500)))
	require.True(t, got.TotalExpenses.Equal(decimal.NewFromInt(200)))
	require.True(t, got.Balance.Equal(decimal.NewFromInt(300)))
	require.True(t, got.TotalPaymentIncome.IsZero())
	require.Len(t, got.CategoryIncomes, 1)
	require.Equal(t, &c1, got.CategoryIncomes[0].CategoryID)
}

func TestSummarize_IncludesPaidDuesOnly(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	payments := []models.Payment{
		paidRow(a, "2024-03", 2024, true),
		paidRow(b, "2024-03", 2024, false),
		paidRow(b, "2024-02", 2024, true),
	}

	got := Summarize(payments, nil, nil, march2024)
	require.True(t, got.TotalPaymentIncome.Equal(decimal.NewFromInt(50)))
	require.True(t, got.TotalIncome.Equal(decimal.NewFromInt(50)))
	require.True(t, got.Balance.Equal(got.TotalIncome))
	require.NotNil(t, got.CategoryIncomes)
}

func TestSummarize_BalanceIdentityProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "expenses")
		expenses := make([]models.Expense, n)
		for i := range expenses {
			typ := rapid.SampledFrom([]models.ExpenseType{models.ExpenseTypeDespesa, models.ExpenseTypeReceita}).Draw(t, "type")
			expenses[i] = models.Expense{
				Type:   typ,
				Amount: decimal.New(rapid.Int64Range(0, 1_000_000).Draw(t, "cents"), -2),
				Date:   date(2024, 3, rapid.IntRange(1, 31).Draw(t, "day")),
			}
		}
		m := rapid.IntRange(0, 10).Draw(t, "payments")
		payments := make([]models.Payment, m)
		for i := range payments {
			payments[i] = paidRow(uuid.New(), "2024-03", 2024, rapid.Bool().Draw(t, "paid"))
		}

		s := Summarize(payments, expenses, nil, march2024)
		if !s.Balance.Equal(s.TotalIncome.Sub(s.TotalExpenses)) {
			t.Fatalf("balance %s != %s - %s", s.Balance, s.TotalIncome, s.TotalExpenses)
		}
		lines := decimal.Zero
		for _, ci := range s.CategoryIncomes {
			lines = lines.Add(ci.Amount)
		}
		if !s.TotalIncome.Equal(s.TotalPaymentIncome.Add(lines)) {
			t.Fatalf("income %s != dues %s + revenue %s", s.TotalIncome, s.TotalPaymentIncome, lines)
		}
	})
}

func TestBuildMonthlyRecord(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	payments := []models.Payment{
		paidRow(a, "2024-03", 2024, true),
		paidRow(a, "2024-03", 2024, false),
		paidRow(b, "2024-03", 2024, false),
	}

	rec := BuildMonthlyRecord(payments, march2024, []uuid.UUID{a, b, uuid.New()})
	require.Equal(t, "2024-03", rec.Month)
	require.Equal(t, 2024, rec.Year)
	require.Equal(t, 3, rec.TotalMembers)
	require.Equal(t, 1, rec.PaidMembers)
	require.Equal(t, 2, rec.UnpaidMembers)
	require.True(t, rec.TotalAmount.Equal(decimal.NewFromInt(150)))
	require.True(t, rec.CollectedAmount.Equal(decimal.NewFromInt(50)))
}

func TestCountsFromRecord(t *testing.T) {
	t.Parallel()

	require.Equal(t, PaymentCounts{}, CountsFromRecord(nil))
	require.Equal(t, PaymentCounts{}, CountsFromRecord(&models.MonthlyRecord{}))
	require.Equal(t, PaymentCounts{Paid: 4, Unpaid: 6},
		CountsFromRecord(&models.MonthlyRecord{TotalMembers: 10, PaidMembers: 4}))
	require.Equal(t, PaymentCounts{Paid: 4, Unpaid: 2},
		CountsFromRecord(&models.MonthlyRecord{TotalMembers: 10, PaidMembers: 4, UnpaidMembers: 2}))
	require.Equal(t, PaymentCounts{Paid: 0, Unpaid: 0},
		CountsFromRecord(&models.MonthlyRecord{PaidMembers: -3, UnpaidMembers: -1}))
}
