package report

import (
	"context"

	"gitlab.com/yelinaung/club-ledger/internal/models"
	"gitlab.com/yelinaung/club-ledger/internal/period"
	"golang.org/x/sync/errgroup"
)

// Widget names, also used as error ops and span names.
const (
	WidgetMemberStatus     = "member_status"
	WidgetPaymentStatus    = "payment_status"
	WidgetExpenses         = "expenses_by_category"
	WidgetFinancialSummary = "financial_summary"
)

// NewMemberStatusWidget counts the roster by status.
func NewMemberStatusWidget(members MemberSource) *FetchWidget[[]Bucket] {
	return newFetchWidget(WidgetMemberStatus, MemberStatusTimeout, EmptyMemberStatus,
		func(ctx context.Context, _ period.Period) ([]Bucket, error) {
			all, err := members.GetAll(ctx)
			if err != nil {
				return nil, err
			}
			return MemberStatusDistribution(all), nil
		})
}

func emptyBuckets() []Bucket { return []Bucket{} }

// fetchExpenses loads the month's entries and all categories concurrently.
func fetchExpenses(
	ctx context.Context,
	expenses ExpenseSource,
	categories CategorySource,
	per period.Period,
) ([]models.Expense, []models.ExpenseCategory, error) {
	var rows []models.Expense
	var cats []models.ExpenseCategory

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = expenses.GetByDateRange(gctx, per.Start(), per.End())
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = categories.GetAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return rows, cats, nil
}

// NewExpensesWidget sums the month's costs per category.
func NewExpensesWidget(expenses ExpenseSource, categories CategorySource) *FetchWidget[[]Bucket] {
	return newFetchWidget(WidgetExpenses, ExpensesTimeout, emptyBuckets,
		func(ctx context.Context, per period.Period) ([]Bucket, error) {
			rows, cats, err := fetchExpenses(ctx, expenses, categories, per)
			if err != nil {
				return nil, err
			}
			return ExpensesByCategory(rows, cats, per), nil
		})
}

// NewFinancialSummaryWidget computes income, expenses and balance.
func NewFinancialSummaryWidget(
	payments PaymentSource,
	expenses ExpenseSource,
	categories CategorySource,
) *FetchWidget[FinancialSummary] {
	return newFetchWidget(WidgetFinancialSummary, FinancialSummaryTimeout, EmptySummary,
		func(ctx context.Context, per period.Period) (FinancialSummary, error) {
			var dues []models.Payment
			var rows []models.Expense
			var cats []models.ExpenseCategory

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				dues, err = payments.GetByPeriod(gctx, per.Key(), per.Year)
				return err
			})
			g.Go(func() error {
				var err error
				rows, cats, err = fetchExpenses(gctx, expenses, categories, per)
				return err
			})
			if err := g.Wait(); err != nil {
				return EmptySummary(), err
			}
			return Summarize(dues, rows, cats, per), nil
		})
}
