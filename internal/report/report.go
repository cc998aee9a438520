// Package report derives the monthly dashboard datasets: member status,
// payment status, expenses by category and the financial summary.
package report

import (
	"context"
	"errors"
	"sync"

	"gitlab.com/yelinaung/club-ledger/internal/period"
	"golang.org/x/sync/errgroup"
)

// ErrAllRetriesFailed is returned by Report360.Retry when no widget recovered.
var ErrAllRetriesFailed = errors.New("all report retries failed")

// Snapshot is the combined state of the four widgets.
type Snapshot struct {
	Selection          period.Selection `json:"selection"`
	MemberStatus       []Bucket         `json:"memberStatus"`
	PaymentStatus      []Bucket         `json:"paymentStatus"`
	PaymentStatusStale bool             `json:"paymentStatusStale"`
	ExpensesByCategory []Bucket         `json:"expensesByCategory"`
	Summary            FinancialSummary `json:"financialSummary"`
	Loading            bool             `json:"loading"`
	Err                *Error           `json:"-"`
}

// Report360 combines the four widgets behind one load and retry entry point.
type Report360 struct {
	MemberStatus     *FetchWidget[[]Bucket]
	PaymentStatus    *PaymentStatusWidget
	Expenses         *FetchWidget[[]Bucket]
	FinancialSummary *FetchWidget[FinancialSummary]

	mu  sync.RWMutex
	sel period.Selection
}

// NewReport360 wires the widgets to their sources.
func NewReport360(
	members MemberSource,
	payments PaymentSource,
	expenses ExpenseSource,
	categories CategorySource,
	paymentCache *PaymentCache,
) *Report360 {
	return &Report360{
		MemberStatus:     NewMemberStatusWidget(members),
		PaymentStatus:    NewPaymentStatusWidget(payments, members, paymentCache),
		Expenses:         NewExpensesWidget(expenses, categories),
		FinancialSummary: NewFinancialSummaryWidget(payments, expenses, categories),
	}
}

// widgets in declaration order, which is also error reporting order.
func (r *Report360) widgets() []Widget {
	return []Widget{r.MemberStatus, r.PaymentStatus, r.Expenses, r.FinancialSummary}
}

// Load fetches all widgets for sel concurrently. With no selection every
// widget returns its empty dataset without fetching.
func (r *Report360) Load(ctx context.Context, sel period.Selection) Snapshot {
	r.mu.Lock()
	r.sel = sel
	r.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error { r.MemberStatus.Load(ctx, sel); return nil })
	g.Go(func() error { r.PaymentStatus.Load(ctx, sel); return nil })
	g.Go(func() error { r.Expenses.Load(ctx, sel); return nil })
	g.Go(func() error { r.FinancialSummary.Load(ctx, sel); return nil })
	_ = g.Wait()

	return r.Snapshot()
}

// Snapshot returns the current combined state without fetching.
func (r *Report360) Snapshot() Snapshot {
	r.mu.RLock()
	sel := r.sel
	r.mu.RUnlock()

	members := r.MemberStatus.Current()
	payments := r.PaymentStatus.Current()
	expenses := r.Expenses.Current()
	summary := r.FinancialSummary.Current()

	snap := Snapshot{
		Selection:          sel,
		MemberStatus:       members.Data,
		PaymentStatus:      payments.Data,
		PaymentStatusStale: payments.Stale,
		ExpensesByCategory: expenses.Data,
		Summary:            summary.Data,
		Err:                PrioritizeErrors(members.Err, payments.Err, expenses.Err, summary.Err),
	}
	if !sel.Empty() {
		snap.Loading = members.Retrying || payments.Retrying || expenses.Retrying || summary.Retrying
	}
	return snap
}

// Retry retries every widget concurrently. It returns ErrAllRetriesFailed
// only when none of them succeeded; individual errors stay on the widgets.
func (r *Report360) Retry(ctx context.Context) error {
	widgets := r.widgets()
	tasks := make([]Task, len(widgets))
	for i, w := range widgets {
		tasks[i] = w.Retry
	}

	if !AnySucceeds(ctx, tasks...).AnySucceeded() {
		return ErrAllRetriesFailed
	}
	return nil
}

// PrioritizeErrors picks the error to show: server errors first, then
// timeouts, then the first error in argument order.
func PrioritizeErrors(errs ...*Error) *Error {
	for _, kind := range []Kind{KindServerOverloaded, KindTimeout} {
		for _, err := range errs {
			if err != nil && err.Kind == kind {
				return err
			}
		}
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
