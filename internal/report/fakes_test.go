package report

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/club-ledger/internal/models"
)

var errBackend = errors.New("backend unavailable")

type fakeMembers struct {
	members []models.Member
	err     error
	calls   atomic.Int32
	// gate, when set, holds GetAll until it is closed.
	gate chan struct{}
}

func (f *fakeMembers) GetAll(context.Context) ([]models.Member, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.members, f.err
}

func (f *fakeMembers) GetIDs(context.Context) ([]uuid.UUID, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]uuid.UUID, len(f.members))
	for i, m := range f.members {
		ids[i] = m.ID
	}
	return ids, nil
}

type fakePayments struct {
	mu        sync.Mutex
	payments  []models.Payment
	record    *models.MonthlyRecord
	listErr   error
	recordErr error
	block     bool

	listCalls   atomic.Int32
	recordCalls atomic.Int32
}

func (f *fakePayments) set(fn func(f *fakePayments)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakePayments) GetAllWithRetry(ctx context.Context) ([]models.Payment, error) {
	f.listCalls.Add(1)
	f.mu.Lock()
	payments, err, block := f.payments, f.listErr, f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return payments, err
}

func (f *fakePayments) GetByPeriod(_ context.Context, month string, year int) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Payment
	for _, p := range f.payments {
		if p.Month == month && p.Year == year {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePayments) GetMonthlyRecord(context.Context, string, int) (*models.MonthlyRecord, error) {
	f.recordCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record, f.recordErr
}

type fakeExpenses struct {
	expenses []models.Expense
	err      error
	calls    atomic.Int32
}

func (f *fakeExpenses) GetByDateRange(_ context.Context, start, end time.Time) ([]models.Expense, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Expense
	for _, e := range f.expenses {
		if !e.Date.Before(start) && e.Date.Before(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeCategories struct {
	categories []models.ExpenseCategory
	err        error
}

func (f *fakeCategories) GetAll(context.Context) ([]models.ExpenseCategory, error) {
	return f.categories, f.err
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newMembers(n int) []models.Member {
	members := make([]models.Member, n)
	for i := range members {
		members[i] = models.Member{ID: uuid.New(), Name: "m", Status: models.MemberStatusFrequentante}
	}
	return members
}

func paidRow(memberID uuid.UUID, month string, year int, paid bool) models.Payment {
	return models.Payment{
		ID:       uuid.New(),
		MemberID: memberID,
		Amount:   decimal.NewFromInt(50),
		Month:    month,
		Year:     year,
		IsPaid:   paid,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bucketValues(buckets []Bucket) map[string]int64 {
	out := make(map[string]int64, len(buckets))
	for _, b := range buckets {
		out[b.Name] = b.Value.IntPart()
	}
	return out
}
