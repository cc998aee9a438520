package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/club-ledger/internal/cache"
	"gitlab.com/yelinaung/club-ledger/internal/kvstore"
	"gitlab.com/yelinaung/club-ledger/internal/models"
	"gitlab.com/yelinaung/club-ledger/internal/period"
)

var marchSel = period.Selection{Month: "2024-03", Year: "2024"}

type paymentFixture struct {
	members  *fakeMembers
	payments *fakePayments
	clock    *fakeClock
	kv       *kvstore.MemoryStore
	widget   *PaymentStatusWidget
}

// newPaymentFixture seeds ten members of whom paid have a paid March row.
func newPaymentFixture(t *testing.T, paid int) *paymentFixture {
	t.Helper()

	f := &paymentFixture{
		members:  &fakeMembers{members: newMembers(10)},
		payments: &fakePayments{},
		clock:    &fakeClock{t: time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)},
		kv:       kvstore.NewMemoryStore(),
	}
	f.setPaid(paid)
	f.widget = f.newWidget()
	return f
}

func (f *paymentFixture) newWidget() *PaymentStatusWidget {
	store := NewPaymentCache(context.Background(), f.kv, cache.Options{Now: f.clock.Now})
	return NewPaymentStatusWidget(f.payments, f.members, store)
}

func (f *paymentFixture) setPaid(n int) {
	var rows []models.Payment
	for i, m := range f.members.members {
		if i < n {
			rows = append(rows, paidRow(m.ID, "2024-03", 2024, true))
		}
	}
	f.payments.set(func(p *fakePayments) { p.payments = rows })
}

func (f *paymentFixture) fail() {
	f.payments.set(func(p *fakePayments) {
		p.listErr = errBackend
		p.recordErr = errBackend
	})
}

func TestPaymentStatusWidget_ColdFetch(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t, 7)

	got := f.widget.Load(context.Background(), marchSel)
	require.Nil(t, got.Err)
	require.False(t, got.Stale)
	require.Equal(t, map[string]int64{LabelPaid: 7, LabelUnpaid: 3}, bucketValues(got.Data))
	require.Equal(t, int32(1), f.payments.listCalls.Load())

	raw, err := f.kv.Get(context.Background(), CacheMirrorKey)
	require.NoError(t, err)
	require.Contains(t, raw, "payment-status-2024-03-2024")
}

func TestPaymentStatusWidget_FreshServedWithoutFetch(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t, 7)
	ctx := context.Background()

	f.widget.Load(ctx, marchSel)
	f.setPaid(9)
	f.clock.Advance(47*time.Hour + 59*time.Minute)

	got := f.widget.Load(ctx, marchSel)
	require.Equal(t, int32(1), f.payments.listCalls.Load())
	require.Equal(t, map[string]int64{LabelPaid: 7, LabelUnpaid: 3}, bucketValues(got.Data))
	require.False(t, got.Stale)
}

func TestPaymentStatusWidget_StaleRefreshesInBackground(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t, 7)
	ctx := context.Background()

	f.widget.Load(ctx, marchSel)
	f.setPaid(9)
	f.clock.Advance(48*time.Hour + time.Minute)

	got := f.widget.Load(ctx, marchSel)
	require.True(t, got.Stale)
	require.Equal(t, map[string]int64{LabelPaid: 7, LabelUnpaid: 3}, bucketValues(got.Data))

	f.widget.WaitForRefresh()
	require.Equal(t, int32(2), f.payments.listCalls.Load())

	current := f.widget.Current()
	require.Nil(t, current.Err)
	require.False(t, current.Stale)
	require.Equal(t, map[string]int64{LabelPaid: 9, LabelUnpaid: 1}, bucketValues(current.Data))

	again := f.widget.Load(ctx, marchSel)
	require.False(t, again.Stale)
	require.Equal(t, int32(2), f.payments.listCalls.Load())
}

func TestPaymentStatusWidget_StaleRefreshFailureKeepsData(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t, 7)
	ctx := context.Background()

	f.widget.Load(ctx, marchSel)
	f.fail()
	f.clock.Advance(72 * time.Hour)

	got := f.widget.Load(ctx, marchSel)
	require.True(t, got.Stale)
	f.widget.WaitForRefresh()

	current := f.widget.Current()
	require.NotNil(t, current.Err)
	require.True(t, current.Stale)
	require.Equal(t, map[string]int64{LabelPaid: 7, LabelUnpaid: 3}, bucketValues(current.Data))

	entry, state := f.widget.cache.Lookup(ctx, CacheKey(march2024))
	require.Equal(t, cache.Stale, state)
	require.Equal(t, PaymentCounts{Paid: 7, Unpaid: 3}, entry.Data)
}

func TestPaymentStatusWidget_ExpiredMustFetch(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t, 7)
	ctx := context.Background()

	f.widget.Load(ctx, marchSel)
	f.fail()
	f.clock.Advance(15 * 24 * time.Hour)

	got := f.widget.Load(ctx, marchSel)
	require.NotNil(t, got.Err)
	require.False(t, got.Stale)
	require.Equal(t, EmptyPaymentStatus(), got.Data)
}

func TestPaymentStatusWidget_FallsBackToMonthlyRecord(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t, 0)
	f.payments.set(func(p *fakePayments) {
		p.listErr = errBackend
		p.record = &models.MonthlyRecord{Month: "2024-03", Year: 2024, TotalMembers: 10, PaidMembers: 4}
	})

	got := f.widget.Load(context.Background(), marchSel)
	require.Nil(t, got.Err)
	require.Equal(t, map[string]int64{LabelPaid: 4, LabelUnpaid: 6}, bucketValues(got.Data))
	require.Equal(t, int32(1), f.payments.recordCalls.Load())
}

func TestPaymentStatusWidget_SynthesizesZerosFromEmptyRecord(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t, 0)
	f.payments.set(func(p *fakePayments) {
		p.listErr = errBackend
		p.record = &models.MonthlyRecord{}
	})

	got := f.widget.Load(context.Background(), marchSel)
	require.Nil(t, got.Err)
	require.Equal(t, EmptyPaymentStatus(), got.Data)
}

func TestPaymentStatusWidget_ColdFailureUsesDefault(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t, 7)
	f.fail()

	got := f.widget.Load(context.Background(), marchSel)
	require.NotNil(t, got.Err)
	require.Equal(t, EmptyPaymentStatus(), got.Data)
	require.Empty(t, f.widget.cache.Entries())
}

func TestPaymentStatusWidget_TimeoutSkipsFallback(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t, 7)
	f.payments.set(func(p *fakePayments) { p.block = true })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got := f.widget.Load(ctx, marchSel)
	require.NotNil(t, got.Err)
	require.Equal(t, KindTimeout, got.Err.Kind)
	require.Zero(t, f.payments.recordCalls.Load())
	require.Equal(t, EmptyPaymentStatus(), got.Data)
}

func TestPaymentStatusWidget_RetryBypassesFreshness(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t, 7)
	ctx := context.Background()

	f.widget.Load(ctx, marchSel)
	f.setPaid(10)

	require.NoError(t, f.widget.Retry(ctx))
	require.Equal(t, int32(2), f.payments.listCalls.Load())
	require.Equal(t, map[string]int64{LabelPaid: 10, LabelUnpaid: 0}, bucketValues(f.widget.Current().Data))
}

func TestPaymentStatusWidget_RetryFailureServesCache(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t, 7)
	ctx := context.Background()

	f.widget.Load(ctx, marchSel)
	f.fail()

	err := f.widget.Retry(ctx)
	require.Error(t, err)

	current := f.widget.Current()
	require.NotNil(t, current.Err)
	require.Equal(t, map[string]int64{LabelPaid: 7, LabelUnpaid: 3}, bucketValues(current.Data))
}

func TestPaymentStatusWidget_NoFetchWithoutValidSelection(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t, 7)
	ctx := context.Background()

	got := f.widget.Load(ctx, period.Selection{})
	require.Nil(t, got.Err)
	require.Equal(t, EmptyPaymentStatus(), got.Data)

	got = f.widget.Load(ctx, period.Selection{Month: "2024-13", Year: "2024"})
	require.NotNil(t, got.Err)
	require.Equal(t, KindMalformedInput, got.Err.Kind)
	require.Equal(t, EmptyPaymentStatus(), got.Data)

	require.Zero(t, f.payments.listCalls.Load())
	require.Zero(t, f.payments.recordCalls.Load())
}

func TestPaymentStatusWidget_RehydratesFromMirror(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t, 7)
	ctx := context.Background()

	f.widget.Load(ctx, marchSel)
	f.clock.Advance(time.Hour)

	restarted := f.newWidget()
	got := restarted.Load(ctx, marchSel)
	require.Equal(t, int32(1), f.payments.listCalls.Load())
	require.Equal(t, map[string]int64{LabelPaid: 7, LabelUnpaid: 3}, bucketValues(got.Data))
}

func TestCacheKey(t *testing.T) {
	t.Parallel()
	require.Equal(t, "payment-status-2024-03-2024", CacheKey(march2024))
}
