package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"gitlab.com/yelinaung/club-ledger/internal/cache"
	"gitlab.com/yelinaung/club-ledger/internal/kvstore"
	"gitlab.com/yelinaung/club-ledger/internal/logger"
	"gitlab.com/yelinaung/club-ledger/internal/models"
	"gitlab.com/yelinaung/club-ledger/internal/period"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// CacheMirrorKey is the durable slot holding the payment status cache.
const CacheMirrorKey = "payment-status-cache"

// CacheKey returns the cache key of a period, e.g. "payment-status-2024-03-2024".
func CacheKey(per period.Period) string {
	return fmt.Sprintf("payment-status-%s-%d", per.Key(), per.Year)
}

// PaymentCache backs PaymentStatusWidget.
type PaymentCache = cache.Store[PaymentCounts]

// NewPaymentCache creates the payment status cache mirrored into kv.
func NewPaymentCache(ctx context.Context, kv kvstore.Store, opts cache.Options) *PaymentCache {
	opts.MirrorKey = CacheMirrorKey
	return cache.New[PaymentCounts](ctx, kv, opts)
}

// PaymentStatusWidget serves the paid/unpaid split from a
// stale-while-revalidate cache.
type PaymentStatusWidget struct {
	payments PaymentSource
	members  MemberSource
	cache    *PaymentCache

	query     Query[PaymentCounts]
	refresh   singleflight.Group
	refreshes sync.WaitGroup
	retrying  atomic.Bool

	mu     sync.RWMutex
	sel    period.Selection
	result Result[[]Bucket]
}

// NewPaymentStatusWidget creates the widget over the given cache.
func NewPaymentStatusWidget(
	payments PaymentSource,
	members MemberSource,
	store *PaymentCache,
) *PaymentStatusWidget {
	return &PaymentStatusWidget{
		payments: payments,
		members:  members,
		cache:    store,
		result:   Result[[]Bucket]{Data: EmptyPaymentStatus()},
	}
}

func (w *PaymentStatusWidget) Name() string { return WidgetPaymentStatus }

func (w *PaymentStatusWidget) Retrying() bool { return w.retrying.Load() }

// Current returns the last result.
func (w *PaymentStatusWidget) Current() Result[[]Bucket] {
	w.mu.RLock()
	defer w.mu.RUnlock()
	r := w.result
	r.Retrying = w.retrying.Load()
	return r
}

func (w *PaymentStatusWidget) LastError() *Error {
	return w.Current().Err
}

func (w *PaymentStatusWidget) store(sel period.Selection, r Result[[]Bucket]) {
	w.mu.Lock()
	w.sel = sel
	w.result = r
	w.mu.Unlock()
}

// storeIfSelected updates the result only while sel is still selected.
func (w *PaymentStatusWidget) storeIfSelected(sel period.Selection, r Result[[]Bucket]) {
	w.mu.Lock()
	if w.sel == sel {
		w.result = r
	}
	w.mu.Unlock()
}

// WaitForRefresh blocks until background refreshes have finished.
func (w *PaymentStatusWidget) WaitForRefresh() {
	w.refreshes.Wait()
}

// Load serves sel from the cache when possible. Fresh entries are returned
// without a fetch; stale ones are returned at once while a background
// refresh runs; missing or expired ones are fetched.
func (w *PaymentStatusWidget) Load(ctx context.Context, sel period.Selection) Result[[]Bucket] {
	if sel.Empty() {
		w.query.CancelAll()
		r := Result[[]Bucket]{Data: EmptyPaymentStatus()}
		w.store(sel, r)
		return r
	}

	per, err := period.Parse(sel)
	if err != nil {
		w.query.CancelAll()
		r := Result[[]Bucket]{Data: EmptyPaymentStatus(), Err: Classify(WidgetPaymentStatus, err)}
		w.store(sel, r)
		return r
	}

	key := CacheKey(per)
	entry, state := w.cache.Lookup(ctx, key)
	recordLookup(ctx, state)

	switch state {
	case cache.Fresh:
		w.query.Supersede(per.Key())
		r := Result[[]Bucket]{Data: entry.Data.Buckets()}
		w.store(sel, r)
		return r
	case cache.Stale:
		w.query.Supersede(per.Key())
		r := Result[[]Bucket]{Data: entry.Data.Buckets(), Stale: true}
		w.store(sel, r)
		w.refreshInBackground(ctx, sel, per, entry.Data)
		return r
	}

	return w.fetchAndStore(ctx, sel, per, func(err *Error) Result[[]Bucket] {
		return Result[[]Bucket]{Data: EmptyPaymentStatus(), Err: err}
	})
}

// Retry refetches the last selection regardless of freshness. When the
// fetch fails, any non-expired cached value is served with the error.
func (w *PaymentStatusWidget) Retry(ctx context.Context) error {
	w.retrying.Store(true)
	defer w.retrying.Store(false)

	w.mu.RLock()
	sel := w.sel
	w.mu.RUnlock()

	if sel.Empty() {
		w.query.CancelAll()
		w.store(sel, Result[[]Bucket]{Data: EmptyPaymentStatus()})
		return nil
	}
	per, err := period.Parse(sel)
	if err != nil {
		w.query.CancelAll()
		classified := Classify(WidgetPaymentStatus, err)
		w.store(sel, Result[[]Bucket]{Data: EmptyPaymentStatus(), Err: classified})
		return classified
	}

	r := w.fetchAndStore(ctx, sel, per, func(err *Error) Result[[]Bucket] {
		entry, state := w.cache.Lookup(ctx, CacheKey(per))
		if state == cache.Fresh || state == cache.Stale {
			return Result[[]Bucket]{Data: entry.Data.Buckets(), Stale: true, Err: err}
		}
		return Result[[]Bucket]{Data: EmptyPaymentStatus(), Err: err}
	})
	if r.Err != nil {
		return r.Err
	}
	return nil
}

func (w *PaymentStatusWidget) fetchAndStore(
	ctx context.Context,
	sel period.Selection,
	per period.Period,
	onFailure func(*Error) Result[[]Bucket],
) Result[[]Bucket] {
	var out Result[[]Bucket]
	err := w.query.Do(ctx, per.Key(),
		func(ctx context.Context) (PaymentCounts, error) {
			return timedFetch(ctx, WidgetPaymentStatus, PaymentStatusTimeout, per, w.fetchCounts)
		},
		func(counts PaymentCounts, err error) {
			if err != nil {
				out = onFailure(Classify(WidgetPaymentStatus, err))
			} else {
				w.cache.Set(ctx, CacheKey(per), counts)
				out = Result[[]Bucket]{Data: counts.Buckets()}
			}
			w.store(sel, out)
		},
	)
	if errors.Is(err, ErrSuperseded) {
		return w.Current()
	}
	return out
}

// refreshInBackground refetches a stale entry. Concurrent refreshes of the
// same key share one fetch.
func (w *PaymentStatusWidget) refreshInBackground(
	ctx context.Context,
	sel period.Selection,
	per period.Period,
	stale PaymentCounts,
) {
	key := CacheKey(per)
	bg := context.WithoutCancel(ctx)

	w.refreshes.Add(1)
	go func() {
		defer w.refreshes.Done()

		_, err, _ := w.refresh.Do(key, func() (any, error) {
			counts, err := timedFetch(bg, WidgetPaymentStatus, PaymentStatusTimeout, per, w.fetchCounts)
			if err != nil {
				return nil, err
			}
			w.cache.Set(bg, key, counts)
			w.storeIfSelected(sel, Result[[]Bucket]{Data: counts.Buckets()})
			return counts, nil
		})
		if err != nil {
			classified := Classify(WidgetPaymentStatus, err)
			logger.Log.Warn().Err(err).Str("key", key).Msg("Background payment status refresh failed")
			w.storeIfSelected(sel, Result[[]Bucket]{Data: stale.Buckets(), Stale: true, Err: classified})
		}
	}()
}

// fetchCounts tries the full payment list first and the backend aggregate
// second.
func (w *PaymentStatusWidget) fetchCounts(ctx context.Context, per period.Period) (PaymentCounts, error) {
	counts, err := w.fetchFromPayments(ctx, per)
	if err == nil {
		return counts, nil
	}
	if ctx.Err() != nil {
		return PaymentCounts{}, err
	}

	logger.Log.Warn().Err(err).Str("period", per.Key()).Msg("Payment list fetch failed, using monthly record")
	rec, recErr := w.payments.GetMonthlyRecord(ctx, per.Key(), per.Year)
	if recErr != nil {
		return PaymentCounts{}, recErr
	}
	return CountsFromRecord(rec), nil
}

func (w *PaymentStatusWidget) fetchFromPayments(ctx context.Context, per period.Period) (PaymentCounts, error) {
	var payments []models.Payment
	var roster []uuid.UUID

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payments, err = w.payments.GetAllWithRetry(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		roster, err = w.members.GetIDs(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return PaymentCounts{}, err
	}
	return CountPayments(payments, per, roster), nil
}
