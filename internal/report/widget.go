package report

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"gitlab.com/yelinaung/club-ledger/internal/period"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Per-widget fetch timeouts.
const (
	MemberStatusTimeout     = 8 * time.Second
	ExpensesTimeout         = 12 * time.Second
	FinancialSummaryTimeout = 15 * time.Second
	PaymentStatusTimeout    = 20 * time.Second
)

// Result is a widget's output. Data is always populated, with the widget's
// empty dataset when nothing better is available.
type Result[T any] struct {
	Data     T
	Err      *Error
	Stale    bool
	Retrying bool
}

// Widget is the common surface of the four report widgets.
type Widget interface {
	Name() string
	Retry(ctx context.Context) error
	Retrying() bool
	LastError() *Error
}

// FetchWidget fetches and reduces its dataset on every load.
type FetchWidget[T any] struct {
	name    string
	timeout time.Duration
	empty   func() T
	fetch   func(context.Context, period.Period) (T, error)

	query    Query[T]
	retrying atomic.Bool

	mu     sync.RWMutex
	sel    period.Selection
	result Result[T]
}

func newFetchWidget[T any](
	name string,
	timeout time.Duration,
	empty func() T,
	fetch func(context.Context, period.Period) (T, error),
) *FetchWidget[T] {
	return &FetchWidget[T]{
		name:    name,
		timeout: timeout,
		empty:   empty,
		fetch:   fetch,
		result:  Result[T]{Data: empty()},
	}
}

func (w *FetchWidget[T]) Name() string { return w.name }

func (w *FetchWidget[T]) Retrying() bool { return w.retrying.Load() }

// Current returns the last committed result.
func (w *FetchWidget[T]) Current() Result[T] {
	w.mu.RLock()
	defer w.mu.RUnlock()
	r := w.result
	r.Retrying = w.retrying.Load()
	return r
}

func (w *FetchWidget[T]) LastError() *Error {
	return w.Current().Err
}

func (w *FetchWidget[T]) store(sel period.Selection, r Result[T]) {
	w.mu.Lock()
	w.sel = sel
	w.result = r
	w.mu.Unlock()
}

// Load fetches the dataset for sel. An empty selection resolves to the empty
// dataset without fetching; a malformed one fails without fetching. Either
// way, runs still in flight for an earlier selection are dropped.
func (w *FetchWidget[T]) Load(ctx context.Context, sel period.Selection) Result[T] {
	if sel.Empty() {
		w.query.CancelAll()
		r := Result[T]{Data: w.empty()}
		w.store(sel, r)
		return r
	}

	per, err := period.Parse(sel)
	if err != nil {
		w.query.CancelAll()
		r := Result[T]{Data: w.empty(), Err: Classify(w.name, err)}
		w.store(sel, r)
		return r
	}

	var out Result[T]
	err = w.query.Do(ctx, per.Key(),
		func(ctx context.Context) (T, error) {
			return timedFetch(ctx, w.name, w.timeout, per, w.fetch)
		},
		func(data T, err error) {
			if err != nil {
				out = Result[T]{Data: w.empty(), Err: Classify(w.name, err)}
			} else {
				out = Result[T]{Data: data}
			}
			w.store(sel, out)
		},
	)
	if errors.Is(err, ErrSuperseded) {
		return w.Current()
	}
	return out
}

// Retry reloads the last selection.
func (w *FetchWidget[T]) Retry(ctx context.Context) error {
	w.retrying.Store(true)
	defer w.retrying.Store(false)

	w.mu.RLock()
	sel := w.sel
	w.mu.RUnlock()

	r := w.Load(ctx, sel)
	if r.Err != nil {
		return r.Err
	}
	return nil
}

// timedFetch runs fetch under the widget timeout inside a span.
func timedFetch[T any](
	ctx context.Context,
	name string,
	timeout time.Duration,
	per period.Period,
	fetch func(context.Context, period.Period) (T, error),
) (T, error) {
	ctx, span := tracer.Start(ctx, "report."+name, trace.WithAttributes(
		attribute.String("report.period", per.Key()),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := fetch(ctx, per)
	if err != nil {
		kind := Classify(name, err).Kind
		span.RecordError(err)
		span.SetStatus(codes.Error, kind.String())
		recordFailure(ctx, name, kind)
	}
	return data, err
}
