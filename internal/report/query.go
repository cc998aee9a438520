package report

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is the cancellation cause of a run replaced by a run for a
// different key.
var ErrSuperseded = errors.New("superseded by a newer query")

type run struct {
	key    string
	ctx    context.Context
	cancel context.CancelCauseFunc
}

// Query runs fetches keyed by their input. Starting a run for a new key
// cancels every in-flight run for other keys. A cancelled run never reaches
// its commit function.
type Query[T any] struct {
	mu     sync.Mutex
	active map[*run]struct{}
}

// Do runs fetch and passes its outcome to commit. It returns ErrSuperseded,
// without calling commit, when a run for another key started meanwhile.
func (q *Query[T]) Do(
	ctx context.Context,
	key string,
	fetch func(context.Context) (T, error),
	commit func(T, error),
) error {
	r := q.start(ctx, key)
	defer q.finish(r)

	data, err := fetch(r.ctx)

	q.mu.Lock()
	defer q.mu.Unlock()
	if errors.Is(context.Cause(r.ctx), ErrSuperseded) {
		return ErrSuperseded
	}
	commit(data, err)
	return nil
}

// Supersede cancels in-flight runs for every key other than key. Once it
// returns, none of them will commit.
func (q *Query[T]) Supersede(key string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelLocked(func(r *run) bool { return r.key != key })
}

// CancelAll cancels every in-flight run. Once it returns, none of them will
// commit.
func (q *Query[T]) CancelAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelLocked(func(*run) bool { return true })
}

func (q *Query[T]) cancelLocked(match func(*run) bool) {
	for r := range q.active {
		if match(r) {
			r.cancel(ErrSuperseded)
		}
	}
}

func (q *Query[T]) start(ctx context.Context, key string) *run {
	runCtx, cancel := context.WithCancelCause(ctx)
	r := &run{key: key, ctx: runCtx, cancel: cancel}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.active == nil {
		q.active = make(map[*run]struct{})
	}
	q.cancelLocked(func(other *run) bool { return other.key != key })
	q.active[r] = struct{}{}
	return r
}

func (q *Query[T]) finish(r *run) {
	q.mu.Lock()
	delete(q.active, r)
	q.mu.Unlock()
	r.cancel(context.Canceled)
}
