package report

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of work for AnySucceeds.
type Task func(ctx context.Context) error

// CombinedResult holds the outcome of every task, by position.
type CombinedResult struct {
	Errs []error
}

// Succeeded counts tasks that returned nil.
func (c CombinedResult) Succeeded() int {
	n := 0
	for _, err := range c.Errs {
		if err == nil {
			n++
		}
	}
	return n
}

// AnySucceeded reports whether at least one task returned nil.
func (c CombinedResult) AnySucceeded() bool {
	return c.Succeeded() > 0
}

// AnySucceeds runs all tasks concurrently and waits for every one. A failing
// task does not cancel the others.
func AnySucceeds(ctx context.Context, tasks ...Task) CombinedResult {
	result := CombinedResult{Errs: make([]error, len(tasks))}

	var g errgroup.Group
	for i, task := range tasks {
		g.Go(func() error {
			result.Errs[i] = task(ctx)
			return nil
		})
	}
	_ = g.Wait()

	return result
}
