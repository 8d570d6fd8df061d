// Package settle runs a batch of independent tasks and waits for every one of
// them, keeping the successes and collecting the failures.
package settle

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type Failure struct {
	Index int
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("task %d: %v", f.Index, f.Err)
}

type Results[T any] struct {
	Values   []T // successful values in input order
	Failures []Failure
}

// All runs fn for every index in [0, n) with at most limit tasks in flight
// (limit <= 0 means unbounded). A failing or panicking task never cancels its
// siblings.
func All[T any](ctx context.Context, limit, n int, fn func(ctx context.Context, i int) (T, error)) Results[T] {
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	values := make([]T, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("panic: %v", r)
				}
			}()
			values[i], errs[i] = fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()

	res := Results[T]{Values: make([]T, 0, n)}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			res.Failures = append(res.Failures, Failure{Index: i, Err: errs[i]})
			continue
		}
		res.Values = append(res.Values, values[i])
	}
	return res
}
