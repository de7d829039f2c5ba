package async

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes tasks concurrently, at most limit at a time (limit <= 0
// means unbounded), and returns the first error encountered. The context
// passed to tasks is cancelled as soon as one task fails.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "m1", Func: waitForM1},
//	    {Name: "w1", Func: waitForW1},
//	}
//	if err := RunParallel(ctx, tasks, 5); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task, limit int) error {
	if len(tasks) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, task := range tasks {
		g.Go(func() error {
			if err := task.Func(gctx); err != nil {
				return fmt.Errorf("%s: %w", task.Name, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// RunAll executes every task, at most limit at a time, without cancelling
// siblings on failure. It returns the errors keyed by task name; the map is
// empty when all tasks succeed.
func RunAll(ctx context.Context, tasks []Task, limit int) map[string]error {
	errs := make(map[string]error)
	if len(tasks) == 0 {
		return errs
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, task := range tasks {
		g.Go(func() error {
			if err := task.Func(ctx); err != nil {
				mu.Lock()
				errs[task.Name] = err
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	return errs
}
