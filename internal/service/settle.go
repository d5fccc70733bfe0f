package service

import (
	"context"
	"sync"
)

// settleAll runs every task concurrently and waits for all of them to
// finish. One task failing never cancels its siblings; the caller gets
// one error slot per task and decides what a partial failure means.
func settleAll(ctx context.Context, tasks ...func(context.Context) error) []error {
	errs := make([]error, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task func(context.Context) error) {
			defer wg.Done()
			errs[i] = task(ctx)
		}(i, task)
	}
	wg.Wait()

	return errs
}
