package util

import (
	"context"
	"sync"
)

// ForEach runs fn for every input on at most workerLimit goroutines and
// returns the error of each input at the same index. A failing input does not
// stop the others; a cancelled ctx stops feeding new inputs, which then report
// ctx.Err().
func ForEach[T any](ctx context.Context, inputs []T, workerLimit int, fn func(context.Context, T) error) []error {
	errs := make([]error, len(inputs))
	if len(inputs) == 0 {
		return errs
	}
	if workerLimit <= 0 {
		workerLimit = 1
	}
	if workerLimit > len(inputs) {
		workerLimit = len(inputs)
	}

	tasks := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workerLimit; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				errs[i] = fn(ctx, inputs[i])
			}
		}()
	}

	next := 0
feed:
	for ; next < len(inputs); next++ {
		select {
		case <-ctx.Done():
			break feed
		case tasks <- next:
		}
	}
	close(tasks)
	wg.Wait()

	for i := next; i < len(inputs); i++ {
		errs[i] = ctx.Err()
	}
	return errs
}
