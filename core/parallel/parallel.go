// Package parallel provides the worker helpers used by batch prediction and
// the cross-validated grid search.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// Parallelize divides the specified total number (items) according to the number of CPU cores,
// and executes the specified function (fn) in parallel for each range (start, end)
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// ceiling division
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of items exceeds the threshold
// If below threshold, normal sequential processing is performed
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	Parallelize(items, fn)
}

// Workers は要求されたワーカー数を正規化します。0 以下は runtime.NumCPU() になり、
// tasks より多くはなりません。
func Workers(requested, tasks int) int {
	w := requested
	if w <= 0 {
		w = runtime.NumCPU()
	}
	if w > tasks {
		w = tasks
	}
	if w < 1 {
		w = 1
	}
	return w
}

// ForEach は [0, tasks) の各インデックスに対して fn を最大 workers 個の
// goroutine で実行します。結果の書き込みは fn 側でインデックスごとに行うため、
// 完了順序には依存しません。
//
// ctx が完了すると新しいタスクの投入を止め、実行中のタスクの終了を待ってから
// ctx.Err() を返します。全タスクが投入・完了した場合は nil を返します。
func ForEach(ctx context.Context, tasks, workers int, fn func(i int)) error {
	if tasks <= 0 {
		return ctx.Err()
	}
	workers = Workers(workers, tasks)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}

	var err error
dispatch:
	for i := 0; i < tasks; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return err
	}
	return ctx.Err()
}
