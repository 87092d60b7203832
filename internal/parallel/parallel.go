// Package parallel provides the work-group scheduler for kernel dispatch.
//
// A kernel launch fans out over n independent rows (work-groups). Rows
// never communicate, so the scheduler only has to partition the row range
// across workers and wait for completion.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls work-group scheduling behavior.
type Config struct {
	Enabled          bool // Whether parallel dispatch is enabled.
	NumWorkers       int  // Number of worker goroutines to use.
	MinRowsPerWorker int  // Minimum rows per worker to avoid goroutine overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:          n > 1,
		NumWorkers:       n,
		MinRowsPerWorker: 4,
	}
}

// Serial returns a config that forces sequential dispatch.
// Used by tests that compare parallel and sequential results.
func Serial() Config {
	return Config{Enabled: false, NumWorkers: 1, MinRowsPerWorker: 1}
}

// ForGroups executes f over contiguous sub-ranges [start, end) that
// together cover [0, n). Each sub-range runs on one worker goroutine, so
// f may allocate per-worker scratch once and reuse it for every row in
// its range. Falls back to a single sequential call if parallelism is
// disabled or n is too small to amortize the fan-out.
func ForGroups(n int, cfg Config, f func(start, end int)) {
	if n <= 0 {
		return
	}
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < 2*cfg.MinRowsPerWorker {
		f(0, n)
		return
	}

	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinRowsPerWorker)

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			f(s, e)
		}(start, end)
	}
	wg.Wait()
}

// For executes f(i) for i in [0, n) with optional parallelism.
func For(n int, cfg Config, f func(i int)) {
	ForGroups(n, cfg, func(start, end int) {
		for i := start; i < end; i++ {
			f(i)
		}
	})
}
