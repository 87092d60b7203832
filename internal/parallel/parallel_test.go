package parallel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForGroupsCoversRangeExactlyOnce(t *testing.T) {
	tests := []struct {
		name string
		n    int
		cfg  Config
	}{
		{name: "sequential fallback", n: 10, cfg: Serial()},
		{name: "parallel", n: 1000, cfg: Config{Enabled: true, NumWorkers: 8, MinRowsPerWorker: 4}},
		{name: "more workers than rows", n: 3, cfg: Config{Enabled: true, NumWorkers: 16, MinRowsPerWorker: 1}},
		{name: "default config", n: 257, cfg: DefaultConfig()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			seen := make([]int, tt.n)

			ForGroups(tt.n, tt.cfg, func(start, end int) {
				require.LessOrEqual(t, start, end)
				mu.Lock()
				defer mu.Unlock()
				for i := start; i < end; i++ {
					seen[i]++
				}
			})

			for i, count := range seen {
				assert.Equal(t, 1, count, "index %d", i)
			}
		})
	}
}

func TestForGroupsZeroAndNegative(t *testing.T) {
	called := false
	ForGroups(0, DefaultConfig(), func(start, end int) { called = true })
	ForGroups(-5, DefaultConfig(), func(start, end int) { called = true })
	assert.False(t, called)
}

func TestFor(t *testing.T) {
	n := 500
	var mu sync.Mutex
	sum := 0

	For(n, Config{Enabled: true, NumWorkers: 4, MinRowsPerWorker: 2}, func(i int) {
		mu.Lock()
		sum += i
		mu.Unlock()
	})

	assert.Equal(t, n*(n-1)/2, sum)
}
