package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"energyetl/internal/metrics"
)

// batchCounter captures export batch increments per job.
type batchCounter struct {
	mu   sync.Mutex
	jobs map[string]float64
}

func (b *batchCounter) IncCounter(name string, delta float64, labels metrics.Labels) {
	if name != metrics.BatchesTotal {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs[labels["job"]] += delta
}

func (b *batchCounter) ObserveHistogram(string, float64, metrics.Labels) {}
func (b *batchCounter) Flush() error                                    { return nil }

func countBatches(t *testing.T) *batchCounter {
	t.Helper()
	b := &batchCounter{jobs: map[string]float64{}}
	metrics.SetBackend(b)
	t.Cleanup(metrics.Reset)
	return b
}

// summaryRows feeds n yearly summary rows starting at 1990.
func summaryRows(n int) <-chan []any {
	in := make(chan []any, n)
	for i := 0; i < n; i++ {
		in <- []any{int64(1990 + i), float64(i) * 1.5}
	}
	close(in)
	return in
}

var summaryCols = []string{"year", "primary_energy_consumption_sum"}

func TestLoadBatches_CountsBatchesPerJob(t *testing.T) {
	counter := countBatches(t)

	var years []int64
	copyFn := func(_ context.Context, cols []string, rows [][]any) (int64, error) {
		assert.Equal(t, summaryCols, cols)
		for _, r := range rows {
			years = append(years, r[0].(int64))
		}
		return int64(len(rows)), nil
	}

	n, err := LoadBatches(context.Background(), "owid", summaryCols, summaryRows(5), 2, copyFn)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	assert.Equal(t, []int64{1990, 1991, 1992, 1993, 1994}, years, "rows keep their order across batches")
	assert.Equal(t, map[string]float64{"owid": 3}, counter.jobs)
}

func TestLoadBatches_FailedBatchIsNotCounted(t *testing.T) {
	counter := countBatches(t)

	boom := errors.New("constraint failed")
	calls := 0
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		calls++
		if calls == 2 {
			return 0, boom
		}
		return int64(len(rows)), nil
	}

	n, err := LoadBatches(context.Background(), "owid", summaryCols, summaryRows(6), 2, copyFn)
	require.ErrorIs(t, err, boom)
	assert.EqualValues(t, 2, n, "only the first batch landed")
	assert.Equal(t, 2, calls, "no batch is attempted after a failure")
	assert.Equal(t, map[string]float64{"owid": 1}, counter.jobs)
}

func TestLoadBatches_StopsOnCancel(t *testing.T) {
	counter := countBatches(t)

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan []any)
	done := make(chan error, 1)
	go func() {
		_, err := LoadBatches(ctx, "owid", summaryCols, in, 10, func(context.Context, []string, [][]any) (int64, error) {
			return 0, nil
		})
		done <- err
	}()

	in <- []any{int64(2000), 1.0}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loader kept waiting for rows after cancel")
	}
	assert.Empty(t, counter.jobs, "a partial batch is not flushed on cancel")
}

func TestLoadBatches_LogsHumanizedTotals(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) { return int64(len(rows)), nil }
	_, err := LoadBatches(context.Background(), "owid", summaryCols, summaryRows(1200), 500, copyFn)
	require.NoError(t, err)

	flushes := logs.FilterMessage("loader: batch flushed").All()
	require.Len(t, flushes, 3)
	last := flushes[2].ContextMap()
	assert.Equal(t, "1,200", last["total_inserted"])
	assert.EqualValues(t, 200, last["inserted"])
	assert.EqualValues(t, 3, last["batch"])
}

func TestLoadBatches_RejectsBadArguments(t *testing.T) {
	in := make(chan []any)
	close(in)
	copyFn := func(context.Context, []string, [][]any) (int64, error) { return 0, nil }

	_, err := LoadBatches(context.Background(), "owid", summaryCols, in, 0, copyFn)
	assert.ErrorContains(t, err, "batchSize")
	_, err = LoadBatches(context.Background(), "owid", summaryCols, in, 1, nil)
	assert.ErrorContains(t, err, "copyFn")
}

func TestLoadBatches_EmptyTableWritesNothing(t *testing.T) {
	counter := countBatches(t)

	in := make(chan []any)
	close(in)
	n, err := LoadBatches(context.Background(), "owid", summaryCols, in, 100, func(context.Context, []string, [][]any) (int64, error) {
		t.Fatal("copyFn called for an empty table")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, counter.jobs)
}
