package storage

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"energyetl/internal/metrics"
)

// CopyFn is a backend's bulk insert. It inserts rows aligned to columns and
// returns the number of rows written. It should cancel promptly when ctx is
// done.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn for each non-empty batch. It returns the total reported by
// copyFn and the first error. Every successful flush is logged with running
// totals and rows/sec since the previous flush, and counted under job.
func LoadBatches(
	ctx context.Context,
	job string,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, eris.New("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, eris.New("copyFn must not be nil")
	}

	var (
		total     int64
		batches   int64
		batch     = make([][]any, 0, batchSize)
		start     = time.Now()
		lastFlush = start
		lastTotal int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			zap.L().Error("loader: copy failed",
				zap.Int64("after", n), zap.Int64("total", total), zap.Error(err))
			return err
		}

		batches++
		metrics.RecordBatches(job, 1)
		now := time.Now()
		since := now.Sub(lastFlush)
		rps := float64(0)
		if since > 0 {
			rps = float64(total-lastTotal) / since.Seconds()
		}
		zap.L().Debug("loader: batch flushed",
			zap.Int64("batch", batches),
			zap.String("rps", humanize.Comma(int64(rps))),
			zap.Int64("inserted", n),
			zap.String("total_inserted", humanize.Comma(total)),
			zap.Duration("elapsed", now.Sub(start).Truncate(time.Millisecond)),
		)
		lastFlush = now
		lastTotal = total
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
