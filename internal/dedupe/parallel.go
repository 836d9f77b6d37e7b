package dedupe

import (
	"context"
	"runtime"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/buyer-dedupe/internal/model"
)

// FindDuplicatesParallel is FindDuplicates with the comparisons split into
// chunks scored concurrently by at most workers goroutines. The result is
// identical to FindDuplicates for the same input, including tie order.
// workers <= 0 uses runtime.NumCPU().
func FindDuplicatesParallel(ctx context.Context, candidate model.Buyer, existing []model.Buyer, workers int) (Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if len(existing) == 0 {
		return newResult(nil), nil
	}

	scored := make([]*Match, len(existing))
	chunkSize := (len(existing) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(existing); start += chunkSize {
		end := min(start+chunkSize, len(existing))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				scored[i] = CheckDuplicate(candidate, existing[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, eris.Wrap(err, "dedupe: parallel scan")
	}

	var matches []Match
	for _, m := range scored {
		if m != nil {
			matches = append(matches, *m)
		}
	}
	return newResult(rankMatches(matches)), nil
}
