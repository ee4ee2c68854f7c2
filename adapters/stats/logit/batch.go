package logit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"promohypo/domain/model"

	"golang.org/x/sync/semaphore"
)

// FitOutcome is the result of fitting one family in a batch
type FitOutcome struct {
	Family   model.TermSet
	Model    *model.FittedModel
	Err      error
	Duration time.Duration
}

// FitAll fits every family concurrently with at most workers fits in flight.
// Outcomes are returned in the order of families; a failed family does not
// stop the others.
func (e *Engine) FitAll(ctx context.Context, ds Dataset, families []model.TermSet, workers int) []FitOutcome {
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	outcomes := make([]FitOutcome, len(families))

	var wg sync.WaitGroup
	for i, family := range families {
		outcomes[i].Family = family

		if err := ctx.Err(); err != nil {
			outcomes[i].Err = fmt.Errorf("fit %s: %w", family.Name(), err)
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			outcomes[i].Err = fmt.Errorf("fit %s: %w", family.Name(), err)
			continue
		}

		wg.Add(1)
		go func(i int, family model.TermSet) {
			defer wg.Done()
			defer sem.Release(1)

			start := time.Now()
			fit, err := e.Fit(ds, family)
			outcomes[i].Model = fit
			outcomes[i].Err = err
			outcomes[i].Duration = time.Since(start)

			if err != nil {
				e.logger.Debug("[IRLS] family %s failed: %v", family.Name(), err)
			}
		}(i, family)
	}
	wg.Wait()

	return outcomes
}
