// Package refresh drives one full corpus refresh: a batch of rate-limited
// single-item fetches committed as an atomic replacement.
package refresh

import (
	"context"
	"fmt"
	"log"
	"time"

	"content-service/metrics"
	"content-service/model"
	"content-service/ratelimit"
	"content-service/store"
)

// Source fetches one item from the external source, retrying internally.
type Source interface {
	FetchOne(ctx context.Context) (model.Item, error)
}

// Result reports how a refresh batch went. Per-item failures are counted
// here, not propagated.
type Result struct {
	SuccessCount int
	FailCount    int
}

type Refresher struct {
	source  Source
	limiter *ratelimit.Limiter
	store   store.Store
	schema  model.Schema

	// Serializes refreshes: a concurrent trigger waits for the running
	// refresh to finish instead of racing it on the same collection.
	running chan struct{}
}

func New(source Source, limiter *ratelimit.Limiter, st store.Store, schema model.Schema) *Refresher {
	return &Refresher{
		source:  source,
		limiter: limiter,
		store:   st,
		schema:  schema,
		running: make(chan struct{}, 1),
	}
}

// Refresh fetches batchSize items and replaces the whole corpus with the
// successes. A batch of zero still replaces, leaving the corpus empty:
// refresh always means fresh. Individual fetch failures are counted and
// skipped; only infrastructure errors (store unreachable, shutdown) make the
// invocation fail, and then the previous corpus is left untouched.
func (r *Refresher) Refresh(ctx context.Context, batchSize int) (Result, error) {
	select {
	case r.running <- struct{}{}:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	defer func() { <-r.running }()

	start := time.Now()
	log.Printf("Starting %s refresh with batch size %d", r.schema.Name, batchSize)

	var res Result
	items := make([]model.Item, 0, batchSize)

	for i := 0; i < batchSize; i++ {
		if err := r.limiter.Acquire(ctx); err != nil {
			return res, err
		}
		item, err := r.source.FetchOne(ctx)
		r.limiter.Release()

		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if err != nil {
			res.FailCount++
			metrics.ItemsFetched.WithLabelValues(r.schema.Name, "failure").Inc()
			log.Printf("Failed to fetch %s %d/%d: %v", r.schema.Name, i+1, batchSize, err)
			continue
		}

		item["_fetchedAt"] = time.Now().UTC()
		items = append(items, item)
		res.SuccessCount++
		metrics.ItemsFetched.WithLabelValues(r.schema.Name, "success").Inc()
	}

	cleared, err := r.store.ReplaceAll(ctx, items)
	if err != nil {
		return res, fmt.Errorf("replace %s corpus: %w", r.schema.Plural, err)
	}

	metrics.CorpusSize.WithLabelValues(r.schema.Name).Set(float64(res.SuccessCount))
	metrics.RefreshDuration.WithLabelValues(r.schema.Name).Observe(time.Since(start).Seconds())
	log.Printf("%s refresh completed in %v. Success: %d, Failed: %d (replaced %d existing)",
		r.schema.Name, time.Since(start), res.SuccessCount, res.FailCount, cleared)

	return res, nil
}
