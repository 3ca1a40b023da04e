// Package service is the read side of the corpus: pagination, substring
// search, lookup by id and counts, all against the live collection.
package service

import (
	"context"
	"strings"
	"time"

	"content-service/config"
	"content-service/model"
	"content-service/store"
)

type Query struct {
	store store.Store
	cfg   *config.Config
}

func NewQuery(st store.Store, cfg *config.Config) *Query {
	return &Query{store: st, cfg: cfg}
}

// List returns one page of items plus the corpus total.
func (q *Query) List(ctx context.Context, page, pageSize int) ([]model.Item, int64, error) {
	items, err := q.store.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	total, err := q.store.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Search returns one page of matching items. The reported total is the
// unfiltered corpus count, matching the reference behavior; an empty or
// whitespace term falls back to List.
func (q *Query) Search(ctx context.Context, term string, page, pageSize int) ([]model.Item, int64, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return q.List(ctx, page, pageSize)
	}

	items, err := q.store.Search(ctx, term, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	total, err := q.store.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (q *Query) Get(ctx context.Context, id string) (model.Item, error) {
	return q.store.GetByID(ctx, id)
}

func (q *Query) Count(ctx context.Context) (int64, error) {
	return q.store.Count(ctx)
}

type Stats struct {
	TotalItems             int64     `json:"totalItems"`
	RefreshIntervalMinutes float64   `json:"refreshIntervalMinutes"`
	RateLimitMs            int64     `json:"rateLimitMs"`
	BatchSize              int       `json:"batchSize"`
	Timestamp              time.Time `json:"timestamp"`
}

func (q *Query) Stats(ctx context.Context) (Stats, error) {
	total, err := q.store.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalItems:             total,
		RefreshIntervalMinutes: q.cfg.RefreshInterval.Minutes(),
		RateLimitMs:            q.cfg.RateLimitDelay.Milliseconds(),
		BatchSize:              q.cfg.BatchSize,
		Timestamp:              time.Now().UTC(),
	}, nil
}
