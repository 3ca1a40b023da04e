// Package store holds the corpus: the full set of items for one deployment.
package store

import (
	"context"
	"errors"

	"content-service/model"
)

// ErrNotFound reports a lookup for an id the corpus does not hold. It is an
// empty-result condition, not a failure.
var ErrNotFound = errors.New("item not found")

// Store is the keyed collection the refresh pipeline writes and the query
// service reads. Implementations must let readers observe either the
// pre-refresh or post-refresh corpus during ReplaceAll, never a half-cleared
// state.
type Store interface {
	// Count returns the total number of items in the corpus.
	Count(ctx context.Context) (int64, error)

	// List returns one page of items, newest first. page is 1-based.
	List(ctx context.Context, page, pageSize int) ([]model.Item, error)

	// Search returns one page of items whose search fields contain term
	// (case-insensitive). An empty or whitespace term behaves like List.
	Search(ctx context.Context, term string, page, pageSize int) ([]model.Item, error)

	// GetByID returns the item with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id string) (model.Item, error)

	// ReplaceAll swaps the entire corpus for items in one step and returns
	// the number of items the previous corpus held. An empty batch leaves
	// the corpus empty.
	ReplaceAll(ctx context.Context, items []model.Item) (int64, error)
}
