package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"content-service/model"
	"content-service/ratelimit"
	"content-service/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource fails or succeeds per call based on fail.
type scriptedSource struct {
	calls atomic.Int32
	fail  func(call int32) bool
}

func (s *scriptedSource) FetchOne(_ context.Context) (model.Item, error) {
	n := s.calls.Add(1)
	if s.fail != nil && s.fail(n) {
		return nil, errors.New("upstream unavailable")
	}
	return model.Item{"title": fmt.Sprintf("item %d", n), "description": "fetched"}, nil
}

func alwaysSucceed() *scriptedSource { return &scriptedSource{} }

func newTestRefresher(src Source, st store.Store) *Refresher {
	return New(src, ratelimit.New(0), st, model.Article)
}

func TestRefreshFillsCorpus(t *testing.T) {
	st := store.NewMemory(model.Article)
	r := newTestRefresher(alwaysSucceed(), st)

	res, err := r.Refresh(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 10, res.SuccessCount)
	assert.Zero(t, res.FailCount)

	total, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 10, total)
}

func TestRefreshCountsOddCallFailures(t *testing.T) {
	st := store.NewMemory(model.Article)
	src := &scriptedSource{fail: func(call int32) bool { return call%2 == 1 }}
	r := newTestRefresher(src, st)

	res, err := r.Refresh(context.Background(), 5)
	require.NoError(t, err, "per-item failures never fail the batch")

	assert.Equal(t, 5, res.SuccessCount+res.FailCount)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 3, res.FailCount)

	total, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, res.SuccessCount, total, "only fetched items reach the store")
}

// Refresh always means fresh: a zero batch still replaces a non-empty corpus
// with nothing.
func TestRefreshWithZeroBatchClearsCorpus(t *testing.T) {
	st := store.NewMemory(model.Article)
	_, err := st.ReplaceAll(context.Background(), []model.Item{
		{"title": "stale-1"}, {"title": "stale-2"},
	})
	require.NoError(t, err)

	src := alwaysSucceed()
	r := newTestRefresher(src, st)

	res, err := r.Refresh(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, res.SuccessCount)
	assert.Zero(t, src.calls.Load(), "no fetches for an empty batch")

	total, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRefreshStoreFailurePropagatesAndKeepsOldCorpus(t *testing.T) {
	st := &failingStore{Memory: store.NewMemory(model.Article)}
	_, err := st.Memory.ReplaceAll(context.Background(), []model.Item{{"title": "survivor"}})
	require.NoError(t, err)

	r := newTestRefresher(alwaysSucceed(), st)

	_, err = r.Refresh(context.Background(), 3)
	assert.Error(t, err, "infrastructure errors are not swallowed")

	total, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total, "failed replacement leaves the previous corpus intact")
}

type failingStore struct {
	*store.Memory
}

func (f *failingStore) ReplaceAll(context.Context, []model.Item) (int64, error) {
	return 0, errors.New("store unreachable")
}

// Two overlapping refreshes must serialize: the corpus ends up holding
// exactly one batch, never a mix and never nothing.
func TestConcurrentRefreshesAreSingleFlight(t *testing.T) {
	st := store.NewMemory(model.Article)
	r := New(alwaysSucceed(), ratelimit.New(time.Millisecond), st, model.Article)

	const batch = 4
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Refresh(context.Background(), batch)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	total, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, batch, total,
		"after overlapping triggers the corpus holds exactly one batch")
}

func TestRefreshCancelledBeforeCommitKeepsOldCorpus(t *testing.T) {
	st := store.NewMemory(model.Article)
	_, err := st.ReplaceAll(context.Background(), []model.Item{{"title": "pre-refresh"}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	src := &scriptedSource{}
	src.fail = func(call int32) bool {
		if call == 2 {
			cancel()
		}
		return false
	}
	r := newTestRefresher(src, st)

	_, err = r.Refresh(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)

	total, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total, "an interrupted batch never clears the corpus")
}
