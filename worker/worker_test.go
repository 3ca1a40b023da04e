package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"content-service/config"
	"content-service/model"
	"content-service/ratelimit"
	"content-service/refresh"
	"content-service/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls atomic.Int32
}

func (s *countingSource) FetchOne(_ context.Context) (model.Item, error) {
	n := s.calls.Add(1)
	return model.Item{"title": fmt.Sprintf("item %d", n)}, nil
}

func testWorker(cfg *config.Config, st store.Store, src refresh.Source) *Worker {
	refresher := refresh.New(src, ratelimit.New(0), st, cfg.Schema)
	return New(cfg, nil, refresher, st)
}

func testConfig() *config.Config {
	return &config.Config{
		Schema:          model.Article,
		BatchSize:       3,
		MaxBatchSize:    1000,
		RefreshInterval: time.Hour,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// Empty corpus at boot converges to a populated one once startup completes.
func TestStartRefreshesEmptyCorpus(t *testing.T) {
	st := store.NewMemory(model.Article)
	w := testWorker(testConfig(), st, &countingSource{})

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	waitFor(t, func() bool {
		total, err := st.Count(context.Background())
		return err == nil && total == 3
	})
}

func TestStartSkipsRefreshWhenCorpusPopulated(t *testing.T) {
	st := store.NewMemory(model.Article)
	_, err := st.ReplaceAll(context.Background(), []model.Item{{"title": "existing"}})
	require.NoError(t, err)

	src := &countingSource{}
	w := testWorker(testConfig(), st, src)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, src.calls.Load(), "a populated corpus is left alone at startup")

	total, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

// A refresh that fails on the store does not stop the timer; the next tick
// still fires and repopulates the corpus.
func TestSchedulerSurvivesFailedRefresh(t *testing.T) {
	st := &flakyStore{Memory: store.NewMemory(model.Article), failures: 1}
	_, err := st.Memory.ReplaceAll(context.Background(), []model.Item{{"title": "existing"}})
	require.NoError(t, err)

	cfg := testConfig()
	cfg.RefreshInterval = 20 * time.Millisecond
	w := testWorker(cfg, st, &countingSource{})

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	waitFor(t, func() bool {
		total, err := st.Count(context.Background())
		return err == nil && total == int64(cfg.BatchSize)
	})
}

// flakyStore fails the first n ReplaceAll calls, then delegates.
type flakyStore struct {
	*store.Memory
	failures int32
	calls    atomic.Int32
}

func (s *flakyStore) ReplaceAll(ctx context.Context, items []model.Item) (int64, error) {
	if s.calls.Add(1) <= s.failures {
		return 0, fmt.Errorf("store unreachable")
	}
	return s.Memory.ReplaceAll(ctx, items)
}

func TestTriggerRefreshWithoutTransport(t *testing.T) {
	st := store.NewMemory(model.Article)
	w := testWorker(testConfig(), st, &countingSource{})

	err := w.TriggerRefresh(model.RefreshRequest{RequestID: "r-1", BatchSize: 5})
	assert.ErrorIs(t, err, ErrTransportUnavailable)
	assert.False(t, w.Connected())
}

func TestStopHaltsScheduler(t *testing.T) {
	st := store.NewMemory(model.Article)
	src := &countingSource{}
	cfg := testConfig()
	cfg.RefreshInterval = 10 * time.Millisecond
	w := testWorker(cfg, st, src)

	require.NoError(t, w.Start(context.Background()))
	waitFor(t, func() bool { return src.calls.Load() >= int32(cfg.BatchSize) })
	w.Stop()

	// Let any in-flight batch notice the cancellation, then verify quiet.
	time.Sleep(30 * time.Millisecond)
	settled := src.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, src.calls.Load(), "no new fetches after Stop")
}
