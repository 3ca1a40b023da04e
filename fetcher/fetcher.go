// Package fetcher retrieves single items from the external random-item
// endpoint. The upstream is assumed unreliable: non-2xx responses, malformed
// bodies and semantically empty items are all retryable failures.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"content-service/config"
	"content-service/model"

	"github.com/codeGROOVE-dev/retry"
)

type Fetcher struct {
	client     *http.Client
	url        string
	userAgent  string
	schema     model.Schema
	maxRetries uint
	retryDelay time.Duration
}

func New(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		url:        cfg.SourceURL,
		userAgent:  cfg.UserAgent,
		schema:     cfg.Schema,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// FetchOne fetches a single item, retrying up to the configured number of
// attempts with a linearly growing delay. It returns an error only after all
// attempts are exhausted; the caller counts that as one failed item.
func (f *Fetcher) FetchOne(ctx context.Context) (model.Item, error) {
	var item model.Item

	err := retry.Do(
		func() error {
			fetched, err := f.fetchOnce(ctx)
			if err != nil {
				return err
			}
			item = fetched
			return nil
		},
		retry.Attempts(f.maxRetries),
		retry.Context(ctx),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return f.retryDelay * time.Duration(n+1)
		}),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("Attempt %d failed to fetch %s: %v", n+1, f.schema.Name, err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch %s after %d attempts: %w", f.schema.Name, f.maxRetries, err)
	}
	return item, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context) (model.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	return f.schema.Project(raw)
}
