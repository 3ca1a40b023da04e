// Package worker decides when refreshes run: once at startup when the corpus
// is empty, on a fixed interval, and on refresh requests arriving over NATS.
// The transport is optional; without it the timer and direct triggers keep
// the corpus fresh.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"content-service/config"
	"content-service/metrics"
	"content-service/model"
	"content-service/refresh"
	"content-service/store"

	"github.com/codeGROOVE-dev/retry"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// ErrTransportUnavailable reports that no event transport connection exists;
// callers fall back to invoking the refresher directly.
var ErrTransportUnavailable = errors.New("event transport unavailable")

const refreshTimeout = 30 * time.Minute

type Worker struct {
	cfg       *config.Config
	nc        *nats.Conn
	refresher *refresh.Refresher
	store     store.Store
	cancel    context.CancelFunc
}

// ConnectTransport dials the configured NATS address with bounded backoff.
// Failure is not fatal: it returns nil and the worker runs in degraded mode.
func ConnectTransport(cfg *config.Config) *nats.Conn {
	var nc *nats.Conn
	err := retry.Do(
		func() error {
			conn, err := nats.Connect(cfg.NATSUrl, nats.Name(cfg.ServiceName()))
			if err != nil {
				return err
			}
			nc = conn
			return nil
		},
		retry.Attempts(cfg.NATSConnectAttempts),
		retry.Delay(time.Second),
		retry.MaxDelay(10*time.Second),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("NATS connect attempt %d failed: %v", n+1, err)
		}),
	)
	if err != nil {
		log.Printf("Warning: NATS unavailable at %s, continuing without event transport: %v", cfg.NATSUrl, err)
		return nil
	}
	log.Printf("Connected to NATS at %s", cfg.NATSUrl)
	return nc
}

// New creates a worker. nc may be nil (degraded mode).
func New(cfg *config.Config, nc *nats.Conn, refresher *refresh.Refresher, st store.Store) *Worker {
	return &Worker{cfg: cfg, nc: nc, refresher: refresher, store: st}
}

// Start subscribes to refresh requests (when connected) and launches the
// startup check plus the interval scheduler. It does not block.
func (w *Worker) Start(ctx context.Context) error {
	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	if w.nc != nil {
		_, err := w.nc.Subscribe(w.cfg.RequestSubject(), func(msg *nats.Msg) {
			w.handleRefreshRequest(workerCtx, msg)
		})
		if err != nil {
			cancel()
			return err
		}
		log.Printf("Subscribed to %s", w.cfg.RequestSubject())
	} else {
		log.Printf("Running without event transport; timer and direct triggers only")
	}

	go w.run(workerCtx)
	return nil
}

// Stop cancels the scheduler and closes the transport connection.
func (w *Worker) Stop() {
	log.Printf("Stopping %s worker...", w.cfg.Schema.Name)
	if w.cancel != nil {
		w.cancel()
	}
	if w.nc != nil {
		w.nc.Close()
	}
}

// Connected reports whether the event transport is usable.
func (w *Worker) Connected() bool {
	return w.nc != nil && w.nc.IsConnected()
}

// TriggerRefresh publishes a refresh request to the event transport. The
// caller falls back to a direct refresh when this fails.
func (w *Worker) TriggerRefresh(req model.RefreshRequest) error {
	if w.nc == nil {
		return ErrTransportUnavailable
	}

	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	if err := w.nc.Publish(w.cfg.RequestSubject(), data); err != nil {
		metrics.NatsMessagesPublished.WithLabelValues(w.cfg.RequestSubject(), "error").Inc()
		return err
	}
	metrics.NatsMessagesPublished.WithLabelValues(w.cfg.RequestSubject(), "ok").Inc()
	log.Printf("Triggered refresh via NATS: %s (batch %d, priority %s)", req.RequestID, req.BatchSize, req.Priority)
	return nil
}

func (w *Worker) run(ctx context.Context) {
	w.startupRefresh(ctx)

	ticker := time.NewTicker(w.cfg.RefreshInterval)
	defer ticker.Stop()

	log.Printf("Scheduler started with %v interval", w.cfg.RefreshInterval)
	for {
		select {
		case <-ctx.Done():
			log.Println("Scheduler stopped")
			return
		case <-ticker.C:
			w.process(ctx, model.RefreshRequest{
				RequestID:   uuid.NewString(),
				BatchSize:   w.cfg.BatchSize,
				Priority:    "scheduled",
				RequestedAt: time.Now().UTC(),
			})
		}
	}
}

// startupRefresh populates an empty corpus once at boot. An already-populated
// corpus is left alone until the next scheduled refresh.
func (w *Worker) startupRefresh(ctx context.Context) {
	total, err := w.store.Count(ctx)
	if err != nil {
		log.Printf("Startup count failed, skipping initial refresh: %v", err)
		return
	}
	if total > 0 {
		log.Printf("Found %d existing %s, skipping initial refresh", total, w.cfg.Schema.Plural)
		return
	}

	log.Printf("No %s found, performing initial refresh...", w.cfg.Schema.Plural)
	w.process(ctx, model.RefreshRequest{
		RequestID:   uuid.NewString(),
		BatchSize:   w.cfg.BatchSize,
		Priority:    "normal",
		RequestedAt: time.Now().UTC(),
	})
}

func (w *Worker) handleRefreshRequest(ctx context.Context, msg *nats.Msg) {
	var req model.RefreshRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		metrics.NatsMessagesReceived.WithLabelValues(w.cfg.RequestSubject(), "error").Inc()
		log.Printf("Failed to unmarshal refresh request: %v", err)
		return
	}
	metrics.NatsMessagesReceived.WithLabelValues(w.cfg.RequestSubject(), "ok").Inc()

	if req.BatchSize < 1 || req.BatchSize > w.cfg.MaxBatchSize {
		log.Printf("Rejecting refresh request %s: batch size %d out of range", req.RequestID, req.BatchSize)
		w.publishResult(model.RefreshResult{
			RequestID:   req.RequestID,
			Success:     false,
			Error:       "batch size out of range",
			CompletedAt: time.Now().UTC(),
		})
		return
	}
	if req.Priority == "" {
		req.Priority = "normal"
	}

	w.process(ctx, req)
}

// process runs one refresh and, when connected, publishes its result. Errors
// are logged, never fatal: the next trigger still fires on schedule.
func (w *Worker) process(ctx context.Context, req model.RefreshRequest) {
	log.Printf("Processing refresh request %s (batch %d, priority %s)", req.RequestID, req.BatchSize, req.Priority)

	refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	res, err := w.refresher.Refresh(refreshCtx, req.BatchSize)
	result := model.RefreshResult{
		RequestID:      req.RequestID,
		Success:        err == nil,
		ProcessedCount: res.SuccessCount,
		CompletedAt:    time.Now().UTC(),
	}
	if err != nil {
		result.Error = err.Error()
		metrics.RefreshesTotal.WithLabelValues(w.cfg.Schema.Name, req.Priority, "error").Inc()
		log.Printf("Refresh request %s failed (batch %d): %v", req.RequestID, req.BatchSize, err)
	} else {
		metrics.RefreshesTotal.WithLabelValues(w.cfg.Schema.Name, req.Priority, "ok").Inc()
		log.Printf("Completed refresh request %s: %d fetched, %d failed", req.RequestID, res.SuccessCount, res.FailCount)
	}

	w.publishResult(result)
}

func (w *Worker) publishResult(result model.RefreshResult) {
	if w.nc == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		log.Printf("Failed to marshal refresh result: %v", err)
		return
	}
	if err := w.nc.Publish(w.cfg.ResultSubject(), data); err != nil {
		metrics.NatsMessagesPublished.WithLabelValues(w.cfg.ResultSubject(), "error").Inc()
		log.Printf("Failed to publish refresh result: %v", err)
		return
	}
	metrics.NatsMessagesPublished.WithLabelValues(w.cfg.ResultSubject(), "ok").Inc()
}
