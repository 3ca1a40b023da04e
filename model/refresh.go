package model

import "time"

// RefreshRequest describes one refresh invocation. It travels over the event
// transport for queued triggers and is built locally for direct ones.
type RefreshRequest struct {
	RequestID   string    `json:"requestId"`
	BatchSize   int       `json:"batchSize"`
	Priority    string    `json:"priority"` // "manual", "scheduled", "normal"
	RequestedAt time.Time `json:"requestedAt"`
}

// RefreshResult is published back on the result subject after a queued
// refresh completes.
type RefreshResult struct {
	RequestID      string    `json:"requestId"`
	Success        bool      `json:"success"`
	ProcessedCount int       `json:"processedCount"`
	Error          string    `json:"error,omitempty"`
	CompletedAt    time.Time `json:"completedAt"`
}
