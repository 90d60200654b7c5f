package models

import "time"

// RunError is one per-message failure recorded during a run. Per-message
// errors never abort the run; they are aggregated here for observability.
type RunError struct {
	MessageID string `json:"message_id,omitempty"`
	Stage     string `json:"stage"` // decrypt, connect, search, fetch, extract, validate, submit
	Message   string `json:"message"`
}

// RunResult summarises one orchestrator run for a single user.
type RunResult struct {
	UserID         int64      `json:"user_id"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     time.Time  `json:"finished_at"`
	ProcessedCount int        `json:"processed_count"`
	SkippedCount   int        `json:"skipped_count"`
	ConnectRetries int        `json:"connect_retries"`
	Errors         []RunError `json:"errors,omitempty"`
}

// AddError appends a per-message error to the result.
func (r *RunResult) AddError(messageID, stage string, err error) {
	r.Errors = append(r.Errors, RunError{
		MessageID: messageID,
		Stage:     stage,
		Message:   err.Error(),
	})
}
