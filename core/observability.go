package core

import "time"

// TaskExecutionRecord captures a completed task execution event.
type TaskExecutionRecord struct {
	TaskID     TaskID        `json:"task_id"`
	Name       string        `json:"name"`
	Kind       string        `json:"kind"`
	WorkerID   int           `json:"worker_id"`
	Stolen     bool          `json:"stolen"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration_ns"`
	Failed     bool          `json:"failed"`
	Panicked   bool          `json:"panicked"`
}

// WorkerStats is a snapshot of one worker.
type WorkerStats struct {
	ID         int   `json:"id"`
	QueueDepth int   `json:"queue_depth"`
	Executed   int64 `json:"executed"`
	Stolen     int64 `json:"stolen"`
}

// PoolStats represents runtime observability state for a pool.
// Counts are snapshots and may be stale by the time they are read.
type PoolStats struct {
	ID        string        `json:"id"`
	Workers   int           `json:"workers"`
	Queued    int           `json:"queued"`
	Active    int           `json:"active"`
	Executed  int64         `json:"executed"`
	Stolen    int64         `json:"stolen"`
	Failed    int64         `json:"failed"`
	Rejected  int64         `json:"rejected"`
	Running   bool          `json:"running"`
	PerWorker []WorkerStats `json:"per_worker"`
}
