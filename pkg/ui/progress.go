package ui

import (
	"fmt"
	"sync/atomic"
)

// ProgressTracker aggregates download progress across workers. It is owned
// by the orchestrator and passed into each task; workers update it with
// atomic increments, so no ambient global state is involved.
type ProgressTracker struct {
	total     int64
	completed atomic.Int64
	failed    atomic.Int64
}

// NewProgressTracker creates a tracker expecting the given task count
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{total: int64(total)}
}

// Total returns the expected task count
func (p *ProgressTracker) Total() int {
	return int(p.total)
}

// Completed returns the number of successful tasks so far
func (p *ProgressTracker) Completed() int {
	return int(p.completed.Load())
}

// Failed returns the number of failed tasks so far
func (p *ProgressTracker) Failed() int {
	return int(p.failed.Load())
}

// Processed returns the number of finished tasks, successful or not
func (p *ProgressTracker) Processed() int {
	return p.Completed() + p.Failed()
}

// MarkCompleted records one success and prints a progress line
func (p *ProgressTracker) MarkCompleted(filename string) {
	p.completed.Add(1)
	if !IsQuietMode() {
		fmt.Printf("  [%d/%d] %s %s\n", p.Processed(), p.total, Green("✓"), filename)
	}
}

// MarkFailed records one failure and prints a progress line
func (p *ProgressTracker) MarkFailed(filename string, err error) {
	p.failed.Add(1)
	if !IsQuietMode() {
		fmt.Printf("  [%d/%d] %s %s: %v\n", p.Processed(), p.total, Red("✗"), filename, err)
	}
}
