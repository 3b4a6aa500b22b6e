package crawler

import (
	"context"
	"sync"
)

// JobManager tracks cancel functions for in-flight crawl runs so an operator
// can stop a run cleanly; cancellation is honored between pages and listings,
// never mid-write. It also guards against overlapping cycles, which would
// defeat the politeness pacing.
type JobManager struct {
	mu      sync.RWMutex
	cancels map[string]context.CancelFunc
}

func NewJobManager() *JobManager {
	return &JobManager{cancels: make(map[string]context.CancelFunc)}
}

// Register stores the cancel function for a starting run.
func (jm *JobManager) Register(runID string, cancel context.CancelFunc) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.cancels[runID] = cancel
}

// Cancel stops a run if it is still registered. Returns false for unknown or
// already-finished runs.
func (jm *JobManager) Cancel(runID string) bool {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	cancel, ok := jm.cancels[runID]
	if !ok {
		return false
	}
	cancel()
	delete(jm.cancels, runID)
	return true
}

// Unregister removes a finished run.
func (jm *JobManager) Unregister(runID string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	delete(jm.cancels, runID)
}

// Busy reports whether any run is currently registered.
func (jm *JobManager) Busy() bool {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	return len(jm.cancels) > 0
}
