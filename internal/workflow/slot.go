package workflow

import (
	"context"
	"sync"

	"github.com/tomerlv/outreach-be/internal/domain"
)

// RunRequest is one queued ask to execute a job.
type RunRequest struct {
	JobID string
	Opts  domain.TriggerOptions
}

// Slot is the single-flight concurrency token: at most one job executes an
// automation step at any instant, system-wide. Requests arriving while a job
// is in flight wait in a FIFO queue deduplicated by job ID: a repeat request
// replaces the queued options in place but keeps the position of the first
// enqueue. Slot state lives only in process memory and is never persisted.
type Slot struct {
	mu             sync.Mutex
	runningJobID   string
	cancel         context.CancelFunc
	abortRequested bool
	order          []string
	queued         map[string]*RunRequest
}

// NewSlot returns an idle slot with an empty queue.
func NewSlot() *Slot {
	return &Slot{queued: make(map[string]*RunRequest)}
}

// TryAcquire claims the slot for jobID when idle. Returns false when another
// job is running; the caller should Enqueue instead.
func (s *Slot) TryAcquire(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runningJobID != "" {
		return false
	}
	s.runningJobID = jobID
	s.abortRequested = false
	// The job may have been queued before the slot went idle.
	s.removeLocked(jobID)
	return true
}

// Enqueue adds a run request to the wait queue. A request for a job that is
// already queued replaces its options (last request wins) without losing its
// FIFO position. Returns true when an existing entry was replaced.
func (s *Slot) Enqueue(jobID string, opts domain.TriggerOptions) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.queued[jobID]; ok {
		existing.Opts = opts
		return true
	}
	req := &RunRequest{JobID: jobID, Opts: opts}
	s.queued[jobID] = req
	s.order = append(s.order, jobID)
	return false
}

// BindCancel attaches the cancel function of the current run. It is called by
// the executing goroutine right after acquisition, before the gateway call.
// An abort that arrived in the window between acquisition and binding fires
// the cancel immediately so the request is not lost.
func (s *Slot) BindCancel(jobID string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runningJobID != jobID {
		return
	}
	s.cancel = cancel
	if s.abortRequested {
		cancel()
	}
}

// Release frees the slot and atomically hands it to the oldest queued request,
// if any. The returned request is already marked running, so no second job can
// slip in between release and dispatch.
func (s *Slot) Release() *RunRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runningJobID = ""
	s.cancel = nil
	s.abortRequested = false

	for len(s.order) > 0 {
		jobID := s.order[0]
		s.order = s.order[1:]
		req, ok := s.queued[jobID]
		if !ok {
			continue // removed by AbortJob
		}
		delete(s.queued, jobID)
		s.runningJobID = jobID
		return req
	}
	return nil
}

// AbortCurrent signals the in-flight run to stop at its next checkpoint.
// Returns the running job ID, or "" when the slot is idle.
func (s *Slot) AbortCurrent() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runningJobID == "" {
		return ""
	}
	s.abortRequested = true
	if s.cancel != nil {
		s.cancel()
	}
	return s.runningJobID
}

// AbortRequested reports whether the current run of jobID was asked to abort.
func (s *Slot) AbortRequested(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runningJobID == jobID && s.abortRequested
}

// RemoveQueued drops a queued request that never started. Returns false when
// the job was not queued.
func (s *Slot) RemoveQueued(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(jobID)
}

func (s *Slot) removeLocked(jobID string) bool {
	if _, ok := s.queued[jobID]; !ok {
		return false
	}
	delete(s.queued, jobID)
	for i, id := range s.order {
		if id == jobID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// RunningJobID returns the in-flight job ID, or "" when idle.
func (s *Slot) RunningJobID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runningJobID
}

// Current returns the running job and the queued job IDs in FIFO order
// (oldest-submitted first).
func (s *Slot) Current() (running string, queued []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queued = make([]string, 0, len(s.queued))
	for _, id := range s.order {
		if _, ok := s.queued[id]; ok {
			queued = append(queued, id)
		}
	}
	return s.runningJobID, queued
}
