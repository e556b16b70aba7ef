package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Outcome is the terminal state of a tracking task.
type Outcome int

const (
	OutcomeRunning Outcome = iota
	OutcomeDeparted
	OutcomeNotFound
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDeparted:
		return "departed"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "running"
	}
}

// TaskHandle controls one running tracking task. Cancel aborts the task's context, which interrupts
// both the tick wait and an in-flight gateway request.
type TaskHandle struct {
	sessionID string
	cancel    context.CancelFunc
	done      chan struct{}
	outcome   Outcome
}

func newTaskHandle(sessionID string, cancel context.CancelFunc) *TaskHandle {
	return &TaskHandle{
		sessionID: sessionID,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// SessionID returns the ID of the session the task is tracking.
func (h *TaskHandle) SessionID() string { return h.sessionID }

// Done is closed once the task has stopped.
func (h *TaskHandle) Done() <-chan struct{} { return h.done }

// Outcome reports how the task ended. It is OutcomeRunning until Done is closed.
func (h *TaskHandle) Outcome() Outcome {
	select {
	case <-h.done:
		return h.outcome
	default:
		return OutcomeRunning
	}
}

func (h *TaskHandle) finish(o Outcome) {
	h.outcome = o
	close(h.done)
}

// TaskRegistry maps a user ID to the handle of that user's tracking task.
// A user has at most one entry.
type TaskRegistry struct {
	tasks map[string]*TaskHandle
	mu    sync.Mutex
}

// NewTaskRegistry creates an empty registry.
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{
		tasks: make(map[string]*TaskHandle),
	}
}

// Register stores h for userID. A task already registered for the user is cancelled first.
func (r *TaskRegistry) Register(userID string, h *TaskHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stale, ok := r.tasks[userID]; ok && stale != h {
		stale.cancel()
		logrus.WithFields(logrus.Fields{
			"userID":    userID,
			"sessionID": stale.sessionID,
		}).Warn("Replacing a running tracking task")
	}
	r.tasks[userID] = h
}

// Lookup returns the handle registered for userID.
func (r *TaskRegistry) Lookup(userID string) (*TaskHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.tasks[userID]
	return h, ok
}

// Cancel aborts and removes the task of userID. It reports whether a task was registered;
// cancelling a user without a task is a no-op.
func (r *TaskRegistry) Cancel(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.tasks[userID]
	if !ok {
		return false
	}
	h.cancel()
	delete(r.tasks, userID)
	return true
}

// Remove deletes the entry of userID only if it still points at h, so a finished task never
// removes the task that replaced it.
func (r *TaskRegistry) Remove(userID string, h *TaskHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.tasks[userID]; ok && cur == h {
		delete(r.tasks, userID)
	}
}

// Len returns the number of registered tasks.
func (r *TaskRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.tasks)
}
