package game

import (
	"errors"

	"github.com/tamtam888/TaskMan/internal/task"
)

var (
	ErrAuthRequired    = errors.New("sign in required before calendar sync")
	ErrMissingDeadline = errors.New("task needs a deadline to sync to calendar")
	ErrAlreadySynced   = errors.New("task is already synced to calendar")
	ErrSyncPending     = errors.New("a calendar sync for this task is in flight")
)

// BeginSync runs the sync gate and, when it passes, marks the task
// pending so a concurrent call for the same task is turned away. The
// caller must follow up with FinishSync or FailSync.
func (e *Engine) BeginSync(id int64, bearer string) (task.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok {
		return task.Task{}, ErrNotFound
	}
	if bearer == "" {
		return task.Task{}, ErrAuthRequired
	}
	if _, parses := task.ParseDeadline(t.Deadline); !parses {
		return task.Task{}, ErrMissingDeadline
	}
	switch t.SyncState {
	case task.SyncStateSynced:
		return task.Task{}, ErrAlreadySynced
	case task.SyncStatePending:
		return task.Task{}, ErrSyncPending
	}

	t.SyncState = task.SyncStatePending
	e.tasks[id] = t
	return t, nil
}

// FinishSync records a successful external call: the task becomes
// synced for good and remembers the event id.
func (e *Engine) FinishSync(id int64, eventID string) (task.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok {
		return task.Task{}, ErrNotFound
	}
	t.MarkSynced(eventID)
	e.tasks[id] = t
	return t, nil
}

// FailSync releases the pending gate after a failed call; the task may
// be retried by re-invoking the gated operation.
func (e *Engine) FailSync(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok {
		return
	}
	if t.SyncState == task.SyncStatePending {
		t.SyncState = task.SyncStateNone
		e.tasks[id] = t
	}
}
