package game

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/tamtam888/TaskMan/internal/calendar"
	"github.com/tamtam888/TaskMan/internal/store"
	"github.com/tamtam888/TaskMan/internal/task"
)

// Manager hands out one engine per user identity, loading the persisted
// record on first use and saving after every successful mutation. The
// calendar sync call runs outside the engine lock; the pending state on
// the task keeps a second sync for the same task out.
type Manager struct {
	mu      sync.Mutex
	engines map[string]*Engine

	store    store.Store
	calendar calendar.Client
	calOpts  calendar.Options
	scoring  task.Scoring
	clock    Clock
	logger   *log.Logger
}

func NewManager(st store.Store, cal calendar.Client, calOpts calendar.Options, scoring task.Scoring, clock Clock, logger *log.Logger) *Manager {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		engines:  map[string]*Engine{},
		store:    st,
		calendar: cal,
		calOpts:  calOpts,
		scoring:  scoring,
		clock:    clock,
		logger:   logger,
	}
}

// EngineFor returns the user's engine, restoring it from the store the
// first time the user shows up this process.
func (m *Manager) EngineFor(ctx context.Context, email string) (*Engine, error) {
	m.mu.Lock()
	if e, ok := m.engines[email]; ok {
		m.mu.Unlock()
		return e, nil
	}
	m.mu.Unlock()

	snap, err := m.store.Load(ctx, email)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// lost the race: someone else restored while we were loading
	if e, ok := m.engines[email]; ok {
		return e, nil
	}
	e := NewEngine(email, m.scoring, m.clock)
	e.Restore(snap)
	m.engines[email] = e
	return e, nil
}

func (m *Manager) save(ctx context.Context, email string, e *Engine) {
	if err := m.store.Save(ctx, email, e.Snapshot()); err != nil {
		m.logger.Error("persist failed", "email", email, "error", err)
	}
}

func (m *Manager) Add(ctx context.Context, email string, in AddInput) (task.Task, error) {
	e, err := m.EngineFor(ctx, email)
	if err != nil {
		return task.Task{}, err
	}
	t, err := e.Add(in)
	if err != nil {
		return task.Task{}, err
	}
	m.save(ctx, email, e)
	return t, nil
}

func (m *Manager) Edit(ctx context.Context, email string, id int64, patch task.Patch) (task.Task, error) {
	e, err := m.EngineFor(ctx, email)
	if err != nil {
		return task.Task{}, err
	}
	t, err := e.Edit(id, patch)
	if err != nil {
		return task.Task{}, err
	}
	m.save(ctx, email, e)
	return t, nil
}

func (m *Manager) ToggleCompletion(ctx context.Context, email string, id int64) (ToggleResult, error) {
	e, err := m.EngineFor(ctx, email)
	if err != nil {
		return ToggleResult{}, err
	}
	res, err := e.ToggleCompletion(id)
	if err != nil {
		return ToggleResult{}, err
	}
	m.save(ctx, email, e)
	return res, nil
}

func (m *Manager) Remove(ctx context.Context, email string, id int64) error {
	e, err := m.EngineFor(ctx, email)
	if err != nil {
		return err
	}
	if err := e.Remove(id); err != nil {
		return err
	}
	m.save(ctx, email, e)
	return nil
}

// Restart clears the session and tells the store to drop the record.
func (m *Manager) Restart(ctx context.Context, email string) error {
	e, err := m.EngineFor(ctx, email)
	if err != nil {
		return err
	}
	e.Restart()
	if err := m.store.Clear(ctx, email); err != nil {
		m.logger.Error("clear failed", "email", email, "error", err)
		return err
	}
	return nil
}

// SyncToCalendar pushes one task through the sync gate and out to the
// external calendar. Task state only changes on success; a failure
// releases the gate so the call can be retried.
func (m *Manager) SyncToCalendar(ctx context.Context, email, bearer string, id int64) (task.Task, error) {
	e, err := m.EngineFor(ctx, email)
	if err != nil {
		return task.Task{}, err
	}

	t, err := e.BeginSync(id, bearer)
	if err != nil {
		return task.Task{}, err
	}

	ev, err := calendar.BuildEvent(t, m.scoring, m.calOpts)
	if err != nil {
		e.FailSync(id)
		return task.Task{}, ErrMissingDeadline
	}

	eventID, err := m.calendar.CreateEvent(ctx, bearer, ev)
	if err != nil {
		e.FailSync(id)
		m.logger.Warn("calendar sync failed", "email", email, "task_id", id, "error", err)
		return task.Task{}, err
	}

	t, err = e.FinishSync(id, eventID)
	if err != nil {
		return task.Task{}, err
	}
	m.logger.Info("task synced to calendar", "email", email, "task_id", id, "event_id", eventID)
	m.save(ctx, email, e)
	return t, nil
}
