package game

import (
	"errors"
	"sort"
	"sync"

	"github.com/tamtam888/TaskMan/internal/store"
	"github.com/tamtam888/TaskMan/internal/task"
)

var (
	ErrNotFound  = errors.New("task not found")
	ErrEmptyText = errors.New("task text is required")
)

// Engine owns one user's task collection and session aggregate (score
// and level). Every mutation goes through its mutex; the collection is
// an ordered map so listing is stable in creation order.
type Engine struct {
	mu sync.Mutex

	email   string
	scoring task.Scoring
	clock   Clock

	nextID int64
	order  []int64
	tasks  map[int64]task.Task

	score int
	level int
}

func NewEngine(email string, scoring task.Scoring, clock Clock) *Engine {
	if clock == nil {
		clock = RealClock{}
	}
	return &Engine{
		email:   email,
		scoring: scoring,
		clock:   clock,
		nextID:  1,
		tasks:   map[int64]task.Task{},
		level:   1,
	}
}

// Restore replaces the engine state with a persisted snapshot. The id
// counter continues past the largest restored id so fresh ids stay
// unique and creation-ordered.
func (e *Engine) Restore(snap store.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tasks = make(map[int64]task.Task, len(snap.Tasks))
	e.order = make([]int64, 0, len(snap.Tasks))
	e.nextID = 1
	for _, t := range snap.Tasks {
		t.Normalize()
		if _, dup := e.tasks[t.ID]; dup {
			continue
		}
		e.tasks[t.ID] = t
		e.order = append(e.order, t.ID)
		if t.ID >= e.nextID {
			e.nextID = t.ID + 1
		}
	}
	e.score = snap.Score
	e.level = snap.Level
	if e.level < 1 {
		e.level = 1
	}
}

// Snapshot captures the state for persistence.
func (e *Engine) Snapshot() store.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return store.Snapshot{
		Tasks: e.tasksLocked(),
		Score: e.score,
		Level: e.level,
	}
}

func (e *Engine) tasksLocked() []task.Task {
	out := make([]task.Task, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.tasks[id])
	}
	return out
}

type AddInput struct {
	Text         string                 `json:"text"`
	Priority     task.Priority          `json:"priority"`
	Category     string                 `json:"category"`
	Deadline     string                 `json:"deadline"`
	Participants task.ParticipantsInput `json:"participants"`
}

// Add creates a task. Deadlines are taken as given here; only the edit
// path validates them.
func (e *Engine) Add(in AddInput) (task.Task, error) {
	if in.Text == "" {
		return task.Task{}, ErrEmptyText
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++

	t := task.New(id, in.Text, in.Priority, in.Category, in.Deadline, in.Participants, e.clock.Now())
	e.tasks[id] = t
	e.order = append(e.order, id)
	return t, nil
}

// Edit applies a partial update. A deadline, when present in the patch,
// must be a real DD/MM/YYYY date that is not in the past; it is stored
// in canonical form. Completion and sync fields are untouchable here.
func (e *Engine) Edit(id int64, patch task.Patch) (task.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok {
		return task.Task{}, ErrNotFound
	}

	if patch.Deadline != nil {
		if err := task.ValidateEditDeadline(*patch.Deadline, e.clock.Now()); err != nil {
			return task.Task{}, err
		}
	}

	if patch.Text != nil {
		t.Text = *patch.Text
	}
	if patch.Priority != nil && patch.Priority.Valid() {
		t.Priority = *patch.Priority
	}
	if patch.Category != nil {
		t.Category = *patch.Category
	}
	if patch.Deadline != nil {
		t.Deadline = task.CanonicalDeadline(*patch.Deadline)
	}
	if patch.Participants != nil {
		t.Users, t.Participants = patch.Participants.Normalize()
	}

	e.tasks[id] = t
	return t, nil
}

type ToggleResult struct {
	Task         task.Task `json:"task"`
	ScoreDelta   int       `json:"scoreDelta"`
	LevelChanged bool      `json:"levelChanged"`
	AllCompleted bool      `json:"allCompleted"`
}

// ToggleCompletion flips a task's completed flag and applies the
// scoring rules. Points are always recomputed from the task's current
// priority and deadline, so an edit between completing and
// un-completing changes the refunded amount on purpose.
func (e *Engine) ToggleCompletion(id int64) (ToggleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok {
		return ToggleResult{}, ErrNotFound
	}

	now := e.clock.Now()
	points := e.scoring.Points(t, now)

	res := ToggleResult{}
	t.Completed = !t.Completed
	if t.Completed {
		e.score += points
		res.ScoreDelta = points
		newLevel := e.scoring.LevelAfterGain(e.score)
		if newLevel > e.level {
			res.LevelChanged = true
		}
		e.level = newLevel
	} else {
		e.score -= points
		res.ScoreDelta = -points
		e.level = e.scoring.LevelAfterLoss(e.score)
	}

	e.tasks[id] = t
	res.Task = t
	res.AllCompleted = e.allCompletedLocked()
	return res, nil
}

// Remove deletes a task. Completed tasks keep their points; deletion
// never refunds.
func (e *Engine) Remove(id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(e.tasks, id)
	for i, oid := range e.order {
		if oid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

// Restart wipes the session: no tasks, score 0, level 1. Clearing the
// persisted record is the manager's job.
func (e *Engine) Restart() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tasks = map[int64]task.Task{}
	e.order = nil
	e.score = 0
	e.level = 1
}

func (e *Engine) Get(id int64) (task.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[id]
	if !ok {
		return task.Task{}, ErrNotFound
	}
	return t, nil
}

// Tasks lists in creation order.
func (e *Engine) Tasks() []task.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tasksLocked()
}

// SortedTasks lists by priority (high first), then creation order,
// matching the game's display ordering.
func (e *Engine) SortedTasks() []task.Task {
	out := e.Tasks()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.SortRank() < out[j].Priority.SortRank()
	})
	return out
}

type State struct {
	Score        int  `json:"score"`
	Level        int  `json:"level"`
	AllCompleted bool `json:"allCompleted"`
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Score:        e.score,
		Level:        e.level,
		AllCompleted: e.allCompletedLocked(),
	}
}

// AllCompleted is the terminal "game over" condition. It is always
// derived from the live collection, never stored, so re-adding a task
// exits the terminal state deterministically.
func (e *Engine) AllCompleted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.allCompletedLocked()
}

func (e *Engine) allCompletedLocked() bool {
	if len(e.tasks) == 0 {
		return false
	}
	for _, t := range e.tasks {
		if !t.Completed {
			return false
		}
	}
	return true
}
