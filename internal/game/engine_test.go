package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamtam888/TaskMan/internal/store"
	"github.com/tamtam888/TaskMan/internal/task"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestEngine() (*Engine, *FakeClock) {
	clock := NewFakeClock(testNow)
	return NewEngine("dana@example.com", task.DefaultScoring(), clock), clock
}

func displayDate(t time.Time) string {
	return t.Format(task.DisplayDateLayout)
}

func TestAdd_AssignsIncreasingIDs(t *testing.T) {
	e, _ := newTestEngine()

	t1, err := e.Add(AddInput{Text: "a", Priority: task.PriorityLow})
	require.NoError(t, err)
	t2, err := e.Add(AddInput{Text: "b", Priority: task.PriorityLow})
	require.NoError(t, err)
	t3, err := e.Add(AddInput{Text: "c", Priority: task.PriorityLow})
	require.NoError(t, err)

	assert.Equal(t, int64(1), t1.ID)
	assert.Equal(t, int64(2), t2.ID)
	assert.Equal(t, int64(3), t3.ID)
}

func TestAdd_RequiresText(t *testing.T) {
	e, _ := newTestEngine()

	_, err := e.Add(AddInput{Priority: task.PriorityLow})

	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestAdd_NormalizesParticipants(t *testing.T) {
	e, _ := newTestEngine()

	got, err := e.Add(AddInput{
		Text:         "plan trip",
		Priority:     task.PriorityNormal,
		Participants: task.ParticipantsFromString("dana, , avi "),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"dana", "avi"}, got.Users)
	assert.Equal(t, "dana, avi", got.Participants)
}

// Creation takes the deadline as given; only edits validate. A deadline
// that doesn't parse is carried along and never earns a bonus.
func TestAdd_DoesNotValidateDeadline(t *testing.T) {
	e, _ := newTestEngine()

	past, err := e.Add(AddInput{Text: "ancient", Priority: task.PriorityLow, Deadline: "01/01/2000"})
	require.NoError(t, err)
	assert.Equal(t, "2000-01-01", past.Deadline)

	junk, err := e.Add(AddInput{Text: "junk date", Priority: task.PriorityLow, Deadline: "whenever"})
	require.NoError(t, err)
	assert.Equal(t, "whenever", junk.Deadline)
}

func TestEdit_DeadlineValidation(t *testing.T) {
	e, _ := newTestEngine()
	created, err := e.Add(AddInput{Text: "x", Priority: task.PriorityLow})
	require.NoError(t, err)

	cases := []struct {
		name     string
		deadline string
		reason   string
	}{
		{"impossible date", "31/02/2099", task.ReasonInvalidFormat},
		{"past date", "01/01/2000", task.ReasonPastDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Edit(created.ID, task.Patch{Deadline: &tc.deadline})
			var verr *task.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.reason, verr.Reason)
		})
	}

	tomorrow := displayDate(testNow.AddDate(0, 0, 1))
	got, err := e.Edit(created.ID, task.Patch{Deadline: &tomorrow})
	require.NoError(t, err)
	assert.Equal(t, testNow.AddDate(0, 0, 1).Format(task.StorageDateLayout), got.Deadline)
}

func TestEdit_FailureLeavesTaskUntouched(t *testing.T) {
	e, _ := newTestEngine()
	created, err := e.Add(AddInput{Text: "original", Priority: task.PriorityLow})
	require.NoError(t, err)

	newText := "changed"
	bad := "31/02/2099"
	_, err = e.Edit(created.ID, task.Patch{Text: &newText, Deadline: &bad})
	require.Error(t, err)

	got, err := e.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Text)
	assert.Empty(t, got.Deadline)
}

func TestEdit_PartialPatch(t *testing.T) {
	e, _ := newTestEngine()
	created, err := e.Add(AddInput{
		Text:     "walk dog",
		Priority: task.PriorityHigh,
		Category: "other",
		Deadline: displayDate(testNow.AddDate(0, 0, 5)),
	})
	require.NoError(t, err)

	newText := "walk the dog"
	got, err := e.Edit(created.ID, task.Patch{Text: &newText})
	require.NoError(t, err)

	assert.Equal(t, "walk the dog", got.Text)
	assert.Equal(t, task.PriorityHigh, got.Priority)
	assert.Equal(t, "other", got.Category)
	assert.Equal(t, created.Deadline, got.Deadline)
}

func TestEdit_PreservesCompletionAndSyncFields(t *testing.T) {
	e, _ := newTestEngine()
	created, err := e.Add(AddInput{Text: "x", Priority: task.PriorityLow, Deadline: displayDate(testNow.AddDate(0, 0, 2))})
	require.NoError(t, err)

	_, err = e.ToggleCompletion(created.ID)
	require.NoError(t, err)
	_, err = e.BeginSync(created.ID, "bearer")
	require.NoError(t, err)
	_, err = e.FinishSync(created.ID, "evt_1")
	require.NoError(t, err)

	p := task.PriorityHigh
	got, err := e.Edit(created.ID, task.Patch{Priority: &p})
	require.NoError(t, err)

	assert.True(t, got.Completed)
	assert.Equal(t, task.SyncStateSynced, got.SyncState)
	assert.Equal(t, "evt_1", got.CalendarEventID)
	assert.Equal(t, created.ID, got.ID)
}

func TestEdit_UnknownID(t *testing.T) {
	e, _ := newTestEngine()

	_, err := e.Edit(42, task.Patch{})

	assert.ErrorIs(t, err, ErrNotFound)
}

// Add "Buy milk" (high, due tomorrow), complete it: 30 base + 20
// urgency = 50 points, still level 1. Three more deadline-less high
// tasks push the score 50->80->110->140; the level-up fires exactly
// once, when 110 crosses 100.
func TestToggle_ScoringScenario(t *testing.T) {
	e, _ := newTestEngine()

	milk, err := e.Add(AddInput{Text: "Buy milk", Priority: task.PriorityHigh, Deadline: displayDate(testNow.AddDate(0, 0, 1))})
	require.NoError(t, err)

	res, err := e.ToggleCompletion(milk.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, res.ScoreDelta)
	assert.False(t, res.LevelChanged)
	assert.Equal(t, State{Score: 50, Level: 1, AllCompleted: true}, e.State())

	wantScores := []int{80, 110, 140}
	levelUps := 0
	for i, want := range wantScores {
		tk, err := e.Add(AddInput{Text: "chore", Priority: task.PriorityHigh})
		require.NoError(t, err)
		res, err := e.ToggleCompletion(tk.ID)
		require.NoError(t, err)
		assert.Equal(t, 30, res.ScoreDelta)
		assert.Equal(t, want, e.State().Score, "after completion %d", i+1)
		if res.LevelChanged {
			levelUps++
			assert.Equal(t, 110, e.State().Score)
		}
	}
	assert.Equal(t, 1, levelUps)
	assert.Equal(t, 2, e.State().Level)
}

func TestToggle_RoundTripRestoresScore(t *testing.T) {
	e, _ := newTestEngine()
	tk, err := e.Add(AddInput{Text: "x", Priority: task.PriorityNormal, Deadline: displayDate(testNow.AddDate(0, 0, 3))})
	require.NoError(t, err)

	before := e.State().Score
	on, err := e.ToggleCompletion(tk.ID)
	require.NoError(t, err)
	off, err := e.ToggleCompletion(tk.ID)
	require.NoError(t, err)

	assert.Equal(t, on.ScoreDelta, -off.ScoreDelta)
	assert.Equal(t, before, e.State().Score)
	assert.Equal(t, 1, e.State().Level)
}

// Points are recomputed from current fields at every toggle, so an
// edit between completing and un-completing changes the refund.
func TestToggle_RefundFollowsCurrentFields(t *testing.T) {
	e, _ := newTestEngine()
	tk, err := e.Add(AddInput{Text: "x", Priority: task.PriorityHigh})
	require.NoError(t, err)

	on, err := e.ToggleCompletion(tk.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, on.ScoreDelta)

	p := task.PriorityLow
	_, err = e.Edit(tk.ID, task.Patch{Priority: &p})
	require.NoError(t, err)

	off, err := e.ToggleCompletion(tk.ID)
	require.NoError(t, err)
	assert.Equal(t, -10, off.ScoreDelta)
	assert.Equal(t, 20, e.State().Score)
}

func TestToggle_UnknownID(t *testing.T) {
	e, _ := newTestEngine()

	_, err := e.ToggleCompletion(404)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAllCompleted(t *testing.T) {
	e, _ := newTestEngine()

	// empty collection is never game over
	assert.False(t, e.AllCompleted())

	t1, err := e.Add(AddInput{Text: "a", Priority: task.PriorityLow})
	require.NoError(t, err)
	t2, err := e.Add(AddInput{Text: "b", Priority: task.PriorityLow})
	require.NoError(t, err)

	res, err := e.ToggleCompletion(t1.ID)
	require.NoError(t, err)
	assert.False(t, res.AllCompleted)

	res, err = e.ToggleCompletion(t2.ID)
	require.NoError(t, err)
	assert.True(t, res.AllCompleted)

	// adding a task exits the terminal state immediately
	_, err = e.Add(AddInput{Text: "c", Priority: task.PriorityLow})
	require.NoError(t, err)
	assert.False(t, e.AllCompleted())
}

func TestAllCompleted_SingleTaskThenDelete(t *testing.T) {
	e, _ := newTestEngine()
	tk, err := e.Add(AddInput{Text: "only", Priority: task.PriorityLow})
	require.NoError(t, err)

	res, err := e.ToggleCompletion(tk.ID)
	require.NoError(t, err)
	assert.True(t, res.AllCompleted)

	require.NoError(t, e.Remove(tk.ID))
	assert.False(t, e.AllCompleted())
}

func TestRemove_NoRefund(t *testing.T) {
	e, _ := newTestEngine()
	tk, err := e.Add(AddInput{Text: "x", Priority: task.PriorityHigh})
	require.NoError(t, err)

	_, err = e.ToggleCompletion(tk.ID)
	require.NoError(t, err)
	require.NoError(t, e.Remove(tk.ID))

	assert.Equal(t, 30, e.State().Score)
}

func TestRemove_UnknownID(t *testing.T) {
	e, _ := newTestEngine()

	assert.ErrorIs(t, e.Remove(9), ErrNotFound)
}

func TestRestart(t *testing.T) {
	e, _ := newTestEngine()
	for range 4 {
		tk, err := e.Add(AddInput{Text: "x", Priority: task.PriorityHigh})
		require.NoError(t, err)
		_, err = e.ToggleCompletion(tk.ID)
		require.NoError(t, err)
	}
	require.Equal(t, 120, e.State().Score)

	e.Restart()

	assert.Equal(t, State{Score: 0, Level: 1, AllCompleted: false}, e.State())
	assert.Empty(t, e.Tasks())
}

func TestRestore_ContinuesIDSequence(t *testing.T) {
	e, _ := newTestEngine()
	e.Restore(store.Snapshot{
		Tasks: []task.Task{
			{ID: 3, Text: "a", Priority: task.PriorityLow},
			{ID: 7, Text: "b", Priority: task.PriorityLow},
		},
		Score: 40,
		Level: 1,
	})

	tk, err := e.Add(AddInput{Text: "c", Priority: task.PriorityLow})
	require.NoError(t, err)

	assert.Equal(t, int64(8), tk.ID)
	assert.Equal(t, 40, e.State().Score)
	assert.Len(t, e.Tasks(), 3)
}

func TestSortedTasks_PriorityThenCreation(t *testing.T) {
	e, _ := newTestEngine()
	_, err := e.Add(AddInput{Text: "low", Priority: task.PriorityLow})
	require.NoError(t, err)
	_, err = e.Add(AddInput{Text: "high", Priority: task.PriorityHigh})
	require.NoError(t, err)
	_, err = e.Add(AddInput{Text: "normal", Priority: task.PriorityNormal})
	require.NoError(t, err)
	_, err = e.Add(AddInput{Text: "high2", Priority: task.PriorityHigh})
	require.NoError(t, err)

	var texts []string
	for _, t := range e.SortedTasks() {
		texts = append(texts, t.Text)
	}
	assert.Equal(t, []string{"high", "high2", "normal", "low"}, texts)
}
