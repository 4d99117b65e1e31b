package task

import (
	"time"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// SortRank orders priorities for display: high before normal before low.
func (p Priority) SortRank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityNormal:
		return 2
	default:
		return 3
	}
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

type SyncState string

const (
	SyncStateNone    SyncState = "not_synced"
	SyncStatePending SyncState = "pending"
	SyncStateSynced  SyncState = "synced"
)

type Task struct {
	ID       int64    `json:"id"`
	Text     string   `json:"text"`
	Priority Priority `json:"priority"`
	Category string   `json:"category,omitempty"`

	// Deadline is stored in canonical YYYY-MM-DD form when it parses,
	// verbatim otherwise. Display form is DD/MM/YYYY.
	Deadline string `json:"deadline,omitempty"`

	Completed bool `json:"completed"`

	// Users is the source of truth; Participants is always the
	// comma-and-space join of its entries.
	Users        []string `json:"users"`
	Participants string   `json:"participants"`

	SyncState        SyncState `json:"syncState"`
	SyncedToCalendar bool      `json:"syncedToCalendar"`
	CalendarEventID  string    `json:"calendarEventId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func New(id int64, text string, priority Priority, category, deadline string, participants ParticipantsInput, now time.Time) Task {
	users, joined := participants.Normalize()
	if !priority.Valid() {
		priority = PriorityNormal
	}

	return Task{
		ID:           id,
		Text:         text,
		Priority:     priority,
		Category:     category,
		Deadline:     CanonicalDeadline(deadline),
		Completed:    false,
		Users:        users,
		Participants: joined,
		SyncState:    SyncStateNone,
		CreatedAt:    now,
	}
}

// MarkSynced is the terminal sync transition; it records the external
// event id and never runs twice for the same task.
func (t *Task) MarkSynced(eventID string) {
	t.SyncState = SyncStateSynced
	t.SyncedToCalendar = true
	t.CalendarEventID = eventID
}

// Normalize repairs a task loaded from an older snapshot: the derived
// sync fields are reconciled and an in-flight sync never survives a
// restart.
func (t *Task) Normalize() {
	if t.Users == nil {
		t.Users = []string{}
	}
	switch t.SyncState {
	case SyncStateSynced:
		t.SyncedToCalendar = true
	case SyncStatePending, SyncStateNone:
		t.SyncState = SyncStateNone
		t.SyncedToCalendar = false
		t.CalendarEventID = ""
	default:
		if t.SyncedToCalendar {
			t.SyncState = SyncStateSynced
		} else {
			t.SyncState = SyncStateNone
			t.CalendarEventID = ""
		}
	}
	if !t.Priority.Valid() {
		t.Priority = PriorityNormal
	}
}

// Patch represents a partial update. nil pointer => "no change".
type Patch struct {
	Text         *string            `json:"text,omitempty"`
	Priority     *Priority          `json:"priority,omitempty"`
	Category     *string            `json:"category,omitempty"`
	Deadline     *string            `json:"deadline,omitempty"`
	Participants *ParticipantsInput `json:"participants,omitempty"`
}
