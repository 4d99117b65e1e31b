// Package calendar is the boundary to the external calendar service:
// it shapes event-creation requests from task fields and performs the
// network call. The gating rules that decide whether a sync may happen
// live in the engine, not here.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/tamtam888/TaskMan/internal/task"
)

type EventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type ReminderOverride struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

type Reminders struct {
	UseDefault bool               `json:"useDefault"`
	Overrides  []ReminderOverride `json:"overrides"`
}

type Attendee struct {
	Email string `json:"email"`
}

type Event struct {
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Start       EventTime  `json:"start"`
	End         EventTime  `json:"end"`
	Reminders   Reminders  `json:"reminders"`
	ColorID     string     `json:"colorId"`
	Attendees   []Attendee `json:"attendees,omitempty"`
	SendUpdates string     `json:"-"`
}

// Options shape the event: what local time of day the slot starts at,
// how long it lasts, and in which timezone.
type Options struct {
	Location        *time.Location
	EventHour       int
	DurationMinutes int
}

func DefaultOptions() Options {
	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		loc = time.Local
	}
	return Options{Location: loc, EventHour: 9, DurationMinutes: 60}
}

var priorityColors = map[task.Priority]string{
	task.PriorityHigh:   "11",
	task.PriorityNormal: "5",
	task.PriorityLow:    "9",
}

// BuildEvent constructs the event-creation request for a task. The
// deadline must parse; the sync gate guarantees that before calling.
func BuildEvent(t task.Task, scoring task.Scoring, opts Options) (Event, error) {
	day, ok := task.ParseDeadline(t.Deadline)
	if !ok {
		return Event{}, fmt.Errorf("task %d has no usable deadline", t.ID)
	}
	if opts.Location == nil {
		opts = DefaultOptions()
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), opts.EventHour, 0, 0, 0, opts.Location)
	end := start.Add(time.Duration(opts.DurationMinutes) * time.Minute)

	attendees := make([]Attendee, 0, len(t.Users))
	for _, u := range t.Users {
		if strings.Contains(u, "@") {
			attendees = append(attendees, Attendee{Email: strings.TrimSpace(u)})
		}
	}

	sendUpdates := "none"
	if len(attendees) > 0 {
		sendUpdates = "all"
	}

	var desc strings.Builder
	desc.WriteString("Task from TaskMan\n\n")
	fmt.Fprintf(&desc, "Priority: %s\n", t.Priority)
	fmt.Fprintf(&desc, "Category: %s\n", t.Category)
	if t.Participants != "" {
		fmt.Fprintf(&desc, "Participants: %s\n", t.Participants)
	}
	fmt.Fprintf(&desc, "\nBase Points: %d", scoring.Base(t.Priority))

	colorID, ok := priorityColors[t.Priority]
	if !ok {
		colorID = priorityColors[task.PriorityNormal]
	}

	tz := opts.Location.String()
	return Event{
		Summary:     t.Text,
		Description: desc.String(),
		Start:       EventTime{DateTime: start.Format(time.RFC3339), TimeZone: tz},
		End:         EventTime{DateTime: end.Format(time.RFC3339), TimeZone: tz},
		Reminders: Reminders{
			UseDefault: false,
			Overrides: []ReminderOverride{
				{Method: "popup", Minutes: 3 * 24 * 60},
				{Method: "popup", Minutes: 24 * 60},
				{Method: "popup", Minutes: 60},
				{Method: "email", Minutes: 3 * 24 * 60},
				{Method: "email", Minutes: 24 * 60},
			},
		},
		ColorID:     colorID,
		Attendees:   attendees,
		SendUpdates: sendUpdates,
	}, nil
}
