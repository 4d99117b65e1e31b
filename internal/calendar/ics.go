package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/tamtam888/TaskMan/internal/task"
)

const icsDateLayout = "20060102"

// BuildTaskICS renders a task as a single all-day iCalendar event, for
// calendars that are not reachable over the sync API.
func BuildTaskICS(t task.Task, now time.Time) (string, error) {
	day, ok := task.ParseDeadline(t.Deadline)
	if !ok {
		return "", fmt.Errorf("task deadline required for calendar export")
	}
	end := day.AddDate(0, 0, 1)

	title := strings.TrimSpace(t.Text)
	if title == "" {
		title = "TaskMan Task"
	}

	desc := fmt.Sprintf("Priority: %s", t.Priority)
	if t.Category != "" {
		desc += "\nCategory: " + t.Category
	}
	if t.Participants != "" {
		desc += "\nParticipants: " + t.Participants
	}

	uid := fmt.Sprintf("task-%d@taskman", t.ID)

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//TaskMan//Task Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + escapeICSText(uid),
		"DTSTAMP:" + now.UTC().Format("20060102T150405Z"),
		"SUMMARY:" + escapeICSText(title),
		"DTSTART;VALUE=DATE:" + day.Format(icsDateLayout),
		"DTEND;VALUE=DATE:" + end.Format(icsDateLayout),
		"DESCRIPTION:" + escapeICSText(desc),
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}

	return strings.Join(lines, "\r\n"), nil
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}
