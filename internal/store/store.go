// Package store persists the per-user task set and session aggregate.
// The engine treats it as key-value load/save keyed by user email;
// absence of a record means the defaults (no tasks, score 0, level 1).
package store

import (
	"context"

	"github.com/tamtam888/TaskMan/internal/task"
)

type Snapshot struct {
	Tasks []task.Task `json:"tasks"`
	Score int         `json:"score"`
	Level int         `json:"level"`
}

type Store interface {
	Load(ctx context.Context, email string) (Snapshot, error)
	Save(ctx context.Context, email string, snap Snapshot) error
	Clear(ctx context.Context, email string) error
}

func normalizeSnapshot(s Snapshot) Snapshot {
	if s.Tasks == nil {
		s.Tasks = []task.Task{}
	}
	for i := range s.Tasks {
		s.Tasks[i].Normalize()
	}
	if s.Level < 1 {
		s.Level = 1
	}
	return s
}
