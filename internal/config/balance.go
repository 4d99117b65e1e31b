package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tamtam888/TaskMan/internal/task"
)

// Balance holds the gameplay numbers: what each priority is worth, how
// the deadline proximity bonus tiers stack, how many points make a
// level, and how calendar events are shaped.
type Balance struct {
	BasePoints struct {
		High   int `yaml:"high"`
		Normal int `yaml:"normal"`
		Low    int `yaml:"low"`
	} `yaml:"base_points"`

	Urgency []UrgencyTier `yaml:"urgency"`

	PointsPerLevel int `yaml:"points_per_level"`

	Calendar CalendarBalance `yaml:"calendar"`
}

type UrgencyTier struct {
	WithinDays int `yaml:"within_days"`
	Bonus      int `yaml:"bonus"`
}

type CalendarBalance struct {
	Timezone        string `yaml:"timezone"`
	EventHour       int    `yaml:"event_hour"`
	DurationMinutes int    `yaml:"duration_minutes"`
}

// DefaultBalance mirrors the shipped game: 30/20/10 base points,
// +20/+10/+5 urgency inside 1/3/7 days, 100 points per level, events at
// 09:00 Jerusalem time lasting one hour.
func DefaultBalance() Balance {
	var b Balance
	b.BasePoints.High = 30
	b.BasePoints.Normal = 20
	b.BasePoints.Low = 10
	b.Urgency = []UrgencyTier{
		{WithinDays: 1, Bonus: 20},
		{WithinDays: 3, Bonus: 10},
		{WithinDays: 7, Bonus: 5},
	}
	b.PointsPerLevel = 100
	b.Calendar = CalendarBalance{
		Timezone:        "Asia/Jerusalem",
		EventHour:       9,
		DurationMinutes: 60,
	}
	return b
}

// LoadBalance reads a balance YAML file, layering it over the defaults.
// An empty path returns the defaults unchanged.
func LoadBalance(path string) (Balance, error) {
	b := DefaultBalance()
	if path == "" {
		return b, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("read balance file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return b, fmt.Errorf("parse balance file: %w", err)
	}
	if b.PointsPerLevel <= 0 {
		b.PointsPerLevel = DefaultBalance().PointsPerLevel
	}
	return b, nil
}

// Scoring converts the balance numbers into the engine's scoring rules.
func (b Balance) Scoring() task.Scoring {
	tiers := make([]task.UrgencyTier, 0, len(b.Urgency))
	for _, t := range b.Urgency {
		tiers = append(tiers, task.UrgencyTier{WithinDays: t.WithinDays, Bonus: t.Bonus})
	}
	return task.Scoring{
		BasePoints: map[task.Priority]int{
			task.PriorityHigh:   b.BasePoints.High,
			task.PriorityNormal: b.BasePoints.Normal,
			task.PriorityLow:    b.BasePoints.Low,
		},
		UrgencyTiers:   tiers,
		PointsPerLevel: b.PointsPerLevel,
	}
}
