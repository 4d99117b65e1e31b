package task

import (
	"math"
	"time"
)

// UrgencyTier awards Bonus when the deadline is at most WithinDays away.
// Tiers are evaluated in order; the first match wins.
type UrgencyTier struct {
	WithinDays int
	Bonus      int
}

// Scoring holds the tunable numbers behind the points and level math.
// Values come from the balance config; Points and the level helpers are
// pure functions of their arguments.
type Scoring struct {
	BasePoints     map[Priority]int
	UrgencyTiers   []UrgencyTier
	PointsPerLevel int
}

func DefaultScoring() Scoring {
	return Scoring{
		BasePoints: map[Priority]int{
			PriorityHigh:   30,
			PriorityNormal: 20,
			PriorityLow:    10,
		},
		UrgencyTiers: []UrgencyTier{
			{WithinDays: 1, Bonus: 20},
			{WithinDays: 3, Bonus: 10},
			{WithinDays: 7, Bonus: 5},
		},
		PointsPerLevel: 100,
	}
}

func (s Scoring) Base(p Priority) int {
	return s.BasePoints[p]
}

// UrgencyBonus computes the deadline bonus at a given moment. Both
// dates are truncated to midnight and the distance rounded up, so a
// deadline already in the past still lands in the tightest tier.
func (s Scoring) UrgencyBonus(deadline string, now time.Time) int {
	d, ok := ParseDeadline(deadline)
	if !ok {
		return 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	daysUntil := int(math.Ceil(d.Sub(today).Hours() / 24))
	for _, tier := range s.UrgencyTiers {
		if daysUntil <= tier.WithinDays {
			return tier.Bonus
		}
	}
	return 0
}

// Points is the full award for completing a task: base by priority
// plus the urgency bonus for its deadline.
func (s Scoring) Points(t Task, now time.Time) int {
	return s.Base(t.Priority) + s.UrgencyBonus(t.Deadline, now)
}

// LevelAfterGain is the level immediately after a completion.
func (s Scoring) LevelAfterGain(score int) int {
	return score/s.PointsPerLevel + 1
}

// LevelAfterLoss is the level immediately after an uncompletion,
// clamped at 1.
func (s Scoring) LevelAfterLoss(score int) int {
	if lvl := score / s.PointsPerLevel; lvl > 1 {
		return lvl
	}
	return 1
}
