package engine

import (
	"time"

	"github.com/gitmarkprojects/claude-work-agent/internal/task"
)

// DecayFactor computes how much relevance a task has lost as of today.
//
//	base_decay  = days_since_interaction / (6 - priority)
//	urgency     = 1 + 1/max(days_until_due, 1)   when not overdue
//	decay_factor = base_decay / urgency
//
// Lower-priority tasks decay faster per elapsed day (the denominator is 1
// for priority 5, 5 for priority 1). Overdue tasks get urgency 1 — no boost.
// That asymmetry is intentional and load-bearing: changing it changes which
// tasks survive a sweep.
func DecayFactor(t *task.Task, today time.Time) float64 {
	daysSince := task.DaysBetween(t.LastInteraction, today)
	if daysSince < 0 {
		daysSince = 0
	}
	baseDecay := float64(daysSince) / float64(6-t.Priority)

	daysUntil := task.DaysBetween(today, t.NextDate)
	urgency := 1.0
	if daysUntil >= 0 {
		d := daysUntil
		if d < 1 {
			d = 1
		}
		urgency = 1 + 1/float64(d)
	}

	return baseDecay / urgency
}

// sweep archives every active task whose decay factor exceeds the threshold.
// Fully deterministic for a fixed today. Returns the number archived.
func (e *Engine) sweep(today time.Time) int {
	candidates := make([]*task.Task, len(e.Store.Active))
	copy(candidates, e.Store.Active)

	archived := 0
	for _, t := range candidates {
		if DecayFactor(t, today) > e.Threshold {
			e.Store.MoveToArchived(t, task.StatusArchived)
			archived++
		}
	}
	return archived
}

// Sweep runs the decay pass against today's date. Exposed for callers that
// want to decay without processing a conversation.
func (e *Engine) Sweep() int {
	return e.sweep(task.Today())
}
