package engine

import (
	"math"
	"testing"

	"github.com/gitmarkprojects/claude-work-agent/internal/task"
)

func TestDecayFactorStaleLowUrgency(t *testing.T) {
	today := date(t, "2026-03-31")
	tk := task.New("stale", 1, "", date(t, "2026-04-10"), date(t, "2026-03-01"))
	// priority 1, last interaction 30 days ago, due in 10 days:
	// base_decay = 30/5 = 6, urgency = 1.1, factor ≈ 5.45
	got := DecayFactor(tk, today)
	if math.Abs(got-6.0/1.1) > 1e-9 {
		t.Errorf("DecayFactor = %v, want %v", got, 6.0/1.1)
	}
	if got <= 1.0 {
		t.Error("expected factor above threshold")
	}
}

func TestDecayFactorFreshDueToday(t *testing.T) {
	today := date(t, "2026-03-10")
	tk := task.New("fresh", 5, "", today, date(t, "2026-03-09"))
	// priority 5, last interaction 1 day ago, due today:
	// base_decay = 1/1 = 1, days_until = 0 → urgency = 2, factor = 0.5
	got := DecayFactor(tk, today)
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("DecayFactor = %v, want 0.5", got)
	}
}

func TestDecayFactorOverdueGetsNoUrgencyBoost(t *testing.T) {
	today := date(t, "2026-03-10")
	overdue := task.New("overdue", 3, "", date(t, "2026-03-01"), date(t, "2026-03-04"))
	// days_since = 6, base = 6/3 = 2; overdue → urgency = 1 → factor 2
	got := DecayFactor(overdue, today)
	if math.Abs(got-2.0) > 1e-9 {
		t.Errorf("DecayFactor = %v, want 2.0 (urgency 1 when overdue)", got)
	}
}

func TestSweepArchivesAboveThreshold(t *testing.T) {
	e := testEngine(t)
	today := date(t, "2026-03-31")

	stale := task.New("stale", 1, "", date(t, "2026-04-10"), date(t, "2026-03-01"))
	fresh := task.New("fresh", 5, "", today, date(t, "2026-03-30"))
	e.Store.Add(stale)
	e.Store.Add(fresh)

	n := e.sweep(today)

	if n != 1 {
		t.Errorf("sweep archived %d, want 1", n)
	}
	if len(e.Store.Active) != 1 || e.Store.Active[0] != fresh {
		t.Error("fresh task should survive the sweep")
	}
	if len(e.Store.Archived) != 1 || e.Store.Archived[0].Status != task.StatusArchived {
		t.Errorf("stale task should be archived, got %+v", e.Store.Archived)
	}
}

func TestSweepAgainstCurrentDate(t *testing.T) {
	e := testEngine(t)
	today := task.Today()

	// 30 days untouched at priority 5 decays well past any urgency rescue.
	stale := task.New("stale", 5, "", today.AddDate(0, 0, 7), today.AddDate(0, 0, -30))
	fresh := task.New("fresh", 3, "", today.AddDate(0, 0, 7), today)
	e.Store.Add(stale)
	e.Store.Add(fresh)

	if n := e.Sweep(); n != 1 {
		t.Errorf("Sweep archived %d, want 1", n)
	}
	if len(e.Store.Active) != 1 || e.Store.Active[0] != fresh {
		t.Error("fresh task should survive the sweep")
	}
}

func TestSweepDeterministic(t *testing.T) {
	today := date(t, "2026-03-31")
	tk := task.New("stale", 1, "", date(t, "2026-04-10"), date(t, "2026-03-01"))
	first := DecayFactor(tk, today)
	for i := 0; i < 5; i++ {
		if got := DecayFactor(tk, today); got != first {
			t.Fatalf("DecayFactor not deterministic: %v vs %v", got, first)
		}
	}
}

func TestSweepIgnoresArchived(t *testing.T) {
	e := testEngine(t)
	today := date(t, "2026-03-31")

	old := task.New("already archived", 1, "", date(t, "2026-04-10"), date(t, "2026-01-01"))
	e.Store.Add(old)
	e.Store.MoveToArchived(old, task.StatusCompleted)

	if n := e.sweep(today); n != 0 {
		t.Errorf("sweep touched archived tasks: %d", n)
	}
	if old.Status != task.StatusCompleted {
		t.Errorf("status = %q, archived task must keep its status", old.Status)
	}
}
