// Package goals tracks savings goals and their progress.
package goals

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"moneybuddy/internal/core"
	"moneybuddy/internal/storage"
)

var hundred = decimal.NewFromInt(100)

// Tracker keeps goals in insertion order and persists every change
// before exposing it.
type Tracker struct {
	mu    sync.RWMutex
	goals []core.Goal
	col   *storage.Collection[core.Goal]
	ids   *core.IDGenerator
}

// New loads the stored goals. ids may be nil.
func New(ctx context.Context, col *storage.Collection[core.Goal], ids *core.IDGenerator) (*Tracker, error) {
	if ids == nil {
		ids = core.NewIDGenerator(time.Now)
	}
	goals, err := col.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	return &Tracker{goals: goals, col: col, ids: ids}, nil
}

// Add validates the form and appends the goal.
func (t *Tracker) Add(ctx context.Context, in core.GoalInput) (core.Goal, error) {
	g, err := core.NewGoal(t.ids.NewID(), in)
	if err != nil {
		return core.Goal{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	next := make([]core.Goal, 0, len(t.goals)+1)
	next = append(next, t.goals...)
	next = append(next, g)
	if err := t.commit(ctx, next); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

// UpdateProgress sets the current amount of goal id. Input that is not a
// non-negative number is ignored, as is an unknown id; both return false
// and leave persistence untouched.
func (t *Tracker) UpdateProgress(ctx context.Context, id, newAmount string) (bool, error) {
	amount, err := core.ParseAmount(newAmount)
	if err != nil {
		return false, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	next := append([]core.Goal(nil), t.goals...)
	next[idx].CurrentAmount = amount
	if err := t.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

func (t *Tracker) Delete(ctx context.Context, id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	next := make([]core.Goal, 0, len(t.goals)-1)
	next = append(next, t.goals[:idx]...)
	next = append(next, t.goals[idx+1:]...)
	if err := t.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// Goals returns a copy in insertion order.
func (t *Tracker) Goals() []core.Goal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]core.Goal, len(t.goals))
	for i, g := range t.goals {
		out[i] = g
		if g.Deadline != nil {
			d := *g.Deadline
			out[i].Deadline = &d
		}
	}
	return out
}

// Get returns the goal with id.
func (t *Tracker) Get(id string) (core.Goal, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if idx := t.indexOf(id); idx >= 0 {
		return t.goals[idx], true
	}
	return core.Goal{}, false
}

func (t *Tracker) indexOf(id string) int {
	for i, g := range t.goals {
		if g.ID == id {
			return i
		}
	}
	return -1
}

// commit must be called with mu held.
func (t *Tracker) commit(ctx context.Context, next []core.Goal) error {
	if err := t.col.Save(ctx, next); err != nil {
		return fmt.Errorf("persist goals: %w", err)
	}
	t.goals = next
	return nil
}

// ProgressOf reports how far g is from its target. Percent is clamped to
// 100; Complete compares the unclamped ratio.
func ProgressOf(g core.Goal) core.Progress {
	target := g.TargetAmount.Decimal()
	current := g.CurrentAmount.Decimal()

	var p core.Progress
	if remaining := target.Sub(current); remaining.IsPositive() {
		p.Remaining = core.NewAmount(remaining)
	}
	if !target.IsPositive() {
		// Stored data bypassed validation; treat it as reached.
		p.Percent = 100
		p.Complete = true
		return p
	}
	p.Complete = current.GreaterThanOrEqual(target)
	pct := current.Mul(hundred).Div(target)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	p.Percent = pct.Round(2).InexactFloat64()
	return p
}
