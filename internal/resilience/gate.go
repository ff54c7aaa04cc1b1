package resilience

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/semaphore"
)

// Gate bounds concurrent access to an external collaborator. One Gate is
// shared by every LLM client in the process so a burst of scoring work cannot
// stampede the providers.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate creates a Gate admitting up to limit concurrent holders.
// limit < 1 falls back to 1.
func NewGate(limit int) *Gate {
	if limit < 1 {
		limit = 1
	}
	return &Gate{sem: semaphore.NewWeighted(int64(limit))}
}

// Acquire blocks until a slot is free or ctx ends. The caller must Release
// exactly once per successful Acquire.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return eris.Wrap(err, "resilience: acquire gate")
	}
	return nil
}

// Release frees a slot.
func (g *Gate) Release() {
	g.sem.Release(1)
}

// With runs fn while holding a slot.
func (g *Gate) With(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release()
	return fn(ctx)
}
