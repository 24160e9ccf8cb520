package ports

import (
	"context"

	"randomnet/domain/core"
	"randomnet/domain/replicate"
)

// RunRepository persists completed null distributions.
type RunRepository interface {
	Save(ctx context.Context, run *replicate.Run) error
	Get(ctx context.Context, id core.RunID) (*replicate.Run, error)
	// List returns the most recent runs first.
	List(ctx context.Context, limit int) ([]*replicate.Run, error)
}
