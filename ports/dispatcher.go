package ports

import (
	"context"

	"randomnet/domain/replicate"
)

// ReplicateDispatcher draws a null distribution from a worker pool.
type ReplicateDispatcher interface {
	Dispatch(ctx context.Context, kind replicate.StatisticKind, req replicate.Request, opts replicate.Options) ([]float64, error)
}
