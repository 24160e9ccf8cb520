package ports

import (
	"context"

	"randomnet/domain/dataset"
)

// DatasetReader loads a tabular edge-list dataset.
type DatasetReader interface {
	ReadTable(ctx context.Context, path string) (*dataset.Table, error)
}
