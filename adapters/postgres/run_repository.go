// Package postgres persists runs with sqlx over lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"randomnet/domain/core"
	"randomnet/domain/replicate"
	apperrors "randomnet/internal/errors"
	"randomnet/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// RunRepositoryImpl implements ports.RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// runRow mirrors the runs table.
type runRow struct {
	ID                   string          `db:"id"`
	Statistic            string          `db:"statistic"`
	TopN                 int             `db:"top_n"`
	BottomN              int             `db:"bottom_n"`
	EdgeN                int             `db:"edge_n"`
	AttributeCardinality int             `db:"attribute_cardinality"`
	Processes            int             `db:"processes"`
	Replicates           pq.Float64Array `db:"replicates"`
	Observed             sql.NullFloat64 `db:"observed"`
	PValue               sql.NullFloat64 `db:"p_value"`
	CreatedAt            time.Time       `db:"created_at"`
}

const runColumns = `id, statistic, top_n, bottom_n, edge_n, attribute_cardinality,
	processes, replicates, observed, p_value, created_at`

// Save inserts run, assigning an ID and timestamp when they are missing.
func (r *RunRepositoryImpl) Save(ctx context.Context, run *replicate.Run) error {
	if run.ID == "" {
		run.ID = core.NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (:id, :statistic, :top_n, :bottom_n, :edge_n, :attribute_cardinality,
			:processes, :replicates, :observed, :p_value, :created_at)
	`, toRow(run))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return apperrors.InvalidInput(fmt.Sprintf("run %s already exists", run.ID))
		}
		return apperrors.DatabaseError("failed to save run", err)
	}
	return nil
}

// Get loads one run by ID.
func (r *RunRepositoryImpl) Get(ctx context.Context, id core.RunID) (*replicate.Run, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `SELECT `+runColumns+` FROM runs WHERE id = $1`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to load run", err)
	}
	return fromRow(row), nil
}

// List returns up to limit runs, newest first.
func (r *RunRepositoryImpl) List(ctx context.Context, limit int) ([]*replicate.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []runRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+runColumns+` FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list runs", err)
	}

	runs := make([]*replicate.Run, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, fromRow(row))
	}
	return runs, nil
}

func toRow(run *replicate.Run) runRow {
	return runRow{
		ID:                   run.ID.String(),
		Statistic:            string(run.Statistic),
		TopN:                 run.Request.TopN,
		BottomN:              run.Request.BottomN,
		EdgeN:                run.Request.EdgeN,
		AttributeCardinality: run.Request.AttributeCardinality,
		Processes:            run.Processes,
		Replicates:           pq.Float64Array(run.Replicates),
		Observed:             nullFloat(run.Observed),
		PValue:               nullFloat(run.PValue),
		CreatedAt:            run.CreatedAt,
	}
}

func fromRow(row runRow) *replicate.Run {
	return &replicate.Run{
		ID:        core.RunID(row.ID),
		Statistic: replicate.StatisticKind(row.Statistic),
		Request: replicate.Request{
			TopN:                 row.TopN,
			BottomN:              row.BottomN,
			EdgeN:                row.EdgeN,
			AttributeCardinality: row.AttributeCardinality,
		},
		Processes:  row.Processes,
		Replicates: replicate.Values(row.Replicates),
		Observed:   floatPtr(row.Observed),
		PValue:     floatPtr(row.PValue),
		CreatedAt:  row.CreatedAt,
	}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil || math.IsNaN(*v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
