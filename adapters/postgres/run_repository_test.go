package postgres

import (
	"bytes"
	"context"
	"math"
	"os"
	"testing"
	"time"

	"randomnet/adapters/db/postgres/migrations"
	"randomnet/domain/core"
	"randomnet/domain/replicate"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/lib/pq"
)

func TestRowRoundTripKeepsNullableFields(t *testing.T) {
	observed := 0.25
	run := &replicate.Run{
		ID:         core.NewRunID(),
		Statistic:  replicate.StatDensity,
		Request:    replicate.Request{TopN: 5, BottomN: 8, EdgeN: 12},
		Processes:  3,
		Replicates: replicate.Values{0.1, 0.2},
		Observed:   &observed,
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	row := toRow(run)
	assert.True(t, row.Observed.Valid)
	assert.False(t, row.PValue.Valid)

	back := fromRow(row)
	assert.Equal(t, run.ID, back.ID)
	assert.Equal(t, run.Request, back.Request)
	assert.Equal(t, run.Replicates, back.Replicates)
	require.NotNil(t, back.Observed)
	assert.Equal(t, 0.25, *back.Observed)
	assert.Nil(t, back.PValue)
}

func TestNullFloatDropsNaN(t *testing.T) {
	nan := math.NaN()
	assert.False(t, nullFloat(&nan).Valid)
	assert.False(t, nullFloat(nil).Valid)
}

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.NewMigrator(db.DB, &bytes.Buffer{}).Up(context.Background()))
	return db
}

func TestRunRepository_SaveGetList(t *testing.T) {
	db := openTestDB(t)
	repo := NewRunRepository(db)
	ctx := context.Background()

	pValue := 0.04
	run := &replicate.Run{
		Statistic:  replicate.StatClustering,
		Request:    replicate.Request{TopN: 4, BottomN: 6, EdgeN: 9},
		Processes:  2,
		Replicates: replicate.Values{0.3, math.NaN(), 0.5},
		PValue:     &pValue,
	}
	require.NoError(t, repo.Save(ctx, run))
	require.False(t, run.ID == "")

	got, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Statistic, got.Statistic)
	assert.Equal(t, run.Request, got.Request)
	require.Len(t, got.Replicates, 3)
	assert.True(t, math.IsNaN(got.Replicates[1]))

	runs, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, runs)
	assert.Equal(t, run.ID, runs[0].ID)

	_, err = repo.Get(ctx, core.NewRunID())
	assert.ErrorIs(t, err, core.ErrRunNotFound)
}
