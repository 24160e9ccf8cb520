package app

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"randomnet/adapters/excel"
	"randomnet/domain/core"
	"randomnet/domain/replicate"
	"randomnet/internal"
	"randomnet/internal/profiling"
	"randomnet/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Dispatch(ctx context.Context, kind replicate.StatisticKind, req replicate.Request, opts replicate.Options) ([]float64, error) {
	args := m.Called(ctx, kind, req, opts)
	reps, _ := args.Get(0).([]float64)
	return reps, args.Error(1)
}

func testOptions() replicate.Options {
	return replicate.Options{Replicates: 4, Processes: 2, Timeout: time.Second}
}

func newService(d *mockDispatcher) (*NullDistributionService, *testkit.InMemoryRunRepository) {
	repo := testkit.NewInMemoryRunRepository()
	return NewNullDistributionService(d, excel.NewDataReader(internal.Discard()), repo, internal.Discard()), repo
}

func TestRun_ExplicitRequest(t *testing.T) {
	d := &mockDispatcher{}
	req := replicate.Request{TopN: 5, BottomN: 8, EdgeN: 12}
	d.On("Dispatch", mock.Anything, replicate.StatDensity, req, testOptions()).
		Return([]float64{0.1, 0.2, 0.3, math.NaN()}, nil)

	svc, repo := newService(d)
	result, err := svc.Run(context.Background(), NullRequest{
		Statistic: replicate.StatDensity,
		Request:   &req,
		Options:   testOptions(),
	})
	require.NoError(t, err)
	d.AssertExpectations(t)

	assert.Nil(t, result.Significance)
	assert.Equal(t, 4, result.Summary.Count)
	assert.Equal(t, 1, result.Summary.NaNCount)
	assert.InDelta(t, 0.2, result.Summary.Mean, 1e-12)

	stored, err := repo.Get(context.Background(), result.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, req, stored.Request)
	assert.Equal(t, 2, stored.Processes)
	assert.Nil(t, stored.Observed)
}

func TestRun_Dataset(t *testing.T) {
	fixture := testkit.DefaultGameFixture()
	path, err := fixture.WriteCSV(t.TempDir())
	require.NoError(t, err)
	spec := DatasetSpec{Path: path, Top: "permalink", Bottom: "author", MinFrequency: 3}

	table, err := excel.NewDataReader(internal.Discard()).ReadTable(context.Background(), path)
	require.NoError(t, err)
	shrunk := table.ShrinkBy("author", 3)
	wantReq, err := shrunk.Cardinalities("permalink", "author", "")
	require.NoError(t, err)
	wantObs, err := ObservedStatistic(replicate.StatClustering, shrunk, spec)
	require.NoError(t, err)

	reps := []float64{0.1, 0.5, 0.9, 0.95}
	d := &mockDispatcher{}
	d.On("Dispatch", mock.Anything, replicate.StatClustering, wantReq, testOptions()).Return(reps, nil)

	svc, _ := newService(d)
	result, err := svc.Run(context.Background(), NullRequest{
		Statistic: replicate.StatClustering,
		Dataset:   &spec,
		Options:   testOptions(),
	})
	require.NoError(t, err)
	d.AssertExpectations(t)

	require.NotNil(t, result.Significance)
	assert.InDelta(t, wantObs, result.Significance.Observed, 1e-12)
	assert.InDelta(t, profiling.PValue(reps, wantObs), result.Significance.PValue, 1e-12)
	require.NotNil(t, result.Run.Observed)
	require.NotNil(t, result.Run.PValue)
	assert.Equal(t, wantReq, result.Run.Request)
}

func TestRun_DatasetAttributeAssortativity(t *testing.T) {
	path, err := testkit.DefaultGameFixture().WriteCSV(t.TempDir())
	require.NoError(t, err)

	d := &mockDispatcher{}
	d.On("Dispatch", mock.Anything, replicate.StatAttributeAssortativity,
		mock.MatchedBy(func(r replicate.Request) bool { return r.AttributeCardinality == 3 }),
		testOptions()).Return([]float64{0, 0.1, -0.1, 0.2}, nil)

	svc, _ := newService(d)
	result, err := svc.Run(context.Background(), NullRequest{
		Statistic: replicate.StatAttributeAssortativity,
		Dataset:   &DatasetSpec{Path: path, Top: "permalink", Bottom: "author", Attribute: "genre"},
		Options:   testOptions(),
	})
	require.NoError(t, err)
	d.AssertExpectations(t)
	require.NotNil(t, result.Significance)
	if obs := result.Significance.Observed; !math.IsNaN(obs) {
		assert.GreaterOrEqual(t, obs, -1.0)
		assert.LessOrEqual(t, obs, 1.0)
	}
}

func TestRun_RejectsBadRequests(t *testing.T) {
	req := replicate.Request{TopN: 2, BottomN: 2, EdgeN: 2}
	tests := []struct {
		name string
		in   NullRequest
	}{
		{"neither source", NullRequest{Statistic: replicate.StatDensity, Options: testOptions()}},
		{"both sources", NullRequest{Statistic: replicate.StatDensity, Request: &req, Dataset: &DatasetSpec{}, Options: testOptions()}},
		{"unknown statistic", NullRequest{Statistic: "betweenness", Request: &req, Options: testOptions()}},
		{"missing columns", NullRequest{Statistic: replicate.StatDensity, Dataset: &DatasetSpec{Path: "x.csv"}, Options: testOptions()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDispatcher{}
			svc, _ := newService(d)
			_, err := svc.Run(context.Background(), tt.in)
			assert.ErrorIs(t, err, core.ErrInvalidRequest)
			d.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRun_OverlappingColumnsViolateBipartiteness(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlap.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\nx,y\ny,z\n"), 0o600))

	d := &mockDispatcher{}
	svc, _ := newService(d)
	_, err := svc.Run(context.Background(), NullRequest{
		Statistic: replicate.StatDensity,
		Dataset:   &DatasetSpec{Path: path, Top: "a", Bottom: "b"},
		Options:   testOptions(),
	})
	assert.ErrorIs(t, err, core.ErrInvariantViolation)
	d.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_DispatchFailureIsNotStored(t *testing.T) {
	req := replicate.Request{TopN: 2, BottomN: 2, EdgeN: 2}
	d := &mockDispatcher{}
	d.On("Dispatch", mock.Anything, replicate.StatDensity, req, testOptions()).
		Return(nil, &core.WorkerDeathError{Iteration: 3, Workers: 2})

	svc, repo := newService(d)
	_, err := svc.Run(context.Background(), NullRequest{Statistic: replicate.StatDensity, Request: &req, Options: testOptions()})

	var death *core.WorkerDeathError
	require.True(t, errors.As(err, &death))
	assert.Equal(t, 3, death.Iteration)

	runs, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
