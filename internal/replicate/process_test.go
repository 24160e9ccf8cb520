package replicate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"randomnet/adapters/rng"
	"randomnet/domain/core"
	domain "randomnet/domain/replicate"
	"randomnet/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	helperEnv     = "GO_WANT_HELPER_WORKER"
	helperModeEnv = "GO_HELPER_WORKER_MODE"
)

// TestMain doubles as the worker binary: ProcessSpawner re-executes the test
// binary with helperEnv set.
func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "1" {
		os.Exit(helperWorker(os.Getenv(helperModeEnv)))
	}
	os.Exit(m.Run())
}

func helperWorker(mode string) int {
	switch mode {
	case "crash":
		fmt.Fprintln(os.Stderr, "helper worker crashing")
		return 3
	case "hang":
		time.Sleep(time.Hour)
		return 0
	case "deaf":
		// Produces replicates but never watches stdin.
		for {
			if _, err := fmt.Fprintln(os.Stdout, "0.5"); err != nil {
				return 0
			}
			time.Sleep(time.Millisecond)
		}
	}

	spec, err := SpecFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := ServeWorker(context.Background(), spec, rng.New(), os.Stdin, os.Stdout, internal.Discard()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func processPool(mode string) *recordingSpawner {
	return &recordingSpawner{Spawner: &ProcessSpawner{
		Path:   os.Args[0],
		Env:    []string{helperEnv + "=1", helperModeEnv + "=" + mode},
		Stderr: io.Discard,
		Logger: internal.Discard(),
	}}
}

func TestProcessDispatch_Density(t *testing.T) {
	pool := processPool("serve")
	d := NewDispatcher(pool, internal.Discard())

	req := domain.Request{TopN: 5, BottomN: 8, EdgeN: 12}
	reps, err := d.Dispatch(context.Background(), domain.StatDensity, req, options(50, 3, 5*time.Second))
	require.NoError(t, err)
	require.Len(t, reps, 50)
	for _, v := range reps {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.Zero(t, pool.live())
}

func TestProcessDispatch_CrashedWorkers(t *testing.T) {
	pool := processPool("crash")
	d := NewDispatcher(pool, internal.Discard())

	req := domain.Request{TopN: 3, BottomN: 3, EdgeN: 3}
	_, err := d.Dispatch(context.Background(), domain.StatDensity, req, options(10, 2, 5*time.Second))

	var death *core.WorkerDeathError
	require.True(t, errors.As(err, &death), "got %v", err)
	assert.Zero(t, pool.live())
}

func TestProcessDispatch_HungWorkersAreKilled(t *testing.T) {
	pool := processPool("hang")
	d := NewDispatcher(pool, internal.Discard())

	req := domain.Request{TopN: 3, BottomN: 3, EdgeN: 3}
	_, err := d.Dispatch(context.Background(), domain.StatDensity, req, options(10, 2, 200*time.Millisecond))
	assert.ErrorIs(t, err, core.ErrQueueTimeout)
	assert.Zero(t, pool.live())
}

func TestProcessDispatch_WorkersIgnoringStopAreKilled(t *testing.T) {
	pool := processPool("deaf")
	d := NewDispatcher(pool, internal.Discard())

	req := domain.Request{TopN: 3, BottomN: 3, EdgeN: 3}
	reps, err := d.Dispatch(context.Background(), domain.StatDensity, req, options(20, 2, 200*time.Millisecond))
	require.NoError(t, err)
	assert.Len(t, reps, 20)
	assert.Zero(t, pool.live())
}

func TestServeWorker_StopsOnStdinEOF(t *testing.T) {
	spec := domain.WorkerSpec{
		Name:      core.WorkerName(0),
		Statistic: domain.StatDensity,
		Request:   domain.Request{TopN: 3, BottomN: 3, EdgeN: 4},
		Seed:      7,
	}
	stdinR, stdinW := io.Pipe()
	outR, outW := io.Pipe()

	errc := make(chan error, 1)
	go func() {
		errc <- ServeWorker(context.Background(), spec, rng.New(), stdinR, outW, internal.Discard())
		outW.Close()
	}()

	buf := make([]byte, 64)
	n, err := outR.Read(buf)
	require.NoError(t, err)
	assert.NotZero(t, n)

	require.NoError(t, stdinW.Close())
	go func() { _, _ = io.Copy(io.Discard, outR) }()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after stdin closed")
	}
}

func TestSpecFromEnv(t *testing.T) {
	t.Setenv(WorkerSpecEnv, `{"name":"randomnet_1","statistic":"density","request":{"top_n":2,"bottom_n":3,"edge_n":4},"seed":9}`)
	spec, err := SpecFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "randomnet_1", spec.Name)
	assert.Equal(t, domain.StatDensity, spec.Statistic)
	assert.Equal(t, 4, spec.Request.EdgeN)
	assert.Equal(t, int64(9), spec.Seed)

	t.Setenv(WorkerSpecEnv, "")
	_, err = SpecFromEnv()
	assert.Error(t, err)
}
