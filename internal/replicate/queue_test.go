package replicate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	for _, v := range []float64{1, 2, 3} {
		q.Put(v)
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []float64{1, 2, 3} {
		v, err := q.Get(context.Background(), time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_GetTimesOut(t *testing.T) {
	q := NewQueue()
	start := time.Now()
	_, err := q.Get(context.Background(), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrQueueEmpty)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestQueue_GetHonoursContext(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Get(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueue_GetWakesOnPut(t *testing.T) {
	q := NewQueue()
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Put(7)
	}()
	v, err := q.Get(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := NewQueue()
	const producers, each = 8, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				q.Put(float64(p))
			}
		}()
	}

	counts := make(map[float64]int)
	for i := 0; i < producers*each; i++ {
		v, err := q.Get(context.Background(), time.Second)
		require.NoError(t, err)
		counts[v]++
	}
	wg.Wait()

	for p := 0; p < producers; p++ {
		assert.Equal(t, each, counts[float64(p)])
	}
}
