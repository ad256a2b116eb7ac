package worker

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/T3-Labs/edge-capture/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(true)
	os.Exit(m.Run())
}

type testJob struct {
	id      string
	err     error
	block   chan struct{}
	started chan struct{}
	done    *int64
}

func (j *testJob) GetID() string { return j.id }

func (j *testJob) Process(ctx context.Context) error {
	if j.started != nil {
		close(j.started)
	}
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if j.done != nil {
		atomic.AddInt64(j.done, 1)
	}
	return j.err
}

func TestPoolProcessesJobs(t *testing.T) {
	pool := NewPool(context.Background(), 4, 16)

	var done int64
	for i := 0; i < 10; i++ {
		assert.NoError(t, pool.Submit(&testJob{id: "job", done: &done}))
	}

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&done) == 10
	}, time.Second, 10*time.Millisecond)

	stats := pool.Stats()
	assert.Equal(t, int64(10), stats.TotalProcessed)
	assert.Zero(t, stats.TotalErrors)

	pool.Close()
}

func TestPoolCountsErrors(t *testing.T) {
	pool := NewPool(context.Background(), 2, 8)

	assert.NoError(t, pool.Submit(&testJob{id: "ok"}))
	assert.NoError(t, pool.Submit(&testJob{id: "falha", err: errors.New("publicação falhou")}))

	assert.Eventually(t, func() bool {
		return pool.Stats().TotalProcessed == 2
	}, time.Second, 10*time.Millisecond)

	stats := pool.Stats()
	assert.Equal(t, int64(1), stats.TotalErrors)
	assert.InDelta(t, 50.0, stats.ErrorRate(), 0.01)

	pool.Close()
}

func TestPoolSubmitFullQueue(t *testing.T) {
	// 1 worker bloqueado + fila de 1: o terceiro submit não cabe
	pool := NewPool(context.Background(), 1, 1)

	block := make(chan struct{})
	started := make(chan struct{})
	assert.NoError(t, pool.Submit(&testJob{id: "ocupando", block: block, started: started}))
	<-started

	assert.NoError(t, pool.Submit(&testJob{id: "na fila"}))

	err := pool.Submit(&testJob{id: "excedente"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fila cheia")
	assert.False(t, pool.SubmitNonBlocking(&testJob{id: "excedente"}))

	close(block)
	pool.Close()
}

func TestPoolCloseWaitsForJobs(t *testing.T) {
	pool := NewPool(context.Background(), 2, 4)

	var done int64
	for i := 0; i < 4; i++ {
		assert.NoError(t, pool.Submit(&testJob{id: "job", done: &done}))
	}

	pool.Close()
	assert.Equal(t, int64(4), atomic.LoadInt64(&done))
}
