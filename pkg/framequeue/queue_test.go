package framequeue

import (
	"context"
	"testing"
	"time"

	"github.com/T3-Labs/edge-capture/pkg/buffer"
	"github.com/stretchr/testify/assert"
)

func makeFrame(cameraID string, data []byte) Frame {
	payload := buffer.NewCopy(data)
	return Frame{
		CameraID:  cameraID,
		Payload:   payload.Move(),
		Timestamp: time.Now(),
	}
}

func TestNewQueue(t *testing.T) {
	q := NewQueue(10)

	assert.NotNil(t, q)
	assert.Equal(t, 10, q.Capacity())
	assert.Equal(t, 0, q.Size())
}

func TestQueuePush(t *testing.T) {
	q := NewQueue(5)

	err := q.Push(makeFrame("cam1", []byte("test data")))
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Size())
}

func TestQueuePushFull(t *testing.T) {
	q := NewQueue(2)

	assert.NoError(t, q.Push(makeFrame("cam1", []byte("data1"))))
	assert.NoError(t, q.Push(makeFrame("cam2", []byte("data2"))))

	err := q.Push(makeFrame("cam3", []byte("data3")))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fila cheia")

	stats := q.Stats()
	assert.Equal(t, int64(1), stats.DroppedFrames)
	assert.Equal(t, int64(3), stats.TotalFrames)
}

func TestQueuePushFullReleasesDropped(t *testing.T) {
	q := NewQueue(1)

	var released *buffer.Buffer
	frame := makeFrame("cam1", []byte("old"))
	frame.Release = func(p *buffer.Buffer) { released = p }

	_ = q.Push(frame)
	_ = q.Push(makeFrame("cam1", []byte("new")))

	// O Release recebe o payload descartado com o conteúdo intacto, para o
	// produtor reciclar o storage
	assert.NotNil(t, released)
	assert.Equal(t, []byte("old"), released.Data())
}

func TestQueuePop(t *testing.T) {
	q := NewQueue(5)

	_ = q.Push(makeFrame("cam1", []byte("test")))

	popped, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, "cam1", popped.CameraID)
	assert.Equal(t, []byte("test"), popped.Payload.Data())
}

func TestQueuePopEmpty(t *testing.T) {
	q := NewQueue(5)

	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueueOwnershipTransfer(t *testing.T) {
	q := NewQueue(1)

	payload := buffer.NewCopy([]byte{0x1, 0x2, 0x3})
	frame := Frame{CameraID: "cam1", Payload: payload.Move()}

	// Depois do Move o produtor fica com um buffer vazio reutilizável
	assert.Equal(t, 0, payload.Size())
	assert.Equal(t, 0, payload.Capacity())

	_ = q.Push(frame)
	popped, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, []byte{0x1, 0x2, 0x3}, popped.Payload.Data())
}

func TestQueueStats(t *testing.T) {
	q := NewQueue(3)

	for i := 0; i < 5; i++ {
		_ = q.Push(makeFrame("cam1", []byte("data")))
	}

	stats := q.Stats()

	assert.Equal(t, int64(5), stats.TotalFrames)
	assert.Equal(t, int64(2), stats.DroppedFrames)
	assert.Equal(t, 3, stats.Size)
	assert.Equal(t, 3, stats.Capacity)

	dropRate := (float64(2) / float64(5)) * 100
	assert.InDelta(t, dropRate, stats.DropRate, 0.01)
}

func TestQueueClose(t *testing.T) {
	q := NewQueue(5)

	_ = q.Push(makeFrame("cam1", []byte("test")))
	q.Close()

	ctx := context.Background()
	_, ok := q.PopBlocking(ctx)
	assert.True(t, ok)

	_, ok = q.PopBlocking(ctx)
	assert.False(t, ok)
}

func TestQueuePopBlockingContext(t *testing.T) {
	q := NewQueue(5)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, ok := q.PopBlocking(ctx)
	assert.False(t, ok)
}

func TestQueueConcurrent(t *testing.T) {
	q := NewQueue(100)

	done := make(chan bool)

	go func() {
		for i := 0; i < 50; i++ {
			_ = q.Push(makeFrame("cam1", []byte("data")))
			time.Sleep(1 * time.Millisecond)
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 50; i++ {
			q.Pop()
			time.Sleep(2 * time.Millisecond)
		}
		done <- true
	}()

	<-done
	<-done

	stats := q.Stats()
	assert.Equal(t, int64(50), stats.TotalFrames)
}

func BenchmarkQueuePush(b *testing.B) {
	q := NewQueue(10000)
	frame := makeFrame("cam1", make([]byte, 1024))

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = q.Push(frame)
	}
}
