package framequeue

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/T3-Labs/edge-capture/pkg/buffer"
)

// Frame representa um frame aguardando processamento. Payload é transferido
// por posse (buffer.Buffer.Move) ao entrar e sair da fila; depois do Push o
// produtor não deve mais tocar na região.
//
// Release, quando definido, é chamado se a fila descartar o frame sem
// entregá-lo a um consumidor; recebe o payload descartado para o produtor
// reciclar o storage.
type Frame struct {
	CameraID  string
	Payload   buffer.Buffer
	Timestamp time.Time
	Release   func(payload *buffer.Buffer)
}

type Queue struct {
	frames        chan Frame
	capacity      int
	droppedFrames int64
	totalFrames   int64
}

func NewQueue(capacity int) *Queue {
	return &Queue{
		frames:   make(chan Frame, capacity),
		capacity: capacity,
	}
}

func (q *Queue) Push(frame Frame) error {
	atomic.AddInt64(&q.totalFrames, 1)

	select {
	case q.frames <- frame:
		return nil
	default:
		// Fila cheia: descarta o frame mais antigo para dar lugar ao novo
		select {
		case dropped := <-q.frames:
			if dropped.Release != nil {
				dropped.Release(&dropped.Payload)
			}
		default:
		}
		q.frames <- frame
		atomic.AddInt64(&q.droppedFrames, 1)
		return fmt.Errorf("fila cheia: frame substituído")
	}
}

func (q *Queue) Pop() (Frame, bool) {
	select {
	case frame := <-q.frames:
		return frame, true
	default:
		return Frame{}, false
	}
}

func (q *Queue) PopBlocking(ctx context.Context) (Frame, bool) {
	select {
	case <-ctx.Done():
		return Frame{}, false
	case frame, ok := <-q.frames:
		return frame, ok
	}
}

func (q *Queue) Size() int {
	return len(q.frames)
}

func (q *Queue) Capacity() int {
	return q.capacity
}

func (q *Queue) Stats() QueueStats {
	dropped := atomic.LoadInt64(&q.droppedFrames)
	total := atomic.LoadInt64(&q.totalFrames)

	dropRate := float64(0)
	if total > 0 {
		dropRate = float64(dropped) / float64(total) * 100
	}

	return QueueStats{
		Size:          q.Size(),
		Capacity:      q.capacity,
		DroppedFrames: dropped,
		TotalFrames:   total,
		DropRate:      dropRate,
	}
}

func (q *Queue) Close() {
	close(q.frames)
}

type QueueStats struct {
	Size          int
	Capacity      int
	DroppedFrames int64
	TotalFrames   int64
	DropRate      float64
}

func (qs QueueStats) String() string {
	return fmt.Sprintf("Fila: %d/%d, Total: %d, Descartados: %d (%.2f%%)",
		qs.Size, qs.Capacity, qs.TotalFrames, qs.DroppedFrames, qs.DropRate)
}
