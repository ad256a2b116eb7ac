package camera

import (
	"sync"

	"github.com/T3-Labs/edge-capture/pkg/buffer"
)

// Buffers acima deste limite não voltam ao pool para a memória retida não
// crescer com um frame atipicamente grande.
const maxPooledCapacity = 2 * 1024 * 1024 // 2MB

var framePool = sync.Pool{
	New: func() any {
		b := buffer.New()
		return &b
	},
}

// getFrameBuffer devolve um buffer do pool. A capacity de usos anteriores é
// retida, então SetData/AppendData normalmente não realocam.
func getFrameBuffer() *buffer.Buffer {
	return framePool.Get().(*buffer.Buffer)
}

// putFrameBuffer devolve o buffer (e seu storage) ao pool.
func putFrameBuffer(b *buffer.Buffer) {
	if b == nil || b.Capacity() == 0 || b.Capacity() > maxPooledCapacity {
		return
	}
	b.Clear()
	framePool.Put(b)
}
