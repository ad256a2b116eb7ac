// Package buffer fornece a região de bytes de posse única usada pelo
// pipeline de captura: crescimento exato (nunca amortizado), callbacks de
// escrita in-place e transferência explícita de posse entre goroutines.
package buffer

import "bytes"

// Buffer owns exactly one contiguous byte region. The backing slice keeps
// len == size and cap == capacity, so the usual slice invariants carry the
// type's invariants: size <= capacity always, and the region is nil exactly
// when capacity is zero.
//
// Buffer has single-owner semantics. Concurrent mutation of the same
// instance requires external synchronization; Move/MoveFrom are the
// sanctioned way to hand a region to another goroutine without copying.
type Buffer struct {
	data []byte
}

// New returns an empty buffer with no backing storage.
func New() Buffer {
	return Buffer{}
}

// NewWithSize allocates exactly n bytes. The contents are unspecified.
func NewWithSize(n int) Buffer {
	if n == 0 {
		return Buffer{}
	}
	return Buffer{data: make([]byte, n)}
}

// NewWithCapacity allocates capacity bytes, of which size are considered
// valid. Requires size <= capacity.
func NewWithCapacity(size, capacity int) Buffer {
	if size > capacity {
		panic("buffer: size maior que capacity")
	}
	if capacity == 0 {
		return Buffer{}
	}
	return Buffer{data: make([]byte, size, capacity)}
}

// NewCopy copies src into freshly allocated storage of exactly len(src)
// bytes. O buffer resultante nunca compartilha storage com src.
func NewCopy(src []byte) Buffer {
	return NewCopyWithCapacity(src, len(src))
}

// NewCopyWithCapacity copies src into a region of capacity bytes.
// Requires capacity >= len(src).
func NewCopyWithCapacity(src []byte, capacity int) Buffer {
	if capacity < len(src) {
		panic("buffer: capacity menor que os dados de origem")
	}
	if capacity == 0 {
		return Buffer{}
	}
	d := make([]byte, len(src), capacity)
	copy(d, src)
	return Buffer{data: d}
}

// Size returns the number of logically valid bytes.
func (b *Buffer) Size() int { return len(b.data) }

// Capacity returns the number of allocated bytes backing the region.
func (b *Buffer) Capacity() int { return cap(b.data) }

// Data returns the valid bytes of the buffer. The returned slice aliases
// buffer storage and stays valid until the next reallocating operation.
// Para um buffer sem storage o retorno é nil.
func (b *Buffer) Data() []byte { return b.data }

// Equal reports whether both buffers hold the same size and the same first
// size bytes. Capacity is excluded from the comparison.
func (b *Buffer) Equal(other *Buffer) bool {
	return bytes.Equal(b.data, other.data)
}

// Clone deep-copies the buffer into a new region with the same capacity.
func (b *Buffer) Clone() Buffer {
	if cap(b.data) == 0 {
		return Buffer{}
	}
	d := make([]byte, len(b.data), cap(b.data))
	copy(d, b.data)
	return Buffer{data: d}
}

// CopyFrom releases the current region and deep-copies src into b,
// preserving src's capacity. Os dois buffers nunca compartilham storage.
func (b *Buffer) CopyFrom(src *Buffer) {
	*b = src.Clone()
}

// Move transfers ownership of the region to the returned buffer without
// copying. b fica vazio (size 0, capacity 0, storage nil) e segue
// utilizável como um buffer novo.
func (b *Buffer) Move() Buffer {
	d := b.data
	b.data = nil
	return Buffer{data: d}
}

// MoveFrom releases b's current region and takes over src's region, size
// and capacity. src is emptied.
func (b *Buffer) MoveFrom(src *Buffer) {
	b.data = src.data
	src.data = nil
}

// Swap exchanges size, capacity and storage between the two buffers in
// O(1), sem cópia nem realocação.
func (b *Buffer) Swap(other *Buffer) {
	b.data, other.data = other.data, b.data
}

// Clear sets size to zero. Capacity and storage identity are retained for
// reuse; nada é liberado.
func (b *Buffer) Clear() {
	b.data = b.data[:0]
}

// SetSize adjusts size to n. Shrinking never releases storage. Growing past
// the current capacity reallocates to exactly n bytes, preserving the
// previously valid bytes; o conteúdo de [old_size, n) fica indeterminado.
func (b *Buffer) SetSize(n int) {
	if n <= cap(b.data) {
		b.data = b.data[:n]
		return
	}
	d := make([]byte, n)
	copy(d, b.data)
	b.data = d
}

// EnsureCapacity guarantees capacity >= c. When c fits in the current
// capacity this is a no-op and the storage identity is preserved; otherwise
// the region is reallocated to exactly c bytes and the valid bytes are
// copied over. Size never changes.
func (b *Buffer) EnsureCapacity(c int) {
	if c <= cap(b.data) {
		return
	}
	d := make([]byte, len(b.data), c)
	copy(d, b.data)
	b.data = d
}

// SetData discards the current contents and copies src into the buffer,
// reusing the existing storage when it is large enough.
func (b *Buffer) SetData(src []byte) {
	b.data = b.data[:0]
	b.AppendData(src)
}

// AppendData copies src after the valid bytes, growing to exactly
// size+len(src) when the current capacity is insufficient.
func (b *Buffer) AppendData(src []byte) {
	oldSize := len(b.data)
	b.EnsureCapacity(oldSize + len(src))
	b.data = b.data[:oldSize+len(src)]
	copy(b.data[oldSize:], src)
}

// SetDataWith discards the current contents and hands writer a mutable
// window of exactly maxLen bytes of buffer storage. O callback é invocado
// uma única vez, de forma síncrona, e devolve quantos bytes escreveu; size
// passa a ser esse valor. Bytes além do retornado ficam indeterminados.
func (b *Buffer) SetDataWith(maxLen int, writer func(view []byte) int) int {
	b.data = b.data[:0]
	return b.AppendDataWith(maxLen, writer)
}

// AppendDataWith is SetDataWith starting at the current size offset: the
// window covers [size, size+maxLen) and on return size grows by the count
// the callback reports.
func (b *Buffer) AppendDataWith(maxLen int, writer func(view []byte) int) int {
	if maxLen < 0 {
		panic("buffer: maxLen negativo")
	}
	oldSize := len(b.data)
	b.EnsureCapacity(oldSize + maxLen)
	// A janela é limitada em len e cap; o callback não alcança nada além
	// de maxLen
	n := writer(b.data[oldSize : oldSize+maxLen : oldSize+maxLen])
	if n < 0 || n > maxLen {
		// Violação de contrato do callback; não há caminho de erro
		// recuperável aqui.
		panic("buffer: writer retornou contagem fora de [0, maxLen]")
	}
	b.data = b.data[:oldSize+n]
	return n
}
