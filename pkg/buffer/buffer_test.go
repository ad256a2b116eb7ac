package buffer

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

var testData = []byte{
	0x0, 0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7,
	0x8, 0x9, 0xa, 0xb, 0xc, 0xd, 0xe, 0xf,
}

func storagePtr(b *Buffer) *byte {
	return unsafe.SliceData(b.Data())
}

func assertBuf(t *testing.T, b *Buffer, size, capacity int) {
	t.Helper()
	assert.Equal(t, size, b.Size())
	assert.Equal(t, capacity, b.Capacity())
}

func TestConstructEmpty(t *testing.T) {
	b1 := New()
	assertBuf(t, &b1, 0, 0)
	assert.Nil(t, b1.Data())

	b2 := NewWithSize(0)
	assertBuf(t, &b2, 0, 0)

	b3 := NewWithCapacity(0, 10)
	assertBuf(t, &b3, 0, 10)

	b4 := NewCopy(testData[:0])
	assertBuf(t, &b4, 0, 0)

	b5 := NewCopyWithCapacity(testData[:0], 20)
	assertBuf(t, &b5, 0, 20)
}

func TestConstructData(t *testing.T) {
	b := NewCopy(testData[:7])
	assertBuf(t, &b, 7, 7)
	assert.Equal(t, testData[:7], b.Data())
}

func TestConstructDataWithCapacity(t *testing.T) {
	b := NewCopyWithCapacity(testData[:7], 14)
	assertBuf(t, &b, 7, 14)
	assert.Equal(t, testData[:7], b.Data())
}

func TestConstructFullArray(t *testing.T) {
	b := NewCopy(testData)
	assertBuf(t, &b, 16, 16)
	assert.Equal(t, testData, b.Data())
	// Storage próprio, nunca aliasing com a origem
	assert.NotSame(t, &testData[0], storagePtr(&b))
}

func TestClone(t *testing.T) {
	b1 := NewCopy(testData)
	b2 := b1.Clone()
	assertBuf(t, &b2, 16, 16)
	assert.Equal(t, testData, b2.Data())
	assert.NotSame(t, storagePtr(&b1), storagePtr(&b2))
	assert.True(t, b1.Equal(&b2))

	// Mutar um nunca afeta o outro
	b2.Data()[0] = 0xff
	assert.Equal(t, byte(0x0), b1.Data()[0])
}

func TestCopyFrom(t *testing.T) {
	b1 := New()
	b2 := NewCopyWithCapacity(testData, 256)
	assert.False(t, b1.Equal(&b2))

	b1.CopyFrom(&b2)
	assert.True(t, b1.Equal(&b2))
	assert.Equal(t, 256, b1.Capacity())
	assert.NotSame(t, storagePtr(&b1), storagePtr(&b2))
}

func TestSetData(t *testing.T) {
	b := NewCopy(testData[4 : 4+7])
	b.SetData(testData[:9])
	assertBuf(t, &b, 9, 9)
	assert.Equal(t, testData[:9], b.Data())
}

func TestAppendData(t *testing.T) {
	b := NewCopy(testData[4 : 4+3])
	b.AppendData(testData[10 : 10+2])
	exp := NewCopy([]byte{0x4, 0x5, 0x6, 0xa, 0xb})
	assert.True(t, b.Equal(&exp))
}

func TestSetSizeSmaller(t *testing.T) {
	b := New()
	b.SetData(testData[:15])
	b.SetSize(10)
	assertBuf(t, &b, 10, 15) // capacity não encolhe
	exp := NewCopy(testData[:10])
	assert.True(t, b.Equal(&exp))
}

func TestSetSizeLarger(t *testing.T) {
	b := New()
	b.SetData(testData[:15])
	assertBuf(t, &b, 15, 15)

	b.SetSize(20)
	assertBuf(t, &b, 20, 20) // cresce para exatamente 20
	assert.Equal(t, testData[:15], b.Data()[:15])
}

func TestEnsureCapacitySmaller(t *testing.T) {
	b := NewCopy(testData)
	data := storagePtr(&b)

	b.EnsureCapacity(4)
	assert.Equal(t, 16, b.Capacity()) // não encolhe
	assert.Same(t, data, storagePtr(&b))
	exp := NewCopy(testData)
	assert.True(t, b.Equal(&exp))
}

func TestEnsureCapacityLarger(t *testing.T) {
	b := NewCopy(testData[:5])
	b.EnsureCapacity(10)
	assert.Equal(t, 10, b.Capacity())
	data := storagePtr(&b)

	b.AppendData(testData[5:10])
	assert.Same(t, data, storagePtr(&b)) // sem realocação
	exp := NewCopy(testData[:10])
	assert.True(t, b.Equal(&exp))
}

func TestMove(t *testing.T) {
	b1 := NewCopyWithCapacity(testData[:3], 40)
	data := storagePtr(&b1)

	b2 := b1.Move()
	assertBuf(t, &b2, 3, 40)
	assert.Same(t, data, storagePtr(&b2))

	// A origem vira um buffer vazio comum, reutilizável
	assertBuf(t, &b1, 0, 0)
	assert.Nil(t, b1.Data())
	b1.AppendData(testData[:2])
	assertBuf(t, &b1, 2, 2)
}

func TestMoveFrom(t *testing.T) {
	b1 := NewCopyWithCapacity(testData[:3], 40)
	data := storagePtr(&b1)
	b2 := NewCopy(testData)

	b2.MoveFrom(&b1)
	assertBuf(t, &b2, 3, 40)
	assert.Same(t, data, storagePtr(&b2))
	assertBuf(t, &b1, 0, 0)
	assert.Nil(t, b1.Data())
}

func TestSwap(t *testing.T) {
	b1 := NewCopy(testData[:3])
	b2 := NewCopyWithCapacity(testData[:6], 40)
	data1 := storagePtr(&b1)
	data2 := storagePtr(&b2)

	b1.Swap(&b2)
	assertBuf(t, &b1, 6, 40)
	assert.Same(t, data2, storagePtr(&b1))
	assertBuf(t, &b2, 3, 3)
	assert.Same(t, data1, storagePtr(&b2))
}

func TestClear(t *testing.T) {
	b := New()
	b.SetData(testData[:15])
	assertBuf(t, &b, 15, 15)
	data := storagePtr(&b)

	b.Clear()
	assertBuf(t, &b, 0, 15)          // capacity retida
	assert.Same(t, data, storagePtr(&b)) // mesma região
}

func TestEqualIgnoresCapacity(t *testing.T) {
	b1 := NewCopy(testData[:8])
	b2 := NewCopyWithCapacity(testData[:8], 64)
	assert.True(t, b1.Equal(&b2))

	b2.SetSize(7)
	assert.False(t, b1.Equal(&b2))
}

func TestWriterSetAppend(t *testing.T) {
	setter := func(view []byte) int {
		for i := 0; i != 15; i++ {
			view[i] = testData[i]
		}
		return 15
	}

	b1 := New()
	b1.SetData(testData[:15])
	b1.AppendData(testData[:15])

	b2 := New()
	assert.Equal(t, 15, b2.SetDataWith(15, setter))
	assert.Equal(t, 15, b2.AppendDataWith(15, setter))
	assert.True(t, b1.Equal(&b2))
	assert.Equal(t, b1.Capacity(), b2.Capacity())
}

func TestWriterSetAppendSigned(t *testing.T) {
	setter := func(view []int8) int {
		for i := 0; i != 15; i++ {
			view[i] = int8(testData[i])
		}
		return 15
	}

	b1 := New()
	b1.SetData(testData[:15])
	b1.AppendData(testData[:15])

	b2 := New()
	assert.Equal(t, 15, SetDataAs(&b2, 15, setter))
	assert.Equal(t, 15, AppendDataAs(&b2, 15, setter))
	assert.True(t, b1.Equal(&b2))
	assert.Equal(t, b1.Capacity(), b2.Capacity())
}

func TestWriterAppendToEmpty(t *testing.T) {
	setter := func(view []byte) int {
		for i := 0; i != 15; i++ {
			view[i] = testData[i]
		}
		return 15
	}

	b1 := New()
	b1.SetData(testData[:15])

	b2 := New()
	assert.Equal(t, 15, b2.AppendDataWith(15, setter))
	assert.True(t, b1.Equal(&b2))
	assert.Equal(t, b1.Capacity(), b2.Capacity())
}

func TestWriterAppendPartial(t *testing.T) {
	setter := func(view []byte) int {
		for i := 0; i != 7; i++ {
			view[i] = testData[i]
		}
		return 7
	}

	b := New()
	assert.Equal(t, 7, b.AppendDataWith(15, setter))
	assert.Equal(t, 7, b.Size())              // size é o que foi escrito
	assert.GreaterOrEqual(t, b.Capacity(), 7) // capacity cobre o pedido
	assert.NotNil(t, b.Data())
}

func TestWriterStateful(t *testing.T) {
	magic := byte(17)
	setter := func(view []byte) int {
		for i := 0; i != 15; i++ {
			view[i] = magic
			magic++
		}
		return 15
	}

	b := New()
	assert.Equal(t, 15, b.SetDataWith(15, setter))
	assert.Equal(t, 15, b.AppendDataWith(15, setter))
	assert.Equal(t, 30, b.Size())
	assert.GreaterOrEqual(t, b.Capacity(), 30)

	for i := 0; i != b.Size(); i++ {
		assert.Equal(t, byte(17+i), b.Data()[i])
	}
	assert.Equal(t, byte(17+30), magic)
}

func TestWriterContractViolation(t *testing.T) {
	b := New()
	assert.Panics(t, func() {
		b.SetDataWith(4, func(view []byte) int { return 5 })
	})
	assert.Panics(t, func() {
		b.AppendDataWith(4, func(view []byte) int { return -1 })
	})
}

func TestDataAs(t *testing.T) {
	b := NewCopy(testData[:4])
	signed := DataAs[int8](&b)
	assert.Equal(t, 4, len(signed))
	assert.Equal(t, int8(0x3), signed[3])

	// Mesma região de storage, só o tipo da visão muda
	signed[0] = 0x7f
	assert.Equal(t, byte(0x7f), b.Data()[0])

	empty := New()
	assert.Nil(t, DataAs[int8](&empty))
}

func BenchmarkAppendDataWith(b *testing.B) {
	buf := NewWithCapacity(0, 64*1024)
	chunk := 4096
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		buf.Clear()
		buf.AppendDataWith(chunk, func(view []byte) int {
			return len(view)
		})
	}
}

func BenchmarkAppendDataCopy(b *testing.B) {
	src := make([]byte, 4096)
	buf := NewWithCapacity(0, 64*1024)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		buf.Clear()
		buf.AppendData(src)
	}
}
