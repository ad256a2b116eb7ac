package util

import (
	"bytes"
	"testing"

	"github.com/T3-Labs/edge-capture/pkg/buffer"
	"github.com/stretchr/testify/assert"
)

func TestCompressRoundTrip(t *testing.T) {
	c, err := NewCompressor(3)
	assert.NoError(t, err)

	src := bytes.Repeat([]byte("frame de teste "), 1000)

	comp, err := c.Compress(src)
	assert.NoError(t, err)
	assert.Less(t, len(comp), len(src))

	out, err := Decompress(comp)
	assert.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestCompressInto(t *testing.T) {
	c, err := NewCompressor(3)
	assert.NoError(t, err)

	src := bytes.Repeat([]byte("frame de teste "), 1000)

	dst := buffer.New()
	err = c.CompressInto(&dst, src)
	assert.NoError(t, err)
	assert.Greater(t, dst.Size(), 0)
	assert.Less(t, dst.Size(), len(src))

	out, err := Decompress(dst.Data())
	assert.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestCompressIntoReusesStorage(t *testing.T) {
	c, err := NewCompressor(3)
	assert.NoError(t, err)

	src := bytes.Repeat([]byte("frame de teste "), 1000)

	dst := buffer.New()
	assert.NoError(t, c.CompressInto(&dst, src))
	capAfterFirst := dst.Capacity()

	// Segunda compressão do mesmo payload não deve crescer o buffer
	assert.NoError(t, c.CompressInto(&dst, src))
	assert.Equal(t, capAfterFirst, dst.Capacity())
}

func TestDecompressInto(t *testing.T) {
	c, err := NewCompressor(3)
	assert.NoError(t, err)

	src := bytes.Repeat([]byte{0xab}, 4096)
	comp, err := c.Compress(src)
	assert.NoError(t, err)

	dst := buffer.New()
	assert.NoError(t, DecompressInto(&dst, comp))
	assert.Equal(t, src, dst.Data())
}

func TestDecompressIntoReusesStorage(t *testing.T) {
	c, err := NewCompressor(3)
	assert.NoError(t, err)

	src := bytes.Repeat([]byte{0xab}, 4096)
	comp, err := c.Compress(src)
	assert.NoError(t, err)

	// Com capacidade pré-alocada suficiente, descomprimir não realoca
	dst := buffer.NewWithCapacity(0, 8192)
	assert.NoError(t, DecompressInto(&dst, comp))
	assert.Equal(t, src, dst.Data())
	assert.Equal(t, 8192, dst.Capacity())

	// Segunda descompressão reaproveita o mesmo storage
	assert.NoError(t, DecompressInto(&dst, comp))
	assert.Equal(t, 8192, dst.Capacity())
}
