package util

import (
	"bytes"
	"fmt"

	zstd "github.com/klauspost/compress/zstd"

	"github.com/T3-Labs/edge-capture/pkg/buffer"
)

type Compressor struct {
	encoder *zstd.Encoder
	level   int
}

func NewCompressor(level int) (*Compressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("zstd new writer: %w", err)
	}
	return &Compressor{encoder: enc, level: level}, nil
}

// Compress comprime data numa alocação nova.
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	return c.encoder.EncodeAll(data, nil), nil
}

// CompressInto comprime src direto no storage de dst: o limite superior do
// zstd vira o maxLen da janela de escrita e o size final fica sendo o
// tamanho comprimido real.
func (c *Compressor) CompressInto(dst *buffer.Buffer, src []byte) error {
	bound := c.encoder.MaxEncodedSize(len(src))
	dst.SetDataWith(bound, func(view []byte) int {
		out := c.encoder.EncodeAll(src, view[:0:len(view)])
		if len(out) > len(view) {
			// EncodeAll realocou; não deve acontecer dentro do bound
			return copy(view, out)
		}
		return len(out)
	})
	return nil
}

func Decompress(data []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var out bytes.Buffer
	_, err = out.ReadFrom(r)
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// DecompressInto descomprime data para dentro de dst. O storage de dst é o
// destino de append do DecodeAll: quando a capacidade já basta não há
// alocação nova; quando não basta, dst cresce exato para o tamanho
// descomprimido.
func DecompressInto(dst *buffer.Buffer, data []byte) error {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return err
	}
	defer dec.Close()

	dst.Clear()
	out, err := dec.DecodeAll(data, dst.Data())
	if err != nil {
		return fmt.Errorf("zstd decode: %w", err)
	}
	dst.SetData(out)
	return nil
}
