package buffer

import "unsafe"

// ByteLike restringe as visões tipadas a elementos de exatamente um byte;
// a reinterpretação muda apenas o tipo da janela, nunca o storage.
type ByteLike interface {
	~uint8 | ~int8
}

// viewAs reinterprets a byte window as a window of T over the same storage.
func viewAs[T ByteLike](s []byte) []T {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(s))), len(s))
}

// DataAs returns the valid bytes of the buffer reinterpreted as elements of
// T. The view aliases buffer storage and must not be used past Size()
// elements. Para um buffer sem storage o retorno é nil.
func DataAs[T ByteLike](b *Buffer) []T {
	if cap(b.data) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b.data))), len(b.data))
}

// SetDataAs is SetDataWith with the window typed as []T.
func SetDataAs[T ByteLike](b *Buffer, maxLen int, writer func(view []T) int) int {
	return b.SetDataWith(maxLen, func(dst []byte) int {
		return writer(viewAs[T](dst))
	})
}

// AppendDataAs is AppendDataWith with the window typed as []T.
func AppendDataAs[T ByteLike](b *Buffer, maxLen int, writer func(view []T) int) int {
	return b.AppendDataWith(maxLen, func(dst []byte) int {
		return writer(viewAs[T](dst))
	})
}
