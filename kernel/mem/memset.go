package mem

import (
	"reflect"
	"unsafe"
)

// byteSliceAt overlays a []byte of the given length on top of addr without
// allocating. Used by Memset/Memcopy since neither the page allocator nor
// kmalloc exists yet when these are first called during Kinit.
func byteSliceAt(addr uintptr, size Size) []byte {
	return *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  int(size),
		Cap:  int(size),
		Data: addr,
	}))
}

// Memset sets size bytes at the given address to the supplied value. The
// implementation is based on bytes.Repeat: instead of a byte-at-a-time loop,
// it issues log2(size) copy calls, which lowers to word-strided stores since
// page and chunk addresses are always aligned.
func Memset(addr uintptr, value byte, size Size) {
	if size == 0 {
		return
	}

	target := byteSliceAt(addr, size)

	target[0] = value
	for index := Size(1); index < size; index *= 2 {
		copy(target[index:], target[:index])
	}
}

// Memcopy copies size bytes from src to dst. The two regions must not
// overlap; callers that need overlap-safe semantics should use copy()
// directly on a materialized slice.
func Memcopy(dst, src uintptr, size Size) {
	if size == 0 {
		return
	}

	copy(byteSliceAt(dst, size), byteSliceAt(src, size))
}
