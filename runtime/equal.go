package runtime

import (
	"reflect"
	"unsafe"
)

// SameSlice reports whether a and b share a backing array and a length.
// Contents are not compared: a slice that was modified in place counts as
// unchanged, the same as a record pointer.
func SameSlice[E any](a, b []E) bool {
	return len(a) == len(b) && unsafe.SliceData(a) == unsafe.SliceData(b)
}

// SameFunc reports whether a and b are the same function value. Two
// closures created by separate evaluations of a func literal differ.
func SameFunc[F any](a, b F) bool {
	if reflect.TypeFor[F]().Kind() != reflect.Func {
		panic("runtime: SameFunc called with a non-function type")
	}
	return *(*unsafe.Pointer)(unsafe.Pointer(&a)) == *(*unsafe.Pointer)(unsafe.Pointer(&b))
}

// Same compares values of a statically unknown type: by identity for
// slices, maps, functions and pointers, with == for comparable values.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Func:
		// The data word of a func in an interface is the closure itself.
		return dataWord(a) == dataWord(b)
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.UnsafePointer() == vb.UnsafePointer()
	}
	if !va.Comparable() {
		return false
	}
	return a == b
}

func dataWord(x any) unsafe.Pointer {
	return (*[2]unsafe.Pointer)(unsafe.Pointer(&x))[1]
}
