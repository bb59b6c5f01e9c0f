package libgl

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Pointer returns the address of the first element of a slice, the value
// behind a pointer or a raw uintptr offset. Nil and empty slices yield nil,
// which GL treats as "no data".
func Pointer(data any) unsafe.Pointer {
	if data == nil {
		return nil
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		return v.UnsafePointer()
	case reflect.Uintptr:
		return unsafe.Pointer(data.(uintptr))
	case reflect.Slice:
		if v.Len() == 0 {
			return nil
		}
		return v.UnsafePointer()
	default:
		panic(fmt.Errorf("unsupported type %s; must be a slice, uintptr or pointer to a value", v.Type()))
	}
}

// ByteSize returns the size of the memory Pointer refers to,
// or -1 if it is unknown.
func ByteSize(data any) int {
	if data == nil {
		return 0
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return 0
		}
		return int(v.Type().Elem().Size())
	case reflect.Slice:
		return v.Len() * int(v.Type().Elem().Size())
	default:
		return -1
	}
}
