package libgl_test

import (
	"iblbake/libgl"
	"testing"
	"unsafe"
)

func TestPointer(t *testing.T) {
	pix := []float32{1, 2, 3, 4}
	if libgl.Pointer(pix) != unsafe.Pointer(&pix[0]) {
		t.Errorf("slice pointer should point to the first element\n")
	}
	v := int32(7)
	if libgl.Pointer(&v) != unsafe.Pointer(&v) {
		t.Errorf("value pointer should point to the value\n")
	}
	if libgl.Pointer([]byte{}) != nil {
		t.Errorf("empty slice pointer should be nil\n")
	}
	if libgl.Pointer(nil) != nil {
		t.Errorf("nil pointer should be nil\n")
	}
}

func TestByteSize(t *testing.T) {
	if size := libgl.ByteSize([]float32{1, 2, 3}); size != 12 {
		t.Errorf("size of 3 floats should be 12 but is %d\n", size)
	}
	v := [4]uint16{}
	if size := libgl.ByteSize(&v); size != 8 {
		t.Errorf("size of 4 uint16s should be 8 but is %d\n", size)
	}
	if size := libgl.ByteSize(uintptr(16)); size != -1 {
		t.Errorf("size of an offset should be unknown but is %d\n", size)
	}
}
