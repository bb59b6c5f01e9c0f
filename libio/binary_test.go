package libio_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"iblbake/libio"
	"io"
	"testing"
)

func TestBinaryUInt16sRoundTrip(t *testing.T) {
	// more than one write chunk
	data := make([]uint16, 20000)
	for i := range data {
		data[i] = uint16(i * 7)
	}

	buf := new(bytes.Buffer)
	bw := &libio.BinaryWriter{Dst: buf, Order: binary.LittleEndian}
	if !bw.WriteUInt16s(data) {
		t.Fatal(bw.Err)
	}
	if bw.N != len(data)*2 {
		t.Errorf("writer should count %d bytes but counts %d\n", len(data)*2, bw.N)
	}

	br := &libio.BinaryReader{Src: buf, Order: binary.LittleEndian}
	read := make([]uint16, len(data))
	if !br.ReadUInt16s(read) {
		t.Fatal(br.Err)
	}
	for i := range data {
		if read[i] != data[i] {
			t.Fatalf("value %d should be %d but is %d\n", i, data[i], read[i])
		}
	}
	if br.Index != len(data)*2 {
		t.Errorf("reader index should be %d but is %d\n", len(data)*2, br.Index)
	}
}

func TestBinaryReaderLatchesError(t *testing.T) {
	br := &libio.BinaryReader{Src: bytes.NewReader([]byte{1, 2, 3}), Order: binary.LittleEndian}
	if br.ReadUInt16s(make([]uint16, 2)) {
		t.Errorf("reading past the end should fail\n")
	}
	if !errors.Is(br.Err, io.ErrUnexpectedEOF) {
		t.Errorf("error should be unexpected eof but is %v\n", br.Err)
	}
	if br.ReadBytes(0) {
		t.Errorf("reads after an error should fail\n")
	}
}
