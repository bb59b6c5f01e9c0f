package libio

import (
	"encoding/binary"
	"io"
)

type BinaryReader struct {
	Order     binary.ByteOrder
	Src       io.Reader
	Index     int
	LastIndex int
	Err       error
	buf       []byte
}

func (br *BinaryReader) ReadBytes(n int) (ok bool) {
	if br.Err != nil {
		return false
	}

	if cap(br.buf) < n {
		br.buf = make([]byte, n)
	} else {
		br.buf = br.buf[:n]
	}

	nread, err := io.ReadFull(br.Src, br.buf)
	if err != nil {
		br.Err = err
	}

	br.LastIndex = br.Index
	br.Index += nread

	return br.Err == nil
}

func (br *BinaryReader) ReadUInt16s(dst []uint16) (ok bool) {
	if !br.ReadBytes(len(dst) * 2) {
		return false
	}
	for i := range dst {
		dst[i] = br.Order.Uint16(br.buf[i*2:])
	}
	return true
}

type BinaryWriter struct {
	Order binary.ByteOrder
	Dst   io.Writer
	Err   error
	// N counts the bytes written successfully
	N   int
	buf []byte
}

func (bw *BinaryWriter) WriteBytes(p []byte) (ok bool) {
	if bw.Err != nil {
		return false
	}

	n, err := bw.Dst.Write(p)
	bw.N += n
	if err != nil {
		bw.Err = err
		return false
	}
	return true
}

// WriteUInt16s writes all values in chunks of at most 16 kib.
func (bw *BinaryWriter) WriteUInt16s(data []uint16) (ok bool) {
	const chunk = 8192
	if cap(bw.buf) < chunk*2 {
		bw.buf = make([]byte, chunk*2)
	}
	for i := 0; i < len(data); i += chunk {
		j := i + chunk
		if j > len(data) {
			j = len(data)
		}
		buf := bw.buf[:(j-i)*2]
		for k, v := range data[i:j] {
			bw.Order.PutUint16(buf[k*2:], v)
		}
		if !bw.WriteBytes(buf) {
			return false
		}
	}
	return true
}
