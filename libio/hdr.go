package libio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

var radianceSignatures = [][]byte{[]byte("#?RADIANCE"), []byte("#?RGBE")}

var ErrNotRadiance = errors.New("not a radiance hdr image")

// IsRadianceHdr reports whether data starts with a radiance hdr signature.
func IsRadianceHdr(data []byte) bool {
	for _, sig := range radianceSignatures {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return false
}

// DecodeRadiance decodes a radiance rgbe image into RGBA floats.
// Rows are returned top to bottom; alpha is always 1.
//
// See: https://www.graphics.cornell.edu/~bjw/rgbe/rgbe.c
func DecodeRadiance(r io.Reader) (*FloatImage, error) {
	br := bufio.NewReader(r)

	magic, err := readHeaderLine(br)
	if err != nil {
		return nil, fmt.Errorf("expected radiance signature: %w", err)
	}
	if !IsRadianceHdr([]byte(magic)) {
		return nil, ErrNotRadiance
	}

	for {
		line, err := readHeaderLine(br)
		if err != nil {
			return nil, fmt.Errorf("unterminated radiance header: %w", err)
		}
		if line == "" {
			break
		}
		if format, ok := strings.CutPrefix(line, "FORMAT="); ok && format != "32-bit_rle_rgbe" {
			return nil, fmt.Errorf("radiance format %q unsupported", format)
		}
	}

	resolution, err := readHeaderLine(br)
	if err != nil {
		return nil, fmt.Errorf("expected radiance resolution: %w", err)
	}
	width, height, bottomUp, err := parseResolution(resolution)
	if err != nil {
		return nil, err
	}

	pix := make([]float32, width*height*4)
	scanline := make([]byte, width*4)
	for y := 0; y < height; y++ {
		if err := readScanline(br, scanline, width); err != nil {
			return nil, fmt.Errorf("scanline %d: %w", y, err)
		}
		row := pix[y*width*4 : (y+1)*width*4]
		decodeRgbeRow(scanline, row)
	}

	img := NewFloatImage(pix, 4, width, height)
	if bottomUp {
		img.FlipVertical()
	}
	return img, nil
}

func readHeaderLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Radiance images larger than this are rejected before allocating.
const (
	MaxRadianceSize   = 0x7fff
	MaxRadiancePixels = 1 << 28
)

func parseResolution(line string) (width, height int, bottomUp bool, err error) {
	fields := strings.Fields(line)
	if len(fields) != 4 || fields[2] != "+X" {
		return 0, 0, false, fmt.Errorf("radiance resolution %q unsupported", line)
	}
	switch fields[0] {
	case "-Y":
	case "+Y":
		bottomUp = true
	default:
		return 0, 0, false, fmt.Errorf("radiance resolution %q unsupported", line)
	}
	height, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, false, fmt.Errorf("radiance height: %w", err)
	}
	width, err = strconv.Atoi(fields[3])
	if err != nil {
		return 0, 0, false, fmt.Errorf("radiance width: %w", err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, false, fmt.Errorf("image has zero size %dx%d", width, height)
	}
	if width > MaxRadianceSize || height > MaxRadianceSize || width*height > MaxRadiancePixels {
		return 0, 0, false, fmt.Errorf("image size %dx%d exceeds the limit", width, height)
	}
	return width, height, bottomUp, nil
}

// readScanline reads one scanline of interleaved rgbe bytes into dst.
func readScanline(br *bufio.Reader, dst []byte, width int) error {
	if width < 8 || width > 0x7fff {
		_, err := io.ReadFull(br, dst)
		return err
	}

	head := dst[:4]
	if _, err := io.ReadFull(br, head); err != nil {
		return err
	}
	if head[0] != 2 || head[1] != 2 || head[2]&0x80 != 0 {
		// not run length encoded, the header is the first pixel
		_, err := io.ReadFull(br, dst[4:])
		return err
	}
	if int(head[2])<<8|int(head[3]) != width {
		return fmt.Errorf("scanline width mismatch")
	}

	// channels are stored separately, one run list per channel
	for ch := 0; ch < 4; ch++ {
		for x := 0; x < width; {
			count, err := br.ReadByte()
			if err != nil {
				return err
			}
			if count > 128 {
				n := int(count) - 128
				if x+n > width {
					return fmt.Errorf("bad run length")
				}
				value, err := br.ReadByte()
				if err != nil {
					return err
				}
				for ; n > 0; n-- {
					dst[x*4+ch] = value
					x++
				}
			} else {
				n := int(count)
				if n == 0 || x+n > width {
					return fmt.Errorf("bad literal length")
				}
				for ; n > 0; n-- {
					value, err := br.ReadByte()
					if err != nil {
						return err
					}
					dst[x*4+ch] = value
					x++
				}
			}
		}
	}
	return nil
}

func decodeRgbeRow(src []byte, dst []float32) {
	for i := 0; i < len(src)/4; i++ {
		e := src[i*4+3]
		if e == 0 {
			dst[i*4+0] = 0
			dst[i*4+1] = 0
			dst[i*4+2] = 0
		} else {
			f := math32.Ldexp(1.0, int(e)-(128+8))
			dst[i*4+0] = float32(src[i*4+0]) * f
			dst[i*4+1] = float32(src[i*4+1]) * f
			dst[i*4+2] = float32(src[i*4+2]) * f
		}
		dst[i*4+3] = 1.0
	}
}

// EncodeRadiance writes img as a flat (not run length encoded) radiance file.
// Rows of img are expected top to bottom.
func EncodeRadiance(w io.Writer, img *FloatImage) error {
	bw := &BinaryWriter{Dst: w}
	header := fmt.Sprintf("#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y %d +X %d\n", img.Height, img.Width)
	bw.WriteBytes([]byte(header))

	row := make([]byte, img.Width*4)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := img.Index(x, y)
			var r, g, b float32
			r = img.Pix[i]
			if img.Channels > 1 {
				g = img.Pix[i+1]
			}
			if img.Channels > 2 {
				b = img.Pix[i+2]
			}
			encodeRgbe(r, g, b, row[x*4:x*4+4])
		}
		if !bw.WriteBytes(row) {
			break
		}
	}
	return bw.Err
}

func encodeRgbe(r, g, b float32, dst []byte) {
	max := math32.Max(r, math32.Max(g, b))
	if max < 1e-32 {
		dst[0], dst[1], dst[2], dst[3] = 0, 0, 0, 0
		return
	}
	frac, exp := math32.Frexp(max)
	f := frac * 256.0 / max
	dst[0] = byte(math32.Max(0, r) * f)
	dst[1] = byte(math32.Max(0, g) * f)
	dst[2] = byte(math32.Max(0, b) * f)
	dst[3] = byte(exp + 128)
}
