package libio

import (
	"bytes"
	"fmt"
	goimg "image"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/chewxy/math32"
)

type LoadConfig struct {
	// LdrToHdrGamma is applied to 8 bit images to get linear values.
	LdrToHdrGamma, LdrToHdrScale float32
	// FlipVertically moves the origin to the bottom left, as expected by OpenGL.
	FlipVertically bool
}

var DefaultLoadConfig = LoadConfig{
	LdrToHdrGamma:  2.2,
	LdrToHdrScale:  1.0,
	FlipVertically: false,
}

// LoadImage decodes an RGBA float image. Radiance hdr files are detected by
// their content, everything else goes through the registered image decoders.
func LoadImage(r io.Reader) (*FloatImage, error) {
	return DefaultLoadConfig.Load(r)
}

func (conf *LoadConfig) Load(r io.Reader) (*FloatImage, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return conf.LoadBytes(b)
}

func (conf *LoadConfig) LoadBytes(b []byte) (img *FloatImage, err error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("image is empty")
	}

	if IsRadianceHdr(b) {
		img, err = DecodeRadiance(bytes.NewReader(b))
	} else {
		img, err = conf.decodeLdr(b)
	}
	if err != nil {
		return nil, err
	}

	if err := img.Validate(); err != nil {
		return nil, err
	}
	if conf.FlipVertically {
		img.FlipVertical()
	}
	return img, nil
}

func (conf *LoadConfig) decodeLdr(b []byte) (*FloatImage, error) {
	src, format, err := goimg.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%s image has zero size %dx%d", format, w, h)
	}

	// 256 entry lookup table for 8 bit channels
	var lut [256]float32
	for i := range lut {
		lut[i] = math32.Pow(float32(i)/0xff, conf.LdrToHdrGamma) * conf.LdrToHdrScale
	}

	pix := make([]float32, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := (x + y*w) * 4
			if a == 0 {
				pix[i+3] = 0
				continue
			}
			// unpremultiply
			r, g, b = r*0xffff/a, g*0xffff/a, b*0xffff/a
			pix[i+0] = lut[r>>8]
			pix[i+1] = lut[g>>8]
			pix[i+2] = lut[b>>8]
			pix[i+3] = float32(a) / 0xffff
		}
	}

	return NewFloatImage(pix, 4, w, h), nil
}
