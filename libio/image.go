package libio

import (
	"fmt"
	goimg "image"

	"github.com/chewxy/math32"
)

type image struct {
	Channels      int
	Width, Height int
}

// Calculates the tuple index into the images data.
//
// Note that the origin (0,0) is in the bottom left, as opposed to Go's top left origin
func (img *image) Index(x, y int) int {
	return x*img.Channels + y*img.Channels*img.Width
}

func (img *image) Count() int {
	return img.Width * img.Height
}

type IntImage struct {
	image
	Pix []uint8
}

func NewIntImage(pix []uint8, channels int, width, height int) *IntImage {
	return &IntImage{
		Pix: pix,
		image: image{
			Channels: channels,
			Width:    width,
			Height:   height,
		},
	}
}

func (img *IntImage) ToRGBA() *goimg.RGBA {
	rgba := goimg.NewRGBA(goimg.Rect(0, 0, img.Width, img.Height))

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := (x + y*img.Width) * img.Channels
			// flipped vertically
			j := (x + (img.Height-y-1)*img.Width) * 4
			for c := 0; c < img.Channels && c < 4; c++ {
				rgba.Pix[j+c] = img.Pix[i+c]
			}
			for c := img.Channels; c < 3; c++ {
				rgba.Pix[j+c] = 0
			}
			if img.Channels < 4 {
				rgba.Pix[j+3] = 0xff
			}
		}
	}

	return rgba
}

type FloatImage struct {
	image
	Pix []float32
}

func NewFloatImage(pix []float32, channels int, width, height int) *FloatImage {
	return &FloatImage{
		Pix: pix,
		image: image{
			Channels: channels,
			Width:    width,
			Height:   height,
		},
	}
}

func (img *FloatImage) Bytes() int {
	return img.Width * img.Height * img.Channels * 4
}

// Validate checks that the pixel slice matches the image dimensions.
func (img *FloatImage) Validate() error {
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("image has zero size %dx%d", img.Width, img.Height)
	}
	if img.Channels <= 0 {
		return fmt.Errorf("image has no channels")
	}
	if len(img.Pix) != img.Width*img.Height*img.Channels {
		return fmt.Errorf("image has %d values, expected %d for %dx%dx%d", len(img.Pix), img.Width*img.Height*img.Channels, img.Width, img.Height, img.Channels)
	}
	return nil
}

// FlipVertical reverses the row order in place.
func (img *FloatImage) FlipVertical() {
	FlipVertical(img.Pix, img.Width*img.Channels, img.Height)
}

// FlipVertical reverses the order of the rows of pix in place.
// Applying it twice restores the original order.
func FlipVertical[E any](pix []E, stride, rows int) {
	for top, bottom := 0, rows-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bottom*stride : (bottom+1)*stride]
		for i := range a {
			a[i], b[i] = b[i], a[i]
		}
	}
}

func (img *FloatImage) ToIntImage(gamma, scale float32) *IntImage {
	pix := make([]uint8, len(img.Pix))

	for i := 0; i < len(img.Pix); i++ {
		if img.Channels == 4 && i%4 == 3 {
			pix[i] = uint8(math32.Min(math32.Max(0.0, img.Pix[i]), 1.0) * 0xff)
			continue
		}
		pix[i] = uint8(tonemap(img.Pix[i], 1.0/gamma, scale) * 0xff)
	}

	return NewIntImage(pix, img.Channels, img.Width, img.Height)
}

func tonemap(value, gamma, scale float32) float32 {
	value = math32.Pow(math32.Max(0.0, value), gamma) * scale
	return math32.Min(math32.Max(0.0, value), 1.0)
}
