package libio_test

import (
	"iblbake/libio"
	"testing"
)

func TestFlipVerticalInvolution(t *testing.T) {
	for _, rows := range []int{1, 2, 3, 8, 9} {
		width := 5
		pix := randomFloats(width*rows*4, -10, 10)
		img := libio.NewFloatImage(append([]float32(nil), pix...), 4, width, rows)

		img.FlipVertical()
		if rows > 1 && img.Pix[0] != pix[(rows-1)*width*4] {
			t.Errorf("first row should be the last row after one flip for %d rows\n", rows)
		}

		img.FlipVertical()
		for i := range pix {
			if img.Pix[i] != pix[i] {
				t.Errorf("value %d should be %v after two flips but is %v\n", i, pix[i], img.Pix[i])
				break
			}
		}
	}
}

func TestFlipVerticalRowOrder(t *testing.T) {
	// one value per row
	pix := []float32{0, 1, 2, 3}
	libio.FlipVertical(pix, 1, 4)

	expected := []float32{3, 2, 1, 0}
	for i := range pix {
		if pix[i] != expected[i] {
			t.Errorf("row %d should be %v but is %v\n", i, expected[i], pix[i])
		}
	}
}

func TestFloatImageValidate(t *testing.T) {
	if err := libio.NewFloatImage(make([]float32, 4*2*4), 4, 4, 2).Validate(); err != nil {
		t.Errorf("valid image reported %v\n", err)
	}
	if err := libio.NewFloatImage(make([]float32, 3), 4, 4, 2).Validate(); err == nil {
		t.Errorf("short image should not validate\n")
	}
	if err := libio.NewFloatImage(nil, 4, 0, 2).Validate(); err == nil {
		t.Errorf("empty image should not validate\n")
	}
}

func TestToRGBA(t *testing.T) {
	// bottom row red, top row green
	pix := []float32{
		1, 0, 0, 1,
		0, 1, 0, 1,
	}
	img := libio.NewFloatImage(pix, 4, 1, 2)
	rgba := img.ToIntImage(1.0, 1.0).ToRGBA()

	top := rgba.RGBAAt(0, 0)
	bottom := rgba.RGBAAt(0, 1)
	if top.G != 0xff || top.R != 0 {
		t.Errorf("top pixel should be green but is %v\n", top)
	}
	if bottom.R != 0xff || bottom.G != 0 {
		t.Errorf("bottom pixel should be red but is %v\n", bottom)
	}
}
