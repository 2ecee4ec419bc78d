package kitti

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Pad centres img in a w×h frame filled with zeros. Images larger than the frame are an error.
func Pad(img image.Image, w, h int) (*image.RGBA, error) {
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := padInto(frame, img); err != nil {
		return nil, err
	}
	return frame, nil
}

func padInto(frame *image.RGBA, img image.Image) error {
	b := img.Bounds()
	fb := frame.Bounds()
	if b.Dx() > fb.Dx() || b.Dy() > fb.Dy() {
		return errors.Errorf("image of size %v does not fit into a frame of size %v", b.Size(), fb.Size())
	}
	dw := (fb.Dx() - b.Dx()) / 2
	dh := (fb.Dy() - b.Dy()) / 2
	draw.Draw(frame, image.Rect(dw, dh, dw+b.Dx(), dh+b.Dy()), img, b.Min, draw.Src)
	return nil
}

// Rotate rotates src counter-clockwise by degrees about its centre. Pixels that rotate in from
// outside the frame are zero.
func Rotate(src *image.RGBA, degrees float64) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	cx := float64(b.Min.X) + float64(b.Dx())/2
	cy := float64(b.Min.Y) + float64(b.Dy())/2

	// y points down, so a counter-clockwise turn on screen is
	//	x' = cos·(x-cx) + sin·(y-cy) + cx
	//	y' = -sin·(x-cx) + cos·(y-cy) + cy
	s2d := f64.Aff3{
		cos, sin, cx - cos*cx - sin*cy,
		-sin, cos, cy + sin*cx - cos*cy,
	}
	draw.BiLinear.Transform(dst, s2d, src, b, draw.Src, nil)
	return dst
}
