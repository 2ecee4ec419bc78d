// Package gif renders decision tensors as animated GIF frames.
package gif

import (
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"math"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
	"gorgonia.org/tensor"

	"github.com/gorgonia/beliefseg/decision"
)

var regular *truetype.Font

const (
	dpi        = 72.0
	fontsize   = 12.0
	lineheight = 1.2
)

func init() {
	var err error
	if regular, err = truetype.Parse(gomono.TTF); err != nil {
		panic(err)
	}
}

const (
	undecided uint8 = iota
	paper
	firstHypothesis
)

// palette holds black for undecided pixels, white for the legend, then one colour per hypothesis.
var palette = color.Palette{
	color.RGBA{0, 0, 0, 255},
	color.RGBA{255, 255, 255, 255},
	color.RGBA{255, 0, 255, 255}, // Road
	color.RGBA{0, 80, 255, 255},  // Vehicle
	color.RGBA{64, 64, 64, 255},  // Background
	color.RGBA{255, 220, 0, 255}, // Ignorance
}

// Encoder accumulates decision masks and writes them as an animated GIF.
type Encoder struct {
	io.Writer
	font.Drawer

	// Delay is the time each frame is shown, in 100ths of a second.
	Delay int

	out  *gif.GIF
	face font.Face
}

// NewEncoder creates an Encoder that writes to w on Flush.
func NewEncoder(w io.Writer) *Encoder {
	face := truetype.NewFace(regular, &truetype.Options{
		Size:    fontsize,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	return &Encoder{
		Writer: w,
		Drawer: font.Drawer{Face: face},
		Delay:  50,
		out:    &gif.GIF{LoopCount: 0},
		face:   face,
	}
}

// Encode renders a (height, width, 4) uint8 decision tensor as a frame, with caption and a colour
// legend underneath.
func (enc *Encoder) Encode(decisions *tensor.Dense, caption string) error {
	shape := decisions.Shape()
	if shape.Dims() != 3 || shape[2] != decision.NumHypotheses {
		return errors.Errorf("expected a decision tensor of shape (h, w, %d). Got %v", decision.NumHypotheses, shape)
	}
	flags, ok := decisions.Data().([]uint8)
	if !ok {
		return errors.Errorf("expected uint8 decisions. Got %v", decisions.Dtype())
	}
	h, w := shape[0], shape[1]

	dy := int(math.Ceil(fontsize * lineheight * dpi / 72))
	legendW := font.MeasureString(enc.face, legendText()).Ceil()
	captionW := font.MeasureString(enc.face, caption).Ceil()
	im := image.NewPaletted(image.Rect(0, 0, maxInt(w, maxInt(legendW, captionW)), h+2*dy+dy/2), palette)
	draw.Draw(im, im.Bounds(), image.NewUniform(palette[paper]), image.Point{}, draw.Src)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			im.SetColorIndex(x, y, colourIndex(flags[(y*w+x)*decision.NumHypotheses:]))
		}
	}

	enc.Dst = im
	enc.Src = image.NewUniform(palette[undecided])
	enc.Dot = fixed.P(0, h+dy)
	enc.DrawString(caption)

	enc.Dot = fixed.P(0, h+2*dy)
	for _, hyp := range decision.Hypotheses {
		enc.Src = image.NewUniform(palette[firstHypothesis+uint8(hyp)])
		enc.DrawString(hyp.String() + " ")
	}

	enc.out.Image = append(enc.out.Image, im)
	enc.out.Delay = append(enc.out.Delay, enc.Delay)
	return nil
}

// Flush writes the GIF into the writer.
func (enc *Encoder) Flush() error {
	if len(enc.out.Image) == 0 {
		return errors.New("no frames to write")
	}
	return errors.WithStack(gif.EncodeAll(enc.Writer, enc.out))
}

// colourIndex picks the colour of the hypothesis whose flag is set. At most one can be set.
func colourIndex(flags []uint8) uint8 {
	for _, h := range decision.Hypotheses {
		if flags[h] != 0 {
			return firstHypothesis + uint8(h)
		}
	}
	return undecided
}

func legendText() string {
	var s string
	for _, h := range decision.Hypotheses {
		s += h.String() + " "
	}
	return s
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
