package kitti

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func smallConf() Config {
	conf := DefaultConf()
	conf.BatchSize = 2
	conf.Width = 8
	conf.Height = 6
	return conf
}

func TestSequence_Validation(t *testing.T) {
	cam, velo, gt := makeDataset(t, 6, 4, 2, 1, 0)
	conf := smallConf()
	splits, err := TrainValSplit(cam, velo, gt, 3, conf.Seed)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	c, v, g, err := splits.Fold(1, false)
	if err != nil {
		t.Fatal(err)
	}
	seq, err := NewSequence(conf, c, v, g, true)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 1, seq.Len())

	camT, veloT, targetT, err := seq.Batch(0)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	assert.Equal(t, []int{2, 6, 8, 3}, []int(camT.Shape()))
	assert.Equal(t, []int{2, 6, 8, 3}, []int(veloT.Shape()))
	assert.Equal(t, []int{2, 6, 8, 2}, []int(targetT.Shape()))

	// the 6×4 images sit at (1, 1) inside the 8×6 frame
	camData := camT.Data().([]float32)
	at := func(y, x, ch int) float32 { return camData[(y*8+x)*3+ch] }
	assert.InDelta(t, 200.0/255, at(1, 1, 0), 1e-6)
	assert.InDelta(t, 100.0/255, at(1, 1, 1), 1e-6)
	assert.Equal(t, float32(0), at(0, 0, 0), "padding should be zero")

	target := targetT.Data().([]uint8)
	label := func(y, x int) [2]uint8 { return [2]uint8{target[(y*8+x)*2], target[(y*8+x)*2+1]} }
	assert.Equal(t, [2]uint8{0, 1}, label(2, 1), "left half of the image is road")
	assert.Equal(t, [2]uint8{1, 0}, label(2, 6), "right half of the image is not road")
	assert.Equal(t, [2]uint8{1, 0}, label(0, 0), "padding is not road")

	if _, _, _, err := seq.Batch(1); err == nil {
		t.Errorf("Expected an out of range batch to fail")
	}
}

func TestSequence_TrainingRotates(t *testing.T) {
	cam, velo, gt := makeDataset(t, 6, 4, 2, 2, 0)
	paths := func(dir string) []string {
		p, err := ListImages(dir, ".png")
		if err != nil {
			t.Fatal(err)
		}
		return p
	}
	seq, err := NewSequence(smallConf(), paths(cam), paths(velo), paths(gt), false)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 2, seq.Len())

	for i := 0; i < seq.Len(); i++ {
		camT, _, targetT, err := seq.Batch(i)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		for _, v := range camT.Data().([]float32) {
			if v < 0 || v > 1 {
				t.Fatalf("Expected values in [0, 1]. Got %v", v)
			}
		}
		target := targetT.Data().([]uint8)
		for p := 0; p < len(target); p += 2 {
			if target[p]+target[p+1] != 1 {
				t.Fatalf("Expected exactly one label at pixel %d. Got %v", p/2, target[p:p+2])
			}
		}
	}
}

func TestNewSequence_Errors(t *testing.T) {
	if _, err := NewSequence(smallConf(), []string{"a"}, nil, []string{"b"}, true); err == nil {
		t.Errorf("Expected mismatched lists to fail")
	}
	conf := smallConf()
	conf.BatchSize = 0
	if _, err := NewSequence(conf, nil, nil, nil, true); err == nil {
		t.Errorf("Expected an invalid config to fail")
	}
}

func TestPad(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, magenta)
	frame, err := Pad(img, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, magenta, frame.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{}, frame.RGBAAt(0, 0))

	if _, err := Pad(img, 1, 4); err == nil {
		t.Errorf("Expected an image wider than the frame to fail")
	}
}

func TestRotate(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.SetRGBA(1, 1, color.RGBA{255, 255, 255, 255})

	rotated := Rotate(img, 180)
	assert.Equal(t, img.Bounds(), rotated.Bounds())
	var best image.Point
	var max uint8
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if r := rotated.RGBAAt(x, y).R; r > max {
				max, best = r, image.Pt(x, y)
			}
		}
	}
	assert.Equal(t, image.Pt(6, 6), best)

	uniform := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range uniform.Pix {
		uniform.Pix[i] = 200
	}
	same := Rotate(uniform, 0)
	assert.InDelta(t, 200, int(same.RGBAAt(4, 4).R), 1)
}
