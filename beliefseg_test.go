package beliefseg

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorgonia.org/tensor"

	"github.com/gorgonia/beliefseg/decision"
	"github.com/gorgonia/beliefseg/kitti"
)

func writePNG(t *testing.T, path string, w, h int, fill func(x, y int) color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, fill(x, y))
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// roadScene writes frames whose left half is road, both in the LiDAR projection and the ground truth.
func roadScene(t *testing.T, names ...string) (cam, velo, gt string) {
	t.Helper()
	root := t.TempDir()
	cam, velo, gt = filepath.Join(root, "image_2"), filepath.Join(root, "velodyne"), filepath.Join(root, "gt_image_2")
	for _, d := range []string{cam, velo, gt} {
		if err := os.Mkdir(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	leftRoad := func(x, y int) color.RGBA {
		if x < 3 {
			return color.RGBA{255, 0, 255, 255}
		}
		return color.RGBA{255, 0, 0, 255}
	}
	for _, name := range names {
		parts := strings.SplitN(name, "_", 2)
		writePNG(t, filepath.Join(cam, name+".png"), 6, 4, func(int, int) color.RGBA { return color.RGBA{90, 90, 90, 255} })
		writePNG(t, filepath.Join(velo, name+".png"), 6, 4, leftRoad)
		writePNG(t, filepath.Join(gt, parts[0]+"_road_"+parts[1]+".png"), 6, 4, leftRoad)
	}
	return cam, velo, gt
}

func testConf() Config {
	conf := DefaultConf("test")
	conf.DataConf.BatchSize = 2
	conf.DataConf.Width = 8
	conf.DataConf.Height = 6
	conf.DataConf.Folds = 3
	return conf
}

func TestSegmenter_CrossValidate(t *testing.T) {
	cam, velo, gt := roadScene(t,
		"um_000000", "um_000001",
		"umm_000002", "umm_000003",
		"uu_000004", "uu_000005",
	)
	conf := testConf()
	splits, err := kitti.TrainValSplit(cam, velo, gt, conf.DataConf.Folds, conf.DataConf.Seed)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	s := New(conf, nil)
	defer s.Close()
	if err := s.CrossValidate(splits); err != nil {
		t.Fatalf("%+v", err)
	}
	assert.Len(t, s.Records, conf.DataConf.Folds)
	for _, r := range s.Records {
		assert.Equal(t, float64(2*8*6), r.Pixels, "fold %s", r.Fold)
		assert.InDelta(t, 1.0, r.FMeasure, 1e-6, "fold %s", r.Fold)
		assert.InDelta(t, 1.0, r.IoU, 1e-6, "fold %s", r.Fold)
	}
	assert.InDelta(t, 1.0, s.Mean().FMeasure, 1e-6)
	assert.True(t, strings.Contains(s.ExecLog(), "Fold 3"), "ExecLog:\n%s", s.ExecLog())
}

func TestSegmenter_Segment(t *testing.T) {
	s := New(testConf(), nil)
	velo := tensor.New(tensor.WithShape(1, 1, 3, 3), tensor.WithBacking([]float32{
		1, 0, 1,       // bright: road
		0, 0, 0,       // dark: background
		0.5, 0.5, 0.5, // even: background and road tie
	}))
	decisions, err := s.Segment(velo, velo)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	assert.Equal(t, []int{1, 1, 3, decision.NumHypotheses}, []int(decisions.Shape()))
	assert.Equal(t, []uint8{
		1, 0, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 0,
	}, decisions.Data())
}

type failingInferer struct{}

func (failingInferer) Infer(cam, velo *tensor.Dense) (*tensor.Dense, error) {
	return nil, os.ErrClosed
}
func (failingInferer) Close() error { return nil }

func TestSegmenter_InferenceFailure(t *testing.T) {
	s := New(testConf(), failingInferer{})
	velo := tensor.New(tensor.WithShape(1, 1, 1, 3), tensor.WithBacking([]float32{1, 1, 1}))
	_, err := s.Segment(velo, velo)
	assert.Error(t, err)
}

func TestNew_InvalidConf(t *testing.T) {
	conf := testConf()
	conf.DecisionConf.CardRoad = 0
	assert.Panics(t, func() { New(conf, nil) })

	conf = testConf()
	conf.DataConf.Folds = 1
	assert.Panics(t, func() { New(conf, nil) })
}
