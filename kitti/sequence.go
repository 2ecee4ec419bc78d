package kitti

import (
	"image"
	_ "image/png"
	"math/rand"
	"os"
	"sync"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
	"gorgonia.org/vecf32"
)

// Sequence loads aligned camera, LiDAR and ground truth images in batches.
//
// Every image is zero padded into a Height×Width frame. Training sequences rotate all images of a
// batch by the same random angle in [-MaxAngle, MaxAngle] degrees; validation sequences never do.
type Sequence struct {
	Config
	Camera, Velo, Target []string
	Validation bool

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSequence creates a batch loader over aligned path lists.
func NewSequence(conf Config, cam, velo, target []string, validation bool) (*Sequence, error) {
	if !conf.IsValid() {
		return nil, errors.Errorf("invalid dataset config %+v", conf)
	}
	if len(cam) != len(target) || len(velo) != len(target) {
		return nil, errors.Errorf("mismatched path lists: %d camera, %d velo, %d target", len(cam), len(velo), len(target))
	}
	return &Sequence{
		Config:     conf,
		Camera:     cam,
		Velo:       velo,
		Target:     target,
		Validation: validation,
		rng:        rand.New(rand.NewSource(conf.Seed)),
	}, nil
}

// Len is the number of full batches. A trailing partial batch is dropped.
func (s *Sequence) Len() int { return len(s.Target) / s.BatchSize }

// Batch returns batch idx. cam and velo are (BatchSize, Height, Width, 3) float32 tensors in [0, 1].
// target is a (BatchSize, Height, Width, 2) uint8 tensor: channel 0 is not-road, channel 1 is road.
func (s *Sequence) Batch(idx int) (cam, velo, target *tensor.Dense, err error) {
	if idx < 0 || idx >= s.Len() {
		return nil, nil, nil, errors.Errorf("batch %d out of range [0, %d)", idx, s.Len())
	}
	start := idx * s.BatchSize

	var angle float64
	rotate := !s.Validation && s.MaxAngle > 0
	if rotate {
		s.mu.Lock()
		angle = (2*s.rng.Float64() - 1) * s.MaxAngle
		s.mu.Unlock()
	}

	pixels := s.Height * s.Width
	camBacking := make([]float32, s.BatchSize*pixels*3)
	veloBacking := make([]float32, s.BatchSize*pixels*3)
	targetBacking := make([]uint8, s.BatchSize*pixels*2)
	for j := 0; j < s.BatchSize; j++ {
		i := start + j
		if err = s.loadRGB(s.Camera[i], rotate, angle, camBacking[j*pixels*3:(j+1)*pixels*3]); err != nil {
			return nil, nil, nil, err
		}
		if err = s.loadRGB(s.Velo[i], rotate, angle, veloBacking[j*pixels*3:(j+1)*pixels*3]); err != nil {
			return nil, nil, nil, err
		}
		if err = s.loadRoad(s.Target[i], rotate, angle, targetBacking[j*pixels*2:(j+1)*pixels*2]); err != nil {
			return nil, nil, nil, err
		}
	}

	cam = tensor.New(tensor.WithShape(s.BatchSize, s.Height, s.Width, 3), tensor.WithBacking(camBacking))
	velo = tensor.New(tensor.WithShape(s.BatchSize, s.Height, s.Width, 3), tensor.WithBacking(veloBacking))
	target = tensor.New(tensor.WithShape(s.BatchSize, s.Height, s.Width, 2), tensor.WithBacking(targetBacking))
	return cam, velo, target, nil
}

// load decodes path into a borrowed frame. The caller returns the frame.
func (s *Sequence) load(path string, rotate bool, angle float64) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", path)
	}

	frame := borrowFrame(s.Width, s.Height)
	if err = padInto(frame, img); err != nil {
		returnFrame(frame)
		return nil, errors.Wrapf(err, "padding %q", path)
	}
	if rotate {
		rotated := Rotate(frame, angle)
		returnFrame(frame)
		frame = rotated
	}
	return frame, nil
}

// loadRGB writes the RGB channels of path, scaled into [0, 1], into dst.
func (s *Sequence) loadRGB(path string, rotate bool, angle float64, dst []float32) error {
	frame, err := s.load(path, rotate, angle)
	if err != nil {
		return err
	}
	defer returnFrame(frame)
	for p := 0; p < len(dst)/3; p++ {
		dst[p*3] = float32(frame.Pix[p*4])
		dst[p*3+1] = float32(frame.Pix[p*4+1])
		dst[p*3+2] = float32(frame.Pix[p*4+2])
	}
	vecf32.Scale(dst, 1.0/255)
	return nil
}

// loadRoad writes the two label channels of a ground truth image into dst. Road pixels are the
// ones with a nonzero blue channel; padding is not-road.
func (s *Sequence) loadRoad(path string, rotate bool, angle float64, dst []uint8) error {
	frame, err := s.load(path, rotate, angle)
	if err != nil {
		return err
	}
	defer returnFrame(frame)
	for p := 0; p < len(dst)/2; p++ {
		if frame.Pix[p*4+2] > 0 {
			dst[p*2+1] = 1
		} else {
			dst[p*2] = 1
		}
	}
	return nil
}
