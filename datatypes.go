package beliefseg

import (
	"io"

	"gorgonia.org/tensor"

	"github.com/gorgonia/beliefseg/decision"
	"github.com/gorgonia/beliefseg/kitti"
)

type Config struct {
	Name         string
	DecisionConf decision.Config
	DataConf     kitti.Config
}

func DefaultConf(name string) Config {
	return Config{
		Name:         name,
		DecisionConf: decision.DefaultConf(),
		DataConf:     kitti.DefaultConf(),
	}
}

// Inferer is the evidential network upstream of the decision layer. It maps a camera and a
// LiDAR batch, both (B, H, W, 3), to belief masses of shape (B, H, W, 4).
type Inferer interface {
	Infer(cam, velo *tensor.Dense) (masses *tensor.Dense, err error)
	io.Closer
}

// ExecLogger is anything that can return the execution log.
type ExecLogger interface {
	ExecLog() string
}
