package beliefseg

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/gorgonia/beliefseg/decision"
)

// dummyInferer believes in road in proportion to the brightness of the LiDAR projection, and keeps
// a fixed share of mass as ignorance.
type dummyInferer struct {
	ignorance float32
}

func (d dummyInferer) Infer(cam, velo *tensor.Dense) (*tensor.Dense, error) {
	data, ok := velo.Data().([]float32)
	if !ok {
		return nil, errors.Errorf("expected float32 LiDAR data. Got %v", velo.Dtype())
	}
	shape := velo.Shape().Clone()
	if shape.Dims() == 0 || shape[shape.Dims()-1] != 3 {
		return nil, errors.Errorf("expected LiDAR data of shape (..., 3). Got %v", shape)
	}
	n := len(data) / 3
	masses := make([]float32, n*decision.NumHypotheses)
	for p := 0; p < n; p++ {
		v := (data[p*3] + data[p*3+1] + data[p*3+2]) / 3
		m := masses[p*decision.NumHypotheses : (p+1)*decision.NumHypotheses]
		m[decision.Road] = v * (1 - d.ignorance)
		m[decision.Background] = (1 - v) * (1 - d.ignorance)
		m[decision.Ignorance] = d.ignorance
	}
	shape[shape.Dims()-1] = decision.NumHypotheses
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(masses)), nil
}

func (d dummyInferer) Close() error { return nil }
