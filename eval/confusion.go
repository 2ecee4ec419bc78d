// Package eval scores road decisions against KITTI style ground truth.
package eval

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"github.com/gorgonia/beliefseg/decision"
)

const (
	notRoad = 0
	road    = 1
)

// Confusion is a road/not-road confusion matrix. Rows are the ground truth, columns the prediction.
type Confusion struct {
	m *mat.Dense
}

func NewConfusion() *Confusion { return &Confusion{m: mat.NewDense(2, 2, nil)} }

// Add accumulates a batch. decisions is a (..., 4) uint8 decision tensor and target a (..., 2) uint8
// label tensor with the road flag in channel 1. Pixels whose Road flag is unset, ties included,
// count as predicted not-road.
func (c *Confusion) Add(decisions, target *tensor.Dense) error {
	dec, ok := decisions.Data().([]uint8)
	if !ok {
		return errors.Errorf("expected uint8 decisions. Got %v", decisions.Dtype())
	}
	gt, ok := target.Data().([]uint8)
	if !ok {
		return errors.Errorf("expected uint8 targets. Got %v", target.Dtype())
	}
	if len(dec)/decision.NumHypotheses != len(gt)/2 || len(dec)%decision.NumHypotheses != 0 || len(gt)%2 != 0 {
		return errors.Errorf("decisions %v and targets %v do not cover the same pixels", decisions.Shape(), target.Shape())
	}

	var counts [2][2]float64
	for p := 0; p < len(gt)/2; p++ {
		truth, pred := notRoad, notRoad
		if gt[p*2+1] != 0 {
			truth = road
		}
		if dec[p*decision.NumHypotheses+int(decision.Road)] != 0 {
			pred = road
		}
		counts[truth][pred]++
	}
	for i := range counts {
		for j := range counts[i] {
			c.m.Set(i, j, c.m.At(i, j)+counts[i][j])
		}
	}
	return nil
}

// Merge adds the counts of other into c.
func (c *Confusion) Merge(other *Confusion) { c.m.Add(c.m, other.m) }

// Matrix returns a read-only view of the counts.
func (c *Confusion) Matrix() mat.Matrix { return c.m }

func (c *Confusion) TP() float64 { return c.m.At(road, road) }
func (c *Confusion) FP() float64 { return c.m.At(notRoad, road) }
func (c *Confusion) FN() float64 { return c.m.At(road, notRoad) }
func (c *Confusion) TN() float64 { return c.m.At(notRoad, notRoad) }

// Total is the number of pixels seen.
func (c *Confusion) Total() float64 { return mat.Sum(c.m) }

// Metrics are the road scores of a confusion matrix. Undefined ratios are NaN.
type Metrics struct {
	Precision, Recall, FMeasure, IoU float32
}

func (c *Confusion) Metrics() Metrics {
	tp, fp, fn := c.TP(), c.FP(), c.FN()
	retVal := Metrics{
		Precision: ratio(tp, tp+fp),
		Recall:    ratio(tp, tp+fn),
		IoU:       ratio(tp, tp+fp+fn),
	}
	if sum := retVal.Precision + retVal.Recall; sum > 0 {
		retVal.FMeasure = 2 * retVal.Precision * retVal.Recall / sum
	} else {
		retVal.FMeasure = math32.NaN()
	}
	return retVal
}

func ratio(a, b float64) float32 {
	if b == 0 {
		return math32.NaN()
	}
	return float32(a / b)
}
