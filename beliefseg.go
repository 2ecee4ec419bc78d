// Package beliefseg segments road scenes from camera and LiDAR images by deciding, per pixel,
// between the belief masses an evidential network assigns to Road, Vehicle, Background and
// Ignorance.
package beliefseg

import (
	"bytes"
	"fmt"
	"log"
	"strconv"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/gorgonia/beliefseg/decision"
	"github.com/gorgonia/beliefseg/eval"
	"github.com/gorgonia/beliefseg/kitti"
)

// Segmenter is the top level structure and the entry point of the API. It feeds batches to the
// belief network, turns the belief masses into decisions and scores them against the ground truth.
type Segmenter struct {
	eval.Statistics

	conf     Config
	layer    *decision.Layer
	nn       Inferer
	useDummy bool

	buf    bytes.Buffer
	logger *log.Logger
}

// New creates a Segmenter. If nn is nil a stand-in that reads road straight off the LiDAR
// projection is used.
func New(conf Config, nn Inferer) *Segmenter {
	if !conf.DecisionConf.IsValid() {
		panic("DecisionConf is not valid. Unable to proceed")
	}
	if !conf.DataConf.IsValid() {
		panic("DataConf is not valid. Unable to proceed")
	}

	retVal := &Segmenter{
		conf:  conf,
		layer: decision.New(conf.DecisionConf),
		nn:    nn,
	}
	if nn == nil {
		retVal.nn = dummyInferer{ignorance: 0.1}
		retVal.useDummy = true
	}
	retVal.logger = log.New(&retVal.buf, "", log.Ltime)
	return retVal
}

// Segment decides every pixel of one batch. The result is a (B, H, W, 4) uint8 tensor.
func (s *Segmenter) Segment(cam, velo *tensor.Dense) (*tensor.Dense, error) {
	masses, err := s.nn.Infer(cam, velo)
	if err != nil {
		return nil, errors.WithMessage(err, "inference failed")
	}
	return s.layer.Decide(masses)
}

// Evaluate segments every batch of seq and scores the Road decisions against the ground truth.
func (s *Segmenter) Evaluate(seq *kitti.Sequence) (*eval.Confusion, error) {
	c := eval.NewConfusion()
	for i := 0; i < seq.Len(); i++ {
		cam, velo, target, err := seq.Batch(i)
		if err != nil {
			return nil, errors.WithMessage(err, fmt.Sprintf("loading batch %d", i))
		}
		decisions, err := s.Segment(cam, velo)
		if err != nil {
			return nil, errors.WithMessage(err, fmt.Sprintf("segmenting batch %d", i))
		}
		if err = c.Add(decisions, target); err != nil {
			return nil, err
		}
		s.logger.Printf("Batch %d: %v", i, c.Metrics())
	}
	return c, nil
}

// CrossValidate evaluates the validation list of every fold and records the scores in Statistics.
func (s *Segmenter) CrossValidate(splits kitti.Splits) error {
	s.buf.Reset()
	if s.useDummy {
		log.Printf("Using Dummy")
	}
	for i := 1; i <= s.conf.DataConf.Folds; i++ {
		cam, velo, target, err := splits.Fold(i, true)
		if err != nil {
			return err
		}
		seq, err := kitti.NewSequence(s.conf.DataConf, cam, velo, target, true)
		if err != nil {
			return err
		}
		log.Printf("%s: evaluating fold %d of %d (%d batches)", s.conf.Name, i, s.conf.DataConf.Folds, seq.Len())
		s.logger.Printf("Fold %d", i)
		s.logger.SetPrefix("\t")
		c, err := s.Evaluate(seq)
		s.logger.SetPrefix("")
		if err != nil {
			return errors.WithMessage(err, fmt.Sprintf("fold %d", i))
		}
		s.Update(strconv.Itoa(i), c)
	}
	m := s.Mean()
	log.Printf("%s: mean precision %.4f, recall %.4f, F-measure %.4f, IoU %.4f", s.conf.Name, m.Precision, m.Recall, m.FMeasure, m.IoU)
	return nil
}

// ExecLog returns the log of the last CrossValidate.
func (s *Segmenter) ExecLog() string { return s.buf.String() }

// Close releases the belief network.
func (s *Segmenter) Close() error { return s.nn.Close() }
