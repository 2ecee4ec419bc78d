package eval

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Record holds the scores of one fold.
type Record struct {
	Fold string
	Metrics
	Pixels float64
}

// Statistics collects per-fold scores.
type Statistics struct {
	Records []Record
}

func (s *Statistics) Update(fold string, c *Confusion) {
	s.Records = append(s.Records, Record{
		Fold:    fold,
		Metrics: c.Metrics(),
		Pixels:  c.Total(),
	})
}

// Mean averages every metric over the folds where it is defined.
func (s *Statistics) Mean() Metrics {
	pick := []func(Metrics) float32{
		func(m Metrics) float32 { return m.Precision },
		func(m Metrics) float32 { return m.Recall },
		func(m Metrics) float32 { return m.FMeasure },
		func(m Metrics) float32 { return m.IoU },
	}
	var means [4]float32
	for i, f := range pick {
		var xs []float64
		for _, r := range s.Records {
			if v := f(r.Metrics); !math32.IsNaN(v) {
				xs = append(xs, float64(v))
			}
		}
		if len(xs) == 0 {
			means[i] = math32.NaN()
			continue
		}
		means[i] = float32(stat.Mean(xs, nil))
	}
	return Metrics{Precision: means[0], Recall: means[1], FMeasure: means[2], IoU: means[3]}
}

var header = []string{"fold", "precision", "recall", "fmeasure", "iou", "pixels"}

// Write writes the records and their mean as CSV.
func (s *Statistics) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.WithStack(err)
	}
	records := make([][]string, 0, len(s.Records)+1)
	for _, r := range s.Records {
		records = append(records, row(r.Fold, r.Metrics, strconv.FormatFloat(r.Pixels, 'f', 0, 64)))
	}
	records = append(records, row("mean", s.Mean(), ""))
	if err := cw.WriteAll(records); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Dump writes the statistics into filename.
func (s *Statistics) Dump(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	if err = s.Write(f); err != nil {
		return err
	}
	return f.Close()
}

func row(name string, m Metrics, pixels string) []string {
	return []string{
		name,
		strconv.FormatFloat(float64(m.Precision), 'f', 4, 32),
		strconv.FormatFloat(float64(m.Recall), 'f', 4, 32),
		strconv.FormatFloat(float64(m.FMeasure), 'f', 4, 32),
		strconv.FormatFloat(float64(m.IoU), 'f', 4, 32),
		pixels,
	}
}
