package decision

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer turns belief masses into decisions using the belief Hellinger distance.
//
// For every location the distance between the observed masses and each pure reference mass is
//
//	d_h = 1/√2 · √( Σ_k (√m_k - √ref_h,k)² / (2^card_k - 1) )
//
// and the flag of h is set iff d_h is strictly less than every other distance. Exact ties
// therefore leave all tied hypotheses unset, so a decision vector is not guaranteed to be one-hot.
//
// Masses are not validated. A negative mass produces NaN distances, and NaN distances never win.
//
// A Layer has no learnables. The cardinalities are read from Config on every call, so Config must
// not be changed while calls are in flight.
type Layer struct {
	Config
}

// New creates a decision layer.
func New(conf Config) *Layer {
	if !conf.IsValid() {
		panic(fmt.Sprintf("Invalid decision config %+v. Unable to proceed", conf))
	}
	return &Layer{Config: conf}
}

func (l *Layer) cardinalities() (Cardinalities, error) {
	if !l.IsValid() {
		return Cardinalities{}, errors.Errorf("invalid decision config %+v", l.Config)
	}
	return l.Cardinalities(), nil
}

// Masses are the belief mass nodes of each hypothesis, in channel order.
// They must share a shape and a float dtype.
type Masses [NumHypotheses]*G.Node

// NewMasses creates input nodes for n locations, shaped (n, 1).
func NewMasses(g *G.ExprGraph, dt tensor.Dtype, n int) (retVal Masses) {
	for _, h := range Hypotheses {
		retVal[h] = G.NewMatrix(g, dt, G.WithShape(n, 1), G.WithName("m"+h.String()))
	}
	return
}

func (m Masses) check() error {
	for _, h := range Hypotheses {
		if m[h] == nil {
			return errors.Errorf("missing mass node for %v", h)
		}
	}
	dt := m[Road].Dtype()
	if dt != G.Float32 && dt != G.Float64 {
		return errors.Errorf("unsupported mass dtype %v", dt)
	}
	for _, h := range Hypotheses[1:] {
		if m[h].Dtype() != dt {
			return errors.Errorf("mass of %v has dtype %v. Expected %v", h, m[h].Dtype(), dt)
		}
		if !m[h].Shape().Eq(m[Road].Shape()) {
			return errors.Errorf("mass of %v has shape %v. Expected %v", h, m[h].Shape(), m[Road].Shape())
		}
	}
	return nil
}

// Output holds the nodes added by Fwd.
type Output struct {
	Distances [NumHypotheses]*G.Node
	Decisions [NumHypotheses]*G.Node // 1 where the hypothesis wins, 0 elsewhere; same dtype as the masses
}

// Fwd adds the decision computation for masses to their graph.
func (l *Layer) Fwd(masses Masses) (retVal Output, err error) {
	if err = masses.check(); err != nil {
		return Output{}, err
	}
	cards, err := l.cardinalities()
	if err != nil {
		return Output{}, err
	}
	var m maebe
	roots := l.roots(&m, masses)
	for _, h := range Hypotheses {
		retVal.Distances[h] = l.distance(&m, roots, cards, h)
	}
	for _, h := range Hypotheses {
		retVal.Decisions[h] = l.decision(&m, retVal.Distances, h)
	}
	if m.err != nil {
		return Output{}, m.err
	}
	return retVal, nil
}

// Distance adds only the distance between masses and the pure reference of h to their graph.
func (l *Layer) Distance(masses Masses, h Hypothesis) (*G.Node, error) {
	if err := masses.check(); err != nil {
		return nil, err
	}
	cards, err := l.cardinalities()
	if err != nil {
		return nil, err
	}
	var m maebe
	retVal := l.distance(&m, l.roots(&m, masses), cards, h)
	return retVal, m.err
}

func (l *Layer) roots(m *maebe, masses Masses) (retVal Masses) {
	for _, h := range Hypotheses {
		retVal[h] = m.sqrt(masses[h])
	}
	return
}

func (l *Layer) distance(m *maebe, roots Masses, cards Cardinalities, h Hypothesis) *G.Node {
	dt := roots[Road].Dtype()
	ref := h.Reference()
	var sum *G.Node
	for _, k := range Hypotheses {
		diff := m.sub(roots[k], m.constant(dt, math.Sqrt(ref[k])))
		term := m.div(m.square(diff), m.constant(dt, cards.normalizer(k)))
		if sum == nil {
			sum = term
			continue
		}
		sum = m.add(sum, term)
	}
	return m.mul(m.constant(dt, invSqrt2), m.sqrt(sum))
}

// decision uses d_h < min(others) ⇔ d_h < d_j for every j ≠ h, which also holds with NaNs.
func (l *Layer) decision(m *maebe, distances [NumHypotheses]*G.Node, h Hypothesis) *G.Node {
	var retVal *G.Node
	for _, j := range Hypotheses {
		if j == h {
			continue
		}
		lt := m.lt(distances[h], distances[j])
		if retVal == nil {
			retVal = lt
			continue
		}
		retVal = m.and(retVal, lt)
	}
	return retVal
}

// Decide returns the decision flags for a belief tensor of shape (..., 4).
// The result has the same shape and holds uint8 0s and 1s, in channel order.
func (l *Layer) Decide(x *tensor.Dense) (*tensor.Dense, error) {
	r, err := l.run(x)
	if err != nil {
		return nil, err
	}
	return r.decisionTensor()
}

// Distances returns the distances of a belief tensor of shape (..., 4) to each pure reference.
// The result has the same shape and dtype as x.
func (l *Layer) Distances(x *tensor.Dense) (*tensor.Dense, error) {
	r, err := l.run(x)
	if err != nil {
		return nil, err
	}
	return r.distanceTensor()
}

// Apply returns both the distances and the decisions of x from a single pass.
func (l *Layer) Apply(x *tensor.Dense) (distances, decisions *tensor.Dense, err error) {
	var r result
	if r, err = l.run(x); err != nil {
		return nil, nil, err
	}
	if distances, err = r.distanceTensor(); err != nil {
		return nil, nil, err
	}
	if decisions, err = r.decisionTensor(); err != nil {
		return nil, nil, err
	}
	return distances, decisions, nil
}

type result struct {
	shape tensor.Shape
	dt    tensor.Dtype
	n     int // locations

	// (n, 1) copies, owned by the result
	distances [NumHypotheses]*tensor.Dense
	decisions [NumHypotheses]*tensor.Dense
}

// run evaluates x in two graphs, distances first and decisions from them second, so that only
// terminal nodes are ever read back from a machine.
func (l *Layer) run(x *tensor.Dense) (r result, err error) {
	if x == nil {
		return r, errors.New("nil belief tensor")
	}
	// views and lazily transposed tensors keep their data in storage order
	if x.IsMaterializable() {
		x = x.Materialize().(*tensor.Dense)
	}
	shape := x.Shape()
	if shape.Dims() == 0 || shape[shape.Dims()-1] != NumHypotheses {
		return r, errors.Errorf("expected a belief tensor of shape (..., %d). Got %v", NumHypotheses, shape)
	}
	r.shape = shape.Clone()
	r.dt = x.Dtype()
	if r.dt != G.Float32 && r.dt != G.Float64 {
		return r, errors.Errorf("unsupported belief dtype %v", r.dt)
	}
	cards, err := l.cardinalities()
	if err != nil {
		return r, err
	}
	if r.n = shape.TotalSize() / NumHypotheses; r.n == 0 {
		return r, nil
	}

	channels, err := splitChannels(x, r.n)
	if err != nil {
		return r, err
	}
	if r.distances, err = l.distancePass(channels, cards, r.dt, r.n); err != nil {
		return r, err
	}
	if r.decisions, err = l.decisionPass(r.distances, r.dt, r.n); err != nil {
		return r, err
	}
	return r, nil
}

func (l *Layer) distancePass(channels [NumHypotheses]*tensor.Dense, cards Cardinalities, dt tensor.Dtype, n int) (retVal [NumHypotheses]*tensor.Dense, err error) {
	g := G.NewGraph()
	var masses Masses
	for _, h := range Hypotheses {
		masses[h] = G.NewMatrix(g, dt, G.WithShape(n, 1), G.WithValue(channels[h]), G.WithName("m"+h.String()))
	}
	var m maebe
	roots := l.roots(&m, masses)
	var values [NumHypotheses]G.Value
	for _, h := range Hypotheses {
		node := l.distance(&m, roots, cards, h)
		if m.err != nil {
			return retVal, m.err
		}
		G.Read(node, &values[h])
	}
	err = execute(g, func() (err error) {
		for _, h := range Hypotheses {
			if retVal[h], err = detach(values[h], dt, n); err != nil {
				return errors.Wrapf(err, "distance of %v", h)
			}
		}
		return nil
	})
	return retVal, err
}

func (l *Layer) decisionPass(distances [NumHypotheses]*tensor.Dense, dt tensor.Dtype, n int) (retVal [NumHypotheses]*tensor.Dense, err error) {
	g := G.NewGraph()
	var nodes [NumHypotheses]*G.Node
	for _, h := range Hypotheses {
		nodes[h] = G.NewMatrix(g, dt, G.WithShape(n, 1), G.WithValue(distances[h]), G.WithName("d"+h.String()))
	}
	var m maebe
	var values [NumHypotheses]G.Value
	for _, h := range Hypotheses {
		node := l.decision(&m, nodes, h)
		if m.err != nil {
			return retVal, m.err
		}
		G.Read(node, &values[h])
	}
	err = execute(g, func() (err error) {
		for _, h := range Hypotheses {
			if retVal[h], err = detach(values[h], dt, n); err != nil {
				return errors.Wrapf(err, "decision of %v", h)
			}
		}
		return nil
	})
	return retVal, err
}

// execute runs g once and calls collect while the machine still holds its values.
func execute(g *G.ExprGraph, collect func() error) error {
	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return errors.Wrap(err, "decision pass failed")
	}
	return collect()
}

// splitChannels copies the last axis of x into one (n, 1) tensor per hypothesis.
func splitChannels(x *tensor.Dense, n int) (retVal [NumHypotheses]*tensor.Dense, err error) {
	switch data := x.Data().(type) {
	case []float32:
		for _, h := range Hypotheses {
			c := make([]float32, n)
			for i := range c {
				c[i] = data[i*NumHypotheses+int(h)]
			}
			retVal[h] = tensor.New(tensor.WithShape(n, 1), tensor.WithBacking(c))
		}
	case []float64:
		for _, h := range Hypotheses {
			c := make([]float64, n)
			for i := range c {
				c[i] = data[i*NumHypotheses+int(h)]
			}
			retVal[h] = tensor.New(tensor.WithShape(n, 1), tensor.WithBacking(c))
		}
	default:
		return retVal, errors.Errorf("unsupported belief dtype %v", x.Dtype())
	}
	return retVal, nil
}

// detach copies n values out of v into a new (n, 1) tensor.
func detach(v G.Value, dt tensor.Dtype, n int) (*tensor.Dense, error) {
	if v == nil {
		return nil, errors.New("value was not computed")
	}
	var backing interface{}
	switch data := v.Data().(type) {
	case []float32:
		backing = append([]float32(nil), data...)
	case []float64:
		backing = append([]float64(nil), data...)
	case float32: // single locations may come back as scalars
		backing = []float32{data}
	case float64:
		backing = []float64{data}
	default:
		return nil, errors.Errorf("expected %v data. Got %T", dt, v.Data())
	}
	retVal := tensor.New(tensor.WithShape(n, 1), tensor.WithBacking(backing))
	if retVal.Dtype() != dt {
		return nil, errors.Errorf("expected %v data. Got %v", dt, retVal.Dtype())
	}
	return retVal, nil
}

func (r result) distanceTensor() (*tensor.Dense, error) {
	var backing interface{}
	switch r.dt {
	case G.Float32:
		b := make([]float32, r.n*NumHypotheses)
		for h, d := range r.distances {
			if d == nil {
				break
			}
			for i, v := range d.Data().([]float32) {
				b[i*NumHypotheses+h] = v
			}
		}
		backing = b
	case G.Float64:
		b := make([]float64, r.n*NumHypotheses)
		for h, d := range r.distances {
			if d == nil {
				break
			}
			for i, v := range d.Data().([]float64) {
				b[i*NumHypotheses+h] = v
			}
		}
		backing = b
	default:
		return nil, errors.Errorf("unsupported belief dtype %v", r.dt)
	}
	return tensor.New(tensor.WithShape(r.shape.Clone()...), tensor.WithBacking(backing)), nil
}

func (r result) decisionTensor() (*tensor.Dense, error) {
	b := make([]uint8, r.n*NumHypotheses)
	for h, d := range r.decisions {
		if d == nil {
			break
		}
		switch flags := d.Data().(type) {
		case []float32:
			for i, f := range flags {
				if f != 0 {
					b[i*NumHypotheses+h] = 1
				}
			}
		case []float64:
			for i, f := range flags {
				if f != 0 {
					b[i*NumHypotheses+h] = 1
				}
			}
		default:
			return nil, errors.Errorf("unsupported decision dtype %v", d.Dtype())
		}
	}
	return tensor.New(tensor.WithShape(r.shape.Clone()...), tensor.WithBacking(b)), nil
}
