package decision

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// maebe carries the first error of a chain of graph constructions.
type maebe struct {
	err error
}

func (m *maebe) do(f func() (*G.Node, error)) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = f(); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

func (m *maebe) sqrt(a *G.Node) *G.Node { return m.do(func() (*G.Node, error) { return G.Sqrt(a) }) }

func (m *maebe) square(a *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Square(a) })
}

func (m *maebe) sub(a, b *G.Node) *G.Node { return m.do(func() (*G.Node, error) { return G.Sub(a, b) }) }
func (m *maebe) add(a, b *G.Node) *G.Node { return m.do(func() (*G.Node, error) { return G.Add(a, b) }) }
func (m *maebe) div(a, b *G.Node) *G.Node { return m.do(func() (*G.Node, error) { return G.Div(a, b) }) }
func (m *maebe) mul(a, b *G.Node) *G.Node { return m.do(func() (*G.Node, error) { return G.Mul(a, b) }) }

// lt returns 1 where a < b and 0 elsewhere, in the dtype of a.
func (m *maebe) lt(a, b *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Lt(a, b, true) })
}

func (m *maebe) and(a, b *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.HadamardProd(a, b) })
}

// constant creates a scalar constant of the given dtype.
func (m *maebe) constant(dt tensor.Dtype, v float64) *G.Node {
	if m.err != nil {
		return nil
	}
	switch dt {
	case G.Float32:
		return G.NewConstant(float32(v))
	case G.Float64:
		return G.NewConstant(v)
	}
	m.err = errors.Errorf("unsupported dtype %v", dt)
	return nil
}
