package decision

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var distanceGoldens = []struct {
	name      string
	b         Belief
	distances [NumHypotheses]float64
	decision  [NumHypotheses]bool
}{
	{"pure road", Belief{1, 0, 0, 0}, [NumHypotheses]float64{0, 1, 1, 0.7559289460184544}, [NumHypotheses]bool{true, false, false, false}},
	{"pure ignorance", Belief{0, 0, 0, 1}, [NumHypotheses]float64{0.7559289460184544, 0.7559289460184544, 0.7559289460184544, 0}, [NumHypotheses]bool{false, false, false, true}},
	{"uniform", Belief{0.25, 0.25, 0.25, 0.25}, [NumHypotheses]float64{0.6267831705280087, 0.6267831705280087, 0.6267831705280087, 0.6267831705280087}, [NumHypotheses]bool{}},
	{"road vehicle tie", Belief{0.5, 0.5, 0, 0}, [NumHypotheses]float64{0.541196100146197, 0.541196100146197, 1, 0.7559289460184544}, [NumHypotheses]bool{}},
	{"mostly road", Belief{0.7, 0.1, 0.1, 0.1}, [NumHypotheses]float64{0.34710636785974064, 0.8005717276584399, 0.8005717276584399, 0.6952668792817374}, [NumHypotheses]bool{true, false, false, false}},
	{"mostly ignorant", Belief{0.1, 0.1, 0.1, 0.7}, [NumHypotheses]float64{0.61949353021897, 0.61949353021897, 0.61949353021897, 0.3897508312949852}, [NumHypotheses]bool{false, false, false, true}},
}

func TestBelief_Distances(t *testing.T) {
	cards := DefaultCardinalities()
	for _, c := range distanceGoldens {
		got := c.b.Distances(cards)
		for _, h := range Hypotheses {
			assert.InDelta(t, c.distances[h], got[h], 1e-12, "%s: distance to %v", c.name, h)
		}
		assert.Equal(t, c.decision, c.b.Decide(cards), c.name)
	}
}

func TestBelief_PureReferenceIsZero(t *testing.T) {
	cards := DefaultCardinalities()
	for _, h := range Hypotheses {
		b := Belief(h.Reference())
		if d := b.Distance(h, cards); d != 0 {
			t.Errorf("Expected the distance of %v to its own reference to be exactly 0. Got %v", h, d)
		}
	}
}

func TestBelief_NegativeMass(t *testing.T) {
	b := Belief{-0.1, 0.6, 0.4, 0.1}
	for _, d := range b.Distances(DefaultCardinalities()) {
		assert.True(t, math.IsNaN(d), "Expected NaN distance. Got %v", d)
	}
	assert.Equal(t, [NumHypotheses]bool{}, b.Decide(DefaultCardinalities()))
}

func TestHypothesis_String(t *testing.T) {
	assert.Equal(t, "Road", Road.String())
	assert.Equal(t, "Ignorance", Ignorance.String())
	assert.Equal(t, "Hypothesis(7)", Hypothesis(7).String())
}

func TestExplain(t *testing.T) {
	dot := Explain(Belief{0.7, 0.1, 0.1, 0.1}, DefaultCardinalities())
	for _, h := range Hypotheses {
		assert.True(t, strings.Contains(dot, h.String()), "Expected %v in\n%s", h, dot)
	}
	assert.True(t, strings.Contains(dot, "0.3471"), "Expected the Road distance as an edge label in\n%s", dot)
	assert.Equal(t, 1, strings.Count(dot, "penwidth"), "Expected exactly one decided hypothesis in\n%s", dot)

	tied := Explain(Belief{0.5, 0.5, 0, 0}, DefaultCardinalities())
	assert.False(t, strings.Contains(tied, "penwidth"), "Expected no decided hypothesis in\n%s", tied)
}

func TestDefaultConf(t *testing.T) {
	conf := DefaultConf()
	if !conf.IsValid() {
		t.Errorf("Expected Default Config to be valid")
	}
	assert.Equal(t, DefaultCardinalities(), conf.Cardinalities())

	conf.CardIgnorance = 0
	assert.False(t, conf.IsValid())
	assert.Panics(t, func() { New(conf) })
}
