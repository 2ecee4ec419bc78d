package decision

import (
	"fmt"
	"math"
)

// Hypothesis is one channel of a belief mass tensor.
type Hypothesis int

const (
	Road Hypothesis = iota
	Vehicle
	Background
	Ignorance // Road ∪ Vehicle ∪ Background
)

// NumHypotheses is the size of the last axis of belief and decision tensors.
const NumHypotheses = 4

// Hypotheses lists every hypothesis in channel order.
var Hypotheses = [NumHypotheses]Hypothesis{Road, Vehicle, Background, Ignorance}

var hypothesisNames = [NumHypotheses]string{"Road", "Vehicle", "Background", "Ignorance"}

func (h Hypothesis) String() string {
	if h < 0 || int(h) >= NumHypotheses {
		return fmt.Sprintf("Hypothesis(%d)", int(h))
	}
	return hypothesisNames[h]
}

// Reference returns the pure mass assignment for h: 1 on h, 0 everywhere else.
func (h Hypothesis) Reference() (retVal [NumHypotheses]float64) {
	retVal[h] = 1
	return
}

// Cardinalities holds the size of the hypothesis set each mass channel refers to.
type Cardinalities [NumHypotheses]int

// DefaultCardinalities are 1 for the singletons and 3 for the full ignorance set.
func DefaultCardinalities() Cardinalities { return Cardinalities{1, 1, 1, 3} }

// normalizer is 2^card - 1.
func (c Cardinalities) normalizer(h Hypothesis) float64 { return math.Exp2(float64(c[h])) - 1 }
