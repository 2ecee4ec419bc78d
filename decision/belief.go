package decision

import "math"

var invSqrt2 = 1 / math.Sqrt2

// Belief is a single basic belief assignment in channel order.
//
// Belief evaluates the decision rule on one location without building a graph. It is what Explain
// reports, and it is the yardstick the graph implementation is checked against.
type Belief [NumHypotheses]float64

// Distance is the belief Hellinger distance between b and the pure reference of h.
// Negative masses yield NaN.
func (b Belief) Distance(h Hypothesis, cards Cardinalities) float64 {
	ref := h.Reference()
	var sum float64
	for k := range b {
		diff := math.Sqrt(b[k]) - math.Sqrt(ref[k])
		sum += diff * diff / cards.normalizer(Hypothesis(k))
	}
	return invSqrt2 * math.Sqrt(sum)
}

// Distances returns the distance to every pure reference, in channel order.
func (b Belief) Distances(cards Cardinalities) (retVal [NumHypotheses]float64) {
	for _, h := range Hypotheses {
		retVal[h] = b.Distance(h, cards)
	}
	return
}

// Decide returns the decision flags for b.
func (b Belief) Decide(cards Cardinalities) [NumHypotheses]bool {
	return decide(b.Distances(cards))
}

// decide flags h iff d[h] is strictly less than every other distance. Tied minima and NaNs stay false.
func decide(d [NumHypotheses]float64) (retVal [NumHypotheses]bool) {
	for h := range d {
		min := math.Inf(1)
		for j := range d {
			if j != h {
				min = math.Min(min, d[j])
			}
		}
		retVal[h] = d[h] < min
	}
	return
}
