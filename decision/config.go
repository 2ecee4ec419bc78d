package decision

// Config configures the decision layer.
type Config struct {
	CardRoad       int // cardinality of the Road hypothesis
	CardVehicle    int // cardinality of the Vehicle hypothesis
	CardBackground int // cardinality of the Background hypothesis
	CardIgnorance  int // cardinality of the ignorance set
}

func DefaultConf() Config {
	c := DefaultCardinalities()
	return Config{
		CardRoad:       c[Road],
		CardVehicle:    c[Vehicle],
		CardBackground: c[Background],
		CardIgnorance:  c[Ignorance],
	}
}

// Cardinalities returns the configured cardinalities in channel order.
func (conf Config) Cardinalities() Cardinalities {
	return Cardinalities{conf.CardRoad, conf.CardVehicle, conf.CardBackground, conf.CardIgnorance}
}

// IsValid reports whether every cardinality yields a nonzero normalizer.
func (conf Config) IsValid() bool {
	for _, c := range conf.Cardinalities() {
		if c < 1 {
			return false
		}
	}
	return true
}
