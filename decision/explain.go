package decision

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/awalterschulze/gographviz"
)

type explainedHypothesis struct {
	Hypothesis
	Mass        float64
	Cardinality int
	Distance    float64
	Decided     bool
}

// Explain renders the decision for a single belief assignment as a Graphviz DOT graph: the
// observed masses point to every hypothesis, and each edge is labelled with the distance.
func Explain(b Belief, cards Cardinalities) string {
	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		panic(err)
	}
	g.SetDir(true)

	distances := b.Distances(cards)
	decided := decide(distances)

	var buf bytes.Buffer
	beliefTmpl.Execute(&buf, b)
	g.AddNode("G", "Belief", map[string]string{
		"fontname": "Monaco",
		"shape":    "none",
		"label":    buf.String(),
	})

	for _, h := range Hypotheses {
		buf.Reset()
		hypTmpl.Execute(&buf, explainedHypothesis{
			Hypothesis:  h,
			Mass:        b[h],
			Cardinality: cards[h],
			Distance:    distances[h],
			Decided:     decided[h],
		})
		attrs := map[string]string{
			"fontname": "Monaco",
			"shape":    "none",
			"label":    buf.String(),
		}
		if decided[h] {
			attrs["penwidth"] = "3"
		}
		g.AddNode("G", h.String(), attrs)
		g.AddEdge("Belief", h.String(), true, map[string]string{
			"label": fmt.Sprintf("%q", fmt.Sprintf("%.4f", distances[h])),
		})
	}
	return g.String()
}

const beliefTmplRaw = `<
<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0">
<TR><TD>m(Road)</TD><TD>{{index . 0}}</TD></TR>
<TR><TD>m(Vehicle)</TD><TD>{{index . 1}}</TD></TR>
<TR><TD>m(Background)</TD><TD>{{index . 2}}</TD></TR>
<TR><TD>m(Ignorance)</TD><TD>{{index . 3}}</TD></TR>
</TABLE>
>
`

const hypTmplRaw = `<
<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0">
<TR><TD>Hypothesis</TD><TD>{{.Hypothesis}}</TD></TR>
<TR><TD>Mass</TD><TD>{{.Mass}}</TD></TR>
<TR><TD>Cardinality</TD><TD>{{.Cardinality}}</TD></TR>
<TR><TD>Distance</TD><TD>{{printf "%.6f" .Distance}}</TD></TR>
<TR><TD>Decided</TD><TD>{{.Decided}}</TD></TR>
</TABLE>
>
`

var beliefTmpl, hypTmpl *template.Template

func init() {
	beliefTmpl = template.Must(template.New("belief").Parse(beliefTmplRaw))
	hypTmpl = template.Must(template.New("hypothesis").Parse(hypTmplRaw))
}
