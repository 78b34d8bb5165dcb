package typing

import (
	"fmt"
	"strconv"

	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/legality"
	"github.com/danielpatrickdp/ludics-engine/internal/locus"
	"github.com/danielpatrickdp/ludics-engine/internal/stepper"
)

// #region suite
// suite is a test formula over counter-designs: a leaf is one counter-design
// (as its acts), all needs every child to pass, any needs one. A leaf that
// ends on a base type also names the atom the design must play there.
type suite struct {
	leaf []design.Act
	atom *atom
	all  []*suite
	any  []*suite
}

// atom is the base name expected from the design at locus.
type atom struct {
	locus string
	name  string
}

func (s *suite) leaves() int {
	if s.all == nil && s.any == nil {
		return 1
	}
	n := 0
	for _, c := range append(append([]*suite(nil), s.all...), s.any...) {
		n += c.leaves()
	}
	return n
}

// prefixed returns a copy of s with acts added to every leaf.
func (s *suite) prefixed(acts ...design.Act) *suite {
	if s.all == nil && s.any == nil {
		leaf := append(append([]design.Act(nil), acts...), s.leaf...)
		return &suite{leaf: leaf, atom: s.atom}
	}
	out := &suite{}
	for _, c := range s.all {
		out.all = append(out.all, c.prefixed(acts...))
	}
	for _, c := range s.any {
		out.any = append(out.any, c.prefixed(acts...))
	}
	return out
}

// opened returns the addresses the design opens at at, or the canonical
// children at.1 .. at.n when it has no act there or opens fewer than n.
func opened(d *design.Design, at string, n int) []string {
	if a, ok := d.At(at); ok && !a.IsDaimon() && len(a.Ramification) >= n {
		return a.Ramification
	}
	out := make([]string, n)
	for i := range out {
		out[i] = locus.Child(at, i+1)
	}
	return out
}

// tests builds the counter-designs of the dual of t at address at. The
// components are located at the addresses d opens there.
func tests(d *design.Design, t *Type, at string, pol design.Polarity) *suite {
	ack := design.Act{Locus: at, Polarity: pol, Kind: design.Proper, Expression: "ack"}
	probe := func(x string) design.Act {
		return design.Act{Locus: x, Polarity: pol, Kind: design.Proper, Expression: "probe", Ramification: []string{locus.Child(x, 1)}}
	}
	switch t.Kind {
	case KindUnit:
		return &suite{leaf: []design.Act{ack}}
	case KindBase:
		s := &suite{leaf: []design.Act{{Locus: at, Polarity: pol, Kind: design.Daimon}}}
		if t.Name != "" {
			s.atom = &atom{locus: at, name: t.Name}
		}
		return s
	case KindProduct:
		ram := opened(d, at, 2)
		a, b := ram[0], ram[1]
		return &suite{all: []*suite{
			tests(d, t.Left, locus.Child(a, 1), pol).prefixed(ack, probe(a)),
			tests(d, t.Right, locus.Child(b, 1), pol).prefixed(ack, probe(b)),
		}}
	case KindSum:
		x := opened(d, at, 1)[0]
		return &suite{any: []*suite{
			tests(d, t.Left, locus.Child(x, 1), pol).prefixed(ack, probe(x)),
			tests(d, t.Right, locus.Child(x, 1), pol).prefixed(ack, probe(x)),
		}}
	case KindArrow:
		ram := opened(d, at, 2)
		if len(ram) != 2 {
			ram = []string{locus.Child(at, 1), locus.Child(at, 2)}
		}
		c := ram[1]
		return tests(d, t.Right, locus.Child(c, 1), pol).prefixed(ack, probe(c))
	}
	return &suite{leaf: nil}
}

// #endregion suite

// #region orthogonality
// Orthogonality plays the design against every counter-design of the dual
// type and requires each play to converge legally. It is skipped when the
// suite exceeds cfg.MaxCounterDesigns.
func Orthogonality(d *design.Design, t *Type, cfg Config) MethodAnalysis {
	out := MethodAnalysis{Method: MethodOrthogonality}
	if !d.Polarity.Valid() {
		out.Failures = append(out.Failures, fmt.Sprintf("design polarity %s", d.Polarity))
		return out
	}
	s := tests(d, t, locus.Root, d.Polarity.Opposite())
	if n := s.leaves(); cfg.MaxCounterDesigns > 0 && n > cfg.MaxCounterDesigns {
		out.Skipped = true
		out.Failures = append(out.Failures,
			fmt.Sprintf("%d counter-designs exceed the budget of %d", n, cfg.MaxCounterDesigns))
		return out
	}

	r := &runner{d: d, t: t, cfg: cfg}
	out.Holds = r.eval(s)
	out.Checked, out.Satisfied, out.Failures = r.checked, r.satisfied, r.failures
	out.Confidence = ratio(r.satisfied, r.checked)
	return out
}

type runner struct {
	d         *design.Design
	t         *Type
	cfg       Config
	checked   int
	satisfied int
	failures  []string
}

func (r *runner) eval(s *suite) bool {
	switch {
	case s.all != nil:
		ok := true
		for _, c := range s.all {
			if !r.eval(c) {
				ok = false
			}
		}
		return ok
	case s.any != nil:
		ok := false
		for _, c := range s.any {
			if r.eval(c) {
				ok = true
			}
		}
		return ok
	}
	return r.run(s.leaf, s.atom)
}

// run plays one counter-design against the design, which drives first. When
// want is set the design's act at want.locus must carry want.name.
func (r *runner) run(acts []design.Act, want *atom) bool {
	r.checked++
	n := r.checked
	counterID := dispute.DeriveID("counter", r.d.ID, r.t.String(), strconv.Itoa(n))
	stamped := make([]design.Act, len(acts))
	for i, a := range acts {
		a.ID = fmt.Sprintf("t%d@%s", n, a.Locus)
		a.Position = i
		stamped[i] = a
	}
	counter := design.New(counterID, r.d.DeliberationID, r.d.Polarity.Opposite(), stamped)

	cfg := r.cfg.Stepper
	cfg.StartPhase = r.d.Polarity
	var pos, neg stepper.Source = stepper.DesignSource{Design: r.d}, stepper.DesignSource{Design: counter}
	if r.d.Polarity == design.Negative {
		pos, neg = neg, pos
	}
	play := stepper.Run(pos, neg, cfg)

	if play.Status != dispute.StatusConvergent {
		r.failures = append(r.failures, fmt.Sprintf("test %d: %s (%s)", n, play.Status, play.Reason))
		return false
	}
	if rep := legality.Check(play, legality.Config{Window: r.cfg.Window}); !rep.IsLegal() {
		r.failures = append(r.failures, fmt.Sprintf("test %d: illegal play, failed %v", n, rep.Failed()))
		return false
	}
	if want != nil {
		a, ok := r.d.At(want.locus)
		switch {
		case !ok || a.IsDaimon():
			r.failures = append(r.failures, fmt.Sprintf("test %d: expected %q at %s, found no atom", n, want.name, want.locus))
			return false
		case a.Expression != want.name:
			r.failures = append(r.failures, fmt.Sprintf("test %d: expected %q at %s, found %q", n, want.name, want.locus, a.Expression))
			return false
		}
	}
	r.satisfied++
	return true
}

// #endregion orthogonality
