package typing

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/locus"
)

// #region check
// Check decides whether d inhabits t using the selected method. The design
// is expected to drive at the root.
func Check(d *design.Design, t *Type, method Method, cfg Config) (Result, error) {
	if t == nil {
		return Result{}, ErrNilType
	}
	if d == nil {
		return Result{}, fmt.Errorf("check type: nil design")
	}
	res := Result{Type: t.String(), Method: method, AnalysisByMethod: make(map[Method]MethodAnalysis)}

	switch method {
	case MethodStructural:
		a := Structural(d, t)
		res.AnalysisByMethod[method] = a
		res.IsValid, res.Confidence = a.Holds, a.Confidence
	case MethodInference:
		a := Inference(d, t)
		res.AnalysisByMethod[method] = a
		res.IsValid, res.Confidence = a.Holds, a.Confidence
	case MethodOrthogonality:
		a := Orthogonality(d, t, cfg)
		res.AnalysisByMethod[method] = a
		res.IsValid, res.Confidence = a.Holds, a.Confidence
	case MethodCombined:
		s, i, o := Structural(d, t), Inference(d, t), Orthogonality(d, t, cfg)
		res.AnalysisByMethod[MethodStructural] = s
		res.AnalysisByMethod[MethodInference] = i
		res.AnalysisByMethod[MethodOrthogonality] = o
		res.IsValid, res.Confidence = combine(s, i, o, cfg)
	default:
		return Result{}, fmt.Errorf("%q: %w", method, ErrUnknownMethod)
	}
	return res, nil
}

// combine requires structural and inference to agree and hold; orthogonality
// only scales the confidence.
func combine(s, i, o MethodAnalysis, cfg Config) (bool, float64) {
	base := math.Min(s.Confidence, i.Confidence)
	factor := cfg.SkippedFactor
	if !o.Skipped && o.Checked > 0 {
		factor = 0.5 + 0.5*float64(o.Satisfied)/float64(o.Checked)
	}
	valid := s.Holds && i.Holds
	return valid, clamp(base * factor)
}

func clamp(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}

func ratio(satisfied, checked int) float64 {
	if checked == 0 {
		return 0
	}
	return float64(satisfied) / float64(checked)
}

// #endregion check

// #region structural
// tally accumulates obligation counts along one walk.
type tally struct {
	checked, satisfied int
	failures           []string
}

func (t *tally) add(o tally) {
	t.checked += o.checked
	t.satisfied += o.satisfied
	t.failures = append(t.failures, o.failures...)
}

// Structural walks the design along ramification links and checks the
// obligations the type imposes at each position.
func Structural(d *design.Design, t *Type) MethodAnalysis {
	ok, tl := positive(d, t, locus.Root)
	return MethodAnalysis{
		Method:     MethodStructural,
		Holds:      ok,
		Checked:    tl.checked,
		Satisfied:  tl.satisfied,
		Confidence: ratio(tl.satisfied, tl.checked),
		Failures:   tl.failures,
	}
}

// positive checks that the design's own act at at has the shape of t.
func positive(d *design.Design, t *Type, at string) (bool, tally) {
	tl := tally{checked: 1}
	fail := func(format string, args ...any) (bool, tally) {
		tl.failures = append(tl.failures, fmt.Sprintf("%s at %s: ", t, at)+fmt.Sprintf(format, args...))
		return false, tl
	}
	a, ok := d.At(at)
	if !ok {
		return fail("no act")
	}

	switch t.Kind {
	case KindUnit:
		if !a.IsDaimon() {
			return fail("expected daimon, found %s", a.Kind)
		}
		tl.satisfied++
		return true, tl

	case KindBase:
		if a.IsDaimon() {
			return fail("expected proper act, found daimon")
		}
		if t.Name != "" && a.Expression != t.Name {
			return fail("expected %q, found %q", t.Name, a.Expression)
		}
		if len(a.Ramification) != 0 {
			return fail("base act opens %d addresses", len(a.Ramification))
		}
		tl.satisfied++
		return true, tl

	case KindProduct:
		if a.IsDaimon() || len(a.Ramification) < 2 {
			return fail("expected proper act opening two addresses, found %s opening %d", a.Kind, len(a.Ramification))
		}
		tl.satisfied++
		lok, l := negative(d, t.Left, a.Ramification[0])
		rok, r := negative(d, t.Right, a.Ramification[1])
		tl.add(l)
		tl.add(r)
		return lok && rok, tl

	case KindSum:
		if a.IsDaimon() || len(a.Ramification) != 1 {
			return fail("expected proper act opening one address, found %s opening %d", a.Kind, len(a.Ramification))
		}
		tl.satisfied++
		x := a.Ramification[0]
		lok, l := negative(d, t.Left, x)
		if lok {
			tl.add(l)
			return true, tl
		}
		rok, r := negative(d, t.Right, x)
		if rok {
			tl.add(r)
			return true, tl
		}
		// Neither summand fits; report the closer attempt.
		if ratio(l.satisfied, l.checked) >= ratio(r.satisfied, r.checked) {
			tl.add(l)
		} else {
			tl.add(r)
		}
		tl.failures = append(tl.failures, fmt.Sprintf("%s at %s: neither summand holds at %s", t, at, x))
		return false, tl

	case KindArrow:
		if a.IsDaimon() || len(a.Ramification) != 2 {
			return fail("expected proper act opening domain and codomain, found %s opening %d", a.Kind, len(a.Ramification))
		}
		dom, cod := a.Ramification[0], a.Ramification[1]
		if _, own := d.At(dom); own {
			return fail("domain %s must be left to the opponent", dom)
		}
		tl.satisfied++
		cok, c := negative(d, t.Right, cod)
		tl.add(c)
		return cok, tl
	}
	return fail("unsupported constructor")
}

// negative checks that the design answers the opponent at x and then
// continues with t one level down.
func negative(d *design.Design, t *Type, x string) (bool, tally) {
	tl := tally{checked: 1}
	if _, ok := d.At(x); !ok {
		tl.failures = append(tl.failures, fmt.Sprintf("%s: no reply at %s", t, x))
		return false, tl
	}
	tl.satisfied++
	ok, sub := positive(d, t, locus.Child(x, 1))
	tl.add(sub)
	return ok, tl
}

// #endregion structural

// #region inference
// Infer synthesises the type of the design from its re-rooted sub-designs.
// Positions the design leaves open become holes; missing replies become nil.
func Infer(d *design.Design) *Type {
	a, ok := d.Root()
	if !ok {
		return nil
	}
	if a.IsDaimon() {
		return Unit()
	}
	switch ram := a.Ramification; {
	case len(ram) == 0:
		return Base(a.Expression)
	case len(ram) == 1:
		return Sum(inferAt(d, ram[0]), hole())
	default:
		if _, own := d.At(ram[0]); !own && len(ram) == 2 {
			return Arrow(hole(), inferAt(d, ram[1]))
		}
		return Product(inferAt(d, ram[0]), inferAt(d, ram[1]))
	}
}

func inferAt(d *design.Design, x string) *Type {
	if _, ok := d.At(x); !ok {
		return nil
	}
	return Infer(d.Subdesign(locus.Child(x, 1)))
}

// Inference infers the design's type and matches it against t constructor
// by constructor; every constructor must match.
func Inference(d *design.Design, t *Type) MethodAnalysis {
	inferred := Infer(d)
	var tl tally
	ok := match(inferred, t, &tl)
	return MethodAnalysis{
		Method:     MethodInference,
		Holds:      ok,
		Checked:    tl.checked,
		Satisfied:  tl.satisfied,
		Confidence: ratio(tl.satisfied, tl.checked),
		Inferred:   inferred.String(),
		Failures:   tl.failures,
	}
}

func match(got, want *Type, tl *tally) bool {
	tl.checked++
	fail := func(reason string) bool {
		tl.failures = append(tl.failures, fmt.Sprintf("inferred %s against %s: %s", got, want, reason))
		return false
	}
	if got == nil {
		return fail("design has no act here")
	}
	switch want.Kind {
	case KindUnit:
		if got.Kind != KindUnit {
			return fail("constructor mismatch")
		}
		tl.satisfied++
		return true
	case KindBase:
		if got.Kind != KindBase || (want.Name != "" && got.Name != want.Name) {
			return fail("constructor or name mismatch")
		}
		tl.satisfied++
		return true
	case KindProduct:
		if got.Kind != KindProduct {
			return fail("constructor mismatch")
		}
		tl.satisfied++
		l := match(got.Left, want.Left, tl)
		r := match(got.Right, want.Right, tl)
		return l && r
	case KindSum:
		if got.Kind != KindSum {
			return fail("constructor mismatch")
		}
		tl.satisfied++
		var left, right tally
		if match(got.Left, want.Left, &left) {
			tl.add(left)
			return true
		}
		if match(got.Left, want.Right, &right) {
			tl.add(right)
			return true
		}
		tl.add(left)
		return fail("no summand matches")
	case KindArrow:
		if got.Kind != KindArrow {
			return fail("constructor mismatch")
		}
		tl.satisfied++
		return match(got.Right, want.Right, tl)
	}
	return fail("unsupported constructor")
}

// #endregion inference
