package typing

import (
	"errors"
	"testing"

	"github.com/danielpatrickdp/ludics-engine/internal/design"
)

// #region helpers
const P = design.Positive

func act(id, loc, expr string, pos int, ram ...string) design.Act {
	return design.Act{ID: id, Locus: loc, Polarity: P, Kind: design.Proper, Expression: expr, Ramification: ram, Position: pos}
}

func dai(id, loc string, pos int) design.Act {
	return design.Act{ID: id, Locus: loc, Polarity: P, Kind: design.Daimon, Position: pos}
}

// pairDesign inhabits x * unit.
func pairDesign() *design.Design {
	return design.New("pair", "delib", P, []design.Act{
		act("a0", "0", "pair", 0, "0.1", "0.2"),
		act("a1", "0.1", "r", 1),
		act("a2", "0.1.1", "x", 2),
		act("a3", "0.2", "r", 3),
		dai("a4", "0.2.1", 4),
	})
}

// fnDesign inhabits A -> unit for any A.
func fnDesign() *design.Design {
	return design.New("fn", "delib", P, []design.Act{
		act("f0", "0", "lambda", 0, "0.1", "0.2"),
		act("f1", "0.2", "r", 1),
		dai("f2", "0.2.1", 2),
	})
}

// #endregion helpers

// #region parser-tests
func TestParsePrecedence(t *testing.T) {
	cases := []struct {
		in   string
		want *Type
	}{
		{"unit", Unit()},
		{"nat", Base("nat")},
		{"_", Base("")},
		{"a * b + c", Sum(Product(Base("a"), Base("b")), Base("c"))},
		{"a + b * c", Sum(Base("a"), Product(Base("b"), Base("c")))},
		{"a -> b -> c", Arrow(Base("a"), Arrow(Base("b"), Base("c")))},
		{"(a -> b) -> c", Arrow(Arrow(Base("a"), Base("b")), Base("c"))},
		{"a + b -> unit", Arrow(Sum(Base("a"), Base("b")), Unit())},
		{"a * (b + c)", Product(Base("a"), Sum(Base("b"), Base("c")))},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if !Equal(got, tc.want) {
			t.Fatalf("Parse(%q) = %s, want %s", tc.in, got, tc.want)
		}
		back, err := Parse(got.String())
		if err != nil || !Equal(back, got) {
			t.Fatalf("round trip of %q via %q failed", tc.in, got.String())
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "a *", "(a", "a b", "a - b", "->"} {
		if _, err := Parse(in); !errors.Is(err, ErrSyntax) {
			t.Fatalf("Parse(%q): expected ErrSyntax, got %v", in, err)
		}
	}
}

// #endregion parser-tests

// #region method-tests
func TestStructuralProduct(t *testing.T) {
	a := Structural(pairDesign(), MustParse("x * unit"))
	if !a.Holds || a.Confidence != 1 {
		t.Fatalf("expected hold with confidence 1, got %+v", a)
	}
	b := Structural(pairDesign(), MustParse("y * unit"))
	if b.Holds || b.Confidence >= 1 || len(b.Failures) == 0 {
		t.Fatalf("wrong base name should fail with diagnostics, got %+v", b)
	}
}

func TestInferenceMatchesStructural(t *testing.T) {
	d := pairDesign()
	if got := Infer(d); !Equal(got, Product(Base("x"), Unit())) {
		t.Fatalf("Infer = %s", got)
	}
	for _, src := range []string{"x * unit", "_ * unit", "x * x", "unit", "x -> unit", "x + unit"} {
		ty := MustParse(src)
		s, i := Structural(d, ty), Inference(d, ty)
		if s.Holds != i.Holds {
			t.Fatalf("%s: structural %v disagrees with inference %v", src, s.Holds, i.Holds)
		}
	}
}

func TestArrowLeavesDomainToOpponent(t *testing.T) {
	d := fnDesign()
	ty := MustParse("nat -> unit")
	if a := Structural(d, ty); !a.Holds {
		t.Fatalf("structural: %+v", a)
	}
	if a := Inference(d, ty); !a.Holds || a.Inferred != "? -> unit" {
		t.Fatalf("inference: %+v", a)
	}
	// Playing at the domain makes it a product-shaped design.
	withDomain := design.New("fn2", "delib", P, append(d.Acts, act("f3", "0.1", "own", 3)))
	if a := Structural(withDomain, ty); a.Holds {
		t.Fatal("own act at the domain must break the arrow shape")
	}
}

func TestSumAcceptsEitherSummand(t *testing.T) {
	d := design.New("inl", "delib", P, []design.Act{
		act("s0", "0", "inl", 0, "0.1"),
		act("s1", "0.1", "r", 1),
		act("s2", "0.1.1", "nat", 2),
	})
	for _, src := range []string{"nat + unit", "unit + nat"} {
		ty := MustParse(src)
		if a := Structural(d, ty); !a.Holds {
			t.Fatalf("%s structural: %+v", src, a)
		}
		if a := Inference(d, ty); !a.Holds {
			t.Fatalf("%s inference: %+v", src, a)
		}
	}
	if a := Structural(d, MustParse("bool + unit")); a.Holds {
		t.Fatal("no summand matches nat")
	}
}

func TestOrthogonalityConverges(t *testing.T) {
	cfg := DefaultConfig()
	for _, tc := range []struct {
		d  *design.Design
		ty string
	}{
		{pairDesign(), "x * unit"},
		{fnDesign(), "nat -> unit"},
		{design.New("u", "delib", P, []design.Act{dai("u0", "0", 0)}), "unit"},
	} {
		a := Orthogonality(tc.d, MustParse(tc.ty), cfg)
		if !a.Holds || a.Skipped || a.Checked == 0 || a.Satisfied != a.Checked {
			t.Fatalf("%s: expected every counter-design to converge, got %+v", tc.ty, a)
		}
	}
}

func TestOrthogonalityFailsOnMissingBranch(t *testing.T) {
	d := design.New("half", "delib", P, []design.Act{
		act("h0", "0", "pair", 0, "0.1", "0.2"),
		act("h1", "0.1", "r", 1),
		act("h2", "0.1.1", "x", 2),
	})
	a := Orthogonality(d, MustParse("x * unit"), DefaultConfig())
	if a.Holds || a.Satisfied != 1 || a.Checked != 2 {
		t.Fatalf("expected one of two tests to pass, got %+v", a)
	}
}

func TestOrthogonalityChecksBaseName(t *testing.T) {
	a := Orthogonality(pairDesign(), MustParse("y * unit"), DefaultConfig())
	if a.Holds || a.Checked != 2 || a.Satisfied != 1 {
		t.Fatalf("expected the x atom to fail against y, got %+v", a)
	}
	res, err := Check(pairDesign(), MustParse("y * unit"), MethodOrthogonality, DefaultConfig())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.IsValid || res.Confidence == 1 {
		t.Fatalf("expected invalid y * unit, got %+v", res)
	}

	// An unnamed base accepts any atom.
	if a := Orthogonality(pairDesign(), Product(Base(""), Unit()), DefaultConfig()); !a.Holds {
		t.Fatalf("expected unnamed base to hold, got %+v", a)
	}
}

func TestMethodsAgreeOnNonCanonicalAddresses(t *testing.T) {
	d := design.New("spread", "delib", P, []design.Act{
		act("s0", "0", "pair", 0, "0.3", "0.4"),
		act("s1", "0.3", "r", 1),
		act("s2", "0.3.1", "x", 2),
		act("s3", "0.4", "r", 3),
		dai("s4", "0.4.1", 4),
	})
	if vs := d.Validate(); len(vs) != 0 {
		t.Fatalf("expected a well-formed design, got %v", vs)
	}
	ty := MustParse("x * unit")
	for _, a := range []MethodAnalysis{Structural(d, ty), Inference(d, ty), Orthogonality(d, ty, DefaultConfig())} {
		if !a.Holds {
			t.Fatalf("%s: expected x * unit to hold at 0.3/0.4, got %+v", a.Method, a)
		}
	}
	if a := Orthogonality(d, MustParse("y * unit"), DefaultConfig()); a.Holds {
		t.Fatalf("expected y * unit to fail at 0.3/0.4, got %+v", a)
	}

	fn := design.New("fn7", "delib", P, []design.Act{
		act("g0", "0", "lambda", 0, "0.5", "0.7"),
		act("g1", "0.7", "r", 1),
		dai("g2", "0.7.1", 2),
	})
	if a := Orthogonality(fn, MustParse("nat -> unit"), DefaultConfig()); !a.Holds {
		t.Fatalf("expected arrow codomain at 0.7 to converge, got %+v", a)
	}
}

func TestOrthogonalitySkippedOverBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCounterDesigns = 1
	a := Orthogonality(pairDesign(), MustParse("x * unit"), cfg)
	if !a.Skipped || a.Holds {
		t.Fatalf("expected skipped, got %+v", a)
	}
}

// #endregion method-tests

// #region check-tests
func TestCheckCombined(t *testing.T) {
	res, err := Check(pairDesign(), MustParse("x * unit"), MethodCombined, DefaultConfig())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.IsValid || res.Confidence != 1 {
		t.Fatalf("expected valid with full confidence, got %+v", res)
	}
	if len(res.AnalysisByMethod) != 3 {
		t.Fatalf("expected three method analyses, got %d", len(res.AnalysisByMethod))
	}

	cfg := DefaultConfig()
	cfg.MaxCounterDesigns = 1
	skipped, err := Check(pairDesign(), MustParse("x * unit"), MethodCombined, cfg)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !skipped.IsValid || skipped.Confidence != cfg.SkippedFactor {
		t.Fatalf("expected skipped factor %.2f, got %+v", cfg.SkippedFactor, skipped)
	}
}

func TestCombinedMonotonicity(t *testing.T) {
	designs := []*design.Design{pairDesign(), fnDesign()}
	types := []string{"x * unit", "y * unit", "nat -> unit", "unit", "x + unit", "_ * _", "x * unit * unit"}
	for _, d := range designs {
		for _, src := range types {
			ty := MustParse(src)
			s, _ := Check(d, ty, MethodStructural, DefaultConfig())
			i, _ := Check(d, ty, MethodInference, DefaultConfig())
			c, _ := Check(d, ty, MethodCombined, DefaultConfig())
			if (!s.IsValid || !i.IsValid) && c.Confidence > min(s.Confidence, i.Confidence) {
				t.Fatalf("%s on %s: combined %.3f exceeds min(%.3f, %.3f)",
					src, d.ID, c.Confidence, s.Confidence, i.Confidence)
			}
			if c.IsValid && (!s.IsValid || !i.IsValid) {
				t.Fatalf("%s on %s: combined valid while a precondition fails", src, d.ID)
			}
		}
	}
}

func TestCheckErrors(t *testing.T) {
	if _, err := Check(pairDesign(), nil, MethodStructural, DefaultConfig()); !errors.Is(err, ErrNilType) {
		t.Fatalf("expected ErrNilType, got %v", err)
	}
	if _, err := Check(pairDesign(), Unit(), Method("guess"), DefaultConfig()); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
	if _, err := ParseMethod("combined"); err != nil {
		t.Fatalf("ParseMethod(combined): %v", err)
	}
}

// #endregion check-tests
