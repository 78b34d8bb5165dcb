package propagation

import (
	"testing"

	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/stepper"
	"github.com/danielpatrickdp/ludics-engine/internal/strategy"
)

// #region helpers
const (
	P = design.Positive
	O = design.Negative
)

func mv(pol design.Polarity, loc, expr string, ram ...string) dispute.Move {
	return dispute.Move{Polarity: pol, ActID: expr + "@" + loc, Locus: loc, Kind: design.Proper, Expression: expr, Ramification: ram}
}

func strat(chronicles ...[]dispute.Move) *strategy.Strategy {
	s := &strategy.Strategy{ID: "s", DesignID: "P", Player: P, Window: 1}
	for i, moves := range chronicles {
		s.Chronicles = append(s.Chronicles, strategy.Chronicle{
			ID: string(rune('a' + i)), Player: P, Moves: moves,
		})
	}
	return s
}

func count(r Report, typ ViolationType) int {
	n := 0
	for _, v := range r.Violations {
		if v.Type == typ {
			n++
		}
	}
	return n
}

// #endregion helpers

func TestSteppedStrategyPropagates(t *testing.T) {
	pos := design.New("P", "delib", P, []design.Act{
		{ID: "p0", Locus: "0", Polarity: P, Kind: design.Proper, Expression: "claim", Ramification: []string{"0.1", "0.2"}, Position: 0},
		{ID: "p1", Locus: "0.1", Polarity: P, Kind: design.Proper, Expression: "grant", Position: 1},
		{ID: "p2", Locus: "0.2", Polarity: P, Kind: design.Proper, Expression: "grant", Position: 2},
		{ID: "p3", Locus: "0.1.1", Polarity: P, Kind: design.Daimon, Position: 3},
		{ID: "p4", Locus: "0.2.1", Polarity: P, Kind: design.Daimon, Position: 4},
	})
	var ps []*dispute.Play
	for _, branch := range []string{"0.1", "0.2"} {
		neg := design.New("O"+branch, "delib", O, []design.Act{
			{ID: "o0", Locus: "0", Polarity: O, Kind: design.Proper, Expression: "ack", Position: 0},
			{ID: "o1", Locus: branch, Polarity: O, Kind: design.Proper, Expression: "why", Ramification: []string{branch + ".1"}, Position: 1},
		})
		ps = append(ps, stepper.Step(pos, neg, P, 0))
	}
	s, err := strategy.Extract(pos, P, ps, strategy.DefaultConfig())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	for _, mode := range []Mode{ModeFull, ModeLight} {
		r := Check(s, mode, true)
		if !r.SatisfiesPropagation || !r.SatisfiesSliceLinearity || !r.SatisfiesPairPropagation {
			t.Fatalf("%s: expected propagation, got %+v", mode, r.Violations)
		}
	}
}

func TestSliceLinearityConflict(t *testing.T) {
	s := strat(
		[]dispute.Move{mv(P, "0", "a", "0.1")},
		[]dispute.Move{mv(P, "0", "a", "0.2")},
	)
	r := Check(s, ModeFull, false)
	if r.SatisfiesSliceLinearity || r.SatisfiesPropagation {
		t.Fatal("different ramification after the same prefix must break slice linearity")
	}
	if !r.SatisfiesPairPropagation {
		t.Fatal("same continuation locus keeps pair propagation")
	}
	if count(r, ViolationSliceLinearity) != 1 {
		t.Fatalf("expected one violation, got %+v", r.Violations)
	}
	v := r.Violations[0]
	if v.ChronicleA != "a" || v.ChronicleB != "b" || v.Prefix != "[]" {
		t.Fatalf("unexpected violation %+v", v)
	}
}

func TestPairPropagationConflict(t *testing.T) {
	s := strat(
		[]dispute.Move{mv(P, "0", "a", "0.1"), mv(O, "0.1", "x", "0.1.1", "0.1.2"), mv(P, "0.1.1", "b")},
		[]dispute.Move{mv(P, "0", "a", "0.1"), mv(O, "0.1", "y", "0.1.1", "0.1.2"), mv(P, "0.1.2", "c")},
	)
	r := Check(s, ModeLight, false)
	if r.SatisfiesPairPropagation {
		t.Fatal("same locus trace continuing at different loci must break pair propagation")
	}
	if !r.SatisfiesSliceLinearity {
		t.Fatalf("views differ after x vs y, slice linearity should hold: %+v", r.Violations)
	}
}

func TestModesAgreeOnBooleans(t *testing.T) {
	s := strat(
		[]dispute.Move{mv(P, "0", "a", "0.1")},
		[]dispute.Move{mv(P, "0", "a", "0.2")},
		[]dispute.Move{mv(P, "0", "a", "0.3")},
	)
	full := Check(s, ModeFull, false)
	light := Check(s, ModeLight, false)

	if full.SatisfiesSliceLinearity != light.SatisfiesSliceLinearity ||
		full.SatisfiesPairPropagation != light.SatisfiesPairPropagation ||
		full.SatisfiesPropagation != light.SatisfiesPropagation {
		t.Fatalf("modes disagree: full=%+v light=%+v", full, light)
	}
	if len(full.Violations) != 3 {
		t.Fatalf("full mode should report every conflicting pair (3), got %d", len(full.Violations))
	}
	if len(light.Violations) != 1 {
		t.Fatalf("light mode should stop at the first conflict, got %d", len(light.Violations))
	}
}

func TestReuseBreaksSliceLinearity(t *testing.T) {
	s := strat(
		[]dispute.Move{mv(P, "0", "a", "0.1"), mv(O, "0.1", "x", "0.1.1"), mv(P, "0.1.1", "b", "0.1"), mv(P, "0.1.1", "c")},
	)
	r := Check(s, ModeLight, false)
	if r.SatisfiesSliceLinearity {
		t.Fatal("opening 0.1 twice and playing twice at 0.1.1 must fail")
	}
	if count(r, ViolationSliceLinearity) < 2 {
		t.Fatalf("expected both reuse violations, got %+v", r.Violations)
	}
}

func TestAnalysisOnlyInFullMode(t *testing.T) {
	s := strat(
		[]dispute.Move{mv(P, "0", "a", "0.1"), mv(O, "0.1", "x")},
		[]dispute.Move{mv(P, "0", "a", "0.1"), mv(O, "0.1", "y"), mv(P, "0.1.1", "z")},
	)
	if r := Check(s, ModeLight, true); r.Analysis != nil {
		t.Fatal("light mode must not build an analysis")
	}
	r := Check(s, ModeFull, true)
	if r.Analysis == nil {
		t.Fatal("expected analysis in full mode")
	}
	a := r.Analysis
	if a.Chronicles != 2 || a.MinDepth != 2 || a.MaxDepth != 3 || a.MeanDepth != 2.5 {
		t.Fatalf("unexpected depth stats %+v", a)
	}
	if len(a.Prefixes) == 0 || a.Prefixes[0].Prefix != "[]" || a.Prefixes[0].Chronicles != 2 || !a.Prefixes[0].Consistent {
		t.Fatalf("unexpected root prefix analysis %+v", a.Prefixes)
	}
}

func TestParseMode(t *testing.T) {
	if ParseMode("full") != ModeFull || ParseMode("light") != ModeLight || ParseMode("") != ModeLight {
		t.Fatal("ParseMode wrong")
	}
}
