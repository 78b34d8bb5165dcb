package legality

import (
	"fmt"

	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/locus"
)

// #region check
// Check evaluates the four predicates independently over the play's pairs.
func Check(play *dispute.Play, cfg Config) Report {
	r := Report{IsLinear: true, IsParity: true, IsJustified: true, IsVisible: true}
	if play == nil || len(play.Pairs) == 0 {
		return r
	}
	start := play.StartLocus
	if start == "" {
		start = locus.Root
	}
	window := cfg.Window
	if window < 0 {
		window = 0
	}

	fail := func(p Predicate, i int, reason string) {
		r.Violations = append(r.Violations, Violation{
			Predicate: p, PairIndex: i, Locus: play.Pairs[i].Locus, Reason: reason,
		})
		switch p {
		case PredicateLinearity:
			r.IsLinear = false
		case PredicateParity:
			r.IsParity = false
		case PredicateJustification:
			r.IsJustified = false
		case PredicateVisibility:
			r.IsVisible = false
		}
	}

	firstAt := make(map[string]int, len(play.Pairs))
	for i, p := range play.Pairs {
		// linearity
		if prev, dup := firstAt[p.Locus]; dup {
			fail(PredicateLinearity, i, fmt.Sprintf("locus %s already used by pair %d", p.Locus, prev))
		} else {
			firstAt[p.Locus] = i
		}

		// parity
		if i > 0 && p.Actor == play.Pairs[i-1].Actor {
			fail(PredicateParity, i, fmt.Sprintf("pairs %d and %d both driven by %s", i-1, i, p.Actor))
		}

		// justification
		parent := locus.ParentPath(p.Locus)
		if i == 0 {
			if p.Locus != start && p.Locus != locus.Root {
				fail(PredicateJustification, i, fmt.Sprintf("first pair at %s, expected %s", p.Locus, start))
			}
		} else if !justifiedBy(play.Pairs[:i], parent) {
			fail(PredicateJustification, i, fmt.Sprintf("parent %s not opened by an earlier pair", displayPath(parent)))
		}

		// visibility
		if i > 0 && !visible(play.Pairs[:i], p, parent, window) {
			fail(PredicateVisibility, i,
				fmt.Sprintf("%s cannot see %s (window %d)", p.Actor, displayPath(parent), window))
		}
	}
	return r
}

// #endregion check

// #region helpers
func justifiedBy(earlier []dispute.Pair, parent string) bool {
	if parent == "" {
		return false
	}
	for _, e := range earlier {
		if e.Locus == parent {
			return true
		}
	}
	return false
}

// visible reports whether parent is the locus of one of the actor's own
// earlier pairs or of one of the last window opponent pairs.
func visible(earlier []dispute.Pair, p dispute.Pair, parent string, window int) bool {
	seenOpponent := 0
	for j := len(earlier) - 1; j >= 0; j-- {
		e := earlier[j]
		if e.Actor == p.Actor {
			if e.Locus == parent {
				return true
			}
			continue
		}
		if seenOpponent < window && e.Locus == parent {
			return true
		}
		seenOpponent++
	}
	return false
}

func displayPath(p string) string {
	if p == "" {
		return "(none)"
	}
	return p
}

// #endregion helpers
