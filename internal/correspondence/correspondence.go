package correspondence

import (
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/stepper"
	"github.com/danielpatrickdp/ludics-engine/internal/strategy"
)

// #region check
// Check verifies that s is the strategy of d both structurally and by
// replaying it against every counter-design. Counter-designs must oppose d.
func Check(d *design.Design, s *strategy.Strategy, counters []*design.Design, cfg stepper.Config) (Report, error) {
	if d == nil || s == nil {
		return Report{}, fmt.Errorf("check correspondence: %w", ErrStrategyMismatch)
	}
	if s.DesignID != d.ID || s.Player != d.Polarity {
		return Report{}, fmt.Errorf("strategy %s belongs to %s/%s, not %s/%s: %w",
			s.ID, s.DesignID, s.Player, d.ID, d.Polarity, ErrStrategyMismatch)
	}
	if len(counters) == 0 {
		return Report{}, fmt.Errorf("design %s: %w", d.ID, ErrNoCounterDesigns)
	}
	for _, c := range counters {
		if c == nil {
			return Report{}, fmt.Errorf("design %s: nil counter-design: %w", d.ID, ErrNoCounterDesigns)
		}
		if c.Polarity == d.Polarity {
			return Report{}, fmt.Errorf("counter-design %s is %s: %w", c.ID, c.Polarity, ErrPolarity)
		}
	}

	r := Report{StructuralIsomorphism: structural(d, s)}
	r.AllHold = r.StructuralIsomorphism.Holds
	replayer := s.Source()
	for _, c := range counters {
		b := behavioral(d, replayer, c, cfg)
		r.BehavioralCorrespondence = append(r.BehavioralCorrespondence, b)
		if !b.Holds {
			r.AllHold = false
			r.FailingCounterDesigns = append(r.FailingCounterDesigns, c.ID)
		}
	}
	return r, nil
}

// #endregion check

// #region structural
// structural matches design acts against strategy positions: the locus trace
// of a decision's view ending at the act chosen there.
func structural(d *design.Design, s *strategy.Strategy) Structural {
	out := Structural{MaximalViews: s.MaximalViews()}

	seen := make(map[string]bool)
	perAct := make(map[string]int)
	for _, dec := range s.Decisions() {
		pos := dispute.Render(dec.View, dispute.TraceKey) + " -> " + dispute.TraceKey(dec.Answer)
		if seen[pos] {
			continue
		}
		seen[pos] = true
		out.Positions++

		a, ok := d.ActByID(dec.Answer.ActID)
		if !ok || a.Locus != dec.Answer.Locus || a.Polarity != dec.Answer.Polarity {
			out.UnmatchedPositions = append(out.UnmatchedPositions, pos)
			continue
		}
		perAct[a.ID]++
	}

	for _, a := range d.Acts {
		switch n := perAct[a.ID]; {
		case n == 0:
			out.UnmatchedActs = append(out.UnmatchedActs, a.ID)
		case n > 1:
			out.AmbiguousActs = append(out.AmbiguousActs, a.ID)
		}
	}
	sort.Strings(out.UnmatchedPositions)
	out.Holds = len(out.UnmatchedActs) == 0 && len(out.UnmatchedPositions) == 0 && len(out.AmbiguousActs) == 0
	return out
}

// #endregion structural

// #region behavioral
func behavioral(d *design.Design, replayer *strategy.Replayer, counter *design.Design, cfg stepper.Config) Behavioral {
	var fromDesign, fromStrategy *dispute.Play
	own := stepper.DesignSource{Design: d}
	other := stepper.DesignSource{Design: counter}
	if d.Polarity == design.Positive {
		fromDesign = stepper.Run(own, other, cfg)
		fromStrategy = stepper.Run(replayer, other, cfg)
	} else {
		fromDesign = stepper.Run(other, own, cfg)
		fromStrategy = stepper.Run(other, replayer, cfg)
	}

	diff := cmp.Diff(fromDesign, fromStrategy, cmpopts.EquateEmpty())
	return Behavioral{
		CounterDesignID: counter.ID,
		Holds:           diff == "",
		DesignStatus:    fromDesign.Status,
		StrategyStatus:  fromStrategy.Status,
		DesignPairs:     fromDesign.Length(),
		StrategyPairs:   fromStrategy.Length(),
		Diff:            diff,
	}
}

// #endregion behavioral
