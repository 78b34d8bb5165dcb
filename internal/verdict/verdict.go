package verdict

import (
	"fmt"

	"github.com/danielpatrickdp/ludics-engine/internal/correspondence"
	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/legality"
	"github.com/danielpatrickdp/ludics-engine/internal/propagation"
	"github.com/danielpatrickdp/ludics-engine/internal/strategy"
)

// #region inputs
// Inputs gathers the reports about one design. Nil pointers mean the check
// was not run.
type Inputs struct {
	DesignID       string
	Structural     []design.Violation
	Plays          []legality.Report
	Innocence      *strategy.InnocenceReport
	Propagation    *propagation.Report
	Correspondence *correspondence.Report
}

// #endregion inputs

// #region gate
// Gate folds check reports into a well-formedness decision.
type Gate struct {
	config Config
}

// NewGate creates a gate with the given configuration.
func NewGate(config Config) *Gate {
	return &Gate{config: config}
}

// Evaluate checks hard vetoes first, then scores soft signals.
func (g *Gate) Evaluate(in Inputs) Decision {
	var vetoes []VetoSignal

	// --- Hard veto pass ---

	// 1. Structural defects in the design itself
	if g.config.VetoMalformed && len(in.Structural) > 0 {
		v := in.Structural[0]
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoMalformedDesign,
			Reason: fmt.Sprintf("%d structural defects, first %s at %s: %s", len(in.Structural), v.Type, v.Locus, v.Reason),
		})
	}

	// 2. Any illegal play
	for i, rep := range in.Plays {
		if !rep.IsLegal() {
			vetoes = append(vetoes, VetoSignal{
				Type:   VetoIllegalPlay,
				Reason: fmt.Sprintf("play %d fails %v", i, rep.Failed()),
			})
		}
	}

	// 3. Innocence
	if in.Innocence != nil && !in.Innocence.IsInnocent {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoNotInnocent,
			Reason: fmt.Sprintf("%d innocence violations", in.Innocence.Count(strategy.ViolationInnocence)),
		})
	}

	// 4. Propagation
	if in.Propagation != nil && !in.Propagation.SatisfiesPropagation {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoPropagationFailure,
			Reason: fmt.Sprintf("%d propagation violations (%s mode)", len(in.Propagation.Violations), in.Propagation.Mode),
		})
	}

	// 5. Correspondence
	switch {
	case in.Correspondence != nil && !in.Correspondence.AllHold:
		vetoes = append(vetoes, VetoSignal{
			Type: VetoCorrespondenceFailed,
			Reason: fmt.Sprintf("structural=%v, failing counter-designs %v",
				in.Correspondence.StructuralIsomorphism.Holds, in.Correspondence.FailingCounterDesigns),
		})
	case in.Correspondence == nil && g.config.RequireCorrespondence:
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoCorrespondenceFailed,
			Reason: "correspondence required but not checked",
		})
	}

	if len(vetoes) > 0 {
		return Decision{
			Action:      ActionIllFormed,
			Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
			SoftScore:   0,
		}
	}

	// --- Soft scoring ---
	softScore := computeSoftScore(in)
	reason := fmt.Sprintf("passed gate: soft_score=%.4f", softScore)
	if softScore < g.config.MinSoftScore {
		reason += " (weak)"
	}

	return Decision{
		Action:    ActionWellFormed,
		Reason:    reason,
		SoftScore: softScore,
	}
}

// #endregion gate

// #region helpers
// computeSoftScore produces a 0-1 composite from determinism, view stability
// and saturation. Logged but does not block.
func computeSoftScore(in Inputs) float64 {
	if in.Innocence == nil {
		return 0.5 // neutral when no strategy was checked
	}
	var score float64

	// Determinism (weight 0.4)
	if in.Innocence.IsDeterministic {
		score += 0.4
	}

	// View stability (weight 0.3)
	if in.Innocence.IsViewStable {
		score += 0.3
	}

	// Saturation (weight 0.3), partial credit for few gaps
	switch n := in.Innocence.Count(strategy.ViolationSaturation); {
	case n == 0:
		score += 0.3
	case n == 1:
		score += 0.2
	case n == 2:
		score += 0.1
	}

	return score
}

// #endregion helpers
