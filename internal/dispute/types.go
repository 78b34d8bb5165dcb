package dispute

import "github.com/danielpatrickdp/ludics-engine/internal/design"

// #region status
// Status is the terminal (or running) state of a play.
type Status string

const (
	StatusOngoing    Status = "ONGOING"
	StatusConvergent Status = "CONVERGENT"
	StatusDivergent  Status = "DIVERGENT"
	StatusStuck      Status = "STUCK"
)

// Terminal reports whether no further step is possible.
func (s Status) Terminal() bool {
	return s == StatusConvergent || s == StatusDivergent || s == StatusStuck
}

// #endregion status

// #region pair
// Pair is one matched exchange: the driver's act and the respondent's act at
// the same locus.
type Pair struct {
	PositiveActID string          `json:"positive_act_id"`
	NegativeActID string          `json:"negative_act_id"`
	Locus         string          `json:"locus"`
	Index         int             `json:"index"`
	Actor         design.Polarity `json:"actor"` // driver of the pair
}

// #endregion pair

// #region move
// Move is one act as it occurred in a play. A driven move carries the
// respondent's act in Reply; the terminal daimon of a play has no reply.
type Move struct {
	Polarity     design.Polarity `json:"polarity"`
	ActID        string          `json:"act_id"`
	Locus        string          `json:"locus"`
	Kind         design.Kind     `json:"kind"`
	Expression   string          `json:"expression,omitempty"`
	Ramification []string        `json:"ramification,omitempty"`
	Reply        *Move           `json:"reply,omitempty"`
}

// #endregion move

// #region play
// Play is a dispute: the alternating trace produced by stepping a positive
// design against a negative one.
type Play struct {
	ID               string          `json:"id"`
	PositiveDesignID string          `json:"positive_design_id"`
	NegativeDesignID string          `json:"negative_design_id"`
	StartPhase       design.Polarity `json:"start_phase"`
	StartLocus       string          `json:"start_locus"`
	MaxPairs         int             `json:"max_pairs"`
	Pairs            []Pair          `json:"pairs"`
	Moves            []Move          `json:"moves"`
	Status           Status          `json:"status"`
	Reason           string          `json:"reason,omitempty"` // why the play stopped
}

// Length returns the number of pairs.
func (p *Play) Length() int {
	return len(p.Pairs)
}

// DesignID returns the identifier of the design playing pol.
func (p *Play) DesignID(pol design.Polarity) string {
	if pol == design.Positive {
		return p.PositiveDesignID
	}
	return p.NegativeDesignID
}

// #endregion play
