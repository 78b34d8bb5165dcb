package correspondence

import (
	"errors"

	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
)

// #region errors
var (
	ErrNoCounterDesigns = errors.New("no counter-designs supplied")
	ErrPolarity         = errors.New("counter-design has the design's polarity")
	ErrStrategyMismatch = errors.New("strategy was not extracted from the design")
)

// #endregion errors

// #region structural
// Structural is the act/position bijection verdict.
type Structural struct {
	Holds              bool     `json:"holds"`
	Positions          int      `json:"positions"`
	UnmatchedActs      []string `json:"unmatched_acts,omitempty"`      // design acts with no position
	UnmatchedPositions []string `json:"unmatched_positions,omitempty"` // positions with no design act
	AmbiguousActs      []string `json:"ambiguous_acts,omitempty"`      // design acts reached by several positions
	MaximalViews       []string `json:"maximal_views,omitempty"`
}

// #endregion structural

// #region behavioral
// Behavioral compares the design's play against one counter-design with the
// play the strategy predicts for it.
type Behavioral struct {
	CounterDesignID string         `json:"counter_design_id"`
	Holds           bool           `json:"holds"`
	DesignStatus    dispute.Status `json:"design_status"`
	StrategyStatus  dispute.Status `json:"strategy_status"`
	DesignPairs     int            `json:"design_pairs"`
	StrategyPairs   int            `json:"strategy_pairs"`
	Diff            string         `json:"diff,omitempty"`
}

// #endregion behavioral

// #region report
// Report is the result of Check.
type Report struct {
	StructuralIsomorphism    Structural   `json:"structural_isomorphism"`
	BehavioralCorrespondence []Behavioral `json:"behavioral_correspondence"`
	AllHold                  bool         `json:"all_hold"`
	FailingCounterDesigns    []string     `json:"failing_counter_designs,omitempty"`
}

// #endregion report
