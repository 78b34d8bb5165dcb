package strategy

import (
	"errors"

	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
)

// #region errors
var (
	ErrForeignDispute = errors.New("dispute does not involve the design")
	ErrUnknownAct     = errors.New("act missing from the design")
)

// #endregion errors

// #region config
// Config controls how views are cut.
type Config struct {
	Window int // recent opponent moves always seen
}

// DefaultConfig matches legality.DefaultConfig.
func DefaultConfig() Config {
	return Config{Window: 1}
}

// #endregion config

// #region chronicle
// Chronicle is one play seen from one player's side. Own acts are refreshed
// from the player's design.
type Chronicle struct {
	ID        string          `json:"id"`
	DisputeID string          `json:"dispute_id"`
	Player    design.Polarity `json:"player"`
	Moves     []dispute.Move  `json:"moves"`
}

// #endregion chronicle

// #region strategy
// Strategy is the response behavior of a design derived from its disputes.
type Strategy struct {
	ID         string          `json:"id"`
	DesignID   string          `json:"design_id"`
	Player     design.Polarity `json:"player"`
	Window     int             `json:"window"`
	Chronicles []Chronicle     `json:"chronicles"`
}

// Decision is one point where the player committed to an act: either a
// driven own move (keyed by the view before it) or a reply to an opponent
// move (keyed by the view including that move).
type Decision struct {
	Chronicle  int            // index into Strategy.Chronicles
	Index      int            // move index within the chronicle
	View       []dispute.Move // view the decision was taken on
	ViewKey    string
	HistoryKey string
	Answer     dispute.Move // the player's act, without reply
	IsReply    bool
}

// #endregion strategy

// #region report
// ViolationType classifies innocence findings.
type ViolationType string

const (
	ViolationInnocence     ViolationType = "innocence"
	ViolationDeterminism   ViolationType = "determinism"
	ViolationViewStability ViolationType = "view_stability"
	ViolationSaturation    ViolationType = "saturation"
)

// Violation names the chronicles that disagree and the view they share.
type Violation struct {
	Type       ViolationType `json:"type"`
	View       string        `json:"view"`
	ChronicleA string        `json:"chronicle_a"`
	ChronicleB string        `json:"chronicle_b,omitempty"`
	MoveA      string        `json:"move_a,omitempty"`
	MoveB      string        `json:"move_b,omitempty"`
	Reason     string        `json:"reason"`
}

// InnocenceReport is the result of CheckInnocence.
type InnocenceReport struct {
	IsInnocent      bool        `json:"is_innocent"`
	IsDeterministic bool        `json:"is_deterministic"`
	IsViewStable    bool        `json:"is_view_stable"`
	IsSaturated     bool        `json:"is_saturated"`
	Violations      []Violation `json:"violations,omitempty"`
}

// Count returns the number of violations of one type.
func (r InnocenceReport) Count(t ViolationType) int {
	n := 0
	for _, v := range r.Violations {
		if v.Type == t {
			n++
		}
	}
	return n
}

// #endregion report
