package rpc

import (
	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/propagation"
	"github.com/danielpatrickdp/ludics-engine/internal/strategy"
)

// #region service
// ServiceName is the fully qualified gRPC service name.
const ServiceName = "ludics.v1.Engine"

const (
	methodStep           = "Step"
	methodLegality       = "CheckLegality"
	methodInnocence      = "CheckInnocence"
	methodPropagation    = "CheckPropagation"
	methodCorrespondence = "CheckCorrespondence"
	methodType           = "CheckType"
	methodAnalyze        = "Analyze"
)

// #endregion service

// #region messages
// Messages travel as google.protobuf.Struct payloads holding their JSON form.

// DesignMsg is a design on the wire.
type DesignMsg struct {
	ID           string          `json:"id"`
	Deliberation string          `json:"deliberation,omitempty"`
	Polarity     design.Polarity `json:"polarity,omitempty"`
	Acts         []design.Act    `json:"acts"`
}

// FromDesign converts a domain design to its wire form.
func FromDesign(d *design.Design) DesignMsg {
	return DesignMsg{ID: d.ID, Deliberation: d.DeliberationID, Polarity: d.Polarity, Acts: d.Acts}
}

// ToDesign rebuilds the domain design, restoring its lookup indexes.
func (m DesignMsg) ToDesign() *design.Design {
	return design.New(m.ID, m.Deliberation, m.Polarity, m.Acts)
}

type StepRequest struct {
	Positive   DesignMsg `json:"positive"`
	Negative   DesignMsg `json:"negative"`
	StartPhase string    `json:"start_phase,omitempty"` // "P" when empty
	MaxPairs   int       `json:"max_pairs,omitempty"`   // engine budget when <= 0
}

type LegalityRequest struct {
	Play  *dispute.Play `json:"play"`
	Force bool          `json:"force,omitempty"`
}

// StrategyRequest names a design and the disputes its strategy is
// extracted from.
type StrategyRequest struct {
	Design   DesignMsg        `json:"design"`
	Disputes []*dispute.Play  `json:"disputes"`
	Mode     propagation.Mode `json:"mode,omitempty"`
	Analysis bool             `json:"analysis,omitempty"` // propagation prefix analysis, full mode only
	Force    bool             `json:"force,omitempty"`
}

// InnocenceReply carries the extracted strategy's identity with its report.
type InnocenceReply struct {
	StrategyID string                   `json:"strategy_id"`
	Chronicles int                      `json:"chronicles"`
	Report     strategy.InnocenceReport `json:"report"`
}

// CounterRequest names a design and the counter-designs it is played
// against.
type CounterRequest struct {
	Design   DesignMsg   `json:"design"`
	Counters []DesignMsg `json:"counters"`
	Force    bool        `json:"force,omitempty"`
}

type TypeRequest struct {
	Design DesignMsg `json:"design"`
	Type   string    `json:"type"`
	Method string    `json:"method,omitempty"`
	Force  bool      `json:"force,omitempty"`
}

// #endregion messages
