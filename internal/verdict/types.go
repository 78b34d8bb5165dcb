package verdict

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoMalformedDesign      VetoType = "malformed_design"
	VetoIllegalPlay          VetoType = "illegal_play"
	VetoNotInnocent          VetoType = "not_innocent"
	VetoPropagationFailure   VetoType = "propagation_failure"
	VetoCorrespondenceFailed VetoType = "correspondence_failure"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition.
type VetoSignal struct {
	Type   VetoType `json:"type"`
	Reason string   `json:"reason"`
}

// #endregion veto-signal

// #region config
// Config selects which checks may veto.
type Config struct {
	VetoMalformed         bool    // structural design defects veto
	RequireCorrespondence bool    // a missing correspondence report vetoes
	MinSoftScore          float64 // below this a well-formed verdict is flagged weak in the reason
}

// DefaultConfig vetoes malformed designs and treats correspondence as optional.
func DefaultConfig() Config {
	return Config{
		VetoMalformed:         true,
		RequireCorrespondence: false,
		MinSoftScore:          0.5,
	}
}

// #endregion config

// #region decision
const (
	ActionWellFormed = "well_formed"
	ActionIllFormed  = "ill_formed"
)

// Decision is the output of Evaluate.
type Decision struct {
	Action      string       `json:"action"` // "well_formed" | "ill_formed"
	Reason      string       `json:"reason"`
	Vetoed      bool         `json:"vetoed"`
	VetoSignals []VetoSignal `json:"veto_signals,omitempty"`
	SoftScore   float64      `json:"soft_score"` // 0-1 composite of soft signals
}

// #endregion decision
