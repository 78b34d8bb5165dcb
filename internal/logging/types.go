package logging

import "time"

// #region check-entry
// CheckEntry is a single row in the check_log table.
type CheckEntry struct {
	SubjectID  string // design, dispute or strategy id the check ran on
	Operation  string // "step" | "legality" | "innocence" | "propagation" | "correspondence" | "type" | "verdict"
	ParamsJSON string
	Outcome    string // "pass" | "fail" | "error" | "cached"
	Reason     string
	DurationMS int64
	CreatedAt  time.Time
}

// #endregion check-entry

// #region check-params
// CheckParams captures the bounds active when a check ran. Serialized as JSON
// into check_log.params_json so a logged check can be rerun identically.
type CheckParams struct {
	MaxPairs          int      `json:"max_pairs,omitempty"`
	Window            int      `json:"window"`
	Mode              string   `json:"mode,omitempty"`
	Method            string   `json:"method,omitempty"`
	Type              string   `json:"type,omitempty"`
	MaxCounterDesigns int      `json:"max_counter_designs,omitempty"`
	CounterDesigns    []string `json:"counter_designs,omitempty"`
	Forced            bool     `json:"forced,omitempty"`
}

// #endregion check-params
