package propagation

// #region mode
// Mode selects how exhaustively chronicles are compared.
type Mode string

const (
	ModeFull  Mode = "full"  // every conflicting pair of decisions is reported
	ModeLight Mode = "light" // first conflict per key, single pass
)

// ParseMode accepts "full" and "light"; anything else is light.
func ParseMode(s string) Mode {
	if s == string(ModeFull) {
		return ModeFull
	}
	return ModeLight
}

// #endregion mode

// #region violation
// ViolationType separates the two propagation conditions.
type ViolationType string

const (
	ViolationSliceLinearity  ViolationType = "slice_linearity"
	ViolationPairPropagation ViolationType = "pair_propagation"
)

// Violation names the chronicles that disagree after a shared prefix.
type Violation struct {
	Type       ViolationType `json:"type"`
	Prefix     string        `json:"prefix"`
	ChronicleA string        `json:"chronicle_a"`
	ChronicleB string        `json:"chronicle_b,omitempty"`
	Reason     string        `json:"reason"`
}

// #endregion violation

// #region analysis
// PrefixAnalysis summarises the continuations recorded after one view prefix.
type PrefixAnalysis struct {
	Prefix        string   `json:"prefix"`
	Chronicles    int      `json:"chronicles"`
	Continuations []string `json:"continuations"` // distinct "locus{ramification}" forms
	Consistent    bool     `json:"consistent"`
}

// Analysis is the structural breakdown returned in full mode on request.
type Analysis struct {
	Prefixes   []PrefixAnalysis `json:"prefixes"`
	MinDepth   int              `json:"min_depth"`
	MaxDepth   int              `json:"max_depth"`
	MeanDepth  float64          `json:"mean_depth"`
	Chronicles int              `json:"chronicles"`
}

// #endregion analysis

// #region report
// Report is the result of Check.
type Report struct {
	SatisfiesPropagation     bool        `json:"satisfies_propagation"`
	SatisfiesSliceLinearity  bool        `json:"satisfies_slice_linearity"`
	SatisfiesPairPropagation bool        `json:"satisfies_pair_propagation"`
	Mode                     Mode        `json:"mode"`
	Violations               []Violation `json:"violations,omitempty"`
	Analysis                 *Analysis   `json:"analysis,omitempty"`
}

// #endregion report
