package legality

// #region predicate
// Predicate names one of the four legality conditions.
type Predicate string

const (
	PredicateLinearity     Predicate = "linearity"
	PredicateParity        Predicate = "parity"
	PredicateJustification Predicate = "justification"
	PredicateVisibility    Predicate = "visibility"
)

// #endregion predicate

// #region violation
// Violation pins a failed predicate to the pair that breaks it.
type Violation struct {
	Predicate Predicate `json:"predicate"`
	PairIndex int       `json:"pair_index"`
	Locus     string    `json:"locus"`
	Reason    string    `json:"reason"`
}

// #endregion violation

// #region config
// Config holds the visibility window: how many of the most recent
// opponent-driven pairs a player can see besides its own.
type Config struct {
	Window int
}

// DefaultConfig sees only the single most recent opponent pair.
func DefaultConfig() Config {
	return Config{Window: 1}
}

// #endregion config

// #region report
// Report is the outcome of checking one play.
type Report struct {
	IsLinear    bool        `json:"is_linear"`
	IsParity    bool        `json:"is_parity"`
	IsJustified bool        `json:"is_justified"`
	IsVisible   bool        `json:"is_visible"`
	Violations  []Violation `json:"violations,omitempty"`
}

// IsLegal holds when all four predicates hold.
func (r Report) IsLegal() bool {
	return r.IsLinear && r.IsParity && r.IsJustified && r.IsVisible
}

// Failed returns the predicates with at least one violation, in check order.
func (r Report) Failed() []Predicate {
	var out []Predicate
	for _, p := range []struct {
		ok   bool
		name Predicate
	}{
		{r.IsLinear, PredicateLinearity},
		{r.IsParity, PredicateParity},
		{r.IsJustified, PredicateJustification},
		{r.IsVisible, PredicateVisibility},
	} {
		if !p.ok {
			out = append(out, p.name)
		}
	}
	return out
}

// #endregion report
