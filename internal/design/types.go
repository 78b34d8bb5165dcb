package design

import (
	"errors"
	"fmt"
)

// ErrInvalidPolarity reports a polarity other than P or O.
var ErrInvalidPolarity = errors.New("invalid polarity")

// #region polarity
// Polarity is the owner of an act: Positive acts belong to the Proponent,
// Negative acts to the Opponent. The zero value is invalid.
type Polarity uint8

const (
	Positive Polarity = iota + 1
	Negative
)

// Opposite returns the other polarity.
func (p Polarity) Opposite() Polarity {
	switch p {
	case Positive:
		return Negative
	case Negative:
		return Positive
	}
	panic(fmt.Sprintf("design: opposite of invalid polarity %d", uint8(p)))
}

// Valid reports whether p is one of the two defined polarities.
func (p Polarity) Valid() bool {
	return p == Positive || p == Negative
}

func (p Polarity) String() string {
	switch p {
	case Positive:
		return "P"
	case Negative:
		return "O"
	}
	return fmt.Sprintf("Polarity(%d)", uint8(p))
}

// ParsePolarity accepts P/O as well as the long forms.
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "P", "p", "positive", "POSITIVE", "proponent":
		return Positive, nil
	case "O", "o", "negative", "NEGATIVE", "opponent":
		return Negative, nil
	}
	return 0, fmt.Errorf("unknown polarity %q: %w", s, ErrInvalidPolarity)
}

func (p Polarity) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("marshal invalid polarity %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Polarity) UnmarshalText(b []byte) error {
	v, err := ParsePolarity(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// #endregion polarity

// #region kind
// Kind distinguishes content-bearing acts from the terminating daimon.
type Kind uint8

const (
	Proper Kind = iota + 1
	Daimon
)

// Valid reports whether k is a defined act kind.
func (k Kind) Valid() bool {
	return k == Proper || k == Daimon
}

func (k Kind) String() string {
	switch k {
	case Proper:
		return "PROPER"
	case Daimon:
		return "DAIMON"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind accepts PROPER and DAIMON in either case.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "PROPER", "proper":
		return Proper, nil
	case "DAIMON", "daimon":
		return Daimon, nil
	}
	return 0, fmt.Errorf("unknown act kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("marshal invalid kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// #endregion kind

// #region act
// Act is an atomic move at a locus.
type Act struct {
	ID           string   `json:"id"`
	DesignID     string   `json:"design_id,omitempty"`
	Locus        string   `json:"locus"`
	Polarity     Polarity `json:"polarity"`
	Kind         Kind     `json:"kind"`
	Expression   string   `json:"expression,omitempty"`   // content of a PROPER act
	Ramification []string `json:"ramification,omitempty"` // addresses opened for the opponent's reply
	Position     int      `json:"position"`               // total order within the design
}

// IsDaimon reports whether the act terminates its branch.
func (a Act) IsDaimon() bool {
	return a.Kind == Daimon
}

// #endregion act

// #region violation
// ViolationType enumerates structural defects of a design.
type ViolationType string

const (
	ViolationBadPath         ViolationType = "bad_path"
	ViolationUnjustified     ViolationType = "unjustified_locus"
	ViolationBadRamification ViolationType = "bad_ramification"
	ViolationDuplicate       ViolationType = "duplicate_locus"
	ViolationPolarity        ViolationType = "polarity_mismatch"
	ViolationKind            ViolationType = "invalid_kind"
	ViolationDaimonOpens     ViolationType = "daimon_ramification"
)

// Violation is one structural defect found by Design.Validate.
type Violation struct {
	Type   ViolationType `json:"type"`
	ActID  string        `json:"act_id,omitempty"`
	Locus  string        `json:"locus"`
	Reason string        `json:"reason"`
}

// #endregion violation
