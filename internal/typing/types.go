package typing

import (
	"errors"

	"github.com/danielpatrickdp/ludics-engine/internal/stepper"
)

// #region errors
var (
	ErrNilType       = errors.New("nil type")
	ErrUnknownMethod = errors.New("unknown type-check method")
	ErrSyntax        = errors.New("type syntax error")
)

// #endregion errors

// #region type
// Kind is the constructor of a type term.
type Kind uint8

const (
	KindUnit Kind = iota + 1
	KindBase
	KindArrow
	KindProduct
	KindSum
	KindHole // unconstrained position in an inferred type
)

// Type is a term of the closed grammar unit | base | A -> B | A * B | A + B.
type Type struct {
	Kind  Kind
	Name  string // base name; empty matches any base
	Left  *Type
	Right *Type
}

func Unit() *Type { return &Type{Kind: KindUnit} }
func Base(name string) *Type { return &Type{Kind: KindBase, Name: name} }
func Arrow(a, b *Type) *Type { return &Type{Kind: KindArrow, Left: a, Right: b} }
func Product(a, b *Type) *Type { return &Type{Kind: KindProduct, Left: a, Right: b} }
func Sum(a, b *Type) *Type { return &Type{Kind: KindSum, Left: a, Right: b} }
func hole() *Type { return &Type{Kind: KindHole} }

// #endregion type

// #region method
// Method selects how membership is decided.
type Method string

const (
	MethodStructural    Method = "structural"
	MethodInference     Method = "inference"
	MethodOrthogonality Method = "orthogonality"
	MethodCombined      Method = "combined"
)

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodStructural, MethodInference, MethodOrthogonality, MethodCombined:
		return m, nil
	}
	return "", ErrUnknownMethod
}

// #endregion method

// #region config
// Config bounds the behavioral method.
type Config struct {
	MaxCounterDesigns int     // orthogonality is skipped beyond this many tests
	SkippedFactor     float64 // combined confidence factor when orthogonality is skipped
	Window            int     // visibility window for legality of test plays
	Stepper           stepper.Config
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxCounterDesigns: 64,
		SkippedFactor:     0.9,
		Window:            1,
		Stepper:           stepper.DefaultConfig(),
	}
}

// #endregion config

// #region result
// MethodAnalysis explains one method's verdict.
type MethodAnalysis struct {
	Method     Method   `json:"method"`
	Holds      bool     `json:"holds"`
	Checked    int      `json:"checked"`
	Satisfied  int      `json:"satisfied"`
	Confidence float64  `json:"confidence"`
	Skipped    bool     `json:"skipped,omitempty"`
	Inferred   string   `json:"inferred,omitempty"`
	Failures   []string `json:"failures,omitempty"`
}

// Result is the outcome of Check.
type Result struct {
	Type             string                    `json:"type"`
	Method           Method                    `json:"method"`
	IsValid          bool                      `json:"is_valid"`
	Confidence       float64                   `json:"confidence"`
	AnalysisByMethod map[Method]MethodAnalysis `json:"analysis_by_method"`
}

// #endregion result
