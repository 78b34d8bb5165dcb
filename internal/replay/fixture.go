package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/locus"
)

// #region fixture-types

// Fixture is the top-level structure of a replay fixture file.
type Fixture struct {
	Description string            `json:"description" yaml:"description"`
	Config      FixtureConfig     `json:"config" yaml:"config"`
	Designs     []FixtureDesign   `json:"designs" yaml:"designs" validate:"required,min=1,dive"`
	Scenarios   []FixtureScenario `json:"scenarios" yaml:"scenarios" validate:"dive"`
	Types       []FixtureType     `json:"types" yaml:"types" validate:"dive"`
	Analyses    []FixtureAnalysis `json:"analyses" yaml:"analyses" validate:"dive"`
}

// FixtureConfig overrides engine bounds for the run. Zero values keep the
// engine defaults.
type FixtureConfig struct {
	MaxPairs          int    `json:"max_pairs" yaml:"max_pairs" validate:"gte=0"`
	Window            *int   `json:"window" yaml:"window" validate:"omitempty,gte=0"`
	PropagationMode   string `json:"propagation_mode" yaml:"propagation_mode" validate:"omitempty,oneof=full light"`
	MaxCounterDesigns int    `json:"max_counter_designs" yaml:"max_counter_designs" validate:"gte=0"`
}

// FixtureDesign is a design written out act by act. List order is the act
// position.
type FixtureDesign struct {
	ID           string       `json:"id" yaml:"id" validate:"required"`
	Deliberation string       `json:"deliberation" yaml:"deliberation"`
	Polarity     string       `json:"polarity" yaml:"polarity" validate:"required,oneof=P O"`
	Acts         []FixtureAct `json:"acts" yaml:"acts" validate:"dive"`
}

// FixtureAct is one act of a FixtureDesign.
type FixtureAct struct {
	ID           string   `json:"id" yaml:"id" validate:"required"`
	Locus        string   `json:"locus" yaml:"locus" validate:"required,locus"`
	Kind         string   `json:"kind" yaml:"kind" validate:"omitempty,oneof=proper daimon"`
	Expression   string   `json:"expression" yaml:"expression"`
	Ramification []string `json:"ramification" yaml:"ramification" validate:"dive,locus"`
}

// FixtureScenario steps two designs and states the expected outcome.
type FixtureScenario struct {
	Name       string       `json:"name" yaml:"name" validate:"required"`
	Positive   string       `json:"positive" yaml:"positive" validate:"required"`
	Negative   string       `json:"negative" yaml:"negative" validate:"required"`
	StartPhase string       `json:"start_phase" yaml:"start_phase" validate:"omitempty,oneof=P O"`
	MaxPairs   int          `json:"max_pairs,omitempty" yaml:"max_pairs,omitempty" validate:"gte=0"` // config budget when zero
	Expect     ExpectedPlay `json:"expect" yaml:"expect"`
}

// ExpectedPlay is the expected outcome of a scenario. Nil fields are not
// compared.
type ExpectedPlay struct {
	Status string `json:"status" yaml:"status" validate:"required,oneof=CONVERGENT DIVERGENT STUCK"`
	Pairs  *int   `json:"pairs" yaml:"pairs" validate:"omitempty,gte=0"`
	Legal  *bool  `json:"legal" yaml:"legal"`
}

// FixtureType checks one design against a type.
type FixtureType struct {
	Name   string `json:"name" yaml:"name" validate:"required"`
	Design string `json:"design" yaml:"design" validate:"required"`
	Type   string `json:"type" yaml:"type" validate:"required"`
	Method string `json:"method" yaml:"method" validate:"omitempty,oneof=structural inference orthogonality combined"`
	Valid  bool   `json:"valid" yaml:"valid"`
}

// FixtureAnalysis runs the full pipeline for one design.
type FixtureAnalysis struct {
	Name     string   `json:"name" yaml:"name" validate:"required"`
	Design   string   `json:"design" yaml:"design" validate:"required"`
	Counters []string `json:"counters" yaml:"counters" validate:"required,min=1"`
	Verdict  string   `json:"verdict" yaml:"verdict" validate:"required,oneof=well_formed ill_formed"`
}

// #endregion fixture-types

// #region fixture-loader

var fixtureValidate *validator.Validate

func init() {
	fixtureValidate = validator.New()
	_ = fixtureValidate.RegisterValidation("locus", func(fl validator.FieldLevel) bool {
		_, err := locus.Parse(fl.Field().String())
		return err == nil
	})
}

// LoadFixture reads a fixture file. Files ending in .json are parsed as
// JSON, anything else as YAML.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks field constraints and that every reference names a
// design of the fixture.
func (f *Fixture) Validate() error {
	if err := fixtureValidate.Struct(f); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	ids := make(map[string]bool, len(f.Designs))
	for _, d := range f.Designs {
		if ids[d.ID] {
			return fmt.Errorf("duplicate design %q", d.ID)
		}
		ids[d.ID] = true
	}
	check := func(where, id string) error {
		if !ids[id] {
			return fmt.Errorf("%s: unknown design %q", where, id)
		}
		return nil
	}
	for _, s := range f.Scenarios {
		if err := check("scenario "+s.Name, s.Positive); err != nil {
			return err
		}
		if err := check("scenario "+s.Name, s.Negative); err != nil {
			return err
		}
	}
	for _, t := range f.Types {
		if err := check("type "+t.Name, t.Design); err != nil {
			return err
		}
	}
	for _, a := range f.Analyses {
		if err := check("analysis "+a.Name, a.Design); err != nil {
			return err
		}
		for _, c := range a.Counters {
			if err := check("analysis "+a.Name, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// ToDesign converts a FixtureDesign to a domain Design.
func (fd *FixtureDesign) ToDesign() (*design.Design, error) {
	pol, err := design.ParsePolarity(fd.Polarity)
	if err != nil {
		return nil, fmt.Errorf("design %s: %w", fd.ID, err)
	}
	acts := make([]design.Act, len(fd.Acts))
	for i, fa := range fd.Acts {
		kind := design.Proper
		if fa.Kind != "" {
			if kind, err = design.ParseKind(fa.Kind); err != nil {
				return nil, fmt.Errorf("design %s act %s: %w", fd.ID, fa.ID, err)
			}
		}
		acts[i] = design.Act{
			ID:           fa.ID,
			Locus:        fa.Locus,
			Polarity:     pol,
			Kind:         kind,
			Expression:   fa.Expression,
			Ramification: fa.Ramification,
			Position:     i,
		}
	}
	return design.New(fd.ID, fd.Deliberation, pol, acts), nil
}

// #endregion fixture-loader
