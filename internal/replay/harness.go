package replay

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/engine"
	"github.com/danielpatrickdp/ludics-engine/internal/propagation"
	"github.com/danielpatrickdp/ludics-engine/internal/typing"
)

// #region types
// Kind names what a replay result checked.
const (
	KindScenario = "scenario"
	KindType     = "type"
	KindAnalysis = "analysis"
)

// ReplayResult captures the outcome of one scenario, type check or analysis.
type ReplayResult struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Passed bool   `json:"passed"`
	Want   string `json:"want"`
	Got    string `json:"got"`
	Reason string `json:"reason,omitempty"`
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Total    int            `json:"total"`
	Passed   int            `json:"passed"`
	Failed   int            `json:"failed"`
	Failures []string       `json:"failures,omitempty"`
	ByKind   map[string]int `json:"by_kind"`
}

// #endregion types

// #region config
// EngineConfig applies the fixture's overrides to base.
func (fc FixtureConfig) EngineConfig(base engine.Config) engine.Config {
	if fc.MaxPairs > 0 {
		base.MaxPairs = fc.MaxPairs
	}
	if fc.Window != nil {
		base.Window = *fc.Window
	}
	if fc.PropagationMode != "" {
		base.PropagationMode = propagation.ParseMode(fc.PropagationMode)
	}
	if fc.MaxCounterDesigns > 0 {
		base.MaxCounterDesigns = fc.MaxCounterDesigns
	}
	return base
}

// #endregion config

// #region replay
// Replay runs every scenario, type check and analysis of the fixture through
// the engine, in file order, and compares each against its expectation. A
// returned error means the fixture could not be run, not that it failed.
func Replay(ctx context.Context, eng *engine.Engine, f *Fixture) ([]ReplayResult, error) {
	designs := make(map[string]*design.Design, len(f.Designs))
	for i := range f.Designs {
		d, err := f.Designs[i].ToDesign()
		if err != nil {
			return nil, err
		}
		designs[d.ID] = d
	}

	results := make([]ReplayResult, 0, len(f.Scenarios)+len(f.Types)+len(f.Analyses))

	// 1. Scenarios
	for _, sc := range f.Scenarios {
		phase := design.Positive
		if sc.StartPhase != "" {
			phase, _ = design.ParsePolarity(sc.StartPhase)
		}
		play, err := eng.Step(ctx, designs[sc.Positive], designs[sc.Negative], phase, sc.MaxPairs)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		want, got := sc.Expect.Status, string(play.Status)
		passed := want == got
		if sc.Expect.Pairs != nil {
			want += fmt.Sprintf(" pairs=%d", *sc.Expect.Pairs)
			got += fmt.Sprintf(" pairs=%d", play.Length())
			passed = passed && *sc.Expect.Pairs == play.Length()
		}
		if sc.Expect.Legal != nil {
			rep, err := eng.CheckLegality(ctx, play, false)
			if err != nil {
				return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
			want += fmt.Sprintf(" legal=%v", *sc.Expect.Legal)
			got += fmt.Sprintf(" legal=%v", rep.IsLegal())
			passed = passed && *sc.Expect.Legal == rep.IsLegal()
		}
		results = append(results, ReplayResult{
			Name: sc.Name, Kind: KindScenario, Passed: passed, Want: want, Got: got, Reason: play.Reason,
		})
	}

	// 2. Type checks
	for _, tc := range f.Types {
		ty, err := typing.Parse(tc.Type)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", tc.Name, err)
		}
		res, err := eng.CheckType(ctx, designs[tc.Design], ty, typing.Method(tc.Method), false)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", tc.Name, err)
		}
		results = append(results, ReplayResult{
			Name:   tc.Name,
			Kind:   KindType,
			Passed: res.IsValid == tc.Valid,
			Want:   fmt.Sprintf("valid=%v", tc.Valid),
			Got:    fmt.Sprintf("valid=%v", res.IsValid),
			Reason: fmt.Sprintf("%s via %s, confidence %.3f", res.Type, res.Method, res.Confidence),
		})
	}

	// 3. Analyses
	for _, an := range f.Analyses {
		counters := make([]*design.Design, len(an.Counters))
		for i, id := range an.Counters {
			counters[i] = designs[id]
		}
		a, err := eng.Analyze(ctx, designs[an.Design], counters, false)
		if err != nil {
			return nil, fmt.Errorf("analysis %s: %w", an.Name, err)
		}
		results = append(results, ReplayResult{
			Name:   an.Name,
			Kind:   KindAnalysis,
			Passed: a.Verdict.Action == an.Verdict,
			Want:   an.Verdict,
			Got:    a.Verdict.Action,
			Reason: a.Verdict.Reason,
		})
	}

	return results, nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{
		Total:  len(results),
		ByKind: make(map[string]int),
	}
	for _, r := range results {
		s.ByKind[r.Kind]++
		if r.Passed {
			s.Passed++
			continue
		}
		s.Failed++
		s.Failures = append(s.Failures, fmt.Sprintf("%s %s: want %s, got %s", r.Kind, r.Name, r.Want, r.Got))
	}
	return s
}

// #endregion replay
