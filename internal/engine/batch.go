package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/ludics-engine/internal/correspondence"
	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/legality"
	"github.com/danielpatrickdp/ludics-engine/internal/verdict"
)

// #region step-all
// StepAll plays d against every counter-design in parallel, bounded by the
// configured worker count. Plays come back in counter order; d sits on the
// side of its own polarity and the positive side drives first.
func (e *Engine) StepAll(ctx context.Context, d *design.Design, counters []*design.Design) ([]*dispute.Play, error) {
	if d == nil {
		return nil, fmt.Errorf("step all: nil design")
	}
	if !d.Polarity.Valid() {
		return nil, fmt.Errorf("step all: design %s: %w", d.ID, design.ErrInvalidPolarity)
	}
	for _, c := range counters {
		if c == nil || c.Polarity != d.Polarity.Opposite() {
			return nil, fmt.Errorf("step all: counter-design must have polarity %s: %w", d.Polarity.Opposite(), correspondence.ErrPolarity)
		}
	}

	plays := make([]*dispute.Play, len(counters))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, c := range counters {
		pos, neg := d, c
		if d.Polarity == design.Negative {
			pos, neg = c, d
		}
		g.Go(func() error {
			p, err := e.Step(gctx, pos, neg, design.Positive, 0)
			if err != nil {
				return fmt.Errorf("step %s against %s: %w", pos.ID, neg.ID, err)
			}
			plays[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plays, nil
}

// #endregion step-all

// #region analyze
// Analyze runs the full pipeline for d: structural validation, a play
// against each counter-design, legality of every play, the extracted
// strategy's innocence and propagation, correspondence and the verdict.
// With no counters given, the engine's store supplies every opposing design
// of the same deliberation.
func (e *Engine) Analyze(ctx context.Context, d *design.Design, counters []*design.Design, force bool) (*Analysis, error) {
	if d == nil {
		return nil, fmt.Errorf("analyze: nil design")
	}
	if !d.Polarity.Valid() {
		return nil, fmt.Errorf("analyze %s: %w", d.ID, design.ErrInvalidPolarity)
	}
	if len(counters) == 0 {
		found, err := e.discover(d)
		if err != nil {
			return nil, err
		}
		counters = found
	}
	if len(counters) == 0 {
		return nil, fmt.Errorf("analyze %s: %w", d.ID, correspondence.ErrNoCounterDesigns)
	}
	if e.store != nil {
		if err := e.store.SaveDesign(d); err != nil {
			return nil, fmt.Errorf("persist design: %w", err)
		}
	}

	out := &Analysis{DesignID: d.ID, Violations: d.Validate()}
	for _, c := range counters {
		out.CounterDesigns = append(out.CounterDesigns, c.ID)
	}

	plays, err := e.StepAll(ctx, d, counters)
	if err != nil {
		return nil, err
	}
	out.Plays = plays

	out.Legality = make([]legality.Report, len(plays))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, p := range plays {
		g.Go(func() error {
			rep, err := e.CheckLegality(gctx, p, force)
			if err != nil {
				return err
			}
			out.Legality[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s, err := e.ExtractStrategy(ctx, d, d.Polarity, plays)
	if err != nil {
		return nil, err
	}
	out.StrategyID = s.ID
	if out.Innocence, err = e.CheckInnocence(ctx, s, force); err != nil {
		return nil, err
	}
	if out.Propagation, err = e.CheckPropagation(ctx, s, "", true, force); err != nil {
		return nil, err
	}
	if out.Correspondence, err = e.CheckCorrespondence(ctx, d, s, counters, force); err != nil {
		return nil, err
	}

	out.Verdict, err = e.Evaluate(ctx, verdict.Inputs{
		DesignID:       d.ID,
		Structural:     out.Violations,
		Plays:          out.Legality,
		Innocence:      &out.Innocence,
		Propagation:    &out.Propagation,
		Correspondence: &out.Correspondence,
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("analysis",
		zap.String("design", d.ID),
		zap.Int("counters", len(counters)),
		zap.String("verdict", out.Verdict.Action),
		zap.Float64("soft_score", out.Verdict.SoftScore),
	)
	return out, nil
}

// discover lists the stored designs of d's deliberation with the opposite
// polarity.
func (e *Engine) discover(d *design.Design) ([]*design.Design, error) {
	if e.store == nil {
		return nil, nil
	}
	if !d.Polarity.Valid() {
		return nil, fmt.Errorf("discover counter-designs of %s: %w", d.ID, design.ErrInvalidPolarity)
	}
	all, err := e.store.ListDesigns(d.DeliberationID)
	if err != nil {
		return nil, fmt.Errorf("discover counter-designs: %w", err)
	}
	var out []*design.Design
	for _, c := range all {
		if c.ID != d.ID && c.Polarity == d.Polarity.Opposite() {
			out = append(out, c)
		}
	}
	return out, nil
}

// #endregion analyze
