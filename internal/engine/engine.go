package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/ludics-engine/internal/correspondence"
	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/legality"
	"github.com/danielpatrickdp/ludics-engine/internal/logging"
	"github.com/danielpatrickdp/ludics-engine/internal/propagation"
	"github.com/danielpatrickdp/ludics-engine/internal/stepper"
	"github.com/danielpatrickdp/ludics-engine/internal/store"
	"github.com/danielpatrickdp/ludics-engine/internal/strategy"
	"github.com/danielpatrickdp/ludics-engine/internal/typing"
	"github.com/danielpatrickdp/ludics-engine/internal/verdict"
)

var tracer = otel.Tracer("github.com/danielpatrickdp/ludics-engine/internal/engine")

// #region engine
// Options wires an engine. Every field is optional.
type Options struct {
	Config     Config
	Store      *store.Store // persistence, cache, check log and counter-design discovery
	Cache      Cache        // overrides the store as cache; defaults to a MemoryCache without a store
	Logger     *zap.Logger
	Registerer prometheus.Registerer
}

// Engine runs the core checks for callers, adding caching, batching,
// metrics, tracing and the check log. The core packages stay pure.
type Engine struct {
	cfg     Config
	store   *store.Store
	cache   Cache
	db      *sql.DB
	log     *zap.Logger
	metrics *metrics
	gate    *verdict.Gate
}

// New creates an engine from opts.
func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg.MaxPairs <= 0 {
		cfg.MaxPairs = stepper.DefaultMaxPairs
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PropagationMode == "" {
		cfg.PropagationMode = propagation.ModeFull
	}
	if cfg.TypeMethod == "" {
		cfg.TypeMethod = typing.MethodCombined
	}
	e := &Engine{
		cfg:     cfg,
		store:   opts.Store,
		cache:   opts.Cache,
		log:     opts.Logger,
		metrics: newMetrics(opts.Registerer),
		gate:    verdict.NewGate(cfg.Verdict),
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.store != nil {
		e.db = e.store.DB()
		if e.cache == nil {
			e.cache = e.store
		}
	}
	if e.cache == nil {
		e.cache = NewMemoryCache()
	}
	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// #endregion engine

// #region check-runner
// checkJob describes one engine operation. An empty kind disables caching.
type checkJob struct {
	op      string
	subject string
	kind    string
	force   bool
	params  logging.CheckParams
}

// run executes compute under a span, consulting the cache first unless
// forced, and records the outcome in metrics, logs and the check log.
func run[T any](ctx context.Context, e *Engine, job checkJob, compute func() (T, error), judge func(T) (bool, string)) (T, error) {
	var zero T
	ctx, span := tracer.Start(ctx, "ludics."+job.op, trace.WithAttributes(
		attribute.String("ludics.subject", job.subject),
		attribute.Bool("ludics.forced", job.force),
	))
	defer span.End()
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if job.kind != "" && !job.force {
		var cached T
		err := e.cache.GetResult(job.subject, job.kind, &cached)
		switch {
		case err == nil:
			e.metrics.cache.WithLabelValues("hit").Inc()
			span.SetAttributes(attribute.Bool("ludics.cached", true))
			e.record(job, "cached", "", 0)
			return cached, nil
		case errors.Is(err, store.ErrNotFound):
			e.metrics.cache.WithLabelValues("miss").Inc()
		default:
			e.metrics.cache.WithLabelValues("miss").Inc()
			e.log.Warn("cache read failed", zap.String("operation", job.op), zap.String("subject", job.subject), zap.Error(err))
		}
	}

	start := time.Now()
	v, err := compute()
	elapsed := time.Since(start)
	e.metrics.latency.WithLabelValues(job.op).Observe(elapsed.Seconds())
	if err != nil {
		e.metrics.checks.WithLabelValues(job.op, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.log.Error("check failed", zap.String("operation", job.op), zap.String("subject", job.subject), zap.Error(err))
		e.record(job, "error", err.Error(), elapsed)
		return zero, err
	}

	ok, reason := judge(v)
	outcome := "pass"
	if !ok {
		outcome = "fail"
	}
	e.metrics.checks.WithLabelValues(job.op, outcome).Inc()
	span.SetAttributes(attribute.String("ludics.outcome", outcome))
	e.log.Info("check",
		zap.String("operation", job.op),
		zap.String("subject", job.subject),
		zap.String("outcome", outcome),
		zap.String("reason", reason),
		zap.Duration("elapsed", elapsed),
	)
	if job.kind != "" {
		if err := e.cache.PutResult(job.subject, job.kind, v); err != nil {
			e.log.Warn("cache write failed", zap.String("operation", job.op), zap.Error(err))
		}
	}
	e.record(job, outcome, reason, elapsed)
	return v, nil
}

// record appends to the check log when the engine has a database.
func (e *Engine) record(job checkJob, outcome, reason string, elapsed time.Duration) {
	if e.db == nil {
		return
	}
	job.params.Forced = job.force
	params, _ := json.Marshal(job.params)
	err := logging.LogCheck(e.db, logging.CheckEntry{
		SubjectID:  job.subject,
		Operation:  job.op,
		ParamsJSON: string(params),
		Outcome:    outcome,
		Reason:     reason,
		DurationMS: elapsed.Milliseconds(),
	})
	if err != nil {
		e.log.Warn("check log write failed", zap.Error(err))
	}
}

// #endregion check-runner

// #region operations
// Step plays pos against neg for at most maxPairs pairs; a budget of zero
// or less uses the configured one. Plays are persisted with both designs
// when the engine has a store.
func (e *Engine) Step(ctx context.Context, pos, neg *design.Design, startPhase design.Polarity, maxPairs int) (*dispute.Play, error) {
	if pos == nil || neg == nil {
		return nil, fmt.Errorf("step: nil design")
	}
	if maxPairs <= 0 {
		maxPairs = e.cfg.MaxPairs
	}
	job := checkJob{
		op:      "step",
		subject: pos.ID + "|" + neg.ID,
		params:  logging.CheckParams{MaxPairs: maxPairs},
	}
	play, err := run(ctx, e, job, func() (*dispute.Play, error) {
		return stepper.Step(pos, neg, startPhase, maxPairs), nil
	}, func(p *dispute.Play) (bool, string) {
		return p.Status == dispute.StatusConvergent, fmt.Sprintf("%s after %d pairs: %s", p.Status, p.Length(), p.Reason)
	})
	if err != nil {
		return nil, err
	}
	e.metrics.steps.WithLabelValues(string(play.Status)).Inc()
	e.metrics.pairs.Observe(float64(play.Length()))
	if e.store != nil {
		for _, d := range []*design.Design{pos, neg} {
			if err := e.store.SaveDesign(d); err != nil {
				return play, fmt.Errorf("persist design: %w", err)
			}
		}
		if err := e.store.SaveDispute(play); err != nil {
			return play, fmt.Errorf("persist play: %w", err)
		}
	}
	return play, nil
}

// CheckLegality checks one play under the configured visibility window.
func (e *Engine) CheckLegality(ctx context.Context, play *dispute.Play, force bool) (legality.Report, error) {
	if play == nil {
		return legality.Report{}, fmt.Errorf("check legality: nil play")
	}
	cfg := legality.Config{Window: e.cfg.Window}
	job := checkJob{
		op:      "legality",
		subject: play.ID,
		kind:    "legality:" + playPrint(play) + ":w" + strconv.Itoa(cfg.Window),
		force:   force,
		params:  logging.CheckParams{Window: cfg.Window},
	}
	return run(ctx, e, job, func() (legality.Report, error) {
		return legality.Check(play, cfg), nil
	}, func(r legality.Report) (bool, string) {
		if r.IsLegal() {
			return true, "all predicates hold"
		}
		return false, fmt.Sprintf("failed %v", r.Failed())
	})
}

// ExtractStrategy builds the player's strategy from disputes d took part in.
func (e *Engine) ExtractStrategy(ctx context.Context, d *design.Design, player design.Polarity, disputes []*dispute.Play) (*strategy.Strategy, error) {
	subject := ""
	if d != nil {
		subject = d.ID
	}
	job := checkJob{
		op:      "extract",
		subject: subject,
		params:  logging.CheckParams{Window: e.cfg.Window},
	}
	return run(ctx, e, job, func() (*strategy.Strategy, error) {
		return strategy.Extract(d, player, disputes, strategy.Config{Window: e.cfg.Window})
	}, func(s *strategy.Strategy) (bool, string) {
		return true, fmt.Sprintf("%d chronicles", len(s.Chronicles))
	})
}

// CheckInnocence checks a strategy for innocence.
func (e *Engine) CheckInnocence(ctx context.Context, s *strategy.Strategy, force bool) (strategy.InnocenceReport, error) {
	if s == nil {
		return strategy.InnocenceReport{}, fmt.Errorf("check innocence: nil strategy")
	}
	job := checkJob{
		op:      "innocence",
		subject: s.ID,
		kind:    "innocence:" + strategyPrint(s),
		force:   force,
		params:  logging.CheckParams{Window: s.Window},
	}
	return run(ctx, e, job, func() (strategy.InnocenceReport, error) {
		return strategy.CheckInnocence(s), nil
	}, func(r strategy.InnocenceReport) (bool, string) {
		return r.IsInnocent, fmt.Sprintf("innocent=%v deterministic=%v stable=%v saturated=%v, %d violations",
			r.IsInnocent, r.IsDeterministic, r.IsViewStable, r.IsSaturated, len(r.Violations))
	})
}

// CheckPropagation checks a strategy for propagation. An empty mode uses
// the configured one. withAnalysis adds the prefix analysis, which only
// full mode produces.
func (e *Engine) CheckPropagation(ctx context.Context, s *strategy.Strategy, mode propagation.Mode, withAnalysis, force bool) (propagation.Report, error) {
	if s == nil {
		return propagation.Report{}, fmt.Errorf("check propagation: nil strategy")
	}
	if mode == "" {
		mode = e.cfg.PropagationMode
	}
	job := checkJob{
		op:      "propagation",
		subject: s.ID,
		kind:    "propagation:" + string(mode) + ":a" + strconv.FormatBool(withAnalysis) + ":" + strategyPrint(s),
		force:   force,
		params:  logging.CheckParams{Window: s.Window, Mode: string(mode)},
	}
	return run(ctx, e, job, func() (propagation.Report, error) {
		return propagation.Check(s, mode, withAnalysis), nil
	}, func(r propagation.Report) (bool, string) {
		return r.SatisfiesPropagation, fmt.Sprintf("slice=%v pair=%v, %d violations",
			r.SatisfiesSliceLinearity, r.SatisfiesPairPropagation, len(r.Violations))
	})
}

// CheckCorrespondence verifies that d and its strategy agree structurally
// and behave alike against every counter-design.
func (e *Engine) CheckCorrespondence(ctx context.Context, d *design.Design, s *strategy.Strategy, counters []*design.Design, force bool) (correspondence.Report, error) {
	if d == nil || s == nil {
		return correspondence.Report{}, fmt.Errorf("check correspondence: nil design or strategy")
	}
	ids := make([]string, 0, len(counters))
	prints := []string{designPrint(d), strategyPrint(s), strconv.Itoa(e.cfg.MaxPairs)}
	for _, c := range counters {
		if c != nil {
			ids = append(ids, c.ID)
			prints = append(prints, designPrint(c))
		}
	}
	cfg := stepper.DefaultConfig()
	cfg.MaxPairs = e.cfg.MaxPairs
	job := checkJob{
		op:      "correspondence",
		subject: d.ID,
		kind:    "correspondence:" + dispute.DeriveID("correspondence", prints...),
		force:   force,
		params:  logging.CheckParams{MaxPairs: e.cfg.MaxPairs, Window: s.Window, CounterDesigns: ids},
	}
	return run(ctx, e, job, func() (correspondence.Report, error) {
		return correspondence.Check(d, s, counters, cfg)
	}, func(r correspondence.Report) (bool, string) {
		return r.AllHold, fmt.Sprintf("structural=%v, failing %v", r.StructuralIsomorphism.Holds, r.FailingCounterDesigns)
	})
}

// CheckType decides whether d inhabits t. An empty method uses the
// configured one.
func (e *Engine) CheckType(ctx context.Context, d *design.Design, t *typing.Type, method typing.Method, force bool) (typing.Result, error) {
	if d == nil {
		return typing.Result{}, fmt.Errorf("check type: nil design")
	}
	if method == "" {
		method = e.cfg.TypeMethod
	}
	tc := e.cfg.typeConfig()
	job := checkJob{
		op:      "type",
		subject: d.ID,
		kind:    "type:" + string(method) + ":" + t.String() + ":" + designPrint(d),
		force:   force,
		params: logging.CheckParams{
			MaxPairs:          tc.Stepper.MaxPairs,
			Window:            tc.Window,
			Method:            string(method),
			Type:              t.String(),
			MaxCounterDesigns: tc.MaxCounterDesigns,
		},
	}
	return run(ctx, e, job, func() (typing.Result, error) {
		return typing.Check(d, t, method, tc)
	}, func(r typing.Result) (bool, string) {
		return r.IsValid, fmt.Sprintf("%s via %s, confidence %.3f", r.Type, r.Method, r.Confidence)
	})
}

// Evaluate folds reports into a verdict and logs it.
func (e *Engine) Evaluate(ctx context.Context, in verdict.Inputs) (verdict.Decision, error) {
	job := checkJob{op: "verdict", subject: in.DesignID}
	return run(ctx, e, job, func() (verdict.Decision, error) {
		return e.gate.Evaluate(in), nil
	}, func(d verdict.Decision) (bool, string) {
		return d.Action == verdict.ActionWellFormed, d.Reason
	})
}

// #endregion operations

// #region fingerprints
// Cache kinds carry content fingerprints so an edited design or play under
// a reused ID never hits a stale result.
func designPrint(d *design.Design) string {
	parts := []string{d.ID, d.Polarity.String()}
	for _, a := range d.Acts {
		parts = append(parts, a.ID+"|"+a.Locus+"|"+a.Polarity.String()+"|"+a.Kind.String()+"|"+
			a.Expression+"|"+strings.Join(a.Ramification, ","))
	}
	return dispute.DeriveID("design-content", parts...)
}

func playPrint(p *dispute.Play) string {
	parts := []string{p.ID, p.StartLocus}
	for _, pr := range p.Pairs {
		parts = append(parts, pr.Actor.String()+"@"+pr.Locus)
	}
	return dispute.DeriveID("play-content", parts...)
}

func strategyPrint(s *strategy.Strategy) string {
	parts := []string{s.ID, strconv.Itoa(s.Window)}
	for _, c := range s.Chronicles {
		parts = append(parts, dispute.Render(c.Moves, moveSignature))
	}
	return dispute.DeriveID("strategy-content", parts...)
}

func moveSignature(m dispute.Move) string {
	return dispute.FullKey(m) + "{" + strings.Join(m.Ramification, ",") + "}"
}

// #endregion fingerprints
