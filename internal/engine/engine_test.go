package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/danielpatrickdp/ludics-engine/internal/correspondence"
	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/logging"
	"github.com/danielpatrickdp/ludics-engine/internal/propagation"
	"github.com/danielpatrickdp/ludics-engine/internal/store"
	"github.com/danielpatrickdp/ludics-engine/internal/typing"
	"github.com/danielpatrickdp/ludics-engine/internal/verdict"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// #region helpers
const (
	P = design.Positive
	O = design.Negative
)

func act(id, loc string, pol design.Polarity, expr string, pos int, ram ...string) design.Act {
	return design.Act{ID: id, Locus: loc, Polarity: pol, Kind: design.Proper, Expression: expr, Ramification: ram, Position: pos}
}

func dai(id, loc string, pol design.Polarity, pos int) design.Act {
	return design.Act{ID: id, Locus: loc, Polarity: pol, Kind: design.Daimon, Position: pos}
}

// claim opens two branches and grants either; one opponent per branch.
func claim() (*design.Design, []*design.Design) {
	pos := design.New("P", "delib", P, []design.Act{
		act("p0", "0", P, "claim", 0, "0.1", "0.2"),
		act("p1", "0.1", P, "grant", 1),
		act("p2", "0.2", P, "grant", 2),
		dai("p3", "0.1.1", P, 3),
		dai("p4", "0.2.1", P, 4),
	})
	left := design.New("O-left", "delib", O, []design.Act{
		act("l0", "0", O, "ack", 0),
		act("l1", "0.1", O, "why", 1, "0.1.1"),
	})
	right := design.New("O-right", "delib", O, []design.Act{
		act("r0", "0", O, "ack", 0),
		act("r1", "0.2", O, "how", 1, "0.2.1"),
	})
	return pos, []*design.Design{left, right}
}

func newEngine(t *testing.T, withStore bool) (*Engine, *store.Store) {
	t.Helper()
	opts := Options{
		Config:     DefaultConfig(),
		Logger:     zaptest.NewLogger(t),
		Registerer: prometheus.NewRegistry(),
	}
	var s *store.Store
	if withStore {
		var err error
		s, err = store.NewStore(filepath.Join(t.TempDir(), "engine.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		opts.Store = s
	}
	return New(opts), s
}

// #endregion helpers

// #region operation-tests
func TestStepRecordsMetrics(t *testing.T) {
	e, _ := newEngine(t, false)
	pos, counters := claim()

	play, err := e.Step(context.Background(), pos, counters[0], P, 0)
	require.NoError(t, err)
	assert.Equal(t, dispute.StatusConvergent, play.Status)
	assert.Equal(t, 2, play.Length())
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.steps.WithLabelValues("CONVERGENT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.checks.WithLabelValues("step", "pass")))
}

func TestStepPairBudget(t *testing.T) {
	e, _ := newEngine(t, false)
	pos, counters := claim()
	ctx := context.Background()

	short, err := e.Step(ctx, pos, counters[0], P, 1)
	require.NoError(t, err)
	assert.Equal(t, dispute.StatusDivergent, short.Status)
	assert.Equal(t, 1, short.MaxPairs)
	assert.Equal(t, 1, short.Length())

	full, err := e.Step(ctx, pos, counters[0], P, -3)
	require.NoError(t, err)
	assert.Equal(t, dispute.StatusConvergent, full.Status)
	assert.Equal(t, DefaultConfig().MaxPairs, full.MaxPairs, "a non-positive budget falls back to the config")
}

func TestCheckLegalityCachesAndForces(t *testing.T) {
	e, _ := newEngine(t, false)
	pos, counters := claim()
	ctx := context.Background()
	play, err := e.Step(ctx, pos, counters[0], P, 0)
	require.NoError(t, err)

	first, err := e.CheckLegality(ctx, play, false)
	require.NoError(t, err)
	second, err := e.CheckLegality(ctx, play, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.True(t, second.IsLegal())

	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.cache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.cache.WithLabelValues("miss")))

	_, err = e.CheckLegality(ctx, play, true)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.cache.WithLabelValues("hit")), "forced recheck must bypass the cache")
	assert.Equal(t, 2.0, testutil.ToFloat64(e.metrics.checks.WithLabelValues("legality", "pass")))
}

func TestCheckTypeCacheFollowsContent(t *testing.T) {
	e, _ := newEngine(t, false)
	ctx := context.Background()
	ty := typing.MustParse("unit")
	d := design.New("u", "delib", P, []design.Act{dai("u0", "0", P, 0)})

	res, err := e.CheckType(ctx, d, ty, "", false)
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Equal(t, typing.MethodCombined, res.Method)

	// Same ID, different acts: a fresh check, not the cached verdict.
	edited := design.New("u", "delib", P, []design.Act{act("u0", "0", P, "x", 0)})
	res, err = e.CheckType(ctx, edited, ty, "", false)
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, 0.0, testutil.ToFloat64(e.metrics.cache.WithLabelValues("hit")))
}

func TestCheckTypeUnknownMethod(t *testing.T) {
	e, _ := newEngine(t, false)
	d := design.New("u", "delib", P, []design.Act{dai("u0", "0", P, 0)})

	_, err := e.CheckType(context.Background(), d, typing.Unit(), "guess", false)
	require.ErrorIs(t, err, typing.ErrUnknownMethod)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.checks.WithLabelValues("type", "error")))
}

func TestCanceledContext(t *testing.T) {
	e, _ := newEngine(t, false)
	pos, counters := claim()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Step(ctx, pos, counters[0], P, 0)
	require.ErrorIs(t, err, context.Canceled)
}

// #endregion operation-tests

// #region batch-tests
func TestStepAllKeepsCounterOrder(t *testing.T) {
	e, _ := newEngine(t, false)
	pos, counters := claim()

	plays, err := e.StepAll(context.Background(), pos, counters)
	require.NoError(t, err)
	require.Len(t, plays, 2)
	assert.Equal(t, "O-left", plays[0].NegativeDesignID)
	assert.Equal(t, "O-right", plays[1].NegativeDesignID)

	// A negative design takes the negative side.
	negPlays, err := e.StepAll(context.Background(), counters[0], []*design.Design{pos})
	require.NoError(t, err)
	assert.Equal(t, plays[0].ID, negPlays[0].ID)

	_, err = e.StepAll(context.Background(), pos, []*design.Design{pos})
	require.ErrorIs(t, err, correspondence.ErrPolarity)
}

func TestAnalyzeWellFormed(t *testing.T) {
	e, _ := newEngine(t, false)
	pos, counters := claim()

	a, err := e.Analyze(context.Background(), pos, counters, false)
	require.NoError(t, err)
	assert.Empty(t, a.Violations)
	require.Len(t, a.Legality, 2)
	for _, r := range a.Legality {
		assert.True(t, r.IsLegal())
	}
	assert.True(t, a.Innocence.IsInnocent)
	assert.True(t, a.Propagation.SatisfiesPropagation)
	assert.True(t, a.Correspondence.AllHold)
	assert.Equal(t, verdict.ActionWellFormed, a.Verdict.Action)
	assert.InDelta(t, 1.0, a.Verdict.SoftScore, 1e-9)
}

func TestAnalyzeFlagsMissingBranch(t *testing.T) {
	e, _ := newEngine(t, false)
	_, counters := claim()
	half := design.New("P-half", "delib", P, []design.Act{
		act("h0", "0", P, "claim", 0, "0.1", "0.2"),
		act("h1", "0.1", P, "grant", 1),
		dai("h2", "0.1.1", P, 2),
	})

	a, err := e.Analyze(context.Background(), half, counters, false)
	require.NoError(t, err)
	assert.Equal(t, dispute.StatusStuck, a.Plays[1].Status)
	assert.Equal(t, verdict.ActionWellFormed, a.Verdict.Action,
		"a stuck branch is not a veto by itself")
	assert.Less(t, a.Verdict.SoftScore, 1.0)
}

func TestAnalyzeDiscoversStoredCounters(t *testing.T) {
	e, s := newEngine(t, true)
	pos, counters := claim()
	for _, c := range counters {
		require.NoError(t, s.SaveDesign(c))
	}

	a, err := e.Analyze(context.Background(), pos, nil, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"O-left", "O-right"}, a.CounterDesigns)

	stored, err := s.ListDisputes(pos.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	entries, err := logging.ListChecks(s.DB(), pos.ID, 100)
	require.NoError(t, err)
	ops := map[string]bool{}
	for _, en := range entries {
		ops[en.Operation] = true
	}
	for _, op := range []string{"extract", "correspondence", "verdict"} {
		assert.True(t, ops[op], "check log missing %s", op)
	}

	results, err := s.ListResults(100)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestAnalyzeWithoutCounters(t *testing.T) {
	e, _ := newEngine(t, false)
	pos, _ := claim()

	_, err := e.Analyze(context.Background(), pos, nil, false)
	require.True(t, errors.Is(err, correspondence.ErrNoCounterDesigns))
}

func TestInvalidPolarityIsRejected(t *testing.T) {
	e, _ := newEngine(t, true)
	_, counters := claim()
	ctx := context.Background()
	bare := design.New("bare", "delib", 0, []design.Act{act("b0", "0", 0, "claim", 0, "0.1")})

	_, err := e.Analyze(ctx, bare, counters, false)
	require.ErrorIs(t, err, design.ErrInvalidPolarity)
	_, err = e.Analyze(ctx, bare, nil, false)
	require.ErrorIs(t, err, design.ErrInvalidPolarity)
	_, err = e.StepAll(ctx, bare, counters)
	require.ErrorIs(t, err, design.ErrInvalidPolarity)
	_, err = e.discover(bare)
	require.ErrorIs(t, err, design.ErrInvalidPolarity)
}

func TestCheckPropagationAnalysisOnRequest(t *testing.T) {
	e, _ := newEngine(t, false)
	pos, counters := claim()
	ctx := context.Background()
	plays, err := e.StepAll(ctx, pos, counters)
	require.NoError(t, err)
	s, err := e.ExtractStrategy(ctx, pos, P, plays)
	require.NoError(t, err)

	bare, err := e.CheckPropagation(ctx, s, propagation.ModeFull, false, false)
	require.NoError(t, err)
	assert.True(t, bare.SatisfiesPropagation)
	assert.Nil(t, bare.Analysis)

	rich, err := e.CheckPropagation(ctx, s, propagation.ModeFull, true, false)
	require.NoError(t, err)
	assert.NotNil(t, rich.Analysis, "the analysis is not served from the bare cache entry")

	light, err := e.CheckPropagation(ctx, s, propagation.ModeLight, true, false)
	require.NoError(t, err)
	assert.Nil(t, light.Analysis, "light mode has no analysis")
}

// #endregion batch-tests

// #region cache-tests
func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	var out struct{ N int }
	require.ErrorIs(t, c.GetResult("s", "k", &out), store.ErrNotFound)
	require.NoError(t, c.PutResult("s", "k", struct{ N int }{3}))
	require.NoError(t, c.GetResult("s", "k", &out))
	assert.Equal(t, 3, out.N)
	assert.Equal(t, 1, c.Len())
}

// #endregion cache-tests
