package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/danielpatrickdp/ludics-engine/internal/correspondence"
	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/engine"
	"github.com/danielpatrickdp/ludics-engine/internal/store"
	"github.com/danielpatrickdp/ludics-engine/internal/verdict"
)

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

func claim() (DesignMsg, []DesignMsg) {
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
	return FromDesign(pos), []DesignMsg{FromDesign(left), FromDesign(right)}
}

// dial serves a fresh engine over an in-memory listener.
func dial(t *testing.T) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	eng := engine.New(engine.Options{
		Config:     engine.DefaultConfig(),
		Logger:     zaptest.NewLogger(t),
		Registerer: prometheus.NewRegistry(),
	})
	srv := grpc.NewServer()
	Register(srv, NewServer(eng, zaptest.NewLogger(t)))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// #endregion helpers

// #region call-tests
func TestStepOverTheWire(t *testing.T) {
	c := dial(t)
	pos, counters := claim()
	ctx := context.Background()

	play, err := c.Step(ctx, &StepRequest{Positive: pos, Negative: counters[0]})
	require.NoError(t, err)
	assert.Equal(t, dispute.StatusConvergent, play.Status)
	assert.Equal(t, 2, play.Length())
	assert.Equal(t, "P", play.PositiveDesignID)

	rep, err := c.CheckLegality(ctx, &LegalityRequest{Play: play})
	require.NoError(t, err)
	assert.True(t, rep.IsLegal(), "violations: %+v", rep.Violations)
}

func TestStepPairBudgetOverTheWire(t *testing.T) {
	c := dial(t)
	pos, counters := claim()
	ctx := context.Background()

	play, err := c.Step(ctx, &StepRequest{Positive: pos, Negative: counters[0], MaxPairs: 1})
	require.NoError(t, err)
	assert.Equal(t, dispute.StatusDivergent, play.Status)
	assert.Equal(t, 1, play.MaxPairs)

	play, err = c.Step(ctx, &StepRequest{Positive: pos, Negative: counters[0]})
	require.NoError(t, err)
	assert.Equal(t, dispute.StatusConvergent, play.Status)
	assert.Equal(t, engine.DefaultConfig().MaxPairs, play.MaxPairs)
}

func TestStrategyChecksOverTheWire(t *testing.T) {
	c := dial(t)
	pos, counters := claim()
	ctx := context.Background()

	var plays []*dispute.Play
	for _, o := range counters {
		p, err := c.Step(ctx, &StepRequest{Positive: pos, Negative: o, StartPhase: "P"})
		require.NoError(t, err)
		plays = append(plays, p)
	}

	inn, err := c.CheckInnocence(ctx, &StrategyRequest{Design: pos, Disputes: plays})
	require.NoError(t, err)
	assert.NotEmpty(t, inn.StrategyID)
	assert.Positive(t, inn.Chronicles)
	assert.True(t, inn.Report.IsInnocent)

	prop, err := c.CheckPropagation(ctx, &StrategyRequest{Design: pos, Disputes: plays})
	require.NoError(t, err)
	assert.True(t, prop.SatisfiesPropagation)
	assert.Nil(t, prop.Analysis, "the analysis is opt-in")

	prop, err = c.CheckPropagation(ctx, &StrategyRequest{Design: pos, Disputes: plays, Mode: "full", Analysis: true})
	require.NoError(t, err)
	assert.NotNil(t, prop.Analysis, "full mode carries the analysis on request")

	corr, err := c.CheckCorrespondence(ctx, &CounterRequest{Design: pos, Counters: counters})
	require.NoError(t, err)
	assert.True(t, corr.AllHold)
	assert.True(t, corr.StructuralIsomorphism.Holds)
}

func TestCheckTypeOverTheWire(t *testing.T) {
	c := dial(t)
	u := FromDesign(design.New("u", "delib", P, []design.Act{dai("u0", "0", P, 0)}))

	res, err := c.CheckType(context.Background(), &TypeRequest{Design: u, Type: "unit"})
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Len(t, res.AnalysisByMethod, 3, "empty method means the configured combined check")

	res, err = c.CheckType(context.Background(), &TypeRequest{Design: u, Type: "nat", Method: "structural"})
	require.NoError(t, err)
	assert.False(t, res.IsValid)
}

func TestAnalyzeOverTheWire(t *testing.T) {
	c := dial(t)
	pos, counters := claim()

	a, err := c.Analyze(context.Background(), &CounterRequest{Design: pos, Counters: counters})
	require.NoError(t, err)
	assert.Equal(t, verdict.ActionWellFormed, a.Verdict.Action)
	assert.Equal(t, []string{"O-left", "O-right"}, a.CounterDesigns)
	require.Len(t, a.Plays, 2)
}

// #endregion call-tests

// #region error-tests
func TestErrorCodes(t *testing.T) {
	c := dial(t)
	pos, counters := claim()
	ctx := context.Background()

	_, err := c.CheckType(ctx, &TypeRequest{Design: pos, Type: "a *"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.CheckType(ctx, &TypeRequest{Design: pos, Type: "unit", Method: "guess"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Step(ctx, &StepRequest{Positive: pos, Negative: counters[0], StartPhase: "X"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Analyze(ctx, &CounterRequest{Design: pos})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.CheckCorrespondence(ctx, &CounterRequest{Design: pos, Counters: []DesignMsg{pos}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestMissingPolarityIsInvalidArgument(t *testing.T) {
	c := dial(t)
	pos, counters := claim()
	ctx := context.Background()
	pos.Polarity = 0

	_, err := c.Analyze(ctx, &CounterRequest{Design: pos, Counters: counters})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Analyze(ctx, &CounterRequest{Design: pos})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.CheckCorrespondence(ctx, &CounterRequest{Design: pos, Counters: counters})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	// The server is still serving.
	good, _ := claim()
	play, err := c.Step(ctx, &StepRequest{Positive: good, Negative: counters[0]})
	require.NoError(t, err)
	assert.Equal(t, dispute.StatusConvergent, play.Status)
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{context.Canceled, codes.Canceled},
		{fmt.Errorf("step: %w", context.DeadlineExceeded), codes.DeadlineExceeded},
		{fmt.Errorf("design x: %w", store.ErrNotFound), codes.NotFound},
		{fmt.Errorf("analyze: %w", correspondence.ErrNoCounterDesigns), codes.InvalidArgument},
		{fmt.Errorf("step all: %w", design.ErrInvalidPolarity), codes.InvalidArgument},
		{status.Error(codes.Unavailable, "down"), codes.Unavailable},
		{errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, status.Code(toStatus(tc.err)), "%v", tc.err)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	pos, _ := claim()
	s, err := encode(pos)
	require.NoError(t, err)
	var back DesignMsg
	require.NoError(t, decode(s, &back))
	assert.Equal(t, pos, back)
}

func TestNewClientLazyDial(t *testing.T) {
	c, err := NewClient("localhost:0")
	require.NoError(t, err, "grpc.NewClient does not connect eagerly")
	require.NoError(t, c.Close())
	assert.NoError(t, NewClientWithConn(nil).Close())
}

// #endregion error-tests
