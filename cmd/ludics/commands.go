package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/ludics-engine/internal/config"
	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/engine"
	"github.com/danielpatrickdp/ludics-engine/internal/logging"
	"github.com/danielpatrickdp/ludics-engine/internal/propagation"
	"github.com/danielpatrickdp/ludics-engine/internal/replay"
	"github.com/danielpatrickdp/ludics-engine/internal/rpc"
	"github.com/danielpatrickdp/ludics-engine/internal/store"
	"github.com/danielpatrickdp/ludics-engine/internal/typing"
)

// #region session
// session holds what every subcommand needs: the fixture's designs and a
// backend that is either a local engine or a remote ludicsd.
type session struct {
	fixturePath string
	dbPath      string
	remote      string
	logLevel    string
	jsonOut     bool
	force       bool

	designs map[string]rpc.DesignMsg
	order   []string
	backend rpc.EngineServer
	closers []func() error
}

func (s *session) open() error {
	f, err := replay.LoadFixture(s.fixturePath)
	if err != nil {
		return err
	}
	s.designs = make(map[string]rpc.DesignMsg, len(f.Designs))
	for i := range f.Designs {
		d, err := f.Designs[i].ToDesign()
		if err != nil {
			return err
		}
		s.designs[d.ID] = rpc.FromDesign(d)
		s.order = append(s.order, d.ID)
	}

	if s.remote != "" {
		c, err := rpc.NewClient(s.remote)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, c.Close)
		s.backend = c
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := zap.NewNop()
	if s.logLevel != "off" {
		if log, err = logging.NewLogger(s.logLevel, false); err != nil {
			return err
		}
		s.closers = append(s.closers, func() error { _ = log.Sync(); return nil })
	}

	opts := engine.Options{
		Config:     f.Config.EngineConfig(engine.FromConfig(cfg)),
		Logger:     log,
		Registerer: prometheus.NewRegistry(),
	}
	if s.dbPath != "" {
		st, err := store.NewStore(s.dbPath)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, st.Close)
		opts.Store = st
	}
	s.backend = rpc.NewServer(engine.New(opts), log)
	return nil
}

func (s *session) close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

func (s *session) design(id string) (rpc.DesignMsg, error) {
	d, ok := s.designs[id]
	if !ok {
		return rpc.DesignMsg{}, fmt.Errorf("design %q is not in %s", id, s.fixturePath)
	}
	return d, nil
}

// counters resolves explicit ids, or else every fixture design of the same
// deliberation with the opposite polarity.
func (s *session) counters(d rpc.DesignMsg, ids []string) ([]rpc.DesignMsg, error) {
	var out []rpc.DesignMsg
	if len(ids) > 0 {
		for _, id := range ids {
			c, err := s.design(id)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	}
	if !d.Polarity.Valid() {
		return nil, fmt.Errorf("counter-designs of %s: %w", d.ID, design.ErrInvalidPolarity)
	}
	for _, id := range s.order {
		c := s.designs[id]
		if c.ID != d.ID && c.Deliberation == d.Deliberation && c.Polarity == d.Polarity.Opposite() {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no counter-designs for %s in %s", d.ID, s.fixturePath)
	}
	return out, nil
}

// emit prints v as indented JSON, or the text summary when one is given
// and --json is off.
func (s *session) emit(w io.Writer, v any, text func(io.Writer)) error {
	if s.jsonOut || text == nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

// #endregion session

// #region root
// execute runs the CLI with args, closing the session's engine, store and
// connection whether or not the command succeeds.
func execute(args []string, out io.Writer) error {
	s := &session{}
	root := newRootCmd(s)
	root.SetArgs(args)
	root.SetOut(out)
	err := root.Execute()
	if cerr := s.close(); err == nil {
		err = cerr
	}
	return err
}

func newRootCmd(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:           "ludics",
		Short:         "Run ludics interaction checks on the designs of a fixture file",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&s.fixturePath, "fixture", "f", "", "fixture YAML or JSON holding the designs")
	pf.StringVar(&s.dbPath, "db", "", "database to persist designs, disputes, results and the check log")
	pf.StringVar(&s.remote, "remote", "", "address of a ludicsd to run checks on instead of locally")
	pf.StringVar(&s.logLevel, "log-level", "off", "engine log level (debug, info, warn, error, off)")
	pf.BoolVar(&s.jsonOut, "json", false, "print full reports as JSON")
	pf.BoolVar(&s.force, "force", false, "bypass cached results")
	_ = root.MarkPersistentFlagRequired("fixture")

	root.AddCommand(
		newStepCmd(s),
		newLegalityCmd(s),
		newInnocenceCmd(s),
		newPropagationCmd(s),
		newCorrespondenceCmd(s),
		newTypeCmd(s),
		newAnalyzeCmd(s),
		newDesignsCmd(s),
	)
	return root
}

// #endregion root

// #region commands
func newStepCmd(s *session) *cobra.Command {
	var (
		start    string
		maxPairs int
	)
	cmd := &cobra.Command{
		Use:   "step <positive> <negative>",
		Short: "Step a positive design against a negative one and print the dispute",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := s.design(args[0])
			if err != nil {
				return err
			}
			neg, err := s.design(args[1])
			if err != nil {
				return err
			}
			play, err := s.backend.Step(cmd.Context(), &rpc.StepRequest{Positive: pos, Negative: neg, StartPhase: start, MaxPairs: maxPairs})
			if err != nil {
				return err
			}
			return s.emit(cmd.OutOrStdout(), play, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %s after %d pairs", play.ID, play.Status, play.Length())
				if play.Reason != "" {
					fmt.Fprintf(w, " (%s)", play.Reason)
				}
				fmt.Fprintln(w)
				for _, p := range play.Pairs {
					fmt.Fprintf(w, "  %2d  %-8s  %s  %s / %s\n", p.Index, p.Locus, p.Actor, p.PositiveActID, p.NegativeActID)
				}
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "P", "polarity that moves first (P or O)")
	cmd.Flags().IntVar(&maxPairs, "max-pairs", 0, "pair budget (default from LUDICS_MAX_PAIRS)")
	return cmd
}

func newLegalityCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "legality <positive> <negative>",
		Short: "Step two designs and check the dispute for legality",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := s.design(args[0])
			if err != nil {
				return err
			}
			neg, err := s.design(args[1])
			if err != nil {
				return err
			}
			play, err := s.backend.Step(cmd.Context(), &rpc.StepRequest{Positive: pos, Negative: neg})
			if err != nil {
				return err
			}
			rep, err := s.backend.CheckLegality(cmd.Context(), &rpc.LegalityRequest{Play: play, Force: s.force})
			if err != nil {
				return err
			}
			return s.emit(cmd.OutOrStdout(), rep, func(w io.Writer) {
				fmt.Fprintf(w, "legal=%v linear=%v parity=%v justified=%v visible=%v\n",
					rep.IsLegal(), rep.IsLinear, rep.IsParity, rep.IsJustified, rep.IsVisible)
				for _, v := range rep.Violations {
					fmt.Fprintf(w, "  %s at pair %d (%s): %s\n", v.Predicate, v.PairIndex, v.Locus, v.Reason)
				}
			})
		},
	}
}

// strategyRequest steps d against its counters to collect the disputes its
// strategy is extracted from.
func (s *session) strategyRequest(cmd *cobra.Command, args []string) (*rpc.StrategyRequest, error) {
	d, err := s.design(args[0])
	if err != nil {
		return nil, err
	}
	counters, err := s.counters(d, args[1:])
	if err != nil {
		return nil, err
	}
	req := &rpc.StrategyRequest{Design: d, Force: s.force}
	for _, c := range counters {
		step := &rpc.StepRequest{Positive: d, Negative: c}
		if d.Polarity == design.Negative {
			step.Positive, step.Negative = c, d
		}
		play, err := s.backend.Step(cmd.Context(), step)
		if err != nil {
			return nil, err
		}
		req.Disputes = append(req.Disputes, play)
	}
	return req, nil
}

func newInnocenceCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "innocence <design> [counter...]",
		Short: "Extract a design's strategy and check it for innocence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := s.strategyRequest(cmd, args)
			if err != nil {
				return err
			}
			rep, err := s.backend.CheckInnocence(cmd.Context(), req)
			if err != nil {
				return err
			}
			return s.emit(cmd.OutOrStdout(), rep, func(w io.Writer) {
				r := rep.Report
				fmt.Fprintf(w, "%s (%d chronicles): innocent=%v deterministic=%v view_stable=%v saturated=%v\n",
					rep.StrategyID, rep.Chronicles, r.IsInnocent, r.IsDeterministic, r.IsViewStable, r.IsSaturated)
				for _, v := range r.Violations {
					fmt.Fprintf(w, "  %s at view %s\n", v.Type, v.View)
				}
			})
		},
	}
}

func newPropagationCmd(s *session) *cobra.Command {
	var (
		mode     string
		analysis bool
	)
	cmd := &cobra.Command{
		Use:   "propagation <design> [counter...]",
		Short: "Extract a design's strategy and check it for propagation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := s.strategyRequest(cmd, args)
			if err != nil {
				return err
			}
			if mode != "" {
				req.Mode = propagation.ParseMode(mode)
			}
			req.Analysis = analysis
			rep, err := s.backend.CheckPropagation(cmd.Context(), req)
			if err != nil {
				return err
			}
			return s.emit(cmd.OutOrStdout(), rep, func(w io.Writer) {
				fmt.Fprintf(w, "propagation=%v slice_linearity=%v pair_propagation=%v (%s)\n",
					rep.SatisfiesPropagation, rep.SatisfiesSliceLinearity, rep.SatisfiesPairPropagation, rep.Mode)
				for _, v := range rep.Violations {
					fmt.Fprintf(w, "  %s at %s: %s\n", v.Type, v.Prefix, v.Reason)
				}
				if rep.Analysis != nil {
					fmt.Fprintf(w, "  %d prefixes analysed\n", len(rep.Analysis.Prefixes))
				}
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "full or light (default from LUDICS_PROPAGATION_MODE)")
	cmd.Flags().BoolVar(&analysis, "analysis", false, "include the prefix analysis (full mode only)")
	return cmd
}

func newCorrespondenceCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "correspondence <design> [counter...]",
		Short: "Verify a design against the strategy extracted from its disputes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := s.design(args[0])
			if err != nil {
				return err
			}
			counters, err := s.counters(d, args[1:])
			if err != nil {
				return err
			}
			rep, err := s.backend.CheckCorrespondence(cmd.Context(), &rpc.CounterRequest{Design: d, Counters: counters, Force: s.force})
			if err != nil {
				return err
			}
			return s.emit(cmd.OutOrStdout(), rep, func(w io.Writer) {
				fmt.Fprintf(w, "all_hold=%v structural=%v\n", rep.AllHold, rep.StructuralIsomorphism.Holds)
				for _, id := range rep.FailingCounterDesigns {
					fmt.Fprintf(w, "  failing counter-design %s\n", id)
				}
			})
		},
	}
}

func newTypeCmd(s *session) *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "type <design> <type>",
		Short: "Check whether a design inhabits a type such as \"x * unit\"",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := s.design(args[0])
			if err != nil {
				return err
			}
			res, err := s.backend.CheckType(cmd.Context(), &rpc.TypeRequest{Design: d, Type: args[1], Method: method, Force: s.force})
			if err != nil {
				return err
			}
			return s.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintf(w, "%s : %s valid=%v confidence=%.3f (%s)\n", d.ID, res.Type, res.IsValid, res.Confidence, res.Method)
				for _, m := range []typing.Method{typing.MethodStructural, typing.MethodInference, typing.MethodOrthogonality} {
					if a, ok := res.AnalysisByMethod[m]; ok {
						fmt.Fprintf(w, "  %-13s holds=%v %d/%d\n", m, a.Holds, a.Satisfied, a.Checked)
					}
				}
			})
		},
	}
	cmd.Flags().StringVar(&method, "method", "", "structural, inference, orthogonality or combined")
	return cmd
}

func newAnalyzeCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <design> [counter...]",
		Short: "Run every check on a design and print the verdict",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := s.design(args[0])
			if err != nil {
				return err
			}
			counters, err := s.counters(d, args[1:])
			if err != nil {
				return err
			}
			a, err := s.backend.Analyze(cmd.Context(), &rpc.CounterRequest{Design: d, Counters: counters, Force: s.force})
			if err != nil {
				return err
			}
			return s.emit(cmd.OutOrStdout(), a, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %s (soft score %.2f) %s\n", a.DesignID, a.Verdict.Action, a.Verdict.SoftScore, a.Verdict.Reason)
				for i, p := range a.Plays {
					fmt.Fprintf(w, "  vs %-12s %s after %d pairs, legal=%v\n",
						a.CounterDesigns[i], p.Status, p.Length(), a.Legality[i].IsLegal())
				}
			})
		},
	}
}

func newDesignsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "designs",
		Short: "List the designs of the fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := make([]rpc.DesignMsg, 0, len(s.order))
			for _, id := range s.order {
				out = append(out, s.designs[id])
			}
			return s.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				for _, d := range out {
					fmt.Fprintf(w, "%-12s %s  %-10s %d acts\n", d.ID, d.Polarity, d.Deliberation, len(d.Acts))
				}
			})
		},
	}
}

// #endregion commands

