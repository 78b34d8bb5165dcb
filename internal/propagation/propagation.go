package propagation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/strategy"
)

// point is one decision reduced to what propagation compares.
type point struct {
	chronicle    int
	viewKey      string
	traceKey     string
	locus        string
	continuation string // locus plus sorted ramification
}

// #region check
// Check verifies slice linearity and pair propagation. In light mode only
// the first conflict per prefix is reported; the booleans agree across modes.
// The analysis is computed only in full mode when withAnalysis is set.
func Check(s *strategy.Strategy, mode Mode, withAnalysis bool) Report {
	if mode != ModeFull {
		mode = ModeLight
	}
	r := Report{SatisfiesSliceLinearity: true, SatisfiesPairPropagation: true, Mode: mode}
	if s == nil {
		r.SatisfiesPropagation = true
		return r
	}

	points := collect(s)
	slice := conflicts(s, points, mode, ViolationSliceLinearity,
		func(p point) string { return p.viewKey }, func(p point) string { return p.continuation })
	slice = append(slice, reuse(s)...)
	pair := conflicts(s, points, mode, ViolationPairPropagation,
		func(p point) string { return p.traceKey }, func(p point) string { return p.locus })

	if len(slice) > 0 {
		r.SatisfiesSliceLinearity = false
	}
	if len(pair) > 0 {
		r.SatisfiesPairPropagation = false
	}
	r.Violations = append(slice, pair...)
	r.SatisfiesPropagation = r.SatisfiesSliceLinearity && r.SatisfiesPairPropagation

	if withAnalysis && mode == ModeFull {
		r.Analysis = analyze(s, points)
	}
	return r
}

// #endregion check

// #region collect
func collect(s *strategy.Strategy) []point {
	var out []point
	for _, d := range s.Decisions() {
		c := s.Chronicles[d.Chronicle]
		prefix := c.Moves[:d.Index]
		if d.IsReply {
			prefix = append(append([]dispute.Move(nil), prefix...), c.Moves[d.Index].Bare())
		}
		out = append(out, point{
			chronicle:    d.Chronicle,
			viewKey:      d.ViewKey,
			traceKey:     dispute.Render(prefix, traceWithReply),
			locus:        d.Answer.Locus,
			continuation: continuation(d.Answer),
		})
	}
	return out
}

func traceWithReply(m dispute.Move) string {
	if m.Reply == nil {
		return dispute.TraceKey(m)
	}
	return dispute.TraceKey(m) + "/" + dispute.TraceKey(*m.Reply)
}

func continuation(m dispute.Move) string {
	ram := append([]string(nil), m.Ramification...)
	sort.Strings(ram)
	return m.Locus + "{" + strings.Join(ram, ",") + "}"
}

// #endregion collect

// #region conflicts
// conflicts groups points by key and reports those whose value differs.
// Full mode compares every pair within a group; light mode keeps the first
// value per key and stops at its first disagreement.
func conflicts(s *strategy.Strategy, points []point, mode Mode, typ ViolationType,
	key, value func(point) string) []Violation {
	var out []Violation
	if mode == ModeFull {
		for i := 0; i < len(points); i++ {
			for j := i + 1; j < len(points); j++ {
				a, b := points[i], points[j]
				if key(a) != key(b) || value(a) == value(b) {
					continue
				}
				out = append(out, violation(s, typ, key(a), a, b, value(a), value(b)))
			}
		}
		return out
	}

	first := make(map[string]point)
	done := make(map[string]bool)
	for _, p := range points {
		k := key(p)
		f, ok := first[k]
		if !ok {
			first[k] = p
			continue
		}
		if done[k] || value(f) == value(p) {
			continue
		}
		done[k] = true
		out = append(out, violation(s, typ, k, f, p, value(f), value(p)))
	}
	return out
}

func violation(s *strategy.Strategy, typ ViolationType, prefix string, a, b point, va, vb string) Violation {
	return Violation{
		Type:       typ,
		Prefix:     prefix,
		ChronicleA: s.Chronicles[a.chronicle].ID,
		ChronicleB: s.Chronicles[b.chronicle].ID,
		Reason:     fmt.Sprintf("after %s: %s vs %s", prefix, va, vb),
	}
}

// reuse finds chronicles that open an address twice or play twice at one
// locus.
func reuse(s *strategy.Strategy) []Violation {
	var out []Violation
	for _, c := range s.Chronicles {
		opened := make(map[string]bool)
		played := make(map[string]bool)
		for _, m := range c.Moves {
			own := m
			if m.Polarity != s.Player {
				if m.Reply == nil || m.Reply.Polarity != s.Player {
					continue
				}
				own = *m.Reply
			}
			if played[own.Locus] {
				out = append(out, Violation{
					Type:       ViolationSliceLinearity,
					Prefix:     own.Locus,
					ChronicleA: c.ID,
					Reason:     fmt.Sprintf("two own moves at %s", own.Locus),
				})
			}
			played[own.Locus] = true
			if own.Polarity != m.Polarity {
				continue // a reply's ramification is never offered
			}
			for _, addr := range own.Ramification {
				if opened[addr] {
					out = append(out, Violation{
						Type:       ViolationSliceLinearity,
						Prefix:     addr,
						ChronicleA: c.ID,
						Reason:     fmt.Sprintf("address %s opened twice", addr),
					})
				}
				opened[addr] = true
			}
		}
	}
	return out
}

// #endregion conflicts

// #region analysis
func analyze(s *strategy.Strategy, points []point) *Analysis {
	a := &Analysis{Chronicles: len(s.Chronicles)}
	type acc struct {
		chronicles map[int]bool
		conts      map[string]bool
	}
	groups := make(map[string]*acc)
	var order []string
	for _, p := range points {
		g, ok := groups[p.viewKey]
		if !ok {
			g = &acc{chronicles: make(map[int]bool), conts: make(map[string]bool)}
			groups[p.viewKey] = g
			order = append(order, p.viewKey)
		}
		g.chronicles[p.chronicle] = true
		g.conts[p.continuation] = true
	}
	for _, k := range order {
		g := groups[k]
		conts := make([]string, 0, len(g.conts))
		for c := range g.conts {
			conts = append(conts, c)
		}
		sort.Strings(conts)
		a.Prefixes = append(a.Prefixes, PrefixAnalysis{
			Prefix:        k,
			Chronicles:    len(g.chronicles),
			Continuations: conts,
			Consistent:    len(conts) == 1,
		})
	}

	total := 0
	for i, c := range s.Chronicles {
		n := len(c.Moves)
		total += n
		if i == 0 || n < a.MinDepth {
			a.MinDepth = n
		}
		if n > a.MaxDepth {
			a.MaxDepth = n
		}
	}
	if len(s.Chronicles) > 0 {
		a.MeanDepth = float64(total) / float64(len(s.Chronicles))
	}
	return a
}

// #endregion analysis
