package strategy

import (
	"fmt"
	"sort"

	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
)

// #region check-innocence
// CheckInnocence decides whether the strategy's choices depend only on the
// player's view. Determinism, view stability and saturation are reported
// alongside.
func CheckInnocence(s *Strategy) InnocenceReport {
	r := InnocenceReport{IsInnocent: true, IsDeterministic: true, IsViewStable: true, IsSaturated: true}
	if s == nil {
		return r
	}
	decisions := s.Decisions()

	for _, v := range divergences(s, decisions, ViolationInnocence, func(d Decision) string { return d.ViewKey }) {
		r.IsInnocent = false
		r.Violations = append(r.Violations, v)
	}
	innocence := make(map[string]bool, len(r.Violations))
	for _, v := range r.Violations {
		innocence[v.View+"\x00"+v.MoveA+"\x00"+v.MoveB] = true
	}
	for _, v := range divergences(s, decisions, ViolationDeterminism, func(d Decision) string { return d.HistoryKey }) {
		r.IsDeterministic = false
		// Same finding as an innocence violation when the view is the whole history.
		if innocence[v.View+"\x00"+v.MoveA+"\x00"+v.MoveB] {
			continue
		}
		r.Violations = append(r.Violations, v)
	}
	for _, v := range unstableViews(s) {
		r.IsViewStable = false
		r.Violations = append(r.Violations, v)
	}
	for _, v := range unsaturated(s, decisions) {
		r.IsSaturated = false
		r.Violations = append(r.Violations, v)
	}
	return r
}

// #endregion check-innocence

// #region divergence
// divergences reports one violation per (key, divergent answer): the first
// answer recorded under a key is the reference.
func divergences(s *Strategy, decisions []Decision, typ ViolationType, key func(Decision) string) []Violation {
	type first struct {
		answer    string
		chronicle int
	}
	ref := make(map[string]first)
	reported := make(map[string]bool)
	var out []Violation
	for _, d := range decisions {
		k := key(d)
		ans := dispute.Key(d.Answer)
		f, ok := ref[k]
		if !ok {
			ref[k] = first{answer: ans, chronicle: d.Chronicle}
			continue
		}
		if f.answer == ans || reported[k+"\x00"+ans] {
			continue
		}
		reported[k+"\x00"+ans] = true
		out = append(out, Violation{
			Type:       typ,
			View:       k,
			ChronicleA: s.Chronicles[f.chronicle].ID,
			ChronicleB: s.Chronicles[d.Chronicle].ID,
			MoveA:      f.answer,
			MoveB:      ans,
			Reason:     fmt.Sprintf("%s after %s diverges: %s vs %s", typ, k, f.answer, ans),
		})
	}
	return out
}

// #endregion divergence

// #region view-stability
// unstableViews checks that every recorded view's prefixes ending at own
// moves were themselves recorded.
func unstableViews(s *Strategy) []Violation {
	recorded := make(map[string]bool)
	type entry struct {
		view      []dispute.Move
		chronicle int
	}
	var views []entry
	for ci, c := range s.Chronicles {
		for i := 0; i <= len(c.Moves); i++ {
			v := s.View(c, i)
			k := dispute.Render(v, dispute.FullKey)
			if recorded[k] {
				continue
			}
			recorded[k] = true
			views = append(views, entry{view: v, chronicle: ci})
		}
	}

	var out []Violation
	missing := make(map[string]bool)
	for _, e := range views {
		for j, m := range e.view {
			if m.Polarity != s.Player {
				continue
			}
			prefix := dispute.Render(e.view[:j+1], dispute.FullKey)
			if recorded[prefix] || missing[prefix] {
				continue
			}
			missing[prefix] = true
			out = append(out, Violation{
				Type:       ViolationViewStability,
				View:       dispute.Render(e.view, dispute.FullKey),
				ChronicleA: s.Chronicles[e.chronicle].ID,
				Reason:     fmt.Sprintf("prefix %s is not a recorded view", prefix),
			})
		}
	}
	return out
}

// #endregion view-stability

// #region saturation
// unsaturated checks that every address opened by an own proper move is
// continued by some chronicle that made the same choice on the same view.
func unsaturated(s *Strategy, decisions []Decision) []Violation {
	type group struct {
		first   Decision
		members []Decision
	}
	groups := make(map[string]*group)
	var order []string
	for _, d := range decisions {
		if d.IsReply || d.Answer.IsDaimon() || len(d.Answer.Ramification) == 0 {
			continue
		}
		k := d.ViewKey + "\x00" + dispute.Key(d.Answer)
		g, ok := groups[k]
		if !ok {
			g = &group{first: d}
			groups[k] = g
			order = append(order, k)
		}
		g.members = append(g.members, d)
	}

	var out []Violation
	for _, k := range order {
		g := groups[k]
		covered := make(map[string]bool)
		for _, d := range g.members {
			for _, m := range s.Chronicles[d.Chronicle].Moves[d.Index+1:] {
				covered[m.Locus] = true
			}
		}
		var gaps []string
		for _, addr := range g.first.Answer.Ramification {
			if !covered[addr] {
				gaps = append(gaps, addr)
			}
		}
		sort.Strings(gaps)
		for _, addr := range gaps {
			out = append(out, Violation{
				Type:       ViolationSaturation,
				View:       g.first.ViewKey,
				ChronicleA: s.Chronicles[g.first.Chronicle].ID,
				MoveA:      dispute.Key(g.first.Answer),
				Reason:     fmt.Sprintf("no recorded move at %s opened by %s", addr, dispute.Key(g.first.Answer)),
			})
		}
	}
	return out
}

// #endregion saturation
