package stepper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/locus"
)

// #region step
// Step plays a positive design against a negative one until the play
// converges, gets stuck or spends maxPairs pairs. A maxPairs of zero or less
// means DefaultMaxPairs, and an invalid startPhase means Positive.
func Step(pos, neg *design.Design, startPhase design.Polarity, maxPairs int) *dispute.Play {
	cfg := DefaultConfig()
	if startPhase.Valid() {
		cfg.StartPhase = startPhase
	}
	cfg.MaxPairs = maxPairs
	return Run(DesignSource{Design: pos}, DesignSource{Design: neg}, cfg)
}

// Run drives an interaction between two sources to a terminal status.
func Run(pos, neg Source, cfg Config) *dispute.Play {
	it := NewInteraction(pos, neg, cfg)
	for !it.Advance().Terminal() {
	}
	return it.Play()
}

// #endregion step

// #region interaction
// Interaction is a play in progress. Each Advance performs at most one pair.
type Interaction struct {
	pos, neg Source
	mover    design.Polarity
	focus    []string
	closed   map[string]bool
	play     *dispute.Play
}

// NewInteraction prepares a play; nothing is looked up until Advance.
func NewInteraction(pos, neg Source, cfg Config) *Interaction {
	if cfg.MaxPairs <= 0 {
		cfg.MaxPairs = DefaultMaxPairs
	}
	if !cfg.StartPhase.Valid() {
		cfg.StartPhase = design.Positive
	}
	if cfg.StartLocus == "" {
		cfg.StartLocus = locus.Root
	}
	return &Interaction{
		pos:    pos,
		neg:    neg,
		mover:  cfg.StartPhase,
		focus:  []string{cfg.StartLocus},
		closed: make(map[string]bool),
		play: &dispute.Play{
			ID: dispute.DeriveID("play",
				pos.DesignID(), neg.DesignID(), cfg.StartPhase.String(), cfg.StartLocus, strconv.Itoa(cfg.MaxPairs)),
			PositiveDesignID: pos.DesignID(),
			NegativeDesignID: neg.DesignID(),
			StartPhase:       cfg.StartPhase,
			StartLocus:       cfg.StartLocus,
			MaxPairs:         cfg.MaxPairs,
			Pairs:            []dispute.Pair{},
			Moves:            []dispute.Move{},
			Status:           dispute.StatusOngoing,
		},
	}
}

// Play returns the play so far. It is owned by the interaction until the
// status is terminal.
func (it *Interaction) Play() *dispute.Play {
	return it.play
}

// Mover returns the polarity expected to act next.
func (it *Interaction) Mover() design.Polarity {
	return it.mover
}

// Focus returns the addresses the next mover may act at.
func (it *Interaction) Focus() []string {
	return append([]string(nil), it.focus...)
}

func (it *Interaction) source(p design.Polarity) Source {
	if p == design.Positive {
		return it.pos
	}
	return it.neg
}

func (it *Interaction) finish(s dispute.Status, reason string) dispute.Status {
	it.play.Status = s
	it.play.Reason = reason
	return s
}

// #endregion interaction

// #region advance
// Advance performs one turn and returns the resulting status.
func (it *Interaction) Advance() dispute.Status {
	if it.play.Status.Terminal() {
		return it.play.Status
	}
	mover := it.mover
	src := it.source(mover)
	other := it.source(mover.Opposite())

	act, at, reused, found := it.choose(src)
	if !found {
		// The respondent may close the branch with a daimon of its own.
		for _, addr := range it.focus {
			if it.closed[addr] {
				continue
			}
			if d, ok := other.Lookup(addr, it.play.Moves, RoleDriver); ok && d.IsDaimon() {
				it.play.Moves = append(it.play.Moves, dispute.MoveFromAct(d))
				return it.finish(dispute.StatusConvergent,
					fmt.Sprintf("%s daimon at %s", mover.Opposite(), addr))
			}
		}
		if reused != "" {
			return it.finish(dispute.StatusStuck,
				fmt.Sprintf("%s would reuse closed address %s", mover, reused))
		}
		return it.finish(dispute.StatusStuck,
			fmt.Sprintf("%s has no act at %s", mover, strings.Join(it.focus, ",")))
	}

	switch act.Kind {
	case design.Daimon:
		it.play.Moves = append(it.play.Moves, dispute.MoveFromAct(act))
		return it.finish(dispute.StatusConvergent, fmt.Sprintf("%s daimon at %s", mover, at))

	case design.Proper:
		driven := dispute.MoveFromAct(act)
		pending := append(append([]dispute.Move(nil), it.play.Moves...), driven)
		reply, ok := other.Lookup(at, pending, RoleRespondent)
		if !ok {
			return it.finish(dispute.StatusStuck,
				fmt.Sprintf("%s has no reply at %s", mover.Opposite(), at))
		}
		if len(it.play.Pairs) >= it.play.MaxPairs {
			return it.finish(dispute.StatusDivergent,
				fmt.Sprintf("pair budget %d spent", it.play.MaxPairs))
		}

		pair := dispute.Pair{Locus: at, Index: len(it.play.Pairs), Actor: mover}
		if mover == design.Positive {
			pair.PositiveActID, pair.NegativeActID = act.ID, reply.ID
		} else {
			pair.PositiveActID, pair.NegativeActID = reply.ID, act.ID
		}
		r := dispute.MoveFromAct(reply)
		driven.Reply = &r
		it.play.Pairs = append(it.play.Pairs, pair)
		it.play.Moves = append(it.play.Moves, driven)
		it.closed[at] = true

		if reply.IsDaimon() {
			return it.finish(dispute.StatusConvergent,
				fmt.Sprintf("%s daimon at %s", mover.Opposite(), at))
		}
		if len(act.Ramification) == 0 {
			return it.finish(dispute.StatusStuck,
				fmt.Sprintf("%s act %s at %s opens no address", mover, act.ID, at))
		}
		it.focus = append([]string(nil), act.Ramification...)
		it.mover = mover.Opposite()
		return dispute.StatusOngoing
	}
	return it.finish(dispute.StatusStuck, fmt.Sprintf("act %s has unknown kind %s", act.ID, act.Kind))
}

// choose picks the first open focus address the source can act at. An act
// found only at closed addresses is reported as reused.
func (it *Interaction) choose(src Source) (design.Act, string, string, bool) {
	reused := ""
	for _, addr := range it.focus {
		a, ok := src.Lookup(addr, it.play.Moves, RoleDriver)
		if !ok {
			continue
		}
		if it.closed[addr] {
			if reused == "" {
				reused = addr
			}
			continue
		}
		return a, addr, "", true
	}
	return design.Act{}, "", reused, false
}

// #endregion advance
