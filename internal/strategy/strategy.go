package strategy

import (
	"fmt"
	"strconv"

	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
)

// #region extract
// Extract builds the strategy of d playing player from the disputes d took
// part in. Every dispute must name d on the player's side and every own act
// it mentions must exist in d.
func Extract(d *design.Design, player design.Polarity, disputes []*dispute.Play, cfg Config) (*Strategy, error) {
	if d == nil {
		return nil, fmt.Errorf("extract strategy: nil design")
	}
	if !player.Valid() {
		return nil, fmt.Errorf("extract strategy: invalid player %s", player)
	}
	if cfg.Window < 0 {
		cfg.Window = 0
	}

	idParts := []string{d.ID, player.String(), strconv.Itoa(cfg.Window)}
	chronicles := make([]Chronicle, 0, len(disputes))
	for _, play := range disputes {
		if play == nil {
			continue
		}
		if play.DesignID(player) != d.ID {
			return nil, fmt.Errorf("dispute %s: %s side is %q, not %q: %w",
				play.ID, player, play.DesignID(player), d.ID, ErrForeignDispute)
		}
		moves, err := ownMoves(d, player, play)
		if err != nil {
			return nil, fmt.Errorf("dispute %s: %w", play.ID, err)
		}
		chronicles = append(chronicles, Chronicle{
			ID:        dispute.DeriveID("chronicle", d.ID, player.String(), play.ID, strconv.Itoa(len(chronicles))),
			DisputeID: play.ID,
			Player:    player,
			Moves:     moves,
		})
		idParts = append(idParts, play.ID)
	}

	return &Strategy{
		ID:         dispute.DeriveID("strategy", idParts...),
		DesignID:   d.ID,
		Player:     player,
		Window:     cfg.Window,
		Chronicles: chronicles,
	}, nil
}

// ownMoves deep-copies the play's moves and refreshes the player's acts
// from the design.
func ownMoves(d *design.Design, player design.Polarity, play *dispute.Play) ([]dispute.Move, error) {
	out := make([]dispute.Move, 0, len(play.Moves))
	for _, m := range play.Moves {
		cp := m.Bare()
		cp.Ramification = append([]string(nil), m.Ramification...)
		if cp.Polarity == player {
			fresh, err := refresh(d, cp)
			if err != nil {
				return nil, err
			}
			cp = fresh
		}
		if m.Reply != nil {
			r := m.Reply.Bare()
			r.Ramification = append([]string(nil), m.Reply.Ramification...)
			if r.Polarity == player {
				fresh, err := refresh(d, r)
				if err != nil {
					return nil, err
				}
				r = fresh
			}
			cp.Reply = &r
		}
		out = append(out, cp)
	}
	return out, nil
}

func refresh(d *design.Design, m dispute.Move) (dispute.Move, error) {
	a, ok := d.ActByID(m.ActID)
	if !ok {
		return dispute.Move{}, fmt.Errorf("act %q at %s: %w", m.ActID, m.Locus, ErrUnknownAct)
	}
	return dispute.MoveFromAct(a), nil
}

// #endregion extract

// #region decisions
// View returns the player's view of the first upto moves of chronicle c.
func (s *Strategy) View(c Chronicle, upto int) []dispute.Move {
	if upto > len(c.Moves) {
		upto = len(c.Moves)
	}
	return dispute.View(c.Moves[:upto], s.Player, s.Window)
}

// Decisions lists every decision point of every chronicle in order.
func (s *Strategy) Decisions() []Decision {
	var out []Decision
	for ci, c := range s.Chronicles {
		for i, m := range c.Moves {
			switch {
			case m.Polarity == s.Player:
				view := s.View(c, i)
				out = append(out, Decision{
					Chronicle:  ci,
					Index:      i,
					View:       view,
					ViewKey:    dispute.Render(view, dispute.FullKey),
					HistoryKey: dispute.Render(c.Moves[:i], dispute.FullKey),
					Answer:     m.Bare(),
				})
			case m.Reply != nil && m.Reply.Polarity == s.Player:
				prefix := append(append([]dispute.Move(nil), c.Moves[:i]...), m.Bare())
				view := dispute.View(prefix, s.Player, s.Window)
				out = append(out, Decision{
					Chronicle:  ci,
					Index:      i,
					View:       view,
					ViewKey:    dispute.Render(view, dispute.FullKey),
					HistoryKey: dispute.Render(prefix, dispute.FullKey),
					Answer:     *m.Reply,
					IsReply:    true,
				})
			}
		}
	}
	return out
}

// MaximalViews returns the views of complete chronicles that are not a
// strict prefix of another chronicle's complete view.
func (s *Strategy) MaximalViews() []string {
	var keys []string
	var views [][]dispute.Move
	seen := make(map[string]bool)
	for _, c := range s.Chronicles {
		v := s.View(c, len(c.Moves))
		k := dispute.Render(v, dispute.FullKey)
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
		views = append(views, v)
	}
	var out []string
	for i, v := range views {
		maximal := true
		for j, w := range views {
			if i != j && len(w) > len(v) && dispute.Render(w[:len(v)], dispute.FullKey) == keys[i] {
				maximal = false
				break
			}
		}
		if maximal {
			out = append(out, keys[i])
		}
	}
	return out
}

// #endregion decisions
