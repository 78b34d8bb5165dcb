package strategy

import (
	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/stepper"
)

// #region replayer
// Replayer answers stepper lookups from a strategy's recorded decisions.
// When a view has several recorded answers at a locus the earliest wins.
type Replayer struct {
	strategy *Strategy
	driven   map[string]dispute.Move // view key + locus -> own move
	replies  map[string]dispute.Move // view key + locus -> own reply
}

// Source indexes the strategy for replay against a counter-design.
func (s *Strategy) Source() *Replayer {
	r := &Replayer{
		strategy: s,
		driven:   make(map[string]dispute.Move),
		replies:  make(map[string]dispute.Move),
	}
	for _, d := range s.Decisions() {
		k := d.ViewKey + "\x00" + d.Answer.Locus
		table := r.driven
		if d.IsReply {
			table = r.replies
		}
		if _, ok := table[k]; !ok {
			table[k] = d.Answer
		}
	}
	return r
}

func (r *Replayer) DesignID() string {
	return r.strategy.DesignID
}

func (r *Replayer) Lookup(path string, history []dispute.Move, role stepper.Role) (design.Act, bool) {
	view := dispute.View(history, r.strategy.Player, r.strategy.Window)
	k := dispute.Render(view, dispute.FullKey) + "\x00" + path
	table := r.driven
	if role == stepper.RoleRespondent {
		table = r.replies
	}
	m, ok := table[k]
	if !ok {
		return design.Act{}, false
	}
	return m.Act(r.strategy.DesignID), true
}

var _ stepper.Source = (*Replayer)(nil)

// #endregion replayer
