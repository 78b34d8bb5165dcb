package dispute

import (
	"strings"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/locus"
)

// DaimonMark stands in for the expression of a daimon in move keys.
const DaimonMark = "†"

// #region ids
var namespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("ludics-engine"))

// DeriveID returns a name-based UUID (v5) for kind and parts, so identical
// inputs always yield identical identifiers.
func DeriveID(kind string, parts ...string) string {
	return uuid.NewSHA1(namespace, []byte(kind+"\x00"+strings.Join(parts, "\x00"))).String()
}

// #endregion ids

// #region move-helpers
// MoveFromAct copies an act into a move without a reply.
func MoveFromAct(a design.Act) Move {
	return Move{
		Polarity:     a.Polarity,
		ActID:        a.ID,
		Locus:        a.Locus,
		Kind:         a.Kind,
		Expression:   a.Expression,
		Ramification: append([]string(nil), a.Ramification...),
	}
}

// Act converts the move back into an act of the given design.
func (m Move) Act(designID string) design.Act {
	return design.Act{
		ID:           m.ActID,
		DesignID:     designID,
		Locus:        m.Locus,
		Polarity:     m.Polarity,
		Kind:         m.Kind,
		Expression:   m.Expression,
		Ramification: append([]string(nil), m.Ramification...),
	}
}

// Bare returns the move without its reply.
func (m Move) Bare() Move {
	m.Reply = nil
	return m
}

// IsDaimon reports whether the move terminates its branch.
func (m Move) IsDaimon() bool {
	return m.Kind == design.Daimon
}

// #endregion move-helpers

// #region keys
// Key identifies a move by owner, locus and content: "P:0.1:claim".
func Key(m Move) string {
	expr := m.Expression
	if m.IsDaimon() {
		expr = DaimonMark
	}
	return m.Polarity.String() + ":" + m.Locus + ":" + expr
}

// FullKey is Key extended with the reply, if any: "P:0:claim/O:0:ack".
func FullKey(m Move) string {
	if m.Reply == nil {
		return Key(m)
	}
	return Key(m) + "/" + Key(*m.Reply)
}

// TraceKey identifies a move by owner and locus only: "P:0.1".
func TraceKey(m Move) string {
	return m.Polarity.String() + ":" + m.Locus
}

// Render joins move keys into a bracketed sequence, "[P:0:a O:0.1:b]".
func Render(moves []Move, key func(Move) string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, m := range moves {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(key(m))
	}
	b.WriteByte(']')
	return b.String()
}

// #endregion keys

// #region view
// View is the subsequence of moves a player sees: every own move, and after
// each own move (or at the start) the first opponent move, kept only when it
// is seen. An opponent move is seen when its locus equals or is a child of a
// kept own locus, or when it is among the last window opponent moves.
func View(moves []Move, player design.Polarity, window int) []Move {
	if window < 0 {
		window = 0
	}
	opponentTotal := 0
	for _, m := range moves {
		if m.Polarity != player {
			opponentTotal++
		}
	}

	out := make([]Move, 0, len(moves))
	ownLoci := make(map[string]bool)
	awaiting := true // next opponent move is the first after an own move
	opponentSeen := 0
	for _, m := range moves {
		if m.Polarity == player {
			out = append(out, m)
			ownLoci[m.Locus] = true
			awaiting = true
			continue
		}
		opponentSeen++
		if !awaiting {
			continue
		}
		awaiting = false
		recent := opponentTotal-opponentSeen < window
		if recent || ownLoci[m.Locus] || ownLoci[locus.ParentPath(m.Locus)] {
			out = append(out, m)
		}
	}
	return out
}

// #endregion view
