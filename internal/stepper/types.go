package stepper

import (
	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/locus"
)

// DefaultMaxPairs bounds a play when the caller passes a non-positive budget.
const DefaultMaxPairs = 256

// #region role
// Role tells a Source whether it is asked for a driving act or for a reply
// to the opponent's pending act at the same locus.
type Role uint8

const (
	RoleDriver Role = iota + 1
	RoleRespondent
)

func (r Role) String() string {
	switch r {
	case RoleDriver:
		return "driver"
	case RoleRespondent:
		return "respondent"
	}
	return "unknown"
}

// #endregion role

// #region source
// Source supplies acts to the stepper. history holds the moves played so far;
// for a respondent lookup it ends with the opponent's pending move.
type Source interface {
	DesignID() string
	Lookup(path string, history []dispute.Move, role Role) (design.Act, bool)
}

// DesignSource answers from a design's act table, ignoring history.
type DesignSource struct {
	Design *design.Design
}

func (s DesignSource) DesignID() string {
	return s.Design.ID
}

func (s DesignSource) Lookup(path string, _ []dispute.Move, _ Role) (design.Act, bool) {
	return s.Design.At(path)
}

// #endregion source

// #region config
// Config controls one interaction.
type Config struct {
	StartPhase design.Polarity // who moves first
	StartLocus string          // initial focus
	MaxPairs   int             // pair budget; <= 0 means DefaultMaxPairs
}

// DefaultConfig starts with the Proponent at the root.
func DefaultConfig() Config {
	return Config{
		StartPhase: design.Positive,
		StartLocus: locus.Root,
		MaxPairs:   DefaultMaxPairs,
	}
}

// #endregion config
