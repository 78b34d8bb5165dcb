package design

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danielpatrickdp/ludics-engine/internal/locus"
)

// #region design
// Design is one participant's ordered set of acts within a deliberation,
// rooted at locus "0". A Design is read-only once built.
type Design struct {
	ID             string
	DeliberationID string
	Polarity       Polarity
	Acts           []Act

	byLocus map[string]int
	byID    map[string]int
}

// New builds a design, ordering acts by Position (stable for ties) and
// stamping DesignID on each act. The input slice is copied.
func New(id, deliberationID string, pol Polarity, acts []Act) *Design {
	cp := make([]Act, len(acts))
	copy(cp, acts)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Position < cp[j].Position })

	d := &Design{
		ID:             id,
		DeliberationID: deliberationID,
		Polarity:       pol,
		Acts:           cp,
		byLocus:        make(map[string]int, len(cp)),
		byID:           make(map[string]int, len(cp)),
	}
	for i := range d.Acts {
		d.Acts[i].DesignID = id
		d.Acts[i].Ramification = append([]string(nil), d.Acts[i].Ramification...)
		if _, seen := d.byLocus[d.Acts[i].Locus]; !seen {
			d.byLocus[d.Acts[i].Locus] = i
		}
		if d.Acts[i].ID != "" {
			d.byID[d.Acts[i].ID] = i
		}
	}
	return d
}

// #endregion design

// #region lookup
// At returns the first act (in design order) located at path.
func (d *Design) At(path string) (Act, bool) {
	i, ok := d.byLocus[path]
	if !ok {
		return Act{}, false
	}
	return d.Acts[i], true
}

// ActByID returns the act with the given identifier.
func (d *Design) ActByID(id string) (Act, bool) {
	i, ok := d.byID[id]
	if !ok {
		return Act{}, false
	}
	return d.Acts[i], true
}

// Len returns the number of acts.
func (d *Design) Len() int {
	return len(d.Acts)
}

// Root returns the act at the root locus, if any.
func (d *Design) Root() (Act, bool) {
	return d.At(locus.Root)
}

// Loci returns the distinct loci of the design in act order.
func (d *Design) Loci() []string {
	out := make([]string, 0, len(d.byLocus))
	seen := make(map[string]bool, len(d.byLocus))
	for _, a := range d.Acts {
		if !seen[a.Locus] {
			seen[a.Locus] = true
			out = append(out, a.Locus)
		}
	}
	return out
}

// #endregion lookup

// #region validate
// Validate returns every structural defect of the design. An empty result
// means the design is well formed.
func (d *Design) Validate() []Violation {
	var out []Violation
	arena := locus.NewArena()
	occupied := make(map[locus.ID]bool)
	firstAt := make(map[string]int)
	opened := make(map[string]int) // address -> position of the latest act offering it

	for i, a := range d.Acts {
		id, err := arena.Intern(a.Locus)
		if err != nil {
			out = append(out, Violation{Type: ViolationBadPath, ActID: a.ID, Locus: a.Locus, Reason: err.Error()})
			continue
		}

		if !a.Polarity.Valid() || a.Polarity != d.Polarity {
			out = append(out, Violation{
				Type: ViolationPolarity, ActID: a.ID, Locus: a.Locus,
				Reason: fmt.Sprintf("act polarity %s in %s design", a.Polarity, d.Polarity),
			})
		}
		if !a.Kind.Valid() {
			out = append(out, Violation{Type: ViolationKind, ActID: a.ID, Locus: a.Locus, Reason: a.Kind.String()})
		}
		if a.Kind == Daimon && len(a.Ramification) > 0 {
			out = append(out, Violation{
				Type: ViolationDaimonOpens, ActID: a.ID, Locus: a.Locus,
				Reason: fmt.Sprintf("daimon opens %s", strings.Join(a.Ramification, ",")),
			})
		}

		if parent, ok := arena.Parent(id); ok && !occupied[parent] {
			out = append(out, Violation{
				Type: ViolationUnjustified, ActID: a.ID, Locus: a.Locus,
				Reason: fmt.Sprintf("parent %s not opened by an earlier act", arena.Path(parent)),
			})
		}

		if prev, dup := firstAt[a.Locus]; dup {
			// A repeat is licensed only when an act between the two re-offers the locus.
			if pos, reopened := opened[a.Locus]; !reopened || pos <= d.Acts[prev].Position {
				out = append(out, Violation{
					Type: ViolationDuplicate, ActID: a.ID, Locus: a.Locus,
					Reason: fmt.Sprintf("locus already used by act %s", d.Acts[prev].ID),
				})
			}
		} else {
			firstAt[a.Locus] = i
		}

		for _, r := range a.Ramification {
			rid, err := arena.Intern(r)
			if err != nil || !arena.IsChild(id, rid) {
				out = append(out, Violation{
					Type: ViolationBadRamification, ActID: a.ID, Locus: a.Locus,
					Reason: fmt.Sprintf("ramification address %q is not a child of %s", r, a.Locus),
				})
				continue
			}
			opened[r] = a.Position
		}
		occupied[id] = true
	}
	return out
}

// #endregion validate

// #region subdesign
// Subdesign re-roots the acts at or below path onto "0". Ramification
// addresses outside the subtree are dropped.
func (d *Design) Subdesign(path string) *Design {
	var acts []Act
	for _, a := range d.Acts {
		rebased, ok := rebase(path, a.Locus)
		if !ok {
			continue
		}
		cp := a
		cp.Locus = rebased
		cp.Ramification = nil
		for _, r := range a.Ramification {
			if rr, ok := rebase(path, r); ok {
				cp.Ramification = append(cp.Ramification, rr)
			}
		}
		acts = append(acts, cp)
	}
	return New(d.ID+"@"+path, d.DeliberationID, d.Polarity, acts)
}

func rebase(prefix, path string) (string, bool) {
	if path == prefix {
		return locus.Root, true
	}
	if locus.IsAncestorPath(prefix, path) {
		return locus.Root + path[len(prefix):], true
	}
	return "", false
}

// #endregion subdesign
