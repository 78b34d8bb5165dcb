package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/store"
)

// #region export

// FromDesign writes a design out act by act in position order.
func FromDesign(d *design.Design) FixtureDesign {
	fd := FixtureDesign{ID: d.ID, Deliberation: d.DeliberationID, Polarity: d.Polarity.String()}
	for _, a := range d.Acts {
		fa := FixtureAct{ID: a.ID, Locus: a.Locus, Expression: a.Expression, Ramification: a.Ramification}
		if a.IsDaimon() {
			fa.Kind = "daimon"
		}
		fd.Acts = append(fd.Acts, fa)
	}
	return fd
}

// ExportFixture builds a regression fixture from a store: the designs of one
// deliberation (all when empty) and one scenario per stored dispute between
// two of them, expecting the status and length the dispute was saved with
// under the pair budget it was played with. When every dispute shares one
// budget it also becomes the fixture's engine budget.
func ExportFixture(st *store.Store, deliberation string) (*Fixture, error) {
	designs, err := st.ListDesigns(deliberation)
	if err != nil {
		return nil, err
	}
	if len(designs) == 0 {
		return nil, fmt.Errorf("no designs stored for deliberation %q", deliberation)
	}

	f := &Fixture{Description: fmt.Sprintf("Store export: %d designs", len(designs))}
	if deliberation != "" {
		f.Description += " of deliberation " + deliberation
	}
	known := make(map[string]bool, len(designs))
	for _, d := range designs {
		f.Designs = append(f.Designs, FromDesign(d))
		known[d.ID] = true
	}

	seen := make(map[string]bool)
	budgets := make(map[int]bool)
	for _, d := range designs {
		if d.Polarity != design.Positive {
			continue
		}
		plays, err := st.ListDisputes(d.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range plays {
			if seen[p.ID] || !known[p.PositiveDesignID] || !known[p.NegativeDesignID] {
				continue
			}
			seen[p.ID] = true
			budgets[p.MaxPairs] = true
			pairs := p.Length()
			f.Scenarios = append(f.Scenarios, FixtureScenario{
				Name:       fmt.Sprintf("%s_vs_%s_%s", p.PositiveDesignID, p.NegativeDesignID, shortID(p.ID)),
				Positive:   p.PositiveDesignID,
				Negative:   p.NegativeDesignID,
				StartPhase: p.StartPhase.String(),
				MaxPairs:   p.MaxPairs,
				Expect:     ExpectedPlay{Status: string(p.Status), Pairs: &pairs},
			})
		}
	}
	if len(budgets) == 1 {
		for b := range budgets {
			f.Config.MaxPairs = b
		}
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("exported fixture: %w", err)
	}
	return f, nil
}

// WriteFixture writes f to path, as JSON when the path ends in .json and
// as YAML otherwise.
func WriteFixture(f *Fixture, path string) error {
	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(f, "", "  ")
	} else {
		data, err = yaml.Marshal(f)
	}
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion export
