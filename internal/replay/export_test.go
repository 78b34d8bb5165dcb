package replay

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/engine"
	"github.com/danielpatrickdp/ludics-engine/internal/store"
)

// #region export-tests

// replayIntoStore runs the session fixture against a fresh database so the
// store holds its designs and disputes.
func replayIntoStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "export.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	f, err := LoadFixture(filepath.Join("testdata", "session.yaml"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	eng := engine.New(engine.Options{Config: f.Config.EngineConfig(engine.DefaultConfig()), Store: st})
	if _, err := Replay(context.Background(), eng, f); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	return st
}

func TestExportFixture_FromStore(t *testing.T) {
	st := replayIntoStore(t)

	f, err := ExportFixture(st, "policy")
	if err != nil {
		t.Fatalf("ExportFixture: %v", err)
	}
	if len(f.Designs) != 5 {
		t.Fatalf("expected the 5 policy designs, got %d", len(f.Designs))
	}
	var found bool
	for _, sc := range f.Scenarios {
		if sc.Positive == "claim" && sc.Negative == "O-left" {
			found = true
			if sc.Expect.Status != string(dispute.StatusConvergent) || sc.Expect.Pairs == nil || *sc.Expect.Pairs != 2 {
				t.Fatalf("claim vs O-left exported as %+v", sc.Expect)
			}
		}
	}
	if !found {
		t.Fatalf("claim vs O-left missing from %d scenarios", len(f.Scenarios))
	}

	// The exported fixture replays cleanly against a fresh engine.
	results, err := Replay(context.Background(), engine.New(engine.Options{}), f)
	if err != nil {
		t.Fatalf("Replay export: %v", err)
	}
	if s := Summarize(results); s.Failed != 0 || s.Total != len(f.Scenarios) {
		t.Fatalf("exported fixture replay: %+v", s)
	}
}

func TestExportFixture_KeepsPairBudget(t *testing.T) {
	st, err := store.NewStore(filepath.Join(t.TempDir(), "budget.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	f, err := LoadFixture(filepath.Join("testdata", "session.yaml"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	designs := make(map[string]*design.Design)
	for i := range f.Designs {
		d, err := f.Designs[i].ToDesign()
		if err != nil {
			t.Fatalf("ToDesign: %v", err)
		}
		designs[d.ID] = d
	}

	// claim vs O-left needs two pairs, so a budget of one spends out.
	cfg := engine.DefaultConfig()
	cfg.MaxPairs = 1
	eng := engine.New(engine.Options{Config: cfg, Store: st})
	play, err := eng.Step(context.Background(), designs["claim"], designs["O-left"], design.Positive, 0)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if play.Status != dispute.StatusDivergent || play.MaxPairs != 1 {
		t.Fatalf("expected DIVERGENT under budget 1, got %s with budget %d", play.Status, play.MaxPairs)
	}

	out, err := ExportFixture(st, "policy")
	if err != nil {
		t.Fatalf("ExportFixture: %v", err)
	}
	if out.Config.MaxPairs != 1 {
		t.Fatalf("expected fixture budget 1, got %d", out.Config.MaxPairs)
	}
	if len(out.Scenarios) != 1 || out.Scenarios[0].MaxPairs != 1 {
		t.Fatalf("expected one scenario with budget 1, got %+v", out.Scenarios)
	}

	// A default engine still replays the divergent play as saved.
	results, err := Replay(context.Background(), engine.New(engine.Options{}), out)
	if err != nil {
		t.Fatalf("Replay export: %v", err)
	}
	if s := Summarize(results); s.Failed != 0 || s.Total != 1 {
		t.Fatalf("exported fixture replay: %+v", s)
	}
}

func TestExportFixture_UnknownDeliberation(t *testing.T) {
	st := replayIntoStore(t)
	if _, err := ExportFixture(st, "nowhere"); err == nil {
		t.Fatal("expected error for a deliberation without designs")
	}
}

func TestWriteFixture_RoundTrip(t *testing.T) {
	st := replayIntoStore(t)
	f, err := ExportFixture(st, "")
	if err != nil {
		t.Fatalf("ExportFixture: %v", err)
	}
	dir := t.TempDir()
	for _, name := range []string{"out.yaml", "out.json"} {
		path := filepath.Join(dir, name)
		if err := WriteFixture(f, path); err != nil {
			t.Fatalf("WriteFixture %s: %v", name, err)
		}
		back, err := LoadFixture(path)
		if err != nil {
			t.Fatalf("LoadFixture %s: %v", name, err)
		}
		if len(back.Designs) != len(f.Designs) || len(back.Scenarios) != len(f.Scenarios) {
			t.Fatalf("%s: %d designs %d scenarios, want %d and %d",
				name, len(back.Designs), len(back.Scenarios), len(f.Designs), len(f.Scenarios))
		}
	}
}

// #endregion export-tests
