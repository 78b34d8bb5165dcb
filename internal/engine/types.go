package engine

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/danielpatrickdp/ludics-engine/internal/config"
	"github.com/danielpatrickdp/ludics-engine/internal/correspondence"
	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/legality"
	"github.com/danielpatrickdp/ludics-engine/internal/propagation"
	"github.com/danielpatrickdp/ludics-engine/internal/store"
	"github.com/danielpatrickdp/ludics-engine/internal/strategy"
	"github.com/danielpatrickdp/ludics-engine/internal/typing"
	"github.com/danielpatrickdp/ludics-engine/internal/verdict"
)

// #region config
// Config bounds every operation the engine runs.
type Config struct {
	MaxPairs          int
	Window            int
	PropagationMode   propagation.Mode
	TypeMethod        typing.Method
	MaxCounterDesigns int
	Workers           int // parallel plays and checks in a batch
	Verdict           verdict.Config
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return FromConfig(config.Default())
}

// FromConfig maps the process configuration onto the engine.
func FromConfig(c config.Config) Config {
	return Config{
		MaxPairs:          c.MaxPairs,
		Window:            c.Window,
		PropagationMode:   propagation.ParseMode(c.PropagationMode),
		TypeMethod:        typing.Method(c.TypeMethod),
		MaxCounterDesigns: c.MaxCounterDesigns,
		Workers:           c.Workers,
		Verdict:           verdict.DefaultConfig(),
	}
}

func (c Config) typeConfig() typing.Config {
	tc := typing.DefaultConfig()
	tc.MaxCounterDesigns = c.MaxCounterDesigns
	tc.Window = c.Window
	tc.Stepper.MaxPairs = c.MaxPairs
	return tc
}

// #endregion config

// #region cache
// Cache stores check results keyed by subject and check kind. A miss is
// reported as store.ErrNotFound.
type Cache interface {
	GetResult(subjectID, kind string, out any) error
	PutResult(subjectID, kind string, v any) error
}

// MemoryCache is a process-local Cache. Values are kept JSON-encoded so a
// hit never aliases an earlier caller's result.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]byte)}
}

func (c *MemoryCache) GetResult(subjectID, kind string, out any) error {
	c.mu.Lock()
	data, ok := c.entries[subjectID+"\x00"+kind]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("result %s/%s: %w", subjectID, kind, store.ErrNotFound)
	}
	return json.Unmarshal(data, out)
}

func (c *MemoryCache) PutResult(subjectID, kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	c.mu.Lock()
	c.entries[subjectID+"\x00"+kind] = data
	c.mu.Unlock()
	return nil
}

// Len returns the number of cached results.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// #endregion cache

// #region analysis
// Analysis is the full pipeline result for one design.
type Analysis struct {
	DesignID       string                   `json:"design_id"`
	StrategyID     string                   `json:"strategy_id"`
	CounterDesigns []string                 `json:"counter_designs"`
	Violations     []design.Violation       `json:"violations,omitempty"`
	Plays          []*dispute.Play          `json:"plays"`
	Legality       []legality.Report        `json:"legality"`
	Innocence      strategy.InnocenceReport `json:"innocence"`
	Propagation    propagation.Report       `json:"propagation"`
	Correspondence correspondence.Report    `json:"correspondence"`
	Verdict        verdict.Decision         `json:"verdict"`
}

// #endregion analysis
