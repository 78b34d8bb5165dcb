package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/ludics-engine/internal/config"
	"github.com/danielpatrickdp/ludics-engine/internal/engine"
	"github.com/danielpatrickdp/ludics-engine/internal/logging"
	"github.com/danielpatrickdp/ludics-engine/internal/replay"
	"github.com/danielpatrickdp/ludics-engine/internal/store"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture YAML or JSON")
	dbPath := flag.String("db", "", "optional database to persist designs, disputes and the check log")
	jsonOut := flag.Bool("json", false, "output results as JSON instead of a table")
	verbose := flag.Bool("v", false, "log every check to stderr")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.yaml [--db path] [--json] [-v]")
		os.Exit(2)
	}
	os.Exit(runFixture(*fixturePath, *dbPath, *jsonOut, *verbose))
}

// #endregion main

// #region fixture-mode

func runFixture(path, dbPath string, jsonOut, verbose bool) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	log := zap.NewNop()
	if verbose {
		if log, err = logging.NewLogger("debug", false); err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			return 2
		}
		defer log.Sync()
	}

	opts := engine.Options{
		Config:     f.Config.EngineConfig(engine.FromConfig(config.Default())),
		Logger:     log,
		Registerer: prometheus.NewRegistry(),
	}
	if dbPath != "" {
		st, err := store.NewStore(dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open db: %v\n", err)
			return 2
		}
		defer st.Close()
		opts.Store = st
	}

	results, err := replay.Replay(context.Background(), engine.New(opts), f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}
	summary := replay.Summarize(results)

	if jsonOut {
		data, err := json.MarshalIndent(struct {
			Results []replay.ReplayResult `json:"results"`
			Summary replay.ReplaySummary  `json:"summary"`
		}{results, summary}, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal json: %v\n", err)
			return 2
		}
		fmt.Println(string(data))
	} else {
		printComparison(results, summary)
	}

	if summary.Failed > 0 {
		return 1
	}
	return 0
}

// #endregion fixture-mode

// #region output

// printComparison outputs one row per replayed check and a summary line.
func printComparison(results []replay.ReplayResult, s replay.ReplaySummary) {
	fmt.Printf("%-20s| %-9s| %-32s| %-32s| %s\n", "Name", "Kind", "Expected", "Replayed", "Match")
	fmt.Printf("%-20s+%-10s+%-33s+%-33s+%s\n",
		"--------------------", "----------", "---------------------------------", "---------------------------------", "------")

	for _, r := range results {
		match := "DIFF"
		if r.Passed {
			match = "OK"
		}
		fmt.Printf("%-20s| %-9s| %-32s| %-32s| %s\n", r.Name, r.Kind, r.Want, r.Got, match)
	}

	fmt.Printf("\nSummary: %d total, %d match, %d diverge (%d scenarios, %d types, %d analyses)\n",
		s.Total, s.Passed, s.Failed,
		s.ByKind[replay.KindScenario], s.ByKind[replay.KindType], s.ByKind[replay.KindAnalysis])
}

// #endregion output
