package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/ludics-engine/internal/replay"
	"github.com/danielpatrickdp/ludics-engine/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to ludics.db")
	deliberation := flag.String("deliberation", "", "export only this deliberation's designs (default all)")
	outPath := flag.String("out", "", "output fixture path (.json for JSON, YAML otherwise)")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/ludics.db --out path/to/fixture.yaml [--deliberation id]")
		os.Exit(2)
	}

	if err := run(*dbPath, *deliberation, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, deliberation, outPath string) error {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	f, err := replay.ExportFixture(st, deliberation)
	if err != nil {
		return err
	}
	if err := replay.WriteFixture(f, outPath); err != nil {
		return err
	}
	fmt.Printf("Wrote fixture to %s (%d designs, %d scenarios)\n", outPath, len(f.Designs), len(f.Scenarios))
	return nil
}

// #endregion export
