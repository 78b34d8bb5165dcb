package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/ludics-engine/internal/logging"
	"github.com/danielpatrickdp/ludics-engine/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to ludics.db")
	last := flag.Int("last", 20, "show N most recent rows")
	subject := flag.String("subject", "", "filter the check log to one design, dispute or strategy id")
	results := flag.Bool("results", false, "list cached check results instead of the check log")
	designs := flag.String("designs", "", "list the stored designs of a deliberation (\"*\" for all)")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/ludics.db [--last N] [--subject id] [--results | --designs delib] [--json]")
		os.Exit(2)
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	switch {
	case *designs != "":
		err = runDesignMode(st, *designs, *jsonOut)
	case *results:
		err = runResultMode(st, *last, *jsonOut)
	default:
		err = runCheckMode(st, *subject, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region check-mode

type checkRow struct {
	Subject    string          `json:"subject_id"`
	Operation  string          `json:"operation"`
	Outcome    string          `json:"outcome"`
	Reason     string          `json:"reason,omitempty"`
	DurationMS int64           `json:"duration_ms"`
	Params     json.RawMessage `json:"params,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

func runCheckMode(st *store.Store, subject string, last int, jsonOut bool) error {
	entries, err := logging.ListChecks(st.DB(), subject, last)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no checks found")
		return nil
	}

	// Store returns newest first; reverse for chronological order.
	rows := make([]checkRow, len(entries))
	for i, e := range entries {
		r := checkRow{
			Subject:    e.SubjectID,
			Operation:  e.Operation,
			Outcome:    e.Outcome,
			Reason:     e.Reason,
			DurationMS: e.DurationMS,
			CreatedAt:  e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
		if e.ParamsJSON != "" {
			r.Params = json.RawMessage(e.ParamsJSON)
		}
		rows[len(entries)-1-i] = r
	}

	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-12s  %-14s  %-7s  %6s  %-20s  %s\n", "Subject", "Operation", "Outcome", "ms", "Time", "Reason")
	fmt.Printf("%-12s+-%-14s+-%-7s+-%6s+-%-20s+-%s\n",
		"------------", "--------------", "-------", "------", "--------------------", "------")
	for _, r := range rows {
		fmt.Printf("%-12s  %-14s  %-7s  %6d  %-20s  %s\n",
			shortID(r.Subject), r.Operation, r.Outcome, r.DurationMS, r.CreatedAt, r.Reason)
	}
	return nil
}

// #endregion check-mode

// #region result-mode

type resultRow struct {
	Subject   string          `json:"subject_id"`
	Kind      string          `json:"kind"`
	Result    json.RawMessage `json:"result"`
	CheckedAt string          `json:"checked_at"`
}

func runResultMode(st *store.Store, last int, jsonOut bool) error {
	recs, err := st.ListResults(last)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(os.Stderr, "no cached results found")
		return nil
	}

	rows := make([]resultRow, len(recs))
	for i, rec := range recs {
		rows[i] = resultRow{
			Subject:   rec.SubjectID,
			Kind:      rec.Kind,
			Result:    json.RawMessage(rec.ResultJSON),
			CheckedAt: rec.CheckedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-12s  %-20s  %-20s  %s\n", "Subject", "Kind", "Checked", "Bytes")
	fmt.Printf("%-12s+-%-20s+-%-20s+-%s\n", "------------", "--------------------", "--------------------", "-----")
	for _, r := range rows {
		fmt.Printf("%-12s  %-20s  %-20s  %d\n", shortID(r.Subject), shortKind(r.Kind), r.CheckedAt, len(r.Result))
	}
	return nil
}

// #endregion result-mode

// #region design-mode

type designRow struct {
	ID           string `json:"id"`
	Deliberation string `json:"deliberation"`
	Polarity     string `json:"polarity"`
	Acts         int    `json:"acts"`
	Disputes     int    `json:"disputes"`
}

func runDesignMode(st *store.Store, deliberation string, jsonOut bool) error {
	if deliberation == "*" {
		deliberation = ""
	}
	ds, err := st.ListDesigns(deliberation)
	if err != nil {
		return err
	}

	rows := make([]designRow, len(ds))
	for i, d := range ds {
		plays, err := st.ListDisputes(d.ID)
		if err != nil {
			return err
		}
		rows[i] = designRow{
			ID:           d.ID,
			Deliberation: d.DeliberationID,
			Polarity:     d.Polarity.String(),
			Acts:         len(d.Acts),
			Disputes:     len(plays),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-16s  %-16s  %-3s  %5s  %s\n", "Design", "Deliberation", "Pol", "Acts", "Disputes")
	for _, r := range rows {
		fmt.Printf("%-16s  %-16s  %-3s  %5d  %d\n", r.ID, r.Deliberation, r.Polarity, r.Acts, r.Disputes)
	}
	return nil
}

// #endregion design-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func shortKind(kind string) string {
	if len(kind) > 20 {
		return kind[:17] + "..."
	}
	return kind
}

// #endregion output
