package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/cognicore/textlab/pkg/textlab/config"
	"github.com/cognicore/textlab/pkg/textlab/internalerr"
	"github.com/cognicore/textlab/pkg/textlab/logging"
	"github.com/cognicore/textlab/pkg/textlab/store"
	"github.com/cognicore/textlab/pkg/textlab/store/sqlite"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (optional, supplies store.path)")
		dbPath     = flag.String("db", "", "Run database path (overrides store.path)")
		runID      = flag.String("run", "", "Print this run as JSON instead of listing")
		limit      = flag.Int("limit", 20, "Maximum runs to list")
	)
	flag.Parse()

	log := logging.WithComponent(logging.Setup("info", "text"), "textlab-runs")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}
	if cfg.Store.Path == "" {
		log.Fatal("--db or store.path required")
	}

	ctx := context.Background()
	st, err := sqlite.OpenSQLite(ctx, cfg.Store.Path)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	if *runID != "" {
		err = showRun(ctx, st, *runID, os.Stdout)
	} else {
		err = listRuns(ctx, st, *limit, os.Stdout)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func showRun(ctx context.Context, st store.Store, id string, w io.Writer) error {
	run, found, err := st.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

func listRuns(ctx context.Context, st store.Store, limit int, w io.Writer) error {
	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tDOCS\tVOCAB\tMATCHING\tQUERY")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.DocCount, r.VocabSize, r.Matching, r.Query)
	}
	return tw.Flush()
}
