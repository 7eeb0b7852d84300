package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/textlab/internal/guardian"
	"github.com/cognicore/textlab/pkg/textlab"
	"github.com/cognicore/textlab/pkg/textlab/config"
	"github.com/cognicore/textlab/pkg/textlab/corpus"
	"github.com/cognicore/textlab/pkg/textlab/logging"
	"github.com/cognicore/textlab/pkg/textlab/metrics"
	"github.com/cognicore/textlab/pkg/textlab/store/sqlite"
)

func main() {
	if err := execute(os.Args[1:], os.Stdout); err != nil {
		logrus.Fatal(err)
	}
}

// execute parses the command line, applies the flag overrides and runs the
// pipeline. Every deferred close has run by the time it returns.
func execute(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("textlab", flag.ContinueOnError)
	var (
		configPath   = fs.String("config", "", "YAML config file (optional)")
		stoplistPath = fs.String("stoplist", "", "Stoplist file (optional, overrides pipeline.stop_words)")
		dataPath     = fs.String("data", "", "Input JSONL file (overrides source.jsonl)")
		dirPath      = fs.String("dir", "", "Guardian day-file directory (overrides source.dir)")
		dbPath       = fs.String("db", "", "Run database path (overrides store.path)")
		outPath      = fs.String("out", "", "Write the JSON report here instead of stdout")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	components, err := (&config.Loader{ConfigPath: *configPath, StoplistPath: *stoplistPath}).Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := components.Config
	if *dataPath != "" {
		cfg.Source.JSONL, cfg.Source.Dir = *dataPath, ""
	}
	if *dirPath != "" {
		cfg.Source.Dir, cfg.Source.JSONL = *dirPath, ""
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logging.WithComponent(logger, "textlab")

	out := stdout
	var file *os.File
	if *outPath != "" {
		file, err = os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", *outPath, err)
		}
		defer file.Close()
		out = file
	}

	if err := run(context.Background(), components, log, out); err != nil {
		return err
	}
	if file != nil {
		if err := file.Close(); err != nil {
			return fmt.Errorf("close %s: %w", *outPath, err)
		}
	}
	return nil
}

// run loads the records, executes the pipeline and writes the report.
func run(ctx context.Context, components *config.Components, log *logrus.Entry, out io.Writer) error {
	cfg := components.Config

	records, err := loadRecords(cfg.Source)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	log.WithField("records", len(records)).Info("records loaded")

	engine, cleanup, err := buildEngine(ctx, components, log)
	if err != nil {
		return err
	}
	defer cleanup()

	res, runErr := engine.Run(ctx, records)
	if cfg.Metrics.Textfile != "" {
		if err := engine.Metrics().WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.WithError(err).Warn("failed to write metrics textfile")
		}
	}
	if runErr != nil {
		return runErr
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Report)
}

func loadRecords(src config.SourceConfig) ([]corpus.Record, error) {
	switch {
	case src.JSONL != "":
		return corpus.LoadJSONL(src.JSONL)
	case src.Dir != "":
		return guardian.LoadDir(src.Dir)
	default:
		return nil, fmt.Errorf("no source configured: set source.dir, source.jsonl, --dir or --data")
	}
}

func buildEngine(ctx context.Context, components *config.Components, log *logrus.Entry) (*textlab.Textlab, func(), error) {
	cfg := components.Config
	opts := textlab.Options{
		Pipeline:  cfg.Pipeline,
		Stopwords: components.Stopwords,
		Logger:    log,
		Metrics:   metrics.New(),
	}

	if cfg.Store.Path != "" {
		st, err := sqlite.OpenSQLite(ctx, cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		opts.Store = st
	}

	engine := textlab.New(opts)
	cleanup := func() {
		if err := engine.Close(); err != nil {
			log.WithError(err).Warn("close store")
		}
	}
	return engine, cleanup, nil
}
