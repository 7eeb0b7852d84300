package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/cognicore/textlab/internal/guardian"
	"github.com/cognicore/textlab/pkg/textlab/config"
	"github.com/cognicore/textlab/pkg/textlab/logging"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML config file (optional, supplies source.dir)")
		dir         = flag.String("dir", "", "Cache directory for day files (overrides source.dir)")
		from        = flag.String("from", "2019-06-01", "First day to fetch (YYYY-MM-DD)")
		to          = flag.String("to", "2019-11-01", "Last day to fetch, inclusive (YYYY-MM-DD)")
		endpoint    = flag.String("endpoint", guardian.DefaultEndpoint, "Guardian search endpoint")
		pageSize    = flag.Int("page-size", guardian.DefaultPageSize, "Results per page")
		concurrency = flag.Int("concurrency", guardian.DefaultConcurrency, "Days fetched in parallel")
		logLevel    = flag.String("log-level", "info", "Log level")
	)
	flag.Parse()

	log := logging.WithComponent(logging.Setup(*logLevel, "text"), "download-guardian")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *dir != "" {
		cfg.Source.Dir = *dir
	}
	if cfg.Source.Dir == "" {
		log.Fatal("--dir or source.dir required")
	}

	apiKey := os.Getenv("GUARDIAN_API_KEY")
	if apiKey == "" {
		log.Fatal("GUARDIAN_API_KEY must be set")
	}

	start, err := time.Parse("2006-01-02", *from)
	if err != nil {
		log.Fatalf("--from: %v", err)
	}
	end, err := time.Parse("2006-01-02", *to)
	if err != nil {
		log.Fatalf("--to: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	d := &guardian.Downloader{
		Client:      &http.Client{Timeout: 60 * time.Second},
		Endpoint:    *endpoint,
		APIKey:      apiKey,
		Dir:         cfg.Source.Dir,
		PageSize:    *pageSize,
		Concurrency: *concurrency,
		Logger:      log,
	}

	log.Infof("Downloading %s..%s into %s", *from, *to, cfg.Source.Dir)
	n, err := d.Download(ctx, start, end)
	if err != nil {
		log.Fatalf("download: %v (%d days written)", err, n)
	}
	log.Infof("Successfully downloaded %d days", n)
}
