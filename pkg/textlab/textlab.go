package textlab

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/textlab/pkg/textlab/config"
	"github.com/cognicore/textlab/pkg/textlab/corpus"
	"github.com/cognicore/textlab/pkg/textlab/internalerr"
	"github.com/cognicore/textlab/pkg/textlab/logging"
	"github.com/cognicore/textlab/pkg/textlab/metrics"
	"github.com/cognicore/textlab/pkg/textlab/rank"
	"github.com/cognicore/textlab/pkg/textlab/report"
	"github.com/cognicore/textlab/pkg/textlab/stoplist"
	"github.com/cognicore/textlab/pkg/textlab/store"
	"github.com/cognicore/textlab/pkg/textlab/tfidf"
	"github.com/cognicore/textlab/pkg/textlab/topics"
	"github.com/cognicore/textlab/pkg/textlab/vectorize"
)

// Textlab is the pipeline facade: it runs the corpus loader, vectorizer,
// weighter, ranker and topic extractor in order over one batch of records.
type Textlab struct {
	cfg     config.Pipeline
	stops   *stoplist.Manager
	log     *logrus.Entry
	metrics *metrics.Metrics
	store   store.Store
	reports *report.Builder
}

// Options configures a Textlab instance. Only Pipeline is required.
type Options struct {
	Pipeline  config.Pipeline
	Stopwords *stoplist.Manager // nil: pipeline.stop_words, else the English list
	Logger    *logrus.Entry
	Metrics   *metrics.Metrics
	Store     store.Store // nil: runs are not persisted
	Report    report.Options
}

// New creates a Textlab instance with the given dependencies
func New(opts Options) *Textlab {
	stops := opts.Stopwords
	if stops == nil {
		if opts.Pipeline.StopWords != nil {
			stops = stoplist.NewManager(opts.Pipeline.StopWords)
		} else {
			stops = stoplist.NewManager(stoplist.English())
		}
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Textlab{
		cfg:     opts.Pipeline,
		stops:   stops,
		log:     log,
		metrics: opts.Metrics,
		store:   opts.Store,
		reports: report.New(opts.Report),
	}
}

// Close cleanly shuts down the store, if any
func (t *Textlab) Close() error {
	if t.store == nil {
		return nil
	}
	return t.store.Close()
}

// Metrics returns the collectors the instance records into, possibly nil.
func (t *Textlab) Metrics() *metrics.Metrics {
	return t.metrics
}

// Result holds every artefact of a run. Later stages read earlier ones but
// never modify them.
type Result struct {
	Corpus   *corpus.Corpus
	Fitted   *vectorize.Fitted
	Weighter *tfidf.Weighter
	Ranker   *rank.Ranker
	Ranking  rank.Ranking // every document
	Matching rank.Ranking // documents scoring above rank.DefaultEpsilon
	Model    *topics.Model
	Report   report.Report
}

// Run executes the full pipeline over records. Each stage is fully
// materialised before the next starts. The run is saved when a store is
// configured.
func (t *Textlab) Run(ctx context.Context, records []corpus.Record) (res *Result, err error) {
	defer func() { t.metrics.RunFinished(err) }()

	cfg := config.Config{Pipeline: t.cfg}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	res = &Result{}

	err = t.stage(ctx, "load", func() error {
		c, err := corpus.Load(records, t.cfg.AllowedCategories)
		if err != nil {
			return err
		}
		res.Corpus = c
		t.metrics.SetDocuments("before", c.StatsBefore().Documents)
		t.metrics.SetDocuments("after", c.Len())
		t.log.WithFields(logrus.Fields{
			"records": len(records),
			"docs":    c.Len(),
		}).Info("corpus loaded")
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = t.stage(ctx, "vectorize", func() error {
		v := vectorize.New(vectorize.Options{
			Stopwords:      t.stops,
			MinTokenLength: t.cfg.MinTokenLength,
			AlphabeticOnly: t.cfg.TokenMustBeAlphabetic,
		})
		res.Fitted = v.Fit(res.Corpus.Texts)
		t.metrics.SetVocabulary(res.Fitted.Vocabulary.Len())
		t.log.WithField("vocab", res.Fitted.Vocabulary.Len()).Info("vocabulary fitted")
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = t.stage(ctx, "weight", func() error {
		res.Weighter = tfidf.Fit(res.Fitted.Counts)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = t.stage(ctx, "rank", func() error {
		res.Ranker = rank.NewRanker(res.Fitted, res.Weighter)
		res.Ranking = res.Ranker.RankTerms(t.cfg.QueryTerms)
		res.Matching = res.Ranking.Positive(rank.DefaultEpsilon)
		t.metrics.SetMatching(len(res.Matching))
		t.log.WithFields(logrus.Fields{
			"query":    t.cfg.QueryTerms,
			"matching": len(res.Matching),
		}).Info("documents ranked")
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = t.stage(ctx, "topics", func() error {
		model, err := topics.Fit(res.Fitted.Counts, res.Fitted.Vocabulary, topics.Options{
			K:    t.cfg.TopicCount,
			TopN: t.cfg.TopTermsPerTopic,
			Seed: t.cfg.RandomSeed,
		})
		if err != nil {
			return err
		}
		res.Model = model
		t.log.WithFields(logrus.Fields{
			"topics":     len(model.Topics),
			"iterations": model.Iterations,
			"loss":       model.Loss,
		}).Info("topics extracted")
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Report = t.reports.Build(report.Input{
		Corpus:     res.Corpus,
		Fitted:     res.Fitted,
		Weighter:   res.Weighter,
		QueryTerms: t.cfg.QueryTerms,
		Ranking:    res.Ranking,
		Model:      res.Model,
		Stopwords:  t.stops,
	})

	if t.store != nil {
		if err := t.store.SaveRun(ctx, res.Report.Run()); err != nil {
			return nil, fmt.Errorf("%w: save run %s: %v", internalerr.ErrStoreUnavailable, res.Report.ID, err)
		}
		t.log.WithField("run", res.Report.ID).Info("run saved")
	}
	return res, nil
}

func (t *Textlab) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	t.metrics.ObserveStage(name, elapsed)

	entry := t.log.WithFields(logrus.Fields{"stage": name, "duration": elapsed})
	if err != nil {
		entry.WithError(err).Error("stage failed")
		return fmt.Errorf("%s: %w", name, err)
	}
	entry.Debug("stage done")
	return nil
}
