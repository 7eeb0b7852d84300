package textlab

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/cognicore/textlab/pkg/textlab/config"
	"github.com/cognicore/textlab/pkg/textlab/corpus"
	"github.com/cognicore/textlab/pkg/textlab/internalerr"
	"github.com/cognicore/textlab/pkg/textlab/metrics"
	"github.com/cognicore/textlab/pkg/textlab/store/memstore"
)

func scenarioRecords() []corpus.Record {
	return []corpus.Record{
		corpus.NewRecord("a", "world", "The cat sat"),
		corpus.NewRecord("b", "world", "The dog sat"),
		corpus.NewRecord("c", "world", "Cats and dogs"),
		corpus.NewRecord("d", "sport", "Goal scored in extra time"),
	}
}

func scenarioPipeline() config.Pipeline {
	p := config.Default().Pipeline
	p.AllowedCategories = []string{"world"}
	p.StopWords = []string{"the", "and"}
	p.TopicCount = 2
	p.TopTermsPerTopic = 3
	p.QueryTerms = []string{"cat"}
	return p
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	ms := memstore.New()
	m := metrics.New()

	engine := New(Options{Pipeline: scenarioPipeline(), Store: ms, Metrics: m})
	defer engine.Close()

	res, err := engine.Run(ctx, scenarioRecords())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Corpus.Len() != 3 {
		t.Fatalf("expected 3 documents after filtering, got %d", res.Corpus.Len())
	}
	want := []string{"cat", "cats", "dog", "dogs", "sat"}
	got := res.Fitted.Vocabulary.Tokens()
	if len(got) != len(want) {
		t.Fatalf("vocabulary = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("vocabulary[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// idf(sat) = ln(4/3) + 1
	satIdx, _ := res.Fitted.Vocabulary.Index("sat")
	if idf := res.Weighter.IDF()[satIdx]; math.Abs(idf-(math.Log(4.0/3.0)+1)) > 1e-9 {
		t.Errorf("idf(sat) = %v", idf)
	}

	if len(res.Ranking) != 3 {
		t.Errorf("ranking should cover every document, got %d", len(res.Ranking))
	}
	if len(res.Matching) != 1 || res.Matching[0].Doc != 0 {
		t.Fatalf("expected only document 0 to match, got %+v", res.Matching)
	}
	if res.Matching[0].Score <= 0 || res.Matching[0].Score > 1 {
		t.Errorf("score out of range: %v", res.Matching[0].Score)
	}
	if len(res.Model.Topics) != 2 {
		t.Errorf("expected 2 topics, got %d", len(res.Model.Topics))
	}

	saved, found, err := ms.GetRun(ctx, res.Report.ID)
	if err != nil || !found {
		t.Fatalf("run not saved: found=%v err=%v", found, err)
	}
	if saved.Matching != 1 || saved.DocCount != 3 || saved.Query != "cat" {
		t.Errorf("unexpected saved run: %+v", saved.RunSummary)
	}

	if v := testutil.ToFloat64(m.VocabularySize); v != 5 {
		t.Errorf("vocabulary gauge = %v", v)
	}
	if v := testutil.ToFloat64(m.RunsTotal.WithLabelValues("ok")); v != 1 {
		t.Errorf("runs_total{ok} = %v", v)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	ctx := context.Background()
	a, err := New(Options{Pipeline: scenarioPipeline()}).Run(ctx, scenarioRecords())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := New(Options{Pipeline: scenarioPipeline()}).Run(ctx, scenarioRecords())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !a.Fitted.Counts.Equal(b.Fitted.Counts) {
		t.Error("count matrices differ between runs")
	}
	for k := range a.Model.Topics {
		for i, tw := range a.Model.Topics[k].Terms {
			if b.Model.Topics[k].Terms[i] != tw {
				t.Errorf("topic %d term %d differs: %+v vs %+v", k, i, tw, b.Model.Topics[k].Terms[i])
			}
		}
	}
}

func TestRunEmptyCorpus(t *testing.T) {
	p := scenarioPipeline()
	p.AllowedCategories = []string{"culture"}

	res, err := New(Options{Pipeline: p}).Run(context.Background(), scenarioRecords())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Corpus.Len() != 0 || res.Fitted.Vocabulary.Len() != 0 {
		t.Errorf("expected empty corpus and vocabulary")
	}
	if len(res.Ranking) != 0 || len(res.Model.Topics) != 0 {
		t.Errorf("expected empty ranking and topics, got %d, %d", len(res.Ranking), len(res.Model.Topics))
	}
	if res.Report.StatsBefore.Documents != 4 {
		t.Errorf("stats before should still count every record: %+v", res.Report.StatsBefore)
	}
}

func TestRunTooManyTopics(t *testing.T) {
	p := scenarioPipeline()
	p.TopicCount = 10

	m := metrics.New()
	_, err := New(Options{Pipeline: p, Metrics: m}).Run(context.Background(), scenarioRecords())
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if v := testutil.ToFloat64(m.RunsTotal.WithLabelValues("error")); v != 1 {
		t.Errorf("runs_total{error} = %v", v)
	}
}

func TestRunMalformedRecord(t *testing.T) {
	records := append(scenarioRecords(), corpus.Record{})
	_, err := New(Options{Pipeline: scenarioPipeline()}).Run(context.Background(), records)
	if !errors.Is(err, internalerr.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(Options{Pipeline: scenarioPipeline()}).Run(ctx, scenarioRecords()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
