// Package report assembles the outcome of a pipeline run into a single
// JSON-serialisable document and converts it for persistence.
package report

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/textlab/pkg/textlab/corpus"
	"github.com/cognicore/textlab/pkg/textlab/rank"
	"github.com/cognicore/textlab/pkg/textlab/sparse"
	"github.com/cognicore/textlab/pkg/textlab/stoplist"
	"github.com/cognicore/textlab/pkg/textlab/store"
	"github.com/cognicore/textlab/pkg/textlab/tfidf"
	"github.com/cognicore/textlab/pkg/textlab/topics"
	"github.com/cognicore/textlab/pkg/textlab/vectorize"
)

const (
	DefaultTopTerms = 20
	DefaultTopDocs  = 10
)

// Builder constructs run reports
type Builder struct {
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
	opts    Options
}

// Options limits how much of each section is reported.
type Options struct {
	TopTerms   int     // most frequent corpus terms
	TopDocs    int     // best ranked documents
	Epsilon    float64 // similarity above which a document matches
	Thresholds stoplist.Thresholds
}

// New creates a new report builder
func New(opts Options) *Builder {
	if opts.TopTerms <= 0 {
		opts.TopTerms = DefaultTopTerms
	}
	if opts.TopDocs <= 0 {
		opts.TopDocs = DefaultTopDocs
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = rank.DefaultEpsilon
	}
	if opts.Thresholds == (stoplist.Thresholds{}) {
		opts.Thresholds = stoplist.DefaultThresholds()
	}
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
		opts:    opts,
	}
}

// Input carries the artefacts of one pipeline run.
type Input struct {
	Corpus     *corpus.Corpus
	Fitted     *vectorize.Fitted
	Weighter   *tfidf.Weighter
	QueryTerms []string
	Ranking    rank.Ranking
	Model      *topics.Model
	Stopwords  *stoplist.Manager
}

// Report is the structured result of a run.
type Report struct {
	ID                 string               `json:"id"`
	CreatedAt          time.Time            `json:"created_at"`
	Query              string               `json:"query"`
	StatsBefore        corpus.Stats         `json:"stats_before"`
	StatsAfter         corpus.Stats         `json:"stats_after"`
	VocabularySize     int                  `json:"vocabulary_size"`
	TopTerms           []TermStat           `json:"top_terms"`
	QueryTerms         []TermStat           `json:"query_terms"`
	Matching           int                  `json:"matching_documents"`
	Ranking            []RankedDoc          `json:"ranking"`
	Topics             []topics.Topic       `json:"topics"`
	StopwordCandidates []stoplist.Candidate `json:"stopword_candidates"`
}

// TermStat describes one vocabulary term over the filtered corpus. Known is
// false for query terms that never survived tokenisation.
type TermStat struct {
	Term  string  `json:"term"`
	Known bool    `json:"known"`
	Count int64   `json:"count"`
	DF    int64   `json:"df"`
	IDF   float64 `json:"idf"`
}

// RankedDoc is a matching document with its position in the ranking.
type RankedDoc struct {
	Rank     int     `json:"rank"`
	Index    int     `json:"index"`
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Score    float64 `json:"cosine_similarity"`
}

// Build creates a report from the artefacts of a run.
func (b *Builder) Build(in Input) Report {
	rep := Report{
		ID:                 ulid.MustNew(ulid.Now(), b.entropy).String(),
		CreatedAt:          b.now().UTC(),
		Query:              strings.Join(in.QueryTerms, " "),
		StatsBefore:        in.Corpus.StatsBefore(),
		StatsAfter:         in.Corpus.StatsAfter(),
		VocabularySize:     in.Fitted.Vocabulary.Len(),
		TopTerms:           []TermStat{},
		QueryTerms:         []TermStat{},
		Ranking:            []RankedDoc{},
		Topics:             []topics.Topic{},
		StopwordCandidates: []stoplist.Candidate{},
	}

	totals := in.Fitted.TermTotals()
	df := in.Weighter.DF()
	idf := in.Weighter.IDF()
	stat := func(j int) TermStat {
		return TermStat{
			Term:  in.Fitted.Vocabulary.Token(j),
			Known: true,
			Count: int64(totals[j]),
			DF:    int64(df[j]),
			IDF:   idf[j],
		}
	}

	for _, j := range sparse.TopK(totals, b.opts.TopTerms) {
		rep.TopTerms = append(rep.TopTerms, stat(j))
	}

	for _, term := range in.QueryTerms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if j, ok := in.Fitted.Vocabulary.Index(term); ok {
			rep.QueryTerms = append(rep.QueryTerms, stat(j))
		} else {
			rep.QueryTerms = append(rep.QueryTerms, TermStat{Term: term})
		}
	}

	matching := in.Ranking.Positive(b.opts.Epsilon)
	rep.Matching = len(matching)
	for i, s := range matching.Top(b.opts.TopDocs) {
		doc := in.Corpus.Docs[s.Doc]
		rep.Ranking = append(rep.Ranking, RankedDoc{
			Rank:     i + 1,
			Index:    s.Doc,
			ID:       doc.ID,
			Category: doc.Category,
			Score:    s.Score,
		})
	}

	if in.Model != nil {
		rep.Topics = append(rep.Topics, in.Model.Topics...)
	}

	stops := in.Stopwords
	if stops == nil {
		stops = stoplist.NewManager(nil)
	}
	if n := in.Weighter.Docs(); n > 0 {
		stats := make([]stoplist.Stats, len(df))
		for j := range df {
			stats[j] = stoplist.Stats{
				Token:     in.Fitted.Vocabulary.Token(j),
				DF:        int64(df[j]),
				DFPercent: float64(df[j]) / float64(n) * 100,
				IDF:       idf[j],
			}
		}
		if c := stops.SuggestCandidates(stats, b.opts.Thresholds); c != nil {
			rep.StopwordCandidates = c
		}
	}

	return rep
}

// Run converts the report into its persisted form. Query term statistics are
// stored ahead of the top terms; a term listed in both is stored once.
func (r Report) Run() store.Run {
	run := store.Run{
		RunSummary: store.RunSummary{
			ID:        r.ID,
			CreatedAt: r.CreatedAt,
			Query:     r.Query,
			DocCount:  r.StatsAfter.Documents,
			VocabSize: r.VocabularySize,
			Matching:  r.Matching,
		},
	}

	for _, d := range r.Ranking {
		run.Ranking = append(run.Ranking, store.RankedDoc{Rank: d.Rank, Index: d.Index, DocID: d.ID, Score: d.Score})
	}
	for _, t := range r.Topics {
		st := store.Topic{Index: t.Index, Terms: make([]store.TopicTerm, 0, len(t.Terms))}
		for _, tw := range t.Terms {
			st.Terms = append(st.Terms, store.TopicTerm{Term: tw.Term, Weight: tw.Weight})
		}
		run.Topics = append(run.Topics, st)
	}

	seen := make(map[string]struct{})
	for _, group := range [][]TermStat{r.QueryTerms, r.TopTerms} {
		for _, ts := range group {
			if _, dup := seen[ts.Term]; dup {
				continue
			}
			seen[ts.Term] = struct{}{}
			run.Terms = append(run.Terms, store.TermStat{Term: ts.Term, Count: ts.Count, DF: ts.DF, IDF: ts.IDF})
		}
	}
	return run
}
