package store

import (
	"context"
	"time"
)

// Store persists pipeline runs for later reporting.
type Store interface {
	Close() error

	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// RunSummary is the header of a stored run.
type RunSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Query     string    `json:"query"`
	DocCount  int       `json:"doc_count"`
	VocabSize int       `json:"vocab_size"`
	Matching  int       `json:"matching"`
}

// Run is a stored pipeline result.
type Run struct {
	RunSummary
	Ranking []RankedDoc `json:"ranking"`
	Topics  []Topic     `json:"topics"`
	Terms   []TermStat  `json:"terms"`
}

// RankedDoc is one entry of a similarity ranking.
type RankedDoc struct {
	Rank  int     `json:"rank"`
	Index int     `json:"index"`
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Topic is a stored topic with its top terms.
type Topic struct {
	Index int         `json:"topic"`
	Terms []TopicTerm `json:"terms"`
}

// TopicTerm is a term and its weight within a topic.
type TopicTerm struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// TermStat records corpus statistics for a vocabulary term.
type TermStat struct {
	Term  string  `json:"term"`
	Count int64   `json:"count"`
	DF    int64   `json:"df"`
	IDF   float64 `json:"idf"`
}
