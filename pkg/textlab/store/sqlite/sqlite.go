package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/textlab/pkg/textlab/internalerr"
	"github.com/cognicore/textlab/pkg/textlab/store"
)

// fixed-width so that created_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	query TEXT,
	doc_count INTEGER NOT NULL,
	vocab_size INTEGER NOT NULL,
	matching INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_ranking (
	run_id TEXT NOT NULL,
	rank INTEGER NOT NULL,
	doc_index INTEGER NOT NULL,
	doc_id TEXT,
	score REAL NOT NULL,
	PRIMARY KEY(run_id, rank),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_topic_terms (
	run_id TEXT NOT NULL,
	topic INTEGER NOT NULL,
	position INTEGER NOT NULL,
	term TEXT NOT NULL,
	weight REAL NOT NULL,
	PRIMARY KEY(run_id, topic, position),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_topics (
	run_id TEXT NOT NULL,
	topic INTEGER NOT NULL,
	PRIMARY KEY(run_id, topic),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_terms (
	run_id TEXT NOT NULL,
	term TEXT NOT NULL,
	count INTEGER NOT NULL,
	df INTEGER NOT NULL,
	idf REAL NOT NULL,
	PRIMARY KEY(run_id, term),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun inserts or replaces a run and all of its rows.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// cascades to the child tables
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id=?`, r.ID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO runs (id, created_at, query, doc_count, vocab_size, matching)
VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.CreatedAt.UTC().Format(timeLayout),
		r.Query,
		r.DocCount,
		r.VocabSize,
		r.Matching,
	)
	if err != nil {
		return err
	}

	if err := insertRanking(ctx, tx, r.ID, r.Ranking); err != nil {
		return err
	}
	if err := insertTopics(ctx, tx, r.ID, r.Topics); err != nil {
		return err
	}
	if err := insertTerms(ctx, tx, r.ID, r.Terms); err != nil {
		return err
	}

	return tx.Commit()
}

func insertRanking(ctx context.Context, tx *sql.Tx, runID string, ranking []store.RankedDoc) error {
	if len(ranking) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_ranking (run_id, rank, doc_index, doc_id, score) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, rd := range ranking {
		if _, err := stmt.ExecContext(ctx, runID, rd.Rank, rd.Index, rd.DocID, rd.Score); err != nil {
			return err
		}
	}
	return nil
}

func insertTopics(ctx context.Context, tx *sql.Tx, runID string, topics []store.Topic) error {
	if len(topics) == 0 {
		return nil
	}
	topicStmt, err := tx.PrepareContext(ctx, `INSERT INTO run_topics (run_id, topic) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer topicStmt.Close()
	termStmt, err := tx.PrepareContext(ctx, `INSERT INTO run_topic_terms (run_id, topic, position, term, weight) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer termStmt.Close()

	for _, t := range topics {
		if _, err := topicStmt.ExecContext(ctx, runID, t.Index); err != nil {
			return err
		}
		for pos, tt := range t.Terms {
			if _, err := termStmt.ExecContext(ctx, runID, t.Index, pos, tt.Term, tt.Weight); err != nil {
				return err
			}
		}
	}
	return nil
}

func insertTerms(ctx context.Context, tx *sql.Tx, runID string, terms []store.TermStat) error {
	if len(terms) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO run_terms (run_id, term, count, df, idf) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, ts := range terms {
		if _, err := stmt.ExecContext(ctx, runID, ts.Term, ts.Count, ts.DF, ts.IDF); err != nil {
			return err
		}
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	var (
		r       store.Run
		created string
		query   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, created_at, query, doc_count, vocab_size, matching
FROM runs WHERE id = ?`, id).Scan(&r.ID, &created, &query, &r.DocCount, &r.VocabSize, &r.Matching)
	if err == sql.ErrNoRows {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}
	r.Query = query.String
	if r.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return store.Run{}, false, fmt.Errorf("run %s: created_at: %w", id, err)
	}

	if r.Ranking, err = s.loadRanking(ctx, id); err != nil {
		return store.Run{}, false, err
	}
	if r.Topics, err = s.loadTopics(ctx, id); err != nil {
		return store.Run{}, false, err
	}
	if r.Terms, err = s.loadTerms(ctx, id); err != nil {
		return store.Run{}, false, err
	}
	return r, true, nil
}

func (s *sqliteStore) loadRanking(ctx context.Context, runID string) ([]store.RankedDoc, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT rank, doc_index, doc_id, score FROM run_ranking
WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.RankedDoc
	for rows.Next() {
		var (
			rd    store.RankedDoc
			docID sql.NullString
		)
		if err := rows.Scan(&rd.Rank, &rd.Index, &docID, &rd.Score); err != nil {
			return nil, err
		}
		rd.DocID = docID.String
		out = append(out, rd)
	}
	return out, rows.Err()
}

func (s *sqliteStore) loadTopics(ctx context.Context, runID string) ([]store.Topic, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT t.topic, tt.term, tt.weight
FROM run_topics t
LEFT JOIN run_topic_terms tt ON tt.run_id = t.run_id AND tt.topic = t.topic
WHERE t.run_id = ?
ORDER BY t.topic, tt.position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Topic
	for rows.Next() {
		var (
			idx    int
			term   sql.NullString
			weight sql.NullFloat64
		)
		if err := rows.Scan(&idx, &term, &weight); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].Index != idx {
			out = append(out, store.Topic{Index: idx, Terms: []store.TopicTerm{}})
		}
		if term.Valid {
			last := &out[len(out)-1]
			last.Terms = append(last.Terms, store.TopicTerm{Term: term.String, Weight: weight.Float64})
		}
	}
	return out, rows.Err()
}

func (s *sqliteStore) loadTerms(ctx context.Context, runID string) ([]store.TermStat, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT term, count, df, idf FROM run_terms
WHERE run_id = ? ORDER BY term`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.TermStat
	for rows.Next() {
		var ts store.TermStat
		if err := rows.Scan(&ts.Term, &ts.Count, &ts.DF, &ts.IDF); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// ListRuns returns run summaries, newest first
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, created_at, query, doc_count, vocab_size, matching
FROM runs
ORDER BY created_at DESC, id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.RunSummary
	for rows.Next() {
		var (
			rs      store.RunSummary
			created string
			query   sql.NullString
		)
		if err := rows.Scan(&rs.ID, &created, &query, &rs.DocCount, &rs.VocabSize, &rs.Matching); err != nil {
			return nil, err
		}
		rs.Query = query.String
		if rs.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("run %s: created_at: %w", rs.ID, err)
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}
