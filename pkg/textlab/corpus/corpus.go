// Package corpus loads raw document records and filters them by category.
package corpus

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/textlab/pkg/textlab/internalerr"
)

// Record is a raw document record as supplied by a data source.
// A nil Text is a document without a body; a nil ID or Category makes the
// record malformed.
type Record struct {
	ID       *string `json:"id"`
	Category *string `json:"category"`
	Text     *string `json:"text"`
}

// NewRecord is a convenience constructor for well-formed records.
func NewRecord(id, category, text string) Record {
	return Record{ID: &id, Category: &category, Text: &text}
}

// Validate checks that the required fields are present.
func (r Record) Validate() error {
	if r.ID == nil {
		return fmt.Errorf("%w: id is required", internalerr.ErrMalformedRecord)
	}
	if r.Category == nil {
		return fmt.Errorf("%w: category is required", internalerr.ErrMalformedRecord)
	}
	return nil
}

// Document is an immutable loaded document. Its position in the Corpus is the
// row index used by every later stage.
type Document struct {
	ID       string
	Category string
	Text     string
}

// Corpus holds the filtered documents as aligned sequences.
type Corpus struct {
	Docs       []Document
	IDs        []string
	Texts      []string
	Categories []string

	before Stats
	after  Stats
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.Docs)
}

// StatsBefore returns the statistics of every valid record, ignoring the
// category filter.
func (c *Corpus) StatsBefore() Stats {
	return c.before
}

// StatsAfter returns the statistics of the filtered documents.
func (c *Corpus) StatsAfter() Stats {
	return c.after
}

// Load validates records and keeps those whose category is allowed,
// preserving source order. An empty allow-list keeps every record.
func Load(records []Record, allowed []string) (*Corpus, error) {
	allow := make(map[string]struct{}, len(allowed))
	for _, cat := range allowed {
		allow[cat] = struct{}{}
	}

	all := make([]string, 0, len(records))
	c := &Corpus{}
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		text := ""
		if r.Text != nil {
			text = *r.Text
		}
		all = append(all, text)

		if len(allow) > 0 {
			if _, ok := allow[*r.Category]; !ok {
				continue
			}
		}
		c.Docs = append(c.Docs, Document{ID: *r.ID, Category: *r.Category, Text: text})
		c.IDs = append(c.IDs, *r.ID)
		c.Texts = append(c.Texts, text)
		c.Categories = append(c.Categories, *r.Category)
	}

	c.before = ComputeStats(all)
	c.after = ComputeStats(c.Texts)
	return c, nil
}

// Stats summarises raw text volume.
type Stats struct {
	Documents    int `json:"documents"`
	Characters   int `json:"characters"`
	Tokens       int `json:"tokens"`
	UniqueTokens int `json:"unique_tokens"`
}

// ComputeStats counts characters (code points), whitespace-separated tokens
// and distinct tokens over texts.
func ComputeStats(texts []string) Stats {
	st := Stats{Documents: len(texts)}
	unique := make(map[string]struct{})
	for _, text := range texts {
		st.Characters += utf8.RuneCountInString(text)
		words := strings.Fields(text)
		st.Tokens += len(words)
		for _, w := range words {
			unique[w] = struct{}{}
		}
	}
	st.UniqueTokens = len(unique)
	return st
}

// Categories returns the distinct categories of records in first-seen order.
func Categories(records []Record) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		if r.Category == nil {
			continue
		}
		if _, ok := seen[*r.Category]; ok {
			continue
		}
		seen[*r.Category] = struct{}{}
		out = append(out, *r.Category)
	}
	return out
}
