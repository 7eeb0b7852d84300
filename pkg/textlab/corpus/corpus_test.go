package corpus

import (
	"errors"
	"strings"
	"testing"

	"github.com/cognicore/textlab/pkg/textlab/internalerr"
)

func TestLoadFiltersByCategoryPreservingOrder(t *testing.T) {
	records := []Record{
		NewRecord("n1", "news", "first news"),
		NewRecord("s1", "sports", "first sports"),
		NewRecord("n2", "news", "second news"),
		NewRecord("s2", "sports", "second sports"),
		NewRecord("n3", "news", "third news"),
	}

	c, err := Load(records, []string{"sports"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 docs, got %d", c.Len())
	}
	if c.IDs[0] != "s1" || c.IDs[1] != "s2" {
		t.Errorf("order not preserved: %v", c.IDs)
	}
	for i, doc := range c.Docs {
		if doc.ID != c.IDs[i] || doc.Text != c.Texts[i] || doc.Category != c.Categories[i] {
			t.Errorf("doc %d not aligned: %+v", i, doc)
		}
	}
}

func TestLoadNullTextBecomesEmpty(t *testing.T) {
	id, cat := "a", "world"
	c, err := Load([]Record{{ID: &id, Category: &cat}}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 1 || c.Texts[0] != "" {
		t.Fatalf("expected one empty document, got %+v", c.Docs)
	}
}

func TestLoadEmptyAllowListKeepsAll(t *testing.T) {
	records := []Record{NewRecord("a", "x", "one"), NewRecord("b", "y", "two")}
	c, err := Load(records, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 docs, got %d", c.Len())
	}
}

func TestLoadMissingFieldIsDataError(t *testing.T) {
	text := "body"
	cat := "news"
	tests := []struct {
		name string
		rec  Record
	}{
		{"missing id", Record{Category: &cat, Text: &text}},
		{"missing category", Record{ID: &text, Text: &text}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]Record{NewRecord("ok", "news", ""), tt.rec}, nil)
			if !errors.Is(err, internalerr.ErrMalformedRecord) {
				t.Fatalf("expected ErrMalformedRecord, got %v", err)
			}
			if !strings.Contains(err.Error(), "record 1") {
				t.Errorf("error should name the record index: %v", err)
			}
		})
	}
}

func TestStatsBeforeAndAfter(t *testing.T) {
	records := []Record{
		NewRecord("1", "keep", "the cat sat"),
		NewRecord("2", "drop", "the dog ran far"),
		NewRecord("3", "keep", "cat café"),
	}
	c, err := Load(records, []string{"keep"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	before := c.StatsBefore()
	if before.Documents != 3 || before.Tokens != 9 {
		t.Errorf("unexpected before stats: %+v", before)
	}
	// "café" counts as four characters
	if before.Characters != 11+15+8 {
		t.Errorf("expected %d characters, got %d", 11+15+8, before.Characters)
	}

	after := c.StatsAfter()
	if after.Documents != 2 || after.Tokens != 5 || after.UniqueTokens != 4 {
		t.Errorf("unexpected after stats: %+v", after)
	}
}

func TestEmptyCorpusAfterFilter(t *testing.T) {
	c, err := Load([]Record{NewRecord("1", "news", "text")}, []string{"sports"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty corpus")
	}
	if c.StatsAfter() != (Stats{}) {
		t.Errorf("expected zero stats, got %+v", c.StatsAfter())
	}
}

func TestCategories(t *testing.T) {
	records := []Record{
		NewRecord("1", "b", ""),
		NewRecord("2", "a", ""),
		NewRecord("3", "b", ""),
	}
	cats := Categories(records)
	if len(cats) != 2 || cats[0] != "b" || cats[1] != "a" {
		t.Errorf("unexpected categories: %v", cats)
	}
}

func TestReadJSONL(t *testing.T) {
	input := `{"id":"a","category":"news","text":"hello world"}

{"id":"b","category":"sports","text":null}
`
	records, err := ReadJSONL(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].Text != nil {
		t.Errorf("null text should decode as nil")
	}
}

func TestReadJSONLMalformed(t *testing.T) {
	tests := []string{
		`{"id":"a","category":"news"`,
		`{"category":"news","text":"x"}`,
	}
	for _, input := range tests {
		_, err := ReadJSONL(strings.NewReader(input))
		if !errors.Is(err, internalerr.ErrMalformedRecord) {
			t.Errorf("input %q: expected ErrMalformedRecord, got %v", input, err)
		}
	}
}
