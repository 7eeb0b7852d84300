package vectorize

import (
	"strings"
	"testing"

	"github.com/cognicore/textlab/pkg/textlab/stoplist"
)

func scenarioFit(t *testing.T) *Fitted {
	t.Helper()
	v := New(Options{
		Stopwords:      stoplist.NewManager([]string{"the", "and"}),
		MinTokenLength: 3,
		AlphabeticOnly: true,
	})
	return v.Fit([]string{"the cat sat", "the dog sat", "cats and dogs"})
}

func TestTokenizerBasic(t *testing.T) {
	tok := NewTokenizer(stoplist.NewManager([]string{"the", "over"}), 3, true)

	tokens := tok.Tokenize("The quick brown fox jumps over the lazy dog")
	expected := []string{"quick", "brown", "fox", "jumps", "lazy", "dog"}
	if strings.Join(tokens, " ") != strings.Join(expected, " ") {
		t.Errorf("got %v, want %v", tokens, expected)
	}
}

func TestTokenizerHyphensAndLength(t *testing.T) {
	tok := NewTokenizer(nil, 3, true)

	tokens := tok.Tokenize("Machine-learning --edge-- a-b x ok ---")
	expected := []string{"machine-learning", "edge", "a-b"}
	if strings.Join(tokens, " ") != strings.Join(expected, " ") {
		t.Errorf("got %v, want %v", tokens, expected)
	}
}

func TestCleanTokenHyphens(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"--edge--", "edge"},
		{"---", ""},
		{"-", ""},
		{"well--known", "well-known"},
		{"a---b", "a-b"},
		{"state-of-the-art", "state-of-the-art"},
	}
	for _, tt := range tests {
		if got := cleanToken(tt.in); got != tt.want {
			t.Errorf("cleanToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	// hyphen-wrapped and bare forms share one vocabulary entry
	f := New(Options{MinTokenLength: 3, AlphabeticOnly: true}).Fit([]string{"--edge-- edge", "---"})
	if got := f.Vocabulary.Tokens(); len(got) != 1 || got[0] != "edge" {
		t.Errorf("vocabulary = %v, want [edge]", got)
	}
	if f.Counts.At(0, 0) != 2 || !f.Counts.Row(1).IsZero() {
		t.Errorf("unexpected counts: row0=%v row1=%v", f.Counts.Row(0), f.Counts.Row(1))
	}
}

func TestTokenizerDigits(t *testing.T) {
	alpha := NewTokenizer(nil, 3, true)
	if got := alpha.Tokenize("covid19 g20"); strings.Join(got, " ") != "covid" {
		t.Errorf("alphabetic tokenizer should split on digits, got %v", got)
	}

	mixed := NewTokenizer(nil, 3, false)
	if got := mixed.Tokenize("covid19 g20"); strings.Join(got, " ") != "covid19 g20" {
		t.Errorf("mixed tokenizer should keep digits, got %v", got)
	}
}

func TestTokenizerDefaultMinLength(t *testing.T) {
	tok := NewTokenizer(nil, 0, true)
	if got := tok.Tokenize("an ant"); len(got) != 1 || got[0] != "ant" {
		t.Errorf("expected default min length 3, got %v", got)
	}
}

func TestFitScenarioVocabulary(t *testing.T) {
	f := scenarioFit(t)

	expected := []string{"cat", "cats", "dog", "dogs", "sat"}
	if got := f.Vocabulary.Tokens(); strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Fatalf("vocabulary = %v, want %v", got, expected)
	}
	for i, tok := range expected {
		idx, ok := f.Vocabulary.Index(tok)
		if !ok || idx != i || f.Vocabulary.Token(i) != tok {
			t.Errorf("vocabulary not bijective for %q", tok)
		}
	}
	if _, ok := f.Vocabulary.Index("the"); ok {
		t.Error("stop-word 'the' must not be in the vocabulary")
	}
}

func TestFitScenarioMatrix(t *testing.T) {
	f := scenarioFit(t)

	rows, cols := f.Counts.Dims()
	if rows != 3 || cols != 5 {
		t.Fatalf("expected 3x5 matrix, got %dx%d", rows, cols)
	}
	want := []float64{1, 0, 0, 0, 1} // cat, cats, dog, dogs, sat
	for j, w := range want {
		if got := f.Counts.At(0, j); got != w {
			t.Errorf("doc 0 column %d = %v, want %v", j, got, w)
		}
	}
	if f.Counts.At(2, 1) != 1 || f.Counts.At(2, 3) != 1 {
		t.Error("doc 2 should count cats and dogs")
	}
	totals := f.TermTotals()
	if totals[4] != 2 {
		t.Errorf("'sat' total = %v, want 2", totals[4])
	}
}

func TestFitIsDeterministic(t *testing.T) {
	a := scenarioFit(t)
	b := scenarioFit(t)

	if strings.Join(a.Vocabulary.Tokens(), ",") != strings.Join(b.Vocabulary.Tokens(), ",") {
		t.Error("vocabularies differ between fits")
	}
	if !a.Counts.Equal(b.Counts) {
		t.Error("count matrices differ between fits")
	}
}

func TestTransformDropsUnknownTokens(t *testing.T) {
	f := scenarioFit(t)

	vec := f.Transform("cat cat bird unicorn")
	if vec.NNZ() != 1 || vec.At(0) != 2 {
		t.Errorf("unexpected query vector %+v", vec)
	}
	if !f.Transform("zebra giraffe").IsZero() {
		t.Error("all-unknown text should give a zero vector")
	}
}

func TestFitEmptyCorpus(t *testing.T) {
	f := New(Options{}).Fit(nil)
	rows, cols := f.Counts.Dims()
	if rows != 0 || cols != 0 || f.Vocabulary.Len() != 0 {
		t.Errorf("expected empty fit, got %dx%d", rows, cols)
	}
	if !f.Transform("anything here").IsZero() {
		t.Error("transform on empty vocabulary should be zero")
	}
}
