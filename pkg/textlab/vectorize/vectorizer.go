// Package vectorize turns document text into a document-term count matrix
// over a frozen vocabulary.
package vectorize

import (
	"sort"

	"github.com/cognicore/textlab/pkg/textlab/sparse"
)

// Options configures tokenization.
type Options struct {
	Stopwords      StopSet
	MinTokenLength int
	AlphabeticOnly bool
}

// Vocabulary is a frozen bijection between tokens and column indices.
// Tokens are assigned indices in sorted order.
type Vocabulary struct {
	index  map[string]int
	tokens []string
}

func newVocabulary(tokens []string) *Vocabulary {
	sort.Strings(tokens)
	index := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		index[tok] = i
	}
	return &Vocabulary{index: index, tokens: tokens}
}

// Len returns the vocabulary size.
func (v *Vocabulary) Len() int {
	return len(v.tokens)
}

// Index returns the column index of token.
func (v *Vocabulary) Index(token string) (int, bool) {
	i, ok := v.index[token]
	return i, ok
}

// Token returns the token at column i.
func (v *Vocabulary) Token(i int) string {
	return v.tokens[i]
}

// Tokens returns a copy of all tokens in index order.
func (v *Vocabulary) Tokens() []string {
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}

// Vectorizer builds vocabularies and count matrices.
type Vectorizer struct {
	tokenizer *Tokenizer
}

// New creates a Vectorizer.
func New(opts Options) *Vectorizer {
	return &Vectorizer{
		tokenizer: NewTokenizer(opts.Stopwords, opts.MinTokenLength, opts.AlphabeticOnly),
	}
}

// Tokenizer returns the tokenizer used for fitting and transforming.
func (v *Vectorizer) Tokenizer() *Tokenizer {
	return v.tokenizer
}

// Fitted is the result of fitting a Vectorizer on a corpus.
type Fitted struct {
	Vocabulary *Vocabulary
	Counts     *sparse.Matrix

	tokenizer *Tokenizer
}

// Fit builds the vocabulary over every qualifying token in texts and returns
// the document-term count matrix, one row per text in input order.
func (v *Vectorizer) Fit(texts []string) *Fitted {
	docs := make([][]string, len(texts))
	seen := make(map[string]struct{})
	var tokens []string
	for i, text := range texts {
		docs[i] = v.tokenizer.Tokenize(text)
		for _, tok := range docs[i] {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			tokens = append(tokens, tok)
		}
	}

	f := &Fitted{
		Vocabulary: newVocabulary(tokens),
		tokenizer:  v.tokenizer,
	}
	b := sparse.NewBuilder(f.Vocabulary.Len())
	for _, doc := range docs {
		b.AddRow(f.count(doc))
	}
	f.Counts = b.Build()
	return f
}

// Transform counts the tokens of text against the frozen vocabulary.
// Unknown tokens are dropped.
func (f *Fitted) Transform(text string) sparse.Vector {
	return f.count(f.tokenizer.Tokenize(text))
}

func (f *Fitted) count(tokens []string) sparse.Vector {
	counts := make(map[int]float64)
	for _, tok := range tokens {
		if idx, ok := f.Vocabulary.Index(tok); ok {
			counts[idx]++
		}
	}
	return sparse.NewVector(counts)
}

// TermTotals returns the corpus-wide count of every vocabulary term.
func (f *Fitted) TermTotals() []float64 {
	return f.Counts.ColSums()
}
