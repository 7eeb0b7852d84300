// Package guardian reads and downloads articles from the Guardian content
// API. Articles are cached as one JSON array per publication day.
package guardian

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/cognicore/textlab/pkg/textlab/corpus"
)

// Article is a search result as returned with show-fields=all. Only the
// fields the pipeline reads are decoded. ID and SectionID are nil when the
// key is missing from the cached JSON.
type Article struct {
	ID        *string `json:"id"`
	SectionID *string `json:"sectionId"`
	WebTitle  string  `json:"webTitle"`
	Fields    Fields  `json:"fields"`
}

// Fields holds the article body in plain and HTML form.
type Fields struct {
	BodyText string `json:"bodyText"`
	Body     string `json:"body"`
}

// Record converts the article into a corpus record. The section id is the
// category. The text is bodyText, else the HTML body stripped of markup,
// else absent. A missing id or section stays nil so the record fails
// validation.
func (a Article) Record() corpus.Record {
	rec := corpus.Record{ID: a.ID, Category: a.SectionID}
	switch {
	case a.Fields.BodyText != "":
		text := a.Fields.BodyText
		rec.Text = &text
	case a.Fields.Body != "":
		text := stripHTML(a.Fields.Body)
		rec.Text = &text
	}
	return rec
}

// LoadDir reads every *.json day file in dir, in file-name order, and
// returns the articles as records. An article without an id or section id
// is an error wrapping internalerr.ErrMalformedRecord.
func LoadDir(dir string) ([]corpus.Record, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var records []corpus.Record
	for _, path := range files {
		articles, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		for i, a := range articles {
			rec := a.Record()
			if err := rec.Validate(); err != nil {
				return nil, fmt.Errorf("%s: article %d: %w", path, i, err)
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// LoadFile reads one day file.
func LoadFile(path string) ([]Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	var articles []Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return articles, nil
}

func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		// Fallback to string if parsing fails
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	// text nodes of adjacent paragraphs must not run together
	return strings.Join(strings.Fields(buf.String()), " ")
}
