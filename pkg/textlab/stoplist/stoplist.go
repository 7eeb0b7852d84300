package stoplist

import (
	_ "embed"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed english.yaml
var englishYAML []byte

// English returns the built-in English stop-list.
func English() []string {
	var sl struct {
		Terms []string `yaml:"terms"`
	}
	if err := yaml.Unmarshal(englishYAML, &sl); err != nil {
		panic("stoplist: embedded english.yaml: " + err.Error())
	}
	return sl.Terms
}

// Manager holds the active stop-words. Lookups are case-insensitive.
type Manager struct {
	stops map[string]Reason
}

// Reason explains why a token is a stopword
type Reason struct {
	Configured bool    // supplied by configuration
	HighDF     bool    // high document frequency
	DFPercent  float64 // share of documents containing the token
	IDF        float64 // inverse document frequency
}

// NewManager creates a new stoplist manager
func NewManager(initialStops []string) *Manager {
	stops := make(map[string]Reason, len(initialStops))
	for _, s := range initialStops {
		stops[strings.ToLower(s)] = Reason{Configured: true}
	}
	return &Manager{stops: stops}
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[strings.ToLower(token)]
	return ok
}

// Add adds a token to the stoplist with a reason
func (m *Manager) Add(token string, reason Reason) {
	m.stops[strings.ToLower(token)] = reason
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, strings.ToLower(token))
}

// Len returns the number of stopwords.
func (m *Manager) Len() int {
	return len(m.stops)
}

// All returns all stopwords, sorted.
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Stats holds statistics for candidate evaluation
type Stats struct {
	Token     string
	DF        int64
	DFPercent float64
	IDF       float64
}

// Candidate represents a candidate stopword
type Candidate struct {
	Token  string  `json:"token"`
	Reason Reason  `json:"-"`
	Score  float64 `json:"score"`
}

// Thresholds defines criteria for stopword identification
type Thresholds struct {
	DFPercent float64 // e.g. 60% - appears in 60% of documents
	MinDocs   int64   // ignore tokens seen in fewer documents
}

// DefaultThresholds returns sensible default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DFPercent: 60.0,
		MinDocs:   2,
	}
}

// SuggestCandidates suggests tokens that behave like stopwords in the
// fitted corpus: they occur in more than DFPercent of documents. Candidates
// are ordered by score descending, then token.
func (m *Manager) SuggestCandidates(stats []Stats, thresholds Thresholds) []Candidate {
	var candidates []Candidate
	for _, s := range stats {
		if m.IsStop(s.Token) {
			continue // already a stopword
		}
		if s.DF < thresholds.MinDocs || s.DFPercent <= thresholds.DFPercent {
			continue
		}
		candidates = append(candidates, Candidate{
			Token: s.Token,
			Reason: Reason{
				HighDF:    true,
				DFPercent: s.DFPercent,
				IDF:       s.IDF,
			},
			Score: s.DFPercent / 100.0,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Token < candidates[j].Token
	})
	return candidates
}
