package model

// ProblemRecord is one row of known problematic phrasing in a category.
type ProblemRecord struct {
	Text     string  `json:"text" yaml:"text"`                             // The problematic phrasing
	Why      *string `json:"why,omitempty" yaml:"why,omitempty"`           // Rationale; nil when absent
	Response *string `json:"response,omitempty" yaml:"response,omitempty"` // Suggested reply to the sponsor; nil when absent
}

// Category groups problem records under one reference sheet.
type Category struct {
	Name              string          `json:"name" yaml:"name"`
	Problems          []ProblemRecord `json:"problems" yaml:"problems"`
	PreferredLanguage []string        `json:"preferred_language" yaml:"preferred_language"`
}

// Matrix is the ordered set of categories extracted from one workbook.
// Order follows the workbook's sheet order and drives tie-breaking.
type Matrix struct {
	Source     string     `json:"source,omitempty" yaml:"source,omitempty"`
	Categories []Category `json:"categories" yaml:"categories"`
}

// Lookup returns the category with the given name.
func (m *Matrix) Lookup(name string) (*Category, bool) {
	for i := range m.Categories {
		if m.Categories[i].Name == name {
			return &m.Categories[i], true
		}
	}
	return nil, false
}

// ProblemCount returns the number of problem records across all categories.
func (m *Matrix) ProblemCount() int {
	n := 0
	for _, c := range m.Categories {
		n += len(c.Problems)
	}
	return n
}

// Sentence is one segmented unit of the input document.
type Sentence struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Match is a positive similarity decision for a sentence.
type Match struct {
	Sentence          string   `json:"sentence"`
	Category          string   `json:"category"`
	Problem           string   `json:"problem"`
	PreferredLanguage []string `json:"preferred_language"`
	Why               *string  `json:"why,omitempty"`
	Response          *string  `json:"response,omitempty"`
	Confidence        float64  `json:"confidence"`
}

// Flags maps sentence text to its match. Identical sentence texts share one entry.
type Flags map[string]Match

// StrPtr returns a pointer to s, or nil when s is empty.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
