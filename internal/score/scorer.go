// Package score computes similarity between two spans of text.
//
// Both metrics are split into Analyze (text → Terms) and Compare
// (Terms × Terms → score) so a flagging run can analyze each sentence and
// each problem record once and compare the cached Terms many times. Compare
// only ever looks at the two Terms it is given, so the result is the same
// as scoring the raw pair from scratch.
package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/clauseflag/internal/model"
)

// Metric is a symmetric similarity in [0,1].
type Metric interface {
	Name() string
	Analyze(text string) Terms
	Compare(a, b Terms) float64
}

// Score analyzes both strings and compares them.
func Score(m Metric, a, b string) float64 {
	return m.Compare(m.Analyze(a), m.Analyze(b))
}

// NewMetric returns the metric registered under name.
func NewMetric(name string) (Metric, error) {
	switch name {
	case model.MetricCosine, "":
		return Cosine{}, nil
	case model.MetricJaccard:
		return Jaccard{}, nil
	default:
		return nil, fmt.Errorf("unknown metric: %s (supported: %s, %s)", name, model.MetricCosine, model.MetricJaccard)
	}
}

// Cosine is TF-IDF cosine similarity over a corpus made of just the two
// compared texts. Tokens are lowercased runs of two or more word
// characters with English stop words removed.
//
// With n = 2 documents the smoothed idf is ln(3/(1+df)) + 1, so a shared
// term weighs 1 and a term unique to one side weighs 1 + ln(1.5).
type Cosine struct{}

func (Cosine) Name() string { return model.MetricCosine }

func (Cosine) Analyze(text string) Terms {
	return newTerms(removeStopWords(wordTokens(fold(text), 2), tfidfStopWords))
}

var (
	idfShared = math.Log(3.0/3.0) + 1
	idfSingle = math.Log(3.0/2.0) + 1
)

func (Cosine) Compare(a, b Terms) float64 {
	if a.Len() == 0 || b.Len() == 0 {
		return 0
	}

	weight := func(t Terms, other Terms, term string) float64 {
		idf := idfSingle
		if other.Count(term) > 0 {
			idf = idfShared
		}
		return float64(t.Count(term)) * idf
	}

	var normA, normB, dot float64
	for _, k := range a.keys {
		w := weight(a, b, k)
		normA += w * w
	}
	for _, k := range b.keys {
		w := weight(b, a, k)
		normB += w * w
	}
	// Only shared terms contribute; both keys lists are sorted, so the sum
	// runs in the same order whichever side is a.
	for _, k := range a.keys {
		if cb := b.Count(k); cb > 0 {
			dot += (float64(a.Count(k)) * idfShared) * (float64(cb) * idfShared)
		}
	}

	if dot == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return clamp01(sim)
}

// Jaccard is token-set overlap |A∩B| / |A∪B| after case folding and stop
// word removal. An empty union scores 0.
type Jaccard struct{}

func (Jaccard) Name() string { return model.MetricJaccard }

func (Jaccard) Analyze(text string) Terms {
	return newTerms(removeStopWords(lexicalTokens(fold(text)), lexicalStopWords))
}

func (Jaccard) Compare(a, b Terms) float64 {
	inter := 0
	for _, k := range a.keys {
		if b.Count(k) > 0 {
			inter++
		}
	}
	union := a.Len() + b.Len() - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
