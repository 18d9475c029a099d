// Package segment splits document text into sentences. Flagging and
// rendering must share one Segmenter so that flags attach to the same
// sentence strings they were computed on.
package segment

import (
	"fmt"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"github.com/ppiankov/clauseflag/internal/model"
)

// Segmenter turns text into ordered sentences.
type Segmenter interface {
	Split(text string) []model.Sentence
}

// Punkt is the English Punkt sentence tokenizer. Known abbreviations and
// decimal numbers do not end a sentence.
type Punkt struct {
	mu        sync.Mutex
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunkt loads the bundled English model.
func NewPunkt() (*Punkt, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load english sentence model: %w", err)
	}
	return &Punkt{tokenizer: tok}, nil
}

var (
	defaultOnce sync.Once
	defaultSeg  *Punkt
	defaultErr  error
)

// Default returns a process-wide Punkt segmenter, loading the model once.
func Default() (*Punkt, error) {
	defaultOnce.Do(func() {
		defaultSeg, defaultErr = NewPunkt()
	})
	return defaultSeg, defaultErr
}

// Split returns trimmed, non-empty sentences in document order.
func (p *Punkt) Split(text string) []model.Sentence {
	p.mu.Lock()
	raw := p.tokenizer.Tokenize(text)
	p.mu.Unlock()

	out := make([]model.Sentence, 0, len(raw))
	for _, s := range raw {
		t := strings.TrimSpace(s.Text)
		if t == "" {
			continue
		}
		out = append(out, model.Sentence{Index: len(out), Text: t})
	}
	return out
}
