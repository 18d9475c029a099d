// Package render turns flagging results into the delimited text stream
// consumed by the downstream annotator, plus JSON and console summaries.
package render

import (
	"strconv"
	"strings"

	"github.com/ppiankov/clauseflag/internal/model"
	"github.com/ppiankov/clauseflag/internal/segment"
)

// Markers of a flagged block. The downstream annotator matches these
// lines literally.
const (
	BeginMarker = "[POTENTIAL PROBLEMATIC LANGUAGE DETECTED]"
	EndMarker   = "[END POTENTIAL PROBLEMATIC LANGUAGE]"
	absent      = "None"
)

// Delimiter is the 91-asterisk rule around each flagged block.
var Delimiter = strings.Repeat("*", 91)

// Annotator re-serializes a document with flagged sentences wrapped in blocks.
type Annotator struct {
	segmenter segment.Segmenter
}

// NewAnnotator must be given the segmenter used for flagging.
func NewAnnotator(seg segment.Segmenter) *Annotator {
	return &Annotator{segmenter: seg}
}

// Render emits sentences in document order, one per line. Membership is
// checked by sentence text, so repeated sentences are all annotated.
func (a *Annotator) Render(documentText string, flags model.Flags) string {
	return RenderSentences(a.segmenter.Split(documentText), flags)
}

// RenderSentences renders already-segmented sentences.
func RenderSentences(sentences []model.Sentence, flags model.Flags) string {
	lines := make([]string, 0, len(sentences))
	for _, s := range sentences {
		m, ok := flags[strings.TrimSpace(s.Text)]
		if !ok {
			lines = append(lines, s.Text)
			continue
		}
		lines = append(lines, Block(s.Text, m)...)
	}
	return strings.Join(lines, "\n")
}

// Block returns the lines of one flagged block.
func Block(sentence string, m model.Match) []string {
	return []string{
		"\t\t" + Delimiter,
		"\t" + BeginMarker,
		sentence,
		"\t\tProblem Category: " + m.Category,
		"\t\tCommon Problems: " + m.Problem,
		"\t\tPreferred Language: " + formatList(m.PreferredLanguage),
		"\t\tWhy: " + formatOptional(m.Why),
		"\t\t1st response to Sponsor: " + formatOptional(m.Response),
		"\t\tConfidence: " + FormatConfidence(m.Confidence),
		"\t\t" + EndMarker,
		Delimiter,
	}
}

func formatOptional(s *string) string {
	if s == nil {
		return absent
	}
	return *s
}

// formatList renders a list as ['a', "b's"], the form the annotator parses.
func formatList(items []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(it))
	}
	b.WriteByte(']')
	return b.String()
}

// quote prefers single quotes and switches to double quotes when the text
// has an apostrophe but no double quote.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

// FormatConfidence prints the shortest round-trip form, always with a
// decimal point or exponent (0.5, 1.0, 0.8473...).
func FormatConfidence(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
