package score

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Terms is the analyzed form of a text: term counts plus sorted keys so
// that every floating-point sum runs in a fixed order.
type Terms struct {
	counts map[string]int
	keys   []string
}

func newTerms(tokens []string) Terms {
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Terms{counts: counts, keys: keys}
}

// Len returns the number of distinct terms.
func (t Terms) Len() int { return len(t.keys) }

// Count returns how often term occurred.
func (t Terms) Count(term string) int { return t.counts[term] }

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func fold(text string) string {
	return strings.ToLower(norm.NFC.String(text))
}

// wordTokens returns runs of word characters with at least minRunes runes.
func wordTokens(text string, minRunes int) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) >= minRunes {
			tokens = append(tokens, string(cur))
		}
		cur = cur[:0]
	}
	for _, r := range text {
		if isWordRune(r) {
			cur = append(cur, r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// clitics are split off the end of a word the way the Penn Treebank
// tokenizer does: "don't" -> "do" "n't", "sponsor's" -> "sponsor" "'s".
var clitics = []string{"n't", "'ll", "'re", "'ve", "'s", "'m", "'d"}

func splitClitic(word string) []string {
	for _, c := range clitics {
		if len(word) > len(c) && strings.HasSuffix(word, c) {
			return []string{word[:len(word)-len(c)], c}
		}
	}
	return []string{word}
}

// lexicalTokens splits text into words, clitics and single punctuation
// marks. An apostrophe between letters stays inside the word unless it
// starts a clitic ("o'brien" stays whole).
func lexicalTokens(text string) []string {
	runes := []rune(text)
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, splitClitic(string(cur))...)
			cur = cur[:0]
		}
	}
	for i, r := range runes {
		switch {
		case isWordRune(r):
			cur = append(cur, r)
		case (r == '\'' || r == '’') && len(cur) > 0 && i+1 < len(runes) && isWordRune(runes[i+1]):
			cur = append(cur, '\'')
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			tokens = append(tokens, string(r))
		}
	}
	flush()
	return tokens
}

func removeStopWords(tokens []string, stop map[string]bool) []string {
	out := tokens[:0]
	for _, t := range tokens {
		if !stop[t] {
			out = append(out, t)
		}
	}
	return out
}
