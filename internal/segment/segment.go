// Package segment splits raw document text into paragraphs and sentences,
// honoring Spanish open/close punctuation and abbreviation tokens, and
// merges fragments too short to synthesize stably.
package segment

import (
	"regexp"
	"strings"
)

// #region types

// Paragraph is one narrative block of the source document.
type Paragraph struct {
	Index     int
	Text      string
	Sentences []string
}

// Document is the ordered, immutable segmentation result.
type Document struct {
	Paragraphs []Paragraph
}

// SentenceCount returns the total sentence count across paragraphs.
func (d Document) SentenceCount() int {
	n := 0
	for _, p := range d.Paragraphs {
		n += len(p.Sentences)
	}
	return n
}

// #endregion types

// #region config

const (
	minParagraphChars = 10
	mergeMinWords     = 4
	mergeMaxChars     = 160
)

// #endregion config

// #region paragraphs

var (
	blankLineRe  = regexp.MustCompile(`\n\s*\n`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// SplitParagraphs breaks text at blank lines, collapses internal whitespace,
// drops blocks under 10 characters as noise, and guarantees each paragraph
// ends in terminal punctuation.
func SplitParagraphs(text string) []string {
	var out []string
	for _, block := range blankLineRe.Split(text, -1) {
		p := strings.TrimSpace(whitespaceRe.ReplaceAllString(block, " "))
		if len(p) < minParagraphChars {
			continue
		}
		if !strings.ContainsAny(string(p[len(p)-1]), ".!?") {
			p = ensureTerminal(p)
		}
		out = append(out, p)
	}
	return out
}

// #endregion paragraphs

// #region sentences

var (
	abbrevRe = regexp.MustCompile(`\b(Sr|Sra|Dr|Dra|St|Sto|Sta)\.`)
	forcedRe = regexp.MustCompile(`([.!?])\s*([¿¡])`)
)

const dotToken = "\x00DOT\x00"

// Each pattern marks a boundary: part one ends at the close of group 1,
// part two starts at group 2. Ordered by precedence; minLeft guards the
// period rule against abbreviating single letters.
var dividerPatterns = []struct {
	re      *regexp.Regexp
	minLeft int
}{
	{regexp.MustCompile(`([!?])\s*([¿¡])`), 0},
	{regexp.MustCompile(`([.!?])\s*([¿¡])`), 1},
	{regexp.MustCompile(`([!?])\s+([A-ZÁÉÍÓÚÑ])`), 0},
	{regexp.MustCompile(`(\.)\s+([A-ZÁÉÍÓÚÑ])`), 3},
}

// SplitSentences divides a paragraph into sentences. Abbreviation periods
// never split; `¿` and `¡` force a boundary even without whitespace; any
// fragment still holding an internal terminal mark followed by a capital or
// opening mark is re-split until a fixpoint. Every output sentence is
// non-empty and ends in one of `.!?`.
func SplitSentences(paragraph string) []string {
	protected := abbrevRe.ReplaceAllString(paragraph, "${1}"+dotToken)
	protected = forcedRe.ReplaceAllString(protected, "$1\n$2")

	var sentences []string
	for _, chunk := range strings.Split(protected, "\n") {
		for _, s := range divide(chunk) {
			s = strings.TrimSpace(strings.ReplaceAll(s, dotToken, "."))
			if s == "" {
				continue
			}
			sentences = append(sentences, ensureTerminal(s))
		}
	}
	return sentences
}

// divide applies the first matching boundary pattern once and recurses on
// both halves; a chunk with no boundary is returned whole.
func divide(chunk string) []string {
	trimmed := strings.TrimSpace(chunk)
	if trimmed == "" {
		return nil
	}
	for _, p := range dividerPatterns {
		loc := p.re.FindStringSubmatchIndex(trimmed)
		if loc == nil {
			continue
		}
		left := trimmed[:loc[3]]
		right := trimmed[loc[4]:]
		if len(strings.TrimSpace(left)) <= p.minLeft {
			continue
		}
		return append(divide(left), divide(right)...)
	}
	return []string{trimmed}
}

// ensureTerminal closes a fragment with terminal punctuation, converting a
// dangling opening mark to its closing twin.
func ensureTerminal(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if strings.ContainsAny(string(s[len(s)-1]), ".!?") {
		return s
	}
	runes := []rune(s)
	switch runes[len(runes)-1] {
	case '¡':
		return string(runes[:len(runes)-1]) + "!"
	case '¿':
		return string(runes[:len(runes)-1]) + "?"
	}
	return s + "."
}

// #endregion sentences

// #region merge

// MergeShort appends sentences under minWords words to their predecessor,
// joining with a comma (dropping the predecessor's period) unless the
// predecessor ends mid-clause, in which case a plain space suffices.
// Questions and exclamations are never merged across: a fragment following
// `?`/`!`, or itself opening with `¿`/`¡`, stays separate. Merges that would
// exceed maxChars are skipped.
func MergeShort(sentences []string, minWords, maxChars int) []string {
	var out []string
	for _, s := range sentences {
		if len(out) == 0 || len(strings.Fields(s)) >= minWords {
			out = append(out, s)
			continue
		}
		prev := out[len(out)-1]
		if strings.HasSuffix(prev, "?") || strings.HasSuffix(prev, "!") ||
			strings.HasPrefix(s, "¿") || strings.HasPrefix(s, "¡") {
			out = append(out, s)
			continue
		}

		sep := ", "
		joined := prev
		switch {
		case strings.HasSuffix(prev, ",") || strings.HasSuffix(prev, ";") || strings.HasSuffix(prev, ":"):
			sep = " "
		case strings.HasSuffix(prev, "."):
			joined = strings.TrimSuffix(prev, ".")
		}
		merged := joined + sep + s
		if len(merged) > maxChars {
			out = append(out, s)
			continue
		}
		out[len(out)-1] = merged
	}
	return out
}

// #endregion merge

// #region segment

// Segment runs the full pass: paragraphs, sentences, short-fragment merge.
func Segment(text string) Document {
	var doc Document
	for _, p := range SplitParagraphs(text) {
		sentences := MergeShort(SplitSentences(p), mergeMinWords, mergeMaxChars)
		if len(sentences) == 0 {
			continue
		}
		doc.Paragraphs = append(doc.Paragraphs, Paragraph{
			Index:     len(doc.Paragraphs),
			Text:      p,
			Sentences: sentences,
		})
	}
	return doc
}

// #endregion segment
