package validate

import (
	"regexp"
	"strings"
)

// #region complexity

// Inter-word vowel hiatus: a vowel-final word running into a vowel-initial
// (possibly h-prefixed) word. These junctions elide during synthesis and
// are the usual source of spectral discontinuities.
var hiatusRe = regexp.MustCompile(`(?i)[aeiouáéíóú][,;]?\s+h?[aeiouáéíóú]`)

// Word-final consonants the engine tends to clip.
const problematicFinals = "sdrnl"

var wordTrimRe = regexp.MustCompile(`[.!?,;:"»”)]+$`)

// CountHiatus returns the number of inter-word vowel-hiatus junctions.
func CountHiatus(text string) int {
	return len(hiatusRe.FindAllString(text, -1))
}

// CountProblematicFinals counts words ending in a clip-prone consonant.
func CountProblematicFinals(text string) int {
	n := 0
	for _, w := range strings.Fields(text) {
		w = wordTrimRe.ReplaceAllString(w, "")
		if w == "" {
			continue
		}
		runes := []rune(strings.ToLower(w))
		if strings.ContainsRune(problematicFinals, runes[len(runes)-1]) {
			n++
		}
	}
	return n
}

// EndsProblematic reports whether the sentence's last word ends in a
// clip-prone consonant.
func EndsProblematic(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	w := wordTrimRe.ReplaceAllString(fields[len(fields)-1], "")
	if w == "" {
		return false
	}
	runes := []rune(strings.ToLower(w))
	return strings.ContainsRune(problematicFinals, runes[len(runes)-1])
}

// Complexity scores a sentence's synthesis difficulty in [0, 1] from its
// hiatus junctions and clip-prone finals.
func Complexity(text string) float64 {
	score := 0.1*float64(CountHiatus(text)) + 0.02*float64(CountProblematicFinals(text))
	if score > 1 {
		return 1
	}
	return score
}

// #endregion complexity
