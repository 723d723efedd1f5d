package segment

import (
	"regexp"
	"strings"
)

// #region sanitize

var (
	ellipsisRe    = regexp.MustCompile(`…|\.{4,}`)
	multiQRe      = regexp.MustCompile(`\?{2,}`)
	multiBangRe   = regexp.MustCompile(`!{2,}`)
	trailingSepRe = regexp.MustCompile(`[,;:]\s*$`)
	trailingPunct = regexp.MustCompile(`[.!?,;:]+$`)
)

// Words the engine cannot close a clause on. A sentence ending in one of
// these gets a neutral completion appended.
var danglingWords = map[string]bool{
	"de": true, "del": true, "en": true, "con": true, "por": true,
	"para": true, "y": true, "o": true, "u": true, "que": true,
	"a": true, "al": true, "la": true, "el": true,
}

// PrepareForEngine rewrites a sentence into text the synthesis engine
// handles reliably: leading inverted marks stripped, ellipses normalized,
// repeated terminal signs collapsed, trailing clause separators replaced
// with a period, and dangling function-word endings completed.
func PrepareForEngine(text string) string {
	s := strings.TrimSpace(text)
	for strings.HasPrefix(s, "¿") || strings.HasPrefix(s, "¡") {
		s = strings.TrimSpace(s[len("¿"):])
	}
	s = ellipsisRe.ReplaceAllString(s, "...")
	s = multiQRe.ReplaceAllString(s, "?")
	s = multiBangRe.ReplaceAllString(s, "!")
	s = trailingSepRe.ReplaceAllString(s, ".")

	fields := strings.Fields(s)
	if len(fields) > 0 {
		last := strings.ToLower(trailingPunct.ReplaceAllString(fields[len(fields)-1], ""))
		if danglingWords[last] {
			s = trailingPunct.ReplaceAllString(s, "") + " hacerlo."
		}
	}
	return s
}

// #endregion sanitize

// #region risky

const (
	riskyQuestionChars = 90
	riskyPunctChars    = 80
	riskyPunctCount    = 3

	// SplitMaxWords bounds each engine-side part of a risky sentence.
	SplitMaxWords = 12
)

// Tokens a part must not end on when splitting for the engine.
var badEndTokens = map[string]bool{
	"y": true, "o": true, "pero": true, "que": true, "de": true,
	"en": true, "con": true, "por": true, "para": true, "la": true,
	"el": true, "un": true, "una": true,
}

// Risky reports whether a sentence is likely to destabilize the engine:
// long questions, doubled terminal signs, or long clause-heavy sentences.
func Risky(text string) bool {
	if strings.Contains(text, "??") || strings.Contains(text, "!!") {
		return true
	}
	if len(text) > riskyQuestionChars && (strings.Contains(text, "?") || strings.Contains(text, "¿")) {
		return true
	}
	seps := strings.Count(text, ",") + strings.Count(text, ";") + strings.Count(text, ":")
	return len(text) > riskyPunctChars && seps >= riskyPunctCount
}

// SplitForEngine breaks a sentence into parts of at most maxWords words,
// preferring comma boundaries and refusing to end a part on a connective.
// Parts are synthesized independently and crossfade-joined downstream.
func SplitForEngine(text string, maxWords int) []string {
	words := strings.Fields(text)
	if maxWords <= 0 || len(words) <= maxWords {
		return []string{text}
	}

	var parts []string
	var current []string
	for _, w := range words {
		current = append(current, w)
		if len(current) < maxWords {
			if strings.HasSuffix(w, ",") && len(current) >= maxWords/2 {
				parts = append(parts, strings.Join(current, " "))
				current = nil
			}
			continue
		}
		// At capacity: back off any connective ending.
		cut := len(current)
		for cut > 1 {
			tok := strings.ToLower(trailingPunct.ReplaceAllString(current[cut-1], ""))
			if !badEndTokens[tok] {
				break
			}
			cut--
		}
		parts = append(parts, strings.Join(current[:cut], " "))
		current = current[cut:]
	}
	if len(current) > 0 {
		parts = append(parts, strings.Join(current, " "))
	}
	return parts
}

// #endregion risky
