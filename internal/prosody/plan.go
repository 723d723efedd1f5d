// Package prosody computes the prosodic architecture of a document: a
// dramatic center, a narrative arc across paragraphs, and a per-sentence
// table of pitch, speed, pause and emphasis targets.
package prosody

import (
	"log"
	"math"
	"strings"

	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/segment"
)

// #region config

// Config holds the tunable planning constants.
type Config struct {
	BaseToneHz float64
	NaturalWPM float64
	ArcPeak    float64
	ArcDrop    float64
	PauseMin   float64
	PauseMax   float64
}

// DefaultConfig is the narration baseline.
func DefaultConfig() Config {
	return Config{
		BaseToneHz: 185.0,
		NaturalWPM: 145.0,
		ArcPeak:    0.15,
		ArcDrop:    -0.08,
		PauseMin:   0.2,
		PauseMax:   3.0,
	}
}

// Planner builds prosodic plans.
type Planner struct {
	cfg Config
}

// NewPlanner returns a Planner with the given config.
func NewPlanner(cfg Config) *Planner {
	return &Planner{cfg: cfg}
}

// #endregion config

// #region dramatic-center

// paragraphWeight scores a paragraph's lexical load.
func paragraphWeight(text string) float64 {
	lower := strings.ToLower(text)
	count := func(words []string) float64 {
		n := 0
		for _, w := range words {
			n += strings.Count(lower, w)
		}
		return float64(n)
	}
	return 3*count(ContrastConnectives) +
		2*count(ImportanceMarkers) +
		2*count(ConclusionMarkers) +
		2*count(ContrastAdjectives) +
		1*count(CausalConnectives)
}

// DramaticCenter selects the paragraph anchoring the arc's peak: the one
// with the highest weighted lexical score plus a length term, with a 1.2x
// bonus for paragraphs sitting in the middle band of the document.
// Deterministic; ties resolve to the first occurrence.
func DramaticCenter(doc segment.Document) int {
	n := len(doc.Paragraphs)
	if n == 0 {
		return 0
	}
	best, bestScore := 0, math.Inf(-1)
	for i, p := range doc.Paragraphs {
		score := paragraphWeight(p.Text) + float64(len(p.Text))/100
		pos := float64(i) / float64(n)
		if pos >= 0.3 && pos <= 0.8 {
			score *= 1.2
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// #endregion dramatic-center

// #region arc

// arcFactor is the paragraph tone multiplier: linear rise from 1.0 to
// 1+peak at the center, then linear descent to 1+drop across the rest.
func arcFactor(i, center, n int, peak, drop float64) float64 {
	switch {
	case i < center:
		return 1.0 + (float64(i)/float64(center))*peak
	case i == center:
		return 1.0 + peak
	default:
		if n-center-1 <= 0 {
			return 1.0 + peak
		}
		pos := float64(i-center) / float64(n-center-1)
		return (1.0 + peak) + pos*((1.0+drop)-(1.0+peak))
	}
}

func narrativeFunction(i, center, n int) NarrativeFunction {
	switch {
	case i == 0:
		return FunctionOpening
	case i == center:
		return FunctionPivot
	case i == n-1:
		return FunctionClosing
	case i < center:
		return FunctionAscending
	default:
		return FunctionDescending
	}
}

// #endregion arc

// #region plan

// Plan segments the text and populates the full sentence table.
func (pl *Planner) Plan(text string) Plan {
	doc := segment.Segment(text)
	return pl.PlanDocument(doc)
}

// PlanDocument builds the plan for an already-segmented document.
func (pl *Planner) PlanDocument(doc segment.Document) Plan {
	center := DramaticCenter(doc)
	n := len(doc.Paragraphs)
	plan := Plan{Document: doc, Center: center}

	global := 0
	for pi, para := range doc.Paragraphs {
		arc := arcFactor(pi, center, n, pl.cfg.ArcPeak, pl.cfg.ArcDrop)
		fn := narrativeFunction(pi, center, n)
		m := len(para.Sentences)

		for si, text := range para.Sentences {
			s := pl.planSentence(text, pi, si, m, arc, fn)
			s.GlobalIndex = global
			s.ParagraphFinal = si == m-1
			s.DocumentFinal = pi == n-1 && si == m-1
			plan.Sentences = append(plan.Sentences, s)
			global++
		}
	}

	pl.assignPauses(plan.Sentences)
	pl.smooth(plan.Sentences)
	log.Printf("[PLAN] %d paragraphs, %d sentences, center=%d",
		n, len(plan.Sentences), center)
	return plan
}

func (pl *Planner) planSentence(text string, pi, si, m int, arc float64, fn NarrativeFunction) Sentence {
	s := Sentence{
		ParagraphIndex: pi,
		SentenceIndex:  si,
		Text:           text,
		EngineText:     segment.PrepareForEngine(text),
		Function:       fn,
		Intensity:      1.0,
	}

	// Intra-paragraph curve.
	p := 0.0
	if m > 1 {
		p = float64(si) / float64(m-1)
	}
	toneF, speedF := 1.0, 1.0
	switch {
	case p < 0.25:
		s.Curve = CurveAttack
		toneF, speedF = 1.08, 0.95
	case p < 0.75:
		s.Curve = CurvePlateau
		toneF = 1.0 + 0.03*math.Sin(2*math.Pi*float64(si)/float64(m))
	default:
		s.Curve = CurveCadence
		toneF = math.Pow(0.95, float64(si)-0.75*float64(m))
		speedF = 0.88
	}

	s.ToneHz = pl.cfg.BaseToneHz * arc * toneF
	s.SpeedWPM = pl.cfg.NaturalWPM * speedF

	pl.applyType(&s)
	s.Emphasis = scanEmphasis(text)
	return s
}

// applyType classifies the sentence and applies its type modifiers.
func (pl *Planner) applyType(s *Sentence) {
	text := s.Text
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(text, "?") || strings.Contains(text, "¿"):
		s.Type = TypeQuestion
		s.ToneFinalBoost += 0.20
		s.SpeedWPM *= 1.05
	case strings.Contains(text, "!") || strings.Contains(text, "¡"):
		s.Type = TypeExclamation
		s.ToneInitialBoost += 0.15
		s.Intensity *= 1.3
		s.SpeedWPM *= 1.1
	case len(text) > 150 && (strings.Contains(lower, " que ") || strings.Contains(lower, " donde ")):
		s.Type = TypeLongSubordinate
		s.SpeedWPM *= 0.92
	case strings.Count(text, ",") >= 2 &&
		(strings.Contains(lower, " y ") || strings.Contains(lower, " o ") || strings.Contains(lower, "además")):
		s.Type = TypeEnumeration
	case strings.ContainsAny(text, `'"«»“”`):
		s.Type = TypeQuotation
		s.ToneHz *= 0.95
		s.SpeedWPM *= 0.90
	default:
		s.Type = TypeDeclarative
	}
}

// scanEmphasis collects keyword hits; the first matching category wins for
// words listed in several.
func scanEmphasis(text string) map[string]Emphasis {
	lower := strings.ToLower(text)
	out := map[string]Emphasis{}
	for _, cat := range emphasisCategoryOrder {
		for _, word := range EmphasisLexicon[cat] {
			if !strings.Contains(lower, word) {
				continue
			}
			if _, seen := out[word]; seen {
				continue
			}
			e := Emphasis{Category: cat}
			if cat == CategoryHighEmphasis {
				e.ToneBoost = 0.08
				e.DurationBoost = 0.15
				e.PauseBefore = 0.1
			}
			out[word] = e
		}
	}
	return out
}

// #endregion plan

// #region pauses

func basePause(text string) float64 {
	if text == "" {
		return 0.5
	}
	switch text[len(text)-1] {
	case '.':
		return 0.8
	case '!':
		return 0.6
	case '?':
		return 0.5
	case ',':
		return 0.3
	}
	return 0.5
}

func containsAnyOf(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// assignPauses fills PauseAfter for every sentence: terminal-mark base,
// boundary multipliers, then the lexical relation to the next sentence.
func (pl *Planner) assignPauses(sentences []Sentence) {
	for i := range sentences {
		s := &sentences[i]
		pause := basePause(s.Text)

		switch {
		case s.DocumentFinal:
			pause *= 2.0
		case s.ParagraphFinal:
			pause *= 1.8
		default:
			next := strings.ToLower(sentences[i+1].Text)
			cur := strings.ToLower(s.Text)
			switch {
			case containsAnyOf(next, ContrastConnectives):
				pause *= 1.3
			case containsAnyOf(next, ContinuityConnectives):
				pause *= 0.8
			case containsAnyOf(cur, InSentenceConclusions):
				pause *= 1.1
			}
		}

		s.PauseAfter = clamp(pause, pl.cfg.PauseMin, pl.cfg.PauseMax)
	}
}

// #endregion pauses

// #region smoothing

// smooth blends abrupt tone steps between adjacent sentences (single pass,
// 5% toward the earlier tone when the delta exceeds 10% of base), then
// applies the hard clamps on tone and speed.
func (pl *Planner) smooth(sentences []Sentence) {
	limit := 0.10 * pl.cfg.BaseToneHz
	for i := 1; i < len(sentences); i++ {
		prev := sentences[i-1].ToneHz
		cur := sentences[i].ToneHz
		if math.Abs(cur-prev) > limit {
			sentences[i].ToneHz = prev + (cur-prev)*0.95
		}
	}
	for i := range sentences {
		sentences[i].ToneHz = clamp(sentences[i].ToneHz,
			0.75*pl.cfg.BaseToneHz, 1.35*pl.cfg.BaseToneHz)
		sentences[i].SpeedWPM = clamp(sentences[i].SpeedWPM,
			0.75*pl.cfg.NaturalWPM, 1.25*pl.cfg.NaturalWPM)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion smoothing
