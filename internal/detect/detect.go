// Package detect compares analyzed acoustic features against the prosodic
// plan and scores deviations by severity.
package detect

import (
	"log"
	"sort"
	"strings"

	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/analysis"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/prosody"
)

// #region types

// ProblemType names a prosodic deviation.
type ProblemType string

const (
	ProblemMissingCadence       ProblemType = "missing_paragraph_cadence"
	ProblemMissingQuestionRise  ProblemType = "missing_question_rise"
	ProblemMissingMicroRise     ProblemType = "missing_micro_rise"
	ProblemInsufficientEmphasis ProblemType = "insufficient_emphasis"
	ProblemMissingDefinitiveEnd ProblemType = "missing_definitive_ending"
	ProblemInvertedArc          ProblemType = "inverted_prosodic_arc"
)

// Problem is one detected deviation, consumed once by the regenerator.
type Problem struct {
	SegmentIndex int
	Type         ProblemType
	Severity     float64
	Current      float64
	Expected     float64
	Keyword      string
}

// #endregion types

// #region config

// Config holds the expected deltas and the empirically tuned severity
// weights. They are configuration, not derived constants.
type Config struct {
	ParagraphEndDrop    float64
	QuestionRise        float64
	IdealArcSlope       float64
	MicroRise           float64
	SpecialEmphasis     float64
	DefinitiveDrop      float64
	DefinitiveTolerance float64
	InvertedArcSlope    float64

	WeightCadence     float64
	WeightQuestion    float64
	WeightMicroRise   float64
	WeightEmphasis    float64
	WeightDefinitive  float64
	WeightInvertedArc float64
}

// DefaultConfig returns the tuned expectation table.
func DefaultConfig() Config {
	return Config{
		ParagraphEndDrop:    -0.08,
		QuestionRise:        0.15,
		IdealArcSlope:       -0.05,
		MicroRise:           0.03,
		SpecialEmphasis:     0.08,
		DefinitiveDrop:      -0.12,
		DefinitiveTolerance: 1.1,
		InvertedArcSlope:    0.1,

		WeightCadence:     1.0,
		WeightQuestion:    1.0,
		WeightMicroRise:   1.2,
		WeightEmphasis:    1.5,
		WeightDefinitive:  1.3,
		WeightInvertedArc: 0.8,
	}
}

// Detector applies the expectation rules.
type Detector struct {
	cfg Config
}

// NewDetector returns a Detector with the given expectations.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// #endregion config

// #region detect

// Detect pairs each analysis with its planned sentence, applies every rule,
// and returns the problems sorted by severity descending.
func (d *Detector) Detect(analyses []analysis.SegmentAnalysis, sentences []prosody.Sentence) []Problem {
	var problems []Problem
	for i, sa := range analyses {
		if i >= len(sentences) {
			break
		}
		if sa.VoicedWindows == 0 || sa.PitchStart <= 0 {
			continue
		}
		problems = append(problems, d.checkSegment(i, sa, sentences[i])...)
	}
	sort.SliceStable(problems, func(a, b int) bool {
		return problems[a].Severity > problems[b].Severity
	})
	log.Printf("[DETECT] %d problems across %d segments", len(problems), len(analyses))
	return problems
}

func (d *Detector) checkSegment(idx int, sa analysis.SegmentAnalysis, s prosody.Sentence) []Problem {
	var out []Problem
	add := func(t ProblemType, severity, current, expected float64, keyword string) {
		if severity <= 0 {
			return
		}
		if severity > 1 {
			severity = 1
		}
		out = append(out, Problem{
			SegmentIndex: idx, Type: t, Severity: severity,
			Current: current, Expected: expected, Keyword: keyword,
		})
	}

	// Paragraph-final cadence: the end pitch must drop below the mid pitch.
	if s.ParagraphFinal && sa.PitchMid > 0 {
		expected := sa.PitchMid * (1 + d.cfg.ParagraphEndDrop)
		if sa.PitchEnd > expected {
			sev := (sa.PitchEnd - expected) / expected * d.cfg.WeightCadence
			add(ProblemMissingCadence, sev, sa.PitchEnd, expected, "")
		}
	}

	// Question rise: the end pitch must climb above the mid pitch.
	if s.Type == prosody.TypeQuestion && sa.PitchMid > 0 {
		expected := sa.PitchMid * (1 + d.cfg.QuestionRise)
		if sa.PitchEnd < expected {
			sev := (expected - sa.PitchEnd) / expected * d.cfg.WeightQuestion
			add(ProblemMissingQuestionRise, sev, sa.PitchEnd, expected, "")
		}
	}

	// Keyword-driven expectations.
	for word, em := range s.Emphasis {
		switch em.Category {
		case prosody.CategoryMicroRise:
			if sa.ArcSlope < d.cfg.MicroRise {
				sev := (d.cfg.MicroRise - sa.ArcSlope) / d.cfg.MicroRise
				add(ProblemMissingMicroRise, sev*d.cfg.WeightMicroRise, sa.ArcSlope, d.cfg.MicroRise, word)
			}
		case prosody.CategoryHighEmphasis:
			boost := d.peakBoost(sa)
			if boost < d.cfg.SpecialEmphasis {
				sev := (d.cfg.SpecialEmphasis - boost) / d.cfg.SpecialEmphasis
				add(ProblemInsufficientEmphasis, sev*d.cfg.WeightEmphasis, boost, d.cfg.SpecialEmphasis, word)
			}
		}
	}

	// Definitive ending: strong final descent on the document's last
	// sentence when it carries a definitive keyword.
	if s.DocumentFinal && hasDefinitiveKeyword(s.Text) {
		expected := sa.PitchStart * (1 + d.cfg.DefinitiveDrop)
		if sa.PitchEnd > expected*d.cfg.DefinitiveTolerance {
			sev := (sa.PitchEnd - expected) / expected * d.cfg.WeightDefinitive
			add(ProblemMissingDefinitiveEnd, sev, sa.PitchEnd, expected, "")
		}
	}

	// Inverted arc: rising where narration should settle.
	if sa.ArcSlope > d.cfg.InvertedArcSlope {
		dev := sa.ArcSlope - d.cfg.IdealArcSlope
		if dev > 1 {
			dev = 1
		}
		add(ProblemInvertedArc, dev*d.cfg.WeightInvertedArc, sa.ArcSlope, d.cfg.IdealArcSlope, "")
	}

	return out
}

// peakBoost measures how far the loudest-pitched window rises over the mid
// pitch, as the realized emphasis delta.
func (d *Detector) peakBoost(sa analysis.SegmentAnalysis) float64 {
	if sa.PitchMid <= 0 {
		return 0
	}
	peak := 0.0
	for _, w := range sa.Windows {
		if w.Voiced && w.Pitch > peak {
			peak = w.Pitch
		}
	}
	if peak <= 0 {
		return 0
	}
	return (peak - sa.PitchMid) / sa.PitchMid
}

func hasDefinitiveKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range prosody.EmphasisLexicon[prosody.CategoryDefinitiveEnd] {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// #endregion detect
