// Package regen re-synthesizes only the segments whose acoustic output
// violates the prosodic plan, escalating parameters across a bounded number
// of attempts and accepting only improvements.
package regen

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/analysis"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/detect"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/engine"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/prosody"
)

// #region config

// Config bounds the repair pass.
type Config struct {
	SeverityThreshold      float64
	MaxFixes               int
	MaxAttemptsPerProblem  int
	MaxConsecutiveFailures int
	AcceptScore            float64
	ReplaceScore           float64
}

// DefaultConfig returns the repair policy.
func DefaultConfig() Config {
	return Config{
		SeverityThreshold:      0.3,
		MaxFixes:               8,
		MaxAttemptsPerProblem:  5,
		MaxConsecutiveFailures: 3,
		AcceptScore:            0.8,
		ReplaceScore:           0.5,
	}
}

// FixResult records the outcome of one problem's repair.
type FixResult struct {
	Problem  detect.Problem
	Applied  bool
	Score    float64
	Attempts int
	Hint     string
}

// Report summarizes a repair pass.
type Report struct {
	Considered int
	Applied    int
	Fixes      []FixResult
}

// Regenerator owns the repair loop.
type Regenerator struct {
	cfg       Config
	synth     engine.Synthesizer
	analyzer  *analysis.Analyzer
	detectCfg detect.Config
}

// NewRegenerator wires the repair pass to the synthesizer and analyzer.
func NewRegenerator(cfg Config, synth engine.Synthesizer, analyzer *analysis.Analyzer, detectCfg detect.Config) *Regenerator {
	return &Regenerator{cfg: cfg, synth: synth, analyzer: analyzer, detectCfg: detectCfg}
}

// #endregion config

// #region fix

// Fix processes the top problems above the severity threshold, at most
// MaxFixes of them, and returns the (possibly updated) segment list plus a
// report. Segments are replaced wholesale, never mutated. A failed fix
// keeps the original segment and never aborts the pass.
func (r *Regenerator) Fix(ctx context.Context, problems []detect.Problem, segments []analysis.Segment, sentences []prosody.Sentence, ref string) ([]analysis.Segment, Report) {
	out := make([]analysis.Segment, len(segments))
	copy(out, segments)
	report := Report{}

	for _, p := range problems {
		if p.Severity < r.cfg.SeverityThreshold {
			continue
		}
		if report.Considered >= r.cfg.MaxFixes {
			break
		}
		if p.SegmentIndex >= len(sentences) || p.SegmentIndex >= len(out) {
			continue
		}
		report.Considered++

		res := r.fixProblem(ctx, p, sentences[p.SegmentIndex], ref)
		if res.Applied {
			out[p.SegmentIndex] = res.segment
			report.Applied++
			log.Printf("[FIX] segment %d %s repaired (score %.2f, %d attempts)",
				p.SegmentIndex, p.Type, res.Score, res.Attempts)
		} else {
			log.Printf("[FIX] segment %d %s kept original (best score %.2f)",
				p.SegmentIndex, p.Type, res.Score)
		}
		report.Fixes = append(report.Fixes, res.FixResult)
	}
	return out, report
}

type fixOutcome struct {
	FixResult
	segment analysis.Segment
}

func (r *Regenerator) fixProblem(ctx context.Context, p detect.Problem, s prosody.Sentence, ref string) fixOutcome {
	hint := BuildHint(p, s.Text)
	out := fixOutcome{FixResult: FixResult{Problem: p, Hint: hint}}

	var best analysis.Segment
	bestScore := -1.0
	consecutiveFailures := 0

	for attempt := 0; attempt < r.cfg.MaxAttemptsPerProblem; attempt++ {
		if ctx.Err() != nil {
			break
		}
		out.Attempts++

		res, err := r.synth.Synthesize(ctx, engine.Request{
			ReferenceAudio: ref,
			Text:           hint,
			Params:         EscalatedParams(p.Type, attempt),
		})
		if err != nil || len(res.Samples) == 0 {
			consecutiveFailures++
			if consecutiveFailures >= r.cfg.MaxConsecutiveFailures {
				log.Printf("[FIX] segment %d %s aborted after %d consecutive failures",
					p.SegmentIndex, p.Type, consecutiveFailures)
				break
			}
			continue
		}
		consecutiveFailures = 0

		candidate := analysis.Segment{Samples: res.Samples, SampleRate: res.SampleRate}
		score := r.fixScore(p, candidate)
		if score > bestScore {
			bestScore = score
			best = candidate
		}
		if score > r.cfg.AcceptScore {
			break
		}
	}

	out.Score = bestScore
	if bestScore > r.cfg.ReplaceScore {
		out.Applied = true
		out.segment = best
	}
	return out
}

// #endregion fix

// #region scoring

// fixScore rates a candidate against the problem's target metric: 1 minus
// the normalized residual, clamped to [0, 1]. Problem types without a
// measurable target score a neutral 0.5.
func (r *Regenerator) fixScore(p detect.Problem, candidate analysis.Segment) float64 {
	sa := r.analyzer.AnalyzeSegment(p.SegmentIndex, candidate, "")

	switch p.Type {
	case detect.ProblemMissingCadence, detect.ProblemMissingQuestionRise, detect.ProblemMissingDefinitiveEnd:
		if sa.VoicedWindows == 0 {
			return 0
		}
		baseline := absF(p.Current - p.Expected)
		if baseline == 0 {
			return 0.5
		}
		residual := absF(sa.PitchEnd-p.Expected) / baseline
		return clamp01(1 - residual)

	case detect.ProblemInvertedArc:
		if sa.VoicedWindows == 0 {
			return 0
		}
		return clamp01(1 - absF(sa.ArcSlope-r.detectCfg.IdealArcSlope)/0.2)

	default:
		return 0.5
	}
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

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// #endregion scoring

// #region hints

// BuildHint rewrites the sentence text to nudge the engine toward the
// missing prosodic gesture.
func BuildHint(p detect.Problem, text string) string {
	switch p.Type {
	case detect.ProblemMissingCadence:
		if strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "...") {
			return strings.TrimSuffix(text, ".") + "..."
		}
		return text

	case detect.ProblemMissingQuestionRise:
		hint := strings.ReplaceAll(text, "?", "?!")
		if !strings.HasPrefix(hint, "¿") {
			hint = "¿" + hint
		}
		return hint

	case detect.ProblemInsufficientEmphasis:
		return markKeyword(text, p.Keyword, "**")

	case detect.ProblemMissingMicroRise:
		return markKeyword(text, p.Keyword, "*")

	case detect.ProblemMissingDefinitiveEnd:
		return strings.TrimRight(text, ".!") + "..."

	case detect.ProblemInvertedArc:
		if idx := strings.LastIndex(text, ","); idx >= 0 {
			return text[:idx+1] + " ..." + text[idx+1:]
		}
		return text
	}
	return text
}

func markKeyword(text, keyword, mark string) string {
	if keyword == "" {
		return text
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
	if err != nil {
		return text
	}
	replaced := false
	return re.ReplaceAllStringFunc(text, func(m string) string {
		if replaced {
			return m
		}
		replaced = true
		return mark + m + mark
	})
}

// #endregion hints

// #region escalation

// Escalation clamps; staying inside them avoids re-triggering the fatal
// interpolation failure.
const (
	minNFE   = 16
	maxNFE   = 32
	minSway  = -0.4
	maxSway  = 0.4
	minCFG   = 1.0
	maxCFG   = 2.2
	minSpeed = 0.85
	maxSpeed = 1.15
)

// EscalatedParams returns the clamped parameter bundle for a repair
// attempt: each attempt widens NFE, biases sway more negative, raises
// guidance strength and slows delivery.
func EscalatedParams(t detect.ProblemType, attempt int) engine.Params {
	a := float64(attempt)
	p := engine.Params{
		NFEStep: 22 + 2*attempt,
		Sway:    -0.1 - 0.08*a,
		CFG:     1.6 + 0.15*a,
		Speed:   0.98 - 0.02*a,
		Seed:    -1,
	}

	switch t {
	case detect.ProblemInsufficientEmphasis, detect.ProblemMissingMicroRise:
		p.CFG += 0.2
	case detect.ProblemMissingCadence, detect.ProblemMissingDefinitiveEnd:
		p.Speed -= 0.03
	case detect.ProblemMissingQuestionRise:
		p.Sway += 0.15
	}

	if p.NFEStep < minNFE {
		p.NFEStep = minNFE
	}
	if p.NFEStep > maxNFE {
		p.NFEStep = maxNFE
	}
	p.Sway = clampF(p.Sway, minSway, maxSway)
	p.CFG = clampF(p.CFG, minCFG, maxCFG)
	p.Speed = clampF(p.Speed, minSpeed, maxSpeed)
	return p
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion escalation
