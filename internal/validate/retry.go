package validate

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/dsp"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/engine"
)

// #region types

// Outcome is the terminal state of one sentence's retry loop.
type Outcome string

const (
	// OutcomeAccepted means a candidate passed every criterion.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeFallback means the ceiling was reached and the best-scoring
	// invalid candidate was taken.
	OutcomeFallback Outcome = "fallback"
	// OutcomeRecovered means a fatal engine failure was rescued by the
	// extension or split path.
	OutcomeRecovered Outcome = "recovered"
	// OutcomeFatal means recovery failed; the run must checkpoint and stop.
	OutcomeFatal Outcome = "fatal"
)

// AttemptRecord is the forensic log of one synthesis attempt.
type AttemptRecord struct {
	AttemptNum int
	Params     engine.Params
	Reason     FailureReason
	Score      float64
	Err        string
}

// SentenceResult is the outcome of the full retry loop for one sentence.
type SentenceResult struct {
	Samples       []float64
	SampleRate    int
	Outcome       Outcome
	Attempts      []AttemptRecord
	FallbackScore float64
}

// #endregion types

// #region config

// RetryConfig bounds the loop. MaxAttempts is authoritative: there is no
// unlimited mode.
type RetryConfig struct {
	MaxAttempts      int
	Delay            time.Duration
	CrossfadeSeconds float64
}

// DefaultRetryConfig returns the narration retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:      50,
		Delay:            500 * time.Millisecond,
		CrossfadeSeconds: 0.15,
	}
}

// RetryEngine runs the Generating -> {Valid, Invalid, EngineFailure} loop
// for one sentence at a time.
type RetryEngine struct {
	cfg       RetryConfig
	synth     engine.Synthesizer
	validator *Validator
}

// NewRetryEngine wires the loop to a synthesizer and validator.
func NewRetryEngine(cfg RetryConfig, synth engine.Synthesizer, v *Validator) *RetryEngine {
	return &RetryEngine{cfg: cfg, synth: synth, validator: v}
}

// #endregion config

// #region loop

// Synthesize drives one sentence to acceptance, fallback, recovery, or a
// fatal error. On fatal return the caller must persist a checkpoint.
func (r *RetryEngine) Synthesize(ctx context.Context, ref, text string, params engine.Params) (SentenceResult, error) {
	var out SentenceResult
	var best []float64
	bestRate := 0
	bestScore := math.Inf(1)

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		res, err := r.synth.Synthesize(ctx, engine.Request{
			ReferenceAudio: ref,
			Text:           text,
			Params:         params,
		})
		if err != nil {
			if engine.IsFatal(err) {
				log.Printf("[VALIDATE] fatal engine failure on attempt %d, entering recovery", attempt)
				samples, rate, rerr := r.recoverFatal(ctx, ref, text)
				if rerr != nil {
					out.Outcome = OutcomeFatal
					out.Attempts = append(out.Attempts, AttemptRecord{
						AttemptNum: attempt, Params: params,
						Reason: ReasonEngineError, Err: err.Error(),
					})
					return out, err
				}
				out.Samples, out.SampleRate = samples, rate
				out.Outcome = OutcomeRecovered
				return out, nil
			}
			out.Attempts = append(out.Attempts, AttemptRecord{
				AttemptNum: attempt, Params: params,
				Reason: ReasonEngineError, Err: err.Error(),
			})
			log.Printf("[VALIDATE] attempt %d engine error: %v", attempt, err)
			r.wait(ctx)
			continue
		}

		verdict := r.validator.Validate(res.Samples, res.SampleRate, text)
		if verdict.Valid {
			out.Samples, out.SampleRate = res.Samples, res.SampleRate
			out.Outcome = OutcomeAccepted
			out.Attempts = append(out.Attempts, AttemptRecord{
				AttemptNum: attempt, Params: params, Reason: ReasonNone,
			})
			return out, nil
		}

		score := r.validator.QualityScore(res.Samples, res.SampleRate, text)
		if score < bestScore {
			best, bestRate, bestScore = res.Samples, res.SampleRate, score
		}
		out.Attempts = append(out.Attempts, AttemptRecord{
			AttemptNum: attempt, Params: params,
			Reason: verdict.Reason, Score: score,
		})
		log.Printf("[VALIDATE] attempt %d rejected: %s (score %.3f)", attempt, verdict.Reason, score)
		r.wait(ctx)
	}

	if best == nil {
		return out, fmt.Errorf("sentence exhausted %d attempts with no usable candidate", r.cfg.MaxAttempts)
	}
	log.Printf("[VALIDATE] ceiling reached, falling back to best candidate (score %.3f)", bestScore)
	out.Samples, out.SampleRate = best, bestRate
	out.Outcome = OutcomeFallback
	out.FallbackScore = bestScore
	return out, nil
}

// wait sleeps the inter-attempt delay, honoring cancellation.
func (r *RetryEngine) wait(ctx context.Context) {
	if r.cfg.Delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(r.cfg.Delay):
	}
}

// #endregion loop

// #region recovery

// recoverFatal attempts the two rescue paths for the non-monotonic-time
// failure: a neutral text extension with conservative parameters, then a
// split at the nearest clause boundary with a crossfade join.
func (r *RetryEngine) recoverFatal(ctx context.Context, ref, text string) ([]float64, int, error) {
	conservative := engine.ConservativeParams()

	extended := strings.TrimRight(text, ".") + "..."
	if res, err := r.synth.Synthesize(ctx, engine.Request{
		ReferenceAudio: ref, Text: extended, Params: conservative,
	}); err == nil && len(res.Samples) > 0 {
		log.Printf("[VALIDATE] recovery: neutral extension succeeded")
		return res.Samples, res.SampleRate, nil
	}

	left, right := SplitForRecovery(text)
	if left == "" || right == "" {
		return nil, 0, fmt.Errorf("recovery split produced empty part for %q", text)
	}
	resL, errL := r.synth.Synthesize(ctx, engine.Request{ReferenceAudio: ref, Text: left, Params: conservative})
	if errL != nil {
		return nil, 0, fmt.Errorf("recovery left part: %w", errL)
	}
	resR, errR := r.synth.Synthesize(ctx, engine.Request{ReferenceAudio: ref, Text: right, Params: conservative})
	if errR != nil {
		return nil, 0, fmt.Errorf("recovery right part: %w", errR)
	}
	if len(resL.Samples) == 0 || len(resR.Samples) == 0 {
		return nil, 0, fmt.Errorf("recovery produced empty audio for %q", text)
	}

	overlap := int(r.cfg.CrossfadeSeconds * float64(resL.SampleRate))
	joined := dsp.EqualPowerJoin(resL.Samples, resR.Samples, overlap)
	log.Printf("[VALIDATE] recovery: split synthesis succeeded (%q | %q)", left, right)
	return joined, resL.SampleRate, nil
}

// Connectors a recovery split may break at. "así que" spans two tokens and
// is matched in isConnectorAt.
var splitConnectors = map[string]bool{
	"y": true, "pero": true, "porque": true, "aunque": true,
	"entonces": true, "o": true,
}

func isConnectorAt(words []string, i int) bool {
	w := strings.ToLower(words[i])
	if splitConnectors[w] {
		return true
	}
	return w == "así" && i+1 < len(words) && strings.ToLower(words[i+1]) == "que"
}

// SplitForRecovery divides a sentence in two at the comma nearest its
// middle, else the connector nearest the middle, else the word midpoint.
func SplitForRecovery(text string) (string, string) {
	words := strings.Fields(text)
	if len(words) < 2 {
		return text, ""
	}
	mid := len(words) / 2

	bestComma, bestDist := -1, len(words)
	for i, w := range words[:len(words)-1] {
		if strings.HasSuffix(w, ",") {
			if d := absInt(i - mid); d < bestDist {
				bestComma, bestDist = i, d
			}
		}
	}
	if bestComma >= 0 {
		return strings.Join(words[:bestComma+1], " "), strings.Join(words[bestComma+1:], " ")
	}

	bestConn, bestDist := -1, len(words)
	for i := 1; i < len(words)-1; i++ {
		if isConnectorAt(words, i) {
			if d := absInt(i - mid); d < bestDist {
				bestConn, bestDist = i, d
			}
		}
	}
	if bestConn >= 1 {
		return strings.Join(words[:bestConn], " "), strings.Join(words[bestConn:], " ")
	}

	return strings.Join(words[:mid], " "), strings.Join(words[mid:], " ")
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// #endregion recovery
