// Package validate judges synthesized clips against acoustic bounds derived
// from their text, and drives the bounded retry loop with best-candidate
// fallback.
package validate

import (
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/dsp"
)

// #region reasons

// FailureReason names why a candidate was rejected. ReasonNone means valid.
type FailureReason string

const (
	ReasonNone             FailureReason = "none"
	ReasonEmptyAudio       FailureReason = "empty audio"
	ReasonShortDuration    FailureReason = "insufficient duration"
	ReasonLongDuration     FailureReason = "excessive duration"
	ReasonLowEnergy        FailureReason = "low energy"
	ReasonEndpointSpike    FailureReason = "endpoint spike"
	ReasonClippedFinal     FailureReason = "clipped final consonant"
	ReasonExcessSilence    FailureReason = "excess silence"
	ReasonPitchInstability FailureReason = "pitch instability"
	ReasonElisionDamage    FailureReason = "elision damage"
	ReasonEngineError      FailureReason = "engine error"
)

// #endregion reasons

// #region config

// Config holds the validation thresholds.
type Config struct {
	MinEnergyRMS      float64
	MaxSilenceRatio   float64
	EndpointWindowSec float64
	EndpointRatioCap  float64
	FinalWindowSec    float64
	MinFinalVoiced    int
	SilenceFrameSec   float64
	PitchJumpHz       float64
	PitchJumpMaxShare float64
	CentroidSigma     float64
	CentroidMaxShare  float64
	ComplexityGate    float64
	PitchMinHz        float64
	PitchMaxHz        float64
}

// DefaultConfig returns the tuned narration thresholds.
func DefaultConfig() Config {
	return Config{
		MinEnergyRMS:      0.001,
		MaxSilenceRatio:   0.25,
		EndpointWindowSec: 0.05,
		EndpointRatioCap:  4.0,
		FinalWindowSec:    0.2,
		MinFinalVoiced:    3,
		SilenceFrameSec:   0.025,
		PitchJumpHz:       50,
		PitchJumpMaxShare: 0.05,
		CentroidSigma:     3,
		CentroidMaxShare:  0.10,
		ComplexityGate:    0.3,
		PitchMinHz:        75,
		PitchMaxHz:        400,
	}
}

// Validator applies the anti-truncation criteria in order.
type Validator struct {
	cfg Config
}

// NewValidator returns a Validator with the given thresholds.
func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// #endregion config

// #region result

// Result is one validation verdict.
type Result struct {
	Valid    bool
	Reason   FailureReason
	Duration float64
}

func reject(reason FailureReason, duration float64) Result {
	return Result{Reason: reason, Duration: duration}
}

// #endregion result

// #region duration-bounds

// DurationBounds returns the acceptable clip duration window for a text,
// widened when its linguistic complexity exceeds the gate.
func (v *Validator) DurationBounds(text string) (float64, float64) {
	n := float64(len(text))
	minD := n / 15 * 0.7
	maxD := n / 8 * 1.5
	if Complexity(text) > v.cfg.ComplexityGate {
		minD *= 0.9
		maxD *= 1.2
	}
	return minD, maxD
}

// #endregion duration-bounds

// #region validate

// Pitch-tracking frame geometry. The frame must exceed the longest YIN lag
// (sampleRate/PitchMinHz samples).
const (
	pitchFrame = 2048
	pitchHop   = 512
)

// Validate applies the criteria in order; the first failure names the
// rejection reason.
func (v *Validator) Validate(samples []float64, sampleRate int, text string) Result {
	if len(samples) == 0 || sampleRate <= 0 {
		return reject(ReasonEmptyAudio, 0)
	}
	duration := float64(len(samples)) / float64(sampleRate)

	minD, maxD := v.DurationBounds(text)
	if duration < minD {
		return reject(ReasonShortDuration, duration)
	}
	if duration > maxD {
		return reject(ReasonLongDuration, duration)
	}

	rms := dsp.RMS(samples)
	if rms < v.cfg.MinEnergyRMS {
		return reject(ReasonLowEnergy, duration)
	}

	// Endpoint spikes betray abruptly cut audio. The cap bounds the
	// energy (mean square) of the edge windows, not their amplitude.
	edge := int(v.cfg.EndpointWindowSec * float64(sampleRate))
	if edge > 0 && len(samples) > 2*edge {
		head := dsp.RMS(samples[:edge])
		tail := dsp.RMS(samples[len(samples)-edge:])
		if head*head > v.cfg.EndpointRatioCap*rms*rms || tail*tail > v.cfg.EndpointRatioCap*rms*rms {
			return reject(ReasonEndpointSpike, duration)
		}
	}

	// A clip-prone final consonant must still carry voiced frames at the end.
	if EndsProblematic(text) {
		final := int(v.cfg.FinalWindowSec * float64(sampleRate))
		if final > len(samples) {
			final = len(samples)
		}
		tail := samples[len(samples)-final:]
		if len(tail) >= pitchFrame {
			_, voiced := dsp.TrackPitch(tail, sampleRate, pitchFrame, pitchHop, v.cfg.PitchMinHz, v.cfg.PitchMaxHz)
			if dsp.VoicedCount(voiced) < v.cfg.MinFinalVoiced {
				return reject(ReasonClippedFinal, duration)
			}
		}
	}

	// Internal silence, measured against the absolute energy floor so a
	// quiet-but-voiced passage never counts as silence.
	frame := int(v.cfg.SilenceFrameSec * float64(sampleRate))
	if frame > 0 {
		ratio := dsp.SilenceRatio(samples, frame, frame/4, v.cfg.MinEnergyRMS)
		if ratio > v.cfg.MaxSilenceRatio {
			return reject(ReasonExcessSilence, duration)
		}
	}

	// Pitch instability.
	freqs, voiced := dsp.TrackPitch(samples, sampleRate, pitchFrame, pitchHop, v.cfg.PitchMinHz, v.cfg.PitchMaxHz)
	if nVoiced := dsp.VoicedCount(voiced); nVoiced > 1 {
		jumps := 0
		prev := -1.0
		for i, f := range freqs {
			if !voiced[i] {
				continue
			}
			if prev > 0 && abs(f-prev) > v.cfg.PitchJumpHz {
				jumps++
			}
			prev = f
		}
		if float64(jumps)/float64(nVoiced) > v.cfg.PitchJumpMaxShare {
			return reject(ReasonPitchInstability, duration)
		}
	}

	// Elision damage around vowel hiatus.
	if CountHiatus(text) > 0 {
		if v.elisionDamaged(samples, sampleRate) {
			return reject(ReasonElisionDamage, duration)
		}
	}

	return Result{Valid: true, Reason: ReasonNone, Duration: duration}
}

// elisionDamaged flags spectral-centroid discontinuities beyond
// CentroidSigma standard deviations in more than CentroidMaxShare of frames.
func (v *Validator) elisionDamaged(samples []float64, sampleRate int) bool {
	count := dsp.FrameCount(len(samples), pitchFrame, pitchHop)
	if count < 3 {
		return false
	}
	centroids := make([]float64, count)
	for i := 0; i < count; i++ {
		start := i * pitchHop
		centroids[i] = dsp.SpectralCentroid(samples[start:start+pitchFrame], sampleRate)
	}
	diffs := make([]float64, 0, count-1)
	for i := 1; i < count; i++ {
		diffs = append(diffs, abs(centroids[i]-centroids[i-1]))
	}
	return v.centroidOutlierShare(diffs) > v.cfg.CentroidMaxShare
}

// centroidOutlierShare is the fraction of frame-to-frame centroid moves
// larger than CentroidSigma standard deviations.
func (v *Validator) centroidOutlierShare(diffs []float64) float64 {
	_, std := dsp.MeanStd(diffs)
	if std < 1e-6 {
		return 0
	}
	outliers := 0
	for _, d := range diffs {
		if d > v.cfg.CentroidSigma*std {
			outliers++
		}
	}
	return float64(outliers) / float64(len(diffs))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// #endregion validate

// #region quality

// worstScore ranks candidates that cannot be analyzed at all.
const worstScore = 999

// QualityScore ranks invalid candidates for fallback: weighted penalties
// for duration deviation from the window midpoint, energy shortfall, and
// excess silence. Lower is better; 0 means all penalties are 0.
func (v *Validator) QualityScore(samples []float64, sampleRate int, text string) float64 {
	if len(samples) == 0 || sampleRate <= 0 {
		return worstScore
	}
	duration := float64(len(samples)) / float64(sampleRate)
	minD, maxD := v.DurationBounds(text)
	mid := (minD + maxD) / 2

	durationPenalty := 0.0
	if mid > 0 {
		durationPenalty = abs(duration-mid) / mid
	}

	rms := dsp.RMS(samples)
	energyPenalty := 0.0
	if rms < v.cfg.MinEnergyRMS {
		energyPenalty = (v.cfg.MinEnergyRMS - rms) / v.cfg.MinEnergyRMS
	}

	silencePenalty := 0.0
	frame := int(v.cfg.SilenceFrameSec * float64(sampleRate))
	if frame > 0 {
		if ratio := dsp.SilenceRatio(samples, frame, frame/4, v.cfg.MinEnergyRMS); ratio > v.cfg.MaxSilenceRatio {
			silencePenalty = ratio - v.cfg.MaxSilenceRatio
		}
	}

	return 2*durationPenalty + energyPenalty + silencePenalty
}

// #endregion quality
