// Package assemble joins the per-sentence clips into a single narration:
// peak-aligned segments, equal-power crossfades, planned pauses rendered as
// faint room tone, and a two-stage master normalization.
package assemble

import (
	"errors"
	"log"

	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/dsp"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/prosody"
)

// #region config

// Config holds the assembly policy.
type Config struct {
	SegmentPeak      float64
	CrossfadeSeconds float64
	BasePauseSeconds float64
	PauseNoiseAmp    float64

	// Planned pauses above LongPauseThreshold get extra breathing room:
	// min(pause-LongPauseFloor, LongPauseCap) seconds.
	LongPauseThreshold float64
	LongPauseFloor     float64
	LongPauseCap       float64

	TargetRMSDBFS float64
	PeakCapDBFS   float64
}

// DefaultConfig returns the tuned assembly policy.
func DefaultConfig() Config {
	return Config{
		SegmentPeak:      0.9,
		CrossfadeSeconds: 0.15,
		BasePauseSeconds: 0.125,
		PauseNoiseAmp:    1e-4,

		LongPauseThreshold: 1.2,
		LongPauseFloor:     0.8,
		LongPauseCap:       1.0,

		TargetRMSDBFS: -20,
		PeakCapDBFS:   -3,
	}
}

// Stats summarizes one assembly.
type Stats struct {
	Segments     int
	PauseSeconds float64
	TotalSeconds float64
	SampleRate   int
}

// Assembler renders narrations.
type Assembler struct {
	cfg Config
}

// NewAssembler returns an Assembler with the given policy.
func NewAssembler(cfg Config) *Assembler {
	return &Assembler{cfg: cfg}
}

// #endregion config

// #region assemble

var errNoSegments = errors.New("assemble: no segments")

// Assemble concatenates the clips in order. Every seam, including the ones
// into and out of pause buffers, is an equal-power crossfade; clips shorter
// than the overlap are butt-joined by the fade primitive itself. The i-th
// sentence's PauseAfter shapes the pause following clip i; the final clip
// gets no trailing pause.
func (a *Assembler) Assemble(clips [][]float64, sentences []prosody.Sentence, sampleRate int) ([]float64, Stats, error) {
	if len(clips) == 0 {
		return nil, Stats{}, errNoSegments
	}
	overlap := int(a.cfg.CrossfadeSeconds * float64(sampleRate))

	var out []float64
	stats := Stats{Segments: len(clips), SampleRate: sampleRate}

	for i, clip := range clips {
		scaled := dsp.ScaleToPeak(clip, a.cfg.SegmentPeak)
		if out == nil {
			out = scaled
		} else {
			out = dsp.EqualPowerJoin(out, scaled, overlap)
		}

		if i == len(clips)-1 {
			break
		}
		pause := a.pauseSeconds(i, sentences)
		stats.PauseSeconds += pause
		buf := dsp.PauseBuffer(int(pause*float64(sampleRate)), a.cfg.PauseNoiseAmp)
		out = dsp.EqualPowerJoin(out, buf, overlap)
	}

	out = dsp.NormalizeRMS(out, a.cfg.TargetRMSDBFS, a.cfg.PeakCapDBFS)
	stats.TotalSeconds = float64(len(out)) / float64(sampleRate)
	log.Printf("[ASSEMBLE] %d segments, %.2fs pause, %.2fs total",
		stats.Segments, stats.PauseSeconds, stats.TotalSeconds)
	return out, stats, nil
}

func (a *Assembler) pauseSeconds(i int, sentences []prosody.Sentence) float64 {
	pause := a.cfg.BasePauseSeconds
	if i >= len(sentences) {
		return pause
	}
	planned := sentences[i].PauseAfter
	pause += planned
	if planned > a.cfg.LongPauseThreshold {
		extra := planned - a.cfg.LongPauseFloor
		if extra > a.cfg.LongPauseCap {
			extra = a.cfg.LongPauseCap
		}
		pause += extra
	}
	return pause
}

// #endregion assemble
