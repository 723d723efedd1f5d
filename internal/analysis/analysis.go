// Package analysis extracts windowed pitch, energy and spectral features
// from accepted waveforms and summarizes each segment's pitch arc.
package analysis

import (
	"log"

	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/dsp"
)

// #region types

// PositionClass tags a window by its relative position in the segment.
type PositionClass string

const (
	PositionAttack  PositionClass = "attack"
	PositionSustain PositionClass = "sustain"
	PositionDecay   PositionClass = "decay"
	PositionRelease PositionClass = "release"
)

// Window is one analysis frame.
type Window struct {
	Index    int
	StartSec float64
	Position PositionClass
	Pitch    float64
	Voiced   bool
	RMS      float64
	Centroid float64
}

// Segment is an accepted waveform under analysis.
type Segment struct {
	Samples    []float64
	SampleRate int
}

// SegmentAnalysis is the per-segment feature summary. PitchStart/Mid/End
// are means over the first, middle and last voiced windows; ArcSlope is
// the normalized start-to-end pitch change.
type SegmentAnalysis struct {
	Index         int
	Text          string
	Duration      float64
	Windows       []Window
	VoicedWindows int
	PitchStart    float64
	PitchMid      float64
	PitchEnd      float64
	ArcSlope      float64
}

// #endregion types

// #region config

// Config holds the analysis window geometry.
type Config struct {
	WindowSec  float64
	HopSec     float64
	PitchMinHz float64
	PitchMaxHz float64
}

// DefaultConfig: 250 ms windows at 50% hop, narration pitch band.
func DefaultConfig() Config {
	return Config{
		WindowSec:  0.25,
		HopSec:     0.125,
		PitchMinHz: 75,
		PitchMaxHz: 400,
	}
}

// Analyzer runs the windowed pass.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer returns an Analyzer with the given geometry.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// #endregion config

// #region analyze

// Analyze processes every accepted segment against its source text.
// texts may be shorter than segments; missing texts analyze as empty.
func (a *Analyzer) Analyze(segments []Segment, texts []string) []SegmentAnalysis {
	out := make([]SegmentAnalysis, len(segments))
	for i, seg := range segments {
		text := ""
		if i < len(texts) {
			text = texts[i]
		}
		out[i] = a.AnalyzeSegment(i, seg, text)
	}
	log.Printf("[ANALYZE] %d segments analyzed", len(segments))
	return out
}

// AnalyzeSegment extracts windows and the pitch-arc summary for one clip.
func (a *Analyzer) AnalyzeSegment(index int, seg Segment, text string) SegmentAnalysis {
	sa := SegmentAnalysis{Index: index, Text: text}
	if seg.SampleRate <= 0 || len(seg.Samples) == 0 {
		return sa
	}
	sa.Duration = float64(len(seg.Samples)) / float64(seg.SampleRate)

	frame := int(a.cfg.WindowSec * float64(seg.SampleRate))
	hop := int(a.cfg.HopSec * float64(seg.SampleRate))
	count := dsp.FrameCount(len(seg.Samples), frame, hop)

	var voicedPitches []float64
	for i := 0; i < count; i++ {
		start := i * hop
		chunk := seg.Samples[start : start+frame]
		pitch, voiced := dsp.YinPitch(chunk, seg.SampleRate, a.cfg.PitchMinHz, a.cfg.PitchMaxHz)
		w := Window{
			Index:    i,
			StartSec: float64(start) / float64(seg.SampleRate),
			Position: positionClass(i, count),
			Pitch:    pitch,
			Voiced:   voiced,
			RMS:      dsp.RMS(chunk),
			Centroid: dsp.SpectralCentroid(chunk, seg.SampleRate),
		}
		sa.Windows = append(sa.Windows, w)
		if voiced {
			voicedPitches = append(voicedPitches, pitch)
		}
	}
	sa.VoicedWindows = len(voicedPitches)
	summarizePitch(&sa, voicedPitches)
	return sa
}

func positionClass(i, count int) PositionClass {
	p := 0.0
	if count > 1 {
		p = float64(i) / float64(count-1)
	}
	switch {
	case p < 0.15:
		return PositionAttack
	case p < 0.70:
		return PositionSustain
	case p < 0.85:
		return PositionDecay
	default:
		return PositionRelease
	}
}

// summarizePitch fills the start/mid/end means and the arc slope from the
// voiced pitch sequence.
func summarizePitch(sa *SegmentAnalysis, pitches []float64) {
	n := len(pitches)
	if n == 0 {
		return
	}
	k := n / 5
	if k < 2 {
		k = 2
	}
	if k > n {
		k = n
	}
	sa.PitchStart = mean(pitches[:k])
	sa.PitchEnd = mean(pitches[n-k:])

	lo, hi := n/3, 2*n/3
	if hi <= lo {
		hi = lo + 1
	}
	if hi > n {
		hi = n
	}
	sa.PitchMid = mean(pitches[lo:hi])

	if sa.PitchStart > 0 {
		sa.ArcSlope = (sa.PitchEnd - sa.PitchStart) / sa.PitchStart
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// #endregion analyze
