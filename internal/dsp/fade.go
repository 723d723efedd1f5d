package dsp

import (
	"math"
	"math/rand"
)

// #region crossfade

// EqualPowerJoin concatenates a and b with an equal-power crossfade over
// overlap samples: a fades out on a cosine curve while b fades in on the
// complementary sine, preserving perceived loudness across the seam.
// If either side is shorter than the overlap, the clips are butt-joined.
func EqualPowerJoin(a, b []float64, overlap int) []float64 {
	if overlap <= 0 || len(a) < overlap || len(b) < overlap {
		out := make([]float64, 0, len(a)+len(b))
		out = append(out, a...)
		return append(out, b...)
	}

	out := make([]float64, 0, len(a)+len(b)-overlap)
	out = append(out, a[:len(a)-overlap]...)

	tail := a[len(a)-overlap:]
	for i := 0; i < overlap; i++ {
		t := float64(i) / float64(overlap-1) * math.Pi / 2
		out = append(out, tail[i]*math.Cos(t)+b[i]*math.Sin(t))
	}
	return append(out, b[overlap:]...)
}

// #endregion crossfade

// #region pause

// PauseBuffer produces n samples of near-silence: faint noise at noiseAmp
// rather than digital zero, so pauses do not read as dropouts. The noise is
// seeded deterministically from n for reproducible output.
func PauseBuffer(n int, noiseAmp float64) []float64 {
	buf := make([]float64, n)
	if noiseAmp <= 0 {
		return buf
	}
	rng := rand.New(rand.NewSource(int64(n)))
	prev := 0.0
	for i := range buf {
		// One-pole smoothing keeps the noise band low.
		prev = 0.95*prev + 0.05*(rng.Float64()*2-1)
		buf[i] = prev * noiseAmp
	}
	return buf
}

// #endregion pause
