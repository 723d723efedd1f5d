package dsp

// #region yin

// YIN trough acceptance threshold on the cumulative mean normalized
// difference. Frames with no trough under it are treated as unvoiced.
const yinThreshold = 0.2

// YinPitch estimates the fundamental frequency of a frame using the YIN
// difference function. Returns the frequency in Hz and whether the frame
// is voiced. fmin/fmax bound the search lags.
func YinPitch(frame []float64, sampleRate int, fmin, fmax float64) (float64, bool) {
	if fmin <= 0 || fmax <= fmin {
		return 0, false
	}
	minLag := int(float64(sampleRate) / fmax)
	maxLag := int(float64(sampleRate) / fmin)
	if minLag < 2 {
		minLag = 2
	}
	if maxLag >= len(frame) {
		maxLag = len(frame) - 1
	}
	if maxLag <= minLag {
		return 0, false
	}

	// Difference function.
	diff := make([]float64, maxLag+1)
	for lag := 1; lag <= maxLag; lag++ {
		var sum float64
		for i := 0; i+lag < len(frame); i++ {
			d := frame[i] - frame[i+lag]
			sum += d * d
		}
		diff[lag] = sum
	}

	// Cumulative mean normalized difference.
	cmnd := make([]float64, maxLag+1)
	cmnd[0] = 1
	var running float64
	for lag := 1; lag <= maxLag; lag++ {
		running += diff[lag]
		if running == 0 {
			cmnd[lag] = 1
		} else {
			cmnd[lag] = diff[lag] * float64(lag) / running
		}
	}

	// First trough under threshold within the lag bounds.
	bestLag := -1
	for lag := minLag; lag <= maxLag; lag++ {
		if cmnd[lag] < yinThreshold {
			for lag+1 <= maxLag && cmnd[lag+1] < cmnd[lag] {
				lag++
			}
			bestLag = lag
			break
		}
	}
	if bestLag < 0 {
		return 0, false
	}

	// Parabolic interpolation around the trough.
	lagF := float64(bestLag)
	if bestLag > minLag && bestLag < maxLag {
		s0, s1, s2 := cmnd[bestLag-1], cmnd[bestLag], cmnd[bestLag+1]
		denom := 2 * (2*s1 - s0 - s2)
		if denom != 0 {
			lagF += (s2 - s0) / denom
		}
	}
	return float64(sampleRate) / lagF, true
}

// TrackPitch runs YinPitch over frames of frameLen samples advanced by hop.
// Returns per-frame frequencies and voiced flags.
func TrackPitch(samples []float64, sampleRate, frameLen, hop int, fmin, fmax float64) ([]float64, []bool) {
	count := FrameCount(len(samples), frameLen, hop)
	freqs := make([]float64, count)
	voiced := make([]bool, count)
	for i := 0; i < count; i++ {
		start := i * hop
		freqs[i], voiced[i] = YinPitch(samples[start:start+frameLen], sampleRate, fmin, fmax)
	}
	return freqs, voiced
}

// VoicedCount returns the number of voiced frames.
func VoicedCount(voiced []bool) int {
	n := 0
	for _, v := range voiced {
		if v {
			n++
		}
	}
	return n
}

// #endregion yin
