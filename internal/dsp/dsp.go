// Package dsp holds the waveform primitives shared by validation, analysis
// and assembly: energy measures, framing, silence detection, pitch tracking,
// spectral centroid, fades and normalization. Samples are mono float64.
package dsp

import "math"

// #region energy

// RMS returns the root-mean-square amplitude of samples.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Peak returns the maximum absolute amplitude.
func Peak(samples []float64) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

// DBFS converts a linear amplitude to decibels full scale.
// Amplitudes at or below zero clamp to -120 dB.
func DBFS(v float64) float64 {
	if v <= 0 {
		return -120
	}
	db := 20 * math.Log10(v)
	if db < -120 {
		return -120
	}
	return db
}

// #endregion energy

// #region framing

// FrameCount returns how many full frames of frameLen fit in n samples at
// the given hop.
func FrameCount(n, frameLen, hop int) int {
	if n < frameLen || frameLen <= 0 || hop <= 0 {
		return 0
	}
	return 1 + (n-frameLen)/hop
}

// SilenceRatio measures the fraction of frames whose RMS falls below
// threshold. Frames are frameLen samples advanced by hop.
func SilenceRatio(samples []float64, frameLen, hop int, threshold float64) float64 {
	count := FrameCount(len(samples), frameLen, hop)
	if count == 0 {
		return 0
	}
	silent := 0
	for i := 0; i < count; i++ {
		start := i * hop
		if RMS(samples[start:start+frameLen]) < threshold {
			silent++
		}
	}
	return float64(silent) / float64(count)
}

// #endregion framing

// #region normalize

// ScaleToPeak returns a copy of samples scaled so the peak equals target.
// Silent input is returned unchanged.
func ScaleToPeak(samples []float64, target float64) []float64 {
	out := make([]float64, len(samples))
	peak := Peak(samples)
	if peak == 0 {
		copy(out, samples)
		return out
	}
	gain := target / peak
	for i, s := range samples {
		out[i] = s * gain
	}
	return out
}

// NormalizeRMS scales samples toward targetDBFS RMS, then caps the peak at
// peakCapDBFS. This is the two-stage master normalization.
func NormalizeRMS(samples []float64, targetDBFS, peakCapDBFS float64) []float64 {
	out := make([]float64, len(samples))
	copy(out, samples)

	rms := RMS(out)
	if rms > 0 {
		gain := math.Pow(10, targetDBFS/20) / rms
		for i := range out {
			out[i] *= gain
		}
	}

	peakCap := math.Pow(10, peakCapDBFS/20)
	if peak := Peak(out); peak > peakCap {
		gain := peakCap / peak
		for i := range out {
			out[i] *= gain
		}
	}
	return out
}

// #endregion normalize
