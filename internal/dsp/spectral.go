package dsp

import (
	"math"
	"math/cmplx"
)

// #region fft

// fft computes an in-place radix-2 Cooley-Tukey transform.
// len(x) must be a power of two.
func fft(x []complex128) {
	n := len(x)
	if n <= 1 {
		return
	}
	// Bit-reversal permutation.
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}
	for length := 2; length <= n; length <<= 1 {
		ang := -2 * math.Pi / float64(length)
		wl := cmplx.Rect(1, ang)
		for i := 0; i < n; i += length {
			w := complex(1, 0)
			for k := 0; k < length/2; k++ {
				u := x[i+k]
				v := x[i+k+length/2] * w
				x[i+k] = u + v
				x[i+k+length/2] = u - v
				w *= wl
			}
		}
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// #endregion fft

// #region centroid

// SpectralCentroid returns the magnitude-weighted mean frequency of a frame
// in Hz. Silent frames return 0.
func SpectralCentroid(frame []float64, sampleRate int) float64 {
	if len(frame) == 0 {
		return 0
	}
	n := nextPow2(len(frame))
	x := make([]complex128, n)
	for i, s := range frame {
		// Hann window.
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(len(frame)-1)))
		if len(frame) == 1 {
			w = 1
		}
		x[i] = complex(s*w, 0)
	}
	fft(x)

	binHz := float64(sampleRate) / float64(n)
	var weighted, total float64
	for k := 0; k <= n/2; k++ {
		mag := cmplx.Abs(x[k])
		weighted += float64(k) * binHz * mag
		total += mag
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// #endregion centroid

// #region stats

// MeanStd returns the mean and population standard deviation of values.
func MeanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// #endregion stats
