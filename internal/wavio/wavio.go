// Package wavio converts between raw float64 sample slices and 16-bit PCM WAV.
package wavio

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// #region decode

// Decode reads a mono WAV stream into float64 samples in [-1, 1].
// Multi-channel input is downmixed by averaging.
func Decode(r io.ReadSeeker) ([]float64, int, error) {
	dec := wav.NewDecoder(r)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}
	if buf == nil || buf.NumFrames() == 0 {
		return nil, 0, fmt.Errorf("decode wav: empty buffer")
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := float64(int(1) << uint(buf.SourceBitDepth-1))
	if buf.SourceBitDepth == 0 {
		scale = 1 << 15
	}

	frames := buf.NumFrames()
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) / scale
		}
		samples[i] = sum / float64(channels)
	}
	return samples, buf.Format.SampleRate, nil
}

// DecodeBytes decodes an in-memory WAV payload (e.g. an HTTP response body).
func DecodeBytes(data []byte) ([]float64, int, error) {
	return Decode(bytes.NewReader(data))
}

// #endregion decode

// #region encode

// Encode writes float64 samples as mono 16-bit PCM.
func Encode(w io.WriteSeeker, samples []float64, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)

	data := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * 32767)
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// WriteFile encodes samples to a WAV file at path.
func WriteFile(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Encode(f, samples, sampleRate)
}

// ReadFile decodes a WAV file into float64 samples.
func ReadFile(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// #endregion encode
