// Package report writes the human-readable narration summary and the
// machine-readable plan dump that accompany the rendered audio.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/dsp"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/prosody"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/validate"
)

// #region analysis

// WriteAnalysis renders the narration summary: master levels plus one line
// per sentence with its planned delivery and text complexity.
func WriteAnalysis(path string, master []float64, sampleRate int, plan prosody.Plan) error {
	var b strings.Builder

	duration := float64(len(master)) / float64(sampleRate)
	rms := dsp.RMS(master)
	peak := dsp.Peak(master)

	fmt.Fprintf(&b, "narration analysis\n")
	fmt.Fprintf(&b, "==================\n\n")
	fmt.Fprintf(&b, "duration:       %.2f s\n", duration)
	fmt.Fprintf(&b, "sample rate:    %d Hz\n", sampleRate)
	fmt.Fprintf(&b, "rms level:      %.1f dBFS\n", dsp.DBFS(rms))
	fmt.Fprintf(&b, "peak level:     %.1f dBFS\n", dsp.DBFS(peak))
	fmt.Fprintf(&b, "dynamic range:  %.1f dB\n", dsp.DBFS(peak)-dsp.DBFS(rms))
	fmt.Fprintf(&b, "paragraphs:     %d\n", len(plan.Document.Paragraphs))
	fmt.Fprintf(&b, "sentences:      %d\n", len(plan.Sentences))
	fmt.Fprintf(&b, "dramatic center: paragraph %d\n\n", plan.Center)

	fmt.Fprintf(&b, "%-4s %-16s %-12s %7s %7s %7s %6s  text\n",
		"idx", "type", "function", "tone", "wpm", "pause", "cmplx")
	for _, s := range plan.Sentences {
		fmt.Fprintf(&b, "%-4d %-16s %-12s %7.1f %7.1f %6.2fs %6.2f  %s\n",
			s.GlobalIndex, s.Type, s.Function, s.ToneHz, s.SpeedWPM, s.PauseAfter,
			validate.Complexity(s.Text), truncate(s.Text, 60))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// #endregion analysis

// #region plan

// WritePlan dumps the full prosodic plan as indented JSON.
func WritePlan(path string, plan prosody.Plan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}

// #endregion plan
