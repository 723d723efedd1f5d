package analysis

import (
	"math"
	"testing"
)

const testRate = 24000

// glide renders a sine whose frequency moves linearly from f0 to f1 with
// continuous phase.
func glide(f0, f1, seconds, amp float64) []float64 {
	n := int(seconds * testRate)
	out := make([]float64, n)
	phase := 0.0
	for i := range out {
		t := float64(i) / float64(n)
		f := f0 + (f1-f0)*t
		phase += 2 * math.Pi * f / testRate
		out[i] = amp * math.Sin(phase)
	}
	return out
}

func TestAnalyzeRisingArc(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	seg := Segment{Samples: glide(150, 300, 3.0, 0.4), SampleRate: testRate}
	sa := a.AnalyzeSegment(0, seg, "texto de prueba.")

	if sa.VoicedWindows == 0 {
		t.Fatal("no voiced windows over a glide")
	}
	if sa.PitchStart >= sa.PitchEnd {
		t.Errorf("rising glide: start %f >= end %f", sa.PitchStart, sa.PitchEnd)
	}
	if sa.ArcSlope <= 0.3 {
		t.Errorf("arc slope = %f, want strongly positive", sa.ArcSlope)
	}
}

func TestAnalyzeFallingArc(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	seg := Segment{Samples: glide(300, 150, 3.0, 0.4), SampleRate: testRate}
	sa := a.AnalyzeSegment(0, seg, "texto de prueba.")
	if sa.ArcSlope >= -0.3 {
		t.Errorf("falling glide arc slope = %f, want strongly negative", sa.ArcSlope)
	}
	if sa.PitchMid <= sa.PitchEnd || sa.PitchMid >= sa.PitchStart {
		t.Errorf("mid pitch %f not between end %f and start %f", sa.PitchMid, sa.PitchEnd, sa.PitchStart)
	}
}

func TestAnalyzeWindowGeometry(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	seg := Segment{Samples: glide(185, 185, 2.0, 0.4), SampleRate: testRate}
	sa := a.AnalyzeSegment(0, seg, "x.")

	// 2 s at 250 ms windows, 125 ms hop: 1 + (48000-6000)/3000 = 15.
	if len(sa.Windows) != 15 {
		t.Fatalf("windows = %d, want 15", len(sa.Windows))
	}
	if sa.Windows[0].Position != PositionAttack {
		t.Errorf("first window position = %s", sa.Windows[0].Position)
	}
	if last := sa.Windows[len(sa.Windows)-1]; last.Position != PositionRelease {
		t.Errorf("last window position = %s", last.Position)
	}
	seenSustain, seenDecay := false, false
	for _, w := range sa.Windows {
		if w.Position == PositionSustain {
			seenSustain = true
		}
		if w.Position == PositionDecay {
			seenDecay = true
		}
		if w.RMS <= 0 {
			t.Errorf("window %d RMS = %f", w.Index, w.RMS)
		}
	}
	if !seenSustain || !seenDecay {
		t.Error("sustain/decay classes missing from a 15-window segment")
	}
}

func TestAnalyzeEmptySegment(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	sa := a.AnalyzeSegment(3, Segment{}, "vacío.")
	if sa.Index != 3 || len(sa.Windows) != 0 || sa.VoicedWindows != 0 {
		t.Errorf("empty segment analysis = %+v", sa)
	}
}

func TestAnalyzePairsTexts(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	segs := []Segment{
		{Samples: glide(185, 185, 1.0, 0.4), SampleRate: testRate},
		{Samples: glide(185, 185, 1.0, 0.4), SampleRate: testRate},
	}
	got := a.Analyze(segs, []string{"primera."})
	if len(got) != 2 {
		t.Fatalf("got %d analyses", len(got))
	}
	if got[0].Text != "primera." || got[1].Text != "" {
		t.Errorf("texts = %q, %q", got[0].Text, got[1].Text)
	}
}
