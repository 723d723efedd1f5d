package validate

import (
	"math"
	"testing"
)

const testRate = 24000

func tone(freq float64, seconds, amp float64) []float64 {
	n := int(seconds * testRate)
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/testRate)
	}
	return out
}

// 49 chars, no hiatus junctions, vowel final: passes every criterion when
// paired with a well-formed clip.
const cleanText = "La tormenta duró toda la noche del jueves pasado."

func TestValidateAcceptsCleanClip(t *testing.T) {
	v := NewValidator(DefaultConfig())
	got := v.Validate(tone(185, 3.0, 0.3), testRate, cleanText)
	if !got.Valid {
		t.Fatalf("clean clip rejected: %s", got.Reason)
	}
	if got.Reason != ReasonNone {
		t.Errorf("reason = %s, want none", got.Reason)
	}
}

func TestValidateEmptyAudio(t *testing.T) {
	v := NewValidator(DefaultConfig())
	if got := v.Validate(nil, testRate, cleanText); got.Valid || got.Reason != ReasonEmptyAudio {
		t.Errorf("got %+v, want empty audio rejection", got)
	}
}

func TestValidateInsufficientDuration(t *testing.T) {
	// 48 chars, 9 words, 0.05 s clip.
	text := "El viejo faro guiaba siempre alas naves del mar."
	if len(text) != 48 {
		t.Fatalf("fixture drifted: %d chars", len(text))
	}
	v := NewValidator(DefaultConfig())
	got := v.Validate(tone(185, 0.05, 0.3), testRate, text)
	if got.Valid {
		t.Fatal("0.05s clip accepted")
	}
	if got.Reason != ReasonShortDuration {
		t.Errorf("reason = %q, want %q", got.Reason, ReasonShortDuration)
	}
}

func TestValidateExcessiveDuration(t *testing.T) {
	v := NewValidator(DefaultConfig())
	got := v.Validate(tone(185, 30, 0.3), testRate, cleanText)
	if got.Valid || got.Reason != ReasonLongDuration {
		t.Errorf("got %+v, want excessive duration", got)
	}
}

func TestValidateLowEnergy(t *testing.T) {
	v := NewValidator(DefaultConfig())
	got := v.Validate(tone(185, 3.0, 0.0005), testRate, cleanText)
	if got.Valid || got.Reason != ReasonLowEnergy {
		t.Errorf("got %+v, want low energy", got)
	}
}

func TestValidateEndpointSpike(t *testing.T) {
	clip := tone(185, 3.0, 0.05)
	burst := tone(185, 0.05, 1.0)
	copy(clip, burst)
	v := NewValidator(DefaultConfig())
	got := v.Validate(clip, testRate, cleanText)
	if got.Valid || got.Reason != ReasonEndpointSpike {
		t.Errorf("got %+v, want endpoint spike", got)
	}
}

func TestValidateEndpointEnergyRatio(t *testing.T) {
	// The 4x cap bounds edge-window energy, not amplitude: a final burst at
	// ~12x the clip's mean energy is only ~3.4x in amplitude and must still
	// be rejected.
	clip := tone(185, 4.0, 0.1)
	burst := tone(185, 0.05, 0.37)
	copy(clip[len(clip)-len(burst):], burst)
	v := NewValidator(DefaultConfig())
	got := v.Validate(clip, testRate, cleanText)
	if got.Valid || got.Reason != ReasonEndpointSpike {
		t.Errorf("got %+v, want endpoint spike", got)
	}
}

func TestValidateFaintPassageNotSilence(t *testing.T) {
	// Silence is measured against the absolute energy floor: a quiet but
	// voiced second half well below 10% of the clip's RMS still counts as
	// speech.
	clip := append(tone(185, 1.5, 0.5), tone(185, 1.5, 0.005)...)
	v := NewValidator(DefaultConfig())
	got := v.Validate(clip, testRate, cleanText)
	if !got.Valid {
		t.Errorf("faint passage rejected: %s", got.Reason)
	}
}

func TestValidateExcessSilence(t *testing.T) {
	clip := append(tone(185, 1.0, 0.3), make([]float64, 2*testRate)...)
	v := NewValidator(DefaultConfig())
	got := v.Validate(clip, testRate, cleanText)
	if got.Valid || got.Reason != ReasonExcessSilence {
		t.Errorf("got %+v, want excess silence", got)
	}
}

func TestValidateClippedFinalConsonant(t *testing.T) {
	// Ends in 'l'; voiced audio stops 200 ms before the clip does.
	text := "El guardián cuidaba cada noche el viejo fanal."
	clip := append(tone(185, 2.3, 0.3), make([]float64, int(0.2*testRate))...)
	v := NewValidator(DefaultConfig())
	got := v.Validate(clip, testRate, text)
	if got.Valid || got.Reason != ReasonClippedFinal {
		t.Errorf("got %+v, want clipped final consonant", got)
	}
}

func TestValidatePitchInstability(t *testing.T) {
	// Alternating 150/300 Hz blocks every 0.25 s.
	var clip []float64
	for i := 0; i < 12; i++ {
		f := 150.0
		if i%2 == 1 {
			f = 300.0
		}
		clip = append(clip, tone(f, 0.25, 0.3)...)
	}
	v := NewValidator(DefaultConfig())
	got := v.Validate(clip, testRate, cleanText)
	if got.Valid || got.Reason != ReasonPitchInstability {
		t.Errorf("got %+v, want pitch instability", got)
	}
}

func TestCentroidOutlierShare(t *testing.T) {
	v := NewValidator(DefaultConfig())

	// 30 moves of 100 Hz and 6 of 500 Hz: std ~149, so the large moves sit
	// above 3 sigma in absolute terms and count as outliers.
	diffs := make([]float64, 0, 36)
	for i := 0; i < 30; i++ {
		diffs = append(diffs, 100)
	}
	for i := 0; i < 6; i++ {
		diffs = append(diffs, 500)
	}
	share := v.centroidOutlierShare(diffs)
	if share < 0.16 || share > 0.17 {
		t.Errorf("share = %f, want 6/36", share)
	}

	// Uniform moves are never outliers.
	if s := v.centroidOutlierShare([]float64{120, 120, 120}); s != 0 {
		t.Errorf("uniform diffs share = %f, want 0", s)
	}
}

func TestDurationBoundsWidenForComplexText(t *testing.T) {
	// Dense hiatus junctions push complexity over the gate.
	text := "Iba a casa antigua y entraba allí en la aurora helada inmensa siempre."
	if Complexity(text) <= 0.3 {
		t.Fatalf("fixture complexity %f not above gate", Complexity(text))
	}

	wide := NewValidator(DefaultConfig())
	strictCfg := DefaultConfig()
	strictCfg.ComplexityGate = 2 // widening never triggers
	strict := NewValidator(strictCfg)

	minW, maxW := wide.DurationBounds(text)
	minN, maxN := strict.DurationBounds(text)
	if minW >= minN {
		t.Errorf("widened min %f not below base %f", minW, minN)
	}
	if maxW <= maxN {
		t.Errorf("widened max %f not above base %f", maxW, maxN)
	}
}

func TestComplexity(t *testing.T) {
	if got := Complexity("xyz plof"); got != 0 {
		t.Errorf("no-feature text complexity = %f, want 0", got)
	}
	if got := Complexity("la aurora inmensa"); got <= 0 {
		t.Errorf("hiatus text complexity = %f, want > 0", got)
	}
	long := ""
	for i := 0; i < 30; i++ {
		long += "va a "
	}
	if got := Complexity(long); got != 1 {
		t.Errorf("complexity not capped at 1: %f", got)
	}
}

func TestCountProblematicFinals(t *testing.T) {
	if got := CountProblematicFinals("el mar azul, sin sal."); got != 5 {
		t.Errorf("got %d finals, want 5", got)
	}
	if got := CountProblematicFinals("la casa blanca"); got != 0 {
		t.Errorf("got %d finals, want 0", got)
	}
}

func TestEndsProblematic(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"el fanal.", true},
		{"la casa.", false},
		{"sin fin!", true},
		{"", false},
	}
	for _, c := range cases {
		if got := EndsProblematic(c.in); got != c.want {
			t.Errorf("EndsProblematic(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestQualityScoreProperties(t *testing.T) {
	v := NewValidator(DefaultConfig())

	// Non-negative everywhere.
	clips := [][]float64{
		tone(185, 0.05, 0.3),
		tone(185, 3.0, 0.3),
		tone(185, 3.0, 0.0001),
		nil,
	}
	for _, c := range clips {
		if s := v.QualityScore(c, testRate, cleanText); s < 0 {
			t.Errorf("negative quality score %f", s)
		}
	}

	// A clip at the window midpoint with healthy energy and no silence
	// scores exactly 0.
	minD, maxD := v.DurationBounds(cleanText)
	mid := (minD + maxD) / 2
	if s := v.QualityScore(tone(185, mid, 0.3), testRate, cleanText); s > 1e-3 {
		t.Errorf("midpoint clip score = %f, want ~0", s)
	}

	// Closer to the midpoint ranks better.
	far := v.QualityScore(tone(185, 0.5, 0.3), testRate, cleanText)
	near := v.QualityScore(tone(185, mid*0.9, 0.3), testRate, cleanText)
	if near >= far {
		t.Errorf("near-mid score %f not below far score %f", near, far)
	}

	// Unanalyzable candidates rank worst.
	if s := v.QualityScore(nil, testRate, cleanText); s != worstScore {
		t.Errorf("nil clip score = %f, want %d", s, worstScore)
	}
}
