package prosody

import (
	"math"
	"strings"
	"testing"

	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/segment"
)

func docFrom(paragraphs ...string) segment.Document {
	return segment.Segment(strings.Join(paragraphs, "\n\n"))
}

func TestDramaticCenterContrastConnective(t *testing.T) {
	doc := docFrom(
		"El pueblo dormía tranquilo junto al mar aquella mañana de abril.",
		"Sin embargo, nada volvió a ser igual después de aquella noche oscura.",
		"Los años pasaron despacio y el recuerdo se fue apagando solo.",
	)
	if got := DramaticCenter(doc); got != 1 {
		t.Errorf("center = %d, want 1", got)
	}
}

func TestDramaticCenterBonusBandIncludesLateParagraph(t *testing.T) {
	// Paragraph 4 of 5 sits at relative position 0.8 and gets the mid-band
	// bonus; it outweighs the boosted third paragraph only with it.
	doc := docFrom(
		"El pueblo entero dormía aquella noche.",
		"La mañana llegó sin prisa al puerto.",
		"Sin embargo, la clave estaba en otra parte del relato.",
		"Nada cambió durante años.",
		"Sin embargo, la clave de todo aquello seguía escondida en el faro, "+
			"esperando a que alguien subiera la escalera una vez más para encontrarla al fin.",
	)
	if got := DramaticCenter(doc); got != 4 {
		t.Errorf("center = %d, want 4", got)
	}
}

func TestDramaticCenterDeterministic(t *testing.T) {
	doc := docFrom(
		"Primera parte del relato con bastante texto para contar como párrafo.",
		"Segunda parte del relato con bastante texto para contar como párrafo.",
	)
	first := DramaticCenter(doc)
	for i := 0; i < 10; i++ {
		if got := DramaticCenter(doc); got != first {
			t.Fatalf("center changed between runs: %d vs %d", got, first)
		}
	}
}

func TestArcMonotonicAroundCenter(t *testing.T) {
	const n, center = 7, 3
	cfg := DefaultConfig()
	prev := 0.0
	for i := 0; i <= center; i++ {
		f := arcFactor(i, center, n, cfg.ArcPeak, cfg.ArcDrop)
		if f < prev {
			t.Errorf("arc not non-decreasing before center: f(%d)=%f < %f", i, f, prev)
		}
		prev = f
	}
	for i := center; i < n; i++ {
		f := arcFactor(i, center, n, cfg.ArcPeak, cfg.ArcDrop)
		if f > prev+1e-9 {
			t.Errorf("arc not non-increasing after center: f(%d)=%f > %f", i, f, prev)
		}
		prev = f
	}
	if peak := arcFactor(center, center, n, cfg.ArcPeak, cfg.ArcDrop); peak < 1.149 || peak > 1.151 {
		t.Errorf("peak factor = %f, want 1.15", peak)
	}
	if last := arcFactor(n-1, center, n, cfg.ArcPeak, cfg.ArcDrop); last < 0.91 || last > 0.93 {
		t.Errorf("closing factor = %f, want ~0.92", last)
	}
}

func TestPlanPausesClamped(t *testing.T) {
	pl := NewPlanner(DefaultConfig())
	plan := pl.Plan("El faro se apagó para siempre. ¿Quién lo recordaría? " +
		"Sin embargo, alguien subió la escalera. Nadie volvió a bajar jamás.\n\n" +
		"El mar siguió golpeando las rocas, indiferente, como todas las noches.")
	if len(plan.Sentences) == 0 {
		t.Fatal("empty plan")
	}
	for _, s := range plan.Sentences {
		if s.PauseAfter < 0.2 || s.PauseAfter > 3.0 {
			t.Errorf("pause %f out of [0.2, 3.0] for %q", s.PauseAfter, s.Text)
		}
	}
	last := plan.Sentences[len(plan.Sentences)-1]
	if !last.DocumentFinal {
		t.Error("last sentence not flagged document-final")
	}
	if last.PauseAfter < 1.5 {
		t.Errorf("document-final pause %f, want doubled base", last.PauseAfter)
	}
}

func TestQuestionTypeModifiers(t *testing.T) {
	pl := NewPlanner(DefaultConfig())
	plan := pl.Plan("Nadie sabía la respuesta verdadera de aquel enigma. ¿Dónde estaba la llave escondida entonces?")
	var q *Sentence
	for i := range plan.Sentences {
		if plan.Sentences[i].Type == TypeQuestion {
			q = &plan.Sentences[i]
		}
	}
	if q == nil {
		t.Fatal("no question sentence classified")
	}
	if q.ToneFinalBoost < 0.19 {
		t.Errorf("question final boost = %f, want +0.20", q.ToneFinalBoost)
	}
}

func TestExclamationIntensity(t *testing.T) {
	pl := NewPlanner(DefaultConfig())
	plan := pl.Plan("¡Corre hacia la puerta grande ahora mismo sin mirar atrás!")
	s := plan.Sentences[0]
	if s.Type != TypeExclamation {
		t.Fatalf("type = %s, want exclamation", s.Type)
	}
	if s.Intensity < 1.29 || s.Intensity > 1.31 {
		t.Errorf("intensity = %f, want 1.3", s.Intensity)
	}
	if s.ToneInitialBoost < 0.14 {
		t.Errorf("initial boost = %f, want +0.15", s.ToneInitialBoost)
	}
}

func TestQuotationSingleQuote(t *testing.T) {
	pl := NewPlanner(DefaultConfig())
	plan := pl.Plan("Dijo 'nunca' y se marchó tranquilo aquella tarde.")
	if got := plan.Sentences[0].Type; got != TypeQuotation {
		t.Errorf("type = %s, want quotation", got)
	}
}

func TestSmoothingClampsTone(t *testing.T) {
	cfg := DefaultConfig()
	pl := NewPlanner(cfg)
	text := strings.Repeat("Una frase tranquila y serena del relato nocturno. ", 6)
	plan := pl.Plan(text)
	for _, s := range plan.Sentences {
		if s.ToneHz < 0.75*cfg.BaseToneHz-1e-9 || s.ToneHz > 1.35*cfg.BaseToneHz+1e-9 {
			t.Errorf("tone %f outside clamps", s.ToneHz)
		}
		if s.SpeedWPM < 0.75*cfg.NaturalWPM-1e-9 || s.SpeedWPM > 1.25*cfg.NaturalWPM+1e-9 {
			t.Errorf("speed %f outside clamps", s.SpeedWPM)
		}
	}
}

func TestScanEmphasis(t *testing.T) {
	got := scanEmphasis("Era un momento fundamental y diferente, lleno de esperanza.")
	if _, ok := got["fundamental"]; !ok {
		t.Error("missing high-emphasis word fundamental")
	}
	if e := got["fundamental"]; e.ToneBoost != 0.08 || e.Category != CategoryHighEmphasis {
		t.Errorf("fundamental emphasis = %+v", e)
	}
	if e, ok := got["esperanza"]; !ok || e.Category != CategoryMicroRise {
		t.Errorf("esperanza category = %+v", e)
	}
}

func TestScanEmphasisCategoryPrecedence(t *testing.T) {
	// "silencio" is listed under both keep_low and definitive_end;
	// scan order must make keep_low win deterministically.
	got := scanEmphasis("Solo quedó el silencio.")
	e, ok := got["silencio"]
	if !ok {
		t.Fatal("silencio not scanned")
	}
	if e.Category != CategoryKeepLow {
		t.Errorf("category = %s, want keep_low", e.Category)
	}
}

func TestEngineParamsMapping(t *testing.T) {
	cfg := DefaultConfig()
	s := Sentence{
		Text:      "Una frase suficientemente larga para evitar el modo conservador.",
		Curve:     CurveCadence,
		Intensity: 1.3,
		SpeedWPM:  cfg.NaturalWPM,
		Emphasis: map[string]Emphasis{
			"fundamental": {ToneBoost: 0.08, Category: CategoryHighEmphasis},
		},
	}
	p := cfg.EngineParams(s)
	if p.NFEStep != 32+2+8 {
		t.Errorf("nfe = %d, want 42", p.NFEStep)
	}
	if math.Abs(p.Sway-(-0.4)) > 1e-9 {
		t.Errorf("sway = %f, want -0.4", p.Sway)
	}
	if math.Abs(p.CFG-2.3) > 1e-9 {
		t.Errorf("cfg = %f, want 2.3", p.CFG)
	}
}

func TestEngineParamsNFECap(t *testing.T) {
	cfg := DefaultConfig()
	em := map[string]Emphasis{}
	for _, w := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n", "o", "p", "q", "r"} {
		em[w] = Emphasis{}
	}
	s := Sentence{
		Text:     "Una frase suficientemente larga para evitar el modo conservador.",
		Curve:    CurveCadence,
		SpeedWPM: cfg.NaturalWPM,
		Emphasis: em,
	}
	if p := cfg.EngineParams(s); p.NFEStep != 64 {
		t.Errorf("nfe = %d, want capped at 64", p.NFEStep)
	}
}

func TestEngineParamsShortText(t *testing.T) {
	cfg := DefaultConfig()
	p := cfg.EngineParams(Sentence{Text: "Sí, claro."})
	if p.NFEStep != 28 || p.Sway != -0.3 {
		t.Errorf("short text params = %+v, want conservative bundle", p)
	}
}

func TestIsShortText(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"Sí.", true},
		{"Una frase con siete palabras justas aquí mismo.", false},
		{"Palabras sueltas aquí.", true},
	}
	for _, c := range cases {
		if got := IsShortText(c.in); got != c.want {
			t.Errorf("IsShortText(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
