package validate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/engine"
)

// scriptSynth returns canned responses in order, repeating the last one.
type scriptSynth struct {
	calls     int
	responses []func(req engine.Request) (engine.Result, error)
	requests  []engine.Request
}

func (s *scriptSynth) Synthesize(_ context.Context, req engine.Request) (engine.Result, error) {
	s.requests = append(s.requests, req)
	i := s.calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.calls++
	return s.responses[i](req)
}

func ok(seconds float64) func(engine.Request) (engine.Result, error) {
	return func(engine.Request) (engine.Result, error) {
		return engine.Result{Samples: tone(185, seconds, 0.3), SampleRate: testRate}, nil
	}
}

func fail(err error) func(engine.Request) (engine.Result, error) {
	return func(engine.Request) (engine.Result, error) {
		return engine.Result{}, err
	}
}

func testRetryEngine(synth engine.Synthesizer, maxAttempts int) *RetryEngine {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = maxAttempts
	cfg.Delay = 0
	return NewRetryEngine(cfg, synth, NewValidator(DefaultConfig()))
}

func TestRetryAcceptsFirstValid(t *testing.T) {
	synth := &scriptSynth{responses: []func(engine.Request) (engine.Result, error){ok(3.0)}}
	r := testRetryEngine(synth, 50)

	res, err := r.Synthesize(context.Background(), "ref.wav", cleanText, engine.DefaultParams())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.Outcome != OutcomeAccepted {
		t.Errorf("outcome = %s, want accepted", res.Outcome)
	}
	if synth.calls != 1 {
		t.Errorf("engine called %d times, want 1", synth.calls)
	}
	if len(res.Attempts) != 1 || res.Attempts[0].Reason != ReasonNone {
		t.Errorf("attempts = %+v", res.Attempts)
	}
}

func TestRetryInvalidThenValid(t *testing.T) {
	synth := &scriptSynth{responses: []func(engine.Request) (engine.Result, error){
		ok(0.05), // insufficient duration
		ok(3.0),
	}}
	r := testRetryEngine(synth, 50)

	res, err := r.Synthesize(context.Background(), "ref.wav", cleanText, engine.DefaultParams())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.Outcome != OutcomeAccepted {
		t.Errorf("outcome = %s, want accepted", res.Outcome)
	}
	if len(res.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(res.Attempts))
	}
	if res.Attempts[0].Reason != ReasonShortDuration {
		t.Errorf("first attempt reason = %s", res.Attempts[0].Reason)
	}
}

func TestRetryFallbackKeepsBestCandidate(t *testing.T) {
	// Both candidates are too short; 2.0 s sits nearer the window midpoint
	// than 0.5 s and must win the fallback.
	synth := &scriptSynth{responses: []func(engine.Request) (engine.Result, error){
		ok(0.5),
		ok(2.0),
		ok(0.5),
	}}
	r := testRetryEngine(synth, 3)

	res, err := r.Synthesize(context.Background(), "ref.wav", cleanText, engine.DefaultParams())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.Outcome != OutcomeFallback {
		t.Fatalf("outcome = %s, want fallback", res.Outcome)
	}
	if got := float64(len(res.Samples)) / float64(res.SampleRate); got < 1.9 || got > 2.1 {
		t.Errorf("fallback duration = %f, want the 2.0 s candidate", got)
	}
	if len(res.Attempts) != 3 {
		t.Errorf("attempts = %d, want 3", len(res.Attempts))
	}
	if res.FallbackScore <= 0 {
		t.Errorf("fallback score = %f, want > 0", res.FallbackScore)
	}
}

func TestRetryCeilingAuthoritative(t *testing.T) {
	synth := &scriptSynth{responses: []func(engine.Request) (engine.Result, error){ok(0.5)}}
	r := testRetryEngine(synth, 5)

	res, err := r.Synthesize(context.Background(), "ref.wav", cleanText, engine.DefaultParams())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if synth.calls != 5 {
		t.Errorf("engine called %d times, want exactly 5", synth.calls)
	}
	if res.Outcome != OutcomeFallback {
		t.Errorf("outcome = %s", res.Outcome)
	}
}

func TestRetryTransientErrorsExhaust(t *testing.T) {
	synth := &scriptSynth{responses: []func(engine.Request) (engine.Result, error){
		fail(&engine.Error{Kind: engine.KindTransient, Message: "model busy"}),
	}}
	r := testRetryEngine(synth, 4)

	_, err := r.Synthesize(context.Background(), "ref.wav", cleanText, engine.DefaultParams())
	if err == nil {
		t.Fatal("want exhaustion error")
	}
	if synth.calls != 4 {
		t.Errorf("engine called %d times, want 4", synth.calls)
	}
}

func TestRetryFatalRecoversWithExtension(t *testing.T) {
	fatal := &engine.Error{Kind: engine.KindNonMonotonicTime, Message: "t must be strictly increasing or decreasing"}
	synth := &scriptSynth{responses: []func(engine.Request) (engine.Result, error){
		fail(fatal),
		ok(3.0), // extension attempt succeeds
	}}
	r := testRetryEngine(synth, 50)

	res, err := r.Synthesize(context.Background(), "ref.wav", cleanText, engine.DefaultParams())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.Outcome != OutcomeRecovered {
		t.Errorf("outcome = %s, want recovered", res.Outcome)
	}
	// Recovery must use the conservative bundle and the extended text.
	last := synth.requests[len(synth.requests)-1]
	if last.Params.NFEStep != engine.ConservativeParams().NFEStep {
		t.Errorf("recovery params = %+v", last.Params)
	}
	if !strings.HasSuffix(last.Text, "...") {
		t.Errorf("recovery text = %q, want neutral extension", last.Text)
	}
}

func TestRetryFatalRecoversWithSplit(t *testing.T) {
	fatal := &engine.Error{Kind: engine.KindNonMonotonicTime, Message: "non-monotonic"}
	synth := &scriptSynth{responses: []func(engine.Request) (engine.Result, error){
		fail(fatal), // original
		fail(fatal), // extension
		ok(1.5),     // left part
		ok(1.5),     // right part
	}}
	r := testRetryEngine(synth, 50)

	res, err := r.Synthesize(context.Background(), "ref.wav",
		"El viento arrancaba las tejas, pero nadie salió a mirar.", engine.DefaultParams())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.Outcome != OutcomeRecovered {
		t.Fatalf("outcome = %s, want recovered", res.Outcome)
	}
	// Two 1.5 s parts joined with a 0.15 s crossfade.
	want := 2*int(1.5*testRate) - int(0.15*testRate)
	if len(res.Samples) != want {
		t.Errorf("joined length = %d, want %d", len(res.Samples), want)
	}
	if synth.calls != 4 {
		t.Errorf("engine called %d times, want 4", synth.calls)
	}
}

func TestRetryFatalUnrecoverable(t *testing.T) {
	fatal := &engine.Error{Kind: engine.KindNonMonotonicTime, Message: "non-monotonic"}
	synth := &scriptSynth{responses: []func(engine.Request) (engine.Result, error){fail(fatal)}}
	r := testRetryEngine(synth, 50)

	res, err := r.Synthesize(context.Background(), "ref.wav", cleanText, engine.DefaultParams())
	if err == nil {
		t.Fatal("want fatal error")
	}
	if !engine.IsFatal(err) {
		t.Errorf("error lost its fatal classification: %v", err)
	}
	if res.Outcome != OutcomeFatal {
		t.Errorf("outcome = %s, want fatal", res.Outcome)
	}
}

func TestRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	synth := &scriptSynth{responses: []func(engine.Request) (engine.Result, error){ok(3.0)}}
	r := testRetryEngine(synth, 50)

	_, err := r.Synthesize(ctx, "ref.wav", cleanText, engine.DefaultParams())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if synth.calls != 0 {
		t.Errorf("engine called despite cancelled context")
	}
}

func TestSplitForRecovery(t *testing.T) {
	cases := []struct {
		in, left, right string
	}{
		{
			"El viento arrancaba las tejas, pero nadie salió a mirar.",
			"El viento arrancaba las tejas,",
			"pero nadie salió a mirar.",
		},
		{
			"El mar subía y el cielo se oscurecía despacio.",
			"El mar subía",
			"y el cielo se oscurecía despacio.",
		},
		{
			"Palabras sin ninguna coma ni conector claro aquí.",
			"Palabras sin ninguna coma",
			"ni conector claro aquí.",
		},
		{
			"La puerta estaba cerrada con llave así que volvimos a casa.",
			"La puerta estaba cerrada con llave",
			"así que volvimos a casa.",
		},
	}
	for _, c := range cases {
		left, right := SplitForRecovery(c.in)
		if left != c.left || right != c.right {
			t.Errorf("SplitForRecovery(%q) = %q | %q, want %q | %q", c.in, left, right, c.left, c.right)
		}
	}
}
