// Package pipeline drives a narration end to end: plan, synthesize each
// sentence under validation, analyze, repair, assemble, and persist the run.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/analysis"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/assemble"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/config"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/detect"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/dsp"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/engine"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/prosody"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/regen"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/report"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/segment"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/state"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/validate"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/wavio"
)

// #region types

// Pipeline wires the narration stages together.
type Pipeline struct {
	cfg        *config.Config
	prosodyCfg prosody.Config
	planner    *prosody.Planner
	retry      *validate.RetryEngine
	analyzer   *analysis.Analyzer
	detector   *detect.Detector
	regen      *regen.Regenerator
	assembler  *assemble.Assembler
	store      *state.Store
}

// New builds a pipeline from the loaded configuration, a synthesizer, and
// an open store.
func New(cfg *config.Config, synth engine.Synthesizer, store *state.Store) *Pipeline {
	pcfg := cfg.ProsodyConfig()
	analyzer := analysis.NewAnalyzer(analysis.DefaultConfig())
	return &Pipeline{
		cfg:        cfg,
		prosodyCfg: pcfg,
		planner:    prosody.NewPlanner(pcfg),
		retry:      validate.NewRetryEngine(cfg.RetryEngineConfig(), synth, validate.NewValidator(validate.DefaultConfig())),
		analyzer:   analyzer,
		detector:   detect.NewDetector(cfg.DetectConfig()),
		regen:      regen.NewRegenerator(cfg.RegenConfig(), synth, analyzer, cfg.DetectConfig()),
		assembler:  assemble.NewAssembler(cfg.AssembleConfig()),
		store:      store,
	}
}

// RunResult summarizes a completed narration.
type RunResult struct {
	SessionID  string
	OutputPath string
	Stats      assemble.Stats
	Accepted   int
	Fallbacks  int
	Recovered  int
	Fixes      regen.Report
}

// #endregion types

// #region run

// Run narrates text against the reference voice. Artifacts go to a fresh
// per-run directory under the configured output root, so runs never clobber
// each other.
func (p *Pipeline) Run(ctx context.Context, text, referenceAudio string) (RunResult, error) {
	plan := p.planner.Plan(text)
	if len(plan.Sentences) == 0 {
		return RunResult{}, fmt.Errorf("no sentences in input")
	}
	runDir := filepath.Join(p.cfg.Output.Dir,
		time.Now().Format("20060102_150405")+"_"+uuid.NewString()[:8])
	return p.run(ctx, plan, referenceAudio, 0, nil, runDir)
}

// Resume continues an interrupted run from a checkpoint: clips below the
// checkpointed sentence are reloaded from disk instead of re-synthesized.
func (p *Pipeline) Resume(ctx context.Context, text string, cp state.Checkpoint) (RunResult, error) {
	plan := p.planner.Plan(text)
	if cp.SentenceIndex >= len(plan.Sentences) {
		return RunResult{}, fmt.Errorf("checkpoint sentence %d beyond plan (%d sentences)",
			cp.SentenceIndex, len(plan.Sentences))
	}

	clips := make([][]float64, 0, cp.SentenceIndex)
	for i := 0; i < cp.SentenceIndex; i++ {
		samples, _, err := wavio.ReadFile(sentencePath(cp.OutputDir, i))
		if err != nil {
			return RunResult{}, fmt.Errorf("reload sentence %d: %w", i, err)
		}
		clips = append(clips, samples)
	}
	log.Printf("[PIPE] resuming at sentence %d with %d reloaded clips", cp.SentenceIndex, len(clips))
	return p.run(ctx, plan, cp.ReferenceAudio, cp.SentenceIndex, clips, cp.OutputDir)
}

func (p *Pipeline) run(ctx context.Context, plan prosody.Plan, referenceAudio string, startAt int, clips [][]float64, outDir string) (RunResult, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return RunResult{}, fmt.Errorf("output dir: %w", err)
	}

	sess, err := p.store.CreateSession(referenceAudio, outDir,
		len(plan.Document.Paragraphs), len(plan.Sentences))
	if err != nil {
		return RunResult{}, err
	}
	out := RunResult{SessionID: sess.ID}

	sampleRate := p.cfg.Voice.SampleRate
	for i := startAt; i < len(plan.Sentences); i++ {
		// Cancellation is honored only between sentences so a clip is
		// never half-written.
		if err := ctx.Err(); err != nil {
			p.store.CompleteSession(sess.ID, state.StatusInterrupted)
			return out, err
		}

		s := plan.Sentences[i]
		res, err := p.synthesizeSentence(ctx, s, referenceAudio)
		p.recordAttempts(sess.ID, i, res)
		if err != nil {
			return out, p.handleSentenceError(sess.ID, i, referenceAudio, outDir, err)
		}

		switch res.Outcome {
		case validate.OutcomeAccepted:
			out.Accepted++
		case validate.OutcomeFallback:
			out.Fallbacks++
		case validate.OutcomeRecovered:
			out.Recovered++
		}
		if res.SampleRate > 0 {
			sampleRate = res.SampleRate
		}

		if err := wavio.WriteFile(sentencePath(outDir, i), res.Samples, sampleRate); err != nil {
			p.store.CompleteSession(sess.ID, state.StatusFailed)
			return out, fmt.Errorf("write sentence %d: %w", i, err)
		}
		clips = append(clips, res.Samples)
	}

	segments := make([]analysis.Segment, len(clips))
	texts := make([]string, len(clips))
	for i, c := range clips {
		segments[i] = analysis.Segment{Samples: c, SampleRate: sampleRate}
		texts[i] = plan.Sentences[i].Text
	}
	analyses := p.analyzer.Analyze(segments, texts)
	problems := p.detector.Detect(analyses, plan.Sentences)

	segments, fixes := p.regen.Fix(ctx, problems, segments, plan.Sentences, referenceAudio)
	out.Fixes = fixes
	p.recordFixes(sess.ID, fixes)

	for i := range segments {
		clips[i] = segments[i].Samples
	}
	master, stats, err := p.assembler.Assemble(clips, plan.Sentences, sampleRate)
	if err != nil {
		p.store.CompleteSession(sess.ID, state.StatusFailed)
		return out, err
	}
	out.Stats = stats

	out.OutputPath = filepath.Join(outDir, "narration.wav")
	if err := wavio.WriteFile(out.OutputPath, master, sampleRate); err != nil {
		p.store.CompleteSession(sess.ID, state.StatusFailed)
		return out, fmt.Errorf("write narration: %w", err)
	}
	if err := report.WriteAnalysis(filepath.Join(outDir, "analysis.txt"), master, sampleRate, plan); err != nil {
		log.Printf("[PIPE] analysis report: %v", err)
	}
	if err := report.WritePlan(filepath.Join(outDir, "plan.json"), plan); err != nil {
		log.Printf("[PIPE] plan dump: %v", err)
	}

	if err := p.store.CompleteSession(sess.ID, state.StatusCompleted); err != nil {
		return out, err
	}
	log.Printf("[PIPE] session %s complete: %d accepted, %d fallback, %d recovered, %d repaired",
		sess.ID, out.Accepted, out.Fallbacks, out.Recovered, fixes.Applied)
	return out, nil
}

// #endregion run

// #region sentence

// synthesizeSentence runs the validation loop for one sentence. Sentences
// that match the known destabilizing shapes are pre-split and the parts
// crossfaded, each part validated on its own.
func (p *Pipeline) synthesizeSentence(ctx context.Context, s prosody.Sentence, ref string) (validate.SentenceResult, error) {
	params := p.prosodyCfg.EngineParams(s)

	if !segment.Risky(s.EngineText) {
		return p.retry.Synthesize(ctx, ref, s.EngineText, params)
	}

	parts := segment.SplitForEngine(s.EngineText, segment.SplitMaxWords)
	if len(parts) < 2 {
		return p.retry.Synthesize(ctx, ref, s.EngineText, params)
	}
	log.Printf("[PIPE] risky sentence pre-split into %d parts", len(parts))

	merged := validate.SentenceResult{Outcome: validate.OutcomeAccepted}
	overlap := 0
	for _, part := range parts {
		res, err := p.retry.Synthesize(ctx, ref, part, params)
		merged.Attempts = append(merged.Attempts, res.Attempts...)
		if err != nil {
			return merged, err
		}
		if res.Outcome == validate.OutcomeFallback {
			merged.Outcome = validate.OutcomeFallback
		}
		if merged.Samples == nil {
			merged.Samples = res.Samples
			merged.SampleRate = res.SampleRate
			overlap = int(p.cfg.Assembly.CrossfadeSeconds * float64(res.SampleRate))
		} else {
			merged.Samples = dsp.EqualPowerJoin(merged.Samples, res.Samples, overlap)
		}
	}
	return merged, nil
}

func (p *Pipeline) handleSentenceError(sessionID string, index int, ref, outDir string, err error) error {
	if engine.IsFatal(err) {
		cpErr := p.store.SaveCheckpoint(state.Checkpoint{
			SessionID:      sessionID,
			SentenceIndex:  index,
			ReferenceAudio: ref,
			OutputDir:      outDir,
			Device:         p.cfg.Engine.Device,
			Reason:         err.Error(),
		})
		if cpErr != nil {
			log.Printf("[PIPE] checkpoint save failed: %v", cpErr)
		} else {
			log.Printf("[PIPE] fatal engine error at sentence %d, checkpoint saved", index)
		}
		return fmt.Errorf("fatal engine error at sentence %d: %w", index, err)
	}
	p.store.CompleteSession(sessionID, state.StatusFailed)
	return fmt.Errorf("sentence %d: %w", index, err)
}

func sentencePath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("sentence_%02d.wav", i))
}

// #endregion sentence

// #region accounting

func (p *Pipeline) recordAttempts(sessionID string, sentenceIndex int, res validate.SentenceResult) {
	for _, a := range res.Attempts {
		outcome := "rejected"
		switch {
		case a.Err != "":
			outcome = "error"
		case a.Reason == validate.ReasonNone:
			outcome = "valid"
		}
		row := state.AttemptRow{
			SessionID:     sessionID,
			SentenceIndex: sentenceIndex,
			Attempt:       a.AttemptNum,
			Outcome:       outcome,
			Reason:        string(a.Reason),
			Score:         a.Score,
			NFEStep:       a.Params.NFEStep,
			Sway:          a.Params.Sway,
			CFG:           a.Params.CFG,
			Speed:         a.Params.Speed,
		}
		if err := p.store.RecordAttempt(row); err != nil {
			log.Printf("[PIPE] record attempt: %v", err)
		}
	}
	// One summary row for the final outcome.
	if res.Outcome != "" {
		row := state.AttemptRow{
			SessionID:       sessionID,
			SentenceIndex:   sentenceIndex,
			Attempt:         len(res.Attempts) + 1,
			Outcome:         string(res.Outcome),
			Score:           res.FallbackScore,
			DurationSeconds: float64(len(res.Samples)) / float64(maxInt(res.SampleRate, 1)),
		}
		if err := p.store.RecordAttempt(row); err != nil {
			log.Printf("[PIPE] record outcome: %v", err)
		}
	}
}

func (p *Pipeline) recordFixes(sessionID string, fixes regen.Report) {
	for _, f := range fixes.Fixes {
		row := state.FixRow{
			SessionID:    sessionID,
			SegmentIndex: f.Problem.SegmentIndex,
			ProblemType:  string(f.Problem.Type),
			Severity:     f.Problem.Severity,
			Applied:      f.Applied,
			Score:        f.Score,
			Attempts:     f.Attempts,
			Hint:         f.Hint,
		}
		if err := p.store.RecordFix(row); err != nil {
			log.Printf("[PIPE] record fix: %v", err)
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// #endregion accounting
