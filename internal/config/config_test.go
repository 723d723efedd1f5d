package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.URL != "http://localhost:5050" {
		t.Errorf("engine url = %s", cfg.Engine.URL)
	}
	if cfg.Voice.BaseToneHz != 185.0 || cfg.Voice.NaturalWPM != 145.0 {
		t.Errorf("voice baseline = %+v", cfg.Voice)
	}
	if cfg.Retry.MaxAttempts != 50 || cfg.Retry.Delay != 500*time.Millisecond {
		t.Errorf("retry = %+v", cfg.Retry)
	}
	if cfg.Repair.MaxFixes != 8 {
		t.Errorf("repair = %+v", cfg.Repair)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "narrative-tts.yaml")
	yaml := `
engine:
  url: http://tts-host:6000
  device: cpu
voice:
  base_tone_hz: 200
retry:
  max_attempts: 10
assembly:
  crossfade_seconds: 0.2
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.URL != "http://tts-host:6000" || cfg.Engine.Device != "cpu" {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Voice.BaseToneHz != 200 {
		t.Errorf("base tone = %f", cfg.Voice.BaseToneHz)
	}
	if cfg.Retry.MaxAttempts != 10 {
		t.Errorf("max attempts = %d", cfg.Retry.MaxAttempts)
	}
	// Untouched keys keep their defaults.
	if cfg.Voice.NaturalWPM != 145.0 {
		t.Errorf("natural wpm = %f", cfg.Voice.NaturalWPM)
	}
}

func TestLoadRejectsBadBounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "narrative-tts.yaml")
	if err := os.WriteFile(path, []byte("retry:\n  max_attempts: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("zero max_attempts accepted")
	}
}

func TestResolveEnvRef(t *testing.T) {
	t.Setenv("TTS_ENGINE_URL", "http://gpu-box:5050")
	if got := resolveEnvRef("${TTS_ENGINE_URL}"); got != "http://gpu-box:5050" {
		t.Errorf("got %q", got)
	}
	if got := resolveEnvRef("http://plain:5050"); got != "http://plain:5050" {
		t.Errorf("plain value changed: %q", got)
	}
	if got := resolveEnvRef("${UNSET_VAR_FOR_TEST}"); got != "${UNSET_VAR_FOR_TEST}" {
		t.Errorf("unset ref changed: %q", got)
	}
}

func TestDerivedConfigs(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if p := cfg.ProsodyConfig(); p.BaseToneHz != cfg.Voice.BaseToneHz {
		t.Errorf("prosody base tone = %f", p.BaseToneHz)
	}
	if r := cfg.RetryEngineConfig(); r.MaxAttempts != cfg.Retry.MaxAttempts {
		t.Errorf("retry attempts = %d", r.MaxAttempts)
	}
	if g := cfg.RegenConfig(); g.MaxFixes != cfg.Repair.MaxFixes {
		t.Errorf("regen fixes = %d", g.MaxFixes)
	}
	if a := cfg.AssembleConfig(); a.CrossfadeSeconds != cfg.Assembly.CrossfadeSeconds {
		t.Errorf("crossfade = %f", a.CrossfadeSeconds)
	}
}
