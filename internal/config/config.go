// Package config handles loading and validating the narration pipeline
// configuration.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/assemble"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/detect"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/prosody"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/regen"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/validate"
)

// #region types

// Config is the root configuration for the narration pipeline.
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Voice    VoiceConfig    `mapstructure:"voice"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Repair   RepairConfig   `mapstructure:"repair"`
	Assembly AssemblyConfig `mapstructure:"assembly"`
	Output   OutputConfig   `mapstructure:"output"`
}

// EngineConfig points at the synthesis sidecar.
type EngineConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Device  string        `mapstructure:"device"`
}

// VoiceConfig holds the narrator's baseline delivery.
type VoiceConfig struct {
	BaseToneHz float64 `mapstructure:"base_tone_hz"`
	NaturalWPM float64 `mapstructure:"natural_wpm"`
	SampleRate int     `mapstructure:"sample_rate"`
}

// RetryConfig bounds the per-sentence validation loop.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay"`
}

// RepairConfig bounds the selective regeneration pass.
type RepairConfig struct {
	SeverityThreshold float64 `mapstructure:"severity_threshold"`
	MaxFixes          int     `mapstructure:"max_fixes"`
	MaxAttempts       int     `mapstructure:"max_attempts"`
}

// AssemblyConfig shapes the final render.
type AssemblyConfig struct {
	CrossfadeSeconds float64 `mapstructure:"crossfade_seconds"`
	BasePauseSeconds float64 `mapstructure:"base_pause_seconds"`
	TargetRMSDBFS    float64 `mapstructure:"target_rms_dbfs"`
	PeakCapDBFS      float64 `mapstructure:"peak_cap_dbfs"`
}

// OutputConfig locates artifacts.
type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	DBPath string `mapstructure:"db_path"`
}

// #endregion types

// #region load

// Load reads the configuration from file, environment variables, and
// defaults. If configFile is non-empty it is used directly; otherwise the
// standard search order applies: ./narrative-tts.yaml,
// ./configs/narrative-tts.yaml, /etc/narrative-tts/narrative-tts.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("engine.url", "http://localhost:5050")
	v.SetDefault("engine.timeout", "5m")
	v.SetDefault("engine.device", "cuda")
	v.SetDefault("voice.base_tone_hz", 185.0)
	v.SetDefault("voice.natural_wpm", 145.0)
	v.SetDefault("voice.sample_rate", 24000)
	v.SetDefault("retry.max_attempts", 50)
	v.SetDefault("retry.delay", "500ms")
	v.SetDefault("repair.severity_threshold", 0.3)
	v.SetDefault("repair.max_fixes", 8)
	v.SetDefault("repair.max_attempts", 5)
	v.SetDefault("assembly.crossfade_seconds", 0.15)
	v.SetDefault("assembly.base_pause_seconds", 0.125)
	v.SetDefault("assembly.target_rms_dbfs", -20.0)
	v.SetDefault("assembly.peak_cap_dbfs", -3.0)
	v.SetDefault("output.dir", "narration_out")
	v.SetDefault("output.db_path", "narration.db")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("narrative-tts")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/narrative-tts")
	}

	// Environment variables: NARRATIVE_TTS_ENGINE_URL, NARRATIVE_TTS_VOICE_BASE_TONE_HZ, etc.
	v.SetEnvPrefix("NARRATIVE_TTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		log.Printf("[CONFIG] no config file found, using defaults and environment variables")
	} else {
		log.Printf("[CONFIG] loaded %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.Engine.URL = resolveEnvRef(cfg.Engine.URL)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Voice.SampleRate <= 0 {
		return fmt.Errorf("voice.sample_rate must be positive, got %d", c.Voice.SampleRate)
	}
	if c.Voice.BaseToneHz <= 0 || c.Voice.NaturalWPM <= 0 {
		return fmt.Errorf("voice baseline must be positive: tone %.1f, wpm %.1f",
			c.Voice.BaseToneHz, c.Voice.NaturalWPM)
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// #endregion load

// #region derive

// ProsodyConfig maps the voice baseline onto the planner.
func (c *Config) ProsodyConfig() prosody.Config {
	p := prosody.DefaultConfig()
	p.BaseToneHz = c.Voice.BaseToneHz
	p.NaturalWPM = c.Voice.NaturalWPM
	return p
}

// RetryEngineConfig maps the retry bounds onto the validation loop.
func (c *Config) RetryEngineConfig() validate.RetryConfig {
	r := validate.DefaultRetryConfig()
	r.MaxAttempts = c.Retry.MaxAttempts
	r.Delay = c.Retry.Delay
	r.CrossfadeSeconds = c.Assembly.CrossfadeSeconds
	return r
}

// RegenConfig maps the repair bounds onto the regenerator.
func (c *Config) RegenConfig() regen.Config {
	r := regen.DefaultConfig()
	r.SeverityThreshold = c.Repair.SeverityThreshold
	r.MaxFixes = c.Repair.MaxFixes
	r.MaxAttemptsPerProblem = c.Repair.MaxAttempts
	return r
}

// DetectConfig returns the expectation table.
func (c *Config) DetectConfig() detect.Config {
	return detect.DefaultConfig()
}

// AssembleConfig maps the render settings onto the assembler.
func (c *Config) AssembleConfig() assemble.Config {
	a := assemble.DefaultConfig()
	a.CrossfadeSeconds = c.Assembly.CrossfadeSeconds
	a.BasePauseSeconds = c.Assembly.BasePauseSeconds
	a.TargetRMSDBFS = c.Assembly.TargetRMSDBFS
	a.PeakCapDBFS = c.Assembly.PeakCapDBFS
	return a
}

// #endregion derive
