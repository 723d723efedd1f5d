package prosody

import (
	"strings"

	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/engine"
)

// #region short-text

const (
	shortTextWords = 7
	shortTextChars = 35
)

// IsShortText reports whether a sentence is short enough to need the
// conservative engine bundle instead of a plan-derived one.
func IsShortText(text string) bool {
	return len(strings.Fields(text)) < shortTextWords || len(text) < shortTextChars
}

// #endregion short-text

// #region mapping

// EngineParams maps a planned sentence to a synthesis parameter bundle.
// Short sentences always get the conservative bundle; everything else
// derives NFE from emphasis load, sway and NFE bias from the curve, and
// guidance strength from intensity.
func (c Config) EngineParams(s Sentence) engine.Params {
	if IsShortText(s.Text) {
		return engine.ConservativeParams()
	}

	nfe := 32 + 2*len(s.Emphasis)
	if s.Curve == CurveCadence {
		nfe += 8
	}
	if nfe > 64 {
		nfe = 64
	}

	sway := -0.5
	switch s.Curve {
	case CurveAttack:
		sway -= 0.1
	case CurveCadence:
		sway += 0.1
	}

	cfg := 2.0
	if s.Intensity > 1.2 {
		cfg += 0.3
	} else if s.Intensity < 0.9 {
		cfg -= 0.2
	}

	speed := 0.95
	if c.NaturalWPM > 0 {
		speed = clamp(0.95*s.SpeedWPM/c.NaturalWPM, 0.75, 1.25)
	}

	return engine.Params{NFEStep: nfe, Sway: sway, CFG: cfg, Speed: speed, Seed: -1}
}

// #endregion mapping
