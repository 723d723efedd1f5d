package prosody

import "github.com/danielpatrickdp/narrative-tts/go-controller/internal/segment"

// #region enums

// NarrativeFunction is a paragraph's role in the document arc.
type NarrativeFunction string

const (
	FunctionOpening    NarrativeFunction = "opening"
	FunctionAscending  NarrativeFunction = "ascending"
	FunctionPivot      NarrativeFunction = "pivot"
	FunctionDescending NarrativeFunction = "descending"
	FunctionClosing    NarrativeFunction = "closing"
)

// Curve governs a sentence's intra-sentence pitch trajectory.
type Curve string

const (
	CurveAttack  Curve = "attack"
	CurvePlateau Curve = "plateau"
	CurveCadence Curve = "cadence"
)

// SentenceType is the syntactic classification driving type modifiers.
type SentenceType string

const (
	TypeDeclarative     SentenceType = "declarative"
	TypeQuestion        SentenceType = "question"
	TypeExclamation     SentenceType = "exclamation"
	TypeLongSubordinate SentenceType = "long_subordinate"
	TypeEnumeration     SentenceType = "enumeration"
	TypeQuotation       SentenceType = "quotation"
)

// #endregion enums

// #region sentence

// Emphasis is the per-word boost attached to a planned sentence.
type Emphasis struct {
	ToneBoost     float64
	DurationBoost float64
	PauseBefore   float64
	Category      EmphasisCategory
}

// Sentence is one row of the prosodic parameter table. Downstream stages
// read it; only the smoothing pass inside the planner adjusts ToneHz and
// SpeedWPM, within the documented clamps.
type Sentence struct {
	ParagraphIndex int
	SentenceIndex  int
	GlobalIndex    int
	Text           string
	EngineText     string

	Function NarrativeFunction
	Curve    Curve
	Type     SentenceType

	ToneHz           float64
	SpeedWPM         float64
	ToneInitialBoost float64
	ToneFinalBoost   float64
	Intensity        float64
	PauseAfter       float64

	ParagraphFinal bool
	DocumentFinal  bool

	Emphasis map[string]Emphasis
}

// Plan is the full prosodic architecture for one document.
type Plan struct {
	Document  segment.Document
	Center    int
	Sentences []Sentence
}

// #endregion sentence
