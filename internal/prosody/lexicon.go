package prosody

// The keyword tables are declarative configuration, not logic: swapping a
// locale means swapping these lists, never the planner's algorithms.

// #region connectives

// ContrastConnectives signal a narrative turn (dramatic-center weight x3;
// pre-contrast pauses stretch x1.3).
var ContrastConnectives = []string{
	"sin embargo", "pero", "no obstante", "aunque", "mientras que",
}

// ImportanceMarkers flag semantically loaded paragraphs (weight x2).
var ImportanceMarkers = []string{
	"fundamental", "crucial", "esencial", "importante", "clave",
}

// ConclusionMarkers close an argument (weight x2).
var ConclusionMarkers = []string{
	"finalmente", "por lo tanto", "en conclusión", "así pues",
}

// ContrastAdjectives (weight x2).
var ContrastAdjectives = []string{
	"diferente", "opuesto", "contrario", "distinto",
}

// CausalConnectives (weight x1).
var CausalConnectives = []string{
	"porque", "debido a", "por esta razón", "consecuentemente",
}

// ContinuityConnectives shorten the pause before the next sentence (x0.8).
var ContinuityConnectives = []string{
	"además", "también", "asimismo", "igualmente",
}

// InSentenceConclusions stretch the pause after the current sentence (x1.1).
var InSentenceConclusions = []string{
	"por tanto", "así pues", "en resumen",
}

// #endregion connectives

// #region emphasis

// EmphasisCategory groups keywords by the prosodic treatment they demand.
type EmphasisCategory string

const (
	CategoryHighEmphasis  EmphasisCategory = "high_emphasis"
	CategoryMicroRise     EmphasisCategory = "micro_rise"
	CategoryKeepLow       EmphasisCategory = "keep_low"
	CategoryDefinitiveEnd EmphasisCategory = "definitive_end"
)

// emphasisCategoryOrder fixes scan precedence for words listed in more than
// one category.
var emphasisCategoryOrder = []EmphasisCategory{
	CategoryHighEmphasis,
	CategoryMicroRise,
	CategoryKeepLow,
	CategoryDefinitiveEnd,
}

// EmphasisLexicon maps each category to its trigger words or phrases.
var EmphasisLexicon = map[EmphasisCategory][]string{
	CategoryHighEmphasis: {
		"diferente", "increíble", "importante", "fundamental", "crucial",
	},
	CategoryMicroRise: {
		"jazmín", "sal marina", "marina", "olvidadas", "amanecer",
		"esperanza", "doraron",
	},
	CategoryKeepLow: {
		"oscuridad", "sombras", "silencio", "profundidad", "niebla",
	},
	CategoryDefinitiveEnd: {
		"definitivo", "final", "siempre", "nunca", "eternidad",
		"silencio", "vigilia", "para siempre",
	},
}

// #endregion emphasis
