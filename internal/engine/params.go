package engine

// #region params

// Params is an immutable synthesis parameter bundle. Every call to the
// engine carries its own bundle; nothing here is shared or restored.
type Params struct {
	NFEStep int
	Sway    float64
	CFG     float64
	Speed   float64
	Seed    int64
}

// DefaultParams is the baseline long-form narration bundle.
func DefaultParams() Params {
	return Params{NFEStep: 64, Sway: -1.0, CFG: 2.0, Speed: 0.95, Seed: -1}
}

// ConservativeParams is the low-risk bundle used for very short sentences
// and for fatal-error recovery attempts.
func ConservativeParams() Params {
	return Params{NFEStep: 28, Sway: -0.3, CFG: 2.0, Speed: 0.95, Seed: -1}
}

// #endregion params
