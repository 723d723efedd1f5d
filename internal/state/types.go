package state

import "time"

// #region session
// SessionStatus tracks the lifecycle of one narration run.
type SessionStatus string

const (
	StatusRunning     SessionStatus = "running"
	StatusCompleted   SessionStatus = "completed"
	StatusInterrupted SessionStatus = "interrupted"
	StatusFailed      SessionStatus = "failed"
)

// Session is one narration run over a document.
type Session struct {
	ID             string
	ReferenceAudio string
	OutputDir      string
	Paragraphs     int
	Sentences      int
	Status         SessionStatus
	CreatedAt      time.Time
	CompletedAt    time.Time
}

// #endregion session

// #region attempt
// AttemptRow records one synthesis attempt for one sentence: the parameters
// sent, the validation verdict, and the quality score when the clip was kept
// as a fallback candidate.
type AttemptRow struct {
	ID              int64
	SessionID       string
	SentenceIndex   int
	Attempt         int
	Outcome         string
	Reason          string
	Score           float64
	DurationSeconds float64
	NFEStep         int
	Sway            float64
	CFG             float64
	Speed           float64
	CreatedAt       time.Time
}

// #endregion attempt

// #region fix
// FixRow records one selective-regeneration decision.
type FixRow struct {
	ID           int64
	SessionID    string
	SegmentIndex int
	ProblemType  string
	Severity     float64
	Applied      bool
	Score        float64
	Attempts     int
	Hint         string
	CreatedAt    time.Time
}

// #endregion fix

// #region checkpoint
// Checkpoint captures where a run stopped after an unrecoverable engine
// error, with everything a later run needs to pick up at that sentence.
type Checkpoint struct {
	ID             int64
	SessionID      string
	SentenceIndex  int
	ReferenceAudio string
	OutputDir      string
	Device         string
	Reason         string
	CreatedAt      time.Time
}

// #endregion checkpoint
