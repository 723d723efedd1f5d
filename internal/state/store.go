// Package state persists narration runs in SQLite: sessions, per-sentence
// synthesis attempts, regeneration fixes, and resume checkpoints.
package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id      TEXT PRIMARY KEY,
	reference_audio TEXT NOT NULL,
	output_dir      TEXT NOT NULL,
	paragraphs      INTEGER NOT NULL,
	sentences       INTEGER NOT NULL,
	status          TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	completed_at    TEXT
);

CREATE TABLE IF NOT EXISTS attempts (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id       TEXT NOT NULL,
	sentence_index   INTEGER NOT NULL,
	attempt          INTEGER NOT NULL,
	outcome          TEXT NOT NULL,
	reason           TEXT,
	score            REAL,
	duration_seconds REAL,
	nfe_step         INTEGER NOT NULL,
	sway             REAL NOT NULL,
	cfg              REAL NOT NULL,
	speed            REAL NOT NULL,
	created_at       TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS fixes (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	segment_index INTEGER NOT NULL,
	problem_type  TEXT NOT NULL,
	severity      REAL NOT NULL,
	applied       INTEGER NOT NULL,
	score         REAL,
	attempts      INTEGER NOT NULL,
	hint          TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS checkpoints (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id      TEXT NOT NULL,
	sentence_index  INTEGER NOT NULL,
	reference_audio TEXT NOT NULL,
	output_dir      TEXT NOT NULL,
	device          TEXT,
	reason          TEXT,
	created_at      TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
`

// #endregion schema

// #region store-struct
// Store manages narration run history in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region sessions
// CreateSession inserts a running session and returns it with a fresh ID.
func (s *Store) CreateSession(referenceAudio, outputDir string, paragraphs, sentences int) (Session, error) {
	sess := Session{
		ID:             uuid.New().String(),
		ReferenceAudio: referenceAudio,
		OutputDir:      outputDir,
		Paragraphs:     paragraphs,
		Sentences:      sentences,
		Status:         StatusRunning,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, reference_audio, output_dir, paragraphs, sentences, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.ReferenceAudio, sess.OutputDir, sess.Paragraphs, sess.Sentences,
		string(sess.Status), sess.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// CompleteSession sets the terminal status and completion time.
func (s *Store) CompleteSession(id string, status SessionStatus) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET status = ?, completed_at = ? WHERE session_id = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

// GetSession retrieves one session by ID.
func (s *Store) GetSession(id string) (Session, error) {
	row := s.db.QueryRow(
		`SELECT session_id, reference_audio, output_dir, paragraphs, sentences, status, created_at, completed_at
		 FROM sessions WHERE session_id = ?`, id,
	)
	sess, err := scanSession(row)
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

// ListSessions returns the most recent sessions.
func (s *Store) ListSessions(limit int) ([]Session, error) {
	rows, err := s.db.Query(
		`SELECT session_id, reference_audio, output_dir, paragraphs, sentences, status, created_at, completed_at
		 FROM sessions ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (Session, error) {
	var sess Session
	var status, createdStr string
	var completedStr sql.NullString
	err := r.Scan(&sess.ID, &sess.ReferenceAudio, &sess.OutputDir, &sess.Paragraphs,
		&sess.Sentences, &status, &createdStr, &completedStr)
	if err != nil {
		return Session{}, err
	}
	sess.Status = SessionStatus(status)
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	if completedStr.Valid {
		sess.CompletedAt, _ = time.Parse(time.RFC3339Nano, completedStr.String)
	}
	return sess, nil
}

// #endregion sessions

// #region attempts
// RecordAttempt appends one synthesis attempt row.
func (s *Store) RecordAttempt(a AttemptRow) error {
	_, err := s.db.Exec(
		`INSERT INTO attempts (session_id, sentence_index, attempt, outcome, reason, score,
		                       duration_seconds, nfe_step, sway, cfg, speed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.SessionID, a.SentenceIndex, a.Attempt, a.Outcome, a.Reason, a.Score,
		a.DurationSeconds, a.NFEStep, a.Sway, a.CFG, a.Speed,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// ListAttempts returns every attempt of a session in insertion order.
func (s *Store) ListAttempts(sessionID string) ([]AttemptRow, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, sentence_index, attempt, outcome, reason, score,
		        duration_seconds, nfe_step, sway, cfg, speed, created_at
		 FROM attempts WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []AttemptRow
	for rows.Next() {
		var a AttemptRow
		var reason, createdStr sql.NullString
		var score, duration sql.NullFloat64
		if err := rows.Scan(&a.ID, &a.SessionID, &a.SentenceIndex, &a.Attempt, &a.Outcome,
			&reason, &score, &duration, &a.NFEStep, &a.Sway, &a.CFG, &a.Speed, &createdStr); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Reason = reason.String
		a.Score = score.Float64
		a.DurationSeconds = duration.Float64
		if createdStr.Valid {
			a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr.String)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// #endregion attempts

// #region fixes
// RecordFix appends one regeneration decision row.
func (s *Store) RecordFix(f FixRow) error {
	applied := 0
	if f.Applied {
		applied = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO fixes (session_id, segment_index, problem_type, severity, applied, score, attempts, hint, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.SessionID, f.SegmentIndex, f.ProblemType, f.Severity, applied, f.Score, f.Attempts, f.Hint,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert fix: %w", err)
	}
	return nil
}

// ListFixes returns every fix of a session in insertion order.
func (s *Store) ListFixes(sessionID string) ([]FixRow, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, segment_index, problem_type, severity, applied, score, attempts, hint, created_at
		 FROM fixes WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list fixes: %w", err)
	}
	defer rows.Close()

	var fixes []FixRow
	for rows.Next() {
		var f FixRow
		var applied int
		var score sql.NullFloat64
		var hint, createdStr sql.NullString
		if err := rows.Scan(&f.ID, &f.SessionID, &f.SegmentIndex, &f.ProblemType,
			&f.Severity, &applied, &score, &f.Attempts, &hint, &createdStr); err != nil {
			return nil, fmt.Errorf("scan fix: %w", err)
		}
		f.Applied = applied != 0
		f.Score = score.Float64
		f.Hint = hint.String
		if createdStr.Valid {
			f.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr.String)
		}
		fixes = append(fixes, f)
	}
	return fixes, rows.Err()
}

// #endregion fixes

// #region checkpoints
// SaveCheckpoint stores a resume point and marks the session interrupted,
// atomically.
func (s *Store) SaveCheckpoint(cp Checkpoint) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO checkpoints (session_id, sentence_index, reference_audio, output_dir, device, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cp.SessionID, cp.SentenceIndex, cp.ReferenceAudio, cp.OutputDir, cp.Device, cp.Reason,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE sessions SET status = ? WHERE session_id = ?`,
		string(StatusInterrupted), cp.SessionID,
	)
	if err != nil {
		return fmt.Errorf("mark interrupted: %w", err)
	}

	return tx.Commit()
}

// LatestCheckpoint returns the newest checkpoint, optionally scoped to one
// session when sessionID is non-empty. sql.ErrNoRows signals none exists.
func (s *Store) LatestCheckpoint(sessionID string) (Checkpoint, error) {
	query := `SELECT id, session_id, sentence_index, reference_audio, output_dir, device, reason, created_at
	          FROM checkpoints`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id DESC LIMIT 1`

	var cp Checkpoint
	var device, reason, createdStr sql.NullString
	err := s.db.QueryRow(query, args...).Scan(&cp.ID, &cp.SessionID, &cp.SentenceIndex,
		&cp.ReferenceAudio, &cp.OutputDir, &device, &reason, &createdStr)
	if err != nil {
		return Checkpoint{}, err
	}
	cp.Device = device.String
	cp.Reason = reason.String
	if createdStr.Valid {
		cp.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr.String)
	}
	return cp, nil
}

// #endregion checkpoints
