package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to narration.db")
	last := flag.Int("last", 20, "show N most recent sessions")
	sessionID := flag.String("session", "", "show single session detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/narration.db [--last N] [--session id] [--json]")
		os.Exit(2)
	}

	store, err := state.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *sessionID != "" {
		err = runDetailMode(store, *sessionID, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

func runListMode(store *state.Store, last int, jsonOut bool) error {
	sessions, err := store.ListSessions(last)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sessions)
	}

	fmt.Printf("%-36s  %-12s  %5s  %5s  %-20s  %s\n",
		"session", "status", "paras", "sents", "created", "output")
	for _, s := range sessions {
		fmt.Printf("%-36s  %-12s  %5d  %5d  %-20s  %s\n",
			s.ID, s.Status, s.Paragraphs, s.Sentences,
			s.CreatedAt.Format("2006-01-02 15:04:05"), s.OutputDir)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type sessionDetail struct {
	Session    state.Session      `json:"session"`
	Attempts   []state.AttemptRow `json:"attempts"`
	Fixes      []state.FixRow     `json:"fixes"`
	Checkpoint *state.Checkpoint  `json:"checkpoint,omitempty"`
}

func runDetailMode(store *state.Store, sessionID string, jsonOut bool) error {
	sess, err := store.GetSession(sessionID)
	if err != nil {
		return err
	}
	attempts, err := store.ListAttempts(sessionID)
	if err != nil {
		return err
	}
	fixes, err := store.ListFixes(sessionID)
	if err != nil {
		return err
	}

	detail := sessionDetail{Session: sess, Attempts: attempts, Fixes: fixes}
	cp, err := store.LatestCheckpoint(sessionID)
	if err == nil {
		detail.Checkpoint = &cp
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(detail)
	}

	fmt.Printf("session %s\n", sess.ID)
	fmt.Printf("  status:    %s\n", sess.Status)
	fmt.Printf("  reference: %s\n", sess.ReferenceAudio)
	fmt.Printf("  output:    %s\n", sess.OutputDir)
	fmt.Printf("  scope:     %d paragraphs, %d sentences\n", sess.Paragraphs, sess.Sentences)
	fmt.Printf("  created:   %s\n", sess.CreatedAt.Format("2006-01-02 15:04:05"))
	if !sess.CompletedAt.IsZero() {
		fmt.Printf("  completed: %s\n", sess.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	if detail.Checkpoint != nil {
		fmt.Printf("  checkpoint: sentence %d (%s)\n",
			detail.Checkpoint.SentenceIndex, detail.Checkpoint.Reason)
	}

	if len(attempts) > 0 {
		fmt.Printf("\nattempts (%d):\n", len(attempts))
		fmt.Printf("  %4s  %4s  %-12s  %-24s  %7s  %5s\n",
			"sent", "try", "outcome", "reason", "score", "nfe")
		for _, a := range attempts {
			fmt.Printf("  %4d  %4d  %-12s  %-24s  %7.3f  %5d\n",
				a.SentenceIndex, a.Attempt, a.Outcome, a.Reason, a.Score, a.NFEStep)
		}
	}

	if len(fixes) > 0 {
		fmt.Printf("\nfixes (%d):\n", len(fixes))
		fmt.Printf("  %4s  %-28s  %8s  %-7s  %6s\n",
			"seg", "problem", "severity", "applied", "score")
		for _, f := range fixes {
			fmt.Printf("  %4d  %-28s  %8.2f  %-7v  %6.2f\n",
				f.SegmentIndex, f.ProblemType, f.Severity, f.Applied, f.Score)
		}
	}
	return nil
}

// #endregion detail-mode
