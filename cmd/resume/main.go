package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/config"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/engine"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/pipeline"
	"github.com/danielpatrickdp/narrative-tts/go-controller/internal/state"
)

// #region main
func main() {
	configPath := flag.String("config", "", "path to narrative-tts.yaml")
	textPath := flag.String("text", "", "path to the original text file")
	sessionID := flag.String("session", "", "resume a specific session (default: latest checkpoint)")
	flag.Parse()

	if *textPath == "" {
		fmt.Fprintln(os.Stderr, "usage: resume --text story.txt [--config narrative-tts.yaml] [--session id]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	text, err := os.ReadFile(*textPath)
	if err != nil {
		log.Fatalf("read text: %v", err)
	}

	store, err := state.NewStore(cfg.Output.DBPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	cp, err := store.LatestCheckpoint(*sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		log.Fatalf("no checkpoint to resume from")
	}
	if err != nil {
		log.Fatalf("load checkpoint: %v", err)
	}
	log.Printf("resuming session %s at sentence %d (%s)", cp.SessionID, cp.SentenceIndex, cp.Reason)

	client := engine.NewClientWithHTTP(cfg.Engine.URL, &http.Client{Timeout: cfg.Engine.Timeout})
	p := pipeline.New(cfg, client, store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := p.Resume(ctx, string(text), cp)
	if err != nil {
		if engine.IsFatal(err) {
			log.Fatalf("engine failed fatally again; a new checkpoint was saved: %v", err)
		}
		log.Fatalf("resume failed: %v", err)
	}

	fmt.Printf("narration written to %s\n", res.OutputPath)
	fmt.Printf("  session:   %s\n", res.SessionID)
	fmt.Printf("  duration:  %.2f s (%d sentences)\n", res.Stats.TotalSeconds, res.Stats.Segments)
	fmt.Printf("  outcomes:  %d accepted, %d fallback, %d recovered\n",
		res.Accepted, res.Fallbacks, res.Recovered)
}

// #endregion main
