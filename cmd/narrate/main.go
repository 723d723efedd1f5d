package main

import (
	"context"
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
	textPath := flag.String("text", "", "path to the text file to narrate")
	refAudio := flag.String("ref", "", "path to the reference voice WAV")
	outDir := flag.String("out", "", "output directory (overrides config)")
	flag.Parse()

	if *textPath == "" || *refAudio == "" {
		fmt.Fprintln(os.Stderr, "usage: narrate --text story.txt --ref voice.wav [--config narrative-tts.yaml] [--out dir]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
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

	client := engine.NewClientWithHTTP(cfg.Engine.URL, &http.Client{Timeout: cfg.Engine.Timeout})
	p := pipeline.New(cfg, client, store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := p.Run(ctx, string(text), *refAudio)
	if err != nil {
		if engine.IsFatal(err) {
			log.Fatalf("engine failed fatally; a checkpoint was saved for session %s: %v", res.SessionID, err)
		}
		log.Fatalf("narration failed: %v", err)
	}

	fmt.Printf("narration written to %s\n", res.OutputPath)
	fmt.Printf("  session:   %s\n", res.SessionID)
	fmt.Printf("  duration:  %.2f s (%d sentences, %.2f s of pauses)\n",
		res.Stats.TotalSeconds, res.Stats.Segments, res.Stats.PauseSeconds)
	fmt.Printf("  outcomes:  %d accepted, %d fallback, %d recovered\n",
		res.Accepted, res.Fallbacks, res.Recovered)
	fmt.Printf("  repairs:   %d applied of %d considered\n",
		res.Fixes.Applied, res.Fixes.Considered)
}

// #endregion main
