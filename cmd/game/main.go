package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/opp-block/internal/game"
	"github.com/Garsondee/opp-block/internal/sim"
)

func main() {
	var (
		seed      int64
		config    string
		autopilot string
		verbose   bool
	)
	flag.Int64Var(&seed, "seed", time.Now().UnixNano(), "world seed")
	flag.StringVar(&config, "config", "", "tuning yaml (defaults when empty)")
	flag.StringVar(&autopilot, "autopilot", "", "let the player drive itself: idle, looter, hunter")
	flag.BoolVar(&verbose, "v", false, "log milestones to stderr")
	flag.Parse()

	tuning := sim.DefaultTuning()
	if config != "" {
		t, err := sim.LoadTuning(config)
		if err != nil {
			log.Fatal(err)
		}
		tuning = t
	}
	cfg := game.Config{Tuning: tuning, Seed: seed, Autopilot: autopilot}
	if verbose {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	g := game.New(cfg)
	ebiten.SetWindowTitle("Opp Block")
	ebiten.SetWindowSize(g.WindowSize())
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
