package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/astrodebt/astrodebt/internal/config"
	"github.com/astrodebt/astrodebt/internal/events"
	"github.com/astrodebt/astrodebt/internal/game"
	"github.com/astrodebt/astrodebt/internal/hud"
	"github.com/astrodebt/astrodebt/internal/logger"
	"github.com/astrodebt/astrodebt/internal/minigame"
	"github.com/astrodebt/astrodebt/internal/render"
	"github.com/astrodebt/astrodebt/internal/render/draw"
	"github.com/astrodebt/astrodebt/internal/telemetry"
)

const (
	cellWidth  = 16
	cellHeight = 16
)

// keymap lists keys in the order they are checked; the first one pressed
// this frame wins.
var keymap = []struct {
	key ebiten.Key
	in  game.Input
}{
	{ebiten.KeySpace, game.InputConfirm},
	{ebiten.KeyEnter, game.InputConfirm},
	{ebiten.KeyM, game.InputMine},
	{ebiten.KeyR, game.InputRepair},
	{ebiten.KeyL, game.InputBorrow},
	{ebiten.KeyP, game.InputPay},
	{ebiten.KeyY, game.InputAccept},
	{ebiten.KeyN, game.InputReject},
	{ebiten.KeyUp, game.InputUp},
	{ebiten.KeyDown, game.InputDown},
	{ebiten.KeyLeft, game.InputLeft},
	{ebiten.KeyRight, game.InputRight},
	{ebiten.KeyW, game.InputUp},
	{ebiten.KeyS, game.InputDown},
	{ebiten.KeyA, game.InputLeft},
	{ebiten.KeyD, game.InputRight},
}

// Game is the Ebitengine game. It owns input and drawing; all session
// state lives in the loop.
type Game struct {
	loop    *game.Loop
	metrics *telemetry.Recorder
	grid    *draw.Grid
	buffer  *render.CellBuffer
	dt      float64
	w, h    int
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if g.loop.Phase() != game.PhaseMinigame {
			return ebiten.Termination
		}
		g.loop.HandleInput(game.InputEscape)
	}
	for _, k := range keymap {
		if inpututil.IsKeyJustPressed(k.key) {
			g.loop.HandleInput(k.in)
			break
		}
	}

	g.loop.Update(g.dt)
	g.metrics.Observe(g.loop.State.Snapshot())
	hud.Compose(g.buffer, g.loop)
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.grid.Draw(screen, g.buffer)
}

func (g *Game) Layout(int, int) (int, int) {
	return g.w, g.h
}

func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "path to the YAML config file")
		metricsAddr = flag.String("metrics-addr", "", "serve prometheus metrics on this address (overrides config)")
		seed        = flag.Uint64("seed", 0, "random seed; 0 picks one from the clock")
	)
	flag.Parse()

	if err := run(*configPath, *metricsAddr, *seed); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, metricsAddr string, seed uint64) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}
	if seed != 0 {
		cfg.Game.Seed = seed
	}
	if cfg.Game.Seed == 0 {
		cfg.Game.Seed = uint64(time.Now().UnixNano())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bus := events.NewManager(log.Named("events"))
	metrics := telemetry.New(bus, log.Named("metrics"))
	defer metrics.Close()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	rng := rand.New(rand.NewPCG(cfg.Game.Seed, cfg.Game.Seed>>8|3))
	loop := game.NewLoop(cfg, bus, rng, minigame.New, log.Named("game"))

	cols, rows := hud.Cols, hud.Rows
	g := &Game{
		loop:    loop,
		metrics: metrics,
		grid:    draw.NewGrid(draw.NewAtlas(), cellWidth, cellHeight),
		buffer:  render.NewCellBuffer(cols, rows),
		dt:      1 / float64(cfg.Game.FPS),
		w:       cols * cellWidth,
		h:       rows * cellHeight,
	}
	hud.Compose(g.buffer, loop)

	ebiten.SetWindowSize(cfg.Game.ScreenWidth, cfg.Game.ScreenHeight)
	ebiten.SetWindowTitle(cfg.Game.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.Game.FPS)

	log.Info("starting session", zap.Uint64("seed", cfg.Game.Seed), zap.String("metrics", cfg.Metrics.Addr))
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("run game: %w", err)
	}
	return nil
}
