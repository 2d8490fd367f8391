package main

import (
	"flag"
	"time"

	"github.com/gopxl/beep/speaker"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/milk9111/rulesplayer/config"
	"github.com/milk9111/rulesplayer/logger"
	"github.com/milk9111/rulesplayer/sound"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	card := flag.String("card", "", "card id to open (overrides config)")
	debug := flag.Bool("debug", false, "enable debug logging and physics outlines")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Log.Fatal(err)
		}
		cfg = loaded
	}
	if *card != "" {
		cfg.Card = *card
	}
	if *debug {
		cfg.Debug = true
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Debug: cfg.Debug})

	snd := sound.New(sound.DefaultSampleRate)
	sr := snd.SampleRate()
	if err := speaker.Init(sr, sr.N(time.Second/20)); err != nil {
		logger.Log.WithError(err).Warn("no audio device, driving the clock from a ticker")
		snd.StartTicker(10 * time.Millisecond)
		defer snd.Stop()
	} else {
		speaker.Play(snd)
		defer speaker.Close()
	}

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cfg.Window.Width/2, cfg.Window.Height/2)
	ebiten.SetWindowTitle(cfg.Window.Title)

	game, err := NewGame(cfg, snd)
	if err != nil {
		logger.Log.Fatal(err)
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		logger.Log.Fatal(err)
	}
}
