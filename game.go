package main

import (
	"fmt"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/milk9111/rulesplayer/config"
	"github.com/milk9111/rulesplayer/logger"
	"github.com/milk9111/rulesplayer/prefabs"
	"github.com/milk9111/rulesplayer/render"
	"github.com/milk9111/rulesplayer/scene"
	"github.com/milk9111/rulesplayer/sound"
)

// Game hosts one card at a time.
type Game struct {
	cfg     config.Config
	library *prefabs.Library
	watcher *prefabs.Watcher
	sound   *sound.Sound
	canvas  *render.Canvas

	card  *prefabs.Card
	scene *scene.Scene

	paused   bool
	touchIDs []ebiten.TouchID
	pauseUI  *ebitenui.UI
}

func NewGame(cfg config.Config, snd *sound.Sound) (*Game, error) {
	g := &Game{
		cfg:     cfg,
		library: prefabs.NewLibrary(cfg.Library.Dir),
		sound:   snd,
		canvas:  render.NewCanvas(),
	}
	g.pauseUI = NewPauseUI(g)

	card, err := g.library.Load(cfg.Card)
	if err != nil {
		return nil, err
	}
	if err := g.open(card); err != nil {
		return nil, err
	}

	if cfg.Library.Watch {
		w, err := prefabs.NewWatcher(g.library.CardsDir())
		if err != nil {
			logger.Log.WithError(err).Warn("card hot reload disabled")
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

// open replaces the running scene with a fresh one built from card.
func (g *Game) open(card *prefabs.Card) error {
	s := scene.New(scene.Options{
		Physics: g.cfg.Physics,
		Clock:   g.cfg.Clock,
		Tones:   g.sound,
	})
	if err := s.Load(card.Data); err != nil {
		return fmt.Errorf("open card %s: %w", card.ID, err)
	}

	g.sound.RemoveAllClocks()
	if g.cfg.Clock.AudioDriven {
		g.sound.AddClock(s.Clock())
	}
	g.card = card
	g.scene = s
	logger.Log.WithField("card", card.ID).WithField("title", card.Title).Info("card opened")
	return nil
}

func (g *Game) restart() {
	if err := g.open(g.card); err != nil {
		logger.Log.WithError(err).Error("restart card")
	}
	g.paused = false
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	g.sound.RemoveAllClocks()
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}
	if g.paused {
		g.pauseUI.Update()
		return nil
	}

	g.reloadChangedCards()
	g.collectPointers()
	g.scene.Update(1 / float64(ebiten.TPS()))
	g.handleTransition()
	return nil
}

func (g *Game) reloadChangedCards() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case name, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			if prefabs.CardID(name) != g.card.ID {
				continue
			}
			card, err := g.library.Load(g.card.ID)
			if err == nil {
				err = g.open(card)
			}
			if err != nil {
				logger.Log.WithError(err).WithField("card", g.card.ID).Warn("hot reload")
			}
		case err := <-g.watcher.Errors:
			if err != nil {
				logger.Log.WithError(err).Warn("card watcher")
			}
		default:
			return
		}
	}
}

// mouseTouch is the touch id the left mouse button reports as.
const mouseTouch scene.TouchID = -1

// collectPointers feeds taps and held pointers to the scene's gesture.
func (g *Game) collectPointers() {
	cam := g.scene.Camera()
	gesture := g.scene.Gesture()
	world := func(x, y int) (float64, float64) {
		return cam.ScreenToWorld(float64(x), float64(y), g.cfg.Window.Width, g.cfg.Window.Height)
	}
	tap := func(x, y int) {
		wx, wy := world(x, y)
		gesture.Tap(scene.Touch{X: wx, Y: wy, ScreenX: float64(x), ScreenY: float64(y)})
	}

	mx, my := ebiten.CursorPosition()
	wx, wy := world(mx, my)
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		tap(mx, my)
		gesture.Press(mouseTouch, wx, wy)
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		gesture.Release(mouseTouch, wx, wy)
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		gesture.Move(mouseTouch, wx, wy)
	}

	g.touchIDs = inpututil.AppendJustPressedTouchIDs(g.touchIDs[:0])
	for _, id := range g.touchIDs {
		x, y := ebiten.TouchPosition(id)
		tap(x, y)
		wx, wy := world(x, y)
		gesture.Press(scene.TouchID(id), wx, wy)
	}
	g.touchIDs = ebiten.AppendTouchIDs(g.touchIDs[:0])
	for _, id := range g.touchIDs {
		if inpututil.IsTouchJustPressed(id) {
			continue
		}
		wx, wy := world(ebiten.TouchPosition(id))
		gesture.Move(scene.TouchID(id), wx, wy)
	}
	g.touchIDs = inpututil.AppendJustReleasedTouchIDs(g.touchIDs[:0])
	for _, id := range g.touchIDs {
		wx, wy := world(inpututil.TouchPositionInPreviousTick(id))
		gesture.Release(scene.TouchID(id), wx, wy)
	}
}

func (g *Game) handleTransition() {
	t, ok := g.scene.TakeTransition()
	if !ok {
		return
	}
	if t.Restart {
		g.restart()
		return
	}
	card, err := g.library.Find(t.CardID, t.Title)
	if err != nil {
		logger.Log.WithError(err).Warn("send player to card")
		return
	}
	if err := g.open(card); err != nil {
		logger.Log.WithError(err).Error("send player to card")
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.canvas.Begin(screen)
	g.scene.Draw(g.canvas)

	if g.cfg.Debug {
		g.canvas.DebugDraw(g.scene.Physics().Space())
		ebitenutil.DebugPrint(screen, fmt.Sprintf("%s  FPS: %.2f  actors: %d", g.card.ID, ebiten.ActualFPS(), g.scene.NumActors()))
	}
	if g.paused {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.Window.Width, g.cfg.Window.Height
}
