package arbor

import (
	"fmt"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"go.uber.org/zap"
)

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title      string
	Width      int
	Height     int
	Background Color
	Resizable  bool
	// ShowStats draws FPS, TPS and batch counters in the top-left corner.
	ShowStats bool
	// Editor enables mouse picking, dragging and the editor shortcuts:
	// ctrl+z / ctrl+y undo and redo, delete, ctrl+d duplicate, ctrl+g group,
	// f5 toggles play mode.
	Editor bool
}

// Game adapts a View to ebiten.Game. Update polls input and advances the
// view; Draw renders it.
type Game struct {
	view   *View
	cfg    RunConfig
	keyBuf []ebiten.Key

	statsTimer float64
	statsText  string

	dragging  bool
	dragStart mgl64.Vec2
	dragFrom  map[uint32]mgl64.Vec2
	wasDown   bool
}

// NewGame wraps v.
func NewGame(v *View, cfg RunConfig) *Game {
	if cfg.Width <= 0 {
		cfg.Width = 1280
	}
	if cfg.Height <= 0 {
		cfg.Height = 720
	}
	return &Game{view: v, cfg: cfg}
}

// Run opens a window and runs v until the window closes. The view is
// started before the first frame.
func Run(v *View, cfg RunConfig) error {
	g := NewGame(v, cfg)
	ebiten.SetWindowSize(g.cfg.Width, g.cfg.Height)
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	v.Start()
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("run %s: %w", v.Name, err)
	}
	return nil
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	in := g.view.Input()
	g.keyBuf = PollInput(in, g.keyBuf)
	if g.cfg.Editor {
		g.editorInput(in)
	}
	dt := 1.0 / float64(ebiten.TPS())
	g.view.Update(dt)
	if g.cfg.ShowStats {
		g.statsTimer += dt
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	bg := g.cfg.Background
	screen.Fill(color.RGBA{R: to8(bg.R), G: to8(bg.G), B: to8(bg.B), A: to8(bg.A)})
	if eg, ok := g.view.renderer.gpu.(*EbitenGPU); ok {
		eg.SetTarget(screen)
	}
	g.view.Render()
	if g.cfg.ShowStats {
		g.drawStats(screen)
	}
}

// Layout implements ebiten.Game.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

// drawStats refreshes the overlay text about twice a second.
func (g *Game) drawStats(screen *ebiten.Image) {
	if g.statsText == "" || g.statsTimer >= 0.5 {
		g.statsTimer = 0
		s := g.view.renderer.Stats()
		mode := "edit"
		if g.view.Playing() {
			mode = "play"
		}
		g.statsText = fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nbatches: %d draws: %d sprites: %d\nmode: %s",
			ebiten.ActualFPS(), ebiten.ActualTPS(), s.Batches, s.DrawCalls, s.Sprites, mode)
	}
	ebitenutil.DebugPrint(screen, g.statsText)
}

func (g *Game) editorInput(in *InputState) {
	v := g.view
	ctrl := in.Modifiers&(ModCtrl|ModMeta) != 0
	switch {
	case in.KeyJustPressed("f5"):
		if v.Playing() {
			v.Stop()
		} else {
			v.Play()
		}
		return
	case ctrl && in.KeyJustPressed("z") && in.Modifiers&ModShift != 0, ctrl && in.KeyJustPressed("y"):
		v.Redo()
	case ctrl && in.KeyJustPressed("z"):
		v.Undo()
	case ctrl && in.KeyJustPressed("d"):
		v.DuplicateSelection()
	case ctrl && in.KeyJustPressed("g"):
		v.GroupSelection(fmt.Sprintf("Group %d", len(v.Root().AllGroups())+1))
	case in.KeyJustPressed("delete"):
		v.DeleteSelection()
	}
	if v.Playing() {
		return
	}
	g.mouse(in)
}

// mouse handles click selection and dragging. The drag moves objects live
// and is recorded as one move when the button is released.
func (g *Game) mouse(in *InputState) {
	v := g.view
	down := in.ButtonDown(MouseButtonLeft)
	pressed := down && !g.wasDown
	released := !down && g.wasDown
	g.wasDown = down

	switch {
	case pressed:
		hit := v.PickAt(in.Mouse)
		switch {
		case hit == nil:
			v.ClearSelection()
			return
		case in.Modifiers&ModShift != 0:
			v.Select(append(append([]*GameObject(nil), v.Selected()...), hit)...)
		case !v.IsSelected(hit):
			v.Select(hit)
		}
		g.dragging = true
		g.dragStart = in.Mouse
		g.dragFrom = make(map[uint32]mgl64.Vec2, len(v.Selected()))
		for _, o := range v.Selected() {
			g.dragFrom[o.ID] = o.Transform.Position
		}
	case down && g.dragging:
		delta := in.Mouse.Sub(g.dragStart)
		for id, from := range g.dragFrom {
			if o := v.ObjectByID(id); o != nil {
				o.Transform.Position = from.Add(delta)
			}
		}
	case released && g.dragging:
		g.dragging = false
		if in.Mouse.ApproxEqual(g.dragStart) {
			return
		}
		to := make(map[uint32]mgl64.Vec2, len(g.dragFrom))
		for id := range g.dragFrom {
			if o := v.ObjectByID(id); o != nil {
				to[id] = o.Transform.Position
			}
		}
		v.History().Record(NewMoveAction(g.dragFrom, to))
		v.Logger().Debug("drag committed", zap.Int("objects", len(to)))
	}
}

func to8(f float64) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}
