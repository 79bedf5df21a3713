package canopy

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// fpsCounter shows the current FPS and TPS in the top-right corner,
// refreshed every ~0.5 seconds.
type fpsCounter struct {
	visible    bool
	lastUpdate float64
	text       string
}

func (f *fpsCounter) update(dt float64) {
	if !f.visible {
		return
	}
	f.lastUpdate += dt
	if f.lastUpdate < 0.5 && f.text != "" {
		return
	}
	f.lastUpdate = 0
	f.text = fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
}

func (f *fpsCounter) draw(screen *ebiten.Image) {
	if !f.visible || f.text == "" {
		return
	}
	// 100x32 is enough for "FPS: 60.0\nTPS: 60.0"
	x := screen.Bounds().Dx() - 100
	fillRect(screen, Rect{X: float64(x), Y: 0, Width: 100, Height: 32}, Color{0, 0, 0, 0.5})
	ebitenutil.DebugPrintAt(screen, f.text, x+4, 0)
}
