package canopy

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	panelColor       = MustHex("#101530").WithAlpha(0.85)
	panelBorderColor = MustHex("#3a478e")
	textColor        = MustHex("#e9eeff")
	dimTextColor     = MustHex("#8aa1ff")
	warnTextColor    = MustHex("#ffcf5c")
	errorTextColor   = MustHex("#ff6b6b")
	barColor         = MustHex("#5b7cff")
)

const (
	overlayFontSize = 14.0
	overlayLine     = 20.0
	overlayPad      = 8.0
	tooltipOffset   = 16.0
	suggestLimit    = 5
)

// drawOverlays draws the UI above the scene: breadcrumbs, tooltip, preview,
// status line, search box, loading progress, help and FPS.
func (v *Viewer) drawOverlays(screen *ebiten.Image) {
	v.drawCrumbs(screen)
	v.drawTooltip(screen)
	v.drawPreview(screen)
	v.drawStatus(screen)
	v.drawSearchBox(screen)
	v.drawLoading(screen)
	if v.showHelp {
		v.drawHelp(screen)
	}
	v.fps.draw(screen)
}

func drawPanel(screen *ebiten.Image, r Rect) {
	fillRect(screen, r, panelColor)
	vector.StrokeRect(screen, float32(r.X), float32(r.Y), float32(r.Width), float32(r.Height), 1, panelBorderColor.NRGBA(), false)
}

func (v *Viewer) drawCrumbs(screen *ebiten.Image) {
	bounds, ok := v.crumbBounds()
	if !ok {
		return
	}
	drawPanel(screen, bounds)
	last := len(v.crumbs) - 1
	for i, c := range v.crumbs {
		col := dimTextColor
		if i == last {
			col = textColor
		}
		drawText(screen, v.font, c.node.Name, c.rect.X, c.rect.Y+crumbPad, crumbFontSize, col)
		if i < last {
			drawText(screen, v.font, crumbSep, c.rect.X+c.rect.Width, c.rect.Y+crumbPad, crumbFontSize, dimTextColor)
		}
	}
}

func (v *Viewer) drawTooltip(screen *ebiten.Image) {
	title, meta, ok := v.ex.Tooltip()
	if !ok || v.pointer.dragging {
		return
	}
	tw, _ := v.measure(title, overlayFontSize)
	mw, _ := v.measure(meta, overlayFontSize-2)
	w := max(tw, mw) + 2*overlayPad
	h := 2*overlayLine + overlayPad
	x := v.pointer.lastX + tooltipOffset
	y := v.pointer.lastY + tooltipOffset
	if x+w > float64(v.width) {
		x = v.pointer.lastX - tooltipOffset - w
	}
	if y+h > float64(v.height) {
		y = v.pointer.lastY - tooltipOffset - h
	}
	drawPanel(screen, Rect{X: x, Y: y, Width: w, Height: h})
	drawText(screen, v.font, title, x+overlayPad, y+overlayPad/2, overlayFontSize, textColor)
	drawText(screen, v.font, meta, x+overlayPad, y+overlayPad/2+overlayLine, overlayFontSize-2, dimTextColor)
}

func (v *Viewer) drawPreview(screen *ebiten.Image) {
	img, p := v.previewImage()
	if img == nil {
		return
	}
	r := previewBounds(v.width, v.height, img.Bounds())
	drawPanel(screen, Rect{X: r.X - 4, Y: r.Y - 4, Width: r.Width + 8, Height: r.Height + 30})
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(r.X, r.Y)
	screen.DrawImage(img, op)
	caption := p.Name
	if v.ex.PreviewPinned() {
		caption += " (pinned)"
	}
	drawText(screen, v.font, caption, r.X, r.Y+r.Height+4, overlayFontSize-2, textColor)
}

func (v *Viewer) drawStatus(screen *ebiten.Image) {
	st, ok := v.ex.Status()
	if !ok {
		return
	}
	col := textColor
	switch st.Level {
	case StatusWarn:
		col = warnTextColor
	case StatusError:
		col = errorTextColor
	}
	w, _ := v.measure(st.Text, overlayFontSize)
	r := Rect{
		X:      (float64(v.width) - w) / 2,
		Y:      float64(v.height) - overlayLine - 2*overlayPad,
		Width:  w + 2*overlayPad,
		Height: overlayLine + overlayPad,
	}
	r.X -= overlayPad
	drawPanel(screen, r)
	drawText(screen, v.font, st.Text, r.X+overlayPad, r.Y+overlayPad/2, overlayFontSize, col)

	// Provider hint in the bottom-left corner.
	drawText(screen, v.font, "search: "+v.ex.Provider(), overlayPad, float64(v.height)-overlayLine-overlayPad, overlayFontSize-2, dimTextColor)
}

func (v *Viewer) drawSearchBox(screen *ebiten.Image) {
	if !v.search.open {
		return
	}
	const boxW = 360.0
	q := v.search.query()
	var suggestions []string
	if t := v.ex.Tree(); t != nil && q != "" {
		suggestions = t.Suggest(q, suggestLimit)
	}
	x := (float64(v.width) - boxW) / 2
	y := crumbY + crumbFontSize + 2*crumbPad + overlayPad
	h := overlayLine + overlayPad + float64(len(suggestions))*overlayLine
	drawPanel(screen, Rect{X: x, Y: y, Width: boxW, Height: h})
	drawText(screen, v.font, "Find: "+q+"▏", x+overlayPad, y+overlayPad/2, overlayFontSize, textColor)
	for i, name := range suggestions {
		drawText(screen, v.font, name, x+2*overlayPad, y+overlayPad/2+float64(i+1)*overlayLine, overlayFontSize-2, dimTextColor)
	}
}

func (v *Viewer) drawLoading(screen *ebiten.Image) {
	ls := v.ex.Loading()
	if ls == nil {
		return
	}
	const boxW, barH = 420.0, 6.0
	x := (float64(v.width) - boxW) / 2
	y := float64(v.height)/2 - 40
	drawPanel(screen, Rect{X: x, Y: y, Width: boxW, Height: 80})
	drawText(screen, v.font, ls.Title, x+overlayPad*2, y+overlayPad, overlayFontSize, textColor)
	drawText(screen, v.font, ls.Progress.Phase, x+overlayPad*2, y+overlayPad+overlayLine, overlayFontSize-2, dimTextColor)
	barW := boxW - 4*overlayPad
	fillRect(screen, Rect{X: x + 2*overlayPad, Y: y + 80 - 2*overlayPad, Width: barW, Height: barH}, panelBorderColor)
	fillRect(screen, Rect{X: x + 2*overlayPad, Y: y + 80 - 2*overlayPad, Width: barW * clamp(ls.Progress.Fraction, 0, 1), Height: barH}, barColor)
}

// helpLines lists the controls shown in the help overlay.
func helpLines() []string {
	lines := []string{
		"Click         open node (click focus to fit)",
		"Drag          pan",
		"Wheel         zoom",
		"Right click   go to parent",
	}
	for _, b := range keyBindings {
		lines = append(lines, fmt.Sprintf("%-13s %s", b.label, b.help))
	}
	return lines
}

func (v *Viewer) drawHelp(screen *ebiten.Image) {
	lines := helpLines()
	var w float64
	for _, l := range lines {
		lw, _ := v.measure(l, overlayFontSize)
		w = max(w, lw)
	}
	w += 4 * overlayPad
	h := float64(len(lines)+1)*overlayLine + 2*overlayPad
	x := (float64(v.width) - w) / 2
	y := (float64(v.height) - h) / 2
	drawPanel(screen, Rect{X: x, Y: y, Width: w, Height: h})
	drawText(screen, v.font, "CONTROLS", x+2*overlayPad, y+overlayPad, overlayFontSize, dimTextColor)
	for i, l := range lines {
		drawText(screen, v.font, l, x+2*overlayPad, y+overlayPad+float64(i+1)*overlayLine, overlayFontSize, textColor)
	}
}
