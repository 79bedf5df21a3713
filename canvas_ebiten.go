package canopy

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// ebitenCanvas draws onto an offscreen Ebitengine image.
type ebitenCanvas struct {
	dst  *ebiten.Image
	font *TTFFont
}

func newEbitenCanvas(dst *ebiten.Image, font *TTFFont) *ebitenCanvas {
	return &ebitenCanvas{dst: dst, font: font}
}

func (c *ebitenCanvas) Size() (w, h float64) {
	b := c.dst.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

func (c *ebitenCanvas) Clear(col Color) {
	c.dst.Fill(col.NRGBA())
}

func (c *ebitenCanvas) Line(x1, y1, x2, y2, width float64, col Color) {
	vector.StrokeLine(c.dst, float32(x1), float32(y1), float32(x2), float32(y2), float32(width), col.NRGBA(), true)
}

func (c *ebitenCanvas) FillCircle(x, y, r float64, col Color) {
	vector.DrawFilledCircle(c.dst, float32(x), float32(y), float32(r), col.NRGBA(), true)
}

func (c *ebitenCanvas) StrokeCircle(x, y, r, width float64, col Color) {
	vector.StrokeCircle(c.dst, float32(x), float32(y), float32(r), float32(width), col.NRGBA(), true)
}

// DashedCircle approximates each dash with short chords.
func (c *ebitenCanvas) DashedCircle(x, y, r, width, dash float64, col Color) {
	if r <= 0 || dash <= 0 {
		return
	}
	circ := 2 * math.Pi * r
	n := int(circ / (2 * dash))
	if n < 1 {
		n = 1
	}
	step := 2 * math.Pi / float64(n)
	sweep := step / 2
	segs := max(2, int(math.Ceil(dash/3)))
	clr := col.NRGBA()
	for i := 0; i < n; i++ {
		a0 := float64(i) * step
		px, py := x+r*math.Cos(a0), y+r*math.Sin(a0)
		for j := 1; j <= segs; j++ {
			a := a0 + sweep*float64(j)/float64(segs)
			qx, qy := x+r*math.Cos(a), y+r*math.Sin(a)
			vector.StrokeLine(c.dst, float32(px), float32(py), float32(qx), float32(qy), float32(width), clr, true)
			px, py = qx, qy
		}
	}
}

func (c *ebitenCanvas) MeasureText(s string, size float64) (w, h float64) {
	return c.font.MeasureString(s, size)
}

func (c *ebitenCanvas) Text(s string, x, y, size float64, fill, outline Color, outlineWidth float64) {
	drawCenteredText(c.dst, c.font, s, x, y, size, fill, outline, outlineWidth)
}

// drawCenteredText draws s centered on (x, y). A positive outlineWidth
// stamps the outline color at eight offsets first.
func drawCenteredText(dst *ebiten.Image, font *TTFFont, s string, x, y, size float64, fill, outline Color, outlineWidth float64) {
	face := font.Face(size)
	draw := func(dx, dy float64, col Color) {
		op := &text.DrawOptions{}
		op.PrimaryAlign = text.AlignCenter
		op.SecondaryAlign = text.AlignCenter
		op.GeoM.Translate(x+dx, y+dy)
		op.ColorScale.ScaleWithColor(col.NRGBA())
		text.Draw(dst, s, face, op)
	}
	if outlineWidth > 0 && outline.A > 0 {
		d := outlineWidth / 2
		for _, o := range outlineOffsets {
			draw(o.X*d, o.Y*d, outline)
		}
	}
	draw(0, 0, fill)
}

// drawText draws s with its top-left corner at (x, y).
func drawText(dst *ebiten.Image, font *TTFFont, s string, x, y, size float64, col Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(col.NRGBA())
	text.Draw(dst, s, font.Face(size), op)
}

// fillRect fills an axis-aligned rectangle.
func fillRect(dst *ebiten.Image, r Rect, col Color) {
	vector.DrawFilledRect(dst, float32(r.X), float32(r.Y), float32(r.Width), float32(r.Height), col.NRGBA(), false)
}
