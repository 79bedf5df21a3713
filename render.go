package canopy

import (
	"math"
	"slices"
	"time"

	"github.com/charmbracelet/log"
)

// Canvas is the drawing surface the Renderer targets. Coordinates are
// screen pixels with the origin at the top-left.
type Canvas interface {
	Size() (w, h float64)
	Clear(c Color)
	Line(x1, y1, x2, y2, width float64, c Color)
	FillCircle(x, y, r float64, c Color)
	StrokeCircle(x, y, r, width float64, c Color)
	DashedCircle(x, y, r, width, dash float64, c Color)
	// MeasureText returns the advance width and line height of s at size px.
	MeasureText(s string, size float64) (w, h float64)
	// Text draws s centered on (x, y) with an outline stroked beneath the fill.
	Text(s string, x, y, size float64, fill, outline Color, outlineWidth float64)
}

// Scene is everything one frame depends on.
type Scene struct {
	Layout    *Layout
	Camera    *Camera
	Settings  Settings
	Highlight *Node
}

// Stats summarizes one Draw call.
type Stats struct {
	Considered    int
	Drawn         int
	LabelsOffered int
	LabelsPlaced  int
	Highlighted   bool
	Elapsed       time.Duration
}

const (
	gridStep     = 40.0
	gridAlpha    = 0.05
	fillAlpha    = 0.17
	strokeAlpha  = 0.9
	labelPad     = 2.0
	highlightGap = 4.0
)

var (
	gridColor         = MustHex("#8aa1ff")
	branchStrokeColor = MustHex("#3a478e")
	leafStrokeColor   = MustHex("#2b356f")
	labelFillColor    = MustHex("#e9eeff").WithAlpha(0.95)
	labelOutlineColor = Color{0, 0, 0, 0.9}
	highlightColor    = Color{1, 1, 1, 0.35}
)

type labelCandidate struct {
	text   string
	sx, sy float64
	size   float64
	rect   Rect
}

// Renderer draws a Scene onto a Canvas. It keeps scratch buffers and the
// level color assignments between frames; it holds no other state, so
// drawing the same Scene twice produces the same output.
type Renderer struct {
	palette    *levelPalette
	logger     *log.Logger
	candidates []labelCandidate
	placed     []Rect
}

// NewRenderer creates a Renderer using the palette from s. A nil logger
// disables debug statistics.
func NewRenderer(s Settings, logger *log.Logger) *Renderer {
	return &Renderer{palette: newLevelPalette(s.Palette), logger: logger}
}

// Draw renders sc onto cv: background, grid, circles in ascending radius
// order, non-overlapping labels largest first, then the highlight ring.
func (r *Renderer) Draw(cv Canvas, sc Scene) Stats {
	start := time.Now()
	var st Stats
	s := sc.Settings
	cam := sc.Camera
	w, h := cv.Size()

	cv.Clear(s.Background)
	drawGrid(cv, cam, w, h)

	if sc.Layout == nil {
		st.Elapsed = time.Since(start)
		return st
	}

	r.candidates = r.candidates[:0]
	for _, i := range sc.Layout.drawOrder {
		lc := &sc.Layout.Circles[i]
		st.Considered++

		sx, sy := cam.WorldToScreen(lc.X, lc.Y)
		sr := cam.ScreenRadius(lc.R)
		if !InVerticalBand(cam, s, sy, sr) || !InRadialView(cam, s, lc.Circle) || sr < s.MinPxRadius {
			continue
		}
		st.Drawn++

		level := lc.Node.Level
		if level == "" {
			level = "Life"
		}
		cv.FillCircle(sx, sy, sr, r.palette.color(level).WithAlpha(fillAlpha))
		stroke := leafStrokeColor
		if !lc.Node.IsLeaf() {
			stroke = branchStrokeColor
		}
		cv.StrokeCircle(sx, sy, sr, strokeWidth(sr), stroke.WithAlpha(strokeAlpha))

		if sr > s.LabelMinPxRadius {
			size := labelFontSize(sr)
			if size >= s.LabelMinFontPx {
				tw, _ := cv.MeasureText(lc.Node.Name, size)
				r.candidates = append(r.candidates, labelCandidate{
					text: lc.Node.Name,
					sx:   sx,
					sy:   sy,
					size: size,
					rect: Rect{
						X:      sx - tw/2 - labelPad,
						Y:      sy - size/2 - labelPad,
						Width:  tw + 2*labelPad,
						Height: size + 2*labelPad,
					},
				})
			}
		}
	}

	st.LabelsOffered = len(r.candidates)
	st.LabelsPlaced = r.placeLabels(cv)

	if hl := sc.Highlight; hl != nil {
		if c, ok := sc.Layout.Circle(hl); ok {
			sx, sy := cam.WorldToScreen(c.X, c.Y)
			sr := cam.ScreenRadius(c.R)
			if InVerticalBand(cam, s, sy, sr) && InRadialView(cam, s, c) && sr > highlightGap {
				cv.DashedCircle(sx, sy, sr+highlightGap, 2, 6, highlightColor)
				st.Highlighted = true
			}
		}
	}

	st.Elapsed = time.Since(start)
	if s.Debug {
		r.debugLog(st)
	}
	return st
}

// placeLabels accepts candidates greedily by descending font size, skipping
// any whose padded box touches an accepted one.
func (r *Renderer) placeLabels(cv Canvas) int {
	slices.SortStableFunc(r.candidates, func(a, b labelCandidate) int {
		return cmpFloat(b.size, a.size)
	})
	r.placed = r.placed[:0]
	for _, cand := range r.candidates {
		hit := false
		for _, p := range r.placed {
			if cand.rect.Intersects(p) {
				hit = true
				break
			}
		}
		if hit {
			continue
		}
		cv.Text(cand.text, cand.sx, cand.sy, cand.size, labelFillColor, labelOutlineColor, labelOutlineWidth(cand.size))
		r.placed = append(r.placed, cand.rect)
	}
	return len(r.placed)
}

// drawGrid draws the background grid, scrolled with the camera.
func drawGrid(cv Canvas, cam *Camera, w, h float64) {
	ox := math.Floor(math.Mod(w/2-cam.x*cam.zoom, gridStep))
	oy := math.Floor(math.Mod(h/2-cam.y*cam.zoom, gridStep))
	c := gridColor.WithAlpha(gridAlpha)
	for x := -gridStep; x <= w+gridStep; x += gridStep {
		cv.Line(x+ox, -gridStep+oy, x+ox, h+gridStep+oy, 1, c)
	}
	for y := -gridStep; y <= h+gridStep; y += gridStep {
		cv.Line(-gridStep+ox, y+oy, w+gridStep+ox, y+oy, 1, c)
	}
}

func strokeWidth(sr float64) float64 {
	return clamp(1.5*math.Sqrt(math.Max(sr/40, 0.25)), 1, 3)
}

func labelFontSize(sr float64) float64 {
	return clamp(sr/3, 10, 18)
}

func labelOutlineWidth(size float64) float64 {
	return clamp(size/3, 2, 6)
}
