package canopy

import (
	"image/color"
	"math"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is opaque white.
var ColorWhite = Color{1, 1, 1, 1}

// ColorFromHex parses "#rrggbb" or "#rgb" into an opaque Color.
func ColorFromHex(s string) (Color, error) {
	c, err := colorful.Hex(expandShortHex(s))
	if err != nil {
		return Color{}, Wrap(ErrCodeInvalidInput, err, "invalid color %q", s)
	}
	return Color{R: c.R, G: c.G, B: c.B, A: 1}, nil
}

// MustHex is ColorFromHex for compile-time constants. It panics on bad input.
func MustHex(s string) Color {
	c, err := ColorFromHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func expandShortHex(s string) string {
	if len(s) != 4 || s[0] != '#' {
		return s
	}
	return string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
}

// WithAlpha returns c with its alpha replaced.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// NRGBA converts c to a straight-alpha 8-bit color.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: clampByte(c.R),
		G: clampByte(c.G),
		B: clampByte(c.B),
		A: clampByte(c.A),
	}
}

// Hex formats the RGB components as "#rrggbb".
func (c Color) Hex() string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}

func clampByte(v float64) uint8 {
	return uint8(math.Round(clamp(v, 0, 1) * 255))
}

// Vec2 is a 2D vector used for positions and offsets.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Circle is a circle in layout (world) space.
type Circle struct {
	X, Y, R float64
}

// Contains reports whether (x, y) lies inside or on the circle.
func (c Circle) Contains(x, y float64) bool {
	dx := x - c.X
	dy := y - c.Y
	return dx*dx+dy*dy <= c.R*c.R
}

// Settings are the tunables shared by the culler, renderer and navigation
// controller. Zero values are not meaningful; start from DefaultSettings.
type Settings struct {
	// RenderDistance scales the radial culling radius (1 = half the viewport diagonal).
	RenderDistance float64
	// MinPxRadius is the smallest on-screen radius that is drawn.
	MinPxRadius float64
	// LabelMinPxRadius is the on-screen radius a circle needs before it gets a label.
	LabelMinPxRadius float64
	// LabelMinFontPx is the smallest label font size that is drawn.
	LabelMinFontPx float64
	// VerticalPadPx extends the vertical visibility band above and below the viewport.
	VerticalPadPx float64

	// Padding between sibling circles and their parent, in layout units.
	Padding float64
	// Margin is subtracted from the smaller viewport side to get the layout diameter.
	Margin float64

	AnimationDuration time.Duration
	// WheelStep is the zoom exponent per wheel notch.
	WheelStep float64
	// FitFraction is how much of the viewport a fitted node fills (F key).
	FitFraction float64
	// ClickFitFraction is used when clicking the node that is already focused.
	ClickFitFraction float64

	Background Color
	Palette    []Color
	// Provider is the default external search provider.
	Provider string
	// HoverDelay is how long the pointer rests on a node before its preview is requested.
	HoverDelay time.Duration
	// Debug enables per-frame render statistics at debug log level.
	Debug bool
}

// DefaultPalette is the level palette, indexed in Levels order.
var DefaultPalette = []Color{
	MustHex("#7aa2ff"),
	MustHex("#6df0c9"),
	MustHex("#ffc857"),
	MustHex("#b892ff"),
	MustHex("#ff8777"),
	MustHex("#77d1ff"),
	MustHex("#ffd670"),
	MustHex("#84fab0"),
	MustHex("#b8f2e6"),
}

// DefaultSettings returns the stock settings.
func DefaultSettings() Settings {
	return Settings{
		RenderDistance:    1.0,
		MinPxRadius:       4,
		LabelMinPxRadius:  22,
		LabelMinFontPx:    12,
		VerticalPadPx:     100,
		Padding:           2,
		Margin:            40,
		AnimationDuration: 700 * time.Millisecond,
		WheelStep:         0.15,
		FitFraction:       0.4,
		ClickFitFraction:  0.35,
		Background:        MustHex("#0b0e1a"),
		Palette:           append([]Color(nil), DefaultPalette...),
		Provider:          "google",
		HoverDelay:        60 * time.Millisecond,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
