package canopy

import (
	"errors"
	"fmt"
	"image/color"
	"testing"

	"github.com/tanema/gween/ease"
)

func TestColorFromHex(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#0b0e1a", "#0b0e1a"},
		{"#fff", "#ffffff"},
		{"#A1B2C3", "#a1b2c3"},
	}
	for _, tt := range tests {
		c, err := ColorFromHex(tt.in)
		if err != nil {
			t.Errorf("ColorFromHex(%q): %v", tt.in, err)
			continue
		}
		if c.Hex() != tt.want || c.A != 1 {
			t.Errorf("ColorFromHex(%q) = %s/%f, want %s", tt.in, c.Hex(), c.A, tt.want)
		}
	}
	for _, bad := range []string{"", "red", "#12", "#gggggg"} {
		if _, err := ColorFromHex(bad); !IsCode(err, ErrCodeInvalidInput) {
			t.Errorf("ColorFromHex(%q) error = %v", bad, err)
		}
	}
}

func TestColorNRGBA(t *testing.T) {
	got := Color{1, 0.5, -1, 2}.NRGBA()
	want := color.NRGBA{255, 128, 0, 255}
	if got != want {
		t.Errorf("NRGBA = %v, want %v", got, want)
	}
	if c := ColorWhite.WithAlpha(0.25); c.A != 0.25 || c.R != 1 {
		t.Errorf("WithAlpha = %+v", c)
	}
}

func TestRectContainsIntersects(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 20, Height: 10}
	if !r.Contains(10, 20) || r.Contains(31, 15) {
		t.Error("Contains edge handling")
	}
	tests := []struct {
		other Rect
		want  bool
	}{
		{Rect{X: 30, Y: 10, Width: 5, Height: 5}, true},
		{Rect{X: 31, Y: 10, Width: 5, Height: 5}, false},
		{Rect{X: 0, Y: 0, Width: 100, Height: 100}, true},
		{Rect{X: 15, Y: 25, Width: 5, Height: 5}, false},
	}
	for _, tt := range tests {
		if got := r.Intersects(tt.other); got != tt.want {
			t.Errorf("Intersects(%+v) = %v, want %v", tt.other, got, tt.want)
		}
	}
}

func TestCircleContains(t *testing.T) {
	c := Circle{X: 1, Y: 1, R: 2}
	if !c.Contains(3, 1) || c.Contains(3, 3) {
		t.Error("Circle.Contains")
	}
}

func TestErrors(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("outer: %w", Wrap(ErrCodeNetwork, cause, "fetch %s", "x.json"))
	if !IsCode(err, ErrCodeNetwork) || GetCode(err) != ErrCodeNetwork {
		t.Errorf("code = %q", GetCode(err))
	}
	if !errors.Is(err, cause) {
		t.Error("cause lost")
	}
	if got := UserMessage(err); got != "fetch x.json" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := NewError(ErrCodeNotFound, "no %d", 3).Error(); got != "NOT_FOUND: no 3" {
		t.Errorf("Error() = %q", got)
	}
	if GetCode(cause) != "" || IsCode(cause, ErrCodeNetwork) {
		t.Error("plain error should carry no code")
	}
	if got := UserMessage(cause); got != "connection reset" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestLevelPalette(t *testing.T) {
	colors := []Color{MustHex("#ff0000"), MustHex("#00ff00"), MustHex("#0000ff")}
	p := newLevelPalette(colors)
	if p.color("Life") != colors[0] || p.color("Domain") != colors[1] || p.color("Kingdom") != colors[2] {
		t.Error("canonical levels should take the palette in order")
	}
	if p.color("Phylum") != colors[0] {
		t.Error("palette should wrap")
	}
	first := p.color("Level 12")
	if p.color("Level 12") != first {
		t.Error("assignment should be stable")
	}

	if newLevelPalette(nil).color("Life") != DefaultPalette[0] {
		t.Error("empty palette should fall back to the default")
	}
}

func TestTweenGroup(t *testing.T) {
	a, b := 0.0, 10.0
	g := newTweenGroup(1, ease.Linear, []*float64{&a, &b}, []float64{100, -10})
	g.Update(0.5)
	if !approxEqual(a, 50, 1e-4) || !approxEqual(b, 0, 1e-4) {
		t.Errorf("mid = (%f, %f), want (50, 0)", a, b)
	}
	g.Update(0.6)
	if !g.Done || a != 100 || b != -10 {
		t.Errorf("end = (%f, %f) done=%v", a, b, g.Done)
	}
	g.Update(1)
	if a != 100 {
		t.Error("Update after Done should not move fields")
	}

	c := 1.0
	z := newTweenGroup(0, ease.Linear, []*float64{&c}, []float64{2})
	if !z.Done || c != 2 {
		t.Errorf("zero duration: c = %f, done = %v", c, z.Done)
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	s.Palette[0] = Color{}
	if DefaultPalette[0] == (Color{}) {
		t.Error("DefaultSettings should copy the palette")
	}
	if s.RenderDistance != 1 || s.MinPxRadius != 4 || s.LabelMinPxRadius != 22 {
		t.Errorf("unexpected defaults: %+v", s)
	}
}
