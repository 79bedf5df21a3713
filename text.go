package canopy

import (
	"bytes"
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/opentype"
)

// LabelFontTTF is the typeface used for labels and overlays.
var LabelFontTTF = gomedium.TTF

// roundSize buckets font sizes to half pixels so face caches stay small.
func roundSize(size float64) float64 {
	return math.Round(size*2) / 2
}

// --- TTFFont (Ebitengine) ---

// TTFFont wraps Ebitengine's text/v2 for TrueType rendering at any size.
type TTFFont struct {
	source *text.GoTextFaceSource
	faces  map[float64]*text.GoTextFace
}

// LoadTTFFont loads a TrueType font from raw TTF/OTF data.
func LoadTTFFont(ttfData []byte) (*TTFFont, error) {
	source, err := text.NewGoTextFaceSource(bytes.NewReader(ttfData))
	if err != nil {
		return nil, fmt.Errorf("canopy: failed to parse TTF data: %w", err)
	}
	return &TTFFont{source: source, faces: make(map[float64]*text.GoTextFace)}, nil
}

// Face returns the face for size px, creating it on first use.
func (f *TTFFont) Face(size float64) *text.GoTextFace {
	size = roundSize(size)
	if face, ok := f.faces[size]; ok {
		return face
	}
	face := &text.GoTextFace{Source: f.source, Size: size}
	f.faces[size] = face
	return face
}

// MeasureString returns the width and height of s at size px.
func (f *TTFFont) MeasureString(s string, size float64) (width, height float64) {
	face := f.Face(size)
	m := face.Metrics()
	return text.Measure(s, face, m.HAscent+m.HDescent+m.HLineGap)
}

// --- Opentype faces (headless canvases) ---

// fontFaces caches golang.org/x/image faces per size for the export
// canvases.
type fontFaces struct {
	font  *opentype.Font
	faces map[float64]font.Face
}

func newFontFaces(ttfData []byte) (*fontFaces, error) {
	f, err := opentype.Parse(ttfData)
	if err != nil {
		return nil, fmt.Errorf("canopy: failed to parse font: %w", err)
	}
	return &fontFaces{font: f, faces: make(map[float64]font.Face)}, nil
}

func (f *fontFaces) face(size float64) font.Face {
	size = roundSize(size)
	if face, ok := f.faces[size]; ok {
		return face
	}
	face, err := opentype.NewFace(f.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		// Only fails for invalid sizes, which roundSize never produces for
		// positive input.
		panic(fmt.Sprintf("canopy: font face at %.1fpx: %v", size, err))
	}
	f.faces[size] = face
	return face
}

func (f *fontFaces) measure(s string, size float64) (w, h float64) {
	adv := font.MeasureString(f.face(size), s)
	return float64(adv) / 64, size
}
