package canopy

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
)

// ExportFormat selects the file type written by Export.
type ExportFormat uint8

const (
	ExportPNG ExportFormat = iota
	ExportSVG
)

// ExportFormatForPath picks the export format from a file extension.
func ExportFormatForPath(path string) (ExportFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return ExportPNG, nil
	case ".svg":
		return ExportSVG, nil
	default:
		return 0, NewError(ErrCodeInvalidInput, "unsupported output format %q (use .png or .svg)", filepath.Ext(path))
	}
}

var (
	exportFacesOnce sync.Once
	exportFaces     *fontFaces
	exportFacesErr  error
)

func labelFaces() (*fontFaces, error) {
	exportFacesOnce.Do(func() {
		exportFaces, exportFacesErr = newFontFaces(LabelFontTTF)
	})
	return exportFaces, exportFacesErr
}

// Export renders the explorer's current view to w in the given format.
func (e *Explorer) Export(w io.Writer, f ExportFormat) (Stats, error) {
	vw, vh := e.camera.Viewport()
	switch f {
	case ExportSVG:
		cv, err := NewSVGCanvas(w, vw, vh)
		if err != nil {
			return Stats{}, err
		}
		st := e.Draw(cv)
		cv.Close()
		return st, nil
	default:
		cv, err := NewImageCanvas(int(math.Round(vw)), int(math.Round(vh)))
		if err != nil {
			return Stats{}, err
		}
		st := e.Draw(cv)
		if err := cv.EncodePNG(w); err != nil {
			return st, Wrap(ErrCodeInternal, err, "encode png")
		}
		return st, nil
	}
}

// ExportFile renders the current view to path, choosing the format from its
// extension.
func (e *Explorer) ExportFile(path string) (Stats, error) {
	f, err := ExportFormatForPath(path)
	if err != nil {
		return Stats{}, err
	}
	out, err := os.Create(path)
	if err != nil {
		return Stats{}, Wrap(ErrCodeInternal, err, "create %s", path)
	}
	st, err := e.Export(out, f)
	if err != nil {
		out.Close()
		return st, err
	}
	if err := out.Close(); err != nil {
		return st, Wrap(ErrCodeInternal, err, "close %s", path)
	}
	e.logger.Info("exported", "path", path, "circles", st.Drawn, "labels", st.LabelsPlaced)
	return st, nil
}

// --- ImageCanvas ---

// ImageCanvas is a raster Canvas backed by gg.
type ImageCanvas struct {
	dc    *gg.Context
	faces *fontFaces
}

// NewImageCanvas creates a w×h raster canvas.
func NewImageCanvas(w, h int) (*ImageCanvas, error) {
	faces, err := labelFaces()
	if err != nil {
		return nil, err
	}
	return &ImageCanvas{dc: gg.NewContext(w, h), faces: faces}, nil
}

// EncodePNG writes the canvas as PNG.
func (c *ImageCanvas) EncodePNG(w io.Writer) error {
	return c.dc.EncodePNG(w)
}

func (c *ImageCanvas) setColor(col Color) {
	c.dc.SetRGBA(col.R, col.G, col.B, col.A)
}

func (c *ImageCanvas) Size() (w, h float64) {
	return float64(c.dc.Width()), float64(c.dc.Height())
}

func (c *ImageCanvas) Clear(col Color) {
	c.setColor(col)
	c.dc.Clear()
}

func (c *ImageCanvas) Line(x1, y1, x2, y2, width float64, col Color) {
	c.setColor(col)
	c.dc.SetLineWidth(width)
	c.dc.DrawLine(x1, y1, x2, y2)
	c.dc.Stroke()
}

func (c *ImageCanvas) FillCircle(x, y, r float64, col Color) {
	c.setColor(col)
	c.dc.DrawCircle(x, y, r)
	c.dc.Fill()
}

func (c *ImageCanvas) StrokeCircle(x, y, r, width float64, col Color) {
	c.setColor(col)
	c.dc.SetLineWidth(width)
	c.dc.DrawCircle(x, y, r)
	c.dc.Stroke()
}

func (c *ImageCanvas) DashedCircle(x, y, r, width, dash float64, col Color) {
	c.dc.SetDash(dash, dash)
	c.StrokeCircle(x, y, r, width, col)
	c.dc.SetDash()
}

func (c *ImageCanvas) MeasureText(s string, size float64) (w, h float64) {
	return c.faces.measure(s, size)
}

// Text strokes the outline by stamping the string at eight offsets before
// drawing the fill.
func (c *ImageCanvas) Text(s string, x, y, size float64, fill, outline Color, outlineWidth float64) {
	c.dc.SetFontFace(c.faces.face(size))
	if outlineWidth > 0 && outline.A > 0 {
		c.setColor(outline)
		d := outlineWidth / 2
		for _, o := range outlineOffsets {
			c.dc.DrawStringAnchored(s, x+o.X*d, y+o.Y*d, 0.5, 0.5)
		}
	}
	c.setColor(fill)
	c.dc.DrawStringAnchored(s, x, y, 0.5, 0.5)
}

var outlineOffsets = []Vec2{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// --- SVGCanvas ---

// svgScale is the number of SVG user units per pixel. svgo takes integer
// coordinates, so drawing happens in a finer viewBox.
const svgScale = 10

// SVGCanvas is a vector Canvas backed by svgo.
type SVGCanvas struct {
	doc   *svg.SVG
	w, h  float64
	faces *fontFaces
}

// NewSVGCanvas starts a w×h SVG document on out. Call Close to finish it.
func NewSVGCanvas(out io.Writer, w, h float64) (*SVGCanvas, error) {
	faces, err := labelFaces()
	if err != nil {
		return nil, err
	}
	doc := svg.New(out)
	iw, ih := int(math.Round(w)), int(math.Round(h))
	doc.Startview(iw, ih, 0, 0, iw*svgScale, ih*svgScale)
	return &SVGCanvas{doc: doc, w: w, h: h, faces: faces}, nil
}

// Close ends the document.
func (c *SVGCanvas) Close() {
	c.doc.End()
}

func su(v float64) int {
	return int(math.Round(v * svgScale))
}

func svgPaint(prop string, col Color) string {
	return fmt.Sprintf("%s:%s;%s-opacity:%.3f", prop, col.Hex(), prop, clamp(col.A, 0, 1))
}

func (c *SVGCanvas) Size() (w, h float64) {
	return c.w, c.h
}

func (c *SVGCanvas) Clear(col Color) {
	c.doc.Rect(0, 0, su(c.w), su(c.h), svgPaint("fill", col))
}

func (c *SVGCanvas) Line(x1, y1, x2, y2, width float64, col Color) {
	c.doc.Line(su(x1), su(y1), su(x2), su(y2),
		svgPaint("stroke", col)+fmt.Sprintf(";stroke-width:%d", su(width)))
}

func (c *SVGCanvas) FillCircle(x, y, r float64, col Color) {
	c.doc.Circle(su(x), su(y), su(r), svgPaint("fill", col))
}

func (c *SVGCanvas) StrokeCircle(x, y, r, width float64, col Color) {
	c.doc.Circle(su(x), su(y), su(r),
		"fill:none;"+svgPaint("stroke", col)+fmt.Sprintf(";stroke-width:%d", su(width)))
}

func (c *SVGCanvas) DashedCircle(x, y, r, width, dash float64, col Color) {
	c.doc.Circle(su(x), su(y), su(r),
		"fill:none;"+svgPaint("stroke", col)+
			fmt.Sprintf(";stroke-width:%d;stroke-dasharray:%d,%d", su(width), su(dash), su(dash)))
}

func (c *SVGCanvas) MeasureText(s string, size float64) (w, h float64) {
	return c.faces.measure(s, size)
}

func (c *SVGCanvas) Text(s string, x, y, size float64, fill, outline Color, outlineWidth float64) {
	style := fmt.Sprintf("font-family:'Go Medium',sans-serif;font-size:%dpx;text-anchor:middle;dominant-baseline:central;", su(size)) +
		svgPaint("fill", fill)
	if outlineWidth > 0 && outline.A > 0 {
		style += ";paint-order:stroke;stroke-linejoin:round;" + svgPaint("stroke", outline) +
			fmt.Sprintf(";stroke-width:%d", su(outlineWidth))
	}
	c.doc.Text(su(x), su(y), s, style)
}
