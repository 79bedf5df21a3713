package canopy

import (
	"errors"
	"image"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
)

// ViewerOptions configures a Viewer.
type ViewerOptions struct {
	Title  string
	Width  int
	Height int
	// ScreenshotDir receives screenshots. Defaults to "screenshots".
	ScreenshotDir string
	// Script drives the viewer with injected input. When ExitWhenDone is
	// set the viewer quits once the script finishes.
	Script       *TestRunner
	ExitWhenDone bool
	Logger       *log.Logger
}

// Viewer runs an Explorer in an Ebitengine window. It implements ebiten.Game:
// Update maps input onto Explorer calls and Draw blits the scene, repainted
// only when dirty, under the overlays.
type Viewer struct {
	ex     *Explorer
	logger *log.Logger
	font   *TTFFont
	title  string

	width, height int

	frame  *ebiten.Image
	canvas *ebitenCanvas

	pointer      pointerState
	hoverInit    bool
	dragDeadZone float64

	injectQueue []syntheticPointerEvent
	wheelQueue  []float64
	keyQueue    []keyPress

	runner       *TestRunner
	exitWhenDone bool
	quit         atomic.Bool

	ScreenshotDir   string
	screenshotQueue []string

	search   searchBox
	showHelp bool
	fps      fpsCounter
	crumbs   []crumbBox

	previewSrc *Preview
	previewImg *ebiten.Image

	// measure returns text extents for overlay layout.
	measure func(s string, size float64) (w, h float64)
}

// NewViewer creates a Viewer for ex.
func NewViewer(ex *Explorer, opts ViewerOptions) (*Viewer, error) {
	font, err := LoadTTFFont(LabelFontTTF)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		cw, ch := ex.Camera().Viewport()
		w, h = int(cw), int(ch)
	}
	dir := opts.ScreenshotDir
	if dir == "" {
		dir = "screenshots"
	}
	title := opts.Title
	if title == "" {
		title = "canopy"
	}
	v := &Viewer{
		ex:            ex,
		logger:        logger,
		font:          font,
		title:         title,
		width:         w,
		height:        h,
		dragDeadZone:  defaultDragDeadZone,
		runner:        opts.Script,
		exitWhenDone:  opts.ExitWhenDone,
		ScreenshotDir: dir,
		measure:       font.MeasureString,
	}
	ex.Resize(float64(w), float64(h))
	return v, nil
}

// Explorer returns the explorer the viewer drives.
func (v *Viewer) Explorer() *Explorer { return v.ex }

// Run opens the window and blocks until it is closed.
func (v *Viewer) Run() error {
	ebiten.SetWindowTitle(v.title)
	ebiten.SetWindowSize(v.width, v.height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	err := ebiten.RunGame(v)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Quit closes the window at the next frame. Safe from any goroutine.
func (v *Viewer) Quit() { v.quit.Store(true) }

// Update implements ebiten.Game.
func (v *Viewer) Update() error {
	if v.quit.Load() {
		return ebiten.Termination
	}
	v.tick(1.0/float64(ebiten.TPS()), true)
	if v.exitWhenDone && v.runner != nil && v.runner.Done() && len(v.screenshotQueue) == 0 {
		return ebiten.Termination
	}
	return nil
}

// tick advances one frame. Real devices are polled only when live.
func (v *Viewer) tick(dt float64, live bool) {
	if v.runner != nil {
		v.runner.step(v)
	}
	v.processInput(live)
	v.ex.Update(dt)
	if live {
		v.fps.update(dt)
	}
	v.layoutCrumbs()
}

// Layout implements ebiten.Game. The viewport follows the window size.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != v.width || outsideHeight != v.height {
		v.width, v.height = outsideWidth, outsideHeight
		v.ex.Resize(float64(outsideWidth), float64(outsideHeight))
	}
	return outsideWidth, outsideHeight
}

// Draw implements ebiten.Game.
func (v *Viewer) Draw(screen *ebiten.Image) {
	v.ensureFrame()
	if _, drawn := v.ex.Render(v.canvas); drawn {
		v.logger.Debug("repaint")
	}
	screen.DrawImage(v.frame, nil)
	v.drawOverlays(screen)
	v.flushScreenshots(screen)
}

// ensureFrame (re)allocates the offscreen scene image for the current size.
func (v *Viewer) ensureFrame() {
	if v.frame != nil {
		b := v.frame.Bounds()
		if b.Dx() == v.width && b.Dy() == v.height {
			return
		}
		v.frame.Deallocate()
	}
	v.frame = ebiten.NewImage(max(v.width, 1), max(v.height, 1))
	v.canvas = newEbitenCanvas(v.frame, v.font)
	v.ex.RequestRender()
}

// previewImage converts the explorer's current preview for drawing, caching
// the GPU image until the preview changes.
func (v *Viewer) previewImage() (*ebiten.Image, *Preview) {
	p := v.ex.Preview()
	if p != v.previewSrc {
		if v.previewImg != nil {
			v.previewImg.Deallocate()
			v.previewImg = nil
		}
		v.previewSrc = p
		if p != nil && p.Image != nil && !p.Image.Bounds().Empty() {
			v.previewImg = ebiten.NewImageFromImage(p.Image)
		}
	}
	return v.previewImg, p
}

func (v *Viewer) searchProvider() {
	if _, err := v.ex.SearchProvider(); err != nil {
		v.logger.Debug("provider search", "err", err)
	}
}

func (v *Viewer) copyLink() {
	link, err := v.ex.CopyLink()
	if err != nil {
		v.logger.Warn("copy link", "err", err)
		return
	}
	v.logger.Info("link copied", "link", link)
}

func (v *Viewer) pasteLink() {
	if err := v.ex.PasteLink(); err != nil {
		v.logger.Warn("paste link", "err", err)
	}
}

// --- Search box ---

// searchBox is the inline query editor opened with Enter.
type searchBox struct {
	open bool
	text []rune
}

func (b *searchBox) begin() {
	b.open = true
	b.text = b.text[:0]
}

func (b *searchBox) insert(rs []rune) {
	if !b.open {
		return
	}
	for _, r := range rs {
		if r >= ' ' && r != 0x7f {
			b.text = append(b.text, r)
		}
	}
}

func (b *searchBox) backspace() {
	if len(b.text) > 0 {
		b.text = b.text[:len(b.text)-1]
	}
}

func (b *searchBox) submit() string {
	q := string(b.text)
	b.open = false
	b.text = b.text[:0]
	return q
}

func (b *searchBox) cancel() {
	b.open = false
	b.text = b.text[:0]
}

func (b *searchBox) query() string { return string(b.text) }

// --- Breadcrumbs ---

const (
	crumbFontSize = 14.0
	crumbSep      = " › "
	crumbX        = 12.0
	crumbY        = 12.0
	crumbPad      = 6.0
)

type crumbBox struct {
	node *Node
	rect Rect
}

// layoutCrumbs lays the breadcrumb trail out left to right, one hit box per
// ancestor of the focus.
func (v *Viewer) layoutCrumbs() {
	v.crumbs = v.crumbs[:0]
	path := v.ex.Breadcrumbs()
	x := crumbX + crumbPad
	sepW, _ := v.measure(crumbSep, crumbFontSize)
	for i, n := range path {
		w, _ := v.measure(n.Name, crumbFontSize)
		v.crumbs = append(v.crumbs, crumbBox{
			node: n,
			rect: Rect{X: x, Y: crumbY, Width: w, Height: crumbFontSize + 2*crumbPad},
		})
		x += w
		if i < len(path)-1 {
			x += sepW
		}
	}
}

// crumbAt returns the breadcrumb node under (sx, sy), or nil.
func (v *Viewer) crumbAt(sx, sy float64) *Node {
	for _, c := range v.crumbs {
		if c.rect.Contains(sx, sy) {
			return c.node
		}
	}
	return nil
}

// crumbBounds returns the rectangle enclosing the whole trail.
func (v *Viewer) crumbBounds() (Rect, bool) {
	if len(v.crumbs) == 0 {
		return Rect{}, false
	}
	last := v.crumbs[len(v.crumbs)-1].rect
	return Rect{
		X:      crumbX,
		Y:      crumbY,
		Width:  last.X + last.Width + crumbPad - crumbX,
		Height: crumbFontSize + 2*crumbPad,
	}, true
}

// previewBounds places a preview of the given size in the bottom-right
// corner.
func previewBounds(screenW, screenH int, img image.Rectangle) Rect {
	const margin = 12.0
	w, h := float64(img.Dx()), float64(img.Dy())
	return Rect{X: float64(screenW) - w - margin, Y: float64(screenH) - h - margin - 22, Width: w, Height: h}
}
