package canopy

import (
	"math"
	"time"

	"github.com/tanema/gween/ease"
)

const (
	minZoom = 1e-6
	maxZoom = 1e9
)

// Camera maps layout (world) space onto the viewport. The world point
// (x, y) appears at the viewport center, scaled by zoom. Position and zoom
// are only written through methods so the cached view matrix stays valid.
type Camera struct {
	x, y, zoom    float64
	width, height float64

	viewMatrix    [6]float64
	invViewMatrix [6]float64
	dirty         bool

	anim *TweenGroup
}

// NewCamera creates a Camera at the origin with zoom 1 for a w×h viewport.
func NewCamera(w, h float64) *Camera {
	return &Camera{zoom: 1, width: w, height: h, dirty: true}
}

// State returns the camera position and zoom.
func (c *Camera) State() (x, y, zoom float64) {
	return c.x, c.y, c.zoom
}

// Zoom returns the current scale factor.
func (c *Camera) Zoom() float64 {
	return c.zoom
}

// Viewport returns the viewport size in pixels.
func (c *Camera) Viewport() (w, h float64) {
	return c.width, c.height
}

// SetViewport resizes the viewport. The world point at the center stays put.
func (c *Camera) SetViewport(w, h float64) {
	if w == c.width && h == c.height {
		return
	}
	c.width, c.height = w, h
	c.dirty = true
}

// SetState moves the camera immediately, cancelling any animation.
func (c *Camera) SetState(x, y, zoom float64) {
	c.anim = nil
	c.set(x, y, zoom)
}

func (c *Camera) set(x, y, zoom float64) {
	c.x, c.y, c.zoom = x, y, clamp(zoom, minZoom, maxZoom)
	c.dirty = true
}

// Pan moves the view by a screen-space delta so content follows the
// pointer. Cancels any animation.
func (c *Camera) Pan(dx, dy float64) {
	c.anim = nil
	c.set(c.x-dx/c.zoom, c.y-dy/c.zoom, c.zoom)
}

// ZoomAt multiplies the zoom by factor while keeping the world point under
// (sx, sy) fixed on screen. Cancels any animation.
func (c *Camera) ZoomAt(sx, sy, factor float64) {
	c.anim = nil
	wx, wy := c.ScreenToWorld(sx, sy)
	z := clamp(c.zoom*factor, minZoom, maxZoom)
	c.set(wx-(sx-c.width/2)/z, wy-(sy-c.height/2)/z, z)
}

// AnimateTo eases the camera to (x, y, zoom) over d with a cubic in-out
// curve. A later call replaces an animation in flight.
func (c *Camera) AnimateTo(x, y, zoom float64, d time.Duration) {
	zoom = clamp(zoom, minZoom, maxZoom)
	c.anim = newTweenGroup(float32(d.Seconds()), ease.InOutCubic,
		[]*float64{&c.x, &c.y, &c.zoom},
		[]float64{x, y, zoom})
	c.dirty = true
	if c.anim.Done {
		c.anim = nil
	}
}

// Animating reports whether an animation is in flight.
func (c *Camera) Animating() bool {
	return c.anim != nil
}

// Update advances the animation by dt seconds and reports whether the
// camera moved.
func (c *Camera) Update(dt float64) bool {
	if c.anim == nil {
		return false
	}
	c.anim.Update(float32(dt))
	if c.anim.Done {
		c.anim = nil
	}
	c.dirty = true
	return true
}

// Finish jumps an animation in flight to its end.
func (c *Camera) Finish() {
	if c.anim == nil {
		return
	}
	c.anim.finish()
	c.anim = nil
	c.dirty = true
}

// computeViewMatrix recomputes the cached view matrix if dirty.
//
// viewMatrix = Translate(cx, cy) * Scale(zoom) * Translate(-x, -y)
func (c *Camera) computeViewMatrix() [6]float64 {
	if !c.dirty {
		return c.viewMatrix
	}
	c.dirty = false

	z := c.zoom
	cx := c.width / 2
	cy := c.height / 2
	c.viewMatrix = [6]float64{z, 0, 0, z, cx - z*c.x, cy - z*c.y}
	c.invViewMatrix = invertAffine(c.viewMatrix)
	return c.viewMatrix
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	c.computeViewMatrix()
	return transformPoint(c.viewMatrix, wx, wy)
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	c.computeViewMatrix()
	return transformPoint(c.invViewMatrix, sx, sy)
}

// ScreenRadius converts a world-space radius to pixels.
func (c *Camera) ScreenRadius(r float64) float64 {
	return r * c.zoom
}

// viewRadius is the world-space radius of the visible disc used for culling.
func (c *Camera) viewRadius(renderDistance float64) float64 {
	return math.Hypot(c.width, c.height) / 2 / c.zoom * renderDistance
}
