package canopy

// InRadialView reports whether a world circle falls within the disc of
// radius hypot(W,H)/2/zoom * RenderDistance around the camera center,
// extended by the circle's own radius. Picking uses only this test.
func InRadialView(cam *Camera, s Settings, c Circle) bool {
	dx := c.X - cam.x
	dy := c.Y - cam.y
	lim := cam.viewRadius(s.RenderDistance) + c.R
	return dx*dx+dy*dy <= lim*lim
}

// InVerticalBand reports whether a screen circle overlaps the viewport
// height extended by VerticalPadPx above and below.
func InVerticalBand(cam *Camera, s Settings, sy, sr float64) bool {
	return sy+sr >= -s.VerticalPadPx && sy-sr <= cam.height+s.VerticalPadPx
}

// Renderable reports whether c should be drawn: it must pass the vertical
// band and radial tests and be at least MinPxRadius on screen.
func Renderable(cam *Camera, s Settings, c Circle) bool {
	_, sy := cam.WorldToScreen(c.X, c.Y)
	sr := cam.ScreenRadius(c.R)
	return InVerticalBand(cam, s, sy, sr) && InRadialView(cam, s, c) && sr >= s.MinPxRadius
}
