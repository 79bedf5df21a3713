package canopy

// Pick returns the deepest node whose circle contains the screen point
// (sx, sy), or nil. Only the radial view test applies; circles too small to
// be drawn can still be picked.
func (l *Layout) Pick(cam *Camera, s Settings, sx, sy float64) *Node {
	if l == nil {
		return nil
	}
	wx, wy := cam.ScreenToWorld(sx, sy)
	for _, i := range l.pickOrder {
		lc := &l.Circles[i]
		if !InRadialView(cam, s, lc.Circle) {
			continue
		}
		if lc.Contains(wx, wy) {
			return lc.Node
		}
	}
	return nil
}
