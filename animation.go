package canopy

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 float64 fields along one eased progress curve.
// Interpolation happens in float64 so deep zoom levels do not jitter, and
// the final update writes the exact targets.
//
// There is no global animation manager; the owner calls Update each frame.
type TweenGroup struct {
	progress *gween.Tween
	count    int
	fields   [4]*float64
	from     [4]float64
	to       [4]float64
	Done     bool
}

// newTweenGroup animates each *fields[i] from its current value to to[i].
func newTweenGroup(duration float32, fn ease.TweenFunc, fields []*float64, to []float64) *TweenGroup {
	g := &TweenGroup{progress: gween.New(0, 1, duration, fn), count: min(len(fields), len(to), 4)}
	for i := 0; i < g.count; i++ {
		g.fields[i] = fields[i]
		g.from[i] = *fields[i]
		g.to[i] = to[i]
	}
	if duration <= 0 {
		g.finish()
	}
	return g
}

// Update advances the group by dt seconds and writes the interpolated values.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	t, finished := g.progress.Update(dt)
	if finished {
		g.finish()
		return
	}
	for i := 0; i < g.count; i++ {
		*g.fields[i] = g.from[i] + (g.to[i]-g.from[i])*float64(t)
	}
}

func (g *TweenGroup) finish() {
	for i := 0; i < g.count; i++ {
		*g.fields[i] = g.to[i]
	}
	g.Done = true
}
