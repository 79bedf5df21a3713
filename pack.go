package canopy

import (
	"math"
	"math/rand/v2"
	"slices"
)

// PackOptions configures Pack.
type PackOptions struct {
	// Padding is the gap between siblings and between children and their
	// parent, in final layout units.
	Padding float64
	// Margin is subtracted from the smaller viewport side to get the diameter.
	Margin float64
}

// LayoutCircle is one positioned node.
type LayoutCircle struct {
	Node *Node
	// Depth is relative to the layout root.
	Depth int
	Circle
}

// Layout is a circle packing of one subtree, centered on the origin.
type Layout struct {
	Root     *Node
	Diameter float64
	// Circles lists every node breadth-first, children in packing order.
	Circles []LayoutCircle

	index     map[uint32]int
	drawOrder []int // radius ascending
	pickOrder []int // depth descending
}

// Circle returns the layout circle for n.
func (l *Layout) Circle(n *Node) (Circle, bool) {
	if l == nil || n == nil {
		return Circle{}, false
	}
	i, ok := l.index[n.ID]
	if !ok {
		return Circle{}, false
	}
	return l.Circles[i].Circle, true
}

// Has reports whether n is part of the layout.
func (l *Layout) Has(n *Node) bool {
	_, ok := l.Circle(n)
	return ok
}

// packCircle is the scratch state for one node during packing.
type packCircle struct {
	x, y, r  float64
	value    int
	node     *Node
	children []*packCircle
}

const (
	maxPadPasses = 24
	padTolerance = 1e-6
)

// Pack lays out the subtree under root as nested circles for a viewport of
// w×h pixels. Leaves have unit weight; siblings are sorted by descending
// weight with ties kept in input order. The result is deterministic.
func Pack(root *Node, w, h float64, opts PackOptions) *Layout {
	diameter := math.Max(1, math.Min(w, h)-opts.Margin)

	pr := buildPackTree(root)
	rng := rand.New(rand.NewPCG(0x9e3779b97f4a7c15, 0xbf58476d1ce4e5b9))

	// First pass without padding establishes the unpadded scale; later passes
	// convert the pixel padding into layout units and refine until the root
	// radius settles. The final sibling gap is Padding*prev/r, so it is within
	// padTolerance of Padding once converged. Trees too deep to fit the
	// padding at this diameter do not converge and end up with smaller gaps.
	packAll(pr, 0, rng)
	if opts.Padding > 0 {
		prev := pr.r
		for range maxPadPasses {
			packAll(pr, opts.Padding*prev/diameter, rng)
			if math.Abs(pr.r-prev) <= padTolerance*prev {
				break
			}
			prev = pr.r
		}
	}

	k := diameter / (2 * pr.r)
	if pr.r == 0 {
		k = 1
	}
	pr.x, pr.y = 0, 0

	l := &Layout{Root: root, Diameter: diameter, index: make(map[uint32]int)}
	type item struct {
		c     *packCircle
		depth int
	}
	queue := []item{{c: pr}}
	for head := 0; head < len(queue); head++ {
		it := queue[head]
		c := it.c
		c.r *= k
		l.index[c.node.ID] = len(l.Circles)
		l.Circles = append(l.Circles, LayoutCircle{Node: c.node, Depth: it.depth, Circle: Circle{X: c.x, Y: c.y, R: c.r}})
		for _, ch := range c.children {
			ch.x = c.x + k*ch.x
			ch.y = c.y + k*ch.y
			queue = append(queue, item{c: ch, depth: it.depth + 1})
		}
	}

	l.drawOrder = make([]int, len(l.Circles))
	l.pickOrder = make([]int, len(l.Circles))
	for i := range l.Circles {
		l.drawOrder[i] = i
		l.pickOrder[i] = i
	}
	slices.SortStableFunc(l.drawOrder, func(a, b int) int {
		return cmpFloat(l.Circles[a].R, l.Circles[b].R)
	})
	slices.SortStableFunc(l.pickOrder, func(a, b int) int {
		return l.Circles[b].Depth - l.Circles[a].Depth
	})
	return l
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// buildPackTree mirrors the subtree, computes weights and sorts children.
func buildPackTree(root *Node) *packCircle {
	pr := &packCircle{node: root}
	stack := []*packCircle{pr}
	var post []*packCircle
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		post = append(post, c)
		for _, ch := range c.node.children {
			cc := &packCircle{node: ch}
			c.children = append(c.children, cc)
			stack = append(stack, cc)
		}
	}
	for i := len(post) - 1; i >= 0; i-- {
		c := post[i]
		if len(c.children) == 0 {
			c.value = 1
			c.r = 1 // sqrt(1)
			continue
		}
		for _, ch := range c.children {
			c.value += ch.value
		}
		slices.SortStableFunc(c.children, func(a, b *packCircle) int {
			return b.value - a.value
		})
	}
	return pr
}

// packAll packs every internal node bottom-up with the given padding.
func packAll(root *packCircle, pad float64, rng *rand.Rand) {
	var post []*packCircle
	stack := []*packCircle{root}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		post = append(post, c)
		stack = append(stack, c.children...)
	}
	for i := len(post) - 1; i >= 0; i-- {
		c := post[i]
		if len(c.children) == 0 {
			continue
		}
		for _, ch := range c.children {
			ch.r += pad
		}
		e := packSiblings(c.children, rng)
		for _, ch := range c.children {
			ch.r -= pad
		}
		c.r = e + pad
	}
}

// chainNode is a link in the front chain.
type chainNode struct {
	c          *packCircle
	next, prev *chainNode
}

// packSiblings positions circles tangent to each other around the origin
// and returns the radius of their enclosing circle.
func packSiblings(circles []*packCircle, rng *rand.Rand) float64 {
	n := len(circles)
	if n == 0 {
		return 0
	}

	a := circles[0]
	a.x, a.y = 0, 0
	if n == 1 {
		return a.r
	}

	b := circles[1]
	a.x = -b.r
	b.x = a.r
	b.y = 0
	if n == 2 {
		return a.r + b.r
	}

	c := circles[2]
	place(b, a, c)

	na := &chainNode{c: a}
	nb := &chainNode{c: b}
	nc := &chainNode{c: c}
	na.next, nc.prev = nb, na
	nb.next, na.prev = nc, nb
	nc.next, nb.prev = na, nc

	for i := 3; i < n; i++ {
		ci := circles[i]
		place(na.c, nb.c, ci)
		nn := &chainNode{c: ci}

		// Find the closest intersecting circle on the front chain, measured
		// by distance along the chain.
		j, k := nb.next, na.prev
		sj, sk := nb.c.r, na.c.r
		retry := false
		for {
			if sj <= sk {
				if intersects(j.c, nn.c) {
					nb = j
					na.next, nb.prev = nb, na
					retry = true
					break
				}
				sj += j.c.r
				j = j.next
			} else {
				if intersects(k.c, nn.c) {
					na = k
					na.next, nb.prev = nb, na
					retry = true
					break
				}
				sk += k.c.r
				k = k.prev
			}
			if j == k.next {
				break
			}
		}
		if retry {
			i--
			continue
		}

		nn.prev, nn.next = na, nb
		na.next = nn
		nb.prev = nn
		nb = nn

		// Pick the chain pair closest to the centroid.
		best := score(na)
		for cur := nn.next; cur != nb; cur = cur.next {
			if s := score(cur); s < best {
				na, best = cur, s
			}
		}
		nb = na.next
	}

	chain := []*packCircle{nb.c}
	for cur := nb.next; cur != nb; cur = cur.next {
		chain = append(chain, cur.c)
	}
	e := enclose(chain, rng)
	for _, ci := range circles {
		ci.x -= e.X
		ci.y -= e.Y
	}
	return e.R
}

// place positions c tangent to both a and b.
func place(b, a, c *packCircle) {
	dx := b.x - a.x
	dy := b.y - a.y
	d2 := dx*dx + dy*dy
	if d2 == 0 {
		c.x = a.x + c.r
		c.y = a.y
		return
	}
	a2 := a.r + c.r
	a2 *= a2
	b2 := b.r + c.r
	b2 *= b2
	if a2 > b2 {
		x := (d2 + b2 - a2) / (2 * d2)
		y := math.Sqrt(math.Max(0, b2/d2-x*x))
		c.x = b.x - x*dx - y*dy
		c.y = b.y - x*dy + y*dx
	} else {
		x := (d2 + a2 - b2) / (2 * d2)
		y := math.Sqrt(math.Max(0, a2/d2-x*x))
		c.x = a.x + x*dx - y*dy
		c.y = a.y + x*dy + y*dx
	}
}

func intersects(a, b *packCircle) bool {
	dr := a.r + b.r - 1e-6
	dx := b.x - a.x
	dy := b.y - a.y
	return dr > 0 && dr*dr > dx*dx+dy*dy
}

func score(n *chainNode) float64 {
	a := n.c
	b := n.next.c
	ab := a.r + b.r
	dx := (a.x*b.r + b.x*a.r) / ab
	dy := (a.y*b.r + b.y*a.r) / ab
	return dx*dx + dy*dy
}

// enclose returns the smallest circle enclosing every circle, using
// randomized incremental construction over a shuffled copy.
func enclose(circles []*packCircle, rng *rand.Rand) Circle {
	cs := make([]Circle, len(circles))
	for i, c := range circles {
		cs[i] = Circle{X: c.x, Y: c.y, R: c.r}
	}
	rng.Shuffle(len(cs), func(i, j int) { cs[i], cs[j] = cs[j], cs[i] })

	var basis []Circle
	var e Circle
	have := false
	for i := 0; i < len(cs); {
		p := cs[i]
		if have && enclosesWeak(e, p) {
			i++
			continue
		}
		nb, ok := extendBasis(basis, p)
		if !ok {
			return boundingCircle(cs)
		}
		basis = nb
		e = encloseBasis(basis)
		have = true
		i = 0
	}
	return e
}

func extendBasis(basis []Circle, p Circle) ([]Circle, bool) {
	if enclosesWeakAll(p, basis) {
		return []Circle{p}, true
	}
	for i := range basis {
		if enclosesNot(p, basis[i]) && enclosesWeakAll(encloseBasis2(basis[i], p), basis) {
			return []Circle{basis[i], p}, true
		}
	}
	for i := 0; i < len(basis)-1; i++ {
		for j := i + 1; j < len(basis); j++ {
			if enclosesNot(encloseBasis2(basis[i], basis[j]), p) &&
				enclosesNot(encloseBasis2(basis[i], p), basis[j]) &&
				enclosesNot(encloseBasis2(basis[j], p), basis[i]) &&
				enclosesWeakAll(encloseBasis3(basis[i], basis[j], p), basis) {
				return []Circle{basis[i], basis[j], p}, true
			}
		}
	}
	return nil, false
}

func enclosesNot(a, b Circle) bool {
	dr := a.R - b.R
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dr < 0 || dr*dr < dx*dx+dy*dy
}

func enclosesWeak(a, b Circle) bool {
	dr := a.R - b.R + math.Max(math.Max(a.R, b.R), 1)*1e-9
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dr > 0 && dr*dr > dx*dx+dy*dy
}

func enclosesWeakAll(a Circle, basis []Circle) bool {
	for _, b := range basis {
		if !enclosesWeak(a, b) {
			return false
		}
	}
	return true
}

func encloseBasis(basis []Circle) Circle {
	switch len(basis) {
	case 1:
		return basis[0]
	case 2:
		return encloseBasis2(basis[0], basis[1])
	default:
		return encloseBasis3(basis[0], basis[1], basis[2])
	}
}

func encloseBasis2(a, b Circle) Circle {
	x21 := b.X - a.X
	y21 := b.Y - a.Y
	r21 := b.R - a.R
	l := math.Sqrt(x21*x21 + y21*y21)
	return Circle{
		X: (a.X + b.X + x21/l*r21) / 2,
		Y: (a.Y + b.Y + y21/l*r21) / 2,
		R: (l + a.R + b.R) / 2,
	}
}

func encloseBasis3(a, b, c Circle) Circle {
	x1, y1, r1 := a.X, a.Y, a.R
	x2, y2, r2 := b.X, b.Y, b.R
	x3, y3, r3 := c.X, c.Y, c.R
	a2 := x1 - x2
	a3 := x1 - x3
	b2 := y1 - y2
	b3 := y1 - y3
	c2 := r2 - r1
	c3 := r3 - r1
	d1 := x1*x1 + y1*y1 - r1*r1
	d2 := d1 - x2*x2 - y2*y2 + r2*r2
	d3 := d1 - x3*x3 - y3*y3 + r3*r3
	ab := a3*b2 - a2*b3
	xa := (b2*d3-b3*d2)/(ab*2) - x1
	xb := (b3*c2 - b2*c3) / ab
	ya := (a3*d2-a2*d3)/(ab*2) - y1
	yb := (a2*c3 - a3*c2) / ab
	qa := xb*xb + yb*yb - 1
	qb := 2 * (r1 + xa*xb + ya*yb)
	qc := xa*xa + ya*ya - r1*r1
	var r float64
	if math.Abs(qa) > 1e-6 {
		r = -(qb + math.Sqrt(qb*qb-4*qa*qc)) / (2 * qa)
	} else {
		r = -(qc / qb)
	}
	return Circle{X: x1 + xa + xb*r, Y: y1 + ya + yb*r, R: r}
}

// boundingCircle is a conservative enclosure used when the incremental
// construction hits a degenerate basis: centered on the bounding box, with
// a radius reaching the farthest edge.
func boundingCircle(cs []Circle) Circle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range cs {
		minX = math.Min(minX, c.X-c.R)
		minY = math.Min(minY, c.Y-c.R)
		maxX = math.Max(maxX, c.X+c.R)
		maxY = math.Max(maxY, c.Y+c.R)
	}
	out := Circle{X: (minX + maxX) / 2, Y: (minY + maxY) / 2}
	for _, c := range cs {
		out.R = math.Max(out.R, math.Hypot(c.X-out.X, c.Y-out.Y)+c.R)
	}
	return out
}
