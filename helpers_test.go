package canopy

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

const epsilon = 1e-6

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

const sampleJSON = `{"name":"Life","children":[{"name":"A","children":[{"name":"A1"},{"name":"A2"}]},{"name":"B"}]}`

// sampleTree indexes Life → {A → {A1, A2}, B}.
func sampleTree() *Tree {
	root, err := DecodeJSON([]byte(sampleJSON))
	if err != nil {
		panic(err)
	}
	return Index(root)
}

// buildTree makes a root with the given number of children, each holding
// perChild leaves.
func buildTree(children, perChild int) *Node {
	root := NewNode("Root")
	for i := range children {
		c := NewNode(fmt.Sprintf("C%d", i))
		for j := range perChild {
			c.AddChild(NewNode(fmt.Sprintf("C%d-%d", i, j)))
		}
		root.AddChild(c)
	}
	return root
}

func mustFind(t *Tree, name string) *Node {
	n, kind := t.Find(name)
	if n == nil || kind != MatchExact {
		panic("node not found: " + name)
	}
	return n
}

// --- Recording canvas ---

type drawOp struct {
	kind    string
	x, y, r float64
	text    string
	size    float64
}

type recordCanvas struct {
	w, h float64
	ops  []drawOp
}

func newRecordCanvas(w, h float64) *recordCanvas {
	return &recordCanvas{w: w, h: h}
}

func (c *recordCanvas) Size() (float64, float64) { return c.w, c.h }
func (c *recordCanvas) Clear(Color)               { c.ops = append(c.ops, drawOp{kind: "clear"}) }
func (c *recordCanvas) Line(x1, y1, x2, y2, w float64, col Color) {
	c.ops = append(c.ops, drawOp{kind: "line"})
}
func (c *recordCanvas) FillCircle(x, y, r float64, col Color) {
	c.ops = append(c.ops, drawOp{kind: "fill", x: x, y: y, r: r})
}
func (c *recordCanvas) StrokeCircle(x, y, r, w float64, col Color) {
	c.ops = append(c.ops, drawOp{kind: "stroke", x: x, y: y, r: r})
}
func (c *recordCanvas) DashedCircle(x, y, r, w, dash float64, col Color) {
	c.ops = append(c.ops, drawOp{kind: "dashed", x: x, y: y, r: r})
}

// MeasureText uses a fixed advance of 0.6 em per rune.
func (c *recordCanvas) MeasureText(s string, size float64) (float64, float64) {
	return 0.6 * size * float64(len([]rune(s))), size
}
func (c *recordCanvas) Text(s string, x, y, size float64, fill, outline Color, ow float64) {
	c.ops = append(c.ops, drawOp{kind: "text", x: x, y: y, text: s, size: size})
}

func (c *recordCanvas) count(kind string) int {
	n := 0
	for _, op := range c.ops {
		if op.kind == kind {
			n++
		}
	}
	return n
}

func (c *recordCanvas) filter(kind string) []drawOp {
	var out []drawOp
	for _, op := range c.ops {
		if op.kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// --- Fakes ---

// lazyNode makes a node from name; a trailing "*" gives it the lazy
// endpoint "<name>.json".
func lazyNode(name string) *Node {
	base, lazy := strings.CutSuffix(name, "*")
	n := NewNode(base)
	if lazy {
		n.ChildrenURL = base + ".json"
		n.state = ChildrenPending
	}
	return n
}

// fakeLoader serves children by URL. Failures are consumed one per call.
type fakeLoader struct {
	mu       sync.Mutex
	children map[string][]string
	failures map[string]int
	calls    map[string]int
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		children: make(map[string][]string),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

func (l *fakeLoader) LoadChildren(ctx context.Context, url string) ([]*Node, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[url]++
	if l.failures[url] > 0 {
		l.failures[url]--
		return nil, NewError(ErrCodeNetwork, "fetch %s failed", url)
	}
	names, ok := l.children[url]
	if !ok {
		return nil, NewError(ErrCodeNotFound, "no children at %s", url)
	}
	out := make([]*Node, len(names))
	for i, n := range names {
		out[i] = lazyNode(n)
	}
	return out, nil
}

func (l *fakeLoader) callCount(url string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[url]
}

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) ReadAll() (string, error) { return c.text, c.err }
func (c *fakeClipboard) WriteAll(s string) error {
	if c.err != nil {
		return c.err
	}
	c.text = s
	return nil
}

type fakeOpener struct{ urls []string }

func (o *fakeOpener) OpenURL(u string) error {
	o.urls = append(o.urls, u)
	return nil
}

// fakeThumbs returns a 1×1 image for names in urls.
type fakeThumbs struct {
	mu    sync.Mutex
	urls  map[string]string
	calls int
	fail  bool
}

func (f *fakeThumbs) ThumbnailURL(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return "", errors.New("boom")
	}
	return f.urls[name], nil
}

func (f *fakeThumbs) FetchImage(ctx context.Context, u string) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func (f *fakeThumbs) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// newTestExplorer creates an 800×600 explorer with a fake clock and a
// fixed random source.
func newTestExplorer(opts Options) (*Explorer, *fakeClock) {
	clock := newFakeClock()
	if opts.Now == nil {
		opts.Now = clock.now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(1, 2))
	}
	return NewExplorer(800, 600, opts), clock
}

// --- Tree shapes ---

// chainTree is n nodes, each the only child of the previous one.
func chainTree(n int) *Node {
	root := NewNode("c0")
	cur := root
	for i := 1; i < n; i++ {
		c := NewNode(fmt.Sprintf("c%d", i))
		cur.AddChild(c)
		cur = c
	}
	return root
}

// balancedTree gives every internal node branch children, depth levels deep.
func balancedTree(branch, depth int) *Node {
	var grow func(name string, d int) *Node
	grow = func(name string, d int) *Node {
		n := NewNode(name)
		if d == 0 {
			return n
		}
		for i := range branch {
			n.AddChild(grow(fmt.Sprintf("%s.%d", name, i), d-1))
		}
		return n
	}
	return grow("b", depth)
}

// lopsidedTree has one branch holding heavy leaves next to light single leaves.
func lopsidedTree(heavy, light int) *Node {
	root := NewNode("root")
	big := NewNode("heavy")
	for i := range heavy {
		big.AddChild(NewNode(fmt.Sprintf("h%d", i)))
	}
	root.AddChild(big)
	for i := range light {
		root.AddChild(NewNode(fmt.Sprintf("l%d", i)))
	}
	return root
}

// randomTree grows size nodes, hanging each new node under a random earlier
// one. Half the time the parent comes from the most recent few nodes, which
// produces deeper chains than a uniform choice.
func randomTree(rng *rand.Rand, size int) *Node {
	nodes := []*Node{NewNode("r")}
	for i := 1; i < size; i++ {
		var p *Node
		if rng.IntN(2) == 0 {
			p = nodes[max(0, len(nodes)-1-rng.IntN(4))]
		} else {
			p = nodes[rng.IntN(len(nodes))]
		}
		c := NewNode(fmt.Sprintf("n%d", i))
		p.AddChild(c)
		nodes = append(nodes, c)
	}
	return nodes[0]
}

// walkLeaves counts leaves under n by walking the subtree.
func walkLeaves(n *Node) int {
	if n.NumChildren() == 0 {
		return 1
	}
	total := 0
	for _, c := range n.Children() {
		total += walkLeaves(c)
	}
	return total
}
