package canopy

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

const lazyJSON = `{"name":"Life","children":[{"name":"A","children":["A1","A2"]},{"name":"Lazy","childrenUrl":"lazy.json"}]}`

// lazyExplorer loads Life → {A → {A1, A2}, Lazy → lazy.json}. The endpoint
// serves L1 and Deep, which is itself lazy and serves D1 and D2.
func lazyExplorer(t *testing.T, opts Options) (*Explorer, *fakeLoader, *fakeClock) {
	t.Helper()
	loader := newFakeLoader()
	loader.children["lazy.json"] = []string{"L1", "Deep*"}
	loader.children["Deep.json"] = []string{"D1", "D2"}
	opts.Loader = loader
	if opts.Source == "" {
		opts.Source = "tree.json"
	}
	e, clock := newTestExplorer(opts)
	root, err := DecodeJSON([]byte(lazyJSON))
	if err != nil {
		t.Fatal(err)
	}
	e.SetTree(Index(root))
	return e, loader, clock
}

func screenOf(t *testing.T, e *Explorer, n *Node) (float64, float64) {
	t.Helper()
	c, ok := e.Layout().Circle(n)
	if !ok {
		t.Fatalf("%s is not in the layout", n.Name)
	}
	return e.Camera().WorldToScreen(c.X, c.Y)
}

func TestSetTreeFocusesRoot(t *testing.T) {
	e, _, _ := lazyExplorer(t, Options{})
	if e.Focus() != e.Tree().Root() {
		t.Errorf("Focus = %v, want root", e.Focus())
	}
	if got := e.Location().Fragment(); got != "Life" {
		t.Errorf("Fragment = %q, want Life", got)
	}
	want := 600 / e.Layout().Diameter
	if z := e.Camera().Zoom(); !approxEqual(z, want, epsilon) {
		t.Errorf("Zoom = %f, want %f", z, want)
	}
	if e.Camera().Animating() {
		t.Error("SetTree should snap the camera")
	}
	if !e.Dirty() {
		t.Error("SetTree should request a render")
	}
}

func TestGoToLoadsLazyChildren(t *testing.T) {
	e, loader, _ := lazyExplorer(t, Options{})
	lazy := mustFind(e.Tree(), "Lazy")
	e.GoTo(lazy, false)

	if e.Focus() != e.Tree().Root() {
		t.Error("focus should not change before children arrive")
	}
	if st, ok := e.Status(); !ok || st.Text != "Loading Lazy…" {
		t.Errorf("Status = %q/%v, want loading message", st.Text, ok)
	}

	e.Flush()
	if e.Focus() != lazy {
		t.Fatalf("Focus = %v, want Lazy", e.Focus())
	}
	if got := strings.Join(childNames(lazy), ","); got != "L1,Deep" {
		t.Errorf("children = %q, want L1,Deep", got)
	}
	if lazy.ChildrenState() != ChildrenRemote {
		t.Errorf("state = %v, want remote", lazy.ChildrenState())
	}
	if loader.callCount("lazy.json") != 1 {
		t.Errorf("calls = %d, want 1", loader.callCount("lazy.json"))
	}
	if _, ok := e.Status(); ok {
		t.Error("loading message should be cleared")
	}
	if got, want := e.Location().Fragment(), EncodePath([]string{"Life", "Lazy"}); got != want {
		t.Errorf("Fragment = %q, want %q", got, want)
	}

	// Already expanded: no second fetch.
	e.GoTo(e.Tree().Root(), false)
	e.GoTo(lazy, false)
	e.Flush()
	if loader.callCount("lazy.json") != 1 {
		t.Errorf("calls after revisit = %d, want 1", loader.callCount("lazy.json"))
	}
}

func TestGoToLoadFailureAllowsRetry(t *testing.T) {
	e, loader, _ := lazyExplorer(t, Options{})
	loader.failures["lazy.json"] = 1
	lazy := mustFind(e.Tree(), "Lazy")

	e.GoTo(lazy, true)
	e.Flush()
	if e.Focus() != e.Tree().Root() {
		t.Errorf("Focus = %v, want root after failure", e.Focus())
	}
	if !lazy.NeedsChildren() {
		t.Error("failed node should stay unexpanded")
	}
	st, ok := e.Status()
	if !ok || st.Level != StatusWarn || !strings.HasPrefix(st.Text, "Couldn't load Lazy") {
		t.Errorf("Status = %+v/%v", st, ok)
	}

	e.GoTo(lazy, true)
	e.Flush()
	if e.Focus() != lazy {
		t.Errorf("Focus = %v, want Lazy on retry", e.Focus())
	}
	if loader.callCount("lazy.json") != 2 {
		t.Errorf("calls = %d, want 2", loader.callCount("lazy.json"))
	}
}

func TestConcurrentLoadsShareFetch(t *testing.T) {
	e, loader, _ := lazyExplorer(t, Options{})
	lazy := mustFind(e.Tree(), "Lazy")
	e.GoTo(lazy, false)
	e.GoTo(lazy, true)
	e.Flush()
	if loader.callCount("lazy.json") != 1 {
		t.Errorf("calls = %d, want 1", loader.callCount("lazy.json"))
	}
	if e.Focus() != lazy {
		t.Errorf("Focus = %v, want Lazy", e.Focus())
	}
}

func TestLatestNavigationWins(t *testing.T) {
	e, _, _ := lazyExplorer(t, Options{})
	lazy := mustFind(e.Tree(), "Lazy")
	a := mustFind(e.Tree(), "A")
	e.GoTo(lazy, false)
	e.GoTo(a, false)
	e.Flush()
	if e.Focus() != a {
		t.Errorf("Focus = %v, want A", e.Focus())
	}
	if lazy.NumChildren() != 2 {
		t.Errorf("Lazy children = %d, want 2 even though navigation moved on", lazy.NumChildren())
	}
}

func TestStaleTreeDropsResult(t *testing.T) {
	e, _, _ := lazyExplorer(t, Options{})
	lazy := mustFind(e.Tree(), "Lazy")
	e.GoTo(lazy, false)
	e.SetTree(sampleTree())
	e.Flush()
	if lazy.NumChildren() != 0 {
		t.Error("result for a replaced tree should be dropped")
	}
	if e.Focus() != e.Tree().Root() {
		t.Errorf("Focus = %v, want new root", e.Focus())
	}
}

func TestGoParentAndReset(t *testing.T) {
	e, _, _ := lazyExplorer(t, Options{})
	tr := e.Tree()
	e.GoParent()
	if e.Focus() != tr.Root() {
		t.Error("GoParent at the root should do nothing")
	}

	e.Search("a1")
	if e.Focus() != mustFind(tr, "A1") || e.Highlight() != mustFind(tr, "A1") {
		t.Fatalf("after search focus=%v highlight=%v", e.Focus(), e.Highlight())
	}
	e.GoParent()
	if e.Focus() != mustFind(tr, "A") {
		t.Errorf("Focus = %v, want A", e.Focus())
	}
	if !e.Camera().Animating() {
		t.Error("GoParent should animate")
	}

	e.Reset()
	if e.Focus() != tr.Root() || e.Highlight() != nil {
		t.Errorf("after Reset focus=%v highlight=%v", e.Focus(), e.Highlight())
	}
}

func TestClickNavigatesThenFits(t *testing.T) {
	e, _ := newTestExplorer(Options{})
	e.SetTree(sampleTree())
	b := mustFind(e.Tree(), "B")

	sx, sy := screenOf(t, e, b)
	if got := e.Click(sx, sy); got != b {
		t.Fatalf("Click = %v, want B", got)
	}
	if e.Focus() != b {
		t.Fatalf("Focus = %v, want B", e.Focus())
	}
	e.Settle()

	// B is now the layout root, centered on screen.
	if got := e.Click(400, 300); got != b {
		t.Fatalf("second Click = %v, want B", got)
	}
	if e.Focus() != b {
		t.Error("clicking the focus should not navigate")
	}
	e.Settle()
	c, _ := e.Layout().Circle(b)
	want := 600 * e.Settings().ClickFitFraction / c.R
	if z := e.Camera().Zoom(); !approxEqual(z, want, 1e-9) {
		t.Errorf("Zoom = %f, want %f", z, want)
	}

	if got := e.Click(1, 1); got != nil {
		t.Errorf("Click on empty space = %v, want nil", got)
	}
}

func TestSearch(t *testing.T) {
	e, clock := newTestExplorer(Options{})
	e.SetTree(sampleTree())
	a2 := mustFind(e.Tree(), "A2")

	n, kind := e.Search("a2")
	if n != a2 || kind != MatchExact {
		t.Fatalf("Search = %v/%s, want A2/exact", n, kind)
	}
	if e.Focus() != a2 || e.Highlight() != a2 {
		t.Errorf("focus=%v highlight=%v, want A2", e.Focus(), e.Highlight())
	}

	n, kind = e.Search("zzz")
	if n != nil || kind != MatchNone {
		t.Errorf("Search(zzz) = %v/%s", n, kind)
	}
	if e.Focus() != a2 {
		t.Error("failed search should not move the focus")
	}
	st, ok := e.Status()
	if !ok || st.Text != "No match for “zzz”" || st.Level != StatusWarn {
		t.Errorf("Status = %+v/%v", st, ok)
	}

	clock.advance(statusNoMatch)
	e.Update(0)
	if _, ok := e.Status(); ok {
		t.Error("no-match message should expire")
	}

	e.ClearHighlight()
	if e.Highlight() != nil {
		t.Error("ClearHighlight left a highlight")
	}
}

func TestSurprise(t *testing.T) {
	e, _, _ := lazyExplorer(t, Options{})
	for range 5 {
		n := e.Surprise()
		if n == nil {
			t.Fatal("Surprise returned nil")
		}
		e.Flush()
		if e.Focus() != n || e.Highlight() != n {
			t.Errorf("focus=%v highlight=%v, want %s", e.Focus(), e.Highlight(), n.Name)
		}
	}

	empty, _ := newTestExplorer(Options{})
	if empty.Surprise() != nil {
		t.Error("Surprise without a tree should return nil")
	}
}

func TestOpenLinkThroughLazyNodes(t *testing.T) {
	e, loader, _ := lazyExplorer(t, Options{})
	names := []string{"Life", "Lazy", "Deep", "D2"}
	e.OpenLink("tree.json#" + EncodePath(names))
	e.Flush()

	if e.Focus() == nil || e.Focus().Name != "D2" {
		t.Fatalf("Focus = %v, want D2", e.Focus())
	}
	if loader.callCount("lazy.json") != 1 || loader.callCount("Deep.json") != 1 {
		t.Errorf("calls = %d/%d, want 1/1", loader.callCount("lazy.json"), loader.callCount("Deep.json"))
	}
	if got, want := e.Location().Fragment(), EncodePath(names); got != want {
		t.Errorf("Fragment = %q, want %q", got, want)
	}
	if d2 := e.Focus(); d2.Level != "Level 3" {
		t.Errorf("D2 level = %q, want Level 3", d2.Level)
	}
}

func TestOpenLinkPartial(t *testing.T) {
	e, loader, _ := lazyExplorer(t, Options{})
	e.OpenLink("Life/A/Nope")
	if e.Focus().Name != "A" {
		t.Errorf("Focus = %v, want A", e.Focus())
	}

	loader.failures["lazy.json"] = 1
	e.OpenLink("#Life/Lazy/L1")
	e.Flush()
	if e.Focus().Name != "Lazy" {
		t.Errorf("Focus = %v, want Lazy after failed load", e.Focus())
	}
}

func TestSetTreeFollowsPendingLink(t *testing.T) {
	loader := newFakeLoader()
	loader.children["lazy.json"] = []string{"L1", "Deep*"}
	e, _ := newTestExplorer(Options{Loader: loader})
	e.Location().Replace(EncodePath([]string{"Life", "Lazy", "Deep"}))

	root, err := DecodeJSON([]byte(lazyJSON))
	if err != nil {
		t.Fatal(err)
	}
	e.SetTree(Index(root))
	if e.Focus().Name != "Lazy" {
		t.Errorf("Focus = %v, want Lazy before loading", e.Focus())
	}
	e.Flush()
	if e.Focus().Name != "Deep" {
		t.Errorf("Focus = %v, want Deep", e.Focus())
	}
	if loader.callCount("Deep.json") != 0 {
		t.Error("the link target itself should not be expanded")
	}
}

func TestCopyAndPasteLink(t *testing.T) {
	cb := &fakeClipboard{}
	e, _, _ := lazyExplorer(t, Options{Clipboard: cb})
	e.GoTo(mustFind(e.Tree(), "A"), false)

	link, err := e.CopyLink()
	if err != nil {
		t.Fatal(err)
	}
	want := "tree.json#" + EncodePath([]string{"Life", "A"})
	if link != want || cb.text != want {
		t.Errorf("link = %q, clipboard = %q, want %q", link, cb.text, want)
	}
	if st, _ := e.Status(); st.Text != "Link copied" {
		t.Errorf("Status = %q", st.Text)
	}

	cb.text = "elsewhere.json#" + EncodePath([]string{"Life", "A", "A2"})
	if err := e.PasteLink(); err != nil {
		t.Fatal(err)
	}
	if e.Focus().Name != "A2" {
		t.Errorf("Focus = %v, want A2", e.Focus())
	}

	cb.err = errors.New("no clipboard")
	if _, err := e.CopyLink(); err == nil {
		t.Error("CopyLink should report clipboard errors")
	}
	if st, _ := e.Status(); st.Text != "Couldn't copy link" {
		t.Errorf("Status = %q", st.Text)
	}
	if err := e.PasteLink(); err == nil {
		t.Error("PasteLink should report clipboard errors")
	}
}

func TestSearchProvider(t *testing.T) {
	op := &fakeOpener{}
	e, _ := newTestExplorer(Options{Opener: op})
	if _, err := e.SearchProvider(); !IsCode(err, ErrCodeNotFound) {
		t.Errorf("SearchProvider without tree error = %v", err)
	}

	e.SetTree(sampleTree())
	u, err := e.SearchProvider()
	if err != nil {
		t.Fatal(err)
	}
	if u != "https://www.google.com/search?q=Life" {
		t.Errorf("URL = %q", u)
	}

	if got := e.CycleProvider(1); got != "wikipedia" {
		t.Errorf("CycleProvider = %q, want wikipedia", got)
	}
	if st, _ := e.Status(); st.Text != "Search provider: wikipedia" {
		t.Errorf("Status = %q", st.Text)
	}

	b := mustFind(e.Tree(), "B")
	e.PointerMove(screenOf(t, e, b))
	if e.Hovered() != b {
		t.Fatalf("Hovered = %v, want B", e.Hovered())
	}
	if _, err := e.SearchProvider(); err != nil {
		t.Fatal(err)
	}
	if len(op.urls) != 2 || op.urls[1] != "https://en.wikipedia.org/wiki/Special:Search?search=B" {
		t.Errorf("opened %q", op.urls)
	}
}

func TestTooltip(t *testing.T) {
	e, _ := newTestExplorer(Options{})
	e.SetTree(sampleTree())
	if _, _, ok := e.Tooltip(); ok {
		t.Error("no tooltip without hover")
	}

	e.PointerMove(screenOf(t, e, mustFind(e.Tree(), "B")))
	title, meta, ok := e.Tooltip()
	if !ok || title != "B (Domain)" || meta != "1 descendant" {
		t.Errorf("Tooltip = %q/%q/%v", title, meta, ok)
	}

	e.PointerMove(screenOf(t, e, mustFind(e.Tree(), "A")))
	if e.Hovered() == nil {
		t.Fatal("nothing hovered")
	}
	e.PointerLeave()
	if e.Hovered() != nil {
		t.Error("PointerLeave should clear the hover")
	}
}

func TestLoad(t *testing.T) {
	e, _ := newTestExplorer(Options{})
	e.Load("sample", []byte(sampleJSON), FormatJSON)
	if e.Loading() == nil || e.Loading().Title != "sample" {
		t.Fatalf("Loading = %+v", e.Loading())
	}
	e.Flush()
	if e.Loading() != nil {
		t.Error("Loading should clear once installed")
	}
	if e.Tree() == nil || e.Tree().Len() != 5 {
		t.Fatalf("Tree = %v", e.Tree())
	}

	prev := e.Tree()
	e.Load("broken", []byte("nope"), FormatJSON)
	e.Flush()
	if e.Tree() != prev {
		t.Error("parse error replaced the tree")
	}
	st, ok := e.Status()
	if !ok || st.Level != StatusError {
		t.Errorf("Status = %+v/%v, want an error", st, ok)
	}
}

func TestLoadKeepsLinkAcrossReload(t *testing.T) {
	e, _ := newTestExplorer(Options{})
	e.Load("v1", []byte(sampleJSON), FormatJSON)
	e.Flush()
	e.GoTo(mustFind(e.Tree(), "A"), false)

	e.Load("v2", []byte(sampleJSON), FormatJSON)
	e.Flush()
	if e.Focus().Name != "A" {
		t.Errorf("Focus = %v, want A after reload", e.Focus())
	}
}

func TestLoadRootSupersedesEarlierLoad(t *testing.T) {
	e, _ := newTestExplorer(Options{})
	e.LoadRoot("first", buildTree(3, 3))
	e.LoadRoot("second", buildTree(2, 1))
	e.Flush()
	if e.Tree().Len() != 5 {
		t.Errorf("Len = %d, want the second tree (5)", e.Tree().Len())
	}
}

func TestBusyAndSettle(t *testing.T) {
	e, _, _ := lazyExplorer(t, Options{})
	e.GoTo(mustFind(e.Tree(), "Lazy"), true)
	if !e.Busy() {
		t.Error("Busy should be true while loading")
	}
	e.Settle()
	if e.Busy() {
		t.Error("Busy after Settle")
	}
	if e.Camera().Animating() {
		t.Error("Settle should finish the camera animation")
	}
	want := math.Min(780/e.Layout().Diameter, 580/e.Layout().Diameter)
	if z := e.Camera().Zoom(); !approxEqual(z, want, 1e-9) {
		t.Errorf("Zoom = %f, want %f", z, want)
	}
}

func TestCloseDropsResults(t *testing.T) {
	e, _, _ := lazyExplorer(t, Options{})
	e.GoTo(mustFind(e.Tree(), "Lazy"), false)
	e.Close()
	e.Flush()
	if e.Focus() != e.Tree().Root() {
		t.Errorf("Focus = %v, want root", e.Focus())
	}
}

func TestPanWheelResize(t *testing.T) {
	e, _ := newTestExplorer(Options{})
	e.SetTree(sampleTree())
	e.Render(newRecordCanvas(800, 600))
	if e.Dirty() {
		t.Fatal("Render should clear the dirty flag")
	}

	e.Pan(0, 0)
	if e.Dirty() {
		t.Error("zero pan should not request a render")
	}
	e.Pan(10, 0)
	if !e.Dirty() {
		t.Error("pan should request a render")
	}

	z := e.Camera().Zoom()
	e.Wheel(400, 300, 1)
	if got, want := e.Camera().Zoom(), z*math.Exp(e.Settings().WheelStep); !approxEqual(got, want, 1e-9) {
		t.Errorf("Zoom = %f, want %f", got, want)
	}

	layout := e.Layout()
	e.Resize(1024, 768)
	if e.Layout() != layout {
		t.Error("Resize should keep the layout")
	}
	if w, h := e.Camera().Viewport(); w != 1024 || h != 768 {
		t.Errorf("Viewport = %fx%f", w, h)
	}
}

func TestUpdateAnimatesCamera(t *testing.T) {
	e, _ := newTestExplorer(Options{})
	e.SetTree(sampleTree())
	e.GoTo(mustFind(e.Tree(), "A"), true)
	e.Render(newRecordCanvas(800, 600))
	if !e.Update(0.016) {
		t.Error("Update during an animation should request a render")
	}
	steps := int(e.Settings().AnimationDuration/(16*time.Millisecond)) + 2
	for range steps {
		e.Update(0.016)
	}
	if e.Camera().Animating() {
		t.Error("animation should finish")
	}
}

func TestBreadcrumbs(t *testing.T) {
	e, _ := newTestExplorer(Options{})
	if e.Breadcrumbs() != nil {
		t.Error("no crumbs without a tree")
	}
	e.SetTree(sampleTree())
	e.GoTo(mustFind(e.Tree(), "A1"), false)
	crumbs := e.Breadcrumbs()
	if len(crumbs) != 3 || crumbs[0].Name != "Life" || crumbs[2].Name != "A1" {
		t.Errorf("Breadcrumbs = %v", crumbs)
	}
}
