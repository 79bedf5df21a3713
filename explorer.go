package canopy

import (
	"context"
	"io"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// ChildLoader fetches the children behind a lazy endpoint.
type ChildLoader interface {
	LoadChildren(ctx context.Context, url string) ([]*Node, error)
}

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// Options configures an Explorer. Every collaborator is optional.
type Options struct {
	Settings   Settings
	Loader     ChildLoader
	Thumbnails ThumbnailSource
	Opener     Opener
	Clipboard  Clipboard
	Logger     *log.Logger
	// Source names the data being explored; copied links are Source#fragment.
	Source string
	// Now overrides the clock, for tests.
	Now func() time.Time
	// Rand drives Surprise. Defaults to a time-seeded generator.
	Rand *rand.Rand
}

// LoadState describes a tree being parsed or indexed in the background.
type LoadState struct {
	Title    string
	Progress Progress
}

// Explorer is the application state: the tree, the focus and its layout,
// the camera, highlight, hover, deep link, status line and previews. All
// methods must be called from one goroutine (the UI goroutine). Background
// work reports back through a task queue drained by Update and Flush.
type Explorer struct {
	ctx    context.Context
	cancel context.CancelFunc

	settings Settings
	logger   *log.Logger
	now      func() time.Time
	rng      *rand.Rand

	tree      *Tree
	focus     *Node
	layout    *Layout
	camera    *Camera
	renderer  *Renderer
	highlight *Node

	hover          *Node
	hoverSince     time.Time
	hoverRequested bool

	location Location
	status   Status
	previews *previews
	provider string

	loader    ChildLoader
	opener    Opener
	clipboard Clipboard
	source    string

	waiters map[uint32][]func(error)
	navSeq  uint64
	loadSeq uint64
	loading *LoadState

	dirty bool

	mu       sync.Mutex
	tasks    []func()
	wg       sync.WaitGroup
	inflight atomic.Int32
}

// NewExplorer creates an Explorer for a w×h viewport. It has no tree until
// SetTree or one of the Load methods completes.
func NewExplorer(w, h float64, opts Options) *Explorer {
	s := opts.Settings
	if s.Palette == nil && s.Padding == 0 && s.Margin == 0 {
		s = DefaultSettings()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>32|1))
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Explorer{
		ctx:       ctx,
		cancel:    cancel,
		settings:  s,
		logger:    logger,
		now:       now,
		rng:       rng,
		camera:    NewCamera(w, h),
		renderer:  NewRenderer(s, logger),
		previews:  newPreviews(opts.Thumbnails),
		provider:  s.Provider,
		loader:    opts.Loader,
		opener:    opts.Opener,
		clipboard: opts.Clipboard,
		source:    opts.Source,
		waiters:   make(map[uint32][]func(error)),
		dirty:     true,
	}
	if e.provider == "" {
		e.provider = Providers[0]
	}
	return e
}

// Close cancels background work. Results that arrive afterwards are dropped.
func (e *Explorer) Close() {
	e.cancel()
}

// Settings returns the active settings.
func (e *Explorer) Settings() Settings { return e.settings }

// Tree returns the loaded tree, or nil.
func (e *Explorer) Tree() *Tree { return e.tree }

// Focus returns the current layout root.
func (e *Explorer) Focus() *Node { return e.focus }

// Layout returns the layout of the focus subtree.
func (e *Explorer) Layout() *Layout { return e.layout }

// Camera returns the camera.
func (e *Explorer) Camera() *Camera { return e.camera }

// Highlight returns the highlighted node, or nil.
func (e *Explorer) Highlight() *Node { return e.highlight }

// Hovered returns the node under the pointer, or nil.
func (e *Explorer) Hovered() *Node { return e.hover }

// Location returns the deep-link state.
func (e *Explorer) Location() *Location { return &e.location }

// Provider returns the selected external search provider.
func (e *Explorer) Provider() string { return e.provider }

// Loading returns the background load in progress, or nil.
func (e *Explorer) Loading() *LoadState { return e.loading }

// Source returns the data source reference used in copied links.
func (e *Explorer) Source() string { return e.source }

// SetSource changes the data source reference.
func (e *Explorer) SetSource(s string) { e.source = s }

// RequestRender marks the view dirty.
func (e *Explorer) RequestRender() { e.dirty = true }

// Dirty reports whether a render is pending.
func (e *Explorer) Dirty() bool { return e.dirty }

// spawn runs fn on a new goroutine tracked by Flush.
func (e *Explorer) spawn(fn func(ctx context.Context)) {
	e.wg.Add(1)
	e.inflight.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.inflight.Add(-1)
		fn(e.ctx)
	}()
}

// Busy reports whether background work is running or its results are still
// queued.
func (e *Explorer) Busy() bool {
	if e.inflight.Load() > 0 {
		return true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks) > 0
}

// Post queues fn to run on the UI goroutine during the next Update or
// Flush. Safe from any goroutine.
func (e *Explorer) Post(fn func()) {
	e.post(fn)
}

func (e *Explorer) post(fn func()) {
	e.mu.Lock()
	e.tasks = append(e.tasks, fn)
	e.mu.Unlock()
}

// drain runs queued tasks and returns how many ran.
func (e *Explorer) drain() int {
	e.mu.Lock()
	tasks := e.tasks
	e.tasks = nil
	e.mu.Unlock()
	for _, fn := range tasks {
		if e.ctx.Err() != nil {
			break
		}
		fn()
	}
	return len(tasks)
}

// Flush waits for all background work, including work started by the
// tasks it runs, and applies the results.
func (e *Explorer) Flush() {
	for {
		e.wg.Wait()
		if e.drain() == 0 {
			return
		}
	}
}

// Settle waits for background work like Flush, then ends any camera
// animation. Headless callers use it to reach the final view.
func (e *Explorer) Settle() {
	e.Flush()
	if e.camera.Animating() {
		e.camera.Finish()
		e.RequestRender()
	}
}

// Update advances one frame: applies finished background work, steps the
// camera animation, fires the hover preview once the pointer has rested,
// and expires the status line. It reports whether a render is pending.
func (e *Explorer) Update(dt float64) bool {
	e.drain()
	if e.camera.Update(dt) {
		e.RequestRender()
	}
	if e.hover != nil && !e.hoverRequested && e.now().Sub(e.hoverSince) >= e.settings.HoverDelay {
		e.hoverRequested = true
		e.requestPreview(e.hover)
	}
	if e.expireStatus() {
		e.RequestRender()
	}
	return e.dirty
}

// Render draws the scene onto cv if it is dirty, clearing the flag.
func (e *Explorer) Render(cv Canvas) (Stats, bool) {
	if !e.dirty {
		return Stats{}, false
	}
	e.dirty = false
	return e.Draw(cv), true
}

// Draw renders the scene onto cv unconditionally.
func (e *Explorer) Draw(cv Canvas) Stats {
	return e.renderer.Draw(cv, Scene{
		Layout:    e.layout,
		Camera:    e.camera,
		Settings:  e.settings,
		Highlight: e.highlight,
	})
}

// Resize updates the viewport. The current layout is kept.
func (e *Explorer) Resize(w, h float64) {
	cw, ch := e.camera.Viewport()
	if cw == w && ch == h {
		return
	}
	e.camera.SetViewport(w, h)
	e.RequestRender()
}

// SetTree replaces the tree and focuses the node named by the current deep
// link, or the root. Lazy nodes along the link are loaded as they are
// reached. Background work for the old tree is ignored.
func (e *Explorer) SetTree(t *Tree) {
	prev := e.location.Fragment()
	e.tree = t
	e.highlight = nil
	e.setHover(nil)
	e.navSeq++
	e.waiters = make(map[uint32][]func(error))
	debugCheckTree(e.logger, t)
	e.logger.Info("tree loaded", "nodes", t.Len(), "leaves", t.Root().Leaves(), "depth", t.MaxDepth())
	if prev != "" {
		names := DecodePath(prev)
		node, used := t.ResolvePath(names)
		e.focusOn(node, cameraSnap)
		if used < len(names) && node.NeedsChildren() && e.loader != nil {
			e.resolveLink(names, e.navSeq, cameraSnap)
		}
		return
	}
	e.focusOn(t.Root(), cameraSnap)
}

// LoadRoot indexes root in the background with progress reporting, then
// installs it. The current tree stays active until indexing finishes.
func (e *Explorer) LoadRoot(title string, root *Node) {
	e.loadSeq++
	seq := e.loadSeq
	e.loading = &LoadState{Title: title}
	e.RequestRender()
	e.spawn(func(ctx context.Context) {
		t := IndexProgressive(root, IndexOptions{Progress: func(p Progress) {
			e.post(func() {
				if seq == e.loadSeq && e.loading != nil {
					e.loading.Progress = p
					e.RequestRender()
				}
			})
		}})
		e.post(func() {
			if seq != e.loadSeq {
				return
			}
			e.loading = nil
			e.SetTree(t)
		})
	})
}

// Load parses data in the background and then indexes it like LoadRoot.
// On a parse error the current tree stays active and the error is shown.
func (e *Explorer) Load(title string, data []byte, f Format) {
	e.loadSeq++
	seq := e.loadSeq
	e.loading = &LoadState{Title: title, Progress: Progress{Phase: "Parsing…"}}
	e.RequestRender()
	e.spawn(func(ctx context.Context) {
		root, err := Decode(data, f)
		e.post(func() {
			if seq != e.loadSeq {
				return
			}
			if err != nil {
				e.loading = nil
				e.logger.Error("load failed", "title", title, "err", err)
				e.flash(UserMessage(err), StatusError, statusLong)
				return
			}
			e.LoadRoot(title, root)
		})
	})
}

// Breadcrumbs returns the path from the root to the focus.
func (e *Explorer) Breadcrumbs() []*Node {
	if e.tree == nil || e.focus == nil {
		return nil
	}
	return e.tree.Path(e.focus)
}

// setHover records the hovered node and restarts the preview delay.
func (e *Explorer) setHover(n *Node) {
	if n == e.hover {
		return
	}
	e.hover = n
	e.hoverSince = e.now()
	e.hoverRequested = false
	if n == nil {
		e.hidePreview()
	}
	e.RequestRender()
}
