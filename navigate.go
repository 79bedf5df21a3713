package canopy

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// cameraMode selects how the camera reaches a new focus.
type cameraMode uint8

const (
	cameraSnap   cameraMode = iota // jump to fit the layout exactly
	cameraFocus                    // animate, leaving a small margin
	cameraReveal                   // animate to fit the layout exactly
)

// focusPad is the pixel margin kept around an animated focus.
const focusPad = 20

var errStaleTree = errors.New("tree replaced")

// GoTo makes n the focus. If n has an unexpanded lazy endpoint its children
// are loaded first; only the most recent navigation request takes effect
// once loading finishes. On load failure the focus does not change.
func (e *Explorer) GoTo(n *Node, animate bool) {
	mode := cameraSnap
	if animate {
		mode = cameraFocus
	}
	e.navigate(n, mode, nil)
}

// navigate loads n's children if needed, then focuses n and runs then.
func (e *Explorer) navigate(n *Node, mode cameraMode, then func()) {
	if e.tree == nil || !e.tree.Contains(n) {
		return
	}
	e.navSeq++
	seq := e.navSeq
	if n.NeedsChildren() && e.loader != nil {
		e.loadChildren(n, func(err error) {
			if err != nil || seq != e.navSeq {
				return
			}
			e.focusOn(n, mode)
			if then != nil {
				then()
			}
		})
		return
	}
	e.focusOn(n, mode)
	if then != nil {
		then()
	}
}

// focusOn re-packs around n, updates the deep link and moves the camera.
func (e *Explorer) focusOn(n *Node, mode cameraMode) {
	e.focus = n
	w, h := e.camera.Viewport()
	e.layout = Pack(n, w, h, PackOptions{Padding: e.settings.Padding, Margin: e.settings.Margin})
	e.location.Replace(e.tree.Link(n))

	d := e.layout.Diameter
	switch mode {
	case cameraSnap:
		e.camera.SetState(0, 0, math.Min(w, h)/d)
	case cameraFocus:
		e.camera.AnimateTo(0, 0, math.Min((w-focusPad)/d, (h-focusPad)/d), e.settings.AnimationDuration)
	case cameraReveal:
		e.camera.AnimateTo(0, 0, math.Min(w, h)/d, e.settings.AnimationDuration)
	}
	e.logger.Debug("focus", "node", n.Name, "id", n.ID, "circles", len(e.layout.Circles))
	e.RequestRender()
}

// relayoutPreserveView re-packs the focus without moving the camera.
func (e *Explorer) relayoutPreserveView() {
	if e.focus == nil {
		return
	}
	w, h := e.camera.Viewport()
	e.layout = Pack(e.focus, w, h, PackOptions{Padding: e.settings.Padding, Margin: e.settings.Margin})
	e.RequestRender()
}

// loadChildren fetches n's children once; concurrent callers share the
// result. On failure n stays unexpanded so a later attempt can retry.
func (e *Explorer) loadChildren(n *Node, done func(error)) {
	if waiting, ok := e.waiters[n.ID]; ok {
		e.waiters[n.ID] = append(waiting, done)
		return
	}
	e.waiters[n.ID] = []func(error){done}
	tree := e.tree
	url := n.ChildrenURL
	e.setSticky(fmt.Sprintf("Loading %s…", n.Name))
	e.logger.Debug("loading children", "node", n.Name, "url", url)

	e.spawn(func(ctx context.Context) {
		kids, err := e.loader.LoadChildren(ctx, url)
		e.post(func() {
			e.clearSticky()
			if e.tree != tree {
				err = errStaleTree
			} else {
				waiting := e.waiters[n.ID]
				delete(e.waiters, n.ID)
				defer func() {
					for _, fn := range waiting {
						fn(err)
					}
				}()
			}
			if err != nil {
				if !errors.Is(err, errStaleTree) {
					e.logger.Warn("load children failed", "node", n.Name, "url", url, "err", err)
					e.flash(fmt.Sprintf("Couldn't load %s: %s", n.Name, UserMessage(err)), StatusWarn, statusLong)
				}
				return
			}
			if n.NeedsChildren() {
				tree.Attach(n, kids, ChildrenRemote)
				e.logger.Debug("children attached", "node", n.Name, "count", len(kids))
				if e.layout.Has(n) {
					e.relayoutPreserveView()
				}
			}
		})
	})
}

// GoParent focuses the parent of the current focus.
func (e *Explorer) GoParent() {
	if e.tree == nil {
		return
	}
	if p := e.tree.Parent(e.focus); p != nil {
		e.GoTo(p, true)
	}
}

// Reset focuses the root and clears the highlight.
func (e *Explorer) Reset() {
	if e.tree == nil {
		return
	}
	e.highlight = nil
	e.GoTo(e.tree.Root(), true)
	e.RequestRender()
}

// Fit zooms so n's circle spans frac of the smaller viewport side, without
// re-packing. It reports false if n is not in the current layout.
func (e *Explorer) Fit(n *Node, frac float64) bool {
	c, ok := e.layout.Circle(n)
	if !ok || c.R <= 0 {
		return false
	}
	w, h := e.camera.Viewport()
	e.camera.AnimateTo(c.X, c.Y, math.Min(w, h)*frac/c.R, e.settings.AnimationDuration)
	e.RequestRender()
	return true
}

// FitTarget fits the hovered node, or the focus when nothing is hovered.
func (e *Explorer) FitTarget() bool {
	target := e.hover
	if target == nil {
		target = e.focus
	}
	return e.Fit(target, e.settings.FitFraction)
}

// Click handles a primary click: clicking the focus fits it, clicking any
// other node navigates to it.
func (e *Explorer) Click(sx, sy float64) *Node {
	n := e.layout.Pick(e.camera, e.settings, sx, sy)
	if n == nil {
		return nil
	}
	if n == e.focus {
		e.Fit(n, e.settings.ClickFitFraction)
		return n
	}
	e.GoTo(n, true)
	return n
}

// Search focuses and highlights the best match for query. With no match
// the focus is unchanged and a short warning is shown.
func (e *Explorer) Search(query string) (*Node, MatchKind) {
	if e.tree == nil {
		return nil, MatchNone
	}
	n, kind := e.tree.Find(query)
	if n == nil {
		e.flash(fmt.Sprintf("No match for “%s”", query), StatusWarn, statusNoMatch)
		return nil, MatchNone
	}
	e.navigate(n, cameraReveal, func() {
		e.highlight = n
	})
	return n, kind
}

// ClearHighlight removes the highlight ring.
func (e *Explorer) ClearHighlight() {
	if e.highlight != nil {
		e.highlight = nil
		e.RequestRender()
	}
}

// Surprise focuses and highlights a random leaf.
func (e *Explorer) Surprise() *Node {
	if e.tree == nil {
		return nil
	}
	leaves := e.tree.Leaves()
	if len(leaves) == 0 {
		return nil
	}
	n := leaves[e.rng.IntN(len(leaves))]
	e.navigate(n, cameraReveal, func() {
		e.highlight = n
	})
	return n
}

// OpenLink focuses the node named by a deep link. Unexpanded nodes along
// the path are loaded as they are reached; resolution stops at the deepest
// node that matches.
func (e *Explorer) OpenLink(link string) {
	if e.tree == nil {
		return
	}
	names := DecodePath(FragmentFromLink(link))
	e.navSeq++
	e.resolveLink(names, e.navSeq, cameraFocus)
}

func (e *Explorer) resolveLink(names []string, seq uint64, mode cameraMode) {
	node, used := e.tree.ResolvePath(names)
	if used < len(names) && node.NeedsChildren() && e.loader != nil {
		e.loadChildren(node, func(err error) {
			if seq != e.navSeq {
				return
			}
			if err != nil {
				e.focusOn(node, mode)
				return
			}
			e.resolveLink(names, seq, mode)
		})
		return
	}
	e.focusOn(node, mode)
}

// Pan drags the view by a screen-space delta.
func (e *Explorer) Pan(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	e.camera.Pan(dx, dy)
	e.RequestRender()
}

// Wheel zooms about (sx, sy) by exp(notches*WheelStep). Positive notches
// zoom in.
func (e *Explorer) Wheel(sx, sy, notches float64) {
	if notches == 0 {
		return
	}
	e.camera.ZoomAt(sx, sy, math.Exp(notches*e.settings.WheelStep))
	e.RequestRender()
}

// PointerMove updates the hovered node.
func (e *Explorer) PointerMove(sx, sy float64) *Node {
	n := e.layout.Pick(e.camera, e.settings, sx, sy)
	e.setHover(n)
	return n
}

// PointerLeave clears the hover.
func (e *Explorer) PointerLeave() {
	e.setHover(nil)
}

// Tooltip describes the hovered node: its name with level, and its
// descendant count.
func (e *Explorer) Tooltip() (title, meta string, ok bool) {
	n := e.hover
	if n == nil {
		return "", "", false
	}
	title = n.Name
	if n.Level != "" {
		title += " (" + n.Level + ")"
	}
	leaves := max(n.Leaves(), 1)
	meta = humanize.Comma(int64(leaves)) + " descendant"
	if leaves != 1 {
		meta += "s"
	}
	return title, meta, true
}

// searchTarget is the node provider searches apply to.
func (e *Explorer) searchTarget() *Node {
	switch {
	case e.hover != nil:
		return e.hover
	case e.focus != nil:
		return e.focus
	case e.tree != nil:
		return e.tree.Root()
	default:
		return nil
	}
}

// SearchProvider opens the selected provider's search for the hovered node,
// the focus, or the root, and returns the URL.
func (e *Explorer) SearchProvider() (string, error) {
	n := e.searchTarget()
	if n == nil {
		return "", NewError(ErrCodeNotFound, "nothing to search for")
	}
	u := ProviderURL(e.provider, n.Name)
	if e.opener == nil {
		return u, nil
	}
	if err := e.opener.OpenURL(u); err != nil {
		e.logger.Warn("open provider", "url", u, "err", err)
		e.flash("Couldn't open browser", StatusWarn, statusShort)
		return u, err
	}
	return u, nil
}

// CycleProvider selects the next (step > 0) or previous provider.
func (e *Explorer) CycleProvider(step int) string {
	e.provider = NextProvider(e.provider, step)
	e.flash("Search provider: "+e.provider, StatusInfo, statusShort)
	return e.provider
}

// CopyLink writes Source#fragment to the clipboard and returns it.
func (e *Explorer) CopyLink() (string, error) {
	link := e.location.URL(e.source)
	if e.clipboard == nil {
		return link, nil
	}
	if err := e.clipboard.WriteAll(link); err != nil {
		e.flash("Couldn't copy link", StatusWarn, statusShort)
		return link, err
	}
	e.flash("Link copied", StatusInfo, statusShort)
	return link, nil
}

// PasteLink reads a link from the clipboard and opens it.
func (e *Explorer) PasteLink() error {
	if e.clipboard == nil {
		return nil
	}
	link, err := e.clipboard.ReadAll()
	if err != nil {
		e.flash("Couldn't read clipboard", StatusWarn, statusShort)
		return err
	}
	e.OpenLink(link)
	return nil
}
