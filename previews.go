package canopy

import (
	"context"
	"image"
	"strings"

	"golang.org/x/sync/singleflight"
)

// ThumbnailSource finds and downloads preview images for node names.
type ThumbnailSource interface {
	// ThumbnailURL returns an image URL for name, or "" if there is none.
	ThumbnailURL(ctx context.Context, name string) (string, error)
	FetchImage(ctx context.Context, url string) (image.Image, error)
}

// Preview is the image currently shown for a node.
type Preview struct {
	Name  string
	URL   string
	Image image.Image
}

type previewEntry struct {
	url string
	img image.Image
}

// previews caches thumbnails per lowercased name for the session. Misses
// and failures are cached as "no image". The generation counter discards
// results for requests that have since been superseded.
type previews struct {
	src     ThumbnailSource
	cache   map[string]previewEntry
	group   singleflight.Group
	gen     uint64
	current *Preview
	pinned  bool
	// forID is the node the current request or preview belongs to.
	forID uint32
}

func newPreviews(src ThumbnailSource) *previews {
	return &previews{src: src, cache: make(map[string]previewEntry)}
}

func validImageURL(u string) bool {
	l := strings.ToLower(u)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// requestPreview asks for n's thumbnail. Pinned previews are left alone.
func (e *Explorer) requestPreview(n *Node) {
	p := e.previews
	if p == nil || p.src == nil || p.pinned || n == nil {
		return
	}
	if p.forID == n.ID {
		return
	}
	p.gen++
	gen := p.gen
	p.forID = n.ID
	key := nameKey(n.Name)

	if entry, ok := p.cache[key]; ok {
		e.showPreview(n.Name, entry)
		return
	}
	p.current = nil
	e.RequestRender()

	name := n.Name
	e.spawn(func(ctx context.Context) {
		v, _, _ := p.group.Do(key, func() (any, error) {
			return fetchPreview(ctx, p.src, name), nil
		})
		entry := v.(previewEntry)
		e.post(func() {
			if entry.img == nil && ctx.Err() != nil {
				return
			}
			p.cache[key] = entry
			if gen != p.gen || p.pinned {
				return
			}
			e.showPreview(name, entry)
		})
	})
}

// fetchPreview resolves and downloads one thumbnail. Every failure maps to
// "no image".
func fetchPreview(ctx context.Context, src ThumbnailSource, name string) previewEntry {
	u, err := src.ThumbnailURL(ctx, name)
	if err != nil || !validImageURL(u) {
		return previewEntry{}
	}
	img, err := src.FetchImage(ctx, u)
	if err != nil {
		return previewEntry{}
	}
	return previewEntry{url: u, img: img}
}

func (e *Explorer) showPreview(name string, entry previewEntry) {
	if entry.img == nil {
		e.previews.current = nil
	} else {
		e.previews.current = &Preview{Name: name, URL: entry.url, Image: entry.img}
	}
	e.RequestRender()
}

// hidePreview drops the preview unless it is pinned.
func (e *Explorer) hidePreview() {
	p := e.previews
	if p == nil || p.pinned {
		return
	}
	p.gen++
	p.forID = 0
	if p.current != nil {
		p.current = nil
		e.RequestRender()
	}
}

// Preview returns the preview currently shown, if any.
func (e *Explorer) Preview() *Preview {
	if e.previews == nil {
		return nil
	}
	return e.previews.current
}

// PreviewPinned reports whether the preview is pinned.
func (e *Explorer) PreviewPinned() bool {
	return e.previews != nil && e.previews.pinned
}

// TogglePin pins the current preview so hovering elsewhere does not replace
// it, or unpins it. Pinning with nothing shown does nothing.
func (e *Explorer) TogglePin() bool {
	p := e.previews
	if p == nil {
		return false
	}
	if p.pinned {
		p.pinned = false
		p.forID = 0
		e.flash("Preview unpinned", StatusInfo, statusShort)
		if e.hover != nil {
			e.requestPreview(e.hover)
		}
		return false
	}
	if p.current == nil {
		return false
	}
	p.pinned = true
	e.flash("Preview pinned", StatusInfo, statusShort)
	return true
}
