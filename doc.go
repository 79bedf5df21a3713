// Package canopy is an interactive circle-packing explorer for tree-shaped
// data, built on [Ebitengine].
//
// A tree is drawn as nested circles. Users drill down by clicking, pan and
// zoom freely, follow breadcrumbs, search by name, share deep links and see
// image previews fetched from an encyclopedia service. Trees with tens of
// thousands of nodes stay interactive because only the visible part of the
// focused subtree is drawn each frame.
//
// # Quick start
//
// Decode a tree, index it and hand it to an [Explorer]. A [Viewer] runs the
// explorer in a window:
//
//	root, err := canopy.DecodeJSON(data)
//	if err != nil {
//		return err
//	}
//	ex := canopy.NewExplorer(1280, 800, canopy.Options{})
//	ex.SetTree(canopy.Index(root))
//
//	v, err := canopy.NewViewer(ex, canopy.ViewerOptions{Title: "canopy"})
//	if err != nil {
//		return err
//	}
//	return v.Run()
//
// Without a window, render the current view to PNG or SVG:
//
//	_, err = ex.ExportFile("tree.svg")
//
// # Model
//
// A [Tree] owns its [Node]s. Each node has a process-unique ID, a name, a
// level label and an ordered child list. The parent link is an ID looked up
// through [Tree.Parent]. Nodes whose children live behind a URL are loaded
// on demand through a [ChildLoader] and attached with [Tree.Attach].
//
// # Layout and camera
//
// [Pack] lays out the focused subtree as nested circles centered on the
// origin. The [Camera] maps that world space onto the viewport and animates
// between views with eased tweens (via [gween]). The culler ([InRadialView],
// [InVerticalBand]) and the picker ([Layout.Pick]) share the camera's
// transform, so what is drawn is what can be clicked.
//
// # Rendering
//
// [Renderer] draws a [Scene] onto any [Canvas]: the Ebitengine canvas used
// by the viewer, the gg raster canvas ([ImageCanvas]) or the svgo vector
// canvas ([SVGCanvas]).
//
// # Concurrency
//
// An Explorer is owned by one goroutine. Network fetches, parsing and
// indexing run in the background and post their results back; [Explorer.Update]
// applies them each frame and [Explorer.Flush] waits for all of them.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package canopy
