package canopy

import "github.com/charmbracelet/log"

// debugLog reports per-frame render statistics.
func (r *Renderer) debugLog(st Stats) {
	if r.logger == nil {
		return
	}
	r.logger.Debug("frame",
		"considered", st.Considered,
		"drawn", st.Drawn,
		"labels", st.LabelsPlaced,
		"offered", st.LabelsOffered,
		"highlight", st.Highlighted,
		"elapsed", st.Elapsed)
}

// Thresholds above which a tree shape is likely to make layout or
// rendering slow.
const (
	debugMaxTreeDepth  = 64
	debugMaxChildCount = 1000
)

// debugCheckTree warns about very deep trees and very wide nodes.
func debugCheckTree(logger *log.Logger, t *Tree) {
	if logger == nil || t == nil {
		return
	}
	if d := t.MaxDepth(); d > debugMaxTreeDepth {
		logger.Warn("tree is very deep", "depth", d, "threshold", debugMaxTreeDepth)
	}
	for _, n := range t.Nodes() {
		if n.NumChildren() > debugMaxChildCount {
			logger.Warn("node has many children", "node", n.Name, "children", n.NumChildren(), "threshold", debugMaxChildCount)
		}
	}
}
