package canopy

import (
	"runtime"

	"github.com/dustin/go-humanize"
)

// DefaultIndexChunk is how many nodes are indexed between progress reports.
const DefaultIndexChunk = 500

// Progress describes how far indexing has come.
type Progress struct {
	Done  int
	Total int
	Phase string
	// Fraction is monotonic in [0, 1] over one indexing run.
	Fraction float64
}

// IndexOptions configures IndexProgressive.
type IndexOptions struct {
	// ChunkSize is the number of nodes between progress reports and yields.
	ChunkSize int
	// Progress, if set, is called from the indexing goroutine.
	Progress func(Progress)
}

// Index indexes root in one pass without progress reporting.
func Index(root *Node) *Tree {
	return IndexProgressive(root, IndexOptions{})
}

// IndexProgressive assigns IDs, levels, parents and depths, registers names
// and computes leaf counts for the tree under root. Traversal is iterative so
// arbitrarily deep inputs are safe. Every ChunkSize nodes it reports progress
// and yields the processor.
func IndexProgressive(root *Node, opts IndexOptions) *Tree {
	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = DefaultIndexChunk
	}
	report := opts.Progress
	if report == nil {
		report = func(Progress) {}
	}

	t := newTree(root)
	total := countNodes(root)
	report(Progress{Total: total, Phase: "Indexing…"})

	type frame struct {
		n      *Node
		parent uint32
		depth  int
	}
	stack := []frame{{n: root}}
	done := 0
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		indexNode(t, f.n, f.parent, f.depth, LevelForDepth)
		done++

		// Push in reverse so children are visited in input order.
		for i := len(f.n.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{n: f.n.children[i], parent: f.n.ID, depth: f.depth + 1})
		}

		if done%chunk == 0 {
			report(Progress{
				Done:     done,
				Total:    total,
				Phase:    "Indexing… " + humanize.Comma(int64(done)) + "/" + humanize.Comma(int64(total)),
				Fraction: 0.95 * float64(done) / float64(total),
			})
			runtime.Gosched()
		}
	}

	report(Progress{Done: done, Total: total, Phase: "Computing descendant counts…", Fraction: 0.98})
	countLeaves(t.order)
	report(Progress{Done: done, Total: total, Phase: "Done", Fraction: 1})
	return t
}

// indexNode fills in the bookkeeping for one node. Existing IDs are kept.
func indexNode(t *Tree, n *Node, parent uint32, depth int, level func(int) string) {
	if n.ID == 0 {
		n.ID = nextNodeID()
	}
	if n.Name == "" {
		n.Name = "Unnamed"
	}
	if n.Level == "" {
		n.Level = level(depth)
	}
	n.parentID = parent
	n.depth = depth
	if len(n.children) > 0 && n.state == ChildrenPending {
		n.state = ChildrenInline
	}
	t.register(n)
}

func countNodes(root *Node) int {
	count := 0
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		stack = append(stack, n.children...)
	}
	return count
}

// countLeaves computes leaf counts bottom-up. preorder must list every parent
// before its descendants.
func countLeaves(preorder []*Node) {
	for i := len(preorder) - 1; i >= 0; i-- {
		n := preorder[i]
		if len(n.children) == 0 {
			n.leaves = 1
			continue
		}
		sum := 0
		for _, c := range n.children {
			sum += c.leaves
		}
		n.leaves = sum
	}
}

// Attach adds children under parent, indexes them and their descendants, and
// updates leaf counts on every ancestor. Attached subtrees are labelled
// "Level N" by depth unless a node carries an explicit level. Attach is a
// no-op on a node that is not part of t.
func (t *Tree) Attach(parent *Node, children []*Node, state ChildrenState) {
	if !t.Contains(parent) {
		return
	}
	before := parent.leaves
	start := len(t.order)

	type frame struct {
		n      *Node
		parent uint32
		depth  int
	}
	stack := make([]frame, 0, len(children))
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, frame{n: children[i], parent: parent.ID, depth: parent.depth + 1})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		indexNode(t, f.n, f.parent, f.depth, genericLevel)
		for i := len(f.n.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{n: f.n.children[i], parent: f.n.ID, depth: f.depth + 1})
		}
	}

	parent.children = append(parent.children, children...)
	parent.state = state

	countLeaves(t.order[start:])
	if len(parent.children) == 0 {
		return
	}
	sum := 0
	for _, c := range parent.children {
		sum += c.leaves
	}
	parent.leaves = sum

	delta := parent.leaves - before
	for p := t.Parent(parent); p != nil && delta != 0; p = t.Parent(p) {
		p.leaves += delta
	}
}
