package canopy

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// nodeIDCounter is process-global and never reset, so IDs stay unique across
// tree reloads. Atomic because trees are built on loader goroutines.
var nodeIDCounter atomic.Uint32

func nextNodeID() uint32 {
	return nodeIDCounter.Add(1)
}

// ChildrenState records where a node's children came from.
type ChildrenState uint8

const (
	ChildrenPending ChildrenState = iota // not yet expanded; may have a ChildrenURL
	ChildrenRemote                       // attached from the lazy child endpoint
	ChildrenInline                       // present in the input document
)

func (s ChildrenState) String() string {
	switch s {
	case ChildrenPending:
		return "pending"
	case ChildrenRemote:
		return "remote"
	case ChildrenInline:
		return "inline"
	default:
		return "unknown"
	}
}

// Levels are the canonical rank labels assigned by depth.
var Levels = []string{"Life", "Domain", "Kingdom", "Phylum", "Class", "Order", "Family", "Genus", "Species"}

// LevelForDepth returns the canonical rank for depth, or "Level N" past the
// end of Levels.
func LevelForDepth(depth int) string {
	if depth >= 0 && depth < len(Levels) {
		return Levels[depth]
	}
	return genericLevel(depth)
}

func genericLevel(depth int) string {
	return "Level " + strconv.Itoa(depth)
}

// Node is one element of the hierarchy. Children are owned by their parent;
// the parent link is an ID resolved through the owning Tree.
type Node struct {
	// ID is assigned by the indexer and never reused. Zero means unindexed.
	ID    uint32
	Name  string
	Level string
	// ChildrenURL is the lazy endpoint for this node's children, if any.
	ChildrenURL string

	children []*Node
	parentID uint32
	depth    int
	leaves   int
	state    ChildrenState
}

// NewNode creates an unindexed node with the given name. An empty name
// becomes "Unnamed".
func NewNode(name string) *Node {
	if strings.TrimSpace(name) == "" {
		name = "Unnamed"
	}
	return &Node{Name: name, state: ChildrenInline}
}

// AddChild appends child. Only valid before the node is indexed; indexed
// trees grow through Tree.Attach.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("canopy: cannot add nil child")
	}
	n.children = append(n.children, child)
}

// Children returns the ordered child list. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// IsLeaf reports whether the node currently has no children.
func (n *Node) IsLeaf() bool {
	return len(n.children) == 0
}

// Leaves returns the memoized leaf-descendant count (1 for a leaf).
func (n *Node) Leaves() int {
	return n.leaves
}

// Depth returns the distance from the tree root.
func (n *Node) Depth() int {
	return n.depth
}

// ParentID returns the parent's ID, or 0 for a root.
func (n *Node) ParentID() uint32 {
	return n.parentID
}

// ChildrenState reports where the children came from.
func (n *Node) ChildrenState() ChildrenState {
	return n.state
}

// NeedsChildren reports whether the node has an unexpanded lazy endpoint.
func (n *Node) NeedsChildren() bool {
	return n.state == ChildrenPending && n.ChildrenURL != "" && len(n.children) == 0
}

// Tree is an indexed hierarchy: ID lookup, parent resolution and the name
// index. Build one with Index or IndexProgressive.
type Tree struct {
	root  *Node
	byID  map[uint32]*Node
	order []*Node // registration order

	names    map[string][]*Node
	nameKeys []string // first-seen order
}

func newTree(root *Node) *Tree {
	return &Tree{
		root:  root,
		byID:  make(map[uint32]*Node),
		names: make(map[string][]*Node),
	}
}

// Root returns the tree root.
func (t *Tree) Root() *Node {
	return t.root
}

// Len returns the number of indexed nodes.
func (t *Tree) Len() int {
	return len(t.order)
}

// Nodes returns every indexed node in registration order.
func (t *Tree) Nodes() []*Node {
	return t.order
}

// Node looks up a node by ID.
func (t *Tree) Node(id uint32) *Node {
	return t.byID[id]
}

// Parent returns n's parent, or nil for the root or a foreign node.
func (t *Tree) Parent(n *Node) *Node {
	if n == nil || n.parentID == 0 {
		return nil
	}
	return t.byID[n.parentID]
}

// Contains reports whether n belongs to this tree.
func (t *Tree) Contains(n *Node) bool {
	return n != nil && t.byID[n.ID] == n
}

// Path returns the ancestors of n from the root down to n itself.
func (t *Tree) Path(n *Node) []*Node {
	var rev []*Node
	for p := n; p != nil; p = t.Parent(p) {
		rev = append(rev, p)
	}
	path := make([]*Node, len(rev))
	for i, p := range rev {
		path[len(rev)-1-i] = p
	}
	return path
}

// Leaves returns every leaf in registration order.
func (t *Tree) Leaves() []*Node {
	var out []*Node
	for _, n := range t.order {
		if n.IsLeaf() {
			out = append(out, n)
		}
	}
	return out
}

// MaxDepth returns the depth of the deepest indexed node.
func (t *Tree) MaxDepth() int {
	d := 0
	for _, n := range t.order {
		d = max(d, n.depth)
	}
	return d
}

// LevelCounts returns how many nodes carry each level label, keyed by label.
func (t *Tree) LevelCounts() map[string]int {
	counts := make(map[string]int)
	for _, n := range t.order {
		counts[n.Level]++
	}
	return counts
}

func (t *Tree) register(n *Node) {
	t.byID[n.ID] = n
	t.order = append(t.order, n)
	key := nameKey(n.Name)
	if _, ok := t.names[key]; !ok {
		t.nameKeys = append(t.nameKeys, key)
	}
	t.names[key] = append(t.names[key], n)
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
