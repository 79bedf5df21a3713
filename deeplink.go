package canopy

import (
	"net/url"
	"strings"
)

// EncodePath builds a deep-link fragment from the names along a path. Each
// name has "%" and "/" escaped so any name survives the round trip; the
// "/"-joined result is then percent-encoded as a whole.
func EncodePath(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = escapeSegment(n)
	}
	return url.PathEscape(strings.Join(parts, "/"))
}

// DecodePath splits a deep-link fragment back into names. A leading "#" is
// ignored. Fragments that fail to unescape are used as-is.
func DecodePath(fragment string) []string {
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" {
		return nil
	}
	raw, err := url.PathUnescape(fragment)
	if err != nil {
		raw = fragment
	}
	parts := strings.Split(raw, "/")
	out := parts[:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, unescapeSegment(p))
	}
	return out
}

func escapeSegment(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	return strings.ReplaceAll(s, "/", "%2F")
}

func unescapeSegment(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}

// PathNames returns the names from the root down to n.
func (t *Tree) PathNames(n *Node) []string {
	path := t.Path(n)
	names := make([]string, len(path))
	for i, p := range path {
		names[i] = p.Name
	}
	return names
}

// Link returns the deep-link fragment for n.
func (t *Tree) Link(n *Node) string {
	return EncodePath(t.PathNames(n))
}

// ResolvePath walks names from the root, skipping the first name (the root
// itself), matching child names exactly and taking the first match. It
// returns the deepest node reached and how many names were consumed,
// including the root name.
func (t *Tree) ResolvePath(names []string) (*Node, int) {
	node := t.root
	if len(names) == 0 {
		return node, 0
	}
	used := 1
	for _, name := range names[1:] {
		child := childNamed(node, name)
		if child == nil {
			break
		}
		node = child
		used++
	}
	return node, used
}

func childNamed(n *Node, name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Location tracks the current deep-link fragment. Replace only records a
// change when the fragment differs, so re-focusing the same node does not
// add history.
type Location struct {
	fragment string
	changes  int
}

// Fragment returns the current fragment without a leading "#".
func (l *Location) Fragment() string {
	return l.fragment
}

// Replace sets the fragment and reports whether it changed.
func (l *Location) Replace(fragment string) bool {
	if fragment == l.fragment {
		return false
	}
	l.fragment = fragment
	l.changes++
	return true
}

// Changes returns how many times the fragment actually changed.
func (l *Location) Changes() int {
	return l.changes
}

// URL joins a source reference and the fragment as "source#fragment".
func (l *Location) URL(source string) string {
	if l.fragment == "" {
		return source
	}
	return source + "#" + l.fragment
}

// FragmentFromLink extracts the fragment from a full link, a bare fragment,
// or a plain "A/B/C" path.
func FragmentFromLink(link string) string {
	link = strings.TrimSpace(link)
	if i := strings.LastIndexByte(link, '#'); i >= 0 {
		return link[i+1:]
	}
	return link
}
