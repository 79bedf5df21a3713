package canopy

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// MatchKind says which search tier produced a match.
type MatchKind uint8

const (
	MatchNone MatchKind = iota
	MatchExact
	MatchSubstring
	MatchFuzzy
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchSubstring:
		return "substring"
	case MatchFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Find looks up a node by name, case-insensitively. An exact name match wins;
// otherwise the first name in index order containing the query; otherwise the
// best fuzzy match. Within a name, the first registered node is returned.
func (t *Tree) Find(query string) (*Node, MatchKind) {
	q := nameKey(query)
	if q == "" {
		return nil, MatchNone
	}
	if nodes := t.names[q]; len(nodes) > 0 {
		return nodes[0], MatchExact
	}
	for _, key := range t.nameKeys {
		if strings.Contains(key, q) {
			return t.names[key][0], MatchSubstring
		}
	}
	if matches := fuzzy.Find(q, t.nameKeys); len(matches) > 0 {
		return t.names[matches[0].Str][0], MatchFuzzy
	}
	return nil, MatchNone
}

// Suggest returns up to limit distinct node names matching query, best
// first, for search-as-you-type hints.
func (t *Tree) Suggest(query string, limit int) []string {
	q := nameKey(query)
	if q == "" || limit <= 0 {
		return nil
	}
	matches := fuzzy.Find(q, t.nameKeys)
	out := make([]string, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, t.names[m.Str][0].Name)
	}
	return out
}
