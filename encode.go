package canopy

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// docNode is the structured document shape read back by Decode.
type docNode struct {
	Name        string     `json:"name" yaml:"name"`
	Level       string     `json:"level,omitempty" yaml:"level,omitempty"`
	ChildrenURL string     `json:"childrenUrl,omitempty" yaml:"childrenUrl,omitempty"`
	Children    []*docNode `json:"children,omitempty" yaml:"children,omitempty"`
}

func toDoc(n *Node) *docNode {
	d := &docNode{Name: n.Name, Level: n.Level}
	if n.state == ChildrenPending {
		d.ChildrenURL = n.ChildrenURL
	}
	if len(n.children) > 0 {
		d.Children = make([]*docNode, len(n.children))
		for i, c := range n.children {
			d.Children[i] = toDoc(c)
		}
	}
	return d
}

// Encode writes root as a structured document in the given format. Unloaded
// lazy endpoints are kept as childrenUrl.
func Encode(w io.Writer, root *Node, f Format) error {
	doc := toDoc(root)
	if f == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return Wrap(ErrCodeInternal, err, "encode yaml")
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return Wrap(ErrCodeInternal, err, "encode json")
	}
	return nil
}
