package canopy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects an input decoder.
type Format uint8

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatForPath picks a decoder from a file extension. Anything that is not
// .yaml or .yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses data in the given format and normalizes it into a node tree.
func Decode(data []byte, f Format) (*Node, error) {
	if f == FormatYAML {
		return DecodeYAML(data)
	}
	return DecodeJSON(data)
}

// value is a decoded document element. Objects keep their key order.
type value struct {
	kind   valueKind
	scalar string
	null   bool
	items  []value
	keys   []string
	fields []value
}

type valueKind uint8

const (
	kindScalar valueKind = iota
	kindArray
	kindObject
)

func (v value) field(key string) (value, bool) {
	for i, k := range v.keys {
		if k == key {
			return v.fields[i], true
		}
	}
	return value{}, false
}

func (v value) has(key string) bool {
	_, ok := v.field(key)
	return ok
}

// DecodeJSON parses a JSON document and normalizes it into a node tree.
func DecodeJSON(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, Wrap(ErrCodeInvalidInput, err, "Invalid JSON: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, NewError(ErrCodeInvalidInput, "Invalid JSON: trailing data after top-level value")
	}
	return normalizeRoot(v)
}

func decodeJSONValue(dec *json.Decoder) (value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return value{}, io.ErrUnexpectedEOF
		}
		return value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			v := value{kind: kindArray}
			for dec.More() {
				item, err := decodeJSONValue(dec)
				if err != nil {
					return value{}, err
				}
				v.items = append(v.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return value{}, err
			}
			return v, nil
		case '{':
			v := value{kind: kindObject}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return value{}, err
				}
				key, _ := keyTok.(string)
				field, err := decodeJSONValue(dec)
				if err != nil {
					return value{}, err
				}
				v.setField(key, field)
			}
			if _, err := dec.Token(); err != nil {
				return value{}, err
			}
			return v, nil
		default:
			return value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case nil:
		return value{kind: kindScalar, null: true}, nil
	case string:
		return value{kind: kindScalar, scalar: t}, nil
	case json.Number:
		return value{kind: kindScalar, scalar: t.String()}, nil
	case bool:
		return value{kind: kindScalar, scalar: fmt.Sprint(t)}, nil
	default:
		return value{}, fmt.Errorf("unexpected token %v", tok)
	}
}

// setField keeps the first position of a repeated key and the last value.
func (v *value) setField(key string, field value) {
	for i, k := range v.keys {
		if k == key {
			v.fields[i] = field
			return
		}
	}
	v.keys = append(v.keys, key)
	v.fields = append(v.fields, field)
}

// DecodeYAML parses a YAML document and normalizes it the same way as JSON.
func DecodeYAML(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, Wrap(ErrCodeInvalidInput, err, "Invalid YAML: %v", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, NewError(ErrCodeInvalidInput, "Invalid YAML: empty document")
	}
	v, err := fromYAML(doc.Content[0])
	if err != nil {
		return nil, Wrap(ErrCodeInvalidInput, err, "Invalid YAML: %v", err)
	}
	return normalizeRoot(v)
}

func fromYAML(n *yaml.Node) (value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias == nil {
			return value{}, fmt.Errorf("line %d: dangling alias", n.Line)
		}
		return fromYAML(n.Alias)
	case yaml.SequenceNode:
		v := value{kind: kindArray}
		for _, c := range n.Content {
			item, err := fromYAML(c)
			if err != nil {
				return value{}, err
			}
			v.items = append(v.items, item)
		}
		return v, nil
	case yaml.MappingNode:
		v := value{kind: kindObject}
		for i := 0; i+1 < len(n.Content); i += 2 {
			field, err := fromYAML(n.Content[i+1])
			if err != nil {
				return value{}, err
			}
			v.setField(n.Content[i].Value, field)
		}
		return v, nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return value{kind: kindScalar, null: true}, nil
		}
		return value{kind: kindScalar, scalar: n.Value}, nil
	default:
		return value{}, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}

// normalizeRoot accepts the three top-level shapes: a bare array of roots, a
// structured node, or a key map of names.
func normalizeRoot(v value) (*Node, error) {
	switch v.kind {
	case kindArray:
		root := lifeRoot()
		addStructuredChildren(root, v)
		return root, nil
	case kindObject:
		if v.has("name") || v.has("children") {
			return structuredNode(v), nil
		}
		if len(v.keys) == 1 {
			root := NewNode(v.keys[0])
			mapChildren(root, v.fields[0])
			return root, nil
		}
		root := lifeRoot()
		mapChildren(root, v)
		return root, nil
	default:
		return nil, NewError(ErrCodeInvalidInput, "Top-level JSON must be an object or an array.")
	}
}

func lifeRoot() *Node {
	n := NewNode("Life")
	n.Level = "Life"
	return n
}

// structuredNode converts {name, level, children, childrenUrl}.
func structuredNode(v value) *Node {
	name := "Unnamed"
	if f, ok := v.field("name"); ok && f.kind == kindScalar && !f.null {
		name = f.scalar
	}
	n := NewNode(name)
	if f, ok := v.field("level"); ok && f.kind == kindScalar && !f.null {
		n.Level = f.scalar
	}
	if f, ok := v.field("childrenUrl"); ok && f.kind == kindScalar && !f.null {
		n.ChildrenURL = f.scalar
	}
	if f, ok := v.field("children"); ok {
		switch f.kind {
		case kindArray:
			addStructuredChildren(n, f)
		case kindObject:
			n.AddChild(structuredNode(f))
		}
	}
	if n.ChildrenURL != "" && len(n.children) == 0 {
		n.state = ChildrenPending
	}
	return n
}

func addStructuredChildren(parent *Node, arr value) {
	for _, item := range arr.items {
		switch {
		case item.kind == kindObject:
			parent.AddChild(structuredNode(item))
		case item.kind == kindScalar && !item.null && item.scalar != "":
			parent.AddChild(NewNode(item.scalar))
		}
	}
}

// mapChildren turns a key map into children: each key is a node, nested maps
// recurse, and arrays contribute their elements.
func mapChildren(parent *Node, v value) {
	switch v.kind {
	case kindObject:
		for i, key := range v.keys {
			child := NewNode(key)
			mapChildren(child, v.fields[i])
			parent.AddChild(child)
		}
	case kindArray:
		for _, item := range v.items {
			switch {
			case item.kind == kindObject && (item.has("name") || item.has("children")):
				parent.AddChild(structuredNode(item))
			case item.kind == kindObject:
				mapChildren(parent, item)
			case item.kind == kindScalar && !item.null && item.scalar != "":
				parent.AddChild(NewNode(item.scalar))
			}
		}
	}
}

// ParseChildPayload decodes a lazy child endpoint response: either a bare
// array or an object with a "children" array.
func ParseChildPayload(data []byte) ([]*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, Wrap(ErrCodeMalformedPayload, err, "Bad children payload")
	}
	arr := v
	if v.kind == kindObject {
		f, ok := v.field("children")
		if !ok {
			return nil, NewError(ErrCodeMalformedPayload, "Bad children payload: missing children")
		}
		arr = f
	}
	if arr.kind != kindArray {
		return nil, NewError(ErrCodeMalformedPayload, "Bad children payload")
	}
	holder := NewNode("")
	addStructuredChildren(holder, arr)
	return holder.children, nil
}
