package document

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

const maxNesting = 1000

var errTooDeep = errors.New("document nested too deeply")

// ParseYAML parses YAML content into a Document. name is used in errors.
// Duplicate mapping keys are rejected.
func ParseYAML(name string, content []byte) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(content, &node); err != nil {
		return nil, &ParseError{File: name, Err: err}
	}

	root := Null()
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		v, err := fromNode(node.Content[0], 0)
		if err != nil {
			return nil, &ParseError{File: name, Err: err}
		}
		root = v
	}

	return &Document{Path: name, Format: FormatYAML, Root: root}, nil
}

func fromNode(n *yaml.Node, depth int) (Value, error) {
	if depth > maxNesting {
		return Value{}, errTooDeep
	}

	switch n.Kind {
	case yaml.AliasNode:
		return fromNode(n.Alias, depth+1)

	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c, depth+1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Value{kind: KindSequence, items: items}, nil

	case yaml.MappingNode:
		return fromMappingNode(n, depth)

	case yaml.ScalarNode:
		return fromScalar(n)
	}

	return Null(), nil
}

func fromMappingNode(n *yaml.Node, depth int) (Value, error) {
	m := NewMapping()
	explicit := make(map[string]int)
	var merges []*yaml.Node

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge" {
			merges = append(merges, v)
			continue
		}
		if k.Kind != yaml.ScalarNode {
			return Value{}, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
		}
		if line, dup := explicit[k.Value]; dup {
			return Value{}, fmt.Errorf("line %d: mapping key %q already defined at line %d", k.Line, k.Value, line)
		}
		explicit[k.Value] = k.Line

		val, err := fromNode(v, depth+1)
		if err != nil {
			return Value{}, err
		}
		m.Set(k.Value, val)
	}

	for _, src := range merges {
		if err := mergeInto(m, explicit, src, depth+1); err != nil {
			return Value{}, err
		}
	}

	return Map(m), nil
}

// mergeInto applies a "<<" merge key. Explicit keys and earlier merges win.
func mergeInto(m *Mapping, explicit map[string]int, src *yaml.Node, depth int) error {
	if src.Kind == yaml.SequenceNode {
		for _, c := range src.Content {
			if err := mergeInto(m, explicit, c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	v, err := fromNode(src, depth)
	if err != nil {
		return err
	}
	merged := v.Mapping()
	if merged == nil {
		return fmt.Errorf("line %d: merge value must be a mapping", src.Line)
	}
	for _, k := range merged.Keys() {
		if _, ok := explicit[k]; ok || m.Has(k) {
			continue
		}
		mv, _ := merged.Get(k)
		m.Set(k, mv)
	}
	return nil
}

func fromScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Value{kind: KindNull, raw: n.Value}, nil

	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Value{kind: KindBool, raw: n.Value, b: b}, nil

	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return Value{kind: KindInt, raw: n.Value, i: i}, nil
		}
		// Out of int64 range.
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Value{kind: KindFloat, raw: n.Value, f: f}, nil

	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Value{kind: KindFloat, raw: n.Value, f: f}, nil
	}

	// !!str, !!timestamp, !!binary and application tags such as !vault
	// are kept as text.
	return Value{kind: KindString, raw: n.Value, str: n.Value}, nil
}

// EncodeYAML serializes a value as YAML. Mapping keys keep their order, so
// equal values always produce identical bytes.
func EncodeYAML(v Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toNode(v)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toNode(v Value) *yaml.Node {
	switch v.kind {
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.str}
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}
	case KindInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.i, 10)}
	case KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(v.f)}
	case KindSequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.items {
			n.Content = append(n.Content, toNode(item))
		}
		return n
	case KindMapping:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range v.m.Keys() {
			item, _ := v.m.Get(k)
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				toNode(item),
			)
		}
		return n
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}
