package schema

import (
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

const draft2020 = "https://json-schema.org/draft/2020-12/schema"

// JSONSchema renders the rules of a document domain as a JSON Schema so
// editors and other tools can validate the same files.
func JSONSchema(d Domain) (*jsonschema.Schema, error) {
	if d == DomainMakefile {
		return nil, fmt.Errorf("domain %s describes make targets, not a document", d)
	}
	rules, err := Rules(d)
	if err != nil {
		return nil, err
	}
	root := RulesJSONSchema(rules)
	root.Schema = draft2020
	root.Title = "labcheck " + string(d)
	return root, nil
}

// RulesJSONSchema converts a rule list into an object schema. Dotted keys
// become nested required properties.
func RulesJSONSchema(rules []Rule) *jsonschema.Schema {
	root := objectSchema()
	for _, r := range rules {
		parent := root
		segments := strings.Split(r.Key, ".")
		for _, seg := range segments[:len(segments)-1] {
			parent = child(parent, seg)
		}
		leaf := segments[len(segments)-1]
		if _, ok := parent.Properties[leaf]; !ok {
			parent.PropertyOrder = append(parent.PropertyOrder, leaf)
			parent.Required = append(parent.Required, leaf)
		}
		parent.Properties[leaf] = ruleSchema(r)
	}
	return root
}

func objectSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}}
}

func child(parent *jsonschema.Schema, name string) *jsonschema.Schema {
	if s, ok := parent.Properties[name]; ok {
		return s
	}
	s := objectSchema()
	parent.Properties[name] = s
	parent.PropertyOrder = append(parent.PropertyOrder, name)
	parent.Required = append(parent.Required, name)
	return s
}

func ruleSchema(r Rule) *jsonschema.Schema {
	s := typeSchema(r.Type)
	if r.Type == TypeSequence && r.Elem != "" {
		s.Items = typeSchema(r.Elem)
		applyFormat(s.Items, r.Format)
	} else {
		applyFormat(s, r.Format)
	}
	if r.Secret {
		s.Description = strings.TrimSpace(s.Description + " (secret)")
	}
	return s
}

func typeSchema(t ValueType) *jsonschema.Schema {
	switch t {
	case TypeString:
		return &jsonschema.Schema{Type: "string"}
	case TypeBool:
		return &jsonschema.Schema{Type: "boolean"}
	case TypeInt:
		return &jsonschema.Schema{Type: "integer"}
	case TypeNumber:
		return &jsonschema.Schema{Type: "number"}
	case TypeSequence:
		return &jsonschema.Schema{Type: "array"}
	case TypeMapping:
		return &jsonschema.Schema{Type: "object"}
	}
	return &jsonschema.Schema{}
}

func applyFormat(s *jsonschema.Schema, f *Format) {
	if f == nil {
		return
	}
	s.Description = f.Description
	if len(f.Values) > 0 {
		for _, v := range f.Values {
			s.Enum = append(s.Enum, v)
		}
		return
	}
	s.Pattern = f.Pattern
}
