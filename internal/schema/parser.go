package schema

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ruleFile is the YAML layout of a custom rule file:
//
//	rules:
//	  - key: backup.retention_days
//	    type: int
//	  - key: environment
//	    type: string
//	    format: one_of
//	    values: [lab, prod]
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Key    string   `yaml:"key"`
	Type   string   `yaml:"type"`
	Elem   string   `yaml:"elem,omitempty"`
	Format string   `yaml:"format,omitempty"`
	Values []string `yaml:"values,omitempty"`
	Secret bool     `yaml:"secret,omitempty"`
}

// keyPathRegex validates dotted key paths.
var keyPathRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)*$`)

// ParseRuleFile parses YAML content into a rule list.
func ParseRuleFile(content []byte) ([]Rule, error) {
	var rf ruleFile
	if err := yaml.Unmarshal(content, &rf); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	rules := make([]Rule, 0, len(rf.Rules))
	seen := make(map[string]bool)

	for i, entry := range rf.Rules {
		if entry.Key == "" {
			return nil, fmt.Errorf("rule at index %d: missing required field 'key'", i)
		}
		if !keyPathRegex.MatchString(entry.Key) {
			return nil, fmt.Errorf("rule key '%s' contains invalid characters", entry.Key)
		}
		if seen[entry.Key] {
			return nil, fmt.Errorf("duplicate rule key: '%s'", entry.Key)
		}
		seen[entry.Key] = true

		typ := TypeAny
		if entry.Type != "" {
			t, err := ParseValueType(entry.Type)
			if err != nil {
				return nil, fmt.Errorf("%w for rule '%s'", err, entry.Key)
			}
			typ = t
		}

		var elem ValueType
		if entry.Elem != "" {
			if typ != TypeSequence {
				return nil, fmt.Errorf("rule '%s': 'elem' requires type sequence", entry.Key)
			}
			t, err := ParseValueType(entry.Elem)
			if err != nil {
				return nil, fmt.Errorf("%w for elements of rule '%s'", err, entry.Key)
			}
			elem = t
		}

		var format *Format
		if entry.Format != "" {
			if entry.Format == FormatOneOf && len(entry.Values) == 0 {
				return nil, fmt.Errorf("format one_of requires 'values' for rule '%s'", entry.Key)
			}
			f, ok := FormatByName(entry.Format, entry.Values)
			if !ok {
				return nil, fmt.Errorf("unknown format '%s' for rule '%s'", entry.Format, entry.Key)
			}
			format = f
		} else if len(entry.Values) > 0 {
			format = OneOf(entry.Values...)
		}

		rules = append(rules, Rule{
			Key:    entry.Key,
			Type:   typ,
			Elem:   elem,
			Format: format,
			Secret: entry.Secret,
		})
	}

	return rules, nil
}

// RulesToYAML serializes rules in the rule-file layout.
func RulesToYAML(rules []Rule) ([]byte, error) {
	rf := ruleFile{Rules: make([]ruleEntry, 0, len(rules))}
	for _, r := range rules {
		entry := ruleEntry{
			Key:    r.Key,
			Type:   string(r.Type),
			Elem:   string(r.Elem),
			Secret: r.Secret,
		}
		if r.Format != nil {
			entry.Format = r.Format.Name
			entry.Values = r.Format.Values
		}
		rf.Rules = append(rf.Rules, entry)
	}
	return yaml.Marshal(&rf)
}

// LoadRuleFile reads and parses a rule file.
func LoadRuleFile(path string) ([]Rule, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return ParseRuleFile(content)
}
