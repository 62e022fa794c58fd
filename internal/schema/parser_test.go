package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sameRules compares rules by their serializable fields; formats carry a
// predicate func and cannot be compared with reflect.DeepEqual.
func sameRules(a, b []Rule) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.Key != y.Key || x.Type != y.Type || x.Elem != y.Elem || x.Secret != y.Secret {
			return false
		}
		if (x.Format == nil) != (y.Format == nil) {
			return false
		}
		if x.Format != nil {
			if x.Format.Name != y.Format.Name || len(x.Format.Values) != len(y.Format.Values) {
				return false
			}
			for j := range x.Format.Values {
				if x.Format.Values[j] != y.Format.Values[j] {
					return false
				}
			}
		}
	}
	return true
}

// Rule file round-trip: serializing a rule list and parsing it back yields
// the same rules.
func TestProperty_RuleFileRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	genFormat := gen.OneGenOf(
		gen.Const((*Format)(nil)),
		gen.OneConstOf(FormatHTTPURL, FormatAbsolutePath, FormatUsername, FormatTimezone, FormatNonEmpty).
			Map(func(name string) *Format {
				f, _ := FormatByName(name, nil)
				return f
			}),
		gen.SliceOfN(3, gen.Identifier()).Map(func(vals []string) *Format {
			return OneOf(vals...)
		}),
	)

	genRule := gopter.CombineGens(
		gen.RegexMatch(`[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)*`),
		gen.OneConstOf(TypeAny, TypeString, TypeBool, TypeInt, TypeNumber, TypeSequence, TypeMapping),
		genFormat,
		gen.Bool(),
	).Map(func(vals []interface{}) Rule {
		r := Rule{
			Key:    vals[0].(string),
			Type:   vals[1].(ValueType),
			Format: vals[2].(*Format),
			Secret: vals[3].(bool),
		}
		if r.Type == TypeSequence {
			r.Elem = TypeString
		}
		return r
	})

	genRules := gen.SliceOfN(4, genRule).SuchThat(func(rules []Rule) bool {
		seen := make(map[string]bool)
		for _, r := range rules {
			if seen[r.Key] || r.Key == "" {
				return false
			}
			seen[r.Key] = true
		}
		return true
	})

	properties.Property("round-trip preserves rules", prop.ForAll(
		func(original []Rule) bool {
			data, err := RulesToYAML(original)
			if err != nil {
				t.Logf("RulesToYAML failed: %v", err)
				return false
			}
			parsed, err := ParseRuleFile(data)
			if err != nil {
				t.Logf("ParseRuleFile failed: %v\n%s", err, data)
				return false
			}
			return sameRules(original, parsed)
		},
		genRules,
	))

	properties.TestingRun(t)
}

func TestParseRuleFile(t *testing.T) {
	content := `
rules:
  - key: backup.retention_days
    type: int
  - key: environment
    type: string
    values: [lab, prod]
  - key: restic_password
    type: string
    format: non_empty
    secret: true
  - key: mirrors
    type: sequence
    elem: string
    format: http_url
  - key: anything
`
	rules, err := ParseRuleFile([]byte(content))
	require.NoError(t, err)
	require.Len(t, rules, 5)

	assert.Equal(t, TypeInt, rules[0].Type)
	assert.Equal(t, FormatOneOf, rules[1].Format.Name)
	assert.Equal(t, []string{"lab", "prod"}, rules[1].Format.Values)
	assert.True(t, rules[2].Secret)
	assert.Equal(t, TypeString, rules[3].Elem)
	assert.Equal(t, TypeAny, rules[4].Type)
}

func TestParseRuleFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"invalid yaml", "rules: [unclosed", "invalid YAML"},
		{"missing key", "rules:\n  - type: string\n", "missing required field 'key'"},
		{"bad key", "rules:\n  - key: 'a b'\n", "invalid characters"},
		{"duplicate key", "rules:\n  - key: a\n  - key: a\n", "duplicate rule key"},
		{"unknown type", "rules:\n  - key: a\n    type: date\n", "unknown type 'date'"},
		{"elem without sequence", "rules:\n  - key: a\n    type: string\n    elem: string\n", "requires type sequence"},
		{"unknown format", "rules:\n  - key: a\n    format: ipv6\n", "unknown format 'ipv6'"},
		{"one_of without values", "rules:\n  - key: a\n    format: one_of\n", "requires 'values'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRuleFile([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadRuleFile(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadRuleFile(filepath.Join(dir, "missing.yml"))
	assert.True(t, os.IsNotExist(err))

	path := filepath.Join(dir, "rules.yml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - key: a\n    type: bool\n"), 0644))
	rules, err := LoadRuleFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ruleKeys(rules))
}
