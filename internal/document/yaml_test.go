package document

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// genGlobalVars generates group_vars/all.yml style mappings.
func genGlobalVars() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("UTC", "Europe/Berlin", "America/New_York", "Asia/Tokyo"),
		gen.RegexMatch(`[a-z][a-z0-9_]{0,15}`),
		gen.SliceOf(gen.RegexMatch(`ssh-ed25519 [A-Za-z0-9+/]{16,40} [a-z]+@[a-z]+`)),
		gen.SliceOf(gen.Identifier()),
		gen.Bool(),
	).Map(func(vals []interface{}) Value {
		keys := make([]Value, 0)
		for _, k := range vals[2].([]string) {
			keys = append(keys, String(k))
		}
		pkgs := make([]Value, 0)
		for _, p := range vals[3].([]string) {
			pkgs = append(pkgs, String(p))
		}

		m := NewMapping()
		m.Set("timezone", String(vals[0].(string)))
		m.Set("admin_user", String(vals[1].(string)))
		m.Set("ssh_public_keys", Sequence(keys...))
		m.Set("packages_common", Sequence(pkgs...))
		m.Set("unattended_upgrades", Bool(vals[4].(bool)))
		return Map(m)
	})
}

// genScalar generates scalars of every kind, including strings that look
// like other types.
func genScalar() gopter.Gen {
	return gen.OneGenOf(
		gen.AlphaString().Map(func(s string) Value { return String(s) }),
		gen.OneConstOf("true", "3.11", "0x1F", "null", "~", "", "on", "- item", "a: b", "#x").
			Map(func(s string) Value { return String(s) }),
		gen.Bool().Map(func(b bool) Value { return Bool(b) }),
		gen.Int64().Map(func(i int64) Value { return Int(i) }),
		gen.Float64Range(-1e6, 1e6).Map(func(f float64) Value { return Float(f) }),
		gen.Const(Null()),
	)
}

// Round-trip: for any generated global-variable mapping, encoding to YAML
// and parsing it back yields an identical mapping.
func TestProperty_YAMLRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("encode then parse preserves global vars", prop.ForAll(
		func(original Value) bool {
			data, err := EncodeYAML(original)
			if err != nil {
				t.Logf("EncodeYAML failed: %v", err)
				return false
			}
			doc, err := ParseYAML("all.yml", data)
			if err != nil {
				t.Logf("ParseYAML failed: %v\n%s", err, data)
				return false
			}
			return doc.Root.Equal(original)
		},
		genGlobalVars(),
	))

	properties.Property("encode then parse preserves scalar kinds", prop.ForAll(
		func(scalars []Value) bool {
			m := NewMapping()
			for i, s := range scalars {
				m.Set(string(rune('a'+i%26))+string(rune('a'+i/26)), s)
			}
			original := Map(m)

			data, err := EncodeYAML(original)
			if err != nil {
				return false
			}
			doc, err := ParseYAML("scalars.yml", data)
			if err != nil {
				t.Logf("ParseYAML failed: %v\n%s", err, data)
				return false
			}
			return doc.Root.Equal(original)
		},
		gen.SliceOfN(20, genScalar()),
	))

	properties.TestingRun(t)
}

// Last-write-wins: writing config A and then config B to the same file
// leaves B; equal configs serialize to identical bytes.
func TestProperty_LastWriteWins(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	dir := t.TempDir()
	path := filepath.Join(dir, "all.yml")

	properties.Property("second write determines loaded state", prop.ForAll(
		func(first, second Value) bool {
			for _, v := range []Value{first, second} {
				data, err := EncodeYAML(v)
				if err != nil {
					return false
				}
				if err := os.WriteFile(path, data, 0644); err != nil {
					return false
				}
			}
			doc, err := LoadYAML(path)
			if err != nil {
				return false
			}
			return doc.Root.Equal(second)
		},
		genGlobalVars(),
		genGlobalVars(),
	))

	properties.Property("equal configs serialize identically", prop.ForAll(
		func(v Value) bool {
			a, errA := EncodeYAML(v)
			reparsed, err := ParseYAML("copy.yml", a)
			if errA != nil || err != nil {
				return false
			}
			b, errB := EncodeYAML(reparsed.Root)
			return errB == nil && string(a) == string(b)
		},
		genGlobalVars(),
	))

	properties.TestingRun(t)
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unclosed flow mapping", "config: {unclosed"},
		{"bad indentation", "a:\n  b: 1\n c: 2"},
		{"tab indentation", "a:\n\tb: 1"},
		{"duplicate top-level key", "timezone: UTC\ntimezone: CET\n"},
		{"duplicate nested key", "driver:\n  name: docker\n  name: podman\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML("group_vars/all.yml", []byte(tt.content))
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "want *ParseError, got %T", err)
			assert.Equal(t, "group_vars/all.yml", perr.File)
			assert.Contains(t, err.Error(), "group_vars/all.yml")
		})
	}
}

func TestParseYAML_Scalars(t *testing.T) {
	content := `
on:
  push:
  pull_request:
jobs:
  lint:
    steps:
      - uses: actions/setup-python@v5
        with:
          python-version: 3.11
      - name: Install tools
        run: pip install ansible ansible-lint yamllint
port: 8080
enabled: yes
secret: !vault |
  $ANSIBLE_VAULT;1.1;AES256
  6162
`
	doc, err := ParseYAML("ci.yml", []byte(content))
	require.NoError(t, err)

	on, ok := doc.Lookup("on")
	require.True(t, ok, "'on' must stay a string key")
	assert.Equal(t, KindMapping, on.Kind())
	assert.Equal(t, []string{"push", "pull_request"}, on.Mapping().Keys())

	steps, ok := doc.Lookup("jobs.lint.steps")
	require.True(t, ok)
	require.Len(t, steps.Items(), 2)

	pv, ok := steps.Items()[0].Get("with")
	require.True(t, ok)
	version, _ := pv.Get("python-version")
	assert.Equal(t, KindFloat, version.Kind())
	assert.Equal(t, "3.11", version.Text())

	port, _ := doc.Lookup("port")
	assert.Equal(t, KindInt, port.Kind())

	// yaml.v3 follows YAML 1.2: "yes" is a string.
	enabled, _ := doc.Lookup("enabled")
	assert.Equal(t, KindString, enabled.Kind())

	secret, _ := doc.Lookup("secret")
	s, isString := secret.AsString()
	assert.True(t, isString)
	assert.Contains(t, s, "$ANSIBLE_VAULT")
}

func TestParseYAML_AliasesAndMerge(t *testing.T) {
	content := `
defaults: &defaults
  driver: docker
  verifier: testinfra
scenario:
  <<: *defaults
  verifier: pytest
list: &pkgs [git, curl]
again: *pkgs
`
	doc, err := ParseYAML("m.yml", []byte(content))
	require.NoError(t, err)

	driver, ok := doc.Lookup("scenario.driver")
	require.True(t, ok)
	assert.Equal(t, "docker", driver.Text())

	verifier, _ := doc.Lookup("scenario.verifier")
	assert.Equal(t, "pytest", verifier.Text())

	again, _ := doc.Lookup("again")
	assert.Len(t, again.Items(), 2)
}

func TestParseYAML_Empty(t *testing.T) {
	doc, err := ParseYAML("empty.yml", nil)
	require.NoError(t, err)
	assert.True(t, doc.Root.IsNull())
	assert.Equal(t, 0, doc.Mapping().Len())

	_, ok := doc.Lookup("anything")
	assert.False(t, ok)
}

func TestLoadYAML_MissingFile(t *testing.T) {
	_, err := LoadYAML(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestValue_Interface(t *testing.T) {
	m := NewMapping()
	m.Set("name", String("docker"))
	m.Set("count", Int(3))
	m.Set("tags", Sequence(String("a"), Bool(true)))
	m.Set("nothing", Null())

	got := Map(m).Interface()
	want := map[string]any{
		"name":    "docker",
		"count":   int64(3),
		"tags":    []any{"a", true},
		"nothing": nil,
	}
	assert.Equal(t, want, got)
}

func TestDocument_ImmutableAfterLoad(t *testing.T) {
	doc, err := ParseYAML("all.yml", []byte("packages_common: [git, vim]\ntimezone: UTC\n"))
	require.NoError(t, err)

	pkgs, _ := doc.Lookup("packages_common")
	pkgs.Items()[0] = String("mutated")
	doc.Mapping().Set("timezone", String("Europe/Berlin"))
	doc.Mapping().Set("extra", Null())

	pkgs, _ = doc.Lookup("packages_common")
	assert.Equal(t, []any{"git", "vim"}, pkgs.Interface())
	tz, _ := doc.Lookup("timezone")
	assert.Equal(t, "UTC", tz.Text())
	assert.Equal(t, []string{"packages_common", "timezone"}, doc.Mapping().Keys())
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"group_vars/all.yml", FormatYAML, false},
		{"molecule.YAML", FormatYAML, false},
		{"inventories/lab.ini", FormatINI, false},
		{"hosts", FormatINI, false},
		{"config.json", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
