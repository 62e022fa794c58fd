package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"labcheck/internal/document"
	"labcheck/internal/schema"
)

// ConfigArtifact is the flattened, hashable view of the lab's group variables.
type ConfigArtifact struct {
	ConfigVersion string            `json:"configVersion"` // sha256:hex
	Values        map[string]string `json:"values"`        // group.key -> canonical JSON
}

// Group is one group_vars file contributing to an artifact.
type Group struct {
	Name    string
	Doc     *document.Document
	Secrets map[string]bool // top-level keys stored as digests
}

// SecretKeys collects the keys of secret rules.
func SecretKeys(rules []schema.Rule) map[string]bool {
	secrets := make(map[string]bool)
	for _, r := range rules {
		if r.Secret {
			secrets[r.Key] = true
		}
	}
	return secrets
}

// Build flattens every group into one artifact. Secrets are digested with
// key.
func Build(groups []Group, key SecretKey) ConfigArtifact {
	values := make(map[string]string)
	for _, g := range groups {
		for k, v := range Flatten(g, key) {
			values[k] = v
		}
	}

	return ConfigArtifact{
		ConfigVersion: ComputeConfigVersion(values),
		Values:        values,
	}
}

// Flatten maps each top-level variable of a group to "group.key". Values are
// canonical JSON; secret values are replaced by their keyed digest.
func Flatten(g Group, key SecretKey) map[string]string {
	out := make(map[string]string)
	if g.Doc == nil {
		return out
	}
	root := g.Doc.Mapping()
	for _, k := range root.Keys() {
		v, _ := root.Get(k)
		name := g.Name + "." + k
		if g.Secrets[k] {
			out[name] = key.Digest(v.Text())
			continue
		}
		out[name] = canonicalValue(v)
	}
	return out
}

const versionPrefix = "sha256:"

// encoding/json sorts map keys, so nested mappings are canonical too.
func canonicalValue(v document.Value) string {
	data, err := json.Marshal(v.Interface())
	if err != nil {
		// NaN and infinities have no JSON form
		data, _ = json.Marshal(v.Raw())
	}
	return string(data)
}

// ComputeConfigVersion computes the SHA-256 hash of the values in canonical form.
// Returns the hash prefixed with "sha256:".
func ComputeConfigVersion(values map[string]string) string {
	canonical := canonicalValuesJSON(values)
	hash := sha256.Sum256(canonical)
	return versionPrefix + hex.EncodeToString(hash[:])
}

// ToCanonicalJSON serializes the artifact with sorted keys and no whitespace.
func (a ConfigArtifact) ToCanonicalJSON() ([]byte, error) {
	configVersionJSON, err := json.Marshal(a.ConfigVersion)
	if err != nil {
		return nil, err
	}

	result := []byte(`{"configVersion":`)
	result = append(result, configVersionJSON...)
	result = append(result, `,"values":`...)
	result = append(result, canonicalValuesJSON(a.Values)...)
	result = append(result, '}')
	return result, nil
}

// ToJSON serializes the artifact to pretty-printed JSON.
func (a ConfigArtifact) ToJSON() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

func canonicalValuesJSON(values map[string]string) []byte {
	if len(values) == 0 {
		return []byte("{}")
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}
		keyJSON, _ := json.Marshal(k)
		valueJSON, _ := json.Marshal(values[k])
		result = append(result, keyJSON...)
		result = append(result, ':')
		result = append(result, valueJSON...)
	}
	result = append(result, '}')
	return result
}
