package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"labcheck/internal/document"
	"labcheck/internal/schema"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sha256HashPattern = regexp.MustCompile(`^sha256:[a-f0-9]{64}$`)
	digestPattern     = regexp.MustCompile(`^hmac-sha256:[a-f0-9]{64}$`)
	testKey           = SecretKey("0123456789abcdef0123456789abcdef")
)

const runnersYAML = `gitlab_runner_registration_token: glrt-abc123
gitlab_runner_executor: docker
gitlab_runner_concurrent: 4
gitlab_runner_tags:
  - lab
  - docker
`

func parse(t *testing.T, name, content string) *document.Document {
	t.Helper()
	doc, err := document.ParseYAML(name, []byte(content))
	require.NoError(t, err)
	return doc
}

func TestBuild(t *testing.T) {
	rules, err := schema.Rules(schema.DomainRunner)
	require.NoError(t, err)

	a := Build([]Group{
		{Name: "runners", Doc: parse(t, "group_vars/runners.yml", runnersYAML), Secrets: SecretKeys(rules)},
		{Name: "all", Doc: parse(t, "group_vars/all.yml", "timezone: Europe/Berlin\nunattended_upgrades: true\n")},
	}, testKey)

	assert.Regexp(t, sha256HashPattern, a.ConfigVersion)
	assert.Equal(t, map[string]string{
		"runners.gitlab_runner_registration_token": testKey.Digest("glrt-abc123"),
		"runners.gitlab_runner_executor":           `"docker"`,
		"runners.gitlab_runner_concurrent":         `4`,
		"runners.gitlab_runner_tags":               `["lab","docker"]`,
		"all.timezone":                             `"Europe/Berlin"`,
		"all.unattended_upgrades":                  `true`,
	}, a.Values)

	for _, v := range a.Values {
		assert.NotContains(t, v, "glrt-abc123")
	}
}

func TestFlatten_NestedMappingIsCanonical(t *testing.T) {
	a := Flatten(Group{Name: "infra", Doc: parse(t, "infra.yml", "backup:\n  schedule: daily\n  keep: 7\n")}, testKey)
	assert.Equal(t, `{"keep":7,"schedule":"daily"}`, a["infra.backup"])

	assert.Empty(t, Flatten(Group{Name: "none"}, testKey))
}

func TestSecretKeys(t *testing.T) {
	rules, err := schema.Rules(schema.DomainInfra)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"restic_password": true}, SecretKeys(rules))
}

func TestWriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "artifact.json")
	a := Build([]Group{{Name: "all", Doc: parse(t, "all.yml", "admin_user: labadmin\n")}}, testKey)

	require.NoError(t, a.WriteToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded ConfigArtifact
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, a, decoded)
}

func genValues() gopter.Gen {
	return gen.MapOf(gen.Identifier(), gen.AlphaString())
}

// Canonical JSON is whitespace free, sorted and stable.
func TestCanonicalJSONDeterminism_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("canonical JSON has no whitespace", prop.ForAll(
		func(values map[string]string) bool {
			canonical, err := ConfigArtifact{ConfigVersion: ComputeConfigVersion(values), Values: values}.ToCanonicalJSON()
			if err != nil {
				return false
			}
			str := string(canonical)
			return !strings.Contains(str, ": ") && !strings.Contains(str, ", ") && !strings.Contains(str, "\n")
		},
		genValues(),
	))

	properties.Property("canonical JSON decodes to the same artifact", prop.ForAll(
		func(values map[string]string) bool {
			a := ConfigArtifact{ConfigVersion: ComputeConfigVersion(values), Values: values}
			canonical, err := a.ToCanonicalJSON()
			if err != nil {
				return false
			}
			var decoded ConfigArtifact
			if err := json.Unmarshal(canonical, &decoded); err != nil {
				return false
			}
			return decoded.ConfigVersion == a.ConfigVersion && len(decoded.Values) == len(values)
		},
		genValues(),
	))

	properties.TestingRun(t)
}

// Equal values hash equally; changing one value changes the hash.
func TestConfigHash_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("hash is idempotent", prop.ForAll(
		func(values map[string]string) bool {
			h := ComputeConfigVersion(values)
			return h == ComputeConfigVersion(values) && sha256HashPattern.MatchString(h)
		},
		genValues(),
	))

	properties.Property("different values produce different hashes", prop.ForAll(
		func(values map[string]string, key, value1, value2 string) bool {
			if value1 == value2 {
				return true
			}
			values1 := map[string]string{}
			values2 := map[string]string{}
			for k, v := range values {
				values1[k] = v
				values2[k] = v
			}
			values1[key] = value1
			values2[key] = value2
			return ComputeConfigVersion(values1) != ComputeConfigVersion(values2)
		},
		genValues(),
		gen.Identifier(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("secret digests never contain the secret", prop.ForAll(
		func(secret string) bool {
			d := testKey.Digest(secret)
			return digestPattern.MatchString(d) && (len(secret) < 8 || !strings.Contains(d, secret))
		},
		gen.AlphaString(),
	))

	properties.Property("digests depend on the key", prop.ForAll(
		func(secret string) bool {
			other := SecretKey("fedcba9876543210fedcba9876543210")
			return testKey.Digest(secret) == testKey.Digest(secret) &&
				testKey.Digest(secret) != other.Digest(secret)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestIsSecretDigest(t *testing.T) {
	assert.True(t, IsSecretDigest(testKey.Digest("hunter2")))
	assert.False(t, IsSecretDigest(`"hmac-sha256:abc"`))
	assert.False(t, IsSecretDigest(`true`))
}

func TestSecretKey(t *testing.T) {
	k, err := NewSecretKey()
	require.NoError(t, err)
	assert.Len(t, k, 32)

	parsed, err := ParseSecretKey(k.String() + "\n")
	require.NoError(t, err)
	assert.Equal(t, k, parsed)
	assert.Equal(t, k.Digest("hunter2"), parsed.Digest("hunter2"))

	_, err = ParseSecretKey("zz")
	assert.Error(t, err)
	_, err = ParseSecretKey("abcd")
	assert.Error(t, err)
}
