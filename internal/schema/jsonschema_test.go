package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSchema_ValidatesInfraVars(t *testing.T) {
	s, err := JSONSchema(DomainInfra)
	require.NoError(t, err)

	resolved, err := s.Resolve(nil)
	require.NoError(t, err)

	valid := map[string]any{
		"gitlab_external_url": "https://gitlab.lab.local",
		"nfs_export_path":     "/srv/nfs",
		"restic_repo":         "/srv/backup",
		"restic_password":     "s3cr3t",
	}
	assert.NoError(t, resolved.Validate(valid))

	missing := map[string]any{
		"gitlab_external_url": "https://gitlab.lab.local",
	}
	assert.Error(t, resolved.Validate(missing))

	badURL := map[string]any{
		"gitlab_external_url": "gitlab.lab.local",
		"nfs_export_path":     "/srv/nfs",
		"restic_repo":         "/srv/backup",
		"restic_password":     "s3cr3t",
	}
	assert.Error(t, resolved.Validate(badURL))
}

func TestJSONSchema_NestedMoleculeKeys(t *testing.T) {
	s, err := JSONSchema(DomainMolecule)
	require.NoError(t, err)

	require.Contains(t, s.Properties, "driver")
	assert.Equal(t, []string{"name"}, s.Properties["driver"].Required)
	assert.Equal(t, []any{"docker"}, s.Properties["driver"].Properties["name"].Enum)
	assert.Equal(t, "array", s.Properties["scenario"].Properties["test_sequence"].Type)
	assert.Equal(t, []string{"driver", "scenario", "verifier", "lint"}, s.Required)

	resolved, err := s.Resolve(nil)
	require.NoError(t, err)
	err = resolved.Validate(map[string]any{
		"driver":   map[string]any{"name": "podman"},
		"scenario": map[string]any{"test_sequence": []any{"converge"}},
		"verifier": map[string]any{"name": "testinfra"},
		"lint":     "ansible-lint",
	})
	assert.Error(t, err)
}

func TestJSONSchema_Marshal(t *testing.T) {
	s, err := JSONSchema(DomainGlobal)
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"$schema":"https://json-schema.org/draft/2020-12/schema"`)
	assert.Contains(t, string(data), `"ssh_public_keys"`)
}

func TestJSONSchema_Errors(t *testing.T) {
	_, err := JSONSchema(DomainMakefile)
	assert.Error(t, err)

	_, err = JSONSchema(Domain("nope"))
	var ude *UnknownDomainError
	assert.ErrorAs(t, err, &ude)
}
