package descriptor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kshehadeh/atlassian-addon-helper/pkg/config"
)

func TestAssemble_MergesFragments(t *testing.T) {
	d, err := Assemble(Base{
		Key: "example-addon", Name: "Example Add-on", BaseURL: "http://addon.local",
		Scopes: []string{"READ"},
	},
		Fragment{Lifecycle: &Lifecycle{Installed: "/meta/installed", Uninstalled: "/meta/uninstalled"}},
		Fragment{
			Webhooks: []WebhookModule{
				{Event: "jira:issue_updated", URL: "/webhook/jira:issue_updated"},
				{Event: "jira:issue_created", URL: "/webhook/jira:issue_created"},
			},
			Scopes: []string{"READ", "ACT_AS_USER"},
		},
	)
	require.NoError(t, err)

	assert.Equal(t, "example-addon", d.Key)
	assert.Equal(t, "jwt", d.Authentication.Type)
	require.NotNil(t, d.Lifecycle)
	assert.Equal(t, "/meta/installed", d.Lifecycle.Installed)
	assert.Equal(t, []string{"ACT_AS_USER", "READ"}, d.Scopes)

	webhooks := d.Modules["webhooks"].([]WebhookModule)
	require.Len(t, webhooks, 2)
	// Order is deterministic regardless of contribution order.
	assert.Equal(t, "jira:issue_created", webhooks[0].Event)
	assert.Equal(t, "jira:issue_updated", webhooks[1].Event)
}

func TestAssemble_RejectsDuplicateLifecycle(t *testing.T) {
	_, err := Assemble(Base{Key: "k", Name: "n", BaseURL: "http://x"},
		Fragment{Lifecycle: &Lifecycle{Installed: "/a"}},
		Fragment{Lifecycle: &Lifecycle{Installed: "/b"}},
	)
	assert.Error(t, err)
}

func TestAssemble_JSONShape(t *testing.T) {
	d, err := Assemble(Base{Key: "k", Name: "n", BaseURL: "http://x", APIVersion: 1},
		Fragment{Lifecycle: &Lifecycle{Installed: "/meta/installed", Uninstalled: "/meta/uninstalled"}},
	)
	require.NoError(t, err)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "k", doc["key"])
	assert.Equal(t, "http://x", doc["baseUrl"])
	// No webhooks registered: the modules key must be absent, not null.
	_, hasModules := doc["modules"]
	assert.False(t, hasModules)
}

func TestLoadBase_ConfigOnly(t *testing.T) {
	base, err := LoadBase(config.Config{AddonKey: "k", AddonName: "n", BaseURL: "http://x"})
	require.NoError(t, err)
	assert.Equal(t, "k", base.Key)
	assert.Equal(t, "n", base.Name)
	assert.Equal(t, "http://x", base.BaseURL)
}

func TestLoadBase_YAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
key: my-addon
name: My Add-on
description: Does things
vendor:
  name: Acme
  url: https://acme.example.net
scopes: [READ, WRITE]
api_version: 2
`), 0o600))

	base, err := LoadBase(config.Config{AddonKey: "k", AddonName: "n", BaseURL: "http://x", AddonPath: path})
	require.NoError(t, err)
	assert.Equal(t, "my-addon", base.Key)
	assert.Equal(t, "My Add-on", base.Name)
	assert.Equal(t, "Acme", base.Vendor.Name)
	assert.Equal(t, []string{"READ", "WRITE"}, base.Scopes)
	assert.Equal(t, 2, base.APIVersion)
	// Base URL not in the file: config value survives.
	assert.Equal(t, "http://x", base.BaseURL)
}

func TestLoadBase_MissingFile(t *testing.T) {
	_, err := LoadBase(config.Config{AddonKey: "k", AddonPath: "/does/not/exist.yaml"})
	assert.Error(t, err)
}
