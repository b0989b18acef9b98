package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/export"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/pipeline"
)

func writeConfig(t *testing.T, root, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, "designspec.yaml"), []byte(content), 0644))
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	viewID, enableIDs, disableIDs = "", nil, nil
	repairFirst, exportOut, importFrom = false, "view.excalidraw", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestResolveCommand(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "model_source: embedded\nwatch: false\n")

	out := run(t, "--root", root, "resolve", "--view-id", "main", "Create two primary buttons")

	var view domain.ResolvedView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "main", view.ViewID)
	assert.Empty(t, view.Nodes)
	require.Len(t, view.Violations, 1)
	assert.Equal(t, domain.CodeMultiplePrimaryButtons, view.Violations[0].Code)

	out = run(t, "--root", root, "resolve", "--view-id", "main",
		"--disable", domain.RuleOnlyOnePrimaryPerView, "Create two primary buttons")
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Empty(t, view.Violations)
	assert.Len(t, view.Nodes, 2)
}

func TestRepairCommand(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "model_source: embedded\nrepair_strategy: first\n")

	out := run(t, "--root", root, "repair", "Create two primary buttons")

	var res pipeline.RepairResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.View.Nodes, 2)
	assert.Equal(t, domain.VariantSecondary, res.Intent.Components[0].Props.Variant)
	assert.Equal(t, domain.VariantPrimary, res.Intent.Components[1].Props.Variant)
	assert.NotEmpty(t, res.View.ViewID)
}

func TestExportCommand(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "model_source: embedded\n")
	path := filepath.Join(root, "out.excalidraw")

	out := run(t, "--root", root, "export", "--repair", "-o", path, "Create two primary buttons")
	assert.Contains(t, out, "Wrote 2 nodes")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var scene export.ExcalidrawScene
	require.NoError(t, json.Unmarshal(data, &scene))
	assert.Len(t, scene.Elements, 4)
}

func TestImportThenServeFromSQLite(t *testing.T) {
	root := t.TempDir()
	design := filepath.Join(root, "design")
	require.NoError(t, os.MkdirAll(design, 0755))
	for _, name := range []string{"tokens.json", "contracts.json", "constraints.json"} {
		data, err := os.ReadFile(filepath.Join("..", "internal", "designspec", "model", "defaults", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(design, name), data, 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(design, "tokens.json"),
		[]byte(`{"color": {"primary": "#ff0000", "onPrimary": "#ffffff"}, "spacing": {"md": "0.75rem"}}`), 0644))

	writeConfig(t, root, "model_source: files\n")
	out := run(t, "--root", root, "import")
	assert.Contains(t, out, "Imported 3 tokens")

	writeConfig(t, root, "model_source: sqlite\n")
	out = run(t, "--root", root, "model")

	var dm pipeline.DesignModelView
	require.NoError(t, json.Unmarshal([]byte(out), &dm))
	assert.Equal(t, "#ff0000", dm.Tokens["color.primary"])
	assert.True(t, dm.Constraints.EnabledConstraints[domain.RuleOnlyOnePrimaryPerView])
}

func TestModelCommandEmptyStore(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "model_source: sqlite\n")

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"--root", root, "--log-level", "error", "model"})
	err := rootCmd.Execute()
	assert.ErrorContains(t, err, "designspec import")
}
