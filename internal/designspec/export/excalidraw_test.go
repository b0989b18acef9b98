package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
)

func sampleView() domain.ResolvedView {
	return domain.ResolvedView{
		ViewID: "main",
		Nodes: []domain.ResolvedNode{
			{
				ID:    "button-0",
				Type:  domain.ComponentButton,
				Props: domain.Props{Label: "Continue", Variant: domain.VariantPrimary, Size: domain.SizeMedium},
				Styles: map[string]any{
					"backgroundColor": "#2563eb",
					"color":           "#ffffff",
					"padding":         "12px",
				},
			},
			{
				ID:    "button-1",
				Type:  domain.ComponentButton,
				Props: domain.Props{Label: "Back", Variant: domain.VariantSecondary, Size: domain.SizeMedium, Disabled: true},
				Styles: map[string]any{
					"backgroundColor": "#f1f5f9",
					"color":           "#0f172a",
					"border":          "1px solid #cbd5e1",
					"padding":         "8px",
					"opacity":         0.4,
				},
			},
		},
	}
}

func TestBuildScene(t *testing.T) {
	scene := BuildScene(sampleView())

	assert.Equal(t, "excalidraw", scene.Type)
	assert.Equal(t, "designspec", scene.Source)
	require.Len(t, scene.Elements, 4)

	primary := scene.Elements[0]
	assert.Equal(t, "rectangle", primary.Type)
	assert.Equal(t, "button-0", primary.ID)
	assert.Equal(t, "#2563eb", primary.BackgroundColor)
	assert.Equal(t, "#2563eb", primary.StrokeColor)
	assert.Equal(t, 100, primary.Opacity)
	assert.Equal(t, minWidth, primary.Width)

	label := scene.Elements[1]
	assert.Equal(t, "text", label.Type)
	assert.Equal(t, "Continue", label.Text)
	assert.Equal(t, "#ffffff", label.StrokeColor)
	assert.Equal(t, primary.GroupIds, label.GroupIds)

	secondary := scene.Elements[2]
	assert.Equal(t, "#cbd5e1", secondary.StrokeColor)
	assert.Equal(t, 40, secondary.Opacity)
	assert.Equal(t, primary.Width+gapX, secondary.X)
}

func TestBuildSceneBlockedView(t *testing.T) {
	view := domain.ResolvedView{
		ViewID: "main",
		Violations: []domain.Violation{
			{Code: domain.CodeMultiplePrimaryButtons, Message: "too many primaries"},
		},
	}

	scene := BuildScene(view)
	require.Len(t, scene.Elements, 1)
	el := scene.Elements[0]
	assert.Equal(t, "main-diagnostics", el.ID)
	assert.Equal(t, errorColor, el.StrokeColor)
	assert.Contains(t, el.Text, "multiplePrimaryButtons: too many primaries")

	empty := BuildScene(domain.ResolvedView{ViewID: "x"})
	assert.Equal(t, "empty view", empty.Elements[0].Text)
}

func TestExportExcalidraw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.excalidraw")
	require.NoError(t, ExportExcalidraw(sampleView(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var scene ExcalidrawScene
	require.NoError(t, json.Unmarshal(data, &scene))
	assert.Equal(t, "excalidraw", scene.Type)
	assert.Len(t, scene.Elements, 4)

	err = ExportExcalidraw(sampleView(), filepath.Join(t.TempDir(), "missing", "view.excalidraw"))
	assert.Error(t, err)
}
