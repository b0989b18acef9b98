package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/model"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/pipeline"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	m, err := model.DefaultLoader(nil).Load()
	require.NoError(t, err)
	snap, err := model.NewSnapshot(m, "test")
	require.NoError(t, err)
	e, err := pipeline.New(model.NewHolder(snap), pipeline.Options{})
	require.NoError(t, err)
	return NewModel(e)
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestNewModelListsConstraints(t *testing.T) {
	m := newTestModel(t)

	assert.Equal(t, map[string]bool{
		domain.RuleDisabledOpacity:          true,
		domain.RuleGhostHasNoBackground:     true,
		domain.RuleMaxPrimaryButtonsPerView: false,
		domain.RuleOnlyOnePrimaryPerView:    true,
		domain.RuleSecondaryUsesSurface:     true,
	}, m.Enabled())
	assert.Equal(t, "Initializing...", m.View())
}

func TestResolveShowsViolations(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	require.True(t, m.ready)

	m.prompt.SetValue("Create two primary buttons")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "playground", m.view.ViewID)
	assert.Empty(t, m.view.Nodes)
	require.Len(t, m.view.Violations, 1)
	assert.Contains(t, m.content, string(domain.CodeMultiplePrimaryButtons))
	assert.Contains(t, m.content, "ctrl+f")
	assert.Contains(t, m.View(), "Constraints")
}

func TestAutoRepairFromPrompt(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	m.prompt.SetValue("Create two primary buttons")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlF})

	require.Len(t, m.view.Nodes, 2)
	assert.Equal(t, domain.VariantSecondary, m.intent.Components[1].Props.Variant)
	assert.Contains(t, m.content, "autoFix")
}

func indexOf(t *testing.T, m Model, id string) int {
	t.Helper()
	for i, li := range m.constraints.Items() {
		if li.(item).id == id {
			return i
		}
	}
	t.Fatalf("constraint %s not listed", id)
	return -1
}

func TestToggleConstraint(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, focusConstraints, m.focused)

	m.toggle(indexOf(t, m, domain.RuleOnlyOnePrimaryPerView))
	assert.False(t, m.Enabled()[domain.RuleOnlyOnePrimaryPerView])

	m.prompt.SetValue("Create two primary buttons")
	m.run(false)
	assert.Empty(t, m.view.Violations)
	assert.Len(t, m.view.Nodes, 2)
}

func TestEmptyPromptUsesPlaceholder(t *testing.T) {
	m := newTestModel(t)
	m.run(false)

	require.Len(t, m.intent.Components, 1)
	assert.Equal(t, "Continue", m.intent.Components[0].Props.Label)
}

func TestToggleRuleMissingFromModel(t *testing.T) {
	m := newTestModel(t)

	m.toggle(indexOf(t, m, domain.RuleOnlyOnePrimaryPerView))
	m.toggle(indexOf(t, m, domain.RuleMaxPrimaryButtonsPerView))
	assert.True(t, m.Enabled()[domain.RuleMaxPrimaryButtonsPerView])

	m.prompt.SetValue("Create two primary buttons")
	m.run(false)
	require.Len(t, m.view.Violations, 1)
	assert.Equal(t, domain.RuleMaxPrimaryButtonsPerView, m.view.Violations[0].ConstraintID)
}
