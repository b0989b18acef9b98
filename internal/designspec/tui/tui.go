package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/pipeline"
)

var (
	focusedStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))

	normalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	violationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff5555")).
			Bold(true)

	decisionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50fa7b"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const (
	focusPrompt = iota
	focusConstraints
)

type item struct {
	id string
	on bool
}

func (i item) Title() string { return i.id }
func (i item) Description() string {
	if i.on {
		return "enabled"
	}
	return "disabled"
}
func (i item) FilterValue() string { return i.id }

// Model is a playground: type a prompt, toggle constraints, resolve or
// auto-repair the parsed view.
type Model struct {
	engine *pipeline.Engine

	prompt      textinput.Model
	constraints list.Model
	viewport    viewport.Model
	focused     int

	intent  domain.Intent
	view    domain.ResolvedView
	content string

	ready  bool
	width  int
	height int
}

func NewModel(e *pipeline.Engine) Model {
	ti := textinput.New()
	ti.Placeholder = `Create a primary button with label "Continue"`
	ti.CharLimit = 256
	ti.Focus()

	// Known rules absent from the model are listed switched off.
	flags := map[string]bool{}
	for id := range domain.KnownRules {
		flags[id] = false
	}
	for id, on := range e.DesignModel().Constraints.EnabledConstraints {
		flags[id] = on
	}
	ids := make([]string, 0, len(flags))
	for id := range flags {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	items := make([]list.Item, len(ids))
	for i, id := range ids {
		items[i] = item{id: id, on: flags[id]}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Constraints"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	return Model{
		engine:      e,
		prompt:      ti,
		constraints: l,
		focused:     focusPrompt,
		content:     "Type a prompt and press enter.",
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.setFocus((m.focused + 1) % 2)
			return m, nil
		case "ctrl+f":
			m.run(true)
			return m, nil
		case "enter":
			if m.focused == focusPrompt {
				m.run(false)
				return m, nil
			}
			return m, m.toggle(m.constraints.Index())
		case " ":
			if m.focused == focusConstraints {
				return m, m.toggle(m.constraints.Index())
			}
		case "f":
			if m.focused == focusConstraints {
				m.run(true)
				return m, nil
			}
		case "q":
			if m.focused == focusConstraints {
				return m, tea.Quit
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height/2)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height / 2
		}
		m.viewport.SetContent(m.content)
		m.prompt.Width = msg.Width - 8
		m.constraints.SetSize(msg.Width-4, msg.Height-m.viewport.Height-9)
	}

	if m.focused == focusPrompt {
		m.prompt, cmd = m.prompt.Update(msg)
	} else {
		m.constraints, cmd = m.constraints.Update(msg)
	}
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	promptStyle, listStyle := normalStyle, normalStyle
	if m.focused == focusPrompt {
		promptStyle = focusedStyle
	} else {
		listStyle = focusedStyle
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		promptStyle.Width(m.width-4).Render(m.prompt.View()),
		listStyle.Width(m.width-4).Render(m.constraints.View()),
		detailStyle.Width(m.width-4).Render(m.viewport.View()),
		helpStyle.Render("tab: focus • enter: resolve/toggle • ctrl+f: auto-repair • esc: quit"),
	)
}

func (m *Model) setFocus(f int) {
	m.focused = f
	if f == focusPrompt {
		m.prompt.Focus()
	} else {
		m.prompt.Blur()
	}
}

// Enabled returns the current constraint toggles.
func (m Model) Enabled() map[string]bool {
	out := map[string]bool{}
	for _, li := range m.constraints.Items() {
		it := li.(item)
		out[it.id] = it.on
	}
	return out
}

func (m *Model) toggle(idx int) tea.Cmd {
	items := m.constraints.Items()
	if idx < 0 || idx >= len(items) {
		return nil
	}
	it := items[idx].(item)
	it.on = !it.on
	return m.constraints.SetItem(idx, it)
}

// run parses the prompt and resolves it, repairing when repair is set.
func (m *Model) run(repair bool) {
	text := strings.TrimSpace(m.prompt.Value())
	if text == "" {
		text = m.prompt.Placeholder
	}
	m.intent = m.engine.Parse("playground", text)
	if repair {
		res := m.engine.AutoRepair(m.intent, m.Enabled())
		m.intent, m.view = res.Intent, res.View
	} else {
		m.view = m.engine.Resolve(m.intent, m.Enabled())
	}
	m.content = renderView(m.view)
	m.viewport.SetContent(m.content)
	m.viewport.GotoTop()
}

func renderView(v domain.ResolvedView) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("View: %s\n", v.ViewID))
	for _, e := range v.Errors {
		sb.WriteString(violationStyle.Render("! "+e) + "\n")
	}
	for _, vi := range v.Violations {
		sb.WriteString(violationStyle.Render(fmt.Sprintf("- [%s] %s", vi.Code, vi.Message)) + "\n")
	}
	if len(v.Violations) > 0 {
		sb.WriteString("Press ctrl+f to auto-repair.\n")
	}

	for _, n := range v.Nodes {
		sb.WriteString(fmt.Sprintf("\n%s  %q (%s, %s", n.ID, n.Props.Label, n.Props.Variant, n.Props.Size))
		if n.Props.Disabled {
			sb.WriteString(", disabled")
		}
		sb.WriteString(")\n")

		for _, t := range n.Trace {
			sb.WriteString(fmt.Sprintf("  %-16s %-22v <- %s\n", t.Key, t.Value, t.Source))
		}
		for _, d := range n.Decisions {
			sb.WriteString(decisionStyle.Render(fmt.Sprintf("  * %s: %s", d.Type, d.Action)) + "\n")
		}
	}

	for _, ac := range v.AppliedConstraints {
		sb.WriteString(fmt.Sprintf("\n[%s] %s: %s", ac.Status, ac.ID, ac.Message))
		if ac.Resolution != "" {
			sb.WriteString(" -> " + ac.Resolution)
		}
	}
	sb.WriteString("\n")
	return sb.String()
}
