// Package tui provides the interactive store browser.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/storefront/internal/render"
	"github.com/lepinkainen/storefront/internal/view"
)

const (
	defaultHeight = 20
	chromeHeight  = 4
)

var newProgram = func(m tea.Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}

// RecordsMsg replaces the records shown by the browser.
type RecordsMsg struct {
	Records []view.DisplayRecord
	Status  string
}

// StatusMsg updates the status line without touching the records.
type StatusMsg string

type reloadDoneMsg struct{}

// Model is a scrollable list of store cards.
type Model struct {
	viewport viewport.Model
	records  []view.DisplayRecord
	status   string
	width    int
	reload   func()
	loading  bool
}

// NewModel creates a browser showing records. reload may be nil, otherwise it
// runs when the user presses r.
func NewModel(records []view.DisplayRecord, reload func()) *Model {
	m := &Model{
		viewport: viewport.New(render.DefaultWidth, defaultHeight),
		records:  records,
		width:    render.DefaultWidth,
		reload:   reload,
		status:   "Loading stores...",
	}
	m.refresh()
	return m
}

// refresh re-renders the cards into the viewport.
func (m *Model) refresh() {
	m.viewport.SetContent(render.Cards(m.records, m.width))
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r":
			if m.reload != nil && !m.loading {
				m.loading = true
				m.status = "Reloading..."
				reload := m.reload
				return m, func() tea.Msg {
					reload()
					return reloadDoneMsg{}
				}
			}
			return m, nil
		case "g", "home":
			m.viewport.GotoTop()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 40)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.refresh()
		return m, nil
	case RecordsMsg:
		m.records = msg.Records
		if msg.Status != "" {
			m.status = msg.Status
		}
		m.refresh()
		return m, nil
	case StatusMsg:
		m.status = string(msg)
		return m, nil
	case reloadDoneMsg:
		m.loading = false
		m.status = fmt.Sprintf("%d stores", len(m.records))
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	header := headerStyle.Render(fmt.Sprintf("Store directory (%d)", len(m.records)))
	status := statusStyle.Render(fmt.Sprintf("%s  %3.f%%", m.status, m.viewport.ScrollPercent()*100))
	help := helpStyle.Render("Up/Down scroll | r reload | q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), status, help)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("110"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// Browse runs the browser until the user quits. start is called once the
// program exists and receives a goroutine-safe send function for pushing
// RecordsMsg and StatusMsg updates.
func Browse(m *Model, start func(send func(tea.Msg))) error {
	p := newProgram(m)
	if start != nil {
		go start(p.Send)
	}
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}
