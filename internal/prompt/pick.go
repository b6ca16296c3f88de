package prompt

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxVisibleItems = 10

// pickModel is a filterable single-select list.
type pickModel struct {
	opts    PickOptions
	items   []Item
	filter  textinput.Model
	visible []int
	cursor  int
	offset  int
	chosen  *Item
	styles  Styles
}

func newPickModel(opts PickOptions, items []Item) pickModel {
	ti := textinput.New()
	ti.Placeholder = opts.Placeholder
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Width = 60
	ti.Focus()

	m := pickModel{
		opts:   opts,
		items:  items,
		filter: ti,
		styles: DefaultStyles(),
	}
	m.refilter()
	return m
}

func (m pickModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m pickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			m.chosen = nil
			return m, tea.Quit
		case "enter":
			if len(m.visible) == 0 {
				return m, nil
			}
			item := m.items[m.visible[m.cursor]]
			m.chosen = &item
			return m, tea.Quit
		case "up", "ctrl+p", "shift+tab":
			if m.cursor > 0 {
				m.cursor--
				m.ensureVisible()
			}
			return m, nil
		case "down", "ctrl+n", "tab":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
				m.ensureVisible()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refilter()
	return m, cmd
}

// refilter keeps the items whose label or description contains the filter
// text, case-insensitively.
func (m *pickModel) refilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	visible := make([]int, 0, len(m.items))
	for i, item := range m.items {
		if query == "" || strings.Contains(strings.ToLower(item.Label+" "+item.Description), query) {
			visible = append(visible, i)
		}
	}
	m.visible = visible
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureVisible()
}

func (m *pickModel) ensureVisible() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+maxVisibleItems {
		m.offset = m.cursor - maxVisibleItems + 1
	}
	if m.offset > 0 && m.offset > len(m.visible)-maxVisibleItems {
		m.offset = max(len(m.visible)-maxVisibleItems, 0)
	}
}

func (m pickModel) View() string {
	var b strings.Builder

	if m.opts.Title != "" {
		b.WriteString(m.styles.Title.Render(m.opts.Title))
		b.WriteString("\n")
	}
	b.WriteString(m.filter.View())
	b.WriteString("\n")

	if len(m.visible) == 0 {
		b.WriteString(m.styles.Description.Render("  No matching items"))
		b.WriteString("\n")
	}

	end := min(m.offset+maxVisibleItems, len(m.visible))
	for i := m.offset; i < end; i++ {
		item := m.items[m.visible[i]]
		label := item.Label
		if item.Description != "" {
			label += " " + m.styles.Description.Render(item.Description)
		}
		if i == m.cursor {
			b.WriteString(m.styles.ItemSelected.Render("→ " + label))
		} else {
			b.WriteString(m.styles.Item.Render("  " + label))
		}
		b.WriteString("\n")
		if item.Detail != "" {
			b.WriteString(m.styles.Detail.Render(item.Detail))
			b.WriteString("\n")
		}
	}
	if len(m.visible) > maxVisibleItems {
		b.WriteString(m.styles.Description.Render("  ..."))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Help.Render("↑/↓: Move • Enter: Select • Esc: Cancel"))

	return m.styles.Box.Render(lipgloss.JoinVertical(lipgloss.Left, b.String()))
}
