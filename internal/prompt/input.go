package prompt

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const maxSuggestions = 5

// inputModel is a single free-text field with optional completion.
type inputModel struct {
	opts            InputOptions
	input           textinput.Model
	suggestions     []string
	suggestionIndex int
	showSuggestions bool
	err             error
	submitted       bool
	styles          Styles
}

func newInputModel(opts InputOptions) inputModel {
	ti := textinput.New()
	ti.Placeholder = opts.Placeholder
	ti.SetValue(opts.Value)
	ti.CharLimit = 1024
	ti.Width = 60
	if opts.Password {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	ti.Focus()

	return inputModel{
		opts:   opts,
		input:  ti,
		styles: DefaultStyles(),
	}
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.showSuggestions {
				// First Esc hides suggestions
				m.showSuggestions = false
				m.suggestions = nil
				return m, nil
			}
			return m, tea.Quit
		case "enter":
			if m.opts.Validate != nil {
				if err := m.opts.Validate(m.input.Value()); err != nil {
					m.err = err
					return m, nil
				}
			}
			m.submitted = true
			return m, tea.Quit
		case "tab":
			if m.opts.Complete == nil {
				return m, nil
			}
			if !m.showSuggestions || len(m.suggestions) == 0 {
				m.updateSuggestions()
				m.showSuggestions = len(m.suggestions) > 0
			} else {
				m.suggestionIndex = (m.suggestionIndex + 1) % len(m.suggestions)
			}
			if m.showSuggestions {
				m.input.SetValue(m.suggestions[m.suggestionIndex])
				m.input.CursorEnd()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.err = nil
	if m.showSuggestions {
		m.updateSuggestions()
		m.showSuggestions = len(m.suggestions) > 0
	}
	return m, cmd
}

func (m *inputModel) updateSuggestions() {
	m.suggestions = m.opts.Complete(m.input.Value())
	m.suggestionIndex = 0
}

func (m inputModel) View() string {
	var b strings.Builder

	if m.opts.Title != "" {
		b.WriteString(m.styles.Title.Render(m.opts.Title))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(m.styles.Error.Render(m.err.Error()))
		b.WriteString("\n")
	}

	if m.showSuggestions {
		shown := min(len(m.suggestions), maxSuggestions)
		for j := 0; j < shown; j++ {
			if j == m.suggestionIndex {
				b.WriteString(m.styles.Selected.Render("→ " + m.suggestions[j]))
			} else {
				b.WriteString(m.styles.Suggestion.Render("  " + m.suggestions[j]))
			}
			b.WriteString("\n")
		}
		if len(m.suggestions) > shown {
			b.WriteString(m.styles.Suggestion.Render("  ..."))
			b.WriteString("\n")
		}
	}

	helpText := "Enter: Confirm • Esc: Cancel"
	if m.opts.Complete != nil {
		helpText = "Tab: Cycle suggestions • Enter: Confirm • Esc: Cancel"
	}
	b.WriteString(m.styles.Help.Render(helpText))

	return m.styles.Box.Render(b.String())
}
