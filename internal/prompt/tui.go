package prompt

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// TUI shows prompts as small inline bubbletea programs.
type TUI struct {
	in  io.Reader
	out io.Writer
}

// NewTUI creates a prompter reading keys from in and drawing to out.
func NewTUI(in io.Reader, out io.Writer) *TUI {
	return &TUI{in: in, out: out}
}

// Pick shows a filterable list. An empty list is treated as a cancel.
func (t *TUI) Pick(ctx context.Context, opts PickOptions, items []Item) (*Item, error) {
	if len(items) == 0 {
		return nil, nil
	}
	final, err := t.run(ctx, newPickModel(opts, items))
	if err != nil {
		return nil, err
	}
	return final.(pickModel).chosen, nil
}

// Input shows a single text field.
func (t *TUI) Input(ctx context.Context, opts InputOptions) (string, bool, error) {
	final, err := t.run(ctx, newInputModel(opts))
	if err != nil {
		return "", false, err
	}
	m := final.(inputModel)
	if !m.submitted {
		return "", false, nil
	}
	return m.input.Value(), true, nil
}

func (t *TUI) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	if f, ok := t.in.(*os.File); ok && !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return nil, ErrNoTerminal
	}

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
	)
	final, err := p.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	return final, nil
}
