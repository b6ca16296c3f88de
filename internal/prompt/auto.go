package prompt

import "context"

// AutoConfirm accepts single-item confirmation picks without asking and
// forwards every other prompt.
type AutoConfirm struct {
	Prompter
}

// NewAutoConfirm wraps p.
func NewAutoConfirm(p Prompter) *AutoConfirm {
	return &AutoConfirm{Prompter: p}
}

// Pick returns the only item of a confirmation step directly.
func (a *AutoConfirm) Pick(ctx context.Context, opts PickOptions, items []Item) (*Item, error) {
	if opts.Confirm && len(items) == 1 {
		item := items[0]
		return &item, nil
	}
	return a.Prompter.Pick(ctx, opts, items)
}
