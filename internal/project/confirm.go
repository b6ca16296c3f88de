package project

import (
	"context"
	"fmt"
	"strings"

	"github.com/lazyvibe/iotwb/internal/prompt"
)

const (
	confirmSeparator = "   -   "
	confirmMarker    = ">> "
	confirmDetail    = "Click to continue"
)

// confirmLabel lists "N. name" entries with the current one marked.
// Entries are marked by position, so equal names stay distinguishable.
func confirmLabel(names []string, current int) string {
	parts := make([]string, len(names))
	for i, name := range names {
		part := fmt.Sprintf("%d. %s", i+1, name)
		if i == current {
			part = confirmMarker + part
		}
		parts[i] = part
	}
	return strings.Join(parts, confirmSeparator)
}

// confirmStep asks before acting on names[current]. It returns false when
// the user cancels.
func confirmStep(ctx context.Context, p prompt.Prompter, placeholder string, names []string, current int) (bool, error) {
	item, err := p.Pick(ctx, prompt.PickOptions{
		Placeholder: placeholder,
		Confirm:     true,
	}, []prompt.Item{{
		Label:  confirmLabel(names, current),
		Detail: confirmDetail,
	}})
	if err != nil {
		return false, err
	}
	return item != nil, nil
}
