// Package prompt provides the quick-pick and free-text prompts iotwb asks
// while creating, provisioning and deploying projects.
package prompt

import (
	"context"
	"errors"
)

// ErrNoTerminal is returned when a prompt is needed but input is not
// interactive.
var ErrNoTerminal = errors.New("prompt requires an interactive terminal")

// Item is one entry of a pick list.
type Item struct {
	Label       string
	Description string
	Detail      string
	// Value is an optional machine value carried with the item.
	Value string
}

// PickOptions configures a pick list.
type PickOptions struct {
	Title       string
	Placeholder string
	// Confirm marks a confirmation step that may be accepted unattended.
	Confirm bool
}

// InputOptions configures a free-text prompt.
type InputOptions struct {
	Title       string
	Placeholder string
	Value       string
	Password    bool
	// Complete returns suggestions for the current text, cycled with Tab.
	Complete func(string) []string
	// Validate returns a message shown under the input, or nil to accept.
	Validate func(string) error
}

// Prompter asks the user for choices. A nil item or a false ok means the
// user cancelled; errors are reserved for prompts that could not be shown.
type Prompter interface {
	Pick(ctx context.Context, opts PickOptions, items []Item) (*Item, error)
	Input(ctx context.Context, opts InputOptions) (string, bool, error)
}
