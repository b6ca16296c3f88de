package prompt

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Answer is one scripted response.
type Answer struct {
	// Choose selects the first item whose label contains this text.
	Choose string
	// Index selects an item by position when Choose is empty.
	Index int
	// Text answers an input prompt.
	Text string
	// Cancel dismisses the prompt.
	Cancel bool
}

// Choose answers a pick with the item whose label contains label.
func Choose(label string) Answer { return Answer{Choose: label} }

// ChooseIndex answers a pick with the i-th item.
func ChooseIndex(i int) Answer { return Answer{Index: i} }

// Type answers an input prompt with text.
func Type(text string) Answer { return Answer{Text: text} }

// Cancel dismisses the next prompt.
func Cancel() Answer { return Answer{Cancel: true} }

// Asked records a prompt that was shown.
type Asked struct {
	Title       string
	Placeholder string
	Labels      []string
}

// Scripted answers prompts from a fixed list, in order. It is used where no
// terminal is available, e.g. tests and unattended runs.
type Scripted struct {
	mu      sync.Mutex
	answers []Answer
	asked   []Asked
}

// NewScripted creates a prompter that replays answers.
func NewScripted(answers ...Answer) *Scripted {
	return &Scripted{answers: answers}
}

// Pick consumes the next answer.
func (s *Scripted) Pick(_ context.Context, opts PickOptions, items []Item) (*Item, error) {
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	answer, err := s.next(Asked{Title: opts.Title, Placeholder: opts.Placeholder, Labels: labels})
	if err != nil {
		return nil, err
	}
	if answer.Cancel {
		return nil, nil
	}
	if answer.Choose != "" {
		for i := range items {
			if strings.Contains(items[i].Label, answer.Choose) {
				item := items[i]
				return &item, nil
			}
		}
		return nil, fmt.Errorf("no item matches %q in %v", answer.Choose, labels)
	}
	if answer.Index < 0 || answer.Index >= len(items) {
		return nil, fmt.Errorf("item index %d out of range", answer.Index)
	}
	item := items[answer.Index]
	return &item, nil
}

// Input consumes the next answer.
func (s *Scripted) Input(_ context.Context, opts InputOptions) (string, bool, error) {
	answer, err := s.next(Asked{Title: opts.Title, Placeholder: opts.Placeholder})
	if err != nil {
		return "", false, err
	}
	if answer.Cancel {
		return "", false, nil
	}
	if opts.Validate != nil {
		if err := opts.Validate(answer.Text); err != nil {
			return "", false, err
		}
	}
	return answer.Text, true, nil
}

// Asked returns every prompt shown so far.
func (s *Scripted) Asked() []Asked {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Asked(nil), s.asked...)
}

// Remaining returns the number of unused answers.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

func (s *Scripted) next(asked Asked) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.asked = append(s.asked, asked)
	if len(s.answers) == 0 {
		return Answer{}, fmt.Errorf("unexpected prompt %q", asked.Title+asked.Placeholder)
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}
