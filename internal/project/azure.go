package project

import (
	"context"
	"errors"
	"strings"

	"github.com/lazyvibe/iotwb/internal/cloud"
	"github.com/lazyvibe/iotwb/internal/prompt"
)

// ensureSignedIn offers an interactive sign-in when no Azure account is
// signed in. A declined or failed sign-in returns false.
func (p *Project) ensureSignedIn(ctx context.Context) (bool, error) {
	ok, err := p.opts.Toolkit.LoggedIn(ctx)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	choice, err := p.opts.Prompter.Pick(ctx, prompt.PickOptions{
		Title:       "Azure account",
		Placeholder: "You are not signed in to Azure",
	}, []prompt.Item{
		{Label: "Sign in", Description: "Sign in with the Azure CLI", Value: "signin"},
		{Label: "Cancel", Value: "cancel"},
	})
	if err != nil {
		return false, err
	}
	if choice == nil || choice.Value != "signin" {
		p.opts.Notifier.Warn(ctx, "Azure sign-in is required.")
		return false, nil
	}
	if err := p.opts.Toolkit.Login(ctx); err != nil {
		p.logger.Warn().Err(err).Msg("Azure sign-in failed")
		p.opts.Notifier.Warn(ctx, "Azure sign-in failed.")
		return false, nil
	}
	return true, nil
}

// selectTarget asks for the subscription and resource group to provision
// into. A resource group may be created on the way.
func (p *Project) selectTarget(ctx context.Context) (cloud.Target, bool, error) {
	subs, err := p.opts.Toolkit.Subscriptions(ctx)
	if err != nil {
		return cloud.Target{}, false, err
	}
	if len(subs) == 0 {
		p.opts.Notifier.Warn(ctx, "No Azure subscription found.")
		return cloud.Target{}, false, nil
	}

	sub := subs[0]
	if len(subs) > 1 {
		items := make([]prompt.Item, 0, len(subs))
		for _, s := range subs {
			item := prompt.Item{Label: s.Name, Description: s.ID, Value: s.ID}
			if s.IsDefault {
				item.Detail = "default"
			}
			items = append(items, item)
		}
		picked, err := p.opts.Prompter.Pick(ctx, prompt.PickOptions{Title: "Select subscription"}, items)
		if err != nil || picked == nil {
			return cloud.Target{}, false, err
		}
		for _, s := range subs {
			if s.ID == picked.Value {
				sub = s
			}
		}
	}

	groups, err := p.opts.Toolkit.ResourceGroups(ctx, sub.ID)
	if err != nil {
		return cloud.Target{}, false, err
	}
	items := []prompt.Item{{Label: "$(plus) Create Resource Group", Description: "Create a new resource group", Value: "create"}}
	for _, g := range groups {
		items = append(items, prompt.Item{Label: g.Name, Description: g.Location})
	}
	picked, err := p.opts.Prompter.Pick(ctx, prompt.PickOptions{Title: "Select resource group", Placeholder: sub.Name}, items)
	if err != nil || picked == nil {
		return cloud.Target{}, false, err
	}
	if picked.Value != "create" {
		for _, g := range groups {
			if g.Name == picked.Label {
				return cloud.Target{SubscriptionID: sub.ID, ResourceGroup: g.Name, Location: g.Location}, true, nil
			}
		}
	}

	name, ok, err := p.opts.Prompter.Input(ctx, prompt.InputOptions{
		Title:       "Enter resource group name",
		Placeholder: "Resource group name",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("resource group name is required")
			}
			return nil
		},
	})
	if err != nil || !ok {
		return cloud.Target{}, false, err
	}
	locations, err := p.opts.Toolkit.Locations(ctx, sub.ID)
	if err != nil {
		return cloud.Target{}, false, err
	}
	locationItems := make([]prompt.Item, 0, len(locations))
	for _, l := range locations {
		locationItems = append(locationItems, prompt.Item{Label: l})
	}
	location, err := p.opts.Prompter.Pick(ctx, prompt.PickOptions{Title: "Select location"}, locationItems)
	if err != nil || location == nil {
		return cloud.Target{}, false, err
	}
	group, err := p.opts.Toolkit.CreateResourceGroup(ctx, sub.ID, strings.TrimSpace(name), location.Label)
	if err != nil {
		return cloud.Target{}, false, err
	}
	return cloud.Target{SubscriptionID: sub.ID, ResourceGroup: group.Name, Location: group.Location}, true, nil
}
