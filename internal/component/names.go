package component

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/lazyvibe/iotwb/internal/prompt"
)

// nameRule validates Azure resource names entered at provisioning time.
type nameRule struct {
	what    string
	pattern *regexp.Regexp
	min     int
	max     int
}

var (
	iotHubNameRule      = nameRule{what: "IoT Hub name", pattern: regexp.MustCompile(`^[A-Za-z0-9-]+$`), min: 3, max: 50}
	functionAppNameRule = nameRule{what: "Function App name", pattern: regexp.MustCompile(`^[A-Za-z0-9-]+$`), min: 2, max: 60}
	cosmosAccountRule   = nameRule{what: "Cosmos DB account name", pattern: regexp.MustCompile(`^[a-z0-9-]+$`), min: 3, max: 44}
	asaJobNameRule      = nameRule{what: "Stream Analytics job name", pattern: regexp.MustCompile(`^[A-Za-z0-9_-]+$`), min: 3, max: 63}
	deviceIDRule        = nameRule{what: "Device ID", pattern: regexp.MustCompile(`^[A-Za-z0-9\-:.+%_#*?!(),=@;$']+$`), min: 1, max: 128}
)

func (r nameRule) validate(s string) error {
	if len(s) < r.min || len(s) > r.max {
		return fmt.Errorf("%s must be %d to %d characters", r.what, r.min, r.max)
	}
	if !r.pattern.MatchString(s) {
		return fmt.Errorf("%s contains invalid characters", r.what)
	}
	return nil
}

// askName prompts for a resource name checked against rule.
func askName(ctx context.Context, p prompt.Prompter, title, value string, rule nameRule) (string, bool, error) {
	name, ok, err := p.Input(ctx, prompt.InputOptions{
		Title:       title,
		Placeholder: rule.what,
		Value:       value,
		Validate:    rule.validate,
	})
	if err != nil || !ok {
		return "", false, err
	}
	name = strings.TrimSpace(name)
	if err := rule.validate(name); err != nil {
		return "", false, err
	}
	return name, true, nil
}
