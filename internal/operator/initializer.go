package operator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lazyvibe/iotwb/internal/board"
	"github.com/lazyvibe/iotwb/internal/model"
	"github.com/lazyvibe/iotwb/internal/project"
	"github.com/lazyvibe/iotwb/internal/prompt"
	"github.com/lazyvibe/iotwb/pkg/utils"
)

// Request preselects the answers of Initialize. Empty fields are asked.
type Request struct {
	Root      string
	Board     string
	Template  model.TemplateType
	NewWindow bool
}

// ProjectInitializer creates new projects.
type ProjectInitializer struct {
	opts      project.Options
	catalog   *board.Catalog
	completer *utils.PathCompleter
}

// NewProjectInitializer creates a ProjectInitializer. recentPaths seed the
// folder completion.
func NewProjectInitializer(opts project.Options, catalog *board.Catalog, recentPaths []string) *ProjectInitializer {
	return &ProjectInitializer{
		opts:      opts,
		catalog:   catalog,
		completer: utils.NewPathCompleter(recentPaths),
	}
}

// Initialize asks for the project folder, board and template, then creates
// the project. It returns the absolute project root.
func (i *ProjectInitializer) Initialize(ctx context.Context, req Request) (string, bool, error) {
	var root string
	ok, err := CallWithTelemetry(ctx, i.opts.Notifier, EventInitializeProject, func(ctx context.Context) (bool, error) {
		var ok bool
		var err error
		root, ok, err = i.root(ctx, req.Root)
		if err != nil || !ok {
			return false, err
		}
		b, ok, err := i.board(ctx, req.Board)
		if err != nil || !ok {
			return false, err
		}
		tmpl, ok, err := i.template(ctx, b.ID, req.Template)
		if err != nil || !ok {
			return false, err
		}

		if err := os.MkdirAll(root, 0755); err != nil {
			return false, err
		}
		return project.New(i.opts).Create(ctx, root, tmpl, b.ID, req.NewWindow)
	})
	return root, ok, err
}

func (i *ProjectInitializer) root(ctx context.Context, root string) (string, bool, error) {
	if root == "" {
		text, ok, err := i.opts.Prompter.Input(ctx, prompt.InputOptions{
			Title:       "Project folder",
			Placeholder: "Enter the folder of the new project",
			Complete:    i.completer.Complete,
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("project folder is required")
				}
				return project.CheckRoot(utils.ExpandPath(strings.TrimSpace(s)))
			},
		})
		if err != nil || !ok {
			return "", false, err
		}
		root = strings.TrimSpace(text)
	}

	abs, err := filepath.Abs(utils.ExpandPath(root))
	if err != nil {
		return "", false, err
	}
	if err := project.CheckRoot(abs); err != nil {
		return "", false, err
	}
	return abs, true, nil
}

func (i *ProjectInitializer) board(ctx context.Context, boardID string) (*board.Board, bool, error) {
	if boardID != "" {
		b, ok := i.catalog.Find(boardID)
		if !ok {
			return nil, false, fmt.Errorf("board %q: %w", boardID, project.ErrUnsupportedBoard)
		}
		return b, true, nil
	}

	items := make([]prompt.Item, 0, len(i.catalog.Boards))
	for _, b := range i.catalog.Boards {
		items = append(items, prompt.Item{Label: b.Name, Description: b.DetailInfo, Value: b.ID})
	}
	picked, err := i.opts.Prompter.Pick(ctx, prompt.PickOptions{Title: "Select a board"}, items)
	if err != nil || picked == nil {
		return nil, false, err
	}
	b, _ := i.catalog.Find(picked.Value)
	return b, true, nil
}

func (i *ProjectInitializer) template(ctx context.Context, boardID string, t model.TemplateType) (*model.ProjectTemplate, bool, error) {
	if t != "" {
		tmpl, ok := i.catalog.FindTemplate(t, boardID)
		if !ok {
			return nil, false, fmt.Errorf("template %q for board %s: %w", t, boardID, project.ErrUnsupportedTemplate)
		}
		return tmpl, true, nil
	}

	templates := i.catalog.Templates(boardID)
	items := make([]prompt.Item, 0, len(templates))
	for _, tmpl := range templates {
		items = append(items, prompt.Item{Label: tmpl.Name, Description: tmpl.Description, Value: string(tmpl.Type)})
	}
	picked, err := i.opts.Prompter.Pick(ctx, prompt.PickOptions{Title: "Select a project template"}, items)
	if err != nil || picked == nil {
		return nil, false, err
	}
	tmpl, _ := i.catalog.FindTemplate(model.TemplateType(picked.Value), boardID)
	return tmpl, true, nil
}
