// Package board holds the catalog of supported boards and project
// templates.
package board

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/lazyvibe/iotwb/internal/model"
)

// Kind selects the device component used for a board.
type Kind string

const (
	KindArduino     Kind = "arduino"
	KindIoTButton   Kind = "iotbutton"
	KindRaspberryPi Kind = "raspberrypi"
)

// Installation locates the board core for arduino-cli.
type Installation struct {
	PackageName   string `yaml:"packageName" validate:"required"`
	Architecture  string `yaml:"architecture" validate:"required"`
	AdditionalURL string `yaml:"additionalUrl" validate:"omitempty,url"`
}

// Core returns the "package:architecture" core identifier.
func (i *Installation) Core() string {
	return i.PackageName + ":" + i.Architecture
}

// Board is a supported device board.
type Board struct {
	ID           string        `yaml:"id" validate:"required"`
	Name         string        `yaml:"name" validate:"required"`
	DetailInfo   string        `yaml:"detailInfo"`
	Kind         Kind          `yaml:"kind" validate:"required,oneof=arduino iotbutton raspberrypi"`
	FQBN         string        `yaml:"fqbn" validate:"required_if=Kind arduino"`
	Installation *Installation `yaml:"installation" validate:"required_if=Kind arduino"`
}

// Catalog lists boards and templates.
type Catalog struct {
	Boards       []Board                 `yaml:"boards" validate:"required,dive"`
	TemplateList []model.ProjectTemplate `yaml:"templates" validate:"required"`
}

//go:embed catalog.yaml
var catalogYAML []byte

var defaultCatalog *Catalog

func init() {
	c, err := Parse(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("board catalog: %v", err))
	}
	defaultCatalog = c
}

// Default returns the embedded catalog.
func Default() *Catalog {
	return defaultCatalog
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&c); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(c.Boards))
	for _, b := range c.Boards {
		if seen[b.ID] {
			return nil, fmt.Errorf("duplicate board %q", b.ID)
		}
		seen[b.ID] = true
	}
	return &c, nil
}

// Find returns the board with id.
func (c *Catalog) Find(id string) (*Board, bool) {
	for i := range c.Boards {
		if c.Boards[i].ID == id {
			return &c.Boards[i], true
		}
	}
	return nil, false
}

// Templates returns the templates usable with boardID.
func (c *Catalog) Templates(boardID string) []model.ProjectTemplate {
	var result []model.ProjectTemplate
	for _, t := range c.TemplateList {
		if t.SupportsBoard(boardID) {
			result = append(result, t)
		}
	}
	return result
}

// FindTemplate returns the template of type t usable with boardID.
func (c *Catalog) FindTemplate(t model.TemplateType, boardID string) (*model.ProjectTemplate, bool) {
	for _, tmpl := range c.Templates(boardID) {
		if tmpl.Type == t {
			return &tmpl, true
		}
	}
	return nil, false
}

// IDs returns every board id, sorted.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.Boards))
	for _, b := range c.Boards {
		ids = append(ids, b.ID)
	}
	sort.Strings(ids)
	return ids
}
