package model

// ProjectTemplate describes a starting point offered by "iotwb create".
type ProjectTemplate struct {
	// Name is the display name.
	Name string `yaml:"name" json:"name"`
	// Description is shown next to the name when picking.
	Description string `yaml:"description" json:"description"`
	// Type selects the cloud components the project is created with.
	Type TemplateType `yaml:"type" json:"type"`
	// Sketch names the device code template, without extension.
	Sketch string `yaml:"sketch" json:"sketch"`
	// Boards restricts the template to these board ids; empty means any.
	Boards []string `yaml:"boards,omitempty" json:"boards,omitempty"`
}

// SupportsBoard reports whether the template may be used with boardID.
func (t *ProjectTemplate) SupportsBoard(boardID string) bool {
	if len(t.Boards) == 0 {
		return true
	}
	for _, b := range t.Boards {
		if b == boardID {
			return true
		}
	}
	return false
}
