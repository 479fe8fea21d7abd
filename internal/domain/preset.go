package domain

// StudioPreset describes one studio surface (campaign, flyer, image
// playground, ...). Presets are loaded from YAML files and validate the
// studioType passed to a session.
type StudioPreset struct {
	Name        string   `yaml:"name" json:"name"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	SystemHint  string   `yaml:"systemHint,omitempty" json:"system_hint,omitempty"`
	Accepts     []string `yaml:"accepts,omitempty" json:"accepts,omitempty"` // attachment types the studio accepts
}
