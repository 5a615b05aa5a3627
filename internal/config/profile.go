package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the per-document compilation profile: style names, the
// citation strategy and layout knobs. Loaded from YAML; every field
// has a working default.
type Profile struct {
	// Strategy selects citation conversion: "hyperlink" or "text".
	Strategy string `yaml:"strategy"`

	MainHeadingStyle     string `yaml:"main_heading_style"`
	AppendixHeadingStyle string `yaml:"appendix_heading_style"`

	FigureCaptionStyle string `yaml:"figure_caption_style"`
	TableCaptionStyle  string `yaml:"table_caption_style"`

	// EquationTabTwips positions the right tab stop for equation
	// number chains.
	EquationTabTwips int `yaml:"equation_tab_twips"`
}

// DefaultProfile returns the conventional report profile.
func DefaultProfile() Profile {
	return Profile{
		Strategy:             "hyperlink",
		MainHeadingStyle:     "Heading 1",
		AppendixHeadingStyle: "Appendix",
		FigureCaptionStyle:   "Image Caption",
		TableCaptionStyle:    "Table Caption",
		EquationTabTwips:     9026,
	}
}

// LoadProfile reads a YAML profile, filling omitted fields from the
// defaults. An empty path returns the defaults.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse profile: %w", err)
	}
	if p.Strategy != "hyperlink" && p.Strategy != "text" {
		return p, fmt.Errorf("profile strategy must be \"hyperlink\" or \"text\", got %q", p.Strategy)
	}
	return p, nil
}
