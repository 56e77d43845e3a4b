package generate

import (
	"fmt"
	"strings"
)

// Styles lists the tattoo styles a prompt can be rendered in.
var Styles = []string{
	"Traditional",
	"Realistic",
	"Minimalist",
	"Watercolor",
	"Geometric",
	"Japanese",
}

// DefaultStyle is used when a request names no style.
const DefaultStyle = "Traditional"

// Preset is a named output size accepted by the SDXL engine.
type Preset struct {
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Presets maps size labels to pixel dimensions.
var Presets = []Preset{
	{Label: "Small", Width: 768, Height: 1344},
	{Label: "Medium", Width: 1024, Height: 1024},
	{Label: "Large", Width: 1536, Height: 640},
}

// DefaultPreset is the size used when none is requested.
const DefaultPreset = "Medium"

// NormalizeStyle returns the canonical spelling of name, matched
// case-insensitively. An empty name selects DefaultStyle.
func NormalizeStyle(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultStyle, nil
	}
	for _, s := range Styles {
		if strings.EqualFold(s, name) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown style %q (valid: %s)", name, strings.Join(Styles, ", "))
}

// PresetSize looks up a size label, case-insensitively. An empty label
// selects DefaultPreset.
func PresetSize(label string) (Preset, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = DefaultPreset
	}
	for _, p := range Presets {
		if strings.EqualFold(p.Label, label) {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("unknown size %q (valid: Small, Medium, Large)", label)
}

// EnhancePrompt appends the style and quality cues sent to the model.
func EnhancePrompt(prompt, style string) string {
	return fmt.Sprintf("%s, %s style tattoo, high quality, detailed, professional tattoo design",
		strings.TrimSpace(prompt), style)
}
