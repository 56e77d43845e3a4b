package server

import (
	"github.com/ironsheep/tattoo-studio/internal/catalog"
	"github.com/ironsheep/tattoo-studio/internal/compose"
	"github.com/ironsheep/tattoo-studio/internal/generate"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// designSourceProperties describe the two ways of naming a design.
func designSourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"design_path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the design image. Transparent areas stay see-through.",
		},
		"design_id": map[string]interface{}{
			"type":        "string",
			"description": "Id of a generated design in the library. Use instead of design_path.",
		},
	}
}

// placementProperties describe a background, a design and the five
// placement controls, plus any tool-specific extras.
func placementProperties(extra map[string]interface{}) map[string]interface{} {
	props := designSourceProperties()
	props["background_path"] = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the photo of the body area",
	}
	props["size_percent"] = map[string]interface{}{
		"type":        "number",
		"description": "Design's longer edge as a percentage of the background's shorter edge (10-50). Default 25",
		"minimum":     compose.MinSizePercent,
		"maximum":     compose.MaxSizePercent,
		"default":     25,
	}
	props["x_percent"] = map[string]interface{}{
		"type":        "number",
		"description": "Horizontal position: 0 touches the left edge, 100 the right edge. Default 50",
		"minimum":     compose.MinPositionPct,
		"maximum":     compose.MaxPositionPct,
		"default":     50,
	}
	props["y_percent"] = map[string]interface{}{
		"type":        "number",
		"description": "Vertical position: 0 touches the top edge, 100 the bottom edge. Default 50",
		"minimum":     compose.MinPositionPct,
		"maximum":     compose.MaxPositionPct,
		"default":     50,
	}
	props["rotation_degrees"] = map[string]interface{}{
		"type":        "number",
		"description": "Counter-clockwise rotation about the design's center (-180 to 180). Default 0",
		"minimum":     compose.MinRotation,
		"maximum":     compose.MaxRotation,
		"default":     0,
	}
	props["opacity_percent"] = map[string]interface{}{
		"type":        "number",
		"description": "Design opacity (20-100). Default 100",
		"minimum":     compose.MinOpacityPercent,
		"maximum":     compose.MaxOpacityPercent,
		"default":     100,
	}
	return mergeProperties(props, extra)
}

func outputPathProperty(what string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Optional absolute path to write the " + what + " PNG to. When omitted the image is returned as base64.",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Design Generation
		{
			Name:        "tattoo_styles",
			Description: "List the tattoo styles and output sizes a design can be generated in, and whether generation and the design library are available.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "tattoo_generate",
			Description: "Generate a tattoo design from a text prompt in one of the supported styles. Repeated identical requests return the remembered design.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"prompt": map[string]interface{}{
						"type":        "string",
						"description": "What the tattoo should show, e.g. \"a wolf howling at the moon\"",
					},
					"style": map[string]interface{}{
						"type":        "string",
						"enum":        generate.Styles,
						"description": "Tattoo style. Default Traditional",
						"default":     "Traditional",
					},
					"size": map[string]interface{}{
						"type":        "string",
						"enum":        presetLabels(),
						"description": "Output size: Small 768x1344, Medium 1024x1024, Large 1536x640. Default Medium",
						"default":     "Medium",
					},
					"output_path": outputPathProperty("design"),
				},
				"required": []string{"prompt"},
			},
		},
		{
			Name:        "tattoo_designs",
			Description: "List recently generated designs from the library, newest first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of designs. Default 20",
						"default":     20,
					},
				},
			},
		},
		{
			Name:        "tattoo_design_export",
			Description: "Fetch a generated design from the library by id.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Design id from tattoo_generate or tattoo_designs",
					},
					"output_path": outputPathProperty("design"),
				},
				"required": []string{"id"},
			},
		},

		// Placement
		{
			Name:        "tattoo_resolve",
			Description: "Compute where a design would land on a background for the given placement controls, without rendering: resampled size, rotated bounds, offset and alpha.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": placementProperties(nil),
				"required":   []string{"background_path"},
			},
		},
		{
			Name:        "tattoo_preview",
			Description: "Render a design onto a photo of a body area. The result is the background's size with the design resampled, rotated, faded and placed per the controls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": placementProperties(map[string]interface{}{
					"output_path": outputPathProperty("preview"),
				}),
				"required": []string{"background_path"},
			},
		},
		{
			Name:        "tattoo_zoom",
			Description: "Render a preview and crop a close-up around the placed design. Use this to check how line work sits on the skin.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": placementProperties(map[string]interface{}{
					"margin_percent": map[string]interface{}{
						"type":        "number",
						"description": "Margin around the design as a percentage of its larger rotated edge (0-100). Default 25",
						"default":     25,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for the close-up (up to 8). Default 2.0",
						"default":     2.0,
					},
				}),
				"required": []string{"background_path"},
			},
		},
		{
			Name:        "tattoo_placement_grid",
			Description: "Overlay percentage guide lines on a background to help choose x_percent and y_percent. The guides are approximate: a design placed at p% starts left of (or above) the p% line by p% of its own size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the background image",
					},
					"step_percent": map[string]interface{}{
						"type":        "number",
						"description": "Distance between guide lines in percent (5-50). Default 10",
						"default":     10,
					},
					"show_labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Label each line with its percentage. Default false",
						"default":     false,
					},
					"grid_color": map[string]interface{}{
						"type":        "string",
						"description": "Line color as hex (#RRGGBB or #RRGGBBAA). Default #FF0000A0",
					},
				},
				"required": []string{"path"},
			},
		},

		// Image Inspection
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, file size and whether it has transparency.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_sample_color",
			Description: "Get the exact color value at a specific pixel coordinate.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "image_sample_colors_multi",
			Description: "Get color values at multiple pixel coordinates in a single call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Points to sample",
					},
				},
				"required": []string{"path", "points"},
			},
		},
		{
			Name:        "tattoo_palette",
			Description: "Extract the ink colors of a design, ignoring transparent areas and merging shades that look alike.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": mergeProperties(designSourceProperties(), map[string]interface{}{
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colors to return. Default 5",
						"default":     5,
					},
				}),
			},
		},

		// Artist Handoff
		{
			Name:        "tattoo_stencil",
			Description: "Trace a design into black line art on white paper, ready to transfer onto skin.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": mergeProperties(designSourceProperties(), map[string]interface{}{
					"blur_radius": map[string]interface{}{
						"type":        "number",
						"description": "Smoothing before tracing (0-20). Default 1.5",
						"default":     1.5,
					},
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Edge strength (0-255) that becomes a line. Default 64",
						"default":     64,
					},
					"line_weight": map[string]interface{}{
						"type":        "number",
						"description": "Line thickening radius in pixels (0-10). Default 1",
						"default":     1,
					},
					"transparent": map[string]interface{}{
						"type":        "boolean",
						"description": "Use transparent paper so the stencil can be previewed on skin. Default false",
						"default":     false,
					},
					"output_path": outputPathProperty("stencil"),
				}),
			},
		},
		{
			Name:        "tattoo_lettering_check",
			Description: "Read the lettering in a design with OCR and report which expected words were found. Generated lettering is often misspelled.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": mergeProperties(designSourceProperties(), map[string]interface{}{
					"expected": map[string]interface{}{
						"type":        "string",
						"description": "The text the design should contain",
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Default eng",
						"default":     "eng",
					},
				}),
				"required": []string{"expected"},
			},
		},

		// Catalog
		{
			Name:        "tattoo_studios",
			Description: "List partner tattoo studios, or get one studio with a QR code for its booking page.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"enum":        studioIDs(),
						"description": "Studio id. When omitted all studios are listed",
					},
					"qr_size": map[string]interface{}{
						"type":        "integer",
						"description": "QR code size in pixels (64-2048). Default 256",
						"default":     256,
					},
				},
			},
		},
		{
			Name:        "tattoo_gallery",
			Description: "List the inspiration gallery, or download one gallery photo to use as a design or background.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Gallery item to download (0-based). When omitted the gallery is listed",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to save the downloaded photo to. Required with index",
					},
				},
			},
		},
	}
}

func presetLabels() []string {
	labels := make([]string, len(generate.Presets))
	for i, p := range generate.Presets {
		labels[i] = p.Label
	}
	return labels
}

func studioIDs() []string {
	ids := make([]string, len(catalog.Studios))
	for i, s := range catalog.Studios {
		ids[i] = s.ID
	}
	return ids
}

func mergeProperties(base, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
