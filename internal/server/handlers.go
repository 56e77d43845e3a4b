package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/ironsheep/tattoo-studio/internal/catalog"
	"github.com/ironsheep/tattoo-studio/internal/compose"
	"github.com/ironsheep/tattoo-studio/internal/generate"
	"github.com/ironsheep/tattoo-studio/internal/imaging"
	"github.com/ironsheep/tattoo-studio/internal/lettering"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "tattoo_preview", "image_load").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// errBadArguments marks tool arguments that are malformed or missing.
var errBadArguments = errors.New("bad arguments")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Bad arguments and out-of-range placement controls return code -32602.
// Any other tool failure returns code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, errBadArguments) || errors.Is(err, compose.ErrInvalidParams) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads backgrounds and designs from the cache or the library
//  4. Calls the compose/imaging/generate package that does the work
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Design Generation
	case "tattoo_styles":
		return s.handleTattooStyles(args)
	case "tattoo_generate":
		return s.handleTattooGenerate(ctx, args)
	case "tattoo_designs":
		return s.handleTattooDesigns(ctx, args)
	case "tattoo_design_export":
		return s.handleTattooDesignExport(ctx, args)

	// Placement
	case "tattoo_resolve":
		return s.handleTattooResolve(ctx, args)
	case "tattoo_preview":
		return s.handleTattooPreview(ctx, args)
	case "tattoo_zoom":
		return s.handleTattooZoom(ctx, args)
	case "tattoo_placement_grid":
		return s.handleTattooPlacementGrid(args)

	// Image Inspection
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_sample_color":
		return s.handleImageSampleColor(args)
	case "image_sample_colors_multi":
		return s.handleImageSampleColorsMulti(args)
	case "tattoo_palette":
		return s.handleTattooPalette(ctx, args)

	// Artist Handoff
	case "tattoo_stencil":
		return s.handleTattooStencil(ctx, args)
	case "tattoo_lettering_check":
		return s.handleTattooLetteringCheck(ctx, args)

	// Catalog
	case "tattoo_studios":
		return s.handleTattooStudios(args)
	case "tattoo_gallery":
		return s.handleTattooGallery(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Tools without required arguments
// may be called with none at all.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errBadArguments, err)
	}
	return nil
}

// writeOutput saves encoded image bytes, creating parent directories.
func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// designSource names a design by file path or by library id.
type designSource struct {
	DesignPath string `json:"design_path"`
	DesignID   string `json:"design_id"`
}

// designBytes returns the encoded design.
func (s *Server) designBytes(ctx context.Context, src designSource) ([]byte, error) {
	switch {
	case src.DesignPath != "" && src.DesignID != "":
		return nil, fmt.Errorf("%w: give design_path or design_id, not both", errBadArguments)
	case src.DesignPath != "":
		data, err := os.ReadFile(src.DesignPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read design: %w", err)
		}
		return data, nil
	case src.DesignID != "":
		d, err := s.libraryDesign(ctx, src.DesignID)
		if err != nil {
			return nil, err
		}
		return d.Image, nil
	default:
		return nil, fmt.Errorf("%w: design_path or design_id is required", errBadArguments)
	}
}

// designImage returns the decoded design. Paths go through the image cache.
func (s *Server) designImage(ctx context.Context, src designSource) (*image.NRGBA, error) {
	if src.DesignPath != "" && src.DesignID == "" {
		return s.cache.Load(src.DesignPath)
	}
	data, err := s.designBytes(ctx, src)
	if err != nil {
		return nil, err
	}
	return compose.Decode(data)
}

func (s *Server) libraryDesign(ctx context.Context, id string) (*generate.Design, error) {
	if s.designs == nil {
		return nil, errors.New("design library is not configured")
	}
	return s.designs.Get(ctx, id)
}

// === Design Generation Handlers ===

type stylesResult struct {
	Styles       []string          `json:"styles"`
	DefaultStyle string            `json:"default_style"`
	Sizes        []generate.Preset `json:"sizes"`
	DefaultSize  string            `json:"default_size"`
	CanGenerate  bool              `json:"can_generate"`
	HasLibrary   bool              `json:"has_library"`
}

func (s *Server) handleTattooStyles(args json.RawMessage) (interface{}, error) {
	return &stylesResult{
		Styles:       generate.Styles,
		DefaultStyle: generate.DefaultStyle,
		Sizes:        generate.Presets,
		DefaultSize:  generate.DefaultPreset,
		CanGenerate:  s.generator != nil,
		HasLibrary:   s.designs != nil,
	}, nil
}

type tattooGenerateArgs struct {
	Prompt     string `json:"prompt"`
	Style      string `json:"style"`
	Size       string `json:"size"`
	OutputPath string `json:"output_path"`
}

type designResult struct {
	Design      *generate.Design `json:"design"`
	OutputPath  string           `json:"output_path,omitempty"`
	ImageBase64 string           `json:"image_base64,omitempty"`
}

// newDesignResult writes the design to outputPath, or inlines it as base64
// when no path is given.
func newDesignResult(d *generate.Design, outputPath string) (*designResult, error) {
	res := &designResult{Design: d}
	if outputPath == "" {
		res.ImageBase64 = base64.StdEncoding.EncodeToString(d.Image)
		return res, nil
	}
	if err := writeOutput(outputPath, d.Image); err != nil {
		return nil, err
	}
	res.OutputPath = outputPath
	return res, nil
}

func (s *Server) handleTattooGenerate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a tattooGenerateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if s.generator == nil {
		return nil, errors.New("image generation is not configured: set STABILITY_API_KEY")
	}

	preset, err := generate.PresetSize(a.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadArguments, err)
	}
	req, err := generate.Request{
		Prompt: a.Prompt,
		Style:  a.Style,
		Width:  preset.Width,
		Height: preset.Height,
	}.Normalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadArguments, err)
	}

	d, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return newDesignResult(d, a.OutputPath)
}

type tattooDesignsArgs struct {
	Limit int `json:"limit"`
}

type designsResult struct {
	Designs []*generate.Design `json:"designs"`
	Count   int                `json:"count"`
}

func (s *Server) handleTattooDesigns(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a tattooDesignsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Limit == 0 {
		a.Limit = 20
	}
	if s.designs == nil {
		return nil, errors.New("design library is not configured")
	}
	designs, err := s.designs.Recent(ctx, a.Limit)
	if err != nil {
		return nil, err
	}
	return &designsResult{Designs: designs, Count: len(designs)}, nil
}

type tattooDesignExportArgs struct {
	ID         string `json:"id"`
	OutputPath string `json:"output_path"`
}

func (s *Server) handleTattooDesignExport(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a tattooDesignExportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		return nil, fmt.Errorf("%w: id is required", errBadArguments)
	}
	d, err := s.libraryDesign(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return newDesignResult(d, a.OutputPath)
}

// === Placement Handlers ===

// placementArgs are shared by the tools that place a design on a
// background. Omitted controls take their default positions.
type placementArgs struct {
	BackgroundPath string `json:"background_path"`
	designSource

	SizePercent     *float64 `json:"size_percent"`
	XPercent        *float64 `json:"x_percent"`
	YPercent        *float64 `json:"y_percent"`
	RotationDegrees *float64 `json:"rotation_degrees"`
	OpacityPercent  *float64 `json:"opacity_percent"`
}

func (a placementArgs) params() compose.Params {
	p := compose.DefaultParams()
	if a.SizePercent != nil {
		p.SizePercent = *a.SizePercent
	}
	if a.XPercent != nil {
		p.XPercent = *a.XPercent
	}
	if a.YPercent != nil {
		p.YPercent = *a.YPercent
	}
	if a.RotationDegrees != nil {
		p.RotationDegrees = *a.RotationDegrees
	}
	if a.OpacityPercent != nil {
		p.OpacityPercent = *a.OpacityPercent
	}
	return p
}

func (s *Server) loadPlacement(ctx context.Context, a placementArgs) (bg, fg *image.NRGBA, err error) {
	if a.BackgroundPath == "" {
		return nil, nil, fmt.Errorf("%w: background_path is required", errBadArguments)
	}
	bg, err = s.cache.Load(a.BackgroundPath)
	if err != nil {
		return nil, nil, err
	}
	fg, err = s.designImage(ctx, a.designSource)
	if err != nil {
		return nil, nil, err
	}
	return bg, fg, nil
}

type resolveResult struct {
	Background compose.Size     `json:"background"`
	Design     compose.Size     `json:"design"`
	Params     compose.Params   `json:"params"`
	Geometry   compose.Geometry `json:"geometry"`
}

func (s *Server) handleTattooResolve(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a placementArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	bg, fg, err := s.loadPlacement(ctx, a)
	if err != nil {
		return nil, err
	}
	p := a.params()
	g, err := compose.Resolve(compose.SizeOf(bg), compose.SizeOf(fg), p)
	if err != nil {
		return nil, err
	}
	return &resolveResult{
		Background: compose.SizeOf(bg),
		Design:     compose.SizeOf(fg),
		Params:     p,
		Geometry:   g,
	}, nil
}

type tattooPreviewArgs struct {
	placementArgs
	OutputPath string `json:"output_path"`
}

type previewResult struct {
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	Params      compose.Params   `json:"params"`
	Geometry    compose.Geometry `json:"geometry"`
	OutputPath  string           `json:"output_path,omitempty"`
	ImageBase64 string           `json:"image_base64,omitempty"`
	MimeType    string           `json:"mime_type"`
}

func (s *Server) handleTattooPreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a tattooPreviewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	bg, fg, err := s.loadPlacement(ctx, a.placementArgs)
	if err != nil {
		return nil, err
	}
	p := a.params()
	data, g, err := s.renders.Render(bg, fg, p)
	if err != nil {
		return nil, err
	}

	res := &previewResult{
		Width:    bg.Bounds().Dx(),
		Height:   bg.Bounds().Dy(),
		Params:   p,
		Geometry: g,
		MimeType: "image/png",
	}
	if a.OutputPath != "" {
		if err := writeOutput(a.OutputPath, data); err != nil {
			return nil, err
		}
		res.OutputPath = a.OutputPath
	} else {
		res.ImageBase64 = base64.StdEncoding.EncodeToString(data)
	}
	return res, nil
}

type tattooZoomArgs struct {
	placementArgs
	MarginPercent *float64 `json:"margin_percent"`
	Scale         float64  `json:"scale"`
}

func (s *Server) handleTattooZoom(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a tattooZoomArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	margin := 25.0
	if a.MarginPercent != nil {
		margin = *a.MarginPercent
	}
	if a.Scale == 0 {
		a.Scale = 2.0
	}
	bg, fg, err := s.loadPlacement(ctx, a.placementArgs)
	if err != nil {
		return nil, err
	}
	composite, g, err := s.renders.Image(bg, fg, a.params())
	if err != nil {
		return nil, err
	}
	return imaging.ZoomPlacement(composite, g, margin, a.Scale)
}

type tattooPlacementGridArgs struct {
	Path        string  `json:"path"`
	StepPercent float64 `json:"step_percent"`
	ShowLabels  bool    `json:"show_labels"`
	GridColor   string  `json:"grid_color"`
}

func (s *Server) handleTattooPlacementGrid(args json.RawMessage) (interface{}, error) {
	var a tattooPlacementGridArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.StepPercent == 0 {
		a.StepPercent = 10
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.PlacementGrid(img, a.StepPercent, a.ShowLabels, a.GridColor)
}

// === Image Inspection Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

type imageSampleColorsMultiArgs struct {
	Path   string `json:"path"`
	Points []struct {
		X     int    `json:"x"`
		Y     int    `json:"y"`
		Label string `json:"label,omitempty"`
	} `json:"points"`
}

func (s *Server) handleImageSampleColorsMulti(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorsMultiArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	points := make([]imaging.LabeledPoint, len(a.Points))
	for i, p := range a.Points {
		points[i] = imaging.LabeledPoint{X: p.X, Y: p.Y, Label: p.Label}
	}
	return imaging.SampleColorsMulti(img, points)
}

type tattooPaletteArgs struct {
	designSource
	Count int `json:"count"`
}

func (s *Server) handleTattooPalette(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a tattooPaletteArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 5
	}
	img, err := s.designImage(ctx, a.designSource)
	if err != nil {
		return nil, err
	}
	return imaging.DesignPalette(img, a.Count)
}

// === Artist Handoff Handlers ===

type tattooStencilArgs struct {
	designSource
	BlurRadius  *float64 `json:"blur_radius"`
	Threshold   *int     `json:"threshold"`
	LineWeight  *float64 `json:"line_weight"`
	Transparent bool     `json:"transparent"`
	OutputPath  string   `json:"output_path"`
}

type stencilResult struct {
	*imaging.StencilResult
	OutputPath string `json:"output_path,omitempty"`
}

func (s *Server) handleTattooStencil(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a tattooStencilArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	opts := imaging.DefaultStencilOptions()
	if a.BlurRadius != nil {
		opts.BlurRadius = *a.BlurRadius
	}
	if a.Threshold != nil {
		if *a.Threshold < 0 || *a.Threshold > 255 {
			return nil, fmt.Errorf("%w: threshold %d outside [0, 255]", errBadArguments, *a.Threshold)
		}
		opts.Threshold = uint8(*a.Threshold)
	}
	if a.LineWeight != nil {
		opts.LineWeight = *a.LineWeight
	}
	opts.Transparent = a.Transparent

	img, err := s.designImage(ctx, a.designSource)
	if err != nil {
		return nil, err
	}
	st, err := imaging.Stencil(img, opts)
	if err != nil {
		return nil, err
	}

	res := &stencilResult{StencilResult: st}
	if a.OutputPath != "" {
		data, err := base64.StdEncoding.DecodeString(st.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode stencil: %w", err)
		}
		if err := writeOutput(a.OutputPath, data); err != nil {
			return nil, err
		}
		st.ImageBase64 = ""
		res.OutputPath = a.OutputPath
	}
	return res, nil
}

type tattooLetteringCheckArgs struct {
	designSource
	Expected string `json:"expected"`
	Language string `json:"language"`
}

func (s *Server) handleTattooLetteringCheck(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a tattooLetteringCheckArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Expected == "" {
		return nil, fmt.Errorf("%w: expected is required", errBadArguments)
	}
	if a.Language == "" {
		a.Language = lettering.DefaultLanguage
	}
	data, err := s.designBytes(ctx, a.designSource)
	if err != nil {
		return nil, err
	}
	return lettering.Check(data, a.Expected, a.Language)
}

// === Catalog Handlers ===

type tattooStudiosArgs struct {
	ID     string `json:"id"`
	QRSize int    `json:"qr_size"`
}

type studiosResult struct {
	Studios []catalog.StudioInfo `json:"studios"`
}

type studioResult struct {
	catalog.StudioInfo
	QRBase64 string `json:"qr_base64"`
	MimeType string `json:"mime_type"`
}

func (s *Server) handleTattooStudios(args json.RawMessage) (interface{}, error) {
	var a tattooStudiosArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		return &studiosResult{Studios: catalog.Studios}, nil
	}
	if a.QRSize == 0 {
		a.QRSize = 256
	}
	studio, err := catalog.Studio(a.ID)
	if err != nil {
		return nil, err
	}
	qr, err := catalog.BookingQR(studio.ID, a.QRSize)
	if err != nil {
		return nil, err
	}
	return &studioResult{
		StudioInfo: studio,
		QRBase64:   base64.StdEncoding.EncodeToString(qr),
		MimeType:   "image/png",
	}, nil
}

type tattooGalleryArgs struct {
	Index      *int   `json:"index"`
	OutputPath string `json:"output_path"`
}

type galleryResult struct {
	Items []catalog.GalleryItem `json:"items"`
}

type galleryImageResult struct {
	catalog.GalleryItem
	SizeBytes  int    `json:"size_bytes"`
	OutputPath string `json:"output_path"`
}

func (s *Server) handleTattooGallery(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a tattooGalleryArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Index == nil {
		return &galleryResult{Items: catalog.Gallery}, nil
	}
	if *a.Index < 0 || *a.Index >= len(catalog.Gallery) {
		return nil, fmt.Errorf("%w: index %d outside [0, %d]", errBadArguments, *a.Index, len(catalog.Gallery)-1)
	}
	if a.OutputPath == "" {
		return nil, fmt.Errorf("%w: output_path is required to download a gallery image", errBadArguments)
	}
	item := catalog.Gallery[*a.Index]
	data, err := catalog.FetchImage(ctx, item.URL)
	if err != nil {
		return nil, err
	}
	if err := writeOutput(a.OutputPath, data); err != nil {
		return nil, err
	}
	return &galleryImageResult{GalleryItem: item, SizeBytes: len(data), OutputPath: a.OutputPath}, nil
}
